// Package waitfor decides when a browser-rendered page is ready. A WaitFor
// is a composite, caller-supplied readiness specification; the Engine
// evaluates each present condition best-effort, independently timeboxed,
// and never fails the enclosing fetch.
package waitfor

import "time"

// IdleNetwork waits for network activity to settle. A nil Timeout removes
// the overall bound.
type IdleNetwork struct {
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// NewIdleNetwork creates an IdleNetwork wait with the given bound.
func NewIdleNetwork(timeout *time.Duration) *IdleNetwork {
	return &IdleNetwork{Timeout: timeout}
}

// Selector waits for an element matching Selector to be present.
type Selector struct {
	Timeout  *time.Duration `yaml:"timeout,omitempty"`
	Selector string         `yaml:"selector"`
}

// NewSelector creates a Selector wait with the given bound.
func NewSelector(timeout *time.Duration, selector string) *Selector {
	return &Selector{Timeout: timeout, Selector: selector}
}

// Delay is a plain bounded sleep.
type Delay struct {
	Timeout *time.Duration `yaml:"timeout,omitempty"`
}

// NewDelay creates a fixed Delay wait.
func NewDelay(timeout *time.Duration) *Delay {
	return &Delay{Timeout: timeout}
}

// WaitFor is the composite readiness spec. Each sub-spec is independently
// optional; nil means "skip this condition". Immutable once constructed and
// supplied by the caller per fetch.
//
// Present conditions are evaluated sequentially in the fixed order
// idle-network, selector, delay. A selector wait always happens after
// idle-network has had its chance.
type WaitFor struct {
	Selector    *Selector    `yaml:"selector,omitempty"`
	IdleNetwork *IdleNetwork `yaml:"idle_network,omitempty"`
	Delay       *Delay       `yaml:"delay,omitempty"`
	// PageNavigations asks the caller to await the backend's
	// navigation-completion signal before the engine runs. This is an
	// ordering contract on the caller, not enforced here.
	PageNavigations bool `yaml:"page_navigations,omitempty"`
}

// New builds a WaitFor, sharing timeout across the idle-network and
// selector conditions when they are enabled.
func New(timeout *time.Duration, delay *Delay, pageNavigations bool, idleNetwork bool, selector string) *WaitFor {
	w := &WaitFor{
		Delay:           delay,
		PageNavigations: pageNavigations,
	}
	if idleNetwork {
		w.IdleNetwork = NewIdleNetwork(timeout)
	}
	if selector != "" {
		w.Selector = NewSelector(timeout, selector)
	}
	return w
}
