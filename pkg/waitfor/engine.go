package waitfor

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"
)

const (
	// idleQuietWindow is how long the idle-network wait lingers for a
	// first network event before declaring the page quiet.
	idleQuietWindow = 500 * time.Millisecond

	// selectorPollInterval is the spacing between selector presence probes.
	selectorPollInterval = 50 * time.Millisecond
)

// Engine applies a WaitFor spec to a live browser page. All waits are
// best-effort: a timeout or browser error ends the wait, it never fails
// the fetch.
type Engine struct {
	log *log.Entry
}

// NewEngine creates a wait engine logging through the given entry.
func NewEngine(logger *log.Entry) *Engine {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Engine{log: logger}
}

// Apply evaluates the present conditions of w against page in the fixed
// order idle-network, selector, delay. A nil or empty spec is a no-op.
func (e *Engine) Apply(ctx context.Context, page *rod.Page, w *WaitFor) {
	if w == nil || page == nil {
		return
	}
	if w.IdleNetwork != nil {
		e.waitIdleNetwork(ctx, page, w.IdleNetwork.Timeout)
	}
	if w.Selector != nil && w.Selector.Selector != "" {
		e.waitSelector(ctx, page, w.Selector.Timeout, w.Selector.Selector)
	}
	if w.Delay != nil && w.Delay.Timeout != nil {
		sleepBounded(ctx, *w.Delay.Timeout)
	}
}

// waitIdleNetwork resolves on the first network-loading-finished event, or
// after idleQuietWindow of silence, whichever comes first, bounded by the
// optional timeout.
func (e *Engine) waitIdleNetwork(ctx context.Context, page *rod.Page, timeout *time.Duration) {
	if timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	scoped := page.Context(ctx)
	fired := make(chan struct{})
	go func() {
		defer close(fired)
		// Returns on the first event or when ctx unwinds the page.
		scoped.EachEvent(func(ev *proto.NetworkLoadingFinished) bool {
			return true
		})()
	}()

	select {
	case <-fired:
	case <-time.After(idleQuietWindow):
	case <-ctx.Done():
	}
}

// waitSelector polls for the selector every selectorPollInterval until it
// appears or the bound expires.
func (e *Engine) waitSelector(ctx context.Context, page *rod.Page, timeout *time.Duration, selector string) {
	if timeout != nil {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, *timeout)
		defer cancel()
	}

	probe := page.Context(ctx).Sleeper(rod.NotFoundSleeper)
	for {
		if _, err := probe.Element(selector); err == nil {
			return
		}
		select {
		case <-ctx.Done():
			e.log.WithField("selector", selector).Debug("Selector wait ended without a match")
			return
		case <-time.After(selectorPollInterval):
		}
	}
}

// sleepBounded sleeps for d or until ctx is done.
func sleepBounded(ctx context.Context, d time.Duration) {
	select {
	case <-time.After(d):
	case <-ctx.Done():
	}
}
