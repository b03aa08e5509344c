// Package control is the broadcast mechanism for pause/resume/shutdown
// signaling across in-progress crawls. It is a single-slot channel, not a
// queue: each publish overwrites the previous value and subscribers observe
// only the most recent signal. The bus does no routing; consumers compare
// the target against their own crawl identifier to decide relevance.
package control

import (
	"context"
	"sync"
)

// Signal is a crawl control state. The set is flat: any signal may follow
// any other, there is no enforced transition table.
type Signal int

const (
	// SignalStart is the initial state and the value published by Reset.
	SignalStart Signal = iota
	// SignalPause asks matching crawl loops to stop dequeuing work.
	SignalPause
	// SignalResume asks paused crawl loops to continue.
	SignalResume
	// SignalShutdown asks matching crawl loops to terminate.
	SignalShutdown
)

func (s Signal) String() string {
	switch s {
	case SignalStart:
		return "start"
	case SignalPause:
		return "pause"
	case SignalResume:
		return "resume"
	case SignalShutdown:
		return "shutdown"
	default:
		return "unknown"
	}
}

// Entry is one published (target, signal) pair. The target is an opaque
// identifier, by convention a crawl id joined with the domain (see Target).
type Entry struct {
	Target string
	Signal Signal
}

// bus lives for the process lifetime; init on first use, no teardown.
type bus struct {
	mu     sync.RWMutex
	latest Entry
	notify chan struct{} // closed and replaced on every publish
}

var (
	busOnce sync.Once
	global  *bus
)

func handle() *bus {
	busOnce.Do(func() {
		global = &bus{
			latest: Entry{Target: "handles", Signal: SignalStart},
			notify: make(chan struct{}),
		}
	})
	return global
}

// publish overwrites the slot and wakes every subscriber. Sends with no
// current subscriber are not an error.
func publish(target string, s Signal) {
	b := handle()
	b.mu.Lock()
	b.latest = Entry{Target: target, Signal: s}
	close(b.notify)
	b.notify = make(chan struct{})
	b.mu.Unlock()
}

// Pause a target crawl. Fire-and-forget.
func Pause(target string) { publish(target, SignalPause) }

// Resume a target crawl. Fire-and-forget.
func Resume(target string) { publish(target, SignalResume) }

// Shutdown a target crawl. Fire-and-forget.
func Shutdown(target string) { publish(target, SignalShutdown) }

// Reset a target crawl back to the start state. Fire-and-forget.
func Reset(target string) { publish(target, SignalStart) }

// Receiver observes the bus. All receivers share the single slot.
type Receiver struct {
	b *bus
}

// Subscribe returns a receiver over the process-wide bus.
func Subscribe() *Receiver {
	return &Receiver{b: handle()}
}

// Latest returns the most recently published entry. No history is kept.
func (r *Receiver) Latest() Entry {
	r.b.mu.RLock()
	defer r.b.mu.RUnlock()
	return r.b.latest
}

// Changed blocks until the slot is overwritten or ctx is done. A publish
// between Latest and Changed wakes the next call immediately only if it
// happens after the notify channel was captured; callers should loop on
// Changed then Latest.
func (r *Receiver) Changed(ctx context.Context) error {
	r.b.mu.RLock()
	ch := r.b.notify
	r.b.mu.RUnlock()

	select {
	case <-ch:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
