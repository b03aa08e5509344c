package control

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_LatestSignalWins(t *testing.T) {
	rx := Subscribe()

	Pause("siteA")
	got := rx.Latest()
	assert.Equal(t, "siteA", got.Target)
	assert.Equal(t, SignalPause, got.Signal)

	// A later signal for a different target overwrites the slot entirely:
	// no history of (siteA, pause) remains observable.
	Resume("siteB")
	got = rx.Latest()
	assert.Equal(t, "siteB", got.Target)
	assert.Equal(t, SignalResume, got.Signal)
}

func TestBus_ChangedWakesOnPublish(t *testing.T) {
	rx := Subscribe()

	done := make(chan Entry, 1)
	ready := make(chan struct{})
	go func() {
		close(ready)
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := rx.Changed(ctx); err == nil {
			done <- rx.Latest()
		}
	}()

	<-ready
	time.Sleep(10 * time.Millisecond) // let the subscriber capture the slot
	Shutdown("siteC")

	select {
	case e := <-done:
		assert.Equal(t, "siteC", e.Target)
		assert.Equal(t, SignalShutdown, e.Signal)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never woke on publish")
	}
}

func TestBus_ChangedHonorsContext(t *testing.T) {
	rx := Subscribe()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := rx.Changed(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestBus_SendWithoutSubscriberIsFine(t *testing.T) {
	// Must not panic or block.
	Reset("nobody-listening")
	assert.Equal(t, SignalStart, Subscribe().Latest().Signal)
}

func TestSignal_String(t *testing.T) {
	assert.Equal(t, "pause", SignalPause.String())
	assert.Equal(t, "resume", SignalResume.String())
	assert.Equal(t, "shutdown", SignalShutdown.String())
	assert.Equal(t, "start", SignalStart.String())
}

func TestTarget(t *testing.T) {
	id := NewCrawlID()
	require.NotEmpty(t, id)

	target := Target(id, "https://mydomain.com")
	assert.True(t, strings.HasPrefix(target, id+"-"))
	assert.True(t, strings.HasSuffix(target, "https://mydomain.com"))
	assert.Equal(t, "https://mydomain.com", Target("", "https://mydomain.com"))
}
