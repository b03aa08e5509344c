package challenge

import (
	"context"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/waitfor"
)

const clickFramesJS = `() => document.querySelectorAll("iframe").forEach(el=>el.click());`

var (
	settleDelay     = 1 * time.Second
	settleIdleBound = 8 * time.Second
	lastResortDelay = 4 * time.Second
)

// Page is the slice of a live tab the resolver drives: script execution and
// document capture. *rod.Page satisfies it.
type Page interface {
	Eval(js string, jsArgs ...interface{}) (*proto.RuntimeRemoteObject, error)
	HTML() (string, error)
}

// Resolver runs the one-pass challenge ladder against a live page.
type Resolver struct {
	engine *waitfor.Engine
	log    *log.Entry
}

// NewResolver creates a Resolver that times its waits through engine.
func NewResolver(engine *waitfor.Engine, logger *log.Entry) *Resolver {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}
	return &Resolver{engine: engine, log: logger}
}

// Resolve attempts to get past a detected interstitial exactly once and
// returns the body to use afterwards. If body is not a challenge it is
// returned unchanged. The ladder: settle (1s delay + bounded idle-network),
// click every iframe, settle again, recapture; if the recapture still
// matches, one last 4s settle and a final recapture. The final bytes are
// returned whether or not they still match; browser errors leave the
// original body in place.
func (r *Resolver) Resolve(ctx context.Context, page Page, body []byte) []byte {
	if page == nil || !Detect(body) {
		return body
	}

	r.log.Debug("Challenge interstitial detected, attempting resolution")

	settle := &waitfor.WaitFor{
		Delay:       waitfor.NewDelay(&settleDelay),
		IdleNetwork: waitfor.NewIdleNetwork(&settleIdleBound),
	}
	r.settle(ctx, page, settle)

	if _, err := page.Eval(clickFramesJS); err != nil {
		r.log.WithError(err).Debug("Challenge frame click failed")
	}

	settle.PageNavigations = true
	r.settle(ctx, page, settle)

	next, err := capture(page)
	if err != nil {
		r.log.WithError(err).Debug("Challenge recapture failed")
		return body
	}

	if Detect(next) {
		settle.Delay = waitfor.NewDelay(&lastResortDelay)
		r.settle(ctx, page, settle)
		if again, err := capture(page); err == nil {
			next = again
		}
	}

	return next
}

// settle applies waits through the engine. Waits need the page's event bus,
// so pages that are not live browser tabs skip them.
func (r *Resolver) settle(ctx context.Context, page Page, w *waitfor.WaitFor) {
	rp, ok := page.(*rod.Page)
	if !ok || r.engine == nil {
		return
	}
	r.engine.Apply(ctx, rp, w)
}

func capture(page Page) ([]byte, error) {
	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	return []byte(html), nil
}
