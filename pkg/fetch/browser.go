package fetch

import (
	"context"
	"net/http"

	"github.com/Sriram-PR/page-engine/pkg/browser"
	"github.com/Sriram-PR/page-engine/pkg/cache"
	"github.com/Sriram-PR/page-engine/pkg/challenge"
	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// fetchBrowser acquires the page through a rendered browser tab. Errors at
// the browser layer are returned so the caller can fall back to raw HTTP;
// everything past a successful capture degrades in place instead.
func (e *Engine) fetchBrowser(ctx context.Context, targetURL string, opts *Options) (*models.PageResponse, error) {
	page := opts.Page
	if page == nil {
		if opts.PageSet {
			return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "page-set fetch needs a live page")
		}
		if e.browser == nil {
			return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "no browser manager configured")
		}
		var err error
		page, err = e.browser.NewPage()
		if err != nil {
			return nil, err
		}
		if !e.keepPage {
			defer func() {
				if err := page.Close(); err != nil {
					e.log.WithError(err).Debug("Page close reported an error")
				}
			}()
		}
	}

	// An organic navigation is one this fetch performed itself; replayed
	// pages and static renders never navigated, so they have no redirect
	// chain and must not feed the cache.
	navigated := !opts.PageSet && opts.StaticHTML == ""

	nav := browser.DefaultNavResult()
	if !opts.PageSet {
		if opts.StaticHTML != "" {
			if err := page.Context(ctx).SetDocumentContent(opts.StaticHTML); err != nil {
				return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "setting document content: %v", err)
			}
		} else {
			navCtx, cancel := context.WithTimeout(ctx, e.navTimeout.GetEffectiveNavigationTimeout())
			var err error
			nav, err = browser.Navigate(navCtx, page, targetURL, e.log)
			cancel()
			if err != nil {
				return nil, err
			}
		}
	}

	e.waitEngine.Apply(ctx, page, opts.WaitFor)

	body, err := browser.Capture(ctx, page)
	if err != nil {
		return nil, err
	}
	body = e.resolver.Resolve(ctx, page.Context(ctx), body)

	if nav.WAFCheck && challenge.ForbiddenTemplate(body) {
		nav.StatusCode = http.StatusForbidden
	}

	resp := models.NewPageResponse()
	resp.StatusCode = nav.StatusCode
	resp.Headers = nav.Headers
	if len(body) > 0 {
		resp.Content = body
	}
	if navigated {
		if final, err := browser.FinalURL(page); err == nil {
			resp.FinalURL = resolveFinalURL(final, targetURL)
		}
	}

	if e.bridge != nil {
		if opts.AI != nil {
			e.bridge.AugmentWith(ctx, page, targetURL, opts.WaitFor, opts.AI, resp)
		} else {
			e.bridge.Augment(ctx, page, targetURL, opts.WaitFor, resp)
		}
	}

	if shot := e.screenshotConfig(opts); shot != nil {
		data, err := browser.Screenshot(ctx, page, targetURL, shot, e.log)
		if err != nil {
			e.log.WithError(err).WithField("url", targetURL).Error("Screenshot capture failed")
		} else {
			resp.ScreenshotBytes = data
		}
	}

	if e.store != nil && navigated {
		e.store.Store(
			cache.Key(nav.Method, targetURL),
			models.HttpResponse{
				Body:    resp.Content,
				Headers: flattenHeaders(nav.Headers),
				Status:  nav.StatusCode,
				URL:     targetURL,
				Version: nav.Version,
			},
			nav.Method,
			flattenHeaders(nav.RequestHeaders),
		)
	}

	return resp, nil
}

// resolveFinalURL reports the redirect target of a navigation, or empty when
// the page ended up where it was asked to go.
func resolveFinalURL(current, requested string) string {
	if current == "" || current == requested {
		return ""
	}
	return current
}

// screenshotConfig merges the per-fetch screenshot request with the
// engine-level defaults. A per-fetch config wins field by field; with none,
// the defaults apply only when enabled, saving to their output directory.
func (e *Engine) screenshotConfig(opts *Options) *browser.ScreenShotConfig {
	var shot browser.ScreenShotConfig
	switch {
	case opts.Screenshot != nil:
		shot = *opts.Screenshot
	case e.shotDefaults.Enabled:
		shot.Save = true
	default:
		return nil
	}

	if shot.FullPage == nil {
		shot.FullPage = e.shotDefaults.FullPage
	}
	if shot.OmitBackground == nil {
		shot.OmitBackground = e.shotDefaults.OmitBackground
	}
	if shot.OutputDir == "" {
		shot.OutputDir = e.shotDefaults.OutputDir
	}
	return &shot
}

func flattenHeaders(h http.Header) map[string]string {
	if h == nil {
		return nil
	}
	out := make(map[string]string, len(h))
	for k := range h {
		out[k] = h.Get(k)
	}
	return out
}
