package browser

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	log "github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// NavResult is the HTTP-level metadata observed while a page navigation
// settled.
type NavResult struct {
	StatusCode     int
	Headers        http.Header
	Method         string
	RequestHeaders http.Header
	Protocol       string
	Version        models.HTTPVersion
	// WAFCheck is set when the document response landed off-origin and
	// looked like a challenge platform: a certificate issued to
	// challenges.cloudflare.com, a /cdn-cgi/challenge-platform resource,
	// or a blob-protocol response.
	WAFCheck bool
}

// DefaultNavResult is the metadata assumed for a page that was never
// navigated, such as a static render or a caller-supplied tab.
func DefaultNavResult() *NavResult {
	return &NavResult{
		StatusCode: http.StatusOK,
		Headers:    http.Header{},
		Method:     http.MethodGet,
		Protocol:   "http/1.1",
		Version:    models.HTTP11,
	}
}

// Navigate drives page to targetURL, waits for the load event, and returns
// the metadata of the document response. Responses observed before the
// load event completes feed the WAF heuristic.
func Navigate(ctx context.Context, page *rod.Page, targetURL string, logger *log.Entry) (*NavResult, error) {
	if logger == nil {
		logger = log.NewEntry(log.StandardLogger())
	}

	nav := DefaultNavResult()

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	watcher := page.Context(watchCtx)
	watchDone := make(chan struct{})
	go func() {
		defer close(watchDone)
		watcher.EachEvent(func(e *proto.NetworkRequestWillBeSent) {
			if e.Type != proto.NetworkResourceTypeDocument || e.Request == nil {
				return
			}
			if e.Request.Method != "" {
				nav.Method = e.Request.Method
			}
			nav.RequestHeaders = convertHeaders(e.Request.Headers)
		}, func(e *proto.NetworkResponseReceived) {
			if e.Response == nil || e.Type != proto.NetworkResourceTypeDocument {
				return
			}
			nav.StatusCode = normalizeStatus(e.Response.Status)
			nav.Headers = convertHeaders(e.Response.Headers)
			if e.Response.Protocol != "" {
				nav.Protocol = e.Response.Protocol
				nav.Version = models.HTTPVersionFromProtocol(e.Response.Protocol)
			}
			if !strings.HasPrefix(e.Response.URL, targetURL) && !nav.WAFCheck {
				nav.WAFCheck = suspectResponse(e.Response)
			}
		})()
	}()

	scoped := page.Context(ctx)
	if err := scoped.Navigate(targetURL); err != nil {
		return nil, utils.WrapErrorf(utils.ErrBrowserNavigation, "navigating to %s: %v", targetURL, err)
	}
	if err := scoped.WaitLoad(); err != nil {
		logger.WithError(err).WithField("url", targetURL).Debug("Load event wait ended early")
	}

	stopWatch()
	<-watchDone

	return nav, nil
}

// Capture returns the serialized document of the page.
func Capture(ctx context.Context, page *rod.Page) ([]byte, error) {
	html, err := page.Context(ctx).HTML()
	if err != nil {
		return nil, utils.WrapErrorf(utils.ErrBrowserCapture, "serializing document: %v", err)
	}
	return []byte(html), nil
}

// FinalURL reports the page's current URL after navigation and any
// redirects.
func FinalURL(page *rod.Page) (string, error) {
	info, err := page.Info()
	if err != nil {
		return "", utils.WrapErrorf(utils.ErrBrowserNavigation, "reading page info: %v", err)
	}
	return info.URL, nil
}

func suspectResponse(r *proto.NetworkResponse) bool {
	var suspect bool
	if r.SecurityDetails != nil {
		suspect = r.SecurityDetails.SubjectName == "challenges.cloudflare.com"
	} else {
		suspect = strings.Contains(r.URL, "/cdn-cgi/challenge-platform")
	}
	if !suspect {
		suspect = r.Protocol == "blob"
	}
	return suspect
}

// normalizeStatus maps statuses outside the valid HTTP range to 417.
func normalizeStatus(status int) int {
	if status < 100 || status > 599 {
		return http.StatusExpectationFailed
	}
	return status
}

func convertHeaders(h proto.NetworkHeaders) http.Header {
	out := http.Header{}
	for k, v := range h {
		out.Set(k, v.Str())
	}
	return out
}
