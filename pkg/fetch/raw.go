package fetch

import (
	"context"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Sriram-PR/page-engine/pkg/accumulate"
	"github.com/Sriram-PR/page-engine/pkg/models"
	"github.com/Sriram-PR/page-engine/pkg/utils"
)

// fetchRaw performs a plain GET and streams the body through an
// accumulator. Transport-level failures are absorbed: the caller gets an
// empty response with the default status, never an error.
func (e *Engine) fetchRaw(ctx context.Context, targetURL string, allowSpill bool) *models.PageResponse {
	resp := models.NewPageResponse()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, targetURL, nil)
	if err != nil {
		e.log.WithField("url", targetURL).Warnf("%v", utils.WrapErrorf(utils.ErrRequestCreation, "building request: %v", err))
		return resp
	}
	if e.userAgent != "" {
		req.Header.Set("User-Agent", e.userAgent)
	}

	res, err := e.client.Do(req)
	if err != nil {
		e.log.WithField("url", targetURL).Debugf("Transport error, returning empty response: %v", err)
		return resp
	}
	defer res.Body.Close()

	resp.StatusCode = res.StatusCode
	resp.Headers = res.Header.Clone()
	if final := res.Request.URL.String(); final != targetURL {
		resp.FinalURL = final
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		resp.ErrorForStatus = statusError(res.StatusCode, targetURL)
		e.log.WithFields(logrus.Fields{
			"url":            targetURL,
			"status":         res.StatusCode,
			"error_category": utils.CategorizeError(resp.ErrorForStatus),
		}).Debug("Non-success status")
		return resp
	}

	acc := accumulate.New(targetURL, e.maxBytes, e.spillThreshold, allowSpill, e.log)
	if _, err := acc.ReadFrom(res.Body); err != nil {
		// Keep whatever was accumulated before the stream broke.
		e.log.WithField("url", targetURL).Debugf("Body read ended early: %v", err)
	}
	if acc.Truncated() {
		e.log.WithField("url", targetURL).Debug("Body truncated at the configured size cap")
	}
	resp.Content = acc.Bytes()
	return resp
}

func statusError(status int, targetURL string) error {
	switch {
	case status >= 400 && status < 500:
		return utils.WrapErrorf(utils.ErrClientHTTPError, "status %d fetching %s", status, targetURL)
	case status >= 500:
		return utils.WrapErrorf(utils.ErrServerHTTPError, "status %d fetching %s", status, targetURL)
	default:
		return utils.WrapErrorf(utils.ErrOtherHTTPError, "status %d fetching %s", status, targetURL)
	}
}
