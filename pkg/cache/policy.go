package cache

import (
	"net/http"
	"strings"
	"time"

	"github.com/pquerna/cachecontrol/cacheobject"
)

// Policy is the distilled caching verdict persisted alongside one stored
// response. Cacheability and freshness are computed by the cachecontrol
// RFC 9111 engine from the request line and response metadata; the body is
// never inspected.
type Policy struct {
	NoStore      bool      `json:"no_store,omitempty"`
	NoCache      bool      `json:"no_cache,omitempty"` // Stored but must revalidate before reuse
	FreshUntil   time.Time `json:"fresh_until,omitempty"`
	ETag         string    `json:"etag,omitempty"`
	LastModified string    `json:"last_modified,omitempty"`
	ResponseTime time.Time `json:"response_time"`
}

// NewPolicy derives a cache policy at time now. The shared-cache rules
// apply: private responses are not stored.
func NewPolicy(method string, status int, reqHeaders, respHeaders map[string]string, now time.Time) Policy {
	p := Policy{ResponseTime: now}

	reqDir, err := cacheobject.ParseRequestCacheControl(headerValue(reqHeaders, "Cache-Control"))
	if err != nil {
		p.NoStore = true
		return p
	}
	respDir, err := cacheobject.ParseResponseCacheControl(headerValue(respHeaders, "Cache-Control"))
	if err != nil {
		p.NoStore = true
		return p
	}

	obj := cacheobject.Object{
		RespDirectives:         respDir,
		RespHeaders:            canonicalHeader(respHeaders),
		RespStatusCode:         status,
		RespExpiresHeader:      headerTime(respHeaders, "Expires"),
		RespDateHeader:         headerTime(respHeaders, "Date"),
		RespLastModifiedHeader: headerTime(respHeaders, "Last-Modified"),
		ReqDirectives:          reqDir,
		ReqHeaders:             canonicalHeader(reqHeaders),
		ReqMethod:              strings.ToUpper(method),
		NowUTC:                 now.UTC(),
	}
	var rv cacheobject.ObjectResults
	cacheobject.CachableObject(&obj, &rv)
	cacheobject.ExpirationObject(&obj, &rv)

	if rv.OutErr != nil || len(rv.OutReasons) > 0 {
		p.NoStore = true
		return p
	}

	p.NoCache = respDir.NoCachePresent
	p.FreshUntil = rv.OutExpirationTime
	p.ETag = headerValue(respHeaders, "ETag")
	p.LastModified = headerValue(respHeaders, "Last-Modified")
	return p
}

// Fresh reports whether the stored response may be reused without
// revalidation at time now.
func (p Policy) Fresh(now time.Time) bool {
	if p.NoStore || p.NoCache {
		return false
	}
	return !p.FreshUntil.IsZero() && now.Before(p.FreshUntil)
}

// HasValidators reports whether a conditional revalidation request can be built.
func (p Policy) HasValidators() bool {
	return p.ETag != "" || p.LastModified != ""
}

// headerValue looks a header up case-insensitively in a plain string map,
// as delivered by the browser backend's network events.
func headerValue(headers map[string]string, name string) string {
	if v, ok := headers[name]; ok {
		return v
	}
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v
		}
	}
	return ""
}

func headerTime(headers map[string]string, name string) time.Time {
	v := headerValue(headers, name)
	if v == "" {
		return time.Time{}
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return time.Time{}
	}
	return t
}

func canonicalHeader(headers map[string]string) http.Header {
	h := http.Header{}
	for k, v := range headers {
		h.Set(k, v)
	}
	return h
}
