// Package challenge recognizes anti-bot interstitial pages by their byte
// signatures and drives a single bounded resolution attempt against a live
// browser page.
package challenge

import "bytes"

// Byte signatures of the interstitial template. Matched against raw
// captured HTML without normalization; template drift upstream silently
// disables detection, so these must track the served markup exactly.
var (
	challengeTailAttribution = []byte(`target="_blank">Cloudflare</a></div></div></div></body></html>`)
	challengeTailSecurity    = []byte(`Performance &amp; security by Cloudflare</div></div></div></body></html>`)
	challengeHead            = []byte("<html><head>\n    <style global=\"\">")
	challengeMockFrameTail   = []byte("<iframe height=\"1\" width=\"1\" style=\"position: absolute; top: 0px; left: 0px; border: none; visibility: hidden;\"></iframe>\n\n</body></html>")

	forbiddenHead = []byte("<html><head>\n    <style global=")
	forbiddenTail = []byte(";</script><iframe height=\"1\" width=\"1\" style=\"position: absolute; top: 0px; left: 0px; border: none; visibility: hidden;\"></iframe>\n\n</body></html>")
)

// Detect reports whether body is a challenge interstitial rather than real
// page content. Pure; safe for concurrent use.
func Detect(body []byte) bool {
	if len(body) == 0 {
		return false
	}
	if bytes.HasSuffix(body, challengeTailAttribution) || bytes.HasSuffix(body, challengeTailSecurity) {
		return true
	}
	return bytes.HasPrefix(body, challengeHead) && bytes.HasSuffix(body, challengeMockFrameTail)
}

// ForbiddenTemplate reports whether body matches the hidden-iframe block
// template that masquerades as a 200. Callers that have security-screening
// evidence for the navigation use this to rewrite the status to 403.
func ForbiddenTemplate(body []byte) bool {
	return bytes.HasPrefix(body, forbiddenHead) && bytes.HasSuffix(body, forbiddenTail)
}
