package models

import (
	"net/http"
)

// HTTPVersion tags the protocol a response was served over.
type HTTPVersion string

const (
	HTTP09 HTTPVersion = "HTTP/0.9"
	HTTP10 HTTPVersion = "HTTP/1.0"
	HTTP11 HTTPVersion = "HTTP/1.1"
	HTTP2  HTTPVersion = "HTTP/2"
	HTTP3  HTTPVersion = "HTTP/3"
)

// HTTPVersionFromProtocol maps a wire protocol string (as reported by the
// browser's network layer or net/http's Response.Proto) to an HTTPVersion.
// Unknown protocols default to HTTP/1.1.
func HTTPVersionFromProtocol(protocol string) HTTPVersion {
	switch protocol {
	case "http/0.9", "HTTP/0.9":
		return HTTP09
	case "http/1", "http/1.0", "HTTP/1.0":
		return HTTP10
	case "http/1.1", "HTTP/1.1":
		return HTTP11
	case "http/2", "http/2.0", "HTTP/2", "HTTP/2.0", "h2":
		return HTTP2
	case "http/3", "http/3.0", "HTTP/3", "h3":
		return HTTP3
	default:
		return HTTP11
	}
}

// AIUsage records the token spend of a single LLM call.
type AIUsage struct {
	PromptTokens     int  `json:"prompt_tokens"`
	CompletionTokens int  `json:"completion_tokens"`
	TotalTokens      int  `json:"total_tokens"`
	Cached           bool `json:"cached,omitempty"`
}

// AIResult holds the artifacts produced for one AI prompt against a page.
type AIResult struct {
	Input            string   `json:"input"`                       // The prompt that produced this result
	JSOutput         string   `json:"js_output"`                   // Script the model asked to run on the page
	ContentOutput    []string `json:"content_output,omitempty"`    // Extracted data, when JSON mode is enabled
	ScreenshotOutput []byte   `json:"screenshot_output,omitempty"` // Post-script screenshot, when enabled
	Error            string   `json:"error,omitempty"`             // Per-prompt failure; later prompts still run
}

// PageResponse is the unit of output of the fetch engine. Constructed fresh
// per fetch and handed to the caller; never retained by the engine.
//
// Content is nil only when the fetch produced zero bytes or failed before
// any byte was read.
type PageResponse struct {
	// Content is the page body. May be truncated to the configured max
	// fetch size.
	Content []byte
	// Headers of the response. Nil when the backend cannot supply them.
	Headers http.Header
	// StatusCode of the request.
	StatusCode int
	// FinalURL is set only when a redirect changed the requested URL.
	FinalURL string
	// ErrorForStatus captures a non-fatal HTTP-layer error without failing
	// the whole fetch.
	ErrorForStatus error
	// ScreenshotBytes holds the rendered screenshot when one was requested
	// with bytes enabled.
	ScreenshotBytes []byte
	// AICreditsUsed lists token usage per AI prompt, in order.
	AICreditsUsed []AIUsage
	// AIExtraResults lists AI artifacts per prompt, in order.
	AIExtraResults []AIResult
}

// NewPageResponse returns a PageResponse with the default OK status,
// matching the behavior of backends that only report failures explicitly.
func NewPageResponse() *PageResponse {
	return &PageResponse{StatusCode: http.StatusOK}
}

// AddAIUsage appends a usage record in prompt order.
func (p *PageResponse) AddAIUsage(u AIUsage) {
	p.AICreditsUsed = append(p.AICreditsUsed, u)
}

// AddAIResult appends an AI artifact record in prompt order.
func (p *PageResponse) AddAIResult(r AIResult) {
	p.AIExtraResults = append(p.AIExtraResults, r)
}

// HttpResponse is the payload handed to the hybrid cache writer. It carries
// everything needed to replay the response to either backend.
type HttpResponse struct {
	Body    []byte            `json:"body"`
	Headers map[string]string `json:"headers"`
	Status  int               `json:"status"`
	URL     string            `json:"url"`
	Version HTTPVersion       `json:"version"`
}
