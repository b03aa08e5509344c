package utils

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"strings"
)

// --- Sentinel Errors for Categorization ---
var (
	ErrClientHTTPError = errors.New("client HTTP error (4xx)")    // Wraps original error/status
	ErrServerHTTPError = errors.New("server HTTP error (5xx)")    // Wraps original error/status
	ErrOtherHTTPError  = errors.New("other HTTP error (non-2xx)") // Wraps original error/status

	ErrBrowserNavigation = errors.New("browser navigation failed") // Wraps rod/CDP errors
	ErrBrowserCapture    = errors.New("browser content capture failed")
	ErrSpillIO           = errors.New("spillover file I/O error") // Wraps os errors from temp-file accumulation
	ErrResponseBodyRead  = errors.New("failed to read response body")
	ErrRequestCreation   = errors.New("failed to create HTTP request")
	ErrCacheWrite        = errors.New("cache write error")  // Wraps badger errors
	ErrParsing           = errors.New("parsing error")      // Wraps HTML/URL/JSON parsing errors
	ErrFilesystem        = errors.New("filesystem error")   // Wraps os errors
	ErrTokenBudget       = errors.New("token budget error") // Tokenizer unavailable or encoding failed
	ErrScreenshot        = errors.New("screenshot capture failed")
	ErrConfigValidation  = errors.New("configuration validation error")
)

// WrapErrorf wraps a sentinel error with a formatted message.
func WrapErrorf(sentinel error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", sentinel, fmt.Sprintf(format, args...))
}

// CategorizeError maps an error to a predefined category string for logging/metrics.
func CategorizeError(err error) string {
	if err == nil {
		return "None"
	}

	// Check against sentinel errors first
	switch {
	case errors.Is(err, ErrClientHTTPError):
		errMsg := err.Error()
		if strings.Contains(errMsg, " 404 ") {
			return "HTTP_404"
		}
		if strings.Contains(errMsg, " 403 ") {
			return "HTTP_403"
		}
		if strings.Contains(errMsg, " 429 ") {
			return "HTTP_429"
		}
		return "HTTP_4xx" // Generic 4xx
	case errors.Is(err, ErrServerHTTPError):
		return "HTTP_5xx"
	case errors.Is(err, ErrOtherHTTPError):
		return "HTTP_OtherStatus"
	case errors.Is(err, ErrBrowserNavigation):
		return "Browser_Navigation"
	case errors.Is(err, ErrBrowserCapture):
		return "Browser_Capture"
	case errors.Is(err, ErrScreenshot):
		return "Browser_Screenshot"
	case errors.Is(err, ErrSpillIO):
		if errors.Is(err, os.ErrPermission) {
			return "Spill_Permission"
		}
		return "Spill_IO"
	case errors.Is(err, ErrCacheWrite):
		return "Cache_Write"
	case errors.Is(err, ErrResponseBodyRead):
		return "Network_BodyRead"
	case errors.Is(err, ErrRequestCreation):
		return "Internal_RequestCreation"
	case errors.Is(err, ErrTokenBudget):
		return "AI_TokenBudget"
	case errors.Is(err, ErrParsing):
		errMsg := err.Error()
		if strings.Contains(errMsg, "URL") {
			return "Content_ParsingURL"
		}
		if strings.Contains(errMsg, "HTML") {
			return "Content_ParsingHTML"
		}
		if strings.Contains(errMsg, "JSON") {
			return "Content_ParsingJSON"
		}
		return "Content_ParsingOther"
	case errors.Is(err, ErrFilesystem):
		if errors.Is(err, os.ErrPermission) {
			return "Filesystem_Permission"
		}
		if errors.Is(err, os.ErrNotExist) {
			return "Filesystem_NotExist"
		}
		return "Filesystem_Other"
	case errors.Is(err, ErrConfigValidation):
		return "Config_Validation"
	}

	// --- Fallback checks for common underlying error types/strings ---

	// Context errors
	if errors.Is(err, context.Canceled) {
		return "System_ContextCanceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "System_ContextDeadlineExceeded"
	}

	// Network errors (if not wrapped by custom sentinels)
	var netErr net.Error
	if errors.As(err, &netErr) {
		if netErr.Timeout() {
			return "Network_Timeout"
		}
	}
	// Use lowercase for reliable substring checks
	lowerErrMsg := strings.ToLower(err.Error())
	if strings.Contains(lowerErrMsg, "timeout") {
		return "Network_TimeoutGeneric"
	}
	if strings.Contains(lowerErrMsg, "connection refused") {
		return "Network_ConnectionRefused"
	}
	if strings.Contains(lowerErrMsg, "no such host") {
		return "Network_DNSLookup"
	}
	if strings.Contains(lowerErrMsg, "tls") || strings.Contains(lowerErrMsg, "certificate") {
		return "Network_TLS"
	}
	if strings.Contains(lowerErrMsg, "reset by peer") {
		return "Network_ConnectionReset"
	}
	if strings.Contains(lowerErrMsg, "broken pipe") {
		return "Network_BrokenPipe"
	}

	return "Unknown"
}
