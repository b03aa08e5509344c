package config

import (
	"os"
	"strconv"
)

// Environment-level tunables. These sit below yaml config: an explicit
// config value wins, the env var fills the gap, and a hardcoded default
// backstops both.
const (
	// EnvMaxSizeBytes caps the total bytes accumulated per fetch.
	EnvMaxSizeBytes = "PAGE_ENGINE_MAX_SIZE_BYTES"
	// EnvScreenshotDirectory is the default screenshot output directory.
	EnvScreenshotDirectory = "SCREENSHOT_DIRECTORY"
	// EnvScreenshotFullPage toggles full-page capture when unset per fetch.
	EnvScreenshotFullPage = "SCREENSHOT_FULL_PAGE"
	// EnvScreenshotOmitBackground toggles transparent backgrounds when
	// unset per fetch.
	EnvScreenshotOmitBackground = "SCREENSHOT_OMIT_BACKGROUND"
)

const (
	defaultMaxSizeBytes = 1 << 30 // 1 GiB, applied when the env value fails to parse
	minSizeBytesFloor   = 1 << 20 // 1 MiB floor for any nonzero cap
)

// ResolveMaxSizeBytes returns the effective per-fetch byte cap. A value of 0
// means unlimited. Nonzero values are clamped to a 1 MiB floor so a typo in
// the env var cannot silently truncate every page to a few bytes.
func ResolveMaxSizeBytes(explicit *int64) int64 {
	if explicit != nil {
		return clampSizeBytes(*explicit)
	}
	raw, ok := os.LookupEnv(EnvMaxSizeBytes)
	if !ok {
		return 0 // unlimited
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		n = defaultMaxSizeBytes
	}
	return clampSizeBytes(n)
}

func clampSizeBytes(n int64) int64 {
	if n == 0 {
		return 0
	}
	if n < minSizeBytesFloor {
		return minSizeBytesFloor
	}
	return n
}

// ResolveScreenshotDir returns the screenshot output directory: explicit
// config, then SCREENSHOT_DIRECTORY, then ./storage/.
func ResolveScreenshotDir(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if dir := os.Getenv(EnvScreenshotDirectory); dir != "" {
		return dir
	}
	return "./storage/"
}

// ResolveScreenshotFullPage resolves the full-page capture flag: explicit
// per-fetch or config value, then SCREENSHOT_FULL_PAGE, then true.
func ResolveScreenshotFullPage(explicit *bool) bool {
	return resolveBoolEnv(explicit, EnvScreenshotFullPage)
}

// ResolveScreenshotOmitBackground resolves the transparent-background flag:
// explicit value, then SCREENSHOT_OMIT_BACKGROUND, then true.
func ResolveScreenshotOmitBackground(explicit *bool) bool {
	return resolveBoolEnv(explicit, EnvScreenshotOmitBackground)
}

func resolveBoolEnv(explicit *bool, env string) bool {
	if explicit != nil {
		return *explicit
	}
	if raw, ok := os.LookupEnv(env); ok {
		return raw == "true"
	}
	return true
}
