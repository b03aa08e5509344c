package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// BackendMode selects the fetch strategy the engine is built with. The
// choice is made once at construction time, not per call.
type BackendMode string

const (
	// BackendRaw streams bodies fully in memory with a global size cap.
	BackendRaw BackendMode = "raw"
	// BackendSpill streams bodies through memory with disk spillover past
	// the threshold. Used when large bodies are expected.
	BackendSpill BackendMode = "spill"
	// BackendBrowser drives a real browser, falling back to raw HTTP on
	// any backend-level failure.
	BackendBrowser BackendMode = "browser"
)

// BrowserConfig holds settings for the browser backend.
type BrowserConfig struct {
	RemoteURL         string        `yaml:"remote_url,omitempty"`         // WebSocket URL of an external Chrome; empty launches a local one
	Headless          *bool         `yaml:"headless,omitempty"`           // nil = headless
	Stealth           *bool         `yaml:"stealth,omitempty"`            // nil = stealth pages enabled
	NavigationTimeout time.Duration `yaml:"navigation_timeout,omitempty"` // Per-navigation bound (0 = default)
	KeepPageOpen      bool          `yaml:"keep_page_open,omitempty"`     // Skip closing the page after each fetch
}

// GetEffectiveHeadless resolves the headless flag, defaulting to true.
func (c *BrowserConfig) GetEffectiveHeadless() bool {
	if c.Headless != nil {
		return *c.Headless
	}
	return true
}

// GetEffectiveStealth resolves the stealth flag, defaulting to true.
func (c *BrowserConfig) GetEffectiveStealth() bool {
	if c.Stealth != nil {
		return *c.Stealth
	}
	return true
}

// GetEffectiveNavigationTimeout resolves the per-navigation bound.
func (c *BrowserConfig) GetEffectiveNavigationTimeout() time.Duration {
	if c.NavigationTimeout > 0 {
		return c.NavigationTimeout
	}
	return 30 * time.Second
}

// ScreenshotDefaults holds build-time screenshot behavior. Per-fetch
// ScreenShotConfig overrides these; env vars fill unset fields.
type ScreenshotDefaults struct {
	Enabled        bool   `yaml:"enabled,omitempty"`         // Capture even without a per-fetch config
	OutputDir      string `yaml:"output_dir,omitempty"`      // Falls back to SCREENSHOT_DIRECTORY, then ./storage/
	FullPage       *bool  `yaml:"full_page,omitempty"`       // Falls back to SCREENSHOT_FULL_PAGE, then true
	OmitBackground *bool  `yaml:"omit_background,omitempty"` // Falls back to SCREENSHOT_OMIT_BACKGROUND, then true
}

// CacheConfig holds hybrid response cache settings.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled,omitempty"`
	StateDir string `yaml:"state_dir,omitempty"` // Badger directory; default ./state
}

// HTTPClientConfig holds settings for the shared HTTP client
type HTTPClientConfig struct {
	Timeout               time.Duration `yaml:"timeout,omitempty"`                 // Overall request timeout
	MaxIdleConns          int           `yaml:"max_idle_conns,omitempty"`          // Max total idle connections
	MaxIdleConnsPerHost   int           `yaml:"max_idle_conns_per_host,omitempty"` // Max idle connections per host
	IdleConnTimeout       time.Duration `yaml:"idle_conn_timeout,omitempty"`       // Timeout for idle connections
	TLSHandshakeTimeout   time.Duration `yaml:"tls_handshake_timeout,omitempty"`   // Timeout for TLS handshake
	ExpectContinueTimeout time.Duration `yaml:"expect_continue_timeout,omitempty"` // Timeout for 100-continue
	ForceAttemptHTTP2     *bool         `yaml:"force_attempt_http2,omitempty"`     // Explicitly enable/disable HTTP/2 attempt (use pointer for tri-state: nil=default, true=force, false=disable)
	DialerTimeout         time.Duration `yaml:"dialer_timeout,omitempty"`          // Connection dial timeout
	DialerKeepAlive       time.Duration `yaml:"dialer_keep_alive,omitempty"`       // TCP keep-alive interval
}

// AppConfig holds the global application configuration
type AppConfig struct {
	DefaultUserAgent   string             `yaml:"default_user_agent,omitempty"`
	Backend            BackendMode        `yaml:"backend,omitempty"`
	MaxSizeBytes       *int64             `yaml:"max_size_bytes,omitempty"`    // nil = env override; 0 = unlimited; else clamped to 1 MiB floor
	SpillThreshold     int                `yaml:"spill_threshold,omitempty"`   // Memory capacity before disk spillover (default 8 KiB)
	HTTPClientSettings HTTPClientConfig   `yaml:"http_client_settings,omitempty"`
	Browser            BrowserConfig      `yaml:"browser,omitempty"`
	Screenshot         ScreenshotDefaults `yaml:"screenshot,omitempty"`
	Cache              CacheConfig        `yaml:"cache,omitempty"`
}

// DefaultSpillThreshold is the in-memory capacity an accumulation may reach
// before switching to a temporary file.
const DefaultSpillThreshold = 8 * 1024

// LoadConfig reads and parses a yaml config file.
func LoadConfig(path string) (*AppConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file '%s': %w", path, err)
	}
	var cfg AppConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file '%s': %w", path, err)
	}
	return &cfg, nil
}

// GetEffectiveBackend resolves the backend mode, defaulting to raw.
func GetEffectiveBackend(cfg *AppConfig) BackendMode {
	switch cfg.Backend {
	case BackendRaw, BackendSpill, BackendBrowser:
		return cfg.Backend
	}
	return BackendRaw
}

// GetEffectiveSpillThreshold resolves the spillover threshold.
func GetEffectiveSpillThreshold(cfg *AppConfig) int {
	if cfg.SpillThreshold > 0 {
		return cfg.SpillThreshold
	}
	return DefaultSpillThreshold
}

// GetEffectiveStateDir resolves the cache state directory.
func GetEffectiveStateDir(cfg *AppConfig) string {
	if cfg.Cache.StateDir != "" {
		return cfg.Cache.StateDir
	}
	return "./state"
}
