// Package ai augments fetched pages with an LLM: it asks the model for
// browser actions or extracted data, executes returned scripts on the live
// page, and records token usage on the response.
package ai

import (
	"net/url"
	"strings"
)

// Config controls AI augmentation for a fetch.
type Config struct {
	Model       string   `yaml:"model"`
	APIKey      string   `yaml:"api_key,omitempty"` // Empty uses the client's ambient credentials
	Prompt      []string `yaml:"prompt,omitempty"`  // Run in order; each gets its own request
	MaxTokens   int      `yaml:"max_tokens,omitempty"`
	Temperature *float64 `yaml:"temperature,omitempty"`
	TopP        *float64 `yaml:"top_p,omitempty"`
	User        string   `yaml:"user,omitempty"`
	// ExtraAIData switches the model to JSON mode and attaches parsed
	// extraction results to the response.
	ExtraAIData bool `yaml:"extra_ai_data,omitempty"`
	// Screenshot captures the page after a script ran, JSON mode only.
	Screenshot bool `yaml:"screenshot,omitempty"`
	// PromptURLMap scopes augmentation to specific pages. When set, only
	// URLs (or, with PathsMap, URL paths) present in the map are
	// augmented, each with its mapped sub-config. Keys are matched
	// case-insensitively.
	PromptURLMap map[string]*Config `yaml:"prompt_url_map,omitempty"`
	PathsMap     bool               `yaml:"paths_map,omitempty"`
}

// NewConfig creates a Config for a single-prompt augmentation.
func NewConfig(model string, maxTokens int, prompts ...string) *Config {
	return &Config{Model: model, MaxTokens: maxTokens, Prompt: prompts}
}

// ForURL resolves the config to apply for source. Without a PromptURLMap
// the receiver applies as-is. With one, a miss returns nil and the page is
// not augmented.
func (c *Config) ForURL(source string) *Config {
	if c == nil || len(c.PromptURLMap) == 0 {
		return c
	}
	if m, ok := c.lookupMap(source); ok {
		return m
	}
	if c.PathsMap {
		if u, err := url.Parse(source); err == nil {
			if m, ok := c.lookupMap(u.Path); ok {
				return m
			}
		}
	}
	return nil
}

func (c *Config) lookupMap(key string) (*Config, bool) {
	if m, ok := c.PromptURLMap[key]; ok {
		return m, true
	}
	for k, m := range c.PromptURLMap {
		if strings.EqualFold(k, key) {
			return m, true
		}
	}
	return nil, false
}
