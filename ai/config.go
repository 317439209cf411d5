// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package ai

import (
	"errors"
	"strings"
	"time"
)

// Config holds configuration for the extraction service client. The value
// is immutable once handed to a constructor; no ambient global state.
type Config struct {
	// Host is the base URL of the OpenAI-compatible service.
	// Example: "http://localhost:11434/v1"
	Host string

	// Model is the model identifier used for all extraction calls.
	Model string

	// Token is the API token. "none" works for local services without
	// authentication.
	Token string

	// Temperature for extraction calls. Low values keep the structured
	// output stable.
	Temperature float64

	// MaxTokens caps the response length per call.
	MaxTokens int

	// RequestTimeout bounds one service call. A timeout is a transient
	// failure handled by the retry controller.
	RequestTimeout time.Duration
}

// ConfigOption is a functional option for configuring a Config.
type ConfigOption func(*Config)

// WithHost sets the service host URL.
func WithHost(host string) ConfigOption {
	return func(c *Config) { c.Host = host }
}

// WithModel sets the model identifier.
func WithModel(model string) ConfigOption {
	return func(c *Config) { c.Model = model }
}

// WithToken sets the API token.
func WithToken(token string) ConfigOption {
	return func(c *Config) { c.Token = token }
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float64) ConfigOption {
	return func(c *Config) { c.Temperature = t }
}

// WithMaxTokens sets the per-call response token cap.
func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) { c.MaxTokens = n }
}

// WithRequestTimeout sets the per-call timeout.
func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) { c.RequestTimeout = d }
}

// DefaultConfig returns a Config with sensible defaults for a local
// OpenAI-compatible service.
func DefaultConfig() *Config {
	return &Config{
		Host:           "http://localhost:11434/v1",
		Model:          "qwen2.5:7b",
		Token:          "none",
		Temperature:    0.1,
		MaxTokens:      8000,
		RequestTimeout: 120 * time.Second,
	}
}

// NewConfig creates a Config with default values and applies the provided
// options.
func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// Normalize ensures the configuration is in canonical form: the host gets a
// /v1 suffix if missing, as required by OpenAI-compatible APIs.
func (c *Config) Normalize() {
	if c.Host != "" && !strings.HasSuffix(c.Host, "/v1") {
		c.Host = strings.TrimSuffix(c.Host, "/") + "/v1"
	}
}

// Validate checks that the configuration is complete. It normalizes the
// configuration first.
func (c *Config) Validate() error {
	c.Normalize()

	if c.Host == "" {
		return errors.New("ai config: Host is required")
	}
	if c.Model == "" {
		return errors.New("ai config: Model is required")
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return errors.New("ai config: Temperature must be in [0, 2]")
	}
	if c.MaxTokens <= 0 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	if c.RequestTimeout <= 0 {
		return errors.New("ai config: RequestTimeout must be positive")
	}
	return nil
}
