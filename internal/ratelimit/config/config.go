package config

import (
	"fmt"
	"time"

	"termyx/internal/ratelimit/models"
)

// Preset names.
const (
	Standard = "standard"
	Strict   = "strict"
	Auth     = "auth"
	Email    = "email"
	PDF      = "pdf"
	Webhook  = "webhook"
)

// Config holds rate limiting configuration.
type Config struct {
	Presets map[string]models.Limit

	// SweepInterval is how often expired in-memory windows are dropped.
	SweepInterval time.Duration

	// Global is the per-instance token bucket applied to every request.
	Global GlobalLimit
}

// GlobalLimit is a per-instance ceiling; zero RequestsPerSecond disables it.
type GlobalLimit struct {
	RequestsPerSecond float64
	Burst             int
}

// DefaultPresets returns the built-in presets.
func DefaultPresets() map[string]models.Limit {
	return map[string]models.Limit{
		Standard: {Name: Standard, Requests: 100, Window: time.Minute},
		Strict:   {Name: Strict, Requests: 10, Window: time.Minute},
		Auth:     {Name: Auth, Requests: 5, Window: 5 * time.Minute},
		Email:    {Name: Email, Requests: 3, Window: time.Hour},
		PDF:      {Name: PDF, Requests: 20, Window: time.Minute},
		Webhook:  {Name: Webhook, Requests: 100, Window: time.Minute},
	}
}

func DefaultConfig() *Config {
	return &Config{
		Presets:       DefaultPresets(),
		SweepInterval: time.Minute,
		Global:        GlobalLimit{RequestsPerSecond: 500, Burst: 1000},
	}
}

// Preset looks up a preset by name.
func (c *Config) Preset(name string) (models.Limit, error) {
	limit, ok := c.Presets[name]
	if !ok {
		return models.Limit{}, fmt.Errorf("unknown rate limit preset %q", name)
	}
	return limit, nil
}

// MustPreset is Preset for wiring code where the name is a compile-time constant.
func (c *Config) MustPreset(name string) models.Limit {
	limit, err := c.Preset(name)
	if err != nil {
		panic(err)
	}
	return limit
}
