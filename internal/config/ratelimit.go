package config

import "time"

// RateLimitConfig bounds how often a client may request an admin token.
// Each client gets Limit attempts per Window.
type RateLimitConfig struct {
	Enabled bool          `env:"ENABLED" envDefault:"true"`
	Limit   int           `env:"LIMIT" envDefault:"5"`
	Window  time.Duration `env:"WINDOW" envDefault:"1m"`
	Prefix  string        `env:"PREFIX" envDefault:"rl"`
}

func (r *RateLimitConfig) normalize() {
	if r.Limit < 1 {
		r.Limit = 1
	}
	if r.Window <= 0 {
		r.Window = time.Minute
	}
	if r.Prefix == "" {
		r.Prefix = "rl"
	}
}
