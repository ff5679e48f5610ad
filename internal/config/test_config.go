package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.API.UserAgent = "wscroll-test/1.0"
	cfg.API.HTTPTimeout = 5 * time.Second
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
