package config

import "time"

// TestConfig returns a config suitable for testing
func TestConfig() *Config {
	cfg := defaultConfig()
	cfg.Feed = FeedConfig{
		HTTPTimeout:    5 * time.Second,
		SourceTimeout:  2 * time.Second,
		RequestTimeout: 5 * time.Second,
		UserAgent:      "newsagent-test/1.0",
		Workers:        4,
		AllowPrivate:   true, // httptest servers listen on loopback
	}
	cfg.Cache = CacheConfig{
		Enabled: false,
		TTL:     time.Minute,
	}
	cfg.Groups = GroupsConfig{}
	cfg.Log = LogConfig{Level: "off"}
	return cfg
}
