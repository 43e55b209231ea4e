package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate_Defaults(t *testing.T) {
	cfg := Defaults()
	assert.Empty(t, Validate(&cfg))
}

func TestValidate_Issues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		path   string
	}{
		{
			name:   "port out of range",
			mutate: func(c *Config) { c.Server.Port = 70000 },
			path:   "server.port",
		},
		{
			name:   "negative port",
			mutate: func(c *Config) { c.Server.Port = -1 },
			path:   "server.port",
		},
		{
			name:   "path without leading slash",
			mutate: func(c *Config) { c.Server.Path = "robot/webhook" },
			path:   "server.path",
		},
		{
			name:   "unknown store",
			mutate: func(c *Config) { c.Credentials.Store = "redis" },
			path:   "credentials.store",
		},
		{
			name:   "unknown log level",
			mutate: func(c *Config) { c.Logging.Level = "verbose" },
			path:   "logging.level",
		},
		{
			name:   "keyword with newline",
			mutate: func(c *Config) { c.Relay.Keyword = "a\nb" },
			path:   "relay.keyword",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Defaults()
			tt.mutate(&cfg)

			issues := Validate(&cfg)
			assert.Len(t, issues, 1)
			assert.Equal(t, tt.path, issues[0].Path)
			assert.NotEmpty(t, issues[0].String())
		})
	}
}
