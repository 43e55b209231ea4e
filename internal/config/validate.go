package config

import (
	"fmt"
	"slices"
	"strings"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port < 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "server.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Server.Port),
		})
	}

	if cfg.Server.Path != "" && !strings.HasPrefix(cfg.Server.Path, "/") {
		issues = append(issues, ValidationIssue{
			Path:    "server.path",
			Message: fmt.Sprintf("must start with /, got %q", cfg.Server.Path),
		})
	}

	validStores := []string{"sqlite", "memory"}
	if cfg.Credentials.Store != "" && !slices.Contains(validStores, cfg.Credentials.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "credentials.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Credentials.Store),
		})
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	// A keyword containing a newline would split the outbound body in two.
	if strings.ContainsAny(cfg.Relay.Keyword, "\r\n") {
		issues = append(issues, ValidationIssue{
			Path:    "relay.keyword",
			Message: "must not contain line breaks",
		})
	}

	return issues
}
