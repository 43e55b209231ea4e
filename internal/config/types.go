package config

// Config is the root configuration for dingrelay.
type Config struct {
	Server      ServerConfig      `yaml:"server,omitempty"`
	Relay       RelayConfig       `yaml:"relay,omitempty"`
	Credentials CredentialsConfig `yaml:"credentials,omitempty"`
	Logging     LoggingConfig     `yaml:"logging,omitempty"`
}

// ServerConfig controls the inbound webhook HTTP server.
type ServerConfig struct {
	Host   string `yaml:"host,omitempty"`   // bind host, default 127.0.0.1
	Port   int    `yaml:"port,omitempty"`   // listen port
	Path   string `yaml:"path,omitempty"`   // webhook POST path
	Secret string `yaml:"secret,omitempty"` // outgoing-robot signing secret; empty disables verification
}

// RelayConfig controls outbound message policy.
type RelayConfig struct {
	Keyword  string `yaml:"keyword,omitempty"`  // allow-listed keyword appended to outbound bodies
	Markdown bool   `yaml:"markdown,omitempty"` // send replies as markdown instead of plain text
}

// CredentialsConfig controls credential persistence.
type CredentialsConfig struct {
	Store string `yaml:"store,omitempty"` // "sqlite" | "memory"
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level,omitempty"` // "silent" | "fatal" | "error" | "warn" | "info" | "debug" | "trace"
}

// ConfigError represents a configuration error.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return "config: " + e.Message
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host: "127.0.0.1",
			Port: 8466,
			Path: "/robot/webhook",
		},
		Credentials: CredentialsConfig{
			Store: "sqlite",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}
