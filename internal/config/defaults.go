package config

import "time"

// Server transports.
const (
	TransportStdio = "stdio"
	TransportHTTP  = "http"
)

const defaultTimeout = 30 * time.Second

// NewDefaultConfig creates a configuration with default values.
func NewDefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Name:      "lite-remote-builder",
			Transport: TransportStdio,
			Port:      4250,
			Host:      "localhost",
		},
		GitHub: GitHubConfig{
			Workflow: "build-kernel.yml",
			APIURL:   "https://api.github.com/",
			Timeout:  defaultTimeout.String(),
		},
		Logging: LoggingConfig{
			Level:      "info",
			Outputs:    []string{"console"},
			FilePath:   "logs/lite-remote-builder.log",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
	}
}
