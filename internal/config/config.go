package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	Server  ServerConfig  `toml:"server"`
	GitHub  GitHubConfig  `toml:"github"`
	Logging LoggingConfig `toml:"logging"`

	warnings []string
}

// Warnings returns environment values that were ignored while loading.
func (c *Config) Warnings() []string {
	return c.warnings
}

// ServerConfig contains MCP server settings.
type ServerConfig struct {
	Name      string `toml:"name"`
	Transport string `toml:"transport"` // "stdio" or "http"
	Port      int    `toml:"port"`
	Host      string `toml:"host"`
}

// GitHubConfig contains the upstream Actions API settings.
type GitHubConfig struct {
	Token    string `toml:"token"`
	Owner    string `toml:"owner"`
	Repo     string `toml:"repo"`
	Workflow string `toml:"workflow"`  // workflow file dispatched by trigger_kernel_build
	APIURL   string `toml:"api_url"`   // REST root, overridden for GitHub Enterprise
	ProxyURL string `toml:"proxy_url"` // optional forward proxy (socks5, socks5h, http, https)
	Timeout  string `toml:"timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level      string   `toml:"level"`
	Outputs    []string `toml:"outputs"` // "console", "file"
	FilePath   string   `toml:"file_path"`
	MaxSizeMB  int      `toml:"max_size_mb"`
	MaxBackups int      `toml:"max_backups"`
}

// RequestTimeout returns the parsed upstream request timeout.
// Invalid or empty values fall back to the default.
func (g GitHubConfig) RequestTimeout() time.Duration {
	if d, err := time.ParseDuration(g.Timeout); err == nil && d > 0 {
		return d
	}
	return defaultTimeout
}

// LoadFromFile loads configuration with priority: defaults -> file -> env.
func LoadFromFile(path string) (*Config, error) {
	if path == "" {
		return LoadFromFiles()
	}
	return LoadFromFiles(path)
}

// LoadFromFiles loads configuration from multiple files with priority:
// defaults -> file1 -> file2 -> ... -> env.
// Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		err = toml.Unmarshal(data, config)
		if err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config.
// GITHUB_* names are shared with the gh tooling this server replaces.
func applyEnvOverrides(config *Config) {
	if token := os.Getenv("GITHUB_TOKEN"); token != "" {
		config.GitHub.Token = token
	}
	if owner := os.Getenv("GITHUB_USER"); owner != "" {
		config.GitHub.Owner = owner
	}
	if repo := os.Getenv("GITHUB_REPO"); repo != "" {
		config.GitHub.Repo = repo
	}
	if workflow := os.Getenv("BUILDER_WORKFLOW"); workflow != "" {
		config.GitHub.Workflow = workflow
	}
	if apiURL := os.Getenv("BUILDER_API_URL"); apiURL != "" {
		config.GitHub.APIURL = apiURL
	}
	if proxyURL := os.Getenv("BUILDER_PROXY_URL"); proxyURL != "" {
		config.GitHub.ProxyURL = proxyURL
	} else if proxyURL := os.Getenv("ALL_PROXY"); proxyURL != "" && config.GitHub.ProxyURL == "" {
		if fallback, err := allProxyURL(proxyURL); err != nil {
			config.warnings = append(config.warnings, fmt.Sprintf("ignoring ALL_PROXY: %v", err))
		} else {
			config.GitHub.ProxyURL = fallback
		}
	}
	if timeout := os.Getenv("BUILDER_TIMEOUT"); timeout != "" {
		config.GitHub.Timeout = timeout
	}
	if port := os.Getenv("BUILDER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}
	if level := os.Getenv("BUILDER_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
}

// ApplyFlagOverrides applies command-line flag overrides to config.
func ApplyFlagOverrides(config *Config, transport string, port int) {
	if transport != "" {
		config.Server.Transport = transport
	}
	if port > 0 {
		config.Server.Port = port
	}
}

// Validate checks the settings the server cannot start without.
// All problems are reported together.
func (c *Config) Validate() error {
	var errs []error

	var missing []string
	if c.GitHub.Token == "" {
		missing = append(missing, "GITHUB_TOKEN")
	}
	if c.GitHub.Owner == "" {
		missing = append(missing, "GITHUB_USER")
	}
	if c.GitHub.Repo == "" {
		missing = append(missing, "GITHUB_REPO")
	}
	if len(missing) > 0 {
		errs = append(errs, fmt.Errorf("missing required environment variables: %s", strings.Join(missing, ", ")))
	}

	if c.GitHub.Workflow == "" {
		errs = append(errs, errors.New("github.workflow must not be empty"))
	}

	if err := validateAPIURL(c.GitHub.APIURL); err != nil {
		errs = append(errs, err)
	}

	if c.GitHub.ProxyURL != "" {
		if err := validateProxyURL(c.GitHub.ProxyURL); err != nil {
			errs = append(errs, err)
		}
	}

	if c.GitHub.Timeout != "" {
		if d, err := time.ParseDuration(c.GitHub.Timeout); err != nil || d <= 0 {
			errs = append(errs, fmt.Errorf("invalid github.timeout %q", c.GitHub.Timeout))
		}
	}

	switch c.Server.Transport {
	case TransportStdio, TransportHTTP:
	default:
		errs = append(errs, fmt.Errorf("unsupported server.transport %q (want %q or %q)", c.Server.Transport, TransportStdio, TransportHTTP))
	}

	return errors.Join(errs...)
}

// validateAPIURL requires an absolute http(s) URL.
func validateAPIURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || raw == "" {
		return fmt.Errorf("invalid github.api_url %q", raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("github.api_url %q must use http or https", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("github.api_url %q has no host", raw)
	}
	return nil
}

// allProxyURL adapts the desktop-wide ALL_PROXY value. socks:// is the
// common spelling for a SOCKS5 proxy there.
func allProxyURL(raw string) (string, error) {
	if rest, ok := strings.CutPrefix(raw, "socks://"); ok {
		raw = "socks5://" + rest
	}
	if err := validateProxyURL(raw); err != nil {
		return "", err
	}
	return raw, nil
}

// validateProxyURL accepts the schemes the upstream transport knows how to dial.
func validateProxyURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid proxy url: %w", err)
	}
	switch u.Scheme {
	case "socks5", "socks5h", "http", "https":
	default:
		return fmt.Errorf("unsupported proxy scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("proxy url %q has no host", raw)
	}
	return nil
}
