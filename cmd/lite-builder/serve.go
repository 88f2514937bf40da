package main

import (
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/schnicklfritz/lite-remote-builder/internal/common"
	"github.com/schnicklfritz/lite-remote-builder/internal/config"
	"github.com/schnicklfritz/lite-remote-builder/internal/github"
	"github.com/schnicklfritz/lite-remote-builder/internal/mcp"
)

// Exit codes.
const (
	exitConfig  = 2
	exitRuntime = 1
)

// loadConfig reads the config file when present; a missing file means
// defaults plus environment.
func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	return config.LoadFromFile(path)
}

// resolveConfig loads, applies flags and validates. Any error is fatal.
func resolveConfig(cmd *cobra.Command) (*config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	useHTTP, _ := cmd.Flags().GetBool("http")
	port, _ := cmd.Flags().GetInt("port")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return nil, exitError(exitConfig, "%v", err)
	}

	transport := ""
	if useHTTP {
		transport = config.TransportHTTP
	}
	config.ApplyFlagOverrides(cfg, transport, port)

	if err := cfg.Validate(); err != nil {
		return nil, exitError(exitConfig, "%v", err)
	}
	return cfg, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := resolveConfig(cmd)
	if err != nil {
		return err
	}

	logger := common.NewLoggerFromConfig(cfg.Logging)
	for _, warning := range cfg.Warnings() {
		logger.Warn().Msg(warning)
	}

	client, err := github.NewClient(cfg.GitHub, logger)
	if err != nil {
		logger.Error().Str("error", err.Error()).Msg("failed to create GitHub client")
		return exitError(exitConfig, "%v", err)
	}
	logger.Info().
		Str("repository", client.Repository()).
		Str("transport", cfg.Server.Transport).
		Bool("proxy", cfg.GitHub.ProxyURL != "").
		Msg("starting lite-remote-builder")

	srv := mcp.NewServer(cfg, client, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Serve(ctx); err != nil {
		logger.Error().Str("error", err.Error()).Msg("server stopped with error")
		return exitError(exitRuntime, "%v", err)
	}
	return nil
}
