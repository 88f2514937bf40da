package mcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/mark3labs/mcp-go/server"

	"github.com/schnicklfritz/lite-remote-builder/internal/common"
	"github.com/schnicklfritz/lite-remote-builder/internal/config"
)

// shutdownTimeout bounds how long in-flight HTTP sessions get on shutdown.
const shutdownTimeout = 10 * time.Second

// Server hosts the tool catalog over one of the MCP transports.
type Server struct {
	mcp    *server.MCPServer
	cfg    *config.Config
	logger *common.Logger
}

// NewServer creates the MCP server and registers the catalog tools.
func NewServer(cfg *config.Config, upstream Upstream, logger *common.Logger) *Server {
	mcpSrv := server.NewMCPServer(
		cfg.Server.Name,
		config.GetVersion(),
		server.WithToolCapabilities(true),
		server.WithRecovery(),
	)

	dispatcher := NewDispatcher(upstream, cfg.GitHub.Workflow, logger)
	count := RegisterTools(mcpSrv, dispatcher)
	logger.Info().Int("tools", count).Str("workflow", cfg.GitHub.Workflow).Msg("registered tools")

	return &Server{mcp: mcpSrv, cfg: cfg, logger: logger}
}

// MCPServer returns the underlying mcp-go server.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

// Serve runs the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Serve(ctx context.Context) error {
	switch s.cfg.Server.Transport {
	case config.TransportHTTP:
		return s.serveHTTP(ctx)
	case config.TransportStdio:
		return s.serveStdio(ctx)
	default:
		return fmt.Errorf("unsupported transport %q", s.cfg.Server.Transport)
	}
}

func (s *Server) serveStdio(ctx context.Context) error {
	s.logger.Info().Msg("Lite Remote Builder MCP Server running on stdio")

	stdio := server.NewStdioServer(s.mcp)
	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (s *Server) serveHTTP(ctx context.Context) error {
	addr := net.JoinHostPort(s.cfg.Server.Host, strconv.Itoa(s.cfg.Server.Port))
	httpServer := server.NewStreamableHTTPServer(s.mcp,
		server.WithStateLess(true),
	)

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info().Str("addr", addr).Msg("starting MCP Streamable HTTP")
		errCh <- httpServer.Start(addr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		s.logger.Info().Msg("shutting down MCP Streamable HTTP")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	}
}
