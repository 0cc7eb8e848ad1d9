// Package server exposes recording replay and element inspection as MCP
// tools.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mj1618/desktop-replay/internal/platform"
	"github.com/mj1618/desktop-replay/internal/resolve"
)

// Config holds MCP server configuration.
type Config struct {
	Transport string
	Port      int
	CacheTTL  time.Duration
}

// Server wraps the MCP server with the platform provider, the resolver and
// one inspection session.
type Server struct {
	provider   *platform.Provider
	engine     *resolve.Engine
	session    *resolve.Session
	cache      *RecordingCache
	providerMu sync.Mutex
	mcp        *mcpserver.MCPServer
	logger     *slog.Logger
}

// New creates and configures an MCP server with all tools registered.
func New(p *platform.Provider, engine *resolve.Engine, cache *RecordingCache, version string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		provider: p,
		engine:   engine,
		session:  resolve.NewSession(p),
		cache:    cache,
		logger:   logger,
	}
	s.mcp = mcpserver.NewMCPServer("desktop-replay", version)
	s.registerTools()
	return s
}

// Session returns the server's inspection session.
func (s *Server) Session() *resolve.Session {
	return s.session
}

// Serve runs the configured transport until ctx is cancelled or the
// transport fails.
func (s *Server) Serve(ctx context.Context, cfg Config) error {
	s.logger.Info("mcp server starting",
		slog.String("transport", cfg.Transport),
		slog.String("session", s.session.ID.String()))
	defer s.session.Stop()

	switch cfg.Transport {
	case "stdio":
		return mcpserver.NewStdioServer(s.mcp).Listen(ctx, os.Stdin, os.Stdout)
	case "streamable-http":
		httpServer := mcpserver.NewStreamableHTTPServer(s.mcp)
		errCh := make(chan error, 1)
		go func() { errCh <- httpServer.Start(fmt.Sprintf(":%d", cfg.Port)) }()
		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-ctx.Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		}
	default:
		return fmt.Errorf("unsupported transport: %s (use stdio or streamable-http)", cfg.Transport)
	}
}

func (s *Server) registerTools() {
	s.mcp.AddTool(
		mcp.NewTool("resolve",
			mcp.WithDescription("Resolve one recorded step against the live desktop and optionally perform it. Returns the resolution result with method, point, element and mismatches."),
			mcp.WithString("file", mcp.Description("Recording file (JSON list of recorded steps)"), mcp.Required()),
			mcp.WithNumber("index", mcp.Description("Step index (negative = last step)")),
			mcp.WithBoolean("click", mcp.Description("Perform the action; otherwise validate only")),
			mcp.WithBoolean("hover", mcp.Description("Hover the final point and re-check before acting")),
			mcp.WithBoolean("safe-click", mcp.Description("Block actions on elements with remaining mismatches (default from config)")),
			mcp.WithNumber("retries", mcp.Description("Attempts before escalation (default from config)")),
		),
		s.handleResolve,
	)

	s.mcp.AddTool(
		mcp.NewTool("inspect",
			mcp.WithDescription("Capture the recorded signature of the element at a screen point"),
			mcp.WithNumber("x", mcp.Description("Screen X coordinate"), mcp.Required()),
			mcp.WithNumber("y", mcp.Description("Screen Y coordinate"), mcp.Required()),
			mcp.WithBoolean("save", mcp.Description("Append the signature to the session buffer")),
		),
		s.handleInspect,
	)

	s.mcp.AddTool(
		mcp.NewTool("save_buffer",
			mcp.WithDescription("Write the session buffer to a recording file"),
			mcp.WithString("path", mcp.Description("Destination file"), mcp.Required()),
		),
		s.handleSaveBuffer,
	)

	s.mcp.AddTool(
		mcp.NewTool("clear_buffer",
			mcp.WithDescription("Discard every signature in the session buffer"),
		),
		s.handleClearBuffer,
	)

	s.mcp.AddTool(
		mcp.NewTool("steps",
			mcp.WithDescription("Summarise the steps of a recording file, one line per step"),
			mcp.WithString("file", mcp.Description("Recording file"), mcp.Required()),
		),
		s.handleSteps,
	)

	s.mcp.AddTool(
		mcp.NewTool("list",
			mcp.WithDescription("List running applications or their windows"),
			mcp.WithBoolean("apps", mcp.Description("List running applications instead of windows")),
			mcp.WithString("app", mcp.Description("Filter windows by application name")),
		),
		s.handleList,
	)
}
