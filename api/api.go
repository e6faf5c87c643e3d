// Package api serves the local memory dashboard: a JSON REST surface over the
// store, an embedded single-page web UI, and an optional MCP endpoint.
package api

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"

	"github.com/infinitecontext/infctx/api/mcp"
	"github.com/infinitecontext/infctx/api/web"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/store"
)

// Server is the dashboard server for inspecting and managing the memory store.
type Server struct {
	config Config
	store  *store.Store
	logger *slog.Logger
	app    *fiber.App

	cfger *config.Configer

	mu  sync.RWMutex
	cfg *config.Config

	watcher *fsnotify.Watcher
	done    chan struct{}
}

// NewServer creates a new dashboard server. The store is injected so it can
// be shared with other components holding the same handle.
func NewServer(cfg Config, st *store.Store, logger *slog.Logger) (*Server, error) {
	cfger, err := config.NewConfiger(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolving config path: %w", err)
	}

	loaded, err := cfger.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: cfg,
		store:  st,
		logger: logger,
		app:    app,
		cfger:  cfger,
		cfg:    loaded,
		done:   make(chan struct{}),
	}

	app.Get("/healthz", s.handleHealthz)

	app.Get("/api/memories", s.handleListMemories)
	app.Get("/api/memories/:id", s.handleGetMemory)
	app.Delete("/api/memories/:id", s.handleDeleteMemory)
	app.Post("/api/memories/delete", s.handleBulkDelete)

	app.Get("/api/projects", s.handleListProjects)
	app.Get("/api/sessions", s.handleListSessions)
	app.Get("/api/stats", s.handleStats)

	app.Get("/api/config", s.handleGetConfig)
	app.Put("/api/config", s.handlePutConfig)
	app.Put("/api/projects/extraction", s.handlePutProjectExtraction)

	app.Post("/api/prune", s.handlePrune)
	app.Get("/api/prune/preview", s.handlePrunePreview)

	if cfg.EnableMCP {
		mcpServer, err := mcp.NewServer(mcp.Config{
			Store:      st,
			LoadConfig: s.currentConfig,
			Logger:     logger,
		})
		if err != nil {
			return nil, fmt.Errorf("creating MCP server: %w", err)
		}
		app.All("/mcp", adaptor.HTTPHandler(mcpServer.Handler()))
	}

	app.Get("/", s.handleIndex)

	return s, nil
}

// Run starts the config watcher and serves on the configured address.
func (s *Server) Run() error {
	if err := s.watchConfig(); err != nil {
		s.logger.Warn("config watch unavailable", "error", err)
	}

	s.logger.Info("starting dashboard server",
		"listen", s.config.ListenAddr,
		"mcp", s.config.EnableMCP,
	)
	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the dashboard server.
func (s *Server) Shutdown() error {
	close(s.done)
	if s.watcher != nil {
		_ = s.watcher.Close()
	}
	return s.app.Shutdown()
}

// currentConfig returns the latest loaded config snapshot.
func (s *Server) currentConfig() *config.Config {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// setConfig swaps the cached config snapshot.
func (s *Server) setConfig(cfg *config.Config) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

// watchConfig reloads the cached config whenever config.json changes on disk,
// so edits from the CLI or another dashboard tab take effect without a
// restart. The watch is on the parent directory: editors and atomic writers
// replace the file rather than writing in place.
func (s *Server) watchConfig() error {
	configPath := s.cfger.GetTarget()

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	if err := watcher.Add(filepath.Dir(configPath)); err != nil {
		_ = watcher.Close()
		return fmt.Errorf("watching config dir: %w", err)
	}
	s.watcher = watcher

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(configPath) {
					continue
				}
				if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
					continue
				}
				loaded, err := s.cfger.LoadConfig()
				if err != nil {
					s.logger.Warn("config reload failed", "error", err)
					continue
				}
				s.setConfig(loaded)
				s.logger.Debug("config reloaded", "path", configPath)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.logger.Warn("config watcher error", "error", err)
			case <-s.done:
				return
			}
		}
	}()

	return nil
}

// handleIndex serves the embedded dashboard page.
func (s *Server) handleIndex(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, fiber.MIMETextHTMLCharsetUTF8)
	return c.Send(web.IndexHTML)
}

// handleHealthz is the liveness probe.
func (s *Server) handleHealthz(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}
