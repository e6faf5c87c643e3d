package api

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/store"
)

// errorResponse is the uniform error body for every endpoint.
type errorResponse struct {
	Error string `json:"error"`
}

func errJSON(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(errorResponse{Error: msg})
}

// handleListMemories returns one page of memories with filters and sorting.
func (s *Server) handleListMemories(c *fiber.Ctx) error {
	res, err := s.store.ListMemories(store.ListOptions{
		Project:  c.Query("project"),
		Category: c.Query("category"),
		Search:   c.Query("search"),
		Sort:     c.Query("sort"),
		Order:    c.Query("order"),
		Page:     c.QueryInt("page", 1),
		Limit:    c.QueryInt("limit", 50),
	})
	if err != nil {
		s.logger.Error("list memories failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to list memories")
	}
	return c.JSON(res)
}

// handleGetMemory returns a single memory by id.
func (s *Server) handleGetMemory(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid memory id")
	}

	m, err := s.store.GetMemory(id)
	if err != nil {
		s.logger.Error("get memory failed", "id", id, "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to get memory")
	}
	if m == nil {
		return errJSON(c, fiber.StatusNotFound, "memory not found")
	}
	return c.JSON(m)
}

// handleDeleteMemory removes a single memory by id.
func (s *Server) handleDeleteMemory(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid memory id")
	}

	if err := s.store.DeleteMemory(id); err != nil {
		var notFound store.ErrNotFound
		if errors.As(err, &notFound) {
			return errJSON(c, fiber.StatusNotFound, "memory not found")
		}
		s.logger.Error("delete memory failed", "id", id, "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to delete memory")
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// handleBulkDelete removes a set of memories in one call.
func (s *Server) handleBulkDelete(c *fiber.Ctx) error {
	var req struct {
		IDs []int64 `json:"ids"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if len(req.IDs) == 0 {
		return errJSON(c, fiber.StatusBadRequest, "ids required")
	}

	n, err := s.store.DeleteMemories(req.IDs)
	if err != nil {
		s.logger.Error("bulk delete failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to delete memories")
	}
	return c.JSON(fiber.Map{"deleted": n})
}

// handleListProjects returns per-project counts for the project picker.
func (s *Server) handleListProjects(c *fiber.Ctx) error {
	projects, err := s.store.ProjectCounts()
	if err != nil {
		s.logger.Error("list projects failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to list projects")
	}
	return c.JSON(fiber.Map{
		"count":    len(projects),
		"projects": projects,
	})
}

// handleListSessions returns every recorded session, newest first.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	sessions, err := s.store.AllSessions()
	if err != nil {
		s.logger.Error("list sessions failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to list sessions")
	}
	return c.JSON(fiber.Map{
		"count":    len(sessions),
		"sessions": sessions,
	})
}

// handleStats returns the aggregate overview of the store.
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.store.Stats()
	if err != nil {
		s.logger.Error("stats failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to compute stats")
	}
	return c.JSON(stats)
}

// handleGetConfig returns the current effective config.
func (s *Server) handleGetConfig(c *fiber.Ctx) error {
	return c.JSON(s.currentConfig())
}

// handlePutConfig merges a partial config document over the stored config and
// saves it atomically. {"reset": true} restores defaults instead.
func (s *Server) handlePutConfig(c *fiber.Ctx) error {
	body := c.Body()
	if !json.Valid(body) {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	var probe struct {
		Reset bool `json:"reset"`
	}
	_ = json.Unmarshal(body, &probe)

	if probe.Reset {
		cfg := config.NewDefaultConfig()
		if err := s.cfger.SaveConfig(cfg); err != nil {
			s.logger.Error("config reset failed", "error", err)
			return errJSON(c, fiber.StatusInternalServerError, "failed to save config")
		}
		s.setConfig(cfg)
		return c.JSON(cfg)
	}

	cfg, err := s.cfger.MergeConfig(body)
	if err != nil {
		s.logger.Error("config update failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to save config")
	}
	s.setConfig(cfg)
	return c.JSON(cfg)
}

// handlePutProjectExtraction sets the extraction mode override for one
// project.
func (s *Server) handlePutProjectExtraction(c *fiber.Ctx) error {
	var req struct {
		Project string `json:"project"`
		Mode    string `json:"mode"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}
	if req.Project == "" {
		return errJSON(c, fiber.StatusBadRequest, "project is required")
	}

	mode := strings.ToLower(strings.TrimSpace(req.Mode))
	switch mode {
	case config.ModeRules, config.ModeLLM, config.ModeHybrid:
	default:
		return errJSON(c, fiber.StatusBadRequest, "invalid extraction mode")
	}

	cfg, err := s.cfger.LoadConfig()
	if err != nil {
		s.logger.Error("config load failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to load config")
	}

	if cfg.Projects == nil {
		cfg.Projects = map[string]*config.ProjectConfig{}
	}
	pc := cfg.Projects[req.Project]
	if pc == nil {
		pc = &config.ProjectConfig{}
		cfg.Projects[req.Project] = pc
	}
	if pc.Extraction == nil {
		pc.Extraction = &config.ExtractionConfig{}
	}
	pc.Extraction.Mode = mode

	if err := s.cfger.SaveConfig(cfg); err != nil {
		s.logger.Error("config save failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to save config")
	}
	s.setConfig(cfg)
	return c.JSON(cfg)
}

// handlePrune deletes memories by score, age, or the configured decay pass.
func (s *Server) handlePrune(c *fiber.Ctx) error {
	var req struct {
		Mode  string  `json:"mode"`
		Value float64 `json:"value"`
	}
	if err := c.BodyParser(&req); err != nil {
		return errJSON(c, fiber.StatusBadRequest, "invalid JSON body")
	}

	var (
		pruned int64
		err    error
	)
	switch req.Mode {
	case "score":
		pruned, err = s.store.PruneBelowScore(req.Value)
	case "age":
		days := int(req.Value)
		if days < 1 {
			return errJSON(c, fiber.StatusBadRequest, "age value must be at least 1 day")
		}
		pruned, err = s.store.PruneOld(days)
	case "decay", "":
		pruned, err = s.store.DecayAndPrune(s.currentConfig())
	default:
		return errJSON(c, fiber.StatusBadRequest, "invalid prune mode")
	}
	if err != nil {
		s.logger.Error("prune failed", "mode", req.Mode, "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to prune")
	}
	return c.JSON(fiber.Map{"pruned": pruned})
}

// handlePrunePreview counts what a prune call would delete.
func (s *Server) handlePrunePreview(c *fiber.Ctx) error {
	var (
		n   int
		err error
	)
	switch mode := c.Query("mode", "decay"); mode {
	case "score":
		n, err = s.store.CountBelowScore(c.QueryFloat("value"))
	case "age":
		days := c.QueryInt("value")
		if days < 1 {
			return errJSON(c, fiber.StatusBadRequest, "age value must be at least 1 day")
		}
		n, err = s.store.CountOld(days)
	case "decay":
		n, err = s.store.CountBelowScore(s.currentConfig().PruneThreshold)
	default:
		return errJSON(c, fiber.StatusBadRequest, "invalid prune mode")
	}
	if err != nil {
		s.logger.Error("prune preview failed", "error", err)
		return errJSON(c, fiber.StatusInternalServerError, "failed to preview prune")
	}
	return c.JSON(fiber.Map{"would_prune": n})
}
