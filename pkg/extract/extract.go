// Package extract turns parsed transcript turns into memory records. The
// rule extractor is the always-available core; the model-backed extractor is
// an alternative implementation of the same interface that silently falls
// back to rules when the model is unreachable or returns garbage.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"log/slog"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/credentials"
	"github.com/infinitecontext/infctx/pkg/llm"
	"github.com/infinitecontext/infctx/pkg/logger"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/transcript"
)

// maxContentBytes is the hard cap on stored memory content.
const maxContentBytes = 500

// Extractor produces memory records from conversation turns.
type Extractor interface {
	Extract(ctx context.Context, turns []transcript.Turn, project, sessionID string) []store.Memory
}

// New returns the extractor selected by the configured extraction mode.
// Rules need nothing; llm and hybrid need a resolvable model and degrade to
// rules when they cannot get one.
func New(cfg *config.Config, credMgr *credentials.Manager, log *slog.Logger) Extractor {
	if log == nil {
		log = logger.Nop()
	}

	rules := NewRules(cfg)
	mode := cfg.Extraction.Mode
	if mode == config.ModeRules || mode == "" {
		return rules
	}

	call, err := llm.NewCaller(llm.CallerConfig{
		Provider: cfg.Extraction.Provider,
		Model:    cfg.Extraction.Model,
		CredMgr:  credMgr,
		Logger:   log,
	})
	if err != nil {
		log.Debug("llm caller unavailable, using rule extraction", "error", err)
		return rules
	}

	if mode == config.ModeHybrid {
		return NewHybrid(cfg, call, log)
	}
	return NewLLM(cfg, call, log)
}

// SourceHash fingerprints the text a memory was derived from: the first 16
// hex characters of its SHA-256. Identical sources dedupe at insert time.
func SourceHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])[:16]
}
