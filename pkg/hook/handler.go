package hook

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/credentials"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/eventstream"
	"github.com/infinitecontext/infctx/pkg/eventstream/nop"
	"github.com/infinitecontext/infctx/pkg/extract"
	"github.com/infinitecontext/infctx/pkg/logger"
	"github.com/infinitecontext/infctx/pkg/restore"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/transcript"
)

// Options configures a Handler. The zero value works: diagnostics are
// discarded, output goes to os.Stdout, the data directory resolves through
// dotdir, and archive events go to the no-op publisher.
type Options struct {
	// DataDir overrides the data directory resolution chain.
	DataDir string

	// Log receives diagnostics; hook commands pass the prefixed stderr
	// logger.
	Log *slog.Logger

	// Stdout receives the contractual payloads.
	Stdout io.Writer

	// Publisher receives archive events.
	Publisher eventstream.Publisher

	// Now overrides the clock.
	Now func() time.Time
}

// Handler carries the shared state of one hook invocation and exposes one
// method per lifecycle event.
type Handler struct {
	log     *slog.Logger
	stdout  io.Writer
	dataDir string
	dot     *dotdir.Manager
	pub     eventstream.Publisher
	now     func() time.Time
}

// NewHandler builds a Handler from opts.
func NewHandler(opts Options) *Handler {
	h := &Handler{
		log:     opts.Log,
		stdout:  opts.Stdout,
		dataDir: opts.DataDir,
		dot:     dotdir.NewManager(),
		pub:     opts.Publisher,
		now:     opts.Now,
	}
	if h.log == nil {
		h.log = logger.Nop()
	}
	if h.stdout == nil {
		h.stdout = os.Stdout
	}
	if h.pub == nil {
		h.pub = nop.NewPublisher()
	}
	if h.now == nil {
		h.now = time.Now
	}
	return h
}

// openStore resolves the data directory, loads the config, and opens the
// shared store. Callers own closing the store.
func (h *Handler) openStore() (*store.Store, *config.Config, error) {
	dbPath, err := h.dot.DBPath(h.dataDir)
	if err != nil {
		return nil, nil, err
	}

	cfg, err := config.Load(h.dataDir)
	if err != nil {
		return nil, nil, err
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, err
	}

	return st, cfg, nil
}

// restoreTop fetches the project's top memories, fits them into the token
// budget, touches the admitted rows, and emits the context document.
func (h *Handler) restoreTop(st *store.Store, project string, budget, count int, eventName string) error {
	mems, err := st.GetTopMemories(project, count)
	if err != nil {
		return err
	}

	text, ids := restore.Context(mems, budget, h.now())
	if text == "" {
		return nil
	}

	// Touch is bookkeeping; a failure must not cost the restored context.
	if err := st.TouchMemories(ids); err != nil {
		h.log.Debug("touch after restore failed", "error", err)
	}

	return EmitContext(h.stdout, eventName, text)
}

// archiveResult reports what one archival pass did.
type archiveResult struct {
	extracted []store.Memory
	inserted  int
	lastLine  int
}

// archive runs the extraction pipeline over one transcript: checkpointed
// incremental parse with rollback recovery, turn grouping, extraction,
// dedup-guarded insert, checkpoint advance, session counter. Extracted
// memories are tagged with tag keys they do not already carry.
func (h *Handler) archive(ctx context.Context, st *store.Store, cfg *config.Config, sessionKey, transcriptPath, project string, tag map[string]any) (*archiveResult, error) {
	from := 0
	cp, err := st.GetCheckpoint(sessionKey, transcriptPath)
	if err != nil {
		return nil, err
	}
	if cp != nil {
		from = cp.LastLine
	}

	msgs, lastLine, err := transcript.ParseFile(transcriptPath, from)
	if err != nil {
		return nil, err
	}

	if len(msgs) == 0 && lastLine < from {
		// The host rewrote the transcript shorter than our checkpoint.
		// Re-read the whole file and let source-hash dedup reject whatever
		// we already hold.
		h.log.Warn("transcript rollback detected",
			"session", sessionKey, "checkpoint", from, "lines", lastLine)
		msgs, lastLine, err = transcript.ParseFile(transcriptPath, 0)
		if err != nil {
			return nil, err
		}
	}

	res := &archiveResult{lastLine: lastLine}

	turns := transcript.GroupTurns(msgs)
	if len(turns) > 0 {
		res.extracted = h.extractor(cfg).Extract(ctx, turns, project, sessionKey)
		applyTag(res.extracted, tag)

		res.inserted, err = st.InsertMany(res.extracted)
		if err != nil {
			return nil, err
		}
	}

	// The checkpoint advances even when extraction produced nothing, so the
	// same lines are never reprocessed.
	if lastLine != from {
		if err := st.SaveCheckpoint(sessionKey, transcriptPath, lastLine); err != nil {
			return nil, err
		}
	}

	if err := st.IncrSessionMemories(sessionKey, res.inserted); err != nil {
		return nil, err
	}

	if len(turns) > 0 {
		event := eventstream.NewArchiveEvent(project, sessionKey, res.inserted)
		if err := h.pub.PublishArchive(ctx, event); err != nil {
			h.log.Debug("archive event publish failed", "error", err)
		}
	}

	return res, nil
}

func (h *Handler) extractor(cfg *config.Config) extract.Extractor {
	credMgr, err := credentials.NewManager(h.dataDir)
	if err != nil {
		h.log.Debug("credentials unavailable", "error", err)
		credMgr = nil
	}
	return extract.New(cfg, credMgr, h.log)
}

func applyTag(mems []store.Memory, tag map[string]any) {
	if len(tag) == 0 {
		return
	}
	for i := range mems {
		if mems[i].Metadata == nil {
			mems[i].Metadata = make(map[string]any, len(tag))
		}
		for k, v := range tag {
			if _, ok := mems[i].Metadata[k]; !ok {
				mems[i].Metadata[k] = v
			}
		}
	}
}
