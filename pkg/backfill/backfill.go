package backfill

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/extract"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/transcript"
)

// Options configures backfill behavior.
type Options struct {
	// DryRun extracts and counts but writes nothing.
	DryRun bool

	// Verbose prints per-file progress.
	Verbose bool

	// Project restricts the run to transcripts recorded under one working
	// directory. Empty archives everything.
	Project string

	// Workers is how many transcripts are processed concurrently.
	// Zero picks a small default.
	Workers int
}

// Backfiller archives memories from transcript files into the memory store.
type Backfiller struct {
	store   *store.Store
	cfg     *config.Config
	ext     extract.Extractor
	options Options
}

// NewBackfiller opens the store under dataDir and prepares a run. The
// returned cleanup function closes the database.
func NewBackfiller(dataDir string, opts Options) (*Backfiller, func() error, error) {
	dbPath, err := dotdir.NewManager().DBPath(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("resolving database path: %w", err)
	}

	cfg, err := config.Load(dataDir)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return nil, nil, fmt.Errorf("opening database: %w", err)
	}

	b := &Backfiller{
		store:   st,
		cfg:     cfg,
		ext:     extract.NewRules(cfg),
		options: opts,
	}

	return b, st.Close, nil
}

// DefaultTranscriptDir returns where Claude Code keeps session transcripts.
func DefaultTranscriptDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".", ".claude", "projects")
	}
	return filepath.Join(home, ".claude", "projects")
}

// Run scans transcriptDir and archives every transcript it can attribute to a
// project. Files fan out to a small worker pool; a file that fails to parse
// is skipped, never fatal. Files already covered by a checkpoint only
// contribute their new lines, so reruns are cheap and live sessions archived
// by hooks are not duplicated.
func (b *Backfiller) Run(ctx context.Context, transcriptDir string) (*Result, error) {
	files, err := ScanTranscriptDir(transcriptDir)
	if err != nil {
		return nil, fmt.Errorf("scanning transcript directory: %w", err)
	}

	result := &Result{FilesScanned: len(files)}

	pool := newArchivePool(ctx, b, b.options.Workers, result)
	for _, f := range files {
		if !pool.enqueue(f) {
			break
		}
	}
	pool.close()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if !b.options.DryRun {
		for project := range pool.projects {
			pcfg := b.cfg.ForProject(project)
			if _, err := b.store.EnforceProjectLimit(project, pcfg.MaxMemoriesPerProject); err != nil {
				return nil, fmt.Errorf("enforcing limit for %s: %w", project, err)
			}
		}
	}
	result.Projects = len(pool.projects)

	return result, nil
}

// archiveFile runs the extraction pipeline over one transcript from its
// checkpoint, reporting memories created and new lines consumed.
func (b *Backfiller) archiveFile(ctx context.Context, path string, id *fileIdentity) (int, int, error) {
	sessionKey := id.SessionID
	if sessionKey == "" {
		stem := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
		sessionKey = "backfill:" + stem
	}

	from := 0
	cp, err := b.store.GetCheckpoint(sessionKey, path)
	if err != nil {
		return 0, 0, err
	}
	if cp != nil {
		from = cp.LastLine
	}

	msgs, lastLine, err := transcript.ParseFile(path, from)
	if err != nil {
		return 0, 0, err
	}
	if lastLine <= from {
		return 0, 0, nil
	}

	var mems []store.Memory
	if turns := transcript.GroupTurns(msgs); len(turns) > 0 {
		mems = b.ext.Extract(ctx, turns, id.Project, sessionKey)
	}

	if b.options.DryRun {
		if b.options.Verbose {
			fmt.Printf("  %s: would archive %d memories (%d new lines)\n",
				filepath.Base(path), len(mems), lastLine-from)
		}
		return len(mems), lastLine - from, nil
	}

	if id.StartedAt.IsZero() {
		id.StartedAt = fileModTime(path)
	}
	if err := b.store.UpsertSession(sessionKey, id.Project, id.StartedAt); err != nil {
		return 0, 0, err
	}

	inserted := 0
	if len(mems) > 0 {
		inserted, err = b.store.InsertMany(mems)
		if err != nil {
			return 0, 0, err
		}
	}

	if err := b.store.SaveCheckpoint(sessionKey, path, lastLine); err != nil {
		return 0, 0, err
	}
	if err := b.store.IncrSessionMemories(sessionKey, inserted); err != nil {
		return 0, 0, err
	}

	if b.options.Verbose {
		fmt.Printf("  %s: %d new memories (%d new lines)\n",
			filepath.Base(path), inserted, lastLine-from)
	}

	return inserted, lastLine - from, nil
}

func fileModTime(path string) time.Time {
	fi, err := os.Stat(path)
	if err != nil {
		return time.Now().UTC()
	}
	return fi.ModTime().UTC()
}
