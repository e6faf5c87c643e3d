package backfill

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
)

var (
	// defaultWorkers is how many transcripts are archived concurrently when
	// Options.Workers is zero. Parsing and extraction dominate a run while
	// SQLite serializes the writes, so a small pool keeps the extractor busy
	// without piling up on the database.
	defaultWorkers = 3

	// archiveQueueSize is the capacity of the buffered path channel.
	archiveQueueSize = 64
)

// archivePool fans transcript files out to a fixed set of workers that each
// run the probe-parse-extract-store pipeline. Counts fold into one shared
// Result under the mutex.
type archivePool struct {
	backfiller *Backfiller
	ctx        context.Context
	queue      chan string
	wg         sync.WaitGroup

	mu       sync.Mutex
	result   *Result
	projects map[string]bool
}

// newArchivePool starts the worker goroutines and returns the pool.
func newArchivePool(ctx context.Context, b *Backfiller, workers int, result *Result) *archivePool {
	if workers <= 0 {
		workers = defaultWorkers
	}

	p := &archivePool{
		backfiller: b,
		ctx:        ctx,
		queue:      make(chan string, archiveQueueSize),
		result:     result,
		projects:   make(map[string]bool),
	}

	p.wg.Add(workers)
	for range workers {
		go p.worker()
	}

	return p
}

// enqueue submits one transcript path, blocking while the queue is full.
// Returns false once ctx is canceled.
func (p *archivePool) enqueue(path string) bool {
	select {
	case p.queue <- path:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// close stops accepting work and waits for in-flight files to drain. The
// shared result and project set are safe to read once it returns.
func (p *archivePool) close() {
	close(p.queue)
	p.wg.Wait()
}

func (p *archivePool) worker() {
	defer p.wg.Done()
	for path := range p.queue {
		p.process(path)
	}
}

// process archives one transcript and folds its counts into the result.
func (p *archivePool) process(path string) {
	if p.ctx.Err() != nil {
		return
	}

	b := p.backfiller

	id, err := probeFile(path)
	if err != nil || id.Project == "" {
		p.skip(path, "no project recorded")
		return
	}
	if b.options.Project != "" && id.Project != b.options.Project {
		p.skip(path, "")
		return
	}

	created, newLines, err := b.archiveFile(p.ctx, path, id)
	if err != nil {
		p.skip(path, err.Error())
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if newLines == 0 {
		p.result.FilesUpToDate++
	} else {
		p.result.FilesArchived++
	}
	p.result.MemoriesCreated += created
	p.result.LinesParsed += newLines
	p.projects[id.Project] = true
}

// skip counts one skipped file; a non-empty reason also prints a verbose
// warning.
func (p *archivePool) skip(path, reason string) {
	p.mu.Lock()
	p.result.FilesSkipped++
	p.mu.Unlock()

	if p.backfiller.options.Verbose && reason != "" {
		fmt.Printf("  warning: skipping %s: %s\n", filepath.Base(path), reason)
	}
}
