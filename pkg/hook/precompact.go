package hook

import (
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/store"
	"github.com/infinitecontext/infctx/pkg/utils"
)

// maxSummaryBytes caps the plain-text notice PreCompact prints for the host.
const maxSummaryBytes = 2000

// filePathRe pulls the path out of file-change content. Multiline because
// edit memories carry a change preview after the path line; the path may
// itself contain colons, so it is captured, never split.
var filePathRe = regexp.MustCompile(`(?m)^(?:Created/wrote|Edited) file: (.+)$`)

// PreCompact archives the session's new transcript content before the host
// compacts its context, then prints the plain-text notice the host folds
// into the compacted summary.
func (h *Handler) PreCompact(ctx context.Context, in *Input) error {
	if in == nil || in.SessionID == "" || in.TranscriptPath == "" || in.CWD == "" {
		return nil
	}

	st, cfg, err := h.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	project := in.CWD
	pcfg := cfg.ForProject(project)

	if err := st.UpsertSession(in.SessionID, project, h.now()); err != nil {
		return err
	}

	res, err := h.archive(ctx, st, pcfg, in.SessionID, in.TranscriptPath, project, nil)
	if err != nil {
		return err
	}

	if err := st.IncrSessionCompactions(in.SessionID); err != nil {
		return err
	}

	if _, err := st.EnforceProjectLimit(project, pcfg.MaxMemoriesPerProject); err != nil {
		return err
	}

	h.log.Info("pre-compact archive complete",
		"session", in.SessionID, "trigger", in.Trigger,
		"extracted", len(res.extracted), "inserted", res.inserted)

	if len(res.extracted) == 0 {
		return nil
	}

	_, err = io.WriteString(h.stdout, buildArchiveSummary(project, res.inserted, res.extracted))
	return err
}

// buildArchiveSummary renders the compaction notice: where the memories
// went and the highlights worth carrying into the compacted context.
func buildArchiveSummary(project string, inserted int, mems []store.Memory) string {
	var b strings.Builder
	b.WriteString("CONTEXT ARCHIVE (from infinite-context):\n")
	fmt.Fprintf(&b, "Project: %s\n", project)
	fmt.Fprintf(&b, "Archived %d new memories from this session segment.\n", inserted)

	var decisions, errs, files []string
	for _, m := range mems {
		switch m.Category {
		case config.CategoryDecision:
			decisions = append(decisions, m.Content)
		case config.CategoryError:
			errs = append(errs, m.Content)
		case config.CategoryFileChange:
			if match := filePathRe.FindStringSubmatch(m.Content); match != nil {
				files = append(files, match[1])
			}
		}
	}

	writeSection(&b, "Key decisions", decisions, 3)
	writeSection(&b, "Files changed", files, 10)
	writeSection(&b, "Errors encountered", errs, 3)

	b.WriteString("\nThese memories will be restored in future sessions.\n")

	return utils.Clip(b.String(), maxSummaryBytes)
}

func writeSection(b *strings.Builder, title string, items []string, limit int) {
	if len(items) == 0 {
		return
	}
	if len(items) > limit {
		items = items[:limit]
	}
	fmt.Fprintf(b, "\n%s:\n", title)
	for _, item := range items {
		fmt.Fprintf(b, "- %s\n", item)
	}
}
