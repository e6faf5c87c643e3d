package hook

import "context"

// compactRestoreTokens is the reduced budget used when the session restarts
// after a compaction: the host already folded our archive notice into the
// compacted summary, so the restore only tops up.
const compactRestoreTokens = 2000

// Sources the host sends with SessionStart. Anything else is a host
// extension we do not know how to budget for, so it restores nothing.
var recognizedSources = map[string]bool{
	"compact": true,
	"clear":   true,
	"resume":  true,
	"startup": true,
}

// SessionStart restores the project's highest-ranked memories into a fresh
// context window.
func (h *Handler) SessionStart(ctx context.Context, in *Input) error {
	if in == nil || in.SessionID == "" || in.CWD == "" {
		return nil
	}
	if !recognizedSources[in.Source] {
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

	budget := pcfg.MaxRestoreTokens
	if in.Source == "compact" && budget > compactRestoreTokens {
		budget = compactRestoreTokens
	}

	return h.restoreTop(st, project, budget, pcfg.MaxMemoriesPerRestore, EventSessionStart)
}
