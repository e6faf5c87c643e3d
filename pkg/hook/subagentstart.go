package hook

import "context"

// subagentScale shrinks the restore budgets for subagents: they run inside a
// parent session that already holds the full restore.
const subagentScale = 0.6

// SubagentStart seeds a subagent's context with a reduced slice of the
// project's memories.
func (h *Handler) SubagentStart(ctx context.Context, in *Input) error {
	if in == nil || in.CWD == "" {
		return nil
	}

	st, cfg, err := h.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	pcfg := cfg.ForProject(in.CWD)
	budget := int(float64(pcfg.MaxRestoreTokens) * subagentScale)
	count := int(float64(pcfg.MaxMemoriesPerRestore) * subagentScale)

	return h.restoreTop(st, in.CWD, budget, count, EventSubagentStart)
}
