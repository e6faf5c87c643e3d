package hook

import "context"

// SessionEnd archives whatever the transcript still holds, then runs the
// retention pass: decay, prune, project cap, session close. Nothing is
// written to stdout.
func (h *Handler) SessionEnd(ctx context.Context, in *Input) error {
	if in == nil || in.SessionID == "" {
		return nil
	}

	st, cfg, err := h.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	project := in.CWD
	pcfg := cfg.ForProject(project)

	if in.TranscriptPath != "" && project != "" {
		// Retention still runs when the final archive fails; the next
		// session would otherwise inherit an unpruned store.
		if _, err := h.archive(ctx, st, pcfg, in.SessionID, in.TranscriptPath, project, nil); err != nil {
			h.log.Warn("final archive failed", "session", in.SessionID, "error", err)
		}
	}

	if _, err := st.DecayAndPrune(pcfg); err != nil {
		return err
	}

	if project != "" {
		if _, err := st.EnforceProjectLimit(project, pcfg.MaxMemoriesPerProject); err != nil {
			return err
		}
	}

	return st.EndSession(in.SessionID, h.now())
}
