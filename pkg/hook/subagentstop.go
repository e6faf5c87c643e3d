package hook

import "context"

// SubagentStop archives a finished subagent's private transcript. Memories
// are keyed to the composite "<session>:<agent>" session and tagged with
// the agent identity so recall can attribute them. Nothing is written to
// stdout.
func (h *Handler) SubagentStop(ctx context.Context, in *Input) error {
	if in == nil || in.SessionID == "" || in.AgentID == "" ||
		in.AgentTranscriptPath == "" || in.CWD == "" {
		return nil
	}

	st, cfg, err := h.openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	project := in.CWD
	pcfg := cfg.ForProject(project)
	sessionKey := in.SessionID + ":" + in.AgentID

	if err := st.UpsertSession(sessionKey, project, h.now()); err != nil {
		return err
	}

	tag := map[string]any{"agentId": in.AgentID}
	if in.AgentType != "" {
		tag["agentType"] = in.AgentType
	}

	res, err := h.archive(ctx, st, pcfg, sessionKey, in.AgentTranscriptPath, project, tag)
	if err != nil {
		return err
	}

	if err := st.IncrSessionCompactions(sessionKey); err != nil {
		return err
	}

	if _, err := st.EnforceProjectLimit(project, pcfg.MaxMemoriesPerProject); err != nil {
		return err
	}

	h.log.Info("subagent archive complete",
		"session", sessionKey, "agent_type", in.AgentType,
		"extracted", len(res.extracted), "inserted", res.inserted)

	return nil
}
