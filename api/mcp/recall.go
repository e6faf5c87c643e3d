package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/infinitecontext/infctx/pkg/restore"
	"github.com/infinitecontext/infctx/pkg/scoring"
	"github.com/infinitecontext/infctx/pkg/store"
)

var (
	recallToolName    = "memory_recall"
	recallDescription = "Recall memories relevant to a prompt, using the same keyword extraction and ranking as live per-prompt recall. Returns a ready-to-use context block plus the matching memories."
)

// RecallInput represents the input arguments for the memory_recall tool.
type RecallInput struct {
	Prompt  string `json:"prompt" jsonschema:"the prompt text to recall memories for"`
	Project string `json:"project,omitempty" jsonschema:"recall against this project path"`
}

// RecallOutput represents the structured output of a memory recall.
type RecallOutput struct {
	Prompt   string         `json:"prompt"`
	Context  string         `json:"context"`
	Memories []store.Memory `json:"memories"`
	Count    int            `json:"count"`
}

// handleRecall processes a memory_recall request. Recall through MCP counts
// as consumption: returned memories get their access bookkeeping bumped just
// like hook-driven recall.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	logger := s.config.Logger

	if input.Prompt == "" {
		return toolError("prompt is required"), RecallOutput{}, nil
	}

	cfg := s.config.LoadConfig()
	pcfg := cfg.ForProject(input.Project)

	output := RecallOutput{
		Prompt:   input.Prompt,
		Memories: []store.Memory{},
	}

	query := scoring.ExtractKeywords(pcfg, input.Prompt)
	if query != "" {
		memories, err := s.config.Store.Search(query, input.Project, pcfg.MaxPromptRecallResults)
		if err != nil {
			logger.Error("memory recall failed", "error", err)
			return toolError(fmt.Sprintf("Recall failed: %v", err)), RecallOutput{}, nil
		}

		block, ids := restore.ForPrompt(memories)
		if len(ids) > 0 {
			if err := s.config.Store.TouchMemories(ids); err != nil {
				logger.Warn("touch after recall failed", "error", err)
			}
		}

		output.Context = block
		if memories != nil {
			output.Memories = memories
		}
		output.Count = len(memories)
	}

	logger.Debug("MCP memory recall",
		"prompt_len", len(input.Prompt),
		"project", input.Project,
		"hits", output.Count,
	)

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal recall output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
