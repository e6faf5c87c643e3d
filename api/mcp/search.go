package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/infinitecontext/infctx/pkg/store"
)

var (
	searchToolName    = "memory_search"
	searchDescription = "Search archived memories from past coding sessions using full-text search. Returns the most relevant memories for the query, best match first, optionally restricted to one project path."
)

// SearchInput represents the input arguments for the memory_search tool.
type SearchInput struct {
	Query   string `json:"query" jsonschema:"the search query text to find relevant memories"`
	Project string `json:"project,omitempty" jsonschema:"restrict results to this project path"`
	Limit   int    `json:"limit,omitempty" jsonschema:"number of results to return (default: 10)"`
}

// SearchOutput represents the output of the memory_search tool.
type SearchOutput struct {
	Query    string         `json:"query"`
	Memories []store.Memory `json:"memories"`
	Count    int            `json:"count"`
}

// handleSearch processes a memory_search request.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	logger := s.config.Logger

	if input.Query == "" {
		return toolError("query is required"), SearchOutput{}, nil
	}

	limit := input.Limit
	if limit <= 0 {
		limit = 10
	}

	logger.Debug("MCP memory search",
		"query", input.Query,
		"project", input.Project,
		"limit", limit,
	)

	memories, err := s.config.Store.Search(input.Query, input.Project, limit)
	if err != nil {
		logger.Error("memory search failed", "error", err)
		return toolError(fmt.Sprintf("Search failed: %v", err)), SearchOutput{}, nil
	}
	if memories == nil {
		memories = []store.Memory{}
	}

	output := SearchOutput{
		Query:    input.Query,
		Memories: memories,
		Count:    len(memories),
	}

	// Structured outputs also carry their JSON in a TextContent block for
	// clients that only read text.
	jsonBytes, err := json.Marshal(output)
	if err != nil {
		logger.Error("failed to marshal search output", "error", err)
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}
