// Package exportcmder provides the export command for JSON snapshots of the
// memory store.
package exportcmder

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/store"
)

const exportLongDesc string = `Export memories as a JSON snapshot.

Writes every memory, oldest first, as one self-describing JSON document.
Snapshots are for backup and inspection; the database file itself remains
the source of truth.

Examples:
  infctx export --out memories.json
  infctx export --project /home/dev/billing
  infctx export | jq '.memories[].content'`

const exportShortDesc string = "Export memories as JSON"

// exportPageSize keeps each listing query bounded while paging the full store.
const exportPageSize = 200

type exportCommander struct {
	project string
	out     string
}

// snapshot is the export document. Memories are ordered by id ascending so
// two exports of the same store diff cleanly.
type snapshot struct {
	SnapshotID string         `json:"snapshot_id"`
	CreatedAt  time.Time      `json:"created_at"`
	Project    string         `json:"project,omitempty"`
	Count      int            `json:"count"`
	Memories   []store.Memory `json:"memories"`
}

func NewExportCmd() *cobra.Command {
	cmder := &exportCommander{}

	cmd := &cobra.Command{
		Use:   "export",
		Short: exportShortDesc,
		Long:  exportLongDesc,
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(dataDir)
		},
	}

	cmd.Flags().StringVarP(&cmder.project, "project", "p", "", "Export only this project's memories")
	cmd.Flags().StringVarP(&cmder.out, "out", "o", "", "Write the snapshot to this file instead of stdout")

	return cmd
}

func (c *exportCommander) run(dataDir string) error {
	dbPath, err := dotdir.NewManager().DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}

	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	memories, err := collectMemories(st, c.project)
	if err != nil {
		return err
	}

	snap := snapshot{
		SnapshotID: uuid.New().String(),
		CreatedAt:  time.Now().UTC(),
		Project:    c.project,
		Count:      len(memories),
		Memories:   memories,
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	data = append(data, '\n')

	if c.out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}

	if err := os.WriteFile(c.out, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}

	fmt.Printf("\n  %s Exported %d memories to %s\n\n",
		cliui.SuccessMark,
		len(memories),
		cliui.ValueStyle.Render(c.out),
	)

	return nil
}

// collectMemories pages through the store so an export never holds one
// unbounded query result.
func collectMemories(st *store.Store, project string) ([]store.Memory, error) {
	memories := []store.Memory{}
	for page := 1; ; page++ {
		res, err := st.ListMemories(store.ListOptions{
			Project: project,
			Sort:    "id",
			Order:   "asc",
			Page:    page,
			Limit:   exportPageSize,
		})
		if err != nil {
			return nil, fmt.Errorf("listing memories: %w", err)
		}
		memories = append(memories, res.Memories...)
		if len(memories) >= res.Total || len(res.Memories) == 0 {
			return memories, nil
		}
	}
}
