// Package hookcmder provides the hidden hook command the host invokes on
// lifecycle events. Each subcommand reads the event payload from stdin,
// runs its pipeline, and exits 0 no matter what so a memory failure can
// never break the host session.
package hookcmder

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/pkg/hook"
	"github.com/infinitecontext/infctx/pkg/logger"
)

// stderrPrefix attributes our diagnostics in the host's hook log.
const stderrPrefix = "[infinite-context] "

const hookLongDesc string = `Run one lifecycle hook.

These subcommands are registered in the host settings file by 'infctx install'
and invoked by the host, not by people. Each reads a JSON payload on stdin,
writes any restored context to stdout, and always exits 0.

Events:
  pre-compact         Archive the transcript before context compaction
  session-start       Restore top memories into a new session
  session-end         Final archive, decay, and retention
  user-prompt-submit  Recall memories relevant to the prompt
  subagent-start      Restore a reduced slice for a subagent
  subagent-stop       Archive a subagent transcript`

const hookShortDesc string = "Run a lifecycle hook (used by the host)"

type eventSpec struct {
	use   string
	short string
	event string
}

var eventSpecs = []eventSpec{
	{"pre-compact", "Archive the transcript before compaction", hook.EventPreCompact},
	{"session-start", "Restore memories into a starting session", hook.EventSessionStart},
	{"session-end", "Final archive and retention pass", hook.EventSessionEnd},
	{"user-prompt-submit", "Recall memories relevant to a prompt", hook.EventUserPromptSubmit},
	{"subagent-start", "Restore a reduced slice for a subagent", hook.EventSubagentStart},
	{"subagent-stop", "Archive a subagent transcript", hook.EventSubagentStop},
}

func NewHookCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:    "hook",
		Short:  hookShortDesc,
		Long:   hookLongDesc,
		Hidden: true,
	}

	for _, spec := range eventSpecs {
		cmd.AddCommand(newEventCmd(spec))
	}

	return cmd
}

func newEventCmd(spec eventSpec) *cobra.Command {
	return &cobra.Command{
		Use:   spec.use,
		Short: spec.short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			debug, _ := cmd.Flags().GetBool("debug")
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return runEvent(cmd, spec.event, debug, dataDir)
		},
	}
}

func runEvent(cmd *cobra.Command, event string, debug bool, dataDir string) error {
	log := logger.New(
		logger.WithDebug(debug),
		logger.WithPrefix(stderrPrefix),
	)

	in, err := hook.ReadInput(os.Stdin, hook.DefaultInputTimeout)
	if err != nil {
		// A bad payload downgrades the hook to a no-op; the host must not see
		// a failure.
		log.Error("reading hook input failed", "hook", event, "error", err)
	}

	h := hook.NewHandler(hook.Options{
		DataDir: dataDir,
		Log:     log,
	})

	ctx := cmd.Context()
	return hook.Run(event, log, func() error {
		switch event {
		case hook.EventPreCompact:
			return h.PreCompact(ctx, in)
		case hook.EventSessionStart:
			return h.SessionStart(ctx, in)
		case hook.EventSessionEnd:
			return h.SessionEnd(ctx, in)
		case hook.EventUserPromptSubmit:
			return h.UserPromptSubmit(ctx, in)
		case hook.EventSubagentStart:
			return h.SubagentStart(ctx, in)
		case hook.EventSubagentStop:
			return h.SubagentStop(ctx, in)
		}
		return nil
	})
}
