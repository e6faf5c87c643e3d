// Package dashboardcmder provides the dashboard command for running the
// local web dashboard and MCP endpoint.
package dashboardcmder

import (
	"fmt"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/infinitecontext/infctx/api"
	"github.com/infinitecontext/infctx/pkg/cliui"
	"github.com/infinitecontext/infctx/pkg/config"
	"github.com/infinitecontext/infctx/pkg/dotdir"
	"github.com/infinitecontext/infctx/pkg/logger"
	"github.com/infinitecontext/infctx/pkg/store"
)

const dashboardLongDesc string = `Run the local memory dashboard.

Serves a web UI for browsing, searching, and pruning memories, a JSON API
underneath it, and an MCP endpoint at /mcp so agents can search and recall
memories as tools. The listen address resolves --listen, then the
INFINITE_CONTEXT_DASHBOARD_LISTEN environment variable, then
dashboard.listen in the config; --port overrides all of them on localhost.

Examples:
  infctx dashboard
  infctx dashboard --listen 0.0.0.0:8437
  infctx dashboard --port 9000
  infctx dashboard --no-mcp`

const dashboardShortDesc string = "Run the local memory dashboard"

type dashboardCommander struct {
	listen string
	port   int
	noMCP  bool
	debug  bool
}

func NewDashboardCmd() *cobra.Command {
	cmder := &dashboardCommander{}

	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: dashboardShortDesc,
		Long:  dashboardLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			cmder.debug, err = cmd.Flags().GetBool("debug")
			if err != nil {
				return fmt.Errorf("could not get debug flag: %v", err)
			}
			dataDir, _ := cmd.Flags().GetString("data-dir")
			return cmder.run(cmd, dataDir)
		},
	}

	config.AddStringFlag(cmd, config.DefaultFlagSet(), config.FlagDashboardListen, &cmder.listen)
	cmd.Flags().IntVarP(&cmder.port, "port", "P", 0, "Listen on this localhost port instead of the configured address")
	cmd.Flags().BoolVar(&cmder.noMCP, "no-mcp", false, "Disable the MCP endpoint")

	return cmd
}

func (c *dashboardCommander) run(cmd *cobra.Command, dataDir string) error {
	log := logger.New(logger.WithDebug(c.debug), logger.WithPretty(true))

	v, err := config.InitViper(dataDir)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	config.BindRegisteredFlags(v, cmd, config.DefaultFlagSet(), []string{config.FlagDashboardListen})

	listen := v.GetString("dashboard.listen")
	if listen == "" {
		listen = config.NewDefaultConfig().Dashboard.Listen
	}
	if c.port != 0 {
		listen = fmt.Sprintf("127.0.0.1:%d", c.port)
	}

	mgr := dotdir.NewManager()
	dbPath, err := mgr.DBPath(dataDir)
	if err != nil {
		return fmt.Errorf("resolving database path: %w", err)
	}
	st, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer st.Close()

	server, err := api.NewServer(api.Config{
		ListenAddr: listen,
		DataDir:    dataDir,
		EnableMCP:  !c.noMCP,
	}, st, log)
	if err != nil {
		return err
	}

	fmt.Printf("\n  %s %s\n\n",
		cliui.HeaderStyle.Render("Dashboard:"),
		cliui.ValueStyle.Render(dashboardURL(listen)),
	)

	errChan := make(chan error, 1)
	go func() {
		if err := server.Run(); err != nil {
			errChan <- fmt.Errorf("dashboard server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		log.Info("received signal, shutting down", "signal", sig.String())
		return server.Shutdown()
	}
}

// dashboardURL renders the listen address as something a browser accepts.
func dashboardURL(listen string) string {
	host, port, err := net.SplitHostPort(listen)
	if err != nil {
		return "http://" + listen
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return fmt.Sprintf("http://%s:%s", host, port)
}
