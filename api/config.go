package api

// Config holds dashboard server configuration.
type Config struct {
	// ListenAddr is the host:port the server binds to.
	ListenAddr string

	// DataDir overrides data directory resolution; empty means the default
	// chain (env var, then the dotdir under the home directory).
	DataDir string

	// EnableMCP mounts the MCP endpoint at /mcp.
	EnableMCP bool
}
