// Package mcp provides the subproc MCP server, exposing process
// execution and run inspection as tools.
package mcp

import (
	_ "embed"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/deixis/subproc"
	"github.com/deixis/subproc/internal/config"
	"github.com/deixis/subproc/internal/report"
)

//go:embed instructions.md
var Instructions string

// handler holds shared dependencies for all tool handlers.
type handler struct {
	cfg   *config.Config
	exec  *subproc.Executor
	store report.Store
	dir   string // default working directory for runs
}

// NewServer creates an MCP server with the subproc tools registered.
func NewServer(cfg *config.Config, exec *subproc.Executor, store report.Store, dir string) *mcp.Server {
	h := &handler{
		cfg:   cfg,
		exec:  exec,
		store: store,
		dir:   dir,
	}

	opts := &mcp.ServerOptions{
		Instructions: Instructions,
		Capabilities: &mcp.ServerCapabilities{
			Tools: &mcp.ToolCapabilities{ListChanged: false},
		},
	}
	s := mcp.NewServer(&mcp.Implementation{Name: "subproc", Version: subproc.Version}, opts)

	mcp.AddTool(s, &mcp.Tool{
		Name: "proc_run",
		Description: `Execute a command and return its exit code and captured output.

Pass either command (argv, executed directly) or script (a line run through the shell).
A timeout kills the process but still returns any output produced before the kill.
Results are stored for drill-down via proc_inspect.`,
	}, h.runHandler)

	mcp.AddTool(s, &mcp.Tool{
		Name: "proc_inspect",
		Description: `Return the full stored record of a previous proc_run, including complete output.

Use the run_id from a proc_run result.`,
	}, h.inspectHandler)

	return s
}

// textResult is a helper to build a text-only tool result.
func textResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}, nil, nil
}

// errorResult is a helper to build an error tool result.
func errorResult(text string) (*mcp.CallToolResult, any, error) {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}, nil, nil
}
