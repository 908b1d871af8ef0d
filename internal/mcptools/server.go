package mcptools

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// version is set by the linker at build time.
var version = "dev"

// NewPanelMCPServer creates an MCP server with the panel tools registered:
// run_panel, list_workers and get_status.
func NewPanelMCPServer(svc *PanelService) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    "finpanel",
		Version: version,
	}, nil)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "run_panel",
		Description: "Consult the analyst and investor panel about one or more tickers. Returns each subject's synthesized decision and any unavailable panel members.",
	}, svc.RunPanel)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "list_workers",
		Description: "List the panel members in registry order: analysts, investors and the synthesizer.",
	}, svc.ListWorkers)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_status",
		Description: "Report which subjects have decision and detailed analysis files in the results directory.",
	}, svc.GetStatus)

	return server
}

// RunStdio runs the MCP server on stdio transport, blocking until stdin is
// closed or the context is cancelled.
func RunStdio(ctx context.Context, server *mcp.Server) error {
	return server.Run(ctx, &mcp.StdioTransport{})
}

// RunHTTP serves the MCP server over streamable HTTP on addr until ctx is
// cancelled.
func RunHTTP(ctx context.Context, server *mcp.Server, addr string) error {
	handler := mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server { return server },
		nil,
	)
	httpServer := &http.Server{Addr: addr, Handler: handler, ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		_ = httpServer.Shutdown(context.Background())
	}()

	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
