package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/AzielCF/az-wap/ui/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the gateway's MCP tool-call server over SSE",
	Long:  `Exposes send, call, provisioning, and dead-letter operations as MCP tools for AI agents.`,
	Run:   mcpServer,
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}

func mcpServer(_ *cobra.Command, _ []string) {
	cfg := globalConfig

	mcpSrv := server.NewMCPServer(
		"Gateway MCP Server",
		cfg.App.Version,
		server.WithToolCapabilities(true),
	)

	queryHandler := mcp.InitMcpQuery(authUsecase, dispatchUsecase, provisionUsecase, deadLetterUsecase)
	queryHandler.AddQueryTools(mcpSrv)

	addr := fmt.Sprintf("%s:%s", cfg.MCP.Host, cfg.MCP.Port)
	sseServer := server.NewSSEServer(
		mcpSrv,
		server.WithBaseURL(fmt.Sprintf("http://%s", addr)),
		server.WithKeepAlive(true),
	)

	logrus.Printf("starting MCP SSE server on %s", addr)
	logrus.Printf("SSE endpoint: http://%s/sse", addr)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigChan
		logrus.Info("[MCP] received termination signal, shutting down gracefully...")
		StopApp()
		os.Exit(0)
	}()

	if err := sseServer.Start(addr); err != nil {
		logrus.Fatalf("failed to start MCP SSE server: %v", err)
	}
}
