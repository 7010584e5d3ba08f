package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/cicerone-chat/cicerone/internal/adapters/mcp"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp [files...]",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Starts the engine as an MCP server so AI agents can import and traverse
scenario definitions as tools. Any scenario files given as arguments are
compiled into the store before serving.

Supported transports:
- stdio (default): standard input/output, for local process integration.
- sse: Server-Sent Events over HTTP, for remote agents or debuggers.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		logger := buildLogger(cfg)
		eng := buildEngine(cfg, logger)

		for _, path := range args {
			res, err := importFile(cmd.Context(), eng, path, "")
			if err != nil {
				fmt.Printf("Import of %s failed: %v\n", path, err)
				os.Exit(1)
			}
			logger.Info("scenario loaded", "file", path, "definition", res.DefinitionID)
		}

		srv := mcp.NewServer(eng, mcp.WithLogger(logger))

		switch transport {
		case "stdio":
			// Logs must not corrupt JSON-RPC on stdout.
			log.SetOutput(os.Stderr)
			logger.Info("starting mcp server (stdio)")
			if err := srv.ServeStdio(); err != nil {
				logger.Error("mcp server failed", "err", err)
				os.Exit(1)
			}
		case "sse":
			logger.Info("starting mcp server (sse)", "port", port)

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			if err := srv.ServeSSE(ctx, port); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("mcp server failed", "err", err)
				os.Exit(1)
			}
			logger.Info("mcp server stopped")
		default:
			fmt.Printf("Unknown transport: %s. Supported: stdio, sse\n", transport)
			os.Exit(1)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().String("transport", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().Int("port", 8081, "Port for the SSE transport")
}
