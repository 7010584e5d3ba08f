package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	cicerone "github.com/cicerone-chat/cicerone"
	"github.com/cicerone-chat/cicerone/internal/adapters/redis"
	"github.com/cicerone-chat/cicerone/internal/codec/tabular"
	"github.com/cicerone-chat/cicerone/internal/compiler"
	"github.com/cicerone-chat/cicerone/internal/config"
	"github.com/cicerone-chat/cicerone/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "cicerone",
	Short: "Cicerone compiles and serves dialogue-scenario trees",
	Long: `Cicerone turns authored support scenarios (graph documents, spreadsheet
CSVs or editor JSON) into compiled decision trees and walks them to drive
chat sessions.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "cicerone.yaml", "Path to the configuration file")
}

// loadConfig reads the config file named by --config.
func loadConfig(cmd *cobra.Command) (config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	return config.Load(path)
}

// buildEngine assembles an engine from the configuration, plus any extra
// options the command wants (metrics, custom store).
func buildEngine(cfg config.Config, logger *slog.Logger, extra ...cicerone.Option) *cicerone.Engine {
	opts := []cicerone.Option{cicerone.WithLogger(logger)}
	if cfg.HandoverKeyword != "" {
		opts = append(opts, cicerone.WithHandoverKeyword(cfg.HandoverKeyword))
	}
	if cfg.CyclePolicy == "ignore" {
		opts = append(opts, cicerone.WithCyclePolicy(compiler.CycleIgnore))
	}
	if cfg.DepthPolicy == "truncate" {
		opts = append(opts, cicerone.WithDepthPolicy(tabular.DepthTruncate))
	}
	if cfg.Redis != nil {
		opts = append(opts, cicerone.WithStore(redis.New(cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)))
	}
	opts = append(opts, extra...)
	return cicerone.New(opts...)
}

func buildLogger(cfg config.Config) *slog.Logger {
	return logging.New(logging.ParseLevel(cfg.LogLevel))
}

// importFile compiles one scenario file into the engine. The format is
// inferred from the extension unless forced.
func importFile(ctx context.Context, eng *cicerone.Engine, path, format string) (*cicerone.ImportResult, error) {
	payload, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if format == "" {
		switch strings.ToLower(filepath.Ext(path)) {
		case ".csv":
			format = "table"
		default:
			format = "graph"
		}
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	switch format {
	case "graph":
		return eng.ImportGraph(ctx, name, payload)
	case "table":
		return eng.ImportTable(ctx, name, payload)
	default:
		return nil, fmt.Errorf("unknown format %q (want graph or table)", format)
	}
}
