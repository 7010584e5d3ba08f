package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	cicerone "github.com/cicerone-chat/cicerone"
	httpadapter "github.com/cicerone-chat/cicerone/internal/adapters/http"
	"github.com/cicerone-chat/cicerone/pkg/observability"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP definition server",
	Long:  `Starts the JSON API for importing, exporting and traversing scenario definitions.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(cmd)
		if err != nil {
			fmt.Printf("Error loading config: %v\n", err)
			os.Exit(1)
		}
		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			cfg.Addr = addr
		}
		logger := buildLogger(cfg)

		registry := prometheus.NewRegistry()
		eng := buildEngine(cfg, logger,
			cicerone.WithMetrics(observability.NewMetrics(registry)))

		srv := &http.Server{
			Addr: cfg.Addr,
			Handler: httpadapter.NewHandler(eng,
				httpadapter.WithLogger(logger),
				httpadapter.WithRegistry(registry)),
		}

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server listening", "addr", cfg.Addr)
			serverErrors <- srv.ListenAndServe()
		}()

		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		select {
		case err := <-serverErrors:
			fmt.Printf("Server error: %v\n", err)
			os.Exit(1)

		case sig := <-shutdown:
			logger.Info("shutdown started", "signal", sig.String())

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(ctx); err != nil {
				logger.Error("graceful shutdown did not complete", "err", err)
				if err := srv.Close(); err != nil {
					logger.Error("forced close failed", "err", err)
				}
			}
			logger.Info("server stopped")
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Listen address (overrides config)")
}
