package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/spf13/cobra"

	"licitahunter/internal/api"
	"licitahunter/internal/config"
	"licitahunter/internal/pipeline"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose the pipeline behind an HTTP trigger",
	Long: "Serve starts an HTTP server with POST /run to trigger a pipeline run\n" +
		"on demand, GET /healthz, and GET /stats for run counters.",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(os.Getenv)
		if err != nil {
			slog.Error("configuration error", "error", err)
			os.Exit(pipeline.ExitCodeConfig)
		}

		p := buildPipeline(cfg)
		srv := api.NewServer(func(ctx context.Context) pipeline.Result {
			return p.Run(ctx)
		})

		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}

		slog.Info("starting server", "port", port)
		if err := http.ListenAndServe(":"+port, srv.Router()); err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	},
}
