package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"licitahunter/internal/config"
	"licitahunter/internal/mail"
	"licitahunter/internal/pipeline"
	"licitahunter/internal/pncp"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Execute one fetch-filter-notify run and exit",
	Long: "Run executes one complete fetch-filter-notify cycle and exits.\n\n" +
		"Exit codes:\n" +
		"  0  digest delivered (with or without matches)\n" +
		"  1  configuration error, nothing was fetched or sent\n" +
		"  2  digest delivered from an incomplete fetch\n" +
		"  3  fetch failed entirely, no email sent\n" +
		"  4  digest could not be delivered",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load(os.Getenv)
		if err != nil {
			slog.Error("configuration error", "error", err)
			os.Exit(pipeline.ExitCodeConfig)
		}

		result := buildPipeline(cfg).Run(cmd.Context())
		os.Exit(result.ExitCode)
	},
}

func buildPipeline(cfg *config.Config) *pipeline.Pipeline {
	client := pncp.NewClient(cfg.PNCPBaseURL)
	mailer := mail.New(mail.Options{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Sender:     cfg.SenderEmail,
		Credential: cfg.SenderCredential,
	})
	return pipeline.New(cfg, client, mailer)
}
