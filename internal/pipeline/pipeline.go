// Package pipeline sequences one fetch-filter-notify run and maps its
// outcome to a stable exit status.
package pipeline

import (
	"context"
	"log/slog"
	"time"

	"licitahunter/internal/config"
	"licitahunter/internal/digest"
	"licitahunter/internal/mail"
	"licitahunter/internal/match"
	"licitahunter/internal/notice"
	"licitahunter/internal/observability"
	"licitahunter/internal/pncp"
)

// Outcome is the tagged result of a whole run.
type Outcome int

const (
	Success Outcome = iota
	SuccessEmpty
	PartialFailure
	FetchFailure
	NotifyFailure
)

// ExitCodeConfig is the exit status for configuration errors, which happen
// before a pipeline ever runs.
const ExitCodeConfig = 1

func (o Outcome) String() string {
	switch o {
	case Success:
		return "success"
	case SuccessEmpty:
		return "success_empty"
	case PartialFailure:
		return "partial_failure"
	case FetchFailure:
		return "fetch_failure"
	case NotifyFailure:
		return "notify_failure"
	default:
		return "unknown"
	}
}

// ExitCode maps the outcome onto the documented process exit status, so the
// external scheduler can distinguish failure classes.
func (o Outcome) ExitCode() int {
	switch o {
	case Success, SuccessEmpty:
		return 0
	case PartialFailure:
		return 2
	case FetchFailure:
		return 3
	case NotifyFailure:
		return 4
	default:
		return 1
	}
}

// Result summarizes one run for logs and the serve-mode stats endpoint.
type Result struct {
	Outcome    string      `json:"outcome"`
	ExitCode   int         `json:"exit_code"`
	Matches    int         `json:"matches"`
	Notices    int         `json:"notices"`
	Skipped    int         `json:"skipped"`
	Duplicates int         `json:"duplicates"`
	Fetch      pncp.Report `json:"fetch"`
	StartedAt  time.Time   `json:"started_at"`
	FinishedAt time.Time   `json:"finished_at"`

	outcome Outcome
}

// OutcomeValue returns the typed outcome behind the serialized summary.
func (r Result) OutcomeValue() Outcome {
	return r.outcome
}

// Fetcher retrieves raw notices; satisfied by *pncp.Client.
type Fetcher interface {
	FetchAll(ctx context.Context, q pncp.Query) ([]pncp.Contratacao, pncp.Report, error)
}

// Sender delivers the digest; satisfied by *mail.Mailer.
type Sender interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Pipeline struct {
	cfg     *config.Config
	fetcher Fetcher
	sender  Sender
	now     func() time.Time
}

func New(cfg *config.Config, fetcher Fetcher, sender Sender) *Pipeline {
	return &Pipeline{cfg: cfg, fetcher: fetcher, sender: sender, now: time.Now}
}

// Run executes one complete pipeline invocation: fetch every notice in the
// window, normalize and deduplicate, match against the criteria, compose
// the digest and deliver it. A partial fetch degrades the run instead of
// aborting it; a delivery failure is fatal regardless of match count since
// email is the only output channel.
func (p *Pipeline) Run(ctx context.Context) Result {
	observability.IncRunsStarted()
	started := p.now()
	result := Result{StartedAt: started}

	query := p.cfg.Criteria.Query(started)
	raw, report, fetchErr := p.fetcher.FetchAll(ctx, query)
	result.Fetch = report
	observability.AddPagesFetched(report.PagesFetched)
	observability.AddPagesFailed(report.PagesFailed)
	observability.AddRawRecords(len(raw))
	if fetchErr != nil {
		observability.IncError(observability.ClassifyError(fetchErr), "fetch")
	}

	if len(raw) == 0 && fetchErr != nil {
		slog.Error("fetch failed, nothing to report", "error", fetchErr)
		return p.finish(result, FetchFailure)
	}
	if fetchErr != nil {
		slog.Warn("fetch degraded, continuing with partial results",
			"pages_fetched", report.PagesFetched,
			"pages_failed", report.PagesFailed,
			"error", fetchErr)
	}

	notices, nreport := notice.Normalize(raw)
	result.Notices = len(notices)
	result.Skipped = nreport.Skipped
	result.Duplicates = nreport.Duplicates
	observability.AddSkippedRecords(nreport.Skipped)
	observability.AddDuplicates(nreport.Duplicates)
	if nreport.Skipped > 0 {
		slog.Warn("skipped malformed records", "count", nreport.Skipped)
	}

	matches := match.Match(notices, p.cfg.Criteria.MatchCriteria())
	result.Matches = len(matches)
	observability.AddMatches(len(matches))
	slog.Info("matching complete",
		"raw", len(raw), "notices", len(notices), "matches", len(matches))

	dg := digest.Compose(matches, started, report.PagesFailed, nreport.Skipped)
	if err := p.deliver(ctx, dg); err != nil {
		observability.IncError(observability.ClassifyError(err), "notify")
		slog.Error("digest delivery failed", "recipient", p.cfg.RecipientEmail, "error", err)
		return p.finish(result, NotifyFailure)
	}
	observability.IncDigestsSent()
	slog.Info("digest delivered", "recipient", p.cfg.RecipientEmail, "matches", len(matches))

	switch {
	case fetchErr != nil && len(matches) > 0:
		return p.finish(result, PartialFailure)
	case len(matches) == 0:
		return p.finish(result, SuccessEmpty)
	default:
		return p.finish(result, Success)
	}
}

func (p *Pipeline) deliver(ctx context.Context, dg digest.Digest) error {
	msg := mail.Message{
		To:      p.cfg.RecipientEmail,
		Subject: dg.Subject(),
		Text:    digest.RenderText(dg),
		HTML:    digest.RenderHTML(dg),
	}
	if !dg.Empty() {
		csvData, err := digest.RenderCSV(dg)
		if err != nil {
			// the bodies carry everything the CSV does
			slog.Warn("csv attachment skipped", "error", err)
		} else {
			msg.AttachmentName = dg.AttachmentName()
			msg.Attachment = csvData
		}
	}
	return p.sender.Send(ctx, msg)
}

func (p *Pipeline) finish(result Result, outcome Outcome) Result {
	result.outcome = outcome
	result.Outcome = outcome.String()
	result.ExitCode = outcome.ExitCode()
	result.FinishedAt = p.now()
	slog.Info("run finished", "outcome", result.Outcome, "exit_code", result.ExitCode)
	return result
}
