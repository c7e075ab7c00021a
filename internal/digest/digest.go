// Package digest composes and renders the notification message for one run.
package digest

import (
	"fmt"
	"sort"
	"time"

	"licitahunter/internal/match"
)

// Digest is the ordered result set of one run plus enough context to render
// a self-explanatory message. It lives only for the duration of the run.
type Digest struct {
	Date    time.Time
	Results []match.Result
	// Degraded-run context, surfaced as a warning in the body.
	PagesFailed    int
	SkippedRecords int
}

// Compose orders results by publication date descending, breaking ties by
// control number ascending, so rendering is deterministic.
func Compose(results []match.Result, date time.Time, pagesFailed, skipped int) Digest {
	ordered := make([]match.Result, len(results))
	copy(ordered, results)
	sort.Slice(ordered, func(i, j int) bool {
		a, b := ordered[i].Notice, ordered[j].Notice
		if !a.PublishedAt.Equal(b.PublishedAt) {
			return a.PublishedAt.After(b.PublishedAt)
		}
		return a.ControlNumber < b.ControlNumber
	})
	return Digest{
		Date:           date,
		Results:        ordered,
		PagesFailed:    pagesFailed,
		SkippedRecords: skipped,
	}
}

// Empty reports whether the run found no matching notices.
func (d Digest) Empty() bool {
	return len(d.Results) == 0
}

// Subject builds the email subject line.
func (d Digest) Subject() string {
	date := d.Date.Format("2006-01-02")
	if d.Empty() {
		return fmt.Sprintf("Licitações PNCP - %s - nenhuma encontrada", date)
	}
	return fmt.Sprintf("Licitações PNCP - %s - %d nova(s)", date, len(d.Results))
}
