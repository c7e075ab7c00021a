// Package observability keeps per-process run counters, surfaced in logs
// and on the serve-mode stats endpoint.
package observability

import (
	"sync"
	"sync/atomic"
)

type StatsSnapshot struct {
	RunsStarted    uint64            `json:"runs_started"`
	PagesFetched   uint64            `json:"pages_fetched"`
	PagesFailed    uint64            `json:"pages_failed"`
	RawRecords     uint64            `json:"raw_records"`
	SkippedRecords uint64            `json:"skipped_records"`
	Duplicates     uint64            `json:"duplicates"`
	Matches        uint64            `json:"matches"`
	DigestsSent    uint64            `json:"digests_sent"`
	ErrorsTotal    uint64            `json:"errors_total"`
	ErrorsByType   map[string]uint64 `json:"errors_by_type,omitempty"`
	ErrorsByStage  map[string]uint64 `json:"errors_by_stage,omitempty"`
}

var (
	runsStarted    uint64
	pagesFetched   uint64
	pagesFailed    uint64
	rawRecords     uint64
	skippedRecords uint64
	duplicates     uint64
	matches        uint64
	digestsSent    uint64
	errorsTotal    uint64

	statsMu       sync.Mutex
	errorsByType  = map[string]uint64{}
	errorsByStage = map[string]uint64{}
)

func IncRunsStarted() {
	atomic.AddUint64(&runsStarted, 1)
}

func AddPagesFetched(n int) {
	addUint(&pagesFetched, n)
}

func AddPagesFailed(n int) {
	addUint(&pagesFailed, n)
}

func AddRawRecords(n int) {
	addUint(&rawRecords, n)
}

func AddSkippedRecords(n int) {
	addUint(&skippedRecords, n)
}

func AddDuplicates(n int) {
	addUint(&duplicates, n)
}

func AddMatches(n int) {
	addUint(&matches, n)
}

func IncDigestsSent() {
	atomic.AddUint64(&digestsSent, 1)
}

func IncError(errType, stage string) {
	if errType == "" {
		errType = "unknown"
	}
	if stage == "" {
		stage = "unknown"
	}
	atomic.AddUint64(&errorsTotal, 1)
	statsMu.Lock()
	errorsByType[errType]++
	errorsByStage[stage]++
	statsMu.Unlock()
}

func Snapshot() StatsSnapshot {
	statsMu.Lock()
	typeCopy := copyMap(errorsByType)
	stageCopy := copyMap(errorsByStage)
	statsMu.Unlock()

	return StatsSnapshot{
		RunsStarted:    atomic.LoadUint64(&runsStarted),
		PagesFetched:   atomic.LoadUint64(&pagesFetched),
		PagesFailed:    atomic.LoadUint64(&pagesFailed),
		RawRecords:     atomic.LoadUint64(&rawRecords),
		SkippedRecords: atomic.LoadUint64(&skippedRecords),
		Duplicates:     atomic.LoadUint64(&duplicates),
		Matches:        atomic.LoadUint64(&matches),
		DigestsSent:    atomic.LoadUint64(&digestsSent),
		ErrorsTotal:    atomic.LoadUint64(&errorsTotal),
		ErrorsByType:   typeCopy,
		ErrorsByStage:  stageCopy,
	}
}

func addUint(dst *uint64, n int) {
	if n <= 0 {
		return
	}
	atomic.AddUint64(dst, uint64(n))
}

func copyMap(src map[string]uint64) map[string]uint64 {
	if len(src) == 0 {
		return map[string]uint64{}
	}
	out := make(map[string]uint64, len(src))
	for k, v := range src {
		out[k] = v
	}
	return out
}
