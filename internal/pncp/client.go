// Package pncp implements the client for the PNCP public consulta API.
package pncp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"licitahunter/internal/retry"
)

const (
	DefaultBaseURL = "https://pncp.gov.br/api/consulta"

	publicacaoPath = "/v1/contratacoes/publicacao"
	dateLayout     = "2006-01-02"
)

// FetchError is a failed page request. Status is zero when the request
// never produced an HTTP response (dial error, timeout).
type FetchError struct {
	Status     int
	Err        error
	retryAfter time.Duration
}

func (e *FetchError) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("pncp fetch failed: %v", e.Err)
	}
	if e.Err == nil {
		return fmt.Sprintf("pncp fetch failed (status %d)", e.Status)
	}
	return fmt.Sprintf("pncp fetch failed (status %d): %v", e.Status, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// RetryAfter exposes the server-provided delay of a 429 response.
func (e *FetchError) RetryAfter() (time.Duration, bool) {
	return e.retryAfter, e.retryAfter > 0
}

// Query bounds one search: a publication window and the modality codes to
// iterate. The consulta endpoint rejects requests without a modality, so an
// empty set falls back to DefaultModalidades.
type Query struct {
	From        time.Time
	To          time.Time
	Modalidades []int
	PageSize    int
	MaxPages    int
}

// Report accounts for what a FetchAll actually managed to retrieve, so the
// pipeline can tell a clean run from a degraded one.
type Report struct {
	PagesFetched int `json:"pages_fetched"`
	PagesFailed  int `json:"pages_failed"`
	Records      int `json:"records"`
}

type Client struct {
	base       string
	httpClient *http.Client
	limiter    *rate.Limiter
	policy     retry.Policy
}

func NewClient(base string) *Client {
	if base == "" {
		base = DefaultBaseURL
	}
	return &Client{
		base:       strings.TrimSuffix(base, "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2), // 1 req/s, burst 2
		policy: retry.Policy{
			MaxAttempts:  3,
			InitialDelay: 500 * time.Millisecond,
			MaxDelay:     10 * time.Second,
			Multiplier:   2,
			Retryable:    retryable,
		},
	}
}

// FetchAll retrieves every notice published inside the query window, one
// modality at a time, paginating until the portal reports no further pages
// or MaxPages is hit. A page that exhausts its retries drops the rest of
// that modality only; the partial result set is still returned, with the
// last page error, so the caller can degrade instead of losing the run.
func (c *Client) FetchAll(ctx context.Context, q Query) ([]Contratacao, Report, error) {
	mods := q.Modalidades
	if len(mods) == 0 {
		mods = DefaultModalidades
	}
	pageSize := q.PageSize
	if pageSize <= 0 {
		pageSize = 100
	}
	if pageSize > 500 {
		pageSize = 500
	}
	maxPages := q.MaxPages
	if maxPages <= 0 {
		maxPages = 20
	}

	var (
		all     []Contratacao
		report  Report
		lastErr error
	)
	for _, mod := range mods {
		totalPages := 1
		for page := 1; page <= totalPages && page <= maxPages; page++ {
			sp, err := c.fetchPage(ctx, q, mod, page, pageSize)
			if err != nil {
				if ctx.Err() != nil {
					return all, report, ctx.Err()
				}
				slog.Warn("pncp page fetch failed",
					"modalidade", mod, "page", page, "error", err)
				report.PagesFailed++
				if clientError(err) {
					// a rejected request will be rejected for every
					// modality; stop instead of burning the budget
					return all, report, err
				}
				lastErr = err
				break // keep whatever the other modalities yield
			}

			report.PagesFetched++
			report.Records += len(sp.Data)
			all = append(all, sp.Data...)

			if sp.TotalPaginas > 0 {
				totalPages = sp.TotalPaginas
			}
			if len(sp.Data) == 0 {
				break // empty page: nothing further for this modality
			}
		}
	}
	return all, report, lastErr
}

func (c *Client) fetchPage(ctx context.Context, q Query, modalidade, page, pageSize int) (*searchPage, error) {
	target, err := c.pageURL(q, modalidade, page, pageSize)
	if err != nil {
		return nil, err
	}

	var sp *searchPage
	err = retry.Do(ctx, c.policy, func(ctx context.Context) error {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		var attemptErr error
		sp, attemptErr = c.doPage(ctx, target)
		return attemptErr
	})
	return sp, err
}

func (c *Client) doPage(ctx context.Context, target string) (*searchPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &FetchError{Err: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
	case resp.StatusCode == http.StatusNoContent:
		// The portal answers 204 when the window holds nothing.
		return &searchPage{}, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, &FetchError{
			Status:     resp.StatusCode,
			Err:        errors.New("rate limited"),
			retryAfter: parseRetryAfter(resp.Header.Get("Retry-After")),
		}
	default:
		return nil, &FetchError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("unexpected status"),
		}
	}

	var sp searchPage
	if err := json.NewDecoder(resp.Body).Decode(&sp); err != nil {
		return nil, &FetchError{Status: resp.StatusCode, Err: fmt.Errorf("decode failed: %w", err)}
	}
	return &sp, nil
}

func (c *Client) pageURL(q Query, modalidade, page, pageSize int) (string, error) {
	u, err := url.Parse(c.base + publicacaoPath)
	if err != nil {
		return "", fmt.Errorf("invalid base url: %w", err)
	}
	qs := u.Query()
	qs.Set("dataInicial", q.From.Format(dateLayout))
	qs.Set("dataFinal", q.To.Format(dateLayout))
	qs.Set("codigoModalidadeContratacao", strconv.Itoa(modalidade))
	qs.Set("pagina", strconv.Itoa(page))
	qs.Set("tamanhoPagina", strconv.Itoa(pageSize))
	u.RawQuery = qs.Encode()
	return u.String(), nil
}

// retryable: transient transport failures and 429/5xx statuses are worth
// another attempt; any other HTTP status (including decode failures on an
// otherwise fine response) is not.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var fe *FetchError
	if errors.As(err, &fe) && fe.Status != 0 {
		return fe.Status == http.StatusTooManyRequests || fe.Status >= 500
	}
	return true
}

// clientError reports a non-retryable request rejection (4xx except 429).
func clientError(err error) bool {
	var fe *FetchError
	if !errors.As(err, &fe) {
		return false
	}
	return fe.Status >= 400 && fe.Status < 500 && fe.Status != http.StatusTooManyRequests
}

func parseRetryAfter(val string) time.Duration {
	if val == "" {
		return 0
	}
	if secs, err := strconv.Atoi(val); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(val); err == nil {
		if d := time.Until(at); d > 0 {
			return d
		}
	}
	return 0
}
