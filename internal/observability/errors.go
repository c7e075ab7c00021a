package observability

import (
	"context"
	"errors"
	"net/http"

	"licitahunter/internal/mail"
	"licitahunter/internal/pncp"
)

const (
	ErrorNetwork   = "network"
	ErrorParsing   = "parsing"
	ErrorRateLimit = "rate_limit"
	ErrorDelivery  = "delivery"
	ErrorUnknown   = "unknown"
)

// ClassifyError buckets a pipeline error for the stats counters.
func ClassifyError(err error) string {
	if err == nil {
		return ErrorUnknown
	}
	var de *mail.DeliveryError
	if errors.As(err, &de) {
		return ErrorDelivery
	}
	var fe *pncp.FetchError
	if errors.As(err, &fe) {
		switch {
		case fe.Status == http.StatusTooManyRequests:
			return ErrorRateLimit
		case fe.Status == http.StatusOK:
			// response arrived but the payload did not decode
			return ErrorParsing
		default:
			return ErrorNetwork
		}
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorNetwork
	}
	return ErrorUnknown
}
