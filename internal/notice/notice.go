// Package notice turns raw portal records into canonical, deduplicated
// procurement notices.
package notice

import (
	"net/url"
	"time"
)

// Notice is the canonical record one run works with. ControlNumber is the
// portal-assigned identifier and the deduplication key.
type Notice struct {
	ControlNumber  string
	Object         string
	Organ          string
	OrganCNPJ      string
	Municipality   string
	UF             string
	PublishedAt    time.Time
	OpensAt        time.Time
	EstimatedValue *float64
	Modalidade     int
	ModalidadeName string
	URL            string
}

// PortalURL builds the public page for a control number. The control number
// contains slashes, which the portal expects escaped.
func PortalURL(controlNumber string) string {
	return "https://pncp.gov.br/contratacoes/" + url.PathEscape(controlNumber)
}
