package notice

import (
	"strings"
	"time"

	"golang.org/x/net/html"

	"licitahunter/internal/pncp"
)

// Report counts what normalization dropped. Skipped records are missing a
// required field; duplicates repeat a control number already seen this run.
type Report struct {
	Skipped    int `json:"skipped"`
	Duplicates int `json:"duplicates"`
}

// Normalize maps raw portal records onto canonical notices, skipping
// malformed records and collapsing duplicate control numbers across pages
// and modalities. First-seen wins and input order is preserved.
func Normalize(raw []pncp.Contratacao) ([]Notice, Report) {
	var report Report
	seen := make(map[string]struct{}, len(raw))
	notices := make([]Notice, 0, len(raw))

	for _, r := range raw {
		object := CleanText(r.ObjetoCompra)
		if r.NumeroControlePNCP == "" || object == "" {
			report.Skipped++
			continue
		}
		if _, ok := seen[r.NumeroControlePNCP]; ok {
			report.Duplicates++
			continue
		}
		seen[r.NumeroControlePNCP] = struct{}{}

		name := r.ModalidadeNome
		if name == "" {
			name = pncp.ModalidadeName(r.ModalidadeID)
		}

		notices = append(notices, Notice{
			ControlNumber:  r.NumeroControlePNCP,
			Object:         object,
			Organ:          strings.TrimSpace(r.OrgaoEntidade.RazaoSocial),
			OrganCNPJ:      r.OrgaoEntidade.CNPJ,
			Municipality:   strings.TrimSpace(r.UnidadeOrgao.MunicipioNome),
			UF:             r.UnidadeOrgao.UFSigla,
			PublishedAt:    parseDate(r.DataPublicacaoPncp),
			OpensAt:        parseDate(r.DataAberturaProposta),
			EstimatedValue: r.ValorTotalEstimado,
			Modalidade:     r.ModalidadeID,
			ModalidadeName: name,
			URL:            PortalURL(r.NumeroControlePNCP),
		})
	}
	return notices, report
}

// CleanText strips any HTML markup from an object description and collapses
// whitespace. Input that is not HTML passes through unchanged apart from the
// whitespace normalization.
func CleanText(s string) string {
	if s == "" {
		return ""
	}
	if strings.ContainsAny(s, "<>") {
		if doc, err := html.Parse(strings.NewReader(s)); err == nil {
			s = extractText(doc)
		}
	}
	return strings.Join(strings.Fields(s), " ")
}

func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		sb.WriteString(extractText(c))
	}
	return sb.String()
}

func parseDate(val string) time.Time {
	if val == "" {
		return time.Time{}
	}
	layouts := []string{time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, val); err == nil {
			return t
		}
	}
	return time.Time{}
}
