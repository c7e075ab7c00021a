package digest

import (
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/mattn/go-runewidth"

	"licitahunter/internal/notice"
)

const (
	noMatchesBody = "Nenhuma licitação correspondente aos critérios foi encontrada hoje."
	noValue       = "não informado"
)

// RenderText produces the plain-text body. Output is deterministic for a
// given digest.
func RenderText(d Digest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Relatório de licitações PNCP - %s\n\n", d.Date.Format("2006-01-02"))

	for _, warning := range warnings(d) {
		sb.WriteString("Aviso: " + warning + "\n")
	}
	if d.PagesFailed > 0 || d.SkippedRecords > 0 {
		sb.WriteString("\n")
	}

	if d.Empty() {
		sb.WriteString(noMatchesBody + "\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "%d licitação(ões) correspondem aos critérios.\n\n", len(d.Results))
	writeSummaryTable(&sb, d)
	sb.WriteString("\n")

	for i, r := range d.Results {
		n := r.Notice
		fmt.Fprintf(&sb, "%d. %s\n", i+1, n.Object)
		fmt.Fprintf(&sb, "   Órgão: %s (CNPJ %s)\n", n.Organ, n.OrganCNPJ)
		if n.Municipality != "" || n.UF != "" {
			fmt.Fprintf(&sb, "   Local: %s\n", location(n))
		}
		fmt.Fprintf(&sb, "   Modalidade: %s\n", n.ModalidadeName)
		fmt.Fprintf(&sb, "   Valor estimado: %s\n", formatValue(n.EstimatedValue))
		fmt.Fprintf(&sb, "   Publicação: %s", formatDate(n.PublishedAt))
		if !n.OpensAt.IsZero() {
			fmt.Fprintf(&sb, "   Abertura: %s", formatDate(n.OpensAt))
		}
		sb.WriteString("\n")
		fmt.Fprintf(&sb, "   Palavra-chave: %s\n", r.Keyword)
		fmt.Fprintf(&sb, "   %s\n\n", n.URL)
	}
	return sb.String()
}

// writeSummaryTable emits a column-aligned overview. Column widths account
// for wide runes so accented and non-Latin organ names line up.
func writeSummaryTable(sb *strings.Builder, d Digest) {
	const (
		organWidth  = 32
		objectWidth = 44
	)
	header := fmt.Sprintf("%s  %s  %s  %s",
		runewidth.FillRight("Publicação", 10),
		runewidth.FillRight("Órgão", organWidth),
		runewidth.FillRight("Objeto", objectWidth),
		"Valor",
	)
	sb.WriteString(header + "\n")
	sb.WriteString(strings.Repeat("-", runewidth.StringWidth(header)) + "\n")

	for _, r := range d.Results {
		n := r.Notice
		fmt.Fprintf(sb, "%s  %s  %s  %s\n",
			runewidth.FillRight(formatDate(n.PublishedAt), 10),
			runewidth.FillRight(runewidth.Truncate(n.Organ, organWidth, "…"), organWidth),
			runewidth.FillRight(runewidth.Truncate(n.Object, objectWidth, "…"), objectWidth),
			formatValue(n.EstimatedValue),
		)
	}
}

// RenderHTML produces the HTML alternative body.
func RenderHTML(d Digest) string {
	var sb strings.Builder
	sb.WriteString("<html><body>\n")
	fmt.Fprintf(&sb, "<h2>Relatório de licitações PNCP - %s</h2>\n", d.Date.Format("2006-01-02"))

	for _, warning := range warnings(d) {
		fmt.Fprintf(&sb, "<p><em>Aviso: %s</em></p>\n", html.EscapeString(warning))
	}

	if d.Empty() {
		fmt.Fprintf(&sb, "<p>%s</p>\n", noMatchesBody)
		sb.WriteString("</body></html>\n")
		return sb.String()
	}

	fmt.Fprintf(&sb, "<p><strong>%d</strong> licitação(ões) correspondem aos critérios.</p>\n", len(d.Results))
	sb.WriteString("<table border=\"1\" cellpadding=\"4\" cellspacing=\"0\">\n")
	sb.WriteString("<tr><th>Publicação</th><th>Órgão</th><th>Objeto</th><th>Modalidade</th><th>Valor</th><th>Palavra-chave</th><th>Link</th></tr>\n")
	for _, r := range d.Results {
		n := r.Notice
		fmt.Fprintf(&sb, "<tr><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td>%s</td><td><a href=\"%s\">abrir</a></td></tr>\n",
			formatDate(n.PublishedAt),
			html.EscapeString(n.Organ),
			html.EscapeString(n.Object),
			html.EscapeString(n.ModalidadeName),
			formatValue(n.EstimatedValue),
			html.EscapeString(r.Keyword),
			n.URL,
		)
	}
	sb.WriteString("</table>\n</body></html>\n")
	return sb.String()
}

func warnings(d Digest) []string {
	var out []string
	if d.PagesFailed > 0 {
		out = append(out, fmt.Sprintf("%d página(s) do portal não puderam ser consultadas; o resultado pode estar incompleto.", d.PagesFailed))
	}
	if d.SkippedRecords > 0 {
		out = append(out, fmt.Sprintf("%d registro(s) malformado(s) foram ignorados.", d.SkippedRecords))
	}
	return out
}

func location(n notice.Notice) string {
	switch {
	case n.Municipality != "" && n.UF != "":
		return n.Municipality + "/" + n.UF
	case n.Municipality != "":
		return n.Municipality
	default:
		return n.UF
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02")
}

// formatValue renders an estimated value in BRL notation, or the designated
// placeholder when the portal did not inform one.
func formatValue(v *float64) string {
	if v == nil {
		return noValue
	}
	return "R$ " + formatBRL(*v)
}

func formatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	s := fmt.Sprintf("%.2f", v)
	intPart := s[:len(s)-3]
	frac := s[len(s)-2:]

	var groups []string
	for len(intPart) > 3 {
		groups = append([]string{intPart[len(intPart)-3:]}, groups...)
		intPart = intPart[:len(intPart)-3]
	}
	groups = append([]string{intPart}, groups...)

	out := strings.Join(groups, ".") + "," + frac
	if neg {
		return "-" + out
	}
	return out
}
