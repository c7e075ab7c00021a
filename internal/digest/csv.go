package digest

import (
	"bytes"
	"encoding/csv"
	"fmt"
)

// AttachmentName is the file name of the CSV attached to the digest email.
func (d Digest) AttachmentName() string {
	return fmt.Sprintf("licitacoes_%s.csv", d.Date.Format("2006-01-02"))
}

// RenderCSV produces the CSV attachment with one row per match, mirroring
// the summary fields of the bodies.
func RenderCSV(d Digest) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := []string{
		"Número", "Órgão", "CNPJ", "Objeto", "Valor Estimado",
		"Data Publicação", "Data Abertura", "Modalidade", "Palavra-chave", "URL",
	}
	if err := w.Write(header); err != nil {
		return nil, err
	}

	for _, r := range d.Results {
		n := r.Notice
		row := []string{
			n.ControlNumber,
			n.Organ,
			n.OrganCNPJ,
			n.Object,
			formatValue(n.EstimatedValue),
			formatDate(n.PublishedAt),
			formatDate(n.OpensAt),
			n.ModalidadeName,
			r.Keyword,
			n.URL,
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
