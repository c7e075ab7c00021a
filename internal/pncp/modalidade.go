package pncp

// Contracting modality codes as published by the portal. The consulta
// endpoint requires codigoModalidadeContratacao on every request, so a
// search always iterates an explicit set of these.
var modalidadeNames = map[int]string{
	1:  "Leilão - Eletrônico",
	2:  "Diálogo Competitivo",
	3:  "Concurso",
	4:  "Concorrência - Eletrônica",
	5:  "Concorrência - Presencial",
	6:  "Pregão - Eletrônico",
	7:  "Pregão - Presencial",
	8:  "Dispensa de Licitação",
	9:  "Inexigibilidade",
	10: "Manifestação de Interesse",
	11: "Pré-qualificação",
	12: "Credenciamento",
	13: "Leilão - Presencial",
}

// DefaultModalidades are the modality codes queried when the criteria file
// does not narrow them down: the open competitive procedures plus direct
// contracting.
var DefaultModalidades = []int{4, 5, 6, 7, 8, 9}

// ModalidadeName resolves a modality code to its display name.
func ModalidadeName(code int) string {
	if name, ok := modalidadeNames[code]; ok {
		return name
	}
	return "Desconhecida"
}

// KnownModalidade reports whether code is a modality the portal publishes.
func KnownModalidade(code int) bool {
	_, ok := modalidadeNames[code]
	return ok
}
