package pncp

// Contratacao is one record of the consulta API as returned by the portal.
type Contratacao struct {
	NumeroControlePNCP   string        `json:"numeroControlePNCP"`
	ObjetoCompra         string        `json:"objetoCompra"`
	ValorTotalEstimado   *float64      `json:"valorTotalEstimado"`
	DataPublicacaoPncp   string        `json:"dataPublicacaoPncp"`
	DataAberturaProposta string        `json:"dataAberturaProposta"`
	ModalidadeID         int           `json:"modalidadeId"`
	ModalidadeNome       string        `json:"modalidadeNome"`
	OrgaoEntidade        OrgaoEntidade `json:"orgaoEntidade"`
	UnidadeOrgao         UnidadeOrgao  `json:"unidadeOrgao"`
}

type OrgaoEntidade struct {
	CNPJ        string `json:"cnpj"`
	RazaoSocial string `json:"razaoSocial"`
}

type UnidadeOrgao struct {
	UFSigla       string `json:"ufSigla"`
	MunicipioNome string `json:"municipioNome"`
}

// searchPage is the paginated envelope of /v1/contratacoes/publicacao.
type searchPage struct {
	Data           []Contratacao `json:"data"`
	TotalRegistros int           `json:"totalRegistros"`
	TotalPaginas   int           `json:"totalPaginas"`
	NumeroPagina   int           `json:"numeroPagina"`
	Empty          bool          `json:"empty"`
}
