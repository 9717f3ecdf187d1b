package main

import "time"

// Wire types mirror the server's JSON. Money values travel as decimal
// strings and are printed as received.

type carro struct {
	ID           string `json:"id,omitempty"`
	Placa        string `json:"placa"`
	Chassi       string `json:"chassi,omitempty"`
	Ano          int    `json:"ano"`
	Cor          string `json:"cor,omitempty"`
	Tipo         string `json:"tipo,omitempty"`
	Marca        string `json:"marca"`
	Modelo       string `json:"modelo"`
	Status       string `json:"status,omitempty"`
	ValorInicial string `json:"valorInicial,omitempty"`
}

type carroList struct {
	Carros []carro `json:"carros"`
	Total  int     `json:"total"`
}

type leiloeiro struct {
	ID    string `json:"id,omitempty"`
	Nome  string `json:"nome"`
	Email string `json:"email,omitempty"`
	Ativo bool   `json:"ativo"`
}

type leiloeiroList struct {
	Leiloeiros []leiloeiro `json:"leiloeiros"`
	Total      int         `json:"total"`
}

type leilaoSummary struct {
	ID                  string    `json:"id"`
	Titulo              string    `json:"titulo"`
	Codigo              string    `json:"codigo"`
	Data                time.Time `json:"data"`
	Status              string    `json:"status"`
	LeiloeiroID         string    `json:"leiloeiroId"`
	TotalLotes          int       `json:"totalLotes"`
	ResultadosCompletos bool      `json:"resultadosCompletos"`
}

type leilaoList struct {
	Leiloes []leilaoSummary `json:"leiloes"`
	Total   int             `json:"total"`
}

type resultado struct {
	Status        string `json:"status"`
	Arrematante   string `json:"arrematante,omitempty"`
	Documento     string `json:"documento,omitempty"`
	ValorArremate string `json:"valorArremate,omitempty"`
	Observacao    string `json:"observacao,omitempty"`
}

type lote struct {
	ID           string     `json:"id"`
	Numero       int        `json:"numero"`
	CarroID      string     `json:"carroId"`
	ValorInicial string     `json:"valorInicial"`
	Status       string     `json:"status"`
	Resultado    *resultado `json:"resultado,omitempty"`
}

type loteList struct {
	Lotes []lote `json:"lotes"`
}

type leilao struct {
	ID                  string    `json:"id"`
	Titulo              string    `json:"titulo"`
	Codigo              string    `json:"codigo"`
	Data                time.Time `json:"data"`
	Status              string    `json:"status"`
	LeiloeiroID         string    `json:"leiloeiroId"`
	Lotes               []lote    `json:"lotes"`
	ResultadosCompletos bool      `json:"resultadosCompletos"`
	AllowedActions      []string  `json:"allowedActions,omitempty"`
}

type prestacao struct {
	ID          string    `json:"id"`
	LeilaoID    string    `json:"leilaoId"`
	Tipo        string    `json:"tipo"`
	Versao      int       `json:"versao"`
	DataGeracao time.Time `json:"dataGeracao"`
	Usuario     string    `json:"usuario"`
	Documento   string    `json:"documento,omitempty"`
}

type auditEvent struct {
	ID          string    `json:"id"`
	Data        time.Time `json:"data"`
	Usuario     string    `json:"usuario"`
	UsuarioRole string    `json:"usuarioRole"`
	Acao        string    `json:"acao"`
	Entidade    string    `json:"entidade"`
	EntidadeID  string    `json:"entidadeId"`
	Detalhes    string    `json:"detalhes"`
}

type auditList struct {
	Events        []auditEvent `json:"events"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	TotalSize     int          `json:"totalSize"`
}

type dashboard struct {
	CarrosAptos          int            `json:"carrosAptos"`
	TotalCarros          int            `json:"totalCarros"`
	LeiloesPorStatus     map[string]int `json:"leiloesPorStatus"`
	AguardandoResultados int            `json:"aguardandoResultados"`
	LeiloeirosAtivos     int            `json:"leiloeirosAtivos"`
	TotalArrecadado      string         `json:"totalArrecadado"`
}
