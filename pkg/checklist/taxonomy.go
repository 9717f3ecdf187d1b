package checklist

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Classificacao is the condition code given to an inspected item.
type Classificacao string

const (
	Bom         Classificacao = "B"
	Regular     Classificacao = "R"
	Imprestavel Classificacao = "I"
	Faltando    Classificacao = "F"
)

// Classe describes one classification code. PesoBase feeds the condition
// score; Penalidade feeds the valuation heuristic.
type Classe struct {
	Codigo     Classificacao   `json:"codigo" yaml:"codigo"`
	Descricao  string          `json:"descricao" yaml:"descricao"`
	PesoBase   decimal.Decimal `json:"pesoBase" yaml:"-"`
	Penalidade decimal.Decimal `json:"penalidade" yaml:"-"`
}

// Taxonomia is the ordered set of classification codes an engine accepts.
type Taxonomia []Classe

// DefaultTaxonomia is the B/R/I/F scale used by every built-in template.
var DefaultTaxonomia = Taxonomia{
	{Codigo: Bom, Descricao: "Bom", PesoBase: decimal.NewFromInt(1), Penalidade: decimal.Zero},
	{Codigo: Regular, Descricao: "Regular", PesoBase: decimal.RequireFromString("0.7"), Penalidade: decimal.RequireFromString("0.05")},
	{Codigo: Imprestavel, Descricao: "Imprestável", PesoBase: decimal.RequireFromString("0.3"), Penalidade: decimal.RequireFromString("0.15")},
	{Codigo: Faltando, Descricao: "Faltando", PesoBase: decimal.Zero, Penalidade: decimal.RequireFromString("0.10")},
}

// Lookup returns the class with the given code.
func (t Taxonomia) Lookup(c Classificacao) (Classe, bool) {
	for _, cl := range t {
		if cl.Codigo == c {
			return cl, true
		}
	}
	return Classe{}, false
}

// Parse normalizes s and checks it against the taxonomy. An empty string
// parses to the empty classification, which clears an item.
func (t Taxonomia) Parse(s string) (Classificacao, error) {
	c := Classificacao(strings.ToUpper(strings.TrimSpace(s)))
	if c == "" {
		return "", nil
	}
	if _, ok := t.Lookup(c); !ok {
		return "", fmt.Errorf("%w: %q", ErrClassificacaoInvalida, s)
	}
	return c, nil
}

// Codigos returns the codes in taxonomy order.
func (t Taxonomia) Codigos() []Classificacao {
	out := make([]Classificacao, len(t))
	for i, cl := range t {
		out[i] = cl.Codigo
	}
	return out
}
