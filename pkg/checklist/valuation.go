package checklist

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ClasseAvaliacao is the disposal category of an inspected vehicle.
type ClasseAvaliacao string

const (
	Ocioso        ClasseAvaliacao = "OCIOSO"
	Recuperavel   ClasseAvaliacao = "RECUPERAVEL"
	Antieconomico ClasseAvaliacao = "ANTIECONOMICO"
	Irrecuperavel ClasseAvaliacao = "IRRECUPERAVEL"
)

// Valid reports whether c is a known category.
func (c ClasseAvaliacao) Valid() bool {
	switch c {
	case Ocioso, Recuperavel, Antieconomico, Irrecuperavel:
		return true
	}
	return false
}

var (
	penalidadeMaxima  = decimal.RequireFromString("0.9")
	limiteOcioso      = decimal.RequireFromString("0.2")
	limiteRecuperavel = decimal.RequireFromString("0.6")
)

// ClassificarPenalidade maps an uncapped penalty to its category. Upper
// bounds are exclusive: 0.2 is already RECUPERAVEL.
func ClassificarPenalidade(p decimal.Decimal) ClasseAvaliacao {
	switch {
	case p.LessThan(limiteOcioso):
		return Ocioso
	case p.LessThan(limiteRecuperavel):
		return Recuperavel
	case p.LessThan(penalidadeMaxima):
		return Antieconomico
	default:
		return Irrecuperavel
	}
}

// Avaliacao is the valuation suggestion for a vehicle and the values the
// admin finally settled on.
type Avaliacao struct {
	ValorFipe          decimal.Decimal `json:"valorFipe"`
	Penalidade         decimal.Decimal `json:"penalidade"`
	PenalidadeAplicada decimal.Decimal `json:"penalidadeAplicada"`
	ValorSugerido      decimal.Decimal `json:"valorSugerido"`
	Classe             ClasseAvaliacao `json:"classe"`
	ValorAvaliado      decimal.Decimal `json:"valorAvaliado"`
	ClasseFinal        ClasseAvaliacao `json:"classeFinal"`
}

// Avaliar sums the per-class penalty of every classification, caps it at
// 0.9 and discounts fipe by it. Item weights play no part. The suggested
// value is rounded to whole reais.
func Avaliar(fipe decimal.Decimal, cls []Classificacao, tax Taxonomia) (*Avaliacao, error) {
	if !fipe.IsPositive() {
		return nil, fmt.Errorf("%w: FIPE value must be positive", ErrValidation)
	}
	p := decimal.Zero
	for _, c := range cls {
		cl, ok := tax.Lookup(c)
		if !ok {
			continue
		}
		p = p.Add(cl.Penalidade)
	}
	aplicada := decimal.Min(p, penalidadeMaxima)
	sugerido := fipe.Mul(decimal.NewFromInt(1).Sub(aplicada)).Round(0)
	classe := ClassificarPenalidade(p)
	return &Avaliacao{
		ValorFipe:          fipe,
		Penalidade:         p,
		PenalidadeAplicada: aplicada,
		ValorSugerido:      sugerido,
		Classe:             classe,
		ValorAvaliado:      sugerido,
		ClasseFinal:        classe,
	}, nil
}
