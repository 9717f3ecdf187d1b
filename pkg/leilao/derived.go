package leilao

import (
	mapset "github.com/deckarep/golang-set/v2"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// resultadoFinal holds the lot statuses that count as a recorded result.
var resultadoFinal = mapset.NewSet(LoteArrematado, LoteNaoArrematado)

// IsResultadoFinal reports whether s is a terminal lot status.
func IsResultadoFinal(s LoteStatus) bool {
	return resultadoFinal.Contains(s)
}

// ResultadosCompletos reports whether every lot has a terminal result.
// An auction without lots has nothing to report and is not complete.
func ResultadosCompletos(lotes []Lote) bool {
	if len(lotes) == 0 {
		return false
	}
	for _, l := range lotes {
		if !resultadoFinal.Contains(l.Status) {
			return false
		}
	}
	return true
}

// ResumoLeilao is the per-auction summary shown on the detail page.
type ResumoLeilao struct {
	TotalLotes        int             `json:"totalLotes"`
	Arrematados       int             `json:"arrematados"`
	NaoArrematados    int             `json:"naoArrematados"`
	Pendentes         int             `json:"pendentes"`
	ValorInicialTotal decimal.Decimal `json:"valorInicialTotal"`
	TotalArrecadado   decimal.Decimal `json:"totalArrecadado"`
}

// Resumir computes the summary of an auction from its lots.
func Resumir(l *Leilao) ResumoLeilao {
	r := ResumoLeilao{
		TotalLotes:        len(l.Lotes),
		ValorInicialTotal: decimal.Zero,
		TotalArrecadado:   decimal.Zero,
	}
	for _, lote := range l.Lotes {
		r.ValorInicialTotal = r.ValorInicialTotal.Add(lote.ValorInicial)
		switch lote.Status {
		case LoteArrematado:
			r.Arrematados++
		case LoteNaoArrematado:
			r.NaoArrematados++
		default:
			r.Pendentes++
		}
		if lote.Resultado != nil {
			r.TotalArrecadado = r.TotalArrecadado.Add(lote.Resultado.ValorArremate)
		}
	}
	return r
}

// TaxaSucesso is round(100 * arrematados / total), 0 when total is 0.
func TaxaSucesso(arrematados, total int) int {
	if total == 0 {
		return 0
	}
	return int(decimal.NewFromInt(int64(100 * arrematados)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0).
		IntPart())
}

var ptBR = message.NewPrinter(language.BrazilianPortuguese)

// FormatReais renders an amount the way the admin screens do (pt-BR grouping).
func FormatReais(v decimal.Decimal) string {
	f, _ := v.Float64()
	return ptBR.Sprintf("%v", number.Decimal(f, number.MaxFractionDigits(2)))
}
