package leilao

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
)

// Dashboard is the admin landing summary.
type Dashboard struct {
	CarrosAptos          int                  `json:"carrosAptos"`
	TotalCarros          int                  `json:"totalCarros"`
	LeiloesPorStatus     map[LeilaoStatus]int `json:"leiloesPorStatus"`
	AguardandoResultados int                  `json:"aguardandoResultados"`
	LeiloeirosAtivos     int                  `json:"leiloeirosAtivos"`
	TotalArrecadado      decimal.Decimal      `json:"totalArrecadado"`
}

// ResultadoLeilao is one row of the results report.
type ResultadoLeilao struct {
	LeilaoID       string          `json:"leilaoId"`
	Codigo         string          `json:"codigo"`
	Titulo         string          `json:"titulo"`
	TotalLotes     int             `json:"totalLotes"`
	Arrematados    int             `json:"arrematados"`
	NaoArrematados int             `json:"naoArrematados"`
	Arrecadado     decimal.Decimal `json:"arrecadado"`
	TaxaSucesso    int             `json:"taxaSucesso"`
}

// Resultados aggregates the finalized auctions.
type Resultados struct {
	Leiloes         []ResultadoLeilao `json:"leiloes"`
	TotalLotes      int               `json:"totalLotes"`
	Arrematados     int               `json:"arrematados"`
	NaoArrematados  int               `json:"naoArrematados"`
	TotalArrecadado decimal.Decimal   `json:"totalArrecadado"`
	TaxaSucesso     int               `json:"taxaSucesso"`
}

// Dashboard computes the landing counters.
func (m *Manager) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := m.db.WithContext(ctx)

	carros, err := NewCarroStore(db).List("")
	if err != nil {
		return nil, err
	}
	leiloes, err := NewLeilaoStore(db).List("", "")
	if err != nil {
		return nil, err
	}
	leiloeiros, err := NewLeiloeiroStore(db).List()
	if err != nil {
		return nil, err
	}

	d := &Dashboard{
		TotalCarros: len(carros),
		LeiloesPorStatus: map[LeilaoStatus]int{
			StatusRascunho:   0,
			StatusPublicado:  0,
			StatusFinalizado: 0,
		},
		TotalArrecadado: decimal.Zero,
	}
	for _, c := range carros {
		if c.Status == CarroApto {
			d.CarrosAptos++
		}
	}
	for i := range leiloes {
		l := &leiloes[i]
		d.LeiloesPorStatus[l.Status]++
		switch l.Status {
		case StatusPublicado:
			if !l.ResultadosCompletos {
				d.AguardandoResultados++
			}
		case StatusFinalizado:
			d.TotalArrecadado = d.TotalArrecadado.Add(Resumir(l).TotalArrecadado)
		}
	}
	for _, l := range leiloeiros {
		if l.Ativo {
			d.LeiloeirosAtivos++
		}
	}
	return d, nil
}

// Resultados builds the results report over finalized auctions.
func (m *Manager) Resultados(ctx context.Context) (*Resultados, error) {
	leiloes, err := NewLeilaoStore(m.db.WithContext(ctx)).List(StatusFinalizado, "")
	if err != nil {
		return nil, fmt.Errorf("load finalized leiloes: %w", err)
	}

	out := &Resultados{
		Leiloes:         make([]ResultadoLeilao, 0, len(leiloes)),
		TotalArrecadado: decimal.Zero,
	}
	for i := range leiloes {
		l := &leiloes[i]
		r := Resumir(l)
		out.Leiloes = append(out.Leiloes, ResultadoLeilao{
			LeilaoID:       l.ID,
			Codigo:         l.Codigo,
			Titulo:         l.Titulo,
			TotalLotes:     r.TotalLotes,
			Arrematados:    r.Arrematados,
			NaoArrematados: r.NaoArrematados,
			Arrecadado:     r.TotalArrecadado,
			TaxaSucesso:    TaxaSucesso(r.Arrematados, r.TotalLotes),
		})
		out.TotalLotes += r.TotalLotes
		out.Arrematados += r.Arrematados
		out.NaoArrematados += r.NaoArrematados
		out.TotalArrecadado = out.TotalArrecadado.Add(r.TotalArrecadado)
	}
	out.TaxaSucesso = TaxaSucesso(out.Arrematados, out.TotalLotes)
	return out, nil
}
