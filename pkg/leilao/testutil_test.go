package leilao

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var (
	adminActor      = Actor{Usuario: "Administrador", Role: "admin"}
	auctioneerActor = Actor{Usuario: "Leiloeiro", Role: "auctioneer"}
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// Every connection to ":memory:" is a separate database.
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, AutoMigrate(db))
	return db
}

// fixture holds a manager over a fresh database plus one auctioneer.
type fixture struct {
	db        *gorm.DB
	m         *Manager
	leiloeiro *Leiloeiro
	placas    int
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	db := newTestDB(t)
	m := NewManager(db, opts...)
	l, err := m.AddLeiloeiro(context.Background(), adminActor, &Leiloeiro{
		Nome:  "Maria Souza",
		Email: "maria@leiloes.gov.br",
		Ativo: true,
	})
	require.NoError(t, err)
	return &fixture{db: db, m: m, leiloeiro: l}
}

func (f *fixture) addCarro(t *testing.T, placa string, valor int64) *Carro {
	t.Helper()
	c, err := f.m.AddCarro(context.Background(), adminActor, &Carro{
		Placa:        placa,
		Marca:        "Fiat",
		Modelo:       "Uno",
		Ano:          2012,
		ValorInicial: decimal.NewFromInt(valor),
	})
	require.NoError(t, err)
	return c
}

func (f *fixture) createLeilao(t *testing.T) *Leilao {
	t.Helper()
	l, err := f.m.CreateLeilao(context.Background(), adminActor, LeilaoInput{
		Titulo:      "Leilão de veículos apreendidos",
		Data:        time.Date(2026, 11, 20, 10, 0, 0, 0, time.UTC),
		LeiloeiroID: f.leiloeiro.ID,
	})
	require.NoError(t, err)
	return l
}

// draftWithLotes creates a draft auction with n linked vehicles.
func (f *fixture) draftWithLotes(t *testing.T, n int) (*Leilao, []Lote) {
	t.Helper()
	l := f.createLeilao(t)
	ids := make([]string, n)
	for i := range ids {
		f.placas++
		ids[i] = f.addCarro(t, fmt.Sprintf("ABC%04d", f.placas), int64(10000*(i+1))).ID
	}
	lotes, err := f.m.VincularCarros(context.Background(), adminActor, l.ID, ids)
	require.NoError(t, err)
	return l, lotes
}

// published creates a published auction with n lots.
func (f *fixture) published(t *testing.T, n int) (*Leilao, []Lote) {
	t.Helper()
	l, lotes := f.draftWithLotes(t, n)
	_, err := f.m.PublicarLeilao(context.Background(), adminActor, l.ID, Publicacao{Local: "Pátio Central"})
	require.NoError(t, err)
	return l, lotes
}

func arrematado(nome string, valor int64) Resultado {
	return Resultado{
		Status:        LoteArrematado,
		Arrematante:   nome,
		Documento:     "123.456.789-00",
		ValorArremate: decimal.NewFromInt(valor),
	}
}

func naoArrematado(obs string) Resultado {
	return Resultado{Status: LoteNaoArrematado, Observacao: obs}
}
