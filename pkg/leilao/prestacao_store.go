package leilao

import (
	"fmt"

	"gorm.io/gorm"
)

// PrestacaoStore provides append-only access to accountability report records.
type PrestacaoStore struct {
	db *gorm.DB
}

// NewPrestacaoStore creates a new PrestacaoStore.
func NewPrestacaoStore(db *gorm.DB) *PrestacaoStore {
	return &PrestacaoStore{db: db}
}

// NextVersao returns count(leilaoID, tipo) + 1.
func (s *PrestacaoStore) NextVersao(leilaoID string, tipo TipoPrestacao) (int, error) {
	var n int64
	err := s.db.Model(&PrestacaoContas{}).
		Where("leilao_id = ? AND tipo = ?", leilaoID, tipo).
		Count(&n).Error
	if err != nil {
		return 0, fmt.Errorf("count prestacoes: %w", err)
	}
	return int(n) + 1, nil
}

// Create inserts a new immutable report record. The unique index on
// (leilao_id, tipo, versao) rejects a concurrent duplicate version.
func (s *PrestacaoStore) Create(p *PrestacaoContas) error {
	if err := s.db.Create(p).Error; err != nil {
		return fmt.Errorf("create prestacao: %w", err)
	}
	return nil
}

// ListByLeilao returns the reports of an auction, newest version first per type.
func (s *PrestacaoStore) ListByLeilao(leilaoID string) ([]PrestacaoContas, error) {
	var out []PrestacaoContas
	err := s.db.Where("leilao_id = ?", leilaoID).
		Order("tipo ASC").Order("versao DESC").
		Find(&out).Error
	if err != nil {
		return nil, fmt.Errorf("list prestacoes: %w", err)
	}
	return out, nil
}
