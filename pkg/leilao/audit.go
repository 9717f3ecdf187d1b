package leilao

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditStore provides append-only access to the audit trail.
type AuditStore struct {
	db *gorm.DB
}

// NewAuditStore creates a new AuditStore.
func NewAuditStore(db *gorm.DB) *AuditStore {
	return &AuditStore{db: db}
}

// Append records a new immutable audit event. ID and Data are filled in when empty.
func (s *AuditStore) Append(event *AuditEvent) error {
	if event.ID == "" {
		event.ID = uuid.New().String()
	}
	if event.Data.IsZero() {
		event.Data = time.Now()
	}
	if err := s.db.Create(event).Error; err != nil {
		return fmt.Errorf("append audit event: %w", err)
	}
	return nil
}

// AuditFilter narrows an audit listing. Empty fields match everything.
type AuditFilter struct {
	// Search is matched case-insensitively against acao, detalhes and usuario.
	Search      string
	Entidade    Entidade
	UsuarioRole string
	EntidadeID  string
}

func (f AuditFilter) apply(q *gorm.DB) *gorm.DB {
	if term := strings.TrimSpace(f.Search); term != "" {
		like := "%" + strings.ToLower(term) + "%"
		q = q.Where("LOWER(acao) LIKE ? OR LOWER(detalhes) LIKE ? OR LOWER(usuario) LIKE ?", like, like, like)
	}
	if f.Entidade != "" {
		q = q.Where("entidade = ?", f.Entidade)
	}
	if f.UsuarioRole != "" {
		q = q.Where("usuario_role = ?", f.UsuarioRole)
	}
	if f.EntidadeID != "" {
		q = q.Where("entidade_id = ?", f.EntidadeID)
	}
	return q
}

// List returns paginated audit events, newest first.
// pageToken is an RFC3339Nano timestamp; events strictly older are returned.
func (s *AuditStore) List(filter AuditFilter, pageSize int, pageToken string) ([]AuditEvent, string, int, error) {
	pageSize = clampPageSize(pageSize)

	var totalSize int64
	if err := filter.apply(s.db.Model(&AuditEvent{})).Count(&totalSize).Error; err != nil {
		return nil, "", 0, fmt.Errorf("count audit events: %w", err)
	}

	query := filter.apply(s.db.Model(&AuditEvent{})).Order("data DESC").Limit(pageSize + 1)
	if pageToken != "" {
		t, err := time.Parse(time.RFC3339Nano, pageToken)
		if err != nil {
			return nil, "", 0, fmt.Errorf("%w: invalid page token: %v", ErrValidation, err)
		}
		query = query.Where("data < ?", t)
	}

	var records []AuditEvent
	if err := query.Find(&records).Error; err != nil {
		return nil, "", 0, fmt.Errorf("list audit events: %w", err)
	}

	var nextToken string
	if len(records) > pageSize {
		nextToken = records[pageSize-1].Data.Format(time.RFC3339Nano)
		records = records[:pageSize]
	}

	return records, nextToken, int(totalSize), nil
}
