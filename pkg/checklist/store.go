package checklist

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// SessionRecord is the persisted form of a session. Dados holds the
// session as JSON; the other columns are kept for listing and filtering.
type SessionRecord struct {
	ID           string    `gorm:"primaryKey;size:36" json:"id"`
	Template     string    `gorm:"size:64;not null" json:"template"`
	VeiculoID    string    `gorm:"size:64;index" json:"veiculoId,omitempty"`
	TipoVistoria string    `gorm:"size:16;not null" json:"tipo"`
	Status       string    `gorm:"size:16;not null;index" json:"status"`
	Progresso    int       `gorm:"not null;default:0" json:"progresso"`
	Revisao      int64     `gorm:"not null" json:"revisao"`
	Dados        string    `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TableName overrides the default table name.
func (SessionRecord) TableName() string { return "checklist_sessoes" }

// AutoMigrate creates or updates the session table.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(&SessionRecord{}); err != nil {
		return fmt.Errorf("auto-migrate checklist_sessoes: %w", err)
	}
	return nil
}

// SessionStore persists session snapshots. It implements Saver.
type SessionStore struct {
	db *gorm.DB
}

// NewSessionStore creates a new SessionStore.
func NewSessionStore(db *gorm.DB) *SessionStore {
	return &SessionStore{db: db}
}

// Save writes snap unless the stored revision is newer.
func (s *SessionStore) Save(ctx context.Context, sessionID string, snap Snapshot) error {
	if snap.Sessao == nil {
		return fmt.Errorf("%w: snapshot without session", ErrValidation)
	}
	dados, err := json.Marshal(snap.Sessao)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	rec := SessionRecord{
		ID:           sessionID,
		Template:     snap.Sessao.Template,
		VeiculoID:    snap.Sessao.VeiculoID,
		TipoVistoria: string(snap.Sessao.Tipo),
		Status:       string(snap.Sessao.Status),
		Progresso:    snap.Sessao.ProgressoTotal(),
		Revisao:      snap.Revisao,
		Dados:        string(dados),
	}

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing SessionRecord
		err := tx.Select("id", "revisao").Where("id = ?", sessionID).First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			if err := tx.Create(&rec).Error; err != nil {
				return fmt.Errorf("create session: %w", err)
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("get session revision: %w", err)
		}
		if existing.Revisao > snap.Revisao {
			return nil
		}
		err = tx.Model(&SessionRecord{}).Where("id = ?", sessionID).Updates(map[string]any{
			"template":      rec.Template,
			"veiculo_id":    rec.VeiculoID,
			"tipo_vistoria": rec.TipoVistoria,
			"status":        rec.Status,
			"progresso":     rec.Progresso,
			"revisao":       rec.Revisao,
			"dados":         rec.Dados,
			"updated_at":    time.Now(),
		}).Error
		if err != nil {
			return fmt.Errorf("update session: %w", err)
		}
		return nil
	})
}

// Load returns the stored session and its revision. Returns nil, 0, nil if
// it does not exist.
func (s *SessionStore) Load(ctx context.Context, sessionID string) (*Session, int64, error) {
	var rec SessionRecord
	err := s.db.WithContext(ctx).Where("id = ?", sessionID).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("get session: %w", err)
	}
	var sess Session
	if err := json.Unmarshal([]byte(rec.Dados), &sess); err != nil {
		return nil, 0, fmt.Errorf("decode session %s: %w", sessionID, err)
	}
	return &sess, rec.Revisao, nil
}

// SessionFilter narrows List results. Zero fields match everything.
type SessionFilter struct {
	Status    StatusSessao
	VeiculoID string
}

// List returns stored sessions without their payload, newest first.
func (s *SessionStore) List(ctx context.Context, f SessionFilter) ([]SessionRecord, error) {
	q := s.db.WithContext(ctx).Omit("dados")
	if f.Status != "" {
		q = q.Where("status = ?", string(f.Status))
	}
	if f.VeiculoID != "" {
		q = q.Where("veiculo_id = ?", f.VeiculoID)
	}
	var out []SessionRecord
	if err := q.Order("updated_at DESC").Order("id").Find(&out).Error; err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	return out, nil
}

// DeleteDraftsBefore removes draft sessions last saved before cutoff, except
// those listed in keep, and returns the removed ids.
func (s *SessionStore) DeleteDraftsBefore(ctx context.Context, cutoff time.Time, keep []string) ([]string, error) {
	var ids []string
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&SessionRecord{}).
			Where("status = ? AND updated_at < ?", string(StatusRascunho), cutoff)
		if len(keep) > 0 {
			q = q.Where("id NOT IN ?", keep)
		}
		if err := q.Pluck("id", &ids).Error; err != nil {
			return fmt.Errorf("find stale drafts: %w", err)
		}
		if len(ids) == 0 {
			return nil
		}
		if err := tx.Where("id IN ?", ids).Delete(&SessionRecord{}).Error; err != nil {
			return fmt.Errorf("delete stale drafts: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return ids, nil
}
