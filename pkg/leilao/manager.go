package leilao

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/sigel-gov/sigel/pkg/events"
)

// CachePrefix is the cache key prefix of every auction read model.
const CachePrefix = "leilao:"

// CacheInvalidator drops cached read models after a committed mutation.
type CacheInvalidator interface {
	InvalidatePrefix(ctx context.Context, prefix string) error
}

// ReportMetadata describes a generated accountability document.
type ReportMetadata struct {
	Documento string
}

// ReportGenerator renders an accountability report for a finalized auction.
type ReportGenerator interface {
	Generate(ctx context.Context, l *Leilao, tipo TipoPrestacao, versao int) (ReportMetadata, error)
}

// metadataGenerator only names the document; rendering is done elsewhere.
type metadataGenerator struct{}

func (metadataGenerator) Generate(_ context.Context, l *Leilao, tipo TipoPrestacao, versao int) (ReportMetadata, error) {
	ext := "pdf"
	if tipo == TipoPlanilha {
		ext = "xlsx"
	}
	return ReportMetadata{
		Documento: fmt.Sprintf("prestacao-contas-%s-v%d.%s", l.Codigo, versao, ext),
	}, nil
}

// Option configures a Manager.
type Option func(*Manager)

// WithReportGenerator sets the report generator.
func WithReportGenerator(g ReportGenerator) Option {
	return func(m *Manager) { m.reports = g }
}

// WithPublisher sets the domain event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(m *Manager) { m.publisher = p }
}

// WithCacheInvalidator sets the cache dropped after each mutation.
func WithCacheInvalidator(c CacheInvalidator) Option {
	return func(m *Manager) { m.cache = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager runs every auction operation. Each mutation and its audit events
// commit in one transaction; events and cache invalidation follow the commit.
type Manager struct {
	db        *gorm.DB
	machine   *LifecycleMachine
	reports   ReportGenerator
	publisher events.Publisher
	cache     CacheInvalidator
	logger    *slog.Logger
	now       func() time.Time
}

// NewManager creates a Manager over db.
func NewManager(db *gorm.DB, opts ...Option) *Manager {
	m := &Manager{
		db:        db,
		machine:   NewLifecycleMachine(),
		reports:   metadataGenerator{},
		publisher: events.Noop{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.logger == nil {
		m.logger = slog.Default()
	}
	return m
}

// Lifecycle returns the auction state machine.
func (m *Manager) Lifecycle() *LifecycleMachine {
	return m.machine
}

type txStores struct {
	carros      *CarroStore
	leiloeiros  *LeiloeiroStore
	leiloes     *LeilaoStore
	audit       *AuditStore
	prestacoes  *PrestacaoStore
	pendingEvts []events.Event
	actor       Actor
	now         time.Time
	seq         int
}

// record appends an audit event. Events of one transaction get strictly
// increasing timestamps so the trail keeps their order.
func (s *txStores) record(acao string, entidade Entidade, entidadeID, detalhes string) error {
	data := s.now.Add(time.Duration(s.seq) * time.Microsecond)
	s.seq++
	return s.audit.Append(&AuditEvent{
		Data:        data,
		Usuario:     s.actor.Usuario,
		UsuarioRole: s.actor.Role,
		Acao:        acao,
		Entidade:    entidade,
		EntidadeID:  entidadeID,
		Detalhes:    detalhes,
	})
}

func (s *txStores) emit(t events.Type, leilaoID string, payload map[string]any) {
	evt := events.NewEvent(t, leilaoID, s.actor.Usuario, payload)
	evt.OccurredAt = s.now.UTC()
	s.pendingEvts = append(s.pendingEvts, evt)
}

func (s *txStores) loadLeilao(id string) (*Leilao, error) {
	l, err := s.leiloes.Get(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("leilao %s: %w", id, ErrNotFound)
	}
	return l, nil
}

// lockLeilao loads an auction after locking its row, so reads of its lots
// see every lot mutation committed before the lock was granted.
func (s *txStores) lockLeilao(id string) (*Leilao, error) {
	if err := s.leiloes.Lock(id); err != nil {
		return nil, err
	}
	return s.loadLeilao(id)
}

func (s *txStores) loadCarro(id string) (*Carro, error) {
	c, err := s.carros.Get(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("carro %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// mutate runs fn in a transaction and, once committed, publishes the
// collected events and drops cached read models.
func (m *Manager) mutate(ctx context.Context, actor Actor, fn func(s *txStores) error) error {
	if actor.Usuario == "" {
		actor = SystemActor
	}
	var pending []events.Event
	err := m.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		s := &txStores{
			carros:     NewCarroStore(tx),
			leiloeiros: NewLeiloeiroStore(tx),
			leiloes:    NewLeilaoStore(tx),
			audit:      NewAuditStore(tx),
			prestacoes: NewPrestacaoStore(tx),
			actor:      actor,
			now:        m.now(),
		}
		if err := fn(s); err != nil {
			return err
		}
		pending = s.pendingEvts
		return nil
	})
	if err != nil {
		return err
	}

	for _, evt := range pending {
		if perr := m.publisher.Publish(ctx, evt); perr != nil {
			m.logger.Warn("failed to publish event", "type", evt.Type, "leilao", evt.LeilaoID, "error", perr)
		}
	}
	if m.cache != nil {
		if cerr := m.cache.InvalidatePrefix(ctx, CachePrefix); cerr != nil {
			m.logger.Warn("failed to invalidate cache", "prefix", CachePrefix, "error", cerr)
		}
	}
	return nil
}

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// ---------------------------------------------------------------------------
// Carros
// ---------------------------------------------------------------------------

func normalizePlaca(p string) string {
	return strings.ToUpper(strings.TrimSpace(p))
}

// AddCarro registers a vehicle. Status defaults to APTO; only APTO and
// INDISPONIVEL may be chosen on creation.
func (m *Manager) AddCarro(ctx context.Context, actor Actor, c *Carro) (*Carro, error) {
	c.Placa = normalizePlaca(c.Placa)
	if c.Placa == "" {
		return nil, validationError("placa is required")
	}
	switch c.Status {
	case "":
		c.Status = CarroApto
	case CarroApto, CarroIndisponivel:
	default:
		return nil, validationError("status %s cannot be set on creation", c.Status)
	}
	if c.ValorInicial.IsNegative() {
		return nil, validationError("valorInicial must not be negative")
	}
	if c.ID == "" {
		c.ID = uuid.New().String()
	}

	err := m.mutate(ctx, actor, func(s *txStores) error {
		existing, err := s.carros.GetByPlaca(c.Placa)
		if err != nil {
			return err
		}
		if existing != nil {
			return fmt.Errorf("placa %s: %w", c.Placa, ErrPlacaDuplicada)
		}
		if err := s.carros.Create(c); err != nil {
			return err
		}
		return s.record("Carro adicionado", EntidadeCarro, c.ID,
			fmt.Sprintf("Veículo %s adicionado ao sistema", c.Placa))
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

// UpdateCarro replaces the descriptive fields of a vehicle. Status may only
// be toggled between APTO and INDISPONIVEL; the other statuses belong to
// the auction workflow.
func (m *Manager) UpdateCarro(ctx context.Context, actor Actor, id string, upd Carro) (*Carro, error) {
	var out *Carro
	err := m.mutate(ctx, actor, func(s *txStores) error {
		c, err := s.loadCarro(id)
		if err != nil {
			return err
		}
		if placa := normalizePlaca(upd.Placa); placa != "" && placa != c.Placa {
			other, err := s.carros.GetByPlaca(placa)
			if err != nil {
				return err
			}
			if other != nil {
				return fmt.Errorf("placa %s: %w", placa, ErrPlacaDuplicada)
			}
			c.Placa = placa
		}
		if upd.Status != "" && upd.Status != c.Status {
			if upd.Status != CarroApto && upd.Status != CarroIndisponivel {
				return validationError("status %s is set by the auction workflow", upd.Status)
			}
			if c.Status != CarroApto && c.Status != CarroIndisponivel {
				return fmt.Errorf("carro %s is %s: %w", c.Placa, c.Status, ErrCarroVinculado)
			}
			c.Status = upd.Status
		}
		if upd.ValorInicial.IsNegative() {
			return validationError("valorInicial must not be negative")
		}
		c.Chassi = upd.Chassi
		c.Ano = upd.Ano
		c.Cor = upd.Cor
		c.Tipo = upd.Tipo
		c.Marca = upd.Marca
		c.Modelo = upd.Modelo
		c.Fotos = upd.Fotos
		c.ValorInicial = upd.ValorInicial
		if err := s.carros.Save(c); err != nil {
			return err
		}
		out = c
		return s.record("Carro atualizado", EntidadeCarro, c.ID,
			fmt.Sprintf("Veículo %s atualizado", c.Placa))
	})
	return out, err
}

// DeleteCarro removes a vehicle that is not linked to an auction.
func (m *Manager) DeleteCarro(ctx context.Context, actor Actor, id string) error {
	return m.mutate(ctx, actor, func(s *txStores) error {
		c, err := s.loadCarro(id)
		if err != nil {
			return err
		}
		if c.Status == CarroVinculado {
			return fmt.Errorf("carro %s: %w", c.Placa, ErrCarroVinculado)
		}
		if err := s.carros.Delete(id); err != nil {
			return err
		}
		return s.record("Carro removido", EntidadeCarro, c.ID,
			fmt.Sprintf("Veículo %s removido do sistema", c.Placa))
	})
}

// GetCarro returns a vehicle or ErrNotFound.
func (m *Manager) GetCarro(ctx context.Context, id string) (*Carro, error) {
	c, err := NewCarroStore(m.db.WithContext(ctx)).Get(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("carro %s: %w", id, ErrNotFound)
	}
	return c, nil
}

// ListCarros returns vehicles, optionally filtered by status.
func (m *Manager) ListCarros(ctx context.Context, status CarroStatus) ([]Carro, error) {
	return NewCarroStore(m.db.WithContext(ctx)).List(status)
}

// CarrosAptos returns the vehicles that can be linked to an auction.
func (m *Manager) CarrosAptos(ctx context.Context) ([]Carro, error) {
	return m.ListCarros(ctx, CarroApto)
}

// ---------------------------------------------------------------------------
// Leiloeiros
// ---------------------------------------------------------------------------

// AddLeiloeiro registers an auctioneer.
func (m *Manager) AddLeiloeiro(ctx context.Context, actor Actor, l *Leiloeiro) (*Leiloeiro, error) {
	l.Nome = strings.TrimSpace(l.Nome)
	if l.Nome == "" {
		return nil, validationError("nome is required")
	}
	if l.ID == "" {
		l.ID = uuid.New().String()
	}
	err := m.mutate(ctx, actor, func(s *txStores) error {
		if err := s.leiloeiros.Create(l); err != nil {
			return err
		}
		return s.record("Leiloeiro adicionado", EntidadeLeilao, l.ID,
			fmt.Sprintf("Leiloeiro %s cadastrado", l.Nome))
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLeiloeiro replaces the fields of an auctioneer.
func (m *Manager) UpdateLeiloeiro(ctx context.Context, actor Actor, id string, upd Leiloeiro) (*Leiloeiro, error) {
	nome := strings.TrimSpace(upd.Nome)
	if nome == "" {
		return nil, validationError("nome is required")
	}
	var out *Leiloeiro
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.leiloeiros.Get(id)
		if err != nil {
			return err
		}
		if l == nil {
			return fmt.Errorf("leiloeiro %s: %w", id, ErrNotFound)
		}
		l.Nome = nome
		l.Email = upd.Email
		l.Ativo = upd.Ativo
		if err := s.leiloeiros.Save(l); err != nil {
			return err
		}
		out = l
		return nil
	})
	return out, err
}

// DeleteLeiloeiro removes an auctioneer. Auctions keep their reference.
func (m *Manager) DeleteLeiloeiro(ctx context.Context, actor Actor, id string) error {
	return m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.leiloeiros.Get(id)
		if err != nil {
			return err
		}
		if l == nil {
			return fmt.Errorf("leiloeiro %s: %w", id, ErrNotFound)
		}
		return s.leiloeiros.Delete(id)
	})
}

// GetLeiloeiro returns an auctioneer or ErrNotFound.
func (m *Manager) GetLeiloeiro(ctx context.Context, id string) (*Leiloeiro, error) {
	l, err := NewLeiloeiroStore(m.db.WithContext(ctx)).Get(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("leiloeiro %s: %w", id, ErrNotFound)
	}
	return l, nil
}

// ListLeiloeiros returns every auctioneer.
func (m *Manager) ListLeiloeiros(ctx context.Context) ([]Leiloeiro, error) {
	return NewLeiloeiroStore(m.db.WithContext(ctx)).List()
}

// LeiloesDoLeiloeiro returns the auctions assigned to an auctioneer.
func (m *Manager) LeiloesDoLeiloeiro(ctx context.Context, leiloeiroID string) ([]Leilao, error) {
	return NewLeilaoStore(m.db.WithContext(ctx)).List("", leiloeiroID)
}

// ---------------------------------------------------------------------------
// Leiloes
// ---------------------------------------------------------------------------

// LeilaoInput holds the fields accepted when creating an auction.
type LeilaoInput struct {
	Titulo      string    `json:"titulo"`
	Codigo      string    `json:"codigo"`
	Data        time.Time `json:"data"`
	LeiloeiroID string    `json:"leiloeiroId"`
	Observacoes string    `json:"observacoes"`
}

// LeilaoPatch holds the editable fields of a draft auction. Nil fields are kept.
type LeilaoPatch struct {
	Titulo      *string    `json:"titulo,omitempty"`
	Data        *time.Time `json:"data,omitempty"`
	LeiloeiroID *string    `json:"leiloeiroId,omitempty"`
	Observacoes *string    `json:"observacoes,omitempty"`
}

func (s *txStores) requireLeiloeiro(id string) error {
	l, err := s.leiloeiros.Get(id)
	if err != nil {
		return err
	}
	if l == nil {
		return fmt.Errorf("leiloeiro %s: %w", id, ErrLeiloeiroNotFound)
	}
	return nil
}

func (s *txStores) nextCodigo() (string, error) {
	prefix := fmt.Sprintf("LEI-%d-", s.now.Year())
	n, err := s.leiloes.CountByCodigoPrefix(prefix)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s%04d", prefix, n+1), nil
}

// CreateLeilao creates a draft auction with no lots.
func (m *Manager) CreateLeilao(ctx context.Context, actor Actor, in LeilaoInput) (*Leilao, error) {
	titulo := strings.TrimSpace(in.Titulo)
	switch {
	case titulo == "":
		return nil, validationError("titulo is required")
	case in.LeiloeiroID == "":
		return nil, validationError("leiloeiroId is required")
	case in.Data.IsZero():
		return nil, validationError("data is required")
	}

	l := &Leilao{
		ID:          uuid.New().String(),
		Titulo:      titulo,
		Codigo:      strings.TrimSpace(in.Codigo),
		Data:        in.Data,
		Status:      StatusRascunho,
		LeiloeiroID: in.LeiloeiroID,
		Observacoes: in.Observacoes,
		Lotes:       []Lote{},
	}
	err := m.mutate(ctx, actor, func(s *txStores) error {
		if err := s.requireLeiloeiro(in.LeiloeiroID); err != nil {
			return err
		}
		if l.Codigo == "" {
			codigo, err := s.nextCodigo()
			if err != nil {
				return err
			}
			l.Codigo = codigo
		}
		if err := s.leiloes.Create(l); err != nil {
			return err
		}
		s.emit(events.LeilaoCriado, l.ID, map[string]any{"codigo": l.Codigo})
		return s.record("Leilão criado", EntidadeLeilao, l.ID,
			fmt.Sprintf("Leilão %s criado como rascunho", l.Codigo))
	})
	if err != nil {
		return nil, err
	}
	return l, nil
}

// UpdateLeilao edits a draft auction.
func (m *Manager) UpdateLeilao(ctx context.Context, actor Actor, id string, p LeilaoPatch) (*Leilao, error) {
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(id)
		if err != nil {
			return err
		}
		if l.Status != StatusRascunho {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotDraft)
		}
		fields := map[string]any{"updated_at": s.now}
		if p.Titulo != nil {
			t := strings.TrimSpace(*p.Titulo)
			if t == "" {
				return validationError("titulo must not be empty")
			}
			fields["titulo"] = t
		}
		if p.Data != nil {
			if p.Data.IsZero() {
				return validationError("data must not be empty")
			}
			fields["data"] = *p.Data
		}
		if p.LeiloeiroID != nil {
			if err := s.requireLeiloeiro(*p.LeiloeiroID); err != nil {
				return err
			}
			fields["leiloeiro_id"] = *p.LeiloeiroID
		}
		if p.Observacoes != nil {
			fields["observacoes"] = *p.Observacoes
		}
		if err := s.leiloes.Update(id, fields); err != nil {
			return err
		}
		return s.record("Leilão atualizado", EntidadeLeilao, id,
			fmt.Sprintf("Leilão %s atualizado", l.Codigo))
	})
	if err != nil {
		return nil, err
	}
	return m.GetLeilao(ctx, id)
}

// DeleteLeilao removes a draft auction and releases its vehicles.
func (m *Manager) DeleteLeilao(ctx context.Context, actor Actor, id string) error {
	return m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(id)
		if err != nil {
			return err
		}
		if l.Status != StatusRascunho {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotDraft)
		}
		for _, lote := range l.Lotes {
			if err := s.carros.SetStatus(lote.CarroID, CarroApto); err != nil {
				return err
			}
		}
		if err := s.leiloes.Delete(id); err != nil {
			return err
		}
		return s.record("Leilão excluído", EntidadeLeilao, id,
			fmt.Sprintf("Leilão %s excluído", l.Codigo))
	})
}

// GetLeilao returns an auction with its lots and derived flag, or ErrNotFound.
func (m *Manager) GetLeilao(ctx context.Context, id string) (*Leilao, error) {
	l, err := NewLeilaoStore(m.db.WithContext(ctx)).Get(id)
	if err != nil {
		return nil, err
	}
	if l == nil {
		return nil, fmt.Errorf("leilao %s: %w", id, ErrNotFound)
	}
	return l, nil
}

// ListLeiloes returns auctions, optionally filtered by status.
func (m *Manager) ListLeiloes(ctx context.Context, status LeilaoStatus) ([]Leilao, error) {
	return NewLeilaoStore(m.db.WithContext(ctx)).List(status, "")
}

// VincularCarros links APTO vehicles to a draft auction as new lots numbered
// after the current highest lot, in input order.
func (m *Manager) VincularCarros(ctx context.Context, actor Actor, leilaoID string, carroIDs []string) ([]Lote, error) {
	if len(carroIDs) == 0 {
		return nil, validationError("at least one carro is required")
	}
	seen := make(map[string]struct{}, len(carroIDs))
	for _, id := range carroIDs {
		if _, dup := seen[id]; dup {
			return nil, validationError("carro %s listed twice", id)
		}
		seen[id] = struct{}{}
	}

	var created []Lote
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(leilaoID)
		if err != nil {
			return err
		}
		if l.Status != StatusRascunho {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotDraft)
		}
		carros := make([]*Carro, 0, len(carroIDs))
		for _, id := range carroIDs {
			c, err := s.loadCarro(id)
			if err != nil {
				return err
			}
			if c.Status != CarroApto {
				return fmt.Errorf("carro %s is %s: %w", c.Placa, c.Status, ErrCarroIndisponivel)
			}
			carros = append(carros, c)
		}

		base, err := s.leiloes.MaxNumero(leilaoID)
		if err != nil {
			return err
		}
		for i, c := range carros {
			lote := Lote{
				ID:           uuid.New().String(),
				LeilaoID:     leilaoID,
				Numero:       base + 1 + i,
				CarroID:      c.ID,
				ValorInicial: c.ValorInicial,
				Status:       LoteVinculado,
			}
			if err := s.leiloes.CreateLote(&lote); err != nil {
				return err
			}
			ok, err := s.carros.TransitionStatus(c.ID, CarroApto, CarroVinculado)
			if err != nil {
				return err
			}
			if !ok {
				return fmt.Errorf("carro %s was linked concurrently: %w", c.Placa, ErrCarroIndisponivel)
			}
			if err := s.record("Carro vinculado ao leilão", EntidadeLote, c.ID,
				fmt.Sprintf("Veículo %s vinculado ao leilão", c.Placa)); err != nil {
				return err
			}
			created = append(created, lote)
		}
		return s.leiloes.Update(leilaoID, map[string]any{"updated_at": s.now})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// RemoverLote removes a lot from a draft auction and returns its vehicle
// to APTO. Other lots keep their numbers.
func (m *Manager) RemoverLote(ctx context.Context, actor Actor, leilaoID, loteID string) error {
	return m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(leilaoID)
		if err != nil {
			return err
		}
		if l.Status != StatusRascunho {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotDraft)
		}
		lote, err := s.leiloes.GetLote(leilaoID, loteID)
		if err != nil {
			return err
		}
		if lote == nil {
			return fmt.Errorf("lote %s: %w", loteID, ErrNotFound)
		}
		if err := s.leiloes.DeleteLote(leilaoID, loteID); err != nil {
			return err
		}
		if err := s.carros.SetStatus(lote.CarroID, CarroApto); err != nil {
			return err
		}
		if err := s.leiloes.Update(leilaoID, map[string]any{"updated_at": s.now}); err != nil {
			return err
		}
		return s.record("Lote removido", EntidadeLote, lote.CarroID,
			fmt.Sprintf("Lote %d removido do leilão %s", lote.Numero, l.Codigo))
	})
}

// PublicarLeilao publishes a draft auction that has at least one lot.
func (m *Manager) PublicarLeilao(ctx context.Context, actor Actor, id string, pub Publicacao) (*Leilao, error) {
	pub.Local = strings.TrimSpace(pub.Local)
	if pub.Local == "" {
		return nil, validationError("local is required")
	}
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(id)
		if err != nil {
			return err
		}
		if err := m.machine.ValidateTransition(l.Status, StatusPublicado); err != nil {
			return err
		}
		if len(l.Lotes) == 0 {
			return fmt.Errorf("leilao %s: %w", l.Codigo, ErrNoLots)
		}
		if pub.Data.IsZero() {
			pub.Data = s.now
		}
		if err := s.leiloes.Update(id, map[string]any{
			"status":     StatusPublicado,
			"publicacao": pub,
			"updated_at": s.now,
		}); err != nil {
			return err
		}
		s.emit(events.LeilaoPublicado, id, map[string]any{"codigo": l.Codigo, "local": pub.Local})
		return s.record("Edital publicado", EntidadeLeilao, id,
			fmt.Sprintf("Leilão publicado em %s", pub.Local))
	})
	if err != nil {
		return nil, err
	}
	return m.GetLeilao(ctx, id)
}

// FinalizarLeilao closes a published auction whose lots all have a result.
func (m *Manager) FinalizarLeilao(ctx context.Context, actor Actor, id string) (*Leilao, error) {
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(id)
		if err != nil {
			return err
		}
		if err := m.machine.ValidateTransition(l.Status, StatusFinalizado); err != nil {
			return err
		}
		if !ResultadosCompletos(l.Lotes) {
			return fmt.Errorf("leilao %s: %w", l.Codigo, ErrIncompleteResults)
		}
		if err := s.leiloes.Update(id, map[string]any{
			"status":     StatusFinalizado,
			"updated_at": s.now,
		}); err != nil {
			return err
		}
		resumo := Resumir(l)
		s.emit(events.LeilaoFinalizado, id, map[string]any{
			"codigo":          l.Codigo,
			"arrematados":     resumo.Arrematados,
			"totalArrecadado": resumo.TotalArrecadado.StringFixed(2),
		})
		return s.record("Leilão finalizado", EntidadeLeilao, id, "Leilão finalizado com sucesso")
	})
	if err != nil {
		return nil, err
	}
	return m.GetLeilao(ctx, id)
}

func validarResultado(r *Resultado) error {
	switch r.Status {
	case LoteArrematado:
		r.Arrematante = strings.TrimSpace(r.Arrematante)
		if r.Arrematante == "" {
			return fmt.Errorf("%w: arrematante is required", ErrInvalidResult)
		}
		if !r.ValorArremate.IsPositive() {
			return fmt.Errorf("%w: valorArremate must be positive", ErrInvalidResult)
		}
	case LoteNaoArrematado:
		r.ValorArremate = decimal.Zero
	default:
		return fmt.Errorf("%w: status must be ARREMATADO or NAO_ARREMATADO, got %q", ErrInvalidResult, r.Status)
	}
	return nil
}

func detalheResultado(r Resultado) string {
	if r.Status == LoteArrematado {
		return fmt.Sprintf("Lote arrematado por %s - R$ %s", r.Arrematante, FormatReais(r.ValorArremate))
	}
	obs := r.Observacao
	if obs == "" {
		obs = "Sem observação"
	}
	return fmt.Sprintf("Lote não arrematado - %s", obs)
}

// LancarResultado records or corrects the result of a lot of a published
// auction. The vehicle status mirrors the lot.
func (m *Manager) LancarResultado(ctx context.Context, actor Actor, leilaoID, loteID string, r Resultado) (*Leilao, error) {
	if err := validarResultado(&r); err != nil {
		return nil, err
	}
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(leilaoID)
		if err != nil {
			return err
		}
		if l.Status != StatusPublicado {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotPublished)
		}
		lote, err := s.leiloes.GetLote(leilaoID, loteID)
		if err != nil {
			return err
		}
		if lote == nil {
			return fmt.Errorf("lote %s: %w", loteID, ErrNotFound)
		}
		lote.Status = r.Status
		res := r
		lote.Resultado = &res
		if err := s.leiloes.SaveLote(lote); err != nil {
			return err
		}
		if err := s.carros.SetStatus(lote.CarroID, CarroStatus(r.Status)); err != nil {
			return err
		}
		if err := s.leiloes.Update(leilaoID, map[string]any{"updated_at": s.now}); err != nil {
			return err
		}
		s.emit(events.LoteResultado, leilaoID, map[string]any{
			"loteId":        lote.ID,
			"numero":        lote.Numero,
			"status":        string(r.Status),
			"valorArremate": r.ValorArremate.StringFixed(2),
		})
		return s.record("Resultado lançado pelo leiloeiro", EntidadeLote, loteID, detalheResultado(r))
	})
	if err != nil {
		return nil, err
	}
	return m.GetLeilao(ctx, leilaoID)
}

// ParseTipoPrestacao validates a report type name.
func ParseTipoPrestacao(s string) (TipoPrestacao, error) {
	switch t := TipoPrestacao(strings.ToLower(strings.TrimSpace(s))); t {
	case TipoPDF, TipoPlanilha:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrTipoPrestacao, s)
	}
}

// GerarPrestacaoContas generates the next version of a report for a
// finalized auction.
func (m *Manager) GerarPrestacaoContas(ctx context.Context, actor Actor, leilaoID string, tipo TipoPrestacao) (*PrestacaoContas, error) {
	if _, err := ParseTipoPrestacao(string(tipo)); err != nil {
		return nil, err
	}
	var out *PrestacaoContas
	err := m.mutate(ctx, actor, func(s *txStores) error {
		l, err := s.lockLeilao(leilaoID)
		if err != nil {
			return err
		}
		if l.Status != StatusFinalizado {
			return fmt.Errorf("leilao %s is %s: %w", l.Codigo, l.Status, ErrNotFinalized)
		}
		versao, err := s.prestacoes.NextVersao(leilaoID, tipo)
		if err != nil {
			return err
		}
		meta, err := m.reports.Generate(ctx, l, tipo, versao)
		if err != nil {
			return fmt.Errorf("generate %s report: %w", tipo, err)
		}
		p := &PrestacaoContas{
			ID:          uuid.New().String(),
			LeilaoID:    leilaoID,
			Tipo:        tipo,
			Versao:      versao,
			DataGeracao: s.now,
			Usuario:     s.actor.Usuario,
			Documento:   meta.Documento,
		}
		if err := s.prestacoes.Create(p); err != nil {
			return err
		}
		out = p
		s.emit(events.PrestacaoGerada, leilaoID, map[string]any{
			"tipo":   string(tipo),
			"versao": versao,
		})
		return s.record("Prestação de contas gerada", EntidadeLeilao, leilaoID,
			fmt.Sprintf("%s da prestação de contas v%d gerado", strings.ToUpper(string(tipo)), versao))
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ListPrestacoes returns the reports of an auction.
func (m *Manager) ListPrestacoes(ctx context.Context, leilaoID string) ([]PrestacaoContas, error) {
	if _, err := m.GetLeilao(ctx, leilaoID); err != nil {
		return nil, err
	}
	return NewPrestacaoStore(m.db.WithContext(ctx)).ListByLeilao(leilaoID)
}

// ListAuditoria returns a page of the audit trail, newest first.
func (m *Manager) ListAuditoria(ctx context.Context, f AuditFilter, pageSize int, pageToken string) ([]AuditEvent, string, int, error) {
	return NewAuditStore(m.db.WithContext(ctx)).List(f, pageSize, pageToken)
}

// IsNotFound reports whether err means a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, ErrLeiloeiroNotFound)
}
