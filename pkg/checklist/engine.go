package checklist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	mapset "github.com/deckarep/golang-set/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Navigation directions accepted by Navegar.
const (
	DirecaoProxima  = "proxima"
	DirecaoAnterior = "anterior"
)

// NovaSessao holds the fields for starting an inspection.
type NovaSessao struct {
	Template  string       `json:"template"`
	VeiculoID string       `json:"veiculoId"`
	Tipo      TipoVistoria `json:"tipo"`
}

// Finalizacao holds the admin's closing values. Zero ValorAvaliado and
// Classe keep the suggested ones.
type Finalizacao struct {
	ValorFipe     decimal.Decimal  `json:"valorFipe"`
	ValorAvaliado *decimal.Decimal `json:"valorAvaliado,omitempty"`
	Classe        ClasseAvaliacao  `json:"classe,omitempty"`
}

type entry struct {
	mu      sync.Mutex
	s       *Session
	saver   *AutoSaver
	revisao int64
}

// Engine owns the live checklist sessions. Each session is guarded by its
// own lock; every change bumps its revision and schedules an auto-save.
type Engine struct {
	registry *Registry
	tax      Taxonomia
	store    *SessionStore
	saver    Saver
	cfg      *Config
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*entry
}

// Option configures an Engine.
type Option func(*Engine)

// WithStore persists sessions in store and reloads them from it on demand.
// The store is also the auto-save target unless WithSaver overrides it.
func WithStore(store *SessionStore) Option {
	return func(e *Engine) {
		e.store = store
		if e.saver == nil {
			e.saver = store
		}
	}
}

// WithSaver sets the auto-save target.
func WithSaver(s Saver) Option {
	return func(e *Engine) { e.saver = s }
}

// WithRegistry replaces the built-in template registry.
func WithRegistry(r *Registry) Option {
	return func(e *Engine) { e.registry = r }
}

// WithTaxonomia replaces the B/R/I/F taxonomy.
func WithTaxonomia(t Taxonomia) Option {
	return func(e *Engine) { e.tax = t }
}

// WithLogger sets the engine logger.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an engine and loads the templates of cfg.TemplatesDir.
func NewEngine(cfg *Config, opts ...Option) (*Engine, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	e := &Engine{
		cfg:      cfg,
		tax:      DefaultTaxonomia,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	if e.registry == nil {
		e.registry = NewRegistry()
	}
	if cfg.TemplatesDir != "" {
		n, err := e.registry.LoadDir(cfg.TemplatesDir)
		if err != nil {
			return nil, err
		}
		e.logger.Info("checklist templates loaded", "dir", cfg.TemplatesDir, "count", n)
	}
	return e, nil
}

// Registry returns the template registry.
func (e *Engine) Registry() *Registry { return e.registry }

// Taxonomia returns the classification taxonomy.
func (e *Engine) Taxonomia() Taxonomia { return e.tax }

func (e *Engine) newEntry(s *Session, revisao int64) *entry {
	en := &entry{s: s, revisao: revisao}
	if e.saver != nil {
		en.saver = NewAutoSaver(s.ID, e.saver, e.cfg.AutoSave, e.logger)
	}
	return en
}

func (en *entry) schedule(now time.Time) {
	if en.saver == nil {
		return
	}
	en.saver.Schedule(Snapshot{Sessao: en.s.Clone(), Revisao: en.revisao, TiradoEm: now})
}

// Create starts a session from a template. An empty template name selects
// the full vistoria.
func (e *Engine) Create(ctx context.Context, in NovaSessao) (*Session, error) {
	if in.Template == "" {
		in.Template = TemplateVistoria
	}
	if in.Tipo != "" && !in.Tipo.Valid() {
		return nil, fmt.Errorf("%w: unknown tipo %q", ErrValidation, in.Tipo)
	}
	t, err := e.registry.Get(in.Template)
	if err != nil {
		return nil, err
	}
	now := e.now()
	s := NewSession(uuid.NewString(), t, e.tax, in.VeiculoID, in.Tipo, now)
	en := e.newEntry(s, 1)

	e.mu.Lock()
	e.sessions[s.ID] = en
	e.mu.Unlock()

	en.mu.Lock()
	defer en.mu.Unlock()
	en.schedule(now)
	e.logger.Info("checklist session created",
		"sessionID", s.ID, "template", t.Nome, "veiculoID", in.VeiculoID, "tipo", s.Tipo)
	return s.Clone(), nil
}

func (e *Engine) lookup(ctx context.Context, id string) (*entry, error) {
	e.mu.Lock()
	en, ok := e.sessions[id]
	e.mu.Unlock()
	if ok {
		return en, nil
	}
	if e.store == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}

	s, rev, err := e.store.Load(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	s.tax = e.tax
	s.refresh()

	e.mu.Lock()
	defer e.mu.Unlock()
	if en, ok := e.sessions[id]; ok {
		return en, nil
	}
	en = e.newEntry(s, rev)
	e.sessions[id] = en
	return en, nil
}

// Get returns a copy of a session.
func (e *Engine) Get(ctx context.Context, id string) (*Session, error) {
	en, err := e.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()
	return en.s.Clone(), nil
}

// Update applies fn to a copy of the session and keeps it only if fn
// succeeds. The stored session is never left half-changed.
func (e *Engine) Update(ctx context.Context, id string, fn func(*Session) error) (*Session, error) {
	en, err := e.lookup(ctx, id)
	if err != nil {
		return nil, err
	}
	en.mu.Lock()
	defer en.mu.Unlock()

	next := en.s.Clone()
	if err := fn(next); err != nil {
		return nil, err
	}
	now := e.now()
	next.AtualizadaEm = now
	en.s = next
	en.revisao++
	en.schedule(now)
	return next.Clone(), nil
}

// AtualizarItem classifies one item.
func (e *Engine) AtualizarItem(ctx context.Context, id, etapaID, itemID, classificacao string, observacao *string) (*Session, error) {
	return e.Update(ctx, id, func(s *Session) error {
		return s.AtualizarItem(etapaID, itemID, classificacao, observacao)
	})
}

// Navegar moves one stage in direcao, or jumps to etapa when it is set.
func (e *Engine) Navegar(ctx context.Context, id, direcao string, etapa *int) (*Session, error) {
	return e.Update(ctx, id, func(s *Session) error {
		if etapa != nil {
			return s.MudarEtapa(*etapa)
		}
		switch direcao {
		case DirecaoProxima:
			return s.ProximaEtapa()
		case DirecaoAnterior:
			return s.EtapaAnterior()
		default:
			return fmt.Errorf("%w: direcao must be %q or %q", ErrValidation, DirecaoProxima, DirecaoAnterior)
		}
	})
}

// CapturarFoto fills a photo slot and returns the next empty slot.
func (e *Engine) CapturarFoto(ctx context.Context, id, slotID, ref string) (*Session, string, error) {
	var proxima string
	s, err := e.Update(ctx, id, func(s *Session) error {
		var err error
		proxima, err = s.CapturarFoto(slotID, ref, e.now())
		return err
	})
	if err != nil {
		return nil, "", err
	}
	return s, proxima, nil
}

// RemoverFoto empties a photo slot.
func (e *Engine) RemoverFoto(ctx context.Context, id, slotID string) (*Session, error) {
	return e.Update(ctx, id, func(s *Session) error {
		return s.RemoverFoto(slotID)
	})
}

// Avaliar previews the valuation of a session without changing it.
func (e *Engine) Avaliar(ctx context.Context, id string, fipe decimal.Decimal) (*Avaliacao, error) {
	s, err := e.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return Avaliar(fipe, s.Classificacoes(), e.tax)
}

// Finalizar concludes a session and saves it right away. A failed save is
// reported through AutoSaveStatus, not as an error.
func (e *Engine) Finalizar(ctx context.Context, id string, in Finalizacao) (*Session, error) {
	s, err := e.Update(ctx, id, func(s *Session) error {
		return s.Finalizar(in.ValorFipe, in.ValorAvaliado, in.Classe, e.now())
	})
	if err != nil {
		return nil, err
	}
	e.logger.Info("checklist session concluded",
		"sessionID", id,
		"classe", s.Avaliacao.ClasseFinal,
		"valorAvaliado", s.Avaliacao.ValorAvaliado.String())

	en, err := e.lookup(ctx, id)
	if err == nil && en.saver != nil {
		if err := en.saver.Flush(ctx); err != nil {
			e.logger.Error("failed to save concluded session", "sessionID", id, "error", err)
		}
	}
	return s, nil
}

// AutoSaveStatus reports the auto-save state of a session. Without a
// saver every session reports unsaved.
func (e *Engine) AutoSaveStatus(ctx context.Context, id string) (AutoSaveStatus, error) {
	en, err := e.lookup(ctx, id)
	if err != nil {
		return AutoSaveStatus{}, err
	}
	if en.saver == nil {
		return AutoSaveStatus{Status: SaveUnsaved}, nil
	}
	return en.saver.Status(), nil
}

// List returns session summaries, newest first. With a store it lists
// persisted sessions; otherwise the live ones.
func (e *Engine) List(ctx context.Context, f SessionFilter) ([]SessionRecord, error) {
	if e.store != nil {
		return e.store.List(ctx, f)
	}
	e.mu.Lock()
	entries := make([]*entry, 0, len(e.sessions))
	for _, en := range e.sessions {
		entries = append(entries, en)
	}
	e.mu.Unlock()

	out := make([]SessionRecord, 0, len(entries))
	for _, en := range entries {
		en.mu.Lock()
		s := en.s
		rec := SessionRecord{
			ID:           s.ID,
			Template:     s.Template,
			VeiculoID:    s.VeiculoID,
			TipoVistoria: string(s.Tipo),
			Status:       string(s.Status),
			Progresso:    s.ProgressoTotal(),
			Revisao:      en.revisao,
			CreatedAt:    s.CriadaEm,
			UpdatedAt:    s.AtualizadaEm,
		}
		en.mu.Unlock()
		if f.Status != "" && rec.Status != string(f.Status) {
			continue
		}
		if f.VeiculoID != "" && rec.VeiculoID != f.VeiculoID {
			continue
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

// PurgeDrafts drops draft sessions last changed before cutoff, both live
// and stored, and returns how many were removed. Concluded sessions are
// kept.
func (e *Engine) PurgeDrafts(ctx context.Context, cutoff time.Time) (int, error) {
	purged := mapset.NewThreadUnsafeSet[string]()
	var (
		stale []*entry
		keep  []string
	)
	e.mu.Lock()
	for id, en := range e.sessions {
		en.mu.Lock()
		if en.s.Status == StatusRascunho && en.s.AtualizadaEm.Before(cutoff) {
			delete(e.sessions, id)
			stale = append(stale, en)
			purged.Add(id)
		} else {
			keep = append(keep, id)
		}
		en.mu.Unlock()
	}
	e.mu.Unlock()

	for _, en := range stale {
		if en.saver != nil {
			en.saver.Close()
		}
	}

	if e.store != nil {
		ids, err := e.store.DeleteDraftsBefore(ctx, cutoff, keep)
		if err != nil {
			return purged.Cardinality(), err
		}
		purged.Append(ids...)
	}
	return purged.Cardinality(), nil
}

// Close flushes pending saves and stops every auto-saver.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	entries := make([]*entry, 0, len(e.sessions))
	for _, en := range e.sessions {
		entries = append(entries, en)
	}
	e.mu.Unlock()

	var errs []error
	for _, en := range entries {
		if en.saver == nil {
			continue
		}
		if err := en.saver.Flush(ctx); err != nil {
			errs = append(errs, err)
		}
		en.saver.Close()
	}
	return errors.Join(errs...)
}
