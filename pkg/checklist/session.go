package checklist

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// TipoVistoria tells why a vehicle is being inspected.
type TipoVistoria string

const (
	TipoMensal    TipoVistoria = "mensal"
	TipoPreLeilao TipoVistoria = "pre-leilao"
)

// Valid reports whether t is a known inspection type.
func (t TipoVistoria) Valid() bool {
	return t == TipoMensal || t == TipoPreLeilao
}

// StatusSessao is the lifecycle of a checklist session.
type StatusSessao string

const (
	StatusRascunho  StatusSessao = "rascunho"
	StatusConcluida StatusSessao = "concluida"
)

// DefaultScrollDelay is how long clients wait after a stage change before
// scrolling the content pane back to the top.
const DefaultScrollDelay = 100 * time.Millisecond

// Item is one inspected item. An empty Classificacao means unclassified.
type Item struct {
	ID            string        `json:"id"`
	Descricao     string        `json:"descricao"`
	EtapaID       string        `json:"etapaId"`
	PesoRelativo  float64       `json:"pesoRelativo"`
	Classificacao Classificacao `json:"classificacao,omitempty"`
	Observacao    string        `json:"observacao,omitempty"`
}

// Classificado reports whether the item has a classification.
func (i Item) Classificado() bool { return i.Classificacao != "" }

// Etapa is one stage of a session. Progresso is derived from Itens and
// refreshed on every item update.
type Etapa struct {
	ID        string `json:"id"`
	Descricao string `json:"descricao"`
	Ordem     int    `json:"ordem"`
	Itens     []Item `json:"itens"`
	Progresso int    `json:"progresso"`
}

// Navegacao carries presentation hints for clients.
type Navegacao struct {
	ScrollDelayMs int64 `json:"scrollDelayMs"`
}

// Session is one inspection of one vehicle, seeded from a template.
// Session is not safe for concurrent use; the Engine serializes access.
type Session struct {
	ID           string       `json:"id"`
	Template     string       `json:"template"`
	VeiculoID    string       `json:"veiculoId,omitempty"`
	Tipo         TipoVistoria `json:"tipo"`
	Status       StatusSessao `json:"status"`
	EtapaAtual   int          `json:"etapaAtual"`
	Etapas       []Etapa      `json:"etapas"`
	Fotos        []FotoSlot   `json:"fotos"`
	Avaliacao    *Avaliacao   `json:"avaliacao,omitempty"`
	Navegacao    Navegacao    `json:"navegacao"`
	CriadaEm     time.Time    `json:"criadaEm"`
	AtualizadaEm time.Time    `json:"atualizadaEm"`
	ConcluidaEm  *time.Time   `json:"concluidaEm,omitempty"`

	tax Taxonomia
}

// NewSession seeds a fresh session from t.
func NewSession(id string, t *Template, tax Taxonomia, veiculoID string, tipo TipoVistoria, now time.Time) *Session {
	if tipo == "" {
		tipo = TipoMensal
	}
	s := &Session{
		ID:           id,
		Template:     t.Nome,
		VeiculoID:    veiculoID,
		Tipo:         tipo,
		Status:       StatusRascunho,
		Etapas:       t.newEtapas(),
		Fotos:        DefaultFotoSlots(),
		Navegacao:    Navegacao{ScrollDelayMs: DefaultScrollDelay.Milliseconds()},
		CriadaEm:     now,
		AtualizadaEm: now,
		tax:          tax,
	}
	s.refresh()
	return s
}

func (s *Session) taxonomia() Taxonomia {
	if len(s.tax) == 0 {
		return DefaultTaxonomia
	}
	return s.tax
}

// Concluida reports whether the session has been finalized.
func (s *Session) Concluida() bool { return s.Status == StatusConcluida }

func (s *Session) refresh() {
	for i := range s.Etapas {
		s.Etapas[i].Progresso = progresso(s.Etapas[i].Itens)
	}
}

func (s *Session) findEtapa(etapaID string) (int, error) {
	for i := range s.Etapas {
		if s.Etapas[i].ID == etapaID {
			return i, nil
		}
	}
	return -1, fmt.Errorf("%w: %s", ErrEtapaNotFound, etapaID)
}

// AtualizarItem sets or clears the classification of one item. A nil
// observacao leaves the note untouched.
func (s *Session) AtualizarItem(etapaID, itemID, classificacao string, observacao *string) error {
	if s.Concluida() {
		return ErrSessaoConcluida
	}
	c, err := s.taxonomia().Parse(classificacao)
	if err != nil {
		return err
	}
	ei, err := s.findEtapa(etapaID)
	if err != nil {
		return err
	}
	itens := s.Etapas[ei].Itens
	for i := range itens {
		if itens[i].ID != itemID {
			continue
		}
		itens[i].Classificacao = c
		if observacao != nil {
			itens[i].Observacao = *observacao
		}
		s.Etapas[ei].Progresso = progresso(itens)
		return nil
	}
	return fmt.Errorf("%w: %s/%s", ErrItemNotFound, etapaID, itemID)
}

func progresso(itens []Item) int {
	if len(itens) == 0 {
		return 0
	}
	n := 0
	for _, it := range itens {
		if it.Classificado() {
			n++
		}
	}
	return percent(n, len(itens))
}

// percent is round(100·n/total), half away from zero.
func percent(n, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(100 * float64(n) / float64(total)))
}

// ProgressoEtapa returns the percentage of classified items of stage i.
// Out-of-range stages and stages without items report 0.
func (s *Session) ProgressoEtapa(i int) int {
	if i < 0 || i >= len(s.Etapas) {
		return 0
	}
	return progresso(s.Etapas[i].Itens)
}

// EtapaCompleta reports whether every item of stage i is classified.
// A stage without items is complete.
func (s *Session) EtapaCompleta(i int) bool {
	if i < 0 || i >= len(s.Etapas) {
		return false
	}
	for _, it := range s.Etapas[i].Itens {
		if !it.Classificado() {
			return false
		}
	}
	return true
}

func (s *Session) ultima() bool { return s.EtapaAtual >= len(s.Etapas)-1 }

// PodeAvancar reports whether ProximaEtapa would succeed.
func (s *Session) PodeAvancar() bool {
	return !s.ultima() && s.EtapaCompleta(s.EtapaAtual)
}

// PodeVoltar reports whether EtapaAnterior would succeed.
func (s *Session) PodeVoltar() bool { return s.EtapaAtual > 0 }

// ProximaEtapa moves to the next stage once the current one is complete.
func (s *Session) ProximaEtapa() error {
	if s.ultima() {
		return ErrUltimaEtapa
	}
	if !s.EtapaCompleta(s.EtapaAtual) {
		return fmt.Errorf("%w: %s", ErrEtapaIncompleta, s.Etapas[s.EtapaAtual].Descricao)
	}
	s.EtapaAtual++
	return nil
}

// EtapaAnterior moves back one stage.
func (s *Session) EtapaAnterior() error {
	if !s.PodeVoltar() {
		return ErrPrimeiraEtapa
	}
	s.EtapaAtual--
	return nil
}

// MudarEtapa jumps to stage i. Going back is always allowed; going forward
// requires every stage before i to be complete.
func (s *Session) MudarEtapa(i int) error {
	if i < 0 || i >= len(s.Etapas) {
		return fmt.Errorf("%w: %d", ErrEtapaInvalida, i)
	}
	for j := 0; i > s.EtapaAtual && j < i; j++ {
		if !s.EtapaCompleta(j) {
			return fmt.Errorf("%w: %s", ErrEtapaIncompleta, s.Etapas[j].Descricao)
		}
	}
	s.EtapaAtual = i
	return nil
}

// ChecklistCompleto reports whether every stage is complete.
func (s *Session) ChecklistCompleto() bool {
	for i := range s.Etapas {
		if !s.EtapaCompleta(i) {
			return false
		}
	}
	return true
}

// ProgressoTotal is the percentage of classified items across all stages.
func (s *Session) ProgressoTotal() int {
	n, total := 0, 0
	for _, e := range s.Etapas {
		for _, it := range e.Itens {
			total++
			if it.Classificado() {
				n++
			}
		}
	}
	return percent(n, total)
}

// ResumoEtapa counts classified items of one stage.
type ResumoEtapa struct {
	ID            string `json:"id"`
	Descricao     string `json:"descricao"`
	Classificados int    `json:"classificados"`
	Total         int    `json:"total"`
}

// Resumo is the conclusion summary of a session.
type Resumo struct {
	Bom           int           `json:"bom"`
	Regular       int           `json:"regular"`
	Imprestavel   int           `json:"imprestavel"`
	Faltando      int           `json:"faltando"`
	Total         int           `json:"total"`
	Pendentes     int           `json:"pendentes"`
	PercentualBom int           `json:"percentualBom"`
	Estado        string        `json:"estado"`
	Etapas        []ResumoEtapa `json:"etapas"`
}

// EstadoGeral labels the share of items in good condition.
func EstadoGeral(percentualBom int) string {
	switch {
	case percentualBom >= 80:
		return "Excelente"
	case percentualBom >= 60:
		return "Bom"
	case percentualBom >= 40:
		return "Regular"
	default:
		return "Crítico"
	}
}

// Resumo counts items per classification. Total counts classified items
// only; PercentualBom is relative to it.
func (s *Session) Resumo() Resumo {
	r := Resumo{Etapas: make([]ResumoEtapa, len(s.Etapas))}
	for i, e := range s.Etapas {
		re := ResumoEtapa{ID: e.ID, Descricao: e.Descricao, Total: len(e.Itens)}
		for _, it := range e.Itens {
			switch it.Classificacao {
			case Bom:
				r.Bom++
			case Regular:
				r.Regular++
			case Imprestavel:
				r.Imprestavel++
			case Faltando:
				r.Faltando++
			case "":
				r.Pendentes++
				continue
			}
			re.Classificados++
		}
		r.Etapas[i] = re
	}
	r.Total = r.Bom + r.Regular + r.Imprestavel + r.Faltando
	r.PercentualBom = percent(r.Bom, r.Total)
	r.Estado = EstadoGeral(r.PercentualBom)
	return r
}

// Conservacao is the weighted condition score Σ(peso·pesoBase)/Σ(peso) over
// classified items, rounded to four places. Zero when nothing weighs.
func (s *Session) Conservacao() decimal.Decimal {
	tax := s.taxonomia()
	num, den := decimal.Zero, decimal.Zero
	for _, e := range s.Etapas {
		for _, it := range e.Itens {
			cl, ok := tax.Lookup(it.Classificacao)
			if !ok {
				continue
			}
			peso := decimal.NewFromFloat(it.PesoRelativo)
			num = num.Add(peso.Mul(cl.PesoBase))
			den = den.Add(peso)
		}
	}
	if den.IsZero() {
		return decimal.Zero
	}
	return num.DivRound(den, 4)
}

// Classificacoes lists the classification of every classified item.
func (s *Session) Classificacoes() []Classificacao {
	var out []Classificacao
	for _, e := range s.Etapas {
		for _, it := range e.Itens {
			if it.Classificado() {
				out = append(out, it.Classificacao)
			}
		}
	}
	return out
}

// Finalizar concludes the inspection. The valuation is computed from fipe;
// valorAvaliado and classe, when set, override the suggestion.
func (s *Session) Finalizar(fipe decimal.Decimal, valorAvaliado *decimal.Decimal, classe ClasseAvaliacao, now time.Time) error {
	if s.Concluida() {
		return ErrSessaoConcluida
	}
	if !s.ChecklistCompleto() {
		return ErrChecklistIncompleto
	}
	av, err := Avaliar(fipe, s.Classificacoes(), s.taxonomia())
	if err != nil {
		return err
	}
	if valorAvaliado != nil {
		if valorAvaliado.IsNegative() {
			return fmt.Errorf("%w: valorAvaliado must not be negative", ErrValidation)
		}
		av.ValorAvaliado = *valorAvaliado
	}
	if classe != "" {
		if !classe.Valid() {
			return fmt.Errorf("%w: unknown class %q", ErrValidation, classe)
		}
		av.ClasseFinal = classe
	}
	s.Avaliacao = av
	s.Status = StatusConcluida
	s.ConcluidaEm = &now
	s.AtualizadaEm = now
	return nil
}

// Clone returns a deep copy of s.
func (s *Session) Clone() *Session {
	c := *s
	c.Etapas = make([]Etapa, len(s.Etapas))
	for i, e := range s.Etapas {
		e.Itens = append([]Item(nil), e.Itens...)
		c.Etapas[i] = e
	}
	c.Fotos = make([]FotoSlot, len(s.Fotos))
	for i, f := range s.Fotos {
		if f.CapturadaEm != nil {
			t := *f.CapturadaEm
			f.CapturadaEm = &t
		}
		c.Fotos[i] = f
	}
	if s.Avaliacao != nil {
		av := *s.Avaliacao
		c.Avaliacao = &av
	}
	if s.ConcluidaEm != nil {
		t := *s.ConcluidaEm
		c.ConcluidaEm = &t
	}
	return &c
}
