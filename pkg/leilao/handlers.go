package leilao

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/sigel-gov/sigel/pkg/authz"
)

// actorFrom builds the audit actor from the request identity.
func actorFrom(r *http.Request) Actor {
	id, ok := authz.IdentityFromContext(r.Context())
	if !ok {
		return SystemActor
	}
	return Actor{Usuario: id.Nome, Role: string(id.Role)}
}

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrValidation, err)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Carros
// ---------------------------------------------------------------------------

type carroList struct {
	Carros []Carro `json:"carros"`
	Total  int     `json:"total"`
}

func listCarrosHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		carros, err := m.ListCarros(r.Context(), CarroStatus(r.URL.Query().Get("status")))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if carros == nil {
			carros = []Carro{}
		}
		writeJSON(w, http.StatusOK, carroList{Carros: carros, Total: len(carros)})
	}
}

func createCarroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Carro
		if err := decodeBody(r, &c); err != nil {
			writeServiceError(w, err)
			return
		}
		c.ID = ""
		created, err := m.AddCarro(r.Context(), actorFrom(r), &c)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getCarroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c, err := m.GetCarro(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, c)
	}
}

func updateCarroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var c Carro
		if err := decodeBody(r, &c); err != nil {
			writeServiceError(w, err)
			return
		}
		updated, err := m.UpdateCarro(r.Context(), actorFrom(r), chi.URLParam(r, "id"), c)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteCarroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.DeleteCarro(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// ---------------------------------------------------------------------------
// Leiloeiros
// ---------------------------------------------------------------------------

func listLeiloeirosHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := m.ListLeiloeiros(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if out == nil {
			out = []Leiloeiro{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"leiloeiros": out, "total": len(out)})
	}
}

func createLeiloeiroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l Leiloeiro
		if err := decodeBody(r, &l); err != nil {
			writeServiceError(w, err)
			return
		}
		l.ID = ""
		created, err := m.AddLeiloeiro(r.Context(), actorFrom(r), &l)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, created)
	}
}

func getLeiloeiroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := m.GetLeiloeiro(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func updateLeiloeiroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var l Leiloeiro
		if err := decodeBody(r, &l); err != nil {
			writeServiceError(w, err)
			return
		}
		updated, err := m.UpdateLeiloeiro(r.Context(), actorFrom(r), chi.URLParam(r, "id"), l)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, updated)
	}
}

func deleteLeiloeiroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.DeleteLeiloeiro(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func leiloesDoLeiloeiroHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "id")
		if _, err := m.GetLeiloeiro(r.Context(), id); err != nil {
			writeServiceError(w, err)
			return
		}
		out, err := m.LeiloesDoLeiloeiro(r.Context(), id)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLeilaoList(out))
	}
}

// ---------------------------------------------------------------------------
// Leiloes
// ---------------------------------------------------------------------------

// leilaoSummary is a list row: the auction header without its lots.
type leilaoSummary struct {
	ID                  string       `json:"id"`
	Titulo              string       `json:"titulo"`
	Codigo              string       `json:"codigo"`
	Data                time.Time    `json:"data"`
	Status              LeilaoStatus `json:"status"`
	LeiloeiroID         string       `json:"leiloeiroId"`
	TotalLotes          int          `json:"totalLotes"`
	ResultadosCompletos bool         `json:"resultadosCompletos"`
}

type leilaoList struct {
	Leiloes []leilaoSummary `json:"leiloes"`
	Total   int             `json:"total"`
}

func toLeilaoSummary(l *Leilao) leilaoSummary {
	return leilaoSummary{
		ID:                  l.ID,
		Titulo:              l.Titulo,
		Codigo:              l.Codigo,
		Data:                l.Data,
		Status:              l.Status,
		LeiloeiroID:         l.LeiloeiroID,
		TotalLotes:          len(l.Lotes),
		ResultadosCompletos: l.ResultadosCompletos,
	}
}

func toLeilaoList(leiloes []Leilao) leilaoList {
	out := leilaoList{Leiloes: make([]leilaoSummary, 0, len(leiloes)), Total: len(leiloes)}
	for i := range leiloes {
		out.Leiloes = append(out.Leiloes, toLeilaoSummary(&leiloes[i]))
	}
	return out
}

func listLeiloesHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := m.ListLeiloes(r.Context(), LeilaoStatus(r.URL.Query().Get("status")))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, toLeilaoList(out))
	}
}

func createLeilaoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in LeilaoInput
		if err := decodeBody(r, &in); err != nil {
			writeServiceError(w, err)
			return
		}
		l, err := m.CreateLeilao(r.Context(), actorFrom(r), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, l)
	}
}

// Detail tabs of the auction page.
const (
	TabResumo     = "resumo"
	TabLotes      = "lotes"
	TabPublicacao = "publicacao"
	TabResultados = "resultados"
	TabPrestacao  = "prestacao"
)

// leilaoDetail is the auction header plus the section selected by ?tab=.
type leilaoDetail struct {
	leilaoSummary
	Observacoes     string             `json:"observacoes,omitempty"`
	AllowedActions  []string           `json:"allowedActions"`
	Resumo          *ResumoLeilao      `json:"resumo,omitempty"`
	Lotes           *[]Lote            `json:"lotes,omitempty"`
	Publicacao      *Publicacao        `json:"publicacao,omitempty"`
	Resultados      *ResultadoLeilao   `json:"resultados,omitempty"`
	Prestacoes      *[]PrestacaoContas `json:"prestacoes,omitempty"`
	PodeLancar      bool               `json:"podeLancarResultados"`
	PodeFinalizar   bool               `json:"podeFinalizar"`
	PodeGerarContas bool               `json:"podeGerarPrestacao"`
}

// section marks a list as belonging to the selected tab, so it is encoded
// even when empty.
func section[T any](items []T) *[]T {
	if items == nil {
		items = []T{}
	}
	return &items
}

func getLeilaoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := m.GetLeilao(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}

		tab := r.URL.Query().Get("tab")
		if tab == "" {
			writeJSON(w, http.StatusOK, l)
			return
		}

		d := leilaoDetail{
			leilaoSummary:   toLeilaoSummary(l),
			Observacoes:     l.Observacoes,
			AllowedActions:  m.Lifecycle().AllowedActions(l.Status),
			PodeLancar:      l.Status == StatusPublicado,
			PodeFinalizar:   l.Status == StatusPublicado && l.ResultadosCompletos,
			PodeGerarContas: l.Status == StatusFinalizado,
		}
		if d.AllowedActions == nil {
			d.AllowedActions = []string{}
		}
		switch tab {
		case TabResumo:
			resumo := Resumir(l)
			d.Resumo = &resumo
		case TabLotes:
			d.Lotes = section(l.Lotes)
		case TabPublicacao:
			d.Publicacao = l.Publicacao
		case TabResultados:
			resumo := Resumir(l)
			d.Resultados = &ResultadoLeilao{
				LeilaoID:       l.ID,
				Codigo:         l.Codigo,
				Titulo:         l.Titulo,
				TotalLotes:     resumo.TotalLotes,
				Arrematados:    resumo.Arrematados,
				NaoArrematados: resumo.NaoArrematados,
				Arrecadado:     resumo.TotalArrecadado,
				TaxaSucesso:    TaxaSucesso(resumo.Arrematados, resumo.TotalLotes),
			}
			d.Lotes = section(l.Lotes)
		case TabPrestacao:
			prestacoes, err := m.ListPrestacoes(r.Context(), l.ID)
			if err != nil {
				writeServiceError(w, err)
				return
			}
			d.Prestacoes = section(prestacoes)
		default:
			writeServiceError(w, fmt.Errorf("%w: unknown tab %q", ErrValidation, tab))
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func updateLeilaoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var p LeilaoPatch
		if err := decodeBody(r, &p); err != nil {
			writeServiceError(w, err)
			return
		}
		l, err := m.UpdateLeilao(r.Context(), actorFrom(r), chi.URLParam(r, "id"), p)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func deleteLeilaoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := m.DeleteLeilao(r.Context(), actorFrom(r), chi.URLParam(r, "id")); err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type vincularRequest struct {
	CarroIDs []string `json:"carroIds"`
}

func vincularHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req vincularRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		lotes, err := m.VincularCarros(r.Context(), actorFrom(r), chi.URLParam(r, "id"), req.CarroIDs)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"lotes": lotes})
	}
}

func removerLoteHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := m.RemoverLote(r.Context(), actorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "loteId"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

type resultadoRequest struct {
	Status        LoteStatus       `json:"status"`
	Arrematante   string           `json:"arrematante"`
	Documento     string           `json:"documento"`
	ValorArremate *decimal.Decimal `json:"valorArremate"`
	Observacao    string           `json:"observacao"`
}

func lancarResultadoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req resultadoRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		res := Resultado{
			Status:      req.Status,
			Arrematante: req.Arrematante,
			Documento:   req.Documento,
			Observacao:  req.Observacao,
		}
		if req.ValorArremate != nil {
			res.ValorArremate = *req.ValorArremate
		}
		l, err := m.LancarResultado(r.Context(), actorFrom(r), chi.URLParam(r, "id"), chi.URLParam(r, "loteId"), res)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func publicarHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var pub Publicacao
		if err := decodeBody(r, &pub); err != nil {
			writeServiceError(w, err)
			return
		}
		l, err := m.PublicarLeilao(r.Context(), actorFrom(r), chi.URLParam(r, "id"), pub)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func finalizarHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		l, err := m.FinalizarLeilao(r.Context(), actorFrom(r), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, l)
	}
}

func listPrestacoesHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := m.ListPrestacoes(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if out == nil {
			out = []PrestacaoContas{}
		}
		writeJSON(w, http.StatusOK, map[string]any{"prestacoes": out})
	}
}

func gerarPrestacaoHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Tipo string `json:"tipo"`
		}
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		tipo, err := ParseTipoPrestacao(req.Tipo)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		p, err := m.GerarPrestacaoContas(r.Context(), actorFrom(r), chi.URLParam(r, "id"), tipo)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, p)
	}
}

// ---------------------------------------------------------------------------
// Read models
// ---------------------------------------------------------------------------

type auditList struct {
	Events        []AuditEvent `json:"events"`
	NextPageToken string       `json:"nextPageToken,omitempty"`
	TotalSize     int          `json:"totalSize"`
}

func listAuditoriaHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		pageSize := 20
		if ps := q.Get("pageSize"); ps != "" {
			if v, err := strconv.Atoi(ps); err == nil && v > 0 {
				pageSize = v
			}
		}
		filter := AuditFilter{
			Search:      q.Get("q"),
			Entidade:    Entidade(q.Get("entidade")),
			UsuarioRole: q.Get("role"),
			EntidadeID:  q.Get("entidadeId"),
		}
		records, next, total, err := m.ListAuditoria(r.Context(), filter, pageSize, q.Get("pageToken"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		if records == nil {
			records = []AuditEvent{}
		}
		writeJSON(w, http.StatusOK, auditList{Events: records, NextPageToken: next, TotalSize: total})
	}
}

func dashboardHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		d, err := m.Dashboard(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, d)
	}
}

func resultadosHandler(m *Manager) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, err := m.Resultados(r.Context())
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// StatusFor maps an error of this package to an HTTP status.
func StatusFor(err error) int {
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		return http.StatusConflict
	case IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrInvalidResult), errors.Is(err, ErrTipoPrestacao):
		return http.StatusBadRequest
	case errors.Is(err, ErrIncompleteResults), errors.Is(err, ErrNoLots),
		errors.Is(err, ErrNotDraft), errors.Is(err, ErrNotPublished), errors.Is(err, ErrNotFinalized),
		errors.Is(err, ErrCarroIndisponivel), errors.Is(err, ErrCarroVinculado), errors.Is(err, ErrPlacaDuplicada):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// writeServiceError writes err as {"error", "code"} with its mapped status.
func writeServiceError(w http.ResponseWriter, err error) {
	writeJSON(w, StatusFor(err), map[string]string{
		"error": err.Error(),
		"code":  ErrorCode(err),
	})
}

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
