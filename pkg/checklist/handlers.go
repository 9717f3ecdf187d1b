package checklist

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

func decodeBody(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body: %v", ErrValidation, err)
	}
	return nil
}

// SessionView is a session plus everything a client derives from it.
type SessionView struct {
	*Session
	ProgressoTotal    int             `json:"progressoTotal"`
	PodeAvancar       bool            `json:"podeAvancar"`
	PodeVoltar        bool            `json:"podeVoltar"`
	EtapaCompleta     bool            `json:"etapaCompleta"`
	ChecklistCompleto bool            `json:"checklistCompleto"`
	Resumo            Resumo          `json:"resumo"`
	Conservacao       decimal.Decimal `json:"conservacao"`
	ProximaFotoVazia  string          `json:"proximaFotoVazia,omitempty"`
	AutoSave          AutoSaveStatus  `json:"autoSave"`
}

func (e *Engine) view(r *http.Request, s *Session) SessionView {
	v := SessionView{
		Session:           s,
		ProgressoTotal:    s.ProgressoTotal(),
		PodeAvancar:       s.PodeAvancar(),
		PodeVoltar:        s.PodeVoltar(),
		EtapaCompleta:     s.EtapaCompleta(s.EtapaAtual),
		ChecklistCompleto: s.ChecklistCompleto(),
		Resumo:            s.Resumo(),
		Conservacao:       s.Conservacao(),
		ProximaFotoVazia:  s.ProximaFotoVazia(),
	}
	if st, err := e.AutoSaveStatus(r.Context(), s.ID); err == nil {
		v.AutoSave = st
	}
	return v
}

type templateList struct {
	Templates []*Template `json:"templates"`
	Total     int         `json:"total"`
}

func listTemplatesHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ts := e.Registry().List()
		writeJSON(w, http.StatusOK, templateList{Templates: ts, Total: len(ts)})
	}
}

func getTemplateHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		t, err := e.Registry().Get(chi.URLParam(r, "nome"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, t)
	}
}

func listClassificacoesHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"classificacoes": e.Taxonomia()})
	}
}

type sessionList struct {
	Sessoes []SessionRecord `json:"sessoes"`
	Total   int             `json:"total"`
}

func listSessoesHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		out, err := e.List(r.Context(), SessionFilter{
			Status:    StatusSessao(q.Get("status")),
			VeiculoID: q.Get("veiculoId"),
		})
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, sessionList{Sessoes: out, Total: len(out)})
	}
}

func createSessaoHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in NovaSessao
		if err := decodeBody(r, &in); err != nil {
			writeServiceError(w, err)
			return
		}
		s, err := e.Create(r.Context(), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusCreated, e.view(r, s))
	}
}

func getSessaoHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := e.Get(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.view(r, s))
	}
}

type itemRequest struct {
	Classificacao string  `json:"classificacao"`
	Observacao    *string `json:"observacao"`
}

func atualizarItemHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req itemRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		s, err := e.AtualizarItem(r.Context(),
			chi.URLParam(r, "id"), chi.URLParam(r, "etapaId"), chi.URLParam(r, "itemId"),
			req.Classificacao, req.Observacao)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.view(r, s))
	}
}

type navegarRequest struct {
	Direcao string `json:"direcao"`
	Etapa   *int   `json:"etapa"`
}

func navegarHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req navegarRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		s, err := e.Navegar(r.Context(), chi.URLParam(r, "id"), strings.ToLower(req.Direcao), req.Etapa)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.view(r, s))
	}
}

type fotoRequest struct {
	Referencia string `json:"referencia"`
}

type fotoResponse struct {
	SessionView
	ProximaFoto string `json:"proximaFoto"`
}

func capturarFotoHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req fotoRequest
		if err := decodeBody(r, &req); err != nil {
			writeServiceError(w, err)
			return
		}
		s, proxima, err := e.CapturarFoto(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "slot"), req.Referencia)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, fotoResponse{SessionView: e.view(r, s), ProximaFoto: proxima})
	}
}

func removerFotoHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s, err := e.RemoverFoto(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "slot"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.view(r, s))
	}
}

func avaliacaoHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fipe, err := decimal.NewFromString(r.URL.Query().Get("fipe"))
		if err != nil {
			writeServiceError(w, fmt.Errorf("%w: fipe must be a number", ErrValidation))
			return
		}
		av, err := e.Avaliar(r.Context(), chi.URLParam(r, "id"), fipe)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, av)
	}
}

func finalizarHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var in Finalizacao
		if err := decodeBody(r, &in); err != nil {
			writeServiceError(w, err)
			return
		}
		in.Classe = ClasseAvaliacao(strings.ToUpper(string(in.Classe)))
		s, err := e.Finalizar(r.Context(), chi.URLParam(r, "id"), in)
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, e.view(r, s))
	}
}

func autoSaveHandler(e *Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		st, err := e.AutoSaveStatus(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			writeServiceError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, st)
	}
}

// StatusFor maps a checklist error to its HTTP status.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrEtapaNotFound), errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrFotoSlotNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrValidation), errors.Is(err, ErrClassificacaoInvalida), errors.Is(err, ErrEtapaInvalida):
		return http.StatusBadRequest
	case errors.Is(err, ErrEtapaIncompleta), errors.Is(err, ErrPrimeiraEtapa), errors.Is(err, ErrUltimaEtapa),
		errors.Is(err, ErrChecklistIncompleto), errors.Is(err, ErrSessaoConcluida):
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
