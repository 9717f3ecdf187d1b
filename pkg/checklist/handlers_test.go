package checklist

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sigel-gov/sigel/pkg/authz"
	"github.com/sigel-gov/sigel/pkg/cache"
)

type apiHarness struct {
	engine  *Engine
	handler http.Handler
}

func newAPIHarness(t *testing.T) *apiHarness {
	t.Helper()
	e := newTestEngine(t)
	store := cache.NewLRUCache(100, time.Minute)
	return &apiHarness{
		engine:  e,
		handler: authz.IdentityMiddleware(nil)(NewRouter(e, store)),
	}
}

func (h *apiHarness) do(t *testing.T, role authz.Role, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-Role", string(role))
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type viewResponse struct {
	Session
	ProgressoTotal    int            `json:"progressoTotal"`
	PodeAvancar       bool           `json:"podeAvancar"`
	PodeVoltar        bool           `json:"podeVoltar"`
	ChecklistCompleto bool           `json:"checklistCompleto"`
	Resumo            Resumo         `json:"resumo"`
	ProximaFotoVazia  string         `json:"proximaFotoVazia"`
	AutoSave          AutoSaveStatus `json:"autoSave"`
	ProximaFoto       string         `json:"proximaFoto"`
}

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func TestAPI_InspectionFlow(t *testing.T) {
	h := newAPIHarness(t)
	admin := authz.RoleAdmin

	rec := h.do(t, admin, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	tl := decode[templateList](t, rec)
	assert.Equal(t, 2, tl.Total)

	rec = h.do(t, admin, http.MethodPost, "/sessoes", map[string]any{
		"template": "simples", "veiculoId": "carro-1", "tipo": "pre-leilao",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	v := decode[viewResponse](t, rec)
	assert.Equal(t, TipoPreLeilao, v.Tipo)
	assert.Len(t, v.Etapas, 3)
	assert.Zero(t, v.ProgressoTotal)
	assert.False(t, v.PodeAvancar)
	assert.Equal(t, "frente", v.ProximaFotoVazia)
	assert.Equal(t, SaveUnsaved, v.AutoSave.Status)
	base := "/sessoes/" + v.ID

	rec = h.do(t, admin, http.MethodPut, base+"/itens/externo/pintura", map[string]any{
		"classificacao": "R", "observacao": "descascada no capô",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[viewResponse](t, rec)
	assert.Equal(t, 25, v.Etapas[0].Progresso)
	assert.Equal(t, "descascada no capô", v.Etapas[0].Itens[0].Observacao)

	rec = h.do(t, admin, http.MethodPost, base+"/navegar", map[string]any{"direcao": "proxima"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "ETAPA_INCOMPLETA", decode[errorResponse](t, rec).Code)

	for _, et := range v.Etapas {
		for _, it := range et.Itens {
			c := "B"
			if et.ID == "externo" {
				c = "R"
			}
			rec = h.do(t, admin, http.MethodPut, fmt.Sprintf("%s/itens/%s/%s", base, et.ID, it.ID),
				map[string]any{"classificacao": c})
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		}
	}
	v = decode[viewResponse](t, rec)
	assert.Equal(t, 100, v.ProgressoTotal)
	assert.True(t, v.ChecklistCompleto)
	assert.Equal(t, 4, v.Resumo.Regular)
	assert.Equal(t, 5, v.Resumo.Bom)

	rec = h.do(t, admin, http.MethodPost, base+"/navegar", map[string]any{"direcao": "proxima"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[viewResponse](t, rec).EtapaAtual)

	rec = h.do(t, admin, http.MethodPost, base+"/navegar", map[string]any{"etapa": 0})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 0, decode[viewResponse](t, rec).EtapaAtual)

	rec = h.do(t, admin, http.MethodPut, base+"/fotos/frente", map[string]any{"referencia": "blob:frente"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "traseira", decode[viewResponse](t, rec).ProximaFoto)

	rec = h.do(t, admin, http.MethodGet, base+"/avaliacao?fipe=18000", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	av := decode[Avaliacao](t, rec)
	assert.True(t, av.ValorSugerido.Equal(decimal.NewFromInt(14400)), av.ValorSugerido.String())
	assert.Equal(t, Recuperavel, av.Classe)

	rec = h.do(t, admin, http.MethodPost, base+"/finalizar", map[string]any{
		"valorFipe": "18000", "valorAvaliado": "15000", "classe": "ocioso",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	v = decode[viewResponse](t, rec)
	assert.Equal(t, StatusConcluida, v.Status)
	require.NotNil(t, v.Avaliacao)
	assert.True(t, v.Avaliacao.ValorAvaliado.Equal(decimal.NewFromInt(15000)))
	assert.True(t, v.Avaliacao.ValorSugerido.Equal(decimal.NewFromInt(14400)))
	assert.Equal(t, Ocioso, v.Avaliacao.ClasseFinal)

	rec = h.do(t, admin, http.MethodPut, base+"/itens/externo/pintura", map[string]any{"classificacao": "B"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "SESSAO_CONCLUIDA", decode[errorResponse](t, rec).Code)

	rec = h.do(t, admin, http.MethodGet, "/sessoes?status=concluida", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 1, decode[sessionList](t, rec).Total)
}

func TestAPI_AdminOnly(t *testing.T) {
	h := newAPIHarness(t)
	for _, tc := range []struct{ method, target string }{
		{http.MethodGet, "/templates"},
		{http.MethodGet, "/sessoes"},
		{http.MethodPost, "/sessoes"},
	} {
		rec := h.do(t, authz.RoleAuctioneer, tc.method, tc.target, map[string]any{})
		assert.Equal(t, http.StatusForbidden, rec.Code, "%s %s", tc.method, tc.target)
	}
}

func TestAPI_TemplatesAreCached(t *testing.T) {
	h := newAPIHarness(t)

	rec := h.do(t, authz.RoleAdmin, http.MethodGet, "/templates/simples", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

	rec = h.do(t, authz.RoleAdmin, http.MethodGet, "/templates/simples", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
	assert.Equal(t, TemplateSimples, decode[Template](t, rec).Nome)

	rec = h.do(t, authz.RoleAdmin, http.MethodGet, "/classificacoes", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode[struct {
		Classificacoes []Classe `json:"classificacoes"`
	}](t, rec)
	require.Len(t, body.Classificacoes, 4)
	assert.Equal(t, "0.15", body.Classificacoes[2].Penalidade.String())
}

func TestAPI_Errors(t *testing.T) {
	h := newAPIHarness(t)
	s, err := h.engine.Create(t.Context(), NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)
	base := "/sessoes/" + s.ID

	tests := []struct {
		name       string
		method     string
		target     string
		body       any
		wantStatus int
		wantCode   string
	}{
		{"unknown session", http.MethodGet, "/sessoes/nope", nil, http.StatusNotFound, "NOT_FOUND"},
		{"unknown template", http.MethodPost, "/sessoes", map[string]any{"template": "caminhao"}, http.StatusNotFound, "NOT_FOUND"},
		{"unknown item", http.MethodPut, base + "/itens/externo/teto", map[string]any{"classificacao": "B"}, http.StatusNotFound, "NOT_FOUND"},
		{"invalid classification", http.MethodPut, base + "/itens/externo/capo", map[string]any{"classificacao": "Z"}, http.StatusBadRequest, "CLASSIFICACAO_INVALIDA"},
		{"first stage", http.MethodPost, base + "/navegar", map[string]any{"direcao": "anterior"}, http.StatusConflict, "PRIMEIRA_ETAPA"},
		{"stage out of range", http.MethodPost, base + "/navegar", map[string]any{"etapa": 9}, http.StatusBadRequest, "ETAPA_INVALIDA"},
		{"unknown photo slot", http.MethodPut, base + "/fotos/teto", map[string]any{"referencia": "blob:1"}, http.StatusNotFound, "NOT_FOUND"},
		{"bad fipe", http.MethodGet, base + "/avaliacao?fipe=abc", nil, http.StatusBadRequest, "VALIDATION"},
		{"incomplete checklist", http.MethodPost, base + "/finalizar", map[string]any{"valorFipe": "18000"}, http.StatusConflict, "CHECKLIST_INCOMPLETO"},
		{"malformed body", http.MethodPost, "/sessoes", "not an object", http.StatusBadRequest, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, authz.RoleAdmin, tt.method, tt.target, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())
			assert.Equal(t, tt.wantCode, decode[errorResponse](t, rec).Code)
		})
	}
}

func TestAPI_AutoSaveStatus(t *testing.T) {
	h := newAPIHarness(t)
	s, err := h.engine.Create(t.Context(), NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)

	rec := h.do(t, authz.RoleAdmin, http.MethodGet, "/sessoes/"+s.ID+"/autosave", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, SaveUnsaved, decode[AutoSaveStatus](t, rec).Status)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", ErrItemNotFound), http.StatusNotFound},
		{ErrClassificacaoInvalida, http.StatusBadRequest},
		{ErrEtapaInvalida, http.StatusBadRequest},
		{ErrUltimaEtapa, http.StatusConflict},
		{ErrSessaoConcluida, http.StatusConflict},
		{errors.New("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, StatusFor(tt.err), tt.err.Error())
	}
}
