package audit

import (
	"testing"

	"github.com/sigel-gov/sigel/pkg/leilao"
)

func TestResolveTarget(t *testing.T) {
	tests := []struct {
		method       string
		path         string
		wantEntidade leilao.Entidade
		wantID       string
		wantSessao   string
		wantAcao     string
	}{
		{"POST", "/api/v1/carros", leilao.EntidadeCarro, "", "", "criar"},
		{"PUT", "/api/v1/carros/c1", leilao.EntidadeCarro, "c1", "", "atualizar"},
		{"DELETE", "/api/v1/leiloeiros/l9", leilao.EntidadeLeilao, "l9", "", "excluir"},
		{"POST", "/api/v1/leiloes/a1/publicar", leilao.EntidadeLeilao, "a1", "", "publicar edital"},
		{"POST", "/api/v1/leiloes/a1/finalizar", leilao.EntidadeLeilao, "a1", "", "finalizar"},
		{"POST", "/api/v1/leiloes/a1/lotes", leilao.EntidadeLeilao, "a1", "", "vincular carros"},
		{"DELETE", "/api/v1/leiloes/a1/lotes/x7", leilao.EntidadeLote, "x7", "", "remover lote"},
		{"PUT", "/api/v1/leiloes/a1/lotes/x7/resultado", leilao.EntidadeLote, "x7", "", "lançar resultado"},
		{"POST", "/api/v1/leiloes/a1/prestacoes", leilao.EntidadeLeilao, "a1", "", "gerar prestação de contas"},
		{"POST", "/api/v1/checklist/sessoes", leilao.EntidadeCarro, "", "", "criar"},
		{"PUT", "/api/v1/checklist/sessoes/s1/itens/1/4", leilao.EntidadeCarro, "", "s1", "classificar item"},
		{"PUT", "/api/v1/checklist/sessoes/s1/fotos/frente", leilao.EntidadeCarro, "", "s1", "capturar foto"},
		{"DELETE", "/api/v1/checklist/sessoes/s1/fotos/frente", leilao.EntidadeCarro, "", "s1", "remover foto"},
		{"POST", "/api/v1/checklist/sessoes/s1/navegar", leilao.EntidadeCarro, "", "s1", "navegar"},
		{"POST", "/api/v1/other", "", "", "", "criar"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			got := resolveTarget(tt.method, tt.path)
			if got.entidade != tt.wantEntidade {
				t.Errorf("entidade = %q, want %q", got.entidade, tt.wantEntidade)
			}
			if got.entidadeID != tt.wantID {
				t.Errorf("entidadeID = %q, want %q", got.entidadeID, tt.wantID)
			}
			if got.sessaoID != tt.wantSessao {
				t.Errorf("sessaoID = %q, want %q", got.sessaoID, tt.wantSessao)
			}
			if got.acao != tt.wantAcao {
				t.Errorf("acao = %q, want %q", got.acao, tt.wantAcao)
			}
		})
	}
}

func TestIsManagementRequest(t *testing.T) {
	tests := []struct {
		method string
		path   string
		want   bool
	}{
		{"POST", "/api/v1/leiloes", true},
		{"PUT", "/api/v1/carros/c1", true},
		{"PATCH", "/api/v1/carros/c1", true},
		{"DELETE", "/api/v1/carros/c1", true},
		{"GET", "/api/v1/leiloes", false},
		{"HEAD", "/api/v1/leiloes", false},
		{"POST", "/healthz", false},
		{"GET", "/readyz", false},
	}

	for _, tt := range tests {
		if got := isManagementRequest(tt.method, tt.path); got != tt.want {
			t.Errorf("isManagementRequest(%s, %s) = %v, want %v", tt.method, tt.path, got, tt.want)
		}
	}
}

func TestOutcomeFromStatus(t *testing.T) {
	tests := []struct {
		code int
		want string
	}{
		{200, outcomeSuccess},
		{201, outcomeSuccess},
		{204, outcomeSuccess},
		{400, outcomeFailure},
		{403, outcomeDenied},
		{409, outcomeFailure},
		{500, outcomeFailure},
	}

	for _, tt := range tests {
		if got := outcomeFromStatus(tt.code); got != tt.want {
			t.Errorf("outcomeFromStatus(%d) = %q, want %q", tt.code, got, tt.want)
		}
	}
}
