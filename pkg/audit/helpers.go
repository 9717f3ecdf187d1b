package audit

import (
	"net/http"
	"strings"

	"github.com/sigel-gov/sigel/pkg/leilao"
)

// target is what a request path acts on.
type target struct {
	entidade   leilao.Entidade
	entidadeID string
	sessaoID   string
	acao       string
}

// resolveTarget maps a SIGEL API path to the audited entity. Leiloeiros
// are audited under the auction entity. Checklist sessions are audited under
// the vehicle entity; the path only names the session, so the vehicle id is
// left empty and the session id is reported separately.
func resolveTarget(method, path string) target {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	var t target

	for i := 0; i < len(parts); i++ {
		next := ""
		if i+1 < len(parts) {
			next = parts[i+1]
		}
		switch parts[i] {
		case "carros":
			t.entidade, t.entidadeID = leilao.EntidadeCarro, next
		case "leiloes", "leiloeiros":
			t.entidade, t.entidadeID = leilao.EntidadeLeilao, next
		case "lotes":
			if next != "" {
				t.entidade, t.entidadeID = leilao.EntidadeLote, next
			}
		case "sessoes":
			t.entidade, t.entidadeID, t.sessaoID = leilao.EntidadeCarro, "", next
		}
	}

	t.acao = actionVerb(method, parts)
	return t
}

// actionVerb names the operation after the innermost action segment,
// falling back to the HTTP method for plain collection and item routes.
func actionVerb(method string, parts []string) string {
scan:
	for i := len(parts) - 1; i >= 0; i-- {
		switch parts[i] {
		case "publicar":
			return "publicar edital"
		case "finalizar":
			return "finalizar"
		case "resultado":
			return "lançar resultado"
		case "prestacoes":
			return "gerar prestação de contas"
		case "navegar":
			return "navegar"
		case "itens":
			return "classificar item"
		case "fotos":
			if method == http.MethodDelete {
				return "remover foto"
			}
			return "capturar foto"
		case "lotes":
			if method == http.MethodDelete {
				return "remover lote"
			}
			return "vincular carros"
		case "carros", "leiloeiros", "leiloes", "sessoes":
			break scan
		}
	}

	switch method {
	case http.MethodPost:
		return "criar"
	case http.MethodPut, http.MethodPatch:
		return "atualizar"
	case http.MethodDelete:
		return "excluir"
	default:
		return strings.ToLower(method)
	}
}

// isManagementRequest reports whether a request changes state. Reads are
// never audited, and neither are health probes.
func isManagementRequest(method, path string) bool {
	if isHealthEndpoint(path) {
		return false
	}
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}

func isHealthEndpoint(path string) bool {
	switch path {
	case "/livez", "/readyz", "/healthz":
		return true
	}
	return false
}
