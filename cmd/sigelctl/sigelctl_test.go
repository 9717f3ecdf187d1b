package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sigel-gov/sigel/pkg/config"
	"github.com/sigel-gov/sigel/pkg/database"
	"github.com/sigel-gov/sigel/pkg/server"
)

// run executes sigelctl with args against serverURL and returns its output.
func run(t *testing.T, url string, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append([]string{"--server", url}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"short", 10, "short"},
		{"exactly10!", 10, "exactly10!"},
		{"this is too long", 10, "this is..."},
		{"Leilão Pátio", 8, "Leilã..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestHealthHTTP(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/healthz":
			json.NewEncoder(w).Encode(map[string]string{"status": "alive", "uptime": "5m0s"})
		case "/readyz":
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "health")
	if err != nil {
		t.Fatalf("health failed: %v", err)
	}
	for _, want := range []string{"CHECK", "Liveness", "alive", "5m0s", "unknown"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, srv.URL, "health", "-o", "json")
	if err != nil {
		t.Fatalf("health -o json failed: %v", err)
	}
	var combined map[string]map[string]any
	if err := json.Unmarshal([]byte(out), &combined); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	if combined["health"]["status"] != "alive" {
		t.Errorf("health status = %v, want alive", combined["health"]["status"])
	}
}

func TestClientSendsRoleHeader(t *testing.T) {
	var gotRole, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotRole = r.Header.Get("X-User-Role")
		gotPath = r.URL.RequestURI()
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(carroList{Carros: []carro{{ID: "c1", Placa: "ABC1D23", Status: "APTO"}}, Total: 1})
	}))
	defer srv.Close()

	out, err := run(t, srv.URL, "--role", "auctioneer", "carros", "list", "--status", "APTO")
	if err != nil {
		t.Fatalf("carros list failed: %v", err)
	}
	if gotRole != "auctioneer" {
		t.Errorf("X-User-Role = %q, want auctioneer", gotRole)
	}
	if gotPath != "/api/v1/carros?status=APTO" {
		t.Errorf("path = %q", gotPath)
	}
	if !strings.Contains(out, "ABC1D23") {
		t.Errorf("table missing plate:\n%s", out)
	}
}

func TestClientErrorHandling(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/finalizar") {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusConflict)
			json.NewEncoder(w).Encode(apiError{Error: "lots without result", Code: "RESULTADOS_PENDENTES"})
			return
		}
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("internal error"))
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "leiloes", "finalizar", "l1")
	if err == nil {
		t.Fatal("expected error for 409 response")
	}
	if !strings.Contains(err.Error(), "409") || !strings.Contains(err.Error(), "RESULTADOS_PENDENTES") {
		t.Errorf("error should carry status and code, got: %v", err)
	}

	_, err = run(t, srv.URL, "dashboard")
	if err == nil || !strings.Contains(err.Error(), "500") {
		t.Errorf("error should contain status code, got: %v", err)
	}
}

func TestResultadoSendsBody(t *testing.T) {
	var body map[string]any
	var method, path string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		method, path = r.Method, r.URL.Path
		json.NewDecoder(r.Body).Decode(&body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(leilao{ID: "l1", Codigo: "LEI-2026-001", Status: "PUBLICADO"})
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "leiloes", "resultado", "l1", "lt1",
		"--status", "ARREMATADO", "--arrematante", "Maria", "--valor", "8200.50")
	if err != nil {
		t.Fatalf("resultado failed: %v", err)
	}
	if method != http.MethodPut || path != "/api/v1/leiloes/l1/lotes/lt1/resultado" {
		t.Errorf("request = %s %s", method, path)
	}
	if body["status"] != "ARREMATADO" || body["valorArremate"] != "8200.50" {
		t.Errorf("body = %v", body)
	}
	if _, ok := body["documento"]; ok {
		t.Error("empty fields should be omitted")
	}
}

func TestUnsupportedOutputFormat(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(leiloeiroList{})
	}))
	defer srv.Close()

	_, err := run(t, srv.URL, "leiloeiros", "list", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "unsupported output format") {
		t.Errorf("expected output format error, got %v", err)
	}
}

func TestCreateRejectsBadDate(t *testing.T) {
	_, err := run(t, "http://127.0.0.1:0", "leiloes", "create",
		"--titulo", "x", "--data", "01/12/2026", "--leiloeiro", "a")
	if err == nil || !strings.Contains(err.Error(), "invalid --data") {
		t.Errorf("expected date error, got %v", err)
	}
}

// TestAuctionFlowAgainstServer drives a whole auction through a real server.
func TestAuctionFlowAgainstServer(t *testing.T) {
	cfg := config.Default()
	cfg.Database = database.Config{Type: database.TypeSQLite, DSN: ":memory:"}
	db, err := database.Open(&cfg.Database)
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	if err := database.Migrate(context.Background(), db, nil); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	s, err := server.New(cfg, db, nil)
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	ts := httptest.NewServer(s.Router())
	defer func() {
		ts.Close()
		_ = s.Stop(context.Background())
		_ = database.Close(db)
	}()

	mustJSON := func(v any, args ...string) {
		t.Helper()
		out, err := run(t, ts.URL, append(args, "-o", "json")...)
		if err != nil {
			t.Fatalf("sigelctl %v: %v", args, err)
		}
		if err := json.Unmarshal([]byte(out), v); err != nil {
			t.Fatalf("sigelctl %v: bad JSON: %v\n%s", args, err, out)
		}
	}

	var lr leiloeiro
	mustJSON(&lr, "leiloeiros", "add", "--nome", "Ana Souza")
	var c carro
	mustJSON(&c, "carros", "add", "--placa", "CLI1A23", "--marca", "Fiat", "--modelo", "Uno", "--ano", "2012", "--valor-inicial", "7000")
	if c.Status != "APTO" {
		t.Fatalf("new carro status = %q, want APTO", c.Status)
	}

	var l leilao
	mustJSON(&l, "leiloes", "create", "--titulo", "Leilão CLI", "--data", "2026-12-10T10:00:00Z", "--leiloeiro", lr.ID)
	var lotes loteList
	mustJSON(&lotes, "leiloes", "vincular", l.ID, c.ID)
	if len(lotes.Lotes) != 1 {
		t.Fatalf("got %d lots, want 1", len(lotes.Lotes))
	}
	mustJSON(&l, "leiloes", "publicar", l.ID, "--local", "Pátio Central")

	if _, err := run(t, ts.URL, "--role", "auctioneer", "leiloes", "finalizar", l.ID); err == nil ||
		!strings.Contains(err.Error(), "403") {
		t.Errorf("auctioneer finalize should be forbidden, got %v", err)
	}

	mustJSON(&l, "--role", "auctioneer", "leiloes", "resultado", l.ID, lotes.Lotes[0].ID,
		"--status", "ARREMATADO", "--arrematante", "Maria", "--valor", "8200")
	if !l.ResultadosCompletos {
		t.Error("every lot has a result")
	}
	mustJSON(&l, "leiloes", "finalizar", l.ID)
	if l.Status != "FINALIZADO" {
		t.Errorf("status = %q, want FINALIZADO", l.Status)
	}

	var p prestacao
	mustJSON(&p, "leiloes", "prestacao", l.ID, "--tipo", "planilha")
	if p.Versao != 1 || p.Tipo != "planilha" {
		t.Errorf("prestacao = %+v", p)
	}

	var audit auditList
	mustJSON(&audit, "auditoria", "--usuario-role", "auctioneer")
	if audit.TotalSize < 2 {
		t.Errorf("expected the denied finalize and the result in the trail, got %d events", audit.TotalSize)
	}

	out, err := run(t, ts.URL, "dashboard")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if !strings.Contains(out, "Leilões FINALIZADO") || !strings.Contains(out, "8200") {
		t.Errorf("dashboard table:\n%s", out)
	}
}
