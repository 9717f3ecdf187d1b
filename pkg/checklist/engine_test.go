package checklist

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEngine(t *testing.T, opts ...Option) *Engine {
	t.Helper()
	cfg := DefaultConfig()
	cfg.AutoSave = testAutoSaveConfig(time.Hour)
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	e, err := NewEngine(cfg, opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close(context.Background()) })
	return e
}

// completar classifies every item of a session through the engine.
func completar(t *testing.T, e *Engine, s *Session, c Classificacao) *Session {
	t.Helper()
	var err error
	for _, et := range s.Etapas {
		for _, it := range et.Itens {
			s, err = e.AtualizarItem(context.Background(), s.ID, et.ID, it.ID, string(c), nil)
			require.NoError(t, err)
		}
	}
	return s
}

func TestEngine_Create(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	s, err := e.Create(ctx, NovaSessao{VeiculoID: "carro-9"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)
	assert.Equal(t, TemplateVistoria, s.Template)
	assert.Len(t, s.Etapas, 8)
	assert.Equal(t, StatusRascunho, s.Status)
	assert.Equal(t, TipoMensal, s.Tipo)
	assert.True(t, s.CriadaEm.Equal(fixedNow))

	_, err = e.Create(ctx, NovaSessao{Template: "caminhao"})
	require.ErrorIs(t, err, ErrTemplateNotFound)

	_, err = e.Create(ctx, NovaSessao{Template: TemplateSimples, Tipo: "anual"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = e.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrSessionNotFound)
}

func TestEngine_UpdateIsAllOrNothing(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	s, err := e.Create(ctx, NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)

	_, err = e.Update(ctx, s.ID, func(s *Session) error {
		if err := s.AtualizarItem("externo", "pintura", "B", nil); err != nil {
			return err
		}
		return errors.New("abort")
	})
	require.Error(t, err)

	got, err := e.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Etapas[0].Itens[0].Classificado())

	_, err = e.Navegar(ctx, s.ID, DirecaoProxima, nil)
	require.ErrorIs(t, err, ErrEtapaIncompleta)
	_, err = e.Navegar(ctx, s.ID, "lado", nil)
	require.ErrorIs(t, err, ErrValidation)
}

func TestEngine_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	s, err := e.Create(ctx, NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)

	s.Etapas[0].Itens[0].Classificacao = Faltando
	s.EtapaAtual = 2

	got, err := e.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Etapas[0].Itens[0].Classificado())
	assert.Equal(t, 0, got.EtapaAtual)
}

func TestEngine_NavigationAndPhotos(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)
	s, err := e.Create(ctx, NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)

	s = completar(t, e, s, Bom)
	s, err = e.Navegar(ctx, s.ID, DirecaoProxima, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.EtapaAtual)

	etapa := 2
	s, err = e.Navegar(ctx, s.ID, "", &etapa)
	require.NoError(t, err)
	assert.Equal(t, 2, s.EtapaAtual)

	s, err = e.Navegar(ctx, s.ID, DirecaoAnterior, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, s.EtapaAtual)

	s, next, err := e.CapturarFoto(ctx, s.ID, "frente", "blob:1")
	require.NoError(t, err)
	assert.Equal(t, "traseira", next)
	require.NotNil(t, s.Fotos[0].CapturadaEm)
	assert.True(t, s.Fotos[0].CapturadaEm.Equal(fixedNow))

	s, err = e.RemoverFoto(ctx, s.ID, "frente")
	require.NoError(t, err)
	assert.Empty(t, s.Fotos[0].Referencia)
}

func TestEngine_AvaliarAndFinalizar(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestDB(t))
	e := newTestEngine(t, WithStore(store))

	s, err := e.Create(ctx, NovaSessao{Template: TemplateSimples, VeiculoID: "carro-1"})
	require.NoError(t, err)
	s = completar(t, e, s, Bom)
	for _, id := range []string{"pintura", "capo", "parachoque", "farois"} {
		s, err = e.AtualizarItem(ctx, s.ID, "externo", id, "R", nil)
		require.NoError(t, err)
	}

	av, err := e.Avaliar(ctx, s.ID, decimal.NewFromInt(18000))
	require.NoError(t, err)
	assert.True(t, av.ValorSugerido.Equal(decimal.NewFromInt(14400)), av.ValorSugerido.String())
	assert.Equal(t, Recuperavel, av.Classe)

	// Auto-save is still in its quiet period.
	loaded, _, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Nil(t, loaded)

	done, err := e.Finalizar(ctx, s.ID, Finalizacao{ValorFipe: decimal.NewFromInt(18000)})
	require.NoError(t, err)
	assert.Equal(t, StatusConcluida, done.Status)
	assert.True(t, done.Avaliacao.ValorAvaliado.Equal(decimal.NewFromInt(14400)))

	loaded, rev, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded, "concluded sessions are saved right away")
	assert.Equal(t, StatusConcluida, loaded.Status)
	assert.Equal(t, int64(1+9+4+1), rev)

	st, err := e.AutoSaveStatus(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, SaveSaved, st.Status)
	assert.Equal(t, rev, st.Revisao)

	_, err = e.Finalizar(ctx, s.ID, Finalizacao{ValorFipe: decimal.NewFromInt(18000)})
	require.ErrorIs(t, err, ErrSessaoConcluida)
}

func TestEngine_ReloadsFromStore(t *testing.T) {
	ctx := context.Background()
	store := NewSessionStore(newTestDB(t))

	cfg := DefaultConfig()
	cfg.AutoSave = testAutoSaveConfig(10 * time.Millisecond)
	first, err := NewEngine(cfg, WithStore(store))
	require.NoError(t, err)

	s, err := first.Create(ctx, NovaSessao{Template: TemplateSimples})
	require.NoError(t, err)
	_, err = first.AtualizarItem(ctx, s.ID, "externo", "pintura", "I", nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, rev, err := store.Load(ctx, s.ID)
		return err == nil && rev == 2
	}, 2*time.Second, 5*time.Millisecond)
	require.NoError(t, first.Close(ctx))

	second := newTestEngine(t, WithStore(store))
	got, err := second.Get(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, Imprestavel, got.Etapas[0].Itens[0].Classificacao)
	assert.Equal(t, 25, got.Etapas[0].Progresso)

	got, err = second.AtualizarItem(ctx, s.ID, "externo", "capo", "b", nil)
	require.NoError(t, err)
	assert.Equal(t, Bom, got.Etapas[0].Itens[1].Classificacao)

	require.NoError(t, second.Close(ctx))
	_, rev, err := store.Load(ctx, s.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), rev, "Close flushes pending changes")
}

func TestEngine_WithoutSaver(t *testing.T) {
	ctx := context.Background()
	e := newTestEngine(t)

	a, err := e.Create(ctx, NovaSessao{Template: TemplateSimples, VeiculoID: "carro-1"})
	require.NoError(t, err)
	_, err = e.Create(ctx, NovaSessao{Template: TemplateSimples, VeiculoID: "carro-2"})
	require.NoError(t, err)

	st, err := e.AutoSaveStatus(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, SaveUnsaved, st.Status)

	all, err := e.List(ctx, SessionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	mine, err := e.List(ctx, SessionFilter{VeiculoID: "carro-1"})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, a.ID, mine[0].ID)

	done, err := e.List(ctx, SessionFilter{Status: StatusConcluida})
	require.NoError(t, err)
	assert.Empty(t, done)
}

func TestEngine_LoadsTemplatesDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "moto.yaml"), []byte(motoYAML), 0o644))

	cfg := DefaultConfig()
	cfg.TemplatesDir = dir
	e, err := NewEngine(cfg)
	require.NoError(t, err)

	s, err := e.Create(context.Background(), NovaSessao{Template: "moto"})
	require.NoError(t, err)
	assert.Len(t, s.Etapas, 2)

	cfg.TemplatesDir = filepath.Join(dir, "moto.yaml")
	_, err = NewEngine(cfg)
	require.Error(t, err, "a file is not a templates directory")
}
