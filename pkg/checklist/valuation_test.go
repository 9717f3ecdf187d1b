package checklist

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func repeat(c Classificacao, n int) []Classificacao {
	out := make([]Classificacao, n)
	for i := range out {
		out[i] = c
	}
	return out
}

func TestAvaliar(t *testing.T) {
	tests := []struct {
		name          string
		fipe          int64
		cls           []Classificacao
		wantPenalty   string
		wantSuggested int64
		wantClasse    ClasseAvaliacao
	}{
		{"all good", 18000, repeat(Bom, 53), "0", 18000, Ocioso},
		{"three regular", 18000, repeat(Regular, 3), "0.15", 15300, Ocioso},
		{"four regular hits the 0.2 boundary", 18000, repeat(Regular, 4), "0.2", 14400, Recuperavel},
		{"two missing", 18000, repeat(Faltando, 2), "0.2", 14400, Recuperavel},
		{"four unusable hits the 0.6 boundary", 18000, repeat(Imprestavel, 4), "0.6", 7200, Antieconomico},
		{"six unusable hits the cap", 18000, repeat(Imprestavel, 6), "0.9", 1800, Irrecuperavel},
		{"penalty above the cap", 18000, repeat(Imprestavel, 7), "1.05", 1800, Irrecuperavel},
		{"mixed", 20000, []Classificacao{Regular, Imprestavel, Faltando, Bom}, "0.3", 14000, Recuperavel},
		{"suggestion rounds to whole reais", 10001, []Classificacao{Regular}, "0.05", 9501, Ocioso},
		{"unclassified items are ignored", 18000, []Classificacao{"", Regular}, "0.05", 17100, Ocioso},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			av, err := Avaliar(decimal.NewFromInt(tt.fipe), tt.cls, DefaultTaxonomia)
			require.NoError(t, err)
			assert.Equal(t, tt.wantPenalty, av.Penalidade.String())
			assert.True(t, av.ValorSugerido.Equal(decimal.NewFromInt(tt.wantSuggested)),
				"suggested %s, want %d", av.ValorSugerido, tt.wantSuggested)
			assert.Equal(t, tt.wantClasse, av.Classe)
			assert.True(t, av.ValorAvaliado.Equal(av.ValorSugerido))
			assert.Equal(t, av.Classe, av.ClasseFinal)
		})
	}
}

func TestAvaliar_AppliedPenaltyIsCapped(t *testing.T) {
	av, err := Avaliar(decimal.NewFromInt(1000), repeat(Imprestavel, 10), DefaultTaxonomia)
	require.NoError(t, err)
	assert.Equal(t, "1.5", av.Penalidade.String())
	assert.Equal(t, "0.9", av.PenalidadeAplicada.String())
	assert.True(t, av.ValorSugerido.Equal(decimal.NewFromInt(100)))
}

func TestAvaliar_RejectsNonPositiveFipe(t *testing.T) {
	for _, fipe := range []int64{0, -5} {
		_, err := Avaliar(decimal.NewFromInt(fipe), nil, DefaultTaxonomia)
		require.ErrorIs(t, err, ErrValidation)
	}
}

func TestClassificarPenalidade(t *testing.T) {
	tests := []struct {
		p    string
		want ClasseAvaliacao
	}{
		{"0", Ocioso},
		{"0.19", Ocioso},
		{"0.2", Recuperavel},
		{"0.59", Recuperavel},
		{"0.6", Antieconomico},
		{"0.89", Antieconomico},
		{"0.9", Irrecuperavel},
		{"2", Irrecuperavel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassificarPenalidade(decimal.RequireFromString(tt.p)), "p=%s", tt.p)
	}
}

func TestTaxonomiaParse(t *testing.T) {
	c, err := DefaultTaxonomia.Parse(" i ")
	require.NoError(t, err)
	assert.Equal(t, Imprestavel, c)

	c, err = DefaultTaxonomia.Parse("")
	require.NoError(t, err)
	assert.Equal(t, Classificacao(""), c)

	_, err = DefaultTaxonomia.Parse("BOM")
	require.ErrorIs(t, err, ErrClassificacaoInvalida)

	assert.Equal(t, []Classificacao{Bom, Regular, Imprestavel, Faltando}, DefaultTaxonomia.Codigos())
}
