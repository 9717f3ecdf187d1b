package checklist

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const motoYAML = `
nome: moto
descricao: Vistoria de motocicletas
etapas:
  - id: quadro
    descricao: Quadro
    itens:
      - id: chassi
        descricao: Chassi
        peso: 1.0
      - id: garfo
        descricao: Garfo
        peso: 0.8
  - id: motor
    descricao: Motor
    itens:
      - id: cilindro
        descricao: Cilindro
        peso: 1.0
`

func TestParseTemplate(t *testing.T) {
	tpl, err := ParseTemplate([]byte(motoYAML))
	require.NoError(t, err)
	assert.Equal(t, "moto", tpl.Nome)
	require.Len(t, tpl.Etapas, 2)
	assert.Equal(t, 3, tpl.TotalItens())
	assert.InDelta(t, 0.8, tpl.Etapas[0].Itens[1].PesoRelativo, 1e-9)

	_, err = ParseTemplate([]byte("nome: [unterminated"))
	require.Error(t, err)
}

func TestTemplateValidate(t *testing.T) {
	item := func(id string, peso float64) ItemTemplate {
		return ItemTemplate{ID: id, Descricao: id, PesoRelativo: peso}
	}
	tests := []struct {
		name string
		tpl  Template
	}{
		{"missing name", Template{Etapas: []EtapaTemplate{{ID: "a"}}}},
		{"no stages", Template{Nome: "x"}},
		{"stage without id", Template{Nome: "x", Etapas: []EtapaTemplate{{}}}},
		{"duplicate stage", Template{Nome: "x", Etapas: []EtapaTemplate{{ID: "a"}, {ID: "a"}}}},
		{"item without id", Template{Nome: "x", Etapas: []EtapaTemplate{{ID: "a", Itens: []ItemTemplate{item("", 1)}}}}},
		{"duplicate item", Template{Nome: "x", Etapas: []EtapaTemplate{{ID: "a", Itens: []ItemTemplate{item("i", 1), item("i", 1)}}}}},
		{"negative weight", Template{Nome: "x", Etapas: []EtapaTemplate{{ID: "a", Itens: []ItemTemplate{item("i", -0.1)}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.ErrorIs(t, tt.tpl.Validate(), ErrValidation)
		})
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	names := []string{}
	for _, tpl := range r.List() {
		names = append(names, tpl.Nome)
	}
	assert.Equal(t, []string{TemplateSimples, TemplateVistoria}, names)

	_, err := r.Get("caminhao")
	require.ErrorIs(t, err, ErrTemplateNotFound)

	require.ErrorIs(t, r.Register(&Template{Nome: "vazio"}), ErrValidation)
}

func TestRegistryLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "moto.yaml"), []byte(motoYAML), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# templates"), 0o644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.yaml"), 0o755))

	r := NewRegistry()
	n, err := r.LoadDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	tpl, err := r.Get("moto")
	require.NoError(t, err)
	assert.Equal(t, "Vistoria de motocicletas", tpl.Descricao)
	assert.Len(t, r.List(), 3)
}

func TestRegistryLoadDir_MissingDir(t *testing.T) {
	n, err := NewRegistry().LoadDir(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRegistryLoadDir_InvalidTemplate(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yml"), []byte("nome: bad\netapas: []\n"), 0o644))

	_, err := NewRegistry().LoadDir(dir)
	require.ErrorIs(t, err, ErrValidation)
	assert.Contains(t, err.Error(), "bad.yml")
}
