package checklist

import "strconv"

// Built-in template names.
const (
	TemplateVistoria = "vistoria"
	TemplateSimples  = "simples"
)

type seedItem struct {
	nome string
	peso float64
}

type seedEtapa struct {
	nome  string
	itens []seedItem
}

// vistoriaSeed is the full 8-stage inspection. Stage and item ids are
// their 1-based positions, items numbered across stages.
var vistoriaSeed = []seedEtapa{
	{"Identificação", []seedItem{
		{"Placa", 1.0}, {"Chassi", 1.0}, {"RENAVAM", 1.0},
	}},
	{"Motor + Alimentação", []seedItem{
		{"Cabeçote", 1.0}, {"Cárter", 1.0}, {"Bloco", 1.0},
		{"Tanque de combustível", 0.8}, {"Bomba de combustível", 0.8},
		{"Filtro de combustível", 0.6}, {"Mangueiras", 0.5}, {"Carburador / Bicos", 0.9},
	}},
	{"Ar + Arrefecimento + Exaustão", []seedItem{
		{"Ar condicionado", 0.8}, {"Compressor", 0.9}, {"Condensador", 0.7},
		{"Evaporador", 0.7}, {"Radiador", 1.0}, {"Ventoinha", 0.8},
		{"Correias", 0.6}, {"Catalisador", 0.9},
	}},
	{"Transmissão + Embreagem", []seedItem{
		{"Caixa de câmbio", 1.0}, {"Embreagem", 1.0}, {"Diferencial", 1.0}, {"Semi-eixos", 0.9},
	}},
	{"Elétrica + Eletrônica", []seedItem{
		{"Bateria", 0.8}, {"Alternador", 0.9}, {"Motor de partida", 0.9},
		{"Chicote elétrico", 0.7}, {"Central multimídia", 0.5}, {"Painel de instrumentos", 0.8},
	}},
	{"Suspensão + Direção + Freios", []seedItem{
		{"Suspensão", 1.0}, {"Amortecedores", 1.0}, {"Molas", 0.9}, {"Direção", 1.0},
		{"Caixa de direção", 1.0}, {"Braços e terminais", 0.9}, {"Freios", 1.0},
		{"Disco / Tambor", 1.0}, {"Pastilhas / Lonas", 0.9}, {"Cilindro mestre", 0.9},
	}},
	{"Rodas + Pneus", []seedItem{
		{"Rodas", 0.8}, {"Pneus", 1.0}, {"Estepe", 0.5},
	}},
	{"Lataria + Instrumentos + Conclusão", []seedItem{
		{"Lataria", 1.0}, {"Capô", 0.8}, {"Para-choques", 0.7}, {"Portas", 0.9},
		{"Teto", 0.8}, {"Pintura", 1.0}, {"Vidros", 0.8}, {"Retrovisores", 0.6},
		{"Bancos", 0.8}, {"Forração", 0.7}, {"Tapetes", 0.4},
	}},
}

func vistoriaTemplate() *Template {
	t := &Template{
		Nome:      TemplateVistoria,
		Descricao: "Vistoria completa em 8 etapas",
		Etapas:    make([]EtapaTemplate, len(vistoriaSeed)),
	}
	next := 1
	for i, se := range vistoriaSeed {
		et := EtapaTemplate{
			ID:        strconv.Itoa(i + 1),
			Descricao: se.nome,
			Itens:     make([]ItemTemplate, len(se.itens)),
		}
		for j, si := range se.itens {
			et.Itens[j] = ItemTemplate{ID: strconv.Itoa(next), Descricao: si.nome, PesoRelativo: si.peso}
			next++
		}
		t.Etapas[i] = et
	}
	return t
}

func simplesTemplate() *Template {
	return &Template{
		Nome:      TemplateSimples,
		Descricao: "Checklist rápido de entrada no pátio",
		Etapas: []EtapaTemplate{
			{ID: "externo", Descricao: "Estrutura Externa", Itens: []ItemTemplate{
				{ID: "pintura", Descricao: "Pintura Geral", PesoRelativo: 1},
				{ID: "capo", Descricao: "Capô", PesoRelativo: 1},
				{ID: "parachoque", Descricao: "Para-choques", PesoRelativo: 1},
				{ID: "farois", Descricao: "Faróis / Lanternas", PesoRelativo: 1},
			}},
			{ID: "mecanica", Descricao: "Mecânica & Pneus", Itens: []ItemTemplate{
				{ID: "motor", Descricao: "Motor (Funcionamento)", PesoRelativo: 1},
				{ID: "bateria", Descricao: "Bateria", PesoRelativo: 1},
				{ID: "pneus", Descricao: "Pneus", PesoRelativo: 1},
			}},
			{ID: "interior", Descricao: "Interior", Itens: []ItemTemplate{
				{ID: "bancos", Descricao: "Estofamento", PesoRelativo: 1},
				{ID: "painel", Descricao: "Painel", PesoRelativo: 1},
			}},
		},
	}
}

// BuiltinTemplates returns fresh copies of the templates shipped with the engine.
func BuiltinTemplates() []*Template {
	return []*Template{vistoriaTemplate(), simplesTemplate()}
}
