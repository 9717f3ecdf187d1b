package checklist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// ItemTemplate is one inspected item of a template stage.
type ItemTemplate struct {
	ID           string  `yaml:"id" json:"id"`
	Descricao    string  `yaml:"descricao" json:"descricao"`
	PesoRelativo float64 `yaml:"peso" json:"pesoRelativo"`
}

// EtapaTemplate is one stage of a template.
type EtapaTemplate struct {
	ID        string         `yaml:"id" json:"id"`
	Descricao string         `yaml:"descricao" json:"descricao"`
	Itens     []ItemTemplate `yaml:"itens" json:"itens"`
}

// Template is the seed of an inspection: an ordered list of stages.
type Template struct {
	Nome      string          `yaml:"nome" json:"nome"`
	Descricao string          `yaml:"descricao" json:"descricao"`
	Etapas    []EtapaTemplate `yaml:"etapas" json:"etapas"`
}

// TotalItens counts the items of every stage.
func (t *Template) TotalItens() int {
	n := 0
	for _, e := range t.Etapas {
		n += len(e.Itens)
	}
	return n
}

// Validate checks names, ids and weights.
func (t *Template) Validate() error {
	if strings.TrimSpace(t.Nome) == "" {
		return fmt.Errorf("%w: template nome is required", ErrValidation)
	}
	if len(t.Etapas) == 0 {
		return fmt.Errorf("%w: template %s has no stages", ErrValidation, t.Nome)
	}
	etapas := make(map[string]struct{}, len(t.Etapas))
	for _, e := range t.Etapas {
		if e.ID == "" {
			return fmt.Errorf("%w: template %s has a stage without id", ErrValidation, t.Nome)
		}
		if _, dup := etapas[e.ID]; dup {
			return fmt.Errorf("%w: template %s repeats stage %s", ErrValidation, t.Nome, e.ID)
		}
		etapas[e.ID] = struct{}{}

		itens := make(map[string]struct{}, len(e.Itens))
		for _, it := range e.Itens {
			if it.ID == "" {
				return fmt.Errorf("%w: stage %s has an item without id", ErrValidation, e.ID)
			}
			if _, dup := itens[it.ID]; dup {
				return fmt.Errorf("%w: stage %s repeats item %s", ErrValidation, e.ID, it.ID)
			}
			if it.PesoRelativo < 0 {
				return fmt.Errorf("%w: item %s has a negative weight", ErrValidation, it.ID)
			}
			itens[it.ID] = struct{}{}
		}
	}
	return nil
}

// newEtapas builds the unclassified stages of a fresh session.
func (t *Template) newEtapas() []Etapa {
	out := make([]Etapa, len(t.Etapas))
	for i, et := range t.Etapas {
		itens := make([]Item, len(et.Itens))
		for j, it := range et.Itens {
			itens[j] = Item{
				ID:           it.ID,
				Descricao:    it.Descricao,
				EtapaID:      et.ID,
				PesoRelativo: it.PesoRelativo,
			}
		}
		out[i] = Etapa{ID: et.ID, Descricao: et.Descricao, Ordem: i + 1, Itens: itens}
	}
	return out
}

// ParseTemplate decodes and validates a YAML template.
func ParseTemplate(data []byte) (*Template, error) {
	var t Template
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

// Registry holds the templates sessions can be created from.
type Registry struct {
	mu        sync.RWMutex
	templates map[string]*Template
}

// NewRegistry creates a registry preloaded with the built-in templates.
func NewRegistry() *Registry {
	r := &Registry{templates: make(map[string]*Template)}
	for _, t := range BuiltinTemplates() {
		r.templates[t.Nome] = t
	}
	return r
}

// Register adds or replaces a template.
func (r *Registry) Register(t *Template) error {
	if err := t.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.templates[t.Nome] = t
	return nil
}

// Get returns the named template.
func (r *Registry) Get(nome string) (*Template, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.templates[nome]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, nome)
	}
	return t, nil
}

// List returns every template ordered by name.
func (r *Registry) List() []*Template {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Template, 0, len(r.templates))
	for _, t := range r.templates {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nome < out[j].Nome })
	return out
}

// LoadDir registers every *.yaml and *.yml file in dir and returns how many
// were loaded. A missing directory loads nothing.
func (r *Registry) LoadDir(dir string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("read templates dir: %w", err)
	}
	loaded := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		ext := filepath.Ext(e.Name())
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return loaded, fmt.Errorf("read template %s: %w", path, err)
		}
		t, err := ParseTemplate(data)
		if err != nil {
			return loaded, fmt.Errorf("template %s: %w", path, err)
		}
		if err := r.Register(t); err != nil {
			return loaded, err
		}
		loaded++
	}
	return loaded, nil
}
