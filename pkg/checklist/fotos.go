package checklist

import (
	"fmt"
	"time"
)

// FotoSlot is one framed photo of the vehicle. Referencia points at the
// stored image; the engine never reads image bytes.
type FotoSlot struct {
	ID          string     `json:"id"`
	Label       string     `json:"label"`
	Referencia  string     `json:"referencia,omitempty"`
	Principal   bool       `json:"principal"`
	CapturadaEm *time.Time `json:"capturadaEm,omitempty"`
}

// DefaultFotoSlots returns the six framings taken at every inspection.
// The front photo is the cover.
func DefaultFotoSlots() []FotoSlot {
	return []FotoSlot{
		{ID: "frente", Label: "Frente (Capa)", Principal: true},
		{ID: "traseira", Label: "Traseira"},
		{ID: "lateral_esq", Label: "Lateral Esquerda"},
		{ID: "lateral_dir", Label: "Lateral Direita"},
		{ID: "motor", Label: "Cofre do Motor"},
		{ID: "interior", Label: "Interior"},
	}
}

func (s *Session) foto(slotID string) (*FotoSlot, error) {
	for i := range s.Fotos {
		if s.Fotos[i].ID == slotID {
			return &s.Fotos[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrFotoSlotNotFound, slotID)
}

// CapturarFoto stores ref in a slot and returns the next empty slot other
// than the one just filled, or "" when every slot is taken.
func (s *Session) CapturarFoto(slotID, ref string, now time.Time) (string, error) {
	if s.Concluida() {
		return "", ErrSessaoConcluida
	}
	if ref == "" {
		return "", fmt.Errorf("%w: photo reference is required", ErrValidation)
	}
	f, err := s.foto(slotID)
	if err != nil {
		return "", err
	}
	f.Referencia = ref
	f.CapturadaEm = &now

	for _, o := range s.Fotos {
		if o.ID != slotID && o.Referencia == "" {
			return o.ID, nil
		}
	}
	return "", nil
}

// RemoverFoto empties a slot.
func (s *Session) RemoverFoto(slotID string) error {
	if s.Concluida() {
		return ErrSessaoConcluida
	}
	f, err := s.foto(slotID)
	if err != nil {
		return err
	}
	f.Referencia = ""
	f.CapturadaEm = nil
	return nil
}

// ProximaFotoVazia returns the first empty slot, or "" when none is left.
func (s *Session) ProximaFotoVazia() string {
	for _, f := range s.Fotos {
		if f.Referencia == "" {
			return f.ID
		}
	}
	return ""
}

// FotoPrincipal returns the cover photo slot, if the session has one.
func (s *Session) FotoPrincipal() (FotoSlot, bool) {
	for _, f := range s.Fotos {
		if f.Principal {
			return f, true
		}
	}
	return FotoSlot{}, false
}
