package leilao

import (
	"fmt"

	mapset "github.com/deckarep/golang-set/v2"
)

// TransitionRule defines an allowed auction status transition and the
// action that triggers it.
type TransitionRule struct {
	From   LeilaoStatus
	To     LeilaoStatus
	Action string
}

// DefaultTransitions is the forward-only auction workflow.
var DefaultTransitions = []TransitionRule{
	{From: StatusRascunho, To: StatusPublicado, Action: "publicar"},
	{From: StatusPublicado, To: StatusFinalizado, Action: "finalizar"},
}

// DisallowedTransitions are explicitly forbidden and reported as denied
// rather than undefined.
var DisallowedTransitions = map[LeilaoStatus][]LeilaoStatus{
	StatusRascunho:   {StatusFinalizado},
	StatusPublicado:  {StatusRascunho},
	StatusFinalizado: {StatusRascunho, StatusPublicado},
}

// Transition error codes.
const (
	CodeInvalidTransition = "LEILAO_INVALID_TRANSITION"
	CodeTransitionDenied  = "LEILAO_TRANSITION_DENIED"
)

// LifecycleMachine validates auction status transitions.
type LifecycleMachine struct {
	transitions []TransitionRule
	disallowed  map[LeilaoStatus]mapset.Set[LeilaoStatus]
}

// NewLifecycleMachine creates a machine with the default rules.
func NewLifecycleMachine() *LifecycleMachine {
	disallowed := make(map[LeilaoStatus]mapset.Set[LeilaoStatus], len(DisallowedTransitions))
	for from, targets := range DisallowedTransitions {
		disallowed[from] = mapset.NewSet(targets...)
	}
	return &LifecycleMachine{
		transitions: DefaultTransitions,
		disallowed:  disallowed,
	}
}

// ValidateTransition returns nil if from->to is allowed and a *TransitionError
// otherwise. Re-entering the current status is not a valid transition: an
// auction cannot be published or finalized twice.
func (m *LifecycleMachine) ValidateTransition(from, to LeilaoStatus) error {
	if denied, ok := m.disallowed[from]; ok && denied.Contains(to) {
		return &TransitionError{
			Code:    CodeTransitionDenied,
			From:    from,
			To:      to,
			Message: fmt.Sprintf("transition from %s to %s is not allowed", from, to),
		}
	}

	for _, t := range m.transitions {
		if t.From == from && t.To == to {
			return nil
		}
	}

	return &TransitionError{
		Code:    CodeInvalidTransition,
		From:    from,
		To:      to,
		Message: fmt.Sprintf("no transition defined from %s to %s", from, to),
	}
}

// AllowedTransitions returns the statuses reachable from the given one.
func (m *LifecycleMachine) AllowedTransitions(from LeilaoStatus) []LeilaoStatus {
	var allowed []LeilaoStatus
	for _, t := range m.transitions {
		if t.From == from {
			allowed = append(allowed, t.To)
		}
	}
	return allowed
}

// AllowedActions returns the action names available from the given status.
func (m *LifecycleMachine) AllowedActions(from LeilaoStatus) []string {
	var actions []string
	for _, t := range m.transitions {
		if t.From == from {
			actions = append(actions, t.Action)
		}
	}
	return actions
}

// TransitionError is a structured error for invalid status transitions.
type TransitionError struct {
	Code    string       `json:"code"`
	From    LeilaoStatus `json:"from"`
	To      LeilaoStatus `json:"to"`
	Message string       `json:"message"`
}

func (e *TransitionError) Error() string {
	return e.Message
}

// Is makes every TransitionError match ErrInvalidTransition.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
