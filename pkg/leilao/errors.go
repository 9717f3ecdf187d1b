package leilao

import "errors"

// Precondition and validation failures returned by Manager operations.
var (
	ErrNotFound          = errors.New("not found")
	ErrValidation        = errors.New("validation failed")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrIncompleteResults = errors.New("auction has lots without a final result")
	ErrNoLots            = errors.New("auction has no lots")
	ErrNotDraft          = errors.New("auction is not a draft")
	ErrNotPublished      = errors.New("auction is not published")
	ErrNotFinalized      = errors.New("auction is not finalized")
	ErrInvalidResult     = errors.New("invalid lot result")
	ErrCarroIndisponivel = errors.New("vehicle is not available for linking")
	ErrCarroVinculado    = errors.New("vehicle is linked to an auction")
	ErrPlacaDuplicada    = errors.New("plate already registered")
	ErrTipoPrestacao     = errors.New("unknown report type")
	ErrLeiloeiroNotFound = errors.New("auctioneer not found")
)

// ErrorCode returns the machine-readable code for an error produced by this
// package, or "INTERNAL" for anything else.
func ErrorCode(err error) string {
	var te *TransitionError
	switch {
	case errors.As(err, &te):
		return te.Code
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLeiloeiroNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrIncompleteResults):
		return "INCOMPLETE_RESULTS"
	case errors.Is(err, ErrNoLots):
		return "NO_LOTS"
	case errors.Is(err, ErrNotDraft):
		return "NOT_DRAFT"
	case errors.Is(err, ErrNotPublished):
		return "NOT_PUBLISHED"
	case errors.Is(err, ErrNotFinalized):
		return "NOT_FINALIZED"
	case errors.Is(err, ErrInvalidResult):
		return "INVALID_RESULT"
	case errors.Is(err, ErrCarroIndisponivel):
		return "CARRO_INDISPONIVEL"
	case errors.Is(err, ErrCarroVinculado):
		return "CARRO_VINCULADO"
	case errors.Is(err, ErrPlacaDuplicada):
		return "PLACA_DUPLICADA"
	case errors.Is(err, ErrTipoPrestacao):
		return "TIPO_INVALIDO"
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
