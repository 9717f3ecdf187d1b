package checklist

import "errors"

// Errors returned by the checklist engine.
var (
	ErrTemplateNotFound      = errors.New("checklist template not found")
	ErrSessionNotFound       = errors.New("checklist session not found")
	ErrEtapaNotFound         = errors.New("stage not found")
	ErrItemNotFound          = errors.New("item not found")
	ErrFotoSlotNotFound      = errors.New("photo slot not found")
	ErrClassificacaoInvalida = errors.New("invalid classification")
	ErrEtapaInvalida         = errors.New("stage index out of range")
	ErrEtapaIncompleta       = errors.New("current stage has unclassified items")
	ErrPrimeiraEtapa         = errors.New("already at the first stage")
	ErrUltimaEtapa           = errors.New("already at the last stage")
	ErrChecklistIncompleto   = errors.New("checklist has unclassified items")
	ErrSessaoConcluida       = errors.New("inspection already concluded")
	ErrValidation            = errors.New("validation failed")
)

// ErrorCode returns the machine-readable code of a checklist error.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrTemplateNotFound), errors.Is(err, ErrSessionNotFound),
		errors.Is(err, ErrEtapaNotFound), errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrFotoSlotNotFound):
		return "NOT_FOUND"
	case errors.Is(err, ErrClassificacaoInvalida):
		return "CLASSIFICACAO_INVALIDA"
	case errors.Is(err, ErrEtapaInvalida):
		return "ETAPA_INVALIDA"
	case errors.Is(err, ErrEtapaIncompleta):
		return "ETAPA_INCOMPLETA"
	case errors.Is(err, ErrPrimeiraEtapa):
		return "PRIMEIRA_ETAPA"
	case errors.Is(err, ErrUltimaEtapa):
		return "ULTIMA_ETAPA"
	case errors.Is(err, ErrChecklistIncompleto):
		return "CHECKLIST_INCOMPLETO"
	case errors.Is(err, ErrSessaoConcluida):
		return "SESSAO_CONCLUIDA"
	case errors.Is(err, ErrValidation):
		return "VALIDATION"
	default:
		return "INTERNAL"
	}
}
