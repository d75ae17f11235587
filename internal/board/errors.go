package board

import (
	"errors"
	"fmt"

	"boardd/pkg/cerr"
)

// Kind discriminates the recoverable, user-facing validation outcomes of
// owner operations. A missing task id is deliberately not a Kind: it is
// absorbed as a silent no-op because the UI may race with task deletion.
type Kind string

const (
	KindEmptyName         Kind = "EMPTY_NAME"
	KindNameTooLong       Kind = "NAME_TOO_LONG"
	KindInvalidCharacters Kind = "INVALID_CHARACTERS"
	KindDuplicateOwner    Kind = "DUPLICATE_OWNER"
	KindOwnerLimitReached Kind = "OWNER_LIMIT_REACHED"
)

// OwnerError is a typed validation outcome. It never carries a stack and is
// never fatal.
type OwnerError struct {
	Kind Kind
	Msg  string
}

func newOwnerError(kind Kind, format string, args ...any) *OwnerError {
	return &OwnerError{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func (e *OwnerError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Kind, e.Msg)
}

// Cerr converts the domain error to the transport error layer, carrying the
// kind as a machine-readable rule detail.
func (e *OwnerError) Cerr() *cerr.Error {
	var code cerr.Code
	switch e.Kind {
	case KindDuplicateOwner:
		code = cerr.AlreadyExists
	case KindOwnerLimitReached:
		code = cerr.FailedPrecondition
	default:
		code = cerr.InvalidArgument
	}
	return cerr.NewError(code, e.Msg, nil).AddDetailMessageWithRule(e.Msg, string(e.Kind))
}

// IsKind reports whether err is an OwnerError of the given kind.
func IsKind(err error, kind Kind) bool {
	var oe *OwnerError
	if errors.As(err, &oe) {
		return oe.Kind == kind
	}
	return false
}
