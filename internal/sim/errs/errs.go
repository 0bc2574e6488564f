// Package errs is the closed failure taxonomy of action execution.
//
// Every failure carries exactly one Kind. Field order is insertion order so the
// rendered message is identical on every node.
package errs

import (
	"errors"
	"fmt"
	"strings"
)

type Kind string

const (
	Validation          Kind = "ValidationError"
	Obsolete            Kind = "ObsoleteActionError"
	Permission          Kind = "PermissionError"
	StateNotFound       Kind = "StateNotFoundError"
	InsufficientBalance Kind = "InsufficientBalanceError"
	CapacityExceeded    Kind = "CapacityExceededError"
	Conflict            Kind = "ConflictError"
	ResourceExhausted   Kind = "ResourceExhaustedError"
)

var Kinds = []Kind{
	Validation,
	Obsolete,
	Permission,
	StateNotFound,
	InsufficientBalance,
	CapacityExceeded,
	Conflict,
	ResourceExhausted,
}

type Field struct {
	Key   string
	Value string
}

type Error struct {
	Kind   Kind
	Msg    string
	Fields []Field
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Kind))
	b.WriteString(": ")
	b.WriteString(e.Msg)
	if len(e.Fields) > 0 {
		b.WriteString(" (")
		for i, f := range e.Fields {
			if i > 0 {
				b.WriteString(", ")
			}
			b.WriteString(f.Key)
			b.WriteByte('=')
			b.WriteString(f.Value)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// Is matches another *Error with the same Kind, so errors.Is(err, &Error{Kind: k}) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind && (t.Msg == "" || t.Msg == e.Msg)
}

// With appends a field and returns the same error for chaining.
func (e *Error) With(key string, value any) *Error {
	e.Fields = append(e.Fields, Field{Key: key, Value: fmt.Sprint(value)})
	return e
}

func (e *Error) Field(key string) (string, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

func Validationf(format string, args ...any) *Error { return New(Validation, format, args...) }
func Obsoletef(format string, args ...any) *Error   { return New(Obsolete, format, args...) }
func Permissionf(format string, args ...any) *Error { return New(Permission, format, args...) }
func NotFoundf(format string, args ...any) *Error   { return New(StateNotFound, format, args...) }
func Balancef(format string, args ...any) *Error    { return New(InsufficientBalance, format, args...) }
func Capacityf(format string, args ...any) *Error   { return New(CapacityExceeded, format, args...) }
func Conflictf(format string, args ...any) *Error   { return New(Conflict, format, args...) }
func Exhaustedf(format string, args ...any) *Error  { return New(ResourceExhausted, format, args...) }

// KindOf returns the Kind of the first *Error in err's chain.
func KindOf(err error) (Kind, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind, true
	}
	return "", false
}

func IsKind(err error, kind Kind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
