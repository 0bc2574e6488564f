package protocol

import "chronicles.ai/internal/sim/errs"

const (
	// Protocol/transport validation.
	ErrProtoBadRequest = "E_PROTO_BAD_REQUEST"

	// Admission layer.
	ErrRateLimit = "E_RATE_LIMIT"
	ErrBlocked   = "E_BLOCKED"
	ErrQuota     = "E_QUOTA"

	// Execution layer, one per errs.Kind.
	ErrBadRequest          = "E_BAD_REQUEST"
	ErrObsolete            = "E_OBSOLETE"
	ErrNoPermission        = "E_NO_PERMISSION"
	ErrNotFound            = "E_NOT_FOUND"
	ErrInsufficientBalance = "E_INSUFFICIENT_BALANCE"
	ErrCapacity            = "E_CAPACITY"
	ErrConflict            = "E_CONFLICT"
	ErrExhausted           = "E_EXHAUSTED"

	ErrInternal = "E_INTERNAL"
)

var knownCodes = map[string]struct{}{
	ErrProtoBadRequest:     {},
	ErrRateLimit:           {},
	ErrBlocked:             {},
	ErrQuota:               {},
	ErrBadRequest:          {},
	ErrObsolete:            {},
	ErrNoPermission:        {},
	ErrNotFound:            {},
	ErrInsufficientBalance: {},
	ErrCapacity:            {},
	ErrConflict:            {},
	ErrExhausted:           {},
	ErrInternal:            {},
}

var kindCodes = map[errs.Kind]string{
	errs.Validation:          ErrBadRequest,
	errs.Obsolete:            ErrObsolete,
	errs.Permission:          ErrNoPermission,
	errs.StateNotFound:       ErrNotFound,
	errs.InsufficientBalance: ErrInsufficientBalance,
	errs.CapacityExceeded:    ErrCapacity,
	errs.Conflict:            ErrConflict,
	errs.ResourceExhausted:   ErrExhausted,
}

func IsKnownCode(code string) bool {
	if code == "" {
		return true
	}
	_, ok := knownCodes[code]
	return ok
}

// CodeForKind maps an execution failure kind to its wire code.
func CodeForKind(k errs.Kind) string {
	if c, ok := kindCodes[k]; ok {
		return c
	}
	return ErrInternal
}

// CodeForError maps any error to a wire code; nil maps to "".
func CodeForError(err error) string {
	if err == nil {
		return ""
	}
	if k, ok := errs.KindOf(err); ok {
		return CodeForKind(k)
	}
	return ErrInternal
}
