// Package storeerr defines the error taxonomy shared by every component: a closed
// set of Kinds wrapped in a StoreError, usable with errors.Is and errors.As.
package storeerr

import "fmt"

// Kind classifies a StoreError without tying callers to a specific error value.
type Kind int

const (
	Unknown Kind = iota
	InvalidInput
	NotFound
	AlreadyExists
	NotAStore
	UnsupportedFormat
	UnreadableSource
	CorruptIndex
	CorruptRecord
	EmbeddingFailed
	ModelUnavailable
	DimensionMismatch
	Cancelled
)

func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotFound:
		return "NotFound"
	case AlreadyExists:
		return "AlreadyExists"
	case NotAStore:
		return "NotAStore"
	case UnsupportedFormat:
		return "UnsupportedFormat"
	case UnreadableSource:
		return "UnreadableSource"
	case CorruptIndex:
		return "CorruptIndex"
	case CorruptRecord:
		return "CorruptRecord"
	case EmbeddingFailed:
		return "EmbeddingFailed"
	case ModelUnavailable:
		return "ModelUnavailable"
	case DimensionMismatch:
		return "DimensionMismatch"
	case Cancelled:
		return "Cancelled"
	default:
		return "Unknown"
	}
}

// StoreError is the library's single error type. Kind classifies it; Err, when
// present, is the underlying cause and participates in errors.Is/errors.As via Unwrap.
type StoreError struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *StoreError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *StoreError) Unwrap() error { return e.Err }

// Is reports whether target is a *StoreError with the same Kind, so callers can write
// errors.Is(err, storeerr.New(storeerr.NotFound, "")) or, more idiomatically, check
// storeerr.KindOf(err) == storeerr.NotFound.
func (e *StoreError) Is(target error) bool {
	t, ok := target.(*StoreError)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// New constructs a StoreError with no underlying cause.
func New(kind Kind, msg string) *StoreError {
	return &StoreError{Kind: kind, Msg: msg}
}

// Wrap constructs a StoreError carrying an underlying cause.
func Wrap(kind Kind, msg string, err error) *StoreError {
	return &StoreError{Kind: kind, Msg: msg, Err: err}
}

// KindOf returns the Kind of err if it is (or wraps) a *StoreError, else Unknown.
func KindOf(err error) Kind {
	var se *StoreError
	for err != nil {
		if s, ok := err.(*StoreError); ok {
			se = s
			break
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	if se == nil {
		return Unknown
	}
	return se.Kind
}
