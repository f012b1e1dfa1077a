package vectorstore

import "github.com/localvector/vectorstore/internal/storeerr"

// Kind discriminates the taxonomy of errors this package returns, usable with
// errors.Is/errors.As via KindOf.
type Kind = storeerr.Kind

const (
	InvalidInput      = storeerr.InvalidInput
	NotFound          = storeerr.NotFound
	AlreadyExists     = storeerr.AlreadyExists
	NotAStore         = storeerr.NotAStore
	UnsupportedFormat = storeerr.UnsupportedFormat
	UnreadableSource  = storeerr.UnreadableSource
	CorruptIndex      = storeerr.CorruptIndex
	CorruptRecord     = storeerr.CorruptRecord
	EmbeddingFailed   = storeerr.EmbeddingFailed
	ModelUnavailable  = storeerr.ModelUnavailable
	DimensionMismatch = storeerr.DimensionMismatch
	Cancelled         = storeerr.Cancelled
)

// Error is the concrete error type every operation in this package returns on
// failure, carrying a Kind alongside the usual message/cause chain.
type Error = storeerr.StoreError

// KindOf extracts the Kind from err, returning storeerr.Unknown if err is nil or was
// not produced by this package.
func KindOf(err error) Kind {
	return storeerr.KindOf(err)
}
