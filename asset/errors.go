package asset

import "errors"

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrMalformedName = errors.New("malformed source name")
	ErrSourceMissing = errors.New("source image not found")
	ErrCopyFailed    = errors.New("copy failed")
	ErrDeleteFailed  = errors.New("delete failed")
)

// Outcome returns a short label for err, suitable for logs and metric attributes.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, ErrMalformedName):
		return "malformed_name"
	case errors.Is(err, ErrSourceMissing):
		return "source_missing"
	case errors.Is(err, ErrCopyFailed):
		return "copy_failed"
	case errors.Is(err, ErrDeleteFailed):
		return "delete_failed"
	default:
		return "unknown"
	}
}
