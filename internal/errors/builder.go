package errors

import (
	"encoding/json"
	"strings"

	"github.com/cockroachdb/errors"
)

// ErrorBuilder builds a marked error. Mark must be the last call in the chain.
type ErrorBuilder struct {
	err error
}

// NewError starts a new error builder chain
func NewError(msg string) *ErrorBuilder {
	return &ErrorBuilder{err: errors.New(msg)}
}

// WithError starts a builder chain with an existing error
func WithError(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// WithMessage adds internal context to the error
func (b *ErrorBuilder) WithMessage(msg string) *ErrorBuilder {
	b.err = errors.WithMessage(b.err, msg)
	return b
}

// WithHint adds a caller-facing hint
func (b *ErrorBuilder) WithHint(hint string) *ErrorBuilder {
	b.err = errors.WithHint(b.err, hint)
	return b
}

// WithHintf is a helper for WithHint that allows for formatting
func (b *ErrorBuilder) WithHintf(format string, args ...any) *ErrorBuilder {
	b.err = errors.WithHintf(b.err, format, args...)
	return b
}

// WithReportableDetails attaches structured context (customer id, plan id ...)
func (b *ErrorBuilder) WithReportableDetails(details map[string]any) *ErrorBuilder {
	marshaled, err := json.Marshal(details)
	if err != nil {
		return b
	}
	b.err = errors.WithSafeDetails(b.err, detailsPrefix+"%s", errors.Safe(string(marshaled)))
	return b
}

// Mark marks the error with a sentinel error
func (b *ErrorBuilder) Mark(reference error) error {
	b.err = errors.Mark(b.err, reference)
	return b.err
}

const detailsPrefix = "__json__:"

// Hint returns the joined hints of err, or "" when there are none.
func Hint(err error) string {
	return strings.Join(errors.GetAllHints(err), "; ")
}

// Details collects the reportable details attached anywhere in the chain.
func Details(err error) map[string]any {
	out := map[string]any{}
	for _, d := range errors.GetAllSafeDetails(err) {
		for _, payload := range d.SafeDetails {
			if !strings.HasPrefix(payload, detailsPrefix) {
				continue
			}
			var m map[string]any
			if json.Unmarshal([]byte(strings.TrimPrefix(payload, detailsPrefix)), &m) != nil {
				continue
			}
			for k, v := range m {
				out[k] = v
			}
		}
	}
	return out
}
