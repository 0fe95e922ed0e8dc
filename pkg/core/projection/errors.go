package projection

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMissingKey means a required section or field is absent under every accepted alias.
	ErrMissingKey = errors.New("missing key")
	// ErrTypeMismatch means a value has the wrong JSON type, e.g. a scalar where a list is expected.
	ErrTypeMismatch = errors.New("type mismatch")
	// ErrMisaligned means two categories of one table disagree on their periods.
	ErrMisaligned = errors.New("misaligned periods")
)

// FieldError locates a projection failure in the source document.
type FieldError struct {
	Path    string   // source path of the value, or of the parent when the key is missing
	Logical string   // logical field name, if any
	Tried   []string // source keys tried, for missing keys
	Detail  string
	Err     error
}

func (e *FieldError) Error() string {
	var b strings.Builder
	b.WriteString(e.Err.Error())
	if e.Logical != "" {
		fmt.Fprintf(&b, " %q", e.Logical)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if len(e.Tried) > 0 {
		fmt.Fprintf(&b, " (tried %s)", strings.Join(e.Tried, ", "))
	}
	if e.Detail != "" {
		b.WriteString(": ")
		b.WriteString(e.Detail)
	}
	return b.String()
}

func (e *FieldError) Unwrap() error { return e.Err }

func missing(path, logical string, tried []string) error {
	return &FieldError{Path: path, Logical: logical, Tried: tried, Err: ErrMissingKey}
}

func mismatch(path, want string, got string) error {
	return &FieldError{Path: path, Err: ErrTypeMismatch, Detail: fmt.Sprintf("want %s, got %s", want, got)}
}

func misaligned(path, detail string) error {
	return &FieldError{Path: path, Err: ErrMisaligned, Detail: detail}
}
