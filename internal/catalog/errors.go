package catalog

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrMalformedSchema is wrapped by every error Build returns for a bad source.
	ErrMalformedSchema = errors.New("malformed schema")

	ErrUnknownDataset     = errors.New("unknown dataset")
	ErrUnsupportedVersion = errors.New("unsupported version")
	ErrUnknownLevel       = errors.New("unknown level")
	ErrUnknownForm        = errors.New("unknown form")
)

// SchemaError lists every problem found while building a catalog, in
// document order.
type SchemaError struct {
	Source   string
	Problems []string
}

func (e *SchemaError) Error() string {
	var b strings.Builder
	b.WriteString(ErrMalformedSchema.Error())
	if e.Source != "" {
		fmt.Fprintf(&b, " (%s)", e.Source)
	}
	if len(e.Problems) == 1 {
		b.WriteString(": ")
		b.WriteString(e.Problems[0])
		return b.String()
	}
	fmt.Fprintf(&b, ": %d problems:", len(e.Problems))
	for _, p := range e.Problems {
		b.WriteString("\n  - ")
		b.WriteString(p)
	}
	return b.String()
}

func (e *SchemaError) Unwrap() error { return ErrMalformedSchema }

// ResolutionError explains why an identity has no leaf. Kind is one of the
// resolution sentinels and is what errors.Is matches against.
type ResolutionError struct {
	Kind        error
	Identity    Identity
	Detail      string
	Suggestions []string
}

func (e *ResolutionError) Error() string {
	msg := e.Kind.Error()
	if e.Detail != "" {
		msg += ": " + e.Detail
	}
	if len(e.Suggestions) > 0 {
		msg += " (did you mean " + strings.Join(quoteAll(e.Suggestions), " or ") + "?)"
	}
	return msg
}

func (e *ResolutionError) Unwrap() error { return e.Kind }

func quoteAll(ss []string) []string {
	out := make([]string, len(ss))
	for i, s := range ss {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
