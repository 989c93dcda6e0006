package core

import (
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

// Outcome is the verdict of a validation.
type Outcome string

const (
	Accepted   Outcome = "accepted"
	Rejected   Outcome = "rejected"
	Unresolved Outcome = "unresolved"
)

// Kind classifies a report entry.
type Kind string

const (
	// Fatal kinds. Any of these rejects the file.
	MissingRequiredTable  Kind = "MissingRequiredTable"
	MissingRequiredColumn Kind = "MissingRequiredColumn"

	// Informational kinds. These never affect the outcome.
	UnrecognizedTable   Kind = "UnrecognizedTable"
	UnrecognizedColumn  Kind = "UnrecognizedColumn"
	OptionalTableAbsent Kind = "OptionalTableAbsent"
	IdentityCorrected   Kind = "IdentityCorrected"
	FormInferred        Kind = "FormInferred"
)

// Fatal reports whether entries of kind k reject a file.
func (k Kind) Fatal() bool {
	return k == MissingRequiredTable || k == MissingRequiredColumn
}

// Violation is one report entry. Fatal entries are listed by
// Report.Violations and informational ones by Report.Notices.
type Violation struct {
	Kind       Kind   `json:"kind" yaml:"kind"`
	Code       string `json:"code" yaml:"code"`
	Table      string `json:"table,omitempty" yaml:"table,omitempty"`
	Column     string `json:"column,omitempty" yaml:"column,omitempty"`
	Optional   bool   `json:"optional,omitempty" yaml:"optional,omitempty"`
	Suggestion string `json:"suggestion,omitempty" yaml:"suggestion,omitempty"`
	Message    string `json:"message" yaml:"message"`
}

func (v Violation) Error() string { return v.Message }

// Report is the immutable result of validating one candidate file.
type Report struct {
	source     string
	declared   catalog.Identity
	resolved   *catalog.Identity
	resolveErr error
	outcome    Outcome
	violations []Violation
	notices    []Violation
	catalogFP  string
}

// Source returns the file name the candidate came from, if known.
func (r *Report) Source() string { return r.source }

// Declared returns the identity the file declared.
func (r *Report) Declared() catalog.Identity { return r.declared }

// Resolved returns the identity of the leaf the file was checked against.
func (r *Report) Resolved() (catalog.Identity, bool) {
	if r.resolved == nil {
		return catalog.Identity{}, false
	}
	return *r.resolved, true
}

// ResolutionError returns why the identity did not resolve, or nil.
func (r *Report) ResolutionError() error { return r.resolveErr }

// Outcome returns the verdict.
func (r *Report) Outcome() Outcome { return r.outcome }

// Accepted reports whether the file met its contract.
func (r *Report) Accepted() bool { return r.outcome == Accepted }

// Violations returns the fatal entries in report order.
func (r *Report) Violations() []Violation { return slices.Clone(r.violations) }

// Notices returns the informational entries in report order.
func (r *Report) Notices() []Violation { return slices.Clone(r.notices) }

// Of returns all entries, fatal or not, of kind k.
func (r *Report) Of(k Kind) []Violation {
	src := r.notices
	if k.Fatal() {
		src = r.violations
	}
	var out []Violation
	for _, v := range src {
		if v.Kind == k {
			out = append(out, v)
		}
	}
	return out
}

// CatalogFingerprint identifies the catalog the report was produced against.
func (r *Report) CatalogFingerprint() string { return r.catalogFP }

// Summary is a one-line description suitable for logs and CLI output.
func (r *Report) Summary() string {
	switch r.outcome {
	case Unresolved:
		return fmt.Sprintf("unresolved: %v", r.resolveErr)
	case Rejected:
		return fmt.Sprintf("rejected: %d violation(s)", len(r.violations))
	default:
		return "accepted"
	}
}

type resolutionJSON struct {
	Kind        string   `json:"kind" yaml:"kind"`
	Code        string   `json:"code" yaml:"code"`
	Message     string   `json:"message" yaml:"message"`
	Suggestions []string `json:"suggestions,omitempty" yaml:"suggestions,omitempty"`
}

type reportJSON struct {
	Source     string            `json:"source,omitempty" yaml:"source,omitempty"`
	Declared   catalog.Identity  `json:"declared" yaml:"declared"`
	Resolved   *catalog.Identity `json:"resolved,omitempty" yaml:"resolved,omitempty"`
	Outcome    Outcome           `json:"outcome" yaml:"outcome"`
	Error      *resolutionJSON   `json:"error,omitempty" yaml:"error,omitempty"`
	Violations []Violation       `json:"violations" yaml:"violations"`
	Notices    []Violation       `json:"notices" yaml:"notices"`
	Catalog    string            `json:"catalog,omitempty" yaml:"catalog,omitempty"`
}

// MarshalJSON implements json.Marshaler.
func (r *Report) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.encoded())
}

// MarshalYAML implements yaml.Marshaler with the same shape as MarshalJSON.
func (r *Report) MarshalYAML() (any, error) {
	return r.encoded(), nil
}

func (r *Report) encoded() reportJSON {
	out := reportJSON{
		Source:     r.source,
		Declared:   r.declared,
		Resolved:   r.resolved,
		Outcome:    r.outcome,
		Violations: r.violations,
		Notices:    r.notices,
		Catalog:    r.catalogFP,
	}
	if out.Violations == nil {
		out.Violations = []Violation{}
	}
	if out.Notices == nil {
		out.Notices = []Violation{}
	}
	if r.resolveErr != nil {
		kind := ResolutionKind(r.resolveErr)
		out.Error = &resolutionJSON{
			Kind:    kind,
			Code:    MapError(r.resolveErr).Code,
			Message: r.resolveErr.Error(),
		}
		var (
			rerr   *catalog.ResolutionError
			stored *storedResolutionError
		)
		switch {
		case errors.As(r.resolveErr, &rerr):
			out.Error.Suggestions = rerr.Suggestions
		case errors.As(r.resolveErr, &stored):
			out.Error.Suggestions = stored.suggestions
		}
	}
	return out
}

// UnmarshalJSON rebuilds a report stored with MarshalJSON. The resolution
// error keeps its message and still matches its catalog sentinel with errors.Is.
func (r *Report) UnmarshalJSON(data []byte) error {
	var in reportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*r = Report{
		source:     in.Source,
		declared:   in.Declared,
		resolved:   in.Resolved,
		outcome:    in.Outcome,
		violations: in.Violations,
		notices:    in.Notices,
		catalogFP:  in.Catalog,
	}
	if in.Error != nil {
		r.resolveErr = &storedResolutionError{
			kind:        resolutionKinds[in.Error.Kind],
			message:     in.Error.Message,
			suggestions: in.Error.Suggestions,
		}
	}
	return nil
}

// storedResolutionError is a resolution error read back from storage, where
// only its kind, rendered message and suggestions survive.
type storedResolutionError struct {
	kind        error
	message     string
	suggestions []string
}

func (e *storedResolutionError) Error() string { return e.message }
func (e *storedResolutionError) Unwrap() error { return e.kind }

var resolutionKinds = map[string]error{
	"UnknownDataset":     catalog.ErrUnknownDataset,
	"UnsupportedVersion": catalog.ErrUnsupportedVersion,
	"UnknownLevel":       catalog.ErrUnknownLevel,
	"UnknownForm":        catalog.ErrUnknownForm,
}

// ResolutionKind names the resolution failure err represents, or "" if it is
// not a resolution failure.
func ResolutionKind(err error) string {
	for _, name := range []string{"UnknownDataset", "UnsupportedVersion", "UnknownLevel", "UnknownForm"} {
		if errors.Is(err, resolutionKinds[name]) {
			return name
		}
	}
	return ""
}
