package catalog

import (
	"strconv"
	"strings"
)

// Identity is the dataset, version, level and form a file declares, or the
// keys under which a leaf is declared. Level and Form are nil when absent.
type Identity struct {
	Dataset string `json:"dataset" yaml:"dataset"`
	Version string `json:"version" yaml:"version"`
	Level   *int   `json:"level,omitempty" yaml:"level,omitempty"`
	Form    *int   `json:"form,omitempty" yaml:"form,omitempty"`
}

// Int returns a pointer to v, for filling Identity.Level and Identity.Form.
func Int(v int) *int {
	return &v
}

// WithLevel returns a copy of id with the level set.
func (id Identity) WithLevel(level int) Identity {
	id.Level = Int(level)
	return id
}

// WithForm returns a copy of id with the form set.
func (id Identity) WithForm(form int) Identity {
	id.Form = Int(form)
	return id
}

// String renders the identity as "Dataset/Version/level N/form M".
func (id Identity) String() string {
	parts := []string{id.Dataset, id.Version}
	if id.Level != nil {
		parts = append(parts, "level "+strconv.Itoa(*id.Level))
	}
	if id.Form != nil {
		parts = append(parts, "form "+strconv.Itoa(*id.Form))
	}
	return strings.Join(parts, "/")
}

// Equal reports whether both identities name the same keys.
func (id Identity) Equal(other Identity) bool {
	return id.Dataset == other.Dataset &&
		id.Version == other.Version &&
		equalInt(id.Level, other.Level) &&
		equalInt(id.Form, other.Form)
}

func equalInt(a, b *int) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
