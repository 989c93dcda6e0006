package catalog

import _ "embed"

//go:embed data/tables.yaml
var embeddedTables []byte

// Embedded builds the catalog shipped with the binary.
func Embedded() (*Catalog, error) {
	return build(embeddedTables, EmbeddedSource{}.Name())
}

// EmbeddedDefinitions returns a copy of the shipped YAML document.
func EmbeddedDefinitions() []byte {
	out := make([]byte, len(embeddedTables))
	copy(out, embeddedTables)
	return out
}
