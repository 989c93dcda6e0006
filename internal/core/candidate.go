package core

import (
	"encoding/json"
	"fmt"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/orderedset"
)

// CandidateFile is the structure of a submitted file as seen by the validator:
// its declared identity and the tables and columns it actually contains.
type CandidateFile struct {
	Identity catalog.Identity
	Tables   ObservedTables

	// Source names the file the candidate came from, if any.
	Source string

	// Warnings are corrections the producer made to the declared identity.
	// They are copied into the report as notices.
	Warnings []string
}

// NewCandidate returns an empty candidate declaring id.
func NewCandidate(id catalog.Identity) *CandidateFile {
	return &CandidateFile{Identity: id}
}

// AddTable records one occurrence of table with the given header columns.
// Repeated occurrences are merged into the union of their columns.
func (c *CandidateFile) AddTable(table string, columns ...string) *CandidateFile {
	c.Tables.Add(table, columns...)
	return c
}

// ObservedTables maps table names to the columns seen for them, keeping the
// order in which tables and columns first appeared.
type ObservedTables struct {
	names   orderedset.Set[string]
	columns map[string]*orderedset.Set[string]
}

// Add merges columns into table, creating it if needed.
func (o *ObservedTables) Add(table string, columns ...string) {
	if o.columns == nil {
		o.columns = make(map[string]*orderedset.Set[string])
	}
	cols, ok := o.columns[table]
	if !ok {
		cols = &orderedset.Set[string]{}
		o.columns[table] = cols
		o.names.Add(table)
	}
	for _, c := range columns {
		cols.Add(c)
	}
}

// Has reports whether table was observed.
func (o *ObservedTables) Has(table string) bool {
	return o.names.Contains(table)
}

// HasColumn reports whether column was observed in table.
func (o *ObservedTables) HasColumn(table, column string) bool {
	return o.columns[table].Contains(column)
}

// Names returns the observed tables in order of first appearance.
func (o *ObservedTables) Names() []string {
	return o.names.Items()
}

// Columns returns the columns observed for table in order of first appearance.
func (o *ObservedTables) Columns(table string) []string {
	return o.columns[table].Items()
}

// Len returns the number of distinct tables.
func (o *ObservedTables) Len() int {
	return o.names.Len()
}

type observedTableJSON struct {
	Name    string   `json:"name"`
	Columns []string `json:"columns"`
}

// MarshalJSON encodes the tables as an ordered list of {name, columns}.
func (o ObservedTables) MarshalJSON() ([]byte, error) {
	out := make([]observedTableJSON, 0, o.Len())
	for _, name := range o.Names() {
		out = append(out, observedTableJSON{Name: name, Columns: o.Columns(name)})
	}
	return json.Marshal(out)
}

// UnmarshalJSON accepts an ordered list of {name, columns}. A name may repeat;
// repeats are merged.
func (o *ObservedTables) UnmarshalJSON(data []byte) error {
	var in []observedTableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("tables: %w", err)
	}
	*o = ObservedTables{}
	for i, t := range in {
		if t.Name == "" {
			return fmt.Errorf("tables[%d]: missing table name", i)
		}
		o.Add(t.Name, t.Columns...)
	}
	return nil
}

type candidateJSON struct {
	catalog.Identity
	Source string         `json:"source,omitempty"`
	Tables ObservedTables `json:"tables"`
}

// MarshalJSON flattens the identity fields next to the tables.
func (c CandidateFile) MarshalJSON() ([]byte, error) {
	return json.Marshal(candidateJSON{Identity: c.Identity, Source: c.Source, Tables: c.Tables})
}

// UnmarshalJSON reads the form written by MarshalJSON. Warnings are not
// accepted from clients.
func (c *CandidateFile) UnmarshalJSON(data []byte) error {
	var in candidateJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*c = CandidateFile{Identity: in.Identity, Source: in.Source, Tables: in.Tables}
	return nil
}
