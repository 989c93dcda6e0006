package core

// validation.go checks a candidate file's structure against its table contract.
//
// Validation happens at two levels:
//  1. Identity: the declared dataset/version/level/form must resolve to a leaf
//  2. Structure: required tables must be present, and every present table must
//     carry the columns its contract lists
//
// Every problem is collected in one pass; nothing stops at the first violation.
// Informational notices (unknown tables or columns, absent optional tables) are
// collected alongside but never change the outcome.

import (
	"fmt"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

// Option adjusts how Validate checks a candidate.
type Option func(*options)

type options struct {
	formSearch   bool
	metadata     []MetadataTable
	metadataOnly bool
}

// WithFormSearch lets a candidate that declares a level but no form match any
// form of that level. The first form the candidate satisfies is chosen;
// failing that, the form with the fewest violations, lowest form on ties.
func WithFormSearch() Option {
	return func(o *options) { o.formSearch = true }
}

// WithMetadataTables also requires the given dataset-independent tables.
func WithMetadataTables(tables []MetadataTable) Option {
	return func(o *options) { o.metadata = tables }
}

// WithMetadataOnly checks only the metadata tables. The identity must still
// resolve. Implies WithMetadataTables(DefaultMetadataTables) unless another
// set was given.
func WithMetadataOnly() Option {
	return func(o *options) { o.metadataOnly = true }
}

func buildOptions(opts []Option) options {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.metadataOnly && o.metadata == nil {
		o.metadata = DefaultMetadataTables
	}
	return o
}

// Validate checks candidate against the leaf its identity resolves to in cat.
// It is a pure function of its inputs and safe to call concurrently.
func Validate(candidate *CandidateFile, cat *catalog.Catalog, opts ...Option) *Report {
	o := buildOptions(opts)

	r := &Report{
		source:    candidate.Source,
		declared:  candidate.Identity,
		catalogFP: cat.Fingerprint(),
	}
	for _, w := range candidate.Warnings {
		r.notices = append(r.notices, newEntry(IdentityCorrected, "", "", w))
	}

	leaf, checked, err := resolveLeaf(candidate, cat, o)
	if err != nil {
		r.outcome = Unresolved
		r.resolveErr = err
		return r
	}

	id := leaf.ID()
	r.resolved = &id
	if checked == nil {
		checked = check(candidate, leaf, o)
	}
	r.violations = append(r.violations, checked.violations...)
	r.notices = append(r.notices, checked.notices...)

	if len(r.violations) == 0 {
		r.outcome = Accepted
	} else {
		r.outcome = Rejected
	}
	return r
}

// checkResult holds the entries produced by checking against one leaf.
type checkResult struct {
	violations []Violation
	notices    []Violation
}

// resolveLeaf resolves the candidate's identity. With form search it may
// already have checked the chosen leaf, in which case that result is returned.
func resolveLeaf(c *CandidateFile, cat *catalog.Catalog, o options) (*catalog.Leaf, *checkResult, error) {
	id := c.Identity
	if !o.formSearch || id.Form != nil || id.Level == nil {
		leaf, err := cat.Resolve(id)
		return leaf, nil, err
	}

	v, err := cat.MatchVersion(id.Dataset, id.Version)
	if err != nil {
		// Resolve again for an error that carries the full identity.
		_, err = cat.Resolve(id)
		return nil, nil, err
	}
	layout, ok := v.Layout().(catalog.ByLevelAndForm)
	if !ok || !layout.HasLevel(*id.Level) {
		leaf, err := cat.Resolve(id)
		return leaf, nil, err
	}

	var (
		best       *catalog.Leaf
		bestResult *checkResult
	)
	for _, form := range layout.Forms(*id.Level) {
		leaf, _ := layout.Form(*id.Level, form)
		res := check(c, leaf, o)
		if len(res.violations) == 0 {
			best, bestResult = leaf, res
			break
		}
		if bestResult == nil || len(res.violations) < len(bestResult.violations) {
			best, bestResult = leaf, res
		}
	}

	bestResult.notices = append([]Violation{newEntry(FormInferred, "", "",
		fmt.Sprintf("no form declared; form %d of %s %s level %d chosen by table match",
			*best.ID().Form, id.Dataset, v.Name(), *id.Level))}, bestResult.notices...)
	return best, bestResult, nil
}

// check compares the observed tables with leaf.
func check(c *CandidateFile, leaf *catalog.Leaf, o options) *checkResult {
	res := &checkResult{}
	known := make(map[string]bool)

	for _, m := range o.metadata {
		known[m.Name] = true
		if !c.Tables.Has(m.Name) {
			res.violations = append(res.violations, missingTable(m.Name))
			continue
		}
		for _, col := range m.Required {
			if !c.Tables.HasColumn(m.Name, col) {
				res.violations = append(res.violations, missingColumn(m.Name, col, false))
			}
		}
		for _, col := range c.Tables.Columns(m.Name) {
			if !m.declares(col) {
				res.notices = append(res.notices, unrecognizedColumn(m.Name, col))
			}
		}
	}

	if o.metadataOnly {
		return res
	}

	for _, t := range leaf.Required().Tables() {
		if known[t.Name] {
			continue
		}
		known[t.Name] = true
		if !c.Tables.Has(t.Name) {
			res.violations = append(res.violations, missingTable(t.Name))
			continue
		}
		checkColumns(c, t, false, res)
	}

	for _, t := range leaf.Optional().Tables() {
		if known[t.Name] {
			continue
		}
		known[t.Name] = true
		if !c.Tables.Has(t.Name) {
			res.notices = append(res.notices, newEntry(OptionalTableAbsent, t.Name, "",
				fmt.Sprintf("optional table %q is not present", t.Name)))
			continue
		}
		checkColumns(c, t, true, res)
	}

	declared := leaf.TableNames()
	for _, m := range o.metadata {
		declared = append(declared, m.Name)
	}
	for _, name := range c.Tables.Names() {
		if known[name] {
			continue
		}
		entry := newEntry(UnrecognizedTable, name, "",
			fmt.Sprintf("table %q is not defined for %s", name, leaf.ID()))
		if s := catalog.Suggest(name, declared); len(s) > 0 {
			entry.Suggestion = s[0]
			entry.Message += fmt.Sprintf(" (did you mean %q?)", s[0])
		}
		res.notices = append(res.notices, entry)
	}
	return res
}

// checkColumns holds a present table to its declared columns.
func checkColumns(c *CandidateFile, t catalog.Table, optional bool, res *checkResult) {
	for _, col := range t.Columns.Names() {
		if !c.Tables.HasColumn(t.Name, col) {
			res.violations = append(res.violations, missingColumn(t.Name, col, optional))
		}
	}
	for _, col := range c.Tables.Columns(t.Name) {
		if !t.Columns.Contains(col) {
			res.notices = append(res.notices, unrecognizedColumn(t.Name, col))
		}
	}
}

func missingTable(table string) Violation {
	return newEntry(MissingRequiredTable, table, "", fmt.Sprintf("required table %q is missing", table))
}

func missingColumn(table, column string, optional bool) Violation {
	msg := fmt.Sprintf("table %q is missing required column %q", table, column)
	if optional {
		msg = fmt.Sprintf("optional table %q is present but missing column %q", table, column)
	}
	v := newEntry(MissingRequiredColumn, table, column, msg)
	v.Optional = optional
	return v
}

func unrecognizedColumn(table, column string) Violation {
	return newEntry(UnrecognizedColumn, table, column,
		fmt.Sprintf("column %q is not defined for table %q", column, table))
}

func newEntry(kind Kind, table, column, message string) Violation {
	return Violation{
		Kind:    kind,
		Code:    CodeFor(kind),
		Table:   table,
		Column:  column,
		Message: message,
	}
}
