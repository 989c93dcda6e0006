package catalog

import "strconv"

// View types render the catalog for API responses and CLI output.

// DatasetSummary names a dataset and its versions.
type DatasetSummary struct {
	Name     string   `json:"name" yaml:"name"`
	Versions []string `json:"versions" yaml:"versions"`
}

// TableView is a table and its columns in declaration order.
type TableView struct {
	Name    string   `json:"name" yaml:"name"`
	Columns []string `json:"columns" yaml:"columns"`
}

// LeafView is the table contract for one identity.
type LeafView struct {
	Identity Identity    `json:"identity" yaml:"identity"`
	Required []TableView `json:"required" yaml:"required"`
	Optional []TableView `json:"optional,omitempty" yaml:"optional,omitempty"`
}

// VersionView is one version and every leaf under it.
type VersionView struct {
	Name   string     `json:"name" yaml:"name"`
	Depth  int        `json:"depth" yaml:"depth"`
	Leaves []LeafView `json:"leaves" yaml:"leaves"`
}

// DatasetView is a dataset with its full contract tree.
type DatasetView struct {
	Name     string        `json:"name" yaml:"name"`
	Versions []VersionView `json:"versions" yaml:"versions"`
}

// Summaries lists every dataset in declaration order.
func (c *Catalog) Summaries() []DatasetSummary {
	out := make([]DatasetSummary, 0, len(c.order))
	for _, name := range c.order {
		out = append(out, DatasetSummary{Name: name, Versions: c.datasets[name].VersionNames()})
	}
	return out
}

// Describe renders the dataset and all its leaves.
func (d *Dataset) Describe() DatasetView {
	view := DatasetView{Name: d.name, Versions: make([]VersionView, 0, len(d.versions))}
	for _, v := range d.versions {
		vv := VersionView{Name: v.name, Depth: v.layout.Depth()}
		for _, leaf := range v.Leaves() {
			vv.Leaves = append(vv.Leaves, leaf.Describe())
		}
		view.Versions = append(view.Versions, vv)
	}
	return view
}

// Describe renders the leaf's tables.
func (l *Leaf) Describe() LeafView {
	return LeafView{
		Identity: l.id,
		Required: describeTables(l.required),
		Optional: describeTables(l.optional),
	}
}

func describeTables(s TableSet) []TableView {
	if s.Len() == 0 {
		return nil
	}
	out := make([]TableView, 0, s.Len())
	for _, t := range s.tables {
		out = append(out, TableView{Name: t.Name, Columns: t.Columns.Names()})
	}
	return out
}

// UnknownDataset returns the resolution error for a dataset name that is not
// in the catalog, with spelling suggestions.
func (c *Catalog) UnknownDataset(name string) *ResolutionError {
	return &ResolutionError{
		Kind:        ErrUnknownDataset,
		Identity:    Identity{Dataset: name},
		Detail:      strconv.Quote(name),
		Suggestions: Suggest(name, c.order),
	}
}
