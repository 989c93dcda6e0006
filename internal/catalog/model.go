package catalog

import (
	"maps"
	"slices"

	"github.com/JonMunkholm/woudc-registry/internal/orderedset"
)

// ColumnList is the ordered, duplicate-free list of columns a table must carry.
type ColumnList struct {
	set *orderedset.Set[string]
}

// Names returns the columns in declaration order.
func (c ColumnList) Names() []string { return c.set.Items() }

// Len returns the number of columns.
func (c ColumnList) Len() int { return c.set.Len() }

// Contains reports whether column is declared.
func (c ColumnList) Contains(column string) bool { return c.set.Contains(column) }

// Table is a named table and its required columns.
type Table struct {
	Name    string
	Columns ColumnList
}

// TableSet is an ordered set of tables keyed by name.
type TableSet struct {
	tables []Table
	index  map[string]int
}

func (s *TableSet) add(t Table) bool {
	if s.index == nil {
		s.index = make(map[string]int)
	}
	if _, ok := s.index[t.Name]; ok {
		return false
	}
	s.index[t.Name] = len(s.tables)
	s.tables = append(s.tables, t)
	return true
}

// Len returns the number of tables.
func (s TableSet) Len() int { return len(s.tables) }

// Names returns table names in declaration order.
func (s TableSet) Names() []string {
	names := make([]string, len(s.tables))
	for i, t := range s.tables {
		names[i] = t.Name
	}
	return names
}

// Tables returns the tables in declaration order.
func (s TableSet) Tables() []Table { return slices.Clone(s.tables) }

// Get returns the table called name.
func (s TableSet) Get(name string) (Table, bool) {
	i, ok := s.index[name]
	if !ok {
		return Table{}, false
	}
	return s.tables[i], true
}

// Contains reports whether a table called name is in the set.
func (s TableSet) Contains(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Leaf is the table contract for one fully resolved identity.
type Leaf struct {
	id       Identity
	required TableSet
	optional TableSet
}

// ID returns the keys the leaf is declared under.
func (l *Leaf) ID() Identity { return l.id }

// Required returns the tables a file must contain.
func (l *Leaf) Required() TableSet { return l.required }

// Optional returns the tables a file may contain.
func (l *Leaf) Optional() TableSet { return l.optional }

// Lookup finds a table in either set and reports whether it is required.
func (l *Leaf) Lookup(name string) (t Table, required, ok bool) {
	if t, ok := l.required.Get(name); ok {
		return t, true, true
	}
	if t, ok := l.optional.Get(name); ok {
		return t, false, true
	}
	return Table{}, false, false
}

// TableNames returns required then optional table names.
func (l *Leaf) TableNames() []string {
	return append(l.required.Names(), l.optional.Names()...)
}

// Layout is the shape of a version's subtree. It is one of DirectLeaf,
// ByLevel or ByLevelAndForm.
type Layout interface {
	// Depth is the number of integer keys between the version and its leaves.
	Depth() int
	leaves() []*Leaf
}

// DirectLeaf is a version whose leaf sits directly under the version key.
type DirectLeaf struct {
	leaf *Leaf
}

func (DirectLeaf) Depth() int { return 0 }

// Leaf returns the single leaf.
func (d DirectLeaf) Leaf() *Leaf { return d.leaf }

func (d DirectLeaf) leaves() []*Leaf { return []*Leaf{d.leaf} }

// ByLevel is a version keyed by integer level.
type ByLevel struct {
	levels map[int]*Leaf
}

func (ByLevel) Depth() int { return 1 }

// Levels returns the declared levels in ascending order.
func (b ByLevel) Levels() []int { return slices.Sorted(maps.Keys(b.levels)) }

// Level returns the leaf for level.
func (b ByLevel) Level(level int) (*Leaf, bool) {
	l, ok := b.levels[level]
	return l, ok
}

func (b ByLevel) leaves() []*Leaf {
	out := make([]*Leaf, 0, len(b.levels))
	for _, lv := range b.Levels() {
		out = append(out, b.levels[lv])
	}
	return out
}

// ByLevelAndForm is a version keyed by integer level, then integer form.
type ByLevelAndForm struct {
	levels map[int]map[int]*Leaf
}

func (ByLevelAndForm) Depth() int { return 2 }

// Levels returns the declared levels in ascending order.
func (b ByLevelAndForm) Levels() []int { return slices.Sorted(maps.Keys(b.levels)) }

// Forms returns the forms declared under level in ascending order.
func (b ByLevelAndForm) Forms(level int) []int {
	return slices.Sorted(maps.Keys(b.levels[level]))
}

// Form returns the leaf at level and form.
func (b ByLevelAndForm) Form(level, form int) (*Leaf, bool) {
	forms, ok := b.levels[level]
	if !ok {
		return nil, false
	}
	l, ok := forms[form]
	return l, ok
}

// HasLevel reports whether level is declared.
func (b ByLevelAndForm) HasLevel(level int) bool {
	_, ok := b.levels[level]
	return ok
}

func (b ByLevelAndForm) leaves() []*Leaf {
	var out []*Leaf
	for _, lv := range b.Levels() {
		for _, f := range b.Forms(lv) {
			out = append(out, b.levels[lv][f])
		}
	}
	return out
}

// Version is one declared version of a dataset.
type Version struct {
	name   string
	key    versionKey
	layout Layout
}

// Name returns the version exactly as declared.
func (v *Version) Name() string { return v.name }

// Layout returns the version's subtree.
func (v *Version) Layout() Layout { return v.layout }

// Leaves returns every leaf under the version, ordered by level then form.
func (v *Version) Leaves() []*Leaf { return v.layout.leaves() }

// Dataset is a named dataset and its versions.
type Dataset struct {
	name     string
	versions []*Version // ascending
	byName   map[string]*Version
}

// Name returns the dataset name.
func (d *Dataset) Name() string { return d.name }

// Versions returns the versions in ascending numeric order.
func (d *Dataset) Versions() []*Version { return slices.Clone(d.versions) }

// VersionNames returns the declared version strings in ascending order.
func (d *Dataset) VersionNames() []string {
	out := make([]string, len(d.versions))
	for i, v := range d.versions {
		out[i] = v.name
	}
	return out
}

// Version returns the version declared exactly as name.
func (d *Dataset) Version(name string) (*Version, bool) {
	v, ok := d.byName[name]
	return v, ok
}

// Catalog is an immutable set of dataset definitions.
type Catalog struct {
	datasets    map[string]*Dataset
	order       []string
	fingerprint string
}

// Datasets returns dataset names in declaration order.
func (c *Catalog) Datasets() []string { return slices.Clone(c.order) }

// Dataset returns the dataset called name. Names are case-sensitive.
func (c *Catalog) Dataset(name string) (*Dataset, bool) {
	d, ok := c.datasets[name]
	return d, ok
}

// Leaves returns every leaf in the catalog: datasets in declaration order,
// versions ascending, then levels and forms ascending.
func (c *Catalog) Leaves() []*Leaf {
	var out []*Leaf
	for _, name := range c.order {
		for _, v := range c.datasets[name].versions {
			out = append(out, v.Leaves()...)
		}
	}
	return out
}

// Fingerprint identifies the source bytes the catalog was built from.
func (c *Catalog) Fingerprint() string { return c.fingerprint }
