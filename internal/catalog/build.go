package catalog

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/woudc-registry/internal/orderedset"
)

const (
	keyRequired = "required"
	keyOptional = "optional"
)

// Build parses a YAML definitions document into a Catalog.
//
// The whole document is checked before returning, so a *SchemaError lists
// every problem rather than the first one.
func Build(source []byte) (*Catalog, error) {
	return build(source, "")
}

// Load reads r to the end and builds a Catalog from it.
func Load(r io.Reader) (*Catalog, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read schema source: %w", err)
	}
	return Build(data)
}

func build(source []byte, name string) (*Catalog, error) {
	if len(bytes.TrimSpace(source)) == 0 {
		return nil, &SchemaError{Source: name, Problems: []string{"source is empty"}}
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(source, &doc); err != nil {
		return nil, &SchemaError{Source: name, Problems: []string{err.Error()}}
	}

	b := &builder{}
	cat := b.catalog(&doc)
	if len(b.problems) > 0 {
		return nil, &SchemaError{Source: name, Problems: b.problems}
	}

	sum := sha256.Sum256(source)
	cat.fingerprint = hex.EncodeToString(sum[:])
	return cat, nil
}

// builder accumulates problems while walking the YAML tree.
type builder struct {
	problems []string
}

func (b *builder) fail(path, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if path != "" {
		msg = path + ": " + msg
	}
	b.problems = append(b.problems, msg)
}

func (b *builder) catalog(doc *yaml.Node) *Catalog {
	root := doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	root = deref(root)

	if root.Kind != yaml.MappingNode {
		b.fail("", "top level must map dataset names to versions (line %d)", root.Line)
		return nil
	}

	cat := &Catalog{datasets: make(map[string]*Dataset)}
	for _, p := range pairs(root) {
		name := p.key.Value
		if name == "" {
			b.fail("", "empty dataset name (line %d)", p.key.Line)
			continue
		}
		if _, dup := cat.datasets[name]; dup {
			b.fail(name, "dataset declared twice (line %d)", p.key.Line)
			continue
		}
		if ds := b.dataset(name, p.value); ds != nil {
			cat.datasets[name] = ds
			cat.order = append(cat.order, name)
		}
	}

	if len(cat.order) == 0 && len(b.problems) == 0 {
		b.fail("", "no datasets declared")
	}
	return cat
}

func (b *builder) dataset(name string, n *yaml.Node) *Dataset {
	if n.Kind != yaml.MappingNode || len(n.Content) == 0 {
		b.fail(name, "must declare at least one version (line %d)", n.Line)
		return nil
	}

	ds := &Dataset{name: name, byName: make(map[string]*Version)}
	for _, p := range pairs(n) {
		vname := p.key.Value
		path := name + "/" + vname

		key, err := parseVersion(vname)
		if err != nil {
			b.fail(path, "%v (line %d)", err, p.key.Line)
			continue
		}
		if clash := findVersion(ds.versions, key); clash != nil {
			b.fail(path, "version is the same as %q (line %d)", clash.name, p.key.Line)
			continue
		}

		layout := b.layout(Identity{Dataset: name, Version: vname}, path, p.value)
		if layout == nil {
			continue
		}

		v := &Version{name: vname, key: key, layout: layout}
		ds.versions = append(ds.versions, v)
		ds.byName[vname] = v
	}

	if len(ds.versions) == 0 {
		return nil
	}
	slices.SortFunc(ds.versions, func(a, b *Version) int {
		return compareVersionKeys(a.key, b.key)
	})
	return ds
}

func findVersion(versions []*Version, key versionKey) *Version {
	for _, v := range versions {
		if compareVersionKeys(v.key, key) == 0 {
			return v
		}
	}
	return nil
}

// layout discovers the depth of a version subtree.
func (b *builder) layout(id Identity, path string, n *yaml.Node) Layout {
	if n.Kind != yaml.MappingNode {
		b.fail(path, "must be a leaf or a mapping of integer levels (line %d)", n.Line)
		return nil
	}
	if isLeaf(n) {
		leaf := b.leaf(id, path, n)
		if leaf == nil {
			return nil
		}
		return DirectLeaf{leaf: leaf}
	}

	levelLeaves := make(map[int]*Leaf)
	levelForms := make(map[int]map[int]*Leaf)
	var leafLevels, formLevels []int
	ok := true

	for _, p := range pairs(n) {
		level, err := intKey(p.key)
		if err != nil {
			b.fail(path, "level key %q is not an integer (line %d)", p.key.Value, p.key.Line)
			ok = false
			continue
		}
		lpath := fmt.Sprintf("%s/level %d", path, level)
		if _, dup := levelLeaves[level]; dup || levelForms[level] != nil {
			b.fail(lpath, "level declared twice (line %d)", p.key.Line)
			ok = false
			continue
		}

		lid := id.WithLevel(level)
		switch {
		case p.value.Kind == yaml.MappingNode && isLeaf(p.value):
			leafLevels = append(leafLevels, level)
			if leaf := b.leaf(lid, lpath, p.value); leaf != nil {
				levelLeaves[level] = leaf
			} else {
				ok = false
			}
		case p.value.Kind == yaml.MappingNode && len(p.value.Content) > 0:
			formLevels = append(formLevels, level)
			if forms := b.forms(lid, lpath, p.value); forms != nil {
				levelForms[level] = forms
			} else {
				ok = false
			}
		default:
			b.fail(lpath, "must be a leaf or a mapping of integer forms (line %d)", p.value.Line)
			ok = false
		}
	}

	if len(leafLevels) > 0 && len(formLevels) > 0 {
		b.fail(path, "mixes depths: levels %s hold leaves but levels %s hold forms",
			joinInts(leafLevels), joinInts(formLevels))
		return nil
	}
	if !ok {
		return nil
	}
	if len(levelForms) > 0 {
		return ByLevelAndForm{levels: levelForms}
	}
	if len(levelLeaves) == 0 {
		b.fail(path, "declares no levels (line %d)", n.Line)
		return nil
	}
	return ByLevel{levels: levelLeaves}
}

func (b *builder) forms(id Identity, path string, n *yaml.Node) map[int]*Leaf {
	forms := make(map[int]*Leaf)
	ok := true
	for _, p := range pairs(n) {
		form, err := intKey(p.key)
		if err != nil {
			b.fail(path, "form key %q is not an integer (line %d)", p.key.Value, p.key.Line)
			ok = false
			continue
		}
		fpath := fmt.Sprintf("%s/form %d", path, form)
		if _, dup := forms[form]; dup {
			b.fail(fpath, "form declared twice (line %d)", p.key.Line)
			ok = false
			continue
		}
		if p.value.Kind != yaml.MappingNode || !isLeaf(p.value) {
			b.fail(fpath, "must be a leaf with required or optional tables (line %d)", p.value.Line)
			ok = false
			continue
		}
		leaf := b.leaf(id.WithForm(form), fpath, p.value)
		if leaf == nil {
			ok = false
			continue
		}
		forms[form] = leaf
	}
	if !ok {
		return nil
	}
	return forms
}

func (b *builder) leaf(id Identity, path string, n *yaml.Node) *Leaf {
	leaf := &Leaf{id: id}
	before := len(b.problems)

	for _, p := range pairs(n) {
		switch p.key.Value {
		case keyRequired:
			leaf.required = b.tables(path+"/"+keyRequired, p.value)
		case keyOptional:
			leaf.optional = b.tables(path+"/"+keyOptional, p.value)
		default:
			b.fail(path, "unexpected key %q beside required/optional (line %d)", p.key.Value, p.key.Line)
		}
	}

	if leaf.required.Len() == 0 && leaf.optional.Len() == 0 && len(b.problems) == before {
		b.fail(path, "declares neither required nor optional tables")
	}
	for _, name := range leaf.optional.Names() {
		if leaf.required.Contains(name) {
			b.fail(path, "table %q is both required and optional", name)
		}
	}

	if len(b.problems) > before {
		return nil
	}
	return leaf
}

func (b *builder) tables(path string, n *yaml.Node) TableSet {
	var set TableSet
	if isNull(n) {
		return set
	}
	if n.Kind != yaml.MappingNode {
		b.fail(path, "must map table names to column lists (line %d)", n.Line)
		return set
	}

	for _, p := range pairs(n) {
		name := p.key.Value
		tpath := path + "/" + name
		if name == "" {
			b.fail(path, "empty table name (line %d)", p.key.Line)
			continue
		}
		cols, ok := b.columns(tpath, p.value)
		if !ok {
			continue
		}
		if !set.add(Table{Name: name, Columns: cols}) {
			b.fail(tpath, "table listed twice (line %d)", p.key.Line)
		}
	}
	return set
}

func (b *builder) columns(path string, n *yaml.Node) (ColumnList, bool) {
	if n.Kind != yaml.SequenceNode {
		b.fail(path, "columns must be a list (line %d)", n.Line)
		return ColumnList{}, false
	}
	if len(n.Content) == 0 {
		b.fail(path, "column list is empty")
		return ColumnList{}, false
	}

	set := &orderedset.Set[string]{}
	ok := true
	for _, item := range n.Content {
		item = deref(item)
		if item.Kind != yaml.ScalarNode || strings.TrimSpace(item.Value) == "" {
			b.fail(path, "column names must be non-empty strings (line %d)", item.Line)
			ok = false
			continue
		}
		if !set.Add(item.Value) {
			b.fail(path, "column %q listed twice (line %d)", item.Value, item.Line)
			ok = false
		}
	}
	return ColumnList{set: set}, ok
}

type pair struct {
	key, value *yaml.Node
}

// pairs flattens a mapping node into key/value pairs with aliases resolved and
// merge keys ("<<") expanded. Explicit keys override merged ones.
func pairs(n *yaml.Node) []pair {
	var merged, explicit []pair
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], deref(n.Content[i+1])
		if k.Tag == "!!merge" {
			switch v.Kind {
			case yaml.MappingNode:
				merged = append(merged, pairs(v)...)
			case yaml.SequenceNode:
				for _, m := range v.Content {
					if m = deref(m); m.Kind == yaml.MappingNode {
						merged = append(merged, pairs(m)...)
					}
				}
			}
			continue
		}
		explicit = append(explicit, pair{key: k, value: v})
	}
	if len(merged) == 0 {
		return explicit
	}

	seen := make(map[string]bool, len(explicit))
	for _, p := range explicit {
		seen[p.key.Value] = true
	}
	out := make([]pair, 0, len(merged)+len(explicit))
	for _, p := range merged {
		if !seen[p.key.Value] {
			seen[p.key.Value] = true
			out = append(out, p)
		}
	}
	return append(out, explicit...)
}

func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}

func isNull(n *yaml.Node) bool {
	return n.Kind == yaml.ScalarNode && n.Tag == "!!null"
}

func isLeaf(n *yaml.Node) bool {
	for _, p := range pairs(n) {
		if p.key.Value == keyRequired || p.key.Value == keyOptional {
			return true
		}
	}
	return false
}

func intKey(n *yaml.Node) (int, error) {
	if n.Kind != yaml.ScalarNode {
		return 0, fmt.Errorf("not a scalar")
	}
	return strconv.Atoi(strings.TrimSpace(n.Value))
}

func joinInts(vs []int) string {
	parts := make([]string, len(vs))
	for i, v := range vs {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}
