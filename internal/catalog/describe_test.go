package catalog

import (
	"errors"
	"testing"
)

func TestSummaries_DeclarationOrder(t *testing.T) {
	cat := mustEmbedded(t)
	sums := cat.Summaries()

	if len(sums) != len(cat.Datasets()) {
		t.Fatalf("len(Summaries()) = %d, want %d", len(sums), len(cat.Datasets()))
	}
	for i, name := range cat.Datasets() {
		if sums[i].Name != name {
			t.Errorf("Summaries()[%d] = %q, want %q", i, sums[i].Name, name)
		}
		if len(sums[i].Versions) == 0 {
			t.Errorf("%s has no versions", name)
		}
	}
}

func TestDescribe_CoversEveryLeaf(t *testing.T) {
	cat := mustEmbedded(t)

	total := 0
	for _, name := range cat.Datasets() {
		ds, _ := cat.Dataset(name)
		view := ds.Describe()
		if view.Name != name {
			t.Errorf("Describe().Name = %q, want %q", view.Name, name)
		}
		for _, v := range view.Versions {
			for _, leaf := range v.Leaves {
				if leaf.Identity.Dataset != name || leaf.Identity.Version != v.Name {
					t.Errorf("leaf %s listed under %s %s", leaf.Identity, name, v.Name)
				}
				if len(leaf.Required)+len(leaf.Optional) == 0 {
					t.Errorf("leaf %s has no tables", leaf.Identity)
				}
				total++
			}
		}
	}
	if total != len(cat.Leaves()) {
		t.Errorf("described %d leaves, catalog has %d", total, len(cat.Leaves()))
	}
}

func TestLeafDescribe_KeepsColumnOrder(t *testing.T) {
	cat, err := Build([]byte("X:\n  1.0:\n    required: {T: [c, a, b]}\n    optional: {U: [z]}\n"))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	leaf, err := cat.Resolve(Identity{Dataset: "X", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	view := leaf.Describe()
	if len(view.Required) != 1 || view.Required[0].Name != "T" {
		t.Fatalf("Required = %+v", view.Required)
	}
	got := view.Required[0].Columns
	if len(got) != 3 || got[0] != "c" || got[1] != "a" || got[2] != "b" {
		t.Errorf("Columns = %v, want [c a b]", got)
	}
	if len(view.Optional) != 1 || view.Optional[0].Name != "U" {
		t.Errorf("Optional = %+v", view.Optional)
	}
}

func TestUnknownDataset(t *testing.T) {
	cat := mustEmbedded(t)
	err := cat.UnknownDataset("OzoneSnde")

	if !errors.Is(err, ErrUnknownDataset) {
		t.Fatalf("error = %v, want ErrUnknownDataset", err)
	}
	if len(err.Suggestions) == 0 || err.Suggestions[0] != "OzoneSonde" {
		t.Errorf("Suggestions = %v, want OzoneSonde first", err.Suggestions)
	}
}
