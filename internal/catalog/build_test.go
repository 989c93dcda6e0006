package catalog

import (
	"errors"
	"slices"
	"strings"
	"testing"
)

func TestBuild_Embedded(t *testing.T) {
	cat, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}

	want := []string{
		"Broad-band", "Lidar", "Multi-band", "OzoneSonde", "RocketSonde",
		"Spectral", "SurfaceOzone", "TotalOzone", "TotalOzoneObs", "UmkehrN14",
	}
	if got := cat.Datasets(); !slices.Equal(got, want) {
		t.Errorf("Datasets() = %v, want %v", got, want)
	}
	if cat.Fingerprint() == "" {
		t.Error("Fingerprint() should not be empty")
	}
}

func TestBuild_DiscoversDepth(t *testing.T) {
	cat, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}

	tests := []struct {
		dataset, version string
		depth            int
	}{
		{"OzoneSonde", "1.0", 0},
		{"Lidar", "1.0", 0},
		{"TotalOzone", "1.0", 1},
		{"UmkehrN14", "2.0", 1},
		{"Spectral", "1.0", 2},
		{"Broad-band", "1.0", 2},
	}

	for _, tt := range tests {
		ds, ok := cat.Dataset(tt.dataset)
		if !ok {
			t.Fatalf("dataset %s missing", tt.dataset)
		}
		v, ok := ds.Version(tt.version)
		if !ok {
			t.Fatalf("%s version %s missing", tt.dataset, tt.version)
		}
		if got := v.Layout().Depth(); got != tt.depth {
			t.Errorf("%s %s depth = %d, want %d", tt.dataset, tt.version, got, tt.depth)
		}
	}
}

func TestBuild_PreservesColumnOrder(t *testing.T) {
	cat, err := Embedded()
	if err != nil {
		t.Fatalf("Embedded() error = %v", err)
	}

	leaf, err := cat.Resolve(Identity{Dataset: "OzoneSonde", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	if got := leaf.Required().Names(); !slices.Equal(got, []string{"FLIGHT_SUMMARY", "PROFILE"}) {
		t.Errorf("required tables = %v", got)
	}
	if got := leaf.Optional().Names(); !slices.Equal(got, []string{"AUXILIARY_DATA", "PUMP_CORRECTION"}) {
		t.Errorf("optional tables = %v", got)
	}

	profile, _ := leaf.Required().Get("PROFILE")
	want := []string{
		"Pressure", "O3PartialPressure", "Temperature", "WindSpeed", "WindDirection",
		"LevelCode", "Duration", "GPHeight", "RelativeHumidity", "SampleTemperature",
	}
	if got := profile.Columns.Names(); !slices.Equal(got, want) {
		t.Errorf("PROFILE columns = %v, want %v", got, want)
	}

	summary, _ := leaf.Required().Get("FLIGHT_SUMMARY")
	if summary.Columns.Len() != 9 {
		t.Errorf("FLIGHT_SUMMARY has %d columns, want 9", summary.Columns.Len())
	}
}

func TestBuild_VersionsSortedNumerically(t *testing.T) {
	src := `
X:
  1.10:
    required: {A: [a]}
  1.2:
    required: {A: [a]}
  1.9:
    required: {A: [a]}
`
	cat, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	ds, _ := cat.Dataset("X")
	if got := ds.VersionNames(); !slices.Equal(got, []string{"1.2", "1.9", "1.10"}) {
		t.Errorf("VersionNames() = %v", got)
	}
}

func TestBuild_TableNamesWithSymbols(t *testing.T) {
	src := `
X:
  1.0:
    required:
      "#ODD": [a]
      HYPHEN-TABLE: [S-Irradiance]
`
	cat, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	leaf, err := cat.Resolve(Identity{Dataset: "X", Version: "1.0"})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !leaf.Required().Contains("#ODD") || !leaf.Required().Contains("HYPHEN-TABLE") {
		t.Errorf("required = %v", leaf.Required().Names())
	}
}

func TestBuild_AliasesAndMergeKeys(t *testing.T) {
	src := `
X:
  1.0:
    1:
      required: &base
        A: &cols [a, b]
        B: [c]
    2:
      required:
        <<: *base
        C: *cols
`
	cat, err := Build([]byte(src))
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	leaf, err := cat.Resolve(Identity{Dataset: "X", Version: "1.0", Level: Int(2)})
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got := leaf.Required().Names(); !slices.Equal(got, []string{"A", "B", "C"}) {
		t.Errorf("required = %v, want [A B C]", got)
	}
	c, _ := leaf.Required().Get("C")
	if !slices.Equal(c.Columns.Names(), []string{"a", "b"}) {
		t.Errorf("C columns = %v", c.Columns.Names())
	}
}

func TestBuild_OptionalOnlyLeaf(t *testing.T) {
	src := `
X:
  1.0:
    required:
    optional:
      A: [a]
`
	if _, err := Build([]byte(src)); err != nil {
		t.Fatalf("Build() error = %v", err)
	}
}

func TestBuild_Malformed(t *testing.T) {
	tests := []struct {
		name    string
		src     string
		wantMsg string
	}{
		{
			name:    "empty source",
			src:     "   \n",
			wantMsg: "source is empty",
		},
		{
			name:    "not yaml",
			src:     "X: [unclosed",
			wantMsg: "yaml",
		},
		{
			name:    "top level is a list",
			src:     "- a\n- b\n",
			wantMsg: "top level must map dataset names",
		},
		{
			name:    "dataset without versions",
			src:     "X: {}\n",
			wantMsg: "must declare at least one version",
		},
		{
			name: "mixed depth",
			src: `
X:
  1.0:
    1:
      required: {A: [a]}
    2:
      1:
        required: {A: [a]}
`,
			wantMsg: "mixes depths",
		},
		{
			name: "empty leaf",
			src: `
X:
  1.0:
    required: {}
    optional: {}
`,
			wantMsg: "neither required nor optional",
		},
		{
			name: "table in both sets",
			src: `
X:
  1.0:
    required: {A: [a]}
    optional: {A: [a]}
`,
			wantMsg: `table "A" is both required and optional`,
		},
		{
			name: "empty column list",
			src: `
X:
  1.0:
    required: {A: []}
`,
			wantMsg: "column list is empty",
		},
		{
			name: "duplicate column",
			src: `
X:
  1.0:
    required: {A: [a, a]}
`,
			wantMsg: `column "a" listed twice`,
		},
		{
			name: "bad version key",
			src: `
X:
  v1:
    required: {A: [a]}
`,
			wantMsg: "invalid version",
		},
		{
			name: "numerically equal versions",
			src: `
X:
  "1":
    required: {A: [a]}
  "1.0":
    required: {A: [a]}
`,
			wantMsg: `version is the same as "1"`,
		},
		{
			name: "non integer level",
			src: `
X:
  1.0:
    one:
      required: {A: [a]}
`,
			wantMsg: `level key "one" is not an integer`,
		},
		{
			name: "unexpected leaf key",
			src: `
X:
  1.0:
    required: {A: [a]}
    extra: {B: [b]}
`,
			wantMsg: `unexpected key "extra"`,
		},
		{
			name: "too deep",
			src: `
X:
  1.0:
    1:
      1:
        1:
          required: {A: [a]}
`,
			wantMsg: "must be a leaf with required or optional tables",
		},
		{
			name: "columns not a list",
			src: `
X:
  1.0:
    required: {A: a}
`,
			wantMsg: "columns must be a list",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build([]byte(tt.src))
			if err == nil {
				t.Fatal("Build() expected error")
			}
			if !errors.Is(err, ErrMalformedSchema) {
				t.Errorf("error should wrap ErrMalformedSchema: %v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMsg) {
				t.Errorf("error = %q, want it to contain %q", err.Error(), tt.wantMsg)
			}
		})
	}
}

func TestBuild_ReportsEveryProblem(t *testing.T) {
	src := `
X:
  1.0:
    required: {A: []}
Y:
  1.0:
    required: {A: [a]}
    optional: {A: [a]}
`
	_, err := Build([]byte(src))

	var schemaErr *SchemaError
	if !errors.As(err, &schemaErr) {
		t.Fatalf("error = %v, want *SchemaError", err)
	}
	if len(schemaErr.Problems) != 2 {
		t.Fatalf("got %d problems, want 2: %v", len(schemaErr.Problems), schemaErr.Problems)
	}
	if !strings.HasPrefix(schemaErr.Problems[0], "X/1.0") {
		t.Errorf("first problem = %q, want it under X/1.0", schemaErr.Problems[0])
	}
	if !strings.HasPrefix(schemaErr.Problems[1], "Y/1.0") {
		t.Errorf("second problem = %q, want it under Y/1.0", schemaErr.Problems[1])
	}
}

func TestBuild_IndependentCatalogs(t *testing.T) {
	a, err := Build([]byte("A:\n  1.0:\n    required: {T: [c]}\n"))
	if err != nil {
		t.Fatalf("Build(a) error = %v", err)
	}
	b, err := Build([]byte("B:\n  1.0:\n    required: {T: [c]}\n"))
	if err != nil {
		t.Fatalf("Build(b) error = %v", err)
	}

	if _, ok := a.Dataset("B"); ok {
		t.Error("catalog a should not see dataset B")
	}
	if _, ok := b.Dataset("A"); ok {
		t.Error("catalog b should not see dataset A")
	}
	if a.Fingerprint() == b.Fingerprint() {
		t.Error("different sources should have different fingerprints")
	}
}
