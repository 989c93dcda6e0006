package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"gopkg.in/yaml.v3"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

const rejectedFile = `#CONTENT
Class,Category,Level,Form
WOUDC,SurfaceOzone,1.0,1

#TIMESTAMP
UTCOffset,Date
+00:00:00,2024-01-01

#OBSERVATIONS
Date,Time,Flag
2024-01-01,00:00:00,0
`

const metadataOnlyFile = `#CONTENT
Class,Category,Level,Form
WOUDC,OzoneSonde,1.0,1

#DATA_GENERATION
Date,Agency,Version
2024-03-02,MSC,1.0

#PLATFORM
Type,ID,Name,Country
STN,077,Churchill,CAN

#INSTRUMENT
Name,Model,Number
ECC,6A,6A2345

#LOCATION
Latitude,Longitude,Height
58.74,-94.07,35

#TIMESTAMP
UTCOffset,Date
+00:00:00,2024-03-02
`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("CATALOG_PATH", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_URL", "")

	var out bytes.Buffer
	cmd := New("test")
	cmd.Writer = &out
	cmd.ErrWriter = io.Discard
	err := cmd.Run(context.Background(), append([]string{"ecsvctl"}, args...))
	return out.String(), err
}

func testdata(name string) string {
	return filepath.Join("..", "extcsv", "testdata", name)
}

func writeTemp(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestVerify_Passes(t *testing.T) {
	out, err := run(t, "verify", testdata("ozonesonde.csv"))
	if assert.NoError(t, err) {
		assert.Contains(t, out, "PASS  "+testdata("ozonesonde.csv"))
		assert.Contains(t, out, "1 file(s): 1 passed, 0 failed, 0 unreadable")
	}
}

func TestVerify_Rejected(t *testing.T) {
	path := writeTemp(t, "bad.csv", rejectedFile)

	out, err := run(t, "verify", "--no-metadata", path)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, "FAIL  "+path)
	assert.Contains(t, out, `missing required column "SurfaceOzone"`)
}

func TestVerify_LaxChecksOnlyMetadata(t *testing.T) {
	path := writeTemp(t, "metadata.csv", metadataOnlyFile)

	out, err := run(t, "verify", "--lax", path)
	if assert.NoError(t, err) {
		assert.Contains(t, out, "PASS  "+path)
	}

	out, err = run(t, "verify", "-l", path)
	assert.NoError(t, err, out)

	out, err = run(t, "verify", path)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, `required table "FLIGHT_SUMMARY" is missing`)

	// Without the metadata tables lax mode has something to reject.
	bad := writeTemp(t, "bad.csv", rejectedFile)
	out, err = run(t, "verify", "--lax", bad)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, `required table "DATA_GENERATION" is missing`)
	assert.NotContains(t, out, "SurfaceOzone\"")
}

func TestVerify_Unreadable(t *testing.T) {
	path := writeTemp(t, "garbage.csv", "not extended csv\n")

	out, err := run(t, "verify", path)
	assert.ErrorIs(t, err, ErrVerificationFailed)
	assert.Contains(t, out, "ERROR "+path)
}

func TestVerify_JSON(t *testing.T) {
	out, err := run(t, "verify", "--format", "json", testdata("ozonesonde.csv"))
	if !assert.NoError(t, err) {
		return
	}

	var got struct {
		Files []struct {
			Path   string `json:"path"`
			Report struct {
				Outcome string `json:"outcome"`
			} `json:"report"`
		} `json:"files"`
		Passed int `json:"passed"`
	}
	if assert.NoError(t, json.Unmarshal([]byte(out), &got)) {
		assert.Equal(t, 1, got.Passed)
		if assert.Len(t, got.Files, 1) {
			assert.Equal(t, "accepted", got.Files[0].Report.Outcome)
		}
	}
}

func TestVerify_YAML(t *testing.T) {
	path := writeTemp(t, "bad.csv", rejectedFile)
	out, err := run(t, "verify", "-o", "yaml", "--no-metadata", path)
	assert.ErrorIs(t, err, ErrVerificationFailed)

	var got struct {
		Files []struct {
			Report struct {
				Outcome    string `yaml:"outcome"`
				Violations []struct {
					Code   string `yaml:"code"`
					Column string `yaml:"column"`
				} `yaml:"violations"`
			} `yaml:"report"`
		} `yaml:"files"`
		Failed int `yaml:"failed"`
	}
	if assert.NoError(t, yaml.Unmarshal([]byte(out), &got)) {
		assert.Equal(t, 1, got.Failed)
		if assert.Len(t, got.Files, 1) {
			assert.Equal(t, "rejected", got.Files[0].Report.Outcome)
			if assert.Len(t, got.Files[0].Report.Violations, 1) {
				assert.Equal(t, "SurfaceOzone", got.Files[0].Report.Violations[0].Column)
			}
		}
	}
}

func TestVerify_Errors(t *testing.T) {
	_, err := run(t, "verify")
	assert.ErrorContains(t, err, "at least one file")

	_, err = run(t, "verify", "--format", "xml", testdata("ozonesonde.csv"))
	assert.ErrorContains(t, err, "unknown output format")
}

func TestVerify_CatalogFromFile(t *testing.T) {
	defs := writeTemp(t, "tables.yaml", "SurfaceOzone:\n  1.0:\n    1:\n      required: {OBSERVATIONS: [Date, Flag]}\n")
	path := writeTemp(t, "bad.csv", rejectedFile)

	out, err := run(t, "--catalog", defs, "verify", "--no-metadata", path)
	if assert.NoError(t, err) {
		assert.Contains(t, out, "PASS  "+path)
	}
}

func TestIngest_RequiresDatabase(t *testing.T) {
	_, err := run(t, "ingest", testdata("ozonesonde.csv"))
	assert.ErrorContains(t, err, "report store")
}

func TestCatalogList(t *testing.T) {
	out, err := run(t, "catalog", "list")
	if assert.NoError(t, err) {
		assert.Contains(t, out, "DATASET")
		assert.Contains(t, out, "OzoneSonde")
	}

	out, err = run(t, "catalog", "list", "-o", "json")
	if assert.NoError(t, err) {
		var sums []catalog.DatasetSummary
		if assert.NoError(t, json.Unmarshal([]byte(out), &sums)) {
			assert.NotEmpty(t, sums)
		}
	}
}

func TestCatalogShow(t *testing.T) {
	out, err := run(t, "catalog", "show", "OzoneSonde")
	if assert.NoError(t, err) {
		assert.Contains(t, out, "version 1.0")
		assert.Contains(t, out, "FLIGHT_SUMMARY: IntegratedO3")
		assert.Contains(t, out, "PUMP_CORRECTION (optional): Pressure, Correction")
	}

	_, err = run(t, "catalog", "show", "OzoneSonda")
	assert.ErrorIs(t, err, catalog.ErrUnknownDataset)
	assert.ErrorContains(t, err, "OzoneSonde")

	_, err = run(t, "catalog", "show")
	assert.Error(t, err)
}

func TestCatalogResolve(t *testing.T) {
	out, err := run(t, "catalog", "resolve", "-o", "yaml", "Spectral", "1.0", "1", "1")
	if assert.NoError(t, err) {
		var view catalog.LeafView
		if assert.NoError(t, yaml.Unmarshal([]byte(out), &view)) {
			assert.Equal(t, "Spectral", view.Identity.Dataset)
			if assert.NotNil(t, view.Identity.Form) {
				assert.Equal(t, 1, *view.Identity.Form)
			}
		}
	}

	_, err = run(t, "catalog", "resolve", "Spectral", "1.0", "9")
	assert.ErrorIs(t, err, catalog.ErrUnknownLevel)

	_, err = run(t, "catalog", "resolve", "Spectral", "1.0", "one")
	assert.ErrorContains(t, err, "level must be an integer")

	_, err = run(t, "catalog", "resolve", "Spectral")
	assert.ErrorContains(t, err, "usage")
}

func TestCatalogCheck(t *testing.T) {
	good := writeTemp(t, "good.yaml", "X:\n  1.0:\n    required: {A: [a]}\n")
	out, err := run(t, "catalog", "check", good)
	if assert.NoError(t, err) {
		assert.Contains(t, out, "ok, 1 datasets, 1 leaves")
	}

	bad := writeTemp(t, "bad.yaml", "X:\n  1.0:\n    required: {A: []}\n")
	_, err = run(t, "catalog", "check", bad)
	assert.ErrorIs(t, err, catalog.ErrMalformedSchema)
}
