package core

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
)

func TestObservedTables_KeepsFirstAppearanceOrder(t *testing.T) {
	var o ObservedTables
	o.Add("PROFILE", "Pressure", "Temperature")
	o.Add("FLIGHT_SUMMARY", "TotalO3")
	o.Add("PROFILE", "Temperature", "WindSpeed")

	if got, want := o.Names(), []string{"PROFILE", "FLIGHT_SUMMARY"}; !slices.Equal(got, want) {
		t.Errorf("Names() = %v, want %v", got, want)
	}
	if got, want := o.Columns("PROFILE"), []string{"Pressure", "Temperature", "WindSpeed"}; !slices.Equal(got, want) {
		t.Errorf("Columns(PROFILE) = %v, want %v", got, want)
	}
	if o.Len() != 2 {
		t.Errorf("Len() = %d, want 2", o.Len())
	}
}

func TestObservedTables_Lookups(t *testing.T) {
	var o ObservedTables
	if o.Has("PROFILE") || o.HasColumn("PROFILE", "Pressure") || o.Columns("PROFILE") != nil {
		t.Error("zero value should observe nothing")
	}

	o.Add("PROFILE")
	if !o.Has("PROFILE") {
		t.Error("a table with no header columns is still observed")
	}
	if o.HasColumn("PROFILE", "Pressure") {
		t.Error("HasColumn() = true for a column never added")
	}
}

func TestCandidateFile_JSON(t *testing.T) {
	in := `{
		"dataset": "Spectral",
		"version": "1.0",
		"level": 1,
		"source": "upload.csv",
		"tables": [
			{"name": "GLOBAL", "columns": ["Wavelength", "S-Irradiance"]},
			{"name": "GLOBAL_SUMMARY_NSF", "columns": ["Time"]},
			{"name": "GLOBAL", "columns": ["Time"]}
		],
		"warnings": ["ignored"]
	}`

	var c CandidateFile
	if err := json.Unmarshal([]byte(in), &c); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	want := catalog.Identity{Dataset: "Spectral", Version: "1.0", Level: catalog.Int(1)}
	if !c.Identity.Equal(want) {
		t.Errorf("Identity = %s, want %s", c.Identity, want)
	}
	if c.Source != "upload.csv" {
		t.Errorf("Source = %q", c.Source)
	}
	if c.Warnings != nil {
		t.Errorf("Warnings = %v, must not be read from JSON", c.Warnings)
	}
	if got, want := c.Tables.Columns("GLOBAL"), []string{"Wavelength", "S-Irradiance", "Time"}; !slices.Equal(got, want) {
		t.Errorf("Columns(GLOBAL) = %v, want %v", got, want)
	}

	out, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(out), `"tables":[{"name":"GLOBAL","columns":["Wavelength","S-Irradiance","Time"]}`) {
		t.Errorf("Marshal() = %s", out)
	}
}

func TestCandidateFile_JSONRejectsNamelessTable(t *testing.T) {
	var c CandidateFile
	err := json.Unmarshal([]byte(`{"dataset":"Lidar","version":"1.0","tables":[{"columns":["a"]}]}`), &c)
	if err == nil || !strings.Contains(err.Error(), "missing table name") {
		t.Errorf("Unmarshal() error = %v, want missing table name", err)
	}
}
