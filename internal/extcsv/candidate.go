package extcsv

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/woudc-registry/internal/catalog"
	"github.com/JonMunkholm/woudc-registry/internal/core"
)

var (
	// ErrMissingContent is returned when CONTENT or one of its identity
	// fields is absent.
	ErrMissingContent = errors.New("CONTENT table is missing or incomplete")

	// ErrInvalidForm is returned when CONTENT.Form is not an integer.
	ErrInvalidForm = errors.New("invalid form")
)

// DefaultVersion is assumed when CONTENT.Level is empty.
const DefaultVersion = "1.0"

func (f *File) hasMetadata() bool {
	for _, m := range core.DefaultMetadataTables {
		if _, ok := f.Table(m.Name); ok {
			return true
		}
	}
	return false
}

// Identity reads the declared identity from the CONTENT table.
//
// CONTENT.Category names the dataset. CONTENT.Level is the format version
// and CONTENT.Form the level. The form is never declared by the file. The
// returned warnings describe values that had to be normalised.
func (f *File) Identity() (catalog.Identity, []string, error) {
	var (
		id       catalog.Identity
		warnings []string
	)

	if _, ok := f.Table("CONTENT"); !ok {
		return id, nil, ErrMissingContent
	}

	category, _ := f.Value("CONTENT", "Category")
	if category == "" {
		return id, nil, fmt.Errorf("%w: CONTENT.Category is empty", ErrMissingContent)
	}
	id.Dataset = category

	version, _ := f.Value("CONTENT", "Level")
	switch {
	case version == "":
		version = DefaultVersion
		if category == "UmkehrN14" {
			if _, ok := f.Table("C_PROFILE"); ok {
				version = "2.0"
			}
		}
		warnings = append(warnings, fmt.Sprintf("CONTENT.Level is empty; assumed %q", version))
	case isDigits(version):
		n, _ := strconv.Atoi(version)
		normalised := strconv.Itoa(n) + ".0"
		warnings = append(warnings, fmt.Sprintf("CONTENT.Level %q normalised to %q", version, normalised))
		version = normalised
	}
	id.Version = version

	if form, _ := f.Value("CONTENT", "Form"); form != "" {
		if !isDigits(form) {
			return id, nil, fmt.Errorf("%w: CONTENT.Form %q is not an integer", ErrInvalidForm, form)
		}
		n, err := strconv.Atoi(form)
		if err != nil {
			return id, nil, fmt.Errorf("%w: CONTENT.Form %q: %v", ErrInvalidForm, form, err)
		}
		if strconv.Itoa(n) != form {
			warnings = append(warnings, fmt.Sprintf("CONTENT.Form %q read as %d", form, n))
		}
		id.Level = catalog.Int(n)
	}

	return id, warnings, nil
}

// Candidate returns the structure of f for validation. Repeated tables are
// merged into the union of their header columns.
func (f *File) Candidate() (*core.CandidateFile, error) {
	id, warnings, err := f.Identity()
	if err != nil {
		return nil, err
	}

	c := core.NewCandidate(id)
	c.Source = f.name
	c.Warnings = warnings
	for _, t := range f.tables {
		c.AddTable(t.Name, t.Header...)
	}
	return c, nil
}

// CanonicalFilename returns the WOUDC archive name of the file:
// date.instrument-name.model.number.agency.csv, with spaces replaced by
// dashes. A missing instrument number is written as "na".
func (f *File) CanonicalFilename() (string, error) {
	date, _ := f.Value("TIMESTAMP", "Date")
	ts, err := time.Parse("2006-01-02", date)
	if err != nil {
		return "", fmt.Errorf("TIMESTAMP.Date %q: %w", date, err)
	}

	name, _ := f.Value("INSTRUMENT", "Name")
	model, _ := f.Value("INSTRUMENT", "Model")
	agency, _ := f.Value("DATA_GENERATION", "Agency")
	if name == "" || model == "" || agency == "" {
		return "", errors.New("INSTRUMENT.Name, INSTRUMENT.Model and DATA_GENERATION.Agency are required")
	}
	number, _ := f.Value("INSTRUMENT", "Number")
	if number == "" {
		number = "na"
	}

	out := strings.Join([]string{ts.Format("20060102"), name, model, number, agency, "csv"}, ".")
	return strings.ReplaceAll(out, " ", "-"), nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
