package extcsv

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

var (
	// ErrEmptyFile is returned for input with no content.
	ErrEmptyFile = errors.New("empty file")

	// ErrNotExtendedCSV is returned when the input has no tables, or none of
	// the core metadata tables.
	ErrNotExtendedCSV = errors.New("not an extended CSV file")
)

// Encodings reported by File.Encoding.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// ParseError locates a structural problem in the input.
type ParseError struct {
	Line int
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Table is one occurrence of a table in a file.
type Table struct {
	Name   string
	Line   int // line of the #NAME marker
	Header []string
	Rows   [][]string
}

// Index returns the position of field in the header, or -1.
func (t *Table) Index(field string) int {
	return slices.Index(t.Header, field)
}

// Value returns field of the first data row. ok is false if the field is not
// in the header or the table has no rows.
func (t *Table) Value(field string) (value string, ok bool) {
	i := t.Index(field)
	if i < 0 || len(t.Rows) == 0 {
		return "", false
	}
	row := t.Rows[0]
	if i >= len(row) {
		return "", true
	}
	return row[i], true
}

// File is a parsed extended CSV file.
type File struct {
	name     string
	encoding string
	tables   []*Table
	byName   map[string][]*Table
}

// Name returns the file name given to ParseFile, or "".
func (f *File) Name() string { return f.name }

// Encoding returns the encoding the input was decoded from.
func (f *File) Encoding() string { return f.encoding }

// Tables returns every table occurrence in file order.
func (f *File) Tables() []*Table { return slices.Clone(f.tables) }

// Names returns the distinct table names in order of first appearance.
func (f *File) Names() []string {
	var names []string
	for _, t := range f.tables {
		if len(f.byName[t.Name]) > 0 && f.byName[t.Name][0] == t {
			names = append(names, t.Name)
		}
	}
	return names
}

// Table returns the first occurrence of name.
func (f *File) Table(name string) (*Table, bool) {
	occ := f.byName[name]
	if len(occ) == 0 {
		return nil, false
	}
	return occ[0], true
}

// Occurrences returns every occurrence of name in file order.
func (f *File) Occurrences(name string) []*Table {
	return slices.Clone(f.byName[name])
}

// Value returns field of the first row of the first occurrence of table.
func (f *File) Value(table, field string) (string, bool) {
	t, ok := f.Table(table)
	if !ok {
		return "", false
	}
	return t.Value(field)
}

// ParseFile reads and parses the file at path.
func ParseFile(path string) (*File, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer fh.Close()

	f, err := Parse(fh)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	f.name = path
	return f, nil
}

// ParseNamed parses r and records name as the file name.
func ParseNamed(name string, r io.Reader) (*File, error) {
	f, err := Parse(r)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	f.name = name
	return f, nil
}

// Parse reads an extended CSV file from r.
//
// Input that is not valid UTF-8 is decoded as Windows-1252. A UTF-8 byte
// order mark is dropped.
func Parse(r io.Reader) (*File, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyFile
	}

	text, enc, err := decode(raw)
	if err != nil {
		return nil, err
	}

	f := &File{encoding: enc, byName: make(map[string][]*Table)}
	if err := f.read(text); err != nil {
		return nil, err
	}
	if len(f.tables) == 0 {
		return nil, fmt.Errorf("%w: no #TABLE markers found", ErrNotExtendedCSV)
	}
	if !f.hasMetadata() {
		return nil, fmt.Errorf("%w: none of the core metadata tables present", ErrNotExtendedCSV)
	}
	return f, nil
}

func decode(raw []byte) ([]byte, string, error) {
	if utf8.Valid(raw) {
		out, _, err := transform.Bytes(unicode.UTF8BOM.NewDecoder(), raw)
		if err != nil {
			return nil, "", fmt.Errorf("encoding error: %w", err)
		}
		return out, EncodingUTF8, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(raw)
	if err != nil {
		return nil, "", fmt.Errorf("encoding error: %w", err)
	}
	return out, EncodingWindows1252, nil
}

func (f *File) read(text []byte) error {
	r := csv.NewReader(bytes.NewReader(text))
	r.FieldsPerRecord = -1
	r.LazyQuotes = true
	r.Comment = '*'

	var (
		cur          *Table
		expectHeader bool
	)
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var perr *csv.ParseError
			if errors.As(err, &perr) {
				return &ParseError{Line: perr.Line, Err: perr.Err}
			}
			return err
		}
		line, _ := r.FieldPos(0)

		rec = trimRecord(rec)
		if len(rec) == 0 {
			continue
		}

		if name, ok := tableMarker(rec); ok {
			if expectHeader {
				return &ParseError{Line: line, Err: fmt.Errorf("table %s has no header", cur.Name)}
			}
			if name == "" {
				return &ParseError{Line: line, Err: errors.New("table marker without a name")}
			}
			cur = &Table{Name: name, Line: line}
			f.tables = append(f.tables, cur)
			f.byName[name] = append(f.byName[name], cur)
			expectHeader = true
			continue
		}

		if cur == nil {
			return &ParseError{Line: line, Err: errors.New("content before the first table")}
		}
		if expectHeader {
			cur.Header = rec
			expectHeader = false
			continue
		}
		if len(rec) > len(cur.Header) {
			return &ParseError{Line: line, Err: fmt.Errorf("row in table %s has %d fields, header has %d",
				cur.Name, len(rec), len(cur.Header))}
		}
		cur.Rows = append(cur.Rows, rec)
	}

	if expectHeader {
		return &ParseError{Line: cur.Line, Err: fmt.Errorf("table %s has no header", cur.Name)}
	}
	return nil
}

// trimRecord trims every cell and drops trailing empty cells.
func trimRecord(rec []string) []string {
	for i := range rec {
		rec[i] = strings.TrimSpace(rec[i])
	}
	end := len(rec)
	for end > 0 && rec[end-1] == "" {
		end--
	}
	return rec[:end]
}

func tableMarker(rec []string) (string, bool) {
	if len(rec) != 1 || !strings.HasPrefix(rec[0], "#") {
		return "", false
	}
	return strings.TrimSpace(strings.TrimPrefix(rec[0], "#")), true
}
