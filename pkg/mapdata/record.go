package mapdata

import (
	"fmt"
	"strconv"
	"strings"
)

// SourceField is the synthetic trailing field carrying the IDE file a
// definition was read from.
const SourceField = "Filename"

// Record is one line of a section, tagged with the shape it matched.
type Record struct {
	Section string
	Shape   string
	Fields  []string
	Values  []string
}

func newRecord(section string, s Shape, values []string, source string) Record {
	rec := Record{Section: section, Shape: s.Name, Fields: s.Fields, Values: values}
	if source != "" {
		rec.Fields = with(s.Fields, SourceField)
		rec.Values = append(values, source)
	}
	return rec
}

// Get returns the raw value of a field.
func (r Record) Get(field string) (string, bool) {
	for i, f := range r.Fields {
		if f == field && i < len(r.Values) {
			return r.Values[i], true
		}
	}
	return "", false
}

// Has reports whether the record's shape has the field.
func (r Record) Has(field string) bool {
	_, ok := r.Get(field)
	return ok
}

// String returns a field value, or "" when absent.
func (r Record) String(field string) string {
	v, _ := r.Get(field)
	return v
}

// Int parses a field as an integer.
func (r Record) Int(field string) (int, error) {
	v, ok := r.Get(field)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrMissingField, r.Shape, field)
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.Shape, field, err)
	}
	return n, nil
}

// Float parses a field as a float.
func (r Record) Float(field string) (float32, error) {
	v, ok := r.Get(field)
	if !ok {
		return 0, fmt.Errorf("%w: %s.%s", ErrMissingField, r.Shape, field)
	}
	f, err := strconv.ParseFloat(v, 32)
	if err != nil {
		return 0, fmt.Errorf("%s.%s: %w", r.Shape, field, err)
	}
	return float32(f), nil
}

// Line renders the record's own values as a section line.
func (r Record) Line() string {
	values := r.Values
	if n := len(r.Fields); n > 0 && r.Fields[n-1] == SourceField {
		values = values[:n-1]
	}
	return strings.Join(values, ", ")
}

// splitFields splits a record line on commas and trims each field. Lines
// without commas are split on whitespace.
func splitFields(line string) []string {
	if !strings.Contains(line, ",") {
		return strings.Fields(line)
	}
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}
