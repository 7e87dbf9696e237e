package ui

import (
	"fmt"
	"strings"
)

// KV is one row of a key-value table. Rows render in the order given.
type KV struct {
	Key   string
	Value string
}

// Table renders aligned key-value listings, optionally broken into
// titled sections. Used by the read commands (status, settings, info)
// to dump device state.
type Table struct {
	sections []tableSection
}

type tableSection struct {
	title string
	rows  []KV
}

// NewTable creates an empty table
func NewTable() *Table {
	return &Table{}
}

// Section starts a new titled section and returns the table for chaining
func (t *Table) Section(title string) *Table {
	t.sections = append(t.sections, tableSection{title: title})
	return t
}

// Row appends a key-value row to the current section. If no section has
// been started, an untitled one is created.
func (t *Table) Row(key, value string) *Table {
	if len(t.sections) == 0 {
		t.sections = append(t.sections, tableSection{})
	}
	s := &t.sections[len(t.sections)-1]
	s.rows = append(s.rows, KV{Key: key, Value: value})
	return t
}

// Rowf appends a row with a formatted value
func (t *Table) Rowf(key, format string, args ...any) *Table {
	return t.Row(key, fmt.Sprintf(format, args...))
}

// Render returns the table as a styled string
func (t *Table) Render() string {
	keyWidth := 0
	for _, s := range t.sections {
		for _, row := range s.rows {
			if len(row.Key) > keyWidth {
				keyWidth = len(row.Key)
			}
		}
	}

	var b strings.Builder
	for i, s := range t.sections {
		if i > 0 {
			b.WriteString("\n")
		}
		if s.title != "" {
			b.WriteString(TableSectionStyle.Render(s.title))
			b.WriteString("\n")
		}
		for _, row := range s.rows {
			key := fmt.Sprintf("  %-*s", keyWidth+1, row.Key+":")
			b.WriteString(ResultKeyStyle.UnsetWidth().Render(key))
			b.WriteString(" ")
			b.WriteString(ResultValueStyle.Render(row.Value))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// String implements fmt.Stringer
func (t *Table) String() string {
	return t.Render()
}
