package core

import (
	"encoding/csv"
	"errors"
	"io"
	"sort"
	"strings"
	"time"
)

// Column roles a CSV column can be mapped to.
const (
	ColumnAmount ColumnRole = "amount"
	ColumnDate   ColumnRole = "date"
	ColumnPayee  ColumnRole = "payee"
	ColumnNotes  ColumnRole = "notes"
	ColumnSkip   ColumnRole = "skip"
)

// DefaultDateFormat is used when an import does not name one.
const DefaultDateFormat = "yyyy-MM-dd HH:mm:ss"

// DateFormats maps the accepted import date patterns to Go layouts.
var DateFormats = map[string]string{
	"yyyy-MM-dd":          "2006-01-02",
	"yyyy-MM-dd HH:mm:ss": "2006-01-02 15:04:05",
	"dd/MM/yyyy":          "02/01/2006",
	"MM/dd/yyyy":          "01/02/2006",
	"dd.MM.yyyy":          "02.01.2006",
	"dd-MM-yyyy":          "02-01-2006",
}

type (
	ColumnRole string

	// ImportMapping tells the importer how to read statement rows.
	ImportMapping struct {
		Columns    map[int]ColumnRole `json:"columns"`
		DateFormat string             `json:"dateFormat"`
		HasHeader  bool               `json:"hasHeader"`
	}

	// ImportedRow is one normalized statement line.
	ImportedRow struct {
		Amount int64
		Date   Date
		Payee  string
		Notes  *string
	}
)

// Validate checks that amount, date and payee are each mapped exactly once.
func (m ImportMapping) Validate() error {
	counts := map[ColumnRole]int{}
	for col, role := range m.Columns {
		if col < 0 {
			return Invalid("column index %d is negative", col)
		}
		switch role {
		case ColumnAmount, ColumnDate, ColumnPayee, ColumnNotes:
			counts[role]++
		case ColumnSkip, "":
		default:
			return Invalid("unknown column role %q", role)
		}
	}
	for _, role := range []ColumnRole{ColumnAmount, ColumnDate, ColumnPayee} {
		if counts[role] != 1 {
			return Invalid("column %q must be mapped exactly once", role)
		}
	}
	if counts[ColumnNotes] > 1 {
		return Invalid("column %q can be mapped at most once", ColumnNotes)
	}
	if _, ok := m.layout(); !ok {
		return Invalid("unsupported date format %q, expected one of: %s", m.DateFormat, strings.Join(SupportedDateFormats(), ", "))
	}
	return nil
}

func (m ImportMapping) layout() (string, bool) {
	format := m.DateFormat
	if format == "" {
		format = DefaultDateFormat
	}
	layout, ok := DateFormats[format]
	return layout, ok
}

func (m ImportMapping) column(role ColumnRole) (int, bool) {
	for col, r := range m.Columns {
		if r == role {
			return col, true
		}
	}
	return 0, false
}

// NormalizeRows converts raw statement rows into ledger rows. Blank lines are
// skipped. The first failing row aborts the whole import.
func NormalizeRows(rows [][]string, m ImportMapping) ([]ImportedRow, error) {
	if err := m.Validate(); err != nil {
		return nil, err
	}
	layout, _ := m.layout()
	amountCol, _ := m.column(ColumnAmount)
	dateCol, _ := m.column(ColumnDate)
	payeeCol, _ := m.column(ColumnPayee)
	notesCol, hasNotes := m.column(ColumnNotes)

	start := 0
	if m.HasHeader {
		start = 1
	}

	out := make([]ImportedRow, 0, len(rows))
	for i := start; i < len(rows); i++ {
		row := rows[i]
		line := i + 1
		if isBlank(row) {
			continue
		}

		cell := func(col int) (string, error) {
			if col >= len(row) {
				return "", Invalid("row %d: missing column %d", line, col)
			}
			return strings.TrimSpace(row[col]), nil
		}

		rawAmount, err := cell(amountCol)
		if err != nil {
			return nil, err
		}
		amount, err := ParseAmount(rawAmount)
		if err != nil {
			return nil, Invalid("row %d: invalid amount %q", line, rawAmount)
		}

		rawDate, err := cell(dateCol)
		if err != nil {
			return nil, err
		}
		t, err := time.Parse(layout, rawDate)
		if err != nil {
			return nil, Invalid("row %d: date %q does not match %s", line, rawDate, m.dateFormatName())
		}

		payee, err := cell(payeeCol)
		if err != nil {
			return nil, err
		}
		if payee == "" {
			return nil, Invalid("row %d: payee cannot be empty", line)
		}
		if len(payee) > MaxNameLength {
			return nil, Invalid("row %d: payee too long (max %d characters)", line, MaxNameLength)
		}

		imported := ImportedRow{Amount: amount, Date: DateOf(t), Payee: payee}
		if hasNotes && notesCol < len(row) {
			if notes := strings.TrimSpace(row[notesCol]); notes != "" {
				imported.Notes = &notes
			}
		}
		out = append(out, imported)
	}

	if len(out) == 0 {
		return nil, Invalid("no rows to import")
	}
	return out, nil
}

func (m ImportMapping) dateFormatName() string {
	if m.DateFormat == "" {
		return DefaultDateFormat
	}
	return m.DateFormat
}

func isBlank(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// ParseCSV reads a whole CSV document. Rows may have different widths.
func ParseCSV(r io.Reader) ([][]string, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			return nil, Invalid("csv line %d: %v", parseErr.Line, parseErr.Err)
		}
		return nil, Invalid("csv: %v", err)
	}
	return rows, nil
}

// SupportedDateFormats returns the accepted date format names, sorted.
func SupportedDateFormats() []string {
	names := make([]string, 0, len(DateFormats))
	for name := range DateFormats {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
