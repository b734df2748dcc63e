package fixture

import (
	"bufio"
	"io/fs"
	"iter"
	"strings"

	"github.com/pkg/errors"
	"github.com/xuri/excelize/v2"
)

// Row is one record of a fixture table.
type Row struct {
	// Line is the 1-based line (csv) or row (xlsx) number in the source.
	Line   int
	Values []string
}

// Value returns the first cell of the row.
func (r Row) Value() string {
	if len(r.Values) == 0 {
		return ""
	}
	return r.Values[0]
}

// Table is a lazily read fixture. Every call to Rows re-opens the resource,
// so a table can be iterated any number of times within a run.
type Table struct {
	fsys   fs.FS
	name   string
	format Format
}

func (t *Table) Name() string {
	return t.name
}

func (t *Table) Format() Format {
	return t.format
}

// Rows streams the records after the header row. Blank records are skipped.
// Iteration stops after the first error.
func (t *Table) Rows() iter.Seq2[Row, error] {
	return func(yield func(Row, error) bool) {
		switch t.format {
		case FormatXLSX:
			t.xlsxRows(yield)
		default:
			t.csvRows(yield)
		}
	}
}

// Values drains the table and returns the first cell of every row.
func (t *Table) Values() ([]string, error) {
	var values []string
	for row, err := range t.Rows() {
		if err != nil {
			return nil, err
		}
		values = append(values, row.Value())
	}
	return values, nil
}

func (t *Table) csvRows(yield func(Row, error) bool) {
	f, err := t.fsys.Open(t.name)
	if err != nil {
		yield(Row{}, errors.Wrapf(err, "opening %s", t.name))
		return
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	line := 0
	for scanner.Scan() {
		line++
		if line == 1 {
			continue
		}
		values := splitCells(strings.Split(scanner.Text(), ","))
		if len(values) == 0 || values[0] == "" {
			continue
		}
		if !yield(Row{Line: line, Values: values}, nil) {
			return
		}
	}
	if err := scanner.Err(); err != nil {
		yield(Row{}, errors.Wrapf(err, "reading %s", t.name))
	}
}

func (t *Table) xlsxRows(yield func(Row, error) bool) {
	f, err := t.fsys.Open(t.name)
	if err != nil {
		yield(Row{}, errors.Wrapf(err, "opening %s", t.name))
		return
	}
	defer f.Close()

	book, err := excelize.OpenReader(f)
	if err != nil {
		yield(Row{}, errors.Wrapf(err, "opening workbook %s", t.name))
		return
	}
	defer book.Close()

	sheets := book.GetSheetList()
	if len(sheets) == 0 {
		yield(Row{}, errors.Errorf("%s: workbook has no sheets", t.name))
		return
	}

	rows, err := book.Rows(sheets[0])
	if err != nil {
		yield(Row{}, errors.Wrapf(err, "reading sheet %q of %s", sheets[0], t.name))
		return
	}
	defer rows.Close()

	line := 0
	for rows.Next() {
		line++
		cols, err := rows.Columns()
		if err != nil {
			yield(Row{}, errors.Wrapf(err, "reading %s row %d", t.name, line))
			return
		}
		if line == 1 {
			continue
		}
		values := splitCells(cols)
		if len(values) == 0 || values[0] == "" {
			continue
		}
		if !yield(Row{Line: line, Values: values}, nil) {
			return
		}
	}
	if err := rows.Error(); err != nil {
		yield(Row{}, errors.Wrapf(err, "reading %s", t.name))
	}
}

func splitCells(cells []string) []string {
	values := make([]string, 0, len(cells))
	for _, c := range cells {
		values = append(values, strings.TrimSpace(c))
	}
	// trailing empty cells carry no data
	for len(values) > 0 && values[len(values)-1] == "" {
		values = values[:len(values)-1]
	}
	return values
}
