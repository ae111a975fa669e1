package table

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

var (
	ErrNoColumns     = errors.New("no columns to parse")
	ErrUnknownColumn = errors.New("unknown column")
)

type Column struct {
	Name string `json:"name"`
	Kind Kind   `json:"kind"`
}

// Table is an immutable table backed by a gota DataFrame. The row count is
// kept beside the frame so a table with every column removed still has rows.
type Table struct {
	df   dataframe.DataFrame
	rows int
}

// Empty returns a table with no columns and the given number of rows.
func Empty(rows int) Table {
	return Table{rows: rows}
}

// FromRecords builds a table from a header row followed by data rows. Cells
// matching MissingTokens become missing and column kinds are inferred.
func FromRecords(records [][]string) (Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return Table{}, ErrNoColumns
	}

	header := uniqueNames(records[0])
	body := records[1:]
	for i, row := range body {
		if len(row) != len(header) {
			return Table{}, fmt.Errorf("row %d: expected %d fields, saw %d", i+2, len(header), len(row))
		}
	}

	types := make(map[string]series.Type, len(header))
	for j, name := range header {
		col := make([]string, len(body))
		for i, row := range body {
			col[i] = row[j]
		}
		types[name] = InferKind(col).seriesType()
	}

	if len(body) == 0 {
		cols := make([]series.Series, len(header))
		for j, name := range header {
			cols[j] = series.New([]string{}, types[name], name)
		}
		return fromFrame(dataframe.New(cols...), 0)
	}

	all := make([][]string, 0, len(records))
	all = append(all, header)
	all = append(all, body...)

	df := dataframe.LoadRecords(all,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
		dataframe.NaNValues(MissingTokens),
		dataframe.WithTypes(types),
	)
	return fromFrame(df, len(body))
}

func fromFrame(df dataframe.DataFrame, rows int) (Table, error) {
	if df.Err != nil {
		return Table{}, df.Err
	}
	return Table{df: df, rows: rows}, nil
}

func (t Table) Rows() int {
	return t.rows
}

func (t Table) Width() int {
	return t.df.Ncol()
}

func (t Table) Names() []string {
	if t.Width() == 0 {
		return []string{}
	}
	return t.df.Names()
}

func (t Table) Columns() []Column {
	if t.Width() == 0 {
		return []Column{}
	}
	names := t.df.Names()
	types := t.df.Types()
	out := make([]Column, len(names))
	for i := range names {
		out[i] = Column{Name: names[i], Kind: kindOf(types[i])}
	}
	return out
}

// Index returns the position of the named column or -1.
func (t Table) Index(name string) int {
	return slices.Index(t.Names(), name)
}

// Series exposes a column for read-only computations.
func (t Table) Series(name string) (series.Series, error) {
	if t.Index(name) < 0 {
		return series.Series{}, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return t.df.Col(name), nil
}

func (t Table) Cell(row, col int) Cell {
	k := kindOf(t.df.Types()[col])
	return cellOf(t.df.Elem(row, col), k)
}

func (t Table) Row(i int) []Cell {
	w := t.Width()
	out := make([]Cell, w)
	if w == 0 {
		return out
	}
	types := t.df.Types()
	for j := 0; j < w; j++ {
		out[j] = cellOf(t.df.Elem(i, j), kindOf(types[j]))
	}
	return out
}

// Records renders the header and every row as CSV text.
func (t Table) Records() [][]string {
	out := make([][]string, 0, t.rows+1)
	out = append(out, t.Names())
	for i := 0; i < t.rows; i++ {
		row := t.Row(i)
		texts := make([]string, len(row))
		for j, c := range row {
			texts[j] = c.String()
		}
		out = append(out, texts)
	}
	return out
}

// Head returns the first n rows.
func (t Table) Head(n int) Table {
	if n >= t.rows {
		return t
	}
	if n < 0 {
		n = 0
	}
	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}
	out, _ := t.SubsetRows(idx)
	return out
}

// SubsetRows keeps the rows at idx in the given order.
func (t Table) SubsetRows(idx []int) (Table, error) {
	if t.Width() == 0 {
		return Empty(len(idx)), nil
	}
	if len(idx) == 0 {
		cols := make([]series.Series, 0, t.Width())
		for _, c := range t.Columns() {
			cols = append(cols, series.New([]string{}, c.Kind.seriesType(), c.Name))
		}
		return fromFrame(dataframe.New(cols...), 0)
	}
	return fromFrame(t.df.Subset(idx), len(idx))
}

// Select keeps the named columns in the given order.
func (t Table) Select(names []string) (Table, error) {
	if len(names) == 0 {
		return Empty(t.rows), nil
	}
	for _, n := range names {
		if t.Index(n) < 0 {
			return Table{}, fmt.Errorf("%w: %s", ErrUnknownColumn, n)
		}
	}
	if t.rows == 0 {
		cols := make([]series.Series, 0, len(names))
		for _, n := range names {
			k := kindOf(t.df.Col(n).Type())
			cols = append(cols, series.New([]string{}, k.seriesType(), n))
		}
		return fromFrame(dataframe.New(cols...), 0)
	}
	return fromFrame(t.df.Select(names), t.rows)
}

// WithFloats replaces the named column with float values. NaN is missing.
func (t Table) WithFloats(name string, values []float64) (Table, error) {
	if t.Index(name) < 0 {
		return Table{}, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	if len(values) != t.rows {
		return Table{}, fmt.Errorf("column %s: expected %d values, saw %d", name, t.rows, len(values))
	}
	texts := make([]string, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			texts[i] = "NaN"
			continue
		}
		texts[i] = strconv.FormatFloat(v, 'g', -1, 64)
	}
	return fromFrame(t.df.Mutate(series.New(texts, series.Float, name)), t.rows)
}

// Equal compares names, kinds and cell values.
func (t Table) Equal(o Table) bool {
	if t.rows != o.rows || !slices.Equal(t.Columns(), o.Columns()) {
		return false
	}
	for i := 0; i < t.rows; i++ {
		if !slices.Equal(t.Row(i), o.Row(i)) {
			return false
		}
	}
	return true
}

// uniqueNames fills blank header cells and suffixes repeated names with .1, .2.
func uniqueNames(header []string) []string {
	out := make([]string, len(header))
	taken := make(map[string]bool, len(header))
	for i, name := range header {
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		candidate := name
		for n := 1; taken[candidate]; n++ {
			candidate = name + "." + strconv.Itoa(n)
		}
		taken[candidate] = true
		out[i] = candidate
	}
	return out
}
