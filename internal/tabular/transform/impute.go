package transform

import (
	"errors"
	"math"

	"github.com/shandysiswandi/tabclean/internal/tabular/table"
)

var ErrNoNumericColumns = errors.New("no numeric columns to fill")

type ColumnFill struct {
	Column string  `json:"column"`
	Mean   float64 `json:"mean"`
	Filled int     `json:"filled"`
}

type FillReport struct {
	Columns []ColumnFill `json:"columns"`
}

// Filled is the total number of cells replaced.
func (r FillReport) Filled() int {
	n := 0
	for _, c := range r.Columns {
		n += c.Filled
	}
	return n
}

// FillMissingNumeric replaces missing cells of every numeric column with the
// mean of that column's present values. Columns without present values stay
// missing. A table with no numeric columns is returned unchanged together
// with ErrNoNumericColumns.
func FillMissingNumeric(t table.Table) (table.Table, FillReport, error) {
	report := FillReport{Columns: []ColumnFill{}}

	numeric := 0
	out := t
	for _, col := range t.Columns() {
		if !col.Kind.Numeric() {
			continue
		}
		numeric++

		s, err := t.Series(col.Name)
		if err != nil {
			return table.Table{}, FillReport{}, err
		}

		values := s.Float()
		gaps := s.IsNaN()

		sum, present, missing := 0.0, 0, 0
		for i, v := range values {
			if gaps[i] || math.IsNaN(v) {
				missing++
				continue
			}
			sum += v
			present++
		}
		if missing == 0 || present == 0 {
			continue
		}

		mean := sum / float64(present)
		for i := range values {
			if gaps[i] || math.IsNaN(values[i]) {
				values[i] = mean
			}
		}

		out, err = out.WithFloats(col.Name, values)
		if err != nil {
			return table.Table{}, FillReport{}, err
		}
		report.Columns = append(report.Columns, ColumnFill{Column: col.Name, Mean: mean, Filled: missing})
	}

	if numeric == 0 {
		return t, report, ErrNoNumericColumns
	}

	return out, report, nil
}
