package chart

import (
	"errors"
	"math"
	"strconv"

	"github.com/shandysiswandi/tabclean/internal/tabular/table"
)

var (
	ErrNoNumericColumns = errors.New("no numeric columns to chart")
	ErrNoRows           = errors.New("no rows to chart")
)

// Series is one numeric column. Nil values are missing or infinite cells.
type Series struct {
	Name   string     `json:"name"`
	Values []*float64 `json:"values"`
}

// Projection is the numeric part of a table, ready to be drawn as bars.
type Projection struct {
	Labels []string `json:"labels"`
	Series []Series `json:"series"`
}

func (p Projection) Empty() bool {
	return len(p.Series) == 0 || len(p.Labels) == 0
}

// Project takes the numeric columns of t in table order. A positive limit
// keeps only the first limit columns. Row labels are the 0-based row index.
func Project(t table.Table, limit int) (Projection, error) {
	p := Projection{Labels: []string{}, Series: []Series{}}

	cols := make([]int, 0, t.Width())
	for i, c := range t.Columns() {
		if !c.Kind.Numeric() {
			continue
		}
		if limit > 0 && len(cols) == limit {
			break
		}
		cols = append(cols, i)
	}
	if len(cols) == 0 {
		return p, ErrNoNumericColumns
	}

	names := t.Names()
	for _, j := range cols {
		p.Series = append(p.Series, Series{Name: names[j], Values: make([]*float64, t.Rows())})
	}

	for i := 0; i < t.Rows(); i++ {
		p.Labels = append(p.Labels, strconv.Itoa(i))
		for k, j := range cols {
			if v, ok := t.Cell(i, j).Number(); ok && !math.IsInf(v, 0) {
				p.Series[k].Values[i] = &v
			}
		}
	}

	if t.Rows() == 0 {
		return p, ErrNoRows
	}

	return p, nil
}
