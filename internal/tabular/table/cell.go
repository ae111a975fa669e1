package table

import (
	"math"
	"strconv"

	"github.com/go-gota/gota/series"
)

// Cell is a single typed value. Missing cells carry only their kind.
type Cell struct {
	Kind    Kind
	Missing bool
	Int     int
	Float   float64
	Text    string
}

func cellOf(e series.Element, k Kind) Cell {
	if e == nil || e.IsNA() {
		return Cell{Kind: k, Missing: true}
	}

	switch k {
	case KindInt:
		v, err := e.Int()
		if err != nil {
			return Cell{Kind: k, Missing: true}
		}
		return Cell{Kind: k, Int: v}
	case KindFloat:
		f := e.Float()
		if math.IsNaN(f) {
			return Cell{Kind: k, Missing: true}
		}
		return Cell{Kind: k, Float: f}
	default:
		return Cell{Kind: k, Text: e.String()}
	}
}

// String is the text written to CSV: empty for missing cells, base 10 for
// integers and the shortest round-tripping form for floats.
func (c Cell) String() string {
	if c.Missing {
		return ""
	}
	switch c.Kind {
	case KindInt:
		return strconv.Itoa(c.Int)
	case KindFloat:
		return FormatFloat(c.Float)
	default:
		return c.Text
	}
}

// Value returns nil, int, float64 or string.
func (c Cell) Value() any {
	if c.Missing {
		return nil
	}
	switch c.Kind {
	case KindInt:
		return c.Int
	case KindFloat:
		return c.Float
	default:
		return c.Text
	}
}

// Number returns the cell as a float64 and whether it holds one.
func (c Cell) Number() (float64, bool) {
	if c.Missing {
		return 0, false
	}
	switch c.Kind {
	case KindInt:
		return float64(c.Int), true
	case KindFloat:
		return c.Float, true
	default:
		return 0, false
	}
}

func FormatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
