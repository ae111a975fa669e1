package table

import (
	"errors"
	"strconv"

	"github.com/go-gota/gota/series"
)

type Kind string

const (
	KindInt    Kind = "int"
	KindFloat  Kind = "float"
	KindString Kind = "string"
)

func (k Kind) Numeric() bool {
	return k == KindInt || k == KindFloat
}

func (k Kind) seriesType() series.Type {
	switch k {
	case KindInt:
		return series.Int
	case KindFloat:
		return series.Float
	default:
		return series.String
	}
}

func kindOf(t series.Type) Kind {
	switch t {
	case series.Int:
		return KindInt
	case series.Float:
		return KindFloat
	default:
		return KindString
	}
}

// MissingTokens are the cell texts read as missing values.
var MissingTokens = []string{
	"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "#N/A", "<NA>", "n/a", "-NaN", "-nan",
}

var missingSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(MissingTokens))
	for _, v := range MissingTokens {
		m[v] = struct{}{}
	}
	return m
}()

func IsMissing(v string) bool {
	_, ok := missingSet[v]
	return ok
}

// InferKind picks the narrowest kind that holds every present value.
// Integer columns with gaps widen to float and all-missing columns are float.
func InferKind(values []string) Kind {
	allInt := true
	present := 0
	gaps := false

	for _, v := range values {
		if IsMissing(v) {
			gaps = true
			continue
		}
		present++
		if _, err := strconv.ParseFloat(v, 64); err != nil {
			return KindString
		}
		if _, err := strconv.ParseInt(v, 10, 64); err != nil {
			// integers past int64 would lose digits as floats
			if errors.Is(err, strconv.ErrRange) {
				return KindString
			}
			allInt = false
		}
	}

	switch {
	case present == 0:
		return KindFloat
	case allInt && !gaps:
		return KindInt
	default:
		return KindFloat
	}
}
