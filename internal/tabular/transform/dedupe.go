package transform

import (
	"strconv"
	"strings"

	"github.com/shandysiswandi/tabclean/internal/tabular/table"
)

// RemoveDuplicates drops every row equal to an earlier row and reports how
// many were removed. Missing cells compare equal to each other.
func RemoveDuplicates(t table.Table) (table.Table, int, error) {
	if t.Width() == 0 || t.Rows() < 2 {
		return t, 0, nil
	}

	seen := make(map[string]struct{}, t.Rows())
	keep := make([]int, 0, t.Rows())
	for i := 0; i < t.Rows(); i++ {
		k := rowKey(t.Row(i))
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keep = append(keep, i)
	}

	removed := t.Rows() - len(keep)
	if removed == 0 {
		return t, 0, nil
	}

	out, err := t.SubsetRows(keep)
	if err != nil {
		return table.Table{}, 0, err
	}

	return out, removed, nil
}

// rowKey encodes each cell as "<len>:<text>", or "-" when missing, so no
// cell content can shift a field boundary.
func rowKey(cells []table.Cell) string {
	var b strings.Builder
	for _, c := range cells {
		if c.Missing {
			b.WriteByte('-')
			continue
		}
		v := c.String()
		if c.Kind == table.KindFloat && c.Float == 0 {
			v = "0" // -0 equals 0
		}
		b.WriteString(strconv.Itoa(len(v)))
		b.WriteByte(':')
		b.WriteString(v)
	}
	return b.String()
}
