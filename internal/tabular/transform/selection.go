package transform

import (
	"fmt"

	"github.com/shandysiswandi/tabclean/internal/tabular/table"
)

// SelectColumns keeps the named columns in their original relative order.
// Repeated names collapse. An empty selection yields a columnless table with
// the same number of rows. Unknown names return table.ErrUnknownColumn.
func SelectColumns(t table.Table, names []string) (table.Table, error) {
	want := make(map[string]bool, len(names))
	for _, n := range names {
		if t.Index(n) < 0 {
			return table.Table{}, fmt.Errorf("%w: %s", table.ErrUnknownColumn, n)
		}
		want[n] = true
	}

	ordered := make([]string, 0, len(want))
	for _, n := range t.Names() {
		if want[n] {
			ordered = append(ordered, n)
		}
	}

	return t.Select(ordered)
}
