package entity

import "github.com/shandysiswandi/tabclean/internal/tabular/table"

// Entry is the per-file session state. Original is the table as first parsed;
// Current is the last committed revision that every edit builds on.
type Entry struct {
	Meta     EntryMeta
	Original table.Table
	Current  table.Table
}

// View returns the table that read-only displays should use.
func (e Entry) View(src ViewSource) table.Table {
	if src == ViewOriginal {
		return e.Original
	}
	return e.Current
}

// Clone copies the metadata so callers can modify it without touching the
// stored entry. Tables are immutable and shared.
func (e Entry) Clone() Entry {
	out := e
	out.Meta.History = append([]Step(nil), e.Meta.History...)
	return out
}
