package entity

import "time"

// UploadedFile is one file received from the client. It is never modified.
type UploadedFile struct {
	Name   string
	Size   int64
	Data   []byte
	Format Format
}

// SizeKB is the size in kibibytes, as shown in the file details.
func (u UploadedFile) SizeKB() float64 {
	return float64(u.Size) / 1024
}

type Session struct {
	ID        string
	CreatedAt int64
}

// EntryMeta describes a stored table without carrying its data.
type EntryMeta struct {
	SessionID string
	FileName  string
	Size      int64
	Format    Format
	State     State
	Revision  int64
	Version   int
	History   []Step
	CreatedAt int64
	UpdatedAt int64
}

// Record moves the entry to the state of step and appends it to the history.
func (m *EntryMeta) Record(step Step, revision int64, at time.Time) {
	m.State = step.State()
	m.History = append(m.History, step)
	m.UpdatedAt = at.Unix()
	if revision != 0 {
		m.Revision = revision
		m.Version++
	}
}
