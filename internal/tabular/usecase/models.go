package usecase

import (
	"github.com/shandysiswandi/tabclean/internal/tabular/chart"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
	"github.com/shandysiswandi/tabclean/internal/tabular/transform"
)

const (
	MsgDuplicatesRemoved = "Duplicate entries removed."
	MsgMissingFilled     = "Missing values filled with column averages."
	MsgColumnsSelected   = "Columns updated."
	MsgBatchProcessed    = "All files have been successfully processed!"
)

type Warning string

const (
	WarnNoNumericForImputation Warning = "NoNumericColumnsForImputation"
	WarnNoNumericForChart      Warning = "NoNumericColumnsForChart"
	WarnNoRowsForChart         Warning = "NoRowsForChart"
	WarnEmptyColumnSelection   Warning = "EmptyColumnSelection"
)

type FileStatus string

const (
	FileStatusParsed FileStatus = "parsed"
	FileStatusCached FileStatus = "cached"
	FileStatusFailed FileStatus = "failed"
)

type SessionResult struct {
	SessionID string
	CreatedAt int64
}

type FileDetails struct {
	Meta    entity.EntryMeta
	Columns []table.Column
	Rows    int
	Preview table.Table
}

// SizeKB matches how the upload size is shown to users.
func (d FileDetails) SizeKB() float64 {
	return entity.UploadedFile{Size: d.Meta.Size}.SizeKB()
}

type FileResult struct {
	Name      string
	Status    FileStatus
	Error     string
	ErrorCode string
	Details   *FileDetails
}

type UploadResult struct {
	SessionID string
	Files     []FileResult
	Message   string
}

type TransformResult struct {
	Message  string
	Warnings []Warning
	Removed  int
	Filled   []transform.ColumnFill
	Details  FileDetails
}

type ColumnsResult struct {
	Options []table.Column
	Default []string
}

type ChartResult struct {
	FileName   string
	Projection chart.Projection
	Warnings   []Warning
}
