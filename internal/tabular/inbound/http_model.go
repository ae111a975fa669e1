package inbound

import (
	"math"
	"net/http"
	"strconv"

	"github.com/shandysiswandi/tabclean/internal/tabular/chart"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
	"github.com/shandysiswandi/tabclean/internal/tabular/transform"
	"github.com/shandysiswandi/tabclean/internal/tabular/usecase"
)

type SelectColumnsRequest struct {
	Columns []string `json:"columns" validate:"required,dive,required"`
}

type ExportQuery struct {
	Format string `json:"format" validate:"required,oneof=csv xlsx excel"`
}

type SessionResponse struct {
	SessionID string `json:"session_id"`
	CreatedAt int64  `json:"created_at"`
}

func (SessionResponse) StatusCode() int {
	return http.StatusCreated
}

func (SessionResponse) Message() string {
	return "session created"
}

type FileMeta struct {
	Name      string        `json:"name"`
	Size      int64         `json:"size"`
	SizeKB    float64       `json:"size_kb"`
	Format    entity.Format `json:"format"`
	State     entity.State  `json:"state"`
	Version   int           `json:"version"`
	Revision  string        `json:"revision"`
	History   []entity.Step `json:"history"`
	CreatedAt int64         `json:"created_at"`
	UpdatedAt int64         `json:"updated_at"`
}

type Preview struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

type FileDetails struct {
	FileMeta
	Columns []table.Column `json:"columns"`
	Rows    int            `json:"rows"`
	Preview Preview        `json:"preview"`
}

type FileResult struct {
	Name      string             `json:"name"`
	Status    usecase.FileStatus `json:"status"`
	Error     string             `json:"error,omitempty"`
	ErrorCode string             `json:"error_code,omitempty"`
	File      *FileDetails       `json:"file,omitempty"`
}

type UploadResponse struct {
	SessionID string       `json:"session_id"`
	Files     []FileResult `json:"files"`
	msg       string
}

func (r UploadResponse) Message() string {
	return r.msg
}

type ListFilesResponse struct {
	Files []FileMeta `json:"files"`
}

func (r ListFilesResponse) Meta() map[string]any {
	return map[string]any{"total": len(r.Files)}
}

type TransformResponse struct {
	Warnings []usecase.Warning      `json:"warnings"`
	Removed  *int                   `json:"removed,omitempty"`
	Filled   []transform.ColumnFill `json:"filled,omitempty"`
	File     FileDetails            `json:"file"`
	msg      string
}

func (r TransformResponse) Message() string {
	if r.msg == "" && len(r.Warnings) > 0 {
		return "completed with warnings"
	}
	return r.msg
}

type ColumnsResponse struct {
	Options []table.Column `json:"options"`
	Default []string       `json:"default"`
}

type ChartResponse struct {
	File     string            `json:"file"`
	Labels   []string          `json:"labels"`
	Series   []chart.Series    `json:"series"`
	Warnings []usecase.Warning `json:"warnings"`
}

func toFileMeta(m entity.EntryMeta) FileMeta {
	history := m.History
	if history == nil {
		history = []entity.Step{}
	}

	return FileMeta{
		Name:      m.FileName,
		Size:      m.Size,
		SizeKB:    roundKB(entity.UploadedFile{Size: m.Size}.SizeKB()),
		Format:    m.Format,
		State:     m.State,
		Version:   m.Version,
		Revision:  strconv.FormatInt(m.Revision, 10),
		History:   history,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

func toFileDetails(d usecase.FileDetails) FileDetails {
	rows := make([][]any, 0, d.Preview.Rows())
	for i := 0; i < d.Preview.Rows(); i++ {
		cells := d.Preview.Row(i)
		row := make([]any, len(cells))
		for j, c := range cells {
			row[j] = jsonValue(c)
		}
		rows = append(rows, row)
	}

	return FileDetails{
		FileMeta: toFileMeta(d.Meta),
		Columns:  d.Columns,
		Rows:     d.Rows,
		Preview: Preview{
			Columns: d.Preview.Names(),
			Rows:    rows,
		},
	}
}

func toTransformResponse(res usecase.TransformResult, withRemoved bool) TransformResponse {
	out := TransformResponse{
		Warnings: res.Warnings,
		Filled:   res.Filled,
		File:     toFileDetails(res.Details),
		msg:      res.Message,
	}
	if out.Warnings == nil {
		out.Warnings = []usecase.Warning{}
	}
	if withRemoved {
		removed := res.Removed
		out.Removed = &removed
	}
	return out
}

// jsonValue spells out infinities, which encoding/json rejects.
func jsonValue(c table.Cell) any {
	if v, ok := c.Value().(float64); ok && math.IsInf(v, 0) {
		return c.String()
	}
	return c.Value()
}

// roundKB keeps two decimals, as the size is displayed.
func roundKB(kb float64) float64 {
	return math.Round(kb*100) / 100
}
