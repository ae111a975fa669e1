package inbound

import (
	"context"

	"github.com/shandysiswandi/tabclean/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabclean/internal/tabular/codec"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/usecase"
)

type uc interface {
	CreateSession(ctx context.Context) (usecase.SessionResult, error)
	CloseSession(ctx context.Context, sessionID string) error
	Upload(ctx context.Context, sessionID string, files []entity.UploadedFile) (usecase.UploadResult, error)
	Files(ctx context.Context, sessionID string) ([]entity.EntryMeta, error)
	Details(ctx context.Context, sessionID, fileID string) (usecase.FileDetails, error)
	RemoveDuplicates(ctx context.Context, sessionID, fileID string) (usecase.TransformResult, error)
	FillMissing(ctx context.Context, sessionID, fileID string) (usecase.TransformResult, error)
	Columns(ctx context.Context, sessionID, fileID string) (usecase.ColumnsResult, error)
	SelectColumns(ctx context.Context, sessionID, fileID string, names []string) (usecase.TransformResult, error)
	Chart(ctx context.Context, sessionID, fileID string) (usecase.ChartResult, error)
	ChartSVG(ctx context.Context, sessionID, fileID string) (codec.Download, error)
	Export(ctx context.Context, sessionID, fileID string, format entity.Format) (codec.Download, error)
}

func RegisterHTTPEndpoint(r *pkgrouter.Router, uc uc) {
	end := &HTTPEndpoint{uc: uc}

	r.POST("/sessions", end.CreateSession)
	r.DELETE("/sessions/:session_id", end.CloseSession)

	r.POST("/sessions/:session_id/files", end.Upload)
	r.GET("/sessions/:session_id/files", end.Files)
	r.GET("/sessions/:session_id/files/:file", end.Details)

	r.POST("/sessions/:session_id/files/:file/duplicates/remove", end.RemoveDuplicates)
	r.POST("/sessions/:session_id/files/:file/missing/fill", end.FillMissing)

	r.GET("/sessions/:session_id/files/:file/columns", end.Columns)
	r.PUT("/sessions/:session_id/files/:file/columns", end.SelectColumns)

	r.GET("/sessions/:session_id/files/:file/chart", end.Chart)
	r.GET("/sessions/:session_id/files/:file/chart.svg", end.ChartSVG)

	r.GET("/sessions/:session_id/files/:file/export", end.Export) // ?format=csv|xlsx
}
