package usecase

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/shandysiswandi/tabclean/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgroutine"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkguid"
	"github.com/shandysiswandi/tabclean/internal/tabular/chart"
	"github.com/shandysiswandi/tabclean/internal/tabular/codec"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/table"
	"github.com/shandysiswandi/tabclean/internal/tabular/transform"
)

const DefaultPreviewRows = 5

type Store interface {
	CreateSession(ctx context.Context, session entity.Session) error
	DeleteSession(ctx context.Context, sessionID string) error
	GetSession(ctx context.Context, sessionID string) (entity.Session, error)
	GetOrInit(ctx context.Context, sessionID, fileID string, fresh entity.Entry) (entity.Entry, bool, error)
	Get(ctx context.Context, sessionID, fileID string) (entity.Entry, error)
	Update(ctx context.Context, sessionID, fileID string, fn func(entity.Entry) (entity.Entry, error)) (entity.Entry, error)
	List(ctx context.Context, sessionID string) ([]entity.EntryMeta, error)
}

type Clock interface {
	Now() time.Time
}

type Config struct {
	PreviewRows     int
	ParseWorkers    int
	ViewSource      entity.ViewSource
	ChartMaxColumns int
	ChartWidth      int
	ChartHeight     int
	SheetName       string
	CSVBOM          bool
}

type Dependency struct {
	Store     Store
	Clock     Clock
	SessionID pkguid.StringID
	Revision  pkguid.NumberID
	Metrics   *Metrics
	Config    Config
}

type Usecase struct {
	store     Store
	clock     Clock
	sessionID pkguid.StringID
	revision  pkguid.NumberID
	metrics   *Metrics
	cfg       Config
}

func New(dep Dependency) *Usecase {
	clock := dep.Clock
	if clock == nil {
		clock = realClock{}
	}

	sessionID := dep.SessionID
	if sessionID == nil {
		sessionID = pkguid.NewUUID()
	}

	revision := dep.Revision
	if revision == nil {
		revision = &sequence{}
	}

	metrics := dep.Metrics
	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	cfg := dep.Config
	if cfg.PreviewRows <= 0 {
		cfg.PreviewRows = DefaultPreviewRows
	}
	if cfg.ViewSource == "" {
		cfg.ViewSource = entity.ViewCommitted
	}

	return &Usecase{
		store:     dep.Store,
		clock:     clock,
		sessionID: sessionID,
		revision:  revision,
		metrics:   metrics,
		cfg:       cfg,
	}
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

type sequence struct {
	n atomic.Int64
}

func (s *sequence) Generate() int64 {
	return s.n.Add(1)
}

func (u *Usecase) CreateSession(ctx context.Context) (SessionResult, error) {
	session := entity.Session{
		ID:        u.sessionID.Generate(),
		CreatedAt: u.clock.Now().Unix(),
	}

	if err := u.store.CreateSession(ctx, session); err != nil {
		return SessionResult{}, mapErr(err)
	}

	slog.InfoContext(ctx, "session created", "session_id", session.ID)

	return SessionResult{SessionID: session.ID, CreatedAt: session.CreatedAt}, nil
}

func (u *Usecase) CloseSession(ctx context.Context, sessionID string) error {
	if err := u.store.DeleteSession(ctx, sessionID); err != nil {
		return mapSessionErr(err)
	}

	slog.InfoContext(ctx, "session closed", "session_id", sessionID)

	return nil
}

// Upload parses every file of a batch. A failing file only fails its own
// result; results keep the upload order and the first file of a name wins.
func (u *Usecase) Upload(ctx context.Context, sessionID string, files []entity.UploadedFile) (UploadResult, error) {
	if len(files) == 0 {
		return UploadResult{}, pkgerror.NewInvalidInput(errors.New("at least one file is required"))
	}

	if _, err := u.store.GetSession(ctx, sessionID); err != nil {
		return UploadResult{}, mapSessionErr(err)
	}

	// files sharing a name are ingested in upload order by one worker so the
	// first of them is the one stored
	var names []string
	groups := make(map[string][]int, len(files))
	for i, file := range files {
		if _, ok := groups[file.Name]; !ok {
			names = append(names, file.Name)
		}
		groups[file.Name] = append(groups[file.Name], i)
	}

	results := make([]FileResult, len(files))
	workers := pkgroutine.NewManager(u.cfg.ParseWorkers)
	for _, name := range names {
		workers.Go(ctx, func(ctx context.Context) error {
			for _, i := range groups[name] {
				results[i] = u.ingest(ctx, sessionID, files[i])
			}
			return nil
		})
	}
	if err := workers.Wait(); err != nil {
		slog.ErrorContext(ctx, "batch upload had failing workers", "session_id", sessionID, "error", err)
	}

	for i, res := range results {
		if res.Status != "" {
			continue
		}
		// the task never ran or panicked
		reason := ctx.Err()
		if reason == nil {
			reason = errors.New("file was not processed")
		}
		results[i] = failedResult(files[i].Name, pkgerror.NewServer(reason))
	}

	return UploadResult{
		SessionID: sessionID,
		Files:     results,
		Message:   MsgBatchProcessed,
	}, nil
}

func (u *Usecase) ingest(ctx context.Context, sessionID string, file entity.UploadedFile) FileResult {
	if cached, err := u.store.Get(ctx, sessionID, file.Name); err == nil {
		u.metrics.file(string(cached.Meta.Format), FileStatusCached)
		details := u.details(cached)
		return FileResult{Name: file.Name, Status: FileStatusCached, Details: &details}
	}

	t, format, err := codec.Load(file.Name, file.Data)
	if err != nil {
		slog.WarnContext(ctx, "failed to load file", "session_id", sessionID, "file", file.Name, "error", err)
		u.metrics.file(string(format), FileStatusFailed)
		return failedResult(file.Name, mapErr(err))
	}

	now := u.clock.Now()
	fresh := entity.Entry{
		Meta: entity.EntryMeta{
			SessionID: sessionID,
			FileName:  file.Name,
			Size:      file.Size,
			Format:    format,
			State:     entity.StateUploaded,
			CreatedAt: now.Unix(),
		},
		Original: t,
		Current:  t,
	}
	fresh.Meta.Record(entity.StepParse, u.revision.Generate(), now)

	entry, created, err := u.store.GetOrInit(ctx, sessionID, file.Name, fresh)
	if err != nil {
		u.metrics.file(string(format), FileStatusFailed)
		return failedResult(file.Name, mapSessionErr(err))
	}

	status := FileStatusParsed
	if !created {
		status = FileStatusCached
	}
	u.metrics.file(string(format), status)

	slog.InfoContext(ctx, "file parsed", "session_id", sessionID, "file", file.Name, "format", format,
		"rows", entry.Current.Rows(), "columns", entry.Current.Width(), "status", status)

	details := u.details(entry)
	return FileResult{Name: file.Name, Status: status, Details: &details}
}

func failedResult(name string, err error) FileResult {
	res := FileResult{Name: name, Status: FileStatusFailed, Error: err.Error()}

	var perr *pkgerror.Error
	if errors.As(err, &perr) {
		res.Error = perr.Msg()
		res.ErrorCode = perr.Code().String()
	}

	return res
}

func (u *Usecase) Files(ctx context.Context, sessionID string) ([]entity.EntryMeta, error) {
	items, err := u.store.List(ctx, sessionID)
	if err != nil {
		return nil, mapSessionErr(err)
	}

	return items, nil
}

func (u *Usecase) Details(ctx context.Context, sessionID, fileID string) (FileDetails, error) {
	entry, err := u.entry(ctx, sessionID, fileID)
	if err != nil {
		return FileDetails{}, err
	}

	return u.details(entry), nil
}

func (u *Usecase) RemoveDuplicates(ctx context.Context, sessionID, fileID string) (TransformResult, error) {
	var removed int
	entry, err := u.update(ctx, sessionID, fileID, func(e entity.Entry) (entity.Entry, error) {
		out, n, err := transform.RemoveDuplicates(e.Current)
		if err != nil {
			return e, err
		}
		removed = n
		if n == 0 {
			return u.record(e, entity.StepRemoveDuplicates, nil), nil
		}
		return u.record(e, entity.StepRemoveDuplicates, &out), nil
	})
	if err != nil {
		return TransformResult{}, err
	}

	outcome := "applied"
	if removed == 0 {
		outcome = "unchanged"
	}
	u.metrics.step(string(entity.StepRemoveDuplicates), outcome)

	slog.InfoContext(ctx, "duplicates removed", "session_id", sessionID, "file", fileID, "removed", removed)

	return TransformResult{
		Message:  MsgDuplicatesRemoved,
		Warnings: []Warning{},
		Removed:  removed,
		Details:  u.details(entry),
	}, nil
}

func (u *Usecase) FillMissing(ctx context.Context, sessionID, fileID string) (TransformResult, error) {
	var (
		report    transform.FillReport
		noNumeric bool
	)
	entry, err := u.update(ctx, sessionID, fileID, func(e entity.Entry) (entity.Entry, error) {
		out, r, err := transform.FillMissingNumeric(e.Current)
		if errors.Is(err, transform.ErrNoNumericColumns) {
			noNumeric = true
			return e, nil
		}
		if err != nil {
			return e, err
		}
		report = r
		if r.Filled() == 0 {
			return u.record(e, entity.StepFillMissing, nil), nil
		}
		return u.record(e, entity.StepFillMissing, &out), nil
	})
	if err != nil {
		return TransformResult{}, err
	}

	if noNumeric {
		u.metrics.step(string(entity.StepFillMissing), "warning")
		slog.WarnContext(ctx, "no numeric columns to fill", "session_id", sessionID, "file", fileID)

		return TransformResult{
			Warnings: []Warning{WarnNoNumericForImputation},
			Filled:   report.Columns,
			Details:  u.details(entry),
		}, nil
	}

	outcome := "applied"
	if report.Filled() == 0 {
		outcome = "unchanged"
	}
	u.metrics.step(string(entity.StepFillMissing), outcome)

	slog.InfoContext(ctx, "missing values filled", "session_id", sessionID, "file", fileID, "cells", report.Filled())

	return TransformResult{
		Message:  MsgMissingFilled,
		Warnings: []Warning{},
		Filled:   report.Columns,
		Details:  u.details(entry),
	}, nil
}

// Columns lists the selectable columns and the default selection, which is
// every column of the view revision that is still selectable.
func (u *Usecase) Columns(ctx context.Context, sessionID, fileID string) (ColumnsResult, error) {
	entry, err := u.entry(ctx, sessionID, fileID)
	if err != nil {
		return ColumnsResult{}, err
	}

	defaults := []string{}
	for _, name := range entry.View(u.cfg.ViewSource).Names() {
		if entry.Current.Index(name) >= 0 {
			defaults = append(defaults, name)
		}
	}

	return ColumnsResult{
		Options: entry.Current.Columns(),
		Default: defaults,
	}, nil
}

func (u *Usecase) SelectColumns(ctx context.Context, sessionID, fileID string, names []string) (TransformResult, error) {
	var selected table.Table
	entry, err := u.update(ctx, sessionID, fileID, func(e entity.Entry) (entity.Entry, error) {
		out, err := transform.SelectColumns(e.Current, names)
		if err != nil {
			return e, err
		}
		selected = out
		if out.Equal(e.Current) {
			return u.record(e, entity.StepSelectColumns, nil), nil
		}
		return u.record(e, entity.StepSelectColumns, &out), nil
	})
	if err != nil {
		return TransformResult{}, err
	}

	warnings := []Warning{}
	outcome := "applied"
	if selected.Width() == 0 {
		warnings = append(warnings, WarnEmptyColumnSelection)
		outcome = "warning"
	}
	u.metrics.step(string(entity.StepSelectColumns), outcome)

	slog.InfoContext(ctx, "columns selected", "session_id", sessionID, "file", fileID, "columns", selected.Names())

	return TransformResult{
		Message:  MsgColumnsSelected,
		Warnings: warnings,
		Details:  u.details(entry),
	}, nil
}

// Chart projects the view revision. Only the step is recorded on the entry.
func (u *Usecase) Chart(ctx context.Context, sessionID, fileID string) (ChartResult, error) {
	var (
		p        chart.Projection
		warnings = []Warning{}
	)
	_, err := u.update(ctx, sessionID, fileID, func(e entity.Entry) (entity.Entry, error) {
		var err error
		p, err = chart.Project(e.View(u.cfg.ViewSource), u.cfg.ChartMaxColumns)
		switch {
		case errors.Is(err, chart.ErrNoNumericColumns):
			warnings = append(warnings, WarnNoNumericForChart)
		case errors.Is(err, chart.ErrNoRows):
			warnings = append(warnings, WarnNoRowsForChart)
		case err != nil:
			return e, err
		}
		return u.record(e, entity.StepVisualize, nil), nil
	})
	if err != nil {
		return ChartResult{}, err
	}

	outcome := "applied"
	if len(warnings) > 0 {
		outcome = "warning"
	}
	u.metrics.step(string(entity.StepVisualize), outcome)

	return ChartResult{FileName: fileID, Projection: p, Warnings: warnings}, nil
}

// ChartSVG renders the chart. Warnings become errors since there is nothing
// to draw.
func (u *Usecase) ChartSVG(ctx context.Context, sessionID, fileID string) (codec.Download, error) {
	res, err := u.Chart(ctx, sessionID, fileID)
	if err != nil {
		return codec.Download{}, err
	}
	if len(res.Warnings) > 0 {
		return codec.Download{}, pkgerror.NewBusiness(string(res.Warnings[0]), pkgerror.CodeInvalidInput)
	}

	svg, err := chart.RenderSVG(res.Projection, chart.Options{
		Title:  fileID,
		Width:  u.cfg.ChartWidth,
		Height: u.cfg.ChartHeight,
	})
	if err != nil {
		return codec.Download{}, mapErr(err)
	}

	return codec.Download{
		Filename:    strings.TrimSuffix(fileID, filepath.Ext(fileID)) + ".svg",
		ContentType: "image/svg+xml",
		Data:        svg,
	}, nil
}

// Export writes the last committed revision in the requested format.
func (u *Usecase) Export(ctx context.Context, sessionID, fileID string, format entity.Format) (codec.Download, error) {
	var dl codec.Download
	_, err := u.update(ctx, sessionID, fileID, func(e entity.Entry) (entity.Entry, error) {
		var err error
		dl, err = codec.Export(e.Current, format, e.Meta.FileName, codec.ExportOptions{
			SheetName: u.cfg.SheetName,
			CSVBOM:    u.cfg.CSVBOM,
		})
		if err != nil {
			return e, err
		}
		return u.record(e, entity.StepExport, nil), nil
	})
	if err != nil {
		return codec.Download{}, err
	}
	u.metrics.export(string(format))

	slog.InfoContext(ctx, "file exported", "session_id", sessionID, "file", fileID, "format", format,
		"filename", dl.Filename, "bytes", len(dl.Data))

	return dl, nil
}

func (u *Usecase) entry(ctx context.Context, sessionID, fileID string) (entity.Entry, error) {
	if _, err := u.store.GetSession(ctx, sessionID); err != nil {
		return entity.Entry{}, mapSessionErr(err)
	}

	entry, err := u.store.Get(ctx, sessionID, fileID)
	if err != nil {
		return entity.Entry{}, mapFileErr(err)
	}

	return entry, nil
}

// update runs fn against the latest stored entry under the store lock, so
// edits committed by other requests are never overwritten.
func (u *Usecase) update(
	ctx context.Context,
	sessionID, fileID string,
	fn func(entity.Entry) (entity.Entry, error),
) (entity.Entry, error) {
	if _, err := u.store.GetSession(ctx, sessionID); err != nil {
		return entity.Entry{}, mapSessionErr(err)
	}

	entry, err := u.store.Update(ctx, sessionID, fileID, fn)
	if err != nil {
		return entity.Entry{}, mapFileErr(err)
	}

	return entry, nil
}

// record appends step to the entry history. A non-nil next replaces Current
// and issues a new revision.
func (u *Usecase) record(e entity.Entry, step entity.Step, next *table.Table) entity.Entry {
	var rev int64
	if next != nil {
		rev = u.revision.Generate()
		e.Current = *next
	}
	e.Meta.Record(step, rev, u.clock.Now())

	return e
}

func (u *Usecase) details(entry entity.Entry) FileDetails {
	return FileDetails{
		Meta:    entry.Meta,
		Columns: entry.Current.Columns(),
		Rows:    entry.Current.Rows(),
		Preview: entry.Current.Head(u.cfg.PreviewRows),
	}
}
