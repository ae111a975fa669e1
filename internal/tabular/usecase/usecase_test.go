package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testID struct {
	mu sync.Mutex
	n  int
}

func (t *testID) Generate() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.n++
	return fmt.Sprintf("sess-%d", t.n)
}

type fixedClock struct {
	now time.Time
}

func (c fixedClock) Now() time.Time {
	return c.now
}

type failingStore struct {
	*store.InMemoryStore
	err error
}

func (s failingStore) Update(
	ctx context.Context,
	sessionID, fileID string,
	fn func(entity.Entry) (entity.Entry, error),
) (entity.Entry, error) {
	return entity.Entry{}, s.err
}

// interleavingStore runs before once, ahead of the first Update it sees.
type interleavingStore struct {
	*store.InMemoryStore
	once   sync.Once
	before func()
}

func (s *interleavingStore) Update(
	ctx context.Context,
	sessionID, fileID string,
	fn func(entity.Entry) (entity.Entry, error),
) (entity.Entry, error) {
	s.once.Do(s.before)
	return s.InMemoryStore.Update(ctx, sessionID, fileID, fn)
}

const dataCSV = "id,amount\n1,10\n1,10\n2,\n"

func newUsecase(t *testing.T, cfg Config) (*Usecase, *prometheus.Registry, string) {
	t.Helper()

	reg := prometheus.NewRegistry()
	uc := New(Dependency{
		Store:     store.NewInMemoryStore(),
		Clock:     fixedClock{now: time.Unix(1700000000, 0)},
		SessionID: &testID{},
		Metrics:   NewMetrics(reg),
		Config:    cfg,
	})

	sess, err := uc.CreateSession(context.Background())
	require.NoError(t, err)

	return uc, reg, sess.SessionID
}

func upload(name, content string) entity.UploadedFile {
	return entity.UploadedFile{Name: name, Size: int64(len(content)), Data: []byte(content)}
}

func counter(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()

	families, err := reg.Gather()
	require.NoError(t, err)

	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	metrics:
		for _, m := range mf.GetMetric() {
			for _, lp := range m.GetLabel() {
				if labels[lp.GetName()] != lp.GetValue() {
					continue metrics
				}
			}
			return m.GetCounter().GetValue()
		}
	}

	return 0
}

func errCode(t *testing.T, err error) pkgerror.Code {
	t.Helper()

	var perr *pkgerror.Error
	require.True(t, errors.As(err, &perr), "expected *pkgerror.Error, got %T: %v", err, err)
	return perr.Code()
}

func TestUploadBatchIsolatesFailures(t *testing.T) {
	ctx := context.Background()
	uc, reg, sid := newUsecase(t, Config{ParseWorkers: 2})

	res, err := uc.Upload(ctx, sid, []entity.UploadedFile{
		upload("data.csv", dataCSV),
		upload("notes.txt", "hello"),
		upload("broken.csv", "a,b\n1,2,3\n"),
		upload("second.csv", "x\n1\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, MsgBatchProcessed, res.Message)
	require.Len(t, res.Files, 4)

	assert.Equal(t, FileStatusParsed, res.Files[0].Status)
	assert.Equal(t, 3, res.Files[0].Details.Rows)
	assert.Equal(t, entity.StateParsed, res.Files[0].Details.Meta.State)
	assert.Equal(t, 1, res.Files[0].Details.Meta.Version)

	assert.Equal(t, FileStatusFailed, res.Files[1].Status)
	assert.Equal(t, "ERROR_CODE_UNSUPPORTED", res.Files[1].ErrorCode)
	assert.Contains(t, res.Files[1].Error, ".txt")

	assert.Equal(t, FileStatusFailed, res.Files[2].Status)
	assert.Equal(t, "ERROR_CODE_INVALID_FORMAT", res.Files[2].ErrorCode)
	assert.Contains(t, res.Files[2].Error, "broken.csv")

	assert.Equal(t, FileStatusParsed, res.Files[3].Status)

	items, err := uc.Files(ctx, sid)
	require.NoError(t, err)
	assert.Len(t, items, 2)

	assert.Equal(t, 2.0, counter(t, reg, "tabclean_files_processed_total", map[string]string{"format": "csv", "status": "parsed"}))
	assert.Equal(t, 1.0, counter(t, reg, "tabclean_files_processed_total", map[string]string{"format": "unknown", "status": "failed"}))
}

func TestUploadFirstSeenCaching(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	_, err = uc.RemoveDuplicates(ctx, sid, "data.csv")
	require.NoError(t, err)

	res, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	assert.Equal(t, FileStatusCached, res.Files[0].Status)
	assert.Equal(t, 2, res.Files[0].Details.Rows, "cached entry keeps the committed edits")
}

func TestUploadErrors(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, "ghost", []entity.UploadedFile{upload("data.csv", dataCSV)})
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, err))

	_, err = uc.Upload(ctx, sid, nil)
	assert.Equal(t, pkgerror.CodeInvalidInput, errCode(t, err))
}

func TestWorkedExample(t *testing.T) {
	ctx := context.Background()
	uc, reg, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	dedup, err := uc.RemoveDuplicates(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, MsgDuplicatesRemoved, dedup.Message)
	assert.Equal(t, 1, dedup.Removed)
	assert.Equal(t, entity.StateCleaned, dedup.Details.Meta.State)
	assert.Equal(t, 2, dedup.Details.Meta.Version)

	fill, err := uc.FillMissing(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, MsgMissingFilled, fill.Message)
	require.Len(t, fill.Filled, 1)
	assert.Equal(t, 10.0, fill.Filled[0].Mean)
	assert.Equal(t, [][]string{{"id", "amount"}, {"1", "10"}, {"2", "10"}}, fill.Details.Preview.Records())

	dl, err := uc.Export(ctx, sid, "data.csv", entity.FormatXLSX)
	require.NoError(t, err)
	assert.Equal(t, "data.xlsx", dl.Filename)
	assert.Equal(t, entity.MIMEXLSX, dl.ContentType)
	assert.NotEmpty(t, dl.Data)

	details, err := uc.Details(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, entity.StateExported, details.Meta.State)
	assert.Equal(t, []entity.Step{
		entity.StepParse, entity.StepRemoveDuplicates, entity.StepFillMissing, entity.StepExport,
	}, details.Meta.History)
	assert.Equal(t, 3, details.Meta.Version)

	assert.Equal(t, 1.0, counter(t, reg, "tabclean_exports_total", map[string]string{"format": "xlsx"}))
	assert.Equal(t, 1.0, counter(t, reg, "tabclean_transforms_total", map[string]string{"step": "fill_missing", "outcome": "applied"}))
}

func TestFillMissingWithoutNumericColumns(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("names.csv", "name\nana\n\n")})
	require.NoError(t, err)

	res, err := uc.FillMissing(ctx, sid, "names.csv")
	require.NoError(t, err)
	assert.Equal(t, []Warning{WarnNoNumericForImputation}, res.Warnings)
	assert.Empty(t, res.Message)

	details, err := uc.Details(ctx, sid, "names.csv")
	require.NoError(t, err)
	assert.Equal(t, entity.StateParsed, details.Meta.State, "nothing is committed")
}

func TestSelectColumns(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", "a,b,c\n1,x,2\n3,y,4\n")})
	require.NoError(t, err)

	cols, err := uc.Columns(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, cols.Default)
	assert.Len(t, cols.Options, 3)

	res, err := uc.SelectColumns(ctx, sid, "data.csv", []string{"c", "a"})
	require.NoError(t, err)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, entity.StateColumnSelected, res.Details.Meta.State)

	dl, err := uc.Export(ctx, sid, "data.csv", entity.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "a,c\n1,2\n3,4\n", string(dl.Data))

	_, err = uc.SelectColumns(ctx, sid, "data.csv", []string{"b"})
	assert.Equal(t, pkgerror.CodeInvalidInput, errCode(t, err))

	res, err = uc.SelectColumns(ctx, sid, "data.csv", nil)
	require.NoError(t, err)
	assert.Equal(t, []Warning{WarnEmptyColumnSelection}, res.Warnings)
	assert.Equal(t, 2, res.Details.Rows)

	chart, err := uc.Chart(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, []Warning{WarnNoNumericForChart}, chart.Warnings)

	_, err = uc.ChartSVG(ctx, sid, "data.csv")
	assert.Equal(t, pkgerror.CodeInvalidInput, errCode(t, err))

	dl, err = uc.Export(ctx, sid, "data.csv", entity.FormatCSV)
	require.NoError(t, err)
	assert.Equal(t, "\n", string(dl.Data))
}

func TestViewSource(t *testing.T) {
	ctx := context.Background()
	content := "a,b\n1,2\n1,2\n3,4\n"

	for _, tc := range []struct {
		source entity.ViewSource
		labels []string
	}{
		{source: entity.ViewCommitted, labels: []string{"0", "1"}},
		{source: entity.ViewOriginal, labels: []string{"0", "1", "2"}},
	} {
		t.Run(string(tc.source), func(t *testing.T) {
			uc, _, sid := newUsecase(t, Config{ViewSource: tc.source, ChartMaxColumns: 1})

			_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("v.csv", content)})
			require.NoError(t, err)
			_, err = uc.RemoveDuplicates(ctx, sid, "v.csv")
			require.NoError(t, err)

			res, err := uc.Chart(ctx, sid, "v.csv")
			require.NoError(t, err)
			assert.Equal(t, tc.labels, res.Projection.Labels)
			assert.Len(t, res.Projection.Series, 1)

			dl, err := uc.Export(ctx, sid, "v.csv", entity.FormatCSV)
			require.NoError(t, err)
			assert.Equal(t, "a,b\n1,2\n3,4\n", string(dl.Data), "export always reads the committed revision")
		})
	}
}

func TestChartSVG(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	dl, err := uc.ChartSVG(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, "data.svg", dl.Filename)
	assert.Equal(t, "image/svg+xml", dl.ContentType)
	assert.True(t, strings.Contains(string(dl.Data), "<svg"))

	details, err := uc.Details(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Equal(t, entity.StateVisualized, details.Meta.State)
	assert.Equal(t, 1, details.Meta.Version, "charting does not create a revision")
}

func TestUnknownSessionAndFile(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Details(ctx, "ghost", "data.csv")
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, err))

	_, err = uc.RemoveDuplicates(ctx, sid, "ghost.csv")
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, err))

	_, err = uc.Export(ctx, sid, "ghost.csv", entity.FormatCSV)
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, err))

	require.NoError(t, uc.CloseSession(ctx, sid))
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, uc.CloseSession(ctx, sid)))

	_, err = uc.Files(ctx, sid)
	assert.Equal(t, pkgerror.CodeNotFound, errCode(t, err))
}

func TestCommitFailureIsServerError(t *testing.T) {
	ctx := context.Background()
	mem := store.NewInMemoryStore()
	uc := New(Dependency{Store: mem, SessionID: &testID{}})

	sess, err := uc.CreateSession(ctx)
	require.NoError(t, err)
	_, err = uc.Upload(ctx, sess.SessionID, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	broken := New(Dependency{Store: failingStore{InMemoryStore: mem, err: errors.New("disk on fire")}})
	_, err = broken.RemoveDuplicates(ctx, sess.SessionID, "data.csv")
	assert.Equal(t, pkgerror.CodeInternal, errCode(t, err))
}

func TestExportUnsupportedFormat(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	_, err = uc.Export(ctx, sid, "data.csv", entity.Format("pdf"))
	assert.Equal(t, pkgerror.CodeUnsupported, errCode(t, err))
}

func TestUploadSameNameFirstInBatchWins(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{ParseWorkers: 4})

	var big strings.Builder
	big.WriteString("a\n")
	for i := range 5000 {
		fmt.Fprintf(&big, "%d\n", i)
	}

	res, err := uc.Upload(ctx, sid, []entity.UploadedFile{
		upload("x.csv", big.String()),
		upload("other.csv", "c\n1\n"),
		upload("x.csv", "b\n1\n"),
	})
	require.NoError(t, err)
	require.Len(t, res.Files, 3)

	assert.Equal(t, FileStatusParsed, res.Files[0].Status)
	assert.Equal(t, FileStatusParsed, res.Files[1].Status)
	assert.Equal(t, FileStatusCached, res.Files[2].Status)
	assert.Equal(t, 5000, res.Files[2].Details.Rows)

	details, err := uc.Details(ctx, sid, "x.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, details.Preview.Names())
}

func TestUploadSameNameRetriesAfterFailure(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{ParseWorkers: 4})

	res, err := uc.Upload(ctx, sid, []entity.UploadedFile{
		upload("y.csv", "a,b\n1\n"),
		upload("y.csv", "a\n1\n"),
	})
	require.NoError(t, err)

	assert.Equal(t, FileStatusFailed, res.Files[0].Status)
	assert.Equal(t, FileStatusParsed, res.Files[1].Status)
}

func TestDisplayStepsKeepConcurrentCommit(t *testing.T) {
	ctx := context.Background()

	for _, tc := range []struct {
		name    string
		display func(uc *Usecase, sid string) error
	}{
		{name: "chart", display: func(uc *Usecase, sid string) error {
			_, err := uc.Chart(ctx, sid, "data.csv")
			return err
		}},
		{name: "export", display: func(uc *Usecase, sid string) error {
			dl, err := uc.Export(ctx, sid, "data.csv", entity.FormatCSV)
			if err == nil && string(dl.Data) != "id,amount\n1,10\n2,\n" {
				return fmt.Errorf("export missed the committed edit: %q", dl.Data)
			}
			return err
		}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			mem := store.NewInMemoryStore()
			hooked := &interleavingStore{InMemoryStore: mem}
			uc := New(Dependency{Store: hooked, SessionID: &testID{}})
			other := New(Dependency{Store: mem})

			sess, err := uc.CreateSession(ctx)
			require.NoError(t, err)
			_, err = uc.Upload(ctx, sess.SessionID, []entity.UploadedFile{upload("data.csv", dataCSV)})
			require.NoError(t, err)

			hooked.before = func() {
				res, err := other.RemoveDuplicates(ctx, sess.SessionID, "data.csv")
				require.NoError(t, err)
				require.Equal(t, 1, res.Removed)
			}

			require.NoError(t, tc.display(uc, sess.SessionID))

			details, err := uc.Details(ctx, sess.SessionID, "data.csv")
			require.NoError(t, err)
			assert.Equal(t, 2, details.Rows)
			assert.Equal(t, 2, details.Meta.Version)
			require.Len(t, details.Meta.History, 3)
			assert.Equal(t, entity.StepRemoveDuplicates, details.Meta.History[1])
		})
	}
}

func TestConcurrentStepsAreAllRecorded(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("data.csv", dataCSV)})
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := range 30 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var err error
			switch i % 3 {
			case 0:
				_, err = uc.RemoveDuplicates(ctx, sid, "data.csv")
			case 1:
				_, err = uc.FillMissing(ctx, sid, "data.csv")
			default:
				_, err = uc.Chart(ctx, sid, "data.csv")
			}
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	details, err := uc.Details(ctx, sid, "data.csv")
	require.NoError(t, err)
	assert.Len(t, details.Meta.History, 31)
	assert.Equal(t, [][]string{{"id", "amount"}, {"1", "10"}, {"2", "10"}}, details.Preview.Records())
}

func TestColumnsDefaultIsSelectable(t *testing.T) {
	ctx := context.Background()
	uc, _, sid := newUsecase(t, Config{ViewSource: entity.ViewOriginal})

	_, err := uc.Upload(ctx, sid, []entity.UploadedFile{upload("c.csv", "a,b,c\n1,2,3\n")})
	require.NoError(t, err)
	_, err = uc.SelectColumns(ctx, sid, "c.csv", []string{"c", "a"})
	require.NoError(t, err)

	res, err := uc.Columns(ctx, sid, "c.csv")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, res.Default)

	_, err = uc.SelectColumns(ctx, sid, "c.csv", res.Default)
	assert.NoError(t, err)
}
