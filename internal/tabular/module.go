package tabular

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkguid"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
	"github.com/shandysiswandi/tabclean/internal/tabular/inbound"
	"github.com/shandysiswandi/tabclean/internal/tabular/store"
	"github.com/shandysiswandi/tabclean/internal/tabular/usecase"
)

type Dependency struct {
	Config   pkgconfig.Config
	Router   *pkgrouter.Router
	ID       pkguid.StringID
	Revision pkguid.NumberID
	Metrics  prometheus.Registerer
}

func New(dep Dependency) (func(context.Context) error, error) {
	if dep.ID == nil {
		dep.ID = pkguid.NewUUID()
	}

	if dep.Revision == nil {
		node, err := pkguid.NewSnowflake()
		if err != nil {
			return nil, err
		}
		dep.Revision = node
	}

	uc := usecase.New(usecase.Dependency{
		Store:     store.NewInMemoryStore(),
		SessionID: dep.ID,
		Revision:  dep.Revision,
		Metrics:   usecase.NewMetrics(dep.Metrics),
		Config:    loadConfig(dep.Config),
	})

	inbound.RegisterHTTPEndpoint(dep.Router, uc)

	return nil, nil
}

func loadConfig(cfg pkgconfig.Config) usecase.Config {
	return usecase.Config{
		PreviewRows:     int(cfg.GetInt("tabular.preview_rows")),
		ParseWorkers:    int(cfg.GetInt("tabular.parse_workers")),
		ViewSource:      entity.ParseViewSource(cfg.GetString("tabular.view_source")),
		ChartMaxColumns: int(cfg.GetInt("tabular.chart.max_columns")),
		ChartWidth:      int(cfg.GetInt("tabular.chart.width")),
		ChartHeight:     int(cfg.GetInt("tabular.chart.height")),
		SheetName:       cfg.GetString("tabular.export.sheet_name"),
		CSVBOM:          cfg.GetBool("tabular.export.csv_bom"),
	}
}
