package app

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgconfig"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkglog"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkgrouter"
	"github.com/shandysiswandi/tabclean/internal/pkg/pkguid"
)

const serviceName = "tabclean"

var defaultConfig = map[string]any{
	"tz":                        "UTC",
	"log.level":                 "info",
	"server.address.http":       ":8080",
	"server.max_upload_bytes":   32 << 20,
	"modules.tabular.enabled":   true,
	"tabular.preview_rows":      5,
	"tabular.parse_workers":     4,
	"tabular.view_source":       "committed",
	"tabular.chart.max_columns": 0,
	"tabular.chart.width":       1024,
	"tabular.chart.height":      480,
	"tabular.export.sheet_name": "Sheet1",
	"tabular.export.csv_bom":    false,
	"snowflake.node_id":         -1,
}

func (a *App) initConfig() {
	path := "/config/config.yaml"
	if os.Getenv("LOCAL") == "true" {
		path = "./config/config.yaml"
	}

	cfg, err := pkgconfig.NewViper(path,
		pkgconfig.WithEnvPrefix("TABCLEAN"),
		pkgconfig.WithDefaults(defaultConfig),
	)
	if err != nil {
		slog.Error("failed to init config", "error", err)
		os.Exit(1)
	}

	//nolint:errcheck,gosec // ignore error
	os.Setenv("TZ", cfg.GetString("tz"))

	a.config = cfg
}

func (a *App) initLogging() {
	pkglog.InitLogging(serviceName, pkglog.ParseLevel(a.config.GetString("log.level")))
}

func (a *App) initLibraries() {
	a.uuid = pkguid.NewUUID()

	var (
		node *pkguid.Snowflake
		err  error
	)
	if id := a.config.GetInt("snowflake.node_id"); id >= 0 {
		node, err = pkguid.NewSnowflakeNode(id)
	} else {
		node, err = pkguid.NewSnowflake()
	}
	if err != nil {
		slog.Error("failed to init snowflake", "error", err)
		os.Exit(1)
	}
	a.revision = node

	a.registry = prometheus.NewRegistry()
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

func (a *App) initHTTPServer() {
	a.router = pkgrouter.NewRouter(a.uuid,
		pkgrouter.WithService(serviceName),
		pkgrouter.WithBodyLimit(a.config.GetInt("server.max_upload_bytes")),
	)
	a.router.Handle(http.MethodGet, "/metrics", promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{}))

	corsHandler := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		},
		AllowedHeaders:   []string{"*"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
	})

	a.httpServer = &http.Server{
		Addr:              a.config.GetString("server.address.http"),
		Handler:           corsHandler.Handler(a.router),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

//nolint:unparam // is always nil
func (a *App) initClosers() {
	if a.closerFn == nil {
		a.closerFn = map[string]func(context.Context) error{}
	}

	a.closerFn["HTTP Server"] = func(ctx context.Context) error {
		return a.httpServer.Shutdown(ctx)
	}
	a.closerFn["Config"] = func(context.Context) error {
		return a.config.Close()
	}
}
