package usecase

import "github.com/prometheus/client_golang/prometheus"

const metricsNamespace = "tabclean"

type Metrics struct {
	files      *prometheus.CounterVec
	transforms *prometheus.CounterVec
	exports    *prometheus.CounterVec
}

// NewMetrics builds the usecase counters and registers them on reg when it
// is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		files: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "files_processed_total",
			Help:      "Uploaded files by format and outcome.",
		}, []string{"format", "status"}),
		transforms: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "transforms_total",
			Help:      "Transform steps by step and outcome.",
		}, []string{"step", "outcome"}),
		exports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "exports_total",
			Help:      "Exports by target format.",
		}, []string{"format"}),
	}

	if reg != nil {
		reg.MustRegister(m.files, m.transforms, m.exports)
	}

	return m
}

func (m *Metrics) file(format string, status FileStatus) {
	if format == "" {
		format = "unknown"
	}
	m.files.WithLabelValues(format, string(status)).Inc()
}

func (m *Metrics) step(step string, outcome string) {
	m.transforms.WithLabelValues(step, outcome).Inc()
}

func (m *Metrics) export(format string) {
	m.exports.WithLabelValues(format).Inc()
}
