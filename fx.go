package spanz

import (
	"context"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// FXModule wires the process-wide pieces shared by every Tracer: config,
// logger, metrics and collector. Tracers themselves are per execution
// context and are built from Runtime.Options.
//
//	app := fx.New(
//	    spanz.FXModule,
//	    fx.Invoke(func(rt *spanz.Runtime) { ... }),
//	)
var FXModule = fx.Module("spanz",
	fx.Provide(
		NewConfigFromEnv,
		NewLoggerFromConfig,
		NewMetricsFromRegistry,
		NewCollectorFromConfig,
		NewRuntime,
	),
	fx.Invoke(RegisterCollectorLifecycle),
)

// NewConfigFromEnv loads Config from SPANZ_* environment variables.
func NewConfigFromEnv() (Config, error) {
	return LoadConfig(NewViper())
}

// NewLoggerFromConfig builds the logger at cfg.LogLevel.
func NewLoggerFromConfig(cfg Config) (*zap.Logger, error) {
	return NewLogger(cfg.LogLevel)
}

// MetricsParams lets the application supply its own registerer.
type MetricsParams struct {
	fx.In

	Registerer prometheus.Registerer `optional:"true"`
}

// NewMetricsFromRegistry registers counters with the supplied registerer,
// or leaves them unregistered when there is none.
func NewMetricsFromRegistry(p MetricsParams) *Metrics {
	return NewMetrics(p.Registerer)
}

// NewCollectorFromConfig starts a collector sized by cfg.
func NewCollectorFromConfig(cfg Config, logger *zap.Logger) *Collector {
	return NewCollector(cfg.CollectorBuffer, logger)
}

// RegisterCollectorLifecycle closes the collector when the app stops.
func RegisterCollectorLifecycle(lc fx.Lifecycle, c *Collector, logger *zap.Logger) {
	lc.Append(fx.Hook{
		OnStop: func(context.Context) error {
			logger.Info("shutting down span collector", zap.Int("buffered_chunks", c.Count()))
			c.Close()
			return nil
		},
	})
}

// Runtime bundles the shared pieces a Tracer needs.
type Runtime struct {
	Config    Config
	Logger    *zap.Logger
	Metrics   *Metrics
	Collector *Collector
}

// NewRuntime assembles a Runtime.
func NewRuntime(cfg Config, logger *zap.Logger, m *Metrics, c *Collector) *Runtime {
	return &Runtime{Config: cfg, Logger: logger, Metrics: m, Collector: c}
}

// Options returns the options that bind a new Tracer to this runtime.
func (r *Runtime) Options(extra ...Option) []Option {
	opts := []Option{
		WithConfig(r.Config),
		WithLogger(r.Logger),
		WithMetrics(r.Metrics),
		WithCollector(r.Collector),
	}
	return append(opts, extra...)
}

// NewDataTracer starts an execution context with SpanData payloads and the
// msgpack encoder.
func (r *Runtime) NewDataTracer(host *DataHost, extra ...Option) *Tracer[*SpanData] {
	return New[*SpanData](host, MsgpEncoder[*SpanData]{}, r.Options(extra...)...)
}
