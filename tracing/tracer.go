// Package tracing wires OpenTelemetry spans around association runs.
// Tracing is off by default; when enabled, spans are written by the
// stdout exporter so a run can be inspected without a collector.
package tracing

import (
	"context"
	"io"
	gosync "sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/teranos/marksync/errors"
	"github.com/teranos/marksync/version"
)

// TracerName is the instrumentation scope of every marksync span.
const TracerName = "github.com/teranos/marksync"

// ExporterType selects where spans go.
type ExporterType string

const (
	ExporterNone   ExporterType = "none"
	ExporterStdout ExporterType = "stdout"
)

// Config holds tracing configuration, filled from the [tracing] section.
type Config struct {
	Enabled      bool
	ExporterType ExporterType
	ServiceName  string
	Output       io.Writer // stdout exporter destination; nil means os.Stdout
}

// DefaultConfig returns tracing disabled.
func DefaultConfig() Config {
	return Config{
		Enabled:      false,
		ExporterType: ExporterStdout,
		ServiceName:  "marksync",
	}
}

// ParseExporter validates an exporter name from configuration.
func ParseExporter(name string) (ExporterType, error) {
	switch ExporterType(name) {
	case ExporterNone, ExporterStdout:
		return ExporterType(name), nil
	}
	return "", errors.Newf("unknown tracing exporter %q (want stdout or none)", name)
}

// Tracer wraps an OpenTelemetry tracer and the provider that owns it.
type Tracer struct {
	tracer   trace.Tracer
	provider *sdktrace.TracerProvider
	config   Config
}

var (
	global   *Tracer
	globalMu gosync.Mutex
)

// Init builds a tracer from cfg and installs it as the process default.
func Init(ctx context.Context, cfg Config) (*Tracer, error) {
	t, err := New(ctx, cfg)
	if err != nil {
		return nil, err
	}
	globalMu.Lock()
	global = t
	globalMu.Unlock()
	return t, nil
}

// Default returns the installed tracer, or a no-op one.
func Default() *Tracer {
	globalMu.Lock()
	defer globalMu.Unlock()
	if global == nil {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: DefaultConfig(),
		}
	}
	return global
}

// New creates a tracer. A disabled config yields a no-op tracer.
func New(ctx context.Context, cfg Config) (*Tracer, error) {
	if !cfg.Enabled || cfg.ExporterType == ExporterNone {
		return &Tracer{
			tracer: noop.NewTracerProvider().Tracer(TracerName),
			config: cfg,
		}, nil
	}
	if cfg.ExporterType != ExporterStdout {
		return nil, errors.Newf("unsupported exporter type: %s", cfg.ExporterType)
	}

	opts := []stdouttrace.Option{stdouttrace.WithPrettyPrint()}
	if cfg.Output != nil {
		opts = append(opts, stdouttrace.WithWriter(cfg.Output))
	}
	exporter, err := stdouttrace.New(opts...)
	if err != nil {
		return nil, errors.Wrap(err, "create stdout exporter")
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version.VersionString()),
		),
	)
	if err != nil {
		return nil, errors.Wrap(err, "create trace resource")
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)

	return &Tracer{
		tracer:   provider.Tracer(TracerName, trace.WithInstrumentationVersion(version.VersionString())),
		provider: provider,
		config:   cfg,
	}, nil
}

// Enabled reports whether spans are exported.
func (t *Tracer) Enabled() bool { return t.provider != nil }

// Shutdown flushes pending spans.
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider == nil {
		return nil
	}
	return errors.Wrap(t.provider.Shutdown(ctx), "shutdown tracer provider")
}

// Start starts a span.
func (t *Tracer) Start(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, name, opts...)
}

// RunSpan covers one association run.
type RunSpan struct {
	span trace.Span
}

// StartRunSpan starts the span of an association run.
func (t *Tracer) StartRunSpan(ctx context.Context, runID, category string) (context.Context, *RunSpan) {
	ctx, span := t.tracer.Start(ctx, "associate.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.String("sync.category", category),
		),
	)
	return ctx, &RunSpan{span: span}
}

// SetState records the sync state picked for the run.
func (rs *RunSpan) SetState(state string) {
	rs.span.SetAttributes(attribute.String("sync.state", state))
}

// SetCounts records per-side change counts.
func (rs *RunSpan) SetCounts(localAdded, localDeleted, remoteAdded, remoteDeleted int) {
	rs.span.SetAttributes(
		attribute.Int("local.added", localAdded),
		attribute.Int("local.deleted", localDeleted),
		attribute.Int("remote.added", remoteAdded),
		attribute.Int("remote.deleted", remoteDeleted),
	)
}

// End ends the span as successful.
func (rs *RunSpan) End() {
	rs.span.SetStatus(codes.Ok, "")
	rs.span.End()
}

// EndWithError ends the span with err recorded.
func (rs *RunSpan) EndWithError(err error) {
	rs.span.RecordError(err)
	rs.span.SetStatus(codes.Error, err.Error())
	rs.span.End()
}

// Phase starts a child span for one step of a run. The returned func ends
// it, recording err when non-nil.
func (t *Tracer) Phase(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, func(err error)) {
	ctx, span := t.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	return ctx, func(err error) {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}
}

// TraceID returns the hex trace id of the span in ctx, or "" when there is
// no sampled span.
func TraceID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}
