// Package tracing installs the OpenTelemetry tracer provider of the shell.
package tracing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/civicspot/internal/config"
)

// Provider is the tracer provider handed to the shell components.
type Provider struct {
	trace.TracerProvider
	sdk    *sdktrace.TracerProvider
	closer io.Closer
}

// Setup builds the provider described by cfg. When tracing is disabled the
// provider records nothing. Otherwise spans are written as JSON to
// cfg.Output, or to w when no output file is set (nil w means stderr), and
// the provider and W3C trace context propagator are installed globally.
func Setup(cfg config.TracingConfig, w io.Writer) (*Provider, error) {
	if !cfg.Enabled {
		return &Provider{TracerProvider: noop.NewTracerProvider()}, nil
	}

	p := &Provider{}
	if cfg.Output != "" {
		f, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("failed to open trace output: %w", err)
		}
		w, p.closer = f, f
	}
	if w == nil {
		w = os.Stderr
	}

	exporter, err := stdouttrace.New(stdouttrace.WithWriter(w))
	if err != nil {
		if p.closer != nil {
			_ = p.closer.Close()
		}
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	p.sdk = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(
			attribute.String("service.name", cfg.ServiceName),
		)),
	)
	p.TracerProvider = p.sdk

	otel.SetTracerProvider(p.sdk)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	return p, nil
}

// Shutdown flushes pending spans and releases the output file.
func (p *Provider) Shutdown(ctx context.Context) error {
	var errs []error
	if p.sdk != nil {
		errs = append(errs, p.sdk.Shutdown(ctx))
	}
	if p.closer != nil {
		errs = append(errs, p.closer.Close())
	}
	return errors.Join(errs...)
}
