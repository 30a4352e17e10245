// Copyright (c) 2024 IoTeX Foundation
// This source code is provided 'as is' and no warranties are given as to title or non-infringement, merchantability
// or fitness for purpose and, to the extent permitted by law, all liability for your use of the code is disclaimed.
// This source code is governed by Apache License 2.0 that can be found in the LICENSE file.

package tracer

import (
	"context"
	"strconv"

	"github.com/pkg/errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/sdk/resource"
	tracesdk "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const (
	_service = "pdao-governance"
)

type (
	// Config is the tracer config
	Config struct {
		// ServiceName is the name of the service reported to the collector
		ServiceName string `yaml:"serviceName"`
		// EndPoint is the jaeger collector endpoint, tracing is disabled when empty
		EndPoint string `yaml:"endpoint"`
		// SamplingRatio is the fraction of traces sampled, e.g. "0.5"
		SamplingRatio string `yaml:"samplingRatio"`
	}

	// Option the tracer provider option
	Option func(ops *optionParams) error

	optionParams struct {
		serviceName   string
		endpoint      string
		samplingRatio float64
	}
)

// WithServiceName defines service name
func WithServiceName(name string) Option {
	return func(ops *optionParams) error {
		ops.serviceName = name
		return nil
	}
}

// WithEndpoint defines the full URL to the collector
func WithEndpoint(endpoint string) Option {
	return func(ops *optionParams) error {
		ops.endpoint = endpoint
		return nil
	}
}

// WithSamplingRatio defines the sampling ratio, empty string keeps the default
func WithSamplingRatio(rate string) Option {
	return func(ops *optionParams) error {
		if rate == "" {
			return nil
		}
		ratio, err := strconv.ParseFloat(rate, 64)
		if err != nil {
			return errors.Wrapf(err, "invalid sampling ratio %s", rate)
		}
		ops.samplingRatio = ratio
		return nil
	}
}

// NewProvider creates an instance of trace provider. A nil provider is
// returned when no endpoint is configured.
func NewProvider(opts ...Option) (*tracesdk.TracerProvider, error) {
	ops := optionParams{
		serviceName:   _service,
		samplingRatio: 1,
	}
	for _, opt := range opts {
		if err := opt(&ops); err != nil {
			return nil, err
		}
	}
	if ops.endpoint == "" {
		return nil, nil
	}
	exp, err := jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(ops.endpoint)))
	if err != nil {
		return nil, errors.Wrap(err, "failed to create jaeger exporter")
	}
	tp := tracesdk.NewTracerProvider(
		tracesdk.WithBatcher(exp),
		tracesdk.WithSampler(tracesdk.ParentBased(tracesdk.TraceIDRatioBased(ops.samplingRatio))),
		tracesdk.WithResource(resource.NewSchemaless(
			attribute.String("service.name", ops.serviceName),
		)),
	)
	otel.SetTracerProvider(tp)
	return tp, nil
}

// NewProviderFromConfig creates a provider from the tracer config
func NewProviderFromConfig(cfg Config) (*tracesdk.TracerProvider, error) {
	opts := []Option{
		WithEndpoint(cfg.EndPoint),
		WithSamplingRatio(cfg.SamplingRatio),
	}
	if cfg.ServiceName != "" {
		opts = append(opts, WithServiceName(cfg.ServiceName))
	}
	return NewProvider(opts...)
}

// NewSpan starts a span from the global tracer provider
func NewSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return otel.Tracer(_service).Start(ctx, name, trace.WithAttributes(attrs...))
}
