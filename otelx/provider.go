// Copyright 2025 Binaek Sarkar
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//	http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package otelx wires up tracing: a span per (rule, pair) scan and a
// child span per Send-phase replay attempt, so a slow or hanging rule
// can be traced back to the scan that caused it. Only the HTTP trace
// exporter is wired - the engine emits no metrics or logs over OTLP, so
// the metric/log exporters and the gRPC exporter variants are left out.
package otelx

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/redwire/redwire/constants"
)

// Config controls whether and where tracing exports.
type Config struct {
	Enabled  bool
	Endpoint string
}

// ShutdownFn flushes and stops the tracer provider.
type ShutdownFn func(context.Context) error

// InitProvider sets the global tracer provider when Enabled, otherwise
// a no-op tracer provider is left in place.
func InitProvider(ctx context.Context, cfg Config) (ShutdownFn, error) {
	if !cfg.Enabled {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(cfg.Endpoint))
	if err != nil {
		return nil, fmt.Errorf("creating trace exporter: %w", err)
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		semconv.ServiceNameKey.String(constants.APPNAME),
		semconv.ServiceVersionKey.String(constants.APPVERSION),
	))
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return provider.Shutdown, nil
}

// Tracer is the engine's single named tracer.
func Tracer() trace.Tracer {
	return otel.Tracer(constants.APPNAME)
}

// StartScan opens a span for one (rule, pair) scan.
func StartScan(ctx context.Context, ruleID string, pairIndex int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "scan", trace.WithAttributes(
		attribute.String("redwire.rule_id", ruleID),
		attribute.Int("redwire.pair_index", pairIndex),
	))
}

// StartSend opens a span for one Send-phase replay attempt.
func StartSend(ctx context.Context, sendID string, attempt int) (context.Context, trace.Span) {
	return Tracer().Start(ctx, "send", trace.WithAttributes(
		attribute.String("redwire.send_id", sendID),
		attribute.Int("redwire.attempt", attempt),
	))
}
