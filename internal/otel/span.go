// Package otel provides span helpers shared by the country registry layers.
package otel

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// Attribute keys used on registry spans.
const (
	AttrCountryCode  = attribute.Key("country.code")
	AttrCountryName  = attribute.Key("country.name")
	AttrCountryID    = attribute.Key("country.id")
	AttrSortByName   = attribute.Key("list.sort_by_name")
	AttrResultCount  = attribute.Key("result.count")
	AttrStorageType  = attribute.Key("storage.type")
	AttrSnapshotSize = attribute.Key("storage.snapshot_size")
)

// StartSpan starts a new span if the tracer is non-nil, otherwise a non-recording span.
func StartSpan(
	ctx context.Context,
	tracer trace.Tracer,
	name string,
	opts ...trace.SpanStartOption,
) (context.Context, trace.Span) {
	if tracer == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name, opts...)
	}
	return tracer.Start(ctx, name, opts...)
}

// RecordError records an error on a span and sets the span status to error.
// The status description stays generic so file paths and connection strings
// only show up in the recorded event.
func RecordError(span trace.Span, err error) {
	if err != nil && span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "operation failed")
	}
}

// RecordUnexpectedError behaves like RecordError but leaves the span status alone
// when err matches one of the expected errors, such as a missing country.
func RecordUnexpectedError(span trace.Span, err error, expected ...error) {
	if err == nil || span == nil {
		return
	}
	for _, e := range expected {
		if errors.Is(err, e) {
			span.SetAttributes(attribute.String("error.expected", err.Error()))
			return
		}
	}
	RecordError(span, err)
}
