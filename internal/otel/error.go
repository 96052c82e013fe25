package otel

import (
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

const KEY_ERROR_KIND = "error.kind"

// RecordError marks span as failed with err. Not found and validation errors are
// client mistakes, so the span keeps an unset status for them.
func RecordError(err error, span trace.Span) {
	if err == nil {
		return
	}
	kind := commonErrors.Kind(err)
	span.SetAttributes(attribute.String(KEY_ERROR_KIND, kind))
	span.RecordError(err)
	switch kind {
	case "not_found", "validation", "invalid_input":
		return
	}
	span.SetStatus(codes.Error, err.Error())
}
