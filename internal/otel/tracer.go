package otel

import (
	"go.opentelemetry.io/otel"

	"github.com/Alturino/wintercollection/internal/constants"
)

var Tracer = otel.Tracer(constants.APP_MAIN)
