package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/Alturino/wintercollection/internal/constants"
	inHttp "github.com/Alturino/wintercollection/internal/http"
	"github.com/Alturino/wintercollection/internal/log"
	"github.com/Alturino/wintercollection/internal/otel"
)

type responseRecorder struct {
	http.ResponseWriter
	statusCode int
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	r.statusCode = statusCode
	r.ResponseWriter.WriteHeader(statusCode)
}

// Logging attaches a request id and a request scoped logger to the context and
// logs the outcome of every request.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(inHttp.KEY_HEADER_REQUEST_ID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c, span := otel.Tracer.Start(
			r.Context(),
			"middleware Logging",
			trace.WithAttributes(
				attribute.String(constants.KEY_REQUEST_ID, requestID),
				attribute.String(constants.KEY_REQUEST_HOST, r.Host),
				attribute.String(constants.KEY_REQUEST_IP, r.RemoteAddr),
				attribute.String(constants.KEY_REQUEST_METHOD, r.Method),
				attribute.String(constants.KEY_REQUEST_URI, r.RequestURI),
				attribute.String(constants.KEY_REQUEST_URL, r.URL.String()),
			),
		)
		defer span.End()

		requestBody := map[string]interface{}{}
		if r.Body != nil {
			var buffer bytes.Buffer
			tee := io.TeeReader(r.Body, &buffer)
			_ = json.NewDecoder(tee).Decode(&requestBody)
			_, _ = io.Copy(&buffer, r.Body)
			r.Body = io.NopCloser(&buffer)
		}

		logger := zerolog.Ctx(c).
			With().
			Str(constants.KEY_REQUEST_ID, requestID).
			Dict(constants.KEY_REQUEST, zerolog.Dict().
				Any(constants.KEY_HEADER, r.Header).
				Str(constants.KEY_REQUEST_HOST, r.Host).
				Str(constants.KEY_REQUEST_IP, r.RemoteAddr).
				Str(constants.KEY_REQUEST_METHOD, r.Method).
				Str(constants.KEY_REQUEST_URI, r.RequestURI).
				Str(constants.KEY_REQUEST_URL, r.URL.String()).
				Any(constants.KEY_BODY, requestBody)).
			Str(constants.KEY_TAG, "middleware Logging").
			Logger()

		logger.Trace().Msg("attaching request value to context")
		c = log.AttachRequestIDToContext(c, requestID)
		c = logger.WithContext(c)
		r = r.WithContext(c)
		w.Header().Set(inHttp.KEY_HEADER_REQUEST_ID, requestID)
		logger.Trace().Msg("attached request value to context")

		rec := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rec, r)

		span.SetAttributes(attribute.Int(constants.KEY_RESPONSE_STATUS_CODE, rec.statusCode))
		event := logger.Info()
		if rec.statusCode >= http.StatusInternalServerError {
			event = logger.Error()
		}
		event.Int(constants.KEY_RESPONSE_STATUS_CODE, rec.statusCode).
			Dur("duration", time.Since(start)).
			Msg("finished request")
	})
}
