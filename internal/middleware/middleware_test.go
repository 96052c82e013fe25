package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	inHttp "github.com/Alturino/wintercollection/internal/http"
	"github.com/Alturino/wintercollection/internal/log"
)

func TestLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := zerolog.New(&logs)

	tests := []struct {
		name      string
		requestID string
	}{
		{name: "given request id header should reuse it", requestID: "req-123"},
		{name: "given no request id header should generate one"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logs.Reset()
			var seenID, seenBody string
			handler := Logging(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				seenID = log.RequestIDFromContext(r.Context())
				body, _ := io.ReadAll(r.Body)
				seenBody = string(body)
				w.WriteHeader(http.StatusCreated)
			}))

			req := httptest.NewRequest(http.MethodPost, "/api/cart/user_abc/items", strings.NewReader(`{"productId":"p1"}`))
			if tt.requestID != "" {
				req.Header.Set(inHttp.KEY_HEADER_REQUEST_ID, tt.requestID)
			}
			req = req.WithContext(logger.WithContext(req.Context()))
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusCreated, rec.Code)
			assert.Equal(t, `{"productId":"p1"}`, seenBody, "body should still be readable by the handler")
			assert.NotEmpty(t, seenID)
			assert.Equal(t, seenID, rec.Header().Get(inHttp.KEY_HEADER_REQUEST_ID))
			if tt.requestID != "" {
				assert.Equal(t, tt.requestID, seenID)
			}
			assert.Contains(t, logs.String(), `"message":"finished request"`)
			assert.Contains(t, logs.String(), `"responseStatusCode":201`)
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	handler := RecoverPanic(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cart/user_abc", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := map[string]interface{}{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, "failed", body["status"])
}

func TestAllowOrigin(t *testing.T) {
	called := false
	handler := AllowOrigin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	preflight := httptest.NewRequest(http.MethodOptions, "/api/cart/user_abc/items/p1", nil)
	preflight.Header.Set("Origin", "http://localhost:3000")
	preflight.Header.Set("Access-Control-Request-Method", http.MethodPatch)
	preflight.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, preflight)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, called, "preflight should not reach the router")
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, http.MethodPatch, rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Content-Type")

	req := httptest.NewRequest(http.MethodGet, "/api/cart/user_abc", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	assert.True(t, called)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
