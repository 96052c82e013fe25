package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/wintercollection/cart/internal/cache"
	"github.com/Alturino/wintercollection/cart/internal/controller"
	"github.com/Alturino/wintercollection/cart/internal/repository"
	"github.com/Alturino/wintercollection/cart/internal/service"
	"github.com/Alturino/wintercollection/cart/pkg/request"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

func testContext() context.Context {
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		Level(zerolog.WarnLevel).
		WithContext(context.Background())
}

func newCartServer(t *testing.T) *httptest.Server {
	cartService := service.NewCartService(repository.NewMemoryRepository(), cache.NopCartCache{})
	router := mux.NewRouter()
	controller.AttachCartController(router, &cartService)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)
	return server
}

func TestClientAgainstCartService(t *testing.T) {
	c := testContext()
	server := newCartServer(t)
	cl := New(server.URL+"/api/cart/", time.Second)
	scarfPrice := decimal.RequireFromString("19.99")

	empty, err := cl.FindCartByUserId(c, "user_abc")
	require.NoError(t, err)
	assert.Empty(t, empty.Items)
	assert.NotNil(t, empty.Items)

	added, err := cl.InsertCartItem(c, "user_abc", request.CartItem{ProductId: "p1", Name: "Scarf", Price: &scarfPrice})
	require.NoError(t, err)
	require.Len(t, added.Items, 1)
	assert.True(t, scarfPrice.Equal(added.Items[0].Price))

	replaced, err := cl.ReplaceCart(c, "user_abc", request.ReplaceCart{Items: []request.CartItem{
		{ProductId: "p1", Name: "Scarf", Price: &scarfPrice, Quantity: 3},
		{ProductId: "p2", Name: "Boots", Price: &scarfPrice, Quantity: 1},
	}})
	require.NoError(t, err)
	require.Len(t, replaced.Items, 2)
	assert.Equal(t, added.Items[0].ID, replaced.Items[0].ID)

	updated, err := cl.UpdateCartItemQuantity(c, "user_abc", replaced.Items[1].ID.String(), 6)
	require.NoError(t, err)
	assert.Equal(t, int32(6), updated.Items[1].Quantity)

	removed, err := cl.RemoveCartItem(c, "user_abc", "p1")
	require.NoError(t, err)
	require.Len(t, removed.Items, 1)
	assert.Equal(t, "p2", removed.Items[0].ProductID)

	_, err = cl.RemoveCartItem(c, "user_abc", "p1")
	assert.ErrorIs(t, err, commonErrors.ErrCartItemNotFound)

	require.NoError(t, cl.RemoveCart(c, "user_abc"))
	err = cl.RemoveCart(c, "user_abc")
	assert.ErrorIs(t, err, commonErrors.ErrCartNotFound)

	_, err = cl.InsertCartItem(c, "user_abc", request.CartItem{ProductId: "p1"})
	assert.ErrorIs(t, err, commonErrors.ErrValidation)
}

func TestClientErrorMapping(t *testing.T) {
	tests := []struct {
		name        string
		handler     http.HandlerFunc
		expectedErr error
	}{
		{
			name: "given server error should return network failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
				_, _ = w.Write([]byte(`{"status":"failed","statusCode":500,"message":"persistence failure"}`))
			},
			expectedErr: commonErrors.ErrNetworkFailure,
		},
		{
			name: "given html error page should return network failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadGateway)
				_, _ = w.Write([]byte(`<html>bad gateway</html>`))
			},
			expectedErr: commonErrors.ErrNetworkFailure,
		},
		{
			name: "given conflict should return version conflict",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusConflict)
				_, _ = w.Write([]byte(`{"status":"failed","statusCode":409,"message":"cart was modified concurrently"}`))
			},
			expectedErr: commonErrors.ErrVersionConflict,
		},
		{
			name: "given success without cart should return network failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":"success","statusCode":200,"message":"ok"}`))
			},
			expectedErr: commonErrors.ErrNetworkFailure,
		},
		{
			name: "given malformed success body should return network failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"status":`))
			},
			expectedErr: commonErrors.ErrNetworkFailure,
		},
		{
			name: "given slow server should time out as network failure",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			expectedErr: commonErrors.ErrNetworkFailure,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			cl := New(server.URL, 200*time.Millisecond)
			_, err := cl.FindCartByUserId(testContext(), "user_abc")
			assert.ErrorIs(t, err, tt.expectedErr)
		})
	}
}

func TestClientUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	cl := New(url, time.Second)
	_, err := cl.FindCartByUserId(testContext(), "user_abc")
	assert.ErrorIs(t, err, commonErrors.ErrNetworkFailure)
}
