package controller

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Alturino/wintercollection/cart/internal/cache"
	"github.com/Alturino/wintercollection/cart/internal/repository"
	"github.com/Alturino/wintercollection/cart/internal/service"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Cart response.Cart `json:"cart"`
	} `json:"data"`
}

type step struct {
	method string
	path   string
	body   string
}

func newRouter() *mux.Router {
	cartService := service.NewCartService(repository.NewMemoryRepository(), cache.NopCartCache{})
	router := mux.NewRouter()
	AttachCartController(router, &cartService)
	return router
}

func do(t *testing.T, router http.Handler, s step) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	c := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339Nano}).
		Level(zerolog.WarnLevel).
		WithContext(context.Background())

	req := httptest.NewRequestWithContext(c, s.method, s.path, strings.NewReader(s.body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	env := envelope{}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&env), "response should be a json envelope")
	return rec, env
}

func TestCartController(t *testing.T) {
	addScarf := step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":"p1","name":"Scarf","price":19.99}`}
	addBoots := step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":"p2","name":"Boots","price":"89.00","quantity":2,"image":"img/boots.jpg"}`}

	tests := []struct {
		name               string
		given              []step
		when               step
		expectedStatusCode int
		expectedStatus     string
		expectedMessage    string
		expectedQuantities map[string]int32
	}{
		{
			name:               "given no cart when getting should return empty items",
			when:               step{http.MethodGet, "/api/cart/user_abc", ""},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{},
		},
		{
			name:               "given new item when posting should return created cart",
			when:               addScarf,
			expectedStatusCode: http.StatusCreated,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p1": 1},
		},
		{
			name:               "given existing item when posting again should increment quantity",
			given:              []step{addScarf, addBoots},
			when:               addScarf,
			expectedStatusCode: http.StatusCreated,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p1": 2, "p2": 2},
		},
		{
			name:               "given item without price when posting should return bad request",
			when:               step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":"p1","name":"Scarf"}`},
			expectedStatusCode: http.StatusBadRequest,
			expectedStatus:     "failed",
		},
		{
			name:               "given negative price when posting should return bad request",
			when:               step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":"p1","name":"Scarf","price":-5}`},
			expectedStatusCode: http.StatusBadRequest,
			expectedStatus:     "failed",
		},
		{
			name:               "given malformed json when posting should return bad request",
			when:               step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":`},
			expectedStatusCode: http.StatusBadRequest,
			expectedStatus:     "failed",
		},
		{
			name:               "given existing item when patching should set quantity",
			given:              []step{addScarf, addBoots},
			when:               step{http.MethodPatch, "/api/cart/user_abc/items/p2", `{"quantity":5}`},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p1": 1, "p2": 5},
		},
		{
			name:               "given zero quantity when patching should remove item",
			given:              []step{addScarf, addBoots},
			when:               step{http.MethodPatch, "/api/cart/user_abc/items/p2", `{"quantity":0}`},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p1": 1},
		},
		{
			name:               "given missing quantity when patching should return bad request",
			given:              []step{addScarf},
			when:               step{http.MethodPatch, "/api/cart/user_abc/items/p1", `{}`},
			expectedStatusCode: http.StatusBadRequest,
			expectedStatus:     "failed",
		},
		{
			name:               "given no cart when patching should return not found",
			when:               step{http.MethodPatch, "/api/cart/user_abc/items/p1", `{"quantity":2}`},
			expectedStatusCode: http.StatusNotFound,
			expectedStatus:     "failed",
			expectedMessage:    "cart not found",
		},
		{
			name:               "given existing item when deleting should return remaining items",
			given:              []step{addScarf, addBoots},
			when:               step{http.MethodDelete, "/api/cart/user_abc/items/p1", ""},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p2": 2},
		},
		{
			name:               "given unknown item when deleting should return not found",
			given:              []step{addScarf},
			when:               step{http.MethodDelete, "/api/cart/user_abc/items/missing", ""},
			expectedStatusCode: http.StatusNotFound,
			expectedStatus:     "failed",
			expectedMessage:    "item not found in cart",
		},
		{
			name:               "given cart when clearing should return cleared message",
			given:              []step{addScarf},
			when:               step{http.MethodDelete, "/api/cart/user_abc", ""},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedMessage:    "Cart cleared successfully",
		},
		{
			name:               "given no cart when clearing should return not found",
			when:               step{http.MethodDelete, "/api/cart/user_abc", ""},
			expectedStatusCode: http.StatusNotFound,
			expectedStatus:     "failed",
			expectedMessage:    "cart not found",
		},
		{
			name:  "given cart when putting items should replace sequence",
			given: []step{addScarf},
			when: step{http.MethodPut, "/api/cart/user_abc", `{"items":[
				{"productId":"p1","name":"Scarf","price":19.99,"quantity":4},
				{"productId":"p3","name":"Mittens","price":12.5,"quantity":1}
			]}`},
			expectedStatusCode: http.StatusOK,
			expectedStatus:     "success",
			expectedQuantities: map[string]int32{"p1": 4, "p3": 1},
		},
		{
			name:               "given invalid item when putting should return bad request",
			when:               step{http.MethodPut, "/api/cart/user_abc", `{"items":[{"productId":"p1"}]}`},
			expectedStatusCode: http.StatusBadRequest,
			expectedStatus:     "failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter()
			for _, s := range tt.given {
				rec, _ := do(t, router, s)
				require.Less(t, rec.Code, 300, "given step should succeed")
			}

			rec, actual := do(t, router, tt.when)
			assert.Equal(t, tt.expectedStatusCode, rec.Code)
			assert.Equal(t, tt.expectedStatusCode, actual.StatusCode, "envelope should carry the status code")
			assert.Equal(t, tt.expectedStatus, actual.Status)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			if tt.expectedMessage != "" {
				assert.Contains(t, actual.Message, tt.expectedMessage)
			}
			if tt.expectedQuantities != nil {
				quantities := map[string]int32{}
				for _, item := range actual.Data.Cart.Items {
					quantities[item.ProductID] = item.Quantity
				}
				assert.Equal(t, tt.expectedQuantities, quantities)
				assert.Equal(t, "user_abc", actual.Data.Cart.UserID)
			}
		})
	}
}

func TestCartControllerAddThenGetRoundTrip(t *testing.T) {
	router := newRouter()

	_, added := do(t, router, step{http.MethodPost, "/api/cart/user_abc/items", `{"productId":"p1","name":"Scarf","price":"34.99","image":"img/scarf.jpg"}`})
	_, found := do(t, router, step{http.MethodGet, "/api/cart/user_abc", ""})

	require.Len(t, found.Data.Cart.Items, 1)
	item := found.Data.Cart.Items[0]
	assert.Equal(t, added.Data.Cart.Items[0].ID, item.ID)
	assert.Equal(t, "p1", item.ProductID)
	assert.Equal(t, "Scarf", item.Name)
	assert.Equal(t, "34.99", item.Price.String())
	assert.Equal(t, int32(1), item.Quantity)
	assert.Equal(t, "img/scarf.jpg", item.Image)
}

func TestStatusCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "given validation error should be bad request", err: fmt.Errorf("wrapped with error=%w", commonErrors.ErrValidation), expected: http.StatusBadRequest},
		{name: "given invalid input should be bad request", err: commonErrors.ErrInvalidInput, expected: http.StatusBadRequest},
		{name: "given missing cart should be not found", err: commonErrors.ErrCartNotFound, expected: http.StatusNotFound},
		{name: "given missing item should be not found", err: commonErrors.ErrCartItemNotFound, expected: http.StatusNotFound},
		{name: "given version conflict should be conflict", err: commonErrors.ErrVersionConflict, expected: http.StatusConflict},
		{name: "given persistence failure should be internal server error", err: commonErrors.ErrPersistenceFailure, expected: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, statusCode(tt.err))
		})
	}
}
