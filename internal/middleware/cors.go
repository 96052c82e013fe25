package middleware

import (
	"net/http"

	"github.com/gorilla/handlers"
)

// AllowOrigin lets the storefront pages call the cart api from any origin.
// It wraps the whole router so preflight requests are answered before routing.
func AllowOrigin(next http.Handler) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
		handlers.AllowedMethods([]string{
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodPatch,
			http.MethodDelete,
			http.MethodOptions,
		}),
		handlers.AllowedHeaders([]string{"Content-Type", "X-Request-Id"}),
		handlers.OptionStatusCode(http.StatusNoContent),
	)(next)
}
