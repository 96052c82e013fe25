package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	inHttp "github.com/Alturino/wintercollection/internal/http"
	"github.com/Alturino/wintercollection/internal/log"
	"github.com/Alturino/wintercollection/internal/otel"
)

const DefaultTimeout = 10 * time.Second

// Client talks to the cart service http api mounted at baseURL, for example
// http://localhost:5000/api/cart.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func New(baseURL string, timeout time.Duration) Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Transport: otelhttp.NewTransport(http.DefaultTransport),
			Timeout:   timeout,
		},
	}
}

type envelope struct {
	Status     string `json:"status"`
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	Data       struct {
		Cart *response.Cart `json:"cart"`
	} `json:"data"`
}

func (cl Client) FindCartByUserId(c context.Context, userID string) (response.Cart, error) {
	return cl.doCart(c, "Client FindCartByUserId", http.MethodGet, cl.cartURL(userID), nil)
}

func (cl Client) InsertCartItem(c context.Context, userID string, item request.CartItem) (response.Cart, error) {
	return cl.doCart(c, "Client InsertCartItem", http.MethodPost, cl.cartURL(userID)+"/items", item)
}

func (cl Client) UpdateCartItemQuantity(
	c context.Context,
	userID string,
	itemID string,
	quantity int32,
) (response.Cart, error) {
	return cl.doCart(
		c,
		"Client UpdateCartItemQuantity",
		http.MethodPatch,
		cl.itemURL(userID, itemID),
		request.UpdateCartItem{Quantity: &quantity},
	)
}

func (cl Client) RemoveCartItem(c context.Context, userID string, itemID string) (response.Cart, error) {
	return cl.doCart(c, "Client RemoveCartItem", http.MethodDelete, cl.itemURL(userID, itemID), nil)
}

func (cl Client) ReplaceCart(c context.Context, userID string, cart request.ReplaceCart) (response.Cart, error) {
	return cl.doCart(c, "Client ReplaceCart", http.MethodPut, cl.cartURL(userID), cart)
}

func (cl Client) RemoveCart(c context.Context, userID string) error {
	_, err := cl.do(c, "Client RemoveCart", http.MethodDelete, cl.cartURL(userID), nil)
	return err
}

func (cl Client) cartURL(userID string) string {
	return cl.baseURL + "/" + url.PathEscape(userID)
}

func (cl Client) itemURL(userID string, itemID string) string {
	return cl.cartURL(userID) + "/items/" + url.PathEscape(itemID)
}

func (cl Client) doCart(
	c context.Context,
	name string,
	method string,
	target string,
	body interface{},
) (response.Cart, error) {
	env, err := cl.do(c, name, method, target, body)
	if err != nil {
		return response.Cart{}, err
	}
	if env.Data.Cart == nil {
		return response.Cart{}, fmt.Errorf("response without cart with error=%w", commonErrors.ErrNetworkFailure)
	}
	cart := *env.Data.Cart
	if cart.Items == nil {
		cart.Items = []response.CartItem{}
	}
	return cart, nil
}

func (cl Client) do(
	c context.Context,
	name string,
	method string,
	target string,
	body interface{},
) (envelope, error) {
	c, span := otel.Tracer.Start(c, name)
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, name).
		Str(constants.KEY_REQUEST_METHOD, method).
		Str(constants.KEY_REQUEST_URL, target).
		Logger()

	var reader io.Reader
	if body != nil {
		logger = logger.With().Str(constants.KEY_PROCESS, "marshaling request body").Logger()
		encoded, err := json.Marshal(body)
		if err != nil {
			err = fmt.Errorf("failed marshaling request body with error=%w: %w", commonErrors.ErrInvalidInput, err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return envelope{}, err
		}
		reader = bytes.NewReader(encoded)
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "sending request").Logger()
	req, err := http.NewRequestWithContext(c, method, target, reader)
	if err != nil {
		err = fmt.Errorf("failed creating request with error=%w: %w", commonErrors.ErrNetworkFailure, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return envelope{}, err
	}
	req.Header.Set(inHttp.KEY_HEADER_CONTENT_TYPE, inHttp.VALUE_HEADER_APPLICATION_JSON)
	if requestID := log.RequestIDFromContext(c); requestID != "" {
		req.Header.Set(inHttp.KEY_HEADER_REQUEST_ID, requestID)
	}

	logger.Info().Msg("sending request")
	resp, err := cl.httpClient.Do(req)
	if err != nil {
		err = fmt.Errorf("failed sending request with error=%w: %w", commonErrors.ErrNetworkFailure, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return envelope{}, err
	}
	defer resp.Body.Close()
	logger = logger.With().Int(constants.KEY_RESPONSE_STATUS_CODE, resp.StatusCode).Logger()
	logger.Info().Msg("sent request")

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding response body").Logger()
	env := envelope{}
	if err = json.NewDecoder(resp.Body).Decode(&env); err != nil && resp.StatusCode < 300 {
		err = fmt.Errorf("failed decoding response body with error=%w: %w", commonErrors.ErrNetworkFailure, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return envelope{}, err
	}

	if err = statusError(resp.StatusCode, env.Message); err != nil {
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return envelope{}, err
	}
	logger.Info().Msg("decoded response body")
	return env, nil
}

// statusError maps a failed response to the sentinel the cart cache understands.
func statusError(statusCode int, message string) error {
	switch {
	case statusCode < 300:
		return nil
	case statusCode == http.StatusNotFound:
		if strings.Contains(message, commonErrors.ErrCartItemNotFound.Error()) {
			return fmt.Errorf("%s with error=%w", message, commonErrors.ErrCartItemNotFound)
		}
		return fmt.Errorf("%s with error=%w", message, commonErrors.ErrCartNotFound)
	case statusCode == http.StatusBadRequest:
		return fmt.Errorf("%s with error=%w", message, commonErrors.ErrValidation)
	case statusCode == http.StatusConflict:
		return fmt.Errorf("%s with error=%w", message, commonErrors.ErrVersionConflict)
	default:
		return fmt.Errorf("unexpected statusCode=%d message=%s with error=%w", statusCode, message, commonErrors.ErrNetworkFailure)
	}
}
