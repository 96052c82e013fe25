package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/cart/internal/service"
	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	inHttp "github.com/Alturino/wintercollection/internal/http"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
	"github.com/Alturino/wintercollection/internal/validate"
)

type CartController struct {
	service *service.CartService
}

func AttachCartController(mux *mux.Router, service *service.CartService) {
	controller := CartController{service: service}

	router := mux.PathPrefix("/api/cart").Subrouter()
	router.HandleFunc("/{userId}", controller.FindCartByUserId).Methods(http.MethodGet)
	router.HandleFunc("/{userId}", controller.ReplaceCart).Methods(http.MethodPut)
	router.HandleFunc("/{userId}", controller.RemoveCart).Methods(http.MethodDelete)
	router.HandleFunc("/{userId}/items", controller.InsertCartItem).Methods(http.MethodPost)
	router.HandleFunc("/{userId}/items/{itemId}", controller.UpdateCartItemQuantity).
		Methods(http.MethodPatch)
	router.HandleFunc("/{userId}/items/{itemId}", controller.RemoveCartItem).
		Methods(http.MethodDelete)
}

// statusCode maps a service error to the http status written in the envelope.
func statusCode(err error) int {
	switch {
	case errors.Is(err, commonErrors.ErrValidation), errors.Is(err, commonErrors.ErrInvalidInput):
		return http.StatusBadRequest
	case commonErrors.IsNotFound(err):
		return http.StatusNotFound
	case errors.Is(err, commonErrors.ErrVersionConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func (ctrl CartController) FindCartByUserId(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController FindCartByUserId")
	defer span.End()

	pathValues := mux.Vars(r)
	userID := pathValues["userId"]
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController FindCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart").Logger()
	logger.Info().Msg("finding cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.FindCartByUserId(c, userID)
	if err != nil {
		err = fmt.Errorf("failed finding cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("found cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    fmt.Sprintf("found cart for userId=%s", userID),
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl CartController) InsertCartItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController InsertCartItem")
	defer span.End()

	pathValues := mux.Vars(r)
	userID := pathValues["userId"]
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController InsertCartItem").
		Str(constants.KEY_USER_ID, userID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.CartItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Any(constants.KEY_REQUEST_BODY, reqBody).Logger()
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "inserting cart item").Logger()
	logger.Info().Msg("inserting cart item")
	c = logger.WithContext(c)
	cart, err := ctrl.service.InsertCartItem(c, userID, reqBody)
	if err != nil {
		err = fmt.Errorf("failed inserting cart item with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("inserted cart item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusCreated,
		"message":    "successfully added item to cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl CartController) UpdateCartItemQuantity(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController UpdateCartItemQuantity")
	defer span.End()

	pathValues := mux.Vars(r)
	userID, itemID := pathValues["userId"], pathValues["itemId"]
	span.SetAttributes(
		attribute.String(constants.KEY_USER_ID, userID),
		attribute.String(constants.KEY_CART_ITEM_ID, itemID),
	)

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController UpdateCartItemQuantity").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.UpdateCartItem{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Int32(constants.KEY_CART_ITEM_QUANTITY, *reqBody.Quantity).Logger()
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "updating cart item quantity").Logger()
	logger.Info().Msg("updating cart item quantity")
	c = logger.WithContext(c)
	cart, err := ctrl.service.UpdateCartItemQuantity(c, userID, itemID, *reqBody.Quantity)
	if err != nil {
		err = fmt.Errorf("failed updating cart item quantity with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("updated cart item quantity")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully updated cart item quantity",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl CartController) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveCartItem")
	defer span.End()

	pathValues := mux.Vars(r)
	userID, itemID := pathValues["userId"], pathValues["itemId"]
	span.SetAttributes(
		attribute.String(constants.KEY_USER_ID, userID),
		attribute.String(constants.KEY_CART_ITEM_ID, itemID),
	)

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController RemoveCartItem").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	c = logger.WithContext(c)
	cart, err := ctrl.service.RemoveCartItem(c, userID, itemID)
	if err != nil {
		err = fmt.Errorf("failed removing cart item with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("removed cart item")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully removed cart item",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}

func (ctrl CartController) RemoveCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController RemoveCart")
	defer span.End()

	pathValues := mux.Vars(r)
	userID := pathValues["userId"]
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController RemoveCart").
		Str(constants.KEY_USER_ID, userID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "removing cart").Logger()
	logger.Info().Msg("removing cart")
	c = logger.WithContext(c)
	if err := ctrl.service.RemoveCart(c, userID); err != nil {
		err = fmt.Errorf("failed removing cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("removed cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "Cart cleared successfully",
	})
}

func (ctrl CartController) ReplaceCart(w http.ResponseWriter, r *http.Request) {
	c, span := otel.Tracer.Start(r.Context(), "CartController ReplaceCart")
	defer span.End()

	pathValues := mux.Vars(r)
	userID := pathValues["userId"]
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartController ReplaceCart").
		Str(constants.KEY_USER_ID, userID).
		Any(constants.KEY_PATH_VALUES, pathValues).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "decoding request body").Logger()
	logger.Info().Msg("decoding request body")
	reqBody := request.ReplaceCart{}
	if err := json.NewDecoder(r.Body).Decode(&reqBody); err != nil {
		err = fmt.Errorf("failed decoding request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger = logger.With().Int(constants.KEY_CART_ITEMS_COUNT, len(reqBody.Items)).Logger()
	logger.Info().Msg("decoded request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "validating request body").Logger()
	logger.Info().Msg("validating request body")
	if err := validate.Get().StructCtx(c, reqBody); err != nil {
		err = fmt.Errorf("failed validating request body with error=%w: %w", commonErrors.ErrValidation, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, http.StatusBadRequest, err)
		return
	}
	logger.Info().Msg("validated request body")

	logger = logger.With().Str(constants.KEY_PROCESS, "replacing cart").Logger()
	logger.Info().Msg("replacing cart")
	c = logger.WithContext(c)
	cart, err := ctrl.service.ReplaceCart(c, userID, reqBody)
	if err != nil {
		err = fmt.Errorf("failed replacing cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		inHttp.WriteFailedResponse(c, w, statusCode(err), err)
		return
	}
	logger.Info().Msg("replaced cart")

	inHttp.WriteJsonResponse(c, w, map[string]string{}, map[string]interface{}{
		"status":     "success",
		"statusCode": http.StatusOK,
		"message":    "successfully replaced cart",
		"data": map[string]interface{}{
			"cart": cart,
		},
	})
}
