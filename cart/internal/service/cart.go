package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"github.com/Alturino/wintercollection/cart/internal/cache"
	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/cart/internal/repository"
	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	"github.com/Alturino/wintercollection/internal/lock"
	"github.com/Alturino/wintercollection/internal/metric"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
)

// maxWriteAttempts bounds how often a mutation re-reads the cart after losing a
// conditional write to another instance.
const maxWriteAttempts = 3

type CartService struct {
	repository repository.Repository
	cache      cache.CartCache
	locks      *lock.KeyedMutex
	now        func() time.Time
}

func NewCartService(repository repository.Repository, cache cache.CartCache) CartService {
	return CartService{
		repository: repository,
		cache:      cache,
		locks:      lock.NewKeyedMutex(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

func (svc CartService) FindCartByUserId(c context.Context, userID string) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService FindCartByUserId")
	defer span.End()
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService FindCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Logger()

	if err := validateUserID(userID); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart in cache").Logger()
	logger.Info().Msg("finding cart in cache")
	c = logger.WithContext(c)
	cached, err := svc.cache.Get(c, userID)
	if err == nil {
		logger.Info().Msg("found cart in cache")
		return cached, nil
	}
	if !errors.Is(err, cache.ErrCacheMiss) {
		logger.Warn().Err(err).Msg("failed finding cart in cache, falling back to store")
	}

	// held until the cache fill so a concurrent commit cannot be shadowed by this read
	unlock := svc.locks.Lock(userID)
	defer unlock()

	logger = logger.With().Str(constants.KEY_PROCESS, "finding cart in store").Logger()
	logger.Info().Msg("finding cart in store")
	c = logger.WithContext(c)
	cart, err := svc.repository.FindCartByUserId(c, userID)
	if errors.Is(err, commonErrors.ErrCartNotFound) {
		logger.Info().Msg("cart not found, returning empty cart")
		metric.RecordCartOperation(c, "get", nil)
		return response.Empty(userID), nil
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart for userId=%s with error=%w", userID, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "get", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("found cart in store")

	resp := cart.Response()
	logger = logger.With().Str(constants.KEY_PROCESS, "setting cart to cache").Logger()
	logger.Info().Msg("setting cart to cache")
	if err = svc.cache.Set(c, resp); err != nil {
		logger.Warn().Err(err).Msg("failed setting cart to cache")
	} else {
		logger.Info().Msg("set cart to cache")
	}

	metric.RecordCartOperation(c, "get", nil)
	return resp, nil
}

func (svc CartService) InsertCartItem(
	c context.Context,
	userID string,
	param request.CartItem,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService InsertCartItem")
	defer span.End()
	span.SetAttributes(
		attribute.String(constants.KEY_USER_ID, userID),
		attribute.String(constants.KEY_PRODUCT_ID, param.ProductId),
	)

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService InsertCartItem").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_PRODUCT_ID, param.ProductId).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "validating cart item").Logger()
	logger.Info().Msg("validating cart item")
	item, err := newCartItem(param)
	if err == nil {
		err = validateUserID(userID)
	}
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "add_item", err)
		return response.Cart{}, err
	}
	logger = logger.With().Int32(constants.KEY_CART_ITEM_QUANTITY, item.Quantity).Logger()
	logger.Info().Msg("validated cart item")

	logger = logger.With().Str(constants.KEY_PROCESS, "adding item to cart").Logger()
	logger.Info().Msg("adding item to cart")
	c = logger.WithContext(c)
	cart, err := svc.mutate(c, userID, func(cart *repository.Cart, exists bool) error {
		if i := cart.FindProduct(item.ProductID); i >= 0 {
			cart.Items[i].Quantity += item.Quantity
			return nil
		}
		cart.Items = append(cart.Items, item)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed adding item to cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "add_item", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("added item to cart")

	metric.RecordCartOperation(c, "add_item", nil)
	return cart, nil
}

// UpdateCartItemQuantity sets the absolute quantity of an item. A quantity of
// zero or less removes the item.
func (svc CartService) UpdateCartItemQuantity(
	c context.Context,
	userID string,
	itemID string,
	quantity int32,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService UpdateCartItemQuantity")
	defer span.End()
	span.SetAttributes(
		attribute.String(constants.KEY_USER_ID, userID),
		attribute.String(constants.KEY_CART_ITEM_ID, itemID),
		attribute.Int(constants.KEY_CART_ITEM_QUANTITY, int(quantity)),
	)

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService UpdateCartItemQuantity").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Int32(constants.KEY_CART_ITEM_QUANTITY, quantity).
		Logger()

	if err := validateUserID(userID); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "update_item", err)
		return response.Cart{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "updating cart item quantity").Logger()
	logger.Info().Msg("updating cart item quantity")
	c = logger.WithContext(c)
	cart, err := svc.mutate(c, userID, func(cart *repository.Cart, exists bool) error {
		if !exists {
			return commonErrors.ErrCartNotFound
		}
		i := cart.FindItem(itemID)
		if i < 0 {
			return commonErrors.ErrCartItemNotFound
		}
		if quantity <= 0 {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return nil
		}
		cart.Items[i].Quantity = quantity
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed updating cart item quantity with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "update_item", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("updated cart item quantity")

	metric.RecordCartOperation(c, "update_item", nil)
	return cart, nil
}

func (svc CartService) RemoveCartItem(
	c context.Context,
	userID string,
	itemID string,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService RemoveCartItem")
	defer span.End()
	span.SetAttributes(
		attribute.String(constants.KEY_USER_ID, userID),
		attribute.String(constants.KEY_CART_ITEM_ID, itemID),
	)

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService RemoveCartItem").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Logger()

	if err := validateUserID(userID); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "remove_item", err)
		return response.Cart{}, err
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "removing cart item").Logger()
	logger.Info().Msg("removing cart item")
	c = logger.WithContext(c)
	cart, err := svc.mutate(c, userID, func(cart *repository.Cart, exists bool) error {
		if !exists {
			return commonErrors.ErrCartNotFound
		}
		i := cart.FindItem(itemID)
		if i < 0 {
			return commonErrors.ErrCartItemNotFound
		}
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed removing cart item with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "remove_item", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("removed cart item")

	metric.RecordCartOperation(c, "remove_item", nil)
	return cart, nil
}

func (svc CartService) RemoveCart(c context.Context, userID string) error {
	c, span := otel.Tracer.Start(c, "CartService RemoveCart")
	defer span.End()
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService RemoveCart").
		Str(constants.KEY_USER_ID, userID).
		Logger()

	if err := validateUserID(userID); err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "clear", err)
		return err
	}

	unlock := svc.locks.Lock(userID)
	defer unlock()

	logger = logger.With().Str(constants.KEY_PROCESS, "deleting cart").Logger()
	logger.Info().Msg("deleting cart")
	c = logger.WithContext(c)
	if err := svc.repository.DeleteCartByUserId(c, userID); err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "clear", err)
		return err
	}
	logger.Info().Msg("deleted cart")

	svc.invalidate(c, userID)
	metric.RecordCartOperation(c, "clear", nil)
	return nil
}

// ReplaceCart overwrites the item sequence of a cart with items, creating the cart
// when absent. Duplicate products are collapsed and ids of products already in
// the cart are kept.
func (svc CartService) ReplaceCart(
	c context.Context,
	userID string,
	param request.ReplaceCart,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService ReplaceCart")
	defer span.End()
	span.SetAttributes(attribute.String(constants.KEY_USER_ID, userID))

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService ReplaceCart").
		Str(constants.KEY_USER_ID, userID).
		Int(constants.KEY_CART_ITEMS_COUNT, len(param.Items)).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "validating cart items").Logger()
	logger.Info().Msg("validating cart items")
	err := validateUserID(userID)
	items := make([]repository.CartItem, 0, len(param.Items))
	for _, p := range param.Items {
		if err != nil {
			break
		}
		var item repository.CartItem
		item, err = newCartItem(p)
		items = append(items, item)
	}
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "replace", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("validated cart items")

	logger = logger.With().Str(constants.KEY_PROCESS, "replacing cart items").Logger()
	logger.Info().Msg("replacing cart items")
	c = logger.WithContext(c)
	cart, err := svc.mutate(c, userID, func(cart *repository.Cart, exists bool) error {
		merged := make([]repository.CartItem, 0, len(items))
		index := map[string]int{}
		for _, item := range items {
			if i, ok := index[item.ProductID]; ok {
				merged[i].Quantity += item.Quantity
				continue
			}
			if i := cart.FindProduct(item.ProductID); i >= 0 {
				item.ID = cart.Items[i].ID
			}
			index[item.ProductID] = len(merged)
			merged = append(merged, item)
		}
		cart.Items = merged
		return nil
	})
	if err != nil {
		err = fmt.Errorf("failed replacing cart items with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		metric.RecordCartOperation(c, "replace", err)
		return response.Cart{}, err
	}
	logger.Info().Msg("replaced cart items")

	metric.RecordCartOperation(c, "replace", nil)
	return cart, nil
}

// mutate applies fn to the current cart of userID and commits the result with a
// write conditional on the version that was read. Same-user calls are serialized
// in process; conflicts with other writers are retried.
func (svc CartService) mutate(
	c context.Context,
	userID string,
	fn func(cart *repository.Cart, exists bool) error,
) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "CartService mutate")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "CartService mutate").
		Str(constants.KEY_USER_ID, userID).
		Logger()

	unlock := svc.locks.Lock(userID)
	defer unlock()

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		logger := logger.With().Int(constants.KEY_RETRY_ATTEMPT, attempt).Logger()
		c := logger.WithContext(c)

		logger.Info().Msg("finding cart")
		cart, err := svc.repository.FindCartByUserId(c, userID)
		exists := true
		if errors.Is(err, commonErrors.ErrCartNotFound) {
			exists = false
			cart = repository.Cart{
				ID:        uuid.New(),
				UserID:    userID,
				Items:     []repository.CartItem{},
				CreatedAt: svc.now(),
			}
		} else if err != nil {
			return response.Cart{}, err
		}
		logger.Info().Bool("exists", exists).Int64(constants.KEY_CART_VERSION, cart.Version).Msg("found cart")

		expectedVersion := cart.Version
		if err = fn(&cart, exists); err != nil {
			return response.Cart{}, err
		}
		cart.Version = expectedVersion + 1
		cart.UpdatedAt = svc.now()

		var saved repository.Cart
		if exists {
			logger.Info().Msg("updating cart")
			saved, err = svc.repository.UpdateCart(c, cart, expectedVersion)
		} else {
			logger.Info().Msg("inserting cart")
			saved, err = svc.repository.InsertCart(c, cart)
		}
		if errors.Is(err, commonErrors.ErrVersionConflict) {
			metric.CartVersionConflicts.Inc()
			logger.Warn().Msg("cart was modified concurrently, retrying")
			continue
		}
		if err != nil {
			return response.Cart{}, err
		}
		logger.Info().Int64(constants.KEY_CART_VERSION, saved.Version).Msg("committed cart")

		svc.invalidate(c, userID)
		return saved.Response(), nil
	}

	err := fmt.Errorf("failed committing cart after %d attempts with error=%w", maxWriteAttempts, commonErrors.ErrVersionConflict)
	commonOtel.RecordError(err, span)
	logger.Error().Err(err).Msg(err.Error())
	return response.Cart{}, err
}

func (svc CartService) invalidate(c context.Context, userID string) {
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_PROCESS, "invalidating cached cart").
		Logger()

	logger.Info().Msg("invalidating cached cart")
	if err := svc.cache.Delete(c, userID); err != nil {
		logger.Warn().Err(err).Msg("failed invalidating cached cart")
		return
	}
	logger.Info().Msg("invalidated cached cart")
}

func validateUserID(userID string) error {
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("userId is required with error=%w", commonErrors.ErrValidation)
	}
	return nil
}

func newCartItem(param request.CartItem) (repository.CartItem, error) {
	switch {
	case strings.TrimSpace(param.ProductId) == "":
		return repository.CartItem{}, fmt.Errorf("productId is required with error=%w", commonErrors.ErrValidation)
	case strings.TrimSpace(param.Name) == "":
		return repository.CartItem{}, fmt.Errorf("name is required with error=%w", commonErrors.ErrValidation)
	case param.Price == nil:
		return repository.CartItem{}, fmt.Errorf("price is required with error=%w", commonErrors.ErrValidation)
	case param.Price.IsNegative():
		return repository.CartItem{}, fmt.Errorf("price=%s must not be negative with error=%w", param.Price.String(), commonErrors.ErrValidation)
	case param.Quantity < 0:
		return repository.CartItem{}, fmt.Errorf("quantity=%d must not be negative with error=%w", param.Quantity, commonErrors.ErrValidation)
	}

	quantity := param.Quantity
	if quantity == 0 {
		quantity = 1
	}
	return repository.CartItem{
		ID:        uuid.New(),
		ProductID: param.ProductId,
		Name:      param.Name,
		Price:     *param.Price,
		Quantity:  quantity,
		Image:     param.Image,
	}, nil
}
