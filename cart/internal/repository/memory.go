package repository

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

// MemoryRepository keeps carts in process memory. Used by tests and by the
// cart service when db.driver is memory.
type MemoryRepository struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{carts: map[string]Cart{}}
}

func (r *MemoryRepository) FindCartByUserId(c context.Context, userID string) (Cart, error) {
	_, span := otel.Tracer.Start(c, "MemoryRepository FindCartByUserId")
	defer span.End()

	r.mu.RLock()
	defer r.mu.RUnlock()

	cart, ok := r.carts[userID]
	if !ok {
		return Cart{}, commonErrors.ErrCartNotFound
	}
	return cart.Clone(), nil
}

func (r *MemoryRepository) InsertCart(c context.Context, cart Cart) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MemoryRepository InsertCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MemoryRepository InsertCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Logger()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[cart.UserID]; ok {
		logger.Info().Msg("cart already exists")
		return Cart{}, commonErrors.ErrVersionConflict
	}
	r.carts[cart.UserID] = cart.Clone()
	return cart, nil
}

func (r *MemoryRepository) UpdateCart(c context.Context, cart Cart, expectedVersion int64) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MemoryRepository UpdateCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MemoryRepository UpdateCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Int64(constants.KEY_CART_VERSION, expectedVersion).
		Logger()

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.carts[cart.UserID]
	if !ok || stored.Version != expectedVersion {
		logger.Info().Msg("stored cart version does not match")
		return Cart{}, commonErrors.ErrVersionConflict
	}
	r.carts[cart.UserID] = cart.Clone()
	return cart, nil
}

func (r *MemoryRepository) DeleteCartByUserId(c context.Context, userID string) error {
	_, span := otel.Tracer.Start(c, "MemoryRepository DeleteCartByUserId")
	defer span.End()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.carts[userID]; !ok {
		return commonErrors.ErrCartNotFound
	}
	delete(r.carts, userID)
	return nil
}
