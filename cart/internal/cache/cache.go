package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	"github.com/Alturino/wintercollection/internal/constants"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
)

var ErrCacheMiss = errors.New("cache miss")

// CartCache is a read-through copy of committed carts keyed by user id.
// The cart store stays authoritative; entries are dropped after every write.
type CartCache interface {
	Get(c context.Context, userID string) (response.Cart, error)
	Set(c context.Context, cart response.Cart) error
	Delete(c context.Context, userID string) error
}

type RedisCartCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCartCache(client *redis.Client, ttl time.Duration) RedisCartCache {
	return RedisCartCache{client: client, ttl: ttl}
}

func (r RedisCartCache) Get(c context.Context, userID string) (response.Cart, error) {
	c, span := otel.Tracer.Start(c, "RedisCartCache Get")
	defer span.End()

	cacheKey := fmt.Sprintf(KEY_CART_BY_USER_ID, userID)
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "RedisCartCache Get").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Str(constants.KEY_PROCESS, "getting cart from cache").
		Logger()

	logger.Info().Msg("getting cart from cache")
	value, err := r.client.Get(c, cacheKey).Result()
	if errors.Is(err, redis.Nil) {
		logger.Info().Msg("cart not found in cache")
		return response.Cart{}, ErrCacheMiss
	}
	if err != nil {
		err = fmt.Errorf("failed getting cart from cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}

	cart := response.Cart{}
	if err = json.Unmarshal([]byte(value), &cart); err != nil {
		err = fmt.Errorf("failed unmarshaling cached cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return response.Cart{}, err
	}
	logger.Info().Msg("got cart from cache")
	return cart, nil
}

func (r RedisCartCache) Set(c context.Context, cart response.Cart) error {
	c, span := otel.Tracer.Start(c, "RedisCartCache Set")
	defer span.End()

	cacheKey := fmt.Sprintf(KEY_CART_BY_USER_ID, cart.UserID)
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "RedisCartCache Set").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Str(constants.KEY_PROCESS, "setting cart to cache").
		Logger()

	logger.Info().Msg("marshaling cart")
	value, err := json.Marshal(cart)
	if err != nil {
		err = fmt.Errorf("failed marshaling cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger = logger.With().RawJSON(constants.KEY_JSON_CACHE, value).Logger()
	logger.Info().Msg("marshaled cart")

	logger.Info().Msg("setting cart to cache")
	if err = r.client.Set(c, cacheKey, value, r.ttl).Err(); err != nil {
		err = fmt.Errorf("failed setting cart to cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("set cart to cache")
	return nil
}

func (r RedisCartCache) Delete(c context.Context, userID string) error {
	c, span := otel.Tracer.Start(c, "RedisCartCache Delete")
	defer span.End()

	cacheKey := fmt.Sprintf(KEY_CART_BY_USER_ID, userID)
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "RedisCartCache Delete").
		Str(constants.KEY_CACHE_KEY, cacheKey).
		Str(constants.KEY_PROCESS, "deleting cart from cache").
		Logger()

	logger.Info().Msg("deleting cart from cache")
	if err := r.client.Del(c, cacheKey).Err(); err != nil {
		err = fmt.Errorf("failed deleting cart from cache with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("deleted cart from cache")
	return nil
}

// NopCartCache always misses. Used when cache.enabled is false.
type NopCartCache struct{}

func (NopCartCache) Get(context.Context, string) (response.Cart, error) {
	return response.Cart{}, ErrCacheMiss
}

func (NopCartCache) Set(context.Context, response.Cart) error { return nil }

func (NopCartCache) Delete(context.Context, string) error { return nil }
