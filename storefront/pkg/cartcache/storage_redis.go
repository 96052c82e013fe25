package cartcache

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	commonOtel "github.com/Alturino/wintercollection/internal/otel"
	"github.com/Alturino/wintercollection/storefront/internal/otel"
)

// RedisStorage keeps the local cart copy in redis so several storefront
// processes can share one session.
type RedisStorage struct {
	client *redis.Client
	prefix string
}

func NewRedisStorage(client *redis.Client, prefix string) RedisStorage {
	return RedisStorage{client: client, prefix: prefix}
}

func (s RedisStorage) Get(c context.Context, key string) (string, error) {
	c, span := otel.Tracer.Start(c, "RedisStorage Get")
	defer span.End()

	value, err := s.client.Get(c, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed getting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return "", err
	}
	return value, nil
}

func (s RedisStorage) Set(c context.Context, key string, value string) error {
	c, span := otel.Tracer.Start(c, "RedisStorage Set")
	defer span.End()

	if err := s.client.Set(c, s.prefix+key, value, 0).Err(); err != nil {
		err = fmt.Errorf("failed setting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return err
	}
	return nil
}

func (s RedisStorage) Delete(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "RedisStorage Delete")
	defer span.End()

	if err := s.client.Del(c, s.prefix+key).Err(); err != nil {
		err = fmt.Errorf("failed deleting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return err
	}
	return nil
}
