package infra

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"

	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
	"github.com/Alturino/wintercollection/internal/otel"
)

// NewCacheClient connects to redis with otel tracing and metrics attached. The
// client is closed again when the connection check fails.
func NewCacheClient(c context.Context, cfg config.Cache) (*redis.Client, error) {
	c, span := otel.Tracer.Start(c, "infra NewCacheClient")
	defer span.End()

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "infra NewCacheClient").
		Str(constants.KEY_DB_URL, addr).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing redis client").Logger()
	logger.Info().Msg("initializing redis client")
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: cfg.Password,
		DB:       cfg.Database,
	})
	logger.Info().Msg("initialized redis client")

	logger = logger.With().Str(constants.KEY_PROCESS, "instrumenting redis client").Logger()
	logger.Info().Msg("instrumenting redis client")
	if err := redisotel.InstrumentTracing(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis tracing with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		_ = client.Close()
		return nil, err
	}
	if err := redisotel.InstrumentMetrics(client, redisotel.WithAttributes(semconv.DBSystemRedis)); err != nil {
		err = fmt.Errorf("failed instrumenting redis metrics with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		_ = client.Close()
		return nil, err
	}
	logger.Info().Msg("instrumented redis client")

	logger = logger.With().Str(constants.KEY_PROCESS, "pinging redis").Logger()
	logger.Info().Msg("pinging redis")
	if err := client.Ping(c).Err(); err != nil {
		err = fmt.Errorf("failed pinging redis at %s with error=%w", addr, err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		_ = client.Close()
		return nil, err
	}
	logger.Info().Msg("pinged redis")

	return client, nil
}
