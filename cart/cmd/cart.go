package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gorilla/mux/otelmux"

	"github.com/Alturino/wintercollection/cart/internal/cache"
	"github.com/Alturino/wintercollection/cart/internal/controller"
	cartOtel "github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/cart/internal/repository"
	"github.com/Alturino/wintercollection/cart/internal/service"
	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
	"github.com/Alturino/wintercollection/internal/infra"
	"github.com/Alturino/wintercollection/internal/metric"
	"github.com/Alturino/wintercollection/internal/middleware"
	"github.com/Alturino/wintercollection/internal/otel"
)

func RunCartService(c context.Context, cfg *config.Config) {
	c, span := cartOtel.Tracer.Start(c, "RunCartService")
	defer span.End()

	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_APP_NAME, constants.APP_CART_SERVICE).
		Str(constants.KEY_TAG, "main RunCartService").
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing otel sdk").Logger()
	logger.Info().Msg("initializing otel sdk")
	c = logger.WithContext(c)
	otelShutdowns, err := otel.InitOtelSdk(c, constants.APP_CART_SERVICE, cfg.Otel)
	if err != nil {
		err = fmt.Errorf("failed initializing otel sdk with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer func() {
		logger.Info().Msg("shutting down otel")
		err = otel.ShutdownOtel(context.WithoutCancel(c), otelShutdowns)
		if err != nil {
			err = fmt.Errorf("failed shutting down otel with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return
		}
		logger.Info().Msg("shutdown otel")
	}()
	logger.Info().Msg("initialized otel sdk")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing handler").Logger()
	logger.Info().Msg("initializing handler")
	c = logger.WithContext(c)
	handler, closeHandler, err := NewHandler(c, cfg)
	if err != nil {
		err = fmt.Errorf("failed initializing handler with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	defer closeHandler()
	logger.Info().Msg("initialized handler")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing server").Logger()
	logger.Info().Msg("initializing server")
	httpServer := http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Application.Host, cfg.Application.Port),
		BaseContext:  func(net.Listener) context.Context { return c },
		Handler:      handler,
		ReadTimeout:  45 * time.Second,
		WriteTimeout: 45 * time.Second,
	}
	logger.Info().Msg("initialized server")

	serverErr := make(chan error, 1)
	go func() {
		logger := logger.With().Str(constants.KEY_PROCESS, "start server").Logger()
		logger.Info().Msgf("start listening request at %s", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- fmt.Errorf("error=%w occured while server is running", err)
			return
		}
		logger.Info().Msg("server closed")
	}()

	select {
	case err = <-serverErr:
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	case <-c.Done():
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "shutting down http server").Logger()
	logger.Info().Msg("received interuption signal shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(c), 15*time.Second)
	defer cancel()
	err = httpServer.Shutdown(shutdownCtx)
	if err != nil {
		err = fmt.Errorf("failed shutting down http server with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return
	}
	logger.Info().Msg("shutdown http server")
}

// NewHandler wires the cart store, the optional read cache and the http routes
// described by cfg. The returned func releases the store and cache clients.
func NewHandler(c context.Context, cfg *config.Config) (http.Handler, func(), error) {
	c, span := cartOtel.Tracer.Start(c, "NewHandler")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "main NewHandler").
		Logger()

	closers := []func(){}
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	logger = logger.With().
		Str(constants.KEY_PROCESS, "initializing cart repository").
		Str(constants.KEY_DB_DRIVER, cfg.Database.Driver).
		Logger()
	logger.Info().Msg("initializing cart repository")
	c = logger.WithContext(c)
	cartRepository, closeRepository, err := newRepository(c, cfg.Database)
	if err != nil {
		err = fmt.Errorf("failed initializing cart repository with error=%w", err)
		otel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, nil, err
	}
	closers = append(closers, closeRepository)
	logger.Info().Msg("initialized cart repository")

	var cartCache cache.CartCache = cache.NopCartCache{}
	if cfg.Cache.Enabled {
		logger = logger.With().Str(constants.KEY_PROCESS, "initializing cache").Logger()
		logger.Info().Msg("initializing cache")
		c = logger.WithContext(c)
		redisClient, err := infra.NewCacheClient(c, cfg.Cache)
		if err != nil {
			closeAll()
			err = fmt.Errorf("failed initializing cache with error=%w", err)
			otel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
			return nil, nil, err
		}
		closers = append(closers, func() {
			logger.Info().Msg("shutting down cache")
			if err := redisClient.Close(); err != nil {
				err = fmt.Errorf("failed shutting down cache with error=%w", err)
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("shutdown cache")
		})
		cartCache = cache.NewRedisCartCache(redisClient, cfg.Cache.TTL)
		logger.Info().Msg("initialized cache")
	}

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing router").Logger()
	logger.Info().Msg("initializing router")
	router := mux.NewRouter()
	router.Use(
		middleware.RecoverPanic,
		otelmux.Middleware(constants.APP_CART_SERVICE),
		middleware.Logging,
		metric.Middleware,
	)
	router.Handle("/metrics", metric.Handler()).Methods(http.MethodGet)
	logger.Info().Msg("initialized router")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cart service").Logger()
	logger.Info().Msg("initializing cart service")
	cartService := service.NewCartService(cartRepository, cartCache)
	logger.Info().Msg("initialized cart service")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing cart controller").Logger()
	logger.Info().Msg("initializing cart controller")
	controller.AttachCartController(router, &cartService)
	logger.Info().Msg("initialized cart controller")

	if cfg.Application.StaticDir != "" {
		logger.Info().Msgf("serving storefront from %s", cfg.Application.StaticDir)
		router.PathPrefix("/").Handler(http.FileServer(http.Dir(cfg.Application.StaticDir)))
	}

	return middleware.AllowOrigin(router), closeAll, nil
}

// newRepository opens the cart store selected by cfg.Driver and returns it with
// its close func.
func newRepository(c context.Context, cfg config.Database) (repository.Repository, func(), error) {
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "main newRepository").
		Str(constants.KEY_DB_DRIVER, cfg.Driver).
		Logger()

	switch cfg.Driver {
	case "mongo", "mongodb":
		client, err := infra.NewMongoClient(c, cfg.Mongo)
		if err != nil {
			return nil, nil, err
		}
		mongoRepository := repository.NewMongoRepository(
			client.Database(cfg.Mongo.Name).Collection(cfg.Mongo.Collection),
		)
		if err = mongoRepository.EnsureIndexes(c); err != nil {
			_ = client.Disconnect(context.WithoutCancel(c))
			return nil, nil, err
		}
		return mongoRepository, func() {
			logger.Info().Msg("disconnecting mongo")
			if err := client.Disconnect(context.WithoutCancel(c)); err != nil {
				logger.Error().Err(err).Msg(err.Error())
				return
			}
			logger.Info().Msg("disconnected mongo")
		}, nil
	case "postgres":
		pool, err := infra.NewDatabaseClient(c, cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(pool), func() {
			logger.Info().Msg("closing database pool")
			pool.Close()
			logger.Info().Msg("closed database pool")
		}, nil
	case "memory":
		return repository.NewMemoryRepository(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown db driver=%s", cfg.Driver)
	}
}
