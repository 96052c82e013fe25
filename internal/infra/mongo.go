package infra

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/contrib/instrumentation/go.mongodb.org/mongo-driver/mongo/otelmongo"

	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
)

const mongoConnectTimeout = 10 * time.Second

func NewMongoClient(c context.Context, cfg config.Mongo) (*mongo.Client, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "infra NewMongoClient").
		Str(constants.KEY_PROCESS, "connecting to mongodb").
		Logger()

	logger.Info().Msg("connecting to mongodb")
	timeoutCtx, cancel := context.WithTimeout(c, mongoConnectTimeout)
	defer cancel()

	opts := options.Client().
		ApplyURI(cfg.URI).
		SetMonitor(otelmongo.NewMonitor())
	client, err := mongo.Connect(timeoutCtx, opts)
	if err != nil {
		err = fmt.Errorf("failed connecting to mongodb with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("connected to mongodb")

	logger = logger.With().Str(constants.KEY_PROCESS, "pinging mongodb").Logger()
	logger.Info().Msg("pinging mongodb")
	if err = client.Ping(timeoutCtx, nil); err != nil {
		err = fmt.Errorf("failed pinging mongodb with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		_ = client.Disconnect(context.WithoutCancel(c))
		return nil, err
	}
	logger.Info().Msg("pinged mongodb")

	return client, nil
}
