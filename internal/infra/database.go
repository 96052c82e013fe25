package infra

import (
	"context"
	"errors"
	"fmt"

	"github.com/exaring/otelpgx"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	pgxuuid "github.com/vgarvardt/pgx-google-uuid/v5"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/Alturino/wintercollection/internal/config"
	"github.com/Alturino/wintercollection/internal/constants"
)

// NewDatabaseClient opens a traced pgx pool and brings the schema up to date
// with the migrations at dbConfig.MigrationPath.
func NewDatabaseClient(c context.Context, dbConfig config.Postgres) (*pgxpool.Pool, error) {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "infra NewDatabaseClient").
		Str(constants.KEY_PROCESS, "initializing postgresUrl").
		Logger()

	logger.Info().Msg("initializing postgresUrl")
	postgresUrl := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=disable",
		dbConfig.Username,
		dbConfig.Password,
		dbConfig.Host,
		int(dbConfig.Port),
		dbConfig.Name,
	)
	logger.Info().Msg("initialized postgresUrl")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing pgx config").Logger()
	logger.Info().Msg("initializing pgx config")
	pgxConfig, err := pgxpool.ParseConfig(postgresUrl)
	if err != nil {
		err = fmt.Errorf("failed creating pgx config with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	if dbConfig.MaxConnections > 0 {
		pgxConfig.MaxConns = dbConfig.MaxConnections
	}
	if dbConfig.MinConnections > 0 {
		pgxConfig.MinConns = dbConfig.MinConnections
	}
	pgxConfig.ConnConfig.Tracer = otelpgx.NewTracer(
		otelpgx.WithAttributes(semconv.DBSystemPostgreSQL),
	)
	pgxConfig.AfterConnect = func(c context.Context, conn *pgx.Conn) error {
		pgxuuid.Register(conn.TypeMap())
		return nil
	}
	logger.Info().Msg("initialized pgx config")

	logger = logger.With().Str(constants.KEY_PROCESS, "creating connection pool").Logger()
	logger.Info().Msg("creating connection pool")
	pool, err := pgxpool.NewWithConfig(c, pgxConfig)
	if err != nil {
		err = fmt.Errorf("failed creating connection pool with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	logger.Info().Msg("created connection pool")

	logger = logger.With().Str(constants.KEY_PROCESS, "ping db").Logger()
	logger.Info().Msg("ping db")
	err = pool.Ping(c)
	if err != nil {
		err = fmt.Errorf("failed ping db with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		pool.Close()
		return nil, err
	}
	logger.Info().Msg("successed ping db")

	c = logger.WithContext(c)
	if err = Migrate(c, pool, dbConfig.MigrationPath); err != nil {
		pool.Close()
		return nil, err
	}

	return pool, nil
}

// Migrate applies every pending up migration found at migrationPath.
func Migrate(c context.Context, pool *pgxpool.Pool, migrationPath string) error {
	logger := zerolog.Ctx(c).
		With().
		Str(constants.KEY_TAG, "infra Migrate").
		Str(constants.KEY_PROCESS, "initializing db driver").
		Logger()

	logger.Info().Msg("initializing db driver")
	db := stdlib.OpenDBFromPool(pool)
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		err = fmt.Errorf("failed creating postgres driver to do migration with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized db driver")

	logger = logger.With().Str(constants.KEY_PROCESS, "initializing migration").Logger()
	logger.Info().Msg("initializing migration")
	migration, err := migrate.NewWithDatabaseInstance(migrationPath, "postgres", driver)
	if err != nil {
		err = fmt.Errorf("failed initializing migration with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("initialized migration")

	logger = logger.With().Str(constants.KEY_PROCESS, "migration up").Logger()
	logger.Info().Msg("migration up")
	err = migration.Up()
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		err = fmt.Errorf("failed migration up with error=%w", err)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("successed migration up")

	return nil
}
