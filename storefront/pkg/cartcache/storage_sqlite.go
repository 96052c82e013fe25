package cartcache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/Alturino/wintercollection/internal/constants"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
	"github.com/Alturino/wintercollection/storefront/internal/otel"
)

const (
	createKVTable = `CREATE TABLE IF NOT EXISTS kv (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
)`
	getKV    = `SELECT value FROM kv WHERE key = ?`
	upsertKV = `INSERT INTO kv (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`
	deleteKV = `DELETE FROM kv WHERE key = ?`
)

// SQLiteStorage keeps the local cart copy in a single kv table of a sqlite file.
type SQLiteStorage struct {
	db *sql.DB
}

func NewSQLiteStorage(c context.Context, path string) (*SQLiteStorage, error) {
	c, span := otel.Tracer.Start(c, "NewSQLiteStorage")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "cartcache NewSQLiteStorage").
		Str(constants.KEY_DB_URL, path).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "opening sqlite").Logger()
	logger.Info().Msg("opening sqlite")
	db, err := sql.Open("sqlite", path)
	if err != nil {
		err = fmt.Errorf("failed opening sqlite with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return nil, err
	}
	db.SetMaxOpenConns(1)
	logger.Info().Msg("opened sqlite")

	logger = logger.With().Str(constants.KEY_PROCESS, "creating kv table").Logger()
	logger.Info().Msg("creating kv table")
	if _, err = db.ExecContext(c, createKVTable); err != nil {
		err = fmt.Errorf("failed creating kv table with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		_ = db.Close()
		return nil, err
	}
	logger.Info().Msg("created kv table")

	return &SQLiteStorage{db: db}, nil
}

func (s *SQLiteStorage) Get(c context.Context, key string) (string, error) {
	c, span := otel.Tracer.Start(c, "SQLiteStorage Get")
	defer span.End()

	value := ""
	err := s.db.QueryRowContext(c, getKV, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrKeyNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed getting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return "", err
	}
	return value, nil
}

func (s *SQLiteStorage) Set(c context.Context, key string, value string) error {
	c, span := otel.Tracer.Start(c, "SQLiteStorage Set")
	defer span.End()

	if _, err := s.db.ExecContext(c, upsertKV, key, value); err != nil {
		err = fmt.Errorf("failed setting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return err
	}
	return nil
}

func (s *SQLiteStorage) Delete(c context.Context, key string) error {
	c, span := otel.Tracer.Start(c, "SQLiteStorage Delete")
	defer span.End()

	if _, err := s.db.ExecContext(c, deleteKV, key); err != nil {
		err = fmt.Errorf("failed deleting key=%s with error=%w", key, err)
		commonOtel.RecordError(err, span)
		return err
	}
	return nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}
