package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
)

const uniqueViolation = "23505"

const (
	findCartByUserId = `SELECT id, user_id, items, version, created_at, updated_at
FROM carts
WHERE user_id = $1`

	insertCart = `INSERT INTO carts (id, user_id, items, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	updateCart = `UPDATE carts
SET items = $2, version = $3, updated_at = $4
WHERE user_id = $1 AND version = $5`

	deleteCartByUserId = `DELETE FROM carts WHERE user_id = $1`
)

type PostgresRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

func (r *PostgresRepository) FindCartByUserId(c context.Context, userID string) (Cart, error) {
	c, span := otel.Tracer.Start(c, "PostgresRepository FindCartByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "PostgresRepository FindCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_PROCESS, "finding cart").
		Logger()

	logger.Info().Msg("finding cart")
	cart := Cart{}
	items := []byte{}
	err := r.pool.QueryRow(c, findCartByUserId, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&items,
		&cart.Version,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		logger.Info().Msg("cart not found")
		return Cart{}, commonErrors.ErrCartNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart for userId=%s with error=%w: %w", userID, commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if err = json.Unmarshal(items, &cart.Items); err != nil {
		err = fmt.Errorf("failed decoding cart items with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if cart.Items == nil {
		cart.Items = []CartItem{}
	}
	cart.CreatedAt = cart.CreatedAt.UTC()
	cart.UpdatedAt = cart.UpdatedAt.UTC()
	logger.Info().Msg("found cart")
	return cart, nil
}

func (r *PostgresRepository) InsertCart(c context.Context, cart Cart) (Cart, error) {
	c, span := otel.Tracer.Start(c, "PostgresRepository InsertCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "PostgresRepository InsertCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Str(constants.KEY_PROCESS, "inserting cart").
		Logger()

	items, err := marshalItems(cart.Items)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}

	logger.Info().Msg("inserting cart")
	_, err = r.pool.Exec(c, insertCart, cart.ID, cart.UserID, items, cart.Version, cart.CreatedAt, cart.UpdatedAt)
	pgErr := &pgconn.PgError{}
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		logger.Info().Msg("cart already exists")
		return Cart{}, commonErrors.ErrVersionConflict
	}
	if err != nil {
		err = fmt.Errorf("failed inserting cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	logger.Info().Msg("inserted cart")
	return cart, nil
}

func (r *PostgresRepository) UpdateCart(c context.Context, cart Cart, expectedVersion int64) (Cart, error) {
	c, span := otel.Tracer.Start(c, "PostgresRepository UpdateCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "PostgresRepository UpdateCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Int64(constants.KEY_CART_VERSION, expectedVersion).
		Str(constants.KEY_PROCESS, "updating cart").
		Logger()

	items, err := marshalItems(cart.Items)
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}

	logger.Info().Msg("updating cart")
	tag, err := r.pool.Exec(c, updateCart, cart.UserID, items, cart.Version, cart.UpdatedAt, expectedVersion)
	if err != nil {
		err = fmt.Errorf("failed updating cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if tag.RowsAffected() == 0 {
		logger.Info().Msg("stored cart version does not match")
		return Cart{}, commonErrors.ErrVersionConflict
	}
	logger.Info().Msg("updated cart")
	return cart, nil
}

func (r *PostgresRepository) DeleteCartByUserId(c context.Context, userID string) error {
	c, span := otel.Tracer.Start(c, "PostgresRepository DeleteCartByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "PostgresRepository DeleteCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_PROCESS, "deleting cart").
		Logger()

	logger.Info().Msg("deleting cart")
	tag, err := r.pool.Exec(c, deleteCartByUserId, userID)
	if err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if tag.RowsAffected() == 0 {
		logger.Info().Msg("cart not found")
		return commonErrors.ErrCartNotFound
	}
	logger.Info().Msg("deleted cart")
	return nil
}

func marshalItems(items []CartItem) ([]byte, error) {
	if items == nil {
		items = []CartItem{}
	}
	encoded, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("failed encoding cart items with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
	}
	return encoded, nil
}
