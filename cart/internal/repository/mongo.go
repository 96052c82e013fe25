package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/Alturino/wintercollection/cart/internal/otel"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
)

type cartDocument struct {
	ID        string         `bson:"_id"`
	UserID    string         `bson:"userId"`
	Items     []itemDocument `bson:"items"`
	Version   int64          `bson:"version"`
	CreatedAt time.Time      `bson:"createdAt"`
	UpdatedAt time.Time      `bson:"updatedAt"`
}

type itemDocument struct {
	ID        string               `bson:"id"`
	ProductID string               `bson:"productId"`
	Name      string               `bson:"name"`
	Price     primitive.Decimal128 `bson:"price"`
	Quantity  int32                `bson:"quantity"`
	Image     string               `bson:"image,omitempty"`
}

func newCartDocument(cart Cart) (cartDocument, error) {
	items := make([]itemDocument, len(cart.Items))
	for i, item := range cart.Items {
		price, err := primitive.ParseDecimal128(item.Price.String())
		if err != nil {
			return cartDocument{}, fmt.Errorf("failed converting price=%s with error=%w", item.Price.String(), err)
		}
		items[i] = itemDocument{
			ID:        item.ID.String(),
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	return cartDocument{
		ID:        cart.ID.String(),
		UserID:    cart.UserID,
		Items:     items,
		Version:   cart.Version,
		CreatedAt: cart.CreatedAt,
		UpdatedAt: cart.UpdatedAt,
	}, nil
}

func (d cartDocument) cart() (Cart, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return Cart{}, fmt.Errorf("failed parsing cartId=%s with error=%w", d.ID, err)
	}
	items := make([]CartItem, len(d.Items))
	for i, item := range d.Items {
		itemID, err := uuid.Parse(item.ID)
		if err != nil {
			return Cart{}, fmt.Errorf("failed parsing itemId=%s with error=%w", item.ID, err)
		}
		price, err := decimal.NewFromString(item.Price.String())
		if err != nil {
			return Cart{}, fmt.Errorf("failed parsing price=%s with error=%w", item.Price.String(), err)
		}
		items[i] = CartItem{
			ID:        itemID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	return Cart{
		ID:        id,
		UserID:    d.UserID,
		Items:     items,
		Version:   d.Version,
		CreatedAt: d.CreatedAt.UTC(),
		UpdatedAt: d.UpdatedAt.UTC(),
	}, nil
}

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(collection *mongo.Collection) *MongoRepository {
	return &MongoRepository{collection: collection}
}

// EnsureIndexes creates the unique userId index that backs one-cart-per-user.
func (r *MongoRepository) EnsureIndexes(c context.Context) error {
	c, span := otel.Tracer.Start(c, "MongoRepository EnsureIndexes")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MongoRepository EnsureIndexes").
		Str(constants.KEY_PROCESS, "creating userId index").
		Logger()

	logger.Info().Msg("creating userId index")
	_, err := r.collection.Indexes().CreateOne(c, mongo.IndexModel{
		Keys:    bson.D{{Key: "userId", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("userId_unique"),
	})
	if err != nil {
		err = fmt.Errorf("failed creating userId index with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	logger.Info().Msg("created userId index")
	return nil
}

func (r *MongoRepository) FindCartByUserId(c context.Context, userID string) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository FindCartByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MongoRepository FindCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_PROCESS, "finding cart").
		Logger()

	logger.Info().Msg("finding cart")
	doc := cartDocument{}
	err := r.collection.FindOne(c, bson.M{"userId": userID}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		logger.Info().Msg("cart not found")
		return Cart{}, commonErrors.ErrCartNotFound
	}
	if err != nil {
		err = fmt.Errorf("failed finding cart for userId=%s with error=%w: %w", userID, commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}

	cart, err := doc.cart()
	if err != nil {
		err = fmt.Errorf("failed decoding cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	logger.Info().Msg("found cart")
	return cart, nil
}

func (r *MongoRepository) InsertCart(c context.Context, cart Cart) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository InsertCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MongoRepository InsertCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Str(constants.KEY_PROCESS, "inserting cart").
		Logger()

	doc, err := newCartDocument(cart)
	if err != nil {
		err = fmt.Errorf("failed encoding cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}

	logger.Info().Msg("inserting cart")
	_, err = r.collection.InsertOne(c, doc)
	if mongo.IsDuplicateKeyError(err) {
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

func (r *MongoRepository) UpdateCart(c context.Context, cart Cart, expectedVersion int64) (Cart, error) {
	c, span := otel.Tracer.Start(c, "MongoRepository UpdateCart")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MongoRepository UpdateCart").
		Str(constants.KEY_USER_ID, cart.UserID).
		Int64(constants.KEY_CART_VERSION, expectedVersion).
		Str(constants.KEY_PROCESS, "replacing cart").
		Logger()

	doc, err := newCartDocument(cart)
	if err != nil {
		err = fmt.Errorf("failed encoding cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}

	logger.Info().Msg("replacing cart")
	result, err := r.collection.ReplaceOne(
		c,
		bson.M{"userId": cart.UserID, "version": expectedVersion},
		doc,
	)
	if err != nil {
		err = fmt.Errorf("failed replacing cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return Cart{}, err
	}
	if result.MatchedCount == 0 {
		logger.Info().Msg("stored cart version does not match")
		return Cart{}, commonErrors.ErrVersionConflict
	}
	logger.Info().Msg("replaced cart")
	return cart, nil
}

func (r *MongoRepository) DeleteCartByUserId(c context.Context, userID string) error {
	c, span := otel.Tracer.Start(c, "MongoRepository DeleteCartByUserId")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "MongoRepository DeleteCartByUserId").
		Str(constants.KEY_USER_ID, userID).
		Str(constants.KEY_PROCESS, "deleting cart").
		Logger()

	logger.Info().Msg("deleting cart")
	result, err := r.collection.DeleteOne(c, bson.M{"userId": userID})
	if err != nil {
		err = fmt.Errorf("failed deleting cart with error=%w: %w", commonErrors.ErrPersistenceFailure, err)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}
	if result.DeletedCount == 0 {
		logger.Info().Msg("cart not found")
		return commonErrors.ErrCartNotFound
	}
	logger.Info().Msg("deleted cart")
	return nil
}
