package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Alturino/wintercollection/cart/pkg/response"
)

// Repository persists one cart record per user id.
//
// UpdateCart is conditional: it only writes when the stored version still equals
// expectedVersion and reports errors.ErrVersionConflict otherwise. InsertCart
// reports errors.ErrVersionConflict when a cart for the user already exists.
type Repository interface {
	FindCartByUserId(c context.Context, userID string) (Cart, error)
	InsertCart(c context.Context, cart Cart) (Cart, error)
	UpdateCart(c context.Context, cart Cart, expectedVersion int64) (Cart, error)
	DeleteCartByUserId(c context.Context, userID string) error
}

type Cart struct {
	ID        uuid.UUID  `json:"id"`
	UserID    string     `json:"userId"`
	Items     []CartItem `json:"items"`
	Version   int64      `json:"version"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

type CartItem struct {
	ID        uuid.UUID       `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// FindItem returns the index of the item whose id or product id equals itemID, or -1.
func (c Cart) FindItem(itemID string) int {
	for i, item := range c.Items {
		if item.ID.String() == itemID || item.ProductID == itemID {
			return i
		}
	}
	return -1
}

func (c Cart) FindProduct(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

func (c Cart) Clone() Cart {
	cloned := c
	cloned.Items = make([]CartItem, len(c.Items))
	copy(cloned.Items, c.Items)
	return cloned
}

func (c Cart) Response() response.Cart {
	items := make([]response.CartItem, len(c.Items))
	for i, item := range c.Items {
		items[i] = response.CartItem{
			ID:        item.ID,
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	return response.Cart{
		ID:        c.ID,
		UserID:    c.UserID,
		Items:     items,
		Version:   c.Version,
		CreatedAt: c.CreatedAt,
		UpdatedAt: c.UpdatedAt,
	}
}
