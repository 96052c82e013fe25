package response

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

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

// Empty is the cart returned for a user that has never added anything.
func Empty(userID string) Cart {
	return Cart{UserID: userID, Items: []CartItem{}}
}
