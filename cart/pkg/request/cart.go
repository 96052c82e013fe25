package request

import (
	"github.com/shopspring/decimal"
)

type CartItem struct {
	ProductId string           `validate:"required"           json:"productId"`
	Name      string           `validate:"required"           json:"name"`
	Price     *decimal.Decimal `validate:"required,gte=0"     json:"price"`
	Quantity  int32            `validate:"omitempty,gte=1"    json:"quantity,omitempty"`
	Image     string           `validate:"omitempty,max=2048" json:"image,omitempty"`
}

type UpdateCartItem struct {
	Quantity *int32 `validate:"required" json:"quantity"`
}

type ReplaceCart struct {
	Items []CartItem `validate:"dive" json:"items"`
}
