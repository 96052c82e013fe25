package cartcache

import (
	"github.com/shopspring/decimal"

	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/cart/pkg/response"
)

const (
	DefaultName  = "Product"
	DefaultImage = "img/placeholder.jpg"
)

// Item is one cart line as kept in the local copy. Items added while offline
// carry the product id as ID until the service copy is adopted.
type Item struct {
	ID        string          `json:"id"`
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int32           `json:"quantity"`
	Image     string          `json:"image,omitempty"`
}

// Candidate is a product as shown on a product card: the price is display text
// such as "$34.99".
type Candidate struct {
	ID    string
	Name  string
	Price string
	Image string
}

func findItem(items []Item, itemID string) int {
	for i, item := range items {
		if item.ID == itemID || item.ProductID == itemID {
			return i
		}
	}
	return -1
}

func cloneItems(items []Item) []Item {
	cloned := make([]Item, len(items))
	copy(cloned, items)
	return cloned
}

func itemsFromCart(cart response.Cart) []Item {
	items := make([]Item, len(cart.Items))
	for i, item := range cart.Items {
		items[i] = Item{
			ID:        item.ID.String(),
			ProductID: item.ProductID,
			Name:      item.Name,
			Price:     item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	return items
}

func replaceRequest(items []Item) request.ReplaceCart {
	req := request.ReplaceCart{Items: make([]request.CartItem, len(items))}
	for i, item := range items {
		price := item.Price
		productID := item.ProductID
		if productID == "" {
			productID = item.ID
		}
		req.Items[i] = request.CartItem{
			ProductId: productID,
			Name:      item.Name,
			Price:     &price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		}
	}
	return req
}
