package cartcache

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
)

// fakeRemote mimics the cart service in memory. err fails every call; gates
// block the named operation until the channel is closed.
type fakeRemote struct {
	mu      sync.Mutex
	carts   map[string][]response.CartItem
	err     error
	calls   map[string]int
	gates   map[string]chan struct{}
	entered chan string
}

func newFakeRemote() *fakeRemote {
	return &fakeRemote{
		carts:   map[string][]response.CartItem{},
		calls:   map[string]int{},
		gates:   map[string]chan struct{}{},
		entered: make(chan string, 64),
	}
}

func (f *fakeRemote) gate(op string) chan struct{} {
	f.mu.Lock()
	defer f.mu.Unlock()
	ch := make(chan struct{})
	f.gates[op] = ch
	return ch
}

func (f *fakeRemote) enter(op string) error {
	f.mu.Lock()
	f.calls[op]++
	gate := f.gates[op]
	err := f.err
	f.mu.Unlock()

	select {
	case f.entered <- op:
	default:
	}
	if gate != nil {
		<-gate
	}
	return err
}

func (f *fakeRemote) callCount(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

func (f *fakeRemote) cart(userID string) response.Cart {
	items := make([]response.CartItem, len(f.carts[userID]))
	copy(items, f.carts[userID])
	return response.Cart{UserID: userID, Items: items}
}

func (f *fakeRemote) find(userID string, itemID string) int {
	for i, item := range f.carts[userID] {
		if item.ID.String() == itemID || item.ProductID == itemID {
			return i
		}
	}
	return -1
}

func (f *fakeRemote) FindCartByUserId(_ context.Context, userID string) (response.Cart, error) {
	if err := f.enter("find"); err != nil {
		return response.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.cart(userID), nil
}

func (f *fakeRemote) UpdateCartItemQuantity(_ context.Context, userID string, itemID string, quantity int32) (response.Cart, error) {
	if err := f.enter("update"); err != nil {
		return response.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[userID]; !ok {
		return response.Cart{}, commonErrors.ErrCartNotFound
	}
	i := f.find(userID, itemID)
	if i < 0 {
		return response.Cart{}, commonErrors.ErrCartItemNotFound
	}
	f.carts[userID][i].Quantity = quantity
	return f.cart(userID), nil
}

func (f *fakeRemote) RemoveCartItem(_ context.Context, userID string, itemID string) (response.Cart, error) {
	if err := f.enter("remove"); err != nil {
		return response.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[userID]; !ok {
		return response.Cart{}, commonErrors.ErrCartNotFound
	}
	i := f.find(userID, itemID)
	if i < 0 {
		return response.Cart{}, commonErrors.ErrCartItemNotFound
	}
	f.carts[userID] = append(f.carts[userID][:i], f.carts[userID][i+1:]...)
	return f.cart(userID), nil
}

func (f *fakeRemote) RemoveCart(_ context.Context, userID string) error {
	if err := f.enter("clear"); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.carts[userID]; !ok {
		return commonErrors.ErrCartNotFound
	}
	delete(f.carts, userID)
	return nil
}

func (f *fakeRemote) ReplaceCart(_ context.Context, userID string, cart request.ReplaceCart) (response.Cart, error) {
	if err := f.enter("replace"); err != nil {
		return response.Cart{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	items := make([]response.CartItem, 0, len(cart.Items))
	for _, item := range cart.Items {
		id := uuid.New()
		if i := f.find(userID, item.ProductId); i >= 0 {
			id = f.carts[userID][i].ID
		}
		items = append(items, response.CartItem{
			ID:        id,
			ProductID: item.ProductId,
			Name:      item.Name,
			Price:     *item.Price,
			Quantity:  item.Quantity,
			Image:     item.Image,
		})
	}
	f.carts[userID] = items
	return f.cart(userID), nil
}

// seed stores items directly, as if another device had added them.
func (f *fakeRemote) seed(userID string, items ...response.CartItem) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.carts[userID] = append(f.carts[userID], items...)
}
