package cartcache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Alturino/wintercollection/cart/pkg/request"
	"github.com/Alturino/wintercollection/cart/pkg/response"
	"github.com/Alturino/wintercollection/internal/constants"
	commonErrors "github.com/Alturino/wintercollection/internal/errors"
	commonOtel "github.com/Alturino/wintercollection/internal/otel"
	"github.com/Alturino/wintercollection/storefront/internal/otel"
)

// Remote is the cart service as seen by the storefront. cart/pkg/client.Client
// implements it.
type Remote interface {
	FindCartByUserId(c context.Context, userID string) (response.Cart, error)
	UpdateCartItemQuantity(c context.Context, userID string, itemID string, quantity int32) (response.Cart, error)
	RemoveCartItem(c context.Context, userID string, itemID string) (response.Cart, error)
	RemoveCart(c context.Context, userID string) error
	ReplaceCart(c context.Context, userID string, cart request.ReplaceCart) (response.Cart, error)
}

// Manager is the working copy of one user's cart. Mutations are serialized by mu
// while remote calls run outside of it. revision is bumped on every local change
// so responses that raced with a newer edit are not adopted wholesale.
//
// remoteMu orders the mutating calls to the service: at most one push or
// remove/update/clear is in flight, so the service applies them in the order
// they were sent. Lock order is remoteMu, then mu.
type Manager struct {
	mu        sync.Mutex
	remoteMu  sync.Mutex
	userID    string
	items     []Item
	revision  uint64
	dirty     bool
	pushing   bool
	storage   Storage
	remote    Remote
	listeners map[int]Listener
	nextID    int
	wg        sync.WaitGroup
}

// New restores the user identifier from storage, generating and persisting a
// fresh one when none is stored.
func New(c context.Context, storage Storage, remote Remote) *Manager {
	c, span := otel.Tracer.Start(c, "cartcache New")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "cartcache New").
		Str(constants.KEY_PROCESS, "restoring userId").
		Logger()

	logger.Info().Msg("restoring userId")
	userID, err := storage.Get(c, KEY_STORAGE_USER_ID)
	if err != nil || userID == "" {
		if err != nil && !errors.Is(err, ErrKeyNotFound) {
			logger.Warn().Err(err).Msg("failed reading userId, generating a new one")
		}
		userID = "user_" + strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
		if err := storage.Set(c, KEY_STORAGE_USER_ID, userID); err != nil {
			err = fmt.Errorf("failed persisting userId with error=%w", err)
			commonOtel.RecordError(err, span)
			logger.Error().Err(err).Msg(err.Error())
		}
	}
	logger.Info().Str(constants.KEY_USER_ID, userID).Msg("restored userId")

	return &Manager{
		userID:    userID,
		items:     []Item{},
		storage:   storage,
		remote:    remote,
		listeners: map[int]Listener{},
	}
}

func (m *Manager) UserID() string {
	return m.userID
}

func (m *Manager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneItems(m.items)
}

func (m *Manager) Summary() Summary {
	m.mu.Lock()
	defer m.mu.Unlock()
	return ComputeSummary(m.items)
}

// Subscribe registers listener for every published event and returns a func
// that removes it. Listeners run on the goroutine that produced the event.
func (m *Manager) Subscribe(listener Listener) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextID
	m.nextID++
	m.listeners[id] = listener
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.listeners, id)
	}
}

// Wait blocks until the pushes started by AddItem have reached the service.
func (m *Manager) Wait() {
	m.wg.Wait()
}

// Load adopts the locally stored items, then tries to replace them with the
// service copy. It never fails: on any error the local items stay authoritative.
func (m *Manager) Load(c context.Context) []Item {
	c, span := otel.Tracer.Start(c, "Manager Load")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager Load").
		Str(constants.KEY_USER_ID, m.userID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "reading local cart").Logger()
	logger.Info().Msg("reading local cart")
	c = logger.WithContext(c)
	local, err := m.readLocal(c)
	if err != nil {
		logger.Warn().Err(err).Msg("failed reading local cart, starting empty")
		local = []Item{}
	}
	m.mu.Lock()
	m.items = local
	m.revision++
	revision := m.revision
	event := m.eventLocked(EventLoaded, nil)
	m.mu.Unlock()
	m.publish(event)
	logger.Info().Int(constants.KEY_CART_ITEMS_COUNT, len(local)).Msg("read local cart")

	logger = logger.With().Str(constants.KEY_PROCESS, "fetching cart from service").Logger()
	logger.Info().Msg("fetching cart from service")
	cart, err := m.remote.FindCartByUserId(c, m.userID)
	if err != nil {
		err = fmt.Errorf("failed fetching cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(MessageUsingLocalCart)
		m.mu.Lock()
		event = m.eventLocked(EventSyncFailed, &Notification{Level: LevelWarning, Message: MessageUsingLocalCart})
		items := cloneItems(m.items)
		m.mu.Unlock()
		m.publish(event)
		return items
	}
	logger.Info().Msg("fetched cart from service")

	m.mu.Lock()
	if m.revision != revision {
		logger.Info().Msg("local cart changed while fetching, keeping local cart")
		items := cloneItems(m.items)
		m.mu.Unlock()
		return items
	}
	m.items = itemsFromCart(cart)
	m.revision++
	m.persistLocked(c)
	event = m.eventLocked(EventSynced, nil)
	items := cloneItems(m.items)
	m.mu.Unlock()
	m.publish(event)

	logger.Info().Int(constants.KEY_CART_ITEMS_COUNT, len(items)).Msg("adopted service cart")
	return items
}

// AddItem adds candidate to the local copy right away and pushes the whole
// sequence to the service in the background, one push at a time. A failed push
// keeps the local change.
func (m *Manager) AddItem(c context.Context, candidate Candidate) error {
	c, span := otel.Tracer.Start(c, "Manager AddItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager AddItem").
		Str(constants.KEY_USER_ID, m.userID).
		Str(constants.KEY_PRODUCT_ID, candidate.ID).
		Logger()

	logger = logger.With().Str(constants.KEY_PROCESS, "validating candidate").Logger()
	logger.Info().Msg("validating candidate")
	price, err := ParsePrice(candidate.Price)
	if strings.TrimSpace(candidate.ID) == "" {
		err = fmt.Errorf("product id is required with error=%w", commonErrors.ErrInvalidInput)
	}
	if err != nil {
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		m.fail(MessageAddFailed)
		return err
	}
	logger.Info().Msg("validated candidate")

	logger = logger.With().Str(constants.KEY_PROCESS, "adding item to local cart").Logger()
	logger.Info().Msg("adding item to local cart")
	c = logger.WithContext(c)
	m.mu.Lock()
	if i := findItem(m.items, candidate.ID); i >= 0 {
		m.items[i].Quantity++
	} else {
		name := strings.TrimSpace(candidate.Name)
		if name == "" {
			name = DefaultName
		}
		image := candidate.Image
		if image == "" {
			image = DefaultImage
		}
		m.items = append(m.items, Item{
			ID:        candidate.ID,
			ProductID: candidate.ID,
			Name:      name,
			Price:     price,
			Quantity:  1,
			Image:     image,
		})
	}
	m.revision++
	m.persistLocked(c)
	m.dirty = true
	startPush := !m.pushing
	if startPush {
		m.pushing = true
		m.wg.Add(1)
	}
	event := m.eventLocked(EventItemAdded, &Notification{Level: LevelSuccess, Message: MessageItemAdded})
	m.mu.Unlock()
	m.publish(event)
	logger.Info().Msg("added item to local cart")

	if startPush {
		go func() {
			defer m.wg.Done()
			m.drainPushes(context.WithoutCancel(c))
		}()
	}
	return nil
}

// drainPushes sends the local items to the service until no add is left
// unsent. Adds made while a push is in flight are folded into the next push,
// which carries the items as they are when it is sent.
func (m *Manager) drainPushes(c context.Context) {
	for {
		m.remoteMu.Lock()
		m.mu.Lock()
		if !m.dirty {
			m.pushing = false
			m.mu.Unlock()
			m.remoteMu.Unlock()
			return
		}
		m.dirty = false
		revision := m.revision
		snapshot := cloneItems(m.items)
		m.mu.Unlock()

		m.push(c, revision, snapshot)
		m.remoteMu.Unlock()
	}
}

func (m *Manager) push(c context.Context, revision uint64, items []Item) {
	c, span := otel.Tracer.Start(c, "Manager push")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager push").
		Str(constants.KEY_USER_ID, m.userID).
		Uint64(constants.KEY_CART_REVISION, revision).
		Str(constants.KEY_PROCESS, "pushing cart to service").
		Logger()

	logger.Info().Msg("pushing cart to service")
	cart, err := m.remote.ReplaceCart(c, m.userID, replaceRequest(items))
	if err != nil {
		err = fmt.Errorf("failed pushing cart with error=%w", err)
		commonOtel.RecordError(err, span)
		logger.Warn().Err(err).Msg(MessageUsingLocalCart)
		m.mu.Lock()
		event := m.eventLocked(EventSyncFailed, &Notification{Level: LevelWarning, Message: MessageUsingLocalCart})
		m.mu.Unlock()
		m.publish(event)
		return
	}
	logger.Info().Msg("pushed cart to service")

	m.mu.Lock()
	if m.revision != revision {
		m.mu.Unlock()
		logger.Info().Msg("local cart changed while pushing, keeping local cart")
		return
	}
	m.items = itemsFromCart(cart)
	m.revision++
	m.persistLocked(logger.WithContext(c))
	event := m.eventLocked(EventSynced, nil)
	m.mu.Unlock()
	m.publish(event)
}

// RemoveItem asks the service to delete itemID and adopts the returned cart.
// On failure the local copy is left untouched.
func (m *Manager) RemoveItem(c context.Context, itemID string) error {
	c, span := otel.Tracer.Start(c, "Manager RemoveItem")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager RemoveItem").
		Str(constants.KEY_USER_ID, m.userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Logger()

	return m.apply(
		logger.WithContext(c),
		"removing cart item",
		func(c context.Context) (response.Cart, error) {
			return m.remote.RemoveCartItem(c, m.userID, itemID)
		},
		func(items []Item) []Item {
			if i := findItem(items, itemID); i >= 0 {
				return append(items[:i], items[i+1:]...)
			}
			return items
		},
		EventItemRemoved,
		MessageItemRemoved,
		MessageRemoveFailed,
	)
}

// UpdateQuantity sets the quantity of itemID, clamped to at least one. An item
// missing from the local copy fails with ErrCartItemNotFound without a request.
func (m *Manager) UpdateQuantity(c context.Context, itemID string, quantity int32) error {
	c, span := otel.Tracer.Start(c, "Manager UpdateQuantity")
	defer span.End()

	if quantity < 1 {
		quantity = 1
	}
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager UpdateQuantity").
		Str(constants.KEY_USER_ID, m.userID).
		Str(constants.KEY_CART_ITEM_ID, itemID).
		Int32(constants.KEY_CART_ITEM_QUANTITY, quantity).
		Logger()

	m.mu.Lock()
	found := findItem(m.items, itemID) >= 0
	m.mu.Unlock()
	if !found {
		err := fmt.Errorf("itemId=%s with error=%w", itemID, commonErrors.ErrCartItemNotFound)
		commonOtel.RecordError(err, span)
		logger.Error().Err(err).Msg(err.Error())
		return err
	}

	return m.apply(
		logger.WithContext(c),
		"updating cart item quantity",
		func(c context.Context) (response.Cart, error) {
			return m.remote.UpdateCartItemQuantity(c, m.userID, itemID, quantity)
		},
		func(items []Item) []Item {
			if i := findItem(items, itemID); i >= 0 {
				items[i].Quantity = quantity
			}
			return items
		},
		EventQuantityUpdated,
		MessageQuantityUpdated,
		MessageUpdateFailed,
	)
}

// Clear deletes the service cart and empties the local copy on success.
func (m *Manager) Clear(c context.Context) error {
	c, span := otel.Tracer.Start(c, "Manager Clear")
	defer span.End()

	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_TAG, "Manager Clear").
		Str(constants.KEY_USER_ID, m.userID).
		Logger()

	return m.apply(
		logger.WithContext(c),
		"clearing cart",
		func(c context.Context) (response.Cart, error) {
			return response.Empty(m.userID), m.remote.RemoveCart(c, m.userID)
		},
		func([]Item) []Item { return []Item{} },
		EventCleared,
		MessageCartCleared,
		MessageClearFailed,
	)
}

// apply runs a remote mutation and merges its result into the local copy. When
// a newer local edit happened while the request was in flight, replay is applied
// to the current items instead of adopting the response.
func (m *Manager) apply(
	c context.Context,
	process string,
	call func(c context.Context) (response.Cart, error),
	replay func(items []Item) []Item,
	eventType EventType,
	successMessage string,
	failureMessage string,
) error {
	logger := zerolog.Ctx(c).With().Str(constants.KEY_PROCESS, process).Logger()

	m.remoteMu.Lock()
	defer m.remoteMu.Unlock()

	m.mu.Lock()
	revision := m.revision
	m.mu.Unlock()

	logger.Info().Msg(process)
	cart, err := call(c)
	if err != nil {
		err = fmt.Errorf("failed %s with error=%w", process, err)
		logger.Error().Err(err).Msg(err.Error())
		m.fail(failureMessage)
		return err
	}

	m.mu.Lock()
	if m.revision == revision {
		m.items = itemsFromCart(cart)
	} else {
		logger.Info().Msg("local cart changed while in flight, replaying locally")
		m.items = replay(cloneItems(m.items))
	}
	m.revision++
	m.persistLocked(c)
	event := m.eventLocked(eventType, &Notification{Level: LevelSuccess, Message: successMessage})
	m.mu.Unlock()
	m.publish(event)

	logger.Info().Msgf("done %s", process)
	return nil
}

func (m *Manager) fail(message string) {
	m.mu.Lock()
	event := m.eventLocked(EventFailed, &Notification{Level: LevelError, Message: message})
	m.mu.Unlock()
	m.publish(event)
}

func (m *Manager) readLocal(c context.Context) ([]Item, error) {
	value, err := m.storage.Get(c, cartKey(m.userID))
	if errors.Is(err, ErrKeyNotFound) {
		return []Item{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed reading local cart with error=%w", err)
	}
	items := []Item{}
	if err = json.Unmarshal([]byte(value), &items); err != nil {
		return nil, fmt.Errorf("failed decoding local cart with error=%w", err)
	}
	if items == nil {
		items = []Item{}
	}
	return items, nil
}

// persistLocked mirrors the items to storage. Failures are logged and the
// in-memory copy stays current. Callers hold m.mu.
func (m *Manager) persistLocked(c context.Context) {
	logger := zerolog.Ctx(c).With().
		Str(constants.KEY_STORAGE_KEY, cartKey(m.userID)).
		Logger()

	var err error
	if len(m.items) == 0 {
		err = m.storage.Delete(c, cartKey(m.userID))
	} else {
		var value []byte
		value, err = json.Marshal(m.items)
		if err == nil {
			err = m.storage.Set(c, cartKey(m.userID), string(value))
		}
	}
	if err != nil {
		logger.Warn().Err(err).Msg("failed persisting local cart")
	}
}

func (m *Manager) eventLocked(eventType EventType, notification *Notification) Event {
	return Event{
		Type:         eventType,
		Items:        cloneItems(m.items),
		Summary:      ComputeSummary(m.items),
		Notification: notification,
	}
}

func (m *Manager) publish(event Event) {
	m.mu.Lock()
	listeners := make([]Listener, 0, len(m.listeners))
	for _, listener := range m.listeners {
		listeners = append(listeners, listener)
	}
	m.mu.Unlock()

	for _, listener := range listeners {
		listener(event)
	}
}
