package cartcache

type EventType string

const (
	EventLoaded          EventType = "loaded"
	EventSynced          EventType = "synced"
	EventSyncFailed      EventType = "sync_failed"
	EventItemAdded       EventType = "item_added"
	EventItemRemoved     EventType = "item_removed"
	EventQuantityUpdated EventType = "quantity_updated"
	EventCleared         EventType = "cleared"
	EventFailed          EventType = "failed"
)

type Level string

const (
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

const (
	MessageItemAdded       = "Item added to cart!"
	MessageAddFailed       = "Failed to add item to cart"
	MessageItemRemoved     = "Item removed from cart!"
	MessageRemoveFailed    = "Failed to remove item from cart"
	MessageQuantityUpdated = "Quantity updated!"
	MessageUpdateFailed    = "Failed to update quantity"
	MessageCartCleared     = "Cart cleared!"
	MessageClearFailed     = "Failed to clear cart"
	MessageUsingLocalCart  = "Could not sync with server, using local cart"
)

type Notification struct {
	Level   Level
	Message string
}

// Event is published to subscribers after the visible cart changes or an
// operation produces a user facing outcome. Items and Summary describe the cart
// at the time of the event.
type Event struct {
	Type         EventType
	Items        []Item
	Summary      Summary
	Notification *Notification
}

type Listener func(Event)
