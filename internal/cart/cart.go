// Package cart implements the per-user shopping cart. Carts live in memory
// only; prices are never stored on a line, they are snapshotted from the
// catalog at checkout.
package cart

import (
	"sync"
	"time"
)

// MaxLineQuantity caps how many units of one product a cart line may hold.
const MaxLineQuantity = 99

// Item is one product line. Quantity only; name and price come from the
// catalog when the cart is viewed or checked out.
type Item struct {
	ProductID string
	Quantity  int64
}

// Cart holds a user's pending items. A cart is bound to the store of its
// first item and stays bound until it is emptied.
type Cart struct {
	UserID    string
	StoreID   string
	Items     []Item
	UpdatedAt time.Time
}

// Empty reports whether the cart has no items.
func (c Cart) Empty() bool {
	return len(c.Items) == 0
}

// Find returns the index of the line for productID, or -1.
func (c Cart) Find(productID string) int {
	for i, item := range c.Items {
		if item.ProductID == productID {
			return i
		}
	}
	return -1
}

// Store persists carts keyed by user.
type Store interface {
	Get(userID string) (Cart, bool)
	Put(cart Cart)
	Delete(userID string)
}

// MemoryStore is an in-process cart store guarded by a read-write mutex.
type MemoryStore struct {
	mu    sync.RWMutex
	carts map[string]Cart
}

// NewMemoryStore returns an empty cart store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{carts: make(map[string]Cart)}
}

// Get returns the cart for userID.
func (s *MemoryStore) Get(userID string) (Cart, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cart, ok := s.carts[userID]
	if !ok {
		return Cart{}, false
	}
	// Copy the line slice so callers cannot mutate the stored cart.
	items := make([]Item, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items
	return cart, true
}

// Put stores the cart, replacing any existing one for the same user.
func (s *MemoryStore) Put(cart Cart) {
	items := make([]Item, len(cart.Items))
	copy(items, cart.Items)
	cart.Items = items

	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[cart.UserID] = cart
}

// Delete removes the cart for userID.
func (s *MemoryStore) Delete(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, userID)
}

var _ Store = (*MemoryStore)(nil)
