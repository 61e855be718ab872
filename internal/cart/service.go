package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/louisbranch/freshcart/internal/auth"
	"github.com/louisbranch/freshcart/internal/order"
	apperrors "github.com/louisbranch/freshcart/internal/platform/errors"
	"github.com/louisbranch/freshcart/internal/storage"
)

// Line is one cart line hydrated with the product's current name and price.
type Line struct {
	ProductID      string
	Name           string
	UnitPriceCents int64
	Quantity       int64
	LineTotalCents int64
}

// View is the cart as presented to the customer.
type View struct {
	StoreID       string
	Lines         []Line
	SubtotalCents int64
	UpdatedAt     time.Time
}

// Service provides cart operations. Mutations for one user are serialized
// with a per-user lock; checkout holds that lock across order placement so
// a cart cannot be checked out twice.
type Service struct {
	carts   Store
	catalog storage.CatalogStore
	orders  *order.Service
	now     func() time.Time

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewService builds a cart service.
func NewService(carts Store, catalog storage.CatalogStore, orders *order.Service, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		carts:   carts,
		catalog: catalog,
		orders:  orders,
		now:     now,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Get returns the current cart view. Lines whose product no longer exists
// are omitted from the view but kept in the cart until removed.
func (s *Service) Get(ctx context.Context, identity auth.Identity) (View, error) {
	if s == nil || s.carts == nil {
		return View{}, fmt.Errorf("cart service is not configured")
	}
	cart, ok := s.carts.Get(identity.UserID)
	if !ok {
		return View{}, nil
	}
	return s.hydrate(ctx, cart)
}

// AddItem adds quantity units of a product, merging with an existing line.
func (s *Service) AddItem(ctx context.Context, identity auth.Identity, productID string, quantity int64) (View, error) {
	if s == nil || s.carts == nil {
		return View{}, fmt.Errorf("cart service is not configured")
	}
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return View{}, apperrors.New(apperrors.CodeInvalidArgument, "product id is required")
	}
	if quantity <= 0 {
		return View{}, apperrors.New(apperrors.CodeCartQuantityInvalid, "quantity must be greater than zero")
	}

	product, err := s.loadProduct(ctx, productID)
	if err != nil {
		return View{}, err
	}

	unlock := s.lockUser(identity.UserID)
	defer unlock()

	cart, ok := s.carts.Get(identity.UserID)
	if !ok {
		cart = Cart{UserID: identity.UserID}
	}
	if !cart.Empty() && cart.StoreID != product.StoreID {
		return View{}, apperrors.New(apperrors.CodeCartStoreMismatch, "cart is bound to another store")
	}

	merged := quantity
	if i := cart.Find(productID); i >= 0 {
		merged += cart.Items[i].Quantity
	}
	if merged > MaxLineQuantity {
		return View{}, apperrors.WithMetadata(apperrors.CodeCartQuantityInvalid, "quantity exceeds the per-line limit", map[string]string{
			"limit": fmt.Sprint(MaxLineQuantity),
		})
	}

	if i := cart.Find(productID); i >= 0 {
		cart.Items[i].Quantity = merged
	} else {
		cart.Items = append(cart.Items, Item{ProductID: productID, Quantity: merged})
	}
	cart.StoreID = product.StoreID
	cart.UpdatedAt = s.now().UTC()
	s.carts.Put(cart)
	return s.hydrate(ctx, cart)
}

// UpdateItem sets the quantity of an existing line. A quantity of zero or
// less removes the line.
func (s *Service) UpdateItem(ctx context.Context, identity auth.Identity, productID string, quantity int64) (View, error) {
	if s == nil || s.carts == nil {
		return View{}, fmt.Errorf("cart service is not configured")
	}
	if quantity > MaxLineQuantity {
		return View{}, apperrors.WithMetadata(apperrors.CodeCartQuantityInvalid, "quantity exceeds the per-line limit", map[string]string{
			"limit": fmt.Sprint(MaxLineQuantity),
		})
	}

	unlock := s.lockUser(identity.UserID)
	defer unlock()

	cart, ok := s.carts.Get(identity.UserID)
	if !ok {
		return View{}, apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}
	i := cart.Find(strings.TrimSpace(productID))
	if i < 0 {
		return View{}, apperrors.New(apperrors.CodeNotFound, "cart line not found")
	}

	if quantity <= 0 {
		cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
	} else {
		cart.Items[i].Quantity = quantity
	}
	return s.save(ctx, identity.UserID, cart)
}

// RemoveItem deletes one line from the cart.
func (s *Service) RemoveItem(ctx context.Context, identity auth.Identity, productID string) (View, error) {
	return s.UpdateItem(ctx, identity, productID, 0)
}

// Clear empties the cart and drops its store binding.
func (s *Service) Clear(_ context.Context, identity auth.Identity) error {
	if s == nil || s.carts == nil {
		return fmt.Errorf("cart service is not configured")
	}
	unlock := s.lockUser(identity.UserID)
	defer unlock()
	s.carts.Delete(identity.UserID)
	return nil
}

// Checkout places an order from the cart and clears it on success.
func (s *Service) Checkout(ctx context.Context, identity auth.Identity) (storage.Order, []storage.OrderItem, error) {
	if s == nil || s.carts == nil || s.orders == nil {
		return storage.Order{}, nil, fmt.Errorf("cart service is not configured")
	}

	unlock := s.lockUser(identity.UserID)
	defer unlock()

	cart, ok := s.carts.Get(identity.UserID)
	if !ok || cart.Empty() {
		return storage.Order{}, nil, apperrors.New(apperrors.CodeCartEmpty, "cart is empty")
	}

	lines := make([]order.Line, 0, len(cart.Items))
	for _, item := range cart.Items {
		product, err := s.loadProduct(ctx, item.ProductID)
		if err != nil {
			return storage.Order{}, nil, err
		}
		lines = append(lines, order.Line{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
		})
	}

	record, items, err := s.orders.Place(ctx, identity, cart.StoreID, lines)
	if err != nil {
		return storage.Order{}, nil, err
	}
	s.carts.Delete(identity.UserID)
	return record, items, nil
}

// save drops the store binding once the cart empties, then rehydrates.
func (s *Service) save(ctx context.Context, userID string, cart Cart) (View, error) {
	if cart.Empty() {
		s.carts.Delete(userID)
		return View{}, nil
	}
	cart.UpdatedAt = s.now().UTC()
	s.carts.Put(cart)
	return s.hydrate(ctx, cart)
}

func (s *Service) hydrate(ctx context.Context, cart Cart) (View, error) {
	view := View{StoreID: cart.StoreID, UpdatedAt: cart.UpdatedAt}
	for _, item := range cart.Items {
		product, err := s.catalog.GetProduct(ctx, item.ProductID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				continue
			}
			return View{}, fmt.Errorf("load product %s: %w", item.ProductID, err)
		}
		line := Line{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPriceCents: product.PriceCents,
			Quantity:       item.Quantity,
			LineTotalCents: product.PriceCents * item.Quantity,
		}
		view.Lines = append(view.Lines, line)
		view.SubtotalCents += line.LineTotalCents
	}
	return view, nil
}

func (s *Service) loadProduct(ctx context.Context, productID string) (storage.Product, error) {
	product, err := s.catalog.GetProduct(ctx, productID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return storage.Product{}, apperrors.New(apperrors.CodeNotFound, "product not found")
		}
		return storage.Product{}, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

func (s *Service) lockUser(userID string) func() {
	s.mu.Lock()
	lock, ok := s.locks[userID]
	if !ok {
		lock = &sync.Mutex{}
		s.locks[userID] = lock
	}
	s.mu.Unlock()

	lock.Lock()
	return lock.Unlock
}
