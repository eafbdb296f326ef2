package cart

import (
	"sync"

	"github.com/shopspring/decimal"

	domain "github.com/brewline/brewline/internal/domain/cart"
	"github.com/brewline/brewline/internal/observability"
)

const componentCartStore = "cart_store"

// Store owns every cart in the process, keyed by user id. Mutations on the
// same user are serialized by a per-user mutex; different users never contend.
// Carts live for the process lifetime, no persistence, no expiry.
type Store struct {
	mu    sync.RWMutex
	carts map[int64]*userCart
	log   observability.Logger
}

type userCart struct {
	mu   sync.Mutex
	cart *domain.Cart
}

func NewStore(logger observability.Logger) *Store {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Store{
		carts: make(map[int64]*userCart),
		log:   logger.With(observability.F("component", componentCartStore)),
	}
}

// forUser returns the user's cart slot, creating it on first use.
func (s *Store) forUser(userID int64) *userCart {
	s.mu.RLock()
	uc, ok := s.carts[userID]
	s.mu.RUnlock()
	if ok {
		return uc
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if uc, ok = s.carts[userID]; ok {
		return uc
	}
	uc = &userCart{cart: domain.New()}
	s.carts[userID] = uc
	return uc
}

// AddOne snapshots the item's name and unit price into the cart and increments
// its quantity by one. Returns the updated entry and the new cart total.
func (s *Store) AddOne(userID int64, itemID, name string, unitPrice decimal.Decimal) (domain.Entry, decimal.Decimal) {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry := uc.cart.AddOne(itemID, name, unitPrice)
	total := uc.cart.Total()
	s.log.Debug("cart_item_added",
		observability.F("user_id", userID),
		observability.F("item_id", itemID),
		observability.F("qty", entry.Quantity),
	)
	return entry, total
}

// Increment fails with cart.ErrNotInCart when the item was never added.
func (s *Store) Increment(userID int64, itemID string) (domain.Entry, decimal.Decimal, error) {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry, err := uc.cart.Increment(itemID)
	if err != nil {
		return domain.Entry{}, decimal.Zero, err
	}
	return entry, uc.cart.Total(), nil
}

// Decrement floors at zero and leaves the entry in place.
func (s *Store) Decrement(userID int64, itemID string) (domain.Entry, decimal.Decimal, error) {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()

	entry, err := uc.cart.Decrement(itemID)
	if err != nil {
		return domain.Entry{}, decimal.Zero, err
	}
	return entry, uc.cart.Total(), nil
}

func (s *Store) Total(userID int64) decimal.Decimal {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Total()
}

// Units is the summed quantity across all lines; zero means the cart is empty
// for checkout purposes even when zero-quantity lines remain.
func (s *Store) Units(userID int64) int {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Units()
}

// Snapshot returns an immutable copy of the cart lines in insertion order.
func (s *Store) Snapshot(userID int64) []domain.Line {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.cart.Snapshot()
}

// Clear drops all entries for the user. Called after a successful payment.
func (s *Store) Clear(userID int64) {
	uc := s.forUser(userID)
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.cart = domain.New()
	s.log.Debug("cart_cleared", observability.F("user_id", userID))
}
