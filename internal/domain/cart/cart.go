package cart

import (
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotInCart = errors.New("cart: item not in cart")

// Entry is one cart line. Name and unit price are snapshotted when the item is
// first added; later catalog changes do not affect existing entries.
type Entry struct {
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// Line pairs an entry with its business key for rendering and sale recording.
type Line struct {
	ItemID string
	Entry
}

// LineTotal is unit price times quantity.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart holds the selected items of a single user. It is not safe for
// concurrent use; the store serializes access per user.
type Cart struct {
	entries map[string]*Entry
	order   []string
}

func New() *Cart {
	return &Cart{entries: make(map[string]*Entry)}
}

// AddOne inserts the item with quantity zero when absent, then increments by
// one. The returned entry is a copy.
func (c *Cart) AddOne(itemID, name string, unitPrice decimal.Decimal) Entry {
	e, ok := c.entries[itemID]
	if !ok {
		e = &Entry{Name: name, UnitPrice: unitPrice}
		c.entries[itemID] = e
		c.order = append(c.order, itemID)
	}
	e.Quantity++
	return *e
}

func (c *Cart) Increment(itemID string) (Entry, error) {
	e, ok := c.entries[itemID]
	if !ok {
		return Entry{}, ErrNotInCart
	}
	e.Quantity++
	return *e, nil
}

// Decrement floors at zero. The entry stays in the cart so the conversation
// keeps rendering a "qty: 0" line, matching product behavior.
func (c *Cart) Decrement(itemID string) (Entry, error) {
	e, ok := c.entries[itemID]
	if !ok {
		return Entry{}, ErrNotInCart
	}
	if e.Quantity > 0 {
		e.Quantity--
	}
	return *e, nil
}

func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// Units is the sum of all quantities. Checkout treats zero units as an empty
// cart even when zero-quantity lines remain.
func (c *Cart) Units() int {
	n := 0
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

// Snapshot returns the lines in insertion order. The slice and its entries are
// copies, safe to hold across later mutations.
func (c *Cart) Snapshot() []Line {
	lines := make([]Line, 0, len(c.order))
	for _, id := range c.order {
		e := c.entries[id]
		lines = append(lines, Line{ItemID: id, Entry: *e})
	}
	return lines
}
