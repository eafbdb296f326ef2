package catalog

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrNotFound = errors.New("catalog: item not found")

// Item is a menu entry as fetched from the record store. Items are immutable
// once fetched; every browse re-fetches the catalog.
type Item struct {
	// ID is the opaque record handle assigned by the record store.
	ID string
	// ItemID is the stable business key.
	ItemID      string
	Name        string
	Price       decimal.Decimal
	Category    string
	Description string
	Photo       string
}

type Repository interface {
	// ListMenu returns all sellable items sorted by business key. Records
	// missing a name or price are dropped by the implementation.
	ListMenu(ctx context.Context) ([]Item, error)
}
