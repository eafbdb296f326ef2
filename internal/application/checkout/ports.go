package checkout

import (
	"context"

	"github.com/shopspring/decimal"

	domcart "github.com/brewline/brewline/internal/domain/cart"
	"github.com/brewline/brewline/internal/domain/client"
	"github.com/brewline/brewline/internal/domain/sale"
)

type IDGenerator interface {
	NewID() string
}

// CartPort is the slice of the cart store the flow needs.
type CartPort interface {
	Units(userID int64) int
	Total(userID int64) decimal.Decimal
	Snapshot(userID int64) []domcart.Line
	Clear(userID int64)
}

// RecorderPort persists clients and sale lines.
type RecorderPort interface {
	EnsureClient(ctx context.Context, identity client.Identity) (string, error)
	RecordSale(ctx context.Context, clientRef string, rec sale.Record) error
}
