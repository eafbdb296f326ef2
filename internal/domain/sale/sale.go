package sale

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one persisted sale line: one distinct item of a finalized cart.
// A sale record means the order was claimed, not that payment settled.
type Record struct {
	ItemID        string
	Quantity      int
	UnitPrice     decimal.Decimal
	Total         decimal.Decimal
	Channel       string
	PaymentMethod string
	// ClientRef is the record handle of the buying client.
	ClientRef string
	// OccurredAt is optional; the zero value omits the date field.
	OccurredAt time.Time
}

type Repository interface {
	// Create appends one sale line. Sales are never updated or deleted.
	Create(ctx context.Context, rec Record) error
}
