package payment

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
)

var ErrUnknownMethod = errors.New("payment: unknown method")

// Method is the token a user picks on the payment keyboard.
type Method string

const (
	MethodCash Method = "cash"
	MethodQR   Method = "qr"
)

// Label is the value persisted on sale records.
func (m Method) Label() string {
	switch m {
	case MethodCash:
		return "Cash"
	case MethodQR:
		return "QR"
	default:
		return string(m)
	}
}

// Result is what a provider hands back for rendering. OK=false means the
// invoice could not be issued; the cart must stay intact so the user can retry.
type Result struct {
	OK          bool
	Amount      decimal.Decimal
	QRPNG       []byte
	Link        string
	Description string
}

// Provider issues an invoice for an order total. Implementations must be safe
// for concurrent use; adding one requires no change to the checkout flow.
type Provider interface {
	CreateInvoice(ctx context.Context, orderID string, amount decimal.Decimal, description string) (Result, error)
}
