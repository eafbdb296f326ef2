package payment

import (
	"context"

	"github.com/shopspring/decimal"

	domain "github.com/brewline/brewline/internal/domain/payment"
)

// Cash is the pay-on-delivery provider. It succeeds synchronously and issues
// nothing; the courier settles the amount.
type Cash struct{}

func NewCash() *Cash { return &Cash{} }

func (*Cash) CreateInvoice(_ context.Context, _ string, amount decimal.Decimal, _ string) (domain.Result, error) {
	return domain.Result{
		OK:          true,
		Amount:      amount,
		Description: "Pay in cash on delivery. Amount: " + amount.StringFixed(2),
	}, nil
}
