package event

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/brewline/brewline/internal/domain/cart"
	"github.com/brewline/brewline/internal/domain/payment"
)

// OrderPlaced is emitted after a successful payment, once the cart is cleared.
type OrderPlaced struct {
	OrderID    string
	UserID     int64
	Total      decimal.Decimal
	Method     payment.Method
	Lines      []cart.Line
	OccurredAt time.Time
}

func (OrderPlaced) EventName() string { return "order.placed" }

func NewOrderPlaced(orderID string, userID int64, total decimal.Decimal, method payment.Method, lines []cart.Line) OrderPlaced {
	return OrderPlaced{
		OrderID:    orderID,
		UserID:     userID,
		Total:      total,
		Method:     method,
		Lines:      lines,
		OccurredAt: time.Now().UTC(),
	}
}
