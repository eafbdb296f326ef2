package payment

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"
	qrcode "github.com/skip2/go-qrcode"

	domain "github.com/brewline/brewline/internal/domain/payment"
)

const qrImageSize = 256

// StaticQR encodes a fixed-format payload into a scannable PNG. It performs no
// verification that the user actually paid; it stands in for a real gateway
// and is swappable without touching the checkout flow.
type StaticQR struct {
	payloadPrefix string
}

func NewStaticQR(payloadPrefix string) *StaticQR {
	if payloadPrefix == "" {
		payloadPrefix = "PAY"
	}
	return &StaticQR{payloadPrefix: payloadPrefix}
}

func (p *StaticQR) CreateInvoice(_ context.Context, orderID string, amount decimal.Decimal, _ string) (domain.Result, error) {
	payload := fmt.Sprintf("%s|ORDER=%s|AMOUNT=%s", p.payloadPrefix, orderID, amount.StringFixed(2))
	png, err := qrcode.Encode(payload, qrcode.Medium, qrImageSize)
	if err != nil {
		return domain.Result{}, fmt.Errorf("static qr: encode: %w", err)
	}
	return domain.Result{
		OK:          true,
		Amount:      amount,
		QRPNG:       png,
		Description: "Scan the QR code to pay",
	}, nil
}
