package airtable

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brewline/brewline/internal/domain/sale"
)

// Sales table field names. The clients link column takes record handles; plain
// keys fall back to the Client_ID text field.
const (
	fieldQuantity      = "Quantity"
	fieldUnitPrice     = "Unit_Price"
	fieldTotal         = "Total"
	fieldChannel       = "Channel"
	fieldPaymentMethod = "Payment_Method"
	fieldDate          = "Date"
	fieldClientsLink   = "clients_skeleton"

	recordHandlePrefix = "rec"
)

type SaleRepository struct {
	client *Client
	table  string
}

func NewSaleRepository(c *Client, table string) *SaleRepository {
	return &SaleRepository{client: c, table: table}
}

func (r *SaleRepository) Create(ctx context.Context, rec sale.Record) error {
	price, _ := rec.UnitPrice.Float64()
	total, _ := rec.Total.Float64()
	fields := map[string]any{
		fieldItemID:        rec.ItemID,
		fieldQuantity:      rec.Quantity,
		fieldUnitPrice:     price,
		fieldTotal:         total,
		fieldChannel:       rec.Channel,
		fieldPaymentMethod: rec.PaymentMethod,
	}
	if strings.HasPrefix(rec.ClientRef, recordHandlePrefix) {
		fields[fieldClientsLink] = []string{rec.ClientRef}
	} else {
		fields[fieldClientID] = rec.ClientRef
	}
	if !rec.OccurredAt.IsZero() {
		fields[fieldDate] = rec.OccurredAt.UTC().Format(time.RFC3339)
	}

	if _, err := r.client.Create(ctx, r.table, fields); err != nil {
		return fmt.Errorf("sale repository: %w", err)
	}
	return nil
}
