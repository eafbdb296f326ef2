package airtable

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/brewline/brewline/internal/domain/catalog"
)

// Menu table field names as defined in the base schema.
const (
	fieldItemID      = "Item_ID"
	fieldName        = "Name"
	fieldPrice       = "Price"
	fieldCategory    = "Category"
	fieldDescription = "Description"
	fieldPhoto       = "Photo"
)

// CatalogRepository reads the menu table. Rows without a name or price are
// dropped silently: the table doubles as a worksheet and incomplete rows are
// expected.
type CatalogRepository struct {
	client *Client
	table  string
}

func NewCatalogRepository(client *Client, table string) *CatalogRepository {
	return &CatalogRepository{client: client, table: table}
}

func (r *CatalogRepository) ListMenu(ctx context.Context) ([]catalog.Item, error) {
	recs, err := r.client.List(ctx, r.table, ListOptions{SortField: fieldItemID})
	if err != nil {
		return nil, fmt.Errorf("catalog repository: %w", err)
	}

	items := make([]catalog.Item, 0, len(recs))
	for _, rec := range recs {
		price, ok := numberField(rec.Fields, fieldPrice)
		name := stringField(rec.Fields, fieldName)
		if !ok || name == "" {
			continue
		}
		items = append(items, catalog.Item{
			ID:          rec.ID,
			ItemID:      stringField(rec.Fields, fieldItemID),
			Name:        name,
			Price:       decimal.NewFromFloat(price),
			Category:    stringField(rec.Fields, fieldCategory),
			Description: stringField(rec.Fields, fieldDescription),
			Photo:       stringField(rec.Fields, fieldPhoto),
		})
	}
	return items, nil
}

func stringField(fields map[string]any, key string) string {
	if v, ok := fields[key].(string); ok {
		return v
	}
	return ""
}

func numberField(fields map[string]any, key string) (float64, bool) {
	// JSON numbers decode as float64.
	v, ok := fields[key].(float64)
	return v, ok
}
