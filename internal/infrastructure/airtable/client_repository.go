package airtable

import (
	"context"
	"fmt"

	"github.com/brewline/brewline/internal/domain/client"
)

// Clients table field names.
const (
	fieldClientID         = "Client_ID"
	fieldPhone            = "Phone"
	fieldEmail            = "Email"
	fieldPreferredChannel = "Preferred_Channel"
)

type ClientRepository struct {
	client *Client
	table  string
}

func NewClientRepository(c *Client, table string) *ClientRepository {
	return &ClientRepository{client: c, table: table}
}

func (r *ClientRepository) FindByKey(ctx context.Context, key string) (client.Record, bool, error) {
	formula := fmt.Sprintf("{%s}='%s'", fieldClientID, key)
	rec, found, err := r.client.FindFirst(ctx, r.table, formula)
	if err != nil {
		return client.Record{}, false, fmt.Errorf("client repository: %w", err)
	}
	if !found {
		return client.Record{}, false, nil
	}
	return recordToClient(rec), true, nil
}

func (r *ClientRepository) Create(ctx context.Context, c client.Record) (client.Record, error) {
	fields := map[string]any{
		fieldClientID:         c.Key,
		fieldName:             c.Name,
		fieldPhone:            c.Phone,
		fieldEmail:            c.Email,
		fieldPreferredChannel: c.PreferredChannel,
	}
	rec, err := r.client.Create(ctx, r.table, fields)
	if err != nil {
		return client.Record{}, fmt.Errorf("client repository: %w", err)
	}
	return recordToClient(rec), nil
}

func recordToClient(rec Record) client.Record {
	return client.Record{
		ID:               rec.ID,
		Key:              stringField(rec.Fields, fieldClientID),
		Name:             stringField(rec.Fields, fieldName),
		Phone:            stringField(rec.Fields, fieldPhone),
		Email:            stringField(rec.Fields, fieldEmail),
		PreferredChannel: stringField(rec.Fields, fieldPreferredChannel),
	}
}
