package recorder

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/brewline/internal/domain/client"
	"github.com/brewline/brewline/internal/domain/sale"
)

type fakeClientRepo struct {
	byKey   map[string]client.Record
	findErr error
	created []client.Record
}

func (f *fakeClientRepo) FindByKey(ctx context.Context, key string) (client.Record, bool, error) {
	if f.findErr != nil {
		return client.Record{}, false, f.findErr
	}
	rec, ok := f.byKey[key]
	return rec, ok, nil
}

func (f *fakeClientRepo) Create(ctx context.Context, rec client.Record) (client.Record, error) {
	rec.ID = "rec-new"
	if f.byKey == nil {
		f.byKey = make(map[string]client.Record)
	}
	f.byKey[rec.Key] = rec
	f.created = append(f.created, rec)
	return rec, nil
}

type fakeSaleRepo struct {
	err     error
	created []sale.Record
}

func (f *fakeSaleRepo) Create(ctx context.Context, rec sale.Record) error {
	if f.err != nil {
		return f.err
	}
	f.created = append(f.created, rec)
	return nil
}

func TestEnsureClient_CreatesOnFirstContact(t *testing.T) {
	clients := &fakeClientRepo{}
	svc := NewService(clients, &fakeSaleRepo{}, nil)

	ref, err := svc.EnsureClient(context.Background(), client.Identity{UserID: 101, Name: "Tanya"})
	require.NoError(t, err)
	assert.Equal(t, "rec-new", ref)

	require.Len(t, clients.created, 1)
	created := clients.created[0]
	assert.Equal(t, "tg_101", created.Key)
	assert.Equal(t, "Tanya", created.Name)
	assert.Equal(t, Channel, created.PreferredChannel)
}

func TestEnsureClient_IdempotentForKnownClient(t *testing.T) {
	clients := &fakeClientRepo{}
	svc := NewService(clients, &fakeSaleRepo{}, nil)

	first, err := svc.EnsureClient(context.Background(), client.Identity{UserID: 101, Name: "Tanya"})
	require.NoError(t, err)
	second, err := svc.EnsureClient(context.Background(), client.Identity{UserID: 101, Name: "Tanya"})
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Len(t, clients.created, 1, "second call must reuse the existing record")
}

func TestEnsureClient_NameFallsBackToUsernameThenKey(t *testing.T) {
	clients := &fakeClientRepo{}
	svc := NewService(clients, &fakeSaleRepo{}, nil)

	_, err := svc.EnsureClient(context.Background(), client.Identity{UserID: 7, Username: "tanya_b"})
	require.NoError(t, err)
	assert.Equal(t, "tanya_b", clients.created[0].Name)

	_, err = svc.EnsureClient(context.Background(), client.Identity{UserID: 8})
	require.NoError(t, err)
	assert.Equal(t, "tg_8", clients.created[1].Name)
}

func TestEnsureClient_WrapsStoreFailure(t *testing.T) {
	boom := errors.New("airtable 503")
	svc := NewService(&fakeClientRepo{findErr: boom}, &fakeSaleRepo{}, nil)

	_, err := svc.EnsureClient(context.Background(), client.Identity{UserID: 101})
	require.ErrorIs(t, err, ErrRecordStore)
	require.ErrorIs(t, err, boom)
}

func TestRecordSale_StampsClientRefAndChannel(t *testing.T) {
	sales := &fakeSaleRepo{}
	svc := NewService(&fakeClientRepo{}, sales, nil)

	err := svc.RecordSale(context.Background(), "rec-42", sale.Record{
		ItemID:    "esp",
		Quantity:  2,
		UnitPrice: decimal.NewFromInt(90),
		Total:     decimal.NewFromInt(180),
	})
	require.NoError(t, err)

	require.Len(t, sales.created, 1)
	rec := sales.created[0]
	assert.Equal(t, "rec-42", rec.ClientRef)
	assert.Equal(t, Channel, rec.Channel)
}

func TestRecordSale_KeepsExplicitChannel(t *testing.T) {
	sales := &fakeSaleRepo{}
	svc := NewService(&fakeClientRepo{}, sales, nil)

	err := svc.RecordSale(context.Background(), "rec-42", sale.Record{ItemID: "esp", Quantity: 1, Channel: "Web"})
	require.NoError(t, err)
	assert.Equal(t, "Web", sales.created[0].Channel)
}

func TestRecordSale_WrapsStoreFailure(t *testing.T) {
	boom := errors.New("airtable 429")
	svc := NewService(&fakeClientRepo{}, &fakeSaleRepo{err: boom}, nil)

	err := svc.RecordSale(context.Background(), "rec-42", sale.Record{ItemID: "esp", Quantity: 1})
	require.ErrorIs(t, err, ErrRecordStore)
	require.ErrorIs(t, err, boom)
}
