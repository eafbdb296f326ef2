package recorder

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/brewline/brewline/internal/domain/client"
	"github.com/brewline/brewline/internal/domain/sale"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/observability/logctx"
)

// Channel is the transport name stamped on clients and sales.
const Channel = "Telegram"

const (
	componentRecorder = "order_recorder"
	peerRecordStore   = "record_store"
)

// ErrRecordStore wraps any remote store failure so callers can classify it.
var ErrRecordStore = errors.New("recorder: record store failure")

// Service turns a finalized cart into persisted client and sale records.
type Service struct {
	clients client.Repository
	sales   sale.Repository
	tel     observability.Telemetry

	log    observability.Logger
	extReq observability.Counter
	extDur observability.Histogram
}

func NewService(clients client.Repository, sales sale.Repository, tel observability.Telemetry) *Service {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Service{
		clients: clients,
		sales:   sales,
		tel:     tel,
		log:     tel.Logger().With(observability.F("component", componentRecorder)),
		extReq:  tel.Counter(observability.MExternalRequests),
		extDur:  tel.Histogram(observability.MExternalRequestDuration),
	}
}

// EnsureClient looks up the client by its deterministic key and creates it on
// first contact. Idempotent for sequential calls; two concurrent first-time
// calls for the same identity may race on the remote store and create a
// duplicate record. That is accepted as best effort.
func (s *Service) EnsureClient(ctx context.Context, identity client.Identity) (string, error) {
	logger := logctx.FromOr(ctx, s.log)
	key := identity.Key()

	ctx, span := s.tel.Tracer().Start(ctx, "UC.EnsureClient",
		attribute.String("client.key", key),
	)
	defer span.End()

	existing, found, err := s.observe("client.find", func() (client.Record, bool, error) {
		return s.clients.FindByKey(ctx, key)
	})
	if err != nil {
		logger.Error("client_lookup_failed", observability.F("client_key", key), observability.F("error", err.Error()))
		return "", fmt.Errorf("%w: %w", ErrRecordStore, err)
	}
	if found {
		return existing.ID, nil
	}

	rec := client.Record{
		Key:              key,
		Name:             identity.DisplayName(),
		Phone:            identity.Phone,
		Email:            identity.Email,
		PreferredChannel: Channel,
	}
	created, _, err := s.observe("client.create", func() (client.Record, bool, error) {
		r, cerr := s.clients.Create(ctx, rec)
		return r, true, cerr
	})
	if err != nil {
		logger.Error("client_create_failed", observability.F("client_key", key), observability.F("error", err.Error()))
		return "", fmt.Errorf("%w: %w", ErrRecordStore, err)
	}

	logger.Info("client_created",
		observability.F("client_key", key),
		observability.F("client_ref", created.ID),
	)
	return created.ID, nil
}

// RecordSale appends one sale line. Sales are append-only.
func (s *Service) RecordSale(ctx context.Context, clientRef string, rec sale.Record) error {
	logger := logctx.FromOr(ctx, s.log)
	rec.ClientRef = clientRef
	if rec.Channel == "" {
		rec.Channel = Channel
	}

	start := time.Now()
	err := s.sales.Create(ctx, rec)
	s.record("sale.create", start, err)
	if err != nil {
		logger.Error("sale_create_failed",
			observability.F("item_id", rec.ItemID),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("%w: %w", ErrRecordStore, err)
	}

	logger.Info("sale_recorded",
		observability.F("item_id", rec.ItemID),
		observability.F("qty", rec.Quantity),
		observability.F("total", rec.Total.StringFixed(2)),
	)
	return nil
}

func (s *Service) observe(endpoint string, fn func() (client.Record, bool, error)) (client.Record, bool, error) {
	start := time.Now()
	rec, found, err := fn()
	s.record(endpoint, start, err)
	return rec, found, err
}

func (s *Service) record(endpoint string, start time.Time, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	s.extReq.Add(1,
		observability.L("peer", peerRecordStore),
		observability.L("endpoint", endpoint),
		observability.L("outcome", outcome),
	)
	s.extDur.Observe(time.Since(start).Seconds(),
		observability.L("peer", peerRecordStore),
		observability.L("endpoint", endpoint),
	)
}
