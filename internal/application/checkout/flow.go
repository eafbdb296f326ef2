package checkout

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	domcart "github.com/brewline/brewline/internal/domain/cart"
	domain "github.com/brewline/brewline/internal/domain/checkout"
	"github.com/brewline/brewline/internal/domain/client"
	"github.com/brewline/brewline/internal/domain/event"
	"github.com/brewline/brewline/internal/domain/payment"
	"github.com/brewline/brewline/internal/domain/sale"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/observability/logctx"
)

const (
	componentCheckout = "checkout_flow"
	useCaseBegin      = "checkout.begin"
	useCaseSelect     = "checkout.pay"
	spanPrefix        = "UC."
	publishPeer       = "outbox"
	publishEndpoint   = "order.placed"
	publishTimeout    = 300 * time.Millisecond
	orderIDPrefix     = "order-"
)

// Flow drives a user from cart review to payment selection to order placement.
// Sale lines are written before the invoice is requested, so a failed payment
// can leave claimed (not settled) sale records behind; they are not rolled back.
//
// Updates arrive on concurrent goroutines, so all session access is serialized
// per user: the user's lock is held from the status check through the
// transition, the same way the cart store serializes cart mutations.
type Flow struct {
	mu       sync.RWMutex
	sessions map[int64]*userSession

	carts     CartPort
	recorder  RecorderPort
	providers map[payment.Method]payment.Provider
	publisher event.Publisher
	idGen     IDGenerator
	tel       observability.Telemetry

	log        observability.Logger
	reqCounter observability.Counter
	durHist    observability.Histogram
	extCounter observability.Counter
	extHist    observability.Histogram
}

func NewFlow(
	carts CartPort,
	recorder RecorderPort,
	providers map[payment.Method]payment.Provider,
	publisher event.Publisher,
	idGen IDGenerator,
	tel observability.Telemetry,
) *Flow {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Flow{
		sessions:   make(map[int64]*userSession),
		carts:      carts,
		recorder:   recorder,
		providers:  providers,
		publisher:  publisher,
		idGen:      idGen,
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", componentCheckout)),
		reqCounter: tel.Counter(observability.MUsecaseRequests),
		durHist:    tel.Histogram(observability.MUsecaseDuration),
		extCounter: tel.Counter(observability.MExternalRequests),
		extHist:    tel.Histogram(observability.MExternalRequestDuration),
	}
}

// userSession is one user's session slot. The mutex serializes every lifecycle
// operation for that user; different users never contend.
type userSession struct {
	mu   sync.Mutex
	sess *domain.Session
}

// forUser returns the user's session slot, creating it on first use.
func (f *Flow) forUser(userID int64) *userSession {
	f.mu.RLock()
	us, ok := f.sessions[userID]
	f.mu.RUnlock()
	if ok {
		return us
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if us, ok = f.sessions[userID]; ok {
		return us
	}
	us = &userSession{sess: domain.NewSession()}
	f.sessions[userID] = us
	return us
}

// Status reports the user's current lifecycle state.
func (f *Flow) Status(userID int64) domain.Status {
	us := f.forUser(userID)
	us.mu.Lock()
	defer us.mu.Unlock()
	return us.sess.Status()
}

// Browse marks the user as browsing the catalog. After a placed order this
// starts a fresh cycle.
func (f *Flow) Browse(userID int64) {
	us := f.forUser(userID)
	us.mu.Lock()
	defer us.mu.Unlock()
	us.sess.Browse()
}

// ReviewCart marks the user as reviewing the cart. Cart mutations themselves
// never change state.
func (f *Flow) ReviewCart(userID int64) {
	us := f.forUser(userID)
	us.mu.Lock()
	defer us.mu.Unlock()
	us.sess.ReviewCart()
}

// Methods lists the payment methods a user can choose from, in a stable order.
func (f *Flow) Methods() []payment.Method {
	methods := make([]payment.Method, 0, len(f.providers))
	for _, m := range []payment.Method{payment.MethodCash, payment.MethodQR} {
		if _, ok := f.providers[m]; ok {
			methods = append(methods, m)
		}
	}
	for m := range f.providers {
		if m != payment.MethodCash && m != payment.MethodQR {
			methods = append(methods, m)
		}
	}
	return methods
}

// BeginCheckout validates the cart and enters payment selection, surfacing the
// total and the available methods. Fails with checkout.ErrEmptyCart on a cart
// with zero total quantity.
func (f *Flow) BeginCheckout(ctx context.Context, userID int64) (total decimal.Decimal, methods []payment.Method, err error) {
	logger := logctx.FromOr(ctx, f.log).With(observability.F("use_case", useCaseBegin))
	start := time.Now()
	outcome := "success"
	defer func() {
		f.observeUseCase(useCaseBegin, outcome, start)
		if err != nil {
			logger.Info("use_case_done", observability.F("outcome", outcome), observability.F("error", err.Error()))
			return
		}
		logger.Info("use_case_done", observability.F("outcome", outcome), observability.F("total", total.StringFixed(2)))
	}()

	us := f.forUser(userID)
	us.mu.Lock()
	defer us.mu.Unlock()

	if f.carts.Units(userID) == 0 {
		outcome = "error"
		return decimal.Zero, nil, domain.ErrEmptyCart
	}

	if terr := us.sess.BeginCheckout(); terr != nil {
		outcome = "error"
		return decimal.Zero, nil, terr
	}

	return f.carts.Total(userID), f.Methods(), nil
}

// SelectPayment persists one sale line per distinct item with quantity >= 1,
// then asks the chosen provider for an invoice. On an ok result the cart is
// cleared and the session is placed; otherwise the cart stays intact and the
// session reverts to payment selection for a retry.
func (f *Flow) SelectPayment(ctx context.Context, identity client.Identity, method payment.Method) (_ payment.Result, err error) {
	userID := identity.UserID
	logger := logctx.FromOr(ctx, f.log).With(
		observability.F("use_case", useCaseSelect),
		observability.F("user_id", userID),
		observability.F("method", string(method)),
	)

	ctx, span := f.tel.Tracer().Start(ctx, spanPrefix+"SelectPayment",
		attribute.String("use_case", useCaseSelect),
		attribute.Int64("checkout.user_id", userID),
		attribute.String("checkout.method", string(method)),
	)
	start := time.Now()
	outcome, statusText := "success", "OK"

	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, statusText)
		} else {
			span.SetStatus(codes.Ok, statusText)
		}
		span.End()

		f.observeUseCase(useCaseSelect, outcome, start)

		fields := []observability.Field{
			observability.F("outcome", outcome),
			observability.F("status", statusText),
			observability.F("latency_seconds", time.Since(start).Seconds()),
		}
		if err != nil {
			fields = append(fields, observability.F("error", err.Error()))
		}
		logger.Info("use_case_done", fields...)
	}()

	provider, ok := f.providers[method]
	if !ok {
		outcome, statusText = "error", "UNKNOWN_METHOD"
		return payment.Result{}, payment.ErrUnknownMethod
	}

	// Held through the final transition so a second update from the same user
	// (a double-tap on pay, a racing menu tap) waits and then sees the new
	// state instead of re-placing the same cart.
	us := f.forUser(userID)
	us.mu.Lock()
	defer us.mu.Unlock()

	if us.sess.Status() != domain.StatusSelectingPayment {
		outcome, statusText = "error", "INVALID_STATE"
		return payment.Result{}, domain.ErrInvalidState
	}

	// Re-validate: the cart could have been cleared since checkout began.
	lines := f.carts.Snapshot(userID)
	if unitCount(lines) == 0 {
		outcome, statusText = "error", "EMPTY_CART"
		return payment.Result{}, domain.ErrEmptyCart
	}
	total := f.carts.Total(userID)

	clientRef, err := f.recorder.EnsureClient(ctx, identity)
	if err != nil {
		outcome, statusText = "error", "CLIENT_ENSURE_FAILED"
		return payment.Result{}, err
	}

	// Sale lines are written before the invoice is requested. A failure on a
	// later line leaves earlier lines in place: at-least-once, not atomic.
	for _, line := range lines {
		if line.Quantity < 1 {
			continue
		}
		rec := sale.Record{
			ItemID:        line.ItemID,
			Quantity:      line.Quantity,
			UnitPrice:     line.UnitPrice,
			Total:         line.LineTotal(),
			PaymentMethod: method.Label(),
		}
		if err = f.recorder.RecordSale(ctx, clientRef, rec); err != nil {
			outcome, statusText = "error", "SALE_RECORD_FAILED"
			return payment.Result{}, err
		}
	}

	orderID := orderIDPrefix + f.idGen.NewID()
	span.SetAttributes(attribute.String("checkout.order_id", orderID))

	result, err := provider.CreateInvoice(ctx, orderID, total, "Order "+orderID)
	if err != nil {
		outcome, statusText = "error", "INVOICE_FAILED"
		if terr := us.sess.PaymentFailed(); terr != nil {
			logger.Warn("session_revert_failed", observability.F("error", terr.Error()))
		}
		return payment.Result{}, fmt.Errorf("checkout: create invoice: %w", err)
	}

	if !result.OK {
		outcome, statusText = "error", "PAYMENT_DECLINED"
		if terr := us.sess.PaymentFailed(); terr != nil {
			logger.Warn("session_revert_failed", observability.F("error", terr.Error()))
		}
		return result, nil
	}

	f.carts.Clear(userID)
	if terr := us.sess.PaymentSucceeded(); terr != nil {
		logger.Warn("session_place_failed", observability.F("error", terr.Error()))
	}

	f.publishPlaced(ctx, logger, event.NewOrderPlaced(orderID, userID, total, method, lines))

	return result, nil
}

func (f *Flow) publishPlaced(ctx context.Context, logger observability.Logger, e event.OrderPlaced) {
	if f.publisher == nil {
		return
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	pubStart := time.Now()
	pubOutcome := "success"
	if err := f.publisher.Publish(pubCtx, e); err != nil {
		pubOutcome = "error"
		logger.Warn("order_placed_publish_failed",
			observability.F("order_id", e.OrderID),
			observability.F("error", err.Error()),
		)
	}

	f.extCounter.Add(1,
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
		observability.L("outcome", pubOutcome),
	)
	f.extHist.Observe(time.Since(pubStart).Seconds(),
		observability.L("peer", publishPeer),
		observability.L("endpoint", publishEndpoint),
	)
}

func (f *Flow) observeUseCase(useCase, outcome string, start time.Time) {
	f.reqCounter.Add(1,
		observability.L("use_case", useCase),
		observability.L("outcome", outcome),
	)
	f.durHist.Observe(time.Since(start).Seconds(),
		observability.L("use_case", useCase),
	)
}

func unitCount(lines []domcart.Line) int {
	n := 0
	for _, l := range lines {
		n += l.Quantity
	}
	return n
}
