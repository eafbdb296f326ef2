package telegram

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	appcart "github.com/brewline/brewline/internal/application/cart"
	appcatalog "github.com/brewline/brewline/internal/application/catalog"
	appcheckout "github.com/brewline/brewline/internal/application/checkout"
	"github.com/brewline/brewline/internal/application/recorder"
	domcart "github.com/brewline/brewline/internal/domain/cart"
	domcatalog "github.com/brewline/brewline/internal/domain/catalog"
	domcheckout "github.com/brewline/brewline/internal/domain/checkout"
	"github.com/brewline/brewline/internal/domain/client"
	dompayment "github.com/brewline/brewline/internal/domain/payment"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/observability/logctx"
)

const (
	componentBot = "telegram_bot"

	cbMenu      = "menu"
	cbCart      = "cart"
	cbCartClear = "cart:clear"
	cbCheckout  = "checkout"

	cbPrefixPage = "page:"
	cbPrefixAdd  = "add:"
	cbPrefixQty  = "qty:"
	cbPrefixDec  = "dec:"
	cbPrefixPay  = "pay:"
)

// API is the slice of the bot client the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot routes inbound chat events to the ordering components and renders the
// results. Each update runs in its own goroutine; per-user consistency is
// enforced further down by the cart store and checkout flow.
type Bot struct {
	api      API
	catalog  *appcatalog.View
	carts    *appcart.Store
	flow     *appcheckout.Flow
	recorder *recorder.Service
	idGen    appcheckout.IDGenerator
	tel      observability.Telemetry

	log        observability.Logger
	updCounter observability.Counter
	updDur     observability.Histogram
}

func NewBot(
	api API,
	catalogView *appcatalog.View,
	carts *appcart.Store,
	flow *appcheckout.Flow,
	rec *recorder.Service,
	idGen appcheckout.IDGenerator,
	tel observability.Telemetry,
) *Bot {
	if tel == nil {
		tel = observability.NopTelemetry()
	}
	return &Bot{
		api:        api,
		catalog:    catalogView,
		carts:      carts,
		flow:       flow,
		recorder:   rec,
		idGen:      idGen,
		tel:        tel,
		log:        tel.Logger().With(observability.F("component", componentBot)),
		updCounter: tel.Counter(observability.MBotUpdates),
		updDur:     tel.Histogram(observability.MBotUpdateDuration),
	}
}

// SendText satisfies the admin notifier's sender port.
func (b *Bot) SendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// Run consumes updates until the context is canceled.
func (b *Bot) Run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = 30
	updates := b.api.GetUpdatesChan(cfg)

	b.log.Info("bot_polling_started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info("bot_polling_stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.dispatch(ctx, update)
		}
	}
}

func (b *Bot) dispatch(ctx context.Context, update tgbotapi.Update) {
	handler, fn := b.route(update)
	if fn == nil {
		return
	}

	requestID := b.idGen.NewID()
	logger := b.log.With(
		observability.F("handler", handler),
		observability.F("request_id", requestID),
	)
	if from := updateFrom(update); from != nil {
		logger = logger.With(observability.F("user_id", from.ID))
	}
	ctx = logctx.With(ctx, logger)

	start := time.Now()
	outcome := "success"
	defer func() {
		if r := recover(); r != nil {
			outcome = "panic"
			logger.Error("update_handler_panic",
				observability.F("panic", r),
				observability.F("stack", string(debug.Stack())),
			)
		}
		b.updCounter.Add(1,
			observability.L("handler", handler),
			observability.L("outcome", outcome),
		)
		b.updDur.Observe(time.Since(start).Seconds(),
			observability.L("handler", handler),
		)
		logger.Info("update_done",
			observability.F("outcome", outcome),
			observability.F("latency_ms", time.Since(start).Milliseconds()),
		)
	}()

	if err := fn(ctx); err != nil {
		outcome = "error"
		logger.Warn("update_handler_error", observability.F("error", err.Error()))
	}
}

// route picks a handler name and closure for the update. Unknown updates are
// dropped.
func (b *Bot) route(update tgbotapi.Update) (string, func(context.Context) error) {
	if m := update.Message; m != nil && m.IsCommand() {
		switch m.Command() {
		case "start":
			return "cmd_start", func(ctx context.Context) error { return b.handleStart(ctx, m) }
		case "menu":
			return "cmd_menu", func(ctx context.Context) error { return b.showMenu(ctx, m.Chat.ID, 0, 0) }
		}
		return "", nil
	}

	cq := update.CallbackQuery
	if cq == nil || cq.Message == nil {
		return "", nil
	}

	data := cq.Data
	switch {
	case data == cbMenu:
		return "cb_menu", func(ctx context.Context) error { return b.handleMenuButton(ctx, cq) }
	case strings.HasPrefix(data, cbPrefixPage):
		return "cb_page", func(ctx context.Context) error { return b.handlePage(ctx, cq) }
	case strings.HasPrefix(data, cbPrefixAdd):
		return "cb_add", func(ctx context.Context) error { return b.handleAdd(ctx, cq) }
	case data == cbCart:
		return "cb_cart", func(ctx context.Context) error { return b.handleCart(ctx, cq) }
	case data == cbCartClear:
		return "cb_cart_clear", func(ctx context.Context) error { return b.handleCartClear(ctx, cq) }
	case strings.HasPrefix(data, cbPrefixQty):
		return "cb_qty", func(ctx context.Context) error { return b.handleQty(ctx, cq, true) }
	case strings.HasPrefix(data, cbPrefixDec):
		return "cb_dec", func(ctx context.Context) error { return b.handleQty(ctx, cq, false) }
	case data == cbCheckout:
		return "cb_checkout", func(ctx context.Context) error { return b.handleCheckout(ctx, cq) }
	case strings.HasPrefix(data, cbPrefixPay):
		return "cb_pay", func(ctx context.Context) error { return b.handlePay(ctx, cq) }
	}
	return "", nil
}

func (b *Bot) handleStart(ctx context.Context, m *tgbotapi.Message) error {
	identity := identityOf(m.From)
	if _, err := b.recorder.EnsureClient(ctx, identity); err != nil {
		// Greeting still goes out; the client is ensured again at checkout.
		logctx.FromOr(ctx, b.log).Warn("start_ensure_client_failed",
			observability.F("error", err.Error()),
		)
	}
	return b.sendText(m.Chat.ID, greetingText)
}

func (b *Bot) handleMenuButton(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	b.answer(cq, "")
	b.flow.Browse(cq.From.ID)
	return b.showMenu(ctx, cq.Message.Chat.ID, cq.From.ID, 0)
}

func (b *Bot) handlePage(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	page, err := strconv.Atoi(strings.TrimPrefix(cq.Data, cbPrefixPage))
	if err != nil {
		b.alert(cq, textBadRequest)
		return fmt.Errorf("telegram: parse page: %w", err)
	}
	b.answer(cq, "")
	b.flow.Browse(cq.From.ID)
	return b.showMenu(ctx, cq.Message.Chat.ID, cq.From.ID, page)
}

// showMenu renders one catalog page: a card per item plus a pager footer.
func (b *Bot) showMenu(ctx context.Context, chatID, userID int64, page int) error {
	if userID != 0 {
		b.flow.Browse(userID)
	}

	p, err := b.catalog.ListPage(ctx, page)
	if err != nil {
		return b.sendText(chatID, textCatalogUnavailable)
	}

	if p.Total == 0 {
		msg := tgbotapi.NewMessage(chatID, textMenuEmpty)
		msg.ReplyMarkup = cartOnlyKeyboard()
		_, err = b.api.Send(msg)
		return err
	}

	for _, it := range p.Items {
		if err := b.sendItemCard(chatID, it); err != nil {
			return err
		}
	}

	pager := tgbotapi.NewMessage(chatID, pagerText(p.Index, p.Count))
	pager.ReplyMarkup = pagerKeyboard(p.Index, p.Count)
	_, err = b.api.Send(pager)
	return err
}

func (b *Bot) sendItemCard(chatID int64, it domcatalog.Item) error {
	caption := itemCaption(it)
	kb := itemKeyboard(it.ItemID)

	if it.Photo != "" {
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileURL(it.Photo))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = kb
		_, err := b.api.Send(photo)
		return err
	}

	msg := tgbotapi.NewMessage(chatID, caption)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = kb
	_, err := b.api.Send(msg)
	return err
}

func (b *Bot) handleAdd(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	itemID := strings.TrimPrefix(cq.Data, cbPrefixAdd)

	item, err := b.catalog.FindByItemID(ctx, itemID)
	if err != nil {
		if errors.Is(err, domcatalog.ErrNotFound) {
			b.alert(cq, textItemNotFound)
			return nil
		}
		b.alert(cq, textCatalogUnavailable)
		return err
	}

	entry, total := b.carts.AddOne(cq.From.ID, item.ItemID, item.Name, item.Price)
	b.answer(cq, "Added: "+item.Name)

	msg := tgbotapi.NewMessage(cq.Message.Chat.ID, addedText(entry, total))
	msg.ReplyMarkup = qtyKeyboard(item.ItemID)
	_, err = b.api.Send(msg)
	return err
}

func (b *Bot) handleCart(_ context.Context, cq *tgbotapi.CallbackQuery) error {
	b.flow.ReviewCart(cq.From.ID)

	lines := b.carts.Snapshot(cq.From.ID)
	if len(lines) == 0 {
		b.alert(cq, textCartEmpty)
		return nil
	}
	b.answer(cq, "")

	total := b.carts.Total(cq.From.ID)
	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		cartText(lines, total), cartKeyboard(),
	)
	_, err := b.api.Send(edit)
	return err
}

func (b *Bot) handleCartClear(_ context.Context, cq *tgbotapi.CallbackQuery) error {
	b.carts.Clear(cq.From.ID)
	b.alert(cq, textCartCleared)
	return nil
}

func (b *Bot) handleQty(_ context.Context, cq *tgbotapi.CallbackQuery, up bool) error {
	prefix := cbPrefixQty
	if !up {
		prefix = cbPrefixDec
	}
	itemID := strings.TrimPrefix(cq.Data, prefix)

	var (
		entry domcart.Entry
		err   error
	)
	if up {
		entry, _, err = b.carts.Increment(cq.From.ID, itemID)
	} else {
		entry, _, err = b.carts.Decrement(cq.From.ID, itemID)
	}
	if err != nil {
		if errors.Is(err, domcart.ErrNotInCart) {
			b.alert(cq, textNotInCart)
			return nil
		}
		return err
	}

	if up {
		b.answer(cq, "Added")
	} else {
		b.answer(cq, "Removed")
	}

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		qtyText(entry), qtyKeyboard(itemID),
	)
	_, err = b.api.Send(edit)
	return err
}

func (b *Bot) handleCheckout(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	total, methods, err := b.flow.BeginCheckout(ctx, cq.From.ID)
	if err != nil {
		if errors.Is(err, domcheckout.ErrEmptyCart) {
			b.alert(cq, textCartEmpty)
			return nil
		}
		return err
	}
	b.answer(cq, "")

	edit := tgbotapi.NewEditMessageTextAndMarkup(
		cq.Message.Chat.ID, cq.Message.MessageID,
		checkoutText(total), methodsKeyboard(methods),
	)
	_, err = b.api.Send(edit)
	return err
}

func (b *Bot) handlePay(ctx context.Context, cq *tgbotapi.CallbackQuery) error {
	method := dompayment.Method(strings.TrimPrefix(cq.Data, cbPrefixPay))
	identity := identityOf(cq.From)

	result, err := b.flow.SelectPayment(ctx, identity, method)
	if err != nil {
		switch {
		case errors.Is(err, domcheckout.ErrEmptyCart):
			b.alert(cq, textCartEmpty)
			return nil
		case errors.Is(err, domcheckout.ErrInvalidState):
			b.alert(cq, textNotInCheckout)
			return nil
		case errors.Is(err, dompayment.ErrUnknownMethod):
			b.alert(cq, textUnknownMethod)
			return nil
		case errors.Is(err, recorder.ErrRecordStore):
			b.alert(cq, textOrderFailed)
			return err
		default:
			b.alert(cq, textOrderFailed)
			return err
		}
	}

	if !result.OK {
		b.alert(cq, textPaymentDeclined)
		return nil
	}
	b.answer(cq, "")

	if len(result.QRPNG) > 0 {
		photo := tgbotapi.NewPhoto(cq.Message.Chat.ID, tgbotapi.FileBytes{Name: "qr.png", Bytes: result.QRPNG})
		photo.Caption = qrCaption(result)
		_, err = b.api.Send(photo)
		return err
	}

	edit := tgbotapi.NewEditMessageText(
		cq.Message.Chat.ID, cq.Message.MessageID,
		placedText(result),
	)
	_, err = b.api.Send(edit)
	return err
}

func (b *Bot) sendText(chatID int64, text string) error {
	_, err := b.api.Send(tgbotapi.NewMessage(chatID, text))
	return err
}

// answer acknowledges a callback; Telegram keeps the button spinner otherwise.
func (b *Bot) answer(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(cq.ID, text)); err != nil {
		b.log.Debug("callback_answer_failed", observability.F("error", err.Error()))
	}
}

// alert shows a popup on the user's side, used for user-facing errors.
func (b *Bot) alert(cq *tgbotapi.CallbackQuery, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallbackWithAlert(cq.ID, text)); err != nil {
		b.log.Debug("callback_alert_failed", observability.F("error", err.Error()))
	}
}

func identityOf(u *tgbotapi.User) client.Identity {
	if u == nil {
		return client.Identity{}
	}
	name := strings.TrimSpace(strings.TrimSpace(u.FirstName) + " " + strings.TrimSpace(u.LastName))
	return client.Identity{
		UserID:   u.ID,
		Name:     name,
		Username: u.UserName,
	}
}

func updateFrom(update tgbotapi.Update) *tgbotapi.User {
	if update.Message != nil {
		return update.Message.From
	}
	if update.CallbackQuery != nil {
		return update.CallbackQuery.From
	}
	return nil
}
