package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/brewline/brewline/internal/domain/event"
	"github.com/brewline/brewline/internal/observability"
	"github.com/brewline/brewline/internal/observability/logctx"
)

const componentAdminNotifier = "admin_notifier"

// Sender delivers a plain text message to a chat. The Telegram bot satisfies it.
type Sender interface {
	SendText(chatID int64, text string) error
}

// AdminNotifier forwards placed orders to the operator chat. Notification
// failures are logged and never affect the checkout.
type AdminNotifier struct {
	subscriber event.Subscriber
	sender     Sender
	chatID     int64
	log        observability.Logger
}

func NewAdminNotifier(subscriber event.Subscriber, sender Sender, chatID int64, logger observability.Logger) *AdminNotifier {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &AdminNotifier{
		subscriber: subscriber,
		sender:     sender,
		chatID:     chatID,
		log:        logger.With(observability.F("component", componentAdminNotifier)),
	}
}

// Start subscribes to order.placed. A zero chat id disables the notifier.
func (n *AdminNotifier) Start() {
	if n.subscriber == nil || n.sender == nil || n.chatID == 0 {
		return
	}
	n.subscriber.Subscribe(event.OrderPlaced{}.EventName(), n.handleOrderPlaced)
}

func (n *AdminNotifier) handleOrderPlaced(ctx context.Context, e event.Event) error {
	evt, ok := e.(event.OrderPlaced)
	if !ok {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "New order %s (%s)\n", evt.OrderID, evt.Method.Label())
	for _, line := range evt.Lines {
		if line.Quantity < 1 {
			continue
		}
		fmt.Fprintf(&sb, "- %s x %d = %s\n", line.Name, line.Quantity, line.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&sb, "Total: %s", evt.Total.StringFixed(2))

	if err := n.sender.SendText(n.chatID, sb.String()); err != nil {
		logctx.FromOr(ctx, n.log).Warn("admin_notify_failed",
			observability.F("order_id", evt.OrderID),
			observability.F("error", err.Error()),
		)
		return fmt.Errorf("admin notifier: send: %w", err)
	}
	return nil
}
