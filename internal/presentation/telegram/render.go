package telegram

import (
	"fmt"
	"html"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/shopspring/decimal"

	domcart "github.com/brewline/brewline/internal/domain/cart"
	domcatalog "github.com/brewline/brewline/internal/domain/catalog"
	dompayment "github.com/brewline/brewline/internal/domain/payment"
)

const (
	greetingText           = "Hi! I can take your order. Send /menu to pick a drink."
	textMenuEmpty          = "The menu is empty."
	textCatalogUnavailable = "The menu is unavailable right now, try again later."
	textItemNotFound       = "Item not found"
	textCartEmpty          = "Cart is empty"
	textCartCleared        = "Cart cleared"
	textNotInCart          = "Not in cart"
	textNotInCheckout      = "Start checkout from the cart first"
	textUnknownMethod      = "Unknown payment method"
	textPaymentDeclined    = "Payment was declined, try another method"
	textOrderFailed        = "Could not place the order, try again later"
	textBadRequest         = "Something went wrong"
)

func itemCaption(it domcatalog.Item) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", html.EscapeString(it.Name))
	if it.Description != "" {
		sb.WriteString(html.EscapeString(it.Description))
		sb.WriteString("\n")
	}
	fmt.Fprintf(&sb, "\nPrice: %s", it.Price.StringFixed(2))
	return sb.String()
}

func itemKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Add", cbPrefixAdd+itemID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001F6D2 Cart", cbCart),
		),
	)
}

func qtyKeyboard(itemID string) tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("−", cbPrefixDec+itemID),
			tgbotapi.NewInlineKeyboardButtonData("+", cbPrefixQty+itemID),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001F6D2 Cart", cbCart),
		),
	)
}

// pagerKeyboard clamps prev/next to the valid page range.
func pagerKeyboard(page, pageCount int) tgbotapi.InlineKeyboardMarkup {
	prev := page - 1
	if prev < 0 {
		prev = 0
	}
	next := page + 1
	if next > pageCount-1 {
		next = pageCount - 1
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⏮", fmt.Sprintf("%s%d", cbPrefixPage, prev)),
			tgbotapi.NewInlineKeyboardButtonData("⏭", fmt.Sprintf("%s%d", cbPrefixPage, next)),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001F6D2 Cart", cbCart),
		),
	)
}

func cartOnlyKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("\U0001F6D2 Cart", cbCart),
		),
	)
}

func cartKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("♻ Clear", cbCartClear),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Checkout", cbCheckout),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⬅ Menu", cbMenu),
		),
	)
}

func methodsKeyboard(methods []dompayment.Method) tgbotapi.InlineKeyboardMarkup {
	row := make([]tgbotapi.InlineKeyboardButton, 0, len(methods))
	for _, m := range methods {
		row = append(row, tgbotapi.NewInlineKeyboardButtonData(methodButtonLabel(m), cbPrefixPay+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row)
}

func methodButtonLabel(m dompayment.Method) string {
	switch m {
	case dompayment.MethodCash:
		return "\U0001F4B5 Cash"
	case dompayment.MethodQR:
		return "\U0001F4F7 QR"
	default:
		return m.Label()
	}
}

func pagerText(page, pageCount int) string {
	return fmt.Sprintf("Page %d/%d", page+1, pageCount)
}

func addedText(entry domcart.Entry, total decimal.Decimal) string {
	return fmt.Sprintf("In cart %s: %d pcs (cart total %s)", entry.Name, entry.Quantity, total.StringFixed(2))
}

func qtyText(entry domcart.Entry) string {
	return fmt.Sprintf("In cart %s: %d pcs", entry.Name, entry.Quantity)
}

func cartText(lines []domcart.Line, total decimal.Decimal) string {
	var sb strings.Builder
	sb.WriteString("\U0001F9FA Cart:\n")
	for _, l := range lines {
		fmt.Fprintf(&sb, "• %s × %d = %s\n", l.Name, l.Quantity, l.LineTotal().StringFixed(2))
	}
	fmt.Fprintf(&sb, "Total: %s", total.StringFixed(2))
	return sb.String()
}

func checkoutText(total decimal.Decimal) string {
	return fmt.Sprintf("Amount due: %s. Choose a payment method:", total.StringFixed(2))
}

func placedText(res dompayment.Result) string {
	return fmt.Sprintf("Order placed. %s\nAmount: %s", res.Description, res.Amount.StringFixed(2))
}

func qrCaption(res dompayment.Result) string {
	return fmt.Sprintf("%s\nAmount: %s", res.Description, res.Amount.StringFixed(2))
}
