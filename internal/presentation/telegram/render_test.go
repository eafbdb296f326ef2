package telegram

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domcart "github.com/brewline/brewline/internal/domain/cart"
	domcatalog "github.com/brewline/brewline/internal/domain/catalog"
	dompayment "github.com/brewline/brewline/internal/domain/payment"
)

func TestItemCaption_EscapesHTML(t *testing.T) {
	caption := itemCaption(domcatalog.Item{
		Name:        "Flat <White>",
		Description: "Milk & espresso",
		Price:       decimal.NewFromFloat(120.5),
	})

	assert.Contains(t, caption, "<b>Flat &lt;White&gt;</b>")
	assert.Contains(t, caption, "Milk &amp; espresso")
	assert.Contains(t, caption, "Price: 120.50")
}

func TestPagerKeyboard_ClampsAtEdges(t *testing.T) {
	kb := pagerKeyboard(0, 3)
	require.Len(t, kb.InlineKeyboard, 2)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "page:0", *row[0].CallbackData, "prev clamps at the first page")
	assert.Equal(t, "page:1", *row[1].CallbackData)

	kb = pagerKeyboard(2, 3)
	row = kb.InlineKeyboard[0]
	assert.Equal(t, "page:1", *row[0].CallbackData)
	assert.Equal(t, "page:2", *row[1].CallbackData, "next clamps at the last page")
}

func TestPagerText(t *testing.T) {
	assert.Equal(t, "Page 1/3", pagerText(0, 3))
	assert.Equal(t, "Page 3/3", pagerText(2, 3))
}

func TestCartText_RendersLinesAndTotal(t *testing.T) {
	lines := []domcart.Line{
		{ItemID: "esp", Entry: domcart.Entry{Name: "Espresso", UnitPrice: decimal.NewFromInt(90), Quantity: 2}},
		{ItemID: "lat", Entry: domcart.Entry{Name: "Latte", UnitPrice: decimal.NewFromInt(120), Quantity: 0}},
	}
	text := cartText(lines, decimal.NewFromInt(180))

	assert.Contains(t, text, "• Espresso × 2 = 180.00")
	assert.Contains(t, text, "• Latte × 0 = 0.00", "zero-quantity lines still render")
	assert.Contains(t, text, "Total: 180.00")
}

func TestMethodsKeyboard_OneButtonPerMethod(t *testing.T) {
	kb := methodsKeyboard([]dompayment.Method{dompayment.MethodCash, dompayment.MethodQR})
	require.Len(t, kb.InlineKeyboard, 1)
	row := kb.InlineKeyboard[0]
	require.Len(t, row, 2)
	assert.Equal(t, "pay:cash", *row[0].CallbackData)
	assert.Equal(t, "pay:qr", *row[1].CallbackData)
}

func TestPlacedText_IncludesAmount(t *testing.T) {
	res := dompayment.Result{OK: true, Amount: decimal.NewFromInt(180), Description: "Pay in cash on delivery."}
	text := placedText(res)
	assert.Contains(t, text, "Order placed.")
	assert.Contains(t, text, "Amount: 180.00")
}
