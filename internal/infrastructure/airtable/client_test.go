package airtable

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/brewline/brewline/internal/domain/sale"
)

type capturedRequest struct {
	method string
	path   string
	query  map[string]string
	auth   string
	body   map[string]any
}

// newTestClient serves canned JSON and records every request.
func newTestClient(t *testing.T, status int, response string) (*Client, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := capturedRequest{
			method: r.Method,
			path:   r.URL.Path,
			query:  map[string]string{},
			auth:   r.Header.Get("Authorization"),
		}
		for k := range r.URL.Query() {
			req.query[k] = r.URL.Query().Get(k)
		}
		if r.Body != nil {
			_ = json.NewDecoder(r.Body).Decode(&req.body)
		}
		captured = append(captured, req)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)

	return NewClient("appBase", "key-123").WithBaseURL(srv.URL), &captured
}

func TestClientList_BuildsQueryAndAuth(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"records":[{"id":"rec1","fields":{"Name":"Espresso"}}]}`)

	recs, err := c.List(context.Background(), "menu_all", ListOptions{
		FilterByFormula: "{Client_ID}='tg_42'",
		SortField:       "Item_ID",
		MaxRecords:      1,
	})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.Equal(t, "rec1", recs[0].ID)
	assert.Equal(t, "Espresso", recs[0].Fields["Name"])

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodGet, req.method)
	assert.Equal(t, "/menu_all", req.path)
	assert.Equal(t, "Bearer key-123", req.auth)
	assert.Equal(t, "{Client_ID}='tg_42'", req.query["filterByFormula"])
	assert.Equal(t, "Item_ID", req.query["sort[0][field]"])
	assert.Equal(t, "1", req.query["maxRecords"])
}

func TestClientCreate_WrapsFields(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"id":"recNew","fields":{"Client_ID":"tg_42"}}`)

	rec, err := c.Create(context.Background(), "clients_skeleton", map[string]any{"Client_ID": "tg_42"})
	require.NoError(t, err)
	assert.Equal(t, "recNew", rec.ID)

	req := (*captured)[0]
	assert.Equal(t, http.MethodPost, req.method)
	fields, ok := req.body["fields"].(map[string]any)
	require.True(t, ok, "payload must nest under fields")
	assert.Equal(t, "tg_42", fields["Client_ID"])
}

func TestClientFindFirst(t *testing.T) {
	c, _ := newTestClient(t, http.StatusOK, `{"records":[{"id":"rec1","fields":{}}]}`)
	rec, found, err := c.FindFirst(context.Background(), "clients_skeleton", "{Client_ID}='tg_42'")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "rec1", rec.ID)

	c, _ = newTestClient(t, http.StatusOK, `{"records":[]}`)
	_, found, err = c.FindFirst(context.Background(), "clients_skeleton", "{Client_ID}='tg_42'")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestClient_NonOKStatusYieldsStatusError(t *testing.T) {
	c, _ := newTestClient(t, http.StatusUnprocessableEntity, `{"error":"INVALID_FILTER"}`)

	_, err := c.List(context.Background(), "menu_all", ListOptions{})
	require.ErrorIs(t, err, ErrStatus)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnprocessableEntity, statusErr.Status)
	assert.Contains(t, statusErr.Body, "INVALID_FILTER")
}

func TestCatalogRepositoryListMenu_DropsIncompleteRows(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"records":[
		{"id":"rec1","fields":{"Item_ID":"esp","Name":"Espresso","Price":90,"Category":"Coffee"}},
		{"id":"rec2","fields":{"Item_ID":"mys","Price":10}},
		{"id":"rec3","fields":{"Item_ID":"tea","Name":"Tea"}},
		{"id":"rec4","fields":{"Item_ID":"lat","Name":"Latte","Price":120.5}}
	]}`)

	items, err := NewCatalogRepository(c, "menu_all").ListMenu(context.Background())
	require.NoError(t, err)

	require.Len(t, items, 2, "rows without name or price are skipped")
	assert.Equal(t, "esp", items[0].ItemID)
	assert.True(t, items[0].Price.Equal(decimal.NewFromInt(90)))
	assert.Equal(t, "lat", items[1].ItemID)
	assert.True(t, items[1].Price.Equal(decimal.NewFromFloat(120.5)))

	assert.Equal(t, "Item_ID", (*captured)[0].query["sort[0][field]"])
}

func TestClientRepositoryFindByKey_EscapedFormula(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"records":[{"id":"rec9","fields":{"Client_ID":"tg_42","Name":"Tanya"}}]}`)

	rec, found, err := NewClientRepository(c, "clients_skeleton").FindByKey(context.Background(), "tg_42")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "rec9", rec.ID)
	assert.Equal(t, "Tanya", rec.Name)

	assert.Equal(t, "{Client_ID}='tg_42'", (*captured)[0].query["filterByFormula"])
}

func TestSaleRepositoryCreate_LinksRecordHandles(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"id":"recSale","fields":{}}`)

	err := NewSaleRepository(c, "sales_skeleton").Create(context.Background(), sale.Record{
		ItemID:        "esp",
		Quantity:      2,
		UnitPrice:     decimal.NewFromInt(90),
		Total:         decimal.NewFromInt(180),
		Channel:       "Telegram",
		PaymentMethod: "Cash",
		ClientRef:     "recClient1",
	})
	require.NoError(t, err)

	fields := (*captured)[0].body["fields"].(map[string]any)
	assert.Equal(t, "esp", fields["Item_ID"])
	assert.Equal(t, float64(2), fields["Quantity"])
	assert.Equal(t, float64(90), fields["Unit_Price"])
	assert.Equal(t, float64(180), fields["Total"])
	assert.Equal(t, "Telegram", fields["Channel"])
	assert.Equal(t, "Cash", fields["Payment_Method"])
	assert.Equal(t, []any{"recClient1"}, fields["clients_skeleton"])
	assert.NotContains(t, fields, "Client_ID")
}

func TestSaleRepositoryCreate_PlainKeyUsesTextColumn(t *testing.T) {
	c, captured := newTestClient(t, http.StatusOK, `{"id":"recSale","fields":{}}`)

	err := NewSaleRepository(c, "sales_skeleton").Create(context.Background(), sale.Record{
		ItemID:    "esp",
		Quantity:  1,
		ClientRef: "tg_42",
	})
	require.NoError(t, err)

	fields := (*captured)[0].body["fields"].(map[string]any)
	assert.Equal(t, "tg_42", fields["Client_ID"])
	assert.NotContains(t, fields, "clients_skeleton")
}
