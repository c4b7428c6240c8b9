package Controllers_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

func TestAdminOrderLifecycle(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))
	id := app.placeOrder(t, "T3")

	var order models.Order
	w := app.do(t, http.MethodPost, "/admin/orders/"+id+"/ready", nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code, "pending cannot skip to ready")

	w = app.do(t, http.MethodPost, "/admin/orders/"+id+"/confirm", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &order)
	assert.Equal(t, models.StatusConfirmed, order.Status)
	require.NotNil(t, order.ConfirmedAt)

	app.clock.Advance(12 * time.Minute)
	w = app.do(t, http.MethodPost, "/admin/orders/"+id+"/ready", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	require.NotNil(t, order.ReadyAt)
	assert.Equal(t, 12*time.Minute, order.ReadyAt.Sub(*order.ConfirmedAt))

	w = app.do(t, http.MethodPost, "/admin/orders/"+id+"/complete", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &order)
	assert.Equal(t, models.StatusCompleted, order.Status)

	w = app.do(t, http.MethodPost, "/admin/orders/"+id+"/cancel", nil, admin)
	assert.Equal(t, http.StatusConflict, w.Code, "completed is terminal")

	w = app.do(t, http.MethodPost, "/admin/orders/missing/confirm", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAdminCancelReadyOrder(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))
	id := app.placeOrder(t, "T3")

	app.do(t, http.MethodPost, "/admin/orders/"+id+"/confirm", nil, admin)
	app.do(t, http.MethodPost, "/admin/orders/"+id+"/ready", nil, admin)
	w := app.do(t, http.MethodPost, "/admin/orders/"+id+"/cancel", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)

	var order models.Order
	decode(t, w, &order)
	assert.Equal(t, models.StatusCancelled, order.Status)
	require.NotNil(t, order.CancelledBy)
	assert.Equal(t, models.ActorAdmin, *order.CancelledBy)
}

func TestAdminListOrders(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))

	app.clock.Set(T0.Add(-24 * time.Hour))
	old := app.placeOrder(t, "T1")
	app.clock.Set(T0)
	first := app.placeOrder(t, "T1")
	app.clock.Advance(time.Minute)
	second := app.placeOrder(t, "T2")
	_, err := app.orders.Transition(t.Context(), second, models.StatusConfirmed, models.ActorAdmin)
	require.NoError(t, err)

	ids := func(path string) []string {
		w := app.do(t, http.MethodGet, path, nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		var orders []models.Order
		decode(t, w, &orders)
		out := make([]string, len(orders))
		for i, o := range orders {
			out[i] = o.ID
		}
		return out
	}

	assert.Equal(t, []string{second, first}, ids("/admin/orders"), "current day, newest first")
	assert.Equal(t, []string{second, first, old}, ids("/admin/orders?scope=all"))
	assert.Equal(t, []string{first}, ids("/admin/orders?table=T1"))
	assert.Equal(t, []string{second}, ids("/admin/orders?status=confirmed"))
	assert.Equal(t, []string{second, first}, ids("/admin/orders?status=pending,confirmed"))

	w := app.do(t, http.MethodGet, "/admin/orders?status=lost", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminDeleteAndCleanup(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))

	app.clock.Set(T0.Add(-30 * time.Hour))
	stale := app.placeOrder(t, "T5")
	app.clock.Set(T0)
	today := app.placeOrder(t, "T5")
	doomed := app.placeOrder(t, "T6")

	w := app.do(t, http.MethodDelete, "/admin/orders/"+doomed, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodDelete, "/admin/orders/"+doomed, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	var removed struct {
		Removed []string `json:"removed"`
	}
	w = app.do(t, http.MethodPost, "/admin/orders/cleanup", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &removed)
	assert.Equal(t, []string{stale}, removed.Removed)

	w = app.do(t, http.MethodPost, "/admin/orders/cleanup", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &removed)
	assert.Empty(t, removed.Removed, "a second cleanup removes nothing")

	_, err := app.orders.Get(t.Context(), today)
	assert.NoError(t, err)
}

func TestDashboardStats(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))

	app.clock.Set(T0.Add(-24 * time.Hour))
	app.placeOrder(t, "T1")
	app.clock.Set(T0)
	a := app.placeOrder(t, "T1")
	app.placeOrder(t, "T2")
	b := app.placeOrder(t, "T3")
	_, err := app.orders.Transition(t.Context(), a, models.StatusConfirmed, models.ActorAdmin)
	require.NoError(t, err)
	_, err = app.orders.Cancel(t.Context(), b, models.ActorUser)
	require.NoError(t, err)

	var stats struct {
		Summary        lifecycle.Summary `json:"summary"`
		RevenueDisplay string            `json:"revenue_display"`
		WindowLabel    string            `json:"window_label"`
	}
	w := app.do(t, http.MethodGet, "/admin/dashboard/stats", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &stats)

	assert.Equal(t, 3, stats.Summary.TotalOrders)
	assert.Equal(t, 1, stats.Summary.ByStatus[models.StatusPending])
	assert.Equal(t, 1, stats.Summary.ByStatus[models.StatusConfirmed])
	assert.Equal(t, 1, stats.Summary.ByStatus[models.StatusCancelled])
	assert.Equal(t, 0, stats.Summary.ByStatus[models.StatusReady])
	assert.Equal(t, "10-04-2026", stats.WindowLabel)
	assert.True(t, strings.HasPrefix(stats.RevenueDisplay, "₹"), stats.RevenueDisplay)
}

func TestExportCSV(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))
	id := app.placeOrder(t, "T8")

	w := app.do(t, http.MethodGet, "/admin/reports/export", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `attachment; filename="YummyFi_Orders_10-04-2026.csv"`, w.Header().Get("Content-Disposition"))
	assert.Contains(t, w.Header().Get("Content-Type"), "text/csv")

	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[0], "Order ID,Customer Name"))
	assert.True(t, strings.HasPrefix(lines[1], id+",Guest,T8,"))
	assert.Contains(t, lines[1], "Butter Naan (x2), Butter Chicken (x1)")
}

func TestExportSheets(t *testing.T) {
	var posted map[string]interface{}
	sheets := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &posted)
		w.WriteHeader(http.StatusOK)
	}))
	defer sheets.Close()

	app := setupTestApp(t, sheets.URL)
	admin := bearer(app.login(t, adminEmail))
	app.placeOrder(t, "T1")

	w := app.do(t, http.MethodPost, "/admin/reports/sheets", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "writeOrders", posted["action"])
	assert.Equal(t, "Orders_10-04-2026", posted["sheetName"])
	assert.Len(t, posted["data"], 2)

	unconfigured := setupTestApp(t, "")
	token := bearer(unconfigured.login(t, adminEmail))
	w = unconfigured.do(t, http.MethodPost, "/admin/reports/sheets", nil, token)
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestExportPDFAndReceipt(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))
	id := app.placeOrder(t, "T4")

	w := app.do(t, http.MethodGet, "/admin/reports/export-pdf", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	order, err := app.orders.Get(t.Context(), id)
	require.NoError(t, err)

	var receipt struct {
		BillNumber string   `json:"bill_number"`
		Lines      []string `json:"lines"`
		Text       string   `json:"text"`
	}
	w = app.do(t, http.MethodGet, "/admin/orders/"+id+"/receipt?method=upi&phone=9876543210", nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	decode(t, w, &receipt)
	assert.Equal(t, order.BillNumber(), receipt.BillNumber)
	assert.Contains(t, receipt.Text, order.BillNumber())
	assert.Contains(t, receipt.Text, "UPI")
	assert.Contains(t, receipt.Text, "9876543210")

	w = app.do(t, http.MethodGet, "/admin/orders/"+id+"/receipt?method=cheque", nil, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = app.do(t, http.MethodGet, "/admin/orders/"+id+"/receipt.pdf", nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "%PDF"))

	w = app.do(t, http.MethodGet, "/admin/orders/missing/receipt", nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
