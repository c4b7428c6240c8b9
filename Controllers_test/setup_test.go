package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/database"
	"github.com/yummyfi/yummyfi-backend/export"
	"github.com/yummyfi/yummyfi-backend/kds"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/router"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// T0 sits inside the 2026-04-10 business day.
var T0 = time.Date(2026, 4, 10, 12, 0, 0, 0, time.UTC)

const (
	adminEmail    = "admin@yummyfi.in"
	staffEmail    = "staff@yummyfi.in"
	staffPassword = "masala-dosa-42"
)

type testApp struct {
	db     *gorm.DB
	clock  *cycle.ManualClock
	orders *services.OrderService
	auth   *services.AuthService
	router *gin.Engine
}

type apiResponse struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// setupTestApp builds the full router over an in-memory database with a
// seeded menu and two staff accounts, only one of them on the admin list.
func setupTestApp(t *testing.T, sheetsURL string) *testApp {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := utils.NewTestLogger()
	db, err := database.OpenMemory(uuid.NewString(), log)
	require.NoError(t, err)
	require.NoError(t, database.SeedProducts(db, log))

	clock := cycle.NewManualClock(T0)
	st := store.New(db, clock, log)
	t.Cleanup(func() { st.Close() })

	orders := services.NewOrderService(st, clock, lifecycle.DefaultCancelPolicy(), log)
	tokens := utils.NewTokenIssuer("controller-test-secret", time.Hour)
	auth := services.NewAuthService(db, tokens, utils.NewTokenBlacklist(), []string{adminEmail}, log)

	ctx := context.Background()
	_, err = auth.CreateUser(ctx, "Admin", adminEmail, staffPassword)
	require.NoError(t, err)
	_, err = auth.CreateUser(ctx, "Staff", staffEmail, staffPassword)
	require.NoError(t, err)

	r := router.SetupRouter(router.Deps{
		DB:             db,
		Orders:         orders,
		Auth:           auth,
		Carts:          cart.NewMemoryStore(clock),
		Sheets:         export.NewSheetsClient(sheetsURL, "https://docs.google.com/spreadsheets/d/test", time.UTC, log),
		Hub:            kds.NewHub(clock, log),
		Location:       time.UTC,
		AllowedOrigins: []string{"*"},
		Log:            log,
	})

	return &testApp{db: db, clock: clock, orders: orders, auth: auth, router: r}
}

func (a *testApp) do(t *testing.T, method, path string, body interface{}, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, path, reader)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	a.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, data interface{}) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	if data != nil && len(resp.Data) > 0 {
		require.NoError(t, json.Unmarshal(resp.Data, data))
	}
	return resp
}

func (a *testApp) login(t *testing.T, email string) string {
	t.Helper()
	w := a.do(t, http.MethodPost, "/login", map[string]string{"email": email, "password": staffPassword}, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var sess services.Session
	decode(t, w, &sess)
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func bearer(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

func (a *testApp) product(t *testing.T, name string) models.Product {
	t.Helper()
	var p models.Product
	require.NoError(t, a.db.Where("name = ?", name).First(&p).Error)
	return p
}

func (a *testApp) placeOrder(t *testing.T, table string) string {
	t.Helper()
	id, err := a.orders.PlaceOrder(context.Background(), services.PlaceOrderInput{
		TableNumber: table,
		Items: []services.ItemInput{
			{ProductID: "p-naan", Name: "Butter Naan", Price: 50, Quantity: 2, IsVeg: true},
			{ProductID: "p-chicken", Name: "Butter Chicken", Price: 290, Quantity: 1},
		},
	})
	require.NoError(t, err)
	return id
}
