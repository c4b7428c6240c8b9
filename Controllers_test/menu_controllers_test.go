package Controllers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yummyfi/yummyfi-backend/models"
)

type menuBody struct {
	Categories []string         `json:"categories"`
	Products   []models.Product `json:"products"`
}

func TestGetMenu(t *testing.T) {
	app := setupTestApp(t, "")

	var menu menuBody
	w := app.do(t, http.MethodGet, "/menu", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &menu)
	assert.Equal(t, models.Categories, menu.Categories)
	assert.Len(t, menu.Products, 7)

	w = app.do(t, http.MethodGet, "/menu?category=Breads", nil, nil)
	require.Equal(t, http.StatusOK, w.Code)
	decode(t, w, &menu)
	require.Len(t, menu.Products, 1)
	assert.Equal(t, "Butter Naan", menu.Products[0].Name)

	w = app.do(t, http.MethodGet, "/menu/"+menu.Products[0].ID, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodGet, "/menu/missing", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestProductCRUDRequiresAdmin(t *testing.T) {
	app := setupTestApp(t, "")
	payload := map[string]interface{}{"name": "Masala Chai", "price": 40, "category": "Desserts", "is_veg": true}

	w := app.do(t, http.MethodPost, "/admin/products", payload, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	staff := app.login(t, staffEmail)
	w = app.do(t, http.MethodPost, "/admin/products", payload, bearer(staff))
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestProductCRUD(t *testing.T) {
	app := setupTestApp(t, "")
	admin := bearer(app.login(t, adminEmail))

	w := app.do(t, http.MethodPost, "/admin/products", map[string]interface{}{
		"name": "  Masala Chai ", "price": 40, "offer_price": 10, "category": "Desserts", "is_veg": true,
	}, admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var created models.Product
	decode(t, w, &created)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "Masala Chai", created.Name)
	assert.Equal(t, 50, created.ImageFocus)
	assert.Equal(t, 20, created.DiscountPercent())

	w = app.do(t, http.MethodPut, "/admin/products/"+created.ID, map[string]interface{}{
		"name": "Masala Chai", "price": 45, "category": "Desserts", "image_focus": 30,
	}, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var updated models.Product
	decode(t, w, &updated)
	assert.Equal(t, 45.0, updated.Price)
	assert.Equal(t, 30, updated.ImageFocus)
	assert.False(t, updated.IsVeg)

	w = app.do(t, http.MethodPost, "/admin/products", map[string]interface{}{"price": 10}, admin)
	assert.Equal(t, http.StatusBadRequest, w.Code, "name and category are required")

	w = app.do(t, http.MethodDelete, "/admin/products/"+created.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code)
	w = app.do(t, http.MethodDelete, "/admin/products/"+created.ID, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
