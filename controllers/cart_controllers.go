package controllers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// SessionHeader identifies the browser session that owns a cart.
const SessionHeader = "X-Session-ID"

var errProductNotFound = errors.New("product not found")

type CartController struct {
	DB     *gorm.DB
	Carts  cart.Store
	Orders *services.OrderService
}

func NewCartController(db *gorm.DB, carts cart.Store, orders *services.OrderService) *CartController {
	return &CartController{DB: db, Carts: carts, Orders: orders}
}

type cartView struct {
	Items []cart.Item `json:"items"`
	Count int         `json:"count"`
	Total float64     `json:"total"`
}

func newCartView(items []cart.Item) cartView {
	if items == nil {
		items = []cart.Item{}
	}
	count := 0
	for _, item := range items {
		count += item.Quantity
	}
	return cartView{Items: items, Count: count, Total: cart.Total(items)}
}

func session(c *gin.Context) (string, bool) {
	id := c.GetHeader(SessionHeader)
	if id == "" {
		utils.RespondError(c, http.StatusBadRequest, cart.ErrMissingSession)
		return "", false
	}
	return id, true
}

func (cc *CartController) GetCart(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	items, err := cc.Carts.Items(c.Request.Context(), sess)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart", newCartView(items))
}

// AddItem -> one more of a menu product
func (cc *CartController) AddItem(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var body struct {
		ProductID string `json:"product_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	var product models.Product
	err := cc.DB.WithContext(c.Request.Context()).First(&product, "id = ?", body.ProductID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		utils.RespondError(c, http.StatusNotFound, errProductNotFound)
		return
	}
	if err != nil {
		respondServiceError(c, err)
		return
	}

	items, err := cc.Carts.Add(c.Request.Context(), sess, product)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Added to cart", newCartView(items))
}

// UpdateQuantity -> body {"delta": -1|+1}
func (cc *CartController) UpdateQuantity(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var body struct {
		Delta int `json:"delta" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	items, err := cc.Carts.UpdateQuantity(c.Request.Context(), sess, c.Param("product_id"), body.Delta)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart updated", newCartView(items))
}

func (cc *CartController) RemoveItem(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	items, err := cc.Carts.Remove(c.Request.Context(), sess, c.Param("product_id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Removed from cart", newCartView(items))
}

func (cc *CartController) ClearCart(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	if err := cc.Carts.Clear(c.Request.Context(), sess); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Cart cleared", newCartView(nil))
}

// Checkout -> place the cart as an order; body carries table and customer only
func (cc *CartController) Checkout(c *gin.Context) {
	sess, ok := session(c)
	if !ok {
		return
	}
	var body struct {
		TableNumber   string `json:"table_number"`
		CustomerName  string `json:"customer_name"`
		CustomerEmail string `json:"customer_email"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	id, err := cc.Orders.Checkout(c.Request.Context(), cc.Carts, sess, services.PlaceOrderInput{
		TableNumber:   body.TableNumber,
		CustomerName:  body.CustomerName,
		CustomerEmail: body.CustomerEmail,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusCreated, "Order placed", gin.H{"order_id": id})
}
