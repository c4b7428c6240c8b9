package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// OrderController serves the customer side of an order: placing it, looking
// it up and following it until it is served.
type OrderController struct {
	Orders *services.OrderService
}

func NewOrderController(orders *services.OrderService) *OrderController {
	return &OrderController{Orders: orders}
}

// CreateOrder -> place an order from explicit lines
func (oc *OrderController) CreateOrder(c *gin.Context) {
	var body services.PlaceOrderInput
	if err := c.ShouldBindJSON(&body); err != nil {
		utils.RespondError(c, http.StatusBadRequest, err)
		return
	}

	id, err := oc.Orders.PlaceOrder(c.Request.Context(), body)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	utils.RespondJSON(c, http.StatusCreated, "Order placed", gin.H{"order_id": id})
}

func (oc *OrderController) GetOrder(c *gin.Context) {
	order, err := oc.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order detail", order)
}

// TrackOrder -> order plus preparation countdown
func (oc *OrderController) TrackOrder(c *gin.Context) {
	tracking, err := oc.Orders.Track(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order tracking", tracking)
}

// CancelOrder -> customer cancellation, subject to the cancel policy
func (oc *OrderController) CancelOrder(c *gin.Context) {
	order, err := oc.Orders.Cancel(c.Request.Context(), c.Param("id"), models.ActorUser)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order cancelled", order)
}
