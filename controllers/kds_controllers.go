package controllers

import (
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/yummyfi/yummyfi-backend/kds"
	"github.com/yummyfi/yummyfi-backend/services"
)

type KDSController struct {
	Hub      *kds.Hub
	Orders   *services.OrderService
	upgrader websocket.Upgrader
}

// NewKDSController accepts WebSocket handshakes from allowedOrigins, or from
// anywhere when the list holds "*" or is empty.
func NewKDSController(hub *kds.Hub, orders *services.OrderService, allowedOrigins []string) *KDSController {
	return &KDSController{
		Hub:    hub,
		Orders: orders,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				if origin == "" || len(allowedOrigins) == 0 || slices.Contains(allowedOrigins, "*") {
					return true
				}
				return slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// AdminSocket -> live snapshot feed for the dashboard. Auth runs before this
// handler, with the token in the query string.
func (kc *KDSController) AdminSocket(c *gin.Context) {
	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.Hub.Serve(ws, kds.RoleAdmin, "")
}

// TrackSocket -> live updates for one order's tracking page
func (kc *KDSController) TrackSocket(c *gin.Context) {
	id := c.Param("id")
	if _, err := kc.Orders.Get(c.Request.Context(), id); err != nil {
		respondServiceError(c, err)
		return
	}

	ws, err := kc.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	kc.Hub.Serve(ws, kds.RoleTracker, id)
}
