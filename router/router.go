package router

import (
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/yummyfi/yummyfi-backend/cart"
	"github.com/yummyfi/yummyfi-backend/controllers"
	"github.com/yummyfi/yummyfi-backend/export"
	"github.com/yummyfi/yummyfi-backend/kds"
	"github.com/yummyfi/yummyfi-backend/middlewares"
	"github.com/yummyfi/yummyfi-backend/services"
)

// Deps is everything the HTTP surface needs, built once at startup.
type Deps struct {
	DB             *gorm.DB
	Orders         *services.OrderService
	Auth           *services.AuthService
	Carts          cart.Store
	Sheets         *export.SheetsClient
	Hub            *kds.Hub
	Location       *time.Location
	AllowedOrigins []string
	// FrontendDir is served under /Frontend when it exists.
	FrontendDir string
	// RequestsPerSecond caps each client IP; zero disables the limit.
	RequestsPerSecond int
	Log               logrus.FieldLogger
}

func SetupRouter(d Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.Use(middlewares.SecurityHeaders(d.AllowedOrigins))
	r.Use(middlewares.CORSMiddlewares(d.AllowedOrigins))
	r.Use(middlewares.LoggerMiddleware(d.Log))
	if d.RequestsPerSecond > 0 {
		r.Use(middlewares.NewRateLimiter(d.RequestsPerSecond, time.Second).RateLimit())
	}

	if d.FrontendDir != "" {
		if _, err := os.Stat(d.FrontendDir); err == nil {
			r.Static("/Frontend", d.FrontendDir)
		} else {
			d.Log.WithField("path", d.FrontendDir).Warn("Frontend path not found")
		}
	}

	userCtrl := controllers.NewUserController(d.Auth)
	menuCtrl := controllers.NewMenuController(d.DB)
	orderCtrl := controllers.NewOrderController(d.Orders)
	cartCtrl := controllers.NewCartController(d.DB, d.Carts, d.Orders)
	adminCtrl := controllers.NewAdminController(d.Orders, d.Sheets, d.Location, d.Log)
	kdsCtrl := controllers.NewKDSController(d.Hub, d.Orders, d.AllowedOrigins)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})

	r.POST("/login", middlewares.NewStrictRateLimiter(), userCtrl.Login)

	r.GET("/menu", menuCtrl.GetMenu)
	r.GET("/menu/:id", menuCtrl.GetProduct)

	r.POST("/orders", orderCtrl.CreateOrder)
	r.GET("/orders/:id", orderCtrl.GetOrder)
	r.GET("/orders/:id/track", orderCtrl.TrackOrder)
	r.POST("/orders/:id/cancel", orderCtrl.CancelOrder)

	carts := r.Group("/cart")
	{
		carts.GET("", cartCtrl.GetCart)
		carts.DELETE("", cartCtrl.ClearCart)
		carts.POST("/items", cartCtrl.AddItem)
		carts.PATCH("/items/:product_id", cartCtrl.UpdateQuantity)
		carts.DELETE("/items/:product_id", cartCtrl.RemoveItem)
		carts.POST("/checkout", cartCtrl.Checkout)
	}

	r.GET("/ws/track/:id", kdsCtrl.TrackSocket)
	r.GET("/ws/admin", middlewares.AuthMiddleware(d.Auth), middlewares.AdminOnly(), kdsCtrl.AdminSocket)

	// ----------------------------------------------------------------
	//                      STAFF ROUTES
	// ----------------------------------------------------------------
	admin := r.Group("/admin")
	admin.Use(middlewares.AuthMiddleware(d.Auth))

	// Signing out and the profile only need a valid token.
	admin.POST("/logout", userCtrl.Logout)
	admin.GET("/profile", userCtrl.GetProfile)

	staff := admin.Group("")
	staff.Use(middlewares.AdminOnly())

	// ORDERS
	staff.GET("/orders", adminCtrl.ListOrders)
	staff.POST("/orders/cleanup", adminCtrl.CleanupOrders)
	staff.POST("/orders/:id/confirm", adminCtrl.ConfirmOrder)
	staff.POST("/orders/:id/ready", adminCtrl.MarkReady)
	staff.POST("/orders/:id/complete", adminCtrl.CompleteOrder)
	staff.POST("/orders/:id/cancel", adminCtrl.CancelOrder)
	staff.DELETE("/orders/:id", adminCtrl.DeleteOrder)
	staff.GET("/orders/:id/receipt", adminCtrl.Receipt)
	staff.GET("/orders/:id/receipt.pdf", adminCtrl.ReceiptPDF)

	// DASHBOARD & REPORTS
	staff.GET("/dashboard/stats", adminCtrl.GetDashboardStats)
	staff.GET("/reports/export", adminCtrl.ExportCSV)
	staff.GET("/reports/export-pdf", adminCtrl.ExportPDF)
	staff.POST("/reports/sheets", adminCtrl.ExportSheets)

	// PRODUCTS
	staff.GET("/products", menuCtrl.GetMenu)
	staff.POST("/products", menuCtrl.CreateProduct)
	staff.GET("/products/:id", menuCtrl.GetProduct)
	staff.PUT("/products/:id", menuCtrl.UpdateProduct)
	staff.DELETE("/products/:id", menuCtrl.DeleteProduct)

	return r
}
