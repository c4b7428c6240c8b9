package controllers

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/export"
	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/services"
	"github.com/yummyfi/yummyfi-backend/store"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// AdminController is the staff dashboard: order actions, stats, exports and
// bills. Every route sits behind the admin gate.
type AdminController struct {
	Orders   *services.OrderService
	Sheets   *export.SheetsClient
	Location *time.Location
	Log      logrus.FieldLogger
}

func NewAdminController(orders *services.OrderService, sheets *export.SheetsClient, loc *time.Location, log logrus.FieldLogger) *AdminController {
	return &AdminController{Orders: orders, Sheets: sheets, Location: loc, Log: log}
}

// ListOrders -> current business day, newest first. Filters: ?status=a,b
// ?table=T3 and ?scope=all to include older days not yet cleaned up.
func (ac *AdminController) ListOrders(c *gin.Context) {
	var q store.Query
	if c.Query("scope") != "all" {
		w := ac.Orders.CurrentWindow()
		q.CreatedFrom, q.CreatedTo = w.Start, w.End
	}
	q.TableNumber = c.Query("table")
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			st, ok := models.ParseStatus(part)
			if !ok {
				utils.RespondError(c, http.StatusBadRequest, fmt.Errorf("unknown order status %q", part))
				return
			}
			q.Statuses = append(q.Statuses, st)
		}
	}

	orders, err := ac.Orders.List(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if orders == nil {
		orders = []models.Order{}
	}
	utils.RespondJSON(c, http.StatusOK, "List of orders", orders)
}

func (ac *AdminController) ConfirmOrder(c *gin.Context) {
	ac.transition(c, models.StatusConfirmed, "Order confirmed")
}

func (ac *AdminController) MarkReady(c *gin.Context) {
	ac.transition(c, models.StatusReady, "Order ready")
}

func (ac *AdminController) CompleteOrder(c *gin.Context) {
	ac.transition(c, models.StatusCompleted, "Order completed")
}

func (ac *AdminController) CancelOrder(c *gin.Context) {
	ac.transition(c, models.StatusCancelled, "Order cancelled")
}

func (ac *AdminController) transition(c *gin.Context, target models.OrderStatus, message string) {
	order, err := ac.Orders.Transition(c.Request.Context(), c.Param("id"), target, models.ActorAdmin)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, order)
}

func (ac *AdminController) DeleteOrder(c *gin.Context) {
	if err := ac.Orders.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Order deleted", nil)
}

// CleanupOrders -> remove every order from earlier business days now
func (ac *AdminController) CleanupOrders(c *gin.Context) {
	removed, err := ac.Orders.SweepExpired(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	if removed == nil {
		removed = []string{}
	}
	utils.RespondJSON(c, http.StatusOK, fmt.Sprintf("Removed %d orders", len(removed)), gin.H{
		"removed": removed,
	})
}

// GetDashboardStats -> counts and revenue of the current business day
func (ac *AdminController) GetDashboardStats(c *gin.Context) {
	summary, err := ac.Orders.Summary(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Dashboard stats", gin.H{
		"summary":         summary,
		"revenue_display": utils.FormatINR(summary.TotalRevenue),
		"window_label":    summary.Window.Label(),
	})
}

// ExportCSV -> download of the current business day
func (ac *AdminController) ExportCSV(c *gin.Context) {
	orders, w, err := ac.Orders.WindowOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCSV(&buf, export.Rows(orders, ac.Location)); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.FileName(w)))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// ExportSheets -> push the current business day to the Google Sheet
func (ac *AdminController) ExportSheets(c *gin.Context) {
	orders, w, err := ac.Orders.WindowOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	result, err := ac.Sheets.Export(c.Request.Context(), orders, w)
	if err != nil {
		ac.Log.WithError(err).Error("Google Sheets export failed")
		code := statusFor(err)
		if code == http.StatusServiceUnavailable {
			code = http.StatusBadGateway
		}
		utils.RespondError(c, code, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, result.Message, result)
}

// ExportPDF -> day report with summary, chart and order table
func (ac *AdminController) ExportPDF(c *gin.Context) {
	orders, w, err := ac.Orders.WindowOrders(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	var buf bytes.Buffer
	if err := export.DailyReportPDF(&buf, lifecycle.Aggregate(orders, w), orders, ac.Location); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	name := strings.TrimSuffix(export.FileName(w), ".csv") + ".pdf"
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}

func (ac *AdminController) receiptInput(c *gin.Context) (*models.Order, export.ReceiptOptions, bool) {
	method, err := export.ParsePaymentMethod(c.Query("method"))
	if err != nil {
		respondServiceError(c, err)
		return nil, export.ReceiptOptions{}, false
	}
	order, err := ac.Orders.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondServiceError(c, err)
		return nil, export.ReceiptOptions{}, false
	}
	return order, export.ReceiptOptions{Method: method, Phone: c.Query("phone"), Location: ac.Location}, true
}

// Receipt -> thermal-printer text of the bill, ?method=upi|cash|card&phone=
func (ac *AdminController) Receipt(c *gin.Context) {
	order, opts, ok := ac.receiptInput(c)
	if !ok {
		return
	}
	utils.RespondJSON(c, http.StatusOK, "Receipt", gin.H{
		"bill_number": order.BillNumber(),
		"lines":       export.ReceiptLines(order, opts),
		"text":        export.ReceiptText(order, opts),
	})
}

func (ac *AdminController) ReceiptPDF(c *gin.Context) {
	order, opts, ok := ac.receiptInput(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := export.ReceiptPDF(&buf, order, opts); err != nil {
		utils.RespondError(c, http.StatusInternalServerError, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%q", order.BillNumber()+".pdf"))
	c.Data(http.StatusOK, "application/pdf", buf.Bytes())
}
