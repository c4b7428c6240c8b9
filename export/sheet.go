// Package export renders the orders of a business day for people outside the
// app: CSV downloads, a Google Sheets relay, a PDF day report and bill receipts.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// Headers is the first row of every sheet.
var Headers = []string{
	"Order ID",
	"Customer Name",
	"Table Number",
	"Items",
	"Item Details",
	"Total Amount (₹)",
	"Status",
	"Order Time",
	"Confirmed Time",
	"Ready Time",
}

const dateTimeLayout = "02/01/2006, 03:04 pm"

// Rows renders one header row and one row per order, in the given order.
// Times are shown in loc.
func Rows(orders []models.Order, loc *time.Location) [][]string {
	rows := make([][]string, 0, len(orders)+1)
	rows = append(rows, append([]string(nil), Headers...))
	for i := range orders {
		rows = append(rows, row(&orders[i], loc))
	}
	return rows
}

func row(o *models.Order, loc *time.Location) []string {
	names := make([]string, len(o.Items))
	details := make([]string, len(o.Items))
	for i, item := range o.Items {
		names[i] = item.Name + " (x" + strconv.Itoa(item.Quantity) + ")"
		details[i] = item.Name + ": ₹" + number(item.UnitPrice) + " x " + strconv.Itoa(item.Quantity) +
			" = ₹" + number(item.Subtotal())
	}

	customer := o.CustomerName
	if customer == "" {
		customer = "Guest"
	}
	return []string{
		o.ID,
		customer,
		o.TableNumber,
		strings.Join(names, ", "),
		strings.Join(details, " | "),
		utils.FormatAmount(o.TotalAmount),
		o.Status.Title(),
		formatDateTime(&o.CreatedAt, loc),
		formatDateTime(o.ConfirmedAt, loc),
		formatDateTime(o.ReadyAt, loc),
	}
}

// number prints a price without trailing zeros: 100, 12.5.
func number(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func formatDateTime(t *time.Time, loc *time.Location) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	if loc != nil {
		return t.In(loc).Format(dateTimeLayout)
	}
	return t.Format(dateTimeLayout)
}

// FileName is the CSV download name for w, e.g. YummyFi_Orders_10-04-2026.csv.
func FileName(w cycle.Window) string {
	return "YummyFi_Orders_" + w.Label() + ".csv"
}

// SheetName is the tab the Sheets relay writes w into.
func SheetName(w cycle.Window) string {
	return "Orders_" + w.Label()
}
