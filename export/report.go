package export

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/wcharczuk/go-chart/v2"

	"github.com/yummyfi/yummyfi-backend/lifecycle"
	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/utils"
)

// StatusChartPNG draws the per-status order counts of s as a bar chart. It
// returns nil when there is nothing to draw.
func StatusChartPNG(s lifecycle.Summary) ([]byte, error) {
	bars := make([]chart.Value, 0, len(models.AllStatuses))
	maxCount := 0
	for _, st := range models.AllStatuses {
		n := s.ByStatus[st]
		if n > maxCount {
			maxCount = n
		}
		bars = append(bars, chart.Value{Value: float64(n), Label: st.Title()})
	}
	if maxCount == 0 {
		return nil, nil
	}

	graph := chart.BarChart{
		Title:    "Orders by status",
		Width:    720,
		Height:   360,
		BarWidth: 80,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 10, Bottom: 10},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: 0, Max: float64(maxCount)},
		},
		Bars: bars,
	}
	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render status chart: %w", err)
	}
	return buf.Bytes(), nil
}

// DailyReportPDF writes the day report for the business day in s: the
// summary figures, a status chart and a table of orders.
func DailyReportPDF(w io.Writer, s lifecycle.Summary, orders []models.Order, loc *time.Location) error {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("YummyFi daily report "+s.Window.Label(), false)
	pdf.AddPage()

	start, end := s.Window.Start, s.Window.End
	if loc != nil {
		start, end = start.In(loc), end.In(loc)
	}

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 10, "YummyFi - Daily Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 7, fmt.Sprintf("Business day %s to %s",
		start.Format("02/01/2006 15:04"), end.Format("02/01/2006 15:04")), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	summaryLine := func(label, value string) {
		pdf.SetFont("Helvetica", "", 11)
		pdf.CellFormat(60, 7, label, "B", 0, "L", false, 0, "")
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(50, 7, value, "B", 1, "R", false, 0, "")
	}
	summaryLine("Total orders", fmt.Sprint(s.TotalOrders))
	for _, st := range models.AllStatuses {
		summaryLine(st.Title(), fmt.Sprint(s.ByStatus[st]))
	}
	summaryLine("Revenue (completed)", "Rs."+utils.FormatAmount(s.TotalRevenue))
	pdf.Ln(4)

	png, err := StatusChartPNG(s)
	if err != nil {
		return err
	}
	if png != nil {
		opts := fpdf.ImageOptions{ImageType: "PNG", ReadDpi: false}
		pdf.RegisterImageOptionsReader("status-chart", opts, bytes.NewReader(png))
		pdf.ImageOptions("status-chart", pdf.GetX(), pdf.GetY(), 170, 0, true, opts, 0, "")
		pdf.Ln(4)
	}

	widths := []float64{28, 40, 16, 22, 26, 28}
	header := []string{"Bill", "Customer", "Table", "Status", "Total (Rs.)", "Ordered"}
	pdf.SetFont("Helvetica", "B", 10)
	pdf.SetFillColor(240, 240, 240)
	for i, h := range header {
		pdf.CellFormat(widths[i], 7, h, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 9)
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for i := range orders {
		o := &orders[i]
		created := o.CreatedAt
		if loc != nil {
			created = created.In(loc)
		}
		cells := []string{
			o.BillNumber(),
			tr(truncate(o.CustomerName, 22)),
			tr(o.TableNumber),
			o.Status.Title(),
			utils.FormatAmount(o.TotalAmount),
			created.Format("15:04"),
		}
		for j, cell := range cells {
			align := "L"
			if j == 4 {
				align = "R"
			}
			pdf.CellFormat(widths[j], 6, cell, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}
	if len(orders) == 0 {
		pdf.CellFormat(0, 7, "No orders in this business day.", "", 1, "C", false, 0, "")
	}

	return pdf.Output(w)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "."
}
