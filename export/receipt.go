package export

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/yummyfi/yummyfi-backend/models"
	"github.com/yummyfi/yummyfi-backend/utils"
)

type PaymentMethod string

var ErrUnknownPaymentMethod = errors.New("unknown payment method")

const (
	PaymentUPI  PaymentMethod = "UPI"
	PaymentCash PaymentMethod = "Cash"
	PaymentCard PaymentMethod = "Card"
)

// ParsePaymentMethod accepts any letter case and defaults to cash.
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "cash":
		return PaymentCash, nil
	case "upi":
		return PaymentUPI, nil
	case "card":
		return PaymentCard, nil
	}
	return "", fmt.Errorf("%w %q", ErrUnknownPaymentMethod, s)
}

// Thermal printer layout: 38 characters per line.
const (
	receiptWidth = 38
	colItem      = 14
	colQty       = 3
	colRate      = 9
	colAmount    = 10
)

// ReceiptOptions are the details the cashier adds at print time.
type ReceiptOptions struct {
	Method   PaymentMethod
	Phone    string
	Location *time.Location
}

func printPrice(v float64) string {
	return "Rs." + utils.FormatAmount(v)
}

// tableLabel prefixes bare table numbers with T. Some tables are already
// stored as "T4".
func tableLabel(table string) string {
	if strings.HasPrefix(strings.ToUpper(table), "T") {
		return table
	}
	return "T" + table
}

func center(text string) string {
	pad := (receiptWidth - len(text)) / 2
	if pad < 0 {
		pad = 0
	}
	return strings.Repeat(" ", pad) + text
}

func leftRight(left, right string) string {
	spaces := receiptWidth - len(left) - len(right)
	if spaces < 1 {
		spaces = 1
	}
	return left + strings.Repeat(" ", spaces) + right
}

func receiptRow(item, qty, rate, amount string) string {
	return fmt.Sprintf("%-*s%*s %*s %*s", colItem, item, colQty, qty, colRate, rate, colAmount, amount)
}

// wrapWords breaks text into lines of at most width characters at spaces.
// A single word longer than width stays whole on its own line.
func wrapWords(text string, width int) []string {
	var lines []string
	current := ""
	for _, word := range strings.Fields(text) {
		next := strings.TrimSpace(current + " " + word)
		if len(next) <= width {
			current = next
			continue
		}
		if current != "" {
			lines = append(lines, current)
		}
		current = word
	}
	if current != "" {
		lines = append(lines, current)
	}
	if len(lines) == 0 {
		if len(text) > width {
			text = text[:width]
		}
		return []string{text}
	}
	return lines
}

// ReceiptLines lays the bill out for a 38-column thermal printer.
func ReceiptLines(o *models.Order, opts ReceiptOptions) []string {
	divider := strings.Repeat("-", receiptWidth)
	double := strings.Repeat("=", receiptWidth)

	created := o.CreatedAt
	if opts.Location != nil {
		created = created.In(opts.Location)
	}
	method := opts.Method
	if method == "" {
		method = PaymentCash
	}
	dash := func(s string) string {
		if s == "" {
			return "-"
		}
		return s
	}

	lines := []string{
		center("YUMMY-FI PVT.LMT"),
		center("FOOD LIKE HOME STYLE"),
		divider,
		center("DINE-IN BILL"),
		divider,
		leftRight("BILL NO:", o.BillNumber()),
		leftRight("TABLE:", tableLabel(o.TableNumber)),
		leftRight("DATE:", created.Format("02/01/2006, 15:04")),
		leftRight("CUSTOMER:", dash(o.CustomerName)),
		leftRight("PHONE:", dash(opts.Phone)),
		divider,
		receiptRow("ITEM", "QTY", "RATE", "AMOUNT"),
		divider,
	}

	for _, item := range o.Items {
		name := item.Name
		if !item.IsVeg {
			name += " [N]"
		}
		wrapped := wrapWords(name, colItem)
		lines = append(lines, receiptRow(wrapped[0], fmt.Sprint(item.Quantity), printPrice(item.UnitPrice), printPrice(item.Subtotal())))
		lines = append(lines, wrapped[1:]...)
	}

	lines = append(lines,
		divider,
		leftRight("SUBTOTAL:", printPrice(o.TotalAmount)),
		double,
		leftRight("GRAND TOTAL:", printPrice(o.TotalAmount)),
		double,
		center("PAYMENT DETAILS"),
		divider,
		leftRight("METHOD:", string(method)),
		leftRight("PAID:", printPrice(o.TotalAmount)),
		divider,
		center("* THANK YOU FOR DINING WITH US! *"),
		center("PLEASE VISIT AGAIN"),
	)
	return lines
}

// ReceiptText is the receipt as printable text, one line per row.
func ReceiptText(o *models.Order, opts ReceiptOptions) string {
	return strings.Join(ReceiptLines(o, opts), "\n") + "\n"
}

// ReceiptPDF renders the same layout on 80 mm roll paper.
func ReceiptPDF(w io.Writer, o *models.Order, opts ReceiptOptions) error {
	lines := ReceiptLines(o, opts)
	const lineHeight = 4.0
	height := float64(len(lines))*lineHeight + 20

	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "mm",
		Size:           fpdf.SizeType{Wd: 80, Ht: height},
	})
	pdf.SetMargins(4, 6, 4)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetTitle("Bill - "+o.BillNumber(), false)
	pdf.AddPage()
	pdf.SetFont("Courier", "B", 8.5)

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	for _, line := range lines {
		pdf.CellFormat(0, lineHeight, tr(line), "", 1, "L", false, 0, "")
	}
	return pdf.Output(w)
}
