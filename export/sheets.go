package export

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/yummyfi/yummyfi-backend/cycle"
	"github.com/yummyfi/yummyfi-backend/models"
)

var ErrSheetsNotConfigured = errors.New("Google Sheets Web App URL not configured")

// sheetsRequest is the body the Apps Script web app expects.
type sheetsRequest struct {
	Action        string     `json:"action"`
	SheetName     string     `json:"sheetName"`
	Data          [][]string `json:"data"`
	ClearPrevious bool       `json:"clearPrevious"`
}

// SheetsResult reports a finished relay.
type SheetsResult struct {
	Message   string `json:"message"`
	SheetName string `json:"sheet_name"`
	Rows      int    `json:"rows"`
	SheetURL  string `json:"sheet_url,omitempty"`
}

// SheetsClient relays a day's orders to a Google Apps Script web app, which
// replaces the named tab with the posted rows.
type SheetsClient struct {
	WebAppURL string
	// SheetURL is only echoed back so the dashboard can link to the sheet.
	SheetURL string
	HTTP     *http.Client
	Location *time.Location
	Log      logrus.FieldLogger
}

func NewSheetsClient(webAppURL, sheetURL string, loc *time.Location, log logrus.FieldLogger) *SheetsClient {
	return &SheetsClient{
		WebAppURL: webAppURL,
		SheetURL:  sheetURL,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		Location:  loc,
		Log:       log,
	}
}

func (c *SheetsClient) Configured() bool {
	return c != nil && c.WebAppURL != ""
}

// Export posts the orders of w. Callers pass orders already limited to w.
func (c *SheetsClient) Export(ctx context.Context, orders []models.Order, w cycle.Window) (SheetsResult, error) {
	if !c.Configured() {
		return SheetsResult{}, ErrSheetsNotConfigured
	}

	rows := Rows(orders, c.Location)
	body, err := json.Marshal(sheetsRequest{
		Action:        "writeOrders",
		SheetName:     SheetName(w),
		Data:          rows,
		ClearPrevious: true,
	})
	if err != nil {
		return SheetsResult{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebAppURL, bytes.NewReader(body))
	if err != nil {
		return SheetsResult{}, fmt.Errorf("failed to export: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return SheetsResult{}, fmt.Errorf("failed to export: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return SheetsResult{}, fmt.Errorf("failed to export: sheets web app answered %s", resp.Status)
	}

	if c.Log != nil {
		c.Log.WithFields(logrus.Fields{
			"sheet":  SheetName(w),
			"orders": len(orders),
		}).Info("Orders sent to Google Sheets")
	}
	return SheetsResult{
		Message:   "Data sent to Google Sheets successfully! Check your sheet for updates.",
		SheetName: SheetName(w),
		Rows:      len(rows),
		SheetURL:  c.SheetURL,
	}, nil
}
