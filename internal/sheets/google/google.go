// Package google exports monthly reports to a Google Spreadsheet, one
// year-prefixed tab per owner.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"bilancio/internal/config"
	"bilancio/internal/core"
	ports "bilancio/internal/sheets"
)

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	now           func() time.Time
}

var _ ports.ReportWriter = (*Client)(nil)

// NewClient creates a Sheets client from the configured OAuth client
// credentials and the stored user token. Inline JSON takes precedence
// over file paths.
func NewClient(ctx context.Context, cfg *config.Config) (*Client, error) {
	if cfg.GoogleSpreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	oauthCfg, err := loadOAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	token, err := loadToken(cfg)
	if err != nil {
		return nil, err
	}

	// The oauth2 client refreshes the access token as it expires.
	svc, err := gsheet.NewService(ctx,
		goption.WithHTTPClient(oauthCfg.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	slog.InfoContext(ctx, "Google Sheets service created",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	return &Client{
		svc:           svc,
		spreadsheetID: cfg.GoogleSpreadsheetID,
		now:           time.Now,
	}, nil
}

func loadOAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	raw, err := readCredential(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile,
		"set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE")
	if err != nil {
		return nil, err
	}
	oauthCfg, err := goauth.ConfigFromJSON(raw, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse OAuth client credentials: %w", err)
	}
	return oauthCfg, nil
}

func loadToken(cfg *config.Config) (*oauth2.Token, error) {
	raw, err := readCredential(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile,
		"set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE")
	if err != nil {
		return nil, err
	}
	var token oauth2.Token
	if err := json.Unmarshal(raw, &token); err != nil {
		return nil, fmt.Errorf("parse OAuth token: %w", err)
	}
	return &token, nil
}

func readCredential(inline, file, hint string) ([]byte, error) {
	if raw := strings.TrimSpace(inline); raw != "" {
		return []byte(raw), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read credentials file: %w", err)
		}
		return data, nil
	}
	return nil, errors.New("missing Google credentials (" + hint + ")")
}

// WriteMonthlyReport clears and rewrites the owner's report tab with one
// row per month.
func (c *Client) WriteMonthlyReport(ctx context.Context, ownerID int64, trends []core.MonthlyTrend) error {
	sheetName := c.reportSheetName(ownerID)

	clearRange := fmt.Sprintf("%s!A:E", sheetName)
	_, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("clear sheet %s: %w", sheetName, err)
	}

	values := [][]any{{"Month", "Year", "Income", "Expense", "Balance"}}
	for _, trend := range trends {
		values = append(values, []any{
			trend.Month,
			trend.Year,
			trend.TotalIncome.Float64(),
			trend.TotalExpense.Float64(),
			trend.NetBalance.Float64(),
		})
	}

	dataRange := fmt.Sprintf("%s!A1:E%d", sheetName, len(values))
	vr := &gsheet.ValueRange{Values: values}
	_, err = c.svc.Spreadsheets.Values.Update(c.spreadsheetID, dataRange, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("update sheet %s: %w", sheetName, err)
	}

	slog.InfoContext(ctx, "Monthly report exported",
		"owner_id", ownerID,
		"sheet", sheetName,
		"rows", len(values)-1)

	return nil
}

// reportSheetName yields tab names like "2024 Report u7".
func (c *Client) reportSheetName(ownerID int64) string {
	return fmt.Sprintf("%d Report u%d", c.now().Year(), ownerID)
}
