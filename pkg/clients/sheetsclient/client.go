package sheetsclient

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/jakechorley/tamilschool-volunteers/internal/config"
	"github.com/jakechorley/tamilschool-volunteers/pkg/utils"
)

// Client wraps the Google Sheets API client
type Client struct {
	service *sheets.Service
}

// NewClient creates a new Sheets client, running the OAuth flow if no stored token is usable.
// Tokens are persisted to disk for the given environment and shared with the Gmail client.
func NewClient(ctx context.Context, oauthCfg *config.OAuthClientConfig, env string) (*Client, error) {
	oauthConfig, err := utils.GetOAuthConfig(oauthCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth config: %w", err)
	}

	token, err := utils.GetTokenWithFlow(ctx, oauthConfig, env)
	if err != nil {
		return nil, fmt.Errorf("failed to get oauth token: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(oauthConfig.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets service: %w", err)
	}

	return &Client{service: service}, nil
}

// PublishTable writes rows (header first) to a new tab named title and returns the tab's sheet id
func (c *Client) PublishTable(spreadsheetID, title string, rows [][]string) (int64, error) {
	sheetID, err := c.createSheet(spreadsheetID, title)
	if err != nil {
		return 0, err
	}

	if len(rows) == 0 {
		return sheetID, nil
	}

	valueRange := &sheets.ValueRange{Values: toValues(rows)}
	_, err = c.service.Spreadsheets.Values.Update(spreadsheetID, fmt.Sprintf("'%s'!A1", title), valueRange).
		ValueInputOption("RAW").
		Do()
	if err != nil {
		return 0, fmt.Errorf("failed to write rows to %q: %w", title, err)
	}

	return sheetID, nil
}

func (c *Client) createSheet(spreadsheetID, title string) (int64, error) {
	req := &sheets.BatchUpdateSpreadsheetRequest{
		Requests: []*sheets.Request{{
			AddSheet: &sheets.AddSheetRequest{
				Properties: &sheets.SheetProperties{Title: title},
			},
		}},
	}

	resp, err := c.service.Spreadsheets.BatchUpdate(spreadsheetID, req).Do()
	if err != nil {
		return 0, fmt.Errorf("failed to create sheet %q: %w", title, err)
	}

	if len(resp.Replies) == 0 || resp.Replies[0].AddSheet == nil {
		return 0, fmt.Errorf("unexpected response from create sheet")
	}

	return resp.Replies[0].AddSheet.Properties.SheetId, nil
}

func toValues(rows [][]string) [][]interface{} {
	values := make([][]interface{}, len(rows))
	for i, row := range rows {
		values[i] = make([]interface{}, len(row))
		for j, cell := range row {
			values[i][j] = cell
		}
	}
	return values
}
