package delivery

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/wolfman30/visitplus-leads/internal/leads"
)

// SheetsAppender appends each lead as a row through the Sheets v4 API.
type SheetsAppender struct {
	svc           *sheets.Service
	spreadsheetID string
	writeRange    string
}

// NewSheetsAppender builds the Sheets client. Callers pass credentials via
// opts (option.WithCredentialsFile in production).
func NewSheetsAppender(ctx context.Context, spreadsheetID, writeRange string, opts ...option.ClientOption) (*SheetsAppender, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("delivery: spreadsheet id required")
	}
	if writeRange == "" {
		writeRange = "Leads!A1"
	}
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("delivery: create sheets service: %w", err)
	}
	return &SheetsAppender{svc: svc, spreadsheetID: spreadsheetID, writeRange: writeRange}, nil
}

func (s *SheetsAppender) Name() string { return NameSheetsAPI }

// Deliver appends one row and returns the updated range.
func (s *SheetsAppender) Deliver(ctx context.Context, sub *leads.Submission) (string, error) {
	resp, err := s.svc.Spreadsheets.Values.
		Append(s.spreadsheetID, s.writeRange, &sheets.ValueRange{Values: [][]interface{}{sheetRow(sub)}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return "", fmt.Errorf("delivery: sheets append: %w", err)
	}
	if resp.Updates == nil {
		return "", nil
	}
	return resp.Updates.UpdatedRange, nil
}

func sheetRow(sub *leads.Submission) []interface{} {
	attr := sub.Attribution.WithDefaults()
	return []interface{}{
		sub.SubmittedAt.UTC().Format(time.RFC3339),
		sub.ID,
		string(sub.Variant),
		sub.Name,
		sub.Email,
		sub.Phone,
		sub.Category,
		sub.Area,
		strconv.Itoa(len(sub.Attachments)),
		attr.Source,
		attr.Medium,
		attr.Campaign,
	}
}
