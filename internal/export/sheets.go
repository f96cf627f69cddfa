package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"regexp"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"pdfocr/internal/logger"
	"pdfocr/pkg/models"
)

// DefaultSheetName is the tab batch results are appended to.
const DefaultSheetName = "OCR"

// ErrInvalidSheetURL is returned for URLs without a spreadsheet ID.
var ErrInvalidSheetURL = errors.New("invalid Google Sheets URL format")

var spreadsheetIDPattern = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)

var sheetHeaders = []interface{}{"File", "Path", "Status", "Error", "Characters", "Preview", "Processed"}

// sheetColumns is the A1 column span of sheetHeaders.
const sheetColumns = "A:G"

// previewLength is how many characters of the text land in the Preview column.
const previewLength = 200

// SheetsWriter appends batch results to a Google Sheet, one row per file.
type SheetsWriter struct {
	service       *sheets.Service
	spreadsheetID string
	log           zerolog.Logger
}

// NewSheetsWriter connects to the spreadsheet at sheetURL using the service
// account in GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS.
func NewSheetsWriter(ctx context.Context, sheetURL string) (*SheetsWriter, error) {
	const op = "NewSheetsWriter"

	spreadsheetID, err := SpreadsheetID(sheetURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var creds []byte
	if credsFile := os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"); credsFile != "" {
		creds, err = os.ReadFile(credsFile)
		if err != nil {
			return nil, fmt.Errorf("%s: failed to read credentials file: %w", op, err)
		}
	} else if credsJSON := os.Getenv("GOOGLE_CREDENTIALS"); credsJSON != "" {
		creds = []byte(credsJSON)
	} else {
		return nil, fmt.Errorf("%s: neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is set", op)
	}

	jwt, err := google.JWTConfigFromJSON(creds, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse credentials: %w", op, err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(jwt.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("%s: failed to create sheets service: %w", op, err)
	}

	return &SheetsWriter{
		service:       service,
		spreadsheetID: spreadsheetID,
		log:           logger.WithComponent("sheets"),
	}, nil
}

// SpreadsheetID extracts the spreadsheet ID from a Google Sheets URL.
func SpreadsheetID(url string) (string, error) {
	matches := spreadsheetIDPattern.FindStringSubmatch(url)
	if len(matches) < 2 {
		return "", ErrInvalidSheetURL
	}
	return matches[1], nil
}

// WriteBatch appends one row per item to sheetName, creating the tab and its
// header row when missing.
func (w *SheetsWriter) WriteBatch(ctx context.Context, items []models.BatchItem, sheetName string) error {
	const op = "WriteBatch"

	if sheetName == "" {
		sheetName = DefaultSheetName
	}

	w.log.Info().
		Str("sheet", sheetName).
		Int("rows", len(items)).
		Msg("Writing batch results to Google Sheet")

	if err := w.ensureSheet(ctx, sheetName); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	values := SheetRows(items, time.Now())
	_, err := w.service.Spreadsheets.Values.Append(
		w.spreadsheetID,
		sheetName+"!"+sheetColumns,
		&sheets.ValueRange{Values: values},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("%s: failed to append values to sheet: %w", op, err)
	}

	w.log.Info().
		Int("rows_written", len(values)).
		Msg("Wrote batch results to Google Sheet")
	return nil
}

// SheetRows converts items to sheet rows in the column order of the header.
func SheetRows(items []models.BatchItem, processedAt time.Time) [][]interface{} {
	stamp := processedAt.Format("2006-01-02 15:04:05")
	rows := make([][]interface{}, 0, len(items))
	for _, item := range items {
		status := "success"
		if !item.Success {
			status = "error"
		}
		rows = append(rows, []interface{}{
			item.FileName,
			item.FilePath,
			status,
			item.Error,
			utf8.RuneCountInString(item.Text),
			preview(item.Text),
			stamp,
		})
	}
	return rows
}

func preview(text string) string {
	if utf8.RuneCountInString(text) <= previewLength {
		return text
	}
	return string([]rune(text)[:previewLength]) + "…"
}

func (w *SheetsWriter) ensureSheet(ctx context.Context, sheetName string) error {
	spreadsheet, err := w.service.Spreadsheets.Get(w.spreadsheetID).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get spreadsheet: %w", err)
	}

	exists := false
	for _, sheet := range spreadsheet.Sheets {
		if sheet.Properties != nil && sheet.Properties.Title == sheetName {
			exists = true
			break
		}
	}

	if !exists {
		w.log.Info().Str("sheet", sheetName).Msg("Creating new sheet")
		req := &sheets.BatchUpdateSpreadsheetRequest{
			Requests: []*sheets.Request{
				{AddSheet: &sheets.AddSheetRequest{Properties: &sheets.SheetProperties{Title: sheetName}}},
			},
		}
		if _, err := w.service.Spreadsheets.BatchUpdate(w.spreadsheetID, req).Context(ctx).Do(); err != nil {
			return fmt.Errorf("failed to create sheet: %w", err)
		}
	}

	headerRange := sheetName + "!A1:G1"
	resp, err := w.service.Spreadsheets.Values.Get(w.spreadsheetID, headerRange).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to get headers: %w", err)
	}
	if len(resp.Values) > 0 && len(resp.Values[0]) > 0 {
		return nil
	}

	w.log.Info().Str("sheet", sheetName).Msg("Adding headers to sheet")
	_, err = w.service.Spreadsheets.Values.Update(
		w.spreadsheetID,
		headerRange,
		&sheets.ValueRange{Values: [][]interface{}{sheetHeaders}},
	).ValueInputOption("RAW").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to add headers: %w", err)
	}
	return nil
}
