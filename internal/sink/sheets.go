package sink

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dgallion1/cvparse/internal/extract"
	"golang.org/x/oauth2/google"
	"golang.org/x/oauth2/jwt"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// sheetsBurst is the token bucket size for outbound Sheets calls.
const sheetsBurst = 5

// NewSheetsService authenticates as a Google service account and returns
// a Sheets API client.
func NewSheetsService(ctx context.Context, clientEmail, privateKey string) (*sheets.Service, error) {
	conf := &jwt.Config{
		Email:      clientEmail,
		PrivateKey: []byte(privateKey),
		Scopes:     []string{sheets.SpreadsheetsScope},
		TokenURL:   google.JWTTokenURL,
	}
	svc, err := sheets.NewService(ctx, option.WithTokenSource(conf.TokenSource(ctx)))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return svc, nil
}

// SheetsSink appends applicant rows to the first worksheet of a
// spreadsheet. It gives no ordering guarantee across concurrent writers.
type SheetsSink struct {
	svc           *sheets.Service
	spreadsheetID string
	limiter       *rate.Limiter
	log           *slog.Logger
}

func NewSheetsSink(svc *sheets.Service, spreadsheetID string, ratePerSec float64, log *slog.Logger) *SheetsSink {
	return &SheetsSink{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		limiter:       rate.NewLimiter(rate.Limit(ratePerSec), sheetsBurst),
		log:           log.With("component", "sheets"),
	}
}

func (s *SheetsSink) Append(ctx context.Context, rec extract.Record) error {
	title, err := s.firstSheetTitle(ctx)
	if err != nil {
		return err
	}

	header, err := s.headerRow(ctx, title)
	if err != nil {
		return err
	}

	row := RowForHeader(rec, header)
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err = s.svc.Spreadsheets.Values.Append(s.spreadsheetID, quoteSheet(title), &sheets.ValueRange{
		Values: [][]interface{}{cells},
	}).ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
	if err != nil {
		return describe("append row", err)
	}

	s.log.Debug("row appended", "sheet", title, "columns", len(cells))
	return nil
}

func (s *SheetsSink) firstSheetTitle(ctx context.Context) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", err
	}
	ss, err := s.svc.Spreadsheets.Get(s.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return "", describe("get spreadsheet", err)
	}
	if len(ss.Sheets) == 0 || ss.Sheets[0].Properties == nil {
		return "", fmt.Errorf("spreadsheet %s has no worksheets", s.spreadsheetID)
	}
	return ss.Sheets[0].Properties.Title, nil
}

func (s *SheetsSink) headerRow(ctx context.Context, title string) ([]string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	vr, err := s.svc.Spreadsheets.Values.Get(s.spreadsheetID, quoteSheet(title)+"!1:1").Context(ctx).Do()
	if err != nil {
		return nil, describe("read header row", err)
	}
	if len(vr.Values) == 0 {
		return nil, nil
	}
	header := make([]string, len(vr.Values[0]))
	for i, v := range vr.Values[0] {
		header[i] = fmt.Sprint(v)
	}
	return header, nil
}

// quoteSheet quotes a worksheet title for use in A1 notation.
func quoteSheet(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

// describe turns a Google API error into a readable message, keeping the
// original error in the chain.
func describe(op string, err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		msg := gerr.Message
		if msg == "" {
			msg = strings.TrimSpace(gerr.Body)
		}
		return fmt.Errorf("sheets %s: status %d: %s: %w", op, gerr.Code, msg, err)
	}
	return fmt.Errorf("sheets %s: %w", op, err)
}
