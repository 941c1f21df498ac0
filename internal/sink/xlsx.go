package sink

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"sync"

	"github.com/dgallion1/cvparse/internal/extract"
	"github.com/xuri/excelize/v2"
)

const xlsxSheet = "Applicants"

// XLSXSink appends applicant rows to a local workbook. The file is
// created with a header row on first use.
type XLSXSink struct {
	mu   sync.Mutex
	path string
	log  *slog.Logger
}

func NewXLSXSink(path string, log *slog.Logger) *XLSXSink {
	return &XLSXSink{path: path, log: log.With("component", "xlsx")}
}

func (s *XLSXSink) Append(ctx context.Context, rec extract.Record) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, sheet, err := s.open()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(sheet)
	if err != nil {
		return fmt.Errorf("xlsx read rows: %w", err)
	}

	var header []string
	if len(rows) > 0 {
		header = rows[0]
	}
	values := RowForHeader(rec, header)

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("xlsx cell name: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("xlsx write row: %w", err)
	}
	if err := f.SaveAs(s.path); err != nil {
		return fmt.Errorf("xlsx save: %w", err)
	}

	s.log.Debug("row appended", "path", s.path, "row", len(rows)+1)
	return nil
}

// open returns the workbook and the sheet rows are appended to. A missing
// workbook is created with the header row.
func (s *XLSXSink) open() (*excelize.File, string, error) {
	f, err := excelize.OpenFile(s.path)
	if err == nil {
		return f, f.GetSheetName(0), nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, "", fmt.Errorf("xlsx open %s: %w", s.path, err)
	}

	f = excelize.NewFile()
	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("xlsx rename sheet: %w", err)
	}
	header := append([]string(nil), Columns...)
	if err := f.SetSheetRow(xlsxSheet, "A1", &header); err != nil {
		f.Close()
		return nil, "", fmt.Errorf("xlsx write header: %w", err)
	}
	return f, xlsxSheet, nil
}
