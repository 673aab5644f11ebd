// Package export writes dashboard tables as spreadsheets.
package export

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/xuri/excelize/v2"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

	maxSheetName = 31
	defaultSheet = "Sheet1"
)

// DataSource is a single table: a header row plus data rows.
type DataSource interface {
	SheetName() string
	Headers() []string
	Rows(ctx context.Context) ([][]any, error)
}

type Options struct {
	BoldHeaders bool
	FreezeTop   bool
	ColumnWidth float64
}

func DefaultOptions() Options {
	return Options{BoldHeaders: true, FreezeTop: true, ColumnWidth: 22}
}

type Exporter struct {
	opts Options
}

func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Export renders ds into an xlsx workbook with a single sheet.
func (e *Exporter) Export(ctx context.Context, ds DataSource) ([]byte, error) {
	rows, err := ds.Rows(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "load rows")
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()

	sheet := sheetName(ds.SheetName())
	if sheet != defaultSheet {
		if err := f.SetSheetName(defaultSheet, sheet); err != nil {
			return nil, errors.Wrap(err, "rename sheet")
		}
	}

	headers := ds.Headers()
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, errors.Wrap(err, "write header")
		}
	}
	for r, row := range rows {
		for col, v := range row {
			cell, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return nil, err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return nil, errors.Wrap(err, "write cell")
			}
		}
	}

	if len(headers) > 0 {
		if err := e.decorate(f, sheet, len(headers)); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, errors.Wrap(err, "write workbook")
	}
	return buf.Bytes(), nil
}

func (e *Exporter) decorate(f *excelize.File, sheet string, columns int) error {
	last, err := excelize.ColumnNumberToName(columns)
	if err != nil {
		return err
	}
	if e.opts.BoldHeaders {
		style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
		if err != nil {
			return errors.Wrap(err, "header style")
		}
		if err := f.SetCellStyle(sheet, "A1", last+"1", style); err != nil {
			return errors.Wrap(err, "apply header style")
		}
	}
	if e.opts.ColumnWidth > 0 {
		if err := f.SetColWidth(sheet, "A", last, e.opts.ColumnWidth); err != nil {
			return errors.Wrap(err, "column width")
		}
	}
	if e.opts.FreezeTop {
		if err := f.SetPanes(sheet, &excelize.Panes{
			Freeze:      true,
			YSplit:      1,
			TopLeftCell: "A2",
			ActivePane:  "bottomLeft",
		}); err != nil {
			return errors.Wrap(err, "freeze header")
		}
	}
	return nil
}

func sheetName(name string) string {
	if name == "" {
		return defaultSheet
	}
	r := []rune(name)
	if len(r) > maxSheetName {
		r = r[:maxSheetName]
	}
	return string(r)
}
