// Package audit exports the clinic's primary-store tables to an Excel
// workbook, one sheet per table.
package audit

import (
	"context"
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// TableSource provides table contents for export.
type TableSource interface {
	GetTableData(ctx context.Context, tableName string) (data []map[string]interface{}, columns []string, err error)
}

// Exporter writes workbook exports from a TableSource.
type Exporter struct {
	source TableSource
	tables []string
}

// NewExporter builds an exporter over the given tables.
func NewExporter(source TableSource, tables []string) *Exporter {
	return &Exporter{source: source, tables: tables}
}

// Export writes one sheet per table to w as an .xlsx workbook.
func (e *Exporter) Export(ctx context.Context, w io.Writer) error {
	file := excelize.NewFile()
	defer file.Close()

	for i, table := range e.tables {
		data, columns, err := e.source.GetTableData(ctx, table)
		if err != nil {
			return fmt.Errorf("load table %s: %w", table, err)
		}
		if err := writeSheet(file, i, table, columns, data); err != nil {
			return fmt.Errorf("write sheet %s: %w", table, err)
		}
	}

	if err := file.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeSheet(file *excelize.File, index int, name string, columns []string, data []map[string]interface{}) error {
	// Excel limits sheet names to 31 chars.
	if len(name) > 31 {
		name = name[:31]
	}

	if index == 0 {
		file.SetSheetName("Sheet1", name)
	} else {
		if _, err := file.NewSheet(name); err != nil {
			return err
		}
	}

	for col, header := range columns {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(name, cell, header); err != nil {
			return err
		}
	}

	style, err := file.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err == nil {
		startCell, _ := excelize.CoordinatesToCellName(1, 1)
		endCell, _ := excelize.CoordinatesToCellName(len(columns), 1)
		_ = file.SetCellStyle(name, startCell, endCell, style)
	}

	for rowIdx, row := range data {
		for col, header := range columns {
			cell, err := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(name, cell, row[header]); err != nil {
				return err
			}
		}
	}
	return nil
}
