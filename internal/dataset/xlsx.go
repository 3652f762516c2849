package dataset

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/hyperifyio/readinglist/internal/record"
)

// SheetName is the worksheet holding the table in .xlsx output.
const SheetName = "Readings"

// WriteXLSX writes records to a single-sheet workbook at path.
func WriteXLSX(path string, records []*record.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return fmt.Errorf("xlsx sheet: %w", err)
	}
	for i, h := range Columns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(SheetName, cell, h); err != nil {
			return fmt.Errorf("xlsx header: %w", err)
		}
	}
	for n, r := range records {
		row := n + 2
		for i, v := range fields(r) {
			cell, _ := excelize.CoordinatesToCellName(i+1, row)
			var val any = v
			if i == 0 {
				val = r.Index
			}
			if err := f.SetCellValue(SheetName, cell, val); err != nil {
				return fmt.Errorf("xlsx row %d: %w", row, err)
			}
		}
	}

	_ = f.SetColWidth(SheetName, "C", "C", 60) // raw_content
	_ = f.SetColWidth(SheetName, "D", "D", 40) // url
	_ = f.SetColWidth(SheetName, "G", "G", 40) // title

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
