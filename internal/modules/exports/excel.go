package exports

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"
)

// RenderExcel renders the document as an xlsx workbook, one sheet per
// section. Each sheet repeats the title and date header so a printed sheet
// stands on its own.
func RenderExcel(doc Doc) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 10},
		Fill:      excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F4F4F4"}},
		Alignment: &excelize.Alignment{Horizontal: "center"},
		Border:    boxBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build header style: %w", err)
	}
	subtotalStyle, err := f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true, Size: 10},
		Fill:   excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"FFF3CD"}},
		Border: boxBorder(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build subtotal style: %w", err)
	}

	for i, section := range doc.Sections {
		sheet := uniqueSheetName(f, section.SheetName, i)
		if i == 0 {
			f.SetSheetName(f.GetSheetName(0), sheet)
		} else if _, err := f.NewSheet(sheet); err != nil {
			return nil, fmt.Errorf("failed to create sheet %q: %w", sheet, err)
		}
		if err := writeSheet(f, sheet, doc, section, headerStyle, subtotalStyle); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, fmt.Errorf("failed to render workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, doc Doc, s Section, headerStyle, subtotalStyle int) error {
	set := func(row, col int, v any) error {
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err != nil {
			return err
		}
		return f.SetCellValue(sheet, cell, v)
	}

	if err := set(1, 1, doc.Title); err != nil {
		return err
	}
	if err := set(2, 1, doc.DateLine); err != nil {
		return err
	}
	if err := set(3, 1, s.Heading); err != nil {
		return err
	}

	const headerRow = 5
	for c, col := range s.Columns {
		if err := set(headerRow, c+1, col); err != nil {
			return err
		}
	}
	start, _ := excelize.CoordinatesToCellName(1, headerRow)
	end, _ := excelize.CoordinatesToCellName(len(s.Columns), headerRow)
	if err := f.SetCellStyle(sheet, start, end, headerStyle); err != nil {
		return err
	}

	for r, row := range s.Rows {
		for c, v := range row {
			if err := set(headerRow+1+r, c+1, v); err != nil {
				return err
			}
		}
	}

	subRow := headerRow + 1 + len(s.Rows)
	for c, v := range s.Subtotal {
		if err := set(subRow, c+1, v); err != nil {
			return err
		}
	}
	start, _ = excelize.CoordinatesToCellName(1, subRow)
	end, _ = excelize.CoordinatesToCellName(len(s.Subtotal), subRow)
	if err := f.SetCellStyle(sheet, start, end, subtotalStyle); err != nil {
		return err
	}

	if err := f.SetColWidth(sheet, "A", "A", 6); err != nil {
		return err
	}
	if err := f.SetColWidth(sheet, "B", "C", 18); err != nil {
		return err
	}
	last, _ := excelize.ColumnNumberToName(len(s.Columns))
	if err := f.SetColWidth(sheet, "D", last, 11); err != nil {
		return err
	}
	if s.Columns[len(s.Columns)-1] == "CLASIFICACIÓN" {
		return f.SetColWidth(sheet, last, last, 18)
	}
	return nil
}

// uniqueSheetName avoids collisions when two sections sanitize to the same
// name (e.g. repeated classes).
func uniqueSheetName(f *excelize.File, name string, idx int) string {
	candidate := name
	if idx == 0 {
		// first section renames the default sheet, so it never collides
		return candidate
	}
	for n := 2; sheetExists(f, candidate); n++ {
		suffix := fmt.Sprintf(" (%d)", n)
		candidate = SanitizeSheetName(truncateRunes(name, 31-len(suffix))) + suffix
	}
	return candidate
}

func sheetExists(f *excelize.File, name string) bool {
	for _, existing := range f.GetSheetList() {
		if existing == name {
			return true
		}
	}
	return false
}

func truncateRunes(s string, n int) string {
	if n < 1 {
		n = 1
	}
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}

func boxBorder() []excelize.Border {
	return []excelize.Border{
		{Type: "left", Style: 1, Color: "999999"},
		{Type: "right", Style: 1, Color: "999999"},
		{Type: "top", Style: 1, Color: "999999"},
		{Type: "bottom", Style: 1, Color: "999999"},
	}
}
