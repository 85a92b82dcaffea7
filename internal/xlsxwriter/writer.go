// =============================================================================
// DIAN XML Consolidator - XLSX Workbook Codec
// =============================================================================
//
// This module serializes projected sheets into an XLSX workbook using
// excelize. One worksheet is written per sheet, in order, with a bold header
// row built from the sheet's column labels. Cells are placed by position, so
// two columns sharing a label keep their own values. Decimal values are written as
// numbers so spreadsheet formulas keep working on them.
//
// SHEET NAME RULES:
//   - The characters [ ] : * ? / \ are removed
//   - Names are cut to 31 characters
//   - Duplicates get a " (2)", " (3)" ... suffix
//   - An empty name becomes "Hoja"
//
// =============================================================================

package xlsxwriter

import (
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
)

const (
	// defaultSheet is the sheet excelize creates in every new workbook.
	defaultSheet = "Sheet1"

	// fallbackSheetName replaces a name that sanitizes to nothing.
	fallbackSheetName = "Hoja"

	// amountFormat is the custom number format for decimal cells.
	amountFormat = "#,##0.00"

	// columnWidth is applied to every written column.
	columnWidth = 18
)

// invalidSheetChars are rejected by spreadsheet applications in sheet names.
const invalidSheetChars = `[]:*?/\`

// =============================================================================
// ENCODING
// =============================================================================

// Encode renders sheets into XLSX bytes.
func Encode(sheets []projection.Sheet) ([]byte, error) {
	var buf bytes.Buffer
	if err := Write(&buf, sheets); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write renders sheets into an XLSX workbook written to w.
//
// PARAMETERS:
//   - w: Destination of the workbook bytes.
//   - sheets: Projected sheets, written in order.
//
// RETURNS:
//   - An error if excelize rejects a sheet or the write fails.
func Write(w io.Writer, sheets []projection.Sheet) error {
	f := excelize.NewFile()
	defer f.Close()

	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	format := amountFormat
	amountStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &format})
	if err != nil {
		return fmt.Errorf("failed to create amount style: %w", err)
	}

	names := SheetNames(sheets)
	for i, sheet := range sheets {
		if err := addSheet(f, i, names[i]); err != nil {
			return fmt.Errorf("failed to create sheet %q: %w", names[i], err)
		}
		if err := writeSheet(f, names[i], sheet, headerStyle, amountStyle); err != nil {
			return fmt.Errorf("failed to write sheet %q: %w", names[i], err)
		}
	}
	f.SetActiveSheet(0)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// addSheet renames the default sheet for the first entry and appends a new
// worksheet for every other one.
func addSheet(f *excelize.File, index int, name string) error {
	if index == 0 {
		return f.SetSheetName(defaultSheet, name)
	}
	_, err := f.NewSheet(name)
	return err
}

func writeSheet(f *excelize.File, name string, sheet projection.Sheet, headerStyle, amountStyle int) error {
	if len(sheet.Columns) == 0 {
		return nil
	}

	header := make([]interface{}, len(sheet.Columns))
	for i, label := range sheet.Columns {
		header[i] = label
	}
	if err := f.SetSheetRow(name, "A1", &header); err != nil {
		return err
	}

	lastCol, err := excelize.ColumnNumberToName(len(sheet.Columns))
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(name, "A1", lastCol+"1", headerStyle); err != nil {
		return err
	}
	if err := f.SetColWidth(name, "A", lastCol, columnWidth); err != nil {
		return err
	}

	amountColumns := make(map[int]bool)
	for r, row := range sheet.Rows {
		values := make([]interface{}, len(sheet.Columns))
		for c := range sheet.Columns {
			var value any
			if c < len(row) {
				value = row[c].Value
			}
			values[c] = cellValue(value)
			if _, ok := value.(decimal.Decimal); ok {
				amountColumns[c] = true
			}
		}

		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(name, cell, &values); err != nil {
			return err
		}
	}

	if len(sheet.Rows) > 0 {
		for c := range amountColumns {
			top, _ := excelize.CoordinatesToCellName(c+1, 2)
			bottom, _ := excelize.CoordinatesToCellName(c+1, len(sheet.Rows)+1)
			if err := f.SetCellStyle(name, top, bottom, amountStyle); err != nil {
				return err
			}
		}
	}

	return f.SetPanes(name, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

// cellValue converts a projected value into something excelize can store.
func cellValue(v any) interface{} {
	switch val := v.(type) {
	case nil:
		return ""
	case decimal.Decimal:
		return val.InexactFloat64()
	default:
		return val
	}
}

// =============================================================================
// SHEET NAMES
// =============================================================================

// SheetNames returns the sanitized, de-duplicated worksheet name for every
// sheet, in order.
func SheetNames(sheets []projection.Sheet) []string {
	names := make([]string, len(sheets))
	used := make(map[string]bool, len(sheets))

	for i, sheet := range sheets {
		base := SanitizeSheetName(sheet.Name)
		name := base
		for n := 2; used[strings.ToLower(name)]; n++ {
			suffix := fmt.Sprintf(" (%d)", n)
			name = truncate(base, projection.MaxSheetNameLength-utf8.RuneCountInString(suffix)) + suffix
		}
		used[strings.ToLower(name)] = true
		names[i] = name
	}
	return names
}

// SanitizeSheetName removes forbidden characters and enforces the length
// limit.
func SanitizeSheetName(name string) string {
	cleaned := strings.Map(func(r rune) rune {
		if strings.ContainsRune(invalidSheetChars, r) {
			return -1
		}
		return r
	}, name)

	cleaned = truncate(strings.TrimSpace(cleaned), projection.MaxSheetNameLength)
	cleaned = strings.TrimSpace(strings.Trim(cleaned, "'"))
	if cleaned == "" {
		return fallbackSheetName
	}
	return cleaned
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// =============================================================================
// DECODING
// =============================================================================

// Table is one worksheet read back from a workbook.
type Table struct {
	Name string
	Rows [][]string
}

// ReadSheets reads every worksheet of an XLSX workbook, in order, with raw
// (unformatted) cell values.
func ReadSheets(r io.Reader) ([]Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var tables []Table
	for _, name := range f.GetSheetList() {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("failed to read sheet %q: %w", name, err)
		}
		tables = append(tables, Table{Name: name, Rows: rows})
	}
	return tables, nil
}
