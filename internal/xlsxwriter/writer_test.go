package xlsxwriter

import (
	"bytes"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/projection"
)

func sampleSheets() []projection.Sheet {
	return []projection.Sheet{
		{
			Name:    "Factura",
			Columns: []string{"Número", "Total"},
			Rows: []projection.Row{
				{{Label: "Número", Value: "FE1"}, {Label: "Total", Value: decimal.RequireFromString("119000.50")}},
				{{Label: "Número", Value: "FE2"}, {Label: "Total", Value: decimal.RequireFromString("10")}},
			},
		},
		{
			Name:    "Nómina",
			Columns: []string{"Número", "Total"},
			Rows: []projection.Row{
				{{Label: "Número", Value: "NE1"}, {Label: "Total", Value: decimal.RequireFromString("2760000")}},
			},
		},
	}
}

func TestEncodeRoundTrip(t *testing.T) {
	data, err := Encode(sampleSheets())
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}

	tables, err := ReadSheets(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}
	if len(tables) != 2 {
		t.Fatalf("workbook has %d sheets, want 2 (default sheet must not survive)", len(tables))
	}
	if tables[0].Name != "Factura" || tables[1].Name != "Nómina" {
		t.Fatalf("sheet order = %q, %q", tables[0].Name, tables[1].Name)
	}

	factura := tables[0].Rows
	if len(factura) != 3 {
		t.Fatalf("Factura has %d rows, want header + 2", len(factura))
	}
	if strings.Join(factura[0], "|") != "Número|Total" {
		t.Errorf("header = %v", factura[0])
	}
	if factura[1][0] != "FE1" || factura[1][1] != "119000.5" {
		t.Errorf("first data row = %v", factura[1])
	}
	if tables[1].Rows[1][1] != "2760000" {
		t.Errorf("payroll total = %q", tables[1].Rows[1][1])
	}
}

func TestEncodeEmptySheet(t *testing.T) {
	data, err := Encode([]projection.Sheet{{Name: "Consolidado", Columns: []string{"Número"}, Rows: []projection.Row{}}})
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	tables, err := ReadSheets(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}
	if len(tables) != 1 || tables[0].Name != "Consolidado" {
		t.Fatalf("tables = %+v", tables)
	}
	if len(tables[0].Rows) != 1 {
		t.Fatalf("rows = %d, want header only", len(tables[0].Rows))
	}
}

func TestWriteMissingCellIsBlank(t *testing.T) {
	sheets := []projection.Sheet{{
		Name:    "Hoja",
		Columns: []string{"A", "B"},
		Rows:    []projection.Row{{{Label: "A", Value: "x"}}},
	}}

	var buf bytes.Buffer
	if err := Write(&buf, sheets); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	tables, err := ReadSheets(&buf)
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}
	row := tables[0].Rows[1]
	if row[0] != "x" || (len(row) > 1 && row[1] != "") {
		t.Fatalf("row = %v", row)
	}
}

func TestSanitizeSheetName(t *testing.T) {
	cases := map[string]string{
		"Factura":                 "Factura",
		"a/b:c*d?e[f]g\\h":        "abcdefgh",
		"   ":                     "Hoja",
		"'quoted'":                "quoted",
		strings.Repeat("x", 40):   strings.Repeat("x", 31),
		strings.Repeat("ñ", 35):   strings.Repeat("ñ", 31),
		"Nota Crédito":            "Nota Crédito",
	}
	for in, want := range cases {
		if got := SanitizeSheetName(in); got != want {
			t.Errorf("SanitizeSheetName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSheetNamesDeduplicates(t *testing.T) {
	long := strings.Repeat("z", 31)
	names := SheetNames([]projection.Sheet{{Name: "Datos"}, {Name: "datos"}, {Name: "Datos"}, {Name: long}, {Name: long}})

	want := []string{"Datos", "datos (2)", "Datos (3)", long, strings.Repeat("z", 27) + " (2)"}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q, want %q", i, names[i], want[i])
		}
	}
}

func TestEncodeDuplicateLabelsKeepPosition(t *testing.T) {
	sheets := []projection.Sheet{{
		Name:    "Factura",
		Columns: []string{"Valor", "Valor"},
		Rows: []projection.Row{
			{{Label: "Valor", Value: "FE1"}, {Label: "Valor", Value: decimal.RequireFromString("42")}},
		},
	}}

	data, err := Encode(sheets)
	if err != nil {
		t.Fatalf("Encode() error: %v", err)
	}
	tables, err := ReadSheets(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("ReadSheets() error: %v", err)
	}
	if got := strings.Join(tables[0].Rows[1], "|"); got != "FE1|42" {
		t.Fatalf("row = %q, want FE1|42", got)
	}
}
