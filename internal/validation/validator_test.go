package validation

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/normalizer"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func balancedInvoice() types.Document {
	return types.Document{
		Kind:             types.KindInvoice,
		Number:           "FE1",
		SourceFileName:   "fe1.xml",
		Supplier:         types.Party{TaxID: "900123456"},
		LineExtension:    d("100"),
		TaxExclusiveBase: d("100"),
		TotalTax:         d("19"),
		TaxInclusive:     d("119"),
		PayableTotal:     d("119"),
		Items: []types.LineItem{
			{ID: "1", LineBase: d("60")},
			{ID: "2", LineBase: d("40")},
		},
	}
}

func rules(errs []*ValidationError) []string {
	out := make([]string, len(errs))
	for i, e := range errs {
		out[i] = e.Rule
	}
	return out
}

func TestFixturesAreConsistent(t *testing.T) {
	for _, name := range []string{"invoice.xml", "credit_note.xml", "debit_note.xml", "payroll.xml"} {
		raw, err := os.ReadFile(filepath.Join("..", "normalizer", "testdata", name))
		if err != nil {
			t.Fatal(err)
		}
		doc, err := normalizer.Normalize(raw)
		if err != nil {
			t.Fatalf("%s: Normalize() error: %v", name, err)
		}
		if errs := NewValidator().ValidateDocument(&doc); len(errs) != 0 {
			t.Errorf("%s: unexpected warnings:\n%s", name, FormatErrors(errs))
		}
	}
}

func TestValidateDocumentMissingFields(t *testing.T) {
	doc := types.Document{Kind: types.KindUnknown, Items: []types.LineItem{}}

	got := rules(NewValidator().ValidateDocument(&doc))
	want := []string{"required", "known_kind", "required"}
	if strings.Join(got, ",") != strings.Join(want, ",") {
		t.Fatalf("rules = %v, want %v", got, want)
	}
}

func TestValidateDocumentTaxBalance(t *testing.T) {
	doc := balancedInvoice()
	doc.TaxInclusive = d("125")

	errs := NewValidator().ValidateDocument(&doc)
	if len(errs) != 1 || errs[0].Rule != "tax_balance" {
		t.Fatalf("errs = %v", rules(errs))
	}
	if errs[0].Severity != "warning" || errs[0].DocumentNumber != "FE1" || errs[0].FileName != "fe1.xml" {
		t.Errorf("finding = %+v", errs[0])
	}
}

func TestValidateDocumentTolerance(t *testing.T) {
	doc := balancedInvoice()
	doc.TaxInclusive = d("120.00")
	if errs := NewValidator().ValidateDocument(&doc); len(errs) != 0 {
		t.Fatalf("difference of exactly 1.00 flagged: %v", rules(errs))
	}

	doc.TaxInclusive = d("120.01")
	if errs := NewValidator().ValidateDocument(&doc); len(errs) != 1 {
		t.Fatalf("difference above tolerance not flagged")
	}

	strict := NewValidatorWithOptions(ValidationOptions{Tolerance: decimal.Zero})
	doc.TaxInclusive = d("119.50")
	if errs := strict.ValidateDocument(&doc); len(errs) != 1 {
		t.Fatalf("zero tolerance did not flag 0.50")
	}
}

func TestValidateDocumentLineSum(t *testing.T) {
	doc := balancedInvoice()
	doc.Items[1].LineBase = d("10")

	errs := NewValidator().ValidateDocument(&doc)
	if len(errs) != 1 || errs[0].Rule != "line_sum" {
		t.Fatalf("errs = %v", rules(errs))
	}
	if !strings.Contains(errs[0].Message, "70") {
		t.Errorf("message = %q", errs[0].Message)
	}
}

func TestValidateDocumentPayrollBalance(t *testing.T) {
	doc := types.Document{
		Kind:             types.KindPayroll,
		Number:           "NE1",
		Supplier:         types.Party{TaxID: "901555666"},
		TaxExclusiveBase: d("3000000"),
		AllowanceTotal:   d("240000"),
		PayableTotal:     d("2760000"),
	}
	if errs := Validate([]types.Document{doc}); len(errs) != 0 {
		t.Fatalf("balanced payroll flagged: %v", rules(errs))
	}

	doc.PayableTotal = d("2800000")
	errs := Validate([]types.Document{doc})
	if len(errs) != 1 || errs[0].Rule != "payroll_balance" {
		t.Fatalf("errs = %v", rules(errs))
	}
}

func TestValidateAllCounts(t *testing.T) {
	bad := balancedInvoice()
	bad.Number = ""

	result := NewValidator().ValidateAll([]types.Document{balancedInvoice(), bad})
	if result.DocumentsValidated != 2 || result.WarningCount != 1 {
		t.Fatalf("result = %+v", result)
	}
}

func TestFormatErrors(t *testing.T) {
	if got := FormatErrors(nil); got != "No validation warnings." {
		t.Errorf("FormatErrors(nil) = %q", got)
	}

	doc := types.Document{Kind: types.KindInvoice, Number: "FE9", SourceFileName: "a.xml"}
	out := FormatErrors(NewValidator().ValidateDocument(&doc))
	if !strings.HasPrefix(out, "Validation completed with 1 warning(s)") {
		t.Errorf("header = %q", out)
	}
	if !strings.Contains(out, "1. [WARNING] a.xml") || !strings.Contains(out, "supplierTaxId") {
		t.Errorf("FormatErrors() = %q", out)
	}
}
