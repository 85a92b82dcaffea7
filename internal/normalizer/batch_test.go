package normalizer

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"go.uber.org/multierr"
	"go.uber.org/zap/zaptest"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

func TestRunPreservesInputOrder(t *testing.T) {
	files := []types.SourceFile{
		{Name: "a_invoice.xml", Content: readFixture(t, "invoice.xml")},
		{Name: "b_broken.xml", Content: []byte("<Invoice><ID>1</Invoice>")},
		{Name: "c_payroll.xml", Content: readFixture(t, "payroll.xml")},
		{Name: "d_credit.xml", Content: readFixture(t, "credit_note.xml")},
		{Name: "e_debit.xml", Content: readFixture(t, "debit_note.xml")},
	}

	n := New(zaptest.NewLogger(t), 2)
	batch := n.Run(context.Background(), files)

	if len(batch.Results) != len(files) {
		t.Fatalf("len(Results) = %d, want %d", len(batch.Results), len(files))
	}
	for i, r := range batch.Results {
		if r.FileName != files[i].Name {
			t.Errorf("Results[%d].FileName = %q, want %q", i, r.FileName, files[i].Name)
		}
	}

	wantKinds := []types.DocumentKind{types.KindInvoice, types.KindPayroll, types.KindCreditNote, types.KindDebitNote}
	wantNames := []string{"a_invoice.xml", "c_payroll.xml", "d_credit.xml", "e_debit.xml"}
	if len(batch.Documents) != len(wantKinds) {
		t.Fatalf("len(Documents) = %d, want %d", len(batch.Documents), len(wantKinds))
	}
	for i, doc := range batch.Documents {
		if doc.Kind != wantKinds[i] {
			t.Errorf("Documents[%d].Kind = %v, want %v", i, doc.Kind, wantKinds[i])
		}
		if doc.SourceFileName != wantNames[i] {
			t.Errorf("Documents[%d].SourceFileName = %q, want %q", i, doc.SourceFileName, wantNames[i])
		}
	}

	failures := batch.Failures()
	if len(failures) != 1 || failures[0].FileName != "b_broken.xml" {
		t.Fatalf("Failures() = %+v, want only b_broken.xml", failures)
	}
	if !errors.Is(failures[0].Error, ErrParse) {
		t.Errorf("failure error = %v, want ErrParse", failures[0].Error)
	}
	if got := len(multierr.Errors(batch.Err)); got != 1 {
		t.Errorf("aggregated errors = %d, want 1", got)
	}
}

func TestRunManyFilesStaysOrdered(t *testing.T) {
	var files []types.SourceFile
	for i := 0; i < 40; i++ {
		xml := fmt.Sprintf(`<Invoice xmlns:cbc="urn:cbc"><cbc:ID>FE%03d</cbc:ID></Invoice>`, i)
		files = append(files, types.SourceFile{Name: fmt.Sprintf("f%03d.xml", i), Content: []byte(xml)})
	}

	batch := New(nil, 8).Run(context.Background(), files)
	if batch.Err != nil {
		t.Fatalf("unexpected batch error: %v", batch.Err)
	}
	for i, doc := range batch.Documents {
		if want := fmt.Sprintf("FE%03d", i); doc.Number != want {
			t.Fatalf("Documents[%d].Number = %q, want %q", i, doc.Number, want)
		}
	}
}

func TestRunCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	files := []types.SourceFile{
		{Name: "one.xml", Content: readFixture(t, "invoice.xml")},
		{Name: "two.xml", Content: readFixture(t, "payroll.xml")},
	}

	batch := New(zaptest.NewLogger(t), 1).Run(ctx, files)
	if len(batch.Documents) != 0 {
		t.Fatalf("len(Documents) = %d, want 0 after cancellation", len(batch.Documents))
	}
	if !errors.Is(batch.Err, context.Canceled) {
		t.Fatalf("batch error = %v, want context.Canceled", batch.Err)
	}
	if len(batch.Failures()) != 2 {
		t.Fatalf("Failures() = %d, want 2", len(batch.Failures()))
	}
}

func TestRunEmpty(t *testing.T) {
	batch := New(nil, 0).Run(context.Background(), nil)
	if len(batch.Results) != 0 || len(batch.Documents) != 0 || batch.Err != nil {
		t.Fatalf("Run(nil) = %+v, want empty result", batch)
	}
}
