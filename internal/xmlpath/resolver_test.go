package xmlpath

import (
	"testing"

	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
)

func mustRoot(t *testing.T, xml string) *etree.Element {
	t.Helper()
	doc := etree.NewDocument()
	if err := doc.ReadFromString(xml); err != nil {
		t.Fatalf("parse XML: %v", err)
	}
	root := doc.Root()
	if root == nil {
		t.Fatal("document has no root")
	}
	return root
}

const partyXML = `<Invoice xmlns:cac="urn:cac" xmlns:cbc="urn:cbc">
  <cac:AccountingSupplierParty>
    <cac:Party>
      <cac:PartyName><cbc:Name>  ACME S.A.S.  </cbc:Name></cac:PartyName>
      <cac:PartyIdentification><cbc:ID schemeID="31">900123456</cbc:ID></cac:PartyIdentification>
    </cac:Party>
  </cac:AccountingSupplierParty>
  <Empleador NIT="800999111" RazonSocial="Empresa"/>
  <cbc:Note></cbc:Note>
</Invoice>`

func TestResolveScalarForm(t *testing.T) {
	root := mustRoot(t, partyXML)

	got, ok := Resolve(root, "cac:AccountingSupplierParty.cac:Party.cac:PartyName.cbc:Name")
	if !ok || got != "ACME S.A.S." {
		t.Fatalf("Resolve() = %q, %v; want trimmed name", got, ok)
	}
}

func TestResolveAttributeForm(t *testing.T) {
	root := mustRoot(t, partyXML)

	got := ResolveText(root, "Empleador.NIT")
	if got != "800999111" {
		t.Fatalf("ResolveText(Empleador.NIT) = %q, want 800999111", got)
	}

	got = ResolveText(root, "cac:AccountingSupplierParty.cac:Party.cac:PartyIdentification.cbc:ID.@schemeID")
	if got != "31" {
		t.Fatalf("explicit attribute segment = %q, want 31", got)
	}
}

func TestResolveFallbackOrder(t *testing.T) {
	root := mustRoot(t, partyXML)

	got := ResolveText(root,
		"cac:AccountingSupplierParty.cac:Party.cac:PartyTaxScheme.cbc:CompanyID",
		"cac:AccountingSupplierParty.cac:Party.cac:PartyIdentification.cbc:ID",
		"Empleador.NIT",
	)
	if got != "900123456" {
		t.Fatalf("fallback chain = %q, want generic identifier 900123456", got)
	}
}

func TestResolveEmptyTextIsAbsent(t *testing.T) {
	root := mustRoot(t, partyXML)

	if got, ok := Resolve(root, "cbc:Note"); ok {
		t.Fatalf("empty element resolved to %q", got)
	}
	if got := ResolveText(root, "cbc:Note", "Empleador.RazonSocial"); got != "Empresa" {
		t.Fatalf("empty candidate should fall through, got %q", got)
	}
}

func TestResolveIgnoresPrefix(t *testing.T) {
	root := mustRoot(t, `<fe:Invoice xmlns:fe="urn:x" xmlns:b="urn:cbc"><b:ID>FE001</b:ID></fe:Invoice>`)

	if got := ResolveText(root, "cbc:ID"); got != "FE001" {
		t.Fatalf("prefix-insensitive lookup = %q, want FE001", got)
	}
}

func TestResolveNilRoot(t *testing.T) {
	if got, ok := Resolve(nil, "cbc:ID"); ok || got != "" {
		t.Fatalf("Resolve(nil) = %q, %v", got, ok)
	}
	if got := ResolveNumber(nil, "cbc:PayableAmount"); !got.IsZero() {
		t.Fatalf("ResolveNumber(nil) = %s", got)
	}
	if got := ResolveElements(nil, "cac:InvoiceLine"); got != nil {
		t.Fatalf("ResolveElements(nil) = %v", got)
	}
}

func TestResolveNumber(t *testing.T) {
	root := mustRoot(t, `<Invoice>
  <Total>
    <Payable>119000.00</Payable>
    <Broken>N/A</Broken>
  </Total>
</Invoice>`)

	if got := ResolveNumber(root, "Total.Payable"); !got.Equal(decimal.RequireFromString("119000")) {
		t.Fatalf("Payable = %s, want 119000", got)
	}
	if got := ResolveNumber(root, "Total.Broken"); !got.IsZero() {
		t.Fatalf("N/A should coerce to zero, got %s", got)
	}
	if got := ResolveNumber(root, "Total.Missing"); !got.IsZero() {
		t.Fatalf("missing should coerce to zero, got %s", got)
	}
}

func TestParseNumber(t *testing.T) {
	cases := map[string]string{
		"  42.50 ": "42.5",
		"-3":       "-3",
		"":         "0",
		"1.2.3":    "0",
		"N/A":      "0",
	}
	for in, want := range cases {
		if got := ParseNumber(in); !got.Equal(decimal.RequireFromString(want)) {
			t.Errorf("ParseNumber(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestResolveElementsSingleAndMany(t *testing.T) {
	single := mustRoot(t, `<Invoice><InvoiceLine><ID>1</ID></InvoiceLine></Invoice>`)
	if got := ResolveElements(single, "cac:CreditNoteLine", "cac:InvoiceLine"); len(got) != 1 {
		t.Fatalf("single line: got %d elements, want 1", len(got))
	}

	many := mustRoot(t, `<CreditNote>
  <CreditNoteLine><ID>a</ID></CreditNoteLine>
  <Other/>
  <CreditNoteLine><ID>b</ID></CreditNoteLine>
  <CreditNoteLine><ID>c</ID></CreditNoteLine>
</CreditNote>`)
	got := ResolveElements(many, "cac:InvoiceLine", "cac:CreditNoteLine")
	if len(got) != 3 {
		t.Fatalf("got %d elements, want 3", len(got))
	}
	for i, want := range []string{"a", "b", "c"} {
		if id := ResolveText(got[i], "ID"); id != want {
			t.Errorf("line %d id = %q, want %q", i, id, want)
		}
	}
}

func TestResolveElement(t *testing.T) {
	root := mustRoot(t, partyXML)

	if el := ResolveElement(root, "cac:AccountingCustomerParty.cac:Party", "Empleador"); el == nil || LocalName(el) != "Empleador" {
		t.Fatalf("ResolveElement fallback = %v", el)
	}
	if el := ResolveElement(root, "Nope"); el != nil {
		t.Fatalf("ResolveElement(Nope) = %v, want nil", el)
	}
}

func TestTextSegmentAndNFC(t *testing.T) {
	// "e" followed by a combining acute accent.
	root := mustRoot(t, "<Party><Name>Jose\u0301</Name></Party>")

	got := ResolveText(root, "Name._")
	if got != "Jos\u00e9" {
		t.Fatalf("NFC text = %q, want composed form", got)
	}
}

func TestSplit(t *testing.T) {
	got := Split(" a. .b:c.@d ")
	want := []string{"a", "b:c", "@d"}
	if len(got) != len(want) {
		t.Fatalf("Split() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Split() = %v, want %v", got, want)
		}
	}
}
