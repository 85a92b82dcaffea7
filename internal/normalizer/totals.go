// =============================================================================
// DIAN XML Consolidator - Totals Extractor
// =============================================================================
//
// Reads the monetary summary of a document. Commercial documents keep it in
// cac:LegalMonetaryTotal (cac:RequestedMonetaryTotal on debit notes); payroll
// keeps the equivalent amounts at the root.
//
// TAX HANDLING:
//   - TotalTax is the sum of every document-level cac:TaxTotal
//   - Taxes groups the cac:TaxSubtotal nodes by scheme name and rate
//   - Rates are compared after normalization, so "19" and "19.00" merge
//
// =============================================================================

package normalizer

import (
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// Totals holds the document-level monetary fields.
type Totals struct {
	LineExtension    decimal.Decimal
	TaxExclusiveBase decimal.Decimal
	TaxInclusive     decimal.Decimal
	AllowanceTotal   decimal.Decimal
	ChargeTotal      decimal.Decimal
	PrepaidAmount    decimal.Decimal
	TotalTax         decimal.Decimal
	PayableTotal     decimal.Decimal
	Taxes            []types.TaxSubtotal
}

// ExtractTotals resolves the totals container (commercial, then requested
// amounts) and reads every amount from it.
//
// PARAMETERS:
//   - root: The document root.
//
// RETURNS:
//   - The Totals. Absent or unparseable amounts are zero, never an error.
func ExtractTotals(root *etree.Element) Totals {
	container := xmlpath.ResolveElement(root, totalsContainers...)
	taxTotals := xmlpath.Children(root, "cac:TaxTotal")

	return Totals{
		LineExtension:    readAmount(root, container, lineExtensionAmount),
		TaxExclusiveBase: readAmount(root, container, taxExclusiveAmount),
		TaxInclusive:     readAmount(root, container, taxInclusiveAmount),
		AllowanceTotal:   readAmount(root, container, allowanceAmount),
		ChargeTotal:      readAmount(root, container, chargeAmount),
		PrepaidAmount:    readAmount(root, container, prepaidAmount),
		TotalTax:         sumTaxTotals(taxTotals),
		PayableTotal:     readAmount(root, container, payableAmount),
		Taxes:            taxBreakdown(taxTotals),
	}
}

// readAmount reads a field from the container, falling back to the payroll
// root-level element when the container does not carry it.
func readAmount(root, container *etree.Element, c amountChain) decimal.Decimal {
	if value, ok := xmlpath.Resolve(container, c.InContainer...); ok {
		return xmlpath.ParseNumber(value)
	}
	return xmlpath.ResolveNumber(root, c.AtRoot...)
}

// sumTaxTotals adds up a set of cac:TaxTotal nodes. A node without its own
// cbc:TaxAmount contributes the sum of its subtotals.
func sumTaxTotals(totals []*etree.Element) decimal.Decimal {
	sum := decimal.Zero
	for _, total := range totals {
		if value, ok := xmlpath.Resolve(total, "cbc:TaxAmount"); ok {
			sum = sum.Add(xmlpath.ParseNumber(value))
			continue
		}
		for _, sub := range xmlpath.Children(total, "cac:TaxSubtotal") {
			sum = sum.Add(xmlpath.ResolveNumber(sub, "cbc:TaxAmount"))
		}
	}
	return sum
}

// taxBreakdown aggregates every cac:TaxSubtotal under the given totals by
// scheme name and rate, in first-appearance order.
func taxBreakdown(totals []*etree.Element) []types.TaxSubtotal {
	type key struct{ name, rate string }

	var out []types.TaxSubtotal
	index := make(map[key]int)

	for _, total := range totals {
		for _, sub := range xmlpath.Children(total, "cac:TaxSubtotal") {
			k := key{
				name: xmlpath.ResolveText(sub, taxSchemeName...),
				rate: normalizeRate(xmlpath.ResolveText(sub, taxPercent...)),
			}
			amount := xmlpath.ResolveNumber(sub, "cbc:TaxAmount")

			if i, ok := index[k]; ok {
				out[i].Amount = out[i].Amount.Add(amount)
				continue
			}
			index[k] = len(out)
			out = append(out, types.TaxSubtotal{Name: k.name, Rate: k.rate, Amount: amount})
		}
	}
	return out
}

// normalizeRate renders "19", "19.0" and "19.00" identically so they
// aggregate together.
func normalizeRate(rate string) string {
	if rate == "" {
		return "0"
	}
	d, err := decimal.NewFromString(rate)
	if err != nil {
		return rate
	}
	return d.StringFixed(2)
}
