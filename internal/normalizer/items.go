// =============================================================================
// DIAN XML Consolidator - Line Item Extractor
// =============================================================================
//
// Flattens cac:InvoiceLine, cac:CreditNoteLine and cac:DebitNoteLine into
// LineItems. Line tax is summed and broken down with the same helpers as
// the document totals (see totals.go).
//
// =============================================================================

package normalizer

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// ExtractItems flattens the line collection into LineItems in source order.
//
// PARAMETERS:
//   - root: The document root. Invoice, credit note and debit note lines
//     are all accepted; a single bare line and N repeated lines are handled
//     the same way.
//
// RETURNS:
//   - One LineItem per line node. Payroll documents have no lines and yield
//     an empty, non-nil slice.
func ExtractItems(root *etree.Element) []types.LineItem {
	lines := xmlpath.ResolveElements(root, lineNodes...)

	items := make([]types.LineItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, extractLine(line))
	}
	return items
}

func extractLine(line *etree.Element) types.LineItem {
	taxTotals := xmlpath.Children(line, "cac:TaxTotal")

	return types.LineItem{
		ID:           xmlpath.ResolveText(line, "cbc:ID"),
		Description:  xmlpath.ResolveText(line, lineDescription...),
		Quantity:     xmlpath.ResolveNumber(line, lineQuantity...),
		UnitCode:     xmlpath.ResolveText(line, lineUnitCode...),
		UnitPrice:    xmlpath.ResolveNumber(line, lineUnitPrice...),
		LineBase:     xmlpath.ResolveNumber(line, lineBaseAmount...),
		LineTax:      sumTaxTotals(taxTotals),
		Brand:        xmlpath.ResolveText(line, lineBrand...),
		Model:        xmlpath.ResolveText(line, lineModel...),
		StandardCode: xmlpath.ResolveText(line, lineStandardCode...),
		Taxes:        taxBreakdown(taxTotals),
	}
}
