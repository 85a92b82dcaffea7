// =============================================================================
// DIAN XML Consolidator - Party Resolver
// =============================================================================
//
// This module reads a normalized identity out of a supplier, employer,
// customer or employee subtree.
//
// RESOLUTION ORDER:
//   TaxID: tax-scheme company ID, generic party identification, legal-entity
//          company ID, then the payroll NIT / NumeroDocumento attributes
//   Name:  trade name, tax-scheme registration name, payroll RazonSocial,
//          the name parts of a natural person (UBL, then payroll), and last
//          the legal-entity registration name
//
// The remaining fields (city, department, address, email, regime) are read
// with their own chains and default to "".
//
// =============================================================================

package normalizer

import (
	"strings"

	"github.com/beevik/etree"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// ExtractParty reads a normalized identity out of a party subtree.
//
// PARAMETERS:
//   - party: The resolved party subtree, or nil when the document has none.
//
// RETURNS:
//   - The Party. A nil subtree yields the zero Party and every absent field
//     is "". ExtractParty never fails.
func ExtractParty(party *etree.Element) types.Party {
	if party == nil {
		return types.Party{}
	}

	return types.Party{
		TaxID:        xmlpath.ResolveText(party, partyTaxID...),
		Name:         partyDisplayName(party),
		City:         xmlpath.ResolveText(party, partyCity...),
		Department:   xmlpath.ResolveText(party, partyDepartment...),
		Address:      xmlpath.ResolveText(party, partyAddress...),
		Email:        xmlpath.ResolveText(party, partyEmail...),
		TaxLevelCode: xmlpath.ResolveText(party, partyTaxLevel...),
	}
}

// partyDisplayName tries registered names first, then the name parts of a
// natural person, then the legal-entity name.
func partyDisplayName(party *etree.Element) string {
	if name, ok := xmlpath.Resolve(party, partyName...); ok {
		return name
	}
	if name := joinNameParts(party, personNameParts); name != "" {
		return name
	}
	if name := joinNameParts(party, payrollNameParts); name != "" {
		return name
	}
	return xmlpath.ResolveText(party, partyLegalName...)
}

// joinNameParts joins the parts that are present with single spaces.
func joinNameParts(party *etree.Element, parts []chain) string {
	present := make([]string, 0, len(parts))
	for _, part := range parts {
		if value, ok := xmlpath.Resolve(party, part...); ok {
			present = append(present, value)
		}
	}
	return strings.Join(present, " ")
}
