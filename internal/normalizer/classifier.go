// =============================================================================
// DIAN XML Consolidator - Schema Classifier
// =============================================================================
//
// This module maps the root element of a document to its DocumentKind and
// unwraps the DIAN AttachedDocument transport envelope.
//
// ENVELOPE HANDLING:
//   An AttachedDocument carries the signed document as text inside
//   cac:Attachment/cac:ExternalReference/cbc:Description (usually CDATA).
//   That text is parsed and classified in place of the envelope. When it is
//   missing or unparseable, the envelope itself is normalized as Unknown.
//
// =============================================================================

package normalizer

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// rootKinds maps a root element local name to its document kind.
var rootKinds = map[string]types.DocumentKind{
	"Invoice":                  types.KindInvoice,
	"CreditNote":               types.KindCreditNote,
	"DebitNote":                types.KindDebitNote,
	"NominaElectronica":        types.KindPayroll,
	"NominaIndividual":         types.KindPayroll,
	"NominaIndividualDeAjuste": types.KindPayroll,
}

// attachedDocumentTag is the DIAN transport envelope wrapping a signed
// document and its validation response.
const attachedDocumentTag = "AttachedDocument"

// embeddedDocument is where the envelope carries the wrapped document text.
var embeddedDocument = chain{"cac:Attachment.cac:ExternalReference.cbc:Description"}

// Classify returns the kind for a root element name.
//
// PARAMETERS:
//   - rootName: Local name of the root element, without namespace prefix.
//
// RETURNS:
//   - The matching DocumentKind. Anything unrecognised is KindUnknown, which
//     is never a failure.
func Classify(rootName string) types.DocumentKind {
	if kind, ok := rootKinds[rootName]; ok {
		return kind
	}
	return types.KindUnknown
}

// unwrapAttached replaces an AttachedDocument envelope by the document it
// carries. The envelope itself is returned when nothing parsable is inside.
func unwrapAttached(root *etree.Element) *etree.Element {
	if xmlpath.LocalName(root) != attachedDocumentTag {
		return root
	}

	text, ok := xmlpath.Resolve(root, embeddedDocument...)
	if !ok {
		return root
	}

	inner, err := parseEmbedded(text)
	if err != nil {
		return root
	}
	return inner
}
