// =============================================================================
// DIAN XML Consolidator - Sector Annex Extractor
// =============================================================================
//
// Sector annexes attach extra references to a commercial document through
// document-level cac:AdditionalDocumentReference nodes, told apart by their
// cbc:DocumentTypeCode:
//
//   050       health sector field; the field code is the issuer party
//             identification and the value is cbc:ID
//   06 - 09   transport documents (Manifiesto, Remesa, DTA, OTM); the value
//             is cbc:ID
//
// Other reference types are ignored.
//
// =============================================================================

package normalizer

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

const (
	healthSector       = "Salud"
	transportSector    = "Transporte"
	healthDocumentType = "050"
)

// transportDocumentTypes names the transport reference codes.
var transportDocumentTypes = map[string]string{
	"06": "Manifiesto",
	"07": "Remesa",
	"08": "DTA",
	"09": "OTM",
}

// ExtractSectorRefs reads the health and transport references of a document.
// A label seen twice keeps its first position and takes the last value.
func ExtractSectorRefs(root *etree.Element) []types.SectorRef {
	var refs []types.SectorRef
	index := make(map[string]int)

	add := func(ref types.SectorRef) {
		if i, ok := index[ref.Label()]; ok {
			refs[i].Value = ref.Value
			return
		}
		index[ref.Label()] = len(refs)
		refs = append(refs, ref)
	}

	for _, node := range xmlpath.ResolveElements(root, referenceNodes...) {
		code := xmlpath.ResolveText(node, referenceTypeCode...)
		value := xmlpath.ResolveText(node, referenceID...)

		if code == healthDocumentType {
			if field := xmlpath.ResolveText(node, healthFieldCode...); field != "" {
				add(types.SectorRef{Sector: healthSector, Name: "Campo " + field, Value: value})
			}
			continue
		}
		if name, ok := transportDocumentTypes[code]; ok {
			add(types.SectorRef{Sector: transportSector, Name: name, Value: value})
		}
	}
	return refs
}
