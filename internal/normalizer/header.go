// =============================================================================
// DIAN XML Consolidator - Header Extractor
// =============================================================================
//
// This module reads the document-level scalars: numbering, dates, the
// CUFE/CUNE, currency, payment terms and the UBL profile metadata. Every
// field is resolved through the kind's chain table in chains.go, so payroll
// attribute encodings and UBL element encodings share one code path.
//
// =============================================================================

package normalizer

import (
	"github.com/beevik/etree"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// Header holds the document-level scalar fields.
type Header struct {
	Number           string
	IssueDate        string
	IssueTime        string
	DueDate          string
	UniqueCode       string
	Currency         string
	TypeCode         string
	Note             string
	PaymentMeansCode string
	PaymentID        string
	PaymentDueDate   string

	UBLVersion         string
	CustomizationID    string
	ProfileID          string
	ProfileExecutionID string
	LineCount          string
}

// ExtractHeader resolves the header fields with the chain table for kind.
//
// PARAMETERS:
//   - root: The document root (already unwrapped from any envelope).
//   - kind: The classified kind; it selects the chain table.
//
// RETURNS:
//   - The Header. Absent fields are "".
func ExtractHeader(root *etree.Element, kind types.DocumentKind) Header {
	c := headerChainsFor(kind)
	text := func(candidates chain) string {
		return xmlpath.ResolveText(root, candidates...)
	}

	return Header{
		Number:           text(c.Number),
		IssueDate:        text(c.IssueDate),
		IssueTime:        text(c.IssueTime),
		DueDate:          text(c.DueDate),
		UniqueCode:       text(c.UniqueCode),
		Currency:         text(c.Currency),
		TypeCode:         text(c.TypeCode),
		Note:             text(c.Note),
		PaymentMeansCode: text(c.PaymentMeansCode),
		PaymentID:        text(c.PaymentID),
		PaymentDueDate:   text(c.PaymentDueDate),

		UBLVersion:         text(c.UBLVersion),
		CustomizationID:    text(c.CustomizationID),
		ProfileID:          text(c.ProfileID),
		ProfileExecutionID: text(c.ProfileExecutionID),
		LineCount:          text(c.LineCount),
	}
}
