// =============================================================================
// DIAN XML Consolidator - Document Normalizer
// =============================================================================
//
// This module turns the raw text of one DIAN document into a canonical
// types.Document. It is the only component with a public single-document
// contract.
//
// NORMALIZATION PIPELINE:
//   1. Parse the raw text into an etree document (charset aware)
//   2. Unwrap an AttachedDocument envelope if present
//   3. Classify the root element into a DocumentKind
//   4. Resolve supplier and customer subtrees (kind-aware order)
//   5. Extract header, parties, totals, sector references and line items
//   6. Assemble the Document
//
// FAILURE POLICY:
//   Only unparseable input fails (ErrParse). Missing fields degrade to empty
//   strings or zero amounts, and unknown roots still produce a Document.
//
// =============================================================================

package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/beevik/etree"
	"golang.org/x/net/html/charset"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
	"github.com/ginjaninja78/dian-xml-consolidator/internal/xmlpath"
)

// ErrParse is returned when the input is not well-formed XML or has no root
// element.
var ErrParse = errors.New("unparseable document")

// =============================================================================
// SINGLE DOCUMENT
// =============================================================================

// Normalize parses raw XML and builds its canonical Document.
//
// PARAMETERS:
//   - raw: The complete XML text of one file.
//
// RETURNS:
//   - The Document, with SourceFileName left empty for the caller to attach.
//   - An error wrapping ErrParse when the text cannot be parsed.
//
// Normalize is pure: identical input always yields an identical Document.
func Normalize(raw []byte) (types.Document, error) {
	root, err := parseRoot(raw)
	if err != nil {
		return types.Document{}, err
	}
	root = unwrapAttached(root)

	kind := Classify(xmlpath.LocalName(root))

	supplierChain, customerChain := partyChainsFor(kind)
	supplier := ExtractParty(xmlpath.ResolveElement(root, supplierChain...))
	customer := ExtractParty(xmlpath.ResolveElement(root, customerChain...))

	header := ExtractHeader(root, kind)
	totals := ExtractTotals(root)

	return types.Document{
		Kind: kind,

		Number:           header.Number,
		IssueDate:        header.IssueDate,
		IssueTime:        header.IssueTime,
		DueDate:          header.DueDate,
		UniqueCode:       header.UniqueCode,
		Currency:         header.Currency,
		TypeCode:         header.TypeCode,
		Note:             header.Note,
		PaymentMeansCode: header.PaymentMeansCode,
		PaymentID:        header.PaymentID,
		PaymentDueDate:   header.PaymentDueDate,

		UBLVersion:         header.UBLVersion,
		CustomizationID:    header.CustomizationID,
		ProfileID:          header.ProfileID,
		ProfileExecutionID: header.ProfileExecutionID,
		LineCount:          header.LineCount,

		Supplier: supplier,
		Customer: customer,

		LineExtension:    totals.LineExtension,
		TaxExclusiveBase: totals.TaxExclusiveBase,
		TaxInclusive:     totals.TaxInclusive,
		AllowanceTotal:   totals.AllowanceTotal,
		ChargeTotal:      totals.ChargeTotal,
		PrepaidAmount:    totals.PrepaidAmount,
		TotalTax:         totals.TotalTax,
		PayableTotal:     totals.PayableTotal,
		Taxes:            totals.Taxes,

		SectorRefs: ExtractSectorRefs(root),
		Items:      ExtractItems(root),
	}, nil
}

// charsetReader turns a declared encoding into a UTF-8 reader.
type charsetReader func(label string, input io.Reader) (io.Reader, error)

// parseRoot parses raw file bytes, honouring the declared encoding.
func parseRoot(raw []byte) (*etree.Element, error) {
	return parseTree(raw, charset.NewReaderLabel)
}

// parseEmbedded parses document text that was carried as character data of
// another document. That text is already UTF-8, whatever its own XML
// declaration says, so it must not be decoded a second time.
func parseEmbedded(text string) (*etree.Element, error) {
	return parseTree([]byte(text), passThrough)
}

func passThrough(_ string, input io.Reader) (io.Reader, error) {
	return input, nil
}

func parseTree(raw []byte, decode charsetReader) (*etree.Element, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrParse)
	}

	doc := etree.NewDocument()
	doc.ReadSettings.CharsetReader = decode
	if err := doc.ReadFromBytes(raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	root := doc.Root()
	if root == nil {
		return nil, fmt.Errorf("%w: no root element", ErrParse)
	}
	return root, nil
}
