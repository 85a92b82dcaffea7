// =============================================================================
// DIAN XML Consolidator - Shared Types
// =============================================================================
//
// This package contains the canonical document model shared across modules
// to avoid import cycles. Types defined here are used by:
//   - normalizer  (produces Documents)
//   - projection  (turns Documents into rows)
//   - validation  (advisory consistency checks)
//   - store       (persistence sink)
//   - api         (HTTP surface)
//
// =============================================================================

package types

import (
	"github.com/shopspring/decimal"
)

// =============================================================================
// DOCUMENT KIND
// =============================================================================

// DocumentKind is the closed set of document schemas we recognise.
type DocumentKind int

const (
	KindUnknown DocumentKind = iota
	KindInvoice
	KindCreditNote
	KindDebitNote
	KindPayroll
)

// String returns the English name of the kind.
func (k DocumentKind) String() string {
	switch k {
	case KindInvoice:
		return "Invoice"
	case KindCreditNote:
		return "CreditNote"
	case KindDebitNote:
		return "DebitNote"
	case KindPayroll:
		return "Payroll"
	default:
		return "Unknown"
	}
}

// Label returns the display label used in spreadsheets and sheet names.
func (k DocumentKind) Label() string {
	switch k {
	case KindInvoice:
		return "Factura"
	case KindCreditNote:
		return "Nota Crédito"
	case KindDebitNote:
		return "Nota Débito"
	case KindPayroll:
		return "Nómina"
	default:
		return "Desconocido"
	}
}

// MarshalText encodes the kind by its English name.
func (k DocumentKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// =============================================================================
// SOURCE FILE
// =============================================================================

// SourceFile is one entry supplied by the file enumeration collaborator.
type SourceFile struct {
	// Name is the base file name, attached to the resulting Document.
	Name string

	// Content is the raw XML text.
	Content []byte
}

// =============================================================================
// DOCUMENT
// =============================================================================

// Party is a normalized participant: supplier/employer or customer/employee.
type Party struct {
	TaxID        string `json:"taxId"`
	Name         string `json:"name"`
	City         string `json:"city,omitempty"`
	Department   string `json:"department,omitempty"`
	Address      string `json:"address,omitempty"`
	Email        string `json:"email,omitempty"`
	TaxLevelCode string `json:"taxLevelCode,omitempty"`
}

// TaxSubtotal is one aggregated tax entry, keyed by scheme name and rate.
type TaxSubtotal struct {
	Name   string          `json:"name"`
	Rate   string          `json:"rate"`
	Amount decimal.Decimal `json:"amount"`
}

// Document is the canonical record produced for one successfully parsed file.
// String fields may be empty and amounts zero when the source omits them.
type Document struct {
	Kind DocumentKind `json:"kind"`

	// Header.
	Number           string `json:"number"`
	IssueDate        string `json:"issueDate"`
	IssueTime        string `json:"issueTime"`
	DueDate          string `json:"dueDate,omitempty"`
	UniqueCode       string `json:"uniqueCode"`
	Currency         string `json:"currency"`
	TypeCode         string `json:"typeCode,omitempty"`
	Note             string `json:"note,omitempty"`
	PaymentMeansCode string `json:"paymentMeansCode,omitempty"`
	PaymentID        string `json:"paymentId,omitempty"`
	PaymentDueDate   string `json:"paymentDueDate,omitempty"`

	// Profile metadata.
	UBLVersion         string `json:"ublVersion,omitempty"`
	CustomizationID    string `json:"customizationId,omitempty"`
	ProfileID          string `json:"profileId,omitempty"`
	ProfileExecutionID string `json:"profileExecutionId,omitempty"`
	LineCount          string `json:"lineCount,omitempty"`

	// Parties.
	Supplier Party `json:"supplier"`
	Customer Party `json:"customer"`

	// Monetary totals.
	LineExtension    decimal.Decimal `json:"lineExtension"`
	TaxExclusiveBase decimal.Decimal `json:"taxExclusiveBase"`
	TaxInclusive     decimal.Decimal `json:"taxInclusive"`
	AllowanceTotal   decimal.Decimal `json:"allowanceTotal"`
	ChargeTotal      decimal.Decimal `json:"chargeTotal"`
	PrepaidAmount    decimal.Decimal `json:"prepaidAmount"`
	TotalTax         decimal.Decimal `json:"totalTax"`
	PayableTotal     decimal.Decimal `json:"payableTotal"`

	// Taxes is the document-level breakdown by scheme and rate.
	Taxes []TaxSubtotal `json:"taxes,omitempty"`

	// SectorRefs holds the sector annex references (health, transport) in
	// first-appearance order, one entry per label.
	SectorRefs []SectorRef `json:"sectorRefs,omitempty"`

	// Items is owned exclusively by the document, in source order.
	Items []LineItem `json:"items"`

	// SourceFileName is attached by the caller, never by the normalizer.
	SourceFileName string `json:"sourceFileName,omitempty"`
}

// SectorRef is one sector annex value, such as a health-sector field or a
// transport manifest number.
type SectorRef struct {
	Sector string `json:"sector"`
	Name   string `json:"name"`
	Value  string `json:"value"`
}

// Label is the column label of the reference, e.g. "Transporte Remesa".
func (r SectorRef) Label() string {
	return r.Sector + " " + r.Name
}

// LineItem is one normalized line of an invoice, credit note or debit note.
type LineItem struct {
	ID           string          `json:"id"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	UnitCode     string          `json:"unitCode,omitempty"`
	UnitPrice    decimal.Decimal `json:"unitPrice"`
	LineBase     decimal.Decimal `json:"lineBase"`
	LineTax      decimal.Decimal `json:"lineTax"`
	Brand        string          `json:"brand,omitempty"`
	Model        string          `json:"model,omitempty"`
	StandardCode string          `json:"standardCode,omitempty"`

	// Taxes is the per-line breakdown by scheme and rate.
	Taxes []TaxSubtotal `json:"taxes,omitempty"`
}
