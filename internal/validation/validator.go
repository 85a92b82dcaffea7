// =============================================================================
// DIAN XML Consolidator - Consistency Checks
// =============================================================================
//
// This module runs advisory checks over normalized documents. It never
// rejects a document: every finding is a warning that ends up in the log
// and in the API response, and the document is still exported.
//
// CHECKS:
//   1. Document number present
//   2. Document kind recognized
//   3. Supplier (or employer) tax ID present
//   4. Tax-exclusive base + total tax = tax-inclusive total
//   5. Sum of line bases = line-extension total
//   6. Payroll: earnings - deductions = payable total
//
// Amount comparisons allow a tolerance (default 1.00) to absorb rounding
// done by the invoicing software.
//
// =============================================================================

package validation

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// DefaultTolerance is the largest accepted difference between two totals.
var DefaultTolerance = decimal.RequireFromString("1.00")

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// ValidationError represents a single finding.
type ValidationError struct {
	// Severity is always "warning"; findings never block the export.
	Severity string `json:"severity"`

	// Field names the document field the finding is about.
	Field string `json:"field"`

	// Value is the offending value, when there is one.
	Value string `json:"value,omitempty"`

	// Rule is the check that produced the finding.
	Rule string `json:"rule"`

	// Message is a human-readable description.
	Message string `json:"message"`

	// DocumentNumber and FileName locate the document.
	DocumentNumber string `json:"documentNumber,omitempty"`
	FileName       string `json:"fileName,omitempty"`
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s (document %q), Field '%s': %s (value: '%s')",
		strings.ToUpper(e.Severity),
		e.FileName,
		e.DocumentNumber,
		e.Field,
		e.Message,
		e.Value,
	)
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// ValidationResult contains the results of validation.
type ValidationResult struct {
	Errors []*ValidationError

	// WarningCount is the number of findings.
	WarningCount int

	// DocumentsValidated is the number of documents checked.
	DocumentsValidated int
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Validator runs the consistency checks.
type Validator struct {
	options ValidationOptions
}

// ValidationOptions contains options for validation.
type ValidationOptions struct {
	// Tolerance is the largest accepted difference between compared totals.
	// Default: 1.00
	Tolerance decimal.Decimal
}

// DefaultValidationOptions returns the default validation options.
func DefaultValidationOptions() ValidationOptions {
	return ValidationOptions{Tolerance: DefaultTolerance}
}

// NewValidator creates a new Validator instance.
func NewValidator() *Validator {
	return &Validator{options: DefaultValidationOptions()}
}

// NewValidatorWithOptions creates a new Validator with custom options.
func NewValidatorWithOptions(options ValidationOptions) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks all documents with the default options.
//
// PARAMETERS:
//   - docs: The normalized documents.
//
// RETURNS:
//   - Every finding, in document order.
func Validate(docs []types.Document) []*ValidationError {
	return NewValidator().ValidateAll(docs).Errors
}

// ValidateAll checks all documents and returns a detailed result.
func (v *Validator) ValidateAll(docs []types.Document) *ValidationResult {
	result := &ValidationResult{
		Errors:             make([]*ValidationError, 0),
		DocumentsValidated: len(docs),
	}
	for i := range docs {
		result.Errors = append(result.Errors, v.ValidateDocument(&docs[i])...)
	}
	result.WarningCount = len(result.Errors)
	return result
}

// ValidateDocument runs every check against one document.
func (v *Validator) ValidateDocument(doc *types.Document) []*ValidationError {
	var errs []*ValidationError
	add := func(field, rule, value, message string) {
		errs = append(errs, &ValidationError{
			Severity:       "warning",
			Field:          field,
			Value:          value,
			Rule:           rule,
			Message:        message,
			DocumentNumber: doc.Number,
			FileName:       doc.SourceFileName,
		})
	}

	if doc.Number == "" {
		add("number", "required", "", "document number is missing")
	}
	if doc.Kind == types.KindUnknown {
		add("kind", "known_kind", "", "root element is not a recognized DIAN document")
	}
	if doc.Supplier.TaxID == "" {
		add("supplierTaxId", "required", "", "supplier tax ID is missing")
	}

	if doc.Kind == types.KindPayroll {
		expected := doc.TaxExclusiveBase.Sub(doc.AllowanceTotal)
		if !v.withinTolerance(expected, doc.PayableTotal) {
			add("payableTotal", "payroll_balance", doc.PayableTotal.String(),
				fmt.Sprintf("earnings %s minus deductions %s is %s", doc.TaxExclusiveBase, doc.AllowanceTotal, expected))
		}
		return errs
	}

	if !doc.TaxInclusive.IsZero() {
		expected := doc.TaxExclusiveBase.Add(doc.TotalTax)
		if !v.withinTolerance(expected, doc.TaxInclusive) {
			add("taxInclusive", "tax_balance", doc.TaxInclusive.String(),
				fmt.Sprintf("base %s plus tax %s is %s", doc.TaxExclusiveBase, doc.TotalTax, expected))
		}
	}

	if len(doc.Items) > 0 && !doc.LineExtension.IsZero() {
		sum := decimal.Zero
		for _, item := range doc.Items {
			sum = sum.Add(item.LineBase)
		}
		if !v.withinTolerance(sum, doc.LineExtension) {
			add("lineExtension", "line_sum", doc.LineExtension.String(),
				fmt.Sprintf("line bases add up to %s", sum))
		}
	}

	return errs
}

func (v *Validator) withinTolerance(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(v.options.Tolerance)
}

// =============================================================================
// ERROR REPORTING
// =============================================================================

// FormatErrors formats findings for display or logging.
func FormatErrors(errors []*ValidationError) string {
	if len(errors) == 0 {
		return "No validation warnings."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Validation completed with %d warning(s):\n\n", len(errors)))

	for i, err := range errors {
		builder.WriteString(fmt.Sprintf("%d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
