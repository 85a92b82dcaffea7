// =============================================================================
// DIAN XML Consolidator - Tabular Projection Engine
// =============================================================================
//
// This module turns a collection of normalized Documents into named row sets
// ready for a spreadsheet codec.
//
// PROJECTION RULES:
//   - GroupByKind false: one sheet (SheetName, default "Consolidated")
//   - GroupByKind true: one sheet per kind present, first-appearance order,
//     named after the kind label
//   - Summary: one row per Document; item-only columns are dropped
//   - Items: one row per (Document, LineItem); a column resolves against the
//     item first and falls back to the Document
//   - Only enabled columns, in catalog order; row keys are labels
//   - SectorFields adds one trailing column per sector reference label found
//     in the batch, sorted by label
//
// The engine does no I/O and never fails.
//
// =============================================================================

package projection

import (
	"fmt"
	"slices"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// MaxSheetNameLength is the hard limit spreadsheet formats put on sheet names.
const MaxSheetNameLength = 31

// DefaultSheetName names the single sheet of an ungrouped export.
const DefaultSheetName = "Consolidated"

// =============================================================================
// CONFIGURATION TYPES
// =============================================================================

// DetailLevel selects one row per document or one row per line item.
type DetailLevel int

const (
	Summary DetailLevel = iota
	Items
)

func (d DetailLevel) String() string {
	if d == Items {
		return "items"
	}
	return "summary"
}

// ParseDetailLevel accepts "summary" or "items", case-insensitively.
func ParseDetailLevel(s string) (DetailLevel, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "summary":
		return Summary, nil
	case "items":
		return Items, nil
	}
	return Summary, fmt.Errorf("invalid detail level %q (want summary or items)", s)
}

// ExportConfig drives one projection call.
type ExportConfig struct {
	DetailLevel DetailLevel
	GroupByKind bool

	// TaxBreakdown injects per-tax amount and rate columns right after the
	// first enabled tax column.
	TaxBreakdown bool

	// SectorFields appends the sector annex columns (health, transport).
	SectorFields bool

	// SheetName overrides DefaultSheetName for ungrouped exports.
	SheetName string

	// Columns is the ordered catalog with enabled flags.
	Columns []Column
}

// =============================================================================
// OUTPUT TYPES
// =============================================================================

// Cell is one labelled value. Value is a string or a decimal.Decimal.
type Cell struct {
	Label string
	Value any
}

// Row is an ordered record keyed by column label.
type Row []Cell

// Get returns the value stored under label.
func (r Row) Get(label string) (any, bool) {
	for _, c := range r {
		if c.Label == label {
			return c.Value, true
		}
	}
	return nil, false
}

// Labels returns the row keys in order.
func (r Row) Labels() []string {
	labels := make([]string, len(r))
	for i, c := range r {
		labels[i] = c.Label
	}
	return labels
}

// Sheet is a named, ordered row set.
type Sheet struct {
	Name    string
	Columns []string
	Rows    []Row
}

// =============================================================================
// FIELD ACCESSORS
// =============================================================================

// field resolves a column key against a Document, a LineItem, or both.
type field struct {
	doc  func(types.Document) any
	item func(types.LineItem) any
}

func docText(f func(types.Document) string) field {
	return field{doc: func(d types.Document) any { return f(d) }}
}

func docAmount(f func(types.Document) decimal.Decimal) field {
	return field{doc: func(d types.Document) any { return f(d) }}
}

func itemText(f func(types.LineItem) string) field {
	return field{item: func(it types.LineItem) any { return f(it) }}
}

func itemAmount(f func(types.LineItem) decimal.Decimal) field {
	return field{item: func(it types.LineItem) any { return f(it) }}
}

var fields = map[string]field{
	"kind":               docText(func(d types.Document) string { return d.Kind.Label() }),
	"number":             docText(func(d types.Document) string { return d.Number }),
	"issueDate":          docText(func(d types.Document) string { return d.IssueDate }),
	"issueTime":          docText(func(d types.Document) string { return d.IssueTime }),
	"dueDate":            docText(func(d types.Document) string { return d.DueDate }),
	"uniqueCode":         docText(func(d types.Document) string { return d.UniqueCode }),
	"currency":           docText(func(d types.Document) string { return d.Currency }),
	"typeCode":           docText(func(d types.Document) string { return d.TypeCode }),
	"note":               docText(func(d types.Document) string { return d.Note }),
	"ublVersion":         docText(func(d types.Document) string { return d.UBLVersion }),
	"customizationId":    docText(func(d types.Document) string { return d.CustomizationID }),
	"profileId":          docText(func(d types.Document) string { return d.ProfileID }),
	"profileExecutionId": docText(func(d types.Document) string { return d.ProfileExecutionID }),
	"lineCount":          docText(func(d types.Document) string { return d.LineCount }),
	"supplierTaxId":      docText(func(d types.Document) string { return d.Supplier.TaxID }),
	"supplierName":       docText(func(d types.Document) string { return d.Supplier.Name }),
	"supplierCity":       docText(func(d types.Document) string { return d.Supplier.City }),
	"supplierDepartment": docText(func(d types.Document) string { return d.Supplier.Department }),
	"supplierAddress":    docText(func(d types.Document) string { return d.Supplier.Address }),
	"supplierEmail":      docText(func(d types.Document) string { return d.Supplier.Email }),
	"supplierTaxLevel":   docText(func(d types.Document) string { return d.Supplier.TaxLevelCode }),
	"customerTaxId":      docText(func(d types.Document) string { return d.Customer.TaxID }),
	"customerName":       docText(func(d types.Document) string { return d.Customer.Name }),
	"customerCity":       docText(func(d types.Document) string { return d.Customer.City }),
	"customerDepartment": docText(func(d types.Document) string { return d.Customer.Department }),
	"customerAddress":    docText(func(d types.Document) string { return d.Customer.Address }),
	"customerEmail":      docText(func(d types.Document) string { return d.Customer.Email }),
	"paymentMeans":       docText(func(d types.Document) string { return d.PaymentMeansCode }),
	"paymentId":          docText(func(d types.Document) string { return d.PaymentID }),
	"paymentDueDate":     docText(func(d types.Document) string { return d.PaymentDueDate }),
	"sourceFileName":     docText(func(d types.Document) string { return d.SourceFileName }),

	"lineExtension":    docAmount(func(d types.Document) decimal.Decimal { return d.LineExtension }),
	"taxExclusiveBase": docAmount(func(d types.Document) decimal.Decimal { return d.TaxExclusiveBase }),
	"taxInclusive":     docAmount(func(d types.Document) decimal.Decimal { return d.TaxInclusive }),
	"allowanceTotal":   docAmount(func(d types.Document) decimal.Decimal { return d.AllowanceTotal }),
	"chargeTotal":      docAmount(func(d types.Document) decimal.Decimal { return d.ChargeTotal }),
	"prepaidAmount":    docAmount(func(d types.Document) decimal.Decimal { return d.PrepaidAmount }),
	"totalTax":         docAmount(func(d types.Document) decimal.Decimal { return d.TotalTax }),
	"payableTotal":     docAmount(func(d types.Document) decimal.Decimal { return d.PayableTotal }),

	"lineId":       itemText(func(it types.LineItem) string { return it.ID }),
	"description":  itemText(func(it types.LineItem) string { return it.Description }),
	"unitCode":     itemText(func(it types.LineItem) string { return it.UnitCode }),
	"brand":        itemText(func(it types.LineItem) string { return it.Brand }),
	"model":        itemText(func(it types.LineItem) string { return it.Model }),
	"standardCode": itemText(func(it types.LineItem) string { return it.StandardCode }),
	"quantity":     itemAmount(func(it types.LineItem) decimal.Decimal { return it.Quantity }),
	"unitPrice":    itemAmount(func(it types.LineItem) decimal.Decimal { return it.UnitPrice }),
	"lineBase":     itemAmount(func(it types.LineItem) decimal.Decimal { return it.LineBase }),
	"lineTax":      itemAmount(func(it types.LineItem) decimal.Decimal { return it.LineTax }),
}

// taxColumnKeys are the columns after which the tax breakdown is injected.
var taxColumnKeys = map[string]bool{"totalTax": true, "lineTax": true}

// =============================================================================
// PROJECTION
// =============================================================================

// column is a resolved output column.
type column struct {
	label string
	value func(doc types.Document, item *types.LineItem) any
}

// Project builds the sheets for docs under cfg.
func Project(docs []types.Document, cfg ExportConfig) []Sheet {
	columns := buildColumns(docs, cfg)

	if !cfg.GroupByKind {
		name := cfg.SheetName
		if strings.TrimSpace(name) == "" {
			name = DefaultSheetName
		}
		return []Sheet{buildSheet(TruncateSheetName(name), docs, columns, cfg.DetailLevel)}
	}

	var order []types.DocumentKind
	groups := make(map[types.DocumentKind][]types.Document)
	for _, doc := range docs {
		if _, seen := groups[doc.Kind]; !seen {
			order = append(order, doc.Kind)
		}
		groups[doc.Kind] = append(groups[doc.Kind], doc)
	}

	sheets := make([]Sheet, 0, len(order))
	for _, kind := range order {
		sheets = append(sheets, buildSheet(TruncateSheetName(kind.Label()), groups[kind], columns, cfg.DetailLevel))
	}
	return sheets
}

func buildSheet(name string, docs []types.Document, columns []column, level DetailLevel) Sheet {
	sheet := Sheet{Name: name, Columns: make([]string, len(columns)), Rows: []Row{}}
	for i, c := range columns {
		sheet.Columns[i] = c.label
	}

	for _, doc := range docs {
		if level == Summary {
			sheet.Rows = append(sheet.Rows, buildRow(columns, doc, nil))
			continue
		}
		for i := range doc.Items {
			sheet.Rows = append(sheet.Rows, buildRow(columns, doc, &doc.Items[i]))
		}
	}
	return sheet
}

func buildRow(columns []column, doc types.Document, item *types.LineItem) Row {
	row := make(Row, len(columns))
	for i, c := range columns {
		row[i] = Cell{Label: c.label, Value: c.value(doc, item)}
	}
	return row
}

// buildColumns selects the enabled columns in catalog order and injects the
// tax breakdown when asked.
func buildColumns(docs []types.Document, cfg ExportConfig) []column {
	var taxNames []string
	if cfg.TaxBreakdown {
		taxNames = collectTaxNames(docs)
	}

	var columns []column
	injected := false
	for _, c := range cfg.Columns {
		if !c.Enabled {
			continue
		}
		if cfg.DetailLevel == Summary && IsItemOnly(c.Key) {
			continue
		}
		columns = append(columns, column{label: c.Label, value: valueFor(c.Key)})

		if taxColumnKeys[c.Key] && !injected {
			for _, name := range taxNames {
				columns = append(columns, taxColumns(name)...)
			}
			injected = true
		}
	}

	if cfg.SectorFields {
		for _, label := range collectSectorLabels(docs) {
			columns = append(columns, sectorColumn(label))
		}
	}
	return columns
}

// valueFor returns the resolver for a key: item first, then document, then
// the empty string.
func valueFor(key string) func(types.Document, *types.LineItem) any {
	f, ok := fields[key]
	return func(doc types.Document, item *types.LineItem) any {
		switch {
		case !ok:
			return ""
		case item != nil && f.item != nil:
			return f.item(*item)
		case f.doc != nil:
			return f.doc(doc)
		default:
			return ""
		}
	}
}

// =============================================================================
// TAX BREAKDOWN
// =============================================================================

// collectTaxNames returns every tax name in the batch, sorted.
func collectTaxNames(docs []types.Document) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(taxes []types.TaxSubtotal) {
		for _, t := range taxes {
			if t.Name != "" && !seen[t.Name] {
				seen[t.Name] = true
				names = append(names, t.Name)
			}
		}
	}
	for _, doc := range docs {
		add(doc.Taxes)
		for _, it := range doc.Items {
			add(it.Taxes)
		}
	}
	sort.Strings(names)
	return names
}

// taxColumns builds the amount and rate columns for one tax name. Summary
// rows read document taxes; item rows read the line's own taxes.
func taxColumns(name string) []column {
	pick := func(doc types.Document, item *types.LineItem) []types.TaxSubtotal {
		if item != nil {
			return item.Taxes
		}
		return doc.Taxes
	}

	return []column{
		{
			label: name + " (Valor)",
			value: func(doc types.Document, item *types.LineItem) any {
				sum := decimal.Zero
				for _, t := range pick(doc, item) {
					if t.Name == name {
						sum = sum.Add(t.Amount)
					}
				}
				return sum
			},
		},
		{
			label: name + " %",
			value: func(doc types.Document, item *types.LineItem) any {
				var rates []string
				for _, t := range pick(doc, item) {
					if t.Name == name && !slices.Contains(rates, t.Rate) {
						rates = append(rates, t.Rate)
					}
				}
				sort.Strings(rates)
				return strings.Join(rates, ", ")
			},
		},
	}
}

// =============================================================================
// SECTOR COLUMNS
// =============================================================================

// collectSectorLabels returns every sector reference label in the batch,
// sorted.
func collectSectorLabels(docs []types.Document) []string {
	seen := make(map[string]bool)
	var labels []string
	for _, doc := range docs {
		for _, ref := range doc.SectorRefs {
			if label := ref.Label(); !seen[label] {
				seen[label] = true
				labels = append(labels, label)
			}
		}
	}
	sort.Strings(labels)
	return labels
}

// sectorColumn reads one sector reference from the document; item rows
// repeat the document value.
func sectorColumn(label string) column {
	return column{
		label: label,
		value: func(doc types.Document, _ *types.LineItem) any {
			for _, ref := range doc.SectorRefs {
				if ref.Label() == label {
					return ref.Value
				}
			}
			return ""
		},
	}
}

// =============================================================================
// SHEET NAMES
// =============================================================================

// TruncateSheetName cuts name to MaxSheetNameLength runes.
func TruncateSheetName(name string) string {
	if utf8.RuneCountInString(name) <= MaxSheetNameLength {
		return name
	}
	runes := []rune(name)
	return string(runes[:MaxSheetNameLength])
}
