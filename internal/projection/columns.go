// =============================================================================
// DIAN XML Consolidator - Column Catalog
// =============================================================================
//
// The catalog is the ordered list of every column the projection can emit.
// Its order is the output column order. Each key names either a Document
// field or a LineItem field; labels are what ends up in the header row.
//
// CUSTOMIZATION:
//   Labels and enabled flags are overridden per key from config.yaml
//   (export.columns) or with the --columns flag.
//
// =============================================================================

package projection

import (
	"fmt"
	"strings"
)

// Column is one entry of the catalog.
type Column struct {
	Key     string `yaml:"key" json:"key"`
	Label   string `yaml:"label" json:"label"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// DefaultColumns returns the default catalog, every column enabled.
func DefaultColumns() []Column {
	return []Column{
		{Key: "kind", Label: "Tipo Documento", Enabled: true},
		{Key: "number", Label: "Número", Enabled: true},
		{Key: "issueDate", Label: "Fecha", Enabled: true},
		{Key: "supplierTaxId", Label: "NIT Emisor", Enabled: true},
		{Key: "supplierName", Label: "Nombre Emisor", Enabled: true},
		{Key: "customerTaxId", Label: "NIT Receptor", Enabled: true},
		{Key: "customerName", Label: "Nombre Receptor", Enabled: true},
		{Key: "taxExclusiveBase", Label: "Subtotal/Base", Enabled: true},
		{Key: "totalTax", Label: "Impuestos", Enabled: true},
		{Key: "payableTotal", Label: "Total", Enabled: true},
		{Key: "uniqueCode", Label: "CUFE/CUNE", Enabled: true},
		{Key: "description", Label: "Ítem: Descripción", Enabled: true},
		{Key: "quantity", Label: "Ítem: Cantidad", Enabled: true},
		{Key: "unitPrice", Label: "Ítem: Precio Unit", Enabled: true},
		{Key: "lineBase", Label: "Ítem: Base", Enabled: true},
	}
}

// SupplementalColumns returns the extra columns, disabled by default.
func SupplementalColumns() []Column {
	return []Column{
		{Key: "issueTime", Label: "Hora"},
		{Key: "dueDate", Label: "Vencimiento"},
		{Key: "currency", Label: "Moneda"},
		{Key: "typeCode", Label: "Tipo Factura"},
		{Key: "note", Label: "Notas"},
		{Key: "ublVersion", Label: "Versión UBL"},
		{Key: "customizationId", Label: "Tipo Operación"},
		{Key: "profileId", Label: "Perfil"},
		{Key: "profileExecutionId", Label: "Ambiente"},
		{Key: "lineCount", Label: "Cantidad Líneas"},
		{Key: "supplierCity", Label: "Ciudad Emisor"},
		{Key: "supplierDepartment", Label: "Depto Emisor"},
		{Key: "supplierAddress", Label: "Dirección Emisor"},
		{Key: "supplierEmail", Label: "Email Emisor"},
		{Key: "supplierTaxLevel", Label: "Régimen Emisor"},
		{Key: "customerCity", Label: "Ciudad Receptor"},
		{Key: "customerDepartment", Label: "Depto Receptor"},
		{Key: "customerAddress", Label: "Dirección Receptor"},
		{Key: "customerEmail", Label: "Email Receptor"},
		{Key: "paymentMeans", Label: "Medio de Pago"},
		{Key: "paymentId", Label: "Forma de Pago"},
		{Key: "paymentDueDate", Label: "Fecha Límite Pago"},
		{Key: "lineExtension", Label: "Total Bruto"},
		{Key: "taxInclusive", Label: "Total con Impuestos"},
		{Key: "allowanceTotal", Label: "Descuentos"},
		{Key: "chargeTotal", Label: "Cargos"},
		{Key: "prepaidAmount", Label: "Anticipos"},
		{Key: "lineId", Label: "Ítem: #"},
		{Key: "unitCode", Label: "Ítem: UM"},
		{Key: "lineTax", Label: "Ítem: Impuesto"},
		{Key: "brand", Label: "Ítem: Marca"},
		{Key: "model", Label: "Ítem: Modelo"},
		{Key: "standardCode", Label: "Ítem: Código"},
		{Key: "sourceFileName", Label: "Archivo"},
	}
}

// Catalog returns the full catalog: defaults followed by supplemental columns.
func Catalog() []Column {
	return append(DefaultColumns(), SupplementalColumns()...)
}

// IsKnownKey reports whether key names a catalog column.
func IsKnownKey(key string) bool {
	_, ok := fields[key]
	return ok
}

// IsItemOnly reports whether key is resolved only against line items.
func IsItemOnly(key string) bool {
	f, ok := fields[key]
	return ok && f.doc == nil && f.item != nil
}

// ApplyOverrides returns a copy of catalog with the enabled flag and label of
// every overridden key replaced. Order never changes.
func ApplyOverrides(catalog []Column, overrides []Column) ([]Column, error) {
	byKey := make(map[string]Column, len(overrides))
	for _, o := range overrides {
		if !IsKnownKey(o.Key) {
			return nil, fmt.Errorf("unknown column key %q", o.Key)
		}
		byKey[o.Key] = o
	}

	out := make([]Column, len(catalog))
	for i, c := range catalog {
		if o, ok := byKey[c.Key]; ok {
			c.Enabled = o.Enabled
			if o.Label != "" {
				c.Label = o.Label
			}
		}
		out[i] = c
	}
	return out, nil
}

// EnableOnly returns a copy of catalog where exactly the listed keys are
// enabled. Output order still follows the catalog, not the list.
func EnableOnly(catalog []Column, keys []string) ([]Column, error) {
	wanted := make(map[string]bool, len(keys))
	for _, k := range keys {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		if !IsKnownKey(k) {
			return nil, fmt.Errorf("unknown column key %q", k)
		}
		wanted[k] = true
	}

	out := make([]Column, len(catalog))
	for i, c := range catalog {
		c.Enabled = wanted[c.Key]
		out[i] = c
	}
	return out, nil
}
