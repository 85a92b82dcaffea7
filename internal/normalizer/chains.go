// =============================================================================
// DIAN XML Consolidator - Fallback Chain Tables
// =============================================================================
//
// Every logical field is located through an ordered list of candidate paths.
// The tables below are the only place where knowledge about producer drift
// lives: commercial UBL documents, DIAN payroll documents and UBL-shaped
// payroll documents each contribute candidates. Extraction code never
// branches on document shape; it picks a table by kind and resolves.
//
// CUSTOMIZATION:
//   A producer that writes a field somewhere new only needs a new candidate
//   appended to the matching chain.
//
// =============================================================================

package normalizer

import (
	"github.com/ginjaninja78/dian-xml-consolidator/internal/types"
)

// chain is an ordered list of dotted candidate paths.
type chain []string

// concat joins chains, keeping order.
func concat(chains ...chain) chain {
	var out chain
	for _, c := range chains {
		out = append(out, c...)
	}
	return out
}

// =============================================================================
// HEADER CHAINS
// =============================================================================

// headerChains lists the candidate paths for every document-level scalar.
type headerChains struct {
	Number           chain
	IssueDate        chain
	IssueTime        chain
	DueDate          chain
	UniqueCode       chain
	Currency         chain
	TypeCode         chain
	Note             chain
	PaymentMeansCode chain
	PaymentID        chain
	PaymentDueDate   chain

	UBLVersion         chain
	CustomizationID    chain
	ProfileID          chain
	ProfileExecutionID chain
	LineCount          chain
}

var commercialHeader = headerChains{
	Number:           chain{"cbc:ID"},
	IssueDate:        chain{"cbc:IssueDate"},
	IssueTime:        chain{"cbc:IssueTime"},
	DueDate:          chain{"cbc:DueDate"},
	UniqueCode:       chain{"cbc:UUID"},
	Currency:         chain{"cbc:DocumentCurrencyCode"},
	TypeCode:         chain{"cbc:InvoiceTypeCode", "cbc:CreditNoteTypeCode", "cbc:DebitNoteTypeCode"},
	Note:             chain{"cbc:Note"},
	PaymentMeansCode: chain{"cac:PaymentMeans.cbc:PaymentMeansCode"},
	PaymentID:        chain{"cac:PaymentMeans.cbc:ID"},
	PaymentDueDate:   chain{"cac:PaymentMeans.cbc:PaymentDueDate"},

	UBLVersion:         chain{"cbc:UBLVersionID"},
	CustomizationID:    chain{"cbc:CustomizationID"},
	ProfileID:          chain{"cbc:ProfileID"},
	ProfileExecutionID: chain{"cbc:ProfileExecutionID"},
	LineCount:          chain{"cbc:LineCountNumeric"},
}

// payrollOnlyHeader holds the DIAN payroll encodings, where most values are
// attributes on small marker elements.
var payrollOnlyHeader = headerChains{
	Number:           chain{"NumeroSecuenciaXML.Numero"},
	IssueDate:        chain{"InformacionGeneral.FechaGen"},
	IssueTime:        chain{"InformacionGeneral.HoraGen"},
	DueDate:          chain{"Periodo.FechaLiquidacionFin"},
	UniqueCode:       chain{"InformacionGeneral.CUNE"},
	Currency:         chain{"InformacionGeneral.TipoMoneda"},
	TypeCode:         chain{"InformacionGeneral.TipoNomina"},
	Note:             chain{"Notas"},
	PaymentMeansCode: chain{"Pago.Metodo"},
	PaymentID:        chain{"Pago.Forma"},
	PaymentDueDate:   chain{"FechasPagos.FechaPago"},

	UBLVersion:         chain{"InformacionGeneral.Version"},
	ProfileExecutionID: chain{"InformacionGeneral.Ambiente"},
}

// mergeHeader returns a table whose chains are first's candidates followed by
// second's.
func mergeHeader(first, second headerChains) headerChains {
	return headerChains{
		Number:           concat(first.Number, second.Number),
		IssueDate:        concat(first.IssueDate, second.IssueDate),
		IssueTime:        concat(first.IssueTime, second.IssueTime),
		DueDate:          concat(first.DueDate, second.DueDate),
		UniqueCode:       concat(first.UniqueCode, second.UniqueCode),
		Currency:         concat(first.Currency, second.Currency),
		TypeCode:         concat(first.TypeCode, second.TypeCode),
		Note:             concat(first.Note, second.Note),
		PaymentMeansCode: concat(first.PaymentMeansCode, second.PaymentMeansCode),
		PaymentID:        concat(first.PaymentID, second.PaymentID),
		PaymentDueDate:   concat(first.PaymentDueDate, second.PaymentDueDate),

		UBLVersion:         concat(first.UBLVersion, second.UBLVersion),
		CustomizationID:    concat(first.CustomizationID, second.CustomizationID),
		ProfileID:          concat(first.ProfileID, second.ProfileID),
		ProfileExecutionID: concat(first.ProfileExecutionID, second.ProfileExecutionID),
		LineCount:          concat(first.LineCount, second.LineCount),
	}
}

var (
	payrollHeader = mergeHeader(payrollOnlyHeader, commercialHeader)
	unknownHeader = mergeHeader(commercialHeader, payrollOnlyHeader)
)

// headerChainsFor selects the header table for a kind. Unknown documents get
// the union so that a best-effort record still recovers what it can.
func headerChainsFor(kind types.DocumentKind) headerChains {
	switch kind {
	case types.KindPayroll:
		return payrollHeader
	case types.KindUnknown:
		return unknownHeader
	default:
		return commercialHeader
	}
}

// =============================================================================
// PARTY SUBTREE CHAINS
// =============================================================================

var (
	commercialSupplier = chain{"cac:AccountingSupplierParty.cac:Party"}
	payrollSupplier    = chain{"Empleador", "cac:EmployerParty.cac:Party", "cac:EmployerParty"}

	commercialCustomer = chain{"cac:AccountingCustomerParty.cac:Party"}
	payrollCustomer    = chain{"Trabajador", "cac:EmployeeParty.cac:Party", "cac:EmployeeParty"}
)

// partyChainsFor returns the supplier and customer subtree candidates for a
// kind. Commercial shapes come first except for payroll documents.
func partyChainsFor(kind types.DocumentKind) (supplier, customer chain) {
	if kind == types.KindPayroll {
		return concat(payrollSupplier, commercialSupplier), concat(payrollCustomer, commercialCustomer)
	}
	return concat(commercialSupplier, payrollSupplier), concat(commercialCustomer, payrollCustomer)
}

// =============================================================================
// PARTY FIELD CHAINS
// =============================================================================
// Relative to the resolved party subtree.

var (
	// Tax-scheme registration, then the generic identifier. The legal-entity
	// registration only answers when neither is present.
	partyTaxID = chain{
		"cac:PartyTaxScheme.cbc:CompanyID",
		"cac:PartyIdentification.cbc:ID",
		"cac:PartyLegalEntity.cbc:CompanyID",
		"NIT",
		"NumeroDocumento",
	}

	partyName = chain{
		"cac:PartyName.cbc:Name",
		"cac:PartyTaxScheme.cbc:RegistrationName",
		"RazonSocial",
	}

	// partyLegalName is tried after the natural-person name parts.
	partyLegalName = chain{
		"cac:PartyLegalEntity.cbc:RegistrationName",
	}

	// Name parts of a natural person, UBL then DIAN payroll.
	personNameParts = []chain{
		{"cac:Person.cbc:FirstName"},
		{"cac:Person.cbc:MiddleName"},
		{"cac:Person.cbc:FamilyName"},
	}
	payrollNameParts = []chain{
		{"PrimerNombre"},
		{"OtrosNombres"},
		{"PrimerApellido"},
		{"SegundoApellido"},
	}

	partyCity = chain{
		"cac:PhysicalLocation.cac:Address.cbc:CityName",
		"cac:PartyTaxScheme.cac:RegistrationAddress.cbc:CityName",
		"cac:PostalAddress.cbc:CityName",
		"MunicipioCiudad",
	}

	partyDepartment = chain{
		"cac:PhysicalLocation.cac:Address.cbc:CountrySubentity",
		"cac:PartyTaxScheme.cac:RegistrationAddress.cbc:CountrySubentity",
		"cac:PostalAddress.cbc:CountrySubentity",
		"DepartamentoEstado",
	}

	partyAddress = chain{
		"cac:PhysicalLocation.cac:Address.cac:AddressLine.cbc:Line",
		"cac:PartyTaxScheme.cac:RegistrationAddress.cac:AddressLine.cbc:Line",
		"cac:PostalAddress.cac:AddressLine.cbc:Line",
		"Direccion",
		"LugarTrabajoDireccion",
	}

	partyEmail = chain{
		"cac:Contact.cbc:ElectronicMail",
		"Email",
	}

	partyTaxLevel = chain{
		"cac:PartyTaxScheme.cbc:TaxLevelCode",
	}
)

// =============================================================================
// TOTALS CHAINS
// =============================================================================

// totalsContainers is resolved first; amount fields are read from the winner.
var totalsContainers = chain{"cac:LegalMonetaryTotal", "cac:RequestedMonetaryTotal"}

// amountChain pairs a path inside the totals container with root-level
// payroll fallbacks.
type amountChain struct {
	InContainer chain
	AtRoot      chain
}

var (
	lineExtensionAmount = amountChain{InContainer: chain{"cbc:LineExtensionAmount"}}
	taxExclusiveAmount  = amountChain{InContainer: chain{"cbc:TaxExclusiveAmount"}, AtRoot: chain{"DevengadosTotal"}}
	taxInclusiveAmount  = amountChain{InContainer: chain{"cbc:TaxInclusiveAmount"}}
	allowanceAmount     = amountChain{InContainer: chain{"cbc:AllowanceTotalAmount"}, AtRoot: chain{"DeduccionesTotal"}}
	chargeAmount        = amountChain{InContainer: chain{"cbc:ChargeTotalAmount"}}
	prepaidAmount       = amountChain{InContainer: chain{"cbc:PrepaidAmount"}}
	payableAmount       = amountChain{InContainer: chain{"cbc:PayableAmount"}, AtRoot: chain{"ComprobanteTotal"}}
)

// =============================================================================
// TAX AND LINE CHAINS
// =============================================================================

var (
	taxSchemeName = chain{"cac:TaxCategory.cac:TaxScheme.cbc:Name", "cac:TaxCategory.cac:TaxScheme.cbc:ID"}
	taxPercent    = chain{"cac:TaxCategory.cbc:Percent", "cbc:Percent"}

	lineNodes = chain{"cac:InvoiceLine", "cac:CreditNoteLine", "cac:DebitNoteLine"}

	lineQuantity     = chain{"cbc:InvoicedQuantity", "cbc:CreditedQuantity", "cbc:DebitedQuantity"}
	lineUnitCode     = chain{"cbc:InvoicedQuantity.@unitCode", "cbc:CreditedQuantity.@unitCode", "cbc:DebitedQuantity.@unitCode"}
	lineDescription  = chain{"cac:Item.cbc:Description", "cac:Item.cbc:Name"}
	lineUnitPrice    = chain{"cac:Price.cbc:PriceAmount"}
	lineBaseAmount   = chain{"cbc:LineExtensionAmount"}
	lineBrand        = chain{"cac:Item.cbc:BrandName"}
	lineModel        = chain{"cac:Item.cbc:ModelName"}
	lineStandardCode = chain{
		"cac:Item.cac:StandardItemIdentification.cbc:ID",
		"cac:Item.cac:SellersItemIdentification.cbc:ID",
	}
)

// =============================================================================
// SECTOR ANNEX CHAINS
// =============================================================================
// Relative to each document-level cac:AdditionalDocumentReference.

var (
	referenceNodes    = chain{"cac:AdditionalDocumentReference"}
	referenceTypeCode = chain{"cbc:DocumentTypeCode"}
	referenceID       = chain{"cbc:ID"}
	healthFieldCode   = chain{"cac:IssuerParty.cac:PartyIdentification.cbc:ID"}
)
