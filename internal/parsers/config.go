package parsers

import (
	"fmt"
	"strings"
)

// ShipmentParserConfig maps the columns of a shipment ledger export onto the
// fields the reconciler needs. Aliases take precedence, so a run against an
// export with renamed columns only needs an alias table, not code changes.
type ShipmentParserConfig struct {
	CodeColumn         string            `json:"code_column"`
	VendorColumn       string            `json:"vendor_column"`
	PackageCountColumn string            `json:"package_count_column"`
	WeightColumn       string            `json:"weight_column"`
	VolumeColumn       string            `json:"volume_column"`
	AreaColumn         string            `json:"area_column"`
	LocationColumn     string            `json:"location_column"`
	InboundColumn      string            `json:"inbound_column"`
	OutboundColumn     string            `json:"outbound_column"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks if the shipment parser configuration is valid.
func (c *ShipmentParserConfig) Validate() error {
	if strings.TrimSpace(c.CodeColumn) == "" {
		return fmt.Errorf("code column cannot be empty")
	}

	if strings.TrimSpace(c.PackageCountColumn) == "" {
		return fmt.Errorf("package count column cannot be empty")
	}

	if strings.TrimSpace(c.WeightColumn) == "" {
		return fmt.Errorf("weight column cannot be empty")
	}

	if strings.TrimSpace(c.VolumeColumn) == "" {
		return fmt.Errorf("volume column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first.
func (c *ShipmentParserConfig) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "code":
		return c.CodeColumn
	case "vendor":
		return c.VendorColumn
	case "package_count":
		return c.PackageCountColumn
	case "weight":
		return c.WeightColumn
	case "volume":
		return c.VolumeColumn
	case "area":
		return c.AreaColumn
	case "location":
		return c.LocationColumn
	case "inbound":
		return c.InboundColumn
	case "outbound":
		return c.OutboundColumn
	default:
		return standardName
	}
}

// DefaultShipmentParserConfig returns the column mapping of the standard
// shipment ledger export.
func DefaultShipmentParserConfig() *ShipmentParserConfig {
	return &ShipmentParserConfig{
		CodeColumn:         "HVDC CODE",
		VendorColumn:       "VENDOR",
		PackageCountColumn: "PKG",
		WeightColumn:       "G.W(KG)",
		VolumeColumn:       "CBM",
		AreaColumn:         "SQM",
		LocationColumn:     "Location",
		InboundColumn:      "Start_Date",
		OutboundColumn:     "Finish_Date",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases:      make(map[string]string),
	}
}

// InvoiceParserConfig maps the columns of an invoice line export.
type InvoiceParserConfig struct {
	CodeColumn         string            `json:"code_column"`
	PackageCountColumn string            `json:"package_count_column"`
	WeightColumn       string            `json:"weight_column"`
	VolumeColumn       string            `json:"volume_column"`
	MonthColumn        string            `json:"month_column"`
	LocationColumn     string            `json:"location_column"`
	AmountColumn       string            `json:"amount_column"`
	HasHeader          bool              `json:"has_header"`
	Delimiter          rune              `json:"delimiter"`
	ColumnAliases      map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks if the invoice parser configuration is valid.
func (c *InvoiceParserConfig) Validate() error {
	if strings.TrimSpace(c.CodeColumn) == "" {
		return fmt.Errorf("code column cannot be empty")
	}

	if strings.TrimSpace(c.PackageCountColumn) == "" {
		return fmt.Errorf("package count column cannot be empty")
	}

	if strings.TrimSpace(c.WeightColumn) == "" {
		return fmt.Errorf("weight column cannot be empty")
	}

	if strings.TrimSpace(c.VolumeColumn) == "" {
		return fmt.Errorf("volume column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first.
func (c *InvoiceParserConfig) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "code":
		return c.CodeColumn
	case "package_count":
		return c.PackageCountColumn
	case "weight":
		return c.WeightColumn
	case "volume":
		return c.VolumeColumn
	case "month":
		return c.MonthColumn
	case "location":
		return c.LocationColumn
	case "amount":
		return c.AmountColumn
	default:
		return standardName
	}
}

// DefaultInvoiceParserConfig returns the column mapping of the standard
// invoice export.
func DefaultInvoiceParserConfig() *InvoiceParserConfig {
	return &InvoiceParserConfig{
		CodeColumn:         "HVDC CODE",
		PackageCountColumn: "PKG",
		WeightColumn:       "G.W(KG)",
		VolumeColumn:       "CBM",
		MonthColumn:        "Billing Month",
		LocationColumn:     "Location",
		AmountColumn:       "Amount",
		HasHeader:          true,
		Delimiter:          ',',
		ColumnAliases:      make(map[string]string),
	}
}

// BillingParserConfig maps the columns of a per-warehouse-month billing
// export.
type BillingParserConfig struct {
	MonthColumn     string            `json:"month_column"`
	WarehouseColumn string            `json:"warehouse_column"`
	AmountColumn    string            `json:"amount_column"`
	RateColumn      string            `json:"rate_column"`
	BilledSqmColumn string            `json:"billed_sqm_column"`
	HasHeader       bool              `json:"has_header"`
	Delimiter       rune              `json:"delimiter"`
	ColumnAliases   map[string]string `json:"column_aliases,omitempty"`
}

// Validate checks if the billing parser configuration is valid.
func (c *BillingParserConfig) Validate() error {
	if strings.TrimSpace(c.MonthColumn) == "" {
		return fmt.Errorf("month column cannot be empty")
	}

	if strings.TrimSpace(c.WarehouseColumn) == "" {
		return fmt.Errorf("warehouse column cannot be empty")
	}

	if strings.TrimSpace(c.AmountColumn) == "" {
		return fmt.Errorf("amount column cannot be empty")
	}

	return nil
}

// GetColumnName returns the actual column name, checking aliases first.
func (c *BillingParserConfig) GetColumnName(standardName string) string {
	if alias, exists := c.ColumnAliases[standardName]; exists {
		return alias
	}

	switch standardName {
	case "month":
		return c.MonthColumn
	case "warehouse":
		return c.WarehouseColumn
	case "amount":
		return c.AmountColumn
	case "rate":
		return c.RateColumn
	case "billed_sqm":
		return c.BilledSqmColumn
	default:
		return standardName
	}
}

// DefaultBillingParserConfig returns the column mapping of the standard
// billing export.
func DefaultBillingParserConfig() *BillingParserConfig {
	return &BillingParserConfig{
		MonthColumn:     "Month",
		WarehouseColumn: "Warehouse",
		AmountColumn:    "Amount",
		RateColumn:      "Rate",
		BilledSqmColumn: "Billed SQM",
		HasHeader:       true,
		Delimiter:       ',',
		ColumnAliases:   make(map[string]string),
	}
}
