// Package config builds the component configurations the CLI hands to the
// parsers, the matching engine, and the reporter, applying flag overrides on
// top of the production defaults.
package config

import (
	"fmt"

	"github.com/shopspring/decimal"

	"warehouse-reconciliation-service/internal/billing"
	"warehouse-reconciliation-service/internal/matcher"
	"warehouse-reconciliation-service/internal/parsers"
	"warehouse-reconciliation-service/internal/reporter"
)

// CreateShipmentParserConfig creates a shipment parser configuration with
// aliases for the column spellings seen across ledger exports.
func CreateShipmentParserConfig() *parsers.ShipmentParserConfig {
	config := parsers.DefaultShipmentParserConfig()
	config.ColumnAliases = map[string]string{
		"code":          config.CodeColumn,
		"vendor":        config.VendorColumn,
		"package_count": config.PackageCountColumn,
		"weight":        config.WeightColumn,
		"volume":        config.VolumeColumn,
		"area":          config.AreaColumn,
		"location":      config.LocationColumn,
		"inbound":       config.InboundColumn,
		"outbound":      config.OutboundColumn,
	}
	return config
}

// CreateInvoiceParserConfig creates an invoice parser configuration.
func CreateInvoiceParserConfig() *parsers.InvoiceParserConfig {
	config := parsers.DefaultInvoiceParserConfig()
	config.ColumnAliases = map[string]string{
		"code":          config.CodeColumn,
		"package_count": config.PackageCountColumn,
		"weight":        config.WeightColumn,
		"volume":        config.VolumeColumn,
		"month":         config.MonthColumn,
		"location":      config.LocationColumn,
		"amount":        config.AmountColumn,
	}
	return config
}

// CreateBillingParserConfig creates a billing parser configuration.
func CreateBillingParserConfig() *parsers.BillingParserConfig {
	return parsers.DefaultBillingParserConfig()
}

// CreateMatchingConfig creates a matching configuration with CLI overrides
// applied. Zero values keep the defaults.
func CreateMatchingConfig(tolerance float64, maxExactItems, maxSearchPasses int) *matcher.MatchingConfig {
	config := matcher.DefaultMatchingConfig()

	if tolerance > 0 {
		config.Tolerance = tolerance
	}
	if maxExactItems > 0 {
		config.MaxExactItems = maxExactItems
	}
	if maxSearchPasses > 0 {
		config.MaxSearchPasses = maxSearchPasses
	}

	return config
}

// CreateBillingConfig creates a billing configuration with CLI threshold
// overrides applied. Zero values keep the defaults.
func CreateBillingConfig(passThresholdPct, warnThresholdPct float64) (*billing.Config, error) {
	config := billing.DefaultConfig()

	if passThresholdPct > 0 {
		config.PassThresholdPct = decimal.NewFromFloat(passThresholdPct)
	}
	if warnThresholdPct > 0 {
		config.WarnThresholdPct = decimal.NewFromFloat(warnThresholdPct)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// CreateReportConfig creates a report configuration for the given format.
func CreateReportConfig(format string, exceptionsOnly bool) (*reporter.ReportConfig, error) {
	config := reporter.DefaultReportConfig()
	config.ExceptionsOnly = exceptionsOnly

	switch format {
	case "console", "":
		config.Format = reporter.FormatConsole
	case "json":
		config.Format = reporter.FormatJSON
	case "csv":
		config.Format = reporter.FormatCSV
	default:
		return nil, fmt.Errorf("unsupported output format '%s' (use console, json, or csv)", format)
	}

	return config, nil
}
