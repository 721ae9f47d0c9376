// Package reporter renders reconciliation run reports.
//
// Three formats are supported: console output for humans, JSON for
// programmatic consumers, and CSV for spreadsheet review. Every format
// carries both report streams — the per-invoice-line match results and the
// per-warehouse-month billing records — plus the run summary. An
// exceptions-only mode restricts the output to non-PASS rows for audit
// follow-up.
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"warehouse-reconciliation-service/internal/billing"
	"warehouse-reconciliation-service/internal/matcher"
	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/internal/reconciler"
	"warehouse-reconciliation-service/pkg/errors"
	"warehouse-reconciliation-service/pkg/logger"
)

// OutputFormat represents the supported report output formats.
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported.
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation.
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// ExceptionsOnly restricts both streams to non-PASS rows.
	ExceptionsOnly bool `json:"exceptions_only"`

	// MaxRows caps the number of rows printed per stream in console
	// output; zero means no cap. JSON and CSV are never truncated.
	MaxRows int `json:"max_rows"`
}

// DefaultReportConfig returns a configuration with sensible defaults.
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format: FormatConsole,
	}
}

// Validate checks if the report configuration is valid.
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.MaxRows < 0 {
		return fmt.Errorf("max rows cannot be negative: %d", c.MaxRows)
	}

	return nil
}

// ReportGenerator renders run reports in the configured format.
type ReportGenerator struct {
	config *ReportConfig
	logger logger.Logger
}

// NewReportGenerator creates a ReportGenerator with the given configuration.
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report_config", config, err)
	}

	return &ReportGenerator{
		config: config,
		logger: logger.GetGlobalLogger().WithComponent("reporter"),
	}, nil
}

// GenerateReport writes the run report to the writer in the configured
// format.
func (rg *ReportGenerator) GenerateReport(report *reconciler.Report, writer io.Writer) error {
	rg.logger.WithFields(logger.Fields{
		"run_id": report.RunID,
		"format": string(rg.config.Format),
	}).Debug("Generating report")

	switch rg.config.Format {
	case FormatConsole:
		return rg.generateConsoleReport(report, writer)
	case FormatJSON:
		return rg.generateJSONReport(report, writer)
	case FormatCSV:
		return rg.generateCSVReport(report, writer)
	default:
		return errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"output_format",
			rg.config.Format,
			fmt.Errorf("unsupported format"),
		)
	}
}

func (rg *ReportGenerator) matchRows(report *reconciler.Report) []*matcher.MatchResult {
	if !rg.config.ExceptionsOnly {
		return report.MatchResults
	}

	var rows []*matcher.MatchResult
	for _, result := range report.MatchResults {
		if result.Verdict != models.VerdictPass {
			rows = append(rows, result)
		}
	}
	return rows
}

func (rg *ReportGenerator) billingRows(report *reconciler.Report) []*billing.WarehouseBillingRecord {
	if !rg.config.ExceptionsOnly {
		return report.BillingRecords
	}

	var rows []*billing.WarehouseBillingRecord
	for _, record := range report.BillingRecords {
		if record.Verdict != models.VerdictPass {
			rows = append(rows, record)
		}
	}
	return rows
}

func (rg *ReportGenerator) generateConsoleReport(report *reconciler.Report, writer io.Writer) error {
	fmt.Fprintf(writer, "RECONCILIATION REPORT\n")
	fmt.Fprintf(writer, "=====================\n")
	fmt.Fprintf(writer, "Run ID:    %s\n", report.RunID)
	fmt.Fprintf(writer, "Started:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(writer, "Duration:  %s\n\n", report.Duration.Round(time.Millisecond))

	summary := report.Summary
	fmt.Fprintf(writer, "SUMMARY\n")
	fmt.Fprintf(writer, "-------\n")
	fmt.Fprintf(writer, "Invoice lines matched:  %d/%d\n", summary.MatchesPassed, summary.TargetsTotal)
	fmt.Fprintf(writer, "Billing lines:          %d PASS, %d WARN, %d FAIL of %d\n\n",
		summary.BillingPassed, summary.BillingWarned, summary.BillingFailed, summary.BillingTotal)

	matchRows := rg.matchRows(report)
	if len(matchRows) > 0 {
		if rg.config.ExceptionsOnly {
			fmt.Fprintf(writer, "MATCH EXCEPTIONS (%d)\n", len(matchRows))
		} else {
			fmt.Fprintf(writer, "MATCH RESULTS (%d)\n", len(matchRows))
		}
		fmt.Fprintf(writer, "%-30s %-8s %-28s %10s %10s %s\n",
			"Code", "Verdict", "Method", "Err(GW)", "Err(CBM)", "Reason")
		fmt.Fprintf(writer, "%s\n", strings.Repeat("-", 100))

		for i, result := range matchRows {
			if rg.config.MaxRows > 0 && i >= rg.config.MaxRows {
				fmt.Fprintf(writer, "... and %d more rows\n", len(matchRows)-i)
				break
			}

			errWeight, errVolume := "-", "-"
			if result.HasSums {
				errWeight = fmt.Sprintf("%+.3f", result.ErrWeight)
				errVolume = fmt.Sprintf("%+.3f", result.ErrVolume)
			}

			fmt.Fprintf(writer, "%-30s %-8s %-28s %10s %10s %s\n",
				truncate(result.Target.RawCode, 30),
				result.Verdict,
				result.Method,
				errWeight,
				errVolume,
				result.Reason)
		}
		fmt.Fprintln(writer)
	}

	billingRows := rg.billingRows(report)
	if len(billingRows) > 0 {
		if rg.config.ExceptionsOnly {
			fmt.Fprintf(writer, "BILLING EXCEPTIONS (%d)\n", len(billingRows))
		} else {
			fmt.Fprintf(writer, "BILLING RESULTS (%d)\n", len(billingRows))
		}
		fmt.Fprintf(writer, "%-8s %-16s %-12s %12s %12s %8s %-8s %s\n",
			"Month", "Warehouse", "Mode", "System", "Invoice", "Delta%", "Verdict", "Reason")
		fmt.Fprintf(writer, "%s\n", strings.Repeat("-", 100))

		for i, record := range billingRows {
			if rg.config.MaxRows > 0 && i >= rg.config.MaxRows {
				fmt.Fprintf(writer, "... and %d more rows\n", len(billingRows)-i)
				break
			}

			fmt.Fprintf(writer, "%-8s %-16s %-12s %12s %12s %8s %-8s %s\n",
				record.Month,
				truncate(record.Warehouse, 16),
				record.Mode,
				record.SystemAmount.StringFixed(2),
				record.InvoiceAmount.StringFixed(2),
				record.DeltaPct.StringFixed(2),
				record.Verdict,
				record.Reason)
		}
		fmt.Fprintln(writer)
	}

	return nil
}

func (rg *ReportGenerator) generateJSONReport(report *reconciler.Report, writer io.Writer) error {
	payload := map[string]interface{}{
		"run_id":          report.RunID,
		"started_at":      report.StartedAt,
		"duration_ms":     report.Duration.Milliseconds(),
		"summary":         report.Summary,
		"match_results":   rg.matchRows(report),
		"billing_records": rg.billingRows(report),
	}

	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(payload)
}

func (rg *ReportGenerator) generateCSVReport(report *reconciler.Report, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	defer csvWriter.Flush()

	// Both streams share one file; the first column tags the stream so the
	// output can be filtered in a spreadsheet.
	header := []string{
		"stream", "run_id", "code_or_warehouse", "month", "verdict", "reason",
		"method_or_mode", "sum_weight", "sum_volume", "err_weight", "err_volume",
		"system_amount", "invoice_amount", "delta_pct",
	}
	if err := csvWriter.Write(header); err != nil {
		return err
	}

	for _, result := range rg.matchRows(report) {
		row := []string{
			"match",
			report.RunID,
			result.Target.RawCode,
			result.Target.BillingMonth,
			result.Verdict.String(),
			string(result.Reason),
			string(result.Method),
			floatField(result.SumWeight, result.HasSums),
			floatField(result.SumVolume, result.HasSums),
			floatField(result.ErrWeight, result.HasSums),
			floatField(result.ErrVolume, result.HasSums),
			"", "", "",
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	for _, record := range rg.billingRows(report) {
		row := []string{
			"billing",
			report.RunID,
			record.Warehouse,
			record.Month,
			record.Verdict.String(),
			string(record.Reason),
			record.Mode.String(),
			"", "", "", "",
			record.SystemAmount.StringFixed(2),
			record.InvoiceAmount.StringFixed(2),
			record.DeltaPct.StringFixed(2),
		}
		if err := csvWriter.Write(row); err != nil {
			return err
		}
	}

	return nil
}

func floatField(value float64, present bool) string {
	if !present {
		return ""
	}
	return strconv.FormatFloat(value, 'f', 4, 64)
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
