package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"warehouse-reconciliation-service/cmd/reconciler/config"
	"warehouse-reconciliation-service/internal/parsers"
	"warehouse-reconciliation-service/internal/reconciler"
	"warehouse-reconciliation-service/internal/reporter"
	"warehouse-reconciliation-service/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Flags for the verify command
var (
	shipmentsFile string
	invoiceFile   string
	billingFile   string
	outputFormat  string
	outputFile    string

	tolerance       float64
	maxExactItems   int
	maxSearchPasses int
	passThreshold   float64
	warnThreshold   float64

	exceptionsOnly bool
)

// verifyCmd represents the verify command
var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify an invoice against the shipment ledger",
	Long: `Verify matches every invoice line against the shipment ledger and, when a
billing file is supplied, checks monthly warehouse charges against prorated
occupancy. The result is a report of PASS/WARN/FAIL verdicts with reason
codes; a non-clean report never aborts the run.

This command requires:
- A shipment ledger file (CSV format)
- An invoice line file (CSV format)

Examples:
  # Match invoice lines only
  reconciler verify --shipments-file ledger.csv --invoice-file invoice.csv

  # Include warehouse billing verification
  reconciler verify --shipments-file ledger.csv --invoice-file invoice.csv \
    --billing-file warehouse_charges.csv

  # Exceptions only, as CSV, into a file
  reconciler verify --shipments-file ledger.csv --invoice-file invoice.csv \
    --output-format csv --output-file exceptions.csv --exceptions-only

  # Loosen the matching tolerance
  reconciler verify --shipments-file ledger.csv --invoice-file invoice.csv \
    --tolerance 0.25`,

	PreRunE: validateVerifyFlags,
	RunE:    runVerify,
}

func init() {
	rootCmd.AddCommand(verifyCmd)

	// Required flags
	verifyCmd.Flags().StringVarP(&shipmentsFile, "shipments-file", "s", "", "path to shipment ledger CSV file (required)")
	verifyCmd.Flags().StringVarP(&invoiceFile, "invoice-file", "i", "", "path to invoice line CSV file (required)")

	// Optional inputs
	verifyCmd.Flags().StringVarP(&billingFile, "billing-file", "b", "", "path to monthly warehouse billing CSV file")

	// Output flags
	verifyCmd.Flags().StringVarP(&outputFormat, "output-format", "f", "console", "output format: console, json, csv")
	verifyCmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
	verifyCmd.Flags().BoolVar(&exceptionsOnly, "exceptions-only", false, "report only non-PASS rows")

	// Matching configuration flags
	verifyCmd.Flags().Float64VarP(&tolerance, "tolerance", "t", 0, "weight/volume matching tolerance (default 0.10)")
	verifyCmd.Flags().IntVar(&maxExactItems, "max-exact-items", 0, "largest pool enumerated exactly (default 18)")
	verifyCmd.Flags().IntVar(&maxSearchPasses, "max-search-passes", 0, "local search pass cap (default 300)")

	// Billing threshold flags
	verifyCmd.Flags().Float64Var(&passThreshold, "pass-threshold", 0, "rate-mode PASS threshold in percent (default 2)")
	verifyCmd.Flags().Float64Var(&warnThreshold, "warn-threshold", 0, "rate-mode WARN threshold in percent (default 5)")

	verifyCmd.MarkFlagRequired("shipments-file")
	verifyCmd.MarkFlagRequired("invoice-file")

	viper.BindPFlag("shipments-file", verifyCmd.Flags().Lookup("shipments-file"))
	viper.BindPFlag("invoice-file", verifyCmd.Flags().Lookup("invoice-file"))
	viper.BindPFlag("billing-file", verifyCmd.Flags().Lookup("billing-file"))
	viper.BindPFlag("output-format", verifyCmd.Flags().Lookup("output-format"))
	viper.BindPFlag("output-file", verifyCmd.Flags().Lookup("output-file"))
	viper.BindPFlag("exceptions-only", verifyCmd.Flags().Lookup("exceptions-only"))
	viper.BindPFlag("tolerance", verifyCmd.Flags().Lookup("tolerance"))
	viper.BindPFlag("max-exact-items", verifyCmd.Flags().Lookup("max-exact-items"))
	viper.BindPFlag("max-search-passes", verifyCmd.Flags().Lookup("max-search-passes"))
	viper.BindPFlag("pass-threshold", verifyCmd.Flags().Lookup("pass-threshold"))
	viper.BindPFlag("warn-threshold", verifyCmd.Flags().Lookup("warn-threshold"))
}

func validateVerifyFlags(cmd *cobra.Command, args []string) error {
	// Viper values win so config files and RECONCILER_* env vars can
	// override the flag defaults.
	shipmentsFile = viper.GetString("shipments-file")
	invoiceFile = viper.GetString("invoice-file")
	billingFile = viper.GetString("billing-file")
	outputFormat = viper.GetString("output-format")
	outputFile = viper.GetString("output-file")
	exceptionsOnly = viper.GetBool("exceptions-only")
	tolerance = viper.GetFloat64("tolerance")
	maxExactItems = viper.GetInt("max-exact-items")
	maxSearchPasses = viper.GetInt("max-search-passes")
	passThreshold = viper.GetFloat64("pass-threshold")
	warnThreshold = viper.GetFloat64("warn-threshold")

	if shipmentsFile == "" {
		return fmt.Errorf("shipments-file is required")
	}
	if invoiceFile == "" {
		return fmt.Errorf("invoice-file is required")
	}

	if err := validateFileExists(shipmentsFile, "shipment ledger file"); err != nil {
		return err
	}
	if err := validateFileExists(invoiceFile, "invoice file"); err != nil {
		return err
	}
	if billingFile != "" {
		if err := validateFileExists(billingFile, "billing file"); err != nil {
			return err
		}
	}

	validFormats := map[string]bool{"console": true, "json": true, "csv": true}
	if !validFormats[outputFormat] {
		return fmt.Errorf("invalid output format '%s'. Valid formats: console, json, csv", outputFormat)
	}

	if tolerance < 0 {
		return fmt.Errorf("tolerance cannot be negative")
	}
	if maxExactItems < 0 {
		return fmt.Errorf("max-exact-items cannot be negative")
	}
	if maxSearchPasses < 0 {
		return fmt.Errorf("max-search-passes cannot be negative")
	}
	if passThreshold < 0 || warnThreshold < 0 {
		return fmt.Errorf("billing thresholds cannot be negative")
	}
	if passThreshold > 0 && warnThreshold > 0 && warnThreshold < passThreshold {
		return fmt.Errorf("warn-threshold cannot be below pass-threshold")
	}

	if outputFile != "" {
		dir := filepath.Dir(outputFile)
		if dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return fmt.Errorf("output directory does not exist: %s", dir)
			}
		}
	}

	return nil
}

func validateFileExists(filePath, description string) error {
	if filePath == "" {
		return fmt.Errorf("%s path cannot be empty", description)
	}

	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s does not exist: %s", description, filePath)
	}
	if err != nil {
		return fmt.Errorf("error accessing %s: %w", description, err)
	}

	if info.IsDir() {
		return fmt.Errorf("%s is a directory, expected a file: %s", description, filePath)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return fmt.Errorf("%s is not readable: %w", description, err)
	}
	file.Close()

	return nil
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx := context.Background()
	errorHandler := NewCLIErrorHandler()

	if viper.GetBool("verbose") {
		if debugLogger, err := logger.NewLogger(logger.DebugConfig()); err == nil {
			logger.SetGlobalLogger(debugLogger)
		}
	}

	// Parse inputs
	shipmentParser, err := parsers.NewShipmentParser(config.CreateShipmentParserConfig())
	if err != nil {
		return errorHandler.Exit(err)
	}
	shipments, shipmentStats, err := shipmentParser.ParseShipmentsWithContext(ctx, shipmentsFile)
	if err != nil {
		return errorHandler.Exit(err)
	}

	invoiceParser, err := parsers.NewInvoiceParser(config.CreateInvoiceParserConfig())
	if err != nil {
		return errorHandler.Exit(err)
	}
	targets, invoiceStats, err := invoiceParser.ParseInvoiceLinesWithContext(ctx, invoiceFile)
	if err != nil {
		return errorHandler.Exit(err)
	}

	request := &reconciler.Request{
		Shipments: shipments,
		Targets:   targets,
	}

	if billingFile != "" {
		billingParser, err := parsers.NewBillingParser(config.CreateBillingParserConfig())
		if err != nil {
			return errorHandler.Exit(err)
		}
		billingLines, _, err := billingParser.ParseMonthlyLinesWithContext(ctx, billingFile)
		if err != nil {
			return errorHandler.Exit(err)
		}
		request.BillingLines = billingLines
	}

	if viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Shipments: %s\n", shipmentStats)
		fmt.Fprintf(os.Stderr, "Invoice lines: %s\n", invoiceStats)
	}

	// Reconcile
	billingConfig, err := config.CreateBillingConfig(passThreshold, warnThreshold)
	if err != nil {
		return errorHandler.Exit(err)
	}

	service, err := reconciler.NewService(
		config.CreateMatchingConfig(tolerance, maxExactItems, maxSearchPasses),
		billingConfig,
	)
	if err != nil {
		return errorHandler.Exit(err)
	}

	report, err := service.Reconcile(ctx, request)
	if err != nil {
		return errorHandler.Exit(err)
	}

	// Report
	reportConfig, err := config.CreateReportConfig(outputFormat, exceptionsOnly)
	if err != nil {
		return errorHandler.Exit(err)
	}

	generator, err := reporter.NewReportGenerator(reportConfig)
	if err != nil {
		return errorHandler.Exit(err)
	}

	var writer io.Writer = os.Stdout
	if outputFile != "" {
		file, err := os.Create(outputFile)
		if err != nil {
			return errorHandler.Exit(fmt.Errorf("failed to create output file: %w", err))
		}
		defer file.Close()
		writer = file
	}

	if err := generator.GenerateReport(report, writer); err != nil {
		return errorHandler.Exit(err)
	}

	if outputFile != "" && viper.GetBool("verbose") {
		fmt.Fprintf(os.Stderr, "Report written to %s\n", outputFile)
	}

	return nil
}
