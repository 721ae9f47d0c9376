package parsers

import (
	"context"
	"io"

	"warehouse-reconciliation-service/internal/codes"
	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/pkg/errors"
	"warehouse-reconciliation-service/pkg/logger"
)

// InvoiceParser parses invoice line exports into matching targets.
type InvoiceParser struct {
	*BaseParser
	config *InvoiceParserConfig
	logger logger.Logger
}

// NewInvoiceParser creates an InvoiceParser with the given configuration.
func NewInvoiceParser(config *InvoiceParserConfig) (*InvoiceParser, error) {
	if config == nil {
		config = DefaultInvoiceParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"invoice_parser_config",
			config,
			err,
		)
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	return &InvoiceParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("invoice_parser"),
	}, nil
}

// ParseInvoiceLines parses a CSV file of invoice lines into targets.
func (ip *InvoiceParser) ParseInvoiceLines(filePath string) ([]*models.InvoiceLineTarget, *ParseStats, error) {
	return ip.ParseInvoiceLinesWithContext(context.Background(), filePath)
}

// ParseInvoiceLinesWithContext parses invoice line targets with cancellation
// support. The raw identifier of every line is expanded into its candidate
// set at parse time so the matching engine works on ready targets.
func (ip *InvoiceParser) ParseInvoiceLinesWithContext(ctx context.Context, filePath string) ([]*models.InvoiceLineTarget, *ParseStats, error) {
	ip.logger.WithField("file_path", filePath).Info("Starting invoice line parsing")

	file, reader, err := ip.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	requiredHeaders := []string{
		ip.config.GetColumnName("code"),
		ip.config.GetColumnName("package_count"),
		ip.config.GetColumnName("weight"),
		ip.config.GetColumnName("volume"),
	}
	if err := ip.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return nil, stats, err
	}

	var targets []*models.InvoiceLineTarget

	for {
		row, err := ip.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if reconcilerErr, ok := errors.AsReconcilerError(err); ok && reconcilerErr.Category == errors.CategoryInternal {
				return targets, stats, err // cancelled
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "unreadable CSV record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		target, parseErr := ip.parseTarget(row, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := target.Validate(); err != nil {
			ip.logger.WithError(err).WithFields(logger.Fields{
				"line_number": parseCtx.LineNumber,
				"code":        target.RawCode,
			}).Warn("Invoice line target validation failed")

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   "target",
				Value:   target.RawCode,
				Message: "validation failed",
				Err:     err,
			})
			continue
		}

		targets = append(targets, target)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	ip.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount,
	}).Info("Invoice line parsing completed")

	if stats.HasErrors() {
		ip.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Encountered errors during invoice parsing")
	}

	return targets, stats, nil
}

// parseTarget converts one CSV row into an InvoiceLineTarget.
func (ip *InvoiceParser) parseTarget(row []string, parseCtx *ParseContext) (*models.InvoiceLineTarget, *ParseError) {
	rawCode, ok := ip.GetFieldValue(row, parseCtx, ip.config.GetColumnName("code"))
	if !ok || rawCode == "" {
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   ip.config.GetColumnName("code"),
			Message: "invoice code is empty",
		}
	}

	target := &models.InvoiceLineTarget{
		RawCode:  rawCode,
		Expanded: codes.Expand(rawCode),
	}

	pkgField := ip.config.GetColumnName("package_count")
	pkgValue, _ := ip.GetFieldValue(row, parseCtx, pkgField)
	count, err := models.ParseCount(pkgValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: pkgField, Value: pkgValue, Message: "invalid package count", Err: err}
	}
	target.PackageCount = count

	weightField := ip.config.GetColumnName("weight")
	weightValue, _ := ip.GetFieldValue(row, parseCtx, weightField)
	weight, err := models.ParseFloat(weightValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: weightField, Value: weightValue, Message: "invalid target weight", Err: err}
	}
	target.GrossWeight = weight

	volumeField := ip.config.GetColumnName("volume")
	volumeValue, _ := ip.GetFieldValue(row, parseCtx, volumeField)
	volume, err := models.ParseFloat(volumeValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: volumeField, Value: volumeValue, Message: "invalid target volume", Err: err}
	}
	target.Volume = volume

	if month, ok := ip.GetFieldValue(row, parseCtx, ip.config.GetColumnName("month")); ok {
		target.BillingMonth = month
	}

	if location, ok := ip.GetFieldValue(row, parseCtx, ip.config.GetColumnName("location")); ok {
		target.Location = location
	}

	amountField := ip.config.GetColumnName("amount")
	if amountValue, ok := ip.GetFieldValue(row, parseCtx, amountField); ok {
		amount, err := models.ParseDecimalFromString(amountValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: amountField, Value: amountValue, Message: "invalid amount", Err: err}
		}
		target.Amount = amount
	}

	return target, nil
}

// BillingParser parses per-warehouse-month billing exports.
type BillingParser struct {
	*BaseParser
	config *BillingParserConfig
	logger logger.Logger
}

// NewBillingParser creates a BillingParser with the given configuration.
func NewBillingParser(config *BillingParserConfig) (*BillingParser, error) {
	if config == nil {
		config = DefaultBillingParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"billing_parser_config",
			config,
			err,
		)
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	return &BillingParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("billing_parser"),
	}, nil
}

// ParseMonthlyLines parses a CSV file of monthly warehouse charges.
func (bp *BillingParser) ParseMonthlyLines(filePath string) ([]*models.MonthlyInvoiceLine, *ParseStats, error) {
	return bp.ParseMonthlyLinesWithContext(context.Background(), filePath)
}

// ParseMonthlyLinesWithContext parses monthly warehouse charges with
// cancellation support.
func (bp *BillingParser) ParseMonthlyLinesWithContext(ctx context.Context, filePath string) ([]*models.MonthlyInvoiceLine, *ParseStats, error) {
	bp.logger.WithField("file_path", filePath).Info("Starting billing line parsing")

	file, reader, err := bp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	requiredHeaders := []string{
		bp.config.GetColumnName("month"),
		bp.config.GetColumnName("warehouse"),
		bp.config.GetColumnName("amount"),
	}
	if err := bp.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return nil, stats, err
	}

	var lines []*models.MonthlyInvoiceLine

	for {
		row, err := bp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if reconcilerErr, ok := errors.AsReconcilerError(err); ok && reconcilerErr.Category == errors.CategoryInternal {
				return lines, stats, err // cancelled
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "unreadable CSV record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		line, parseErr := bp.parseLine(row, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := line.Validate(); err != nil {
			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   "line",
				Value:   line.Warehouse,
				Message: "validation failed",
				Err:     err,
			})
			continue
		}

		lines = append(lines, line)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	bp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount,
	}).Info("Billing line parsing completed")

	return lines, stats, nil
}

// parseLine converts one CSV row into a MonthlyInvoiceLine.
func (bp *BillingParser) parseLine(row []string, parseCtx *ParseContext) (*models.MonthlyInvoiceLine, *ParseError) {
	month, _ := bp.GetFieldValue(row, parseCtx, bp.config.GetColumnName("month"))
	warehouse, _ := bp.GetFieldValue(row, parseCtx, bp.config.GetColumnName("warehouse"))

	line := &models.MonthlyInvoiceLine{
		Month:     month,
		Warehouse: warehouse,
	}

	amountField := bp.config.GetColumnName("amount")
	amountValue, _ := bp.GetFieldValue(row, parseCtx, amountField)
	amount, err := models.ParseDecimalFromString(amountValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: amountField, Value: amountValue, Message: "invalid amount", Err: err}
	}
	line.Amount = amount

	rateField := bp.config.GetColumnName("rate")
	if rateValue, ok := bp.GetFieldValue(row, parseCtx, rateField); ok && rateValue != "" {
		rate, err := models.ParseDecimalFromString(rateValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: rateField, Value: rateValue, Message: "invalid rate", Err: err}
		}
		line.Rate = rate
	}

	sqmField := bp.config.GetColumnName("billed_sqm")
	if sqmValue, ok := bp.GetFieldValue(row, parseCtx, sqmField); ok && sqmValue != "" {
		sqm, err := models.ParseFloat(sqmValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: sqmField, Value: sqmValue, Message: "invalid billed area", Err: err}
		}
		line.BilledSqm = sqm
	}

	return line, nil
}
