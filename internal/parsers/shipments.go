package parsers

import (
	"context"
	"io"

	"warehouse-reconciliation-service/internal/codes"
	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/pkg/errors"
	"warehouse-reconciliation-service/pkg/logger"
)

// ShipmentParser parses the authoritative shipment ledger CSV.
type ShipmentParser struct {
	*BaseParser
	config *ShipmentParserConfig
	logger logger.Logger
}

// NewShipmentParser creates a ShipmentParser with the given configuration.
func NewShipmentParser(config *ShipmentParserConfig) (*ShipmentParser, error) {
	if config == nil {
		config = DefaultShipmentParserConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(
			errors.CodeInvalidConfig,
			"shipment_parser_config",
			config,
			err,
		)
	}

	parseConfig := DefaultParseConfig()
	parseConfig.HasHeader = config.HasHeader
	parseConfig.Delimiter = config.Delimiter

	return &ShipmentParser{
		BaseParser: NewBaseParser(parseConfig),
		config:     config,
		logger:     logger.GetGlobalLogger().WithComponent("shipment_parser"),
	}, nil
}

// ParseShipments parses a CSV file of shipment records.
func (sp *ShipmentParser) ParseShipments(filePath string) ([]*models.ShipmentRecord, *ParseStats, error) {
	return sp.ParseShipmentsWithContext(context.Background(), filePath)
}

// ParseShipmentsWithContext parses shipment records with cancellation
// support. Rows that cannot be parsed or validated are skipped and reported
// in the stats; only structural failures return an error.
func (sp *ShipmentParser) ParseShipmentsWithContext(ctx context.Context, filePath string) ([]*models.ShipmentRecord, *ParseStats, error) {
	sp.logger.WithField("file_path", filePath).Info("Starting shipment parsing")

	file, reader, err := sp.OpenFile(filePath)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	parseCtx := NewParseContext(ctx)
	stats := NewParseStats()

	requiredHeaders := []string{
		sp.config.GetColumnName("code"),
		sp.config.GetColumnName("package_count"),
		sp.config.GetColumnName("weight"),
		sp.config.GetColumnName("volume"),
	}
	if err := sp.ReadHeaders(reader, parseCtx, requiredHeaders); err != nil {
		return nil, stats, err
	}

	var records []*models.ShipmentRecord

	for {
		row, err := sp.ReadRecord(reader, parseCtx)
		if err != nil {
			if err == io.EOF {
				break
			}
			if reconcilerErr, ok := errors.AsReconcilerError(err); ok && reconcilerErr.Category == errors.CategoryInternal {
				return records, stats, err // cancelled
			}

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Message: "unreadable CSV record",
				Err:     err,
			})
			continue
		}

		stats.RecordsParsed++

		record, parseErr := sp.parseRecord(row, parseCtx)
		if parseErr != nil {
			stats.AddError(parseErr)
			continue
		}

		if err := record.Validate(); err != nil {
			sp.logger.WithError(err).WithFields(logger.Fields{
				"line_number": parseCtx.LineNumber,
				"code":        record.Code,
			}).Warn("Shipment record validation failed")

			stats.AddError(&ParseError{
				Line:    parseCtx.LineNumber,
				Field:   "record",
				Value:   record.Code,
				Message: "validation failed",
				Err:     err,
			})
			continue
		}

		records = append(records, record)
		stats.RecordsValid++
	}

	stats.TotalLines = parseCtx.LineNumber

	sp.logger.WithFields(logger.Fields{
		"file_path":      filePath,
		"records_parsed": stats.RecordsParsed,
		"records_valid":  stats.RecordsValid,
		"error_count":    stats.ErrorCount,
	}).Info("Shipment parsing completed")

	if stats.HasErrors() {
		sp.logger.WithField("sample_errors", stats.GetSampleErrors(3)).Warn("Encountered errors during shipment parsing")
	}

	return records, stats, nil
}

// parseRecord converts one CSV row into a ShipmentRecord.
func (sp *ShipmentParser) parseRecord(row []string, parseCtx *ParseContext) (*models.ShipmentRecord, *ParseError) {
	rawCode, ok := sp.GetFieldValue(row, parseCtx, sp.config.GetColumnName("code"))
	if !ok || rawCode == "" {
		return nil, &ParseError{
			Line:    parseCtx.LineNumber,
			Field:   sp.config.GetColumnName("code"),
			Message: "shipment code is empty",
		}
	}

	canonical := codes.Normalize(rawCode)
	parts := codes.Split(rawCode)

	record := &models.ShipmentRecord{
		Code:      canonical,
		CodeParts: parts,
	}

	// Vendor comes from its own column when present, from the code's third
	// structural part otherwise.
	if vendor, ok := sp.GetFieldValue(row, parseCtx, sp.config.GetColumnName("vendor")); ok && vendor != "" {
		record.VendorCode = codes.Normalize(vendor)
	} else {
		record.VendorCode = parts[2]
	}

	pkgField := sp.config.GetColumnName("package_count")
	pkgValue, _ := sp.GetFieldValue(row, parseCtx, pkgField)
	count, err := models.ParseCount(pkgValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: pkgField, Value: pkgValue, Message: "invalid package count", Err: err}
	}
	record.PackageCount = count

	weightField := sp.config.GetColumnName("weight")
	weightValue, _ := sp.GetFieldValue(row, parseCtx, weightField)
	weight, err := models.ParseFloat(weightValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: weightField, Value: weightValue, Message: "invalid gross weight", Err: err}
	}
	record.GrossWeight = weight

	volumeField := sp.config.GetColumnName("volume")
	volumeValue, _ := sp.GetFieldValue(row, parseCtx, volumeField)
	volume, err := models.ParseFloat(volumeValue)
	if err != nil {
		return nil, &ParseError{Line: parseCtx.LineNumber, Field: volumeField, Value: volumeValue, Message: "invalid volume", Err: err}
	}
	record.Volume = volume

	if areaValue, ok := sp.GetFieldValue(row, parseCtx, sp.config.GetColumnName("area")); ok && areaValue != "" {
		area, err := models.ParseFloat(areaValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: sp.config.GetColumnName("area"), Value: areaValue, Message: "invalid area", Err: err}
		}
		record.AreaSqm = area
	}

	if location, ok := sp.GetFieldValue(row, parseCtx, sp.config.GetColumnName("location")); ok {
		record.Location = location
	}

	inboundField := sp.config.GetColumnName("inbound")
	if inboundValue, ok := sp.GetFieldValue(row, parseCtx, inboundField); ok {
		inbound, err := models.ParseOptionalTime(inboundValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: inboundField, Value: inboundValue, Message: "invalid inbound date", Err: err}
		}
		record.InboundDate = inbound
	}

	outboundField := sp.config.GetColumnName("outbound")
	if outboundValue, ok := sp.GetFieldValue(row, parseCtx, outboundField); ok {
		outbound, err := models.ParseOptionalTime(outboundValue)
		if err != nil {
			return nil, &ParseError{Line: parseCtx.LineNumber, Field: outboundField, Value: outboundValue, Message: "invalid outbound date", Err: err}
		}
		record.OutboundDate = outbound
	}

	return record, nil
}
