package parsers

import (
	"os"
	"path/filepath"
	"testing"

	"warehouse-reconciliation-service/pkg/errors"
)

func writeTempCSV(t *testing.T, name, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write test file: %v", err)
	}
	return path
}

func TestParseShipments(t *testing.T) {
	csv := `HVDC CODE,VENDOR,PKG,G.W(KG),CBM,SQM,Location,Start_Date,Finish_Date
hvdc-adopt-he-0087,HE,3,"1,234.5",12.3,45.0,DSV Indoor,2025-06-01,2025-06-20
HVDC-ADOPT-SIM-0200,SIM,2,500,5.5,,DSV Outdoor,2025-06-10,
`
	path := writeTempCSV(t, "shipments.csv", csv)

	parser, err := NewShipmentParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	records, stats, err := parser.ParseShipments(path)
	if err != nil {
		t.Fatalf("ParseShipments failed: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("Expected 2 records, got %d", len(records))
	}

	if stats.RecordsValid != 2 {
		t.Errorf("Expected 2 valid records, got %d", stats.RecordsValid)
	}

	first := records[0]
	if first.Code != "HVDC-ADOPT-HE-0087" {
		t.Errorf("Expected canonical code HVDC-ADOPT-HE-0087, got %s", first.Code)
	}
	if first.VendorCode != "HE" {
		t.Errorf("Expected vendor HE, got %s", first.VendorCode)
	}
	if first.PackageCount != 3 {
		t.Errorf("Expected 3 packages, got %d", first.PackageCount)
	}
	if first.GrossWeight != 1234.5 {
		t.Errorf("Expected weight 1234.5 (thousand separator stripped), got %f", first.GrossWeight)
	}
	if first.InboundDate == nil || first.OutboundDate == nil {
		t.Error("Expected both dates to be parsed")
	}

	second := records[1]
	if second.OutboundDate != nil {
		t.Error("Expected open-ended record to have no outbound date")
	}
	if second.AreaSqm != 0 {
		t.Errorf("Expected blank area to parse as zero, got %f", second.AreaSqm)
	}
}

func TestParseShipments_SkipsBadRows(t *testing.T) {
	csv := `HVDC CODE,PKG,G.W(KG),CBM
HVDC-ADOPT-HE-0087,3,100.0,1.0
,2,50.0,0.5
HVDC-ADOPT-HE-0090,notanumber,50.0,0.5
HVDC-ADOPT-HE-0091,1,25.0,0.25
`
	path := writeTempCSV(t, "shipments.csv", csv)

	parser, err := NewShipmentParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	records, stats, err := parser.ParseShipments(path)
	if err != nil {
		t.Fatalf("ParseShipments failed: %v", err)
	}

	if len(records) != 2 {
		t.Errorf("Expected 2 valid records, got %d", len(records))
	}

	if stats.ErrorCount != 2 {
		t.Errorf("Expected 2 reported errors, got %d", stats.ErrorCount)
	}
}

func TestParseShipments_MissingColumn(t *testing.T) {
	csv := `HVDC CODE,PKG
HVDC-ADOPT-HE-0087,3
`
	path := writeTempCSV(t, "shipments.csv", csv)

	parser, err := NewShipmentParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, _, err = parser.ParseShipments(path)
	if err == nil {
		t.Fatal("Expected an error for missing required columns")
	}

	reconcilerErr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("Expected a ReconcilerError, got %T", err)
	}
	if reconcilerErr.Code != errors.CodeMissingColumn {
		t.Errorf("Expected code %s, got %s", errors.CodeMissingColumn, reconcilerErr.Code)
	}
}

func TestParseShipments_FileNotFound(t *testing.T) {
	parser, err := NewShipmentParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	_, _, err = parser.ParseShipments("/nonexistent/shipments.csv")
	if err == nil {
		t.Fatal("Expected an error for a missing file")
	}

	reconcilerErr, ok := errors.AsReconcilerError(err)
	if !ok {
		t.Fatalf("Expected a ReconcilerError, got %T", err)
	}
	if reconcilerErr.Code != errors.CodeFileNotFound {
		t.Errorf("Expected code %s, got %s", errors.CodeFileNotFound, reconcilerErr.Code)
	}
}

func TestParseShipments_ColumnAliases(t *testing.T) {
	csv := `Code,Packages,Weight,Volume
HVDC-ADOPT-HE-0087,3,100.0,1.0
`
	path := writeTempCSV(t, "shipments.csv", csv)

	config := DefaultShipmentParserConfig()
	config.ColumnAliases = map[string]string{
		"code":          "Code",
		"package_count": "Packages",
		"weight":        "Weight",
		"volume":        "Volume",
	}

	parser, err := NewShipmentParser(config)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	records, _, err := parser.ParseShipments(path)
	if err != nil {
		t.Fatalf("ParseShipments failed: %v", err)
	}

	if len(records) != 1 {
		t.Fatalf("Expected 1 record, got %d", len(records))
	}
}

func TestParseInvoiceLines(t *testing.T) {
	csv := `HVDC CODE,PKG,G.W(KG),CBM,Billing Month,Location,Amount
"HVDC-ADOPT-HE-0087,90",3,150.0,1.5,2025-06,DSV Indoor,"AED 1,250.00"
HVDC-ADOPT-SIM-0200,1,50.0,0.5,2025-06,DSV Outdoor,200.00
`
	path := writeTempCSV(t, "invoices.csv", csv)

	parser, err := NewInvoiceParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	targets, stats, err := parser.ParseInvoiceLines(path)
	if err != nil {
		t.Fatalf("ParseInvoiceLines failed: %v", err)
	}

	if len(targets) != 2 {
		t.Fatalf("Expected 2 targets, got %d (stats: %s)", len(targets), stats)
	}

	first := targets[0]
	if len(first.Expanded) != 2 {
		t.Fatalf("Expected shorthand to expand to 2 codes, got %v", first.Expanded)
	}
	if !first.InExpanded("HVDC-ADOPT-HE-0087") || !first.InExpanded("HVDC-ADOPT-HE-0090") {
		t.Errorf("Expanded set missing expected codes: %v", first.Expanded)
	}
	if first.Amount.String() != "1250" {
		t.Errorf("Expected amount 1250 with currency marker stripped, got %s", first.Amount)
	}
	if first.BillingMonth != "2025-06" {
		t.Errorf("Expected billing month 2025-06, got %s", first.BillingMonth)
	}
}

func TestParseMonthlyLines(t *testing.T) {
	csv := `Month,Warehouse,Amount,Rate,Billed SQM
2025-06,DSV Indoor,5600.00,47.0,120.5
2025-06,MOSB,0,,
2025-13,Nowhere,10.00,,
`
	path := writeTempCSV(t, "billing.csv", csv)

	parser, err := NewBillingParser(nil)
	if err != nil {
		t.Fatalf("Failed to create parser: %v", err)
	}

	lines, stats, err := parser.ParseMonthlyLines(path)
	if err != nil {
		t.Fatalf("ParseMonthlyLines failed: %v", err)
	}

	// The invalid month is skipped and reported, not fatal.
	if len(lines) != 2 {
		t.Fatalf("Expected 2 valid lines, got %d", len(lines))
	}

	if stats.ErrorCount != 1 {
		t.Errorf("Expected 1 reported error, got %d", stats.ErrorCount)
	}

	first := lines[0]
	if first.Warehouse != "DSV Indoor" {
		t.Errorf("Expected warehouse DSV Indoor, got %s", first.Warehouse)
	}
	if first.Rate.String() != "47" {
		t.Errorf("Expected rate 47, got %s", first.Rate)
	}
	if first.BilledSqm != 120.5 {
		t.Errorf("Expected billed area 120.5, got %f", first.BilledSqm)
	}
}
