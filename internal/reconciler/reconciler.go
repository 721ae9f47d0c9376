// Package reconciler orchestrates a reconciliation run: it drives the
// matching engine over every invoice line target, drives the billing
// verifier over every warehouse-month charge, and assembles both streams
// into one run report with a shared verdict vocabulary.
//
// A run never aborts on a bad row. Matching and billing failures become
// FAIL rows with reason codes; the only fatal condition is missing input.
package reconciler

import (
	"context"
	"time"

	"github.com/google/uuid"

	"warehouse-reconciliation-service/internal/billing"
	"warehouse-reconciliation-service/internal/matcher"
	"warehouse-reconciliation-service/internal/models"
	"warehouse-reconciliation-service/pkg/errors"
	"warehouse-reconciliation-service/pkg/logger"
)

// Service runs reconciliations. Construct one per configuration; a Service
// is safe for sequential reuse across runs.
type Service struct {
	matchingEngine *matcher.MatchingEngine
	verifier       *billing.Verifier
	logger         logger.Logger
}

// NewService creates a reconciliation service. Nil configs select the
// production defaults.
func NewService(matchingConfig *matcher.MatchingConfig, billingConfig *billing.Config) (*Service, error) {
	if matchingConfig == nil {
		matchingConfig = matcher.DefaultMatchingConfig()
	}
	if err := matchingConfig.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "matching_config", matchingConfig, err)
	}

	if billingConfig == nil {
		billingConfig = billing.DefaultConfig()
	}
	if err := billingConfig.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "billing_config", billingConfig, err)
	}

	return &Service{
		matchingEngine: matcher.NewMatchingEngine(matchingConfig),
		verifier:       billing.NewVerifier(billingConfig),
		logger:         logger.GetGlobalLogger().WithComponent("reconciler"),
	}, nil
}

// Request carries the inputs of one reconciliation run. Shipments and
// targets are required; billing lines are optional, and a run without them
// produces an empty billing stream.
type Request struct {
	Shipments    []*models.ShipmentRecord
	Targets      []*models.InvoiceLineTarget
	BillingLines []*models.MonthlyInvoiceLine
}

// Validate checks that the request carries the required inputs.
func (r *Request) Validate() error {
	if len(r.Shipments) == 0 {
		return errors.ReconciliationError(errors.CodeMissingInput, "matching", nil).
			WithContext("input", "shipments")
	}

	if len(r.Targets) == 0 {
		return errors.ReconciliationError(errors.CodeMissingInput, "matching", nil).
			WithContext("input", "invoice_targets")
	}

	return nil
}

// Report is the combined result of one reconciliation run.
type Report struct {
	RunID     string        `json:"run_id"`
	StartedAt time.Time     `json:"started_at"`
	Duration  time.Duration `json:"duration"`

	MatchResults   []*matcher.MatchResult            `json:"match_results"`
	BillingRecords []*billing.WarehouseBillingRecord `json:"billing_records"`

	Summary *Summary `json:"summary"`
}

// Summary aggregates verdict counts across both report streams.
type Summary struct {
	TargetsTotal  int `json:"targets_total"`
	MatchesPassed int `json:"matches_passed"`
	MatchesFailed int `json:"matches_failed"`

	BillingTotal  int `json:"billing_total"`
	BillingPassed int `json:"billing_passed"`
	BillingWarned int `json:"billing_warned"`
	BillingFailed int `json:"billing_failed"`
}

// Clean reports whether every row in both streams passed.
func (s *Summary) Clean() bool {
	return s.MatchesFailed == 0 && s.BillingWarned == 0 && s.BillingFailed == 0
}

// Reconcile runs matching and billing verification over the request inputs.
func (s *Service) Reconcile(ctx context.Context, request *Request) (*Report, error) {
	if err := request.Validate(); err != nil {
		return nil, err
	}

	report := &Report{
		RunID:     uuid.New().String(),
		StartedAt: time.Now(),
		Summary:   &Summary{},
	}

	runLog := s.logger.WithField("run_id", report.RunID)
	runLog.WithFields(logger.Fields{
		"shipments":     len(request.Shipments),
		"targets":       len(request.Targets),
		"billing_lines": len(request.BillingLines),
	}).Info("Starting reconciliation run")

	if err := s.matchTargets(ctx, request, report, runLog); err != nil {
		return nil, err
	}

	s.verifyBilling(request, report)

	report.Duration = time.Since(report.StartedAt)

	runLog.WithFields(logger.Fields{
		"duration_ms":    report.Duration.Milliseconds(),
		"matches_passed": report.Summary.MatchesPassed,
		"matches_failed": report.Summary.MatchesFailed,
		"billing_passed": report.Summary.BillingPassed,
		"billing_warned": report.Summary.BillingWarned,
		"billing_failed": report.Summary.BillingFailed,
	}).Info("Reconciliation run completed")

	return report, nil
}

// matchTargets runs the matching engine over every invoice line target.
func (s *Service) matchTargets(ctx context.Context, request *Request, report *Report, runLog logger.Logger) error {
	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "matching",
		Total:     int64(len(request.Targets)),
		Logger:    runLog,
	})

	report.MatchResults = make([]*matcher.MatchResult, 0, len(request.Targets))
	report.Summary.TargetsTotal = len(request.Targets)

	for _, target := range request.Targets {
		select {
		case <-ctx.Done():
			return errors.InternalError(errors.CodeUnexpectedError, "matching", ctx.Err())
		default:
		}

		result := s.matchingEngine.MatchTarget(request.Shipments, target)
		report.MatchResults = append(report.MatchResults, result)

		if result.Verdict == models.VerdictPass {
			report.Summary.MatchesPassed++
		} else {
			report.Summary.MatchesFailed++
		}

		progress.Increment()
	}

	progress.Done()
	return nil
}

// verifyBilling groups billing lines by month, computes occupancy once per
// month, and verifies every line against it. Lines whose month cannot be
// parsed get verified with zero occupancy; the verifier then grades the
// discrepancy instead of the run aborting.
func (s *Service) verifyBilling(request *Request, report *Report) {
	if len(request.BillingLines) == 0 {
		return
	}

	occupancyByMonth := make(map[string]map[string]float64)

	report.BillingRecords = make([]*billing.WarehouseBillingRecord, 0, len(request.BillingLines))
	report.Summary.BillingTotal = len(request.BillingLines)

	for _, line := range request.BillingLines {
		occupancy, ok := occupancyByMonth[line.Month]
		if !ok {
			occupancy = make(map[string]float64)
			if month, err := models.ParseMonth(line.Month); err == nil {
				occupancy = billing.MonthlyOccupancy(request.Shipments, month, s.verifier.Config())
			}
			occupancyByMonth[line.Month] = occupancy
		}

		warehouse := s.verifier.Config().NormalizeWarehouse(line.Warehouse)
		record := s.verifier.VerifyLine(line, occupancy[warehouse])
		report.BillingRecords = append(report.BillingRecords, record)

		switch record.Verdict {
		case models.VerdictPass:
			report.Summary.BillingPassed++
		case models.VerdictWarn:
			report.Summary.BillingWarned++
		default:
			report.Summary.BillingFailed++
		}
	}
}
