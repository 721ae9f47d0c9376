package logger

import (
	"fmt"
	"sync"
	"time"
)

// ProgressTracker reports progress of long-running batch operations, such as
// matching every invoice line of a large invoice against the shipment set.
type ProgressTracker struct {
	logger      Logger
	operation   string
	total       int64
	current     int64
	startTime   time.Time
	lastLogTime time.Time
	logInterval time.Duration
	mutex       sync.Mutex
}

// ProgressConfig configures progress tracking behavior.
type ProgressConfig struct {
	Operation   string
	Total       int64
	LogInterval time.Duration
	Logger      Logger
}

// NewProgressTracker creates a new progress tracker and logs the start of the
// operation.
func NewProgressTracker(config ProgressConfig) *ProgressTracker {
	if config.Logger == nil {
		config.Logger = GetGlobalLogger()
	}
	if config.LogInterval == 0 {
		config.LogInterval = 5 * time.Second
	}

	tracker := &ProgressTracker{
		logger:      config.Logger.WithComponent("progress"),
		operation:   config.Operation,
		total:       config.Total,
		startTime:   time.Now(),
		lastLogTime: time.Now(),
		logInterval: config.LogInterval,
	}

	tracker.logger.WithFields(Fields{
		"operation": config.Operation,
		"total":     config.Total,
	}).Info("Starting operation")

	return tracker
}

// Increment advances the progress counter by one, logging at most once per
// configured interval.
func (p *ProgressTracker) Increment() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.current++
	if time.Since(p.lastLogTime) < p.logInterval {
		return
	}
	p.lastLogTime = time.Now()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"total":     p.total,
		"percent":   p.percent(),
		"elapsed":   time.Since(p.startTime).Round(time.Millisecond).String(),
	}).Info("Operation in progress")
}

// Done logs completion of the operation with final counts and duration.
func (p *ProgressTracker) Done() {
	p.mutex.Lock()
	defer p.mutex.Unlock()

	p.logger.WithFields(Fields{
		"operation": p.operation,
		"processed": p.current,
		"total":     p.total,
		"duration":  time.Since(p.startTime).Round(time.Millisecond).String(),
	}).Info("Operation complete")
}

func (p *ProgressTracker) percent() string {
	if p.total <= 0 {
		return "n/a"
	}
	return fmt.Sprintf("%.1f%%", float64(p.current)/float64(p.total)*100)
}
