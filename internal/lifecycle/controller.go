package lifecycle

import (
	"fmt"
	"sync"
	"time"

	"github.com/xwinwin/SimTradeLab/internal/logger"
	"github.com/xwinwin/SimTradeLab/internal/types"
	"github.com/xwinwin/SimTradeLab/pkg/errors"
	"go.uber.org/zap"
)

// maxCallHistory bounds the call audit ring buffer; the oldest record is
// evicted first.
const maxCallHistory = 1000

// ValidationResult is the outcome of a per-operation permission check.
type ValidationResult struct {
	IsValid      bool
	ErrorMessage string
}

// CallRecord is one entry of the bounded operation audit trail.
type CallRecord struct {
	Operation string
	Phase     Phase
	Timestamp time.Time
	Success   bool
	Error     string
}

// CallStatistics summarizes the audit trail.
type CallStatistics struct {
	TotalCalls     int
	FailedCalls    int
	SuccessRate    float64
	CallCounts     map[string]int
	PhasesExecuted []Phase
	CurrentPhase   Phase
	HistorySize    int
}

// Controller tracks the current trading-day phase, validates phase
// transitions and per-operation permissions, and records a bounded audit
// trail of operation calls.
type Controller struct {
	mu sync.Mutex

	currentPhase Phase
	mode         types.Mode
	log          *logger.Logger

	callHistory   []CallRecord
	callCounts    map[string]int
	phaseExecuted map[Phase]bool
	callbacks     map[Phase][]func()
}

// NewController creates a lifecycle controller for the given run mode.
func NewController(mode types.Mode, log *logger.Logger) *Controller {
	return &Controller{
		currentPhase:  PhaseNone,
		mode:          mode,
		log:           log,
		callHistory:   nil,
		callCounts:    make(map[string]int),
		phaseExecuted: make(map[Phase]bool),
		callbacks:     make(map[Phase][]func()),
	}
}

// CurrentPhase returns the current lifecycle phase.
func (c *Controller) CurrentPhase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.currentPhase
}

// Mode returns the run mode the controller was created for.
func (c *Controller) Mode() types.Mode {
	return c.mode
}

// SetPhase validates and performs the transition from the current phase to
// the given phase. An illegal edge is fatal to the run: once the driver's
// control flow has diverged from the contract, the strategy must not run
// further. On success the phase is marked as executed and any registered
// phase-entry callbacks fire; callback panics are logged, not fatal.
func (c *Controller) SetPhase(phase Phase) error {
	c.mu.Lock()

	old := c.currentPhase
	if !CanTransition(old, phase) {
		c.mu.Unlock()

		return errors.Newf(errors.ErrCodePhaseTransition,
			"invalid phase transition: %q -> %q (allowed: %v)", old, phase, AllowedTransitions(old))
	}

	c.currentPhase = phase
	c.phaseExecuted[phase] = true
	callbacks := c.callbacks[phase]
	c.mu.Unlock()

	c.log.Debug("Lifecycle phase changed",
		zap.String("from", string(old)),
		zap.String("to", string(phase)),
	)

	for _, cb := range callbacks {
		c.runPhaseCallback(phase, cb)
	}

	return nil
}

func (c *Controller) runPhaseCallback(phase Phase, cb func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("Phase callback panicked",
				zap.String("phase", string(phase)),
				zap.Any("panic", r),
			)
		}
	}()

	cb()
}

// ValidateCall checks whether the operation may be invoked in the current
// phase and run mode. When no phase has been set yet the call is permitted
// but a warning is recorded (back-compatibility mode).
func (c *Controller) ValidateCall(operation string) ValidationResult {
	c.mu.Lock()
	phase := c.currentPhase
	c.mu.Unlock()

	if !IsSupportedInMode(operation, c.mode) {
		msg := fmt.Sprintf("operation %q is not supported in mode %q (supported: %v)",
			operation, c.mode, SupportedModes(operation))
		c.log.Error("Operation mode violation", zap.String("operation", operation), zap.String("mode", string(c.mode)))

		return ValidationResult{IsValid: false, ErrorMessage: msg}
	}

	if phase == PhaseNone {
		c.log.Warn("Operation called without lifecycle phase set; permitting for back-compatibility",
			zap.String("operation", operation),
		)

		return ValidationResult{IsValid: true, ErrorMessage: ""}
	}

	if !IsAllowedInPhase(operation, phase) {
		msg := fmt.Sprintf("operation %q cannot be called in phase %q (allowed phases: %v)",
			operation, phase, AllowedPhases(operation))
		c.log.Error("Operation phase violation",
			zap.String("operation", operation),
			zap.String("phase", string(phase)),
		)

		return ValidationResult{IsValid: false, ErrorMessage: msg}
	}

	return ValidationResult{IsValid: true, ErrorMessage: ""}
}

// RecordCall appends an entry to the audit ring buffer and bumps the
// per-operation counter.
func (c *Controller) RecordCall(operation string, success bool, callErr error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	record := CallRecord{
		Operation: operation,
		Phase:     c.currentPhase,
		Timestamp: time.Now(),
		Success:   success,
		Error:     "",
	}
	if callErr != nil {
		record.Error = callErr.Error()
	}

	c.callHistory = append(c.callHistory, record)
	if len(c.callHistory) > maxCallHistory {
		c.callHistory = c.callHistory[len(c.callHistory)-maxCallHistory:]
	}

	c.callCounts[operation]++

	if !success {
		c.log.Warn("Operation call failed",
			zap.String("operation", operation),
			zap.String("error", record.Error),
		)
	}
}

// IsPhaseExecuted reports whether the phase has been entered at least once.
func (c *Controller) IsPhaseExecuted(phase Phase) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.phaseExecuted[phase]
}

// RegisterPhaseCallback registers a function to run on entry to the phase.
func (c *Controller) RegisterPhaseCallback(phase Phase, cb func()) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.callbacks[phase] = append(c.callbacks[phase], cb)
}

// Statistics returns a snapshot of the call audit counters.
func (c *Controller) Statistics() CallStatistics {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, n := range c.callCounts {
		total += n
	}

	failed := 0
	for _, r := range c.callHistory {
		if !r.Success {
			failed++
		}
	}

	counts := make(map[string]int, len(c.callCounts))
	for op, n := range c.callCounts {
		counts[op] = n
	}

	var executed []Phase
	for _, p := range AllPhases {
		if c.phaseExecuted[p] {
			executed = append(executed, p)
		}
	}

	denominator := total
	if denominator == 0 {
		denominator = 1
	}

	return CallStatistics{
		TotalCalls:     total,
		FailedCalls:    failed,
		SuccessRate:    float64(total-failed) / float64(denominator),
		CallCounts:     counts,
		PhasesExecuted: executed,
		CurrentPhase:   c.currentPhase,
		HistorySize:    len(c.callHistory),
	}
}

// RecentCalls returns up to limit of the most recent call records, oldest
// first.
func (c *Controller) RecentCalls(limit int) []CallRecord {
	c.mu.Lock()
	defer c.mu.Unlock()

	if limit <= 0 || len(c.callHistory) == 0 {
		return nil
	}

	start := len(c.callHistory) - limit
	if start < 0 {
		start = 0
	}

	out := make([]CallRecord, len(c.callHistory)-start)
	copy(out, c.callHistory[start:])

	return out
}

// Reset clears all phase and audit state, returning the controller to the
// pre-initialization state. Used between independent runs.
func (c *Controller) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.currentPhase = PhaseNone
	c.callHistory = nil
	c.callCounts = make(map[string]int)
	c.phaseExecuted = make(map[Phase]bool)

	c.log.Info("Lifecycle controller reset")
}
