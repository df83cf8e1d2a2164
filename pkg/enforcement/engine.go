package enforcement

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"github.com/orbion/subledger/pkg/entitlements"
	"github.com/orbion/subledger/pkg/subscription"
)

// DefaultSoftThreshold is the fraction of a limit above which decisions warn.
const DefaultSoftThreshold = 0.8

// Verdict is the outcome of a decision.
type Verdict string

const (
	Allow Verdict = "allow"
	Warn  Verdict = "warn"
	Block Verdict = "block"
)

// Reason explains a verdict.
type Reason string

const (
	ReasonModuleDisabled Reason = "module_disabled"
	ReasonUnlimited      Reason = "unlimited"
	ReasonLimitExceeded  Reason = "limit_exceeded"
	ReasonSoftThreshold  Reason = "soft_threshold"
	ReasonWithinLimit    Reason = "within_limit"
)

// Decision is the result of Decide.
type Decision struct {
	Verdict   Verdict
	Reason    Reason
	Module    subscription.Module
	MetricKey string
	Limit     int64
	Used      int64
	Requested int64
	// Remaining is nil for unlimited metrics.
	Remaining *int64
	PeriodEnd time.Time
}

// Allowed reports whether the action may proceed, with or without a warning.
func (d Decision) Allowed() bool {
	return d.Verdict != Block
}

// Err maps a blocking decision to ErrModuleDisabled or ErrLimitReached.
// Non-blocking decisions return nil.
func (d Decision) Err() error {
	if d.Verdict != Block {
		return nil
	}
	if d.Reason == ReasonModuleDisabled {
		return fmt.Errorf("%w: %s", ErrModuleDisabled, d.Module)
	}
	return fmt.Errorf("%w: %s %s used %d of %d", ErrLimitReached, d.Module, d.MetricKey, d.Used, d.Limit)
}

// basisPoints is the scale the soft threshold is stored at.
const basisPoints = 10000

// Engine applies the decision rules with a configured soft threshold.
type Engine struct {
	// softBP is the threshold in basis points, in [1, basisPoints].
	softBP uint64
}

// NewEngine creates an Engine. A threshold outside (0, 1] falls back to
// DefaultSoftThreshold. The threshold is rounded to the nearest basis point.
func NewEngine(softThreshold float64) *Engine {
	if math.IsNaN(softThreshold) || softThreshold <= 0 || softThreshold > 1 {
		softThreshold = DefaultSoftThreshold
	}
	bp := uint64(math.Round(softThreshold * basisPoints))
	if bp == 0 {
		bp = 1
	}
	return &Engine{softBP: bp}
}

// SoftThreshold returns the configured warn fraction.
func (e *Engine) SoftThreshold() float64 {
	return float64(e.softBP) / basisPoints
}

// aboveSoft reports whether projected/limit is strictly greater than the soft
// threshold. limit must be positive. The products are compared as 128-bit
// integers so no value of projected or limit loses precision.
func (e *Engine) aboveSoft(projected, limit int64) bool {
	if projected <= 0 {
		return false
	}
	lhsHi, lhsLo := bits.Mul64(uint64(projected), basisPoints)
	rhsHi, rhsLo := bits.Mul64(e.softBP, uint64(limit))
	return lhsHi > rhsHi || (lhsHi == rhsHi && lhsLo > rhsLo)
}

// Decide evaluates a request to add requestedDelta to metricKey of module.
// A module missing from the snapshot is treated as not enabled.
func (e *Engine) Decide(snap *entitlements.Snapshot, module subscription.Module, metricKey string, requestedDelta int64) Decision {
	d := Decision{
		Module:    module,
		MetricKey: metricKey,
		Requested: requestedDelta,
	}

	var ms entitlements.ModuleSnapshot
	ok := false
	if snap != nil {
		ms, ok = snap.Module(module)
	}
	if !ok || !ms.Enabled {
		d.Verdict, d.Reason = Block, ReasonModuleDisabled
		return d
	}

	d.Limit = ms.Limit(metricKey)
	d.Used = ms.Used(metricKey)
	d.PeriodEnd = ms.Period.End

	if d.Limit <= 0 {
		d.Verdict, d.Reason = Allow, ReasonUnlimited
		return d
	}

	remaining := max(d.Limit-d.Used, 0)
	d.Remaining = &remaining

	projected := d.Used + requestedDelta
	switch {
	case projected > d.Limit:
		d.Verdict, d.Reason = Block, ReasonLimitExceeded
	case e.aboveSoft(projected, d.Limit):
		d.Verdict, d.Reason = Warn, ReasonSoftThreshold
	default:
		d.Verdict, d.Reason = Allow, ReasonWithinLimit
	}
	return d
}
