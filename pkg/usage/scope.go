package usage

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/orbion/subledger/pkg/period"
)

// CounterType separates informational counters from the ones limits apply to.
// The same event may increment both under the same metric key.
type CounterType string

const (
	Operational CounterType = "operational"
	Billable    CounterType = "billable"
)

func (c CounterType) Valid() bool {
	return c == Operational || c == Billable
}

// Scope identifies one counter row.
type Scope struct {
	TenantID    uuid.UUID
	Module      string
	CounterType CounterType
	MetricKey   string
	PeriodStart time.Time
	PeriodEnd   time.Time
}

// NewScope builds a scope over the given period window.
func NewScope(tenantID uuid.UUID, module string, ct CounterType, metricKey string, w period.Window) Scope {
	return Scope{
		TenantID:    tenantID,
		Module:      module,
		CounterType: ct,
		MetricKey:   strings.TrimSpace(metricKey),
		PeriodStart: w.Start,
		PeriodEnd:   w.End,
	}
}

// Window returns the scope period.
func (s Scope) Window() period.Window {
	return period.Window{Start: s.PeriodStart, End: s.PeriodEnd}
}

// Validate reports whether the scope can address a counter row.
func (s Scope) Validate() error {
	var errs []error
	if s.TenantID == uuid.Nil {
		errs = append(errs, errors.New("tenant ID is required"))
	}
	if strings.TrimSpace(s.Module) == "" {
		errs = append(errs, errors.New("module is required"))
	}
	if !s.CounterType.Valid() {
		errs = append(errs, fmt.Errorf("%w: %q", ErrInvalidCounterType, s.CounterType))
	}
	if strings.TrimSpace(s.MetricKey) == "" {
		errs = append(errs, errors.New("metric key is required"))
	}
	if !s.PeriodEnd.After(s.PeriodStart) {
		errs = append(errs, errors.New("period end must be after period start"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidScope}, errs...)...)
}

func (s Scope) String() string {
	return fmt.Sprintf("%s/%s/%s/%s[%s,%s)",
		s.TenantID, s.Module, s.CounterType, s.MetricKey,
		s.PeriodStart.UTC().Format(time.RFC3339), s.PeriodEnd.UTC().Format(time.RFC3339))
}

// periodKey identifies the (tenant, module, type, period) group a scope belongs to.
type periodKey struct {
	tenantID    uuid.UUID
	module      string
	counterType CounterType
	start, end  int64
}

func (s Scope) periodKey() periodKey {
	return periodKey{
		tenantID:    s.TenantID,
		module:      s.Module,
		counterType: s.CounterType,
		start:       s.PeriodStart.UnixNano(),
		end:         s.PeriodEnd.UnixNano(),
	}
}
