package logger

import (
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"
)

// Errors groups the non-nil errors under "errors". All nil yields an empty Attr.
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.String(strconv.Itoa(i), err.Error()))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// Error records err under "error". A nil error yields an empty Attr.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String("error", err.Error())
}

func TenantID(id uuid.UUID) slog.Attr {
	return slog.String("tenant_id", id.String())
}

func SubscriptionID(id uuid.UUID) slog.Attr {
	return slog.String("subscription_id", id.String())
}

func Module(name string) slog.Attr {
	return slog.String("module", name)
}

func Metric(key string) slog.Attr {
	return slog.String("metric", key)
}

// Transition records a status change as from and to.
func Transition(from, to string) slog.Attr {
	return slog.Group("transition", slog.String("from", from), slog.String("to", to))
}

func Component(name string) slog.Attr {
	return slog.String("component", name)
}

func Duration(d time.Duration) slog.Attr {
	return slog.Duration("duration", d)
}
