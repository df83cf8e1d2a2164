package httpserver

import "time"

// Config is read from SUBLEDGER_OPS_* variables.
type Config struct {
	Addr            string        `env:"SUBLEDGER_OPS_ADDR" envDefault:":9090"`          // Addr serves /healthz, /readyz and /metrics.
	ReadTimeout     time.Duration `env:"SUBLEDGER_OPS_READ_TIMEOUT" envDefault:"10s"`    // ReadTimeout bounds reading a request.
	WriteTimeout    time.Duration `env:"SUBLEDGER_OPS_WRITE_TIMEOUT" envDefault:"30s"`   // WriteTimeout bounds writing a response, including readiness checks.
	ShutdownTimeout time.Duration `env:"SUBLEDGER_OPS_SHUTDOWN_TIMEOUT" envDefault:"5s"` // ShutdownTimeout bounds graceful shutdown.
	CheckTimeout    time.Duration `env:"SUBLEDGER_OPS_CHECK_TIMEOUT" envDefault:"3s"`    // CheckTimeout bounds each readiness check.
}
