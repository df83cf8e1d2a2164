package httpserver_test

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orbion/subledger/pkg/httpserver"
)

func get(t *testing.T, h http.Handler, path string) (int, string) {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return rec.Code, string(body)
}

func TestOpsRouter(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "subledger_test_total", Help: "test"})
	reg.MustRegister(counter)
	counter.Inc()

	healthy := httpserver.NewOpsRouter(slog.Default(), reg, time.Second, map[string]httpserver.Check{
		"postgres": func(context.Context) error { return nil },
	})
	failing := httpserver.NewOpsRouter(slog.Default(), nil, time.Second, map[string]httpserver.Check{
		"postgres": func(context.Context) error { return nil },
		"redis":    func(context.Context) error { return errors.New("down") },
	})

	t.Run("liveness", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, failing, "/healthz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "ALIVE", body)
	})

	t.Run("ready", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, healthy, "/readyz")
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "READY", body)
	})

	t.Run("not ready", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, failing, "/readyz")
		assert.Equal(t, http.StatusServiceUnavailable, code)
		assert.Equal(t, "NOT_READY", body)
	})

	t.Run("metrics", func(t *testing.T) {
		t.Parallel()
		code, body := get(t, healthy, "/metrics")
		assert.Equal(t, http.StatusOK, code)
		assert.Contains(t, body, "subledger_test_total 1")
	})

	t.Run("no metrics without gatherer", func(t *testing.T) {
		t.Parallel()
		code, _ := get(t, failing, "/metrics")
		assert.Equal(t, http.StatusNotFound, code)
	})
}

func TestServer_ServeUntilCancelled(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Config{ShutdownTimeout: time.Second}, slog.Default())
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- srv.Serve(ctx, ln, httpserver.NewOpsRouter(nil, nil, 0, nil))
	}()

	resp, err := http.Get("http://" + ln.Addr().String() + "/healthz")
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "server did not stop")
	}
}

func TestServer_RunBadAddr(t *testing.T) {
	t.Parallel()
	srv := httpserver.New(httpserver.Config{Addr: "256.0.0.1:99999"}, nil)
	err := srv.Run(context.Background(), http.NotFoundHandler())
	assert.ErrorIs(t, err, httpserver.ErrStart)
}
