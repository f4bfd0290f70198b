package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/segmentio/encoding/json"
	"github.com/stretchr/testify/require"
)

func TestHandleReadyCheck(t *testing.T) {
	ready := false
	h := HandleReadyCheck(func() bool { return ready })

	w := httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	ready = true
	w = httptest.NewRecorder()
	h(w, httptest.NewRequest(http.MethodGet, "/ready", nil))
	require.Equal(t, http.StatusOK, w.Code)
}

func TestHandleVersion(t *testing.T) {
	w := httptest.NewRecorder()
	HandleVersion("v1.2.3")(w, httptest.NewRequest(http.MethodGet, "/version", nil))
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "v1.2.3", w.Body.String())
}

func TestHandleJSON(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleJSON(func() any {
			return map[string]int{"points": 42}
		})(w, httptest.NewRequest(http.MethodGet, "/summary", nil))

		require.Equal(t, http.StatusOK, w.Code)
		require.Equal(t, "application/json", w.Header().Get("Content-Type"))

		var res map[string]int
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
		require.Equal(t, 42, res["points"])
	})

	t.Run("nothing yet", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleJSON(func() any { return nil })(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
		require.Equal(t, http.StatusNoContent, w.Code)
	})

	t.Run("encoding error", func(t *testing.T) {
		w := httptest.NewRecorder()
		HandleJSON(func() any { return make(chan int) })(w, httptest.NewRequest(http.MethodGet, "/summary", nil))
		require.Equal(t, http.StatusInternalServerError, w.Code)
	})
}

func TestMetricsPathFormatter(t *testing.T) {
	require.Equal(t, "/metrics", MetricsPathFormatter(http.StatusOK, "/metrics"))
	require.Empty(t, MetricsPathFormatter(http.StatusNotFound, "/unknown"))
	require.Empty(t, MetricsPathFormatter(http.StatusMethodNotAllowed, "/summary"))
}

func TestListenAndServe(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		defer close(done)
		ListenAndServe(ctx, &http.Server{Addr: "127.0.0.1:0"})
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
