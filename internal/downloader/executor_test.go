package downloader

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testExecutor(t *testing.T, handler http.Handler, cfg Config) (*Executor, string) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	if cfg.InitialBackoff == 0 {
		cfg.InitialBackoff = time.Millisecond
	}
	return New(srv.Client(), cfg), srv.URL
}

func TestFetchWritesDestination(t *testing.T) {
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "stream bytes")
	}), Config{})

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, exec.Fetch(context.Background(), url, dest))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	require.Equal(t, "stream bytes", string(data))

	// No in-progress marker survives a successful fetch.
	_, err = os.Stat(dest + PartSuffix)
	require.True(t, os.IsNotExist(err))
}

func TestFetchRetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		io.WriteString(w, "ok")
	}), Config{MaxRetries: 5})

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, exec.Fetch(context.Background(), url, dest))
	require.Equal(t, int32(3), calls.Load())
}

func TestFetchExhaustsRetries(t *testing.T) {
	var calls atomic.Int32
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Config{MaxRetries: 2})

	dest := filepath.Join(t.TempDir(), "clip.mp4")
	err := exec.Fetch(context.Background(), url, dest)
	require.Error(t, err)
	require.Equal(t, int32(3), calls.Load())

	_, statErr := os.Stat(dest)
	require.True(t, os.IsNotExist(statErr))
}

func TestFetchZeroRetriesMeansOneAttempt(t *testing.T) {
	var calls atomic.Int32
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}), Config{MaxRetries: 0})

	err := exec.Fetch(context.Background(), url, filepath.Join(t.TempDir(), "clip.mp4"))
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchDoesNotRetryFatalStatus(t *testing.T) {
	var calls atomic.Int32
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}), Config{MaxRetries: 5})

	err := exec.Fetch(context.Background(), url, filepath.Join(t.TempDir(), "clip.mp4"))
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestFetchCanceledContext(t *testing.T) {
	exec, url := testExecutor(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, "ok")
	}), Config{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := exec.Fetch(ctx, url, filepath.Join(t.TempDir(), "clip.mp4"))
	require.ErrorIs(t, err, context.Canceled)
}

func TestPauseHonorsCancellation(t *testing.T) {
	exec := New(nil, Config{Sleep: time.Hour})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	require.ErrorIs(t, exec.Pause(ctx), context.Canceled)
}

func TestBackoffDoublesUpToMax(t *testing.T) {
	exec := New(nil, Config{InitialBackoff: 100 * time.Millisecond, MaxBackoff: 350 * time.Millisecond})
	require.Equal(t, 100*time.Millisecond, exec.backoffFor(0))
	require.Equal(t, 200*time.Millisecond, exec.backoffFor(1))
	require.Equal(t, 350*time.Millisecond, exec.backoffFor(2))
	require.Equal(t, 350*time.Millisecond, exec.backoffFor(10))
}

func TestRepairZeroesFirstTwoBytes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte{0xDE, 0xAD, 0xBE, 0xEF}, 0o644))

	require.NoError(t, Repair(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, []byte{0x00, 0x00, 0xBE, 0xEF}, data)
}

func TestRepairRejectsTinyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.mp4")
	require.NoError(t, os.WriteFile(path, []byte{0x01}, 0o644))
	require.Error(t, Repair(path))

	require.Error(t, Repair(filepath.Join(t.TempDir(), "missing.mp4")))
}
