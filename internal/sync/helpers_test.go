package sync

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/stellarsync/internal/remote"
	"github.com/tonimelisma/stellarsync/internal/store"
)

func testLogger(t *testing.T) *slog.Logger {
	t.Helper()

	return slog.New(slog.NewTextHandler(testWriter{t}, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

// newTestEnv creates an in-memory store with a state store and all entity
// stores over it.
func newTestEnv(t *testing.T) (*StateStore, Stores) {
	t.Helper()

	s, err := store.New(":memory:", testLogger(t))
	require.NoError(t, err)

	t.Cleanup(func() {
		require.NoError(t, s.Close())
	})

	return NewStateStore(s.DB(), testLogger(t)), NewStores(s, testLogger(t))
}

// newUpstream starts a test server and returns a remote client against it.
func newUpstream(t *testing.T, handler http.HandlerFunc) *remote.Client {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return remote.NewClient(srv.URL, srv.Client(), testLogger(t))
}

// okEnvelope wraps a JSON array into the upstream response envelope.
func okEnvelope(data string) string {
	return `{"status":"ok","data":` + data + `}`
}
