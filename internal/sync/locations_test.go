package sync

import (
	"context"
	"net/http"
	stdsync "sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/stellarsync/internal/remote"
)

// locationsUpstream records the order paths were requested and serves a
// fixed payload per path; paths in failWith get the mapped status.
type locationsUpstream struct {
	mu       stdsync.Mutex
	requests []string
	payloads map[string]string
	failWith map[string]int
}

func (up *locationsUpstream) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		up.mu.Lock()
		up.requests = append(up.requests, r.URL.Path)
		up.mu.Unlock()

		if code, ok := up.failWith[r.URL.Path]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"status":"error","message":"kind unavailable"}`))
			return
		}

		payload, ok := up.payloads[r.URL.Path]
		if !ok {
			payload = "[]"
		}

		_, _ = w.Write([]byte(okEnvelope(payload)))
	}
}

func (up *locationsUpstream) requested() []string {
	up.mu.Lock()
	defer up.mu.Unlock()

	return append([]string(nil), up.requests...)
}

func newLocationsReconcilerForTest(t *testing.T, states *StateStore, stores Stores, client *remote.Client) *LocationsReconciler {
	t.Helper()

	lr := NewLocationsReconciler(states, client, stores, "system", testLogger(t))
	lr.kindPause = 0

	for _, kind := range lr.kinds {
		kind.backoffBase = time.Millisecond
	}

	return lr
}

func TestLocationsRunOrder(t *testing.T) {
	ctx := context.Background()
	states, stores := newTestEnv(t)

	up := &locationsUpstream{payloads: map[string]string{
		"/star_systems": `[{"id":1,"name":"Stanton","code":"ST","jurisdiction":"UEE","is_available":1}]`,
		"/planets":      `[{"id":10,"name":"Hurston","code":"HUR","id_star_system":1,"is_available":1}]`,
		"/moons":        `[{"id":20,"name":"Aberdeen","code":"ABD","id_planet":10,"is_available":1}]`,
	}}

	client := newUpstream(t, up.handler())
	lr := newLocationsReconcilerForTest(t, states, stores, client)

	results, err := lr.Run(ctx, false)
	require.NoError(t, err)
	require.Len(t, results, 7)

	// Strict parent-before-child: a child kind is only fetched once its
	// parent kind is fully persisted.
	assert.Equal(t, []string{
		"/star_systems", "/planets", "/moons", "/cities",
		"/space_stations", "/outposts", "/points_of_interest",
	}, up.requested())

	moon, err := stores.Moons.Get(ctx, 20)
	require.NoError(t, err)
	require.NotNil(t, moon)
	assert.Equal(t, int64(10), moon.PlanetExternalID)
	assert.True(t, moon.Available)

	agg := Aggregate(results)
	assert.Equal(t, 3, agg.Created)
	assert.Equal(t, "locations", agg.Endpoint)
}

func TestLocationsAbortsOnKindFailure(t *testing.T) {
	ctx := context.Background()
	states, stores := newTestEnv(t)

	up := &locationsUpstream{
		payloads: map[string]string{
			"/star_systems": `[{"id":1,"name":"Stanton","code":"ST","jurisdiction":"UEE","is_available":1}]`,
		},
		failWith: map[string]int{"/moons": http.StatusNotFound},
	}

	client := newUpstream(t, up.handler())
	lr := newLocationsReconcilerForTest(t, states, stores, client)

	results, err := lr.Run(ctx, false)
	require.ErrorIs(t, err, remote.ErrRejected)

	// Star systems and planets completed; everything after the failed moons
	// kind was skipped.
	require.Len(t, results, 2)
	assert.Equal(t, EndpointStarSystems, results[0].Endpoint)
	assert.Equal(t, EndpointPlanets, results[1].Endpoint)
	assert.Equal(t, []string{"/star_systems", "/planets", "/moons"}, up.requested())

	st, err := states.State(ctx, EndpointMoons)
	require.NoError(t, err)
	require.NotNil(t, st)
	assert.Equal(t, RunFailed, st.Status)

	// The skipped kinds were never started.
	st, err = states.State(ctx, EndpointCities)
	require.NoError(t, err)
	assert.Nil(t, st)
}

func TestLocationsAvailabilityFlag(t *testing.T) {
	ctx := context.Background()
	states, stores := newTestEnv(t)

	up := &locationsUpstream{payloads: map[string]string{
		"/star_systems": `[{"id":1,"name":"Stanton","code":"ST","jurisdiction":"UEE","is_available":1},` +
			`{"id":2,"name":"Pyro","code":"PY","jurisdiction":"","is_available":0}]`,
	}}

	client := newUpstream(t, up.handler())
	lr := newLocationsReconcilerForTest(t, states, stores, client)

	_, err := lr.Run(ctx, false)
	require.NoError(t, err)

	stanton, err := stores.StarSystems.Get(ctx, 1)
	require.NoError(t, err)
	require.NotNil(t, stanton)
	assert.True(t, stanton.Available)

	pyro, err := stores.StarSystems.Get(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, pyro)
	assert.False(t, pyro.Available)
}
