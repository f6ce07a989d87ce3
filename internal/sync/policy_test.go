package sync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecide(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	enabledCfg := EndpointConfig{
		Enabled:              true,
		DeltaSyncEnabled:     true,
		FullSyncIntervalDays: 7,
	}

	ptr := func(t time.Time) *time.Time { return &t }

	freshFull := ptr(now.Add(-2 * 24 * time.Hour))
	staleFull := ptr(now.Add(-8 * 24 * time.Hour))
	lastSuccess := ptr(now.Add(-1 * time.Hour))

	tests := []struct {
		name       string
		state      *State
		cfg        EndpointConfig
		wantDelta  bool
		wantReason Reason
	}{
		{
			name:       "no state row",
			state:      nil,
			cfg:        enabledCfg,
			wantReason: ReasonFirstSync,
		},
		{
			name:       "row without a successful sync",
			state:      &State{Status: RunFailed},
			cfg:        enabledCfg,
			wantReason: ReasonFirstSync,
		},
		{
			name:  "delta disabled",
			state: &State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: freshFull},
			cfg: EndpointConfig{
				Enabled:              true,
				DeltaSyncEnabled:     false,
				FullSyncIntervalDays: 7,
			},
			wantReason: ReasonDeltaDisabled,
		},
		{
			name:  "endpoint disabled",
			state: &State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: freshFull},
			cfg: EndpointConfig{
				Enabled:              false,
				DeltaSyncEnabled:     true,
				FullSyncIntervalDays: 7,
			},
			wantReason: ReasonEndpointDisabled,
		},
		{
			name:       "no full sweep recorded",
			state:      &State{LastSuccessfulSyncAt: lastSuccess},
			cfg:        enabledCfg,
			wantReason: ReasonNoFullSyncRecorded,
		},
		{
			name:       "full cadence overdue",
			state:      &State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: staleFull},
			cfg:        enabledCfg,
			wantReason: ReasonFullSyncIntervalExceeded,
		},
		{
			name:       "cadence due exactly on the boundary",
			state:      &State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: ptr(now.Add(-7 * 24 * time.Hour))},
			cfg:        enabledCfg,
			wantReason: ReasonFullSyncIntervalExceeded,
		},
		{
			name:       "delta eligible",
			state:      &State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: freshFull},
			cfg:        enabledCfg,
			wantDelta:  true,
			wantReason: ReasonDeltaEligible,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			states, _ := newTestEnv(t)
			states.nowFunc = func() time.Time { return now }

			dec := states.decide(tc.state, tc.cfg)

			assert.Equal(t, tc.wantDelta, dec.UseDelta)
			assert.Equal(t, tc.wantReason, dec.Reason)
		})
	}

	t.Run("delta carries the success watermark", func(t *testing.T) {
		states, _ := newTestEnv(t)
		states.nowFunc = func() time.Time { return now }

		dec := states.decide(&State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: freshFull}, enabledCfg)

		require.NotNil(t, dec.Watermark)
		assert.True(t, dec.Watermark.Equal(*lastSuccess))
		require.NotNil(t, dec.FetchSince())
		assert.True(t, dec.FetchSince().Equal(*lastSuccess))
	})

	t.Run("full fetch has no since filter", func(t *testing.T) {
		states, _ := newTestEnv(t)
		states.nowFunc = func() time.Time { return now }

		dec := states.decide(&State{LastSuccessfulSyncAt: lastSuccess, LastFullSyncAt: staleFull}, enabledCfg)

		assert.Nil(t, dec.FetchSince())
	})
}
