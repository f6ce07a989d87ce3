package sync

import (
	"context"
	"log/slog"
	"time"
)

// Reason explains a delta-vs-full decision. The values are stable strings
// surfaced in logs and the status output.
type Reason string

const (
	// ReasonFirstSync: no state row or no successful sync yet.
	ReasonFirstSync Reason = "FIRST_SYNC"
	// ReasonDeltaDisabled: incremental mode is switched off in config.
	ReasonDeltaDisabled Reason = "DELTA_DISABLED"
	// ReasonEndpointDisabled: the endpoint is disabled in config. Still
	// reported as a full-sync decision; see Decide.
	ReasonEndpointDisabled Reason = "ENDPOINT_DISABLED"
	// ReasonNoFullSyncRecorded: delta without a full baseline would silently
	// miss records never fetched.
	ReasonNoFullSyncRecorded Reason = "NO_FULL_SYNC_RECORDED"
	// ReasonFullSyncIntervalExceeded: the configured full-sweep cadence is due.
	ReasonFullSyncIntervalExceeded Reason = "FULL_SYNC_INTERVAL_EXCEEDED"
	// ReasonDeltaEligible: a full baseline exists and is fresh enough.
	ReasonDeltaEligible Reason = "DELTA_ELIGIBLE"
)

// Decision is the outcome of the delta-vs-full policy for one run.
type Decision struct {
	UseDelta bool
	Reason   Reason

	// Watermark carries lastSuccessfulSyncAt for DELTA_ELIGIBLE (the
	// modified-since filter for the upcoming fetch) and the stale
	// lastFullSyncAt for FULL_SYNC_INTERVAL_EXCEEDED (informational only).
	Watermark *time.Time
}

// FetchSince returns the modified-since filter for the upcoming fetch: the
// watermark on a delta run, nil (complete dataset) otherwise.
func (d Decision) FetchSince() *time.Time {
	if d.UseDelta {
		return d.Watermark
	}

	return nil
}

// Decide evaluates the delta-vs-full policy for one endpoint, fresh on
// every run. Precedence, first match wins:
//
//  1. never successfully synced           → full, FIRST_SYNC
//  2. delta disabled in config            → full, DELTA_DISABLED
//  3. endpoint disabled in config         → full, ENDPOINT_DISABLED
//  4. no full sweep recorded              → full, NO_FULL_SYNC_RECORDED
//  5. full-sweep cadence due              → full, FULL_SYNC_INTERVAL_EXCEEDED
//  6. otherwise                           → delta, DELTA_ELIGIBLE
//
// ENDPOINT_DISABLED does not short-circuit the run: the original behavior
// syncs a disabled endpoint in full rather than skipping it, and that is
// preserved here.
func (s *StateStore) Decide(ctx context.Context, endpoint string, cfg EndpointConfig) (Decision, error) {
	st, err := s.State(ctx, endpoint)
	if err != nil {
		return Decision{}, err
	}

	dec := s.decide(st, cfg)

	s.logger.Debug("sync mode decided",
		slog.String("endpoint", endpoint),
		slog.Bool("delta", dec.UseDelta),
		slog.String("reason", string(dec.Reason)),
	)

	return dec, nil
}

func (s *StateStore) decide(st *State, cfg EndpointConfig) Decision {
	if st == nil || st.LastSuccessfulSyncAt == nil {
		return Decision{Reason: ReasonFirstSync}
	}

	if !cfg.DeltaSyncEnabled {
		return Decision{Reason: ReasonDeltaDisabled}
	}

	if !cfg.Enabled {
		return Decision{Reason: ReasonEndpointDisabled}
	}

	if st.LastFullSyncAt == nil {
		return Decision{Reason: ReasonNoFullSyncRecorded}
	}

	interval := time.Duration(cfg.FullSyncIntervalDays) * 24 * time.Hour
	if s.nowFunc().Sub(*st.LastFullSyncAt) >= interval {
		return Decision{Reason: ReasonFullSyncIntervalExceeded, Watermark: st.LastFullSyncAt}
	}

	return Decision{
		UseDelta:  true,
		Reason:    ReasonDeltaEligible,
		Watermark: st.LastSuccessfulSyncAt,
	}
}
