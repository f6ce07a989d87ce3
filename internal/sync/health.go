package sync

import (
	"context"
	"time"
)

// Health is the overall classification of the sync subsystem.
type Health string

const (
	HealthHealthy Health = "healthy"
	HealthWarning Health = "warning"
	HealthError   Health = "error"
)

// Silence thresholds for the health classification.
const (
	silenceWarning = 24 * time.Hour
	silenceError   = 48 * time.Hour
)

// EndpointStatus is one endpoint's state enriched with derived fields for
// the operational status surface.
type EndpointStatus struct {
	State
	// NextFullSyncDue is last_full_sync_at plus the configured interval;
	// nil when no full sweep has happened yet.
	NextFullSyncDue *time.Time
}

// Overview returns all endpoint statuses plus the overall health
// classification.
func (s *StateStore) Overview(ctx context.Context) ([]EndpointStatus, Health, error) {
	states, err := s.States(ctx)
	if err != nil {
		return nil, HealthError, err
	}

	statuses := make([]EndpointStatus, 0, len(states))

	for _, st := range states {
		es := EndpointStatus{State: st}

		if st.LastFullSyncAt != nil {
			cfg, err := s.Config(ctx, st.EndpointName)
			if err != nil {
				return nil, HealthError, err
			}

			due := st.LastFullSyncAt.Add(time.Duration(cfg.FullSyncIntervalDays) * 24 * time.Hour)
			es.NextFullSyncDue = &due
		}

		statuses = append(statuses, es)
	}

	return statuses, Classify(states, s.nowFunc()), nil
}

// Classify derives the overall health from the endpoint states: any failed
// endpoint or any endpoint silent for more than 48 hours is an error; any
// endpoint silent for more than 24 hours is a warning; otherwise healthy.
// An endpoint that has a state row but has never succeeded counts as
// silent beyond both thresholds.
func Classify(states []State, now time.Time) Health {
	health := HealthHealthy

	for _, st := range states {
		if st.Status == RunFailed {
			return HealthError
		}

		if st.LastSuccessfulSyncAt == nil {
			return HealthError
		}

		silence := now.Sub(*st.LastSuccessfulSyncAt)

		if silence > silenceError {
			return HealthError
		}

		if silence > silenceWarning {
			health = HealthWarning
		}
	}

	return health
}
