// Package sync implements the synchronization engine: per-endpoint run
// state and locking, the delta-vs-full decision policy, the retry protocol
// against a flaky upstream, and the reconcilers that mirror remote catalog
// records into the local store.
package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"
)

// Endpoint names. One sync_state row and one sync_config row exist per name.
const (
	EndpointCategories       = "categories"
	EndpointItems            = "items"
	EndpointCompanies        = "companies"
	EndpointStarSystems      = "star_systems"
	EndpointPlanets          = "planets"
	EndpointMoons            = "moons"
	EndpointCities           = "cities"
	EndpointSpaceStations    = "space_stations"
	EndpointOutposts         = "outposts"
	EndpointPointsOfInterest = "points_of_interest"
)

// RunStatus is the sync_state status column.
type RunStatus string

const (
	RunIdle       RunStatus = "idle"
	RunInProgress RunStatus = "in_progress"
	RunSuccess    RunStatus = "success"
	RunFailed     RunStatus = "failed"
)

// Mode distinguishes a complete sweep from an incremental fetch.
type Mode string

const (
	ModeFull  Mode = "full"
	ModeDelta Mode = "delta"
)

// lockTimeout is how old an in_progress lock must be before another run may
// take it over. Recovers from crashed runs without manual intervention.
const lockTimeout = 30 * time.Minute

// ErrLockConflict means another run currently holds the endpoint's lock.
// The caller must not proceed and must not record a failure: no run began.
var ErrLockConflict = errors.New("sync: another run holds the endpoint lock")

// State is one sync_state row.
type State struct {
	EndpointName         string
	Status               RunStatus
	StartedAt            *time.Time
	LastSuccessfulSyncAt *time.Time
	LastFullSyncAt       *time.Time
	RecordsCreated       int
	RecordsUpdated       int
	RecordsDeleted       int
	LastErrorMessage     string
	LastErrorDetail      string
	LastDurationMs       int64
}

// EndpointConfig is one sync_config row: the per-endpoint tuning knobs.
// Rows are created with defaults on first use and read-mostly after.
type EndpointConfig struct {
	EndpointName         string
	Enabled              bool
	DeltaSyncEnabled     bool
	FullSyncIntervalDays int
	RateLimitPerHour     int
	TimeoutSeconds       int
	RetryAttempts        int
	BackoffMultiplier    float64
}

// Default knob values for newly created sync_config rows. Must match the
// column defaults in the schema.
const (
	defaultFullSyncIntervalDays = 7
	defaultRateLimitPerHour     = 100
	defaultTimeoutSeconds       = 30
	defaultRetryAttempts        = 3
	defaultBackoffMultiplier    = 2.0
)

// StateStore persists per-endpoint sync run state and config. The
// conditional lock transition in AcquireLock is the only synchronization
// between competing runs; it is safe across processes sharing the database.
type StateStore struct {
	db      *sql.DB
	logger  *slog.Logger
	nowFunc func() time.Time // injectable for deterministic tests
}

// NewStateStore creates a StateStore over the shared database handle.
func NewStateStore(db *sql.DB, logger *slog.Logger) *StateStore {
	if logger == nil {
		logger = slog.Default()
	}

	return &StateStore{db: db, logger: logger, nowFunc: time.Now}
}

// AcquireLock atomically transitions the endpoint to in_progress with a
// fresh started_at, but only if no other run holds the lock or the held
// lock is older than the lock timeout (stale-lock takeover). Exactly one
// concurrent run per endpoint is guaranteed by this single conditional
// update; all competing callers pass through it.
func (s *StateStore) AcquireLock(ctx context.Context, endpoint string) error {
	if err := s.ensureStateRow(ctx, endpoint); err != nil {
		return err
	}

	now := s.nowFunc()
	staleCutoff := now.Add(-lockTimeout).UnixNano()

	result, err := s.db.ExecContext(ctx,
		`UPDATE sync_state SET status = ?, started_at = ?
		 WHERE endpoint_name = ?
		   AND (status != ? OR started_at IS NULL OR started_at < ?)`,
		RunInProgress, now.UnixNano(), endpoint, RunInProgress, staleCutoff)
	if err != nil {
		return fmt.Errorf("sync: acquiring lock for %s: %w", endpoint, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sync: acquire lock rows affected for %s: %w", endpoint, err)
	}

	if rows == 0 {
		return fmt.Errorf("sync: %s: %w", endpoint, ErrLockConflict)
	}

	return nil
}

// ReleaseLock clears an in_progress lock back to idle. Always deferred
// around a run, so a lock never outlives its run under normal errors; only
// a hard process crash leaves a stale lock for the takeover path. A row
// that RecordSuccess or RecordFailure already moved to a terminal status no
// longer holds the lock and is left untouched.
func (s *StateStore) ReleaseLock(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_state SET status = ?, started_at = NULL
		 WHERE endpoint_name = ? AND status = ?`,
		RunIdle, endpoint, RunInProgress)
	if err != nil {
		return fmt.Errorf("sync: releasing lock for %s: %w", endpoint, err)
	}

	return nil
}

// RecordSuccess marks the run successful: status, timestamps, counts, and
// duration, clearing any stored error. last_full_sync_at only advances on a
// full sweep.
func (s *StateStore) RecordSuccess(ctx context.Context, endpoint string, mode Mode, counts Counts, duration time.Duration) error {
	now := s.nowFunc().UnixNano()

	var fullSyncAt sql.NullInt64
	if mode == ModeFull {
		fullSyncAt = sql.NullInt64{Int64: now, Valid: true}
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_state SET
			status = ?,
			last_successful_sync_at = ?,
			last_full_sync_at = COALESCE(?, last_full_sync_at),
			records_created = ?,
			records_updated = ?,
			records_deleted = ?,
			last_error_message = NULL,
			last_error_detail = NULL,
			last_duration_ms = ?
		 WHERE endpoint_name = ?`,
		RunSuccess, now, fullSyncAt,
		counts.Created, counts.Updated, counts.Deleted,
		duration.Milliseconds(), endpoint)
	if err != nil {
		return fmt.Errorf("sync: recording success for %s: %w", endpoint, err)
	}

	return nil
}

// RecordFailure marks the run failed, storing the error and duration. The
// success timestamps are never touched: the previous dataset stays intact
// and the next attempt retries from the same watermark.
func (s *StateStore) RecordFailure(ctx context.Context, endpoint string, runErr error, duration time.Duration) error {
	msg := runErr.Error()

	// The message column holds a short summary for listings; the detail
	// column keeps the full chain. Truncation backs up to a rune boundary
	// so the stored summary stays valid UTF-8.
	const maxMessageLen = 255
	detail := msg

	if len(msg) > maxMessageLen {
		cut := maxMessageLen
		for cut > 0 && !utf8.RuneStart(msg[cut]) {
			cut--
		}

		msg = msg[:cut]
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE sync_state SET
			status = ?,
			last_error_message = ?,
			last_error_detail = ?,
			last_duration_ms = ?
		 WHERE endpoint_name = ?`,
		RunFailed, msg, detail, duration.Milliseconds(), endpoint)
	if err != nil {
		return fmt.Errorf("sync: recording failure for %s: %w", endpoint, err)
	}

	return nil
}

// State returns the endpoint's sync_state row, or nil when the endpoint has
// never been touched.
func (s *StateStore) State(ctx context.Context, endpoint string) (*State, error) {
	row := s.db.QueryRowContext(ctx,
		stateSelectCols+` WHERE endpoint_name = ?`, endpoint)

	st, err := scanState(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("sync: loading state for %s: %w", endpoint, err)
	}

	return st, nil
}

// States returns all sync_state rows ordered by endpoint name, for the
// operational status surface.
func (s *StateStore) States(ctx context.Context) ([]State, error) {
	rows, err := s.db.QueryContext(ctx, stateSelectCols+` ORDER BY endpoint_name`)
	if err != nil {
		return nil, fmt.Errorf("sync: listing states: %w", err)
	}
	defer rows.Close()

	var states []State

	for rows.Next() {
		st, err := scanState(rows)
		if err != nil {
			return nil, fmt.Errorf("sync: scanning state row: %w", err)
		}

		states = append(states, *st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sync: iterating state rows: %w", err)
	}

	return states, nil
}

// Config returns the endpoint's sync_config row, creating it with defaults
// on first use.
func (s *StateStore) Config(ctx context.Context, endpoint string) (EndpointConfig, error) {
	cfg := EndpointConfig{EndpointName: endpoint}

	var enabled, deltaEnabled int

	err := s.db.QueryRowContext(ctx,
		`SELECT enabled, delta_sync_enabled, full_sync_interval_days,
			rate_limit_per_hour, timeout_seconds, retry_attempts, backoff_multiplier
		 FROM sync_config WHERE endpoint_name = ?`, endpoint).Scan(
		&enabled, &deltaEnabled, &cfg.FullSyncIntervalDays,
		&cfg.RateLimitPerHour, &cfg.TimeoutSeconds, &cfg.RetryAttempts, &cfg.BackoffMultiplier)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		return s.createDefaultConfig(ctx, endpoint)
	case err != nil:
		return EndpointConfig{}, fmt.Errorf("sync: loading config for %s: %w", endpoint, err)
	}

	cfg.Enabled = enabled != 0
	cfg.DeltaSyncEnabled = deltaEnabled != 0

	return cfg, nil
}

// SetConfig overwrites the endpoint's sync_config row. Used by operators to
// tune an endpoint; the engine itself only reads.
func (s *StateStore) SetConfig(ctx context.Context, cfg EndpointConfig) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_config
			(endpoint_name, enabled, delta_sync_enabled, full_sync_interval_days,
			 rate_limit_per_hour, timeout_seconds, retry_attempts, backoff_multiplier)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(endpoint_name) DO UPDATE SET
			enabled = excluded.enabled,
			delta_sync_enabled = excluded.delta_sync_enabled,
			full_sync_interval_days = excluded.full_sync_interval_days,
			rate_limit_per_hour = excluded.rate_limit_per_hour,
			timeout_seconds = excluded.timeout_seconds,
			retry_attempts = excluded.retry_attempts,
			backoff_multiplier = excluded.backoff_multiplier`,
		cfg.EndpointName, cfg.Enabled, cfg.DeltaSyncEnabled, cfg.FullSyncIntervalDays,
		cfg.RateLimitPerHour, cfg.TimeoutSeconds, cfg.RetryAttempts, cfg.BackoffMultiplier)
	if err != nil {
		return fmt.Errorf("sync: saving config for %s: %w", cfg.EndpointName, err)
	}

	return nil
}

func (s *StateStore) createDefaultConfig(ctx context.Context, endpoint string) (EndpointConfig, error) {
	// INSERT OR IGNORE: a concurrent first use may have won the race, in
	// which case the defaults are identical anyway.
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sync_config (endpoint_name) VALUES (?)`, endpoint)
	if err != nil {
		return EndpointConfig{}, fmt.Errorf("sync: creating default config for %s: %w", endpoint, err)
	}

	s.logger.Info("created default sync config", slog.String("endpoint", endpoint))

	return EndpointConfig{
		EndpointName:         endpoint,
		Enabled:              true,
		DeltaSyncEnabled:     true,
		FullSyncIntervalDays: defaultFullSyncIntervalDays,
		RateLimitPerHour:     defaultRateLimitPerHour,
		TimeoutSeconds:       defaultTimeoutSeconds,
		RetryAttempts:        defaultRetryAttempts,
		BackoffMultiplier:    defaultBackoffMultiplier,
	}, nil
}

// ensureStateRow creates the endpoint's sync_state row if missing, so the
// conditional lock update always has a row to hit.
func (s *StateStore) ensureStateRow(ctx context.Context, endpoint string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO sync_state (endpoint_name) VALUES (?)`, endpoint)
	if err != nil {
		return fmt.Errorf("sync: ensuring state row for %s: %w", endpoint, err)
	}

	return nil
}

const stateSelectCols = `SELECT endpoint_name, status, started_at,
	last_successful_sync_at, last_full_sync_at,
	records_created, records_updated, records_deleted,
	last_error_message, last_error_detail, last_duration_ms
 FROM sync_state`

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanState(row scanner) (*State, error) {
	var (
		st         State
		startedAt  sql.NullInt64
		successAt  sql.NullInt64
		fullSyncAt sql.NullInt64
		errMsg     sql.NullString
		errDetail  sql.NullString
	)

	err := row.Scan(&st.EndpointName, &st.Status, &startedAt,
		&successAt, &fullSyncAt,
		&st.RecordsCreated, &st.RecordsUpdated, &st.RecordsDeleted,
		&errMsg, &errDetail, &st.LastDurationMs)
	if err != nil {
		return nil, err
	}

	st.StartedAt = nanosToTime(startedAt)
	st.LastSuccessfulSyncAt = nanosToTime(successAt)
	st.LastFullSyncAt = nanosToTime(fullSyncAt)
	st.LastErrorMessage = errMsg.String
	st.LastErrorDetail = errDetail.String

	return &st, nil
}

func nanosToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}

	t := time.Unix(0, v.Int64)

	return &t
}
