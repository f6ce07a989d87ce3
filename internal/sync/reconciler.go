package sync

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/tonimelisma/stellarsync/internal/store"
)

// Counts summarizes a run's record mutations.
type Counts struct {
	Created int
	Updated int
	Deleted int
}

func (c *Counts) add(other Counts) {
	c.Created += other.Created
	c.Updated += other.Updated
	c.Deleted += other.Deleted
}

// Result is the outcome of one reconciler run.
type Result struct {
	Endpoint string
	Mode     Mode
	Reason   Reason
	Counts
	Duration time.Duration
}

// Runner drives one endpoint's sync run through the common protocol:
// acquire the lock, decide delta-vs-full, execute the endpoint-specific
// body, record the outcome, release the lock. The body is pluggable so the
// generic single-endpoint reconciler, the category-chunked items sync, and
// tests all share the same run skeleton.
type Runner struct {
	endpoint string
	states   *StateStore
	logger   *slog.Logger

	// backoffBase overrides the config-derived retry delay when positive.
	// Tests set a tiny value.
	backoffBase time.Duration

	do func(ctx context.Context, cfg EndpointConfig, dec Decision) (Counts, error)
}

// Endpoint returns the endpoint name this runner owns.
func (r *Runner) Endpoint() string {
	return r.endpoint
}

// Run executes one sync run. forceFull overrides the decision to a full
// sweep. A lock conflict propagates without recording a failure, since no
// run actually started; any other failure is recorded before surfacing.
// The lock is always released, on success and failure alike.
func (r *Runner) Run(ctx context.Context, forceFull bool) (Result, error) {
	cfg, err := r.states.Config(ctx, r.endpoint)
	if err != nil {
		return Result{}, err
	}

	if err := r.states.AcquireLock(ctx, r.endpoint); err != nil {
		return Result{}, err
	}

	// Release must run even when ctx is canceled mid-run.
	defer func() {
		if relErr := r.states.ReleaseLock(context.WithoutCancel(ctx), r.endpoint); relErr != nil {
			r.logger.Error("releasing sync lock failed",
				slog.String("endpoint", r.endpoint),
				slog.String("error", relErr.Error()),
			)
		}
	}()

	dec, err := r.states.Decide(ctx, r.endpoint, cfg)
	if err != nil {
		return Result{}, err
	}

	if forceFull {
		dec.UseDelta = false
		dec.Watermark = nil
	}

	mode := ModeFull
	if dec.UseDelta {
		mode = ModeDelta
	}

	runID := uuid.NewString()
	start := time.Now()

	r.logger.Info("sync run started",
		slog.String("endpoint", r.endpoint),
		slog.String("run_id", runID),
		slog.String("mode", string(mode)),
		slog.String("reason", string(dec.Reason)),
		slog.Bool("forced", forceFull),
	)

	counts, runErr := r.do(ctx, cfg, dec)
	duration := time.Since(start)

	if runErr != nil {
		if recErr := r.states.RecordFailure(context.WithoutCancel(ctx), r.endpoint, runErr, duration); recErr != nil {
			r.logger.Error("recording sync failure failed",
				slog.String("endpoint", r.endpoint),
				slog.String("error", recErr.Error()),
			)
		}

		r.logger.Error("sync run failed",
			slog.String("endpoint", r.endpoint),
			slog.String("run_id", runID),
			slog.Duration("duration", duration),
			slog.String("error", runErr.Error()),
		)

		return Result{Endpoint: r.endpoint, Mode: mode, Reason: dec.Reason, Duration: duration}, runErr
	}

	if err := r.states.RecordSuccess(ctx, r.endpoint, mode, counts, duration); err != nil {
		return Result{}, err
	}

	r.logger.Info("sync run finished",
		slog.String("endpoint", r.endpoint),
		slog.String("run_id", runID),
		slog.String("mode", string(mode)),
		slog.Int("created", counts.Created),
		slog.Int("updated", counts.Updated),
		slog.Int("deleted", counts.Deleted),
		slog.Duration("duration", duration),
	)

	return Result{
		Endpoint: r.endpoint,
		Mode:     mode,
		Reason:   dec.Reason,
		Counts:   counts,
		Duration: duration,
	}, nil
}

// adapter binds one entity kind to the generic reconciler: how to fetch its
// remote records, how to extract the upstream identity, and how to map a
// remote record onto a local one. Keeping these three as closures avoids
// hand-duplicating the upsert/retire loop per kind.
type adapter[R any, L any] struct {
	fetch      func(ctx context.Context, since *time.Time) ([]R, error)
	externalID func(R) int64
	mapRecord  func(R) *L
}

// newReconciler builds a Runner whose body is the generic single-endpoint
// reconcile loop: retried fetch, per-record upsert, and, on a full run
// with a non-empty fetch, retirement of local records absent upstream.
// The actor stamps every write, retirements included.
func newReconciler[R any, L any](
	endpoint string, states *StateStore, entities *store.EntityStore[L],
	ad adapter[R, L], actor string, logger *slog.Logger,
) *Runner {
	r := &Runner{
		endpoint: endpoint,
		states:   states,
		logger:   logger,
	}

	r.do = func(ctx context.Context, cfg EndpointConfig, dec Decision) (Counts, error) {
		records, err := fetchWithRetry(ctx, endpoint, cfg, r.backoffBase, logger, func(ctx context.Context) ([]R, error) {
			return ad.fetch(ctx, dec.FetchSince())
		})
		if err != nil {
			return Counts{}, err
		}

		var counts Counts

		seen := make([]int64, 0, len(records))

		for _, rec := range records {
			seen = append(seen, ad.externalID(rec))

			created, err := entities.Upsert(ctx, ad.mapRecord(rec))
			if err != nil {
				return Counts{}, err
			}

			if created {
				counts.Created++
			} else {
				counts.Updated++
			}
		}

		// Upstream deletions propagate only on a full sweep: a delta window
		// is incomplete and must not be read as "everything else is gone".
		// An empty full fetch is also left alone rather than retiring the
		// entire table.
		if !dec.UseDelta && len(records) > 0 {
			deleted, err := entities.RetireMissing(ctx, seen, actor)
			if err != nil {
				return Counts{}, err
			}

			counts.Deleted = deleted
		}

		return counts, nil
	}

	return r
}
