package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

// Scheduler owns the reconcilers and invokes them on demand (manual
// trigger) or on a fixed cadence (daemon mode). It is the only caller of
// the reconcilers' Run methods. Families always run categories first (items
// are fetched per category), then companies, then items, then the location
// hierarchy.
type Scheduler struct {
	categories *Runner
	companies  *Runner
	items      *Runner
	locations  *LocationsReconciler
	logger     *slog.Logger
}

// NewScheduler wires the reconcilers for all data families.
func NewScheduler(categories, companies, items *Runner, locations *LocationsReconciler, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		categories: categories,
		companies:  companies,
		items:      items,
		locations:  locations,
		logger:     logger,
	}
}

// KnownEndpoints returns every endpoint name the scheduler can target, in
// run order.
func (sc *Scheduler) KnownEndpoints() []string {
	names := []string{EndpointCategories, EndpointCompanies, EndpointItems}

	return append(names, sc.locations.Endpoints()...)
}

// RunAll syncs every family in dependency order. A lock conflict on one
// family (another process already syncing it) is logged and skipped; any
// other failure is collected but does not stop the remaining families,
// except inside the location hierarchy where ordering makes later kinds
// depend on earlier ones. Returns all completed results and the joined
// errors.
func (sc *Scheduler) RunAll(ctx context.Context, forceFull bool) ([]Result, error) {
	var (
		results []Result
		errs    []error
	)

	for _, runner := range []*Runner{sc.categories, sc.companies, sc.items} {
		res, err := runner.Run(ctx, forceFull)
		if err != nil {
			if !sc.skippable(err, runner.Endpoint()) {
				errs = append(errs, err)
			}

			if ctx.Err() != nil {
				return results, errors.Join(errs...)
			}

			continue
		}

		results = append(results, res)
	}

	locResults, err := sc.locations.Run(ctx, forceFull)
	results = append(results, locResults...)

	if err != nil && !sc.skippable(err, "locations") {
		errs = append(errs, err)
	}

	return results, errors.Join(errs...)
}

// RunEndpoints syncs only the named endpoints, in the scheduler's canonical
// order. Location kinds may be named individually; naming any location kind
// runs just that kind (its parents must already be synced). Unknown names
// are an error before any sync starts.
func (sc *Scheduler) RunEndpoints(ctx context.Context, names []string, forceFull bool) ([]Result, error) {
	runners := make(map[string]*Runner, len(sc.locations.kinds)+3)
	runners[EndpointCategories] = sc.categories
	runners[EndpointCompanies] = sc.companies
	runners[EndpointItems] = sc.items

	for _, kind := range sc.locations.kinds {
		runners[kind.Endpoint()] = kind
	}

	for _, name := range names {
		if _, ok := runners[name]; !ok {
			return nil, fmt.Errorf("sync: unknown endpoint %q", name)
		}
	}

	requested := make(map[string]bool, len(names))
	for _, name := range names {
		requested[name] = true
	}

	var (
		results []Result
		errs    []error
	)

	for _, name := range sc.KnownEndpoints() {
		if !requested[name] {
			continue
		}

		res, err := runners[name].Run(ctx, forceFull)
		if err != nil {
			if !sc.skippable(err, name) {
				errs = append(errs, err)
			}

			if ctx.Err() != nil {
				break
			}

			continue
		}

		results = append(results, res)
	}

	return results, errors.Join(errs...)
}

// RunForever syncs all families every interval until the context is
// canceled. The first pass runs immediately. Used by daemon mode.
func (sc *Scheduler) RunForever(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if _, err := sc.RunAll(ctx, false); err != nil {
			// Failed families have already been recorded per endpoint; the
			// daemon keeps going and the next tick retries.
			sc.logger.Error("scheduled sync pass finished with errors",
				slog.String("error", err.Error()),
			)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

// skippable reports whether the error is a lock conflict, which only means
// another run got there first and is not a failure of this pass.
func (sc *Scheduler) skippable(err error, endpoint string) bool {
	if errors.Is(err, ErrLockConflict) {
		sc.logger.Warn("endpoint already being synced elsewhere, skipping",
			slog.String("endpoint", endpoint),
		)

		return true
	}

	return false
}
