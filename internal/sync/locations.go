package sync

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tonimelisma/stellarsync/internal/remote"
)

// defaultKindPause is the breather between location kinds. Like the items
// chunk pause, it keeps the back-to-back calls polite.
const defaultKindPause = 1 * time.Second

// LocationsReconciler syncs the seven-kind location hierarchy. It is really
// seven reconcilers run strictly parent-before-child: children store their
// parent's external id and must resolve against already-synced parents. A
// failure in any kind aborts the remaining kinds for that run — later kinds
// depend on earlier ones having completed, so there is no per-kind failure
// tolerance here (deliberately unlike items).
type LocationsReconciler struct {
	kinds  []*Runner // in strict parent-before-child order
	logger *slog.Logger

	// kindPause is the delay between kinds. Tests set zero.
	kindPause time.Duration
}

// NewLocationsReconciler builds the seven kind runners in hierarchy order:
// star systems, planets, moons, cities, space stations, outposts, points of
// interest.
func NewLocationsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *LocationsReconciler {
	return &LocationsReconciler{
		kinds: []*Runner{
			NewStarSystemsReconciler(states, client, stores, actor, logger),
			NewPlanetsReconciler(states, client, stores, actor, logger),
			NewMoonsReconciler(states, client, stores, actor, logger),
			NewCitiesReconciler(states, client, stores, actor, logger),
			NewSpaceStationsReconciler(states, client, stores, actor, logger),
			NewOutpostsReconciler(states, client, stores, actor, logger),
			NewPointsOfInterestReconciler(states, client, stores, actor, logger),
		},
		logger:    logger,
		kindPause: defaultKindPause,
	}
}

// Endpoints returns the location endpoint names in sync order.
func (lr *LocationsReconciler) Endpoints() []string {
	names := make([]string, len(lr.kinds))
	for i, k := range lr.kinds {
		names[i] = k.Endpoint()
	}

	return names
}

// Run syncs all seven kinds in order, aggregating their counts. Each kind
// takes and releases its own endpoint lock and records its own outcome; the
// aggregate result is informational. The durability ordering guarantee is
// sequential invocation, not transactional scope: star systems are fully
// persisted before the first planet is fetched, and so on down.
func (lr *LocationsReconciler) Run(ctx context.Context, forceFull bool) ([]Result, error) {
	results := make([]Result, 0, len(lr.kinds))

	for i, kind := range lr.kinds {
		if i > 0 {
			if err := pause(ctx, lr.kindPause); err != nil {
				return results, err
			}
		}

		res, err := kind.Run(ctx, forceFull)
		if err != nil {
			lr.logger.Error("location sync aborted; remaining kinds skipped",
				slog.String("failed_kind", kind.Endpoint()),
				slog.Int("kinds_completed", i),
			)

			return results, fmt.Errorf("sync: locations: %s: %w", kind.Endpoint(), err)
		}

		results = append(results, res)
	}

	return results, nil
}

// Aggregate folds per-kind results into one summary with the combined
// counts and total duration.
func Aggregate(results []Result) Result {
	agg := Result{Endpoint: "locations"}

	for _, r := range results {
		agg.Counts.add(r.Counts)
		agg.Duration += r.Duration
		agg.Mode = r.Mode
	}

	return agg
}
