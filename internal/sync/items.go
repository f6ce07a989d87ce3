package sync

import (
	"context"
	"log/slog"
	stdsync "sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tonimelisma/stellarsync/internal/remote"
	"github.com/tonimelisma/stellarsync/internal/store"
)

// Items sync tuning. The upstream only serves items scoped by category, so
// a run makes one call per active local category; chunked concurrency with
// a pause between chunks keeps the call rate inside the upstream's comfort
// zone.
const (
	defaultCategoryConcurrency = 3
	defaultChunkPause          = 2 * time.Second
	defaultItemBatchSize       = 50
)

// ItemsTuning overrides the items pacing defaults. Zero fields keep the
// defaults.
type ItemsTuning struct {
	CategoryConcurrency int
	ChunkPause          time.Duration
	BatchSize           int
}

// NewItemsReconciler builds the items runner. Unlike the single-endpoint
// reconcilers, a single category's failure is logged and skipped rather
// than aborting the run: one bad category must not block the other
// categories' data from landing. The run records success even with partial
// failures.
//
// Full-sync retirement of missing items is deliberately not performed; the
// per-category fetch windows don't compose into one authoritative snapshot
// to diff against.
func NewItemsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, tuning ItemsTuning, logger *slog.Logger) *Runner {
	if tuning.CategoryConcurrency < 1 {
		tuning.CategoryConcurrency = defaultCategoryConcurrency
	}

	if tuning.ChunkPause <= 0 {
		tuning.ChunkPause = defaultChunkPause
	}

	if tuning.BatchSize < 1 {
		tuning.BatchSize = defaultItemBatchSize
	}

	r := &Runner{
		endpoint: EndpointItems,
		states:   states,
		logger:   logger,
	}

	ir := &itemsRun{
		client:      client,
		categories:  stores.Categories,
		items:       stores.Items,
		actor:       actor,
		logger:      logger,
		concurrency: tuning.CategoryConcurrency,
		chunkPause:  tuning.ChunkPause,
		batchSize:   tuning.BatchSize,
		runner:      r,
	}

	r.do = ir.do

	return r
}

// itemsRun holds the items-specific knobs. Tests shrink the pause and
// batch size.
type itemsRun struct {
	client      *remote.Client
	categories  *store.EntityStore[store.Category]
	items       *store.EntityStore[store.Item]
	actor       string
	logger      *slog.Logger
	concurrency int
	chunkPause  time.Duration
	batchSize   int
	runner      *Runner
}

func (ir *itemsRun) do(ctx context.Context, cfg EndpointConfig, dec Decision) (Counts, error) {
	categoryIDs, err := ir.categories.ActiveExternalIDs(ctx)
	if err != nil {
		return Counts{}, err
	}

	if len(categoryIDs) == 0 {
		ir.logger.Warn("no active categories; nothing to fetch items for")
		return Counts{}, nil
	}

	var (
		mu     stdsync.Mutex
		counts Counts
		failed int
	)

	for start := 0; start < len(categoryIDs); start += ir.concurrency {
		end := min(start+ir.concurrency, len(categoryIDs))
		chunk := categoryIDs[start:end]

		g, gctx := errgroup.WithContext(ctx)

		for _, categoryID := range chunk {
			g.Go(func() error {
				c, catErr := ir.syncCategory(gctx, cfg, dec, categoryID)
				if catErr != nil {
					// Tolerated: log and move on. Cancellation is the one
					// exception — it aborts the whole run.
					if gctx.Err() != nil {
						return gctx.Err()
					}

					ir.logger.Warn("items sync failed for category, skipping",
						slog.Int64("category_id", categoryID),
						slog.String("error", catErr.Error()),
					)

					mu.Lock()
					failed++
					mu.Unlock()

					return nil
				}

				mu.Lock()
				counts.add(c)
				mu.Unlock()

				return nil
			})
		}

		if err := g.Wait(); err != nil {
			return Counts{}, err
		}

		if end < len(categoryIDs) {
			if err := pause(ctx, ir.chunkPause); err != nil {
				return Counts{}, err
			}
		}
	}

	if failed > 0 {
		ir.logger.Warn("items sync finished with skipped categories",
			slog.Int("skipped", failed),
			slog.Int("total", len(categoryIDs)),
		)
	}

	return counts, nil
}

// syncCategory fetches one category's items and upserts them in fixed-size
// batches, each batch its own transaction.
func (ir *itemsRun) syncCategory(ctx context.Context, cfg EndpointConfig, dec Decision, categoryID int64) (Counts, error) {
	records, err := fetchWithRetry(ctx, EndpointItems, cfg, ir.runner.backoffBase, ir.logger, func(ctx context.Context) ([]remote.Item, error) {
		return ir.client.Items(ctx, categoryID, dec.FetchSince())
	})
	if err != nil {
		return Counts{}, err
	}

	var counts Counts

	for start := 0; start < len(records); start += ir.batchSize {
		end := min(start+ir.batchSize, len(records))

		batch := make([]*store.Item, 0, end-start)
		for _, rec := range records[start:end] {
			batch = append(batch, &store.Item{
				Audit:              store.Audit{UpdatedBy: ir.actor},
				ExternalID:         rec.ID,
				Name:               rec.Name,
				CategoryExternalID: rec.CategoryID,
				CompanyExternalID:  rec.CompanyID,
				Size:               rec.Size,
				Grade:              rec.Grade,
				Price:              rec.Price,
			})
		}

		created, updated, err := ir.items.UpsertBatch(ctx, batch)
		if err != nil {
			return Counts{}, err
		}

		counts.Created += created
		counts.Updated += updated
	}

	ir.logger.Debug("category items synced",
		slog.Int64("category_id", categoryID),
		slog.Int("fetched", len(records)),
	)

	return counts, nil
}

// pause sleeps for d or until the context is canceled.
func pause(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
