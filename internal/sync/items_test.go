package sync

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/stellarsync/internal/remote"
	"github.com/tonimelisma/stellarsync/internal/store"
)

// newItemsRunner builds an items runner with test-sized knobs: no chunk
// pause, tiny batches, fast retry.
func newItemsRunner(t *testing.T, states *StateStore, stores Stores, client *remote.Client) *Runner {
	t.Helper()

	logger := testLogger(t)

	r := &Runner{
		endpoint:    EndpointItems,
		states:      states,
		logger:      logger,
		backoffBase: time.Millisecond,
	}

	ir := &itemsRun{
		client:      client,
		categories:  stores.Categories,
		items:       stores.Items,
		actor:       "system",
		logger:      logger,
		concurrency: 2,
		chunkPause:  0,
		batchSize:   2,
		runner:      r,
	}
	r.do = ir.do

	return r
}

// seedCategories inserts active local categories with the given external ids.
func seedCategories(t *testing.T, stores Stores, ids ...int64) {
	t.Helper()

	for _, id := range ids {
		_, err := stores.Categories.Upsert(context.Background(), &store.Category{
			Audit:      store.Audit{UpdatedBy: "system"},
			ExternalID: id,
			Name:       fmt.Sprintf("category %d", id),
			Kind:       "test",
		})
		require.NoError(t, err)
	}
}

// itemsHandler serves per-category item payloads keyed by id_category;
// categories in failWith get the mapped HTTP status instead.
func itemsHandler(payloads map[string]string, failWith map[string]int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		categoryID := r.URL.Query().Get("id_category")

		if code, ok := failWith[categoryID]; ok {
			w.WriteHeader(code)
			_, _ = w.Write([]byte(`{"status":"error","message":"category unavailable"}`))
			return
		}

		payload, ok := payloads[categoryID]
		if !ok {
			payload = "[]"
		}

		_, _ = w.Write([]byte(okEnvelope(payload)))
	}
}

func itemJSON(id, categoryID int64, name string) string {
	return fmt.Sprintf(`{"id":%d,"name":%q,"id_category":%d,"id_company":1,"size":2,"grade":"A","price":100.5}`,
		id, name, categoryID)
}

func TestItemsSync(t *testing.T) {
	ctx := context.Background()

	t.Run("fetches per active category", func(t *testing.T) {
		states, stores := newTestEnv(t)
		seedCategories(t, stores, 1, 2, 3)

		client := newUpstream(t, itemsHandler(map[string]string{
			"1": "[" + itemJSON(10, 1, "Laser") + "," + itemJSON(11, 1, "Railgun") + "," + itemJSON(12, 1, "Cannon") + "]",
			"2": "[" + itemJSON(20, 2, "Helmet") + "]",
			"3": "[]",
		}, nil))

		r := newItemsRunner(t, states, stores, client)

		res, err := r.Run(ctx, false)
		require.NoError(t, err)

		assert.Equal(t, 4, res.Created)
		assert.Equal(t, 0, res.Updated)
		assert.Equal(t, 0, res.Deleted)

		item, err := stores.Items.Get(ctx, 11)
		require.NoError(t, err)
		require.NotNil(t, item)
		assert.Equal(t, "Railgun", item.Name)
		assert.Equal(t, int64(1), item.CategoryExternalID)
		assert.Equal(t, "system", item.UpdatedBy)
	})

	t.Run("one bad category does not block the rest", func(t *testing.T) {
		states, stores := newTestEnv(t)
		seedCategories(t, stores, 1, 2, 3, 4, 5)

		payloads := make(map[string]string)
		for _, id := range []int64{1, 3, 4, 5} {
			payloads[fmt.Sprint(id)] = "[" + itemJSON(id*10, id, fmt.Sprintf("item %d", id)) + "]"
		}

		client := newUpstream(t, itemsHandler(payloads, map[string]int{
			"2": http.StatusNotFound,
		}))

		r := newItemsRunner(t, states, stores, client)

		res, err := r.Run(ctx, false)
		require.NoError(t, err, "a single category failure is tolerated")
		assert.Equal(t, 4, res.Created)

		// The run still counts as a success for the endpoint.
		st, err := states.State(ctx, EndpointItems)
		require.NoError(t, err)
		require.NotNil(t, st)
		assert.Equal(t, RunSuccess, st.Status)
	})

	t.Run("no active categories is a no-op", func(t *testing.T) {
		states, stores := newTestEnv(t)

		client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
			t.Error("no request expected without active categories")
		})

		r := newItemsRunner(t, states, stores, client)

		res, err := r.Run(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, Counts{}, res.Counts)
	})

	t.Run("full run never retires items", func(t *testing.T) {
		states, stores := newTestEnv(t)
		seedCategories(t, stores, 1)

		client := newUpstream(t, itemsHandler(map[string]string{
			"1": "[" + itemJSON(10, 1, "Laser") + "," + itemJSON(11, 1, "Railgun") + "]",
		}, nil))

		r := newItemsRunner(t, states, stores, client)
		_, err := r.Run(ctx, false)
		require.NoError(t, err)

		// Item 11 vanishes upstream; a forced full sweep must still leave it
		// active. Per-category fetch windows never compose into one snapshot
		// to diff against.
		client2 := newUpstream(t, itemsHandler(map[string]string{
			"1": "[" + itemJSON(10, 1, "Laser") + "]",
		}, nil))

		r2 := newItemsRunner(t, states, stores, client2)
		res, err := r2.Run(ctx, true)
		require.NoError(t, err)
		assert.Equal(t, 0, res.Deleted)

		ids, err := stores.Items.ActiveExternalIDs(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, []int64{10, 11}, ids)
	})

	t.Run("batches split large categories", func(t *testing.T) {
		states, stores := newTestEnv(t)
		seedCategories(t, stores, 1)

		// Five items against a batch size of two forces three transactions.
		payload := "[" + itemJSON(1, 1, "a") + "," + itemJSON(2, 1, "b") + "," +
			itemJSON(3, 1, "c") + "," + itemJSON(4, 1, "d") + "," + itemJSON(5, 1, "e") + "]"

		client := newUpstream(t, itemsHandler(map[string]string{"1": payload}, nil))

		r := newItemsRunner(t, states, stores, client)

		res, err := r.Run(ctx, false)
		require.NoError(t, err)
		assert.Equal(t, 5, res.Created)

		ids, err := stores.Items.ActiveExternalIDs(ctx)
		require.NoError(t, err)
		assert.Len(t, ids, 5)
	})
}
