package remote

import (
	"context"
	"strconv"
	"time"
)

// Categories fetches item categories, optionally filtered to those modified
// since the watermark.
func (c *Client) Categories(ctx context.Context, since *time.Time) ([]Category, error) {
	return fetchList[Category](ctx, c, "categories", "/categories", deltaQuery(since))
}

// Items fetches the tradable items belonging to one category. The upstream
// only serves items scoped by category, so callers iterate their local
// category list.
func (c *Client) Items(ctx context.Context, categoryID int64, since *time.Time) ([]Item, error) {
	q := deltaQuery(since)
	q.Set("id_category", strconv.FormatInt(categoryID, 10))

	return fetchList[Item](ctx, c, "items", "/items", q)
}

// Companies fetches manufacturers.
func (c *Client) Companies(ctx context.Context, since *time.Time) ([]Company, error) {
	return fetchList[Company](ctx, c, "companies", "/companies", deltaQuery(since))
}
