package remote

import (
	"context"
	"time"
)

// Location family endpoints. Each kind has its own fixed sub-path; all accept
// the modified-since watermark for delta fetches.

func (c *Client) StarSystems(ctx context.Context, since *time.Time) ([]StarSystem, error) {
	return fetchList[StarSystem](ctx, c, "star_systems", "/star_systems", deltaQuery(since))
}

func (c *Client) Planets(ctx context.Context, since *time.Time) ([]Planet, error) {
	return fetchList[Planet](ctx, c, "planets", "/planets", deltaQuery(since))
}

func (c *Client) Moons(ctx context.Context, since *time.Time) ([]Moon, error) {
	return fetchList[Moon](ctx, c, "moons", "/moons", deltaQuery(since))
}

func (c *Client) Cities(ctx context.Context, since *time.Time) ([]City, error) {
	return fetchList[City](ctx, c, "cities", "/cities", deltaQuery(since))
}

func (c *Client) SpaceStations(ctx context.Context, since *time.Time) ([]SpaceStation, error) {
	return fetchList[SpaceStation](ctx, c, "space_stations", "/space_stations", deltaQuery(since))
}

func (c *Client) Outposts(ctx context.Context, since *time.Time) ([]Outpost, error) {
	return fetchList[Outpost](ctx, c, "outposts", "/outposts", deltaQuery(since))
}

func (c *Client) PointsOfInterest(ctx context.Context, since *time.Time) ([]PointOfInterest, error) {
	return fetchList[PointOfInterest](ctx, c, "points_of_interest", "/points_of_interest", deltaQuery(since))
}
