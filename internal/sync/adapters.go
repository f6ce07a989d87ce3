package sync

import (
	"log/slog"

	"github.com/tonimelisma/stellarsync/internal/remote"
	"github.com/tonimelisma/stellarsync/internal/store"
)

// Adapter constructors for the single-endpoint reconcilers. Each binds one
// remote fetch, one entity store, and the remote-to-local field mapping.
// The actor is the system identity resolved once at process start; it is
// stamped into every write.

// Stores bundles the per-kind entity stores so reconciler constructors
// don't take ten positional parameters.
type Stores struct {
	Categories       *store.EntityStore[store.Category]
	Items            *store.EntityStore[store.Item]
	Companies        *store.EntityStore[store.Company]
	StarSystems      *store.EntityStore[store.StarSystem]
	Planets          *store.EntityStore[store.Planet]
	Moons            *store.EntityStore[store.Moon]
	Cities           *store.EntityStore[store.City]
	SpaceStations    *store.EntityStore[store.SpaceStation]
	Outposts         *store.EntityStore[store.Outpost]
	PointsOfInterest *store.EntityStore[store.PointOfInterest]
}

// NewStores constructs all entity stores over the shared database.
func NewStores(s *store.Store, logger *slog.Logger) Stores {
	db := s.DB()

	return Stores{
		Categories:       store.NewCategoryStore(db, logger),
		Items:            store.NewItemStore(db, logger),
		Companies:        store.NewCompanyStore(db, logger),
		StarSystems:      store.NewStarSystemStore(db, logger),
		Planets:          store.NewPlanetStore(db, logger),
		Moons:            store.NewMoonStore(db, logger),
		Cities:           store.NewCityStore(db, logger),
		SpaceStations:    store.NewSpaceStationStore(db, logger),
		Outposts:         store.NewOutpostStore(db, logger),
		PointsOfInterest: store.NewPointOfInterestStore(db, logger),
	}
}

// NewCategoriesReconciler reconciles item categories.
func NewCategoriesReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointCategories, states, stores.Categories, adapter[remote.Category, store.Category]{
		fetch:      client.Categories,
		externalID: func(r remote.Category) int64 { return r.ID },
		mapRecord: func(r remote.Category) *store.Category {
			return &store.Category{
				Audit:      store.Audit{UpdatedBy: actor},
				ExternalID: r.ID,
				Name:       r.Name,
				Kind:       r.Kind,
				Note:       r.Note,
			}
		},
	}, actor, logger)
}

// NewCompaniesReconciler reconciles manufacturers.
func NewCompaniesReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointCompanies, states, stores.Companies, adapter[remote.Company, store.Company]{
		fetch:      client.Companies,
		externalID: func(r remote.Company) int64 { return r.ID },
		mapRecord: func(r remote.Company) *store.Company {
			return &store.Company{
				Audit:      store.Audit{UpdatedBy: actor},
				ExternalID: r.ID,
				Name:       r.Name,
				Nickname:   r.Nickname,
				Industry:   r.Industry,
			}
		},
	}, actor, logger)
}

// Location kind reconcilers. The upstream availability flag is numeric;
// any zero value maps to unavailable.

func NewStarSystemsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointStarSystems, states, stores.StarSystems, adapter[remote.StarSystem, store.StarSystem]{
		fetch:      client.StarSystems,
		externalID: func(r remote.StarSystem) int64 { return r.ID },
		mapRecord: func(r remote.StarSystem) *store.StarSystem {
			return &store.StarSystem{
				Audit:        store.Audit{UpdatedBy: actor},
				ExternalID:   r.ID,
				Name:         r.Name,
				Code:         r.Code,
				Jurisdiction: r.Jurisdiction,
				Available:    r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewPlanetsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointPlanets, states, stores.Planets, adapter[remote.Planet, store.Planet]{
		fetch:      client.Planets,
		externalID: func(r remote.Planet) int64 { return r.ID },
		mapRecord: func(r remote.Planet) *store.Planet {
			return &store.Planet{
				Audit:                store.Audit{UpdatedBy: actor},
				ExternalID:           r.ID,
				Name:                 r.Name,
				Code:                 r.Code,
				StarSystemExternalID: r.StarSystemID,
				Available:            r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewMoonsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointMoons, states, stores.Moons, adapter[remote.Moon, store.Moon]{
		fetch:      client.Moons,
		externalID: func(r remote.Moon) int64 { return r.ID },
		mapRecord: func(r remote.Moon) *store.Moon {
			return &store.Moon{
				Audit:            store.Audit{UpdatedBy: actor},
				ExternalID:       r.ID,
				Name:             r.Name,
				Code:             r.Code,
				PlanetExternalID: r.PlanetID,
				Available:        r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewCitiesReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointCities, states, stores.Cities, adapter[remote.City, store.City]{
		fetch:      client.Cities,
		externalID: func(r remote.City) int64 { return r.ID },
		mapRecord: func(r remote.City) *store.City {
			return &store.City{
				Audit:            store.Audit{UpdatedBy: actor},
				ExternalID:       r.ID,
				Name:             r.Name,
				Code:             r.Code,
				PlanetExternalID: r.PlanetID,
				Available:        r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewSpaceStationsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointSpaceStations, states, stores.SpaceStations, adapter[remote.SpaceStation, store.SpaceStation]{
		fetch:      client.SpaceStations,
		externalID: func(r remote.SpaceStation) int64 { return r.ID },
		mapRecord: func(r remote.SpaceStation) *store.SpaceStation {
			return &store.SpaceStation{
				Audit:            store.Audit{UpdatedBy: actor},
				ExternalID:       r.ID,
				Name:             r.Name,
				Code:             r.Code,
				PlanetExternalID: r.PlanetID,
				Available:        r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewOutpostsReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointOutposts, states, stores.Outposts, adapter[remote.Outpost, store.Outpost]{
		fetch:      client.Outposts,
		externalID: func(r remote.Outpost) int64 { return r.ID },
		mapRecord: func(r remote.Outpost) *store.Outpost {
			return &store.Outpost{
				Audit:          store.Audit{UpdatedBy: actor},
				ExternalID:     r.ID,
				Name:           r.Name,
				Code:           r.Code,
				MoonExternalID: r.MoonID,
				Available:      r.Available != 0,
			}
		},
	}, actor, logger)
}

func NewPointsOfInterestReconciler(states *StateStore, client *remote.Client, stores Stores, actor string, logger *slog.Logger) *Runner {
	return newReconciler(EndpointPointsOfInterest, states, stores.PointsOfInterest, adapter[remote.PointOfInterest, store.PointOfInterest]{
		fetch:      client.PointsOfInterest,
		externalID: func(r remote.PointOfInterest) int64 { return r.ID },
		mapRecord: func(r remote.PointOfInterest) *store.PointOfInterest {
			return &store.PointOfInterest{
				Audit:                  store.Audit{UpdatedBy: actor},
				ExternalID:             r.ID,
				Name:                   r.Name,
				Code:                   r.Code,
				SpaceStationExternalID: r.StationID,
				Available:              r.Available != 0,
			}
		},
	}, actor, logger)
}
