package store

import (
	"database/sql"
	"log/slog"
)

// Entity kinds. Each struct mirrors one table; the embedded Audit block
// carries the shared lifecycle columns. Parent references hold the parent's
// external id, zero meaning unattached.

type Category struct {
	Audit
	ExternalID int64
	Name       string
	Kind       string
	Note       string
}

type Item struct {
	Audit
	ExternalID         int64
	Name               string
	CategoryExternalID int64
	CompanyExternalID  int64
	Size               int64
	Grade              string
	Price              float64
}

type Company struct {
	Audit
	ExternalID int64
	Name       string
	Nickname   string
	Industry   string
}

type StarSystem struct {
	Audit
	ExternalID   int64
	Name         string
	Code         string
	Jurisdiction string
	Available    bool
}

type Planet struct {
	Audit
	ExternalID           int64
	Name                 string
	Code                 string
	StarSystemExternalID int64
	Available            bool
}

type Moon struct {
	Audit
	ExternalID       int64
	Name             string
	Code             string
	PlanetExternalID int64
	Available        bool
}

type City struct {
	Audit
	ExternalID       int64
	Name             string
	Code             string
	PlanetExternalID int64
	Available        bool
}

type SpaceStation struct {
	Audit
	ExternalID       int64
	Name             string
	Code             string
	PlanetExternalID int64
	Available        bool
}

type Outpost struct {
	Audit
	ExternalID     int64
	Name           string
	Code           string
	MoonExternalID int64
	Available      bool
}

type PointOfInterest struct {
	Audit
	ExternalID             int64
	Name                   string
	Code                   string
	SpaceStationExternalID int64
	Available              bool
}

func NewCategoryStore(db *sql.DB, logger *slog.Logger) *EntityStore[Category] {
	return newEntityStore(db, kindSpec[Category]{
		table:   "categories",
		columns: []string{"name", "kind", "note"},
		id:      func(r *Category) int64 { return r.ExternalID },
		attrs:   func(r *Category) []any { return []any{r.Name, r.Kind, r.Note} },
		ptrs:    func(r *Category) []any { return []any{&r.Name, &r.Kind, &r.Note} },
		audit:   func(r *Category) *Audit { return &r.Audit },
	}, logger)
}

func NewItemStore(db *sql.DB, logger *slog.Logger) *EntityStore[Item] {
	return newEntityStore(db, kindSpec[Item]{
		table:   "items",
		columns: []string{"name", "category_external_id", "company_external_id", "size", "grade", "price"},
		id:      func(r *Item) int64 { return r.ExternalID },
		attrs: func(r *Item) []any {
			return []any{r.Name, r.CategoryExternalID, r.CompanyExternalID, r.Size, r.Grade, r.Price}
		},
		ptrs: func(r *Item) []any {
			return []any{&r.Name, &r.CategoryExternalID, &r.CompanyExternalID, &r.Size, &r.Grade, &r.Price}
		},
		audit: func(r *Item) *Audit { return &r.Audit },
	}, logger)
}

func NewCompanyStore(db *sql.DB, logger *slog.Logger) *EntityStore[Company] {
	return newEntityStore(db, kindSpec[Company]{
		table:   "companies",
		columns: []string{"name", "nickname", "industry"},
		id:      func(r *Company) int64 { return r.ExternalID },
		attrs:   func(r *Company) []any { return []any{r.Name, r.Nickname, r.Industry} },
		ptrs:    func(r *Company) []any { return []any{&r.Name, &r.Nickname, &r.Industry} },
		audit:   func(r *Company) *Audit { return &r.Audit },
	}, logger)
}

func NewStarSystemStore(db *sql.DB, logger *slog.Logger) *EntityStore[StarSystem] {
	return newEntityStore(db, kindSpec[StarSystem]{
		table:   "star_systems",
		columns: []string{"name", "code", "jurisdiction", "available"},
		id:      func(r *StarSystem) int64 { return r.ExternalID },
		attrs:   func(r *StarSystem) []any { return []any{r.Name, r.Code, r.Jurisdiction, r.Available} },
		ptrs:    func(r *StarSystem) []any { return []any{&r.Name, &r.Code, &r.Jurisdiction, &r.Available} },
		audit:   func(r *StarSystem) *Audit { return &r.Audit },
	}, logger)
}

func NewPlanetStore(db *sql.DB, logger *slog.Logger) *EntityStore[Planet] {
	return newEntityStore(db, kindSpec[Planet]{
		table:   "planets",
		columns: []string{"name", "code", "star_system_external_id", "available"},
		id:      func(r *Planet) int64 { return r.ExternalID },
		attrs:   func(r *Planet) []any { return []any{r.Name, r.Code, r.StarSystemExternalID, r.Available} },
		ptrs:    func(r *Planet) []any { return []any{&r.Name, &r.Code, &r.StarSystemExternalID, &r.Available} },
		audit:   func(r *Planet) *Audit { return &r.Audit },
	}, logger)
}

func NewMoonStore(db *sql.DB, logger *slog.Logger) *EntityStore[Moon] {
	return newEntityStore(db, kindSpec[Moon]{
		table:   "moons",
		columns: []string{"name", "code", "planet_external_id", "available"},
		id:      func(r *Moon) int64 { return r.ExternalID },
		attrs:   func(r *Moon) []any { return []any{r.Name, r.Code, r.PlanetExternalID, r.Available} },
		ptrs:    func(r *Moon) []any { return []any{&r.Name, &r.Code, &r.PlanetExternalID, &r.Available} },
		audit:   func(r *Moon) *Audit { return &r.Audit },
	}, logger)
}

func NewCityStore(db *sql.DB, logger *slog.Logger) *EntityStore[City] {
	return newEntityStore(db, kindSpec[City]{
		table:   "cities",
		columns: []string{"name", "code", "planet_external_id", "available"},
		id:      func(r *City) int64 { return r.ExternalID },
		attrs:   func(r *City) []any { return []any{r.Name, r.Code, r.PlanetExternalID, r.Available} },
		ptrs:    func(r *City) []any { return []any{&r.Name, &r.Code, &r.PlanetExternalID, &r.Available} },
		audit:   func(r *City) *Audit { return &r.Audit },
	}, logger)
}

func NewSpaceStationStore(db *sql.DB, logger *slog.Logger) *EntityStore[SpaceStation] {
	return newEntityStore(db, kindSpec[SpaceStation]{
		table:   "space_stations",
		columns: []string{"name", "code", "planet_external_id", "available"},
		id:      func(r *SpaceStation) int64 { return r.ExternalID },
		attrs:   func(r *SpaceStation) []any { return []any{r.Name, r.Code, r.PlanetExternalID, r.Available} },
		ptrs:    func(r *SpaceStation) []any { return []any{&r.Name, &r.Code, &r.PlanetExternalID, &r.Available} },
		audit:   func(r *SpaceStation) *Audit { return &r.Audit },
	}, logger)
}

func NewOutpostStore(db *sql.DB, logger *slog.Logger) *EntityStore[Outpost] {
	return newEntityStore(db, kindSpec[Outpost]{
		table:   "outposts",
		columns: []string{"name", "code", "moon_external_id", "available"},
		id:      func(r *Outpost) int64 { return r.ExternalID },
		attrs:   func(r *Outpost) []any { return []any{r.Name, r.Code, r.MoonExternalID, r.Available} },
		ptrs:    func(r *Outpost) []any { return []any{&r.Name, &r.Code, &r.MoonExternalID, &r.Available} },
		audit:   func(r *Outpost) *Audit { return &r.Audit },
	}, logger)
}

func NewPointOfInterestStore(db *sql.DB, logger *slog.Logger) *EntityStore[PointOfInterest] {
	return newEntityStore(db, kindSpec[PointOfInterest]{
		table:   "points_of_interest",
		columns: []string{"name", "code", "space_station_external_id", "available"},
		id:      func(r *PointOfInterest) int64 { return r.ExternalID },
		attrs: func(r *PointOfInterest) []any {
			return []any{r.Name, r.Code, r.SpaceStationExternalID, r.Available}
		},
		ptrs: func(r *PointOfInterest) []any {
			return []any{&r.Name, &r.Code, &r.SpaceStationExternalID, &r.Available}
		},
		audit: func(r *PointOfInterest) *Audit { return &r.Audit },
	}, logger)
}
