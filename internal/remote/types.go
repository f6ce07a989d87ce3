package remote

// envelope is the upstream response wrapper. Every endpoint returns
// {"status": "ok"|"error", "data": [...], "message": "..."}; the message
// field is only populated on errors.
type envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// Category is a catalog item category as returned by the upstream API.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Kind string `json:"section"`
	Note string `json:"note"`
}

// Item is a tradable item. CategoryID and CompanyID reference upstream ids.
type Item struct {
	ID         int64   `json:"id"`
	Name       string  `json:"name"`
	CategoryID int64   `json:"id_category"`
	CompanyID  int64   `json:"id_company"`
	Size       int64   `json:"size"`
	Grade      string  `json:"grade"`
	Price      float64 `json:"price"`
}

// Company is a manufacturer.
type Company struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Nickname string `json:"nickname"`
	Industry string `json:"industry"`
}

// StarSystem is the root of the location hierarchy. Available arrives as a
// numeric flag; any zero value means unavailable.
type StarSystem struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	Jurisdiction string `json:"jurisdiction"`
	Available    int    `json:"is_available"`
}

// Planet belongs to a star system.
type Planet struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Code         string `json:"code"`
	StarSystemID int64  `json:"id_star_system"`
	Available    int    `json:"is_available"`
}

// Moon belongs to a planet.
type Moon struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	PlanetID  int64  `json:"id_planet"`
	Available int    `json:"is_available"`
}

// City sits on a planet. PlanetID may be zero for cities the upstream has
// not yet attached to a parent.
type City struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	PlanetID  int64  `json:"id_planet"`
	Available int    `json:"is_available"`
}

// SpaceStation orbits a planet. PlanetID may be zero for deep-space stations.
type SpaceStation struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	PlanetID  int64  `json:"id_planet"`
	Available int    `json:"is_available"`
}

// Outpost sits on a moon. MoonID may be zero.
type Outpost struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	MoonID    int64  `json:"id_moon"`
	Available int    `json:"is_available"`
}

// PointOfInterest is attached to a space station. StationID may be zero.
type PointOfInterest struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Code      string `json:"code"`
	StationID int64  `json:"id_space_station"`
	Available int    `json:"is_available"`
}
