package model

// Core domain types for the route optimization service.

// GeoPoint is a WGS84 coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// IsZero reports whether the point carries no usable coordinate.
func (g GeoPoint) IsZero() bool { return g.Lat == 0 && g.Lng == 0 }

// Stop is a single service visit to be scheduled. Time windows arrive from the
// persistence boundary as HH:MM strings and are parsed when the optimization
// problem is built; malformed strings fall back to the working-day window.
type Stop struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Address       string    `json:"address,omitempty"`
	Location      *GeoPoint `json:"location,omitempty"`
	ServiceMin    int       `json:"serviceMin,omitempty"`
	WindowStart   string    `json:"windowStart,omitempty"`
	WindowEnd     string    `json:"windowEnd,omitempty"`
	Priority      int       `json:"priority,omitempty"` // 1..5, informational
	Notes         string    `json:"notes,omitempty"`
	CustomerName  string    `json:"customerName,omitempty"`
	CustomerPhone string    `json:"customerPhone,omitempty"`
	CustomerEmail string    `json:"customerEmail,omitempty"`
}

// Technician maps to exactly one vehicle slot per optimization run.
type Technician struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Email  string   `json:"email,omitempty"`
	Phone  string   `json:"phone,omitempty"`
	Active bool     `json:"active"`
	Skills []string `json:"skills,omitempty"` // carried for future constraints, unused by the solver
}

// TimeWindow is an [earliest, latest] interval in minutes from midnight.
type TimeWindow struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether an arrival minute falls inside the window.
// Arrival, not service completion, is checked against the window.
func (w TimeWindow) Contains(min int) bool { return min >= w.Start && min <= w.End }

// OptimizeRequest selects the inputs for one optimization run. Empty ID lists
// mean "all stops" / "all active technicians". Zero-valued knobs fall back to
// the server's solver configuration.
type OptimizeRequest struct {
	StopIDs       []string  `json:"stopIds,omitempty"`
	TechnicianIDs []string  `json:"technicianIds,omitempty"`
	TimeBudgetSec int       `json:"timeBudgetSec,omitempty"`
	Seed          int64     `json:"seed,omitempty"`
	DepotPolicy   string    `json:"depotPolicy,omitempty"` // explicit, centroid, first-stop
	Depot         *GeoPoint `json:"depot,omitempty"`
}

// StopVisit is one scheduled visit inside a vehicle route.
type StopVisit struct {
	Stop       Stop       `json:"stop"`
	ArrivalMin int        `json:"arrivalMin"` // minutes from midnight, within the stop's window
	ServiceMin int        `json:"serviceMin"`
	Window     TimeWindow `json:"window"`
}

// Route is the ordered visit sequence assigned to one technician. Routes are
// immutable snapshots produced per run; downstream consumers treat them as
// read-only.
type Route struct {
	VehicleID      string      `json:"vehicleId"`
	Technician     Technician  `json:"technician"`
	Visits         []StopVisit `json:"visits"`
	DistanceMeters int         `json:"distanceMeters"`
	TravelMin      int         `json:"travelMin"`
	TotalMin       int         `json:"totalMin"` // clock minutes at depot return
}

// Result aggregates all vehicle routes of a run. Vehicles with no assigned
// stops are dropped from Routes and excluded from the totals.
type Result struct {
	Routes              []Route  `json:"routes"`
	TotalDistanceMeters int      `json:"totalDistanceMeters"`
	TotalMin            int      `json:"totalMin"`
	VehiclesUsed        int      `json:"vehiclesUsed"`
	Success             bool     `json:"success"`
	Degraded            bool     `json:"degraded,omitempty"` // stops without coordinates were estimated as zero-distance
	UnlocatedStopIDs    []string `json:"unlocatedStopIds,omitempty"`
}

// Plan statuses for background optimization runs.
const (
	PlanQueued     = "queued"
	PlanRunning    = "running"
	PlanCompleted  = "completed"
	PlanInfeasible = "infeasible"
	PlanFailed     = "failed"
)

// Plan is a persisted optimization run: the request, its lifecycle status and,
// once finished, the result snapshot. Timestamps are RFC3339.
type Plan struct {
	ID         string          `json:"id"`
	Status     string          `json:"status"`
	Request    OptimizeRequest `json:"request"`
	Result     *Result         `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	CreatedAt  string          `json:"createdAt"`
	StartedAt  string          `json:"startedAt,omitempty"`
	FinishedAt string          `json:"finishedAt,omitempty"`
}
