package trajectory

import "encoding/json"

// Position is one vacancy slot in a trajectory. Idx is stable within a
// single trajectory only.
type Position struct {
	Idx         int    `json:"idx"`
	Title       string `json:"title"`
	Company     string `json:"company"`
	Location    string `json:"location"`
	Salary      string `json:"salary"`
	Experience  string `json:"experience"`
	Description string `json:"description"`
}

// Recommendation is a learning resource suggested to close a gap.
type Recommendation struct {
	Type             string `json:"type"` // course, project or tip
	Title            string `json:"title"`
	URL              string `json:"url,omitempty"`
	Provider         string `json:"provider,omitempty"`
	DurationHours    int    `json:"duration_hours,omitempty"`
	EstimatedMonths  int    `json:"estimated_months,omitempty"`
	ExpectedOutcomes string `json:"expected_outcomes,omitempty"`
	Cost             string `json:"cost,omitempty"`
	Required         bool   `json:"required"`
}

// GapItem is a named skill/experience/level deficit with priority 1 (highest)
// to 5 and the resources recommended to close it.
type GapItem struct {
	Name            string           `json:"name"`
	Kind            string           `json:"kind"` // skill, experience or level
	Priority        int              `json:"priority"`
	Prerequisites   []string         `json:"prerequisites,omitempty"`
	Recommendations []Recommendation `json:"recommendations,omitempty"`
	Rationale       string           `json:"rationale,omitempty"`
}

// LearningGroup bundles gap items into one study phase.
type LearningGroup struct {
	GroupID         int       `json:"group_id"`
	Title           string    `json:"title"`
	EstimatedMonths int       `json:"estimated_months"`
	HoursPerWeek    int       `json:"hours_per_week"`
	Items           []GapItem `json:"items"`
	Notes           string    `json:"notes,omitempty"`
}

// Data is the career plan built from one completed interview session.
// SessionID is a back-reference; rebuilding for the same session overwrites
// the previous plan.
type Data struct {
	SessionID        string          `json:"session_id"`
	CurrentPositions []Position      `json:"current_positions"`
	Groups           []LearningGroup `json:"groups"`
	FuturePositions  []Position      `json:"future_positions"`
}

// BuildRequest carries the build budget. Zero values are filled with the
// service defaults before the request goes out.
type BuildRequest struct {
	SessionID             string `json:"session_id"`
	WeeklyHours           int    `json:"weekly_hours"`
	TotalMonths           int    `json:"total_months"`
	TargetPositionsLimit  int    `json:"target_positions_limit"`
	CurrentPositionsLimit int    `json:"current_positions_limit"`
}

const (
	DefaultWeeklyHours           = 10
	DefaultTotalMonths           = 12
	DefaultTargetPositionsLimit  = 5
	DefaultCurrentPositionsLimit = 5
)

// ApplyDefaults fills unset budget fields in place.
func (r *BuildRequest) ApplyDefaults() {
	if r.WeeklyHours <= 0 {
		r.WeeklyHours = DefaultWeeklyHours
	}
	if r.TotalMonths <= 0 {
		r.TotalMonths = DefaultTotalMonths
	}
	if r.TargetPositionsLimit <= 0 {
		r.TargetPositionsLimit = DefaultTargetPositionsLimit
	}
	if r.CurrentPositionsLimit <= 0 {
		r.CurrentPositionsLimit = DefaultCurrentPositionsLimit
	}
}

// Decode parses a cached trajectory blob. A blob that does not parse, or
// parses without a session id, yields (nil, false): callers treat it as
// absent rather than failing.
func Decode(raw []byte) (*Data, bool) {
	if len(raw) == 0 {
		return nil, false
	}
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, false
	}
	if d.SessionID == "" {
		return nil, false
	}
	return &d, true
}

// Encode serializes a trajectory for the local cache.
func Encode(d *Data) ([]byte, error) {
	return json.Marshal(d)
}
