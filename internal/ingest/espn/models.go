package espn

import (
	"encoding/json"
	"strings"
	"time"
)

// Event is a scheduled game from the core API weekly events collection.
// Season and week arrive as $ref pointers on this endpoint, so callers carry
// those from the request they made rather than from the payload.
type Event struct {
	ID           string        `json:"id"`
	Date         string        `json:"date"`
	Name         string        `json:"name"`
	ShortName    string        `json:"shortName"`
	Competitions []Competition `json:"competitions"`
}

// Kickoff parses the event date. The core API usually serves RFC3339 but
// some seasons drop the seconds and zone minutes.
func (e *Event) Kickoff() (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, e.Date); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02T15:04Z", e.Date)
}

// Competitor returns the entry for the given side ("home" or "away").
func (e *Event) Competitor(side string) (Competitor, bool) {
	if len(e.Competitions) == 0 {
		return Competitor{}, false
	}
	for _, c := range e.Competitions[0].Competitors {
		if strings.EqualFold(c.HomeAway, side) {
			return c, true
		}
	}
	return Competitor{}, false
}

// OddsURL returns the odds collection for the event's first competition,
// or "" when the payload carries none.
func (e *Event) OddsURL() string {
	if len(e.Competitions) == 0 {
		return ""
	}
	return e.Competitions[0].Odds.URL
}

type Competition struct {
	ID          string               `json:"id"`
	Date        string               `json:"date"`
	Competitors []Competitor         `json:"competitors"`
	Odds        Ref[json.RawMessage] `json:"odds"`
}

// Competitor's ID doubles as the team's ESPN id on the core API.
type Competitor struct {
	ID       string `json:"id"`
	HomeAway string `json:"homeAway"`
}

type Team struct {
	ID           string `json:"id"`
	Abbreviation string `json:"abbreviation"`
	DisplayName  string `json:"displayName"`
}

// Athlete is a player as served by the boxscore and roster endpoints.
type Athlete struct {
	ID          string `json:"id"`
	FirstName   string `json:"firstName"`
	LastName    string `json:"lastName"`
	FullName    string `json:"fullName"`
	DisplayName string `json:"displayName"`
	Headshot    struct {
		Href string `json:"href"`
	} `json:"headshot"`
}

// Names returns the athlete's first and last name, reconstructing them from
// the display name when the structured fields are absent. The split is on
// the last space so "Amon-Ra St. Brown" keeps its full surname.
func (a *Athlete) Names() (string, string) {
	if a.FirstName != "" || a.LastName != "" {
		return a.FirstName, a.LastName
	}
	full := a.FullName
	if full == "" {
		full = a.DisplayName
	}
	full = strings.TrimSpace(full)
	if full == "" {
		return "", ""
	}
	idx := strings.LastIndex(full, " ")
	if idx < 0 {
		return "", full
	}
	return full[:idx], full[idx+1:]
}

// Odds is one book's line for a game. Spread and total flip between number
// and string encodings depending on the endpoint, hence FlexFloat.
type Odds struct {
	Provider struct {
		ID       string `json:"id"`
		Name     string `json:"name"`
		Priority int    `json:"priority"`
	} `json:"provider"`
	Details   string    `json:"details"`
	OverUnder FlexFloat `json:"overUnder"`
	Spread    FlexFloat `json:"spread"`
}

// Summary is the per-run tally every ingester reports.
type Summary struct {
	Found     int `json:"found"`
	Matched   int `json:"matched"`
	Processed int `json:"processed"`
}

// Add folds another summary in, for runs that span weeks or teams.
func (s *Summary) Add(other Summary) {
	s.Found += other.Found
	s.Matched += other.Matched
	s.Processed += other.Processed
}
