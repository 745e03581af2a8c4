package nfl

import "strings"

// Team is one entry in the static franchise directory. Internal IDs are
// assigned here, not derived at runtime; the backing store references them
// but does not own them.
type Team struct {
	ID           int
	ESPNID       string
	Abbreviation string
	Name         string
}

// teamTable is the full 32-franchise directory. ESPN team IDs are stable
// (BAL and HOU sit at 33/34; 31/32 are unassigned upstream).
var teamTable = []Team{
	{ID: 1, ESPNID: "22", Abbreviation: "ARI", Name: "Arizona Cardinals"},
	{ID: 2, ESPNID: "1", Abbreviation: "ATL", Name: "Atlanta Falcons"},
	{ID: 3, ESPNID: "33", Abbreviation: "BAL", Name: "Baltimore Ravens"},
	{ID: 4, ESPNID: "2", Abbreviation: "BUF", Name: "Buffalo Bills"},
	{ID: 5, ESPNID: "29", Abbreviation: "CAR", Name: "Carolina Panthers"},
	{ID: 6, ESPNID: "3", Abbreviation: "CHI", Name: "Chicago Bears"},
	{ID: 7, ESPNID: "4", Abbreviation: "CIN", Name: "Cincinnati Bengals"},
	{ID: 8, ESPNID: "5", Abbreviation: "CLE", Name: "Cleveland Browns"},
	{ID: 9, ESPNID: "6", Abbreviation: "DAL", Name: "Dallas Cowboys"},
	{ID: 10, ESPNID: "7", Abbreviation: "DEN", Name: "Denver Broncos"},
	{ID: 11, ESPNID: "8", Abbreviation: "DET", Name: "Detroit Lions"},
	{ID: 12, ESPNID: "9", Abbreviation: "GB", Name: "Green Bay Packers"},
	{ID: 13, ESPNID: "34", Abbreviation: "HOU", Name: "Houston Texans"},
	{ID: 14, ESPNID: "11", Abbreviation: "IND", Name: "Indianapolis Colts"},
	{ID: 15, ESPNID: "30", Abbreviation: "JAX", Name: "Jacksonville Jaguars"},
	{ID: 16, ESPNID: "12", Abbreviation: "KC", Name: "Kansas City Chiefs"},
	{ID: 17, ESPNID: "24", Abbreviation: "LAC", Name: "Los Angeles Chargers"},
	{ID: 18, ESPNID: "14", Abbreviation: "LAR", Name: "Los Angeles Rams"},
	{ID: 19, ESPNID: "13", Abbreviation: "LV", Name: "Las Vegas Raiders"},
	{ID: 20, ESPNID: "15", Abbreviation: "MIA", Name: "Miami Dolphins"},
	{ID: 21, ESPNID: "16", Abbreviation: "MIN", Name: "Minnesota Vikings"},
	{ID: 22, ESPNID: "17", Abbreviation: "NE", Name: "New England Patriots"},
	{ID: 23, ESPNID: "18", Abbreviation: "NO", Name: "New Orleans Saints"},
	{ID: 24, ESPNID: "19", Abbreviation: "NYG", Name: "New York Giants"},
	{ID: 25, ESPNID: "20", Abbreviation: "NYJ", Name: "New York Jets"},
	{ID: 26, ESPNID: "21", Abbreviation: "PHI", Name: "Philadelphia Eagles"},
	{ID: 27, ESPNID: "23", Abbreviation: "PIT", Name: "Pittsburgh Steelers"},
	{ID: 28, ESPNID: "26", Abbreviation: "SEA", Name: "Seattle Seahawks"},
	{ID: 29, ESPNID: "25", Abbreviation: "SF", Name: "San Francisco 49ers"},
	{ID: 30, ESPNID: "27", Abbreviation: "TB", Name: "Tampa Bay Buccaneers"},
	{ID: 31, ESPNID: "10", Abbreviation: "TEN", Name: "Tennessee Titans"},
	{ID: 32, ESPNID: "28", Abbreviation: "WSH", Name: "Washington Commanders"},
}

// abbreviationRemaps folds the alternate abbreviations other data sources
// use into the directory's canonical forms. Includes relocated-franchise
// leftovers still seen in historical payloads.
var abbreviationRemaps = map[string]string{
	"WAS": "WSH",
	"JAC": "JAX",
	"ARZ": "ARI",
	"GNB": "GB",
	"KAN": "KC",
	"NOR": "NO",
	"NWE": "NE",
	"SFO": "SF",
	"TAM": "TB",
	"LVR": "LV",
	"LA":  "LAR",
	"OAK": "LV",
	"SD":  "LAC",
	"STL": "LAR",
	"HST": "HOU",
	"BLT": "BAL",
	"CLV": "CLE",
}

// Directory is the immutable team lookup built once at process start.
type Directory struct {
	teams    []Team
	byESPNID map[string]*Team
	byAbbr   map[string]*Team
}

// NewDirectory builds the directory from the static table.
func NewDirectory() *Directory {
	d := &Directory{
		teams:    teamTable,
		byESPNID: make(map[string]*Team, len(teamTable)),
		byAbbr:   make(map[string]*Team, len(teamTable)),
	}
	for i := range d.teams {
		t := &d.teams[i]
		d.byESPNID[t.ESPNID] = t
		d.byAbbr[t.Abbreviation] = t
	}
	return d
}

// ByESPNID looks up a team by its ESPN-assigned id.
func (d *Directory) ByESPNID(espnID string) (*Team, bool) {
	t, ok := d.byESPNID[espnID]
	return t, ok
}

// ByID looks up a team by internal id.
func (d *Directory) ByID(id int) (*Team, bool) {
	for i := range d.teams {
		if d.teams[i].ID == id {
			return &d.teams[i], true
		}
	}
	return nil, false
}

// ByAbbreviation looks up a team by abbreviation, applying remaps for the
// alternate forms other sources use.
func (d *Directory) ByAbbreviation(abbr string) (*Team, bool) {
	abbr = strings.ToUpper(strings.TrimSpace(abbr))
	if canonical, ok := abbreviationRemaps[abbr]; ok {
		abbr = canonical
	}
	t, ok := d.byAbbr[abbr]
	return t, ok
}

// ByName resolves a display name to a team: exact match first, then
// substring in either direction so "Chiefs" and "Kansas City Chiefs Odds"
// both land on KC.
func (d *Directory) ByName(name string) (*Team, bool) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, false
	}
	for i := range d.teams {
		if strings.EqualFold(d.teams[i].Name, name) {
			return &d.teams[i], true
		}
	}
	upper := strings.ToUpper(name)
	for i := range d.teams {
		teamUpper := strings.ToUpper(d.teams[i].Name)
		if strings.Contains(teamUpper, upper) || strings.Contains(upper, teamUpper) {
			return &d.teams[i], true
		}
	}
	return nil, false
}

// Teams returns a copy of the directory entries.
func (d *Directory) Teams() []Team {
	out := make([]Team, len(d.teams))
	copy(out, d.teams)
	return out
}
