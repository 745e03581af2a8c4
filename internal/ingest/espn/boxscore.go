package espn

import (
	"strconv"
	"strings"

	"github.com/fortuna/gridiron/internal/store"
)

// Box score category names as served by the summary endpoint.
const (
	CategoryPassing   = "passing"
	CategoryRushing   = "rushing"
	CategoryReceiving = "receiving"
	CategoryFumbles   = "fumbles"
)

// composite names the two stats packed into one "18/25" or "2-11" column.
type composite struct {
	Left  string
	Right string
}

// Alias tables are per category because ESPN reuses display labels across
// groups: "YDS" under passing is passing yards, under rushing rushing yards.
// Machine keys and display labels both appear here since older payloads only
// carry labels.
var passingAliases = map[string]string{
	"passingyards":        "passingyards",
	"yds":                 "passingyards",
	"passingtouchdowns":   "passingtouchdowns",
	"td":                  "passingtouchdowns",
	"interceptions":       "interceptions",
	"int":                 "interceptions",
	"yardsperpassattempt": "yardsperpassattempt",
	"avg":                 "yardsperpassattempt",
	"adjqbr":              "adjqbr",
	"qbr":                 "adjqbr",
	"qbrating":            "qbrating",
	"rtg":                 "qbrating",
}

var passingComposites = map[string]composite{
	"completions/passingattempts": {Left: "completions", Right: "passingattempts"},
	"c/att":                       {Left: "completions", Right: "passingattempts"},
	"sacks-sackyardslost":         {Left: "sacks", Right: "sackyardslost"},
	"sacks":                       {Left: "sacks", Right: "sackyardslost"},
}

var rushingAliases = map[string]string{
	"rushingattempts":     "rushingattempts",
	"car":                 "rushingattempts",
	"rushingyards":        "rushingyards",
	"yds":                 "rushingyards",
	"yardsperrushattempt": "yardsperrushattempt",
	"avg":                 "yardsperrushattempt",
	"rushingtouchdowns":   "rushingtouchdowns",
	"td":                  "rushingtouchdowns",
	"longrushing":         "longrushing",
	"long":                "longrushing",
}

var receivingAliases = map[string]string{
	"receptions":          "receptions",
	"rec":                 "receptions",
	"receivingyards":      "receivingyards",
	"yds":                 "receivingyards",
	"yardsperreception":   "yardsperreception",
	"avg":                 "yardsperreception",
	"receivingtouchdowns": "receivingtouchdowns",
	"td":                  "receivingtouchdowns",
	"longreception":       "longreception",
	"long":                "longreception",
	"receivingtargets":    "receivingtargets",
	"tgts":                "receivingtargets",
}

var fumbleAliases = map[string]string{
	"fumbles":     "fumbles",
	"fum":         "fumbles",
	"fumbleslost": "fumbleslost",
	"lost":        "fumbleslost",
}

// ApplyCategory folds one box score category's columns into a stat record.
// Columns without a recognized key are ignored, and a key with no usable
// value stays absent from the record; absence is distinct from an explicit
// zero. Calling it repeatedly with different categories accumulates onto
// the same record, which is how a player who both rushed and received ends
// up with one row.
func ApplyCategory(rec *store.PlayerGameStat, category string, keys, values []string) {
	switch category {
	case CategoryPassing:
		applyMapped(&rec.Passing, passingAliases, passingComposites, keys, values)
	case CategoryRushing:
		applyMapped(&rec.Rushing, rushingAliases, nil, keys, values)
	case CategoryReceiving:
		applyMapped(&rec.Receiving, receivingAliases, nil, keys, values)
	case CategoryFumbles:
		applyFumbles(rec, keys, values)
	}
}

func applyMapped(dst *store.StatMap, aliases map[string]string, composites map[string]composite, keys, values []string) {
	n := len(keys)
	if len(values) < n {
		n = len(values)
	}

	for i := 0; i < n; i++ {
		key := strings.ToLower(strings.TrimSpace(keys[i]))

		if comp, ok := composites[key]; ok {
			left, right, ok := splitComposite(values[i])
			if !ok {
				continue
			}
			setStat(dst, comp.Left, float64(left))
			setStat(dst, comp.Right, float64(right))
			continue
		}

		canonical, ok := aliases[key]
		if !ok {
			continue
		}
		v, ok := parseStatNumber(values[i])
		if !ok {
			continue
		}
		setStat(dst, canonical, v)
	}
}

// applyFumbles writes the two fumble counters onto the record itself rather
// than into a map.
func applyFumbles(rec *store.PlayerGameStat, keys, values []string) {
	n := len(keys)
	if len(values) < n {
		n = len(values)
	}

	for i := 0; i < n; i++ {
		v, ok := parseStatNumber(values[i])
		if !ok {
			continue
		}
		switch fumbleAliases[strings.ToLower(strings.TrimSpace(keys[i]))] {
		case "fumbles":
			rec.Fumbles = int(v)
		case "fumbleslost":
			rec.FumblesLost = int(v)
		}
	}
}

// splitComposite breaks "18/25" or "2-11" into its two integers. The split
// is on the first separator so negative right-hand values stay intact. Both
// sides must parse or neither is kept.
func splitComposite(s string) (int, int, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	idx := strings.IndexAny(s, "/-")
	if idx <= 0 || idx >= len(s)-1 {
		return 0, 0, false
	}
	left, err := strconv.Atoi(s[:idx])
	if err != nil {
		return 0, 0, false
	}
	right, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return 0, 0, false
	}
	return left, right, true
}

// parseStatNumber parses a single stat column. Thousands separators are
// stripped ("1,024" rushing seasons exist in weekly totals views) and the
// placeholder dashes mean "no value", not zero.
func parseStatNumber(s string) (float64, bool) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	switch s {
	case "", "-", "--":
		return 0, false
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

func setStat(dst *store.StatMap, name string, v float64) {
	if *dst == nil {
		*dst = store.StatMap{}
	}
	(*dst)[name] = v
}
