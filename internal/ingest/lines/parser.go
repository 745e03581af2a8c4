package lines

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Entry is one scraped matchup line. Spread is home-relative: positive
// means the home side is the underdog by that many points, matching the
// implied-total arithmetic downstream.
type Entry struct {
	AwayName  string
	HomeName  string
	Spread    float64
	OverUnder float64
}

// ParseLines extracts matchup lines from a rendered odds page. The page
// structure shifts between site revisions, so two strategies run in order:
// a row-selector pass, then a text-pattern fallback.
func ParseLines(doc *goquery.Document) []Entry {
	var entries []Entry

	// Strategy 1: odds grid rows
	doc.Find("tr[class*='odds'], div[class*='game-row'], div[class*='matchup']").Each(func(i int, s *goquery.Selection) {
		if entry := parseRow(s); entry != nil {
			entries = append(entries, *entry)
		}
	})

	// Strategy 2: loose text patterns
	if len(entries) == 0 {
		doc.Find("div, td").Each(func(i int, s *goquery.Selection) {
			if entry := parseLooseText(s.Text()); entry != nil {
				entries = append(entries, *entry)
			}
		})
	}

	return dedupe(entries)
}

// parseRow reads one structured grid row: two team cells plus spread and
// total cells.
func parseRow(s *goquery.Selection) *Entry {
	var names []string
	s.Find("[class*='team-name'], [class*='team'] a, span[class*='name']").Each(func(i int, t *goquery.Selection) {
		name := strings.TrimSpace(t.Text())
		if name != "" && len(names) < 2 {
			names = append(names, name)
		}
	})
	if len(names) != 2 {
		return nil
	}

	spreadText := strings.TrimSpace(s.Find("[class*='spread']").First().Text())
	totalText := strings.TrimSpace(s.Find("[class*='total'], [class*='over-under']").First().Text())

	spread, okSpread := parseSignedNumber(spreadText)
	total, okTotal := parseSignedNumber(strings.TrimPrefix(strings.TrimPrefix(totalText, "O/U"), "o/u"))
	if !okSpread || !okTotal {
		return nil
	}

	return &Entry{
		AwayName:  names[0],
		HomeName:  names[1],
		Spread:    spread,
		OverUnder: total,
	}
}

// looseLinePattern matches "Cowboys @ Eagles -7.5 O/U 48.5" style rows in
// flattened page text.
var looseLinePattern = regexp.MustCompile(`([A-Za-z][A-Za-z .]{2,30})\s+@\s+([A-Za-z][A-Za-z .]{2,30})\s+([+-]?\d+(?:\.\d+)?)\s+(?:O/U|o/u|OU)?\s*(\d+(?:\.\d+)?)`)

func parseLooseText(text string) *Entry {
	matches := looseLinePattern.FindStringSubmatch(text)
	if len(matches) != 5 {
		return nil
	}

	spread, okSpread := parseSignedNumber(matches[3])
	total, okTotal := parseSignedNumber(matches[4])
	if !okSpread || !okTotal {
		return nil
	}

	return &Entry{
		AwayName:  strings.TrimSpace(matches[1]),
		HomeName:  strings.TrimSpace(matches[2]),
		Spread:    spread,
		OverUnder: total,
	}
}

// parseSignedNumber handles "+3", "-7.5", "PK" (pick'em, spread zero) and
// plain decimals.
func parseSignedNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	if strings.EqualFold(s, "PK") || strings.EqualFold(s, "EVEN") {
		return 0, true
	}
	s = strings.TrimPrefix(s, "+")
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// dedupe keeps the first entry per matchup; loose-text scans can hit the
// same line twice through nested elements.
func dedupe(entries []Entry) []Entry {
	seen := make(map[string]bool, len(entries))
	out := entries[:0]
	for _, e := range entries {
		key := strings.ToLower(e.AwayName) + "@" + strings.ToLower(e.HomeName)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, e)
	}
	return out
}
