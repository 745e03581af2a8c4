package espn

import (
	"fmt"
	"strconv"
	"strings"
)

// TeamBoxScore is one team's half of a game summary: the categories ESPN
// grouped that team's players into.
type TeamBoxScore struct {
	TeamESPNID string
	Categories []BoxScoreCategory
}

// BoxScoreCategory is one stat group (passing, rushing, ...) with its
// column keys and the player lines underneath.
type BoxScoreCategory struct {
	Name     string
	Keys     []string
	Athletes []AthleteLine
}

// AthleteLine is one player's row: who they are plus the positional values
// matching the category's keys.
type AthleteLine struct {
	Athlete Athlete
	Values  []string
}

// ParseBoxScore extracts the per-player statistic groups from a game
// summary payload. The summary endpoint is only loosely typed, so this
// walks the raw map and tolerates missing branches.
func ParseBoxScore(summaryData map[string]interface{}) ([]TeamBoxScore, error) {
	boxscore := extractMap(summaryData, "boxscore")
	if len(boxscore) == 0 {
		return nil, fmt.Errorf("no boxscore data found")
	}

	playersData := extractArray(boxscore, "players")
	if len(playersData) == 0 {
		return nil, fmt.Errorf("no players data in boxscore")
	}

	var teams []TeamBoxScore
	for _, teamDataInterface := range playersData {
		teamData, ok := teamDataInterface.(map[string]interface{})
		if !ok {
			continue
		}
		team := extractMap(teamData, "team")

		box := TeamBoxScore{
			TeamESPNID: extractString(team, "id"),
		}

		for _, statGroupInterface := range extractArray(teamData, "statistics") {
			statGroup, ok := statGroupInterface.(map[string]interface{})
			if !ok {
				continue
			}
			category := parseCategory(statGroup)
			if category.Name == "" {
				continue
			}
			box.Categories = append(box.Categories, category)
		}

		teams = append(teams, box)
	}

	return teams, nil
}

func parseCategory(statGroup map[string]interface{}) BoxScoreCategory {
	category := BoxScoreCategory{
		Name: strings.ToLower(extractString(statGroup, "name")),
	}

	// The summary endpoint serves machine names under "keys" and display
	// abbreviations under "labels"; some older payloads only carry labels.
	keyValues := extractArray(statGroup, "keys")
	if len(keyValues) == 0 {
		keyValues = extractArray(statGroup, "labels")
	}
	for _, k := range keyValues {
		if s, ok := k.(string); ok {
			category.Keys = append(category.Keys, s)
		} else {
			category.Keys = append(category.Keys, fmt.Sprint(k))
		}
	}

	for _, athleteInterface := range extractArray(statGroup, "athletes") {
		athleteData, ok := athleteInterface.(map[string]interface{})
		if !ok {
			continue
		}

		if didNotPlay, ok := athleteData["didNotPlay"].(bool); ok && didNotPlay {
			continue
		}

		athlete := extractMap(athleteData, "athlete")
		line := AthleteLine{
			Athlete: Athlete{
				ID:          extractString(athlete, "id"),
				FirstName:   extractString(athlete, "firstName"),
				LastName:    extractString(athlete, "lastName"),
				FullName:    extractString(athlete, "fullName"),
				DisplayName: fallbackString(extractString(athlete, "displayName"), extractString(athlete, "shortName")),
			},
		}
		if line.Athlete.ID == "" {
			continue
		}

		for _, statValue := range extractArray(athleteData, "stats") {
			if s, ok := statValue.(string); ok {
				line.Values = append(line.Values, s)
			} else {
				line.Values = append(line.Values, fmt.Sprint(statValue))
			}
		}

		category.Athletes = append(category.Athletes, line)
	}

	return category
}

// Helper functions

func extractString(m map[string]interface{}, key string) string {
	if v, ok := m[key]; ok {
		if str, ok := v.(string); ok {
			return str
		}
	}
	return ""
}

func fallbackString(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func extractInt(m map[string]interface{}, key string) int {
	if v, ok := m[key]; ok {
		return parseInt(v)
	}
	return 0
}

func extractMap(m map[string]interface{}, key string) map[string]interface{} {
	if v, ok := m[key]; ok {
		if mapVal, ok := v.(map[string]interface{}); ok {
			return mapVal
		}
	}
	return map[string]interface{}{}
}

func extractArray(m map[string]interface{}, key string) []interface{} {
	if v, ok := m[key]; ok {
		if arrVal, ok := v.([]interface{}); ok {
			return arrVal
		}
	}
	return []interface{}{}
}

func parseInt(v interface{}) int {
	switch val := v.(type) {
	case float64:
		return int(val)
	case string:
		i, _ := strconv.Atoi(val)
		return i
	case int:
		return val
	default:
		return 0
	}
}
