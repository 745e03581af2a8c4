package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/config"
	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/pacing"
)

// Smoke tool for the ESPN source: resolves one week of events and parses one
// box score, printing what it finds. No database required.
func main() {
	var (
		season     = flag.Int("season", time.Now().Year(), "Season year")
		seasonType = flag.Int("season-type", 2, "1=preseason, 2=regular, 3=postseason")
		week       = flag.Int("week", 1, "Week to probe")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	client := espn.NewClient(cfg.ESPNCoreAPIBase, cfg.ESPNSiteAPIBase, pacing.New(cfg.PaceInterval), logger)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	events := espn.ResolveCollectionAs[espn.Event](ctx, client, client.WeekEventsURL(*season, *seasonType, *week))
	fmt.Printf("season %d type %d week %d: %d events\n", *season, *seasonType, *week, len(events))

	for _, ev := range events {
		kickoff := "unparseable"
		if t, err := ev.Kickoff(); err == nil {
			kickoff = t.Format(time.RFC3339)
		}
		fmt.Printf("  %s  %s  %s\n", ev.ID, kickoff, ev.ShortName)
	}

	if len(events) == 0 {
		return
	}

	summary, err := client.FetchGameSummary(ctx, events[0].ID)
	if err != nil {
		log.Fatalf("game summary: %v", err)
	}

	teams, err := espn.ParseBoxScore(summary)
	if err != nil {
		log.Fatalf("box score: %v", err)
	}

	fmt.Printf("\nbox score for event %s:\n", events[0].ID)
	for _, team := range teams {
		fmt.Printf("  team %s\n", team.TeamESPNID)
		for _, cat := range team.Categories {
			fmt.Printf("    %-12s %2d athletes  keys=%v\n", cat.Name, len(cat.Athletes), cat.Keys)
		}
	}
}
