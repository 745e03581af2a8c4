package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/gridiron/internal/ingest/lines"
)

// Smoke tool for the fallback betting-lines source: renders the configured
// page and prints every line the parser extracts.
func main() {
	pageURL := flag.String("url", "", "Lines page URL (required)")
	flag.Parse()

	if *pageURL == "" {
		log.Fatal("specify --url")
	}

	logger := logrus.New()
	logger.SetLevel(logrus.DebugLevel)

	client, err := lines.NewClient(*pageURL, logger)
	if err != nil {
		log.Fatalf("client: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	html, err := client.FetchLines(ctx)
	if err != nil {
		log.Fatalf("fetch: %v", err)
	}
	fmt.Printf("retrieved %d bytes of rendered HTML\n", len(html))

	doc, err := lines.ParseHTML(html)
	if err != nil {
		log.Fatalf("parse html: %v", err)
	}

	entries := lines.ParseLines(doc)
	fmt.Printf("extracted %d lines\n", len(entries))
	for _, e := range entries {
		fmt.Printf("  %-24s @ %-24s  spread=%+.1f  o/u=%.1f\n", e.AwayName, e.HomeName, e.Spread, e.OverUnder)
	}
}
