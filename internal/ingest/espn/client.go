package espn

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"github.com/fortuna/gridiron/internal/pacing"
)

const (
	// CoreBaseURL serves $ref collections and entity JSON.
	CoreBaseURL = "https://sports.core.api.espn.com/v2/sports/football/leagues/nfl"
	// SiteBaseURL serves game summaries (box scores).
	SiteBaseURL = "https://site.api.espn.com/apis/site/v2/sports/football/nfl"

	requestTimeout = 15 * time.Second
	maxBodyBytes   = 16 << 20

	// ESPN rejects default Go client fingerprints on some edges
	userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client fetches JSON from the upstream API. Every request goes through the
// shared pacer (the upstream rate limit is global, not per-endpoint) and a
// circuit breaker so a misbehaving upstream fails fast instead of hammering.
type Client struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker
	pacer      *pacing.Pacer
	coreBase   string
	siteBase   string
	log        *logrus.Entry
}

// NewClient creates an API client. Empty base URLs fall back to the public
// endpoints.
func NewClient(coreBase, siteBase string, pacer *pacing.Pacer, logger *logrus.Logger) *Client {
	if coreBase == "" {
		coreBase = CoreBaseURL
	}
	if siteBase == "" {
		siteBase = SiteBaseURL
	}

	log := logger.WithField("component", "espn-client")

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "espn-api",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.WithFields(logrus.Fields{"from": from.String(), "to": to.String()}).
				Warn("⚠️  circuit breaker state change")
		},
	})

	return &Client{
		httpClient: &http.Client{Timeout: requestTimeout},
		breaker:    breaker,
		pacer:      pacer,
		coreBase:   coreBase,
		siteBase:   siteBase,
		log:        log,
	}
}

// GetJSON fetches a URL and decodes the response into out.
func (c *Client) GetJSON(ctx context.Context, url string, out interface{}) error {
	body, err := c.get(ctx, url)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decoding %s: %w", url, err)
	}
	return nil
}

// GetMap fetches a URL into the loose map shape the summary parser walks.
func (c *Client) GetMap(ctx context.Context, url string) (map[string]interface{}, error) {
	var m map[string]interface{}
	if err := c.GetJSON(ctx, url, &m); err != nil {
		return nil, err
	}
	return m, nil
}

func (c *Client) get(ctx context.Context, url string) ([]byte, error) {
	c.pacer.Wait()

	result, err := c.breaker.Execute(func() (interface{}, error) {
		return c.fetch(ctx, url)
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}

func (c *Client) fetch(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	// Blocked or errored edges answer with an HTML page, not JSON
	if trimmed := bytes.TrimSpace(body); len(trimmed) > 0 && trimmed[0] == '<' {
		return nil, fmt.Errorf("got HTML error page from %s", url)
	}

	return body, nil
}

// FetchGameSummary retrieves the box-score summary for one event.
func (c *Client) FetchGameSummary(ctx context.Context, eventID string) (map[string]interface{}, error) {
	url := fmt.Sprintf("%s/summary?event=%s", c.siteBase, eventID)
	return c.GetMap(ctx, url)
}

// FetchAthlete retrieves one athlete entity.
func (c *Client) FetchAthlete(ctx context.Context, athleteID string) (*Athlete, error) {
	url := fmt.Sprintf("%s/athletes/%s", c.coreBase, athleteID)
	var a Athlete
	if err := c.GetJSON(ctx, url, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

// Download fetches a non-JSON asset (headshot images).
func (c *Client) Download(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	c.pacer.Wait()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("downloading %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d from %s", resp.StatusCode, url)
	}

	return io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
}

// WeekEventsURL is the collection of one week's events.
func (c *Client) WeekEventsURL(season, seasonType, week int) string {
	return fmt.Sprintf("%s/seasons/%d/types/%d/weeks/%d/events?limit=100", c.coreBase, season, seasonType, week)
}

// TeamAthletesURL is the collection of one team's active athletes.
func (c *Client) TeamAthletesURL(season int, espnTeamID string) string {
	return fmt.Sprintf("%s/seasons/%d/teams/%s/athletes?limit=200&active=true", c.coreBase, season, espnTeamID)
}

// EventOddsURL is the odds collection for one event.
func (c *Client) EventOddsURL(eventID string) string {
	return fmt.Sprintf("%s/events/%s/competitions/%s/odds", c.coreBase, eventID, eventID)
}
