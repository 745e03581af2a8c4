package espn

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/pacing"
)

func TestClientRejectsHTMLBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		fmt.Fprint(w, "<html><body>Access Denied</body></html>")
	}))
	defer ts.Close()

	client := testClient(ts)
	var out map[string]interface{}
	err := client.GetJSON(context.Background(), ts.URL+"/anything", &out)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "HTML error page")
}

func TestClientBreakerOpensAfterConsecutiveFailures(t *testing.T) {
	var hits atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer ts.Close()

	client := testClient(ts)
	ctx := context.Background()

	var out map[string]interface{}
	for i := 0; i < 5; i++ {
		err := client.GetJSON(ctx, ts.URL+"/x", &out)
		require.Error(t, err)
	}
	require.Equal(t, int32(5), hits.Load())

	// The sixth call fails fast without reaching the server.
	err := client.GetJSON(ctx, ts.URL+"/x", &out)
	require.Error(t, err)
	assert.Equal(t, int32(5), hits.Load())
	assert.Contains(t, err.Error(), "open")
}

func TestClientDefaultBaseURLs(t *testing.T) {
	client := NewClient("", "", pacing.New(0), testLogger())
	assert.True(t, strings.HasPrefix(client.WeekEventsURL(2025, 2, 1), CoreBaseURL))
}

func TestClientURLBuilders(t *testing.T) {
	client := NewClient("http://core", "http://site", pacing.New(0), testLogger())

	assert.Equal(t,
		"http://core/seasons/2025/types/2/weeks/7/events?limit=100",
		client.WeekEventsURL(2025, 2, 7))
	assert.Equal(t,
		"http://core/seasons/2025/teams/12/athletes?limit=200&active=true",
		client.TeamAthletesURL(2025, "12"))
	assert.Equal(t,
		"http://core/events/401547439/competitions/401547439/odds",
		client.EventOddsURL("401547439"))
}
