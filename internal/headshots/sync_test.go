package headshots

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fortuna/gridiron/internal/ingest/espn"
	"github.com/fortuna/gridiron/internal/pacing"
	"github.com/fortuna/gridiron/internal/store"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

type headshotUpdate struct {
	playerID int
	url      string
}

type fakePlayerSource struct {
	players []*store.Player
	listErr error
	updates []headshotUpdate
}

func (f *fakePlayerSource) ListWithESPNID(ctx context.Context) ([]*store.Player, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.players, nil
}

func (f *fakePlayerSource) UpdateHeadshot(ctx context.Context, playerID int, url string, updatedAt time.Time) error {
	f.updates = append(f.updates, headshotUpdate{playerID: playerID, url: url})
	return nil
}

type blobUpload struct {
	bucket      string
	path        string
	data        []byte
	contentType string
}

type fakeBlobStore struct {
	uploads []blobUpload
	err     error
}

func (f *fakeBlobStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.uploads = append(f.uploads, blobUpload{bucket: bucket, path: path, data: data, contentType: contentType})
	return fmt.Sprintf("https://cdn.example.com/%s/%s", bucket, path), nil
}

var pngBytes = []byte{0x89, 'P', 'N', 'G'}

// headshotTestServer serves athlete entities and their images. Athletes in
// noImage get an entity without a headshot; ids in broken answer 500.
func headshotTestServer(t *testing.T, noImage, broken map[string]bool) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)

	mux.HandleFunc("/athletes/", func(w http.ResponseWriter, r *http.Request) {
		id := r.URL.Path[len("/athletes/"):]
		if broken[id] {
			http.Error(w, "upstream error", http.StatusInternalServerError)
			return
		}
		if noImage[id] {
			fmt.Fprintf(w, `{"id":%q,"firstName":"No","lastName":"Image"}`, id)
			return
		}
		fmt.Fprintf(w, `{"id":%q,"firstName":"Some","lastName":"Player","headshot":{"href":"http://%s/i/%s.png"}}`,
			id, r.Host, id)
	})
	mux.HandleFunc("/i/", func(w http.ResponseWriter, r *http.Request) {
		w.Write(pngBytes)
	})

	return ts
}

func linkedPlayer(playerID int, espnID string) *store.Player {
	return &store.Player{
		PlayerID: playerID,
		ESPNID:   sql.NullString{String: espnID, Valid: true},
	}
}

func newTestSyncer(ts *httptest.Server, players PlayerSource, blobStore *fakeBlobStore, clock clockwork.Clock) *Syncer {
	client := espn.NewClient(ts.URL, ts.URL, pacing.New(0), testLogger())
	return NewSyncerWithClock(client, players, blobStore, "headshots", 7*24*time.Hour, clock, testLogger())
}

func TestSyncUploadsLinkedPlayers(t *testing.T) {
	ts := headshotTestServer(t, nil, nil)
	players := &fakePlayerSource{players: []*store.Player{linkedPlayer(10, "3139477")}}
	blobStore := &fakeBlobStore{}

	syncer := newTestSyncer(ts, players, blobStore, clockwork.NewFakeClock())
	summary, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, espn.Summary{Found: 1, Matched: 1, Processed: 1}, summary)

	require.Len(t, blobStore.uploads, 1)
	upload := blobStore.uploads[0]
	assert.Equal(t, "headshots", upload.bucket)
	assert.Equal(t, "nfl/10.png", upload.path)
	assert.Equal(t, pngBytes, upload.data)
	assert.Equal(t, "image/png", upload.contentType)

	require.Len(t, players.updates, 1)
	assert.Equal(t, headshotUpdate{playerID: 10, url: "https://cdn.example.com/headshots/nfl/10.png"}, players.updates[0])
}

func TestSyncSkipsFreshHeadshots(t *testing.T) {
	ts := headshotTestServer(t, nil, nil)
	clock := clockwork.NewFakeClock()

	fresh := linkedPlayer(10, "3139477")
	fresh.HeadshotUpdatedAt = sql.NullTime{Time: clock.Now().Add(-time.Hour), Valid: true}
	stale := linkedPlayer(11, "15847")
	stale.HeadshotUpdatedAt = sql.NullTime{Time: clock.Now().Add(-8 * 24 * time.Hour), Valid: true}

	players := &fakePlayerSource{players: []*store.Player{fresh, stale}}
	blobStore := &fakeBlobStore{}

	syncer := newTestSyncer(ts, players, blobStore, clock)
	summary, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Found, "only the stale headshot is eligible")
	require.Len(t, blobStore.uploads, 1)
	assert.Equal(t, "nfl/11.png", blobStore.uploads[0].path)
}

func TestSyncForceIgnoresFreshness(t *testing.T) {
	ts := headshotTestServer(t, nil, nil)
	clock := clockwork.NewFakeClock()

	fresh := linkedPlayer(10, "3139477")
	fresh.HeadshotUpdatedAt = sql.NullTime{Time: clock.Now().Add(-time.Hour), Valid: true}

	players := &fakePlayerSource{players: []*store.Player{fresh}}
	blobStore := &fakeBlobStore{}

	syncer := newTestSyncer(ts, players, blobStore, clock)
	summary, err := syncer.Sync(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Processed)
}

func TestSyncNoUpstreamImage(t *testing.T) {
	ts := headshotTestServer(t, map[string]bool{"444": true}, nil)
	players := &fakePlayerSource{players: []*store.Player{linkedPlayer(12, "444")}}
	blobStore := &fakeBlobStore{}

	syncer := newTestSyncer(ts, players, blobStore, clockwork.NewFakeClock())
	summary, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, espn.Summary{Found: 1, Matched: 0, Processed: 0}, summary)
	assert.Empty(t, blobStore.uploads)
	assert.Empty(t, players.updates)
}

func TestSyncPlayerFailureContinues(t *testing.T) {
	ts := headshotTestServer(t, nil, map[string]bool{"3139477": true})
	players := &fakePlayerSource{players: []*store.Player{
		linkedPlayer(10, "3139477"),
		linkedPlayer(11, "15847"),
	}}
	blobStore := &fakeBlobStore{}

	syncer := newTestSyncer(ts, players, blobStore, clockwork.NewFakeClock())
	summary, err := syncer.Sync(context.Background(), false)
	require.NoError(t, err, "one broken athlete must not stop the pass")

	assert.Equal(t, 2, summary.Found)
	assert.Equal(t, 1, summary.Processed)
	require.Len(t, blobStore.uploads, 1)
	assert.Equal(t, "nfl/11.png", blobStore.uploads[0].path)
}

func TestSyncListFailureAborts(t *testing.T) {
	ts := headshotTestServer(t, nil, nil)
	players := &fakePlayerSource{listErr: errors.New("db down")}

	syncer := newTestSyncer(ts, players, &fakeBlobStore{}, clockwork.NewFakeClock())
	_, err := syncer.Sync(context.Background(), false)
	assert.Error(t, err)
}
