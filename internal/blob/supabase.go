package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Store uploads a payload and returns its public retrieval URL.
type Store interface {
	Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error)
}

// SupabaseStore talks to the Supabase storage REST surface. Uploads are
// upserts so re-syncing an image overwrites in place.
type SupabaseStore struct {
	baseURL    string
	key        string
	httpClient *http.Client
	log        *logrus.Entry
}

func NewSupabaseStore(baseURL, key string, logger *logrus.Logger) *SupabaseStore {
	return &SupabaseStore{
		baseURL:    strings.TrimRight(baseURL, "/"),
		key:        key,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		log:        logger.WithField("component", "blob"),
	}
}

func (s *SupabaseStore) Upload(ctx context.Context, bucket, path string, data []byte, contentType string) (string, error) {
	uploadURL := fmt.Sprintf("%s/storage/v1/object/%s/%s", s.baseURL, bucket, path)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, uploadURL, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+s.key)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("x-upsert", "true")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("uploading %s/%s: %w", bucket, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("upload %s/%s: status %d: %s", bucket, path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	publicURL := fmt.Sprintf("%s/storage/v1/object/public/%s/%s", s.baseURL, bucket, path)
	s.log.WithFields(logrus.Fields{"bucket": bucket, "path": path, "bytes": len(data)}).Debug("uploaded")
	return publicURL, nil
}
