// Package storage uploads public assets to a Google Cloud Storage bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	gcs "cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

const defaultPublicBaseURL = "https://storage.googleapis.com"

type Config struct {
	Bucket          string
	PublicBaseURL   string
	CredentialsFile string
}

// GCSStore writes objects to one bucket and serves them from PublicBaseURL.
// The bucket is expected to grant allUsers read access.
type GCSStore struct {
	Client        *gcs.Client
	Bucket        string
	PublicBaseURL string
}

func NewGCSStore(ctx context.Context, cfg *Config) (*GCSStore, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("storage: bucket is empty")
	}
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	client, err := gcs.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("storage: new client: %w", err)
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.PublicBaseURL), "/")
	if base == "" {
		base = defaultPublicBaseURL + "/" + cfg.Bucket
	}
	return &GCSStore{Client: client, Bucket: cfg.Bucket, PublicBaseURL: base}, nil
}

func (s *GCSStore) Close() error {
	return s.Client.Close()
}

func (s *GCSStore) URL(object string) string {
	return s.PublicBaseURL + "/" + strings.TrimLeft(object, "/")
}

// ObjectName maps a public URL produced by URL back to its object path.
func (s *GCSStore) ObjectName(url string) (string, bool) {
	object, ok := strings.CutPrefix(url, s.PublicBaseURL+"/")
	return object, ok && object != ""
}

func (s *GCSStore) Upload(ctx context.Context, object, contentType string, body io.Reader) (string, error) {
	object = strings.TrimLeft(strings.TrimSpace(object), "/")
	if object == "" {
		return "", errors.New("storage: object name is empty")
	}

	w := s.Client.Bucket(s.Bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	w.CacheControl = "public, max-age=31536000, immutable"
	w.Metadata = map[string]string{
		"uploadedAt": time.Now().UTC().Format(time.RFC3339),
	}
	if _, err := io.Copy(w, body); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("storage: write %s: %w", object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("storage: close %s: %w", object, err)
	}
	return s.URL(object), nil
}

// Delete removes the object behind url. Foreign URLs and missing objects
// are ignored.
func (s *GCSStore) Delete(ctx context.Context, url string) error {
	object, ok := s.ObjectName(url)
	if !ok {
		return nil
	}
	err := s.Client.Bucket(s.Bucket).Object(object).Delete(ctx)
	if err != nil && !errors.Is(err, gcs.ErrObjectNotExist) {
		return fmt.Errorf("storage: delete %s: %w", object, err)
	}
	return nil
}
