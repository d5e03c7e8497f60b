package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"

	gcs "cloud.google.com/go/storage"
	"github.com/google/uuid"

	"firecert/internal/wizard"
)

// GCSStore persists documents in a Google Cloud Storage bucket and returns
// the object's public URL as the opaque reference.
type GCSStore struct {
	client *gcs.Client
	bucket string
	prefix string
}

// NewGCSStore opens a storage client against the given bucket. Credentials
// come from the environment (application default credentials).
func NewGCSStore(ctx context.Context, bucket string) (*GCSStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("document bucket name is required")
	}
	client, err := gcs.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &GCSStore{client: client, bucket: bucket, prefix: "documents"}, nil
}

// Upload writes the staged file under a fresh object key and returns its
// public URL. Every attempt uses a new key so a retry after a failed attempt
// never resumes or collides with a partially written object.
func (g *GCSStore) Upload(ctx context.Context, slug string, f *wizard.StagedFile) (string, error) {
	if f == nil {
		return "", fmt.Errorf("no file staged for %q", slug)
	}

	key := fmt.Sprintf("%s/%s/%s_%s", g.prefix, slug, uuid.New().String(), f.Name)
	w := g.client.Bucket(g.bucket).Object(key).NewWriter(ctx)
	w.ContentType = f.MIMEType

	if _, err := io.Copy(w, bytes.NewReader(f.Content)); err != nil {
		w.Close()
		return "", fmt.Errorf("write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize object %s: %w", key, err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", g.bucket, key), nil
}

// Close releases the underlying client.
func (g *GCSStore) Close() error {
	return g.client.Close()
}
