package storage

import (
	"context"
	"fmt"

	"cloud.google.com/go/storage"
)

// ObjectStore writes bytes under a key and returns a stable, publicly
// fetchable URL for them.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
}

type GCSStore struct {
	client     *storage.Client
	bucketName string
}

func NewGCSStore(bucketName string) (*GCSStore, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	return &GCSStore{
		client:     client,
		bucketName: bucketName,
	}, nil
}

func (s *GCSStore) Close() error {
	return s.client.Close()
}

func (s *GCSStore) Put(ctx context.Context, key string, data []byte, contentType string) (string, error) {
	obj := s.client.Bucket(s.bucketName).Object(key)

	w := obj.NewWriter(ctx)
	w.ContentType = contentType

	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("failed to write object %s: %w", key, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize object %s: %w", key, err)
	}

	return s.PublicURL(key), nil
}

// PublicURL returns the public locator for an object. The bucket is
// configured with public read access; the URL stays resolvable for the
// lifetime of any story that embeds it.
func (s *GCSStore) PublicURL(key string) string {
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", s.bucketName, key)
}
