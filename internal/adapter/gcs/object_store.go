// Package gcs fetches material payloads from Google Cloud Storage. The
// underlying client is created lazily on first use so that environments
// without storage credentials (tests, HTTP-only deployments) can still
// construct the full dependency graph.
package gcs

import (
	"context"
	"fmt"
	"io"
	"sync"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"
)

// ObjectStore implements content.ObjectStore backed by GCS.
type ObjectStore struct {
	mu     sync.Mutex
	client *storage.Client
	logger *zap.Logger
}

// NewObjectStore creates an ObjectStore. No network activity happens here.
func NewObjectStore(log *zap.Logger) *ObjectStore {
	return &ObjectStore{logger: log}
}

func (s *ObjectStore) ensureClient(ctx context.Context) (*storage.Client, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client != nil {
		return s.client, nil
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating storage client: %w", err)
	}
	s.logger.Info("storage client initialized")
	s.client = client
	return client, nil
}

// FetchObject downloads the raw bytes of bucket/object.
func (s *ObjectStore) FetchObject(ctx context.Context, bucket, object string) ([]byte, error) {
	client, err := s.ensureClient(ctx)
	if err != nil {
		return nil, err
	}

	rc, err := client.Bucket(bucket).Object(object).NewReader(ctx)
	if err != nil {
		return nil, fmt.Errorf("opening object %s/%s: %w", bucket, object, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("reading object %s/%s: %w", bucket, object, err)
	}
	return data, nil
}

// Close releases the underlying client, if one was ever created.
func (s *ObjectStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}
