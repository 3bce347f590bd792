// Package gcs archives report snapshots as JSON objects in a Cloud Storage bucket.
package gcs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"golang.org/x/sync/errgroup"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/rezkam/awe/internal/domain"
)

const maxConcurrentReads = 20

// Store keeps one object per snapshot under an optional prefix.
type Store struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewStore creates a Cloud Storage client. Credentials come from opts or
// Application Default Credentials.
func NewStore(ctx context.Context, bucket, prefix string, opts ...option.ClientOption) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: bucket", domain.ErrRequiredField)
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create GCS client: %w", err)
	}
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{client: client, bucket: bucket, prefix: prefix}, nil
}

// Close releases the client.
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) objectName(id string) string {
	return s.prefix + id + ".json"
}

// Put uploads a new snapshot. The write is conditional on the object not
// existing, so concurrent writers cannot overwrite each other.
func (s *Store) Put(ctx context.Context, snapshot *domain.ReportSnapshot) error {
	if snapshot.ID == "" {
		return fmt.Errorf("%w: snapshot ID", domain.ErrRequiredField)
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	obj := s.client.Bucket(s.bucket).Object(s.objectName(snapshot.ID)).
		If(storage.Conditions{DoesNotExist: true})
	w := obj.NewWriter(ctx)
	w.ContentType = "application/json"
	if _, err := w.Write(data); err != nil {
		w.Close()
		return fmt.Errorf("failed to write object: %w", err)
	}
	if err := w.Close(); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusPreconditionFailed {
			return fmt.Errorf("%w: %s", domain.ErrSnapshotExists, snapshot.ID)
		}
		return fmt.Errorf("failed to finalize object: %w", err)
	}
	return nil
}

// Get downloads the snapshot with id.
func (s *Store) Get(ctx context.Context, id string) (*domain.ReportSnapshot, error) {
	return s.read(ctx, s.objectName(id))
}

func (s *Store) read(ctx context.Context, name string) (*domain.ReportSnapshot, error) {
	r, err := s.client.Bucket(s.bucket).Object(name).NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read object: %w", err)
	}
	defer r.Close()

	var snapshot domain.ReportSnapshot
	if err := json.NewDecoder(r).Decode(&snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", name, err)
	}
	return &snapshot, nil
}

// List downloads every snapshot under the prefix. Objects that fail to decode
// are skipped. Order is unspecified.
func (s *Store) List(ctx context.Context) ([]*domain.ReportSnapshot, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: s.prefix})

	var names []string
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, ".json") {
			names = append(names, attrs.Name)
		}
	}

	var (
		mu        sync.Mutex
		snapshots []*domain.ReportSnapshot
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for _, name := range names {
		g.Go(func() error {
			snapshot, err := s.read(ctx, name)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return nil
			}
			mu.Lock()
			snapshots = append(snapshots, snapshot)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return snapshots, nil
}
