// Package fs archives report snapshots as JSON files in a local directory.
package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/rezkam/awe/internal/domain"
)

// maxConcurrentReads bounds open files while listing.
const maxConcurrentReads = 20

// Store is a directory of <id>.json snapshot files.
type Store struct {
	baseDir string
	mu      sync.RWMutex
}

// NewStore creates baseDir if needed.
func NewStore(baseDir string) (*Store, error) {
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}
	return &Store{baseDir: baseDir}, nil
}

func (s *Store) path(id string) (string, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return "", fmt.Errorf("%w: invalid snapshot ID %q", domain.ErrSnapshotNotFound, id)
	}
	return filepath.Join(s.baseDir, id+".json"), nil
}

// Put writes a new snapshot. Existing IDs are never overwritten.
func (s *Store) Put(_ context.Context, snapshot *domain.ReportSnapshot) error {
	path, err := s.path(snapshot.ID)
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if errors.Is(err, fs.ErrExist) {
		return fmt.Errorf("%w: %s", domain.ErrSnapshotExists, snapshot.ID)
	}
	if err != nil {
		return fmt.Errorf("failed to create snapshot file: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	return f.Close()
}

// Get reads the snapshot with id.
func (s *Store) Get(_ context.Context, id string) (*domain.ReportSnapshot, error) {
	path, err := s.path(id)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return readSnapshot(path)
}

func readSnapshot(path string) (*domain.ReportSnapshot, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", domain.ErrSnapshotNotFound, strings.TrimSuffix(filepath.Base(path), ".json"))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read snapshot: %w", err)
	}
	var snapshot domain.ReportSnapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return nil, fmt.Errorf("failed to decode snapshot %s: %w", path, err)
	}
	return &snapshot, nil
}

// List loads every snapshot in the directory. Files that fail to decode are
// skipped. Order is unspecified.
func (s *Store) List(ctx context.Context) ([]*domain.ReportSnapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, err := os.ReadDir(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to read archive directory: %w", err)
	}

	var (
		mu        sync.Mutex
		snapshots []*domain.ReportSnapshot
	)
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReads)
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		path := filepath.Join(s.baseDir, entry.Name())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			snapshot, err := readSnapshot(path)
			if err != nil {
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
