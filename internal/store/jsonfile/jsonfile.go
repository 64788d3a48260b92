package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/renameio/v2"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	"kabraji/internal/domain"
	"kabraji/internal/store"
)

// Store persists the shop state to a single JSON document on disk.
// Writes are staged in a temporary sibling file and renamed over the target.
type Store struct {
	mu         sync.Mutex
	path       string
	lastDigest string
	logger     log.FieldLogger
}

func New(path string, logger log.FieldLogger) *Store {
	if logger == nil {
		logger = log.StandardLogger()
	}
	return &Store{
		path:   path,
		logger: logger.WithField("component", "jsonfile"),
	}
}

func (s *Store) Path() string {
	return s.path
}

// Load reads the document. A missing file is not an error: it yields an empty snapshot.
func (s *Store) Load(_ context.Context) (domain.Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Snapshot{}, nil
	}
	if err != nil {
		return domain.Snapshot{}, errors.Wrapf(store.ErrPersistence, "read %s: %v", s.path, err)
	}

	snapshot, err := store.Decode(payload)
	if err != nil {
		return domain.Snapshot{}, errors.Wrapf(store.ErrPersistence, "parse %s: %v", s.path, err)
	}
	s.lastDigest = store.Digest(payload)
	return snapshot, nil
}

func (s *Store) Save(_ context.Context, snapshot domain.Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := store.Encode(snapshot)
	if err != nil {
		return errors.Wrapf(store.ErrPersistence, "%v", err)
	}

	digest := store.Digest(payload)
	if digest == s.lastDigest {
		s.logger.WithField("path", s.path).Debug("snapshot unchanged, skipping write")
		return nil
	}

	if err := writeAtomic(s.path, payload); err != nil {
		return err
	}
	s.lastDigest = digest
	return nil
}

// writeAtomic stages payload in the target directory and renames it into place.
func writeAtomic(path string, payload []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return errors.Wrapf(store.ErrPersistence, "create %s: %v", dir, err)
	}
	if err := renameio.WriteFile(path, payload, 0o644, renameio.WithTempDir(dir)); err != nil {
		return errors.Wrapf(store.ErrPersistence, "write %s: %v", path, err)
	}
	return nil
}
