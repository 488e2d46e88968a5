package monitor

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bytedance/sonic"
	"github.com/pkg/errors"

	"fxbot/internal/models"
	"fxbot/pkg/logger"
)

// Store is the durable, single-writer snapshot log. One JSON document:
// a metadata object plus the ordered snapshots array.
type Store struct {
	path string
	doc  *models.StoreDocument
}

func NewStore(path string) *Store {
	return &Store{path: path}
}

// Open loads the document, or initializes a fresh one with meta. A file
// that does not parse into both a metadata object and a snapshots array
// is moved aside as corrupt and the store reinitialized; startup never
// fails on a bad store.
func (s *Store) Open(meta models.StoreMetadata) (*models.StoreDocument, error) {
	data, err := os.ReadFile(s.path)
	switch {
	case os.IsNotExist(err):
		return s.init(meta)
	case err != nil:
		return nil, errors.Wrapf(err, "read store %s", s.path)
	}

	var probe struct {
		Metadata  *models.StoreMetadata `json:"metadata"`
		Snapshots *[]models.Snapshot    `json:"snapshots"`
	}
	if uerr := sonic.Unmarshal(data, &probe); uerr != nil || probe.Metadata == nil || probe.Snapshots == nil {
		corrupt := fmt.Sprintf("%s.corrupt.%d", s.path, time.Now().Unix())
		logger.Warn("store %s unreadable, moving aside to %s", s.path, corrupt)
		if rerr := os.Rename(s.path, corrupt); rerr != nil {
			return nil, errors.Wrap(rerr, "move corrupt store aside")
		}
		return s.init(meta)
	}

	s.doc = &models.StoreDocument{
		Metadata:  *probe.Metadata,
		Snapshots: *probe.Snapshots,
	}
	return s.doc, nil
}

func (s *Store) init(meta models.StoreMetadata) (*models.StoreDocument, error) {
	s.doc = &models.StoreDocument{
		Metadata:  meta,
		Snapshots: []models.Snapshot{},
	}
	if err := s.flush(); err != nil {
		return nil, err
	}
	return s.doc, nil
}

// Append adds one snapshot and persists. The in-memory document only
// advances when the write succeeds, so a failed write is retried with
// the same trades on the next cycle.
func (s *Store) Append(snap models.Snapshot) error {
	if s.doc == nil {
		return errors.New("store not opened")
	}
	s.doc.Snapshots = append(s.doc.Snapshots, snap)
	if err := s.flush(); err != nil {
		s.doc.Snapshots = s.doc.Snapshots[:len(s.doc.Snapshots)-1]
		return err
	}
	return nil
}

// flush writes the whole document atomically: temp file, then rename,
// so a crash mid-write never leaves a half-visible store.
func (s *Store) flush() error {
	data, err := sonic.Marshal(s.doc)
	if err != nil {
		return errors.Wrap(err, "marshal store")
	}
	dir := filepath.Dir(s.path)
	if dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(err, "create store dir")
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(err, "write store temp")
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return errors.Wrap(err, "rename store temp")
	}
	return nil
}

func (s *Store) Document() *models.StoreDocument {
	return s.doc
}
