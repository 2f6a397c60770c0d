package memory

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/YallaPapi/chatter/internal/phase"
)

// Store persists one JSON file per fan under a directory. Writes go
// through a temp file and rename so a crash never leaves a half-written
// record. A file that fails to parse is moved aside as .corrupt and the
// fan starts over rather than blocking the whole conversation.
type Store struct {
	dir  string
	caps Caps

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates the directory if needed.
func NewStore(dir string, caps Caps) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create memory dir: %w", err)
	}
	return &Store{dir: dir, caps: caps, locks: map[string]*sync.Mutex{}}, nil
}

// Lock returns the mutex serializing access to one fan's record. The
// engine holds it for the whole inbound cycle.
func (s *Store) Lock(fanID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[fanID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[fanID] = l
	}
	return l
}

func (s *Store) path(fanID string) string {
	return filepath.Join(s.dir, fanID+".json")
}

// Load reads a fan's record. A missing file returns (nil, nil); the
// caller decides whether to create a fresh record. A corrupt file is
// preserved with a .corrupt suffix and treated as missing.
func (s *Store) Load(fanID string) (*FanRecord, error) {
	data, err := os.ReadFile(s.path(fanID))
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fan %s: %w", fanID, err)
	}
	var rec FanRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		corrupt := s.path(fanID) + ".corrupt"
		if renameErr := os.Rename(s.path(fanID), corrupt); renameErr != nil {
			log.Printf("[memory] failed to quarantine corrupt record %s: %v", fanID, renameErr)
		} else {
			log.Printf("[memory] corrupt record for fan %s moved to %s: %v", fanID, corrupt, err)
		}
		return nil, nil
	}
	if rec.State == nil {
		rec.State = phase.NewState()
	}
	if rec.Topics == nil {
		rec.Topics = map[string]bool{}
	}
	rec.Caps = s.caps
	return &rec, nil
}

// LoadOrCreate returns the existing record or a fresh one.
func (s *Store) LoadOrCreate(platform, username string, now time.Time) (*FanRecord, error) {
	fanID := FanID(platform, username)
	rec, err := s.Load(fanID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		rec = NewFanRecord(platform, username, now)
		rec.Caps = s.caps
	}
	return rec, nil
}

// Save writes the record atomically.
func (s *Store) Save(rec *FanRecord) error {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal fan %s: %w", rec.FanID, err)
	}
	tmp, err := os.CreateTemp(s.dir, rec.FanID+".tmp-*")
	if err != nil {
		return fmt.Errorf("temp file for fan %s: %w", rec.FanID, err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write fan %s: %w", rec.FanID, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp for fan %s: %w", rec.FanID, err)
	}
	if err := os.Rename(tmpName, s.path(rec.FanID)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace record for fan %s: %w", rec.FanID, err)
	}
	return nil
}

// ListIDs returns every persisted fan ID, unsorted.
func (s *Store) ListIDs() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("list memory dir: %w", err)
	}
	var ids []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// Delete removes a fan's record. Deleting a missing record is not an
// error.
func (s *Store) Delete(fanID string) error {
	err := os.Remove(s.path(fanID))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete fan %s: %w", fanID, err)
	}
	return nil
}
