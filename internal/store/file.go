package store

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sawpanic/vibeusage/internal/models"
)

// FileStore is the authoritative, always-on persistence tier: one file
// per provider per kind (JSON for snapshots and gate state, plain text
// for org ids), under a base directory laid out the same way as the
// reference implementation (snapshots/, gate/, org_ids/).
type FileStore struct {
	baseDir string
}

// NewFileStore returns a store rooted at baseDir, creating the
// directory layout lazily on first write.
func NewFileStore(baseDir string) *FileStore {
	return &FileStore{baseDir: baseDir}
}

func (s *FileStore) snapshotPath(providerID string) string {
	return filepath.Join(s.baseDir, "snapshots", providerID+".json")
}

func (s *FileStore) gatePath(providerID string) string {
	return filepath.Join(s.baseDir, "gate", providerID+".json")
}

func (s *FileStore) orgIDPath(providerID string) string {
	return filepath.Join(s.baseDir, "org_ids", providerID+".txt")
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// readJSON decodes path into v. Any failure — missing file, corrupted
// contents, permission error — is reported as "not found" rather than
// an error, matching the corruption-as-absent policy every cache read
// in this system follows.
func readJSON(path string, v any) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false
	}
	return true
}

func (s *FileStore) LoadSnapshot(providerID string) (models.UsageSnapshot, bool) {
	var snap models.UsageSnapshot
	if !readJSON(s.snapshotPath(providerID), &snap) {
		return models.UsageSnapshot{}, false
	}
	return snap, true
}

func (s *FileStore) SaveSnapshot(snapshot models.UsageSnapshot) error {
	return writeJSON(s.snapshotPath(snapshot.Provider), snapshot)
}

func (s *FileStore) ClearSnapshot(providerID string) error {
	err := os.Remove(s.snapshotPath(providerID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// SnapshotAge reports how long ago providerID's cached snapshot was
// fetched. ok is false when there is no cached snapshot.
func (s *FileStore) SnapshotAge(providerID string) (time.Duration, bool) {
	snap, ok := s.LoadSnapshot(providerID)
	if !ok {
		return 0, false
	}
	return time.Since(snap.FetchedAt), true
}

// IsFresh reports whether providerID has a cached snapshot younger than
// maxAge.
func (s *FileStore) IsFresh(providerID string, maxAge time.Duration) bool {
	age, ok := s.SnapshotAge(providerID)
	if !ok {
		return false
	}
	return age < maxAge
}

// ClearAll removes the snapshot and org id cache for providerID, or for
// every provider when providerID is empty, mirroring the reference
// implementation's clear_all_cache(provider_id=None).
func (s *FileStore) ClearAll(providerID string) error {
	if providerID != "" {
		if err := s.ClearSnapshot(providerID); err != nil {
			return err
		}
		return s.ClearOrgID(providerID)
	}

	if err := clearDir(filepath.Join(s.baseDir, "snapshots")); err != nil {
		return err
	}
	return clearDir(filepath.Join(s.baseDir, "org_ids"))
}

// clearDir removes every regular file directly under dir. A missing dir
// is not an error — there is nothing to clear.
func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return nil
}

func (s *FileStore) LoadGateState(providerID string) (models.GateState, bool) {
	var state models.GateState
	if !readJSON(s.gatePath(providerID), &state) {
		return models.GateState{}, false
	}
	return state, true
}

func (s *FileStore) SaveGateState(state models.GateState) error {
	return writeJSON(s.gatePath(state.ProviderID), state)
}

func (s *FileStore) LoadOrgID(providerID string) (string, bool) {
	data, err := os.ReadFile(s.orgIDPath(providerID))
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(string(data)), true
}

func (s *FileStore) SaveOrgID(providerID, orgID string) error {
	path := s.orgIDPath(providerID)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(orgID), 0o644)
}

func (s *FileStore) ClearOrgID(providerID string) error {
	err := os.Remove(s.orgIDPath(providerID))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
