package overlay

import (
	"encoding/json"
	"fmt"
)

const (
	// DaemonOptsAdditions is the record holding daemon options added at
	// runtime on top of the operator baseline.
	DaemonOptsAdditions = "daemon-opts-additions"

	// DockerOpts is the record holding the dockerd command-line options.
	DockerOpts = "docker-opts"
)

// Store persists named records as JSON.
type Store interface {
	// Get decodes the record into v. It reports false, and leaves v
	// untouched, when the record does not exist.
	Get(name string, v any) (bool, error)

	// Set replaces the record with the JSON encoding of v.
	Set(name string, v any) error
}

// MemoryStore implements Store in process memory. Records are kept in
// their encoded form so callers never share state with the store.
type MemoryStore struct {
	records map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: map[string][]byte{}}
}

// Get decodes the named record into v.
func (m *MemoryStore) Get(name string, v any) (bool, error) {
	data, ok := m.records[name]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(data, v); err != nil {
		return false, fmt.Errorf("failed to decode record %s: %w", name, err)
	}
	return true, nil
}

// Set stores the JSON encoding of v under name.
func (m *MemoryStore) Set(name string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode record %s: %w", name, err)
	}
	m.records[name] = data
	return nil
}
