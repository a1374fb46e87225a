package session

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/forPelevin/beepsub/internal/types"
)

// MemStore keeps JSON encoded sessions in memory. Records are stored encoded
// so callers never share slices with the store.
type MemStore struct {
	now func() time.Time

	mu   sync.Mutex
	recs map[string]memRecord
}

type memRecord struct {
	doc     []byte
	version int64
	updated time.Time
}

var _ Store = (*MemStore)(nil)

// NewMemStore returns an empty store. now may be nil.
func NewMemStore(now func() time.Time) *MemStore {
	if now == nil {
		now = time.Now
	}
	return &MemStore{now: now, recs: map[string]memRecord{}}
}

func (m *MemStore) Put(_ context.Context, s types.Session) (int64, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	v := m.recs[s.VideoHash].version + 1
	m.recs[s.VideoHash] = memRecord{doc: doc, version: v, updated: m.now()}
	return v, nil
}

func (m *MemStore) Get(_ context.Context, hash string) (Record, error) {
	m.mu.Lock()
	r, ok := m.recs[hash]
	m.mu.Unlock()
	if !ok {
		return Record{}, fmt.Errorf("%w: %s", types.ErrNotFound, hash)
	}
	var s types.Session
	if err := json.Unmarshal(r.doc, &s); err != nil {
		return Record{}, fmt.Errorf("decode session %s: %w", hash, err)
	}
	return Record{Session: s, Version: r.version, UpdatedAt: r.updated}, nil
}

func (m *MemStore) CompareAndSwap(_ context.Context, s types.Session, version int64) (int64, error) {
	doc, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("encode session: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[s.VideoHash]
	if !ok {
		return 0, fmt.Errorf("%w: %s", types.ErrNotFound, s.VideoHash)
	}
	if r.version != version {
		return 0, fmt.Errorf("%w: %s at version %d, have %d", types.ErrConflict, s.VideoHash, r.version, version)
	}
	m.recs[s.VideoHash] = memRecord{doc: doc, version: version + 1, updated: m.now()}
	return version + 1, nil
}

func (m *MemStore) Delete(_ context.Context, hash string) error {
	m.mu.Lock()
	delete(m.recs, hash)
	m.mu.Unlock()
	return nil
}

func (m *MemStore) DeleteIfVersion(_ context.Context, hash string, version int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recs[hash]
	if !ok {
		return nil
	}
	if r.version != version {
		return fmt.Errorf("%w: %s at version %d, have %d", types.ErrConflict, hash, r.version, version)
	}
	delete(m.recs, hash)
	return nil
}

func (m *MemStore) Stale(_ context.Context, before time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for h, r := range m.recs {
		if r.updated.Before(before) {
			out = append(out, h)
		}
	}
	sort.Strings(out)
	return out, nil
}

func (m *MemStore) Close() error { return nil }
