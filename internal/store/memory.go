package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/fpang/yt-thumbnail-wizard/internal/wizard"
)

// MemoryStore is an in-process Store for the local server and tests.
// Values are copied in and out so callers never share state with it.
type MemoryStore struct {
	mu       sync.RWMutex
	records  map[string]map[string]ThumbnailRecord
	sessions map[string]memSession
	now      func() time.Time
}

type memSession struct {
	s         wizard.Session
	expiresAt time.Time
}

var _ Store = (*MemoryStore)(nil)

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records:  map[string]map[string]ThumbnailRecord{},
		sessions: map[string]memSession{},
		now:      time.Now,
	}
}

func (m *MemoryStore) PutRecord(ctx context.Context, rec *ThumbnailRecord) error {
	if rec.ID == "" || rec.OwnerID == "" {
		return errors.New("record id and owner are required")
	}
	if rec.CreatedAt == 0 {
		rec.CreatedAt = m.now().Unix()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.records[rec.OwnerID] == nil {
		m.records[rec.OwnerID] = map[string]ThumbnailRecord{}
	}
	m.records[rec.OwnerID][rec.ID] = *rec
	return nil
}

func (m *MemoryStore) GetRecord(ctx context.Context, ownerID, id string) (*ThumbnailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	rec, ok := m.records[ownerID][id]
	if !ok {
		return nil, nil
	}
	return &rec, nil
}

func (m *MemoryStore) ListRecords(ctx context.Context, ownerID string) ([]*ThumbnailRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]*ThumbnailRecord, 0, len(m.records[ownerID]))
	for _, rec := range m.records[ownerID] {
		rec := rec
		out = append(out, &rec)
	}
	sortNewestFirst(out)
	return out, nil
}

func (m *MemoryStore) DeleteRecord(ctx context.Context, ownerID, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.records[ownerID][id]; !ok {
		return ErrNotFound
	}
	delete(m.records[ownerID], id)
	return nil
}

func (m *MemoryStore) PutSession(ctx context.Context, s *wizard.Session) error {
	if s.ID == "" {
		return errors.New("session id is required")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = memSession{s: *s, expiresAt: m.now().Add(SessionTTL)}
	return nil
}

func (m *MemoryStore) GetSession(ctx context.Context, id string) (*wizard.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ms, ok := m.sessions[id]
	if !ok || m.now().After(ms.expiresAt) {
		return nil, nil
	}
	s := ms.s
	return &s, nil
}

func (m *MemoryStore) DeleteSession(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}
