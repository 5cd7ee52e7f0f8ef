package store

import (
	"context"
	"sync"
)

// MemoryStore keeps the answer history in process memory. Readers always
// see a prefix of the appended records.
type MemoryStore struct {
	mu      sync.RWMutex
	records []AnswerRecord
	seq     int64
}

// NewMemoryStore returns an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Append(_ context.Context, rec AnswerRecord) (int64, error) {
	rec, err := prepare(rec)
	if err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	rec.Sequence = m.seq
	m.records = append(m.records, rec)
	return rec.Sequence, nil
}

func (m *MemoryStore) History(_ context.Context, sessionID string) ([]AnswerRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := []AnswerRecord{}
	for _, r := range m.records {
		if r.SessionID == sessionID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MemoryStore) Sessions(_ context.Context) ([]SessionHistory, error) {
	m.mu.RLock()
	records := make([]AnswerRecord, len(m.records))
	copy(records, m.records)
	m.mu.RUnlock()

	return groupBySession(records), nil
}

func (m *MemoryStore) Close() error { return nil }
