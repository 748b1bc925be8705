package waitlist

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

const DefaultSessionTTL = 24 * time.Hour

var ErrFormNotFound = errors.New("form not found")

// SessionStore keeps form state between requests.
// Update applies fn to a private copy and persists it only when fn returns nil.
type SessionStore interface {
	Create(ctx context.Context, form *Form) error
	Get(ctx context.Context, id string) (*Form, error)
	Update(ctx context.Context, id string, fn func(*Form) error) (*Form, error)
}

func encodeForm(form *Form) ([]byte, error) {
	return json.Marshal(form)
}

func decodeForm(data []byte) (*Form, error) {
	var form Form
	if err := json.Unmarshal(data, &form); err != nil {
		return nil, err
	}
	if form.Values == nil {
		form.Values = Fields{}
	}
	return &form, nil
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// MemorySessionStore is a single-process SessionStore used when Redis is not configured.
type MemorySessionStore struct {
	mu    sync.Mutex
	ttl   time.Duration
	now   func() time.Time
	forms map[string]memoryEntry
}

func NewMemorySessionStore(ttl time.Duration) *MemorySessionStore {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &MemorySessionStore{
		ttl:   ttl,
		now:   time.Now,
		forms: make(map[string]memoryEntry),
	}
}

func (s *MemorySessionStore) Create(_ context.Context, form *Form) error {
	data, err := encodeForm(form)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.sweepLocked()
	s.forms[form.ID] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.loadLocked(id)
	if !ok {
		return nil, ErrFormNotFound
	}
	return decodeForm(entry.data)
}

func (s *MemorySessionStore) Update(_ context.Context, id string, fn func(*Form) error) (*Form, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.loadLocked(id)
	if !ok {
		return nil, ErrFormNotFound
	}

	form, err := decodeForm(entry.data)
	if err != nil {
		return nil, err
	}

	if err := fn(form); err != nil {
		original, _ := decodeForm(entry.data)
		return original, err
	}

	data, err := encodeForm(form)
	if err != nil {
		return nil, err
	}
	s.forms[id] = memoryEntry{data: data, expiresAt: s.now().Add(s.ttl)}
	return form, nil
}

func (s *MemorySessionStore) loadLocked(id string) (memoryEntry, bool) {
	entry, ok := s.forms[id]
	if !ok {
		return memoryEntry{}, false
	}
	if s.now().After(entry.expiresAt) {
		delete(s.forms, id)
		return memoryEntry{}, false
	}
	return entry, true
}

func (s *MemorySessionStore) sweepLocked() {
	now := s.now()
	for id, entry := range s.forms {
		if now.After(entry.expiresAt) {
			delete(s.forms, id)
		}
	}
}
