package store

import (
	"context"
	"sync"

	"github.com/shandysiswandi/tabclean/internal/pkg/pkgerror"
	"github.com/shandysiswandi/tabclean/internal/tabular/entity"
)

type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*sessionRecord
}

type sessionRecord struct {
	mu      sync.RWMutex
	session entity.Session
	order   []string
	entries map[string]entity.Entry
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		sessions: make(map[string]*sessionRecord),
	}
}

func (s *InMemoryStore) CreateSession(ctx context.Context, session entity.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return pkgerror.NewBusiness("session already exists", pkgerror.CodeConflict)
	}

	s.sessions[session.ID] = &sessionRecord{
		session: session,
		entries: make(map[string]entity.Entry),
	}

	return nil
}

func (s *InMemoryStore) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[sessionID]; !ok {
		return pkgerror.ErrNotFound
	}
	delete(s.sessions, sessionID)

	return nil
}

func (s *InMemoryStore) GetSession(ctx context.Context, sessionID string) (entity.Session, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Session{}, err
	}

	return rec.session, nil
}

// GetOrInit returns the entry stored under fileID, storing fresh first if
// there is none. created reports whether fresh was stored.
func (s *InMemoryStore) GetOrInit(ctx context.Context, sessionID, fileID string, fresh entity.Entry) (entity.Entry, bool, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Entry{}, false, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	if e, ok := rec.entries[fileID]; ok {
		return e.Clone(), false, nil
	}
	rec.put(fileID, fresh)

	return fresh, true, nil
}

func (s *InMemoryStore) Get(ctx context.Context, sessionID, fileID string) (entity.Entry, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Entry{}, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	e, ok := rec.entries[fileID]
	if !ok {
		return entity.Entry{}, pkgerror.ErrNotFound
	}

	return e.Clone(), nil
}

// Put overwrites the entry stored under fileID without looking at what is
// there. Read-modify-write callers use Update instead.
func (s *InMemoryStore) Put(ctx context.Context, sessionID, fileID string, entry entity.Entry) error {
	rec, err := s.get(sessionID)
	if err != nil {
		return err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()
	rec.put(fileID, entry)

	return nil
}

// Update applies fn to the entry stored under fileID while holding the
// session lock, then stores what fn returns. Nothing is stored when fn fails.
func (s *InMemoryStore) Update(
	ctx context.Context,
	sessionID, fileID string,
	fn func(entity.Entry) (entity.Entry, error),
) (entity.Entry, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return entity.Entry{}, err
	}

	rec.mu.Lock()
	defer rec.mu.Unlock()

	e, ok := rec.entries[fileID]
	if !ok {
		return entity.Entry{}, pkgerror.ErrNotFound
	}

	next, err := fn(e.Clone())
	if err != nil {
		return entity.Entry{}, err
	}
	rec.put(fileID, next)

	return next, nil
}

// put stores a copy of entry; callers hold rec.mu.
func (rec *sessionRecord) put(fileID string, entry entity.Entry) {
	if _, ok := rec.entries[fileID]; !ok {
		rec.order = append(rec.order, fileID)
	}
	rec.entries[fileID] = entry.Clone()
}

// List returns entry metadata in first-seen order.
func (s *InMemoryStore) List(ctx context.Context, sessionID string) ([]entity.EntryMeta, error) {
	rec, err := s.get(sessionID)
	if err != nil {
		return nil, err
	}

	rec.mu.RLock()
	defer rec.mu.RUnlock()

	items := make([]entity.EntryMeta, 0, len(rec.order))
	for _, id := range rec.order {
		items = append(items, rec.entries[id].Clone().Meta)
	}

	return items, nil
}

func (s *InMemoryStore) get(sessionID string) (*sessionRecord, error) {
	s.mu.RLock()
	rec, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, pkgerror.ErrNotFound
	}

	return rec, nil
}
