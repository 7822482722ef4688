package service

import (
	"context"
	"sync"
	"time"

	appErrors "github.com/acadplan/timetable-api/pkg/errors"
)

type memoryProposalEntry struct {
	proposal  TimetableProposal
	expiresAt time.Time
}

// memoryProposalStore keeps proposals in process memory. It backs the
// pipeline when Redis is disabled.
type memoryProposalStore struct {
	mu    sync.RWMutex
	items map[string]memoryProposalEntry
}

func newMemoryProposalStore() *memoryProposalStore {
	return &memoryProposalStore{items: make(map[string]memoryProposalEntry)}
}

func (s *memoryProposalStore) Get(_ context.Context, id string, dest interface{}) error {
	s.mu.RLock()
	entry, ok := s.items[id]
	s.mu.RUnlock()
	if !ok || time.Now().After(entry.expiresAt) {
		if ok {
			_ = s.Delete(context.Background(), id)
		}
		return appErrors.ErrCacheMiss
	}
	target, ok := dest.(*TimetableProposal)
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, "proposal destination must be *TimetableProposal")
	}
	*target = entry.proposal
	return nil
}

func (s *memoryProposalStore) Set(_ context.Context, id string, value interface{}, ttl time.Duration) error {
	proposal, ok := value.(TimetableProposal)
	if !ok {
		return appErrors.Clone(appErrors.ErrInternal, "proposal value must be TimetableProposal")
	}
	s.mu.Lock()
	s.items[id] = memoryProposalEntry{proposal: proposal, expiresAt: time.Now().Add(ttl)}
	s.mu.Unlock()
	return nil
}

func (s *memoryProposalStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	delete(s.items, id)
	s.mu.Unlock()
	return nil
}
