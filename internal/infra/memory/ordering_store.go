package memory

import (
	"context"
	"sync"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// OrderingStore keeps versioned ordering scopes in memory. Every write bumps
// the scope version; CompareAndSwap rejects writers holding a stale
// snapshot so concurrent reorders cannot both apply against the same order.
type OrderingStore struct {
	mu     sync.Mutex
	scopes map[string]*scopeState
}

type scopeState struct {
	records []domain.OrderedRecord
	version int64
}

func NewOrderingStore() *OrderingStore {
	return &OrderingStore{scopes: make(map[string]*scopeState)}
}

// Scope returns a snapshot of the scope; unknown scopes read as empty at
// version zero so the first insert needs no separate create call.
func (s *OrderingStore) Scope(_ context.Context, scope string) (app.OrderedScope, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scopes[scope]
	if !ok {
		return app.OrderedScope{}, nil
	}
	records := make([]domain.OrderedRecord, len(state.records))
	copy(records, state.records)
	return app.OrderedScope{Records: records, Version: state.version}, nil
}

func (s *OrderingStore) CompareAndSwap(_ context.Context, scope string, expectedVersion int64, records []domain.OrderedRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	state, ok := s.scopes[scope]
	if !ok {
		if expectedVersion != 0 {
			return domain.ErrVersionConflict
		}
		state = &scopeState{}
		s.scopes[scope] = state
	}
	if state.version != expectedVersion {
		return domain.ErrVersionConflict
	}
	state.records = make([]domain.OrderedRecord, len(records))
	copy(state.records, records)
	state.version++
	return nil
}
