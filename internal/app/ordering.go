package app

import (
	"context"
	"errors"
	"sort"

	"assessment-engine/internal/domain"
)

// OrderedScope is a consistent snapshot of one scope's records plus the
// version the snapshot was taken at.
type OrderedScope struct {
	Records []domain.OrderedRecord
	Version int64
}

// OrderingStore persists display-ordered scopes. CompareAndSwap must apply
// the whole record set atomically and fail with domain.ErrVersionConflict
// when the scope moved since the snapshot: two concurrent swaps against the
// same stale order would otherwise silently lose one update.
type OrderingStore interface {
	Scope(ctx context.Context, scope string) (OrderedScope, error)
	CompareAndSwap(ctx context.Context, scope string, expectedVersion int64, records []domain.OrderedRecord) error
}

// OrderingService maintains a dense, scope-local integer ordering over any
// collection displayed in a fixed sequence. Gaps left by removals are
// tolerated; only relative order matters.
type OrderingService struct {
	store   OrderingStore
	retries int
}

func NewOrderingService(store OrderingStore) *OrderingService {
	return &OrderingService{store: store, retries: 3}
}

// Reorder swaps the target record's displayOrder with its immediate
// neighbor in the given direction. Moving the first record up or the last
// down is a no-op, not an error. Conflicting concurrent reorders are
// detected by the store's version check and retried against a fresh
// snapshot.
func (s *OrderingService) Reorder(ctx context.Context, scope, id string, dir domain.MoveDirection) error {
	return s.withRetry(ctx, scope, func(records []domain.OrderedRecord) ([]domain.OrderedRecord, error) {
		pos := indexOf(records, id)
		if pos < 0 {
			return nil, domain.ErrRecordNotFound
		}
		var neighbor int
		switch dir {
		case domain.MoveUp:
			neighbor = pos - 1
		case domain.MoveDown:
			neighbor = pos + 1
		default:
			return nil, domain.ErrRecordNotFound
		}
		if neighbor < 0 || neighbor >= len(records) {
			return nil, nil // edge move, nothing to do
		}
		records[pos].DisplayOrder, records[neighbor].DisplayOrder =
			records[neighbor].DisplayOrder, records[pos].DisplayOrder
		return records, nil
	})
}

// MoveUp swaps the record with its predecessor.
func (s *OrderingService) MoveUp(ctx context.Context, scope, id string) error {
	return s.Reorder(ctx, scope, id, domain.MoveUp)
}

// MoveDown swaps the record with its successor.
func (s *OrderingService) MoveDown(ctx context.Context, scope, id string) error {
	return s.Reorder(ctx, scope, id, domain.MoveDown)
}

// Insert appends a record to the scope with displayOrder = max(existing)+1.
func (s *OrderingService) Insert(ctx context.Context, scope, id string) (domain.OrderedRecord, error) {
	var inserted domain.OrderedRecord
	err := s.withRetry(ctx, scope, func(records []domain.OrderedRecord) ([]domain.OrderedRecord, error) {
		next := 1
		for _, r := range records {
			if r.DisplayOrder >= next {
				next = r.DisplayOrder + 1
			}
		}
		inserted = domain.OrderedRecord{ID: id, DisplayOrder: next}
		return append(records, inserted), nil
	})
	return inserted, err
}

// Remove drops a record, leaving a gap in the sequence.
func (s *OrderingService) Remove(ctx context.Context, scope, id string) error {
	return s.withRetry(ctx, scope, func(records []domain.OrderedRecord) ([]domain.OrderedRecord, error) {
		pos := indexOf(records, id)
		if pos < 0 {
			return nil, domain.ErrRecordNotFound
		}
		return append(records[:pos], records[pos+1:]...), nil
	})
}

// Records returns the scope's records in display order.
func (s *OrderingService) Records(ctx context.Context, scope string) ([]domain.OrderedRecord, error) {
	snap, err := s.store.Scope(ctx, scope)
	if err != nil {
		return nil, err
	}
	sortRecords(snap.Records)
	return snap.Records, nil
}

// withRetry runs mutate over a sorted snapshot and writes the result back
// under the snapshot's version, retrying on conflict. A nil result from
// mutate means no write is needed.
func (s *OrderingService) withRetry(ctx context.Context, scope string, mutate func([]domain.OrderedRecord) ([]domain.OrderedRecord, error)) error {
	var err error
	for i := 0; i <= s.retries; i++ {
		var snap OrderedScope
		snap, err = s.store.Scope(ctx, scope)
		if err != nil {
			return err
		}
		sortRecords(snap.Records)

		var updated []domain.OrderedRecord
		updated, err = mutate(snap.Records)
		if err != nil {
			return err
		}
		if updated == nil {
			return nil
		}

		err = s.store.CompareAndSwap(ctx, scope, snap.Version, updated)
		if err == nil {
			return nil
		}
		if !errors.Is(err, domain.ErrVersionConflict) {
			return err
		}
	}
	return err
}

func sortRecords(records []domain.OrderedRecord) {
	sort.Slice(records, func(i, j int) bool {
		if records[i].DisplayOrder != records[j].DisplayOrder {
			return records[i].DisplayOrder < records[j].DisplayOrder
		}
		return records[i].ID < records[j].ID
	})
}

func indexOf(records []domain.OrderedRecord, id string) int {
	for i := range records {
		if records[i].ID == id {
			return i
		}
	}
	return -1
}
