package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. Attempts
// are copied on the way in and out so callers never share live maps with
// the store.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[string]domain.Attempt
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{attempts: make(map[string]domain.Attempt)}
}

func (s *AttemptStore) Create(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; ok {
		return fmt.Errorf("attempt %s already exists", attempt.ID)
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) Get(_ context.Context, id string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	attempt, ok := s.attempts[id]
	if !ok {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	return cloneAttempt(attempt), nil
}

func (s *AttemptStore) Update(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.attempts[attempt.ID]; !ok {
		return domain.ErrAttemptNotFound
	}
	s.attempts[attempt.ID] = cloneAttempt(attempt)
	return nil
}

func (s *AttemptStore) List(_ context.Context, filter app.AttemptFilter) ([]domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Attempt, 0)
	for _, attempt := range s.attempts {
		if filter.QuizID != "" && attempt.QuizID != filter.QuizID {
			continue
		}
		if filter.LearnerID != "" && attempt.LearnerID != filter.LearnerID {
			continue
		}
		if filter.Passed != nil && attempt.Passed != *filter.Passed {
			continue
		}
		out = append(out, cloneAttempt(attempt))
	}
	return out, nil
}

// cloneAttempt deep-copies via JSON; attempts are small and this keeps the
// copy honest as the struct grows.
func cloneAttempt(in domain.Attempt) domain.Attempt {
	raw, err := json.Marshal(in)
	if err != nil {
		panic(fmt.Sprintf("clone attempt: %v", err))
	}
	var out domain.Attempt
	if err := json.Unmarshal(raw, &out); err != nil {
		panic(fmt.Sprintf("clone attempt: %v", err))
	}
	return out
}

// AttemptCounter serializes attempt numbering per (quiz, learner) behind a
// single mutex, the in-process equivalent of the redis INCR counter.
type AttemptCounter struct {
	mu     sync.Mutex
	counts map[string]int
}

func NewAttemptCounter() *AttemptCounter {
	return &AttemptCounter{counts: make(map[string]int)}
}

func (c *AttemptCounter) Reserve(_ context.Context, quizID, learnerID string) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := quizID + ":" + learnerID
	c.counts[key]++
	return c.counts[key], nil
}

func (c *AttemptCounter) Release(_ context.Context, quizID, learnerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := quizID + ":" + learnerID
	if c.counts[key] > 0 {
		c.counts[key]--
	}
	return nil
}
