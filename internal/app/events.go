package app

import (
	"sync"
	"time"

	"assessment-engine/internal/domain"
)

// EventType labels an attempt lifecycle transition on the feed.
type EventType string

const (
	EventAttemptStarted      EventType = "attempt.started"
	EventAttemptGraded       EventType = "attempt.graded"
	EventAttemptPending      EventType = "attempt.pending_manual"
	EventManualGradeRecorded EventType = "attempt.manual_grade"
	EventAttemptAbandoned    EventType = "attempt.abandoned"
)

// AttemptEvent is pushed to grading dashboards whenever an attempt changes
// state.
type AttemptEvent struct {
	Type         EventType            `json:"type"`
	AttemptID    string               `json:"attemptId"`
	QuizID       string               `json:"quizId"`
	LearnerID    string               `json:"learnerId"`
	Status       domain.AttemptStatus `json:"status"`
	ScorePercent float64              `json:"scorePercent"`
	Passed       bool                 `json:"passed"`
	At           time.Time            `json:"at"`
}

// EventFeed fans attempt events out to subscribers. Slow consumers never
// block publishers: when a subscriber's buffer is full the oldest event is
// dropped in favor of the newest.
type EventFeed struct {
	mu   sync.Mutex
	subs map[chan AttemptEvent]struct{}
}

func NewEventFeed() *EventFeed {
	return &EventFeed{subs: make(map[chan AttemptEvent]struct{})}
}

// Subscribe returns a channel of events and a cancel function the caller
// must invoke to avoid leaks.
func (f *EventFeed) Subscribe() (<-chan AttemptEvent, func()) {
	ch := make(chan AttemptEvent, 8)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *EventFeed) Publish(evt AttemptEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subs {
		select {
		case ch <- evt:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- evt
		}
	}
}
