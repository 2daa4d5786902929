package app

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"assessment-engine/internal/domain"
)

// QuizRepository loads quiz definitions (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
}

// AttemptFilter narrows attempt listings for the reporting surface.
type AttemptFilter struct {
	QuizID    string
	LearnerID string
	Passed    *bool
}

// AttemptStore persists attempts across their lifecycle.
type AttemptStore interface {
	Create(ctx context.Context, attempt domain.Attempt) error
	Get(ctx context.Context, id string) (domain.Attempt, error)
	Update(ctx context.Context, attempt domain.Attempt) error
	List(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error)
}

// AttemptCounter serializes the attempt-limit check per (quiz, learner).
// Reserve atomically claims the next attempt number; Release gives a claim
// back when the start is rejected or the attempt is abandoned. The
// count-then-insert race of a double-clicked "start" resolves here, not in
// application code.
type AttemptCounter interface {
	Reserve(ctx context.Context, quizID, learnerID string) (int, error)
	Release(ctx context.Context, quizID, learnerID string) error
}

// AssessmentService carries the assessment engine's use cases: publish
// validation, the attempt lifecycle, grading, and manual grading.
type AssessmentService struct {
	quizzes  QuizRepository
	attempts AttemptStore
	counter  AttemptCounter
	feed     *EventFeed
	now      func() time.Time

	locks sync.Map // attemptID -> *sync.Mutex
}

func NewAssessmentService(quizzes QuizRepository, attempts AttemptStore, counter AttemptCounter) *AssessmentService {
	return &AssessmentService{
		quizzes:  quizzes,
		attempts: attempts,
		counter:  counter,
		feed:     NewEventFeed(),
		now:      time.Now,
	}
}

// WithClock is test-only for deterministic timestamps.
func (s *AssessmentService) WithClock(now func() time.Time) *AssessmentService {
	s.now = now
	return s
}

// ValidateQuestion exposes the pure per-question gate to the authoring
// layer.
func (s *AssessmentService) ValidateQuestion(q domain.Question) []domain.ValidationError {
	return domain.ValidateQuestion(q)
}

// ValidateQuizForPublish loads the quiz and runs the publish gate over it
// and its question set.
func (s *AssessmentService) ValidateQuizForPublish(ctx context.Context, quizID string) ([]domain.ValidationError, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return domain.ValidateQuizForPublish(quiz, quiz.Questions), nil
}

// StartAttempt begins a learner's pass through a published quiz. The quiz's
// question set and grading config are snapshotted onto the attempt, and the
// presentation shuffle (when configured) is fixed here so later re-renders
// are stable.
func (s *AssessmentService) StartAttempt(ctx context.Context, quizID, learnerID string) (domain.Attempt, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if !quiz.Published {
		return domain.Attempt{}, domain.ErrQuizNotPublished
	}

	number, err := s.counter.Reserve(ctx, quizID, learnerID)
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("reserve attempt: %w", err)
	}
	if quiz.MaxAttempts != nil && number > *quiz.MaxAttempts {
		if rerr := s.counter.Release(ctx, quizID, learnerID); rerr != nil {
			log.Printf("release over-limit attempt for quiz=%s learner=%s: %v", quizID, learnerID, rerr)
		}
		return domain.Attempt{}, domain.ErrAttemptLimitExceeded
	}

	attempt := domain.Attempt{
		ID:            uuid.NewString(),
		QuizID:        quizID,
		LearnerID:     learnerID,
		AttemptNumber: number,
		Status:        domain.AttemptInProgress,
		Questions:     snapshotQuestions(quiz.Questions),
		Answers:       make(map[string]domain.Answer),
		StartedAt:     s.now(),

		PassingScorePercent: quiz.PassingScorePercent,
		TimeLimitMinutes:    quiz.TimeLimitMinutes,
		ShowResults:         quiz.ShowResults,
		ShowCorrectAnswers:  quiz.ShowCorrectAnswers,
	}
	attempt.ApplyShuffle(quiz.ShuffleQuestions, quiz.ShuffleAnswers)

	if err := s.attempts.Create(ctx, attempt); err != nil {
		if rerr := s.counter.Release(ctx, quizID, learnerID); rerr != nil {
			log.Printf("release failed attempt for quiz=%s learner=%s: %v", quizID, learnerID, rerr)
		}
		return domain.Attempt{}, fmt.Errorf("create attempt: %w", err)
	}

	s.publish(EventAttemptStarted, attempt)
	return attempt, nil
}

// SaveAnswer records one answer on an in-progress attempt, translating it
// from presentation to canonical coordinates. Writes after the deadline are
// not recorded (the eventual submit grades whatever made it in on time);
// the returned bool reports whether the answer was kept.
func (s *AssessmentService) SaveAnswer(ctx context.Context, attemptID, questionID string, answer domain.Answer) (bool, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return false, err
	}
	if attempt.Status != domain.AttemptInProgress {
		return false, domain.ErrAttemptNotActive
	}
	if _, ok := attempt.QuestionByID(questionID); !ok {
		return false, fmt.Errorf("%w: answer for question %s outside attempt snapshot", domain.ErrCorruptAttempt, questionID)
	}
	if deadline, ok := attempt.Deadline(); ok && s.now().After(deadline) {
		return false, nil
	}

	attempt.Answers[questionID] = attempt.CanonicalizeAnswer(questionID, answer)
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return false, fmt.Errorf("save answer: %w", err)
	}
	return true, nil
}

// SubmitAttempt grades an in-progress attempt. Submission past the deadline
// is not rejected: the attempt is accepted and graded from the answers that
// were recorded in time, ignoring the late payload (auto-submit-on-expiry
// semantics). Integrity faults abort grading and propagate.
func (s *AssessmentService) SubmitAttempt(ctx context.Context, attemptID string, answers map[string]domain.Answer) (domain.Attempt, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Status != domain.AttemptInProgress {
		return domain.Attempt{}, domain.ErrAttemptNotActive
	}

	now := s.now()
	deadline, limited := attempt.Deadline()
	expired := limited && now.After(deadline)
	if !expired {
		for qid, answer := range answers {
			if _, ok := attempt.QuestionByID(qid); !ok {
				return domain.Attempt{}, fmt.Errorf("%w: answer for question %s outside attempt snapshot", domain.ErrCorruptAttempt, qid)
			}
			attempt.Answers[qid] = attempt.CanonicalizeAnswer(qid, answer)
		}
	}

	result, err := domain.Grade(attempt.Questions, attempt.Answers, attempt.PassingScorePercent)
	if err != nil {
		log.Printf("grading aborted for attempt=%s: %v", attemptID, err)
		return domain.Attempt{}, err
	}

	attempt.CompletedAt = &now
	attempt.TimeSpentSeconds = int(now.Sub(attempt.StartedAt).Seconds())
	attempt.TotalPoints = result.TotalPoints
	attempt.MaxPoints = result.MaxPoints
	attempt.ScorePercent = result.ScorePercent
	attempt.Passed = result.Passed
	attempt.Results = result.Results
	if result.PendingCount > 0 {
		attempt.Status = domain.AttemptPendingManual
	} else {
		attempt.Status = domain.AttemptGraded
	}

	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("finalize attempt: %w", err)
	}

	if attempt.Status == domain.AttemptPendingManual {
		s.publish(EventAttemptPending, attempt)
	} else {
		s.publish(EventAttemptGraded, attempt)
	}
	return attempt, nil
}

// GradeManualAnswer records a human-assigned score for one short-answer
// question. Once the last pending question is scored the attempt finalizes
// to GRADED; re-applying an unchanged score leaves the totals untouched.
func (s *AssessmentService) GradeManualAnswer(ctx context.Context, attemptID, questionID string, points float64, gradedBy string) (domain.Attempt, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if err := attempt.ApplyManualGrade(questionID, points, gradedBy, s.now()); err != nil {
		return domain.Attempt{}, err
	}
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("record manual grade: %w", err)
	}

	if attempt.Status == domain.AttemptGraded {
		s.publish(EventAttemptGraded, attempt)
	} else {
		s.publish(EventManualGradeRecorded, attempt)
	}
	return attempt, nil
}

// AbandonAttempt administratively drops an in-progress attempt. Abandoned
// attempts do not count toward the quiz's attempt allowance.
func (s *AssessmentService) AbandonAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	unlock := s.lockAttempt(attemptID)
	defer unlock()

	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return domain.Attempt{}, err
	}
	if attempt.Status != domain.AttemptInProgress {
		return domain.Attempt{}, domain.ErrAttemptNotActive
	}

	attempt.Status = domain.AttemptAbandoned
	if err := s.attempts.Update(ctx, attempt); err != nil {
		return domain.Attempt{}, fmt.Errorf("abandon attempt: %w", err)
	}
	if err := s.counter.Release(ctx, attempt.QuizID, attempt.LearnerID); err != nil {
		log.Printf("release abandoned attempt for quiz=%s learner=%s: %v", attempt.QuizID, attempt.LearnerID, err)
	}

	s.publish(EventAttemptAbandoned, attempt)
	return attempt, nil
}

// TimeRemaining reports whole seconds left before the attempt's deadline,
// zero when the limit is exhausted or the quiz has none.
func (s *AssessmentService) TimeRemaining(ctx context.Context, attemptID string) (int, error) {
	attempt, err := s.attempts.Get(ctx, attemptID)
	if err != nil {
		return 0, err
	}
	if attempt.Status != domain.AttemptInProgress {
		return 0, domain.ErrAttemptNotActive
	}
	deadline, ok := attempt.Deadline()
	if !ok {
		return 0, nil
	}
	remaining := int(deadline.Sub(s.now()).Seconds())
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// GetAttempt returns one attempt by ID.
func (s *AssessmentService) GetAttempt(ctx context.Context, attemptID string) (domain.Attempt, error) {
	return s.attempts.Get(ctx, attemptID)
}

// ListAttempts serves the reporting surface.
func (s *AssessmentService) ListAttempts(ctx context.Context, filter AttemptFilter) ([]domain.Attempt, error) {
	return s.attempts.List(ctx, filter)
}

// Subscribe returns a channel of attempt lifecycle events. The caller must
// invoke the returned cancel function to avoid leaks.
func (s *AssessmentService) Subscribe() (<-chan AttemptEvent, func()) {
	return s.feed.Subscribe()
}

func (s *AssessmentService) publish(typ EventType, attempt domain.Attempt) {
	s.feed.Publish(AttemptEvent{
		Type:         typ,
		AttemptID:    attempt.ID,
		QuizID:       attempt.QuizID,
		LearnerID:    attempt.LearnerID,
		Status:       attempt.Status,
		ScorePercent: attempt.ScorePercent,
		Passed:       attempt.Passed,
		At:           s.now(),
	})
}

// lockAttempt serializes mutations of a single attempt so that concurrent
// manual graders or a double-submit cannot interleave read-modify-write
// cycles.
func (s *AssessmentService) lockAttempt(attemptID string) func() {
	mu, _ := s.locks.LoadOrStore(attemptID, &sync.Mutex{})
	lock := mu.(*sync.Mutex)
	lock.Lock()
	return lock.Unlock
}

func snapshotQuestions(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	copy(out, questions)
	for i := range out {
		if len(out[i].Options) > 0 {
			opts := make([]domain.Option, len(out[i].Options))
			copy(opts, out[i].Options)
			out[i].Options = opts
		}
	}
	return out
}
