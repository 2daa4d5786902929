package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQuizNotFound indicates the quiz definition could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuizNotPublished rejects attempt starts against draft quizzes.
	ErrQuizNotPublished = errors.New("quiz not published")
	// ErrAttemptNotFound is returned when an attempt ID is unknown.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrAttemptLimitExceeded rejects a start once the learner has used up
	// the quiz's attempt allowance.
	ErrAttemptLimitExceeded = errors.New("attempt limit exceeded")
	// ErrAttemptNotActive is returned when an operation needs an
	// in-progress attempt but it has already been finalized or abandoned.
	ErrAttemptNotActive = errors.New("attempt not in progress")
	// ErrAttemptNotPendingManual guards the manual-grading path.
	ErrAttemptNotPendingManual = errors.New("attempt has no pending manual questions")
	// ErrManualPointsOutOfRange rejects a manual score outside
	// [0, question.Points].
	ErrManualPointsOutOfRange = errors.New("manual points out of range")
	// ErrRecordNotFound is returned by the ordering store for an unknown
	// record or scope.
	ErrRecordNotFound = errors.New("record not found in scope")
	// ErrVersionConflict signals a lost reorder race; callers retry against
	// a fresh snapshot.
	ErrVersionConflict = errors.New("scope version conflict")

	// ErrCorruptAttempt marks integrity faults: an answer referencing a
	// question missing from the attempt's own snapshot, or a question whose
	// type tag and payload disagree at grading time. Never swallowed,
	// never scored as incorrect.
	ErrCorruptAttempt = errors.New("attempt data integrity fault")
)

// ErrorKind identifies a definition-validation failure in a form the
// surrounding layer can map onto field-level feedback.
type ErrorKind string

const (
	NoCorrectOption        ErrorKind = "NoCorrectOption"
	MultipleCorrectOptions ErrorKind = "MultipleCorrectOptions"
	EmptyOptionSet         ErrorKind = "EmptyOptionSet"
	MissingCorrectAnswer   ErrorKind = "MissingCorrectAnswer"
	UnexpectedAnswerKey    ErrorKind = "UnexpectedAnswerKey"
	InvalidPassingScore    ErrorKind = "InvalidPassingScore"
	InvalidTimeLimit       ErrorKind = "InvalidTimeLimit"
	InvalidMaxAttempts     ErrorKind = "InvalidMaxAttempts"
	EmptyQuestionSet       ErrorKind = "EmptyQuestionSet"
	ZeroPointQuiz          ErrorKind = "ZeroPointQuiz"
	NegativePoints         ErrorKind = "NegativePoints"
)

// ValidationError is one caller-fixable definition problem. QuestionID is
// empty for quiz-level errors.
type ValidationError struct {
	Kind       ErrorKind `json:"kind"`
	Field      string    `json:"field"`
	QuestionID string    `json:"questionId,omitempty"`
}

func (e ValidationError) Error() string {
	if e.QuestionID != "" {
		return fmt.Sprintf("%s: question %s field %s", e.Kind, e.QuestionID, e.Field)
	}
	return fmt.Sprintf("%s: field %s", e.Kind, e.Field)
}
