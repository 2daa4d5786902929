package domain

import "time"

// QuestionType tags the answer-key shape a question carries. The validator
// and the grader both switch exhaustively on it, so adding a type is a
// single-point change in each.
type QuestionType string

const (
	QuestionMultipleChoice QuestionType = "MULTIPLE_CHOICE"
	QuestionMultipleSelect QuestionType = "MULTIPLE_SELECT"
	QuestionTrueFalse      QuestionType = "TRUE_FALSE"
	QuestionShortAnswer    QuestionType = "SHORT_ANSWER"
)

// Option is one selectable answer for a choice question.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question is the tagged union over the four supported types. Options is
// populated only for MULTIPLE_CHOICE/MULTIPLE_SELECT, CorrectAnswer only for
// TRUE_FALSE; SHORT_ANSWER carries no machine-checkable key at all.
type Question struct {
	ID            string       `json:"id"`
	Type          QuestionType `json:"type"`
	Prompt        string       `json:"prompt"`
	Points        float64      `json:"points"`
	Explanation   string       `json:"explanation,omitempty"`
	DisplayOrder  int          `json:"displayOrder"`
	Options       []Option     `json:"options,omitempty"`
	CorrectAnswer *bool        `json:"correctAnswer,omitempty"`
}

// Quiz is the assessment configuration an author edits and publishes.
// A nil TimeLimitMinutes or MaxAttempts means unlimited.
type Quiz struct {
	ID                  string     `json:"id"`
	Title               string     `json:"title"`
	CourseID            string     `json:"courseId,omitempty"`
	TimeLimitMinutes    *int       `json:"timeLimitMinutes,omitempty"`
	PassingScorePercent float64    `json:"passingScorePercent"`
	MaxAttempts         *int       `json:"maxAttempts,omitempty"`
	ShuffleQuestions    bool       `json:"shuffleQuestions"`
	ShuffleAnswers      bool       `json:"shuffleAnswers"`
	ShowResults         bool       `json:"showResults"`
	ShowCorrectAnswers  bool       `json:"showCorrectAnswers"`
	Published           bool       `json:"published"`
	DisplayOrder        int        `json:"displayOrder"`
	Questions           []Question `json:"questions"`
}

// Answer is the union of submitted-answer shapes, keyed off the referenced
// question's type. Indices are canonical option indices; the lifecycle
// translates presentation indices back before anything reaches the grader.
type Answer struct {
	SelectedOption  *int   `json:"selectedOption,omitempty"`
	SelectedOptions []int  `json:"selectedOptions,omitempty"`
	BoolAnswer      *bool  `json:"boolAnswer,omitempty"`
	Text            string `json:"text,omitempty"`
}

// AttemptStatus is the lifecycle state of an attempt.
type AttemptStatus string

const (
	AttemptInProgress    AttemptStatus = "IN_PROGRESS"
	AttemptPendingManual AttemptStatus = "PENDING_MANUAL"
	AttemptGraded        AttemptStatus = "GRADED"
	AttemptAbandoned     AttemptStatus = "ABANDONED"
)

// QuestionGradeStatus tracks how a single question inside an attempt was
// scored.
type QuestionGradeStatus string

const (
	GradeAuto          QuestionGradeStatus = "AUTO_GRADED"
	GradePendingManual QuestionGradeStatus = "PENDING_MANUAL"
	GradeManual        QuestionGradeStatus = "MANUALLY_GRADED"
)

// QuestionResult is the per-question outcome recorded on an attempt.
// Correct stays nil while the question awaits manual grading.
type QuestionResult struct {
	QuestionID string              `json:"questionId"`
	Status     QuestionGradeStatus `json:"status"`
	Correct    *bool               `json:"correct,omitempty"`
	Awarded    float64             `json:"awarded"`
	Possible   float64             `json:"possible"`
	GradedBy   string              `json:"gradedBy,omitempty"`
	GradedAt   *time.Time          `json:"gradedAt,omitempty"`
}

// Attempt is one learner's pass through one quiz. Questions is a snapshot
// taken at start time: edits to the live quiz never move a score that has
// already been computed. QuestionOrder and OptionOrders hold the per-attempt
// presentation permutation (identity when shuffling is off).
type Attempt struct {
	ID            string        `json:"id"`
	QuizID        string        `json:"quizId"`
	LearnerID     string        `json:"learnerId"`
	AttemptNumber int           `json:"attemptNumber"`
	Status        AttemptStatus `json:"status"`

	Questions     []Question        `json:"questions"`
	QuestionOrder []int             `json:"questionOrder"`
	OptionOrders  map[string][]int  `json:"optionOrders,omitempty"`
	Answers       map[string]Answer `json:"answers"`

	StartedAt        time.Time  `json:"startedAt"`
	CompletedAt      *time.Time `json:"completedAt,omitempty"`
	TimeSpentSeconds int        `json:"timeSpentSeconds"`

	TotalPoints  float64                   `json:"totalPoints"`
	MaxPoints    float64                   `json:"maxPoints"`
	ScorePercent float64                   `json:"scorePercent"`
	Passed       bool                      `json:"passed"`
	Results      map[string]QuestionResult `json:"results,omitempty"`

	// Quiz config frozen at start time so grading stays stable under
	// definition drift.
	PassingScorePercent float64 `json:"passingScorePercent"`
	TimeLimitMinutes    *int    `json:"timeLimitMinutes,omitempty"`
	ShowResults         bool    `json:"showResults"`
	ShowCorrectAnswers  bool    `json:"showCorrectAnswers"`
}

// Deadline returns the submission deadline, or false when the attempt has no
// time limit.
func (a *Attempt) Deadline() (time.Time, bool) {
	if a.TimeLimitMinutes == nil {
		return time.Time{}, false
	}
	return a.StartedAt.Add(time.Duration(*a.TimeLimitMinutes) * time.Minute), true
}

// QuestionByID looks a question up in the attempt's own snapshot.
func (a *Attempt) QuestionByID(id string) (Question, bool) {
	for i := range a.Questions {
		if a.Questions[i].ID == id {
			return a.Questions[i], true
		}
	}
	return Question{}, false
}

// OrderedRecord is one entry of a display-ordered scope (quiz questions,
// course quizzes, ...). Only relative order matters; gaps are fine.
type OrderedRecord struct {
	ID           string `json:"id"`
	DisplayOrder int    `json:"displayOrder"`
}

// MoveDirection selects which neighbor a reorder swaps with.
type MoveDirection string

const (
	MoveUp   MoveDirection = "up"
	MoveDown MoveDirection = "down"
)
