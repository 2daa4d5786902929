package domain

import (
	"fmt"
	"math"
	"time"
)

// GradeResult is the outcome of scoring one attempt.
type GradeResult struct {
	TotalPoints  float64                   `json:"totalPoints"`
	MaxPoints    float64                   `json:"maxPoints"`
	ScorePercent float64                   `json:"scorePercent"`
	Passed       bool                      `json:"passed"`
	PendingCount int                       `json:"pendingCount"`
	Results      map[string]QuestionResult `json:"results"`
}

// Grade scores a completed attempt from its question snapshot and the
// submitted answers (already in canonical option coordinates). It is a pure
// function: the same inputs always produce the same result.
//
// Questions that should have been rejected at authoring time but reach the
// grader malformed are an integrity fault, not a wrong answer: grading
// aborts with ErrCorruptAttempt rather than silently scoring zero. The same
// holds for answers that reference no question in the snapshot.
func Grade(questions []Question, answers map[string]Answer, passingScorePercent float64) (GradeResult, error) {
	byID := make(map[string]Question, len(questions))
	for _, q := range questions {
		if verrs := ValidateQuestion(q); len(verrs) > 0 {
			return GradeResult{}, fmt.Errorf("%w: question %s failed shape check: %v", ErrCorruptAttempt, q.ID, verrs[0])
		}
		byID[q.ID] = q
	}
	for qid := range answers {
		if _, ok := byID[qid]; !ok {
			return GradeResult{}, fmt.Errorf("%w: answer references unknown question %s", ErrCorruptAttempt, qid)
		}
	}

	results := make(map[string]QuestionResult, len(questions))
	for _, q := range questions {
		answer, answered := answers[q.ID]
		results[q.ID] = gradeQuestion(q, answer, answered)
	}

	return summarize(results, passingScorePercent), nil
}

func gradeQuestion(q Question, answer Answer, answered bool) QuestionResult {
	result := QuestionResult{QuestionID: q.ID, Status: GradeAuto, Possible: q.Points}

	if q.Type == QuestionShortAnswer {
		// Never auto-scored; contributes zero until a human assigns points.
		result.Status = GradePendingManual
		return result
	}

	correct := false
	if answered {
		switch q.Type {
		case QuestionMultipleChoice:
			correct = answer.SelectedOption != nil && isCorrectSingle(q.Options, *answer.SelectedOption)
		case QuestionMultipleSelect:
			correct = isCorrectExactSet(q.Options, answer.SelectedOptions)
		case QuestionTrueFalse:
			correct = answer.BoolAnswer != nil && q.CorrectAnswer != nil && *answer.BoolAnswer == *q.CorrectAnswer
		}
	}

	result.Correct = &correct
	if correct {
		result.Awarded = q.Points
	}
	return result
}

func isCorrectSingle(options []Option, selected int) bool {
	if selected < 0 || selected >= len(options) {
		return false
	}
	return options[selected].IsCorrect
}

// isCorrectExactSet applies the all-or-nothing rule: the submitted set must
// equal the correct set exactly. Duplicates in the submission collapse, so a
// padded submission cannot sneak past the size check.
func isCorrectExactSet(options []Option, selected []int) bool {
	correct := make(map[int]struct{})
	for i, opt := range options {
		if opt.IsCorrect {
			correct[i] = struct{}{}
		}
	}

	chosen := make(map[int]struct{}, len(selected))
	for _, idx := range selected {
		if idx < 0 || idx >= len(options) {
			return false
		}
		chosen[idx] = struct{}{}
	}
	if len(chosen) != len(correct) {
		return false
	}
	for idx := range correct {
		if _, ok := chosen[idx]; !ok {
			return false
		}
	}
	return true
}

// ApplyManualGrade records a human-assigned score for one short-answer
// question and recomputes the attempt's totals. Re-applying the same score
// is idempotent; the PENDING_MANUAL -> GRADED transition fires once, when
// the last pending question is scored.
func (a *Attempt) ApplyManualGrade(questionID string, points float64, gradedBy string, now time.Time) error {
	if a.Status != AttemptPendingManual {
		return ErrAttemptNotPendingManual
	}
	q, ok := a.QuestionByID(questionID)
	if !ok {
		return fmt.Errorf("%w: manual grade for unknown question %s", ErrCorruptAttempt, questionID)
	}
	result, ok := a.Results[questionID]
	if !ok || q.Type != QuestionShortAnswer {
		return fmt.Errorf("%w: question %s is not manually gradable", ErrCorruptAttempt, questionID)
	}
	if points < 0 || points > q.Points {
		return ErrManualPointsOutOfRange
	}

	correct := points >= q.Points && q.Points > 0
	result.Status = GradeManual
	result.Awarded = points
	result.Correct = &correct
	result.GradedBy = gradedBy
	result.GradedAt = &now
	a.Results[questionID] = result

	summary := summarize(a.Results, a.PassingScorePercent)
	a.TotalPoints = summary.TotalPoints
	a.MaxPoints = summary.MaxPoints
	a.ScorePercent = summary.ScorePercent
	a.Passed = summary.Passed
	if summary.PendingCount == 0 {
		a.Status = AttemptGraded
	}
	return nil
}

// summarize folds per-question results into attempt totals. MaxPoints always
// includes not-yet-graded short answers, so the percent shown while pending
// is a conservative lower bound.
func summarize(results map[string]QuestionResult, passingScorePercent float64) GradeResult {
	summary := GradeResult{Results: results}
	for _, r := range results {
		summary.TotalPoints += r.Awarded
		summary.MaxPoints += r.Possible
		if r.Status == GradePendingManual {
			summary.PendingCount++
		}
	}
	if summary.MaxPoints > 0 {
		summary.ScorePercent = round1(summary.TotalPoints / summary.MaxPoints * 100)
	}
	summary.Passed = summary.PendingCount == 0 && summary.ScorePercent >= passingScorePercent
	return summary
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
