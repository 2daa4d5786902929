package domain

import (
	"reflect"
	"testing"
)

func shuffledAttempt(id string) *Attempt {
	return &Attempt{
		ID: id,
		Questions: []Question{
			{ID: "q1", Type: QuestionMultipleChoice, Points: 5, Options: []Option{{Text: "a"}, {Text: "b", IsCorrect: true}, {Text: "c"}, {Text: "d"}}},
			{ID: "q2", Type: QuestionTrueFalse, Points: 5, CorrectAnswer: boolPtr(true)},
			{ID: "q3", Type: QuestionMultipleSelect, Points: 5, Options: []Option{{Text: "a", IsCorrect: true}, {Text: "b"}, {Text: "c", IsCorrect: true}}},
		},
		Answers: make(map[string]Answer),
	}
}

func TestShuffleDeterministicPerAttempt(t *testing.T) {
	first := shuffledAttempt("attempt-1")
	first.ApplyShuffle(true, true)
	second := shuffledAttempt("attempt-1")
	second.ApplyShuffle(true, true)

	if !reflect.DeepEqual(first.QuestionOrder, second.QuestionOrder) {
		t.Fatalf("same attempt must render the same question order: %v vs %v", first.QuestionOrder, second.QuestionOrder)
	}
	if !reflect.DeepEqual(first.OptionOrders, second.OptionOrders) {
		t.Fatalf("same attempt must render the same option orders")
	}
}

func TestShuffleDiffersAcrossAttempts(t *testing.T) {
	// A permutation collision for one attempt pair is possible; across
	// several IDs at least one must differ or the seed is not being used.
	base := shuffledAttempt("attempt-1")
	base.ApplyShuffle(true, true)
	differs := false
	for _, id := range []string{"attempt-2", "attempt-3", "attempt-4", "attempt-5"} {
		other := shuffledAttempt(id)
		other.ApplyShuffle(true, true)
		if !reflect.DeepEqual(base.QuestionOrder, other.QuestionOrder) || !reflect.DeepEqual(base.OptionOrders, other.OptionOrders) {
			differs = true
			break
		}
	}
	if !differs {
		t.Fatalf("shuffle ignored the attempt identity")
	}
}

func TestShuffleOffIsIdentity(t *testing.T) {
	attempt := shuffledAttempt("attempt-1")
	attempt.ApplyShuffle(false, false)
	if !reflect.DeepEqual(attempt.QuestionOrder, []int{0, 1, 2}) {
		t.Fatalf("expected identity order, got %v", attempt.QuestionOrder)
	}
	if attempt.OptionOrders != nil {
		t.Fatalf("expected no option orders, got %v", attempt.OptionOrders)
	}
}

func TestPresentedQuestionsStripAnswerKeys(t *testing.T) {
	attempt := shuffledAttempt("attempt-1")
	attempt.Questions[0].Explanation = "because"
	attempt.ApplyShuffle(true, true)

	presented := attempt.PresentedQuestions()
	if len(presented) != len(attempt.Questions) {
		t.Fatalf("expected %d questions, got %d", len(attempt.Questions), len(presented))
	}
	for _, q := range presented {
		if q.Explanation != "" {
			t.Fatalf("explanation leaked to learner view")
		}
		for _, opt := range q.Options {
			if opt.IsCorrect {
				t.Fatalf("answer key leaked to learner view")
			}
		}
	}
}

func TestPresentedQuestionsLeaveSnapshotIntact(t *testing.T) {
	// The no-option-shuffle path must detach from the snapshot's backing
	// array too; stripping keys on an aliased slice would destroy the
	// attempt's own answer key and abort grading later.
	for _, shuffleQuestions := range []bool{false, true} {
		attempt := shuffledAttempt("attempt-1")
		attempt.ApplyShuffle(shuffleQuestions, false)

		_ = attempt.PresentedQuestions()

		if !attempt.Questions[0].Options[1].IsCorrect {
			t.Fatalf("shuffleQuestions=%v: snapshot answer key destroyed", shuffleQuestions)
		}
		idx := 1
		attempt.Answers["q1"] = Answer{SelectedOption: &idx}
		result, err := Grade(attempt.Questions, attempt.Answers, 0)
		if err != nil {
			t.Fatalf("shuffleQuestions=%v: grade after render: %v", shuffleQuestions, err)
		}
		if result.Results["q1"].Awarded != 5 {
			t.Fatalf("shuffleQuestions=%v: expected full points, got %+v", shuffleQuestions, result.Results["q1"])
		}
	}
}

func TestCanonicalizeAnswerMapsBackToCorrectOption(t *testing.T) {
	attempt := shuffledAttempt("attempt-1")
	attempt.ApplyShuffle(false, true)

	// Find where the canonical correct option (index 1 of q1) is presented.
	order := attempt.OptionOrders["q1"]
	presentedPos := -1
	for pos, canonical := range order {
		if canonical == 1 {
			presentedPos = pos
			break
		}
	}
	if presentedPos < 0 {
		t.Fatalf("correct option missing from permutation %v", order)
	}

	answer := attempt.CanonicalizeAnswer("q1", Answer{SelectedOption: &presentedPos})
	attempt.Answers["q1"] = answer

	result, err := Grade(attempt.Questions, attempt.Answers, 0)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if got := result.Results["q1"]; got.Awarded != 5 {
		t.Fatalf("shuffled selection of the correct option must score full points, got %+v", got)
	}
}

func TestCanonicalizeAnswerSetMapping(t *testing.T) {
	attempt := shuffledAttempt("attempt-1")
	attempt.ApplyShuffle(false, true)

	order := attempt.OptionOrders["q3"]
	var presented []int
	for pos, canonical := range order {
		if canonical == 0 || canonical == 2 {
			presented = append(presented, pos)
		}
	}

	answer := attempt.CanonicalizeAnswer("q3", Answer{SelectedOptions: presented})
	result, err := Grade(attempt.Questions, map[string]Answer{"q3": answer}, 0)
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if got := result.Results["q3"]; got.Awarded != 5 {
		t.Fatalf("shuffled exact-set selection must score full points, got %+v", got)
	}
}

func TestCanonicalizeAnswerNoShufflePassthrough(t *testing.T) {
	attempt := shuffledAttempt("attempt-1")
	attempt.ApplyShuffle(false, false)
	idx := 1
	answer := attempt.CanonicalizeAnswer("q1", Answer{SelectedOption: &idx})
	if *answer.SelectedOption != 1 {
		t.Fatalf("expected passthrough, got %d", *answer.SelectedOption)
	}
}
