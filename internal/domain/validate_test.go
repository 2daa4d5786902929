package domain

import "testing"

func boolPtr(v bool) *bool { return &v }
func intPtr(v int) *int    { return &v }

func TestValidateMultipleChoice(t *testing.T) {
	cases := []struct {
		name    string
		options []Option
		want    ErrorKind
	}{
		{"one option all correct", []Option{{Text: "a", IsCorrect: true}}, ""},
		{"exactly one of three", []Option{{Text: "a"}, {Text: "b", IsCorrect: true}, {Text: "c"}}, ""},
		{"no correct option", []Option{{Text: "a"}, {Text: "b"}}, NoCorrectOption},
		{"two of three correct", []Option{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}, {Text: "c"}}, MultipleCorrectOptions},
		{"empty option set", nil, EmptyOptionSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateQuestion(Question{ID: "q", Type: QuestionMultipleChoice, Points: 1, Options: tc.options})
			if tc.want == "" {
				if len(errs) != 0 {
					t.Fatalf("expected valid, got %v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Kind != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, errs)
			}
		})
	}
}

func TestValidateMultipleSelect(t *testing.T) {
	cases := []struct {
		name    string
		options []Option
		want    ErrorKind
	}{
		{"single correct", []Option{{Text: "a", IsCorrect: true}, {Text: "b"}}, ""},
		{"all correct", []Option{{Text: "a", IsCorrect: true}, {Text: "b", IsCorrect: true}}, ""},
		{"zero correct", []Option{{Text: "a"}, {Text: "b"}}, NoCorrectOption},
		{"empty option set", nil, EmptyOptionSet},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			errs := ValidateQuestion(Question{ID: "q", Type: QuestionMultipleSelect, Points: 1, Options: tc.options})
			if tc.want == "" {
				if len(errs) != 0 {
					t.Fatalf("expected valid, got %v", errs)
				}
				return
			}
			if len(errs) != 1 || errs[0].Kind != tc.want {
				t.Fatalf("expected %s, got %v", tc.want, errs)
			}
		})
	}
}

func TestValidateTrueFalse(t *testing.T) {
	if errs := ValidateQuestion(Question{ID: "q", Type: QuestionTrueFalse, Points: 1, CorrectAnswer: boolPtr(false)}); len(errs) != 0 {
		t.Fatalf("explicit false must be valid, got %v", errs)
	}
	errs := ValidateQuestion(Question{ID: "q", Type: QuestionTrueFalse, Points: 1})
	if len(errs) != 1 || errs[0].Kind != MissingCorrectAnswer {
		t.Fatalf("expected MissingCorrectAnswer, got %v", errs)
	}
	errs = ValidateQuestion(Question{ID: "q", Type: QuestionTrueFalse, Points: 1, CorrectAnswer: boolPtr(true), Options: []Option{{Text: "a"}}})
	if len(errs) != 1 || errs[0].Kind != UnexpectedAnswerKey {
		t.Fatalf("options on true/false must be rejected, got %v", errs)
	}
}

func TestValidateShortAnswer(t *testing.T) {
	if errs := ValidateQuestion(Question{ID: "q", Type: QuestionShortAnswer, Points: 2}); len(errs) != 0 {
		t.Fatalf("expected valid, got %v", errs)
	}
	errs := ValidateQuestion(Question{ID: "q", Type: QuestionShortAnswer, Points: 2, Options: []Option{{Text: "a", IsCorrect: true}}})
	if len(errs) != 1 || errs[0].Kind != UnexpectedAnswerKey {
		t.Fatalf("expected UnexpectedAnswerKey for options, got %v", errs)
	}
	errs = ValidateQuestion(Question{ID: "q", Type: QuestionShortAnswer, Points: 2, CorrectAnswer: boolPtr(true)})
	if len(errs) != 1 || errs[0].Kind != UnexpectedAnswerKey {
		t.Fatalf("expected UnexpectedAnswerKey for correctAnswer, got %v", errs)
	}
}

func TestValidateNegativePoints(t *testing.T) {
	errs := ValidateQuestion(Question{ID: "q", Type: QuestionShortAnswer, Points: -1})
	if len(errs) != 1 || errs[0].Kind != NegativePoints {
		t.Fatalf("expected NegativePoints, got %v", errs)
	}
}

func validQuestionSet() []Question {
	return []Question{
		{ID: "q1", Type: QuestionMultipleChoice, Points: 5, Options: []Option{{Text: "a", IsCorrect: true}, {Text: "b"}}},
		{ID: "q2", Type: QuestionTrueFalse, Points: 5, CorrectAnswer: boolPtr(true)},
	}
}

func TestValidateQuizForPublish(t *testing.T) {
	quiz := Quiz{ID: "quiz-1", PassingScorePercent: 60}

	if errs := ValidateQuizForPublish(quiz, validQuestionSet()); len(errs) != 0 {
		t.Fatalf("expected publishable, got %v", errs)
	}

	t.Run("passing score bounds", func(t *testing.T) {
		bad := quiz
		bad.PassingScorePercent = 101
		errs := ValidateQuizForPublish(bad, validQuestionSet())
		if len(errs) != 1 || errs[0].Kind != InvalidPassingScore {
			t.Fatalf("expected InvalidPassingScore, got %v", errs)
		}
	})

	t.Run("non-positive time limit", func(t *testing.T) {
		bad := quiz
		bad.TimeLimitMinutes = intPtr(0)
		errs := ValidateQuizForPublish(bad, validQuestionSet())
		if len(errs) != 1 || errs[0].Kind != InvalidTimeLimit {
			t.Fatalf("expected InvalidTimeLimit, got %v", errs)
		}
	})

	t.Run("non-positive max attempts", func(t *testing.T) {
		bad := quiz
		bad.MaxAttempts = intPtr(-1)
		errs := ValidateQuizForPublish(bad, validQuestionSet())
		if len(errs) != 1 || errs[0].Kind != InvalidMaxAttempts {
			t.Fatalf("expected InvalidMaxAttempts, got %v", errs)
		}
	})

	t.Run("empty question set", func(t *testing.T) {
		errs := ValidateQuizForPublish(quiz, nil)
		if len(errs) != 1 || errs[0].Kind != EmptyQuestionSet {
			t.Fatalf("expected EmptyQuestionSet, got %v", errs)
		}
	})

	t.Run("all zero point questions", func(t *testing.T) {
		questions := []Question{
			{ID: "q1", Type: QuestionShortAnswer, Points: 0},
			{ID: "q2", Type: QuestionShortAnswer, Points: 0},
		}
		errs := ValidateQuizForPublish(quiz, questions)
		if len(errs) != 1 || errs[0].Kind != ZeroPointQuiz {
			t.Fatalf("expected ZeroPointQuiz, got %v", errs)
		}
	})

	t.Run("question errors surface with question id", func(t *testing.T) {
		questions := append(validQuestionSet(), Question{ID: "q3", Type: QuestionMultipleChoice, Points: 1})
		errs := ValidateQuizForPublish(quiz, questions)
		if len(errs) != 1 || errs[0].Kind != EmptyOptionSet || errs[0].QuestionID != "q3" {
			t.Fatalf("expected EmptyOptionSet on q3, got %v", errs)
		}
	})
}
