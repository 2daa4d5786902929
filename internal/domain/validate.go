package domain

// ValidateQuestion checks a question definition against its declared type's
// invariants. It is a pure gate: invoked before a question is persisted and
// again, defensively, before grading. A nil return means the question is
// well-formed.
func ValidateQuestion(q Question) []ValidationError {
	var errs []ValidationError

	if q.Points < 0 {
		errs = append(errs, ValidationError{Kind: NegativePoints, Field: "points", QuestionID: q.ID})
	}

	switch q.Type {
	case QuestionMultipleChoice:
		if len(q.Options) == 0 {
			errs = append(errs, ValidationError{Kind: EmptyOptionSet, Field: "options", QuestionID: q.ID})
			break
		}
		switch n := countCorrect(q.Options); {
		case n == 0:
			errs = append(errs, ValidationError{Kind: NoCorrectOption, Field: "options", QuestionID: q.ID})
		case n > 1:
			errs = append(errs, ValidationError{Kind: MultipleCorrectOptions, Field: "options", QuestionID: q.ID})
		}
		if q.CorrectAnswer != nil {
			errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "correctAnswer", QuestionID: q.ID})
		}
	case QuestionMultipleSelect:
		if len(q.Options) == 0 {
			errs = append(errs, ValidationError{Kind: EmptyOptionSet, Field: "options", QuestionID: q.ID})
			break
		}
		if countCorrect(q.Options) == 0 {
			errs = append(errs, ValidationError{Kind: NoCorrectOption, Field: "options", QuestionID: q.ID})
		}
		if q.CorrectAnswer != nil {
			errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "correctAnswer", QuestionID: q.ID})
		}
	case QuestionTrueFalse:
		if q.CorrectAnswer == nil {
			errs = append(errs, ValidationError{Kind: MissingCorrectAnswer, Field: "correctAnswer", QuestionID: q.ID})
		}
		if len(q.Options) > 0 {
			errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "options", QuestionID: q.ID})
		}
	case QuestionShortAnswer:
		// Always manually graded; any machine key is a shape violation.
		if len(q.Options) > 0 {
			errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "options", QuestionID: q.ID})
		}
		if q.CorrectAnswer != nil {
			errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "correctAnswer", QuestionID: q.ID})
		}
	default:
		errs = append(errs, ValidationError{Kind: UnexpectedAnswerKey, Field: "type", QuestionID: q.ID})
	}

	return errs
}

// ValidateQuizForPublish enforces publish-readiness. Drafts may be saved in
// any state; only the publish transition runs this gate.
func ValidateQuizForPublish(quiz Quiz, questions []Question) []ValidationError {
	var errs []ValidationError

	if quiz.PassingScorePercent < 0 || quiz.PassingScorePercent > 100 {
		errs = append(errs, ValidationError{Kind: InvalidPassingScore, Field: "passingScorePercent"})
	}
	if quiz.TimeLimitMinutes != nil && *quiz.TimeLimitMinutes <= 0 {
		errs = append(errs, ValidationError{Kind: InvalidTimeLimit, Field: "timeLimitMinutes"})
	}
	if quiz.MaxAttempts != nil && *quiz.MaxAttempts <= 0 {
		errs = append(errs, ValidationError{Kind: InvalidMaxAttempts, Field: "maxAttempts"})
	}

	if len(questions) == 0 {
		errs = append(errs, ValidationError{Kind: EmptyQuestionSet, Field: "questions"})
		return errs
	}

	total := 0.0
	for _, q := range questions {
		errs = append(errs, ValidateQuestion(q)...)
		total += q.Points
	}
	// An all-zero-point quiz can never produce a meaningful score.
	if total <= 0 {
		errs = append(errs, ValidationError{Kind: ZeroPointQuiz, Field: "questions"})
	}

	return errs
}

func countCorrect(options []Option) int {
	n := 0
	for _, opt := range options {
		if opt.IsCorrect {
			n++
		}
	}
	return n
}
