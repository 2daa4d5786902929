package domain

import (
	"hash/fnv"
	"math/rand"
)

// Presentation shuffling is deterministic per attempt: the permutation is
// seeded from the attempt's identity, so re-rendering the same in-progress
// attempt always yields the same order while different attempts draw
// different ones. The learner-facing order never affects correctness;
// submitted indices are mapped back to canonical option identity before
// grading.

func shuffleSeed(attemptID, salt string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(attemptID))
	_, _ = h.Write([]byte(salt))
	return int64(h.Sum64())
}

func permutation(attemptID, salt string, n int) []int {
	r := rand.New(rand.NewSource(shuffleSeed(attemptID, salt)))
	return r.Perm(n)
}

func identity(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// ApplyShuffle computes the attempt's presentation permutation over its
// question snapshot. QuestionOrder[i] is the canonical index of the question
// shown at position i; OptionOrders[qid][i] likewise for options of choice
// questions. Must be called once, at attempt start.
func (a *Attempt) ApplyShuffle(shuffleQuestions, shuffleAnswers bool) {
	if shuffleQuestions {
		a.QuestionOrder = permutation(a.ID, "questions", len(a.Questions))
	} else {
		a.QuestionOrder = identity(len(a.Questions))
	}

	if !shuffleAnswers {
		return
	}
	a.OptionOrders = make(map[string][]int)
	for _, q := range a.Questions {
		if len(q.Options) > 0 {
			a.OptionOrders[q.ID] = permutation(a.ID, "options:"+q.ID, len(q.Options))
		}
	}
}

// PresentedQuestions returns the snapshot in presentation order with options
// rearranged per the attempt's permutation and correctness flags stripped,
// ready to hand to a learner-facing client.
func (a *Attempt) PresentedQuestions() []Question {
	out := make([]Question, 0, len(a.Questions))
	for _, idx := range a.QuestionOrder {
		q := a.Questions[idx]
		// Always detach from the snapshot's backing array before stripping
		// correctness flags; the snapshot keeps the answer key.
		opts := make([]Option, len(q.Options))
		if order, ok := a.OptionOrders[q.ID]; ok {
			for pos, canonical := range order {
				opts[pos] = q.Options[canonical]
			}
		} else {
			copy(opts, q.Options)
		}
		q.Options = opts
		for i := range q.Options {
			q.Options[i].IsCorrect = false
		}
		q.Explanation = ""
		out = append(out, q)
	}
	return out
}

// CanonicalizeAnswer translates an answer submitted in presentation
// coordinates back to canonical option indices. Indices outside the option
// range pass through untouched and are scored incorrect by the grader.
func (a *Attempt) CanonicalizeAnswer(questionID string, in Answer) Answer {
	order, ok := a.OptionOrders[questionID]
	if !ok {
		return in
	}
	out := in
	if in.SelectedOption != nil {
		canonical := mapIndex(order, *in.SelectedOption)
		out.SelectedOption = &canonical
	}
	if len(in.SelectedOptions) > 0 {
		mapped := make([]int, len(in.SelectedOptions))
		for i, idx := range in.SelectedOptions {
			mapped[i] = mapIndex(order, idx)
		}
		out.SelectedOptions = mapped
	}
	return out
}

func mapIndex(order []int, presented int) int {
	if presented < 0 || presented >= len(order) {
		return presented
	}
	return order[presented]
}
