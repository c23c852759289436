package app

import (
	"slices"
	"strings"

	"quizzera/internal/domain"
)

// CheckAnswer decides whether answer is correct for question. Mismatched
// shapes, unknown types and missing answers are simply wrong.
func CheckAnswer(question domain.Question, answer domain.SelectedAnswer) bool {
	switch question.Type {
	case domain.QuestionSingle, domain.QuestionTrueFalse:
		value, ok := answer.Single()
		if !ok {
			return false
		}
		return slices.Contains(question.CorrectAnswers, value)

	case domain.QuestionMultiple:
		values, ok := answer.Multi()
		if !ok || len(values) != len(question.CorrectAnswers) {
			return false
		}
		want := slices.Clone(question.CorrectAnswers)
		slices.Sort(values)
		slices.Sort(want)
		return slices.Equal(values, want)

	case domain.QuestionFillBlank:
		value, ok := answer.Single()
		if !ok {
			return false
		}
		got := strings.TrimSpace(value)
		if got == "" {
			return false
		}
		for _, correct := range question.CorrectAnswers {
			if strings.EqualFold(strings.TrimSpace(correct), got) {
				return true
			}
		}
	}
	return false
}
