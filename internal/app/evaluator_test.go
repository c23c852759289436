package app

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"quizzera/internal/domain"
)

func TestCheckAnswer(t *testing.T) {
	single := domain.Question{Type: domain.QuestionSingle, CorrectAnswers: []string{"b"}}
	trueFalse := domain.Question{Type: domain.QuestionTrueFalse, CorrectAnswers: []string{"true"}}
	multiple := domain.Question{Type: domain.QuestionMultiple, CorrectAnswers: []string{"a", "c"}}
	fill := domain.Question{Type: domain.QuestionFillBlank, CorrectAnswers: []string{"Paris", " Lutetia "}}

	tests := []struct {
		name     string
		question domain.Question
		answer   domain.SelectedAnswer
		want     bool
	}{
		{"single correct", single, domain.SingleAnswer("b"), true},
		{"single wrong", single, domain.SingleAnswer("a"), false},
		{"single given a list", single, domain.MultiAnswer("b"), false},
		{"single empty", single, domain.SelectedAnswer{}, false},
		{"true false correct", trueFalse, domain.SingleAnswer("true"), true},
		{"true false wrong", trueFalse, domain.SingleAnswer("false"), false},
		{"multiple exact", multiple, domain.MultiAnswer("a", "c"), true},
		{"multiple reordered", multiple, domain.MultiAnswer("c", "a"), true},
		{"multiple subset", multiple, domain.MultiAnswer("a"), false},
		{"multiple superset", multiple, domain.MultiAnswer("a", "b", "c"), false},
		{"multiple wrong member", multiple, domain.MultiAnswer("a", "b"), false},
		{"multiple given a string", multiple, domain.SingleAnswer("a"), false},
		{"fill exact", fill, domain.SingleAnswer("Paris"), true},
		{"fill case and spaces", fill, domain.SingleAnswer("  pARIS "), true},
		{"fill alternative with padded key", fill, domain.SingleAnswer("lutetia"), true},
		{"fill wrong", fill, domain.SingleAnswer("Lyon"), false},
		{"fill blank", fill, domain.SingleAnswer("   "), false},
		{"unknown type", domain.Question{Type: "essay", CorrectAnswers: []string{"x"}}, domain.SingleAnswer("x"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CheckAnswer(tt.question, tt.answer))
		})
	}
}

func TestCheckAnswerDoesNotMutateCorrectAnswers(t *testing.T) {
	q := domain.Question{Type: domain.QuestionMultiple, CorrectAnswers: []string{"c", "a"}}
	answer := domain.MultiAnswer("c", "a")

	assert.True(t, CheckAnswer(q, answer))
	assert.Equal(t, []string{"c", "a"}, q.CorrectAnswers)
	values, _ := answer.Multi()
	assert.Equal(t, []string{"c", "a"}, values)
}
