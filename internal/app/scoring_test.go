package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzera/internal/domain"
)

func fourQuestionContent(negative, passing float64) domain.QuizContent {
	content := domain.QuizContent{
		Quiz: domain.Quiz{
			ID:                "quiz-1",
			TotalQuestions:    4,
			PointsPerQuestion: 1,
			NegativeMarking:   negative,
			PassingScore:      passing,
		},
	}
	for _, id := range []string{"q1", "q2", "q3", "q4"} {
		content.Questions = append(content.Questions, domain.Question{
			ID:             id,
			Type:           domain.QuestionSingle,
			CorrectAnswers: []string{"right"},
			Points:         1,
			IsActive:       true,
		})
	}
	return content
}

func answer(questionID, value string) domain.Answer {
	return domain.Answer{QuestionID: questionID, SelectedAnswer: domain.SingleAnswer(value)}
}

func TestScoreAttemptTwoCorrectOneWrong(t *testing.T) {
	graded, score := ScoreAttempt(fourQuestionContent(0, 50), []domain.Answer{
		answer("q1", "right"),
		answer("q2", "right"),
		answer("q3", "wrong"),
	})

	assert.Equal(t, domain.Score{
		Correct:     2,
		Wrong:       1,
		Unanswered:  1,
		TotalPoints: 2,
		MaxPoints:   4,
		Percentage:  50,
		Passed:      true,
	}, score)
	require.Len(t, graded, 3)
	assert.True(t, graded[0].IsCorrect)
	assert.Equal(t, 1.0, graded[0].PointsEarned)
	assert.False(t, graded[2].IsCorrect)
	assert.Zero(t, graded[2].PointsEarned)
}

func TestScoreAttemptNegativeMarkingFloorsAtZero(t *testing.T) {
	_, score := ScoreAttempt(fourQuestionContent(1, 50), []domain.Answer{
		answer("q1", "right"),
		answer("q2", "wrong"),
		answer("q3", "wrong"),
		answer("q4", "wrong"),
	})

	assert.Equal(t, 1, score.Correct)
	assert.Equal(t, 3, score.Wrong)
	assert.Zero(t, score.Unanswered)
	assert.Zero(t, score.TotalPoints)
	assert.Zero(t, score.Percentage)
	assert.False(t, score.Passed)
}

func TestScoreAttemptPassBoundary(t *testing.T) {
	answers := []domain.Answer{answer("q1", "right"), answer("q2", "right"), answer("q3", "right")}

	_, atBoundary := ScoreAttempt(fourQuestionContent(0, 75), answers)
	assert.Equal(t, 75, atBoundary.Percentage)
	assert.True(t, atBoundary.Passed)

	_, above := ScoreAttempt(fourQuestionContent(0, 76), answers)
	assert.False(t, above.Passed)
}

func TestScoreAttemptEmptyAndUnknownAnswers(t *testing.T) {
	graded, score := ScoreAttempt(fourQuestionContent(0.5, 50), []domain.Answer{
		{QuestionID: "q1"},
		{QuestionID: "q2", SelectedAnswer: domain.MultiAnswer()},
		answer("ghost", "right"),
	})

	assert.Zero(t, score.Correct)
	assert.Zero(t, score.Wrong)
	assert.Equal(t, 4, score.Unanswered)
	assert.Zero(t, score.TotalPoints)
	for _, a := range graded {
		assert.False(t, a.IsCorrect)
		assert.Zero(t, a.PointsEarned)
	}
}

func TestScoreAttemptPercentageBounds(t *testing.T) {
	content := fourQuestionContent(0, 50)
	// Per-question points above pointsPerQuestion would overflow 100%.
	for i := range content.Questions {
		content.Questions[i].Points = 5
	}
	_, score := ScoreAttempt(content, []domain.Answer{answer("q1", "right")})
	assert.Equal(t, 100, score.Percentage)

	content.Quiz.PointsPerQuestion = 0
	_, score = ScoreAttempt(content, []domain.Answer{answer("q1", "right")})
	assert.Zero(t, score.Percentage)
	assert.Zero(t, score.MaxPoints)
}

func TestScoreAttemptZeroPointsQuestionScoresOne(t *testing.T) {
	content := fourQuestionContent(0, 0)
	content.Questions[0].Points = 0

	graded, score := ScoreAttempt(content, []domain.Answer{answer("q1", "right")})
	assert.Equal(t, 1.0, graded[0].PointsEarned)
	assert.Equal(t, 25, score.Percentage)
}

func TestScoreAttemptRoundsHalfUp(t *testing.T) {
	content := fourQuestionContent(0, 0)
	content.Quiz.TotalQuestions = 8

	// 1/8 = 12.5%
	_, score := ScoreAttempt(content, []domain.Answer{answer("q1", "right")})
	assert.Equal(t, 13, score.Percentage)
}
