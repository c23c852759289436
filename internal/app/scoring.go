package app

import (
	"math"

	"quizzera/internal/domain"
)

// ScoreAttempt grades every answer against the quiz content and computes the
// score snapshot. The returned slice is a copy; answers is left untouched.
//
// Answers referring to questions that are not part of the content earn nothing
// and are not tallied. Unanswered counts every question of the quiz that is
// neither correct nor wrong, so it never double counts.
func ScoreAttempt(content domain.QuizContent, answers []domain.Answer) ([]domain.Answer, domain.Score) {
	questions := content.QuestionByID()
	graded := make([]domain.Answer, len(answers))

	var (
		correct, wrong int
		earned         float64
	)
	for i, answer := range answers {
		answer.IsCorrect = false
		answer.PointsEarned = 0

		question, ok := questions[answer.QuestionID]
		if ok && !answer.SelectedAnswer.IsEmpty() {
			if CheckAnswer(question, answer.SelectedAnswer) {
				answer.IsCorrect = true
				answer.PointsEarned = question.EffectivePoints()
				correct++
				earned += answer.PointsEarned
			} else {
				wrong++
			}
		}
		graded[i] = answer
	}

	quiz := content.Quiz
	if quiz.NegativeMarking > 0 {
		earned -= quiz.NegativeMarking * float64(wrong)
	}
	totalPoints := math.Max(0, earned)

	maxPoints := float64(quiz.TotalQuestions) * quiz.PointsPerQuestion
	percentage := 0
	if maxPoints > 0 {
		percentage = int(roundHalfUp(totalPoints / maxPoints * 100))
	}
	percentage = min(max(percentage, 0), 100)

	return graded, domain.Score{
		Correct:     correct,
		Wrong:       wrong,
		Unanswered:  max(quiz.TotalQuestions-correct-wrong, 0),
		TotalPoints: totalPoints,
		MaxPoints:   maxPoints,
		Percentage:  percentage,
		Passed:      float64(percentage) >= quiz.PassingScore,
	}
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
