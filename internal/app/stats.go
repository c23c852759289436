package app

import (
	"quizzera/internal/domain"
)

// AggregateStats recomputes quiz statistics from the percentages of every
// completed attempt.
func AggregateStats(percentages []int) domain.QuizStats {
	if len(percentages) == 0 {
		return domain.QuizStats{}
	}

	sum := 0
	highest, lowest := percentages[0], percentages[0]
	for _, p := range percentages {
		sum += p
		highest = max(highest, p)
		lowest = min(lowest, p)
	}

	return domain.QuizStats{
		TotalAttempts:  len(percentages),
		TotalCompleted: len(percentages),
		AverageScore:   int(roundHalfUp(float64(sum) / float64(len(percentages)))),
		HighestScore:   highest,
		LowestScore:    lowest,
	}
}
