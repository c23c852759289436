package app

import (
	"context"

	"quizzera/internal/domain"
)

// QuizStore persists quizzes. Update methods touch only the fields they name
// so concurrent flows (authoring, question sync, stats) never clobber each other.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	UpdateQuizConfig(ctx context.Context, quiz domain.Quiz) error
	SetQuizStatus(ctx context.Context, quizID string, status domain.QuizStatus) error
	SetTotalQuestions(ctx context.Context, quizID string, total int) error
	UpdateStats(ctx context.Context, quizID string, stats domain.QuizStats) error
	// DeleteQuiz removes the quiz and every question it owns.
	DeleteQuiz(ctx context.Context, quizID string) error
}

// QuestionStore persists questions.
type QuestionStore interface {
	CreateQuestions(ctx context.Context, questions ...domain.Question) error
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
	UpdateQuestion(ctx context.Context, question domain.Question) error
	// DeleteQuestion removes the question and shifts later questions up by one.
	DeleteQuestion(ctx context.Context, questionID string) (domain.Question, error)
	// ListQuestions returns the active questions of a quiz ordered by Order.
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)
	// CountQuestions counts every question of the quiz, active or not.
	CountQuestions(ctx context.Context, quizID string) (int, error)
}

// AttemptStore persists attempts.
type AttemptStore interface {
	// CreateAttempt returns domain.ErrAttemptInProgress when the user already
	// has an in-progress attempt for the quiz.
	CreateAttempt(ctx context.Context, attempt domain.Attempt) error
	FindInProgress(ctx context.Context, userID, quizID string) (domain.Attempt, error)
	GetAttempt(ctx context.Context, attemptID, userID string) (domain.Attempt, error)
	// SaveAnswers upserts answers by question id on an in-progress attempt
	// owned by userID.
	SaveAnswers(ctx context.Context, attemptID, userID string, answers ...domain.Answer) error
	// CompleteAttempt writes the final state only if the attempt is still in progress.
	CompleteAttempt(ctx context.Context, attempt domain.Attempt) error
	CompletedPercentages(ctx context.Context, quizID string) ([]int, error)
	CountAttempts(ctx context.Context, quizID string) (int, error)
	ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error)
	CountUserAttempts(ctx context.Context, filter domain.AttemptFilter) (int, error)
	// TopCompleted orders by percentage desc, then time taken asc.
	TopCompleted(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error)
}

// ContentLoader fetches a quiz with its active questions from the backing store.
type ContentLoader interface {
	LoadContent(ctx context.Context, quizID string) (domain.QuizContent, error)
}

// ContentRepository serves quiz content from a cache in front of a ContentLoader.
type ContentRepository interface {
	GetContent(ctx context.Context, quizID string) (domain.QuizContent, error)
	Invalidate(ctx context.Context, quizID string) error
}

// Locker serializes work on a key across goroutines (or instances).
type Locker interface {
	Acquire(ctx context.Context, key string) (release func(), err error)
}

func startLockKey(userID, quizID string) string {
	return "attempt:start:" + userID + ":" + quizID
}

func statsLockKey(quizID string) string {
	return "quiz:stats:" + quizID
}
