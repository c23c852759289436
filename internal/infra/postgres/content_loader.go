package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// ContentLoader loads a quiz and its active questions from Postgres. It is
// the read path behind the content cache and stays on pgx.
type ContentLoader struct {
	pool *pgxpool.Pool
}

var _ app.ContentLoader = (*ContentLoader)(nil)

func NewContentLoader(pool *pgxpool.Pool) *ContentLoader {
	return &ContentLoader{pool: pool}
}

const selectQuizSQL = `
SELECT id, title, slug, description, category, difficulty, duration, total_questions,
       points_per_question, negative_marking, passing_score, status, instructions,
       start_date, end_date, stats_total_attempts, stats_total_completed,
       stats_average_score, stats_highest_score, stats_lowest_score,
       created_by, created_at, updated_at
FROM quizzes WHERE id = $1`

const selectQuestionsSQL = `
SELECT id, quiz_id, text, type, options, correct_answers, explanation, difficulty,
       points, sort_order, is_active, created_by, created_at, updated_at
FROM questions
WHERE quiz_id = $1 AND is_active
ORDER BY sort_order, created_at`

func (l *ContentLoader) LoadContent(ctx context.Context, quizID string) (domain.QuizContent, error) {
	quiz, err := l.loadQuiz(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	questions, err := l.loadQuestions(ctx, quizID)
	if err != nil {
		return domain.QuizContent{}, err
	}
	return domain.QuizContent{Quiz: quiz, Questions: questions}, nil
}

func (l *ContentLoader) loadQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var (
		q            domain.Quiz
		difficulty   string
		status       string
		instructions []byte
	)
	err := l.pool.QueryRow(ctx, selectQuizSQL, quizID).Scan(
		&q.ID, &q.Title, &q.Slug, &q.Description, &q.Category, &difficulty, &q.Duration,
		&q.TotalQuestions, &q.PointsPerQuestion, &q.NegativeMarking, &q.PassingScore, &status,
		&instructions, &q.StartDate, &q.EndDate, &q.Stats.TotalAttempts, &q.Stats.TotalCompleted,
		&q.Stats.AverageScore, &q.Stats.HighestScore, &q.Stats.LowestScore,
		&q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("load quiz: %w", err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	q.Status = domain.QuizStatus(status)
	if len(instructions) > 0 {
		if err := json.Unmarshal(instructions, &q.Instructions); err != nil {
			return domain.Quiz{}, fmt.Errorf("unmarshal quiz instructions: %w", err)
		}
	}
	return q, nil
}

func (l *ContentLoader) loadQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	rows, err := l.pool.Query(ctx, selectQuestionsSQL, quizID)
	if err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	defer rows.Close()

	questions := make([]domain.Question, 0)
	for rows.Next() {
		var (
			q              domain.Question
			qType          string
			difficulty     string
			options        []byte
			correctAnswers []byte
		)
		if err := rows.Scan(
			&q.ID, &q.QuizID, &q.Text, &qType, &options, &correctAnswers, &q.Explanation,
			&difficulty, &q.Points, &q.Order, &q.IsActive, &q.CreatedBy, &q.CreatedAt, &q.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		q.Type = domain.QuestionType(qType)
		q.Difficulty = domain.Difficulty(difficulty)
		if err := json.Unmarshal(options, &q.Options); err != nil {
			return nil, fmt.Errorf("unmarshal question options: %w", err)
		}
		if err := json.Unmarshal(correctAnswers, &q.CorrectAnswers); err != nil {
			return nil, fmt.Errorf("unmarshal correct answers: %w", err)
		}
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("load questions: %w", err)
	}
	return questions, nil
}
