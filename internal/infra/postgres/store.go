package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// uniqueViolation is the SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// Store persists quizzes, questions and attempts with bun.
type Store struct {
	db    *bun.DB
	clock func() time.Time
}

var (
	_ app.QuizStore     = (*Store)(nil)
	_ app.QuestionStore = (*Store)(nil)
	_ app.AttemptStore  = (*Store)(nil)
)

// Open returns a bun handle over pgdriver. It does not dial until first use.
func Open(dsn string) *bun.DB {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
	return bun.NewDB(sqldb, pgdialect.New())
}

func NewStore(db *bun.DB) *Store {
	return &Store{db: db, clock: time.Now}
}

func (s *Store) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	row := toQuizRow(quiz)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *Store) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", quizID).Scan(ctx)
	if err != nil {
		return domain.Quiz{}, notFound(err, domain.ErrQuizNotFound, "select quiz")
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateQuizConfig(ctx context.Context, quiz domain.Quiz) error {
	row := toQuizRow(quiz)
	res, err := s.db.NewUpdate().
		Model(&row).
		Column("title", "slug", "description", "category", "difficulty", "duration",
			"points_per_question", "negative_marking", "passing_score", "instructions",
			"start_date", "end_date", "updated_at").
		WherePK().
		Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound, "update quiz")
}

func (s *Store) SetQuizStatus(ctx context.Context, quizID string, status domain.QuizStatus) error {
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("status = ?", string(status)).
		Set("updated_at = ?", s.clock()).
		Where("id = ?", quizID).
		Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound, "update quiz status")
}

func (s *Store) SetTotalQuestions(ctx context.Context, quizID string, total int) error {
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("total_questions = ?", total).
		Set("updated_at = ?", s.clock()).
		Where("id = ?", quizID).
		Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound, "update question count")
}

func (s *Store) UpdateStats(ctx context.Context, quizID string, stats domain.QuizStats) error {
	res, err := s.db.NewUpdate().
		Model((*quizRow)(nil)).
		Set("stats_total_attempts = ?", stats.TotalAttempts).
		Set("stats_total_completed = ?", stats.TotalCompleted).
		Set("stats_average_score = ?", stats.AverageScore).
		Set("stats_highest_score = ?", stats.HighestScore).
		Set("stats_lowest_score = ?", stats.LowestScore).
		Where("id = ?", quizID).
		Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound, "update quiz stats")
}

// DeleteQuiz relies on the questions foreign key cascading.
func (s *Store) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().
		Model((*quizRow)(nil)).
		Where("id = ?", quizID).
		Exec(ctx)
	return affected(res, err, domain.ErrQuizNotFound, "delete quiz")
}

func (s *Store) CreateQuestions(ctx context.Context, questions ...domain.Question) error {
	if len(questions) == 0 {
		return nil
	}
	rows := make([]questionRow, 0, len(questions))
	for _, q := range questions {
		rows = append(rows, toQuestionRow(q))
	}
	if _, err := s.db.NewInsert().Model(&rows).Exec(ctx); err != nil {
		return fmt.Errorf("insert questions: %w", err)
	}
	return nil
}

func (s *Store) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var row questionRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", questionID).Scan(ctx)
	if err != nil {
		return domain.Question{}, notFound(err, domain.ErrQuestionNotFound, "select question")
	}
	return row.toDomain(), nil
}

func (s *Store) UpdateQuestion(ctx context.Context, question domain.Question) error {
	row := toQuestionRow(question)
	res, err := s.db.NewUpdate().
		Model(&row).
		ExcludeColumn("quiz_id", "created_by", "created_at").
		WherePK().
		Exec(ctx)
	return affected(res, err, domain.ErrQuestionNotFound, "update question")
}

func (s *Store) DeleteQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	var deleted questionRow
	err := s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		err := tx.NewSelect().Model(&deleted).Where("id = ?", questionID).For("UPDATE").Scan(ctx)
		if err != nil {
			return notFound(err, domain.ErrQuestionNotFound, "select question")
		}
		if _, err := tx.NewDelete().Model((*questionRow)(nil)).Where("id = ?", questionID).Exec(ctx); err != nil {
			return fmt.Errorf("delete question: %w", err)
		}
		_, err = tx.NewUpdate().
			Model((*questionRow)(nil)).
			Set("sort_order = sort_order - 1").
			Where("quiz_id = ?", deleted.QuizID).
			Where("sort_order > ?", deleted.Order).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("shift question order: %w", err)
		}
		return nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return deleted.toDomain(), nil
}

func (s *Store) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	var rows []questionRow
	err := s.db.NewSelect().
		Model(&rows).
		Where("quiz_id = ?", quizID).
		Where("is_active").
		Order("sort_order ASC", "created_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("list questions: %w", err)
	}
	out := make([]domain.Question, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out, nil
}

func (s *Store) CountQuestions(ctx context.Context, quizID string) (int, error) {
	n, err := s.db.NewSelect().Model((*questionRow)(nil)).Where("quiz_id = ?", quizID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count questions: %w", err)
	}
	return n, nil
}

// CreateAttempt maps a hit on the one-in-progress-attempt index to
// domain.ErrAttemptInProgress.
func (s *Store) CreateAttempt(ctx context.Context, attempt domain.Attempt) error {
	row := toAttemptRow(attempt)
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		var pgErr pgdriver.Error
		if errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation {
			return domain.ErrAttemptInProgress
		}
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *Store) FindInProgress(ctx context.Context, userID, quizID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().
		Model(&row).
		Where("user_id = ?", userID).
		Where("quiz_id = ?", quizID).
		Where("status = ?", string(domain.AttemptInProgress)).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return domain.Attempt{}, notFound(err, domain.ErrAttemptNotFound, "select in-progress attempt")
	}
	return row.toDomain(), nil
}

func (s *Store) GetAttempt(ctx context.Context, attemptID, userID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().
		Model(&row).
		Where("id = ?", attemptID).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		return domain.Attempt{}, notFound(err, domain.ErrAttemptNotFound, "select attempt")
	}
	return row.toDomain(), nil
}

// SaveAnswers locks the attempt row so concurrent saves for different
// questions never overwrite each other.
func (s *Store) SaveAnswers(ctx context.Context, attemptID, userID string, answers ...domain.Answer) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		var row attemptRow
		err := tx.NewSelect().
			Model(&row).
			Where("id = ?", attemptID).
			Where("user_id = ?", userID).
			Where("status = ?", string(domain.AttemptInProgress)).
			For("UPDATE").
			Scan(ctx)
		if err != nil {
			return notFound(err, domain.ErrAttemptNotFound, "lock attempt")
		}

		attempt := row.toDomain()
		for _, answer := range answers {
			attempt.UpsertAnswer(answer)
		}
		row.Answers = attempt.Answers
		row.UpdatedAt = s.clock()

		if _, err := tx.NewUpdate().Model(&row).Column("answers", "updated_at").WherePK().Exec(ctx); err != nil {
			return fmt.Errorf("save answers: %w", err)
		}
		return nil
	})
}

// CompleteAttempt only matches rows still in progress, so a second submit
// finds nothing.
func (s *Store) CompleteAttempt(ctx context.Context, attempt domain.Attempt) error {
	row := toAttemptRow(attempt)
	res, err := s.db.NewUpdate().
		Model(&row).
		Column("answers", "status",
			"score_correct", "score_wrong", "score_unanswered", "score_total_points",
			"score_max_points", "score_percentage", "score_passed",
			"completed_at", "time_taken", "time_remaining", "updated_at").
		WherePK().
		Where("user_id = ?", attempt.UserID).
		Where("status = ?", string(domain.AttemptInProgress)).
		Exec(ctx)
	return affected(res, err, domain.ErrAttemptNotFound, "complete attempt")
}

func (s *Store) CompletedPercentages(ctx context.Context, quizID string) ([]int, error) {
	var percentages []int
	err := s.db.NewSelect().
		Model((*attemptRow)(nil)).
		Column("score_percentage").
		Where("quiz_id = ?", quizID).
		Where("status = ?", string(domain.AttemptCompleted)).
		Scan(ctx, &percentages)
	if err != nil {
		return nil, fmt.Errorf("select completed percentages: %w", err)
	}
	return percentages, nil
}

func (s *Store) CountAttempts(ctx context.Context, quizID string) (int, error) {
	n, err := s.db.NewSelect().Model((*attemptRow)(nil)).Where("quiz_id = ?", quizID).Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count attempts: %w", err)
	}
	return n, nil
}

func (s *Store) ListAttempts(ctx context.Context, filter domain.AttemptFilter) ([]domain.Attempt, error) {
	var rows []attemptRow
	q := s.db.NewSelect().Model(&rows)
	applyFilter(q, filter)
	q.OrderExpr("COALESCE(completed_at, started_at) DESC").Offset(filter.Offset)
	if filter.Limit > 0 {
		q.Limit(filter.Limit)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	return toAttempts(rows), nil
}

func (s *Store) CountUserAttempts(ctx context.Context, filter domain.AttemptFilter) (int, error) {
	q := s.db.NewSelect().Model((*attemptRow)(nil))
	applyFilter(q, filter)
	n, err := q.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count user attempts: %w", err)
	}
	return n, nil
}

func applyFilter(q *bun.SelectQuery, filter domain.AttemptFilter) {
	q.Where("user_id = ?", filter.UserID)
	if filter.Status != "" {
		q.Where("status = ?", string(filter.Status))
	}
}

func (s *Store) TopCompleted(ctx context.Context, quizID string, limit int) ([]domain.Attempt, error) {
	var rows []attemptRow
	err := s.db.NewSelect().
		Model(&rows).
		ExcludeColumn("answers").
		Where("quiz_id = ?", quizID).
		Where("status = ?", string(domain.AttemptCompleted)).
		Order("score_percentage DESC", "time_taken ASC", "id ASC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("select leaderboard: %w", err)
	}
	return toAttempts(rows), nil
}

func toAttempts(rows []attemptRow) []domain.Attempt {
	out := make([]domain.Attempt, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.toDomain())
	}
	return out
}

func notFound(err, sentinel error, op string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return sentinel
	}
	return fmt.Errorf("%s: %w", op, err)
}

func affected(res sql.Result, err, sentinel error, op string) error {
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return sentinel
	}
	return nil
}
