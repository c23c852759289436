package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quizzera/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:qz"`

	ID                string     `bun:"id,pk"`
	Title             string     `bun:"title"`
	Slug              string     `bun:"slug"`
	Description       string     `bun:"description"`
	Category          string     `bun:"category"`
	Difficulty        string     `bun:"difficulty"`
	Duration          int        `bun:"duration"`
	TotalQuestions    int        `bun:"total_questions"`
	PointsPerQuestion float64    `bun:"points_per_question"`
	NegativeMarking   float64    `bun:"negative_marking"`
	PassingScore      float64    `bun:"passing_score"`
	Status            string     `bun:"status"`
	Instructions      []string   `bun:"instructions,type:jsonb"`
	StartDate         *time.Time `bun:"start_date"`
	EndDate           *time.Time `bun:"end_date"`
	Stats             statsCols  `bun:"embed:stats_"`
	CreatedBy         string     `bun:"created_by"`
	CreatedAt         time.Time  `bun:"created_at"`
	UpdatedAt         time.Time  `bun:"updated_at"`
}

type statsCols struct {
	TotalAttempts  int `bun:"total_attempts"`
	TotalCompleted int `bun:"total_completed"`
	AverageScore   int `bun:"average_score"`
	HighestScore   int `bun:"highest_score"`
	LowestScore    int `bun:"lowest_score"`
}

func toQuizRow(q domain.Quiz) quizRow {
	return quizRow{
		ID:                q.ID,
		Title:             q.Title,
		Slug:              q.Slug,
		Description:       q.Description,
		Category:          q.Category,
		Difficulty:        string(q.Difficulty),
		Duration:          q.Duration,
		TotalQuestions:    q.TotalQuestions,
		PointsPerQuestion: q.PointsPerQuestion,
		NegativeMarking:   q.NegativeMarking,
		PassingScore:      q.PassingScore,
		Status:            string(q.Status),
		Instructions:      q.Instructions,
		StartDate:         q.StartDate,
		EndDate:           q.EndDate,
		Stats:             statsCols(q.Stats),
		CreatedBy:         q.CreatedBy,
		CreatedAt:         q.CreatedAt,
		UpdatedAt:         q.UpdatedAt,
	}
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:                r.ID,
		Title:             r.Title,
		Slug:              r.Slug,
		Description:       r.Description,
		Category:          r.Category,
		Difficulty:        domain.Difficulty(r.Difficulty),
		Duration:          r.Duration,
		TotalQuestions:    r.TotalQuestions,
		PointsPerQuestion: r.PointsPerQuestion,
		NegativeMarking:   r.NegativeMarking,
		PassingScore:      r.PassingScore,
		Status:            domain.QuizStatus(r.Status),
		Instructions:      r.Instructions,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
		Stats:             domain.QuizStats(r.Stats),
		CreatedBy:         r.CreatedBy,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:qn"`

	ID             string          `bun:"id,pk"`
	QuizID         string          `bun:"quiz_id"`
	Text           string          `bun:"text"`
	Type           string          `bun:"type"`
	Options        []domain.Option `bun:"options,type:jsonb"`
	CorrectAnswers []string        `bun:"correct_answers,type:jsonb"`
	Explanation    string          `bun:"explanation"`
	Difficulty     string          `bun:"difficulty"`
	Points         float64         `bun:"points"`
	Order          int             `bun:"sort_order"`
	IsActive       bool            `bun:"is_active"`
	CreatedBy      string          `bun:"created_by"`
	CreatedAt      time.Time       `bun:"created_at"`
	UpdatedAt      time.Time       `bun:"updated_at"`
}

func toQuestionRow(q domain.Question) questionRow {
	return questionRow{
		ID:             q.ID,
		QuizID:         q.QuizID,
		Text:           q.Text,
		Type:           string(q.Type),
		Options:        q.Options,
		CorrectAnswers: q.CorrectAnswers,
		Explanation:    q.Explanation,
		Difficulty:     string(q.Difficulty),
		Points:         q.Points,
		Order:          q.Order,
		IsActive:       q.IsActive,
		CreatedBy:      q.CreatedBy,
		CreatedAt:      q.CreatedAt,
		UpdatedAt:      q.UpdatedAt,
	}
}

func (r questionRow) toDomain() domain.Question {
	return domain.Question{
		ID:             r.ID,
		QuizID:         r.QuizID,
		Text:           r.Text,
		Type:           domain.QuestionType(r.Type),
		Options:        r.Options,
		CorrectAnswers: r.CorrectAnswers,
		Explanation:    r.Explanation,
		Difficulty:     domain.Difficulty(r.Difficulty),
		Points:         r.Points,
		Order:          r.Order,
		IsActive:       r.IsActive,
		CreatedBy:      r.CreatedBy,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts,alias:at"`

	ID            string          `bun:"id,pk"`
	UserID        string          `bun:"user_id"`
	QuizID        string          `bun:"quiz_id"`
	Answers       []domain.Answer `bun:"answers,type:jsonb"`
	Status        string          `bun:"status"`
	Score         scoreCols       `bun:"embed:score_"`
	StartedAt     time.Time       `bun:"started_at"`
	CompletedAt   *time.Time      `bun:"completed_at"`
	TimeTaken     int             `bun:"time_taken"`
	TimeRemaining int             `bun:"time_remaining"`
	IPAddress     string          `bun:"ip_address"`
	UserAgent     string          `bun:"user_agent"`
	CreatedAt     time.Time       `bun:"created_at"`
	UpdatedAt     time.Time       `bun:"updated_at"`
}

type scoreCols struct {
	Correct     int     `bun:"correct"`
	Wrong       int     `bun:"wrong"`
	Unanswered  int     `bun:"unanswered"`
	TotalPoints float64 `bun:"total_points"`
	MaxPoints   float64 `bun:"max_points"`
	Percentage  int     `bun:"percentage"`
	Passed      bool    `bun:"passed"`
}

func toAttemptRow(a domain.Attempt) attemptRow {
	answers := a.Answers
	if answers == nil {
		answers = []domain.Answer{}
	}
	return attemptRow{
		ID:            a.ID,
		UserID:        a.UserID,
		QuizID:        a.QuizID,
		Answers:       answers,
		Status:        string(a.Status),
		Score:         scoreCols(a.Score),
		StartedAt:     a.StartedAt,
		CompletedAt:   a.CompletedAt,
		TimeTaken:     a.TimeTaken,
		TimeRemaining: a.TimeRemaining,
		IPAddress:     a.IPAddress,
		UserAgent:     a.UserAgent,
		CreatedAt:     a.CreatedAt,
		UpdatedAt:     a.UpdatedAt,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:            r.ID,
		UserID:        r.UserID,
		QuizID:        r.QuizID,
		Answers:       r.Answers,
		Status:        domain.AttemptStatus(r.Status),
		Score:         domain.Score(r.Score),
		StartedAt:     r.StartedAt,
		CompletedAt:   r.CompletedAt,
		TimeTaken:     r.TimeTaken,
		TimeRemaining: r.TimeRemaining,
		IPAddress:     r.IPAddress,
		UserAgent:     r.UserAgent,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}
