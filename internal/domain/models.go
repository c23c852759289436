package domain

import (
	"regexp"
	"strings"
	"time"
)

// QuizStatus is the publication state of a quiz.
type QuizStatus string

const (
	QuizDraft     QuizStatus = "draft"
	QuizPublished QuizStatus = "published"
	QuizArchived  QuizStatus = "archived"
)

// Difficulty is shared by quizzes and questions.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyExpert Difficulty = "expert"
)

// QuizStats is the denormalized summary of completed attempts.
type QuizStats struct {
	TotalAttempts  int `json:"totalAttempts"`
	TotalCompleted int `json:"totalCompleted"`
	AverageScore   int `json:"averageScore"`
	HighestScore   int `json:"highestScore"`
	LowestScore    int `json:"lowestScore"`
}

// Quiz owns the scoring configuration and its questions.
type Quiz struct {
	ID                string     `json:"id"`
	Title             string     `json:"title"`
	Slug              string     `json:"slug"`
	Description       string     `json:"description,omitempty"`
	Category          string     `json:"category,omitempty"`
	Difficulty        Difficulty `json:"difficulty"`
	Duration          int        `json:"duration"` // minutes
	TotalQuestions    int        `json:"totalQuestions"`
	PointsPerQuestion float64    `json:"pointsPerQuestion"`
	NegativeMarking   float64    `json:"negativeMarking"`
	PassingScore      float64    `json:"passingScore"`
	Status            QuizStatus `json:"status"`
	Instructions      []string   `json:"instructions,omitempty"`
	StartDate         *time.Time `json:"startDate,omitempty"`
	EndDate           *time.Time `json:"endDate,omitempty"`
	Stats             QuizStats  `json:"stats"`
	CreatedBy         string     `json:"createdBy,omitempty"`
	CreatedAt         time.Time  `json:"createdAt"`
	UpdatedAt         time.Time  `json:"updatedAt"`
}

// IsAvailable reports whether the quiz can be started at now.
func (q Quiz) IsAvailable(now time.Time) bool {
	if q.Status != QuizPublished {
		return false
	}
	if q.StartDate != nil && now.Before(*q.StartDate) {
		return false
	}
	if q.EndDate != nil && now.After(*q.EndDate) {
		return false
	}
	return true
}

// DurationSeconds is the time limit of one attempt.
func (q Quiz) DurationSeconds() int {
	return q.Duration * 60
}

var slugInvalid = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify builds a URL-friendly identifier from a title.
func Slugify(title string) string {
	s := slugInvalid.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// QuestionType selects how an answer is evaluated.
type QuestionType string

const (
	QuestionSingle    QuestionType = "single"
	QuestionMultiple  QuestionType = "multiple"
	QuestionTrueFalse QuestionType = "true_false"
	QuestionFillBlank QuestionType = "fill_blank"
)

// Option represents a possible answer for a question.
type Option struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// Question belongs to exactly one quiz. CorrectAnswers mirrors the ids of
// options marked correct and is rebuilt by DeriveCorrectAnswers on every write.
type Question struct {
	ID             string       `json:"id"`
	QuizID         string       `json:"quizId"`
	Text           string       `json:"question"`
	Type           QuestionType `json:"type"`
	Options        []Option     `json:"options"`
	CorrectAnswers []string     `json:"correctAnswers"`
	Explanation    string       `json:"explanation,omitempty"`
	Difficulty     Difficulty   `json:"difficulty"`
	Points         float64      `json:"points"` // defaults to 1 if zero
	Order          int          `json:"order"`
	IsActive       bool         `json:"isActive"`
	CreatedBy      string       `json:"createdBy,omitempty"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}

// DeriveCorrectAnswers rebuilds CorrectAnswers from the options.
func (q *Question) DeriveCorrectAnswers() error {
	correct := make([]string, 0, len(q.Options))
	for _, opt := range q.Options {
		if opt.IsCorrect {
			correct = append(correct, opt.ID)
		}
	}
	if len(correct) == 0 {
		return ErrNoCorrectOption
	}
	q.CorrectAnswers = correct
	return nil
}

// EffectivePoints is the score for a correct answer.
func (q Question) EffectivePoints() float64 {
	if q.Points <= 0 {
		return 1
	}
	return q.Points
}

// PublicOption is an option without its correctness flag.
type PublicOption struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// PublicQuestion is the view of a question served while an attempt is running.
type PublicQuestion struct {
	ID         string         `json:"id"`
	QuizID     string         `json:"quizId"`
	Text       string         `json:"question"`
	Type       QuestionType   `json:"type"`
	Options    []PublicOption `json:"options"`
	Difficulty Difficulty     `json:"difficulty"`
	Points     float64        `json:"points"`
	Order      int            `json:"order"`
}

// Public strips everything that would reveal the answer.
func (q Question) Public() PublicQuestion {
	options := make([]PublicOption, 0, len(q.Options))
	for _, opt := range q.Options {
		options = append(options, PublicOption{ID: opt.ID, Text: opt.Text})
	}
	return PublicQuestion{
		ID:         q.ID,
		QuizID:     q.QuizID,
		Text:       q.Text,
		Type:       q.Type,
		Options:    options,
		Difficulty: q.Difficulty,
		Points:     q.EffectivePoints(),
		Order:      q.Order,
	}
}

// QuizContent is a quiz together with its active questions, ordered.
type QuizContent struct {
	Quiz      Quiz       `json:"quiz"`
	Questions []Question `json:"questions"`
}

// QuestionByID indexes the questions of the content.
func (c QuizContent) QuestionByID() map[string]Question {
	out := make(map[string]Question, len(c.Questions))
	for _, q := range c.Questions {
		out[q.ID] = q
	}
	return out
}
