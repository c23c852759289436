package http

import (
	"fmt"
	"time"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

const (
	defaultPointsPerQuestion = 1.0
	defaultPassingScore      = 40.0
)

type quizRequest struct {
	Title             string     `json:"title" validate:"required,max=200"`
	Description       string     `json:"description" validate:"max=2000"`
	Category          string     `json:"category" validate:"max=100"`
	Difficulty        string     `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	Duration          int        `json:"duration" validate:"required,min=1,max=300"`
	PointsPerQuestion *float64   `json:"pointsPerQuestion" validate:"omitempty,gt=0"`
	NegativeMarking   float64    `json:"negativeMarking" validate:"min=0"`
	PassingScore      *float64   `json:"passingScore" validate:"omitempty,min=0,max=100"`
	Instructions      []string   `json:"instructions" validate:"max=20,dive,max=500"`
	StartDate         *time.Time `json:"startDate"`
	EndDate           *time.Time `json:"endDate"`
}

func (r quizRequest) toInput() (app.QuizInput, error) {
	if r.StartDate != nil && r.EndDate != nil && !r.EndDate.After(*r.StartDate) {
		return app.QuizInput{}, fmt.Errorf("%w: endDate must be after startDate", domain.ErrValidation)
	}
	in := app.QuizInput{
		Title:             r.Title,
		Description:       r.Description,
		Category:          r.Category,
		Difficulty:        domain.Difficulty(r.Difficulty),
		Duration:          r.Duration,
		PointsPerQuestion: defaultPointsPerQuestion,
		NegativeMarking:   r.NegativeMarking,
		PassingScore:      defaultPassingScore,
		Instructions:      r.Instructions,
		StartDate:         r.StartDate,
		EndDate:           r.EndDate,
	}
	if r.PointsPerQuestion != nil {
		in.PointsPerQuestion = *r.PointsPerQuestion
	}
	if r.PassingScore != nil {
		in.PassingScore = *r.PassingScore
	}
	return in, nil
}

type optionRequest struct {
	ID        string `json:"id" validate:"required,max=200"`
	Text      string `json:"text" validate:"max=1000"`
	IsCorrect bool   `json:"isCorrect"`
}

func toOptions(in []optionRequest) []domain.Option {
	if in == nil {
		return nil
	}
	out := make([]domain.Option, 0, len(in))
	for _, o := range in {
		out = append(out, domain.Option{ID: o.ID, Text: o.Text, IsCorrect: o.IsCorrect})
	}
	return out
}

type questionRequest struct {
	Question    string          `json:"question" validate:"required,max=2000"`
	Type        string          `json:"type" validate:"omitempty,oneof=single multiple true_false fill_blank"`
	Options     []optionRequest `json:"options" validate:"required,min=1,max=10,dive"`
	Explanation string          `json:"explanation" validate:"max=2000"`
	Difficulty  string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	Points      float64         `json:"points" validate:"min=0"`
	Order       int             `json:"order" validate:"min=0"`
}

func (r questionRequest) toInput() app.QuestionInput {
	return app.QuestionInput{
		Text:        r.Question,
		Type:        domain.QuestionType(r.Type),
		Options:     toOptions(r.Options),
		Explanation: r.Explanation,
		Difficulty:  domain.Difficulty(r.Difficulty),
		Points:      r.Points,
		Order:       r.Order,
	}
}

type bulkQuestionsRequest struct {
	Questions []questionRequest `json:"questions" validate:"required,min=1,max=100,dive"`
}

type questionPatchRequest struct {
	Question    *string         `json:"question" validate:"omitempty,min=1,max=2000"`
	Type        *string         `json:"type" validate:"omitempty,oneof=single multiple true_false fill_blank"`
	Options     []optionRequest `json:"options" validate:"omitempty,min=1,max=10,dive"`
	Explanation *string         `json:"explanation" validate:"omitempty,max=2000"`
	Difficulty  *string         `json:"difficulty" validate:"omitempty,oneof=easy medium hard expert"`
	Points      *float64        `json:"points" validate:"omitempty,min=0"`
	Order       *int            `json:"order" validate:"omitempty,min=1"`
	IsActive    *bool           `json:"isActive"`
}

func (r questionPatchRequest) toPatch() app.QuestionPatch {
	patch := app.QuestionPatch{
		Text:        r.Question,
		Options:     toOptions(r.Options),
		Explanation: r.Explanation,
		Points:      r.Points,
		Order:       r.Order,
		IsActive:    r.IsActive,
	}
	if r.Type != nil {
		t := domain.QuestionType(*r.Type)
		patch.Type = &t
	}
	if r.Difficulty != nil {
		d := domain.Difficulty(*r.Difficulty)
		patch.Difficulty = &d
	}
	return patch
}

type answerRequest struct {
	QuestionID      string                `json:"questionId" validate:"required"`
	SelectedAnswer  domain.SelectedAnswer `json:"selectedAnswer"`
	TimeTaken       int                   `json:"timeTaken" validate:"min=0"`
	MarkedForReview bool                  `json:"markedForReview"`
}

func (r answerRequest) toInput() app.AnswerInput {
	return app.AnswerInput{
		QuestionID:      r.QuestionID,
		SelectedAnswer:  r.SelectedAnswer,
		TimeTaken:       r.TimeTaken,
		MarkedForReview: r.MarkedForReview,
	}
}

type submitRequest struct {
	Answers       []answerRequest `json:"answers" validate:"max=500,dive"`
	TimeRemaining int             `json:"timeRemaining" validate:"min=0"`
}

func (r submitRequest) toInput() app.SubmitInput {
	in := app.SubmitInput{TimeRemaining: r.TimeRemaining}
	for _, a := range r.Answers {
		in.Answers = append(in.Answers, a.toInput())
	}
	return in
}
