package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"quizzera/internal/domain"
)

// QuizInput carries the authored configuration of a quiz.
type QuizInput struct {
	Title             string
	Description       string
	Category          string
	Difficulty        domain.Difficulty
	Duration          int
	PointsPerQuestion float64
	NegativeMarking   float64
	PassingScore      float64
	Instructions      []string
	StartDate         *time.Time
	EndDate           *time.Time
}

// QuestionInput carries an authored question.
type QuestionInput struct {
	Text        string
	Type        domain.QuestionType
	Options     []domain.Option
	Explanation string
	Difficulty  domain.Difficulty
	Points      float64
	Order       int
}

// QuestionPatch updates only the non-nil fields.
type QuestionPatch struct {
	Text        *string
	Type        *domain.QuestionType
	Options     []domain.Option
	Explanation *string
	Difficulty  *domain.Difficulty
	Points      *float64
	Order       *int
	IsActive    *bool
}

// AuthoringService manages quizzes and their questions.
type AuthoringService struct {
	quizzes   QuizStore
	questions QuestionStore
	attempts  AttemptStore
	content   ContentRepository
	opts      options
}

func NewAuthoringService(quizzes QuizStore, questions QuestionStore, attempts AttemptStore, content ContentRepository, opts ...Option) *AuthoringService {
	return &AuthoringService{
		quizzes:   quizzes,
		questions: questions,
		attempts:  attempts,
		content:   content,
		opts:      buildOptions(opts),
	}
}

func (s *AuthoringService) log() *slog.Logger { return s.opts.logger }

// CreateQuiz stores a new draft quiz.
func (s *AuthoringService) CreateQuiz(ctx context.Context, createdBy string, in QuizInput) (domain.Quiz, error) {
	now := s.opts.now()
	quiz := applyQuizInput(domain.Quiz{
		ID:        s.opts.newID(),
		Status:    domain.QuizDraft,
		CreatedBy: createdBy,
		CreatedAt: now,
	}, in)
	quiz.UpdatedAt = now
	if quiz.Difficulty == "" {
		quiz.Difficulty = domain.DifficultyMedium
	}
	if err := s.quizzes.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.log().Info("quiz created", "quiz_id", quiz.ID, "slug", quiz.Slug)
	return quiz, nil
}

// GetQuiz returns the stored quiz.
func (s *AuthoringService) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// UpdateQuiz replaces the configuration fields. Stats, status and question
// count are left untouched.
func (s *AuthoringService) UpdateQuiz(ctx context.Context, quizID string, in QuizInput) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	quiz = applyQuizInput(quiz, in)
	quiz.UpdatedAt = s.opts.now()
	if err := s.quizzes.UpdateQuizConfig(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	return quiz, nil
}

func applyQuizInput(quiz domain.Quiz, in QuizInput) domain.Quiz {
	quiz.Title = in.Title
	quiz.Slug = domain.Slugify(in.Title)
	quiz.Description = in.Description
	quiz.Category = in.Category
	if in.Difficulty != "" {
		quiz.Difficulty = in.Difficulty
	}
	quiz.Duration = in.Duration
	quiz.PointsPerQuestion = in.PointsPerQuestion
	quiz.NegativeMarking = in.NegativeMarking
	quiz.PassingScore = in.PassingScore
	quiz.Instructions = in.Instructions
	quiz.StartDate = in.StartDate
	quiz.EndDate = in.EndDate
	return quiz
}

// PublishQuiz makes a quiz available. A quiz without questions cannot be published.
func (s *AuthoringService) PublishQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	if quiz.TotalQuestions < 1 {
		return domain.Quiz{}, domain.ErrQuizHasNoQuestions
	}
	if err := s.quizzes.SetQuizStatus(ctx, quizID, domain.QuizPublished); err != nil {
		return domain.Quiz{}, err
	}
	s.invalidate(ctx, quizID)
	quiz.Status = domain.QuizPublished
	s.log().Info("quiz published", "quiz_id", quizID)
	return quiz, nil
}

// DeleteQuiz archives a quiz that already has attempts, so their history
// survives; otherwise it deletes the quiz and its questions. It reports
// whether the quiz was archived.
func (s *AuthoringService) DeleteQuiz(ctx context.Context, quizID string) (bool, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return false, err
	}
	attempts, err := s.attempts.CountAttempts(ctx, quizID)
	if err != nil {
		return false, err
	}
	defer s.invalidate(ctx, quizID)
	if attempts > 0 {
		s.log().Info("quiz archived", "quiz_id", quizID, "attempts", attempts)
		return true, s.quizzes.SetQuizStatus(ctx, quizID, domain.QuizArchived)
	}
	s.log().Info("quiz deleted", "quiz_id", quizID)
	return false, s.quizzes.DeleteQuiz(ctx, quizID)
}

// ListQuestions returns the active questions of a quiz with their answers.
func (s *AuthoringService) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	return s.questions.ListQuestions(ctx, quizID)
}

// ListPublicQuestions returns the active questions with answers stripped.
func (s *AuthoringService) ListPublicQuestions(ctx context.Context, quizID string) ([]domain.PublicQuestion, error) {
	questions, err := s.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}
	return publicQuestions(questions), nil
}

// CreateQuestion adds one question to a quiz.
func (s *AuthoringService) CreateQuestion(ctx context.Context, createdBy, quizID string, in QuestionInput) (domain.Question, error) {
	created, err := s.BulkCreateQuestions(ctx, createdBy, quizID, []QuestionInput{in})
	if err != nil {
		return domain.Question{}, err
	}
	return created[0], nil
}

// BulkCreateQuestions validates every input before storing any of them.
// Questions without an explicit order are appended after the existing ones.
func (s *AuthoringService) BulkCreateQuestions(ctx context.Context, createdBy, quizID string, inputs []QuestionInput) ([]domain.Question, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: no questions given", domain.ErrValidation)
	}
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return nil, err
	}
	count, err := s.questions.CountQuestions(ctx, quizID)
	if err != nil {
		return nil, err
	}

	now := s.opts.now()
	questions := make([]domain.Question, 0, len(inputs))
	for i, in := range inputs {
		q := domain.Question{
			ID:          s.opts.newID(),
			QuizID:      quizID,
			Text:        in.Text,
			Type:        in.Type,
			Options:     in.Options,
			Explanation: in.Explanation,
			Difficulty:  in.Difficulty,
			Points:      in.Points,
			Order:       in.Order,
			IsActive:    true,
			CreatedBy:   createdBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if q.Order <= 0 {
			q.Order = count + i + 1
		}
		if q.Difficulty == "" {
			q.Difficulty = domain.DifficultyMedium
		}
		if err := prepareQuestion(&q); err != nil {
			return nil, fmt.Errorf("question %d: %w", i+1, err)
		}
		questions = append(questions, q)
	}

	if err := s.questions.CreateQuestions(ctx, questions...); err != nil {
		return nil, err
	}
	if err := s.syncQuestionCount(ctx, quizID); err != nil {
		return nil, err
	}
	return questions, nil
}

// UpdateQuestion applies a patch. CorrectAnswers is always rebuilt from the
// resulting options.
func (s *AuthoringService) UpdateQuestion(ctx context.Context, questionID string, patch QuestionPatch) (domain.Question, error) {
	q, err := s.questions.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Question{}, err
	}
	if patch.Text != nil {
		q.Text = *patch.Text
	}
	if patch.Type != nil {
		q.Type = *patch.Type
	}
	if patch.Options != nil {
		q.Options = patch.Options
	}
	if patch.Explanation != nil {
		q.Explanation = *patch.Explanation
	}
	if patch.Difficulty != nil {
		q.Difficulty = *patch.Difficulty
	}
	if patch.Points != nil {
		q.Points = *patch.Points
	}
	if patch.Order != nil {
		q.Order = *patch.Order
	}
	if patch.IsActive != nil {
		q.IsActive = *patch.IsActive
	}
	if err := prepareQuestion(&q); err != nil {
		return domain.Question{}, err
	}
	q.UpdatedAt = s.opts.now()

	if err := s.questions.UpdateQuestion(ctx, q); err != nil {
		return domain.Question{}, err
	}
	if err := s.syncQuestionCount(ctx, q.QuizID); err != nil {
		return domain.Question{}, err
	}
	return q, nil
}

// DeleteQuestion removes a question and re-syncs the quiz question count.
func (s *AuthoringService) DeleteQuestion(ctx context.Context, questionID string) error {
	deleted, err := s.questions.DeleteQuestion(ctx, questionID)
	if err != nil {
		return err
	}
	return s.syncQuestionCount(ctx, deleted.QuizID)
}

func (s *AuthoringService) syncQuestionCount(ctx context.Context, quizID string) error {
	active, err := s.questions.ListQuestions(ctx, quizID)
	if err != nil {
		return err
	}
	if err := s.quizzes.SetTotalQuestions(ctx, quizID, len(active)); err != nil {
		return err
	}
	s.invalidate(ctx, quizID)
	return nil
}

func (s *AuthoringService) invalidate(ctx context.Context, quizID string) {
	if err := s.content.Invalidate(ctx, quizID); err != nil {
		s.log().Warn("content cache invalidation failed", "quiz_id", quizID, "error", err)
	}
}

func prepareQuestion(q *domain.Question) error {
	switch q.Type {
	case domain.QuestionSingle, domain.QuestionMultiple, domain.QuestionTrueFalse, domain.QuestionFillBlank:
	case "":
		q.Type = domain.QuestionSingle
	default:
		return fmt.Errorf("%w: unknown question type %q", domain.ErrValidation, q.Type)
	}
	if q.Points < 0 {
		return fmt.Errorf("%w: points must not be negative", domain.ErrValidation)
	}
	return q.DeriveCorrectAnswers()
}
