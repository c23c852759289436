package app_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

func TestCreateQuizStartsAsDraft(t *testing.T) {
	f := newFixture(t)

	quiz, err := f.authors.CreateQuiz(context.Background(), "instructor-1", app.QuizInput{Title: "  Go: Channels & Select! ", Duration: 15})
	require.NoError(t, err)
	assert.Equal(t, domain.QuizDraft, quiz.Status)
	assert.Equal(t, "go-channels-select", quiz.Slug)
	assert.Equal(t, domain.DifficultyMedium, quiz.Difficulty)
	assert.Equal(t, "instructor-1", quiz.CreatedBy)
}

func TestPublishRequiresQuestions(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	quiz, err := f.authors.CreateQuiz(ctx, "instructor-1", app.QuizInput{Title: "Empty", Duration: 5})
	require.NoError(t, err)
	_, err = f.authors.PublishQuiz(ctx, quiz.ID)
	assert.ErrorIs(t, err, domain.ErrQuizHasNoQuestions)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestQuestionWritesDeriveCorrectAnswers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.authors.CreateQuiz(ctx, "instructor-1", app.QuizInput{Title: "Derived", Duration: 5})
	require.NoError(t, err)

	q, err := f.authors.CreateQuestion(ctx, "instructor-1", quiz.ID, app.QuestionInput{
		Text: "Pick primes",
		Type: domain.QuestionMultiple,
		Options: []domain.Option{
			{ID: "2", Text: "2", IsCorrect: true},
			{ID: "4", Text: "4"},
			{ID: "5", Text: "5", IsCorrect: true},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "5"}, q.CorrectAnswers)
	assert.Equal(t, 1, q.Order)

	updated, err := f.authors.UpdateQuestion(ctx, q.ID, app.QuestionPatch{
		Options: []domain.Option{
			{ID: "2", Text: "2", IsCorrect: true},
			{ID: "4", Text: "4"},
			{ID: "5", Text: "5"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, updated.CorrectAnswers)

	_, err = f.authors.UpdateQuestion(ctx, q.ID, app.QuestionPatch{
		Options: []domain.Option{{ID: "4", Text: "4"}},
	})
	assert.ErrorIs(t, err, domain.ErrNoCorrectOption)
	assert.ErrorIs(t, err, domain.ErrValidation)

	stored, err := f.store.GetQuestion(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"2"}, stored.CorrectAnswers)
}

func TestBulkCreateIsAllOrNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.authors.CreateQuiz(ctx, "instructor-1", app.QuizInput{Title: "Bulk", Duration: 5})
	require.NoError(t, err)

	_, err = f.authors.BulkCreateQuestions(ctx, "instructor-1", quiz.ID, []app.QuestionInput{
		{Text: "ok", Type: domain.QuestionTrueFalse, Options: []domain.Option{{ID: "true", IsCorrect: true}, {ID: "false"}}},
		{Text: "no answer", Type: domain.QuestionSingle, Options: []domain.Option{{ID: "a"}}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.authors.BulkCreateQuestions(ctx, "instructor-1", quiz.ID, []app.QuestionInput{
		{Text: "essay", Type: "essay", Options: []domain.Option{{ID: "a", IsCorrect: true}}},
	})
	assert.ErrorIs(t, err, domain.ErrValidation)

	count, err := f.store.CountQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestQuestionCountFollowsWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz := f.publishedQuiz(t, 0)

	questions, err := f.authors.ListQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, questions, 4)
	assert.Equal(t, 4, quiz.TotalQuestions)

	inactive := false
	_, err = f.authors.UpdateQuestion(ctx, questions[0].ID, app.QuestionPatch{IsActive: &inactive})
	require.NoError(t, err)
	require.NoError(t, f.authors.DeleteQuestion(ctx, questions[1].ID))

	stored, err := f.authors.GetQuiz(ctx, quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.TotalQuestions)

	public, err := f.authors.ListPublicQuestions(ctx, quiz.ID)
	require.NoError(t, err)
	require.Len(t, public, 2)
	assert.Equal(t, questions[2].ID, public[0].ID)

	// The attempt view reflects the writes without waiting for the cache TTL.
	res, err := f.attempts.Start(ctx, app.Caller{UserID: "u1"}, quiz.ID)
	require.NoError(t, err)
	assert.Len(t, res.Questions, 2)
	assert.Equal(t, 2, res.Quiz.TotalQuestions)
}

func TestDeleteQuizArchivesWhenAttemptsExist(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	taken := f.publishedQuiz(t, 0)
	_, err := f.attempts.Start(ctx, app.Caller{UserID: "u1"}, taken.ID)
	require.NoError(t, err)

	archived, err := f.authors.DeleteQuiz(ctx, taken.ID)
	require.NoError(t, err)
	assert.True(t, archived)
	stored, err := f.authors.GetQuiz(ctx, taken.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuizArchived, stored.Status)

	_, err = f.attempts.Start(ctx, app.Caller{UserID: "u2"}, taken.ID)
	assert.ErrorIs(t, err, domain.ErrQuizNotAvailable)

	untouched := f.publishedQuiz(t, 0)
	archived, err = f.authors.DeleteQuiz(ctx, untouched.ID)
	require.NoError(t, err)
	assert.False(t, archived)
	_, err = f.authors.GetQuiz(ctx, untouched.ID)
	assert.ErrorIs(t, err, domain.ErrQuizNotFound)
}
