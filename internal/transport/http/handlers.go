package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"quizzera/internal/app"
	"quizzera/internal/domain"
)

// API serves the REST endpoints.
type API struct {
	attempts *app.AttemptService
	authors  *app.AuthoringService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewAPI(attempts *app.AttemptService, authors *app.AuthoringService, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.Default()
	}
	return &API{
		attempts: attempts,
		authors:  authors,
		validate: newValidator(),
		logger:   logger,
	}
}

func (a *API) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, a.logger, err)
}

// --- quizzes ---

func (a *API) createQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	quiz, err := a.authors.CreateQuiz(r.Context(), userID(r), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "quiz created", quiz)
}

func (a *API) updateQuiz(w http.ResponseWriter, r *http.Request) {
	var req quizRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	in, err := req.toInput()
	if err != nil {
		a.fail(w, r, err)
		return
	}
	quiz, err := a.authors.UpdateQuiz(r.Context(), chi.URLParam(r, "quizID"), in)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "quiz updated", quiz)
}

func (a *API) publishQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := a.authors.PublishQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "quiz published", quiz)
}

func (a *API) deleteQuiz(w http.ResponseWriter, r *http.Request) {
	archived, err := a.authors.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if archived {
		writeMessage(w, http.StatusOK, "quiz archived (has attempts)", nil)
		return
	}
	writeMessage(w, http.StatusOK, "quiz deleted", nil)
}

// --- questions ---

func (a *API) listQuestions(w http.ResponseWriter, r *http.Request) {
	quizID := chi.URLParam(r, "quizID")
	if isAuthor(r) {
		questions, err := a.authors.ListQuestions(r.Context(), quizID)
		if err != nil {
			a.fail(w, r, err)
			return
		}
		writeData(w, http.StatusOK, questions)
		return
	}
	questions, err := a.authors.ListPublicQuestions(r.Context(), quizID)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, questions)
}

func (a *API) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.authors.CreateQuestion(r.Context(), userID(r), chi.URLParam(r, "quizID"), req.toInput())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, "question created", q)
}

func (a *API) bulkCreateQuestions(w http.ResponseWriter, r *http.Request) {
	var req bulkQuestionsRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	inputs := make([]app.QuestionInput, 0, len(req.Questions))
	for _, q := range req.Questions {
		inputs = append(inputs, q.toInput())
	}
	created, err := a.authors.BulkCreateQuestions(r.Context(), userID(r), chi.URLParam(r, "quizID"), inputs)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusCreated, strconv.Itoa(len(created))+" questions created", created)
}

func (a *API) updateQuestion(w http.ResponseWriter, r *http.Request) {
	var req questionPatchRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	q, err := a.authors.UpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), req.toPatch())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "question updated", q)
}

func (a *API) deleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := a.authors.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "question deleted", nil)
}

// --- attempts ---

func (a *API) startAttempt(w http.ResponseWriter, r *http.Request) {
	res, err := a.attempts.Start(r.Context(), callerFrom(r), chi.URLParam(r, "quizID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	if res.Resumed {
		writeMessage(w, http.StatusOK, "resuming existing attempt", res)
		return
	}
	writeMessage(w, http.StatusCreated, "quiz started", res)
}

func (a *API) saveAnswer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	if err := a.attempts.SaveAnswer(r.Context(), userID(r), chi.URLParam(r, "attemptID"), req.toInput()); err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "answer saved", nil)
}

func (a *API) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := decodeAndValidate(r, a.validate, &req); err != nil {
		a.fail(w, r, err)
		return
	}
	res, err := a.attempts.Submit(r.Context(), userID(r), chi.URLParam(r, "attemptID"), req.toInput())
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeMessage(w, http.StatusOK, "quiz submitted", res)
}

func (a *API) getAttempt(w http.ResponseWriter, r *http.Request) {
	res, err := a.attempts.GetResult(r.Context(), userID(r), chi.URLParam(r, "attemptID"))
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))
	status := domain.AttemptStatus(q.Get("status"))

	res, err := a.attempts.History(r.Context(), userID(r), status, page, limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (a *API) leaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	lb, err := a.attempts.Leaderboard(r.Context(), chi.URLParam(r, "quizID"), limit)
	if err != nil {
		a.fail(w, r, err)
		return
	}
	writeData(w, http.StatusOK, lb)
}
