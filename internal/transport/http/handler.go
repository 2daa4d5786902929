package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"assessment-engine/internal/app"
	"assessment-engine/internal/domain"
)

// Handler exposes the assessment engine's operations over JSON.
type Handler struct {
	service  *app.AssessmentService
	ordering *app.OrderingService
}

func NewHandler(service *app.AssessmentService, ordering *app.OrderingService) *Handler {
	return &Handler{service: service, ordering: ordering}
}

// Register wires all routes onto the mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /questions/validate", h.validateQuestion)
	mux.HandleFunc("POST /quizzes/{quizID}/publish-check", h.validateQuizForPublish)
	mux.HandleFunc("POST /attempts", h.startAttempt)
	mux.HandleFunc("PUT /attempts/{attemptID}/answers/{questionID}", h.saveAnswer)
	mux.HandleFunc("POST /attempts/{attemptID}/submit", h.submitAttempt)
	mux.HandleFunc("POST /attempts/{attemptID}/manual-grades", h.gradeManualAnswer)
	mux.HandleFunc("POST /attempts/{attemptID}/abandon", h.abandonAttempt)
	mux.HandleFunc("GET /attempts/{attemptID}/time-remaining", h.timeRemaining)
	mux.HandleFunc("GET /attempts/{attemptID}", h.getAttempt)
	mux.HandleFunc("GET /attempts", h.listAttempts)
	mux.HandleFunc("POST /ordering/{scope}/reorder", h.reorder)
}

type validationResponse struct {
	Valid  bool                     `json:"valid"`
	Errors []domain.ValidationError `json:"errors,omitempty"`
}

func (h *Handler) validateQuestion(w http.ResponseWriter, r *http.Request) {
	var question domain.Question
	if err := json.NewDecoder(r.Body).Decode(&question); err != nil {
		http.Error(w, "invalid question payload", http.StatusBadRequest)
		return
	}
	errs := h.service.ValidateQuestion(question)
	writeJSON(w, http.StatusOK, validationResponse{Valid: len(errs) == 0, Errors: errs})
}

func (h *Handler) validateQuizForPublish(w http.ResponseWriter, r *http.Request) {
	errs, err := h.service.ValidateQuizForPublish(r.Context(), r.PathValue("quizID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, validationResponse{Valid: len(errs) == 0, Errors: errs})
}

type startAttemptRequest struct {
	QuizID    string `json:"quizId"`
	LearnerID string `json:"learnerId"`
}

// startedAttempt is the learner-facing view of a fresh attempt: questions in
// presentation order with answer keys stripped.
type startedAttempt struct {
	AttemptID        string            `json:"attemptId"`
	QuizID           string            `json:"quizId"`
	AttemptNumber    int               `json:"attemptNumber"`
	StartedAt        string            `json:"startedAt"`
	TimeLimitMinutes *int              `json:"timeLimitMinutes,omitempty"`
	Questions        []domain.Question `json:"questions"`
}

func (h *Handler) startAttempt(w http.ResponseWriter, r *http.Request) {
	var req startAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid start payload", http.StatusBadRequest)
		return
	}
	if req.QuizID == "" || req.LearnerID == "" {
		http.Error(w, "missing quizId or learnerId", http.StatusBadRequest)
		return
	}
	attempt, err := h.service.StartAttempt(r.Context(), req.QuizID, req.LearnerID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, startedAttempt{
		AttemptID:        attempt.ID,
		QuizID:           attempt.QuizID,
		AttemptNumber:    attempt.AttemptNumber,
		StartedAt:        attempt.StartedAt.Format(time.RFC3339),
		TimeLimitMinutes: attempt.TimeLimitMinutes,
		Questions:        attempt.PresentedQuestions(),
	})
}

type saveAnswerResponse struct {
	Recorded bool `json:"recorded"`
}

func (h *Handler) saveAnswer(w http.ResponseWriter, r *http.Request) {
	var answer domain.Answer
	if err := json.NewDecoder(r.Body).Decode(&answer); err != nil {
		http.Error(w, "invalid answer payload", http.StatusBadRequest)
		return
	}
	recorded, err := h.service.SaveAnswer(r.Context(), r.PathValue("attemptID"), r.PathValue("questionID"), answer)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, saveAnswerResponse{Recorded: recorded})
}

type submitAttemptRequest struct {
	Answers map[string]domain.Answer `json:"answers"`
}

func (h *Handler) submitAttempt(w http.ResponseWriter, r *http.Request) {
	var req submitAttemptRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid submit payload", http.StatusBadRequest)
		return
	}
	attempt, err := h.service.SubmitAttempt(r.Context(), r.PathValue("attemptID"), req.Answers)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newResultView(attempt))
}

type manualGradeRequest struct {
	QuestionID string  `json:"questionId"`
	Points     float64 `json:"points"`
	GradedBy   string  `json:"gradedBy"`
}

func (h *Handler) gradeManualAnswer(w http.ResponseWriter, r *http.Request) {
	var req manualGradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid manual grade payload", http.StatusBadRequest)
		return
	}
	attempt, err := h.service.GradeManualAnswer(r.Context(), r.PathValue("attemptID"), req.QuestionID, req.Points, req.GradedBy)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) abandonAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.AbandonAttempt(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

type timeRemainingResponse struct {
	SecondsRemaining int  `json:"secondsRemaining"`
	Unlimited        bool `json:"unlimited"`
}

func (h *Handler) timeRemaining(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	remaining, err := h.service.TimeRemaining(r.Context(), attempt.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	_, limited := attempt.Deadline()
	writeJSON(w, http.StatusOK, timeRemainingResponse{SecondsRemaining: remaining, Unlimited: !limited})
}

func (h *Handler) getAttempt(w http.ResponseWriter, r *http.Request) {
	attempt, err := h.service.GetAttempt(r.Context(), r.PathValue("attemptID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempt)
}

func (h *Handler) listAttempts(w http.ResponseWriter, r *http.Request) {
	filter := app.AttemptFilter{
		QuizID:    r.URL.Query().Get("quizId"),
		LearnerID: r.URL.Query().Get("userId"),
	}
	if raw := r.URL.Query().Get("passed"); raw != "" {
		passed := raw == "true"
		filter.Passed = &passed
	}
	attempts, err := h.service.ListAttempts(r.Context(), filter)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, attempts)
}

type reorderRequest struct {
	ID        string               `json:"id"`
	Direction domain.MoveDirection `json:"direction"`
}

func (h *Handler) reorder(w http.ResponseWriter, r *http.Request) {
	var req reorderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid reorder payload", http.StatusBadRequest)
		return
	}
	scope := r.PathValue("scope")
	if err := h.ordering.Reorder(r.Context(), scope, req.ID, req.Direction); err != nil {
		h.writeError(w, err)
		return
	}
	records, err := h.ordering.Records(r.Context(), scope)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

// resultView is the learner-facing submission result. The quiz's showResults
// and showCorrectAnswers flags, frozen on the attempt, decide how much it
// reveals.
type resultView struct {
	AttemptID        string                    `json:"attemptId"`
	Status           domain.AttemptStatus      `json:"status"`
	TimeSpentSeconds int                       `json:"timeSpentSeconds"`
	TotalPoints      *float64                  `json:"totalPoints,omitempty"`
	MaxPoints        *float64                  `json:"maxPoints,omitempty"`
	ScorePercent     *float64                  `json:"scorePercent,omitempty"`
	Passed           *bool                     `json:"passed,omitempty"`
	Results          map[string]domain.QuestionResult `json:"results,omitempty"`
}

func newResultView(attempt domain.Attempt) resultView {
	view := resultView{
		AttemptID:        attempt.ID,
		Status:           attempt.Status,
		TimeSpentSeconds: attempt.TimeSpentSeconds,
	}
	if !attempt.ShowResults {
		return view
	}
	view.TotalPoints = &attempt.TotalPoints
	view.MaxPoints = &attempt.MaxPoints
	view.ScorePercent = &attempt.ScorePercent
	view.Passed = &attempt.Passed
	if attempt.ShowCorrectAnswers {
		view.Results = attempt.Results
	}
	return view
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrRecordNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrAttemptLimitExceeded),
		errors.Is(err, domain.ErrQuizNotPublished),
		errors.Is(err, domain.ErrAttemptNotActive),
		errors.Is(err, domain.ErrAttemptNotPendingManual),
		errors.Is(err, domain.ErrVersionConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, domain.ErrManualPointsOutOfRange):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		// Integrity faults and infrastructure failures land here; the
		// details stay in the log, not the response.
		log.Printf("internal error: %v", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}
