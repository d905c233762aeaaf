// backend/internal/quiz/handler.go
package quiz

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"elephant-quiz/internal/auth"
	"elephant-quiz/internal/models"

	"github.com/gorilla/mux"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// RegisterRoutes mounts the player routes on api, which must already
// require a token, and the public routes on public.
func (h *Handler) RegisterRoutes(api, public *mux.Router) {
	api.HandleFunc("/sessions", h.StartSession).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}", h.GetSession).Methods("GET")
	api.HandleFunc("/sessions/{id}/answer", h.SubmitAnswer).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{id}/reset", h.ResetSession).Methods("POST", "OPTIONS")
	api.HandleFunc("/history", h.GetHistory).Methods("GET")
	api.HandleFunc("/results/{id}/scorecard.pdf", h.GetScorecard).Methods("GET")
	public.HandleFunc("/leaderboard", h.GetLeaderboard).Methods("GET")
	public.HandleFunc("/questions/count", h.CountQuestions).Methods("GET")
}

type AnswerRequest struct {
	// Index is the question the player answered; omitted means the current one.
	Index *int   `json:"index"`
	Label string `json:"label"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("Error encoding response: %v", err)
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound), errors.Is(err, ErrRecordNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidOption):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotPlaying), errors.Is(err, ErrNotFinished), errors.Is(err, ErrStaleQuestion):
		return http.StatusConflict
	case errors.Is(err, ErrBankTooSmall):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) StartSession(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.FromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.StartSession(r.Context(), id.UserID, id.Username)
	if err != nil {
		log.Printf("Error starting session for user %d: %v", id.UserID, err)
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, session)
}

func (h *Handler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.GetSession(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req AnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	label, err := models.ParseOptionLabel(req.Label)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	index := -1
	if req.Index != nil {
		index = *req.Index
	}

	session, err := h.service.SubmitAnswer(r.Context(), userID, mux.Vars(r)["id"], index, label)
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) ResetSession(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	session, err := h.service.ResetSession(r.Context(), userID, mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	records, err := h.service.GetHistory(r.Context(), userID)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, records)
}

func (h *Handler) GetScorecard(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}
	recordID, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		http.Error(w, "Invalid record id", http.StatusBadRequest)
		return
	}

	pdf, err := h.service.Scorecard(r.Context(), userID, uint(recordID))
	if err != nil {
		http.Error(w, err.Error(), statusFor(err))
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `inline; filename="scorecard.pdf"`)
	w.Write(pdf)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	leaderboard, err := h.service.GetLeaderboard(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, leaderboard)
}

func (h *Handler) CountQuestions(w http.ResponseWriter, r *http.Request) {
	count, err := h.service.CountQuestions()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"count": count})
}
