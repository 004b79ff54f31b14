package handler

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"

	"github.com/finmate/finmate-api/internal/apperrors"
	"github.com/finmate/finmate-api/internal/auth"
	"github.com/finmate/finmate-api/internal/config"
	"github.com/finmate/finmate-api/internal/integrations/advisor"
	"github.com/finmate/finmate-api/internal/middleware"
	"github.com/finmate/finmate-api/internal/models"
	"github.com/finmate/finmate-api/internal/service"
)

const apiVersion = "2.0.0"

type Handler struct {
	svc      *service.Service
	verifier *auth.Verifier
	advisor  *advisor.Client
	db       *sql.DB
	log      *logrus.Logger
}

func NewHandler(svc *service.Service, verifier *auth.Verifier, adv *advisor.Client, db *sql.DB, log *logrus.Logger) *Handler {
	return &Handler{svc: svc, verifier: verifier, advisor: adv, db: db, log: log}
}

// NewRouter wires all API routes plus the CORS and security-header
// wrappers, which must run even for unrouted preflight requests.
func NewRouter(h *Handler, verifier *auth.Verifier, svc *service.Service, cfg *config.Config) http.Handler {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/api/status", h.Status).Methods(http.MethodGet)
	r.HandleFunc("/api/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/auth/verify", h.VerifyAuth).Methods(http.MethodPost)

	// Protected routes
	api := r.PathPrefix("/api").Subrouter()
	api.Use(middleware.AuthMiddleware(verifier, svc))
	api.HandleFunc("/expenses", h.ListExpenses).Methods(http.MethodGet)
	api.HandleFunc("/expenses", h.CreateExpense).Methods(http.MethodPost)
	api.HandleFunc("/expenses/{id:[0-9]+}", h.DeleteExpense).Methods(http.MethodDelete)
	api.HandleFunc("/stats", h.GetStats).Methods(http.MethodGet)
	api.HandleFunc("/tips", h.GetTips).Methods(http.MethodPost)
	api.HandleFunc("/learning/path", h.LearningPath).Methods(http.MethodGet)

	return middleware.SecurityHeaders(middleware.CORS(cfg.AllowedOrigins)(r))
}

// Status reports basic service information
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, models.StatusResponse{
		Message:  "FinMate API is running!",
		Version:  apiVersion,
		Status:   "healthy",
		Features: []string{"authentication", "ai_tips", "user_stats"},
	})
}

// Health reports database and text-generator availability
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	database := "connected"
	if err := h.db.PingContext(r.Context()); err != nil {
		database = "unavailable"
	}
	aiModel := "unavailable"
	if h.advisor.Available() {
		aiModel = "available"
	}
	h.writeJSON(w, http.StatusOK, models.HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Database:  database,
		AIModel:   aiModel,
	})
}

// VerifyAuth verifies a token supplied in the request body and returns
// the user it resolves to, creating the user on first sight.
func (h *Handler) VerifyAuth(w http.ResponseWriter, r *http.Request) {
	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	ident, err := h.verifier.Verify(req.Token)
	if errors.Is(err, apperrors.ErrTokenMissing) {
		h.writeErrorMessage(w, http.StatusBadRequest, "Token required")
		return
	}
	if err != nil {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	user, err := h.svc.ResolveUser(r.Context(), ident)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.VerifyResponse{
		User:    user,
		Message: "Authentication successful",
	})
}

// ListExpenses returns the authenticated user's expenses
func (h *Handler) ListExpenses(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	expenses, err := h.svc.ListExpenses(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, expenses)
}

// CreateExpense inserts an expense for the authenticated user
func (h *Handler) CreateExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req models.CreateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}
	expense, err := h.svc.CreateExpense(r.Context(), user.ID, req)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, expense)
}

// DeleteExpense removes an expense owned by the authenticated user
func (h *Handler) DeleteExpense(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	expenseID, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		h.writeErrorMessage(w, http.StatusNotFound, "Expense not found")
		return
	}
	if err := h.svc.DeleteExpense(r.Context(), user.ID, expenseID); err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, models.MessageResponse{Message: "Expense deleted successfully"})
}

// GetStats returns the read-path aggregation for the authenticated user
func (h *Handler) GetStats(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	report, err := h.svc.GetStats(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, report)
}

// GetTips returns one AI-generated tip for the submitted spending
// summary. Generator failures surface as fallback tips, never errors.
func (h *Handler) GetTips(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	var req models.TipsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeErrorMessage(w, http.StatusBadRequest, "Invalid JSON data")
		return
	}

	expenses := make([]advisor.Expense, 0, len(req.Expenses))
	for _, e := range req.Expenses {
		expenses = append(expenses, advisor.Expense{Amount: e.Amount, Category: e.Category})
	}
	tip := h.advisor.Advise(r.Context(), user.Email, expenses)
	h.writeJSON(w, http.StatusOK, models.TipResponse{Tip: tip.Tip, Category: tip.Category})
}

// LearningPath returns the module catalog matching the user's spending
func (h *Handler) LearningPath(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
		return
	}
	path, err := h.svc.LearningPath(r.Context(), user.ID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, path)
}

func (h *Handler) writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Errorf("Failed to encode response: %v", err)
	}
}

func (h *Handler) writeErrorMessage(w http.ResponseWriter, code int, message string) {
	h.writeJSON(w, code, models.ErrorResponse{Error: message})
}

// writeError maps the error taxonomy onto HTTP status codes. Unmatched
// errors become a 500 carrying the error string.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var validation *apperrors.ValidationError
	switch {
	case errors.As(err, &validation):
		h.writeErrorMessage(w, http.StatusBadRequest, validation.Message)
	case errors.Is(err, apperrors.ErrNotFound):
		h.writeErrorMessage(w, http.StatusNotFound, "Expense not found")
	case errors.Is(err, apperrors.ErrTokenMissing), errors.Is(err, apperrors.ErrTokenInvalid):
		h.writeErrorMessage(w, http.StatusUnauthorized, "Authentication required")
	default:
		h.log.Errorf("Request failed: %v", err)
		h.writeErrorMessage(w, http.StatusInternalServerError, err.Error())
	}
}
