package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"qrypta/pqc/internal/models"
	"qrypta/pqc/internal/prover"
)

// maxRequestBytes bounds a /prove request body
const maxRequestBytes = 1 << 20

// Prover produces proof material for a proving request
type Prover interface {
	Prove(req prover.ProveRequest) (*prover.ProveResponse, error)
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	prover Prover
	logger *zap.Logger
}

// NewHandler creates a new API handler
func NewHandler(p Prover, logger *zap.Logger) *Handler {
	return &Handler{
		prover: p,
		logger: logger,
	}
}

// ==================== Health Check ====================

// HandleHealth returns service health status
func (h *Handler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
		Mode:    "fake",
	}
	respondJSON(w, http.StatusOK, response)
}

// ==================== Proving ====================

// HandleProve handles POST /prove
func (h *Handler) HandleProve(w http.ResponseWriter, r *http.Request) {
	var req prover.ProveRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBytes))
	if err := decoder.Decode(&req); err != nil {
		h.logger.Error("Failed to decode request", zap.Error(err))
		respondError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	h.logger.Info("Proving request",
		zap.String("chain", req.Chain),
		zap.String("recipient", req.Recipient),
		zap.String("amount", req.Amount),
		zap.Bool("fake", req.Fake),
		zap.Int("deadline_minutes", req.DeadlineMinutes))

	resp, err := h.prover.Prove(req)
	if err != nil {
		switch {
		case errors.Is(err, prover.ErrRealProofUnsupported):
			respondError(w, http.StatusNotImplemented, "Real proving unavailable", err)
		case models.KindOf(err) != "":
			respondError(w, http.StatusBadRequest, "Invalid proving request", err)
		default:
			h.logger.Error("Failed to generate proof", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "Failed to generate proof", err)
		}
		return
	}

	respondJSON(w, http.StatusOK, resp)
}

// ==================== Helper Functions ====================

// respondJSON sends a JSON response
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log error but can't send response since headers already written
		fmt.Printf("Failed to encode JSON response: %v\n", err)
	}
}

// respondError sends an error response
func respondError(w http.ResponseWriter, statusCode int, message string, err error) {
	errorMsg := message
	if err != nil {
		errorMsg = fmt.Sprintf("%s: %v", message, err)
	}

	response := ErrorResponse{
		Error:   message,
		Message: errorMsg,
		Kind:    string(models.KindOf(err)),
	}

	respondJSON(w, statusCode, response)
}
