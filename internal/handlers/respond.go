package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/taskearn/ledger/internal/domain"
	"github.com/taskearn/ledger/internal/middleware"
	"github.com/taskearn/ledger/internal/services"
	"go.uber.org/zap"
)

const maxBodyBytes = 1_048_576

// statusFor maps domain error codes onto HTTP statuses.
func statusFor(code string) int {
	switch code {
	case domain.ErrCodeAlreadyCompleted, domain.ErrCodeConflict, domain.ErrCodeBatchAlreadyApplied:
		return http.StatusConflict
	case domain.ErrCodeQuotaExceeded:
		return http.StatusTooManyRequests
	case domain.ErrCodeInsufficientPosition, domain.ErrCodeWithdrawalNotAllowed:
		return http.StatusForbidden
	case domain.ErrCodeInsufficientFunds, domain.ErrCodeInvalidUpgrade:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeValidation:
		return http.StatusBadRequest
	case domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case domain.ErrCodePartialDistribution:
		return http.StatusAccepted
	default:
		return http.StatusInternalServerError
	}
}

// sendError writes err as a coded JSON error. Unknown errors are logged and hidden.
func sendError(w http.ResponseWriter, logger *zap.Logger, err error) {
	code := domain.CodeOf(err)
	status := statusFor(code)
	if status == http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	if code == "" {
		services.SendErrorResponse(w, "Internal server error", status, nil)
		return
	}
	services.SendCodedErrorResponse(w, code, domain.MessageOf(err), status)
}

func sendJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

// decodeBody reads a single JSON object into dst and validates it. It writes the error
// response itself and reports whether the handler may continue.
func decodeBody(w http.ResponseWriter, r *http.Request, validator *services.ValidationHelper, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	if err := dec.Decode(dst); err != nil {
		services.SendErrorResponse(w, "Invalid request body", http.StatusBadRequest, nil)
		return false
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		services.SendErrorResponse(w, "Request body must only contain a single JSON object", http.StatusBadRequest, nil)
		return false
	}
	if err := validator.ValidateStruct(dst); err != nil {
		services.SendErrorResponse(w, "Validation failed", http.StatusBadRequest, err)
		return false
	}
	return true
}

func currentUser(w http.ResponseWriter, r *http.Request) (int64, bool) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		services.SendErrorResponse(w, "Unauthorized", http.StatusUnauthorized, nil)
	}
	return userID, ok
}

func pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		services.SendErrorResponse(w, "Invalid "+name, http.StatusBadRequest, nil)
		return 0, false
	}
	return id, true
}
