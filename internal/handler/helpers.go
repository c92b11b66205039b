package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// ============================================================
// Shared helper functions
// ============================================================

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

// handleServiceError maps domain errors to HTTP responses.
func handleServiceError(w http.ResponseWriter, err error, logger *zap.Logger) {
	var format *domain.ErrFormat
	var checksum *domain.ErrChecksum
	var validation *domain.ErrValidation
	var notFound *domain.ErrNotFound
	var schema *domain.ErrSchema
	var external *domain.ErrExternalService
	var circuitOpen *domain.ErrCircuitOpen
	var timeout *domain.ErrTimeout

	switch {
	case errors.As(err, &format):
		logger.Debug("format error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, format.Message)
	case errors.As(err, &checksum):
		logger.Debug("checksum error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, "CNPJ inválido. Verifique os dígitos informados.")
	case errors.As(err, &validation):
		logger.Debug("validation error", zap.String("error", err.Error()))
		writeError(w, http.StatusBadRequest, validation.Message)
	case errors.As(err, &notFound):
		logger.Debug("not found", zap.String("error", err.Error()))
		writeError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &schema):
		// The whole reply was discarded; the client gets a retryable error,
		// never a partial analysis.
		logger.Error("engine reply rejected", zap.Error(err))
		writeError(w, http.StatusBadGateway, "Não foi possível obter a análise. Verifique os dados e tente novamente.")
	case errors.As(err, &circuitOpen):
		logger.Error("circuit breaker open", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.As(err, &timeout):
		logger.Error("request timeout", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	case errors.As(err, &external):
		logger.Error("external service error", zap.String("service", external.Service), zap.Error(err))
		if external.Service == "engine" {
			writeError(w, http.StatusBadGateway, "Não foi possível obter a análise. Verifique os dados e tente novamente.")
		} else {
			writeError(w, http.StatusBadGateway, "Serviço externo indisponível. Tente novamente.")
		}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.Debug("request cancelled", zap.Error(err))
		writeError(w, http.StatusGatewayTimeout, err.Error())
	default:
		logger.Error("internal error", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}
