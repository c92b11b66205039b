package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/port"
)

// ============================================================
// 5. Análises salvas
// GET    /v1/analyses
// POST   /v1/analyses
// DELETE /v1/analyses/{id}
// ============================================================

func listAnalysesHandler(store port.AnalysisStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/analyses")
		defer span.End()

		analyses, err := store.List()
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, analyses)
	}
}

type saveAnalysisRequest struct {
	Name   string                   `json:"name"`
	Inputs domain.FinancialSnapshot `json:"inputs"`
	Result domain.TaxAnalysis       `json:"result"`
}

type saveAnalysisResponse struct {
	Saved bool `json:"saved"`
}

func saveAnalysisHandler(store port.AnalysisStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/analyses")
		defer span.End()

		var req saveAnalysisRequest
		if !decodeBody(w, r, &req) {
			return
		}
		if req.Name == "" {
			writeError(w, http.StatusBadRequest, "o nome da análise é obrigatório")
			return
		}

		saved, err := store.Save(req.Name, req.Inputs, req.Result)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, saveAnalysisResponse{Saved: saved})
	}
}

func deleteAnalysisHandler(store port.AnalysisStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/analyses/{id}")
		defer span.End()

		if err := store.Delete(chi.URLParam(r, "id")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}
