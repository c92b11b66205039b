package handler

import (
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/export"
)

// ============================================================
// 6. Exportação — CSV, PDF e WhatsApp
// POST /v1/export/csv
// POST /v1/export/pdf
// POST /v1/export/share
// ============================================================

type exportRequest struct {
	Inputs domain.FinancialSnapshot `json:"inputs"`
	Result domain.TaxAnalysis       `json:"result"`
}

func (req *exportRequest) valid(w http.ResponseWriter) bool {
	if len(req.Result.Analise) == 0 {
		writeError(w, http.StatusBadRequest, "não há análise para exportar")
		return false
	}
	return true
}

func exportCSVHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/export/csv")
		defer span.End()

		var req exportRequest
		if !decodeBody(w, r, &req) || !req.valid(w) {
			return
		}

		body := export.CSV(&req.Inputs, &req.Result)
		w.Header().Set("Content-Type", "text/csv; charset=utf-8")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.CSVFilename(&req.Inputs)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func exportPDFHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/export/pdf")
		defer span.End()

		var req exportRequest
		if !decodeBody(w, r, &req) || !req.valid(w) {
			return
		}

		body, err := export.PDF(&req.Inputs, &req.Result)
		if err != nil {
			logger.Error("pdf generation failed", zap.Error(err))
			writeError(w, http.StatusInternalServerError, "não foi possível gerar o PDF")
			return
		}

		w.Header().Set("Content-Type", "application/pdf")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.PDFFilename(&req.Inputs)))
		w.WriteHeader(http.StatusOK)
		w.Write(body)
	}
}

func exportShareHandler(logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/export/share")
		defer span.End()

		var req exportRequest
		if !decodeBody(w, r, &req) || !req.valid(w) {
			return
		}

		writeJSON(w, http.StatusOK, export.Share(&req.Inputs, &req.Result))
	}
}
