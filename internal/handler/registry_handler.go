package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/service"
)

// ============================================================
// 3. Registros públicos — CNAE e CNPJ
// GET  /v1/cnae/{code}
// POST /v1/cnae/suggest
// GET  /v1/company/{cnpj}
// ============================================================

type cnaeDescriptionResponse struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

func cnaeDescribeHandler(svc *service.Lookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/cnae/{code}")
		defer span.End()

		code := chi.URLParam(r, "code")
		span.SetAttributes(attribute.String("cnae.code", code))

		description, err := svc.DescribeCNAE(ctx, code)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, cnaeDescriptionResponse{Code: code, Description: description})
	}
}

type cnaeSuggestRequest struct {
	Description string `json:"description"`
}

func cnaeSuggestHandler(svc *service.Advisor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/cnae/suggest")
		defer span.End()

		var req cnaeSuggestRequest
		if !decodeBody(w, r, &req) {
			return
		}

		suggestion, err := svc.SuggestCNAE(ctx, req.Description)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, suggestion)
	}
}

func companyPrefetchHandler(svc *service.Lookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "GET /v1/company/{cnpj}")
		defer span.End()

		cnpj := chi.URLParam(r, "cnpj")

		prefetch, err := svc.PrefetchCompany(ctx, cnpj)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, prefetch)
	}
}
