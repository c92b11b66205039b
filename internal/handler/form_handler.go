package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/service"
)

// ============================================================
// 4. Sessões de formulário e códigos CNAE
// POST   /v1/form
// DELETE /v1/form/{formId}
// GET    /v1/form/{formId}/cnaes
// POST   /v1/form/{formId}/cnaes
// PUT    /v1/form/{formId}/cnaes/{entryId}
// DELETE /v1/form/{formId}/cnaes/{entryId}
// POST   /v1/form/{formId}/cnaes/{entryId}/resolve
// ============================================================

type formOpenResponse struct {
	FormID string `json:"formId"`
}

func formOpenHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/form")
		defer span.End()

		writeJSON(w, http.StatusCreated, formOpenResponse{FormID: forms.Open()})
	}
}

func formCloseHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/form/{formId}")
		defer span.End()

		forms.Close(chi.URLParam(r, "formId"))
		w.WriteHeader(http.StatusNoContent)
	}
}

func formListCnaesHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/form/{formId}/cnaes")
		defer span.End()

		registry, err := forms.Registry(chi.URLParam(r, "formId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, registry.List())
	}
}

func formAddCnaeHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "POST /v1/form/{formId}/cnaes")
		defer span.End()

		registry, err := forms.Registry(chi.URLParam(r, "formId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusCreated, registry.Add())
	}
}

type cnaeEditRequest struct {
	Value string `json:"value"`
}

func formEditCnaeHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "PUT /v1/form/{formId}/cnaes/{entryId}")
		defer span.End()

		registry, err := forms.Registry(chi.URLParam(r, "formId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		var req cnaeEditRequest
		if !decodeBody(w, r, &req) {
			return
		}

		entry, err := registry.Edit(chi.URLParam(r, "entryId"), req.Value)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}

func formRemoveCnaeHandler(forms *service.FormService, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "DELETE /v1/form/{formId}/cnaes/{entryId}")
		defer span.End()

		registry, err := forms.Registry(chi.URLParam(r, "formId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		if err := registry.Remove(chi.URLParam(r, "entryId")); err != nil {
			handleServiceError(w, err, logger)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func formResolveCnaeHandler(forms *service.FormService, lookup *service.Lookup, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/form/{formId}/cnaes/{entryId}/resolve")
		defer span.End()

		registry, err := forms.Registry(chi.URLParam(r, "formId"))
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		entryID := chi.URLParam(r, "entryId")
		span.SetAttributes(attribute.String("entry.id", entryID))

		entry, err := registry.Resolve(ctx, entryID, lookup.DescribeCNAE)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, entry)
	}
}
