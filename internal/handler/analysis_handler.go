package handler

import (
	"net/http"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/service"
)

// ============================================================
// 1. Análise Tributária — POST /v1/analysis
// ============================================================

type analysisResponse struct {
	Result    *domain.TaxAnalysis `json:"result"`
	LatencyMs int64               `json:"latency_ms"`
}

func analysisHandler(svc *service.Advisor, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, span := tracer.Start(r.Context(), "POST /v1/analysis")
		defer span.End()

		var snapshot domain.FinancialSnapshot
		if !decodeBody(w, r, &snapshot) {
			return
		}
		span.SetAttributes(attribute.String("company.name", snapshot.NomeEmpresa))

		start := time.Now()
		result, err := svc.Analyze(ctx, &snapshot)
		if err != nil {
			handleServiceError(w, err, logger)
			return
		}

		writeJSON(w, http.StatusOK, analysisResponse{
			Result:    result,
			LatencyMs: time.Since(start).Milliseconds(),
		})
	}
}

// ============================================================
// 2. Métricas do motor — GET /v1/metrics/engine
// ============================================================

func engineMetricsHandler(metrics *observability.Metrics, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_, span := tracer.Start(r.Context(), "GET /v1/metrics/engine")
		defer span.End()

		writeJSON(w, http.StatusOK, metrics.GetEngineSnapshot())
	}
}
