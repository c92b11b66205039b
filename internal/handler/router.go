package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/port"
	"github.com/spassessoria/tax-advisor-go/internal/service"
)

var tracer = otel.Tracer("handler")

// NewRouter creates the HTTP router with all routes and middleware.
// Routes follow the API contract defined for the tax advisor frontend.
func NewRouter(advisor *service.Advisor, lookup *service.Lookup, forms *service.FormService, store port.AnalysisStore, metrics *observability.Metrics, logger *zap.Logger) http.Handler {
	r := chi.NewRouter()

	// --- Middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(observability.ZapLoggerMiddleware(logger))
	r.Use(observability.TracingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Heartbeat("/ping"))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// --- Operational endpoints ---
	r.Get("/healthz", healthzHandler(store, logger))
	r.Get("/readyz", readyzHandler())
	r.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))

	// --- API v1 ---
	r.Route("/v1", func(r chi.Router) {

		// =============================================
		// 1. 📊 Análise Tributária
		// POST /v1/analysis
		// =============================================
		r.Post("/analysis", analysisHandler(advisor, logger))

		// =============================================
		// 2. 🔎 Registros públicos
		// GET  /v1/cnae/{code}
		// POST /v1/cnae/suggest
		// GET  /v1/company/{cnpj}
		// =============================================
		r.Get("/cnae/{code}", cnaeDescribeHandler(lookup, logger))
		r.Post("/cnae/suggest", cnaeSuggestHandler(advisor, logger))
		r.Get("/company/{cnpj}", companyPrefetchHandler(lookup, logger))

		// =============================================
		// 3. 📝 Sessões de formulário
		// =============================================
		r.Post("/form", formOpenHandler(forms, logger))
		r.Delete("/form/{formId}", formCloseHandler(forms, logger))
		r.Get("/form/{formId}/cnaes", formListCnaesHandler(forms, logger))
		r.Post("/form/{formId}/cnaes", formAddCnaeHandler(forms, logger))
		r.Put("/form/{formId}/cnaes/{entryId}", formEditCnaeHandler(forms, logger))
		r.Delete("/form/{formId}/cnaes/{entryId}", formRemoveCnaeHandler(forms, logger))
		r.Post("/form/{formId}/cnaes/{entryId}/resolve", formResolveCnaeHandler(forms, lookup, logger))

		// =============================================
		// 4. 💾 Análises salvas
		// =============================================
		r.Get("/analyses", listAnalysesHandler(store, logger))
		r.Post("/analyses", saveAnalysisHandler(store, logger))
		r.Delete("/analyses/{id}", deleteAnalysisHandler(store, logger))

		// =============================================
		// 5. 📤 Exportação
		// =============================================
		r.Post("/export/csv", exportCSVHandler(logger))
		r.Post("/export/pdf", exportPDFHandler(logger))
		r.Post("/export/share", exportShareHandler(logger))

		// =============================================
		// 6. 📈 Métricas do motor
		// GET /v1/metrics/engine
		// =============================================
		r.Get("/metrics/engine", engineMetricsHandler(metrics, logger))
	})

	return r
}

func healthzHandler(store port.AnalysisStore, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		now := time.Now().Format(time.RFC3339)

		services := []domain.ServiceHealth{
			{Name: "tax-advisor-api", Status: "healthy", LatencyMs: 0, LastChecked: now},
		}

		if store != nil {
			start := time.Now()
			_, err := store.List()
			status := "healthy"
			if err != nil {
				logger.Warn("storage health check failed", zap.Error(err))
				status = "degraded"
			}
			services = append(services, domain.ServiceHealth{
				Name: "storage", Status: status,
				LatencyMs: time.Since(start).Milliseconds(), LastChecked: now,
			})
		}

		overall := "healthy"
		for _, s := range services {
			if s.Status == "degraded" {
				overall = "degraded"
			}
		}

		writeJSON(w, http.StatusOK, domain.HealthStatus{Status: overall, Services: services})
	}
}

func readyzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	}
}
