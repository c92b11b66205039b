package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/handler"
	"github.com/spassessoria/tax-advisor-go/internal/infra/cache"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/infra/storage"
	"github.com/spassessoria/tax-advisor-go/internal/service"
)

type fakeEngine struct {
	reply string
}

func (f *fakeEngine) Generate(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
	return &domain.EngineReply{Text: f.reply}, nil
}

func (f *fakeEngine) Suggest(ctx context.Context, description string) (*domain.CNAESuggestion, error) {
	return &domain.CNAESuggestion{Code: "6201-5/00", Description: "Desenvolvimento de software"}, nil
}

type fakeActivityLookup struct{}

func (fakeActivityLookup) Describe(ctx context.Context, code string) (string, error) {
	if code == "6201500" {
		return "Desenvolvimento de programas de computador sob encomenda", nil
	}
	return "", &domain.ErrNotFound{Resource: "cnae", ID: code}
}

type fakeCompanyLookup struct{}

func (fakeCompanyLookup) Fetch(ctx context.Context, cnpj string) (*domain.CompanyPrefetch, error) {
	return &domain.CompanyPrefetch{
		Nome:         "Acme LTDA",
		TipoProvavel: "Serviços",
		CNAEs:        []domain.CNAESuggestion{{Code: "6201-5/00", Description: "Desenvolvimento de software"}},
	}, nil
}

const engineReply = `{
	"analise": [
		{"regime": "Simples Nacional", "impostoEstimado": 180000, "aliquotaEfetiva": 0.15, "detalhes": "Anexo III."},
		{"regime": "Lucro Presumido", "impostoEstimado": 220000, "aliquotaEfetiva": 0.183, "detalhes": "Presunção de 32%."},
		{"regime": "Lucro Real", "impostoEstimado": 250000, "aliquotaEfetiva": 0.208, "detalhes": "Regime não cumulativo."},
		{"regime": "MEI", "impostoEstimado": 0, "aliquotaEfetiva": 0, "detalhes": "Acima do teto."}
	],
	"recomendacao": {"melhorRegime": "Simples Nacional", "economiaEstimada": 40000, "justificativa": "Menor carga."}
}`

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	logger := zap.NewNop()
	metrics := observability.NewMetrics()
	advisor := service.NewAdvisor(&fakeEngine{reply: engineReply}, metrics, logger)
	lookup := service.NewLookup(fakeActivityLookup{}, fakeCompanyLookup{}, cache.New[string](time.Minute), metrics, logger)
	forms := service.NewFormService()
	store := storage.NewFileStore(filepath.Join(t.TempDir(), "analyses.json"), logger)

	return handler.NewRouter(advisor, lookup, forms, store, metrics, logger)
}

func doJSON(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHealthz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/healthz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestReadyz(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/readyz", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestMetrics(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
}

func TestAnalysisEndpoint(t *testing.T) {
	router := newTestRouter(t)

	snapshot := domain.FinancialSnapshot{
		NomeEmpresa:    "Acme Serviços LTDA",
		Faturamento:    "1200000.00",
		FolhaPagamento: "200000.00",
		TipoEmpresa:    "Serviços",
		CNAEs:          []string{"6201-5/00"},
		DynamicExpenses: []domain.ExpenseItem{
			{Name: "Aluguel", Value: "50000.00", IsDeductible: true},
		},
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/analysis", snapshot)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Result *domain.TaxAnalysis `json:"result"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Result.Analise) != 4 {
		t.Errorf("expected 4 regimes, got %d", len(resp.Result.Analise))
	}
}

func TestAnalysisEndpointRejectsInvalidSnapshot(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/analysis", domain.FinancialSnapshot{})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestCnaeDescribeEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/cnae/6201500", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if !strings.Contains(rec.Body.String(), "Desenvolvimento") {
		t.Errorf("unexpected body: %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/cnae/9999999", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/cnae/123", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed code, got %d", rec.Code)
	}
}

func TestCompanyPrefetchEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/company/11222333000181", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/company/11222333000199", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for bad checksum, got %d", rec.Code)
	}
}

func TestFormLifecycle(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/form", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	var opened struct {
		FormID string `json:"formId"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &opened); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	base := "/v1/form/" + opened.FormID + "/cnaes"

	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var entries []domain.ActivityCode
	if err := json.Unmarshal(rec.Body.Bytes(), &entries); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}

	entryID := entries[0].ID
	rec = doJSON(t, router, http.MethodPut, base+"/"+entryID, map[string]string{"value": "6201500"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var edited domain.ActivityCode
	if err := json.Unmarshal(rec.Body.Bytes(), &edited); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if edited.Value != "6201-5/00" {
		t.Errorf("expected masked value, got %q", edited.Value)
	}

	rec = doJSON(t, router, http.MethodPost, base+"/"+entryID+"/resolve", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resolved domain.ActivityCode
	if err := json.Unmarshal(rec.Body.Bytes(), &resolved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resolved.Description == "" {
		t.Error("expected resolved description")
	}

	// The last entry cannot be removed.
	rec = doJSON(t, router, http.MethodDelete, base+"/"+entryID, nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/form/"+opened.FormID, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("expected 204, got %d", rec.Code)
	}
	rec = doJSON(t, router, http.MethodGet, base, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 after close, got %d", rec.Code)
	}
}

func TestSavedAnalysesLifecycle(t *testing.T) {
	router := newTestRouter(t)

	body := map[string]any{
		"name":   "Cenário 2026",
		"inputs": domain.FinancialSnapshot{NomeEmpresa: "Acme", Faturamento: "1200000.00"},
		"result": domain.TaxAnalysis{
			Analise:      []domain.RegimeResult{{Regime: "Simples Nacional", ImpostoEstimado: 180000, AliquotaEfetiva: 0.15, Detalhes: "Anexo III."}},
			Recomendacao: domain.Recommendation{MelhorRegime: "Simples Nacional", EconomiaEstimada: 40000, Justificativa: "Menor carga."},
		},
	}
	rec := doJSON(t, router, http.MethodPost, "/v1/analyses", body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/analyses", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var saved []domain.SavedAnalysis
	if err := json.Unmarshal(rec.Body.Bytes(), &saved); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(saved) != 1 || saved[0].Name != "Cenário 2026" {
		t.Fatalf("unexpected saved list: %+v", saved)
	}

	rec = doJSON(t, router, http.MethodDelete, "/v1/analyses/"+saved[0].ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodGet, "/v1/analyses", nil)
	if body := strings.TrimSpace(rec.Body.String()); body != "[]" {
		t.Errorf("expected empty list, got %s", body)
	}
}

func TestExportEndpoints(t *testing.T) {
	router := newTestRouter(t)

	payload := map[string]any{
		"inputs": domain.FinancialSnapshot{NomeEmpresa: "Acme", AnoReferencia: "2026", Faturamento: "1200000.00"},
		"result": domain.TaxAnalysis{
			Analise:      []domain.RegimeResult{{Regime: "Simples Nacional", ImpostoEstimado: 180000, AliquotaEfetiva: 0.15, Detalhes: "Anexo III."}},
			Recomendacao: domain.Recommendation{MelhorRegime: "Simples Nacional", EconomiaEstimada: 40000, Justificativa: "Menor carga."},
		},
	}

	rec := doJSON(t, router, http.MethodPost, "/v1/export/csv", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("unexpected content type %q", ct)
	}
	if cd := rec.Header().Get("Content-Disposition"); !strings.Contains(cd, "planejamento_2026_Acme.csv") {
		t.Errorf("unexpected disposition %q", cd)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/export/share", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "wa.me") {
		t.Errorf("expected wa.me link, got %s", rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/export/pdf", payload)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/pdf" {
		t.Errorf("unexpected content type %q", ct)
	}

	// Nothing to export.
	rec = doJSON(t, router, http.MethodPost, "/v1/export/csv", map[string]any{"inputs": domain.FinancialSnapshot{}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
}

func TestEngineMetricsEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/v1/metrics/engine", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var snapshot domain.EngineMetrics
	if err := json.Unmarshal(rec.Body.Bytes(), &snapshot); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func TestCnaeSuggestEndpoint(t *testing.T) {
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/cnae/suggest", map[string]string{"description": "desenvolvimento de software"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var suggestion domain.CNAESuggestion
	if err := json.Unmarshal(rec.Body.Bytes(), &suggestion); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if suggestion.Code != "6201-5/00" {
		t.Errorf("unexpected code %q", suggestion.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/cnae/suggest", map[string]string{"description": ""})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for empty description, got %d", rec.Code)
	}
}

