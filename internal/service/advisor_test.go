package service

import (
	"context"
	"errors"
	"testing"

	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
)

type mockEngine struct {
	generateFn func(ctx context.Context, system, prompt string) (*domain.EngineReply, error)
	suggestFn  func(ctx context.Context, description string) (*domain.CNAESuggestion, error)
}

func (m *mockEngine) Generate(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
	return m.generateFn(ctx, system, prompt)
}

func (m *mockEngine) Suggest(ctx context.Context, description string) (*domain.CNAESuggestion, error) {
	return m.suggestFn(ctx, description)
}

const conformingReply = `{
	"analise": [
		{"regime": "Simples Nacional", "impostoEstimado": 180000, "aliquotaEfetiva": 0.15, "detalhes": "Anexo III com Fator R."},
		{"regime": "Lucro Presumido", "impostoEstimado": 220000, "aliquotaEfetiva": 0.183, "detalhes": "Presunção de 32%."},
		{"regime": "Lucro Real", "impostoEstimado": 250000, "aliquotaEfetiva": 0.208, "detalhes": "PIS/COFINS não cumulativo."},
		{"regime": "MEI", "impostoEstimado": 0, "aliquotaEfetiva": 0, "detalhes": "Faturamento acima do teto de R$ 81.000,00."}
	],
	"recomendacao": {"melhorRegime": "Simples Nacional", "economiaEstimada": 40000, "justificativa": "Menor carga total no Anexo III."}
}`

func validSnapshot() *domain.FinancialSnapshot {
	return &domain.FinancialSnapshot{
		NomeEmpresa:    "Acme Serviços LTDA",
		PeriodoAnalise: "anual",
		AnoReferencia:  "2026",
		Faturamento:    "1200000.00",
		FolhaPagamento: "200000.00",
		TipoEmpresa:    "Serviços",
		CNAEs:          []string{"6201-5/00"},
		DynamicExpenses: []domain.ExpenseItem{
			{Name: "Aluguel", Value: "50000.00", IsDeductible: true},
		},
	}
}

func TestAdvisorAnalyzeSuccess(t *testing.T) {
	engine := &mockEngine{
		generateFn: func(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
			if system == "" || prompt == "" {
				t.Error("expected non-empty system instruction and prompt")
			}
			return &domain.EngineReply{
				Text:       conformingReply,
				TokensUsed: domain.TokenUsage{PromptTokens: 800, CompletionTokens: 400, TotalTokens: 1200},
			}, nil
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	result, err := advisor.Analyze(context.Background(), validSnapshot())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.Analise) != 4 {
		t.Errorf("expected 4 regimes, got %d", len(result.Analise))
	}
	if result.Recomendacao.MelhorRegime != "Simples Nacional" {
		t.Errorf("unexpected recommendation %q", result.Recomendacao.MelhorRegime)
	}
}

func TestAdvisorAnalyzeInvalidSnapshotSkipsEngine(t *testing.T) {
	called := false
	engine := &mockEngine{
		generateFn: func(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
			called = true
			return nil, nil
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	snap := validSnapshot()
	snap.Faturamento = ""

	_, err := advisor.Analyze(context.Background(), snap)
	var validation *domain.ErrValidation
	if !errors.As(err, &validation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if called {
		t.Error("engine must not be called for an invalid snapshot")
	}
}

func TestAdvisorAnalyzeEngineError(t *testing.T) {
	wantErr := &domain.ErrExternalService{Service: "engine", Err: errors.New("upstream 503")}
	engine := &mockEngine{
		generateFn: func(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
			return nil, wantErr
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	_, err := advisor.Analyze(context.Background(), validSnapshot())
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
}

func TestAdvisorAnalyzeSchemaViolationDiscardsReply(t *testing.T) {
	engine := &mockEngine{
		generateFn: func(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
			return &domain.EngineReply{Text: `{"analise": []}`}, nil
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	result, err := advisor.Analyze(context.Background(), validSnapshot())
	var schema *domain.ErrSchema
	if !errors.As(err, &schema) {
		t.Fatalf("expected ErrSchema, got %v", err)
	}
	if result != nil {
		t.Error("no partial analysis may survive a schema violation")
	}
}

func TestAdvisorAnalyzeCancelledContext(t *testing.T) {
	engine := &mockEngine{
		generateFn: func(ctx context.Context, system, prompt string) (*domain.EngineReply, error) {
			t.Error("engine must not be called with a cancelled context")
			return nil, nil
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := advisor.Analyze(ctx, validSnapshot()); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestAdvisorSuggestCNAE(t *testing.T) {
	engine := &mockEngine{
		suggestFn: func(ctx context.Context, description string) (*domain.CNAESuggestion, error) {
			return &domain.CNAESuggestion{Code: "6201-5/00", Description: "Desenvolvimento de software sob encomenda"}, nil
		},
	}
	advisor := NewAdvisor(engine, observability.NewMetrics(), zap.NewNop())

	suggestion, err := advisor.SuggestCNAE(context.Background(), "desenvolvimento de software")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if suggestion.Code != "6201-5/00" {
		t.Errorf("unexpected code %q", suggestion.Code)
	}

	if _, err := advisor.SuggestCNAE(context.Background(), ""); err == nil {
		t.Error("expected error for empty description")
	}
}
