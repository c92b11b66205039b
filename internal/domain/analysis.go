// Package domain defines the core business entities for the tax advisor.
// These models are independent of external services and represent the
// canonical data structures used throughout the backend.
//
// JSON field names are part of the wire contract with the existing frontend
// and with the reasoning engine, so they stay in Portuguese.
package domain

// ============================================================
// Tax regimes
// ============================================================

// The four mutually exclusive Brazilian corporate tax regimes the engine
// is allowed to return. Anything else is a schema violation.
const (
	RegimeSimplesNacional = "Simples Nacional"
	RegimeLucroPresumido  = "Lucro Presumido"
	RegimeLucroReal       = "Lucro Real"
	RegimeMEI             = "MEI"
)

// Regimes lists the closed set of regime names, in the order the engine
// is asked to evaluate them.
var Regimes = []string{RegimeSimplesNacional, RegimeLucroPresumido, RegimeLucroReal, RegimeMEI}

// KnownRegime reports whether name is one of the four accepted regimes.
func KnownRegime(name string) bool {
	for _, r := range Regimes {
		if r == name {
			return true
		}
	}
	return false
}

// ============================================================
// Financial snapshot (analysis inputs)
// ============================================================

// ExpenseItem is one user-entered expense line. Value is a canonical decimal
// string (dot separator, at most 2 fraction digits); empty means zero.
type ExpenseItem struct {
	Name         string `json:"name"`
	Value        string `json:"value"`
	Icon         string `json:"icon,omitempty"`
	IsDeductible bool   `json:"isDeductible"`
}

// FinancialSnapshot is the canonical input bundle for one analysis run.
// It is assembled by the frontend form and immutable once submitted.
// All monetary fields are canonical decimal strings (see internal/money).
type FinancialSnapshot struct {
	NomeEmpresa          string        `json:"nomeEmpresa"`
	Email                string        `json:"email,omitempty"`
	CNPJ                 string        `json:"cnpj"`
	PeriodoAnalise       string        `json:"periodoAnalise"`
	AnoReferencia        string        `json:"anoReferencia,omitempty"`
	Faturamento          string        `json:"faturamento"`
	FaturamentoMonofasico string       `json:"faturamentoMonofasico,omitempty"`
	FolhaPagamento       string        `json:"folhaPagamento"`
	ProLabore            string        `json:"proLabore,omitempty"`
	PrejuizoFiscal       string        `json:"prejuizoFiscal,omitempty"`
	TipoEmpresa          string        `json:"tipoEmpresa"`
	DynamicExpenses      []ExpenseItem `json:"dynamicExpenses,omitempty"`
	// CNAEs is ordered; the first entry is the primary activity code.
	CNAEs []string `json:"cnaes"`
}

// ============================================================
// Engine output
// ============================================================

// RegimeResult is one per-regime entry produced by the reasoning engine.
// ImpostoEstimado == 0 is the sentinel for "ineligible".
type RegimeResult struct {
	Regime                string  `json:"regime"`
	ImpostoEstimado       float64 `json:"impostoEstimado"`
	ISSICMSEstimado       float64 `json:"issIcmsEstimado,omitempty"`
	AliquotaEfetiva       float64 `json:"aliquotaEfetiva"`
	ValorCreditoPisCofins float64 `json:"valorCreditoPisCofins,omitempty"`
	Detalhes              string  `json:"detalhes"`
}

// Recommendation names the cheapest eligible regime.
type Recommendation struct {
	MelhorRegime     string  `json:"melhorRegime"`
	EconomiaEstimada float64 `json:"economiaEstimada"`
	Justificativa    string  `json:"justificativa"`
}

// TaxAnalysis is the full structured reply from the reasoning engine,
// already schema-validated. It is all-or-nothing: a partial analysis
// never leaves the parser.
type TaxAnalysis struct {
	Analise     []RegimeResult `json:"analise"`
	Recomendacao Recommendation `json:"recomendacao"`
}

// EngineReply carries the engine's raw JSON text plus token accounting.
type EngineReply struct {
	Text       string
	TokensUsed TokenUsage
}

// TokenUsage tracks LLM token consumption for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// EngineMetrics is the snapshot served by GET /v1/metrics/engine.
type EngineMetrics struct {
	TotalRequests       int64   `json:"total_requests"`
	ErrorRate           float64 `json:"error_rate"`
	AvgTokensPerRequest float64 `json:"avg_tokens_per_request"`
	EstimatedCostUsd    float64 `json:"estimated_cost_usd"`
	CacheHitRate        float64 `json:"cache_hit_rate"`
	Period              string  `json:"period"`
}

// ============================================================
// Activity codes (CNAE)
// ============================================================

// ActivityCode is one CNAE entry in the form, identified by a stable ID so
// async lookup results merge by identity, never by position.
type ActivityCode struct {
	ID          string `json:"id"`
	Value       string `json:"value"`
	Error       string `json:"error,omitempty"`
	Description string `json:"description,omitempty"`
	Loading     bool   `json:"loading"`
}

// CNAESuggestion is a resolved activity code with its registry description.
type CNAESuggestion struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// CompanyPrefetch is the result of a CNPJ registry lookup, used to pre-fill
// the form: trade name, registered activity codes and a guessed company type.
type CompanyPrefetch struct {
	Nome         string           `json:"nome"`
	CNAEs        []CNAESuggestion `json:"cnaes"`
	TipoProvavel string           `json:"tipoProvavel"`
}

// ============================================================
// Saved analyses
// ============================================================

// SavedAnalysis is one named snapshot plus its last result. ID is the
// creation timestamp (RFC 3339 with sub-second precision) and doubles as
// the newest-first sort key.
type SavedAnalysis struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Date   string            `json:"date"`
	Inputs FinancialSnapshot `json:"inputs"`
	Result TaxAnalysis       `json:"result"`
}

// ============================================================
// Health
// ============================================================

type ServiceHealth struct {
	Name        string `json:"name"`
	Status      string `json:"status"`
	LatencyMs   int64  `json:"latency_ms"`
	LastChecked string `json:"last_checked"`
}

type HealthStatus struct {
	Status   string          `json:"status"`
	Services []ServiceHealth `json:"services"`
}
