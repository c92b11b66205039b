// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// ActivityLookup resolves a 7-digit CNAE code to its registry description.
// Callers must run format validation first; the lookup never sees
// punctuation or partial codes.
type ActivityLookup interface {
	Describe(ctx context.Context, code string) (string, error)
}

// CompanyLookup prefetches registry data for a CNPJ: trade name, declared
// activity codes and a probable company type.
type CompanyLookup interface {
	Fetch(ctx context.Context, cnpj string) (*domain.CompanyPrefetch, error)
}

// EngineCaller invokes the external reasoning engine with a fully built
// brief and returns its raw structured reply. Parsing and schema
// validation happen in the analysis package, not here.
type EngineCaller interface {
	Generate(ctx context.Context, systemInstruction, prompt string) (*domain.EngineReply, error)
	// Suggest resolves a free-text activity description to a CNAE code.
	Suggest(ctx context.Context, description string) (*domain.CNAESuggestion, error)
}

// Cache provides generic caching with TTL.
type Cache[T any] interface {
	Get(key string) (T, bool)
	Set(key string, value T)
	Delete(key string)
}

// AnalysisStore persists named analyses. The whole store is rewritten on
// every mutation; corruption self-heals to an empty list.
type AnalysisStore interface {
	List() ([]domain.SavedAnalysis, error)
	Save(name string, inputs domain.FinancialSnapshot, result domain.TaxAnalysis) (bool, error)
	Delete(id string) error
}
