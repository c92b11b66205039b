// Package service orchestrates the tax advisor use cases on top of the
// registry clients, the reasoning engine and the persistence store.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/spassessoria/tax-advisor-go/internal/analysis"
	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/port"
)

var tracer = otel.Tracer("service")

// Advisor runs the full analysis flow: validate the snapshot, build the
// brief, call the reasoning engine, and parse the structured reply. The
// flow is all-or-nothing; a schema violation discards the whole reply.
type Advisor struct {
	engine  port.EngineCaller
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewAdvisor creates the advisor service with all dependencies injected.
func NewAdvisor(engine port.EngineCaller, metrics *observability.Metrics, logger *zap.Logger) *Advisor {
	return &Advisor{
		engine:  engine,
		metrics: metrics,
		logger:  logger,
	}
}

// Analyze submits one financial snapshot to the reasoning engine and
// returns the validated regime comparison.
func (a *Advisor) Analyze(ctx context.Context, snapshot *domain.FinancialSnapshot) (*domain.TaxAnalysis, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "Advisor.Analyze")
	defer span.End()
	span.SetAttributes(attribute.String("company.name", snapshot.NomeEmpresa))

	start := time.Now()
	defer func() {
		a.metrics.RecordRequestDuration("analysis", time.Since(start))
	}()

	if err := analysis.Validate(snapshot); err != nil {
		return nil, err
	}

	brief := analysis.Build(snapshot)

	engineStart := time.Now()
	reply, err := a.engine.Generate(ctx, brief.System, brief.Prompt)
	a.metrics.RecordRequestDuration("engine", time.Since(engineStart))

	if err != nil {
		a.logger.Error("engine call failed",
			zap.String("company", snapshot.NomeEmpresa),
			zap.Error(err),
		)
		a.metrics.IncrExternalError("engine")
		a.metrics.IncrAnalysis("error")
		return nil, fmt.Errorf("engine call: %w", err)
	}

	a.metrics.RecordTokens(reply.TokensUsed.PromptTokens, reply.TokensUsed.CompletionTokens)

	result, err := analysis.Parse(reply.Text)
	if err != nil {
		var schema *domain.ErrSchema
		if errors.As(err, &schema) {
			a.metrics.IncrSchemaReject()
		}
		a.logger.Error("engine reply rejected",
			zap.String("company", snapshot.NomeEmpresa),
			zap.Error(err),
		)
		a.metrics.IncrAnalysis("error")
		return nil, err
	}

	a.metrics.IncrAnalysis("success")
	return result, nil
}

// SuggestCNAE asks the engine for the activity code matching a free-text
// description.
func (a *Advisor) SuggestCNAE(ctx context.Context, description string) (*domain.CNAESuggestion, error) {
	ctx, span := tracer.Start(ctx, "Advisor.SuggestCNAE")
	defer span.End()

	if description == "" {
		return nil, &domain.ErrValidation{Field: "description", Message: "descrição é obrigatória"}
	}

	suggestion, err := a.engine.Suggest(ctx, description)
	if err != nil {
		a.metrics.IncrExternalError("engine")
		return nil, err
	}
	return suggestion, nil
}
