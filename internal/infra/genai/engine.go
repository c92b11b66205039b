// Package genai adapts the Google Gemini API as the tax reasoning engine.
// It declares the structured-output schema the engine must honor and heals
// near-JSON replies before handing them to the analysis parser.
package genai

import (
	"context"
	"encoding/json"
	"fmt"

	jsonrepair "github.com/RealAlexandreAI/json-repair"
	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"google.golang.org/genai"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/resilience"
)

var tracer = otel.Tracer("genai")

// responseSchema is the authoritative output contract: field names and the
// closed regime enum are what the analysis parser judges replies against.
var responseSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"analise": {
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"regime":                {Type: genai.TypeString, Enum: domain.Regimes},
					"impostoEstimado":       {Type: genai.TypeNumber, Description: "Total final (Federais + Estaduais/Municipais)"},
					"issIcmsEstimado":       {Type: genai.TypeNumber, Description: "Apenas a parcela de ISS e ICMS estimada"},
					"aliquotaEfetiva":       {Type: genai.TypeNumber},
					"valorCreditoPisCofins": {Type: genai.TypeNumber, Description: "Valor do crédito abatido (apenas Lucro Real)"},
					"detalhes":              {Type: genai.TypeString},
				},
				Required: []string{"regime", "impostoEstimado", "aliquotaEfetiva", "detalhes"},
			},
		},
		"recomendacao": {
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"melhorRegime":     {Type: genai.TypeString, Enum: domain.Regimes},
				"economiaEstimada": {Type: genai.TypeNumber},
				"justificativa":    {Type: genai.TypeString},
			},
			Required: []string{"melhorRegime", "economiaEstimada", "justificativa"},
		},
	},
	Required: []string{"analise", "recomendacao"},
}

// Engine calls the Gemini API with the analysis brief and schema.
type Engine struct {
	client   *genai.Client
	model    string
	cb       *gobreaker.CircuitBreaker
	cfg      resilience.Config
	bulkhead *resilience.Bulkhead
}

// NewEngine creates the engine adapter. maxConcurrency bounds simultaneous
// engine calls across all clients; each browser session already limits
// itself to one in-flight submission.
func NewEngine(ctx context.Context, apiKey, model string, cb *gobreaker.CircuitBreaker, cfg resilience.Config, maxConcurrency int) (*Engine, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Engine{
		client:   client,
		model:    model,
		cb:       cb,
		cfg:      cfg,
		bulkhead: resilience.NewBulkhead(maxConcurrency),
	}, nil
}

// Generate sends the system instruction + prompt pair and returns the raw
// JSON text of the reply. Markdown fences, trailing commas and similar LLM
// artifacts are repaired here; structural validation is the caller's job.
func (e *Engine) Generate(ctx context.Context, systemInstruction, prompt string) (*domain.EngineReply, error) {
	ctx, span := tracer.Start(ctx, "Engine.Generate")
	defer span.End()
	span.SetAttributes(attribute.String("engine.model", e.model))

	if err := e.bulkhead.Acquire(ctx); err != nil {
		return nil, &domain.ErrTimeout{Operation: "engine slot acquire"}
	}
	defer e.bulkhead.Release()

	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
		ResponseSchema:   responseSchema,
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemInstruction}},
		},
	}

	reply, err := e.call(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}
	return reply, nil
}

// Suggest resolves a free-text activity description to a 7-digit CNAE.
func (e *Engine) Suggest(ctx context.Context, description string) (*domain.CNAESuggestion, error) {
	ctx, span := tracer.Start(ctx, "Engine.Suggest")
	defer span.End()

	prompt := fmt.Sprintf(`Identifique o código CNAE 7 dígitos para: %q. JSON apenas {"code", "description"}`, description)
	cfg := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(float32(0.1)),
		ResponseMIMEType: "application/json",
	}

	reply, err := e.call(ctx, prompt, cfg)
	if err != nil {
		return nil, err
	}

	var suggestion domain.CNAESuggestion
	if err := json.Unmarshal([]byte(reply.Text), &suggestion); err != nil {
		return nil, &domain.ErrSchema{Field: "suggestion", Reason: err.Error()}
	}
	if suggestion.Code == "" {
		return nil, &domain.ErrSchema{Field: "suggestion.code", Reason: "empty"}
	}
	return &suggestion, nil
}

// call runs one generation behind the circuit breaker and retry policy.
func (e *Engine) call(ctx context.Context, prompt string, cfg *genai.GenerateContentConfig) (*domain.EngineReply, error) {
	var reply domain.EngineReply

	result, err := e.cb.Execute(func() (any, error) {
		var innerErr error
		innerErr = resilience.RetryWithBackoff(ctx, e.cfg, func() error {
			resp, err := e.client.Models.GenerateContent(ctx, e.model, genai.Text(prompt), cfg)
			if err != nil {
				return err
			}

			text := resp.Text()
			if text == "" {
				return fmt.Errorf("engine returned an empty reply")
			}

			repaired, err := jsonrepair.RepairJSON(text)
			if err != nil {
				return fmt.Errorf("engine reply is not JSON: %w", err)
			}
			reply.Text = repaired

			if resp.UsageMetadata != nil {
				reply.TokensUsed = domain.TokenUsage{
					PromptTokens:     int(resp.UsageMetadata.PromptTokenCount),
					CompletionTokens: int(resp.UsageMetadata.CandidatesTokenCount),
					TotalTokens:      int(resp.UsageMetadata.TotalTokenCount),
				}
			}
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return &reply, nil
	})

	if err != nil {
		return nil, &domain.ErrExternalService{Service: "engine", Err: err}
	}

	return result.(*domain.EngineReply), nil
}
