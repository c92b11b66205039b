package analysis

import (
	"encoding/json"
	"fmt"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
)

// Intermediate shapes with pointer fields so that an absent key is
// distinguishable from a zero value. The parse is all-or-nothing: any
// violation discards the whole reply.

type rawRegime struct {
	Regime                *string  `json:"regime"`
	ImpostoEstimado       *float64 `json:"impostoEstimado"`
	ISSICMSEstimado       *float64 `json:"issIcmsEstimado"`
	AliquotaEfetiva       *float64 `json:"aliquotaEfetiva"`
	ValorCreditoPisCofins *float64 `json:"valorCreditoPisCofins"`
	Detalhes              *string  `json:"detalhes"`
}

type rawRecommendation struct {
	MelhorRegime     *string  `json:"melhorRegime"`
	EconomiaEstimada *float64 `json:"economiaEstimada"`
	Justificativa    *string  `json:"justificativa"`
}

type rawAnalysis struct {
	Analise      []rawRegime        `json:"analise"`
	Recomendacao *rawRecommendation `json:"recomendacao"`
}

// Parse validates the engine's JSON reply against the output contract and
// converts it to the result model. The recommendation must name a regime
// present in the analysis with a non-zero estimate; the engine is
// instructed to guarantee this, but it is not trusted to.
func Parse(text string) (*domain.TaxAnalysis, error) {
	var raw rawAnalysis
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, &domain.ErrSchema{Field: "reply", Reason: err.Error()}
	}

	if len(raw.Analise) == 0 {
		return nil, &domain.ErrSchema{Field: "analise", Reason: "missing or empty"}
	}
	if raw.Recomendacao == nil {
		return nil, &domain.ErrSchema{Field: "recomendacao", Reason: "missing"}
	}

	result := &domain.TaxAnalysis{Analise: make([]domain.RegimeResult, 0, len(raw.Analise))}

	for i, entry := range raw.Analise {
		field := fmt.Sprintf("analise[%d]", i)
		switch {
		case entry.Regime == nil:
			return nil, &domain.ErrSchema{Field: field + ".regime", Reason: "missing"}
		case entry.ImpostoEstimado == nil:
			return nil, &domain.ErrSchema{Field: field + ".impostoEstimado", Reason: "missing"}
		case entry.AliquotaEfetiva == nil:
			return nil, &domain.ErrSchema{Field: field + ".aliquotaEfetiva", Reason: "missing"}
		case entry.Detalhes == nil:
			return nil, &domain.ErrSchema{Field: field + ".detalhes", Reason: "missing"}
		}
		if !domain.KnownRegime(*entry.Regime) {
			return nil, &domain.ErrSchema{Field: field + ".regime", Reason: fmt.Sprintf("unknown regime %q", *entry.Regime)}
		}
		if *entry.ImpostoEstimado < 0 {
			return nil, &domain.ErrSchema{Field: field + ".impostoEstimado", Reason: "negative"}
		}

		r := domain.RegimeResult{
			Regime:          *entry.Regime,
			ImpostoEstimado: *entry.ImpostoEstimado,
			AliquotaEfetiva: *entry.AliquotaEfetiva,
			Detalhes:        *entry.Detalhes,
		}
		if entry.ISSICMSEstimado != nil {
			r.ISSICMSEstimado = *entry.ISSICMSEstimado
		}
		if entry.ValorCreditoPisCofins != nil {
			r.ValorCreditoPisCofins = *entry.ValorCreditoPisCofins
		}
		result.Analise = append(result.Analise, r)
	}

	rec := raw.Recomendacao
	switch {
	case rec.MelhorRegime == nil:
		return nil, &domain.ErrSchema{Field: "recomendacao.melhorRegime", Reason: "missing"}
	case rec.EconomiaEstimada == nil:
		return nil, &domain.ErrSchema{Field: "recomendacao.economiaEstimada", Reason: "missing"}
	case rec.Justificativa == nil:
		return nil, &domain.ErrSchema{Field: "recomendacao.justificativa", Reason: "missing"}
	}

	if err := checkRecommendation(*rec.MelhorRegime, result.Analise); err != nil {
		return nil, err
	}

	result.Recomendacao = domain.Recommendation{
		MelhorRegime:     *rec.MelhorRegime,
		EconomiaEstimada: *rec.EconomiaEstimada,
		Justificativa:    *rec.Justificativa,
	}
	return result, nil
}

// checkRecommendation rejects a recommendation naming a regime absent from
// the analysis or flagged ineligible (zero estimate).
func checkRecommendation(best string, entries []domain.RegimeResult) error {
	for _, e := range entries {
		if e.Regime != best {
			continue
		}
		if e.ImpostoEstimado <= 0 {
			return &domain.ErrSchema{
				Field:  "recomendacao.melhorRegime",
				Reason: fmt.Sprintf("%q is ineligible (zero estimate) and cannot be recommended", best),
			}
		}
		return nil
	}
	return &domain.ErrSchema{
		Field:  "recomendacao.melhorRegime",
		Reason: fmt.Sprintf("%q does not appear in the analysis entries", best),
	}
}
