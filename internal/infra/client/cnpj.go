package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spassessoria/tax-advisor-go/internal/brdoc"
	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/resilience"
)

// CnpjClient prefetches company data from the BrasilAPI CNPJ registry.
type CnpjClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewCnpjClient creates a new CnpjClient.
func NewCnpjClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CnpjClient {
	return &CnpjClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

type brasilAPICnae struct {
	Codigo    int    `json:"codigo"`
	Descricao string `json:"descricao"`
}

type brasilAPIResponse struct {
	CNPJ               string          `json:"cnpj"`
	RazaoSocial        string          `json:"razao_social"`
	NomeFantasia       string          `json:"nome_fantasia"`
	CnaeFiscalPrincipal brasilAPICnae  `json:"cnae_fiscal_principal"`
	CnaesSecundarios   []brasilAPICnae `json:"cnaes_secundarios"`
}

// maxSecondaryCnaes limits how many secondary codes are offered to the
// form; registries often carry dozens.
const maxSecondaryCnaes = 5

// Fetch looks up a CNPJ and assembles the form prefetch: trade name,
// masked activity codes and a probable company type inferred from the
// primary code's CNAE division.
func (c *CnpjClient) Fetch(ctx context.Context, cnpj string) (*domain.CompanyPrefetch, error) {
	ctx, span := tracer.Start(ctx, "CnpjClient.Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("company.cnpj", cnpj))

	var data brasilAPIResponse

	result, err := c.cb.Execute(func() (any, error) {
		var innerErr error
		innerErr = resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/%s", c.baseURL, cnpj)
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
			if err != nil {
				return err
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode == http.StatusNotFound {
				return &domain.ErrNotFound{Resource: "cnpj", ID: cnpj}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("cnpj API returned status %d", resp.StatusCode)
			}

			return json.NewDecoder(resp.Body).Decode(&data)
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return buildPrefetch(&data), nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return nil, notFound
		}
		return nil, &domain.ErrExternalService{Service: "cnpj", Err: err}
	}

	return result.(*domain.CompanyPrefetch), nil
}

// buildPrefetch shapes the registry payload for the form: primary CNAE
// first, at most maxSecondaryCnaes secondaries, codes left-padded to 7
// digits and masked.
func buildPrefetch(data *brasilAPIResponse) *domain.CompanyPrefetch {
	primary := padCnae(data.CnaeFiscalPrincipal.Codigo)

	cnaes := []domain.CNAESuggestion{{
		Code:        brdoc.MaskCNAE(primary),
		Description: data.CnaeFiscalPrincipal.Descricao,
	}}
	for i, sec := range data.CnaesSecundarios {
		if i >= maxSecondaryCnaes {
			break
		}
		cnaes = append(cnaes, domain.CNAESuggestion{
			Code:        brdoc.MaskCNAE(padCnae(sec.Codigo)),
			Description: sec.Descricao,
		})
	}

	nome := data.NomeFantasia
	if nome == "" {
		nome = data.RazaoSocial
	}

	return &domain.CompanyPrefetch{
		Nome:         nome,
		CNAEs:        cnaes,
		TipoProvavel: probableType(primary),
	}
}

func padCnae(code int) string {
	return fmt.Sprintf("%07d", code)
}

// probableType guesses the company type from the CNAE division (first two
// digits): 45-47 retail, 05-39 industry, everything else services.
func probableType(code string) string {
	division, err := strconv.Atoi(code[:2])
	if err != nil {
		return "Serviços"
	}
	switch {
	case division >= 45 && division <= 47:
		return "Comércio"
	case division >= 5 && division <= 39:
		return "Indústria"
	default:
		return "Serviços"
	}
}
