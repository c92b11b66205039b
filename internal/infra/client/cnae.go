// Package client contains the HTTP adapters for the public Brazilian
// registries the form consults: the IBGE CNAE classification service and
// the BrasilAPI CNPJ registry. Both go through the shared circuit breaker
// and retry policy.
package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/sony/gobreaker"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/resilience"
)

var tracer = otel.Tracer("client")

// CnaeClient resolves CNAE codes against the IBGE classes registry.
type CnaeClient struct {
	httpClient *http.Client
	baseURL    string
	cb         *gobreaker.CircuitBreaker
	cfg        resilience.Config
}

// NewCnaeClient creates a new CnaeClient.
func NewCnaeClient(httpClient *http.Client, baseURL string, cb *gobreaker.CircuitBreaker, cfg resilience.Config) *CnaeClient {
	return &CnaeClient{
		httpClient: httpClient,
		baseURL:    baseURL,
		cb:         cb,
		cfg:        cfg,
	}
}

// cnaeClass mirrors the IBGE response shape: an array of classes, each
// with its official description.
type cnaeClass struct {
	ID        json.Number `json:"id"`
	Descricao string      `json:"descricao"`
}

// Describe fetches the registry description for a 7-digit CNAE code with
// retry, circuit breaker, and tracing. Unknown codes map to ErrNotFound;
// transport and decode failures map to ErrExternalService.
func (c *CnaeClient) Describe(ctx context.Context, code string) (string, error) {
	ctx, span := tracer.Start(ctx, "CnaeClient.Describe")
	defer span.End()
	span.SetAttributes(attribute.String("cnae.code", code))

	var description string

	result, err := c.cb.Execute(func() (any, error) {
		var innerErr error
		innerErr = resilience.RetryWithBackoff(ctx, c.cfg, func() error {
			url := fmt.Sprintf("%s/%s", c.baseURL, code)
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
				return &domain.ErrNotFound{Resource: "cnae", ID: code}
			}
			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("cnae API returned status %d", resp.StatusCode)
			}

			var classes []cnaeClass
			if err := json.NewDecoder(resp.Body).Decode(&classes); err != nil {
				return err
			}
			if len(classes) == 0 || classes[0].Descricao == "" {
				return &domain.ErrNotFound{Resource: "cnae", ID: code}
			}
			description = classes[0].Descricao
			return nil
		})
		if innerErr != nil {
			return nil, innerErr
		}
		return description, nil
	})

	if err != nil {
		var notFound *domain.ErrNotFound
		if errors.As(err, &notFound) {
			return "", notFound
		}
		return "", &domain.ErrExternalService{Service: "cnae", Err: err}
	}

	return result.(string), nil
}
