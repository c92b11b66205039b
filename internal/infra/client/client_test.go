package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/resilience"
)

func testConfig() resilience.Config {
	return resilience.Config{MaxRetries: 1, InitialBackoff: time.Millisecond}
}

func TestCnaeClientDescribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/62015" && r.URL.Path != "/6201500" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"id": 62015, "descricao": "Desenvolvimento de programas de computador sob encomenda"},
		})
	}))
	defer server.Close()

	c := NewCnaeClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnae"), testConfig())

	description, err := c.Describe(context.Background(), "6201500")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if description != "Desenvolvimento de programas de computador sob encomenda" {
		t.Errorf("unexpected description %q", description)
	}
}

func TestCnaeClientDescribeNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewCnaeClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnae-404"), testConfig())

	_, err := c.Describe(context.Background(), "9999999")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCnaeClientDescribeEmptyPayloadIsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("[]"))
	}))
	defer server.Close()

	c := NewCnaeClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnae-empty"), testConfig())

	_, err := c.Describe(context.Background(), "6201500")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCnaeClientDescribeServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	c := NewCnaeClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnae-500"), testConfig())

	_, err := c.Describe(context.Background(), "6201500")
	var external *domain.ErrExternalService
	if !errors.As(err, &external) {
		t.Fatalf("expected ErrExternalService, got %v", err)
	}
	if external.Service != "cnae" {
		t.Errorf("unexpected service %q", external.Service)
	}
}

func brasilAPIFixture() map[string]any {
	return map[string]any{
		"cnpj":          "11222333000181",
		"razao_social":  "ACME SERVICOS DE TECNOLOGIA LTDA",
		"nome_fantasia": "Acme Tech",
		"cnae_fiscal_principal": map[string]any{
			"codigo":    6201500,
			"descricao": "Desenvolvimento de programas de computador sob encomenda",
		},
		"cnaes_secundarios": []map[string]any{
			{"codigo": 6202300, "descricao": "Desenvolvimento e licenciamento de programas customizáveis"},
			{"codigo": 4711302, "descricao": ""},
			{"codigo": 6311900, "descricao": "Tratamento de dados"},
			{"codigo": 6319400, "descricao": "Portais e provedores"},
			{"codigo": 7020400, "descricao": "Consultoria em gestão"},
			{"codigo": 8599604, "descricao": "Treinamento"},
		},
	}
}

func TestCnpjClientFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/11222333000181" {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		json.NewEncoder(w).Encode(brasilAPIFixture())
	}))
	defer server.Close()

	c := NewCnpjClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnpj"), testConfig())

	prefetch, err := c.Fetch(context.Background(), "11222333000181")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if prefetch.Nome != "Acme Tech" {
		t.Errorf("expected trade name, got %q", prefetch.Nome)
	}
	// Primary first, masked, then at most five secondaries.
	if len(prefetch.CNAEs) != 6 {
		t.Fatalf("expected 6 codes, got %d", len(prefetch.CNAEs))
	}
	if prefetch.CNAEs[0].Code != "6201-5/00" {
		t.Errorf("expected masked primary first, got %q", prefetch.CNAEs[0].Code)
	}
	if prefetch.CNAEs[2].Code != "4711-3/02" || prefetch.CNAEs[2].Description != "" {
		t.Errorf("unexpected secondary: %+v", prefetch.CNAEs[2])
	}
	if prefetch.TipoProvavel != "Serviços" {
		t.Errorf("expected Serviços, got %q", prefetch.TipoProvavel)
	}
}

func TestCnpjClientFetchFallsBackToRazaoSocial(t *testing.T) {
	fixture := brasilAPIFixture()
	fixture["nome_fantasia"] = ""

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(fixture)
	}))
	defer server.Close()

	c := NewCnpjClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnpj-razao"), testConfig())

	prefetch, err := c.Fetch(context.Background(), "11222333000181")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if prefetch.Nome != "ACME SERVICOS DE TECNOLOGIA LTDA" {
		t.Errorf("expected razão social fallback, got %q", prefetch.Nome)
	}
}

func TestCnpjClientFetchNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	c := NewCnpjClient(server.Client(), server.URL, resilience.NewCircuitBreaker("test-cnpj-404"), testConfig())

	_, err := c.Fetch(context.Background(), "99999999000191")
	var notFound *domain.ErrNotFound
	if !errors.As(err, &notFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestProbableType(t *testing.T) {
	cases := []struct {
		code string
		want string
	}{
		{"6201500", "Serviços"},
		{"4711302", "Comércio"},
		{"4512901", "Comércio"},
		{"1091101", "Indústria"},
		{"0512101", "Indústria"},
		{"8599604", "Serviços"},
	}
	for _, tc := range cases {
		if got := probableType(tc.code); got != tc.want {
			t.Errorf("probableType(%s) = %q, want %q", tc.code, got, tc.want)
		}
	}
}
