package service

import (
	"context"
	"errors"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spassessoria/tax-advisor-go/internal/brdoc"
	"github.com/spassessoria/tax-advisor-go/internal/domain"
	"github.com/spassessoria/tax-advisor-go/internal/infra/observability"
	"github.com/spassessoria/tax-advisor-go/internal/port"
)

// Lookup resolves activity codes and company registrations, caching
// registry answers. Format validation always runs before any network
// call: the registries never see punctuation or partial codes.
type Lookup struct {
	cnae    port.ActivityLookup
	cnpj    port.CompanyLookup
	cache   port.Cache[string]
	metrics *observability.Metrics
	logger  *zap.Logger
}

// NewLookup creates the lookup service.
func NewLookup(cnae port.ActivityLookup, cnpj port.CompanyLookup, cache port.Cache[string], metrics *observability.Metrics, logger *zap.Logger) *Lookup {
	return &Lookup{
		cnae:    cnae,
		cnpj:    cnpj,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

// DescribeCNAE returns the registry description for an activity code.
// The raw value may be masked; it is validated and stripped here.
func (l *Lookup) DescribeCNAE(ctx context.Context, raw string) (string, error) {
	ctx, span := tracer.Start(ctx, "Lookup.DescribeCNAE")
	defer span.End()

	if err := brdoc.ValidateCNAE(raw); err != nil {
		return "", err
	}
	code := brdoc.StripDigits(raw)

	cacheKey := "cnae:" + code
	if cached, ok := l.cache.Get(cacheKey); ok {
		l.metrics.IncrCacheHit("cnae")
		return cached, nil
	}
	l.metrics.IncrCacheMiss("cnae")

	description, err := l.cnae.Describe(ctx, code)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			l.metrics.IncrExternalError("cnae")
		}
		return "", err
	}

	l.cache.Set(cacheKey, description)
	return description, nil
}

// PrefetchCompany looks up a CNPJ and returns form pre-fill data. The
// document must pass checksum validation first. Secondary codes sometimes
// come back from the registry without a description; those are resolved
// against the CNAE registry concurrently, best-effort.
func (l *Lookup) PrefetchCompany(ctx context.Context, rawCNPJ string) (*domain.CompanyPrefetch, error) {
	ctx, span := tracer.Start(ctx, "Lookup.PrefetchCompany")
	defer span.End()

	if err := brdoc.ValidateCNPJ(rawCNPJ); err != nil {
		return nil, err
	}
	cnpj := brdoc.StripDigits(rawCNPJ)

	prefetch, err := l.cnpj.Fetch(ctx, cnpj)
	if err != nil {
		var notFound *domain.ErrNotFound
		if !errors.As(err, &notFound) {
			l.metrics.IncrExternalError("cnpj")
		}
		return nil, err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for i := range prefetch.CNAEs {
		if prefetch.CNAEs[i].Description != "" {
			continue
		}
		entry := &prefetch.CNAEs[i]
		g.Go(func() error {
			desc, err := l.DescribeCNAE(gCtx, entry.Code)
			if err != nil {
				// Best-effort: a missing description does not fail the prefetch.
				l.logger.Debug("secondary cnae description unavailable",
					zap.String("code", entry.Code),
					zap.Error(err),
				)
				return nil
			}
			entry.Description = desc
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return prefetch, nil
}
