package gateways

import (
	"context"
	"errors"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

// compositeVulnerabilityGateway implements the VulnerabilityGateway interface
// by composing a lookup source with threat intelligence enrichers
type compositeVulnerabilityGateway struct {
	source    gateways.VulnerabilityGateway
	enrichers []gateways.VulnerabilityEnricher
	logger    interfaces.Logger
}

// NewCompositeVulnerabilityGateway creates a gateway that resolves
// vulnerabilities through source and passes them through every enricher
func NewCompositeVulnerabilityGateway(
	source gateways.VulnerabilityGateway,
	logger interfaces.Logger,
	enrichers ...gateways.VulnerabilityEnricher,
) gateways.VulnerabilityGateway {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &compositeVulnerabilityGateway{
		source:    source,
		enrichers: enrichers,
		logger:    logger,
	}
}

// Lookup resolves and enriches vulnerabilities. An enricher failure keeps the
// vulnerabilities resolved so far; only a source failure is returned.
// Enrichers whose source is already known to be down are skipped quietly.
func (c *compositeVulnerabilityGateway) Lookup(ctx context.Context, component entities.Component) ([]entities.Vulnerability, error) {
	vulns, err := c.source.Lookup(ctx, component)
	if err != nil {
		return nil, err
	}
	if len(vulns) == 0 {
		return vulns, nil
	}

	for _, enricher := range c.enrichers {
		enriched, err := enricher.Enrich(ctx, vulns)
		if errors.Is(err, ErrSourceUnavailable) {
			continue
		}
		if err != nil {
			c.logger.Warn("vulnerability enrichment failed",
				interfaces.F("enricher", enricher.Name()),
				interfaces.F("component", component.ID),
				interfaces.F("error", err.Error()),
			)
			continue
		}
		vulns = enriched
	}
	return vulns, nil
}
