// Package gateways defines interfaces for external service adapters.
package gateways

import (
	"context"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// VulnerabilityGateway resolves the known vulnerabilities of a component.
// Returning an empty slice means no known vulnerabilities, not a failure.
type VulnerabilityGateway interface {
	Lookup(ctx context.Context, component entities.Component) ([]entities.Vulnerability, error)
}

// VulnerabilityEnricher adds threat intelligence (KEV, EPSS) to vulnerabilities
// already resolved for a component. Implementations must not mutate the input.
type VulnerabilityEnricher interface {
	Name() string
	Enrich(ctx context.Context, vulnerabilities []entities.Vulnerability) ([]entities.Vulnerability, error)
}

// SignatureGateway verifies detached signatures over SBOM files
type SignatureGateway interface {
	ImportGPGKeyFromFile(keyPath string) error
	ImportGPGKeysFromURL(ctx context.Context, keysURL string) error
	VerifyGPGSignatureFromFile(filePath, sigPath string) (*entities.SignatureVerification, error)
	VerifyChecksum(ctx context.Context, filePath, expectedSum string) error
}
