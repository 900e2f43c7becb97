package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// fileGateway serves vulnerabilities from a local JSON document mapping
// purl, name@version or name to vulnerability lists. It backs offline runs
// and reproducible fixtures.
type fileGateway struct {
	entries map[string][]entities.Vulnerability
}

// NewFileGateway loads a vulnerability map from disk
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewFileGateway(path string) (*fileGateway, error) {
	//nolint:gosec // G304: path is operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read vulnerability file: %w", err)
	}

	var entries map[string][]entities.Vulnerability
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("failed to parse vulnerability file %s: %w", path, err)
	}
	return &fileGateway{entries: entries}, nil
}

// Lookup returns the first entry matching the purl, name@version or name
func (g *fileGateway) Lookup(_ context.Context, component entities.Component) ([]entities.Vulnerability, error) {
	for _, key := range []string{component.Purl, component.Name + "@" + component.Version, component.Name} {
		if key == "" || key == "@" {
			continue
		}
		if vulns, ok := g.entries[key]; ok {
			return cloneVulnerabilities(vulns), nil
		}
	}
	return []entities.Vulnerability{}, nil
}

// noopGateway reports no known vulnerabilities for every component
type noopGateway struct{}

// NewNoopGateway creates a gateway that never finds vulnerabilities
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewNoopGateway() *noopGateway {
	return &noopGateway{}
}

// Lookup always returns an empty list
func (g *noopGateway) Lookup(_ context.Context, _ entities.Component) ([]entities.Vulnerability, error) {
	return []entities.Vulnerability{}, nil
}
