// Package parsers defines the contract of SBOM format parsers.
package parsers

import "github.com/ochairo/sbomrisk/internal/domain/entities"

// SbomParser maps one native SBOM schema into the normalized model
type SbomParser interface {
	// Format returns the schema family handled by this parser
	Format() entities.BOMFormat

	// Parse normalizes an already decoded JSON document
	Parse(doc map[string]any, sourceFile string) (*entities.ParsedSbom, error)
}
