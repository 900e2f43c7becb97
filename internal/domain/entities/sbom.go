// Package entities defines core domain models and data structures.
package entities

// BOMFormat identifies the schema family of an ingested SBOM document
type BOMFormat string

// Supported SBOM formats
const (
	BOMFormatCycloneDX BOMFormat = "CycloneDX"
	BOMFormatSPDX      BOMFormat = "SPDX"
)

// Defaults applied while normalizing components. A component whose ecosystem
// cannot be derived from a purl is reported as npm, and a component without a
// resolvable license is reported as "Unknown".
const (
	DefaultEcosystem = "npm"
	UnknownLicense   = "Unknown"
)

// Dependency edge types. Parser-derived edges carry the authored relationship
// type, synthesized edges always carry EdgeTypeSynthesized.
const (
	EdgeTypeDependsOn   = "dependsOn"
	EdgeTypeSynthesized = "dependency"
)

// SbomDocument is the provenance record of an ingested SBOM
type SbomDocument struct {
	BOMFormat         BOMFormat   `json:"bomFormat"`
	SpecVersion       string      `json:"specVersion"`
	SerialNumber      string      `json:"serialNumber,omitempty"`      // CycloneDX only
	DocumentNamespace string      `json:"documentNamespace,omitempty"` // SPDX only
	Created           string      `json:"created,omitempty"`
	Authors           []Author    `json:"authors"`
	Generators        []Generator `json:"generators"`
	SourceFile        string      `json:"sourceFile"`
}

// Author is a person or organization credited with the SBOM
type Author struct {
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
}

// Generator is a tool that produced the SBOM
type Generator struct {
	Name string `json:"name"`
}

// Component represents one inventory entry of the SBOM
type Component struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Version     string `json:"version"`
	Type        string `json:"type"` // "library", "application", "package", etc.
	Ecosystem   string `json:"ecosystem"`
	License     string `json:"license"`
	Purl        string `json:"purl,omitempty"`
	Hashes      []Hash `json:"hashes"`
	Supplier    string `json:"supplier,omitempty"`
	Description string `json:"description,omitempty"`
	ReleaseDate string `json:"releaseDate,omitempty"`
	Maintainer  string `json:"maintainer,omitempty"`
}

// Hash represents a cryptographic hash of a component
type Hash struct {
	Algorithm string `json:"algorithm"` // "SHA-256", "SHA-512", etc.
	Content   string `json:"content"`
}

// DependencyEdge is a directed relation between two components of a document
type DependencyEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
	Type string `json:"type"`
}

// ParsedSbom is the normalized output of a format parser
type ParsedSbom struct {
	Document   SbomDocument
	Components []Component
	Edges      []DependencyEdge
}
