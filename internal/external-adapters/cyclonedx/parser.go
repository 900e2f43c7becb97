// Package cyclonedx reads CycloneDX JSON documents into the normalized SBOM
// model and writes analysis results back out as CycloneDX BOMs.
package cyclonedx

import (
	"strconv"
	"strings"

	cdx "github.com/CycloneDX/cyclonedx-go"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/external-adapters/sbomjson"
)

const releaseDateProperty = "releaseDate"

// Parser normalizes CycloneDX documents. It works on the decoded JSON tree
// rather than typed structs so that field-name drift between generators
// (alg/algorithm, content/value) is tolerated.
type Parser struct{}

// NewParser creates a new CycloneDX parser
func NewParser() *Parser {
	return &Parser{}
}

// Format returns the format handled by this parser
func (p *Parser) Format() entities.BOMFormat {
	return entities.BOMFormatCycloneDX
}

// Parse maps a decoded CycloneDX document to components, edges and
// document metadata
func (p *Parser) Parse(doc map[string]any, sourceFile string) (*entities.ParsedSbom, error) {
	entries, err := sbomjson.ComponentEntries(doc, "components", sourceFile)
	if err != nil {
		return nil, err
	}

	ids := sbomjson.NewIDAllocator()
	components := make([]entities.Component, len(entries))
	for i, entry := range entries {
		components[i] = parseComponent(entry, ids.Allocate(sbomjson.String(entry, "bom-ref"), "component-"+strconv.Itoa(i)))
	}

	return &entities.ParsedSbom{
		Document:   parseDocument(doc, sourceFile),
		Components: components,
		Edges:      parseDependencies(doc),
	}, nil
}

func parseDocument(doc map[string]any, sourceFile string) entities.SbomDocument {
	metadata := sbomjson.Object(doc, "metadata")

	authors := []entities.Author{}
	for _, a := range sbomjson.Objects(metadata, "authors") {
		name, email := sbomjson.String(a, "name"), sbomjson.String(a, "email")
		if name == "" {
			name = email
		}
		if name == "" {
			continue
		}
		authors = append(authors, entities.Author{Name: name, Email: email})
	}

	return entities.SbomDocument{
		BOMFormat:    entities.BOMFormatCycloneDX,
		SpecVersion:  sbomjson.String(doc, "specVersion"),
		SerialNumber: sbomjson.String(doc, "serialNumber"),
		Created:      sbomjson.FirstString(metadata, "timestamp", "created"),
		Authors:      authors,
		Generators:   parseTools(metadata),
		SourceFile:   sourceFile,
	}
}

// parseTools accepts both the 1.5+ object form (tools.components) and the
// legacy tools array
func parseTools(metadata map[string]any) []entities.Generator {
	generators := []entities.Generator{}

	var tools []map[string]any
	if obj := sbomjson.Object(metadata, "tools"); obj != nil {
		tools = append(sbomjson.Objects(obj, "components"), sbomjson.Objects(obj, "services")...)
	} else {
		tools = sbomjson.Objects(metadata, "tools")
	}

	for _, tool := range tools {
		if name := sbomjson.String(tool, "name"); name != "" {
			generators = append(generators, entities.Generator{Name: name})
		}
	}
	return generators
}

func parseComponent(entry map[string]any, id string) entities.Component {
	purl := sbomjson.String(entry, "purl")

	componentType := sbomjson.String(entry, "type")
	if componentType == "" {
		componentType = string(cdx.ComponentTypeLibrary)
	}

	return entities.Component{
		ID:          id,
		Name:        sbomjson.String(entry, "name"),
		Version:     sbomjson.String(entry, "version"),
		Type:        componentType,
		Ecosystem:   sbomjson.Ecosystem(purl),
		License:     parseLicenses(entry),
		Purl:        purl,
		Hashes:      parseHashes(entry),
		Supplier:    parseSupplier(entry),
		Description: sbomjson.String(entry, "description"),
		ReleaseDate: parseReleaseDate(entry),
		Maintainer:  sbomjson.FirstString(entry, "maintainer", "author"),
	}
}

func parseHashes(entry map[string]any) []entities.Hash {
	hashes := []entities.Hash{}
	for _, h := range sbomjson.Objects(entry, "hashes") {
		alg := sbomjson.FirstString(h, "alg", "algorithm")
		content := sbomjson.FirstString(h, "content", "value")
		if alg == "" && content == "" {
			continue
		}
		hashes = append(hashes, entities.Hash{Algorithm: alg, Content: content})
	}
	sbomjson.SortHashes(hashes)
	return hashes
}

func parseLicenses(entry map[string]any) string {
	var names []string
	for _, choice := range sbomjson.Objects(entry, "licenses") {
		if license := sbomjson.Object(choice, "license"); license != nil {
			if name := sbomjson.FirstString(license, "id", "name"); name != "" {
				names = append(names, name)
			}
			continue
		}
		if expression := sbomjson.String(choice, "expression"); expression != "" {
			names = append(names, expression)
		}
	}
	if len(names) == 0 {
		return entities.UnknownLicense
	}
	return strings.Join(names, ", ")
}

func parseSupplier(entry map[string]any) string {
	if supplier, ok := entry["supplier"].(string); ok {
		return strings.TrimSpace(supplier)
	}
	return strings.TrimSpace(sbomjson.String(sbomjson.Object(entry, "supplier"), "name"))
}

func parseReleaseDate(entry map[string]any) string {
	if date := sbomjson.String(entry, "releaseDate"); date != "" {
		return date
	}
	for _, prop := range sbomjson.Objects(entry, "properties") {
		if sbomjson.String(prop, "name") == releaseDateProperty {
			return sbomjson.String(prop, "value")
		}
	}
	return ""
}

// parseDependencies expands each dependency entry into one edge per
// dependsOn target
func parseDependencies(doc map[string]any) []entities.DependencyEdge {
	edges := []entities.DependencyEdge{}
	for _, dep := range sbomjson.Objects(doc, "dependencies") {
		ref := sbomjson.String(dep, "ref")
		if ref == "" {
			continue
		}
		for _, target := range sbomjson.Strings(dep, "dependsOn") {
			edges = append(edges, entities.DependencyEdge{From: ref, To: target, Type: entities.EdgeTypeDependsOn})
		}
	}
	return edges
}
