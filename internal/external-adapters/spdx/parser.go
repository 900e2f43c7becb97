// Package spdx reads SPDX 2.x JSON documents into the normalized SBOM model.
package spdx

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/external-adapters/sbomjson"
)

const (
	noAssertion = "NOASSERTION"
	none        = "NONE"

	defaultPackageType = "package"
)

// creatorPattern splits "Name <email>" creator strings
var creatorPattern = regexp.MustCompile(`^(.+?)\s*<(.+)>$`)

// dependencyRelationships are matched as substrings of relationshipType
var dependencyRelationships = []string{"DEPENDS_ON", "DEPENDENCY_OF", "CONTAINS"}

// Parser normalizes SPDX documents
type Parser struct{}

// NewParser creates a new SPDX parser
func NewParser() *Parser {
	return &Parser{}
}

// Format returns the format handled by this parser
func (p *Parser) Format() entities.BOMFormat {
	return entities.BOMFormatSPDX
}

// Parse maps a decoded SPDX document to components, edges and document
// metadata
func (p *Parser) Parse(doc map[string]any, sourceFile string) (*entities.ParsedSbom, error) {
	entries, err := sbomjson.ComponentEntries(doc, "packages", sourceFile)
	if err != nil {
		return nil, err
	}

	ids := sbomjson.NewIDAllocator()
	components := make([]entities.Component, len(entries))
	for i, entry := range entries {
		components[i] = parsePackage(entry, ids.Allocate(sbomjson.String(entry, "SPDXID"), "package-"+strconv.Itoa(i)))
	}

	return &entities.ParsedSbom{
		Document:   parseDocument(doc, sourceFile),
		Components: components,
		Edges:      parseRelationships(doc),
	}, nil
}

func parseDocument(doc map[string]any, sourceFile string) entities.SbomDocument {
	creationInfo := sbomjson.Object(doc, "creationInfo")

	authors := []entities.Author{}
	generators := []entities.Generator{}
	for _, creator := range sbomjson.Strings(creationInfo, "creators") {
		creator = strings.TrimSpace(creator)
		if creator == "" {
			continue
		}
		author := parseCreator(creator)
		authors = append(authors, author)

		lower := strings.ToLower(creator)
		if strings.Contains(lower, "tool") || strings.Contains(lower, "generator") {
			generators = append(generators, entities.Generator{Name: author.Name})
		}
	}

	return entities.SbomDocument{
		BOMFormat:         entities.BOMFormatSPDX,
		SpecVersion:       sbomjson.String(doc, "spdxVersion"),
		DocumentNamespace: sbomjson.String(doc, "documentNamespace"),
		Created:           sbomjson.String(creationInfo, "created"),
		Authors:           authors,
		Generators:        generators,
		SourceFile:        sourceFile,
	}
}

func parseCreator(creator string) entities.Author {
	if m := creatorPattern.FindStringSubmatch(creator); m != nil {
		return entities.Author{Name: m[1], Email: m[2]}
	}
	return entities.Author{Name: creator}
}

func parsePackage(entry map[string]any, id string) entities.Component {
	purl := findPurl(entry)

	packageType := strings.ToLower(sbomjson.String(entry, "primaryPackagePurpose"))
	if packageType == "" {
		packageType = defaultPackageType
	}

	return entities.Component{
		ID:          id,
		Name:        sbomjson.String(entry, "name"),
		Version:     sbomjson.String(entry, "versionInfo"),
		Type:        packageType,
		Ecosystem:   sbomjson.Ecosystem(purl),
		License:     parseLicense(entry),
		Purl:        purl,
		Hashes:      parseChecksums(entry),
		Supplier:    stripActor(sbomjson.String(entry, "supplier")),
		Description: sbomjson.FirstString(entry, "description", "summary"),
		ReleaseDate: sbomjson.String(entry, "releaseDate"),
		Maintainer:  stripActor(sbomjson.String(entry, "originator")),
	}
}

// findPurl returns the locator of the first purl or package-manager
// external reference
func findPurl(entry map[string]any) string {
	for _, ref := range sbomjson.Objects(entry, "externalRefs") {
		category := strings.ReplaceAll(sbomjson.String(ref, "referenceCategory"), "_", "-")
		if sbomjson.String(ref, "referenceType") == "purl" || category == "PACKAGE-MANAGER" {
			return sbomjson.String(ref, "referenceLocator")
		}
	}
	return ""
}

func parseLicense(entry map[string]any) string {
	for _, key := range []string{"licenseConcluded", "licenseDeclared"} {
		if license := strings.TrimSpace(sbomjson.String(entry, key)); license != "" && license != noAssertion && license != none {
			return license
		}
	}
	return entities.UnknownLicense
}

func parseChecksums(entry map[string]any) []entities.Hash {
	hashes := []entities.Hash{}
	for _, c := range sbomjson.Objects(entry, "checksums") {
		alg := sbomjson.String(c, "algorithm")
		value := sbomjson.String(c, "checksumValue")
		if alg == "" && value == "" {
			continue
		}
		hashes = append(hashes, entities.Hash{Algorithm: sbomjson.NormalizeHashAlgorithm(alg), Content: value})
	}
	sbomjson.SortHashes(hashes)
	return hashes
}

// stripActor removes the SPDX actor prefix ("Organization: ", "Person: ",
// "Tool: ") and treats NOASSERTION as absent
func stripActor(actor string) string {
	actor = strings.TrimSpace(actor)
	if actor == noAssertion || actor == none {
		return ""
	}
	for _, prefix := range []string{"Organization:", "Person:", "Tool:"} {
		if rest, ok := strings.CutPrefix(actor, prefix); ok {
			return strings.TrimSpace(rest)
		}
	}
	return actor
}

func parseRelationships(doc map[string]any) []entities.DependencyEdge {
	edges := []entities.DependencyEdge{}
	for _, rel := range sbomjson.Objects(doc, "relationships") {
		relType := sbomjson.String(rel, "relationshipType")
		if !isDependencyRelationship(relType) {
			continue
		}
		from, to := sbomjson.String(rel, "spdxElementId"), sbomjson.String(rel, "relatedSpdxElement")
		if from == "" || to == "" {
			continue
		}
		edges = append(edges, entities.DependencyEdge{From: from, To: to, Type: relType})
	}
	return edges
}

func isDependencyRelationship(relType string) bool {
	for _, marker := range dependencyRelationships {
		if strings.Contains(relType, marker) {
			return true
		}
	}
	return false
}
