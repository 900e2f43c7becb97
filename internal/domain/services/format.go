package services

import (
	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// DetectFormat classifies a decoded document by its structure.
// A "components" array or bomFormat "CycloneDX" means CycloneDX; otherwise a
// "packages" array or an "spdxVersion" field means SPDX.
func (s *analysisService) DetectFormat(doc map[string]any) (entities.BOMFormat, error) {
	if doc == nil {
		return "", &entities.MalformedInputError{Reason: "document root must be a JSON object"}
	}

	// Only the array belonging to the format being classified is shape-checked
	components, err := structuralArray(doc, "components")
	if err != nil {
		return "", err
	}
	if components != nil || doc["bomFormat"] == string(entities.BOMFormatCycloneDX) {
		return entities.BOMFormatCycloneDX, nil
	}

	packages, err := structuralArray(doc, "packages")
	if err != nil {
		return "", err
	}
	if packages != nil {
		return entities.BOMFormatSPDX, nil
	}
	if v, ok := doc["spdxVersion"]; ok && v != nil {
		return entities.BOMFormatSPDX, nil
	}

	return "", &entities.UnsupportedFormatError{}
}

// structuralArray returns the array stored under key, or nil when the key
// is absent or null. A present value that is not an array is malformed input.
func structuralArray(doc map[string]any, key string) ([]any, error) {
	raw, ok := doc[key]
	if !ok || raw == nil {
		return nil, nil
	}
	arr, ok := raw.([]any)
	if !ok {
		return nil, &entities.MalformedInputError{Reason: "\"" + key + "\" must be an array"}
	}
	if arr == nil {
		arr = []any{}
	}
	return arr, nil
}
