// Package yaml provides YAML-based risk policy parsing.
package yaml

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"gopkg.in/yaml.v3"
)

// yamlPolicy represents the raw YAML structure
type yamlPolicy struct {
	ApprovedLicenses    []string                `yaml:"approved_licenses"`
	DeniedLicenses      []string                `yaml:"denied_licenses"`
	InactiveMaintainers []string                `yaml:"inactive_maintainers"`
	Overrides           map[string]yamlOverride `yaml:"overrides"`
}

type yamlOverride struct {
	LicenseApproved  *bool `yaml:"license_approved"`
	MaintainerActive *bool `yaml:"maintainer_active"`
}

// PolicyParser parses YAML risk policy files
type PolicyParser struct{}

// NewPolicyParser creates a new YAML policy parser
func NewPolicyParser() *PolicyParser {
	return &PolicyParser{}
}

// ParseFile parses a YAML policy file into a RiskPolicy entity
func (p *PolicyParser) ParseFile(filePath string) (*entities.RiskPolicy, error) {
	//nolint:gosec // G304: filePath is the policy path supplied by the operator
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filePath, err)
	}

	return p.Parse(data)
}

// Parse parses YAML bytes into a RiskPolicy entity. Unknown keys are rejected
// so that typos do not silently disable a rule.
func (p *PolicyParser) Parse(data []byte) (*entities.RiskPolicy, error) {
	var raw yamlPolicy
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&raw); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	policy := &entities.RiskPolicy{
		ApprovedLicenses:    cleanList(raw.ApprovedLicenses),
		DeniedLicenses:      cleanList(raw.DeniedLicenses),
		InactiveMaintainers: cleanList(raw.InactiveMaintainers),
		Overrides:           convertOverrides(raw.Overrides),
	}

	if err := validatePolicy(policy); err != nil {
		return nil, err
	}
	return policy, nil
}

func cleanList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			cleaned = append(cleaned, v)
		}
	}
	return cleaned
}

func convertOverrides(raw map[string]yamlOverride) map[string]entities.PolicyOverride {
	overrides := make(map[string]entities.PolicyOverride, len(raw))
	for key, o := range raw {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		overrides[key] = entities.PolicyOverride{
			LicenseApproved:  o.LicenseApproved,
			MaintainerActive: o.MaintainerActive,
		}
	}
	return overrides
}

func validatePolicy(policy *entities.RiskPolicy) error {
	for _, denied := range policy.DeniedLicenses {
		for _, approved := range policy.ApprovedLicenses {
			if strings.EqualFold(denied, approved) {
				return fmt.Errorf("license %q is both approved and denied", denied)
			}
		}
	}
	for key, o := range policy.Overrides {
		if o.LicenseApproved == nil && o.MaintainerActive == nil {
			return fmt.Errorf("override %q sets neither license_approved nor maintainer_active", key)
		}
	}
	return nil
}
