package services

import (
	"slices"
	"strings"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// licenseSeparators split composite license strings into single identifiers
var licenseSeparators = strings.NewReplacer(" OR ", ",", " AND ", ",", "(", "", ")", "")

// EvaluatePolicy derives the policy flags of a component. Overrides win over
// the license and maintainer lists. Without a policy both flags stay nil.
func (s *analysisService) EvaluatePolicy(component entities.Component) entities.ComponentPolicy {
	var result entities.ComponentPolicy
	if s.policy == nil {
		return result
	}

	result.LicenseApproved = s.licenseApproved(component.License)
	result.MaintainerActive = s.maintainerActive(component)

	if override, ok := s.override(component); ok {
		if override.LicenseApproved != nil {
			result.LicenseApproved = override.LicenseApproved
		}
		if override.MaintainerActive != nil {
			result.MaintainerActive = override.MaintainerActive
		}
	}
	return result
}

func (s *analysisService) override(component entities.Component) (entities.PolicyOverride, bool) {
	if len(s.policy.Overrides) == 0 {
		return entities.PolicyOverride{}, false
	}
	keys := []string{component.Purl, component.Name + "@" + component.Version, component.Name}
	for _, key := range keys {
		if key == "" || key == "@" {
			continue
		}
		if o, ok := s.policy.Overrides[key]; ok {
			return o, true
		}
	}
	return entities.PolicyOverride{}, false
}

// licenseApproved is false when any identifier is denied or, given an
// allow-list, when any identifier is not on it
func (s *analysisService) licenseApproved(license string) *bool {
	if len(s.policy.ApprovedLicenses) == 0 && len(s.policy.DeniedLicenses) == 0 {
		return nil
	}

	ids := licenseIdentifiers(license)
	for _, id := range ids {
		if containsFold(s.policy.DeniedLicenses, id) {
			return boolPtr(false)
		}
	}
	if len(s.policy.ApprovedLicenses) == 0 {
		return boolPtr(true)
	}
	if len(ids) == 0 {
		return boolPtr(false)
	}
	for _, id := range ids {
		if !containsFold(s.policy.ApprovedLicenses, id) {
			return boolPtr(false)
		}
	}
	return boolPtr(true)
}

func (s *analysisService) maintainerActive(component entities.Component) *bool {
	if len(s.policy.InactiveMaintainers) == 0 {
		return nil
	}
	for _, who := range []string{component.Maintainer, component.Supplier} {
		if who != "" && containsFold(s.policy.InactiveMaintainers, who) {
			return boolPtr(false)
		}
	}
	return boolPtr(true)
}

func licenseIdentifiers(license string) []string {
	if license == "" || license == entities.UnknownLicense {
		return nil
	}
	var ids []string
	for _, part := range strings.Split(licenseSeparators.Replace(license), ",") {
		if part = strings.TrimSpace(part); part != "" {
			ids = append(ids, part)
		}
	}
	return ids
}

func containsFold(list []string, value string) bool {
	return slices.ContainsFunc(list, func(item string) bool {
		return strings.EqualFold(strings.TrimSpace(item), strings.TrimSpace(value))
	})
}

func boolPtr(b bool) *bool {
	return &b
}
