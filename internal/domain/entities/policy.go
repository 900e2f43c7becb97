package entities

// ComponentPolicy holds caller-supplied policy flags for one component.
// A nil flag means the policy has no opinion and no deduction applies.
type ComponentPolicy struct {
	LicenseApproved  *bool
	MaintainerActive *bool
}

// RiskPolicy represents an organization's license and maintainer policy
type RiskPolicy struct {
	ApprovedLicenses    []string
	DeniedLicenses      []string
	InactiveMaintainers []string
	Overrides           map[string]PolicyOverride // keyed by purl, name@version or name
}

// PolicyOverride pins the policy flags of a single component
type PolicyOverride struct {
	LicenseApproved  *bool
	MaintainerActive *bool
}
