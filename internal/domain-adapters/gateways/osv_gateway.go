package gateways

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	gocvss20 "github.com/pandatix/go-cvss/20"
	gocvss30 "github.com/pandatix/go-cvss/30"
	gocvss31 "github.com/pandatix/go-cvss/31"
	gocvss40 "github.com/pandatix/go-cvss/40"
	"github.com/package-url/packageurl-go"
	"golang.org/x/sync/singleflight"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
)

// DefaultOSVURL is the public OSV query endpoint
const DefaultOSVURL = "https://api.osv.dev/v1/query"

// maxOSVPages bounds pagination for packages with very long histories
const maxOSVPages = 20

// osvEcosystems maps purl types to OSV ecosystem names
var osvEcosystems = map[string]string{
	"npm":       "npm",
	"pypi":      "PyPI",
	"golang":    "Go",
	"maven":     "Maven",
	"cargo":     "crates.io",
	"gem":       "RubyGems",
	"nuget":     "NuGet",
	"composer":  "Packagist",
	"hex":       "Hex",
	"pub":       "Pub",
	"swift":     "SwiftURL",
	"cocoapods": "CocoaPods",
	"deb":       "Debian",
	"apk":       "Alpine",
}

// OSVOptions configures the OSV gateway. Zero values select defaults.
type OSVOptions struct {
	APIURL     string
	HTTPClient *http.Client
	CacheSize  int
	CacheTTL   time.Duration
	Logger     interfaces.Logger
}

// osvGateway resolves vulnerabilities through the OSV query API.
// Responses are cached per package and concurrent identical lookups share
// one request.
type osvGateway struct {
	apiURL     string
	httpClient *http.Client
	cache      *expirable.LRU[string, []entities.Vulnerability]
	inflight   singleflight.Group
	logger     interfaces.Logger
}

// NewOSVGateway creates a new OSV gateway
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewOSVGateway(opts OSVOptions) *osvGateway {
	g := &osvGateway{
		apiURL:     opts.APIURL,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
	}
	if g.apiURL == "" {
		g.apiURL = DefaultOSVURL
	}
	if g.httpClient == nil {
		g.httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if g.logger == nil {
		g.logger = &interfaces.NoOpLogger{}
	}
	if opts.CacheSize > 0 {
		g.cache = expirable.NewLRU[string, []entities.Vulnerability](opts.CacheSize, nil, opts.CacheTTL)
	}
	return g
}

// Lookup queries OSV by purl, or by name, ecosystem and version when the
// component has no purl. Components without a name resolve to no
// vulnerabilities.
func (g *osvGateway) Lookup(ctx context.Context, component entities.Component) ([]entities.Vulnerability, error) {
	query, ok := buildOSVQuery(component)
	if !ok {
		return []entities.Vulnerability{}, nil
	}
	key := query.cacheKey()

	if g.cache != nil {
		if cached, hit := g.cache.Get(key); hit {
			return cloneVulnerabilities(cached), nil
		}
	}

	result, err, _ := g.inflight.Do(key, func() (any, error) {
		return g.query(ctx, query)
	})
	if err != nil {
		return nil, err
	}

	vulns, _ := result.([]entities.Vulnerability)
	if g.cache != nil {
		g.cache.Add(key, vulns)
	}
	return cloneVulnerabilities(vulns), nil
}

func (g *osvGateway) query(ctx context.Context, query OSVQueryRequest) ([]entities.Vulnerability, error) {
	vulnerabilities := make([]entities.Vulnerability, 0)

	for page := 0; page < maxOSVPages; page++ {
		resp, err := g.post(ctx, query)
		if err != nil {
			return nil, err
		}
		for _, vuln := range resp.Vulns {
			vulnerabilities = append(vulnerabilities, convertOSVVulnerability(vuln))
		}
		if resp.NextPageToken == "" {
			return vulnerabilities, nil
		}
		query.PageToken = resp.NextPageToken
	}

	g.logger.Warn("OSV pagination truncated",
		interfaces.F("package", query.cacheKey()),
		interfaces.F("pages", maxOSVPages),
	)
	return vulnerabilities, nil
}

func (g *osvGateway) post(ctx context.Context, query OSVQueryRequest) (*OSVQueryResponse, error) {
	body, err := json.Marshal(query)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("OSV API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return &OSVQueryResponse{}, nil
	case resp.StatusCode != http.StatusOK:
		return nil, &StatusError{Service: "OSV API", StatusCode: resp.StatusCode}
	}

	var osvResp OSVQueryResponse
	if err := json.NewDecoder(resp.Body).Decode(&osvResp); err != nil {
		return nil, fmt.Errorf("failed to parse OSV response: %w: %w", ErrMalformedResponse, err)
	}
	return &osvResp, nil
}

// buildOSVQuery prefers the purl, stripped of qualifiers and subpath which
// OSV does not accept
func buildOSVQuery(c entities.Component) (OSVQueryRequest, bool) {
	if c.Purl != "" {
		if p, err := packageurl.FromString(c.Purl); err == nil {
			p.Qualifiers = nil
			p.Subpath = ""
			return OSVQueryRequest{Package: OSVPackage{PURL: p.ToString()}}, true
		}
	}
	if c.Name == "" {
		return OSVQueryRequest{}, false
	}
	ecosystem, ok := osvEcosystems[strings.ToLower(c.Ecosystem)]
	if !ok {
		ecosystem = c.Ecosystem
	}
	return OSVQueryRequest{
		Package: OSVPackage{Name: c.Name, Ecosystem: ecosystem},
		Version: c.Version,
	}, true
}

func convertOSVVulnerability(vuln OSVVulnerability) entities.Vulnerability {
	out := entities.Vulnerability{
		ID:       vuln.ID,
		Aliases:  vuln.Aliases,
		Summary:  vuln.Summary,
		Severity: entities.SeverityUnknown,
	}
	if out.Summary == "" {
		out.Summary, _, _ = strings.Cut(strings.TrimSpace(vuln.Details), "\n")
	}

	severities := vuln.Severity
	for _, affected := range vuln.Affected {
		severities = append(severities, affected.Severity...)
	}

	var maxScore float64
	scored := false
	for _, s := range severities {
		score, ok := parseCVSS(s.Type, s.Score)
		if !ok {
			continue
		}
		scored = true
		maxScore = max(maxScore, score)
		switch s.Type {
		case "CVSS_V2":
			out.CVSSV2Score = maxPtr(out.CVSSV2Score, score)
		case "CVSS_V3":
			out.CVSSV3Score = maxPtr(out.CVSSV3Score, score)
		}
	}
	if scored {
		out.CVSSMax = &maxScore
	}

	out.Severity = severityBand(databaseSeverity(vuln), maxScore)
	return out
}

// parseCVSS accepts numeric scores and CVSS v2, v3.0, v3.1 and v4.0 vectors
func parseCVSS(scoreType, value string) (float64, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0, false
	}
	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f, true
	}

	switch {
	case strings.HasPrefix(value, "CVSS:3.0/"):
		if cvss, err := gocvss30.ParseVector(value); err == nil {
			return cvss.BaseScore(), true
		}
	case strings.HasPrefix(value, "CVSS:3.1/"):
		if cvss, err := gocvss31.ParseVector(value); err == nil {
			return cvss.BaseScore(), true
		}
	case strings.HasPrefix(value, "CVSS:4.0/"):
		if cvss, err := gocvss40.ParseVector(value); err == nil {
			return cvss.Score(), true
		}
	case scoreType == "CVSS_V2" || strings.HasPrefix(value, "AV:"):
		if cvss, err := gocvss20.ParseVector(value); err == nil {
			return cvss.BaseScore(), true
		}
	}
	return 0, false
}

func databaseSeverity(vuln OSVVulnerability) string {
	if s, ok := vuln.DatabaseSpecific["severity"].(string); ok && s != "" {
		return s
	}
	for _, affected := range vuln.Affected {
		if s, ok := affected.DatabaseSpecific["severity"].(string); ok && s != "" {
			return s
		}
		if s, ok := affected.EcosystemSpecific["severity"].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// severityBand prefers the advisory's own rating and falls back to the
// CVSS qualitative scale
func severityBand(advisory string, score float64) string {
	switch strings.ToUpper(strings.TrimSpace(advisory)) {
	case entities.SeverityCritical:
		return entities.SeverityCritical
	case entities.SeverityHigh:
		return entities.SeverityHigh
	case entities.SeverityMedium, "MODERATE":
		return entities.SeverityMedium
	case entities.SeverityLow:
		return entities.SeverityLow
	}

	switch {
	case score >= 9.0:
		return entities.SeverityCritical
	case score >= 7.0:
		return entities.SeverityHigh
	case score >= 4.0:
		return entities.SeverityMedium
	case score > 0:
		return entities.SeverityLow
	default:
		return entities.SeverityUnknown
	}
}

func maxPtr(current *float64, score float64) *float64 {
	if current != nil && *current >= score {
		return current
	}
	return &score
}

func cloneVulnerabilities(vulns []entities.Vulnerability) []entities.Vulnerability {
	out := make([]entities.Vulnerability, len(vulns))
	copy(out, vulns)
	return out
}

// OSV API request/response types

// OSVQueryRequest represents a query to the OSV API for vulnerability information.
type OSVQueryRequest struct {
	Package   OSVPackage `json:"package"`
	Version   string     `json:"version,omitempty"`
	PageToken string     `json:"page_token,omitempty"`
}

func (q OSVQueryRequest) cacheKey() string {
	if q.Package.PURL != "" {
		return q.Package.PURL
	}
	return q.Package.Ecosystem + "/" + q.Package.Name + "@" + q.Version
}

// OSVPackage identifies a software package either by purl or by name in a
// specific ecosystem.
type OSVPackage struct {
	Name      string `json:"name,omitempty"`
	Ecosystem string `json:"ecosystem,omitempty"`
	PURL      string `json:"purl,omitempty"`
}

// OSVQueryResponse contains the vulnerability results from the OSV API.
type OSVQueryResponse struct {
	Vulns         []OSVVulnerability `json:"vulns"`
	NextPageToken string             `json:"next_page_token,omitempty"`
}

// OSVVulnerability represents a single vulnerability from the OSV database.
type OSVVulnerability struct {
	ID               string         `json:"id"`
	Aliases          []string       `json:"aliases,omitempty"`
	Summary          string         `json:"summary"`
	Details          string         `json:"details"`
	Severity         []OSVSeverity  `json:"severity,omitempty"`
	Affected         []OSVAffected  `json:"affected,omitempty"`
	DatabaseSpecific map[string]any `json:"database_specific,omitempty"`
}

// OSVAffected carries the per-package parts of an OSV record that may hold
// severity information.
type OSVAffected struct {
	Severity          []OSVSeverity  `json:"severity,omitempty"`
	EcosystemSpecific map[string]any `json:"ecosystem_specific,omitempty"`
	DatabaseSpecific  map[string]any `json:"database_specific,omitempty"`
}

// OSVSeverity contains severity scoring information for a vulnerability.
type OSVSeverity struct {
	Type  string `json:"type"`
	Score string `json:"score"`
}
