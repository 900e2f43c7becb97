package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
)

// DefaultEPSSURL is the FIRST EPSS API endpoint
const DefaultEPSSURL = "https://api.first.org/data/v1/epss"

// epssBatchSize keeps request URLs well below common length limits
const epssBatchSize = 50

type epssResponse struct {
	Status string `json:"status"`
	Data   []struct {
		CVE  string `json:"cve"`
		EPSS string `json:"epss"`
	} `json:"data"`
}

// epssGateway attaches exploitation probabilities from the EPSS API.
// Scores are cached per CVE; CVEs without a score are cached as absent.
type epssGateway struct {
	apiURL     string
	httpClient *http.Client
	cache      *expirable.LRU[string, float64]
	logger     interfaces.Logger
}

// NewEPSSGateway creates an EPSS enricher
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewEPSSGateway(apiURL string, cacheSize int, cacheTTL time.Duration, logger interfaces.Logger) *epssGateway {
	if apiURL == "" {
		apiURL = DefaultEPSSURL
	}
	if cacheSize <= 0 {
		cacheSize = 1024
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &epssGateway{
		apiURL:     apiURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		cache:      expirable.NewLRU[string, float64](cacheSize, nil, cacheTTL),
		logger:     logger,
	}
}

// Name identifies the enricher in logs
func (g *epssGateway) Name() string {
	return "epss"
}

// Enrich sets epss to the highest probability among the CVE identifiers of
// each vulnerability. Vulnerabilities without a CVE are left untouched.
func (g *epssGateway) Enrich(ctx context.Context, vulnerabilities []entities.Vulnerability) ([]entities.Vulnerability, error) {
	var missing []string
	for _, v := range vulnerabilities {
		for _, id := range cveIdentifiers(v) {
			if _, ok := g.cache.Get(id); !ok && !slices.Contains(missing, id) {
				missing = append(missing, id)
			}
		}
	}

	for start := 0; start < len(missing); start += epssBatchSize {
		end := min(start+epssBatchSize, len(missing))
		if err := g.fetch(ctx, missing[start:end]); err != nil {
			return nil, err
		}
	}

	enriched := cloneVulnerabilities(vulnerabilities)
	for i := range enriched {
		best, found := 0.0, false
		for _, id := range cveIdentifiers(enriched[i]) {
			if score, ok := g.cache.Get(id); ok && score >= 0 {
				best, found = max(best, score), true
			}
		}
		if found {
			score := best
			enriched[i].EPSS = &score
		}
	}
	return enriched, nil
}

func (g *epssGateway) fetch(ctx context.Context, cves []string) error {
	endpoint, err := url.Parse(g.apiURL)
	if err != nil {
		return fmt.Errorf("invalid EPSS URL: %w", err)
	}
	q := endpoint.Query()
	q.Set("cve", strings.Join(cves, ","))
	endpoint.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("EPSS API request failed: %w", err)
	}
	//nolint:errcheck // Defer close on HTTP response body
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &StatusError{Service: "EPSS API", StatusCode: resp.StatusCode}
	}

	var body epssResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return fmt.Errorf("failed to parse EPSS response: %w: %w", ErrMalformedResponse, err)
	}

	for _, cve := range cves {
		g.cache.Add(cve, -1)
	}
	for _, d := range body.Data {
		score, err := strconv.ParseFloat(d.EPSS, 64)
		if err != nil {
			g.logger.Debug("skipping unparseable EPSS score", interfaces.F("cve", d.CVE), interfaces.F("epss", d.EPSS))
			continue
		}
		g.cache.Add(strings.ToUpper(d.CVE), score)
	}
	return nil
}

func cveIdentifiers(v entities.Vulnerability) []string {
	var ids []string
	for _, id := range v.Identifiers() {
		if upper := strings.ToUpper(id); strings.HasPrefix(upper, "CVE-") {
			ids = append(ids, upper)
		}
	}
	return ids
}
