package gateways

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
)

// DefaultKEVFeed is the CISA Known Exploited Vulnerabilities catalogue
const DefaultKEVFeed = "https://www.cisa.gov/sites/default/files/feeds/known_exploited_vulnerabilities.json"

const maxKEVCatalogSize = 64 * 1024 * 1024

// kevCatalog is the subset of the CISA catalogue used for enrichment
type kevCatalog struct {
	CatalogVersion  string `json:"catalogVersion"`
	Vulnerabilities []struct {
		CVEID     string `json:"cveID"`
		DateAdded string `json:"dateAdded"`
	} `json:"vulnerabilities"`
}

// kevGateway flags vulnerabilities listed in the KEV catalogue. The catalogue
// is loaded on first use from a URL or a local file and kept in memory. A
// failed load is remembered so the feed is fetched at most once per run.
type kevGateway struct {
	source     string
	httpClient *http.Client
	logger     interfaces.Logger

	mu      sync.Mutex
	listed  map[string]struct{}
	loadErr error
}

// NewKEVGateway creates a KEV enricher reading the catalogue from source,
// which is either an http(s) URL or a file path
//
//nolint:revive // unexported-return: Intentionally returns concrete type for testability
func NewKEVGateway(source string, logger interfaces.Logger) *kevGateway {
	if source == "" {
		source = DefaultKEVFeed
	}
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}
	return &kevGateway{
		source:     source,
		httpClient: &http.Client{Timeout: 60 * time.Second},
		logger:     logger,
	}
}

// Name identifies the enricher in logs
func (g *kevGateway) Name() string {
	return "kev"
}

// Enrich sets kev on every vulnerability. A vulnerability is known exploited
// when its ID or any alias is in the catalogue.
func (g *kevGateway) Enrich(ctx context.Context, vulnerabilities []entities.Vulnerability) ([]entities.Vulnerability, error) {
	listed, err := g.catalogue(ctx)
	if err != nil {
		return nil, err
	}

	enriched := cloneVulnerabilities(vulnerabilities)
	for i := range enriched {
		known := false
		for _, id := range enriched[i].Identifiers() {
			if _, ok := listed[strings.ToUpper(id)]; ok {
				known = true
				break
			}
		}
		if known || enriched[i].KEV == nil {
			enriched[i].KEV = &known
		}
	}
	return enriched, nil
}

func (g *kevGateway) catalogue(ctx context.Context) (map[string]struct{}, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.listed != nil {
		return g.listed, nil
	}
	if g.loadErr != nil {
		return nil, g.loadErr
	}

	catalog, err := g.load(ctx)
	if err != nil {
		// A canceled caller says nothing about the feed
		if ctx.Err() == nil {
			g.loadErr = fmt.Errorf("KEV catalogue: %w: %w", ErrSourceUnavailable, err)
		}
		return nil, err
	}

	listed := make(map[string]struct{}, len(catalog.Vulnerabilities))
	for _, v := range catalog.Vulnerabilities {
		if v.CVEID != "" {
			listed[strings.ToUpper(v.CVEID)] = struct{}{}
		}
	}
	g.listed = listed

	g.logger.Debug("KEV catalogue loaded",
		interfaces.F("version", catalog.CatalogVersion),
		interfaces.F("entries", len(listed)),
	)
	return listed, nil
}

func (g *kevGateway) load(ctx context.Context) (*kevCatalog, error) {
	reader, err := g.open(ctx)
	if err != nil {
		return nil, err
	}
	//nolint:errcheck // Defer close on catalogue reader
	defer reader.Close()

	var catalog kevCatalog
	if err := json.NewDecoder(io.LimitReader(reader, maxKEVCatalogSize)).Decode(&catalog); err != nil {
		return nil, fmt.Errorf("failed to parse KEV catalogue: %w: %w", ErrMalformedResponse, err)
	}
	return &catalog, nil
}

func (g *kevGateway) open(ctx context.Context) (io.ReadCloser, error) {
	if !strings.HasPrefix(g.source, "http://") && !strings.HasPrefix(g.source, "https://") {
		//nolint:gosec // G304: catalogue path is operator configuration
		f, err := os.Open(g.source)
		if err != nil {
			return nil, fmt.Errorf("failed to open KEV catalogue: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.source, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("KEV catalogue download failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, &StatusError{Service: "KEV feed", StatusCode: resp.StatusCode}
	}
	return resp.Body, nil
}
