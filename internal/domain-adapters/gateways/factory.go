package gateways

import (
	"fmt"
	"strings"
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces/gateways"
)

// Lookup modes
const (
	LookupNone = "none"
	LookupOSV  = "osv"
	LookupFile = "file"
)

// LookupConfig selects and tunes the vulnerability lookup stack
type LookupConfig struct {
	Mode      string
	OSVURL    string
	VulnsFile string

	RequestsPerSecond float64
	Burst             int
	Retries           uint64
	Timeout           time.Duration
	CacheSize         int
	CacheTTL          time.Duration

	KEV     bool
	KEVFeed string
	EPSS    bool
	EPSSURL string
}

// NewVulnerabilityGateway builds the lookup stack described by cfg: a source
// (none, OSV behind rate limiting and retries, or a local file) followed by
// the enabled KEV and EPSS enrichers
func NewVulnerabilityGateway(cfg LookupConfig, logger interfaces.Logger) (gateways.VulnerabilityGateway, error) {
	if logger == nil {
		logger = &interfaces.NoOpLogger{}
	}

	var source gateways.VulnerabilityGateway
	switch mode := strings.ToLower(strings.TrimSpace(cfg.Mode)); mode {
	case "", LookupNone:
		return NewNoopGateway(), nil
	case LookupOSV:
		osv := NewOSVGateway(OSVOptions{
			APIURL:    cfg.OSVURL,
			CacheSize: cfg.CacheSize,
			CacheTTL:  cfg.CacheTTL,
			Logger:    logger,
		})
		source = NewResilientGateway(osv, ResilienceOptions{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
			Retries:           cfg.Retries,
			AttemptTimeout:    cfg.Timeout,
		}, logger)
	case LookupFile:
		if cfg.VulnsFile == "" {
			return nil, fmt.Errorf("lookup mode %q requires a vulnerabilities file", mode)
		}
		file, err := NewFileGateway(cfg.VulnsFile)
		if err != nil {
			return nil, err
		}
		source = file
	default:
		return nil, fmt.Errorf("unknown lookup mode %q (want %s, %s or %s)", cfg.Mode, LookupNone, LookupOSV, LookupFile)
	}

	var enrichers []gateways.VulnerabilityEnricher
	if cfg.KEV {
		enrichers = append(enrichers, NewKEVGateway(cfg.KEVFeed, logger))
	}
	if cfg.EPSS {
		enrichers = append(enrichers, NewEPSSGateway(cfg.EPSSURL, cfg.CacheSize, cfg.CacheTTL, logger))
	}
	if len(enrichers) == 0 {
		return source, nil
	}
	return NewCompositeVulnerabilityGateway(source, logger, enrichers...), nil
}
