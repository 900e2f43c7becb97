package gateways

import (
	"context"
	"sync"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
	"github.com/ochairo/sbomrisk/internal/domain/interfaces"
)

// stubGateway returns scripted results, one per call, repeating the last
type stubGateway struct {
	mu      sync.Mutex
	results []stubResult
	calls   int
}

type stubResult struct {
	vulns []entities.Vulnerability
	err   error
}

func (s *stubGateway) Lookup(_ context.Context, _ entities.Component) ([]entities.Vulnerability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r := s.results[min(s.calls, len(s.results)-1)]
	s.calls++
	return r.vulns, r.err
}

func (s *stubGateway) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

// stubEnricher applies fn or fails with err
type stubEnricher struct {
	name string
	fn   func([]entities.Vulnerability) []entities.Vulnerability
	err  error
}

func (s *stubEnricher) Name() string { return s.name }

func (s *stubEnricher) Enrich(_ context.Context, vulns []entities.Vulnerability) ([]entities.Vulnerability, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.fn(cloneVulnerabilities(vulns)), nil
}

// recordingLogger counts warnings
type recordingLogger struct {
	interfaces.NoOpLogger
	mu    sync.Mutex
	warns []string
}

func (r *recordingLogger) Warn(msg string, _ ...interfaces.Field) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.warns = append(r.warns, msg)
}

func (r *recordingLogger) warnCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.warns)
}

func boolPtr(b bool) *bool { return &b }
