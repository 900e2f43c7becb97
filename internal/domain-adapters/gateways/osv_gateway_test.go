package gateways

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

// Test creating a new OSV gateway
func TestNewOSVGateway(t *testing.T) {
	gateway := NewOSVGateway(OSVOptions{})

	if gateway == nil {
		t.Fatal("NewOSVGateway returned nil")
	}
	if gateway.apiURL != DefaultOSVURL {
		t.Errorf("API URL = %s, want %s", gateway.apiURL, DefaultOSVURL)
	}
	if gateway.cache != nil {
		t.Error("cache should be disabled without a cache size")
	}
}

// Test lookup by purl with vulnerabilities found
func TestOSVGateway_Lookup_ByPurl(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("Method = %s, want POST", r.Method)
		}

		var query OSVQueryRequest
		if err := json.NewDecoder(r.Body).Decode(&query); err != nil {
			t.Fatalf("failed to decode query: %v", err)
		}
		if query.Package.PURL != "pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1" {
			t.Errorf("PURL = %s, want qualifiers stripped", query.Package.PURL)
		}
		if query.Version != "" {
			t.Errorf("Version = %s, want empty for purl queries", query.Version)
		}

		_ = json.NewEncoder(w).Encode(OSVQueryResponse{
			Vulns: []OSVVulnerability{
				{
					ID:      "GHSA-jfh8-c2jp-5v3q",
					Aliases: []string{"CVE-2021-44228"},
					Summary: "Remote code injection in Log4j",
					Severity: []OSVSeverity{
						{Type: "CVSS_V3", Score: "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:C/C:H/I:H/A:H"},
					},
					DatabaseSpecific: map[string]any{"severity": "CRITICAL"},
				},
				{
					ID:               "GHSA-xxxx",
					Details:          "Denial of service\nMore details",
					DatabaseSpecific: map[string]any{"severity": "MODERATE"},
				},
			},
		})
	}))
	defer server.Close()

	gateway := NewOSVGateway(OSVOptions{APIURL: server.URL})

	vulns, err := gateway.Lookup(context.Background(), entities.Component{
		Purl: "pkg:maven/org.apache.logging.log4j/log4j-core@2.14.1?type=jar",
	})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(vulns) != 2 {
		t.Fatalf("Expected 2 vulnerabilities, got: %d", len(vulns))
	}

	log4shell := vulns[0]
	if log4shell.Severity != entities.SeverityCritical {
		t.Errorf("Severity = %s, want CRITICAL", log4shell.Severity)
	}
	if log4shell.CVSSV3Score == nil || *log4shell.CVSSV3Score != 10.0 {
		t.Errorf("CVSSV3Score = %v, want 10.0", log4shell.CVSSV3Score)
	}
	if log4shell.MaxCVSS() != 10.0 {
		t.Errorf("MaxCVSS() = %v, want 10.0", log4shell.MaxCVSS())
	}

	dos := vulns[1]
	if dos.Severity != entities.SeverityMedium {
		t.Errorf("Severity = %s, want MEDIUM", dos.Severity)
	}
	if dos.Summary != "Denial of service" {
		t.Errorf("Summary = %q, want first line of details", dos.Summary)
	}
	if dos.CVSSMax != nil {
		t.Errorf("CVSSMax = %v, want nil", *dos.CVSSMax)
	}
}

// Test lookup by name and ecosystem without purl
func TestOSVGateway_Lookup_ByName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var query OSVQueryRequest
		_ = json.NewDecoder(r.Body).Decode(&query)

		if query.Package.Name != "requests" || query.Package.Ecosystem != "PyPI" || query.Version != "2.19.0" {
			t.Errorf("query = %+v, want requests/PyPI/2.19.0", query)
		}
		_ = json.NewEncoder(w).Encode(OSVQueryResponse{})
	}))
	defer server.Close()

	gateway := NewOSVGateway(OSVOptions{APIURL: server.URL})
	vulns, err := gateway.Lookup(context.Background(), entities.Component{Name: "requests", Version: "2.19.0", Ecosystem: "pypi"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if vulns == nil || len(vulns) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", vulns)
	}
}

// Test pagination through next_page_token
func TestOSVGateway_Lookup_Pagination(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var query OSVQueryRequest
		_ = json.NewDecoder(r.Body).Decode(&query)

		if query.PageToken == "" {
			_ = json.NewEncoder(w).Encode(OSVQueryResponse{
				Vulns:         []OSVVulnerability{{ID: "OSV-1"}},
				NextPageToken: "page-2",
			})
			return
		}
		_ = json.NewEncoder(w).Encode(OSVQueryResponse{Vulns: []OSVVulnerability{{ID: "OSV-2"}}})
	}))
	defer server.Close()

	gateway := NewOSVGateway(OSVOptions{APIURL: server.URL})
	vulns, err := gateway.Lookup(context.Background(), entities.Component{Purl: "pkg:npm/lodash@4.17.20"})
	if err != nil {
		t.Fatalf("Lookup failed: %v", err)
	}
	if len(vulns) != 2 || vulns[1].ID != "OSV-2" {
		t.Errorf("Expected both pages, got %+v", vulns)
	}
}

// Test status handling
func TestOSVGateway_Lookup_Status(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantErr       bool
		wantTemporary bool
	}{
		{name: "not found is empty", status: http.StatusNotFound},
		{name: "bad request is permanent", status: http.StatusBadRequest, wantErr: true},
		{name: "rate limited is temporary", status: http.StatusTooManyRequests, wantErr: true, wantTemporary: true},
		{name: "server error is temporary", status: http.StatusBadGateway, wantErr: true, wantTemporary: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			gateway := NewOSVGateway(OSVOptions{APIURL: server.URL})
			vulns, err := gateway.Lookup(context.Background(), entities.Component{Name: "x", Version: "1"})

			if !tt.wantErr {
				if err != nil || len(vulns) != 0 {
					t.Errorf("Lookup() = %v, %v; want empty, nil", vulns, err)
				}
				return
			}
			if err == nil {
				t.Fatal("Lookup() expected error")
			}
			if got := isRetryable(err); got != tt.wantTemporary {
				t.Errorf("isRetryable() = %v, want %v", got, tt.wantTemporary)
			}
		})
	}
}

// Test malformed body is not retryable
func TestOSVGateway_Lookup_MalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json"))
	}))
	defer server.Close()

	gateway := NewOSVGateway(OSVOptions{APIURL: server.URL})
	_, err := gateway.Lookup(context.Background(), entities.Component{Name: "x"})
	if err == nil {
		t.Fatal("Lookup() expected error")
	}
	if isRetryable(err) {
		t.Error("malformed response should not be retryable")
	}
}

// Test caching avoids repeat requests
func TestOSVGateway_Lookup_Cache(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		_ = json.NewEncoder(w).Encode(OSVQueryResponse{Vulns: []OSVVulnerability{{ID: "OSV-1"}}})
	}))
	defer server.Close()

	gateway := NewOSVGateway(OSVOptions{APIURL: server.URL, CacheSize: 16, CacheTTL: time.Minute})
	component := entities.Component{Purl: "pkg:npm/lodash@4.17.20"}

	for i := 0; i < 3; i++ {
		vulns, err := gateway.Lookup(context.Background(), component)
		if err != nil || len(vulns) != 1 {
			t.Fatalf("Lookup() = %v, %v", vulns, err)
		}
		vulns[0].ID = "mutated"
	}
	if got := requests.Load(); got != 1 {
		t.Errorf("requests = %d, want 1", got)
	}
}

// Test components without name or purl are skipped
func TestOSVGateway_Lookup_Unidentifiable(t *testing.T) {
	gateway := NewOSVGateway(OSVOptions{APIURL: "http://127.0.0.1:0"})
	vulns, err := gateway.Lookup(context.Background(), entities.Component{ID: "component-0"})
	if err != nil || len(vulns) != 0 {
		t.Errorf("Lookup() = %v, %v; want empty, nil", vulns, err)
	}
}

func TestParseCVSS(t *testing.T) {
	tests := []struct {
		scoreType string
		value     string
		want      float64
		ok        bool
	}{
		{"CVSS_V3", "CVSS:3.1/AV:N/AC:L/PR:N/UI:N/S:U/C:H/I:H/A:H", 9.8, true},
		{"CVSS_V3", "CVSS:3.0/AV:N/AC:L/PR:N/UI:R/S:U/C:L/I:L/A:N", 5.4, true},
		{"CVSS_V2", "AV:N/AC:L/Au:N/C:P/I:P/A:P", 7.5, true},
		{"CVSS_V3", "7.3", 7.3, true},
		{"CVSS_V3", "garbage", 0, false},
		{"CVSS_V3", "", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			got, ok := parseCVSS(tt.scoreType, tt.value)
			if ok != tt.ok || got != tt.want {
				t.Errorf("parseCVSS() = %v, %v; want %v, %v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestSeverityBand(t *testing.T) {
	tests := []struct {
		advisory string
		score    float64
		want     string
	}{
		{"moderate", 0, entities.SeverityMedium},
		{"HIGH", 2.0, entities.SeverityHigh},
		{"", 9.0, entities.SeverityCritical},
		{"", 7.0, entities.SeverityHigh},
		{"", 4.0, entities.SeverityMedium},
		{"", 0.1, entities.SeverityLow},
		{"", 0, entities.SeverityUnknown},
		{"weird", 0, entities.SeverityUnknown},
	}

	for _, tt := range tests {
		if got := severityBand(tt.advisory, tt.score); got != tt.want {
			t.Errorf("severityBand(%q, %v) = %s, want %s", tt.advisory, tt.score, got, tt.want)
		}
	}
}
