package gateways

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ochairo/sbomrisk/internal/domain/entities"
)

func TestCompositeVulnerabilityGateway_Lookup(t *testing.T) {
	source := &stubGateway{results: []stubResult{{vulns: []entities.Vulnerability{{ID: "CVE-2021-44228"}}}}}

	markKEV := &stubEnricher{name: "kev", fn: func(v []entities.Vulnerability) []entities.Vulnerability {
		v[0].KEV = boolPtr(true)
		return v
	}}
	broken := &stubEnricher{name: "epss", err: errors.New("upstream down")}

	gateway := NewCompositeVulnerabilityGateway(source, nil, broken, markKEV)

	vulns, err := gateway.Lookup(context.Background(), entities.Component{Name: "log4j-core"})
	require.NoError(t, err)
	require.Len(t, vulns, 1)
	assert.True(t, vulns[0].IsKEV())
	assert.Nil(t, vulns[0].EPSS)
}

func TestCompositeVulnerabilityGateway_SourceError(t *testing.T) {
	source := &stubGateway{results: []stubResult{{err: errors.New("boom")}}}
	called := false
	enricher := &stubEnricher{name: "kev", fn: func(v []entities.Vulnerability) []entities.Vulnerability {
		called = true
		return v
	}}

	gateway := NewCompositeVulnerabilityGateway(source, nil, enricher)

	_, err := gateway.Lookup(context.Background(), entities.Component{Name: "x"})
	require.Error(t, err)
	assert.False(t, called)
}

func TestCompositeVulnerabilityGateway_SkipsEnrichersWhenClean(t *testing.T) {
	source := &stubGateway{results: []stubResult{{vulns: []entities.Vulnerability{}}}}
	enricher := &stubEnricher{name: "kev", err: errors.New("must not be called")}

	gateway := NewCompositeVulnerabilityGateway(source, nil, enricher)

	vulns, err := gateway.Lookup(context.Background(), entities.Component{Name: "x"})
	require.NoError(t, err)
	assert.Empty(t, vulns)
}

func TestCompositeVulnerabilityGateway_WarnsOnceWhenKEVFeedIsDown(t *testing.T) {
	var requests atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		requests.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	source := &stubGateway{results: []stubResult{{vulns: []entities.Vulnerability{{ID: "CVE-2021-44228"}}}}}
	logger := &recordingLogger{}
	gateway := NewCompositeVulnerabilityGateway(source, logger, NewKEVGateway(server.URL, nil))

	for _, name := range []string{"a", "b", "c", "d"} {
		vulns, err := gateway.Lookup(context.Background(), entities.Component{ID: name, Name: name})
		require.NoError(t, err)
		require.Len(t, vulns, 1)
		assert.Nil(t, vulns[0].KEV)
	}
	assert.Equal(t, int32(1), requests.Load())
	assert.Equal(t, 1, logger.warnCount())
}
