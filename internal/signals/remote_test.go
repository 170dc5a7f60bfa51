package signals

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscope/trustscope/internal/score"
)

func TestRemoteSource(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/signals/domainAge":
			assert.Equal(t, "example.com", r.URL.Query().Get("domain"))
			json.NewEncoder(w).Encode(score.SignalValue{Kind: "whois", NumericValue: score.Number(40)})
		case "/signals/ssl":
			w.WriteHeader(http.StatusBadGateway)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	src := NewRemoteSource(RemoteConfig{BaseURL: srv.URL, Timeout: time.Second, CacheTTL: time.Minute}, hclog.NewNullLogger())
	target := Target{URL: "https://example.com", Domain: "example.com"}

	got := Collect(context.Background(), []Collector{src.Collector(score.SignalDomainAge), src.Collector(score.SignalSSL)}, target, time.Second, hclog.NewNullLogger())
	require.Contains(t, got, score.SignalDomainAge)
	assert.Equal(t, 40.0, *got[score.SignalDomainAge].NumericValue)
	assert.Equal(t, "whois", got[score.SignalDomainAge].Kind)
	assert.True(t, got[score.SignalSSL].Unavailable)
	assert.Contains(t, got[score.SignalSSL].Reason, "status 502")

	// domain age is served from cache the second time
	before := atomic.LoadInt32(&calls)
	_, err := src.Collector(score.SignalDomainAge).Collect(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, before, atomic.LoadInt32(&calls))

	assert.Len(t, src.Collectors(), len(RemoteSignals))
}
