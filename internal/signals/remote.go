package signals

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/hashicorp/go-hclog"
	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"github.com/trustscope/trustscope/internal/score"
)

// RemoteSignals are the signals an external signal service provides
// (WHOIS age, SSL status, social mentions, malware lists)
var RemoteSignals = []string{
	score.SignalMalware,
	score.SignalDomainAge,
	score.SignalSSL,
	score.SignalSocialMentions,
}

// RemoteConfig configures the external signal service client
type RemoteConfig struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
	Burst         int
	CacheTTL      time.Duration
}

// RemoteSource fetches signals from an external service. Requests share one
// rate limiter and successful answers are cached per signal and domain.
type RemoteSource struct {
	client  *resty.Client
	limiter *rate.Limiter
	cache   *gocache.Cache
	logger  hclog.Logger
}

// NewRemoteSource creates a client for the signal service at cfg.BaseURL
func NewRemoteSource(cfg RemoteConfig, logger hclog.Logger) *RemoteSource {
	if cfg.Burst <= 0 {
		cfg.Burst = 5
	}
	limit := rate.Limit(cfg.RatePerSecond)
	if cfg.RatePerSecond <= 0 {
		limit = rate.Inf
	}

	client := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")

	return &RemoteSource{
		client:  client,
		limiter: rate.NewLimiter(limit, cfg.Burst),
		cache:   gocache.New(cfg.CacheTTL, 2*cfg.CacheTTL),
		logger:  logger.Named("remote-signals"),
	}
}

// Collectors returns one collector per remote signal
func (s *RemoteSource) Collectors() []Collector {
	out := make([]Collector, 0, len(RemoteSignals))
	for _, name := range RemoteSignals {
		out = append(out, remoteCollector{source: s, name: name})
	}
	return out
}

// Collector returns the collector for a single remote signal
func (s *RemoteSource) Collector(name string) Collector {
	return remoteCollector{source: s, name: name}
}

type remoteCollector struct {
	source *RemoteSource
	name   string
}

func (c remoteCollector) Name() string { return c.name }

func (c remoteCollector) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	s := c.source
	key := c.name + "|" + target.Domain
	if v, ok := s.cache.Get(key); ok {
		return v.(score.SignalValue), nil
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return score.SignalValue{Kind: c.name}, fmt.Errorf("wait for rate limit: %w", err)
	}

	var out score.SignalValue
	resp, err := s.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"target": target.URL, "domain": target.Domain}).
		SetResult(&out).
		Get("/signals/" + c.name)
	if err != nil {
		return score.SignalValue{Kind: c.name}, fmt.Errorf("fetch %s signal: %w", c.name, err)
	}
	if resp.IsError() {
		return score.SignalValue{Kind: c.name}, fmt.Errorf("fetch %s signal: status %d", c.name, resp.StatusCode())
	}

	if out.Kind == "" {
		out.Kind = c.name
	}
	if !out.Unavailable {
		s.cache.SetDefault(key, out)
	}
	s.logger.Debug("remote signal fetched", "signal", c.name, "domain", target.Domain)
	return out, nil
}
