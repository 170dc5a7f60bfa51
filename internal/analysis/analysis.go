package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/trustscope/trustscope/internal/commentary"
	"github.com/trustscope/trustscope/internal/comments"
	"github.com/trustscope/trustscope/internal/score"
	"github.com/trustscope/trustscope/internal/signals"
	"github.com/trustscope/trustscope/internal/validation"
)

// Request asks for a trust analysis of one URL.
//
// Content is the already fetched page text or HTML. Signals carries values the
// caller computed itself (domain age, SSL status and so on); they win over any
// collector producing a signal of the same name.
type Request struct {
	URL           string                       `json:"url"`
	Kind          score.TargetKind             `json:"kind,omitempty"`
	Content       string                       `json:"content,omitempty"`
	Salary        float64                      `json:"salary,omitempty"`
	MarketSalary  float64                      `json:"marketSalary,omitempty"`
	ContactEmail  string                       `json:"contactEmail,omitempty"`
	CompanyDomain string                       `json:"companyDomain,omitempty"`
	Signals       map[string]score.SignalValue `json:"signals,omitempty"`
}

// Record is a stored analysis
type Record struct {
	ID         uuid.UUID     `json:"id"`
	Result     *score.Result `json:"result"`
	AnalyzedAt time.Time     `json:"analyzedAt"`
}

func (r *Record) clone() *Record {
	cp := *r
	cp.Result = r.Result.Clone()
	return &cp
}

// Options configures a Service
type Options struct {
	Store       Store
	Collectors  []signals.Collector
	Commentator commentary.Commentator
	Timeout     time.Duration
	Logger      hclog.Logger
}

// Service runs analyses
type Service struct {
	store       Store
	collectors  []signals.Collector
	commentator commentary.Commentator
	timeout     time.Duration
	logger      hclog.Logger
	now         func() time.Time
}

// NewService creates an analysis service. A nil Store means in-memory storage.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	return &Service{
		store:       opts.Store,
		collectors:  opts.Collectors,
		commentator: opts.Commentator,
		timeout:     opts.Timeout,
		logger:      opts.Logger.Named("analysis"),
		now:         time.Now,
	}
}

// Analyze collects signals for req, scores them and stores the outcome
func (s *Service) Analyze(ctx context.Context, req Request) (*Record, error) {
	target, err := s.target(req)
	if err != nil {
		return nil, err
	}

	collectors := s.collectorsFor(req)
	if len(collectors) == 0 {
		return nil, validation.Errorf("signals", "no signals can be collected for this request")
	}

	start := s.now()
	collected := signals.Collect(ctx, collectors, target, s.timeout, s.logger)
	s.logger.Debug("signals collected", "target", target.Domain, "count", len(collected), "duration", s.now().Sub(start))

	result, err := score.Aggregate(score.Input{
		Target:  target.URL,
		Domain:  target.Domain,
		Kind:    target.Kind,
		Signals: collected,
	})
	if err != nil {
		return nil, err
	}

	if s.commentator != nil {
		text, err := s.commentator.Comment(ctx, result)
		if err != nil {
			s.logger.Warn("AI commentary failed", "target", target.Domain, "error", err)
		} else if text != "" {
			result = result.WithAIAnalysis(text)
		}
	}

	rec := &Record{
		ID:         uuid.New(),
		Result:     result,
		AnalyzedAt: s.now().UTC(),
	}
	if err := s.store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("save analysis: %w", err)
	}

	s.logger.Info("analysis complete", "id", rec.ID, "target", target.Domain, "score", result.Score, "verdict", result.Verdict)
	return rec, nil
}

// Get returns a stored analysis
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) target(req Request) (signals.Target, error) {
	raw := strings.TrimSpace(req.URL)
	if raw == "" {
		return signals.Target{}, validation.Errorf("url", "is required")
	}
	domain, err := comments.NormalizeTarget(raw)
	if err != nil {
		return signals.Target{}, validation.Errorf("url", "%q is not a valid URL", raw)
	}

	kind := req.Kind
	if kind == "" {
		kind = score.KindWebsite
	}
	if !kind.Valid() {
		return signals.Target{}, validation.Errorf("kind", "unknown target kind %q", kind)
	}

	companyDomain := ""
	if req.CompanyDomain != "" {
		if companyDomain, err = comments.NormalizeTarget(req.CompanyDomain); err != nil {
			return signals.Target{}, validation.Errorf("companyDomain", "%q is not a valid domain", req.CompanyDomain)
		}
	}

	return signals.Target{
		URL:           raw,
		Domain:        domain,
		Kind:          kind,
		Content:       req.Content,
		Salary:        req.Salary,
		MarketSalary:  req.MarketSalary,
		ContactEmail:  req.ContactEmail,
		CompanyDomain: companyDomain,
	}, nil
}

// collectorsFor merges the configured collectors with the caller's signals,
// the latter replacing collectors of the same name
func (s *Service) collectorsFor(req Request) []signals.Collector {
	out := make([]signals.Collector, 0, len(s.collectors)+len(req.Signals))
	for _, c := range s.collectors {
		if _, supplied := req.Signals[c.Name()]; supplied {
			continue
		}
		out = append(out, c)
	}
	for name, v := range req.Signals {
		out = append(out, signals.Static(name, v))
	}
	return out
}
