package analysis

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscope/trustscope/internal/score"
	"github.com/trustscope/trustscope/internal/signals"
	"github.com/trustscope/trustscope/internal/validation"
)

type fakeCommentator struct {
	text string
	err  error
}

func (f fakeCommentator) Comment(ctx context.Context, result *score.Result) (string, error) {
	return f.text, f.err
}

func newTestService(t *testing.T, commentator fakeCommentator) *Service {
	t.Helper()
	content, err := signals.NewContentAnalyzer("")
	require.NoError(t, err)

	return NewService(Options{
		Collectors: []signals.Collector{
			content,
			signals.SentimentAnalyzer{},
			signals.SalaryAnalyzer{},
			signals.EmailAnalyzer{},
			signals.Static(score.SignalDomainAge, score.SignalValue{NumericValue: score.Number(10)}),
		},
		Commentator: commentator,
		Timeout:     time.Second,
	})
}

func hasFinding(r *score.Result, text string) bool {
	for _, f := range r.Findings {
		if f.Text == text {
			return true
		}
	}
	return false
}

func TestAnalyzeWebsite(t *testing.T) {
	svc := newTestService(t, fakeCommentator{text: "Looks fine."})

	rec, err := svc.Analyze(context.Background(), Request{
		URL:     "https://www.Example.com/about",
		Content: "<p>A trusted and licensed provider.</p>",
		Signals: map[string]score.SignalValue{
			score.SignalDomainAge:      {NumericValue: score.Number(3000)},
			score.SignalSSL:            {NumericValue: score.Number(1)},
			score.SignalSocialMentions: {NumericValue: score.Number(0)},
		},
	})
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, rec.ID)
	assert.Equal(t, "example.com", rec.Result.Domain)
	assert.Equal(t, score.KindWebsite, rec.Result.Kind)
	assert.Equal(t, "Legit", rec.Result.Verdict)
	assert.Equal(t, "Looks fine.", rec.Result.AIAnalysis)
	// caller supplied domain age replaces the configured collector
	assert.True(t, hasFinding(rec.Result, "Domain has been registered for 8 years"))

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, rec.Result.Score, got.Result.Score)
}

func TestAnalyzePonziContent(t *testing.T) {
	svc := newTestService(t, fakeCommentator{})

	rec, err := svc.Analyze(context.Background(), Request{
		URL:     "cryptodouble.io",
		Content: "<h1>Earn 40% weekly</h1><script>var x = 1;</script>",
	})
	require.NoError(t, err)

	assert.Equal(t, 0, rec.Result.Score)
	assert.Equal(t, "Scam", rec.Result.Verdict)
	require.NotEmpty(t, rec.Result.RedFlags)
	assert.Equal(t, score.SeverityCritical, rec.Result.RedFlags[0].Severity)
	assert.Empty(t, rec.Result.AIAnalysis)
}

func TestAnalyzeJobPosting(t *testing.T) {
	svc := newTestService(t, fakeCommentator{})

	rec, err := svc.Analyze(context.Background(), Request{
		URL:           "https://jobs.example.org/123",
		Kind:          score.KindJob,
		Content:       "Pay a small fee to start. Act now!",
		Salary:        150000,
		MarketSalary:  50000,
		ContactEmail:  "recruiter@gmail.com",
		CompanyDomain: "example.org",
	})
	require.NoError(t, err)

	assert.Equal(t, score.KindJob, rec.Result.Kind)
	assert.Equal(t, "Likely Scam", rec.Result.Verdict)
	assert.True(t, hasFinding(rec.Result, "Recruiter uses a free email provider"))
	assert.True(t, hasFinding(rec.Result, "Offered salary is 3.0x the market rate"))
}

func TestAnalyzeCommentaryFailureIgnored(t *testing.T) {
	svc := newTestService(t, fakeCommentator{err: errors.New("quota exceeded")})

	rec, err := svc.Analyze(context.Background(), Request{
		URL:     "example.com",
		Content: "hello",
	})
	require.NoError(t, err)
	assert.Empty(t, rec.Result.AIAnalysis)
}

func TestAnalyzeInvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		req   Request
		field string
	}{
		{"missing url", Request{Content: "x"}, "url"},
		{"blank url", Request{URL: "   "}, "url"},
		{"unknown kind", Request{URL: "example.com", Kind: "forum"}, "kind"},
	}

	svc := newTestService(t, fakeCommentator{})
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Analyze(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, validation.ErrInvalidInput)
			assert.Equal(t, tt.field, validation.FieldOf(err))
		})
	}
}

func TestAnalyzeNothingCollected(t *testing.T) {
	svc := NewService(Options{Collectors: []signals.Collector{signals.SentimentAnalyzer{}}})

	_, err := svc.Analyze(context.Background(), Request{URL: "example.com"})
	require.Error(t, err)
	assert.ErrorIs(t, err, validation.ErrInvalidInput)
	assert.Equal(t, "signals", validation.FieldOf(err))
}

func TestGetNotFound(t *testing.T) {
	svc := NewService(Options{})
	_, err := svc.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryStoreCopies(t *testing.T) {
	store := NewMemoryStore()
	rec := &Record{
		ID: uuid.New(),
		Result: &score.Result{
			Score:    50,
			Findings: []score.Finding{{Severity: score.SeverityInfo, Text: "a"}},
		},
	}
	require.NoError(t, store.Save(context.Background(), rec))

	rec.Result.Findings[0].Text = "changed"

	got, err := store.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "a", got.Result.Findings[0].Text)
}
