package comments

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustscope/trustscope/internal/validation"
)

func TestSummarize_Empty(t *testing.T) {
	s := Summarize(nil)
	assert.Equal(t, 0, s.TotalComments)
	assert.Equal(t, 0.0, s.AverageRating)
	assert.Equal(t, 0, s.ScamReports)
	assert.Equal(t, Breakdown{}, s.ExperienceBreakdown)
}

func TestSummarize(t *testing.T) {
	list := []Comment{
		{Rating: 5, Experience: ExperiencePositive},
		{Rating: 1, Experience: ExperienceNegative, WasScammed: true},
		{Rating: 2, Experience: ExperienceNegative, WasScammed: true},
		{Rating: 3, Experience: ExperienceNeutral},
		{Rating: 4, Experience: "ecstatic"},
		{Rating: 4},
	}

	s := Summarize(list)
	assert.Equal(t, 6, s.TotalComments)
	assert.InDelta(t, 19.0/6.0, s.AverageRating, 1e-9)
	assert.Equal(t, 2, s.ScamReports)
	assert.Equal(t, Breakdown{Positive: 1, Neutral: 1, Negative: 2}, s.ExperienceBreakdown)

	b := s.ExperienceBreakdown
	assert.LessOrEqual(t, b.Positive+b.Neutral+b.Negative, s.TotalComments)
}

func TestSubmissionValidate(t *testing.T) {
	valid := Submission{UserName: "sam", Rating: 3, Text: "ok"}

	tests := []struct {
		name  string
		edit  func(*Submission)
		field string
	}{
		{"valid", func(*Submission) {}, ""},
		{"missing name", func(s *Submission) { s.UserName = "  " }, "user_name"},
		{"missing text", func(s *Submission) { s.Text = "" }, "comment"},
		{"rating zero", func(s *Submission) { s.Rating = 0 }, "rating"},
		{"rating six", func(s *Submission) { s.Rating = 6 }, "rating"},
		{"rating one", func(s *Submission) { s.Rating = 1 }, ""},
		{"rating five", func(s *Submission) { s.Rating = 5 }, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub := valid
			tt.edit(&sub)
			err := sub.Validate()
			if tt.field == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, validation.ErrInvalidInput))
			assert.Equal(t, tt.field, validation.FieldOf(err))
		})
	}
}

func TestNormalizeTarget(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://www.Example.com/path?q=1", "example.com"},
		{"example.com", "example.com"},
		{"http://shop.example.com:8080", "shop.example.com"},
		{"WWW.EXAMPLE.COM.", "example.com"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeTarget(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := NormalizeTarget("   ")
	assert.Equal(t, "target", validation.FieldOf(err))
}

func TestService_SubmitAndList(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), hclog.NewNullLogger())

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tick := 0
	svc.now = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Minute)
	}

	_, err := svc.Submit(ctx, "https://www.example.com/offer", Submission{UserName: "a", Rating: 5, Experience: "Positive", Text: "fine"})
	require.NoError(t, err)
	second, err := svc.Submit(ctx, "example.com", Submission{UserName: "b", Rating: 1, Experience: "negative", Text: "<script>x()</script>lost money", WasScammed: true})
	require.NoError(t, err)
	assert.Equal(t, "lost money", second.Text)

	_, err = svc.Submit(ctx, "other.org", Submission{UserName: "c", Rating: 3, Text: "elsewhere"})
	require.NoError(t, err)

	listing, err := svc.List(ctx, "EXAMPLE.com")
	require.NoError(t, err)
	require.Len(t, listing.Comments, 2)
	assert.Equal(t, second.ID, listing.Comments[0].ID)
	assert.Equal(t, 3.0, listing.Summary.AverageRating)
	assert.Equal(t, 1, listing.Summary.ScamReports)
	assert.Equal(t, Breakdown{Positive: 1, Negative: 1}, listing.Summary.ExperienceBreakdown)
}

func TestService_SubmitStoresPlainText(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ampersand", "Tom & Jerry", "Tom & Jerry"},
		{"quotes", `they said "guaranteed" and it's not`, `they said "guaranteed" and it's not`},
		{"comparison inside markup", "<b>fees > 3%</b> & rising", "fees > 3% & rising"},
		{"script dropped", "<script>x()</script>ok", "ok"},
	}

	svc := NewService(NewMemoryStore(), hclog.NewNullLogger())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := svc.Submit(context.Background(), "example.com", Submission{UserName: "O'Brien", Rating: 3, Text: tt.in})
			require.NoError(t, err)
			assert.Equal(t, tt.want, c.Text)
			assert.Equal(t, "O'Brien", c.UserName)
		})
	}
}

func TestService_SubmitRejectsWithoutStoring(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	svc := NewService(store, hclog.NewNullLogger())

	_, err := svc.Submit(ctx, "example.com", Submission{UserName: "a", Rating: 7, Text: "x"})
	assert.Equal(t, "rating", validation.FieldOf(err))

	// markup only sanitizes to nothing
	_, err = svc.Submit(ctx, "example.com", Submission{UserName: "a", Rating: 3, Text: "<img src=x>"})
	assert.Equal(t, "comment", validation.FieldOf(err))

	list, err := store.List(ctx, "example.com")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestService_MarkHelpfulConcurrent(t *testing.T) {
	ctx := context.Background()
	svc := NewService(NewMemoryStore(), hclog.NewNullLogger())

	c, err := svc.Submit(ctx, "example.com", Submission{UserName: "a", Rating: 4, Text: "useful"})
	require.NoError(t, err)

	const votes = 200
	var wg sync.WaitGroup
	for i := 0; i < votes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.MarkHelpful(ctx, c.ID)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	listing, err := svc.List(ctx, "example.com")
	require.NoError(t, err)
	assert.Equal(t, votes, listing.Comments[0].HelpfulCount)
}

func TestService_MarkHelpfulUnknown(t *testing.T) {
	svc := NewService(NewMemoryStore(), hclog.NewNullLogger())
	_, err := svc.MarkHelpful(context.Background(), uuid.New())
	assert.True(t, errors.Is(err, ErrNotFound))
}
