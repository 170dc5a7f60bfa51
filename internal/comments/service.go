package comments

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/microcosm-cc/bluemonday"
)

// Listing is a target's comments together with their summary
type Listing struct {
	Summary  Summary   `json:"summary"`
	Comments []Comment `json:"comments"`
}

// Service validates, stores and summarizes comments
type Service struct {
	store     Store
	sanitizer *bluemonday.Policy
	logger    hclog.Logger
	now       func() time.Time
}

// NewService creates a comment service on top of store
func NewService(store Store, logger hclog.Logger) *Service {
	return &Service{
		store:     store,
		sanitizer: bluemonday.StrictPolicy(),
		logger:    logger.Named("comments"),
		now:       time.Now,
	}
}

// Submit validates and stores a new comment for target. Nothing is stored when
// validation fails.
func (s *Service) Submit(ctx context.Context, target string, sub Submission) (*Comment, error) {
	domain, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	sub.UserName = s.plainText(sub.UserName)
	sub.Text = s.plainText(sub.Text)
	sub.Experience = strings.ToLower(strings.TrimSpace(sub.Experience))

	if err := sub.Validate(); err != nil {
		return nil, err
	}

	c := &Comment{
		ID:         uuid.New(),
		Target:     domain,
		UserName:   sub.UserName,
		Rating:     sub.Rating,
		Experience: sub.Experience,
		Text:       sub.Text,
		WasScammed: sub.WasScammed,
		CreatedAt:  s.now().UTC(),
	}

	if err := s.store.Add(ctx, c); err != nil {
		return nil, fmt.Errorf("store comment: %w", err)
	}

	s.logger.Debug("comment stored", "target", domain, "id", c.ID, "rating", c.Rating)
	return c, nil
}

// plainText strips all markup. The sanitizer escapes the text it keeps, so the
// entities are decoded again: comments are stored as plain text and escaped
// by whoever renders them.
func (s *Service) plainText(raw string) string {
	return strings.TrimSpace(html.UnescapeString(s.sanitizer.Sanitize(raw)))
}

// List returns the comments for target and a freshly computed summary
func (s *Service) List(ctx context.Context, target string) (*Listing, error) {
	domain, err := NormalizeTarget(target)
	if err != nil {
		return nil, err
	}

	list, err := s.store.List(ctx, domain)
	if err != nil {
		return nil, fmt.Errorf("list comments: %w", err)
	}

	return &Listing{Summary: Summarize(list), Comments: list}, nil
}

// MarkHelpful adds one helpful vote. Votes are not de-duplicated per user.
func (s *Service) MarkHelpful(ctx context.Context, id uuid.UUID) (int, error) {
	count, err := s.store.IncrementHelpful(ctx, id)
	if err != nil {
		return 0, fmt.Errorf("mark helpful: %w", err)
	}
	return count, nil
}
