package comments

import (
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/trustscope/trustscope/internal/validation"
)

// Experience categories a reviewer can pick
const (
	ExperiencePositive = "positive"
	ExperienceNeutral  = "neutral"
	ExperienceNegative = "negative"
)

// Comment is a user review of a target domain
type Comment struct {
	ID           uuid.UUID `json:"id"`
	Target       string    `json:"target"`
	UserName     string    `json:"user_name"`
	Rating       int       `json:"rating"`
	Experience   string    `json:"experience,omitempty"`
	Text         string    `json:"comment"`
	WasScammed   bool      `json:"was_scammed"`
	HelpfulCount int       `json:"helpful_count"`
	CreatedAt    time.Time `json:"created_at"`
}

// Submission is the user supplied part of a comment
type Submission struct {
	UserName   string `json:"user_name"`
	Rating     int    `json:"rating"`
	Experience string `json:"experience"`
	Text       string `json:"comment"`
	WasScammed bool   `json:"was_scammed"`
}

// Validate rejects submissions with missing fields or an out of range rating.
// Ratings are never clamped.
func (s Submission) Validate() error {
	if strings.TrimSpace(s.UserName) == "" {
		return validation.Errorf("user_name", "is required")
	}
	if strings.TrimSpace(s.Text) == "" {
		return validation.Errorf("comment", "is required")
	}
	if s.Rating < 1 || s.Rating > 5 {
		return validation.Errorf("rating", "must be between 1 and 5, got %d", s.Rating)
	}
	return nil
}

// NormalizeTarget reduces a URL or bare host to the domain comments are keyed by
func NormalizeTarget(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", validation.Errorf("target", "is required")
	}
	if !strings.Contains(raw, "://") {
		raw = "http://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", validation.Errorf("target", "cannot parse %q", raw)
	}

	host := strings.TrimSuffix(strings.ToLower(u.Hostname()), ".")
	host = strings.TrimPrefix(host, "www.")
	if host == "" {
		return "", validation.Errorf("target", "has no host")
	}
	return host, nil
}
