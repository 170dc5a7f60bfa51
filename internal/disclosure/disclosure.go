// Package disclosure decides which parts of an analysis a viewer may see.
//
// In server mode gated fields are removed before the payload is serialized.
// In client mode the full result is sent along with the names of the gated
// fields so the frontend can overlay them; that mode is UI staging only and
// offers no confidentiality.
package disclosure

import (
	"fmt"

	"github.com/trustscope/trustscope/internal/comments"
	"github.com/trustscope/trustscope/internal/score"
)

// Mode selects where gating is enforced
type Mode string

const (
	ModeServer Mode = "server"
	ModeClient Mode = "client"
)

// ParseMode validates a configured mode; empty means ModeServer
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeServer:
		return ModeServer, nil
	case ModeClient:
		return ModeClient, nil
	}
	return "", fmt.Errorf("unknown disclosure mode %q", s)
}

// Viewer describes who is looking at a result
type Viewer struct {
	Authenticated bool   `json:"authenticated"`
	Subject       string `json:"subject,omitempty"`
}

// Gated lists the fields hidden from unauthenticated viewers
var Gated = []string{"findings", "redFlags", "aiAnalysis", "comments"}

// View is the visible subset of a result. Target, score and verdict are never gated.
type View struct {
	Target     string            `json:"target"`
	Score      int               `json:"score"`
	Verdict    string            `json:"verdict"`
	Findings   []score.Finding   `json:"findings,omitempty"`
	RedFlags   []score.RedFlag   `json:"redFlags,omitempty"`
	AIAnalysis string            `json:"aiAnalysis,omitempty"`
	Comments   *comments.Listing `json:"comments,omitempty"`
	Locked     bool              `json:"locked"`
	Gated      []string          `json:"gated,omitempty"`
}

// Policy applies disclosure gating
type Policy struct {
	Mode Mode
}

// New creates a policy for mode
func New(mode Mode) *Policy {
	return &Policy{Mode: mode}
}

// Apply returns what viewer may see of result. It copies everything it
// returns and never modifies its arguments. c may be nil.
func (p *Policy) Apply(result *score.Result, viewer Viewer, c *comments.Listing) View {
	view := View{
		Target:  result.Target,
		Score:   result.Score,
		Verdict: result.Verdict,
	}

	if !viewer.Authenticated {
		view.Locked = true
		view.Gated = append([]string(nil), Gated...)
		return view
	}

	view.Findings = append(make([]score.Finding, 0, len(result.Findings)), result.Findings...)
	view.RedFlags = append(make([]score.RedFlag, 0, len(result.RedFlags)), result.RedFlags...)
	view.AIAnalysis = result.AIAnalysis
	view.Comments = copyComments(c)
	return view
}

// Envelope builds the payload sent to viewer according to the policy mode
func (p *Policy) Envelope(result *score.Result, viewer Viewer, c *comments.Listing) View {
	if p.Mode != ModeClient || viewer.Authenticated {
		return p.Apply(result, viewer, c)
	}

	// client-side gating: everything goes over the wire, flagged for overlay
	view := p.Apply(result, Viewer{Authenticated: true}, c)
	view.Locked = true
	view.Gated = append([]string(nil), Gated...)
	return view
}

// CommentsView is a target's comment listing as seen by one viewer. The
// summary is public; the individual comments are gated.
type CommentsView struct {
	Summary  comments.Summary   `json:"summary"`
	Comments []comments.Comment `json:"comments,omitempty"`
	Locked   bool               `json:"locked"`
}

// Comments gates a comment listing the same way Envelope gates a result
func (p *Policy) Comments(c *comments.Listing, viewer Viewer) CommentsView {
	view := CommentsView{Summary: c.Summary}
	if !viewer.Authenticated {
		view.Locked = true
		if p.Mode != ModeClient {
			return view
		}
	}
	view.Comments = append(make([]comments.Comment, 0, len(c.Comments)), c.Comments...)
	return view
}

func copyComments(c *comments.Listing) *comments.Listing {
	if c == nil {
		return nil
	}
	return &comments.Listing{
		Summary:  c.Summary,
		Comments: append(make([]comments.Comment, 0, len(c.Comments)), c.Comments...),
	}
}
