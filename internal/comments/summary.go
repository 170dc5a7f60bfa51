package comments

// Breakdown counts comments per experience category
type Breakdown struct {
	Positive int `json:"positive"`
	Neutral  int `json:"neutral"`
	Negative int `json:"negative"`
}

// Summary is derived from the comment set at read time and never stored
type Summary struct {
	TotalComments       int       `json:"total_comments"`
	AverageRating       float64   `json:"average_rating"`
	ScamReports         int       `json:"scam_reports"`
	ExperienceBreakdown Breakdown `json:"experience_breakdown"`
}

// Summarize folds comments into a Summary. Comments with an unrecognized
// experience count toward the total but not toward any bucket.
func Summarize(comments []Comment) Summary {
	var s Summary
	if len(comments) == 0 {
		return s
	}

	ratingSum := 0
	for _, c := range comments {
		ratingSum += c.Rating
		if c.WasScammed {
			s.ScamReports++
		}
		switch c.Experience {
		case ExperiencePositive:
			s.ExperienceBreakdown.Positive++
		case ExperienceNeutral:
			s.ExperienceBreakdown.Neutral++
		case ExperienceNegative:
			s.ExperienceBreakdown.Negative++
		}
	}

	s.TotalComments = len(comments)
	s.AverageRating = float64(ratingSum) / float64(len(comments))
	return s
}
