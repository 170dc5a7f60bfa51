package signals

import (
	"context"
	"strings"
	"unicode"

	"github.com/trustscope/trustscope/internal/score"
)

var positiveWords = map[string]bool{
	"trusted": true, "reliable": true, "secure": true, "professional": true, "transparent": true,
	"licensed": true, "regulated": true, "support": true, "quality": true, "honest": true,
	"established": true, "helpful": true, "satisfied": true, "recommend": true, "excellent": true,
	"benefits": true, "insurance": true, "certified": true, "accredited": true, "refund": true,
}

var negativeWords = map[string]bool{
	"scam": true, "fraud": true, "fake": true, "stolen": true, "lost": true,
	"complaint": true, "complaints": true, "warning": true, "beware": true, "ripoff": true,
	"unpaid": true, "lawsuit": true, "illegal": true, "unlicensed": true, "hacked": true,
	"suspicious": true, "threat": true, "penalty": true, "blocked": true, "terrible": true,
}

// SentimentAnalyzer scores text polarity from a fixed word list
type SentimentAnalyzer struct{}

func (SentimentAnalyzer) Name() string { return score.SignalSentiment }

func (SentimentAnalyzer) Collect(ctx context.Context, target Target) (score.SignalValue, error) {
	if strings.TrimSpace(target.Content) == "" {
		return score.SignalValue{}, ErrNoData
	}
	return score.SignalValue{Kind: "sentiment", NumericValue: score.Number(Polarity(ExtractText(target.Content)))}, nil
}

// Polarity is (positive - negative) / (positive + negative) over lexicon hits,
// 0 when none of the words is in the lexicon
func Polarity(text string) float64 {
	words := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r)
	})

	pos, neg := 0, 0
	for _, w := range words {
		if positiveWords[w] {
			pos++
		} else if negativeWords[w] {
			neg++
		}
	}
	if pos+neg == 0 {
		return 0
	}
	return float64(pos-neg) / float64(pos+neg)
}
