package score

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/trustscope/trustscope/internal/validation"
)

const (
	// Baseline is the score before any signal adjusts it
	Baseline = 75
	// Floor is the score forced by a critical override
	Floor = 0

	// Verdict thresholds. A score at or above BestThreshold gets the best verdict,
	// at or above MiddleThreshold the middle one, anything lower the worst.
	BestThreshold   = 70
	MiddleThreshold = 40
)

var verdicts = map[TargetKind][3]string{
	KindWebsite: {"Legit", "Caution", "Scam"},
	KindJob:     {"Likely Legitimate", "Possibly Suspicious", "Likely Scam"},
}

// Verdict maps a score to the categorical verdict for kind
func Verdict(kind TargetKind, score int) string {
	names, ok := verdicts[kind]
	if !ok {
		names = verdicts[KindWebsite]
	}
	switch {
	case score >= BestThreshold:
		return names[0]
	case score >= MiddleThreshold:
		return names[1]
	default:
		return names[2]
	}
}

// WorstVerdict returns the verdict used for critical overrides
func WorstVerdict(kind TargetKind) string {
	return Verdict(kind, Floor)
}

// Aggregate combines the signals of in into a Result.
//
// Critical conditions are checked first and take precedence over the weighted
// sum: if any fires, the score is Floor and the verdict is the worst category.
// Otherwise every recognized signal adds its bounded adjustment to Baseline,
// the total is floored to an integer and clamped to [0,100].
//
// A signal marked critical forces the override even when it is also flagged
// unavailable. Expected signals that are missing or unavailable count as zero
// and leave an info finding behind, as do numeric signals whose value is not
// finite or, for ages and counts, negative. Aggregate only fails when no
// signal is recognizable.
func Aggregate(in Input) (*Result, error) {
	if len(in.Signals) == 0 {
		return nil, validation.Errorf("signals", "no signals supplied")
	}

	kind := in.Kind
	if kind == "" {
		kind = KindWebsite
	}
	if !kind.Valid() {
		return nil, validation.Errorf("kind", "unknown target kind %q", kind)
	}

	names, order := orderSignals(in.Signals)

	recognized := 0
	for _, name := range names {
		if _, known := ruleByName(name); known || in.Signals[name].Severity.Valid() {
			recognized++
		}
	}
	if recognized == 0 {
		return nil, validation.Errorf("signals", "none of %d signals is recognized", len(in.Signals))
	}

	// Critical overrides run before anything is summed.
	notes := criticalNotes(in.Signals, names, order)
	critical := len(notes) > 0

	total := float64(Baseline)
	for i, r := range rules {
		v, present := in.Signals[r.name]
		switch {
		case !present:
			if r.expectedFor(kind) {
				notes = append(notes, note{SeverityInfo, r.category, r.label + " was not available", i})
			}
			continue
		case v.Unavailable:
			text := r.label + " was not available"
			if v.Reason != "" {
				text += ": " + v.Reason
			}
			notes = append(notes, note{SeverityInfo, r.category, text, i})
			continue
		case r.numeric && v.NumericValue == nil:
			notes = append(notes, note{SeverityInfo, r.category, r.label + " returned no value", i})
			continue
		case r.numeric && !r.validNumber(*v.NumericValue):
			notes = append(notes, note{SeverityInfo, r.category, r.label + " returned an invalid value", i})
			continue
		}

		o := r.eval(v)
		total += o.adjust
		for _, n := range o.notes {
			n.order = i
			notes = append(notes, n)
		}
	}

	for _, name := range names {
		if _, known := ruleByName(name); known {
			continue
		}
		v := in.Signals[name]
		if v.Unavailable {
			continue
		}
		switch v.Severity {
		case SeverityWarning:
			total -= 10
			notes = append(notes, note{SeverityWarning, name, describeGeneric(name, v), order[name]})
		case SeverityInfo, SeverityPositive:
			notes = append(notes, note{v.Severity, name, describeGeneric(name, v), order[name]})
		}
	}

	score := clamp(int(math.Floor(total)))
	if critical {
		score = Floor
	}

	result := &Result{
		Target:     in.Target,
		Domain:     in.Domain,
		Kind:       kind,
		Score:      score,
		Verdict:    Verdict(kind, score),
		Findings:   make([]Finding, 0, len(notes)),
		RedFlags:   make([]RedFlag, 0),
		AIAnalysis: in.AIAnalysis,
	}

	sort.SliceStable(notes, func(a, b int) bool {
		ra, rb := notes[a].severity.rank(), notes[b].severity.rank()
		if ra != rb {
			return ra > rb
		}
		return notes[a].order < notes[b].order
	})

	for _, n := range notes {
		result.Findings = append(result.Findings, Finding{Severity: n.severity, Text: n.text})
		if n.severity == SeverityCritical || n.severity == SeverityWarning {
			result.RedFlags = append(result.RedFlags, RedFlag{Severity: n.severity, Category: n.category, Text: n.text})
		}
	}

	return result, nil
}

// criticalNotes evaluates the override conditions in signal order
func criticalNotes(signals map[string]SignalValue, names []string, order map[string]int) []note {
	var notes []note

	for _, name := range names {
		v := signals[name]
		if v.Unavailable && v.Severity != SeverityCritical {
			continue
		}
		if name == SignalMalware {
			if isMalware(v) {
				text := "Target is flagged for malware or phishing"
				if len(v.Flags) > 0 {
					text += ": " + strings.Join(v.Flags, ", ")
				}
				notes = append(notes, note{SeverityCritical, "malware", text, order[name]})
			}
			continue
		}
		if v.Severity == SeverityCritical {
			category := name
			if r, ok := ruleByName(name); ok {
				category = r.category
			}
			notes = append(notes, note{SeverityCritical, category, describeGeneric(name, v), order[name]})
		}
	}

	age, hasAge := signals[SignalDomainAge]
	content, hasContent := signals[SignalContentFlags]
	ageRule, _ := ruleByName(SignalDomainAge)
	if hasAge && hasContent && !age.Unavailable && !content.Unavailable && age.NumericValue != nil &&
		ageRule.validNumber(*age.NumericValue) && *age.NumericValue < CriticalDomainAgeDays &&
		hasFlag(content.Flags, FlagHighYield) {
		notes = append(notes, note{
			SeverityCritical,
			"ponzi-scheme",
			fmt.Sprintf("Domain registered %d days ago is promising high yields", int(*age.NumericValue)),
			order[SignalDomainAge],
		})
	}

	return notes
}

// orderSignals lists registered signals in registration order followed by the
// remaining names alphabetically, and returns each name's position
func orderSignals(signals map[string]SignalValue) ([]string, map[string]int) {
	names := make([]string, 0, len(signals))
	for _, r := range rules {
		if _, ok := signals[r.name]; ok {
			names = append(names, r.name)
		}
	}

	extra := make([]string, 0)
	for name := range signals {
		if _, known := ruleByName(name); !known {
			extra = append(extra, name)
		}
	}
	sort.Strings(extra)

	order := make(map[string]int, len(signals))
	for i, r := range rules {
		order[r.name] = i
	}
	for i, name := range extra {
		order[name] = len(rules) + i
	}

	return append(names, extra...), order
}

func ruleByName(name string) (rule, bool) {
	for _, r := range rules {
		if r.name == name {
			return r, true
		}
	}
	return rule{}, false
}

func describeGeneric(name string, v SignalValue) string {
	if v.Detail != "" {
		return v.Detail
	}
	return fmt.Sprintf("%s reported a %s condition", name, v.Severity)
}

func clamp(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
