package score

import (
	"fmt"
	"math"
	"strings"
)

// Signal names understood by the aggregator
const (
	SignalMalware         = "malware"
	SignalDomainAge       = "domainAge"
	SignalSSL             = "ssl"
	SignalContentFlags    = "contentFlags"
	SignalSentiment       = "sentiment"
	SignalSocialMentions  = "socialMentions"
	SignalSalary          = "salary"
	SignalEmailProvenance = "emailProvenance"
)

// Content flag that, on a freshly registered domain, is treated as a Ponzi indicator
const FlagHighYield = "high-yield"

// Domains younger than this many days combined with FlagHighYield force the floor
const CriticalDomainAgeDays = 30

// note is a finding before ordering; order is the registration index of the signal
type note struct {
	severity Severity
	category string
	text     string
	order    int
}

type outcome struct {
	adjust float64
	notes  []note
}

func (o *outcome) add(sev Severity, category, format string, args ...interface{}) {
	o.notes = append(o.notes, note{severity: sev, category: category, text: fmt.Sprintf(format, args...)})
}

// rule scores one named signal. Every adjustment a rule can return is bounded;
// the bounds are listed next to each rule.
type rule struct {
	name        string
	label       string
	category    string
	expected    []TargetKind
	numeric     bool
	nonNegative bool
	eval        func(v SignalValue) outcome
}

// validNumber reports whether x is a usable value for the rule. Numeric
// rules only ever see finite values; counts and ages are never negative.
func (r rule) validNumber(x float64) bool {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return false
	}
	return !r.nonNegative || x >= 0
}

func (r rule) expectedFor(kind TargetKind) bool {
	for _, k := range r.expected {
		if k == kind {
			return true
		}
	}
	return false
}

// rules in registration order. Findings with equal severity keep this order.
var rules = []rule{
	{
		// 0; critical handled by the override pass
		name:     SignalMalware,
		label:    "Malware check",
		category: "malware",
		eval: func(v SignalValue) outcome {
			var o outcome
			if !isMalware(v) {
				o.add(SeverityPositive, "malware", "No malware or phishing reports")
			}
			return o
		},
	},
	{
		// -25 .. +10
		name:        SignalDomainAge,
		label:       "Domain age lookup",
		category:    "domain-age",
		expected:    []TargetKind{KindWebsite},
		numeric:     true,
		nonNegative: true,
		eval: func(v SignalValue) outcome {
			var o outcome
			days := math.Floor(*v.NumericValue)
			switch {
			case days < CriticalDomainAgeDays:
				o.adjust = -25
				o.add(SeverityWarning, "domain-age", "Domain was registered only %.0f days ago", days)
			case days < 90:
				o.adjust = -15
				o.add(SeverityWarning, "domain-age", "Domain was registered %.0f days ago", days)
			case days < 365:
				o.adjust = -5
				o.add(SeverityInfo, "domain-age", "Domain is less than a year old (%.0f days)", days)
			case days < 730:
				o.adjust = 5
				o.add(SeverityPositive, "domain-age", "Domain has been registered for over a year")
			default:
				o.adjust = 10
				o.add(SeverityPositive, "domain-age", "Domain has been registered for %.0f years", math.Floor(days/365))
			}
			return o
		},
	},
	{
		// -15 .. +5
		name:     SignalSSL,
		label:    "SSL check",
		category: "ssl",
		expected: []TargetKind{KindWebsite},
		numeric:  true,
		eval: func(v SignalValue) outcome {
			var o outcome
			switch {
			case *v.NumericValue <= 0:
				o.adjust = -15
				o.add(SeverityWarning, "ssl", "Site does not use a valid SSL certificate")
			case hasFlag(v.Flags, "expired"), hasFlag(v.Flags, "self-signed"):
				o.adjust = -10
				o.add(SeverityWarning, "ssl", "SSL certificate is %s", strings.Join(v.Flags, ", "))
			default:
				o.adjust = 5
				o.add(SeverityPositive, "ssl", "Site uses a valid SSL certificate")
			}
			return o
		},
	},
	{
		// -40 .. +5
		name:     SignalContentFlags,
		label:    "Content pattern scan",
		category: "content",
		expected: []TargetKind{KindWebsite, KindJob},
		eval: func(v SignalValue) outcome {
			var o outcome
			flags := uniqueFlags(v.Flags)
			if len(flags) == 0 {
				o.adjust = 5
				o.add(SeverityPositive, "content", "No suspicious content patterns found")
				return o
			}
			for _, flag := range flags {
				o.add(SeverityWarning, flag, "%s", describeContentFlag(flag))
			}
			o.adjust = math.Max(-8*float64(len(flags)), -40)
			return o
		},
	},
	{
		// -10 .. +10
		name:     SignalSentiment,
		label:    "Sentiment analysis",
		category: "sentiment",
		expected: []TargetKind{KindWebsite, KindJob},
		numeric:  true,
		eval: func(v SignalValue) outcome {
			var o outcome
			polarity := math.Max(-1, math.Min(1, *v.NumericValue))
			o.adjust = polarity * 10
			if polarity <= -0.5 {
				o.add(SeverityWarning, "sentiment", "Content sentiment is strongly negative (%.2f)", polarity)
			} else {
				o.add(SeverityInfo, "sentiment", "Content sentiment score is %.2f", polarity)
			}
			return o
		},
	},
	{
		// -20 .. +5
		name:        SignalSocialMentions,
		label:       "Social mention search",
		category:    "social",
		expected:    []TargetKind{KindWebsite},
		numeric:     true,
		nonNegative: true,
		eval: func(v SignalValue) outcome {
			var o outcome
			reports := math.Floor(*v.NumericValue)
			if reports == 0 {
				o.adjust = 5
				o.add(SeverityPositive, "social", "No scam reports found in social mentions")
				return o
			}
			o.adjust = math.Max(-5*reports, -20)
			o.add(SeverityWarning, "scam-reports", "%.0f social mentions report this target as a scam", reports)
			return o
		},
	},
	{
		// -20 .. +5
		name:     SignalSalary,
		label:    "Salary reasonableness check",
		category: "salary",
		expected: []TargetKind{KindJob},
		numeric:  true,
		eval: func(v SignalValue) outcome {
			var o outcome
			ratio := *v.NumericValue
			switch {
			case ratio <= 0:
				o.add(SeverityInfo, "salary", "Salary could not be compared with market rates")
			case ratio >= 2:
				o.adjust = -20
				o.add(SeverityWarning, "unrealistic-salary", "Offered salary is %.1fx the market rate", ratio)
			case ratio >= 1.5:
				o.adjust = -10
				o.add(SeverityWarning, "unrealistic-salary", "Offered salary is well above the market rate (%.1fx)", ratio)
			default:
				o.adjust = 5
				o.add(SeverityPositive, "salary", "Salary is in line with market rates")
			}
			return o
		},
	},
	{
		// -25 .. +5
		name:     SignalEmailProvenance,
		label:    "Contact email check",
		category: "email",
		expected: []TargetKind{KindJob},
		eval: func(v SignalValue) outcome {
			var o outcome
			if hasFlag(v.Flags, "free-provider") {
				o.adjust -= 10
				o.add(SeverityWarning, "email-provenance", "Recruiter uses a free email provider")
			}
			if hasFlag(v.Flags, "domain-mismatch") {
				o.adjust -= 15
				o.add(SeverityWarning, "email-provenance", "Contact email domain does not match the company domain")
			}
			if len(o.notes) == 0 {
				o.adjust = 5
				o.add(SeverityPositive, "email-provenance", "Contact email matches the company domain")
			}
			return o
		},
	},
}

var contentFlagText = map[string]string{
	"guaranteed-returns": "Promises guaranteed returns",
	FlagHighYield:        "Advertises unrealistically high yields",
	"urgency":            "Uses high-pressure urgency language",
	"upfront-fee":        "Asks for an upfront fee or payment",
	"crypto-payment":     "Asks for payment in cryptocurrency or gift cards",
	"personal-info":      "Asks for sensitive personal or banking information",
	"referral-scheme":    "Rewards recruiting other members",
	"no-experience":      "Offers high pay with no experience required",
}

func describeContentFlag(flag string) string {
	if text, ok := contentFlagText[flag]; ok {
		return text
	}
	return "Suspicious content pattern: " + flag
}

func isMalware(v SignalValue) bool {
	if v.Severity == SeverityCritical || len(v.Flags) > 0 {
		return true
	}
	return v.NumericValue != nil && *v.NumericValue > 0
}

// uniqueFlags drops empty and repeated flags, keeping first occurrences in order
func uniqueFlags(flags []string) []string {
	seen := make(map[string]bool, len(flags))
	out := make([]string, 0, len(flags))
	for _, f := range flags {
		if f == "" || seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out
}

func hasFlag(flags []string, want string) bool {
	for _, f := range flags {
		if f == want {
			return true
		}
	}
	return false
}
