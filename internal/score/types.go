package score

// TargetKind distinguishes website analyses from job posting analyses
type TargetKind string

const (
	KindWebsite TargetKind = "website"
	KindJob     TargetKind = "job"
)

// Valid reports whether k is a known target kind
func (k TargetKind) Valid() bool {
	return k == KindWebsite || k == KindJob
}

// Severity of a finding or signal
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
	SeverityInfo     Severity = "info"
	SeverityPositive Severity = "positive"
)

// Valid reports whether s is a known severity
func (s Severity) Valid() bool {
	return s.rank() > 0
}

func (s Severity) rank() int {
	switch s {
	case SeverityCritical:
		return 4
	case SeverityWarning:
		return 3
	case SeverityInfo:
		return 2
	case SeverityPositive:
		return 1
	}
	return 0
}

// SignalValue is one observation produced by a collector. Unavailable marks a
// collector that failed or timed out.
type SignalValue struct {
	Kind         string   `json:"kind"`
	NumericValue *float64 `json:"numericValue,omitempty"`
	Flags        []string `json:"flags,omitempty"`
	Severity     Severity `json:"severity,omitempty"`
	Detail       string   `json:"detail,omitempty"`
	Unavailable  bool     `json:"unavailable,omitempty"`
	Reason       string   `json:"reason,omitempty"`
}

// Number returns a pointer to v for SignalValue.NumericValue
func Number(v float64) *float64 {
	return &v
}

// Input is everything Aggregate needs for one target
type Input struct {
	Target     string                 `json:"target"`
	Domain     string                 `json:"domain,omitempty"`
	Kind       TargetKind             `json:"kind,omitempty"`
	Signals    map[string]SignalValue `json:"signals"`
	AIAnalysis string                 `json:"aiAnalysis,omitempty"`
}

// Finding is a human readable statement about the target
type Finding struct {
	Severity Severity `json:"type"`
	Text     string   `json:"text"`
}

// RedFlag is a categorized warning or critical finding
type RedFlag struct {
	Severity Severity `json:"type"`
	Category string   `json:"category"`
	Text     string   `json:"text"`
}

// Result is the aggregate outcome of one analysis run
type Result struct {
	Target     string     `json:"target"`
	Domain     string     `json:"domain,omitempty"`
	Kind       TargetKind `json:"kind"`
	Score      int        `json:"score"`
	Verdict    string     `json:"verdict"`
	Findings   []Finding  `json:"findings"`
	RedFlags   []RedFlag  `json:"redFlags"`
	AIAnalysis string     `json:"aiAnalysis,omitempty"`
}

// WithAIAnalysis returns a copy of r carrying the given commentary
func (r *Result) WithAIAnalysis(text string) *Result {
	out := r.Clone()
	out.AIAnalysis = text
	return out
}

// Clone returns a deep copy of r
func (r *Result) Clone() *Result {
	out := *r
	out.Findings = append(make([]Finding, 0, len(r.Findings)), r.Findings...)
	out.RedFlags = append(make([]RedFlag, 0, len(r.RedFlags)), r.RedFlags...)
	return &out
}
