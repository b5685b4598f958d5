package models

// ConversionResult is the outcome of converting one filter list
type ConversionResult struct {
	TotalConvertedCount            int    `json:"totalConvertedCount" yaml:"total"`
	ConvertedCount                 int    `json:"convertedCount" yaml:"converted"`
	AdvancedBlockingConvertedCount int    `json:"advancedBlockingConvertedCount" yaml:"advanced"`
	ErrorsCount                    int    `json:"errorsCount" yaml:"errors"`
	OverLimit                      bool   `json:"overLimit" yaml:"over_limit"`
	Converted                      string `json:"converted" yaml:"-"`
	AdvancedBlocking               string `json:"advancedBlocking,omitempty" yaml:"-"`
	Message                        string `json:"message" yaml:"message"`

	Rules         []StandardRule `json:"-" yaml:"-"`
	AdvancedRules []AdvancedRule `json:"-" yaml:"-"`

	// ErrorReasons counts errors by reason
	ErrorReasons map[string]int `json:"errorReasons,omitempty" yaml:"error_reasons,omitempty"`
	// Kinds counts parsed filters by kind
	Kinds       map[string]int `json:"kinds,omitempty" yaml:"kinds,omitempty"`
	Diagnostics []Diagnostic   `json:"-" yaml:"-"`
}

// Diagnostic describes a rule that could not be converted
type Diagnostic struct {
	Line   int    `json:"line"`
	Raw    string `json:"raw"`
	Reason string `json:"reason"`
}

// Stats is the statistics surface reported to callers
type Stats struct {
	TotalConvertedCount            int    `json:"totalConvertedCount" yaml:"total"`
	ConvertedCount                 int    `json:"convertedCount" yaml:"converted"`
	AdvancedBlockingConvertedCount int    `json:"advancedBlockingConvertedCount" yaml:"advanced"`
	ErrorsCount                    int    `json:"errorsCount" yaml:"errors"`
	OverLimit                      bool   `json:"overLimit" yaml:"over_limit"`
	Message                        string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Stats extracts the statistics surface of a result
func (r *ConversionResult) Stats() Stats {
	if r == nil {
		return Stats{}
	}
	return Stats{
		TotalConvertedCount:            r.TotalConvertedCount,
		ConvertedCount:                 r.ConvertedCount,
		AdvancedBlockingConvertedCount: r.AdvancedBlockingConvertedCount,
		ErrorsCount:                    r.ErrorsCount,
		OverLimit:                      r.OverLimit,
		Message:                        r.Message,
	}
}

// Add accumulates other into s. Messages are not merged.
func (s *Stats) Add(other Stats) {
	s.TotalConvertedCount += other.TotalConvertedCount
	s.ConvertedCount += other.ConvertedCount
	s.AdvancedBlockingConvertedCount += other.AdvancedBlockingConvertedCount
	s.ErrorsCount += other.ErrorsCount
	s.OverLimit = s.OverLimit || other.OverLimit
}
