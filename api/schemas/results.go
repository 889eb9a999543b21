package schemas

// ValidationResult is the outcome of validating a single action. Error is set
// only when Valid is false.
type ValidationResult struct {
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings,omitempty"`
}

// SequenceValidationResult aggregates validation across every step of a sequence.
type SequenceValidationResult struct {
	Valid    bool     `json:"valid"`
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

// ParseResult is returned by the parser instead of an error so callers check
// Success rather than expecting a failure value.
type ParseResult struct {
	Success  bool        `json:"success"`
	Sequence interface{} `json:"sequence,omitempty"`
	Error    string      `json:"error,omitempty"`
}

// StepResult is the uniform outcome of executing exactly one action.
type StepResult struct {
	Action    string      `json:"action"`
	StepIndex int         `json:"stepIndex"`
	Label     string      `json:"label"`
	Success   bool        `json:"success"`
	Duration  int64       `json:"duration"` // milliseconds
	Result    interface{} `json:"result,omitempty"`
	Error     string      `json:"error,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
}

// AssertionOutcome is the normalized result payload of an assertion step.
type AssertionOutcome struct {
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
}

// SequenceResult is the aggregated outcome of one sequence run. Results holds
// only the steps that were attempted.
type SequenceResult struct {
	Success        bool         `json:"success"`
	Results        []StepResult `json:"results"`
	TotalSteps     int          `json:"totalSteps"`
	CompletedSteps int          `json:"completedSteps"`
	TotalDuration  int64        `json:"totalDuration"`
	Error          string       `json:"error,omitempty"`
}

// AssertionRecord is one assertion step as seen by the assertion collector.
type AssertionRecord struct {
	Action  string `json:"action"`
	Passed  bool   `json:"passed"`
	Message string `json:"message"`
	Label   string `json:"label"`
}

// AssertionSummary is the pass/fail view consumed by the tests feature.
type AssertionSummary struct {
	TotalAssertions int               `json:"totalAssertions"`
	Passed          int               `json:"passed"`
	Failed          int               `json:"failed"`
	AllPassed       bool              `json:"allPassed"`
	Results         []AssertionRecord `json:"results"`
}

// StepReport is one row of a validation report.
type StepReport struct {
	Index    int      `json:"index"`
	Action   string   `json:"action"`
	Label    string   `json:"label,omitempty"`
	Valid    bool     `json:"valid"`
	Error    string   `json:"error,omitempty"`
	Warnings []string `json:"warnings"`
}

// ReportSummary counts the rows of a validation report.
type ReportSummary struct {
	TotalSteps   int `json:"totalSteps"`
	ValidSteps   int `json:"validSteps"`
	InvalidSteps int `json:"invalidSteps"`
	ErrorCount   int `json:"errorCount"`
	WarningCount int `json:"warningCount"`
}

// ValidationReport is the execution-free, step-indexed diagnostic used by editors.
type ValidationReport struct {
	ParseError string        `json:"parseError,omitempty"`
	Steps      []StepReport  `json:"steps"`
	Summary    ReportSummary `json:"summary"`
}
