package orchestrator

// Execution outcomes an executor may report.
const (
	OutcomeSuccess = "SUCCESS"
	OutcomeFailure = "FAILURE"
	OutcomeCaptcha = "CAPTCHA"
	OutcomePaused  = "PAUSED"
)

// ResultReport is what an executor hands back after working an entry.
// Retryable is only meaningful for FAILURE outcomes; Data only for SUCCESS.
type ResultReport struct {
	Outcome      string                 `json:"outcome" validate:"nonzero"`
	Retryable    bool                   `json:"retryable"`
	ErrorType    string                 `json:"error_type,omitempty"`
	ErrorMessage string                 `json:"error_message,omitempty"`
	Data         map[string]interface{} `json:"data,omitempty"`
}
