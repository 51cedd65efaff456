package model

// Validation issue types.
const (
	IssueMissingStep  = "missing_step"
	IssueWrongOrder   = "wrong_order"
	IssueAbnormalTime = "abnormal_time"
)

// Validation issue severities.
const (
	SeverityError   = "error"
	SeverityWarning = "warning"
)

// ValidationIssue describes one workflow anomaly observed in a PR's
// timeline. Issues are produced fresh on every validation call.
type ValidationIssue struct {
	Type     string            `json:"type"`
	Severity string            `json:"severity"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}
