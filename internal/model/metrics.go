package model

// CycleTimeMetrics holds the four phase durations for one PR, measured in
// business hours and rounded to two decimal places. A phase whose
// precondition is not met reports 0 rather than an error.
type CycleTimeMetrics struct {
	CommitToOpen     float64 `json:"commit_to_open"`
	OpenToReview     float64 `json:"open_to_review"`
	ReviewToApproval float64 `json:"review_to_approval"`
	ApprovalToMerge  float64 `json:"approval_to_merge"`
}
