// Package workflow inspects a built timeline for process anomalies:
// steps a healthy PR should have but does not, and steps that happened in
// an impossible or suspicious order. Findings describe the PR's process,
// not engine failures, and are never raised as errors.
package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/reillywatson/prpulse/internal/commits"
	"github.com/reillywatson/prpulse/internal/model"
)

// Validator checks timelines against the workflow conventions. Marker
// overrides the work-started commit prefix; empty means the default.
type Validator struct {
	Marker string
}

func New(marker string) Validator {
	return Validator{Marker: marker}
}

// Validate reports all issues for one PR. Draft PRs are exempt from
// workflow checks and return nothing. Checks whose preconditions are
// absent (e.g. no reviews at all) are simply skipped.
func (v Validator) Validate(status string, createdAt time.Time, items []model.TimelineItem) []model.ValidationIssue {
	if status == model.StatusDraft {
		return nil
	}

	var issues []model.ValidationIssue
	issues = append(issues, v.missingSteps(status, items)...)
	issues = append(issues, v.wrongOrder(createdAt, items)...)
	return issues
}

// marker returns the work-started prefix lowercased, since titles are
// lowercased before comparison.
func (v Validator) marker() string {
	if v.Marker != "" {
		return strings.ToLower(v.Marker)
	}
	return commits.WorkStartedMarker
}

func (v Validator) missingSteps(status string, items []model.TimelineItem) []model.ValidationIssue {
	var issues []model.ValidationIssue

	hasCommit := false
	hasMarkerCommit := false
	hasComment := false
	hasApproval := false
	hasMerged := false
	for _, it := range items {
		switch it.Type {
		case model.ItemCommit:
			hasCommit = true
			if strings.HasPrefix(strings.ToLower(it.Title), v.marker()) {
				hasMarkerCommit = true
			}
		case model.ItemComment, model.ItemReviewComment:
			hasComment = true
		case model.ItemApproved:
			hasApproval = true
		case model.ItemMerged:
			hasMerged = true
		}
	}

	if !hasCommit {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueMissingStep,
			Severity: model.SeverityError,
			Message:  "timeline has no commit",
		})
	}
	if !hasMarkerCommit {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueMissingStep,
			Severity: model.SeverityError,
			Message:  fmt.Sprintf("no commit message starts with %q", v.marker()),
		})
	}
	if !hasComment {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueMissingStep,
			Severity: model.SeverityWarning,
			Message:  "PR has no comments or review comments",
		})
	}
	if !hasApproval {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueMissingStep,
			Severity: model.SeverityWarning,
			Message:  "PR has no approval",
		})
	}
	if status == model.StatusMerged && !hasMerged {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueMissingStep,
			Severity: model.SeverityError,
			Message:  "PR is merged but the timeline has no merge entry",
		})
	}

	return issues
}

func (v Validator) wrongOrder(createdAt time.Time, items []model.TimelineItem) []model.ValidationIssue {
	var issues []model.ValidationIssue

	var firstComment, lastComment time.Time
	var firstApproval time.Time
	var lastReady time.Time

	for _, it := range items {
		switch it.Type {
		case model.ItemReviewRequested:
			// A review cannot be requested before the PR exists.
			if it.Time.Before(createdAt) {
				issues = append(issues, model.ValidationIssue{
					Type:     model.IssueWrongOrder,
					Severity: model.SeverityError,
					Message:  "review requested before the PR was created",
					Details: map[string]string{
						"requested_at": it.Time.Format(time.RFC3339),
						"created_at":   createdAt.Format(time.RFC3339),
					},
				})
			}
		case model.ItemComment, model.ItemReviewComment:
			if firstComment.IsZero() || it.Time.Before(firstComment) {
				firstComment = it.Time
			}
			if it.Time.After(lastComment) {
				lastComment = it.Time
			}
		case model.ItemApproved:
			if firstApproval.IsZero() || it.Time.Before(firstApproval) {
				firstApproval = it.Time
			}
		case model.ItemReadyForReview:
			if it.Time.After(lastReady) {
				lastReady = it.Time
			}
		}
	}

	if !firstComment.IsZero() && !lastReady.IsZero() && firstComment.Before(lastReady) {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueWrongOrder,
			Severity: model.SeverityWarning,
			Message:  "review activity started before the PR was ready for review",
			Details: map[string]string{
				"first_comment_at":    firstComment.Format(time.RFC3339),
				"ready_for_review_at": lastReady.Format(time.RFC3339),
			},
		})
	}

	if !firstApproval.IsZero() && !lastComment.IsZero() && firstApproval.Before(lastComment) {
		issues = append(issues, model.ValidationIssue{
			Type:     model.IssueWrongOrder,
			Severity: model.SeverityError,
			Message:  "PR was approved before the last review comment",
			Details: map[string]string{
				"approved_at":     firstApproval.Format(time.RFC3339),
				"last_comment_at": lastComment.Format(time.RFC3339),
			},
		})
	}

	return issues
}
