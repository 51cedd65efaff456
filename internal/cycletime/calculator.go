// Package cycletime computes the four PR phase durations in business
// hours: commit to open, open to first review, first review to approval,
// and approval to merge. Every phase degrades to 0 when its precondition
// is missing; a zero is "not yet applicable", never an error.
package cycletime

import (
	"math"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/reillywatson/prpulse/internal/calendar"
	"github.com/reillywatson/prpulse/internal/commits"
	"github.com/reillywatson/prpulse/internal/model"
)

// Calculate computes all four metrics for one PR. Draft PRs are excluded
// from cycle-time accounting entirely and report all zeroes. marker
// overrides the work-started commit convention, logger receives
// data-quality warnings; both may be zero values.
func Calculate(pr model.PullRequestSnapshot, marker string, logger hclog.Logger) model.CycleTimeMetrics {
	if model.DeriveStatus(pr) == model.StatusDraft {
		return model.CycleTimeMetrics{}
	}
	return model.CycleTimeMetrics{
		CommitToOpen:     CommitToOpen(pr, marker, logger),
		OpenToReview:     OpenToReview(pr),
		ReviewToApproval: ReviewToApproval(pr),
		ApprovalToMerge:  ApprovalToMerge(pr),
	}
}

// ReadyForReviewInstant resolves when the PR became eligible for review:
// the ready_for_review event if one exists, else the most recent
// opened/reopened event, else the PR's creation time.
func ReadyForReviewInstant(pr model.PullRequestSnapshot) time.Time {
	var ready, opened time.Time
	for _, ev := range pr.Events {
		switch ev.Event {
		case model.EventReadyForReview:
			if ev.CreatedAt.After(ready) {
				ready = ev.CreatedAt
			}
		case model.EventOpened, model.EventReopened:
			if ev.CreatedAt.After(opened) {
				opened = ev.CreatedAt
			}
		}
	}
	if !ready.IsZero() {
		return ready
	}
	if !opened.IsZero() {
		return opened
	}
	return pr.CreatedAt
}

// CommitToOpen measures from the first work commit to the ready-for-review
// instant.
func CommitToOpen(pr model.PullRequestSnapshot, marker string, logger hclog.Logger) float64 {
	first := commits.SelectFirstCommit(pr.Commits, marker, logger)
	if first == nil {
		return 0
	}
	return round2(calendar.BusinessHours(first.CommitterDate, ReadyForReviewInstant(pr)))
}

// OpenToReview measures from the ready-for-review instant to the first
// qualifying review comment. Candidates are COMMENTED reviews with a
// non-empty body and all inline thread comments; anything submitted
// before the ready instant belongs to a pre-readiness review round and
// does not count.
func OpenToReview(pr model.PullRequestSnapshot) float64 {
	start := ReadyForReviewInstant(pr)

	var end time.Time
	consider := func(t time.Time) {
		if t.Before(start) {
			return
		}
		if end.IsZero() || t.Before(end) {
			end = t
		}
	}

	for _, r := range pr.Reviews {
		if r.State == model.ReviewCommented && strings.TrimSpace(r.Body) != "" && !r.SubmittedAt.IsZero() {
			consider(r.SubmittedAt)
		}
	}
	// Minimized comments still count here: hiding a comment later should
	// not rewrite how long the first review took.
	for _, c := range pr.ThreadComments {
		if !c.CreatedAt.IsZero() {
			consider(c.CreatedAt)
		}
	}

	if end.IsZero() || !end.After(start) {
		return 0
	}
	return round2(calendar.BusinessHours(start, end))
}

// ReviewToApproval measures from the earliest submitted review of any
// state to the latest approval.
func ReviewToApproval(pr model.PullRequestSnapshot) float64 {
	var firstReview, lastApproval time.Time
	for _, r := range pr.Reviews {
		if r.SubmittedAt.IsZero() {
			continue
		}
		if firstReview.IsZero() || r.SubmittedAt.Before(firstReview) {
			firstReview = r.SubmittedAt
		}
		if r.State == model.ReviewApproved && r.SubmittedAt.After(lastApproval) {
			lastApproval = r.SubmittedAt
		}
	}
	if lastApproval.IsZero() {
		return 0
	}
	return round2(calendar.BusinessHours(firstReview, lastApproval))
}

// ApprovalToMerge measures from the latest approval to the merge. Returns
// 0 when the PR was never approved or never merged.
func ApprovalToMerge(pr model.PullRequestSnapshot) float64 {
	if pr.MergedAt == nil {
		return 0
	}
	var lastApproval time.Time
	for _, r := range pr.Reviews {
		if r.State == model.ReviewApproved && r.SubmittedAt.After(lastApproval) {
			lastApproval = r.SubmittedAt
		}
	}
	if lastApproval.IsZero() {
		return 0
	}
	return round2(calendar.BusinessHours(lastApproval, *pr.MergedAt))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
