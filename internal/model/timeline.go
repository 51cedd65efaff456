package model

import "time"

// Timeline item types.
const (
	ItemCommit          = "commit"
	ItemReadyForReview  = "ready_for_review"
	ItemComment         = "comment"
	ItemReviewRequested = "review_requested"
	ItemReviewComment   = "review_comment"
	ItemApproved        = "approved"
	ItemForcePushed     = "force_pushed"
	ItemBaseRefChanged  = "base_ref_changed"
	ItemMerged          = "merged"
)

// TimelineItem is one entry in the derived PR timeline. Items are value
// objects: built once, never mutated after the final sequence is assembled.
type TimelineItem struct {
	ID          string    `json:"id,omitempty"`
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Time        time.Time `json:"time"`
	Actor       string    `json:"actor,omitempty"`
	URL         string    `json:"url,omitempty"`
	Description string    `json:"description,omitempty"`

	// ParentID links a reply comment to the comment it answers;
	// IndentLevel is the depth in the reply tree, 0 for roots.
	ParentID    string `json:"parent_id,omitempty"`
	IndentLevel int    `json:"indent_level,omitempty"`
}
