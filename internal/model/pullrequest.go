package model

import (
	"strings"
	"time"
)

// PullRequestSnapshot is a fully materialized view of one pull request.
// The fetching layer is responsible for building it (including paginating
// comment and thread collections); the engine only reads it.
type PullRequestSnapshot struct {
	Number    int        `json:"number"`
	Title     string     `json:"title"`
	Author    string     `json:"author"`
	URL       string     `json:"url"`
	State     string     `json:"state"`
	Draft     bool       `json:"draft"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	MergedAt  *time.Time `json:"merged_at,omitempty"`
	BaseRef   string     `json:"base_ref"`
	HeadRef   string     `json:"head_ref"`
	Labels    []string   `json:"labels,omitempty"`

	Commits        []Commit              `json:"commits,omitempty"`
	Reviews        []Review              `json:"reviews,omitempty"`
	IssueComments  []IssueComment        `json:"issue_comments,omitempty"`
	ThreadComments []ReviewThreadComment `json:"thread_comments,omitempty"`
	Events         []LifecycleEvent      `json:"events,omitempty"`
}

// Commit is a single commit on the PR's head branch.
type Commit struct {
	SHA            string    `json:"sha"`
	Parents        []string  `json:"parents,omitempty"`
	CommitterDate  time.Time `json:"committer_date"`
	AuthorDate     time.Time `json:"author_date"`
	Message        string    `json:"message"`
	CommitterLogin string    `json:"committer_login,omitempty"`
}

// mergeMessagePrefixes are commit-message prefixes that mark a commit as a
// merge regardless of its parent count.
var mergeMessagePrefixes = []string{"merge pull request", "merge branch", "merge "}

// IsMerge reports whether the commit is a merge commit, either by message
// convention or by having more than one parent.
func (c Commit) IsMerge() bool {
	msg := strings.ToLower(c.Message)
	for _, prefix := range mergeMessagePrefixes {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return len(c.Parents) > 1
}

// ShortSHA returns the first seven characters of the commit SHA.
func (c Commit) ShortSHA() string {
	if len(c.SHA) > 7 {
		return c.SHA[:7]
	}
	return c.SHA
}

// Review statuses as reported by GitHub.
const (
	ReviewApproved         = "APPROVED"
	ReviewCommented        = "COMMENTED"
	ReviewChangesRequested = "CHANGES_REQUESTED"
)

// Review is a top-level pull request review.
type Review struct {
	ID          int64     `json:"id"`
	State       string    `json:"state"`
	SubmittedAt time.Time `json:"submitted_at"`
	Body        string    `json:"body,omitempty"`
	URL         string    `json:"url,omitempty"`
	Author      string    `json:"author,omitempty"`
}

// IssueComment is a comment on the PR conversation tab.
type IssueComment struct {
	ID        int64     `json:"id"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Author    string    `json:"author,omitempty"`
	URL       string    `json:"url,omitempty"`
}

// ReviewThreadComment is an inline comment on a diff. ReplyToID links it
// to the comment it replies to, when GitHub reported one.
type ReviewThreadComment struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Body      string    `json:"body"`
	URL       string    `json:"url,omitempty"`
	Author    string    `json:"author,omitempty"`
	ReplyToID string    `json:"reply_to_id,omitempty"`
	Minimized bool      `json:"minimized,omitempty"`
}

// Lifecycle event kinds.
const (
	EventReadyForReview  = "ready_for_review"
	EventReviewRequested = "review_requested"
	EventForcePushed     = "head_ref_force_pushed"
	EventBaseRefChanged  = "base_ref_changed"
	EventOpened          = "opened"
	EventReopened        = "reopened"
)

// LifecycleEvent is one entry from the PR's issue timeline. Only the
// fields relevant to the event kind are populated.
type LifecycleEvent struct {
	Event     string    `json:"event"`
	CreatedAt time.Time `json:"created_at"`
	Actor     string    `json:"actor,omitempty"`

	// Force-push fields.
	BeforeSHA string `json:"before_sha,omitempty"`
	AfterSHA  string `json:"after_sha,omitempty"`
	Ref       string `json:"ref,omitempty"`

	// Base-ref-change fields.
	PreviousRef string `json:"previous_ref,omitempty"`
	CurrentRef  string `json:"current_ref,omitempty"`
}
