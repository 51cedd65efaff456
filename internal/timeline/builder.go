// Package timeline merges a PR's commits, lifecycle events, reviews and
// threaded inline comments into one chronologically ordered,
// thread-preserving sequence of human-meaningful items.
package timeline

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/reillywatson/prpulse/internal/commits"
	"github.com/reillywatson/prpulse/internal/config"
	"github.com/reillywatson/prpulse/internal/model"
)

// Builder constructs PR timelines. It is safe to reuse across PRs; all
// per-build state lives in locals.
type Builder struct {
	settings config.Settings
	logger   hclog.Logger
	now      func() time.Time
}

func NewBuilder(settings config.Settings, logger hclog.Logger) *Builder {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Builder{settings: settings, logger: logger, now: time.Now}
}

// firstReviewTracker marks the single earliest review comment across both
// overall COMMENTED reviews and inline thread comments. It is threaded
// through both passes so the "first" label is handed out exactly once.
type firstReviewTracker struct {
	instant  time.Time
	consumed bool
}

func newFirstReviewTracker(pr model.PullRequestSnapshot) *firstReviewTracker {
	t := &firstReviewTracker{}
	consider := func(ts time.Time) {
		if ts.IsZero() {
			return
		}
		if t.instant.IsZero() || ts.Before(t.instant) {
			t.instant = ts
		}
	}
	for _, r := range pr.Reviews {
		if r.State == model.ReviewCommented && strings.TrimSpace(r.Body) != "" {
			consider(r.SubmittedAt)
		}
	}
	for _, c := range pr.ThreadComments {
		if !c.Minimized {
			consider(c.CreatedAt)
		}
	}
	return t
}

// consume claims the first-review-comment label for ts. Only the first
// caller whose timestamp equals the tracked instant succeeds.
func (t *firstReviewTracker) consume(ts time.Time) bool {
	if t.consumed || t.instant.IsZero() || !ts.Equal(t.instant) {
		return false
	}
	t.consumed = true
	return true
}

// entry is one unit in the outer chronological merge: either a plain item
// or the root of an inline-comment subtree whose children follow it
// depth-first regardless of later-timestamped unrelated items.
type entry struct {
	t    time.Time
	item model.TimelineItem
	node *threadNode
}

// Build derives the full ordered timeline for one PR snapshot.
func (b *Builder) Build(pr model.PullRequestSnapshot) []model.TimelineItem {
	tracker := newFirstReviewTracker(pr)

	var entries []entry
	add := func(it model.TimelineItem) {
		entries = append(entries, entry{t: it.Time, item: it})
	}

	if first := commits.SelectFirstCommit(pr.Commits, b.settings.WorkStartedMarker, b.logger); first != nil {
		add(model.TimelineItem{
			ID:          first.SHA,
			Type:        model.ItemCommit,
			Title:       firstLine(first.Message),
			Time:        b.ensureTime(first.CommitterDate, "commit", first.SHA),
			Actor:       first.CommitterLogin,
			Description: "commit " + first.ShortSHA(),
		})
	}

	b.addLifecycleItems(pr, add)
	b.addFirstComment(pr, add)
	b.addReviewItems(pr, tracker, add)

	if pr.MergedAt != nil {
		add(model.TimelineItem{
			Type:  model.ItemMerged,
			Title: "Merged",
			Time:  *pr.MergedAt,
			URL:   mergeURL(pr),
		})
	}

	for _, root := range b.buildThreadForest(pr) {
		entries = append(entries, entry{t: root.comment.CreatedAt, node: root})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].t.Before(entries[j].t)
	})

	items := make([]model.TimelineItem, 0, len(entries))
	for _, e := range entries {
		if e.node != nil {
			items = b.emitThread(e.node, 0, "", tracker, items)
		} else {
			items = append(items, e.item)
		}
	}
	return items
}

// addLifecycleItems turns ready-for-review, review-requested, force-push
// and base-ref-change events into items, in event order.
func (b *Builder) addLifecycleItems(pr model.PullRequestSnapshot, add func(model.TimelineItem)) {
	// Force pushes without SHA data get ordinal titles when there is more
	// than one of them, so they stay tellable apart.
	shalessPushes := 0
	for _, ev := range pr.Events {
		if ev.Event == model.EventForcePushed && ev.AfterSHA == "" {
			shalessPushes++
		}
	}

	ordinal := 0
	for _, ev := range pr.Events {
		switch ev.Event {
		case model.EventReadyForReview:
			add(model.TimelineItem{
				Type:  model.ItemReadyForReview,
				Title: "Ready for review",
				Time:  b.ensureTime(ev.CreatedAt, "ready_for_review event", pr.URL),
				Actor: ev.Actor,
			})
		case model.EventReviewRequested:
			add(model.TimelineItem{
				Type:  model.ItemReviewRequested,
				Title: "Review requested",
				Time:  b.ensureTime(ev.CreatedAt, "review_requested event", pr.URL),
				Actor: ev.Actor,
			})
		case model.EventForcePushed:
			title := "Force pushed"
			if ev.AfterSHA != "" {
				title = "Force pushed to " + shortSHA(ev.AfterSHA)
			} else {
				ordinal++
				if shalessPushes > 1 {
					title = fmt.Sprintf("Force push #%d", ordinal)
				}
			}
			add(model.TimelineItem{
				Type:        model.ItemForcePushed,
				Title:       title,
				Time:        b.ensureTime(ev.CreatedAt, "force push event", pr.URL),
				Actor:       ev.Actor,
				Description: forcePushDescription(ev),
			})
		case model.EventBaseRefChanged:
			title := "Base branch changed"
			if ev.PreviousRef != "" && ev.CurrentRef != "" {
				title = fmt.Sprintf("Base changed from %s to %s", ev.PreviousRef, ev.CurrentRef)
			}
			add(model.TimelineItem{
				Type:  model.ItemBaseRefChanged,
				Title: title,
				Time:  b.ensureTime(ev.CreatedAt, "base ref event", pr.URL),
				Actor: ev.Actor,
			})
		}
	}
}

// addFirstComment emits the earliest issue comment that is not
// machine-written. Inline review comments are handled by the thread pass.
func (b *Builder) addFirstComment(pr model.PullRequestSnapshot, add func(model.TimelineItem)) {
	var first *model.IssueComment
	for i := range pr.IssueComments {
		c := &pr.IssueComments[i]
		if b.settings.IsAutomationComment(c.Body) {
			continue
		}
		if first == nil || c.CreatedAt.Before(first.CreatedAt) {
			first = c
		}
	}
	if first == nil {
		return
	}
	add(model.TimelineItem{
		ID:          strconv.FormatInt(first.ID, 10),
		Type:        model.ItemComment,
		Title:       "First comment",
		Time:        b.ensureTime(first.CreatedAt, "comment", first.URL),
		Actor:       first.Author,
		URL:         first.URL,
		Description: snippet(first.Body),
	})
}

// addReviewItems emits approval and review-comment items from top-level
// reviews, distinguishing the first of each kind and automation actors.
func (b *Builder) addReviewItems(pr model.PullRequestSnapshot, tracker *firstReviewTracker, add func(model.TimelineItem)) {
	reviews := make([]model.Review, len(pr.Reviews))
	copy(reviews, pr.Reviews)
	sort.SliceStable(reviews, func(i, j int) bool {
		return reviews[i].SubmittedAt.Before(reviews[j].SubmittedAt)
	})

	approvalSeen := false
	for _, r := range reviews {
		switch {
		case r.State == model.ReviewApproved:
			var title string
			switch {
			case b.settings.IsAutomationActor(r.Author):
				title = "Automated approval"
			case !approvalSeen:
				title = "Approved"
			default:
				title = "Re-approved"
			}
			approvalSeen = true
			add(model.TimelineItem{
				ID:    "review-" + strconv.FormatInt(r.ID, 10),
				Type:  model.ItemApproved,
				Title: title,
				Time:  b.ensureTime(r.SubmittedAt, "review", r.URL),
				Actor: r.Author,
				URL:   r.URL,
			})

		case r.State == model.ReviewCommented && strings.TrimSpace(r.Body) != "":
			var title string
			switch {
			case b.settings.IsAutomationActor(r.Author):
				title = "Automated review comment"
			case tracker.consume(r.SubmittedAt):
				title = "First review comment"
			default:
				title = "Review comment"
			}
			add(model.TimelineItem{
				ID:          "review-" + strconv.FormatInt(r.ID, 10),
				Type:        model.ItemReviewComment,
				Title:       title,
				Time:        b.ensureTime(r.SubmittedAt, "review", r.URL),
				Actor:       r.Author,
				URL:         r.URL,
				Description: snippet(r.Body),
			})
		}
	}
}

// mergeURL links the merge item to the merge commit when the commit list
// has one, else to the PR itself.
func mergeURL(pr model.PullRequestSnapshot) string {
	var merge *model.Commit
	for i := range pr.Commits {
		c := &pr.Commits[i]
		if !c.IsMerge() {
			continue
		}
		if merge == nil || c.CommitterDate.After(merge.CommitterDate) {
			merge = c
		}
	}
	if merge != nil {
		if i := strings.Index(pr.URL, "/pull/"); i > 0 {
			return pr.URL[:i] + "/commit/" + merge.SHA
		}
	}
	return pr.URL
}

func forcePushDescription(ev model.LifecycleEvent) string {
	var parts []string
	if ev.BeforeSHA != "" {
		parts = append(parts, "before "+shortSHA(ev.BeforeSHA))
	}
	if ev.AfterSHA != "" {
		parts = append(parts, "after "+shortSHA(ev.AfterSHA))
	}
	if ev.Ref != "" {
		parts = append(parts, "on "+ev.Ref)
	}
	return strings.Join(parts, ", ")
}

func shortSHA(sha string) string {
	if len(sha) > 7 {
		return sha[:7]
	}
	return sha
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}

func snippet(body string) string {
	s := firstLine(body)
	if len(s) > 120 {
		s = s[:117] + "..."
	}
	return s
}
