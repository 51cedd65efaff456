package timeline

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reillywatson/prpulse/internal/config"
	"github.com/reillywatson/prpulse/internal/model"
)

// All fixtures use the week of 2024-01-01, a Monday.
func at(day, hour int) time.Time {
	return time.Date(2024, time.January, day, hour, 0, 0, 0, time.UTC)
}

func newTestBuilder() *Builder {
	b := NewBuilder(config.Default(), nil)
	b.now = func() time.Time { return at(15, 12) }
	return b
}

func itemTypes(items []model.TimelineItem) []string {
	types := make([]string, len(items))
	for i, it := range items {
		types[i] = it.Type
	}
	return types
}

func TestBuild_EndToEndScenario(t *testing.T) {
	merged := at(2, 12)
	pr := model.PullRequestSnapshot{
		Number:    7,
		URL:       "https://github.com/acme/widgets/pull/7",
		State:     "closed",
		CreatedAt: at(1, 8),
		MergedAt:  &merged,
		Commits: []model.Commit{
			{SHA: "abc1234def", Message: "work has started on the search endpoint", CommitterDate: at(1, 9)},
		},
		Events: []model.LifecycleEvent{
			{Event: model.EventReadyForReview, CreatedAt: at(1, 17), Actor: "bob"},
		},
		Reviews: []model.Review{
			{ID: 1, State: model.ReviewCommented, Body: "a few nits", SubmittedAt: at(2, 9), Author: "alice"},
			{ID: 2, State: model.ReviewApproved, SubmittedAt: at(2, 10), Author: "alice"},
		},
	}

	items := newTestBuilder().Build(pr)

	require.Equal(t, []string{
		model.ItemCommit,
		model.ItemReadyForReview,
		model.ItemReviewComment,
		model.ItemApproved,
		model.ItemMerged,
	}, itemTypes(items))

	assert.Equal(t, "work has started on the search endpoint", items[0].Title)
	assert.Equal(t, "First review comment", items[2].Title)
	assert.Equal(t, "Approved", items[3].Title)
	assert.Equal(t, "Merged", items[4].Title)
	assert.Equal(t, pr.URL, items[4].URL)
}

func TestBuild_MergeLinksToMergeCommit(t *testing.T) {
	merged := at(2, 12)
	pr := model.PullRequestSnapshot{
		URL:      "https://github.com/acme/widgets/pull/7",
		MergedAt: &merged,
		Commits: []model.Commit{
			{SHA: "aaa1111", Message: "do things", CommitterDate: at(1, 9)},
			{SHA: "bbb2222", Message: "Merge pull request #7", CommitterDate: at(2, 12)},
		},
	}

	items := newTestBuilder().Build(pr)
	last := items[len(items)-1]
	require.Equal(t, model.ItemMerged, last.Type)
	assert.Equal(t, "https://github.com/acme/widgets/commit/bbb2222", last.URL)
}

func TestBuild_FirstCommentSkipsAutomation(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		IssueComments: []model.IssueComment{
			{ID: 1, Body: "Everything looks good to me!", CreatedAt: at(1, 9), Author: "bot"},
			{ID: 2, Body: "can you split this up?", CreatedAt: at(1, 11), Author: "carol"},
		},
	}

	items := newTestBuilder().Build(pr)

	var comments []model.TimelineItem
	for _, it := range items {
		if it.Type == model.ItemComment {
			comments = append(comments, it)
		}
	}
	require.Len(t, comments, 1)
	assert.Equal(t, "2", comments[0].ID)
	assert.Equal(t, "carol", comments[0].Actor)
	assert.Equal(t, "First comment", comments[0].Title)
}

func TestBuild_ApprovalLabels(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		Reviews: []model.Review{
			{ID: 3, State: model.ReviewApproved, SubmittedAt: at(3, 9), Author: "github-actions[bot]"},
			{ID: 1, State: model.ReviewApproved, SubmittedAt: at(1, 9), Author: "alice"},
			{ID: 2, State: model.ReviewApproved, SubmittedAt: at(2, 9), Author: "dave"},
		},
	}

	items := newTestBuilder().Build(pr)

	var titles []string
	for _, it := range items {
		if it.Type == model.ItemApproved {
			titles = append(titles, it.Title)
		}
	}
	assert.Equal(t, []string{"Approved", "Re-approved", "Automated approval"}, titles)
}

func TestBuild_FirstReviewCommentSharedAcrossPasses(t *testing.T) {
	// The inline comment is the earliest review comment, so the overall
	// review must not claim the "first" label.
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		Reviews: []model.Review{
			{ID: 1, State: model.ReviewCommented, Body: "overall pass", SubmittedAt: at(2, 9), Author: "alice"},
		},
		ThreadComments: []model.ReviewThreadComment{
			{ID: "100", Body: "inline first", CreatedAt: at(1, 12), Author: "dave",
				URL: "https://github.com/acme/widgets/pull/7#discussion_r100"},
		},
	}

	items := newTestBuilder().Build(pr)

	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, "First review comment", byID["100"].Title)
	assert.Equal(t, "Review comment", byID["review-1"].Title)
}

func TestBuild_ThreadChildrenFollowParent(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "1", Body: "root", CreatedAt: at(1, 9),
				URL: "https://github.com/acme/widgets/pull/7#discussion_r1"},
			{ID: "3", Body: "late reply", CreatedAt: at(3, 9), ReplyToID: "1",
				URL: "https://github.com/acme/widgets/pull/7#discussion_r1"},
			{ID: "2", Body: "unrelated root", CreatedAt: at(2, 9),
				URL: "https://github.com/acme/widgets/pull/7#discussion_r2"},
		},
	}

	items := newTestBuilder().Build(pr)

	var ids []string
	for _, it := range items {
		if it.Type == model.ItemReviewComment {
			ids = append(ids, it.ID)
		}
	}
	// The reply is emitted right after its parent even though the
	// unrelated root has an earlier timestamp.
	assert.Equal(t, []string{"1", "3", "2"}, ids)

	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, "1", byID["3"].ParentID)
	assert.Equal(t, 1, byID["3"].IndentLevel)
	assert.Equal(t, 0, byID["1"].IndentLevel)
	assert.Empty(t, byID["2"].ParentID)
}

func TestBuild_DiscussionFallbackLinking(t *testing.T) {
	// The reply-to id points at a comment we never saw; the shared
	// discussion anchor still ties the reply to the discussion root.
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "10", Body: "root", CreatedAt: at(1, 9),
				URL: "https://github.com/acme/widgets/pull/7#discussion_r10"},
			{ID: "11", Body: "reply", CreatedAt: at(1, 10), ReplyToID: "999",
				URL: "https://github.com/acme/widgets/pull/7#discussion_r10"},
		},
	}

	items := newTestBuilder().Build(pr)

	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, "10", byID["11"].ParentID)
	assert.Equal(t, 1, byID["11"].IndentLevel)
}

func TestBuild_ReplyToLaterCommentDoesNotDropThread(t *testing.T) {
	// The earlier comment replies to the later one, whose discussion
	// fallback would point straight back — a cycle. Both comments must
	// still be emitted, with the cycle-closing link refused.
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "1", Body: "early", CreatedAt: at(1, 9), ReplyToID: "2",
				URL: "https://github.com/acme/widgets/pull/7#discussion_r5"},
			{ID: "2", Body: "late", CreatedAt: at(1, 10),
				URL: "https://github.com/acme/widgets/pull/7#discussion_r5"},
		},
	}

	items := newTestBuilder().Build(pr)
	require.Len(t, items, 2)

	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, "2", byID["1"].ParentID)
	assert.Equal(t, 1, byID["1"].IndentLevel)
	assert.Empty(t, byID["2"].ParentID)
	assert.Equal(t, 0, byID["2"].IndentLevel)
}

func TestBuild_OrphanCommentIsRoot(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "20", Body: "floating", CreatedAt: at(1, 9), ReplyToID: "999",
				URL: "https://example.com/comment/20"},
		},
	}

	items := newTestBuilder().Build(pr)
	require.Len(t, items, 1)
	assert.Empty(t, items[0].ParentID)
	assert.Equal(t, 0, items[0].IndentLevel)
}

func TestBuild_MinimizedCommentsExcluded(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "1", Body: "hidden", CreatedAt: at(1, 9), Minimized: true},
			{ID: "2", Body: "shown", CreatedAt: at(1, 10)},
		},
	}

	items := newTestBuilder().Build(pr)
	require.Len(t, items, 1)
	assert.Equal(t, "2", items[0].ID)
}

func TestBuild_ForcePushTitles(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		Events: []model.LifecycleEvent{
			{Event: model.EventForcePushed, CreatedAt: at(1, 9)},
			{Event: model.EventForcePushed, CreatedAt: at(1, 10),
				BeforeSHA: "aaa1111bbb", AfterSHA: "ccc2222ddd", Ref: "feature"},
			{Event: model.EventForcePushed, CreatedAt: at(1, 11)},
		},
	}

	items := newTestBuilder().Build(pr)

	var titles, descs []string
	for _, it := range items {
		if it.Type == model.ItemForcePushed {
			titles = append(titles, it.Title)
			descs = append(descs, it.Description)
		}
	}
	assert.Equal(t, []string{"Force push #1", "Force pushed to ccc2222", "Force push #2"}, titles)
	assert.Equal(t, "before aaa1111, after ccc2222, on feature", descs[1])
}

func TestBuild_BaseRefChange(t *testing.T) {
	pr := model.PullRequestSnapshot{
		CreatedAt: at(1, 8),
		Events: []model.LifecycleEvent{
			{Event: model.EventBaseRefChanged, CreatedAt: at(1, 9),
				PreviousRef: "main", CurrentRef: "release-1.2"},
		},
	}

	items := newTestBuilder().Build(pr)
	require.Len(t, items, 1)
	assert.Equal(t, "Base changed from main to release-1.2", items[0].Title)
}

func TestBuild_RepairsMissingIDAndTimestamp(t *testing.T) {
	b := newTestBuilder()
	pr := model.PullRequestSnapshot{
		URL:       "https://github.com/acme/widgets/pull/7",
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{Body: "no id, no time"},
		},
	}

	items := b.Build(pr)
	require.Len(t, items, 1)
	assert.NotEmpty(t, items[0].ID)
	assert.Equal(t, at(15, 12), items[0].Time)
}

func TestBuild_NormalizesCommentURLs(t *testing.T) {
	pr := model.PullRequestSnapshot{
		URL:       "https://github.com/acme/widgets/pull/7",
		CreatedAt: at(1, 8),
		ThreadComments: []model.ReviewThreadComment{
			{ID: "1", Body: "anchored", CreatedAt: at(1, 9),
				URL: "https://github.com/acme/widgets/pull/7#discussion_r1"},
			{ID: "2", Body: "page url only", CreatedAt: at(1, 10),
				URL: "https://github.com/acme/widgets/pull/7/files#r2"},
			{ID: "3", Body: "no url", CreatedAt: at(1, 11)},
		},
	}

	items := newTestBuilder().Build(pr)

	byID := map[string]model.TimelineItem{}
	for _, it := range items {
		byID[it.ID] = it
	}
	assert.Equal(t, "https://github.com/acme/widgets/pull/7#discussion_r1", byID["1"].URL)
	assert.Equal(t, "https://github.com/acme/widgets/pull/7/files#discussion_r2", byID["2"].URL)
	assert.Equal(t, "https://github.com/acme/widgets/pull/7#discussion_r3", byID["3"].URL)
}

func TestBuild_EmptySnapshot(t *testing.T) {
	assert.Empty(t, newTestBuilder().Build(model.PullRequestSnapshot{CreatedAt: at(1, 8)}))
}
