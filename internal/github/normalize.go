// Package github normalizes go-github values into the engine's snapshot
// shape. Normalization happens once, here at the boundary; the engine
// packages never see loose GitHub types. This package performs no network
// calls — the fetching layer hands it already-retrieved data.
package github

import (
	"strconv"

	"github.com/google/go-github/v39/github"

	"github.com/reillywatson/prpulse/internal/model"
)

// Snapshot assembles a PullRequestSnapshot from fetched GitHub data. Any
// collection may be nil; missing optional fields map to zero values and
// are repaired downstream by the engine.
func Snapshot(pr *github.PullRequest, commits []*github.RepositoryCommit, reviews []*github.PullRequestReview,
	comments []*github.IssueComment, reviewComments []*github.PullRequestComment, events []*github.Timeline) model.PullRequestSnapshot {

	snap := model.PullRequestSnapshot{
		Number:    pr.GetNumber(),
		Title:     pr.GetTitle(),
		Author:    pr.GetUser().GetLogin(),
		URL:       pr.GetHTMLURL(),
		State:     pr.GetState(),
		Draft:     pr.GetDraft(),
		CreatedAt: pr.GetCreatedAt(),
		UpdatedAt: pr.GetUpdatedAt(),
		BaseRef:   pr.GetBase().GetRef(),
		HeadRef:   pr.GetHead().GetRef(),
	}
	if pr.MergedAt != nil {
		merged := *pr.MergedAt
		snap.MergedAt = &merged
	}
	for _, l := range pr.Labels {
		snap.Labels = append(snap.Labels, l.GetName())
	}

	for _, rc := range commits {
		snap.Commits = append(snap.Commits, normalizeCommit(rc))
	}
	for _, r := range reviews {
		snap.Reviews = append(snap.Reviews, model.Review{
			ID:          r.GetID(),
			State:       r.GetState(),
			SubmittedAt: r.GetSubmittedAt(),
			Body:        r.GetBody(),
			URL:         r.GetHTMLURL(),
			Author:      r.GetUser().GetLogin(),
		})
	}
	for _, c := range comments {
		snap.IssueComments = append(snap.IssueComments, model.IssueComment{
			ID:        c.GetID(),
			Body:      c.GetBody(),
			CreatedAt: c.GetCreatedAt(),
			Author:    c.GetUser().GetLogin(),
			URL:       c.GetHTMLURL(),
		})
	}
	for _, rc := range reviewComments {
		snap.ThreadComments = append(snap.ThreadComments, normalizeThreadComment(rc))
	}
	for _, ev := range events {
		if e, ok := normalizeEvent(ev); ok {
			snap.Events = append(snap.Events, e)
		}
	}

	return snap
}

func normalizeCommit(rc *github.RepositoryCommit) model.Commit {
	c := model.Commit{
		SHA:            rc.GetSHA(),
		CommitterDate:  rc.GetCommit().GetCommitter().GetDate(),
		AuthorDate:     rc.GetCommit().GetAuthor().GetDate(),
		Message:        rc.GetCommit().GetMessage(),
		CommitterLogin: rc.GetCommitter().GetLogin(),
	}
	for _, p := range rc.Parents {
		if sha := p.GetSHA(); sha != "" {
			c.Parents = append(c.Parents, sha)
		}
	}
	return c
}

func normalizeThreadComment(rc *github.PullRequestComment) model.ReviewThreadComment {
	c := model.ReviewThreadComment{
		CreatedAt: rc.GetCreatedAt(),
		Body:      rc.GetBody(),
		URL:       rc.GetHTMLURL(),
		Author:    rc.GetUser().GetLogin(),
	}
	if id := rc.GetID(); id != 0 {
		c.ID = strconv.FormatInt(id, 10)
	}
	if reply := rc.GetInReplyTo(); reply != 0 {
		c.ReplyToID = strconv.FormatInt(reply, 10)
	}
	return c
}

// lifecycleEvents are the issue-timeline event kinds the engine consumes;
// everything else (labels, assignments, cross-references) is dropped.
var lifecycleEvents = map[string]bool{
	model.EventReadyForReview:  true,
	model.EventReviewRequested: true,
	model.EventForcePushed:     true,
	model.EventBaseRefChanged:  true,
	model.EventOpened:          true,
	model.EventReopened:        true,
}

func normalizeEvent(ev *github.Timeline) (model.LifecycleEvent, bool) {
	kind := ev.GetEvent()
	if !lifecycleEvents[kind] {
		return model.LifecycleEvent{}, false
	}
	e := model.LifecycleEvent{
		Event:     kind,
		CreatedAt: ev.GetCreatedAt(),
		Actor:     ev.GetActor().GetLogin(),
	}
	// The REST timeline reports the post-push head as commit_id; the
	// before SHA and ref are only available over GraphQL and stay empty.
	if kind == model.EventForcePushed {
		e.AfterSHA = ev.GetCommitID()
	}
	return e, true
}
