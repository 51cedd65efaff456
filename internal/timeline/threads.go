package timeline

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/reillywatson/prpulse/internal/model"
)

// threadNode is one inline review comment in the reply forest.
type threadNode struct {
	comment  model.ReviewThreadComment
	children []*threadNode
}

var discussionAnchorRe = regexp.MustCompile(`discussion_r(\d+)`)

// discussionID extracts the inline-discussion identifier embedded in a
// review comment's permalink, or "" when the URL carries none.
func discussionID(url string) string {
	m := discussionAnchorRe.FindStringSubmatch(url)
	if m == nil {
		return ""
	}
	return m[1]
}

// buildThreadForest arranges inline review comments into reply trees.
// Linking is a two-phase build: index every comment by id and by the
// discussion id discovered in its URL, then resolve parents. A comment
// becomes a child of the comment its reply-to id names when that id is
// known; failing that, comments sharing a discussion attach to the
// discussion's earliest comment. Whatever remains unlinked is a root.
// Minimized comments are left out entirely.
func (b *Builder) buildThreadForest(pr model.PullRequestSnapshot) []*threadNode {
	var nodes []*threadNode
	for _, c := range pr.ThreadComments {
		if c.Minimized {
			continue
		}
		c.ID = b.ensureID(c.ID, c.URL)
		c.CreatedAt = b.ensureTime(c.CreatedAt, "review comment", c.URL)
		c.URL = normalizeCommentURL(c.URL, c.ID, pr.URL)
		nodes = append(nodes, &threadNode{comment: c})
	}

	// Phase 1: index by id and by discussion id.
	byID := make(map[string]*threadNode, len(nodes))
	byDiscussion := make(map[string][]*threadNode)
	for _, n := range nodes {
		byID[n.comment.ID] = n
		if d := discussionID(n.comment.URL); d != "" {
			byDiscussion[d] = append(byDiscussion[d], n)
		}
	}
	for _, group := range byDiscussion {
		sort.SliceStable(group, func(i, j int) bool {
			return group[i].comment.CreatedAt.Before(group[j].comment.CreatedAt)
		})
	}

	// Phase 2: resolve parent links. A reply-to id pointing at a later
	// comment in the same discussion can close a parent cycle; such a
	// link is refused and the comment becomes an orphan root, so no
	// comment ever silently drops out of the timeline.
	parents := make(map[*threadNode]*threadNode, len(nodes))
	var roots []*threadNode
	for _, n := range nodes {
		parent := b.resolveParent(n, byID, byDiscussion)
		if parent != nil && inAncestry(n, parent, parents) {
			b.logger.Warn("reply chain forms a cycle, emitting comment as a root",
				"comment_id", n.comment.ID, "parent_id", parent.comment.ID)
			parent = nil
		}
		if parent != nil {
			parents[n] = parent
			parent.children = append(parent.children, n)
		} else {
			roots = append(roots, n)
		}
	}

	sortNodes(roots)
	for _, n := range nodes {
		sortNodes(n.children)
	}
	return roots
}

func (b *Builder) resolveParent(n *threadNode, byID map[string]*threadNode, byDiscussion map[string][]*threadNode) *threadNode {
	if p, ok := byID[n.comment.ReplyToID]; ok && p != n {
		return p
	}
	if n.comment.ReplyToID != "" {
		b.logger.Warn("reply target not found, falling back to discussion root",
			"comment_id", n.comment.ID, "reply_to_id", n.comment.ReplyToID)
	}
	d := discussionID(n.comment.URL)
	if d == "" {
		return nil
	}
	group := byDiscussion[d]
	if len(group) == 0 || group[0] == n {
		return nil
	}
	return group[0]
}

// inAncestry reports whether n already sits on parent's chain of resolved
// parents, which linking n under parent would turn into a cycle.
func inAncestry(n, parent *threadNode, parents map[*threadNode]*threadNode) bool {
	for p := parent; p != nil; p = parents[p] {
		if p == n {
			return true
		}
	}
	return false
}

func sortNodes(nodes []*threadNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].comment.CreatedAt.Before(nodes[j].comment.CreatedAt)
	})
}

// normalizeCommentURL anchors an inline comment URL to its
// #discussion_r<id> fragment, preferring a pre-existing anchor, else
// rebuilding one from the comment's own page URL, else from the PR URL.
func normalizeCommentURL(url, id, prURL string) string {
	if strings.Contains(url, "#discussion_r") {
		return url
	}
	anchor := "#discussion_r" + id
	if url != "" {
		if i := strings.IndexByte(url, '#'); i >= 0 {
			url = url[:i]
		}
		return url + anchor
	}
	return prURL + anchor
}

// emitThread walks a subtree depth-first, appending one item per comment with
// indent levels matching reply depth.
func (b *Builder) emitThread(n *threadNode, depth int, parentID string, tracker *firstReviewTracker, items []model.TimelineItem) []model.TimelineItem {
	c := n.comment

	var title string
	switch {
	case b.settings.IsAutomationActor(c.Author):
		title = "Automated review comment"
	case depth == 0 && tracker.consume(c.CreatedAt):
		title = "First review comment"
	default:
		title = "Review comment"
	}

	items = append(items, model.TimelineItem{
		ID:          c.ID,
		Type:        model.ItemReviewComment,
		Title:       title,
		Time:        c.CreatedAt,
		Actor:       c.Author,
		URL:         c.URL,
		Description: snippet(c.Body),
		ParentID:    parentID,
		IndentLevel: depth,
	})
	for _, child := range n.children {
		items = b.emitThread(child, depth+1, c.ID, tracker, items)
	}
	return items
}

// ensureID repairs a missing comment identifier with a synthetic one
// derived from the URL, or from the clock as a last resort.
func (b *Builder) ensureID(id, url string) string {
	if id != "" {
		return id
	}
	if url != "" {
		b.logger.Warn("review comment has no id, deriving one from its URL", "url", url)
		return url
	}
	b.logger.Warn("review comment has no id or URL, using a clock-derived id")
	return strconv.FormatInt(b.now().UnixNano(), 10)
}

// ensureTime repairs a missing timestamp with the current time.
func (b *Builder) ensureTime(t time.Time, what, url string) time.Time {
	if !t.IsZero() {
		return t
	}
	b.logger.Warn("entry has no timestamp, falling back to now", "entry", what, "url", url)
	return b.now()
}
