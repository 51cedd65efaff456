// Package commits selects the canonical first work commit of a PR.
package commits

import (
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"

	"github.com/reillywatson/prpulse/internal/model"
)

// WorkStartedMarker is the conventional message prefix an upstream
// automation puts on the commit that opens a piece of work. When present
// it is the authoritative "work began" signal regardless of chronology
// among other commits.
const WorkStartedMarker = "work has started on the"

// SelectFirstCommit picks the commit that best represents the start of
// work: the earliest marker commit if any, else the earliest non-merge
// commit, else the earliest commit outright. Returns nil for an empty
// list. marker overrides WorkStartedMarker when non-empty; a missing
// marker commit is logged as a warning because it signals an upstream
// process gap, not an error.
func SelectFirstCommit(commits []model.Commit, marker string, logger hclog.Logger) *model.Commit {
	if len(commits) == 0 {
		return nil
	}
	if marker == "" {
		marker = WorkStartedMarker
	}
	marker = strings.ToLower(marker)
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	sorted := make([]model.Commit, len(commits))
	copy(sorted, commits)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].CommitterDate.Before(sorted[j].CommitterDate)
	})

	var nonMerge []model.Commit
	for _, c := range sorted {
		if !c.IsMerge() {
			nonMerge = append(nonMerge, c)
		}
	}

	for _, c := range nonMerge {
		if strings.HasPrefix(strings.ToLower(c.Message), marker) {
			return &c
		}
	}

	logger.Warn("no work-started commit found, falling back to earliest commit", "marker", marker)

	if len(nonMerge) > 0 {
		return &nonMerge[0]
	}

	// Only merge commits exist; the earliest one is the best anchor left.
	return &sorted[0]
}
