package model

// Derived PR statuses.
const (
	StatusMerged  = "Merged"
	StatusDraft   = "Draft"
	StatusClosed  = "Closed"
	StatusOpen    = "Open"
	StatusUnknown = "Unknown"
)

// DeriveStatus maps a snapshot to its display status. Merged wins over
// draft, draft over raw state; unrecognized raw states pass through
// verbatim.
func DeriveStatus(pr PullRequestSnapshot) string {
	switch {
	case pr.MergedAt != nil:
		return StatusMerged
	case pr.Draft:
		return StatusDraft
	case pr.State == "closed":
		return StatusClosed
	case pr.State == "open":
		return StatusOpen
	case pr.State != "":
		return pr.State
	default:
		return StatusUnknown
	}
}
