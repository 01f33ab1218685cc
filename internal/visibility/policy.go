// Package visibility decides which job postings a candidate may see.
package visibility

import (
	"github.com/spigell/placement-engine/internal/types"
)

var transitions = map[types.PostingStatus][]types.PostingStatus{
	types.StatusPending:  {types.StatusApproved, types.StatusActive, types.StatusRejected},
	types.StatusApproved: {types.StatusClosed},
	types.StatusActive:   {types.StatusClosed},
}

// CanTransition reports whether the approval workflow allows moving a posting
// from one status to another. The engine itself never moves postings.
func CanTransition(from, to types.PostingStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no transition leaves the status.
func IsTerminal(status types.PostingStatus) bool {
	return status == types.StatusRejected || status == types.StatusClosed
}

// Admissible reports whether a posting may enter the catalog with the status:
// pending, or a non-terminal status one step after pending.
func Admissible(status types.PostingStatus) bool {
	if status == types.StatusPending {
		return true
	}
	return CanTransition(types.StatusPending, status) && !IsTerminal(status)
}

// Visible reports whether the candidate may see the posting.
//
// Approved and active postings are visible to everyone when untenanted and to
// the owning tenant otherwise. Pending postings are visible only to candidates
// of the tenant that has to approve them. Poster trust is advisory and never
// hides a posting.
func Visible(candidate *types.Candidate, posting *types.JobPosting) bool {
	if candidate == nil || posting == nil {
		return false
	}

	switch posting.Status {
	case types.StatusApproved, types.StatusActive:
		return posting.TenantID == "" || posting.TenantID == candidate.TenantID
	case types.StatusPending:
		return posting.TenantID != "" && posting.TenantID == candidate.TenantID
	default:
		return false
	}
}

// Filter returns the postings visible to the candidate, preserving order.
func Filter(candidate *types.Candidate, postings []types.JobPosting) []types.JobPosting {
	visible := make([]types.JobPosting, 0, len(postings))
	for i := range postings {
		if Visible(candidate, &postings[i]) {
			visible = append(visible, postings[i])
		}
	}
	return visible
}
