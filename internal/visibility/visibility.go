// Package visibility decides whether a viewer may see a record governed by
// the three-tier privacy model (public / private / supporters).
package visibility

import (
	"github.com/google/uuid"

	"goalmateAPI/internal/types/goal"
)

// Visible reports whether a record owned by ownerID with the given
// visibility tier is visible to viewerID. A nil viewerID is an anonymous
// viewer. viewerSupportsOwner is the support-edge input computed by the
// caller: for detail views it is "viewer supports owner"; list views feed
// "owner has at least one supporter" when the viewer is anonymous, which
// is where the intentional list/detail asymmetry lives.
//
// Total and deterministic; never fails.
func Visible(vis goal.Visibility, ownerID uuid.UUID, viewerID *uuid.UUID, viewerSupportsOwner bool) bool {
	switch vis {
	case goal.VisibilityPublic:
		return true
	case goal.VisibilitySupporters:
		if viewerSupportsOwner {
			return true
		}
		return viewerID != nil && *viewerID == ownerID
	case goal.VisibilityPrivate:
		return viewerID != nil && *viewerID == ownerID
	}
	return false
}
