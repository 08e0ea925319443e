package follow

import (
	"time"

	id "bridges/pkg/domain"
)

// Status is the lifecycle state of a follow edge.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
)

// Edge is a directed follow relationship FollowerID → FollowingID. At most
// one exists per ordered pair.
type Edge struct {
	FollowerID  id.UserID  `json:"followerId"`
	FollowingID id.UserID  `json:"followingId"`
	Status      Status     `json:"status"`
	CreatedAt   time.Time  `json:"createdAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
}

// IsApproved reports whether the edge currently grants follower access.
func (e *Edge) IsApproved() bool {
	return e != nil && e.Status == StatusApproved
}

// FollowStatus is what a viewer sees about their own edge to a target.
type FollowStatus struct {
	IsFollowing bool    `json:"isFollowing"`
	Status      *Status `json:"status"`
}

// StatusOf returns the status pointer used by visibility checks, nil when
// no edge exists.
func StatusOf(e *Edge) *Status {
	if e == nil {
		return nil
	}
	s := e.Status
	return &s
}
