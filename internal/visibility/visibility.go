// Package visibility decides whether a viewer may see a piece of content.
//
// CanView is pure: it reads only its arguments, so callers may pass a
// cached or slightly stale edge status and accept eventual consistency.
package visibility

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"bridges/internal/follow"
	id "bridges/pkg/domain"
	dErrors "bridges/pkg/domain-errors"
)

var tracer = otel.Tracer("bridges/internal/visibility")

// Level is the audience a content owner selected.
type Level string

const (
	Public    Level = "public"
	Followers Level = "followers"
	Private   Level = "private"
)

// ParseLevel validates a client-supplied visibility.
func ParseLevel(s string) (Level, error) {
	switch Level(s) {
	case Public, Followers, Private:
		return Level(s), nil
	default:
		return "", dErrors.New(dErrors.CodeValidation, fmt.Sprintf("visibility must be one of public, followers, private; got %q", s))
	}
}

// Content is the slice of an item the resolver needs.
type Content struct {
	OwnerID    id.UserID
	Visibility Level
}

// Decision is the outcome of CanView.
type Decision bool

const (
	Allow Decision = true
	Deny  Decision = false
)

func (d Decision) String() string {
	if d {
		return "allow"
	}
	return "deny"
}

// CanView applies, in order: owner sees everything; public is visible to
// all; private is visible to no one else; followers requires an approved
// edge viewer → owner. A nil viewer is anonymous. ownerPrivate does not
// change the outcome for any visibility level; account privacy gates
// follow approval, not per-item visibility.
func CanView(viewer *id.UserID, content Content, ownerPrivate bool, edge *follow.Status) Decision {
	if viewer != nil && *viewer == content.OwnerID {
		return Allow
	}
	switch content.Visibility {
	case Public:
		return Allow
	case Private:
		return Deny
	case Followers:
		if viewer == nil {
			return Deny
		}
		return Decision(edge != nil && *edge == follow.StatusApproved)
	default:
		return Deny
	}
}

// PrivacyLookup reads the owner's privacy flag.
type PrivacyLookup interface {
	IsPrivate(ctx context.Context, userID id.UserID) (bool, error)
}

// EdgeLookup reads the status of follower → following, nil when absent.
type EdgeLookup interface {
	EdgeStatus(ctx context.Context, followerID, followingID id.UserID) (*follow.Status, error)
}

// Guard loads the inputs CanView needs and turns DENY into a
// CodeForbidden error.
type Guard struct {
	privacy PrivacyLookup
	edges   EdgeLookup
}

func NewGuard(privacy PrivacyLookup, edges EdgeLookup) *Guard {
	return &Guard{privacy: privacy, edges: edges}
}

// Authorize returns nil when viewer may see content. Edge state is only
// loaded when the outcome depends on it.
func (g *Guard) Authorize(ctx context.Context, viewer *id.UserID, content Content) error {
	ctx, span := tracer.Start(ctx, "visibility.Authorize")
	defer span.End()

	ownerPrivate, err := g.privacy.IsPrivate(ctx, content.OwnerID)
	if err != nil {
		return err
	}

	var edge *follow.Status
	if viewer != nil && *viewer != content.OwnerID && content.Visibility == Followers {
		edge, err = g.edges.EdgeStatus(ctx, *viewer, content.OwnerID)
		if err != nil {
			return err
		}
	}

	decision := CanView(viewer, content, ownerPrivate, edge)
	span.SetAttributes(attribute.String("decision", decision.String()))
	if decision == Deny {
		return dErrors.New(dErrors.CodeForbidden, "you do not have access to this content")
	}
	return nil
}
