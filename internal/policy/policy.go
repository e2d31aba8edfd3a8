// Package policy decides whether an actor may act on an intranet resource.
//
// Every check follows the same shape: role bypass first, then an ownership or
// membership lookup that fetches only the metadata needed for the decision.
// Checks are default-deny. A missing resource denies; a failed lookup denies
// and returns ErrLookupFailure so the caller can report a server error.
package policy

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"intranet/api/internal/rbac"
)

var (
	// ErrDenied is returned by Require. It never says why.
	ErrDenied        = errors.New("forbidden")
	ErrLookupFailure = errors.New("policy lookup failed")
	ErrInvalidInput  = errors.New("actor id and resource id are required")
	ErrUnsupported   = errors.New("unsupported policy check")
)

type Actor struct {
	ID   string
	Role rbac.Role
}

// NewActor normalizes the role so comparisons downstream are case-insensitive.
func NewActor(id, role string) Actor {
	return Actor{ID: strings.TrimSpace(id), Role: rbac.Normalize(role)}
}

func (a Actor) IsAdmin() bool      { return rbac.IsAdmin(a.Role) }
func (a Actor) IsPrivileged() bool { return rbac.IsPrivileged(a.Role) }

// ProjectAccess is the ownership slice of a project relevant to one user.
type ProjectAccess struct {
	ManagerID  string
	MemberRole string
	IsMember   bool
}

func (p ProjectAccess) managedBy(userID string) bool {
	if userID == "" {
		return false
	}
	if p.ManagerID == userID {
		return true
	}
	return p.IsMember && strings.EqualFold(strings.TrimSpace(p.MemberRole), "manager")
}

func (p ProjectAccess) hasMember(userID string) bool {
	return p.managedBy(userID) || (userID != "" && p.IsMember)
}

type TaskAccess struct {
	ProjectID  string
	Project    ProjectAccess
	IsAssignee bool
}

type MeetingAccess struct {
	CreatorID     string
	AccessMode    string
	IsParticipant bool
}

type BookingAccess struct {
	CreatorID string
	Status    string
}

// Lookup reads ownership metadata. found is false for absent or soft-deleted
// resources; err is reserved for persistence failures.
type Lookup interface {
	ProjectAccess(ctx context.Context, projectID, userID string) (access ProjectAccess, found bool, err error)
	TaskAccess(ctx context.Context, taskID, userID string) (access TaskAccess, found bool, err error)
	MeetingAccess(ctx context.Context, meetingID, userID string) (access MeetingAccess, found bool, err error)
	BookingAccess(ctx context.Context, bookingID string) (access BookingAccess, found bool, err error)
	ForumPostAuthor(ctx context.Context, postID string) (authorID string, found bool, err error)
	NewsArticleAuthor(ctx context.Context, articleID string) (authorID string, found bool, err error)
}

func validate(actor Actor, resourceID string) error {
	if actor.ID == "" || strings.TrimSpace(resourceID) == "" {
		return ErrInvalidInput
	}
	return nil
}

func validateActor(actor Actor) error {
	if actor.ID == "" {
		return ErrInvalidInput
	}
	return nil
}

func lookupFailure(resource, id string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrLookupFailure, resource, id, err)
}
