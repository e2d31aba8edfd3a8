package policy

import (
	"context"
	"fmt"
)

type Kind string

const (
	KindProject     Kind = "project"
	KindTask        Kind = "task"
	KindMeeting     Kind = "meeting"
	KindBooking     Kind = "booking"
	KindForumPost   Kind = "forum_post"
	KindNewsArticle Kind = "news_article"
)

type Capability string

const (
	View     Capability = "view"
	Edit     Capability = "edit"
	Delete   Capability = "delete"
	Manage   Capability = "manage"
	Create   Capability = "create"
	Approve  Capability = "approve"
	Moderate Capability = "moderate"
)

// Observer is notified after every decision. Used for metrics.
type Observer func(kind Kind, capability Capability, allowed bool, err error)

type Engine struct {
	Projects ProjectPolicy
	Tasks    TaskPolicy
	Meetings MeetingPolicy
	Bookings BookingPolicy
	Forum    ForumPolicy
	News     NewsPolicy

	observe Observer
}

func NewEngine(lookup Lookup) *Engine {
	return &Engine{
		Projects: NewProjectPolicy(lookup),
		Tasks:    NewTaskPolicy(lookup),
		Meetings: NewMeetingPolicy(lookup),
		Bookings: NewBookingPolicy(lookup),
		Forum:    NewForumPolicy(lookup),
		News:     NewNewsPolicy(lookup),
	}
}

func (e *Engine) WithObserver(observe Observer) *Engine {
	e.observe = observe
	return e
}

func (e *Engine) Check(ctx context.Context, kind Kind, capability Capability, actor Actor, resourceID string) (bool, error) {
	allowed, err := e.dispatch(ctx, kind, capability, actor, resourceID)
	if err != nil {
		allowed = false
	}
	if e.observe != nil {
		e.observe(kind, capability, allowed, err)
	}
	return allowed, err
}

// Require is Check collapsed to an error: nil when permitted, ErrDenied when
// not, or the lookup/precondition error.
func (e *Engine) Require(ctx context.Context, kind Kind, capability Capability, actor Actor, resourceID string) error {
	allowed, err := e.Check(ctx, kind, capability, actor, resourceID)
	if err != nil {
		return err
	}
	if !allowed {
		return ErrDenied
	}
	return nil
}

func (e *Engine) dispatch(ctx context.Context, kind Kind, capability Capability, actor Actor, id string) (bool, error) {
	switch kind {
	case KindProject:
		switch capability {
		case View:
			return e.Projects.CanView(ctx, actor, id)
		case Edit:
			return e.Projects.CanEdit(ctx, actor, id)
		case Delete:
			return e.Projects.CanDelete(ctx, actor, id)
		case Manage:
			return e.Projects.CanManage(ctx, actor, id)
		}
	case KindTask:
		switch capability {
		case View:
			return e.Tasks.CanView(ctx, actor, id)
		case Edit:
			return e.Tasks.CanEdit(ctx, actor, id)
		case Delete:
			return e.Tasks.CanDelete(ctx, actor, id)
		case Create:
			return e.Tasks.CanCreate(ctx, actor, id)
		}
	case KindMeeting:
		switch capability {
		case View:
			return e.Meetings.CanView(ctx, actor, id)
		case Edit:
			return e.Meetings.CanEdit(ctx, actor, id)
		case Delete:
			return e.Meetings.CanDelete(ctx, actor, id)
		case Manage:
			return e.Meetings.CanManage(ctx, actor, id)
		}
	case KindBooking:
		switch capability {
		case View:
			return e.Bookings.CanView(ctx, actor, id)
		case Edit:
			return e.Bookings.CanEdit(ctx, actor, id)
		case Delete:
			return e.Bookings.CanDelete(ctx, actor, id)
		case Approve:
			return e.Bookings.CanApprove(ctx, actor, id)
		}
	case KindForumPost:
		switch capability {
		case Edit:
			return e.Forum.CanEdit(ctx, actor, id)
		case Delete:
			return e.Forum.CanDelete(ctx, actor, id)
		case Moderate:
			return e.Forum.CanModerate(ctx, actor, id)
		}
	case KindNewsArticle:
		switch capability {
		case Edit:
			return e.News.CanEdit(ctx, actor, id)
		case Delete:
			return e.News.CanDelete(ctx, actor, id)
		case Create:
			return e.News.CanCreate(ctx, actor, id)
		}
	}
	return false, fmt.Errorf("%w: %s on %s", ErrUnsupported, capability, kind)
}
