package policy

import (
	"context"
	"strings"
)

const AccessModePublic = "public"

type MeetingPolicy struct {
	lookup Lookup
}

func NewMeetingPolicy(lookup Lookup) MeetingPolicy {
	return MeetingPolicy{lookup: lookup}
}

func (p MeetingPolicy) CanView(ctx context.Context, actor Actor, meetingID string) (bool, error) {
	if err := validate(actor, meetingID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, meetingID)
	if err != nil || !found {
		return false, err
	}
	if access.CreatorID == actor.ID {
		return true, nil
	}
	if strings.EqualFold(strings.TrimSpace(access.AccessMode), AccessModePublic) {
		return true, nil
	}
	return access.IsParticipant, nil
}

func (p MeetingPolicy) CanEdit(ctx context.Context, actor Actor, meetingID string) (bool, error) {
	if err := validate(actor, meetingID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, actor, meetingID)
	if err != nil || !found {
		return false, err
	}
	return access.CreatorID == actor.ID, nil
}

func (p MeetingPolicy) CanDelete(ctx context.Context, actor Actor, meetingID string) (bool, error) {
	return p.CanEdit(ctx, actor, meetingID)
}

// CanManage gates participant changes.
func (p MeetingPolicy) CanManage(ctx context.Context, actor Actor, meetingID string) (bool, error) {
	return p.CanEdit(ctx, actor, meetingID)
}

func (p MeetingPolicy) load(ctx context.Context, actor Actor, meetingID string) (MeetingAccess, bool, error) {
	access, found, err := p.lookup.MeetingAccess(ctx, meetingID, actor.ID)
	if err != nil {
		return MeetingAccess{}, false, lookupFailure("meeting", meetingID, err)
	}
	return access, found, nil
}
