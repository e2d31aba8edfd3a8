package policy

import (
	"context"
	"strings"
)

const BookingStatusPending = "pending"

type BookingPolicy struct {
	lookup Lookup
}

func NewBookingPolicy(lookup Lookup) BookingPolicy {
	return BookingPolicy{lookup: lookup}
}

func (p BookingPolicy) CanView(ctx context.Context, actor Actor, bookingID string) (bool, error) {
	if err := validate(actor, bookingID); err != nil {
		return false, err
	}
	if actor.IsPrivileged() {
		return true, nil
	}
	access, found, err := p.load(ctx, bookingID)
	if err != nil || !found {
		return false, err
	}
	return access.CreatorID == actor.ID, nil
}

// CanEdit lets the creator edit only while the booking is still pending.
// Status is compared case-insensitively.
func (p BookingPolicy) CanEdit(ctx context.Context, actor Actor, bookingID string) (bool, error) {
	if err := validate(actor, bookingID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, bookingID)
	if err != nil || !found {
		return false, err
	}
	return access.CreatorID == actor.ID && strings.EqualFold(strings.TrimSpace(access.Status), BookingStatusPending), nil
}

func (p BookingPolicy) CanDelete(ctx context.Context, actor Actor, bookingID string) (bool, error) {
	if err := validate(actor, bookingID); err != nil {
		return false, err
	}
	if actor.IsAdmin() {
		return true, nil
	}
	access, found, err := p.load(ctx, bookingID)
	if err != nil || !found {
		return false, err
	}
	return access.CreatorID == actor.ID, nil
}

func (p BookingPolicy) CanApprove(_ context.Context, actor Actor, bookingID string) (bool, error) {
	if err := validate(actor, bookingID); err != nil {
		return false, err
	}
	return actor.IsPrivileged(), nil
}

func (p BookingPolicy) load(ctx context.Context, bookingID string) (BookingAccess, bool, error) {
	access, found, err := p.lookup.BookingAccess(ctx, bookingID)
	if err != nil {
		return BookingAccess{}, false, lookupFailure("booking", bookingID, err)
	}
	return access, found, nil
}
