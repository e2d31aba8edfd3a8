package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"intranet/api/internal/email"
	"intranet/api/internal/policy"
	"intranet/api/internal/store"
	"intranet/api/internal/util"
)

type MeetingInput struct {
	Title        string    `json:"title" validate:"required,max=255"`
	Description  string    `json:"description" validate:"max=10000"`
	AccessMode   string    `json:"accessMode" validate:"omitempty,oneof=public private"`
	StartsAt     time.Time `json:"startsAt" validate:"required"`
	EndsAt       time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
	Participants []string  `json:"participants" validate:"omitempty,dive,required,max=64"`
}

type UpdateMeetingInput struct {
	Title       *string    `json:"title" validate:"omitempty,min=1,max=255"`
	Description *string    `json:"description" validate:"omitempty,max=10000"`
	AccessMode  *string    `json:"accessMode" validate:"omitempty,oneof=public private"`
	Status      *string    `json:"status" validate:"omitempty,oneof=scheduled cancelled completed"`
	StartsAt    *time.Time `json:"startsAt"`
	EndsAt      *time.Time `json:"endsAt"`
}

const meetingScheduled = "scheduled"

func (s *Service) CreateMeeting(ctx context.Context, actor policy.Actor, in MeetingInput) (store.Meeting, error) {
	if actor.ID == "" {
		return store.Meeting{}, policy.ErrInvalidInput
	}
	if err := validateInput(in); err != nil {
		return store.Meeting{}, err
	}
	mode := in.AccessMode
	if mode == "" {
		mode = "private"
	}
	meeting := store.Meeting{
		ID:           util.NewID(),
		CreatorID:    actor.ID,
		Title:        strings.TrimSpace(in.Title),
		Description:  in.Description,
		AccessMode:   mode,
		Status:       meetingScheduled,
		StartsAt:     in.StartsAt.UTC(),
		EndsAt:       in.EndsAt.UTC(),
		Participants: in.Participants,
	}
	if err := s.store.InsertMeeting(ctx, meeting); err != nil {
		return store.Meeting{}, err
	}
	created, err := s.store.GetMeeting(ctx, meeting.ID)
	if err != nil {
		return store.Meeting{}, missing("Meeting", err)
	}
	s.inviteParticipants(ctx, actor, created, created.Participants)
	return created, nil
}

func (s *Service) GetMeeting(ctx context.Context, actor policy.Actor, meetingID string) (store.Meeting, error) {
	if err := s.require(ctx, policy.KindMeeting, policy.View, actor, meetingID); err != nil {
		return store.Meeting{}, err
	}
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return store.Meeting{}, missing("Meeting", err)
	}
	return meeting, nil
}

// ListMeetings returns upcoming meetings the actor can see, starting at from.
func (s *Service) ListMeetings(ctx context.Context, actor policy.Actor, from time.Time) ([]store.Meeting, error) {
	if actor.ID == "" {
		return nil, policy.ErrInvalidInput
	}
	if from.IsZero() {
		from = s.now()
	}
	meetings, err := s.store.ListMeetings(ctx, actor.ID, actor.IsAdmin(), from)
	if err != nil {
		return nil, err
	}
	if meetings == nil {
		meetings = []store.Meeting{}
	}
	return meetings, nil
}

func (s *Service) UpdateMeeting(ctx context.Context, actor policy.Actor, meetingID string, in UpdateMeetingInput) (store.Meeting, error) {
	if err := s.require(ctx, policy.KindMeeting, policy.Edit, actor, meetingID); err != nil {
		return store.Meeting{}, err
	}
	if err := validateInput(in); err != nil {
		return store.Meeting{}, err
	}
	meeting, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return store.Meeting{}, missing("Meeting", err)
	}
	if in.Title != nil {
		meeting.Title = strings.TrimSpace(*in.Title)
	}
	if in.Description != nil {
		meeting.Description = *in.Description
	}
	if in.AccessMode != nil {
		meeting.AccessMode = *in.AccessMode
	}
	if in.Status != nil {
		meeting.Status = *in.Status
	}
	if in.StartsAt != nil {
		meeting.StartsAt = in.StartsAt.UTC()
	}
	if in.EndsAt != nil {
		meeting.EndsAt = in.EndsAt.UTC()
	}
	if !meeting.EndsAt.After(meeting.StartsAt) {
		return store.Meeting{}, validationError("Meeting must end after it starts", nil)
	}
	if err := s.store.UpdateMeeting(ctx, meeting); err != nil {
		return store.Meeting{}, err
	}
	return s.store.GetMeeting(ctx, meetingID)
}

func (s *Service) DeleteMeeting(ctx context.Context, actor policy.Actor, meetingID string) error {
	if err := s.require(ctx, policy.KindMeeting, policy.Delete, actor, meetingID); err != nil {
		return err
	}
	if _, err := s.store.GetMeeting(ctx, meetingID); err != nil {
		return missing("Meeting", err)
	}
	return s.store.DeleteMeeting(ctx, meetingID)
}

// SetParticipants replaces the invite list and emails only the newly added
// participants.
func (s *Service) SetParticipants(ctx context.Context, actor policy.Actor, meetingID string, userIDs []string) (store.Meeting, error) {
	if err := s.require(ctx, policy.KindMeeting, policy.Manage, actor, meetingID); err != nil {
		return store.Meeting{}, err
	}
	before, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return store.Meeting{}, missing("Meeting", err)
	}
	if err := s.store.SetMeetingParticipants(ctx, meetingID, userIDs); err != nil {
		return store.Meeting{}, err
	}
	after, err := s.store.GetMeeting(ctx, meetingID)
	if err != nil {
		return store.Meeting{}, missing("Meeting", err)
	}
	existing := make(map[string]bool, len(before.Participants))
	for _, id := range before.Participants {
		existing[id] = true
	}
	var added []string
	for _, id := range after.Participants {
		if !existing[id] {
			added = append(added, id)
		}
	}
	s.inviteParticipants(ctx, actor, after, added)
	return after, nil
}

func (s *Service) inviteParticipants(ctx context.Context, actor policy.Actor, meeting store.Meeting, userIDs []string) {
	if s.mailer == nil || !s.mailer.IsConfigured() || len(userIDs) == 0 {
		return
	}
	users, err := s.store.ListUsersByIDs(ctx, userIDs)
	if err != nil {
		s.logger.Warn("load meeting invitees", zap.String("meeting_id", meeting.ID), zap.Error(err))
		return
	}
	var to []string
	for _, u := range users {
		if u.ID != actor.ID && u.Email != "" && u.IsActive {
			to = append(to, u.Email)
		}
	}
	if len(to) == 0 {
		return
	}
	organizer := actor.ID
	if u, err := s.store.GetUserByID(ctx, actor.ID); err == nil {
		organizer = u.DisplayName
	}
	data := email.MeetingInviteData{
		Title:     meeting.Title,
		Organizer: organizer,
		StartsAt:  meeting.StartsAt,
		EndsAt:    meeting.EndsAt,
	}
	s.notify("send meeting invite", func() error { return s.mailer.SendMeetingInvite(to, data) })
}

type BookingInput struct {
	Resource string    `json:"resource" validate:"required,max=255"`
	Purpose  string    `json:"purpose" validate:"max=2000"`
	StartsAt time.Time `json:"startsAt" validate:"required"`
	EndsAt   time.Time `json:"endsAt" validate:"required,gtfield=StartsAt"`
}

type UpdateBookingInput struct {
	Resource *string    `json:"resource" validate:"omitempty,min=1,max=255"`
	Purpose  *string    `json:"purpose" validate:"omitempty,max=2000"`
	StartsAt *time.Time `json:"startsAt"`
	EndsAt   *time.Time `json:"endsAt"`
}

func bookingConflict() *DomainError {
	return domainError(http.StatusConflict, "BOOKING_CONFLICT", "The resource is already booked for that time", nil)
}

// CreateBooking files a pending request. Requests overlapping an approved
// booking of the same resource are refused up front.
func (s *Service) CreateBooking(ctx context.Context, actor policy.Actor, in BookingInput) (store.Booking, error) {
	if actor.ID == "" {
		return store.Booking{}, policy.ErrInvalidInput
	}
	if err := validateInput(in); err != nil {
		return store.Booking{}, err
	}
	booking := store.Booking{
		ID:        util.NewID(),
		CreatorID: actor.ID,
		Resource:  strings.TrimSpace(in.Resource),
		Purpose:   in.Purpose,
		Status:    store.BookingPending,
		StartsAt:  in.StartsAt.UTC(),
		EndsAt:    in.EndsAt.UTC(),
	}
	overlaps, err := s.store.CountApprovedOverlaps(ctx, booking.Resource, booking.StartsAt, booking.EndsAt, "")
	if err != nil {
		return store.Booking{}, err
	}
	if overlaps > 0 {
		return store.Booking{}, bookingConflict()
	}
	if err := s.store.InsertBooking(ctx, booking); err != nil {
		return store.Booking{}, err
	}
	return s.getBooking(ctx, booking.ID)
}

func (s *Service) GetBooking(ctx context.Context, actor policy.Actor, bookingID string) (store.Booking, error) {
	if err := s.require(ctx, policy.KindBooking, policy.View, actor, bookingID); err != nil {
		return store.Booking{}, err
	}
	return s.getBooking(ctx, bookingID)
}

func (s *Service) getBooking(ctx context.Context, bookingID string) (store.Booking, error) {
	booking, err := s.store.GetBooking(ctx, bookingID)
	if err != nil {
		return store.Booking{}, missing("Booking", err)
	}
	return booking, nil
}

// ListBookings shows approvers every booking and everyone else their own.
func (s *Service) ListBookings(ctx context.Context, actor policy.Actor) ([]store.Booking, error) {
	if actor.ID == "" {
		return nil, policy.ErrInvalidInput
	}
	creator := actor.ID
	if actor.IsPrivileged() {
		creator = ""
	}
	bookings, err := s.store.ListBookings(ctx, creator)
	if err != nil {
		return nil, err
	}
	if bookings == nil {
		bookings = []store.Booking{}
	}
	return bookings, nil
}

func (s *Service) UpdateBooking(ctx context.Context, actor policy.Actor, bookingID string, in UpdateBookingInput) (store.Booking, error) {
	if err := s.require(ctx, policy.KindBooking, policy.Edit, actor, bookingID); err != nil {
		return store.Booking{}, err
	}
	if err := validateInput(in); err != nil {
		return store.Booking{}, err
	}
	err := s.store.WithTx(ctx, func(r repo) error {
		booking, err := lockBooking(ctx, r, bookingID)
		if err != nil {
			return err
		}
		if in.Resource != nil {
			booking.Resource = strings.TrimSpace(*in.Resource)
		}
		if in.Purpose != nil {
			booking.Purpose = *in.Purpose
		}
		if in.StartsAt != nil {
			booking.StartsAt = in.StartsAt.UTC()
		}
		if in.EndsAt != nil {
			booking.EndsAt = in.EndsAt.UTC()
		}
		if !booking.EndsAt.After(booking.StartsAt) {
			return validationError("Booking must end after it starts", nil)
		}
		if err := r.LockBookingResource(ctx, booking.Resource); err != nil {
			return err
		}
		overlaps, err := r.CountApprovedOverlaps(ctx, booking.Resource, booking.StartsAt, booking.EndsAt, booking.ID)
		if err != nil {
			return err
		}
		if overlaps > 0 {
			return bookingConflict()
		}
		return r.UpdateBooking(ctx, booking)
	})
	if err != nil {
		return store.Booking{}, err
	}
	return s.getBooking(ctx, bookingID)
}

// lockBooking locks the booking's current resource and returns the booking
// as read under that lock.
func lockBooking(ctx context.Context, r repo, bookingID string) (store.Booking, error) {
	booking, err := r.GetBooking(ctx, bookingID)
	if err != nil {
		return store.Booking{}, missing("Booking", err)
	}
	if err := r.LockBookingResource(ctx, booking.Resource); err != nil {
		return store.Booking{}, err
	}
	locked, err := r.GetBooking(ctx, bookingID)
	if err != nil {
		return store.Booking{}, missing("Booking", err)
	}
	if locked.Resource != booking.Resource {
		if err := r.LockBookingResource(ctx, locked.Resource); err != nil {
			return store.Booking{}, err
		}
	}
	return locked, nil
}

func (s *Service) CancelBooking(ctx context.Context, actor policy.Actor, bookingID string) error {
	if err := s.require(ctx, policy.KindBooking, policy.Delete, actor, bookingID); err != nil {
		return err
	}
	if _, err := s.getBooking(ctx, bookingID); err != nil {
		return err
	}
	return s.store.DeleteBooking(ctx, bookingID)
}

// ApproveBooking re-checks overlaps under the resource lock, so two pending
// requests for the same slot cannot both be approved even when approved
// concurrently.
func (s *Service) ApproveBooking(ctx context.Context, actor policy.Actor, bookingID string) (store.Booking, error) {
	return s.decideBooking(ctx, actor, bookingID, store.BookingApproved)
}

func (s *Service) RejectBooking(ctx context.Context, actor policy.Actor, bookingID string) (store.Booking, error) {
	return s.decideBooking(ctx, actor, bookingID, store.BookingRejected)
}

func (s *Service) decideBooking(ctx context.Context, actor policy.Actor, bookingID, status string) (store.Booking, error) {
	if err := s.require(ctx, policy.KindBooking, policy.Approve, actor, bookingID); err != nil {
		return store.Booking{}, err
	}
	var decided store.Booking
	err := s.store.WithTx(ctx, func(r repo) error {
		booking, err := lockBooking(ctx, r, bookingID)
		if err != nil {
			return err
		}
		if !strings.EqualFold(booking.Status, store.BookingPending) {
			return domainError(http.StatusConflict, "INVALID_STATE", "Only pending bookings can be decided", map[string]string{"status": booking.Status})
		}
		if status == store.BookingApproved {
			overlaps, err := r.CountApprovedOverlaps(ctx, booking.Resource, booking.StartsAt, booking.EndsAt, booking.ID)
			if err != nil {
				return err
			}
			if overlaps > 0 {
				return bookingConflict()
			}
		}
		decidedBy := actor.ID
		if err := r.SetBookingStatus(ctx, bookingID, status, &decidedBy); err != nil {
			return err
		}
		booking.Status = status
		booking.ApprovedBy = &decidedBy
		decided = booking
		return nil
	})
	if err != nil {
		return store.Booking{}, err
	}
	s.notifyBookingDecision(ctx, decided)
	return decided, nil
}

func (s *Service) notifyBookingDecision(ctx context.Context, booking store.Booking) {
	if s.mailer == nil || !s.mailer.IsConfigured() {
		return
	}
	creator, err := s.store.GetUserByID(ctx, booking.CreatorID)
	if err != nil || creator.Email == "" {
		return
	}
	data := email.BookingDecisionData{
		Resource: booking.Resource,
		Status:   booking.Status,
		StartsAt: booking.StartsAt,
		EndsAt:   booking.EndsAt,
	}
	s.notify("send booking decision", func() error { return s.mailer.SendBookingDecision(creator.Email, data) })
}
