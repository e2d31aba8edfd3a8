package store

import (
	"context"
	"fmt"
	"time"
)

const meetingColumns = `id, creator_id, title, description, access_mode, status, starts_at, ends_at, created_at`

func (c conn) InsertMeeting(ctx context.Context, m Meeting) error {
	err := c.exec(ctx, `
		INSERT INTO meetings (id, creator_id, title, description, access_mode, status, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.CreatorID, m.Title, m.Description, m.AccessMode, m.Status, m.StartsAt, m.EndsAt, now(),
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return c.SetMeetingParticipants(ctx, m.ID, m.Participants)
}

func (c conn) GetMeeting(ctx context.Context, id string) (Meeting, error) {
	var m Meeting
	if err := c.get(ctx, &m, `SELECT `+meetingColumns+` FROM meetings WHERE id = ?`, id); err != nil {
		return Meeting{}, fmt.Errorf("get meeting %s: %w", id, err)
	}
	participants, err := c.meetingParticipants(ctx, id)
	if err != nil {
		return Meeting{}, err
	}
	m.Participants = participants
	return m, nil
}

// ListMeetings returns every meeting when all is set, otherwise the meetings
// userID can see: created, public, or invited.
func (c conn) ListMeetings(ctx context.Context, userID string, all bool, from time.Time) ([]Meeting, error) {
	var (
		meetings []Meeting
		err      error
	)
	if all {
		err = c.selectAll(ctx, &meetings, `
			SELECT `+meetingColumns+` FROM meetings WHERE ends_at >= ? ORDER BY starts_at`, from)
	} else {
		err = c.selectAll(ctx, &meetings, `
			SELECT `+meetingColumns+` FROM meetings
			WHERE ends_at >= ?
			  AND (creator_id = ? OR LOWER(access_mode) = 'public'
			       OR id IN (SELECT meeting_id FROM meeting_participants WHERE user_id = ?))
			ORDER BY starts_at`, from, userID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	return meetings, nil
}

func (c conn) UpdateMeeting(ctx context.Context, m Meeting) error {
	err := c.exec(ctx, `
		UPDATE meetings SET title = ?, description = ?, access_mode = ?, status = ?, starts_at = ?, ends_at = ?
		WHERE id = ?`, m.Title, m.Description, m.AccessMode, m.Status, m.StartsAt, m.EndsAt, m.ID)
	if err != nil {
		return fmt.Errorf("update meeting %s: %w", m.ID, err)
	}
	return nil
}

func (c conn) DeleteMeeting(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM meetings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete meeting %s: %w", id, err)
	}
	return nil
}

func (c conn) SetMeetingParticipants(ctx context.Context, meetingID string, userIDs []string) error {
	if err := c.exec(ctx, `DELETE FROM meeting_participants WHERE meeting_id = ?`, meetingID); err != nil {
		return fmt.Errorf("clear meeting participants: %w", err)
	}
	for _, userID := range dedupe(userIDs) {
		err := c.exec(ctx, `INSERT INTO meeting_participants (meeting_id, user_id) VALUES (?, ?)`, meetingID, userID)
		if err != nil {
			return fmt.Errorf("insert meeting participant: %w", err)
		}
	}
	return nil
}

func (c conn) meetingParticipants(ctx context.Context, meetingID string) ([]string, error) {
	ids := []string{}
	err := c.selectAll(ctx, &ids, `SELECT user_id FROM meeting_participants WHERE meeting_id = ? ORDER BY user_id`, meetingID)
	if err != nil {
		return nil, fmt.Errorf("list meeting participants: %w", err)
	}
	return ids, nil
}
