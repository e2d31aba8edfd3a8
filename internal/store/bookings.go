package store

import (
	"context"
	"fmt"
	"time"
)

const bookingColumns = `id, creator_id, resource, purpose, status, starts_at, ends_at, approved_by, created_at`

func (c conn) InsertBooking(ctx context.Context, b Booking) error {
	err := c.exec(ctx, `
		INSERT INTO bookings (id, creator_id, resource, purpose, status, starts_at, ends_at, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.CreatorID, b.Resource, b.Purpose, b.Status, b.StartsAt, b.EndsAt, now(),
	)
	if err != nil {
		return fmt.Errorf("insert booking: %w", err)
	}
	return nil
}

func (c conn) GetBooking(ctx context.Context, id string) (Booking, error) {
	var b Booking
	if err := c.get(ctx, &b, `SELECT `+bookingColumns+` FROM bookings WHERE id = ?`, id); err != nil {
		return Booking{}, fmt.Errorf("get booking %s: %w", id, err)
	}
	return b, nil
}

// ListBookings returns all bookings when creatorID is empty.
func (c conn) ListBookings(ctx context.Context, creatorID string) ([]Booking, error) {
	var (
		bookings []Booking
		err      error
	)
	if creatorID == "" {
		err = c.selectAll(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings ORDER BY starts_at DESC`)
	} else {
		err = c.selectAll(ctx, &bookings, `SELECT `+bookingColumns+` FROM bookings WHERE creator_id = ? ORDER BY starts_at DESC`, creatorID)
	}
	if err != nil {
		return nil, fmt.Errorf("list bookings: %w", err)
	}
	return bookings, nil
}

func (c conn) UpdateBooking(ctx context.Context, b Booking) error {
	err := c.exec(ctx, `
		UPDATE bookings SET resource = ?, purpose = ?, starts_at = ?, ends_at = ?
		WHERE id = ?`, b.Resource, b.Purpose, b.StartsAt, b.EndsAt, b.ID)
	if err != nil {
		return fmt.Errorf("update booking %s: %w", b.ID, err)
	}
	return nil
}

func (c conn) SetBookingStatus(ctx context.Context, id, status string, decidedBy *string) error {
	err := c.exec(ctx, `UPDATE bookings SET status = ?, approved_by = ? WHERE id = ?`, status, decidedBy, id)
	if err != nil {
		return fmt.Errorf("set booking status %s: %w", id, err)
	}
	return nil
}

func (c conn) DeleteBooking(ctx context.Context, id string) error {
	if err := c.exec(ctx, `DELETE FROM bookings WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete booking %s: %w", id, err)
	}
	return nil
}

// CountApprovedOverlaps counts approved bookings of resource overlapping
// [start, end), ignoring excludeID.
func (c conn) CountApprovedOverlaps(ctx context.Context, resource string, start, end time.Time, excludeID string) (int, error) {
	var n int
	err := c.get(ctx, &n, `
		SELECT COUNT(*) FROM bookings
		WHERE resource = ? AND LOWER(status) = 'approved' AND id <> ?
		  AND starts_at < ? AND ends_at > ?`, resource, excludeID, end, start)
	if err != nil {
		return 0, fmt.Errorf("count booking overlaps: %w", err)
	}
	return n, nil
}

// LockBookingResource holds a row lock on the resource sentinel until the
// transaction ends. Approvals and edits that re-check overlaps take it first,
// so their overlap counts and status writes for one resource are serialized.
func (c conn) LockBookingResource(ctx context.Context, resource string) error {
	insert := `INSERT INTO booking_resource_locks (resource, created_at) VALUES (?, ?) ON CONFLICT (resource) DO NOTHING`
	if c.ext.DriverName() == string(DialectMySQL) {
		insert = `INSERT IGNORE INTO booking_resource_locks (resource, created_at) VALUES (?, ?)`
	}
	if err := c.exec(ctx, insert, resource, now()); err != nil {
		return fmt.Errorf("ensure booking lock %s: %w", resource, err)
	}
	var locked string
	if err := c.get(ctx, &locked, `SELECT resource FROM booking_resource_locks WHERE resource = ? FOR UPDATE`, resource); err != nil {
		return fmt.Errorf("lock booking resource %s: %w", resource, err)
	}
	return nil
}
