package store

import (
	"context"
	"fmt"
)

func (c conn) InsertChatRoom(ctx context.Context, room ChatRoom, memberIDs []string) error {
	err := c.exec(ctx, `INSERT INTO chat_rooms (id, name, created_by, created_at) VALUES (?, ?, ?, ?)`,
		room.ID, room.Name, room.CreatedBy, now())
	if err != nil {
		return fmt.Errorf("insert chat room: %w", err)
	}
	for _, userID := range dedupe(append([]string{room.CreatedBy}, memberIDs...)) {
		if err := c.exec(ctx, `INSERT INTO chat_room_members (room_id, user_id) VALUES (?, ?)`, room.ID, userID); err != nil {
			return fmt.Errorf("insert chat room member: %w", err)
		}
	}
	return nil
}

func (c conn) GetChatRoom(ctx context.Context, id string) (ChatRoom, error) {
	var room ChatRoom
	if err := c.get(ctx, &room, `SELECT id, name, created_by, created_at FROM chat_rooms WHERE id = ?`, id); err != nil {
		return ChatRoom{}, fmt.Errorf("get chat room %s: %w", id, err)
	}
	return room, nil
}

func (c conn) IsChatRoomMember(ctx context.Context, roomID, userID string) (bool, error) {
	var n int
	err := c.get(ctx, &n, `SELECT COUNT(*) FROM chat_room_members WHERE room_id = ? AND user_id = ?`, roomID, userID)
	if err != nil {
		return false, fmt.Errorf("check chat room member: %w", err)
	}
	return n > 0, nil
}

func (c conn) InsertChatMessage(ctx context.Context, msg ChatMessage) error {
	err := c.exec(ctx, `INSERT INTO chat_messages (id, room_id, sender_id, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		msg.ID, msg.RoomID, msg.SenderID, msg.Body, msg.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert chat message: %w", err)
	}
	return nil
}

// ListChatMessages returns the newest messages of a room, oldest first.
func (c conn) ListChatMessages(ctx context.Context, roomID string, limit int) ([]ChatMessage, error) {
	messages := []ChatMessage{}
	err := c.selectAll(ctx, &messages, `
		SELECT id, room_id, sender_id, body, created_at FROM chat_messages
		WHERE room_id = ? ORDER BY created_at DESC, id DESC LIMIT ?`, roomID, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list chat messages: %w", err)
	}
	for i, j := 0, len(messages)-1; i < j; i, j = i+1, j-1 {
		messages[i], messages[j] = messages[j], messages[i]
	}
	return messages, nil
}
