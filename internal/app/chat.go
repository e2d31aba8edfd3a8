package app

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"intranet/api/internal/policy"
	"intranet/api/internal/store"
	"intranet/api/internal/util"
)

type ChatRoomInput struct {
	Name      string   `json:"name" validate:"required,max=255"`
	MemberIDs []string `json:"memberIds" validate:"omitempty,dive,required,max=64"`
}

type ChatMessageInput struct {
	Body string `json:"body" validate:"required,max=4000"`
}

func (s *Service) CreateChatRoom(ctx context.Context, actor policy.Actor, in ChatRoomInput) (store.ChatRoom, error) {
	if actor.ID == "" {
		return store.ChatRoom{}, policy.ErrInvalidInput
	}
	if err := validateInput(in); err != nil {
		return store.ChatRoom{}, err
	}
	room := store.ChatRoom{
		ID:        util.NewID(),
		Name:      strings.TrimSpace(in.Name),
		CreatedBy: actor.ID,
	}
	if err := s.store.InsertChatRoom(ctx, room, in.MemberIDs); err != nil {
		return store.ChatRoom{}, err
	}
	created, err := s.store.GetChatRoom(ctx, room.ID)
	if err != nil {
		return store.ChatRoom{}, missing("Chat room", err)
	}
	return created, nil
}

// requireRoomMember reports a missing room as 404 and a non-member as a
// generic denial.
func (s *Service) requireRoomMember(ctx context.Context, actor policy.Actor, roomID string) error {
	if actor.ID == "" || roomID == "" {
		return policy.ErrInvalidInput
	}
	if _, err := s.store.GetChatRoom(ctx, roomID); err != nil {
		return missing("Chat room", err)
	}
	member, err := s.store.IsChatRoomMember(ctx, roomID, actor.ID)
	if err != nil {
		return err
	}
	if !member {
		return policy.ErrDenied
	}
	return nil
}

// PostChatMessage stores the message and fans it out to other instances.
// A failed publish is logged; the message is already durable.
func (s *Service) PostChatMessage(ctx context.Context, actor policy.Actor, roomID string, in ChatMessageInput) (store.ChatMessage, error) {
	if err := s.requireRoomMember(ctx, actor, roomID); err != nil {
		return store.ChatMessage{}, err
	}
	if err := validateInput(in); err != nil {
		return store.ChatMessage{}, err
	}
	if s.chatLimit != nil && !s.chatLimit.Allow(actor.ID) {
		if s.metrics != nil {
			s.metrics.ChatRateLimited.Inc()
		}
		return store.ChatMessage{}, domainError(http.StatusTooManyRequests, "RATE_LIMITED", "Too many messages, slow down", nil)
	}
	msg := store.ChatMessage{
		ID:        util.NewID(),
		RoomID:    roomID,
		SenderID:  actor.ID,
		Body:      in.Body,
		CreatedAt: s.now().Truncate(time.Second),
	}
	if err := s.store.InsertChatMessage(ctx, msg); err != nil {
		return store.ChatMessage{}, err
	}
	if s.chat != nil {
		if err := s.chat.PublishChatMessage(ctx, msg); err != nil {
			s.logger.Warn("publish chat message", zap.String("room_id", roomID), zap.Error(err))
		}
	}
	return msg, nil
}

func (s *Service) ListChatMessages(ctx context.Context, actor policy.Actor, roomID string, limit int) ([]store.ChatMessage, error) {
	if err := s.requireRoomMember(ctx, actor, roomID); err != nil {
		return nil, err
	}
	return s.store.ListChatMessages(ctx, roomID, limit)
}
