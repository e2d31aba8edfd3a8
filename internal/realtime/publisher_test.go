package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"intranet/api/internal/store"
)

func TestPublishReachesRoomSubscribers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	pub := NewPublisher(client)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	sub := pub.Subscribe(ctx, "room-1")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	msg := store.ChatMessage{ID: "m1", RoomID: "room-1", SenderID: "u1", Body: "hello"}
	if err := pub.PublishChatMessage(ctx, msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	got, err := sub.ReceiveMessage(ctx)
	if err != nil {
		t.Fatalf("receive: %v", err)
	}
	if got.Channel != "chat:room-1" {
		t.Fatalf("channel = %q", got.Channel)
	}
	ev, err := Decode(got.Payload)
	if err != nil {
		t.Fatal(err)
	}
	if ev.Type != EventChatMessage || ev.Message.Body != "hello" || ev.Message.SenderID != "u1" {
		t.Fatalf("unexpected event %+v", ev)
	}
}

func TestDecodeRejectsGarbage(t *testing.T) {
	if _, err := Decode("{not json"); err == nil {
		t.Fatal("expected error")
	}
}
