package websocket

import (
	"encoding/json"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/snake-server/internal/domain"
)

func newTestHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub(slog.New(slog.NewTextHandler(io.Discard, nil)))
	go hub.Run()
	t.Cleanup(hub.Stop)
	return hub
}

func newTestClient(hub *Hub) *Client {
	return &Client{
		id:   "test-client",
		hub:  hub,
		send: make(chan []byte, 8),
	}
}

func waitForSubscribers(t *testing.T, hub *Hub, channel string, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if hub.GetSubscriberCount(channel) == want {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("subscriber count for %q never reached %d", channel, want)
}

func receiveMessage(t *testing.T, client *Client) Message {
	t.Helper()
	select {
	case data := <-client.send:
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no message received")
		return Message{}
	}
}

func TestBroadcastLeaderboardReachesSubscribers(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub)

	hub.Register(client)
	hub.Subscribe(client, ChannelLeaderboard)
	waitForSubscribers(t, hub, ChannelLeaderboard, 1)

	entries := []domain.LeaderboardEntry{{Rank: 1, UserID: 7, Username: "alice", Score: 120}}
	hub.BroadcastLeaderboard(entries, 42)

	msg := receiveMessage(t, client)
	if msg.Type != MessageTypeLeaderboardUpdate {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeLeaderboardUpdate)
	}
	if msg.Channel != ChannelLeaderboard {
		t.Errorf("channel = %q, want %q", msg.Channel, ChannelLeaderboard)
	}
}

func TestBroadcastSkipsOtherChannels(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub)

	hub.Register(client)
	hub.Subscribe(client, ChannelPresence)
	waitForSubscribers(t, hub, ChannelPresence, 1)

	// Leaderboard traffic must not reach a presence-only subscriber
	hub.BroadcastLeaderboard(nil, 0)
	hub.BroadcastOnlineCount(3)

	msg := receiveMessage(t, client)
	if msg.Type != MessageTypeOnlineCount {
		t.Errorf("type = %q, want %q", msg.Type, MessageTypeOnlineCount)
	}

	select {
	case data := <-client.send:
		t.Errorf("unexpected extra message: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	hub := newTestHub(t)
	client := newTestClient(hub)

	hub.Register(client)
	hub.Subscribe(client, ChannelPresence)
	waitForSubscribers(t, hub, ChannelPresence, 1)

	hub.Unsubscribe(client, ChannelPresence)
	waitForSubscribers(t, hub, ChannelPresence, 0)

	hub.BroadcastOnlineCount(1)

	select {
	case data := <-client.send:
		t.Errorf("unexpected message after unsubscribe: %s", data)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestValidChannel(t *testing.T) {
	for _, channel := range []string{ChannelLeaderboard, ChannelPresence} {
		if !validChannel(channel) {
			t.Errorf("validChannel(%q) = false", channel)
		}
	}
	for _, channel := range []string{"", "scores", "Leaderboard"} {
		if validChannel(channel) {
			t.Errorf("validChannel(%q) = true", channel)
		}
	}
}
