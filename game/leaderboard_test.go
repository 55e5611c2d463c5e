package game

import (
	"fmt"
	"testing"

	"github.com/wfunc/arena/network"
)

func TestLeaderboard_RankOrdersByMoneyDescending(t *testing.T) {
	store := NewStore(0)
	lb := NewLeaderboard(store, &MockNotifier{})

	key := RoomKey("us", "42")
	store.Join(key, newTestPlayer("poor", 1.00))
	store.Join(key, newTestPlayer("rich", 10.00))
	store.Join(key, newTestPlayer("mid", 5.00))

	entries := lb.Rank(key)
	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	if entries[0].Balance != 10.00 || entries[1].Balance != 5.00 || entries[2].Balance != 1.00 {
		t.Errorf("Entries not ordered by descending balance: %+v", entries)
	}
}

func TestLeaderboard_ExcludesBotsAndTruncates(t *testing.T) {
	store := NewStore(0)
	lb := NewLeaderboard(store, &MockNotifier{})

	key := RoomKey("us", "42")
	for i := 0; i < 15; i++ {
		store.Join(key, newTestPlayer(fmt.Sprintf("p%d", i), float64(i)))
	}
	store.Join(key, newTestPlayer("bot_rich", 1000.00))

	entries := lb.Rank(key)
	if len(entries) != LeaderboardSize {
		t.Fatalf("Expected ranking truncated to %d, got %d", LeaderboardSize, len(entries))
	}
	for _, e := range entries {
		if e.Balance >= 1000 {
			t.Error("Bots must not appear in the leaderboard")
		}
	}
	if entries[0].Balance != 14 {
		t.Errorf("Expected top entry balance 14, got %v", entries[0].Balance)
	}
}

func TestLeaderboard_TickBroadcastsPerRoom(t *testing.T) {
	store := NewStore(0)
	notifier := &MockNotifier{}
	lb := NewLeaderboard(store, notifier)

	store.Join(RoomKey("us", "1"), newTestPlayer("a", 1.00))
	store.Join(RoomKey("eu", "2"), newTestPlayer("b", 2.00))

	lb.Tick()

	updates := notifier.byEvent(network.EventLeaderboardUpdate)
	if len(updates) != 2 {
		t.Fatalf("Expected one leaderboardUpdate per room, got %d", len(updates))
	}
}

func TestLeaderboard_BotOnlyRoomSkipped(t *testing.T) {
	store := NewStore(0)
	notifier := &MockNotifier{}
	lb := NewLeaderboard(store, notifier)

	store.Join(RoomKey("us", "1"), newTestPlayer("bot_a", 0))

	lb.Tick()

	if len(notifier.Sent) != 0 {
		t.Errorf("A room with no real players gets no leaderboard, got %d sends", len(notifier.Sent))
	}
}
