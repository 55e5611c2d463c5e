// game/leaderboard.go
package game

import (
	"sort"

	"github.com/wfunc/arena/network"
)

// LeaderboardSize caps the ranking sent to each room.
const LeaderboardSize = 10

// Leaderboard periodically pushes a per-room ranking of real players by
// descending balance. It is derived state only; nothing is persisted.
type Leaderboard struct {
	store    *Store
	notifier Notifier
}

func NewLeaderboard(store *Store, notifier Notifier) *Leaderboard {
	return &Leaderboard{
		store:    store,
		notifier: notifier,
	}
}

// Rank builds the ranking for one room: non-bot players by descending
// money, truncated to LeaderboardSize.
func (l *Leaderboard) Rank(roomKey string) []LeaderboardEntry {
	players := l.store.Players(roomKey)

	entries := make([]LeaderboardEntry, 0, len(players))
	for _, p := range players {
		if p.Kind == KindBot {
			continue
		}
		entries = append(entries, LeaderboardEntry{
			Username: p.Username,
			Balance:  p.Money,
			Kills:    p.Kills,
			Length:   p.Length,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Balance > entries[j].Balance
	})
	if len(entries) > LeaderboardSize {
		entries = entries[:LeaderboardSize]
	}
	return entries
}

// Tick broadcasts a fresh ranking to every live room.
func (l *Leaderboard) Tick() {
	for _, key := range l.store.Keys() {
		entries := l.Rank(key)
		if len(entries) == 0 {
			continue
		}
		l.notifier.ToRoom(key, network.EventLeaderboardUpdate, entries)
	}
}
