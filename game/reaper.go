// game/reaper.go
package game

import (
	"time"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/network"
)

// Reaper is the backstop for connections that vanish without a clean
// disconnect. There is no heartbeat on this channel; liveness is inferred
// from the data-plane updates themselves.
type Reaper struct {
	store     *Store
	notifier  Notifier
	threshold time.Duration

	// OnReaped, when set, is called with the session id of each evicted
	// player so the host can terminate the matching session.
	OnReaped func(sessionID string)
}

func NewReaper(store *Store, notifier Notifier, threshold time.Duration) *Reaper {
	return &Reaper{
		store:     store,
		notifier:  notifier,
		threshold: threshold,
	}
}

// Sweep evicts every player idle past the threshold, broadcasting a leave
// event per eviction. Returns the number of players reaped.
func (r *Reaper) Sweep(now time.Time) int {
	reaped := r.store.ReapStale(r.threshold, now)
	for _, entry := range reaped {
		r.notifier.ToRoom(entry.RoomKey, network.EventPlayerLeft, PlayerLeftPayload{
			PlayerID:  entry.Player.ID,
			Timestamp: now.UnixMilli(),
		})
		if r.OnReaped != nil {
			r.OnReaped(entry.Player.ID)
		}
		logger.Log.Infof("Reaped stale player %s from room %s (last update %v ago)",
			entry.Player.ID, entry.RoomKey, now.Sub(entry.Player.LastUpdate))
	}
	return len(reaped)
}
