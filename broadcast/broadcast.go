// broadcast/broadcast.go
package broadcast

import (
	"encoding/json"

	"github.com/wfunc/arena/game"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/session"
)

// RoomBroadcaster fans events out to the sessions behind a room's
// members. Sends are fire and forget: a failed send is logged and the
// broken connection is left for the reaper or the read loop to clean up.
type RoomBroadcaster struct {
	store    *game.Store
	sessions *session.Manager
}

func NewRoomBroadcaster(store *game.Store, sessions *session.Manager) *RoomBroadcaster {
	return &RoomBroadcaster{
		store:    store,
		sessions: sessions,
	}
}

func (b *RoomBroadcaster) ToRoom(roomKey, event string, payload interface{}) {
	b.send(roomKey, "", event, payload)
}

func (b *RoomBroadcaster) ToRoomExcept(roomKey, exceptID, event string, payload interface{}) {
	b.send(roomKey, exceptID, event, payload)
}

func (b *RoomBroadcaster) ToSession(sessionID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal %s payload: %v", event, err)
		return
	}
	sess, exists := b.sessions.Get(sessionID)
	if !exists {
		return
	}
	if err := sess.Send(event, data); err != nil {
		logger.Log.Debugf("Failed to send %s to session %s: %v", event, sessionID, err)
	}
}

func (b *RoomBroadcaster) send(roomKey, exceptID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		logger.Log.Errorf("Failed to marshal %s payload: %v", event, err)
		return
	}

	for _, id := range b.store.MemberIDs(roomKey) {
		if id == exceptID {
			continue
		}
		sess, exists := b.sessions.Get(id)
		if !exists {
			continue
		}
		if err := sess.Send(event, data); err != nil {
			logger.Log.Debugf("Failed to send %s to session %s: %v", event, id, err)
		}
	}
}
