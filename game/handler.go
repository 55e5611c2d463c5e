// game/handler.go
package game

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/network"
	"github.com/wfunc/arena/session"
	"github.com/wfunc/arena/state"
)

// Handler validates inbound events against the session lifecycle, applies
// them to the Store, and then notifies the room. Mutation and
// notification are two separate steps: the Store never broadcasts.
//
// Hot-path events from a session that is not InGame are dropped with a
// log line and no side effects. This channel is best effort, not a
// request/response API.
type Handler struct {
	store    *Store
	notifier Notifier
	sessions *session.Manager
	registry *session.Registry
	ledger   TransactionSink // optional
	settings Settings
}

func NewHandler(store *Store, notifier Notifier, sessions *session.Manager, registry *session.Registry, settings Settings) *Handler {
	return &Handler{
		store:    store,
		notifier: notifier,
		sessions: sessions,
		registry: registry,
		settings: settings.withDefaults(),
	}
}

// SetLedger attaches the transaction log sink.
func (h *Handler) SetLedger(ledger TransactionSink) {
	h.ledger = ledger
}

// HandleJoin processes a joinGame request. A duplicate join is a no-op; a
// full room returns ErrRoomFull after a roomFull event has been sent, and
// the caller is expected to drop the connection.
func (h *Handler) HandleJoin(sess *session.Session, data []byte) error {
	var req JoinGameRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Log.Warnf("Session %s sent malformed joinGame payload: %v", sess.ID, err)
		return nil
	}
	if req.RoomID == "" || req.Region == "" {
		logger.Log.Warnf("Session %s sent joinGame without room id or region", sess.ID)
		return nil
	}

	if err := sess.Machine.Transition(state.InGame); err != nil {
		// Duplicate join or join after termination. Must not create a
		// second PlayerState or double-join a room.
		logger.Log.Infof("Session %s join ignored in phase %v", sess.ID, sess.Machine.Current())
		return nil
	}

	username := req.Username
	if username == "" {
		username = fmt.Sprintf("player_%s", shortID(sess.ID))
	}

	key := RoomKey(req.Region, req.RoomID)
	player := NewPlayerState(sess.ID, username, randomColor(), h.settings)

	if occupancy, err := h.store.Join(key, player); err != nil {
		sess.Machine.Transition(state.Terminated)
		h.notifier.ToSession(sess.ID, network.EventRoomFull, RoomFullPayload{
			Message:        "room is full",
			CurrentPlayers: occupancy,
			MaxPlayers:     h.store.Capacity(),
		})
		logger.Log.Infof("Session %s rejected from full room %s", sess.ID, key)
		return err
	}

	sess.SetRoomKey(key)
	sess.SetUsername(username)
	if h.registry != nil {
		h.registry.Add(username, sess.ID)
	}

	now := time.Now().UnixMilli()
	h.notifier.ToSession(sess.ID, network.EventGameState, GameStatePayload{
		Players:   h.store.Snapshot(key, sess.ID),
		Timestamp: now,
	})
	h.notifier.ToRoomExcept(key, sess.ID, network.EventPlayerJoined, PlayerJoinedPayload{
		Player:    player.clone(),
		Timestamp: now,
	})

	logger.Log.Infof("Session %s joined room %s as %s", sess.ID, key, username)
	return nil
}

// HandlePositionUpdate applies a hot-path movement update and relays it
// to the rest of the room. Segments are not touched here.
func (h *Handler) HandlePositionUpdate(sess *session.Session, data []byte) {
	if !sess.Machine.Is(state.InGame) {
		logger.Log.Debugf("Dropping playerUpdate from session %s in phase %v", sess.ID, sess.Machine.Current())
		return
	}

	var update PositionUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		logger.Log.Warnf("Session %s sent malformed playerUpdate: %v", sess.ID, err)
		return
	}
	if update.Head == nil || !update.Head.Valid() {
		logger.Log.Warnf("Session %s sent playerUpdate with invalid head", sess.ID)
		return
	}

	key := sess.GetRoomKey()
	if !h.store.ApplyPosition(key, sess.ID, update, time.Now()) {
		logger.Log.Debugf("Dropping playerUpdate for session %s not present in room %s", sess.ID, key)
		return
	}

	h.notifier.ToRoomExcept(key, sess.ID, network.EventPlayerUpdate, PositionBroadcast{
		ID:         sess.ID,
		Head:       *update.Head,
		Direction:  update.Direction,
		Speed:      update.Speed,
		Length:     update.Length,
		IsBoosting: update.IsBoosting,
	})
}

// HandleStateUpdate merges a partial state payload (the lower-frequency
// channel that carries body segments) and relays the same partial payload
// plus the sender id.
func (h *Handler) HandleStateUpdate(sess *session.Session, data []byte) {
	if !sess.Machine.Is(state.InGame) {
		logger.Log.Debugf("Dropping playerStateUpdate from session %s in phase %v", sess.ID, sess.Machine.Current())
		return
	}

	var update StateUpdate
	if err := json.Unmarshal(data, &update); err != nil {
		logger.Log.Warnf("Session %s sent malformed playerStateUpdate: %v", sess.ID, err)
		return
	}
	if update.Head != nil && !update.Head.Valid() {
		logger.Log.Warnf("Session %s sent playerStateUpdate with invalid head", sess.ID)
		return
	}
	for _, seg := range update.Segments {
		if !seg.Valid() {
			logger.Log.Warnf("Session %s sent playerStateUpdate with invalid segment", sess.ID)
			return
		}
	}

	key := sess.GetRoomKey()
	if !h.store.ApplyState(key, sess.ID, update, time.Now()) {
		logger.Log.Debugf("Dropping playerStateUpdate for session %s not present in room %s", sess.ID, key)
		return
	}

	h.notifier.ToRoomExcept(key, sess.ID, network.EventPlayerStateUpdate, StateBroadcast{
		ID:          sess.ID,
		StateUpdate: update,
	})
}

// HandleKill settles a kill claimed by the session. Both killer and
// victim must still be in the caller's room; otherwise the event is a
// logged no-op (the victim may simply have left first).
func (h *Handler) HandleKill(sess *session.Session, data []byte) {
	if !sess.Machine.Is(state.InGame) {
		logger.Log.Debugf("Dropping playerKilled from session %s in phase %v", sess.ID, sess.Machine.Current())
		return
	}

	var req KillRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Log.Warnf("Session %s sent malformed playerKilled: %v", sess.ID, err)
		return
	}
	if req.VictimID == "" || req.VictimID == sess.ID {
		logger.Log.Warnf("Session %s sent playerKilled with invalid victim %q", sess.ID, req.VictimID)
		return
	}

	key := sess.GetRoomKey()
	result, err := h.store.TransferKill(key, sess.ID, req.VictimID)
	if err != nil {
		logger.Log.Infof("Kill in room %s ignored: %v", key, err)
		return
	}

	h.notifier.ToRoom(key, network.EventPlayerKilled, result)
	if result.MoneyGained > 0 {
		h.notifier.ToRoom(key, network.EventBalanceUpdate, BalanceUpdatePayload{
			PlayerID:    result.KillerID,
			NewBalance:  result.NewKillerMoney,
			MoneyGained: result.MoneyGained,
			Source:      "kill",
			Timestamp:   result.Timestamp,
		})
		if h.ledger != nil {
			h.ledger.RecordKill(result.KillerID, result.VictimID, result.MoneyGained)
		}
	}
	h.notifier.ToRoom(key, network.EventPlayerLeft, PlayerLeftPayload{
		PlayerID:  result.VictimID,
		Timestamp: result.Timestamp,
	})

	// The victim's session leaves the game; a fresh connection is needed
	// to play again. Bot victims have no session to terminate.
	if h.sessions != nil {
		if victim, exists := h.sessions.Get(result.VictimID); exists {
			victim.Machine.Transition(state.Terminated)
		}
	}
}

// HandleRespawn resets the caller to its initial state at a fresh spawn
// point. Any accumulated balance is discarded. Bots do not respawn.
func (h *Handler) HandleRespawn(sess *session.Session) {
	if !sess.Machine.Is(state.InGame) {
		logger.Log.Debugf("Dropping playerRespawn from session %s in phase %v", sess.ID, sess.Machine.Current())
		return
	}
	if KindFromID(sess.ID) == KindBot {
		logger.Log.Warnf("Bot session %s sent playerRespawn", sess.ID)
		return
	}

	key := sess.GetRoomKey()
	before, exists := h.store.GetPlayer(key, sess.ID)
	if !exists {
		logger.Log.Debugf("Dropping playerRespawn for session %s not present in room %s", sess.ID, key)
		return
	}

	player, ok := h.store.ResetPlayer(key, sess.ID, h.settings)
	if !ok {
		return
	}

	now := time.Now().UnixMilli()
	h.notifier.ToRoom(key, network.EventBalanceUpdate, BalanceUpdatePayload{
		PlayerID:   sess.ID,
		NewBalance: player.Money,
		Source:     "respawn",
		Timestamp:  now,
	})
	h.notifier.ToRoom(key, network.EventPlayerRespawned, RespawnPayload{
		PlayerID:    sess.ID,
		Username:    player.Username,
		NewPosition: player.Head,
		NewBalance:  player.Money,
		Timestamp:   now,
	})
	if h.ledger != nil && before.Money != player.Money {
		h.ledger.RecordRespawn(sess.ID, before.Money)
	}
}

// HandleDisconnect removes the session's player from its room, falling
// back to a full-room scan when the cached room key is missing or stale,
// and terminates the session lifecycle.
func (h *Handler) HandleDisconnect(sess *session.Session) {
	wasInGame := sess.Machine.Is(state.InGame)
	sess.Machine.Transition(state.Terminated)

	if h.registry != nil && sess.GetUsername() != "" {
		h.registry.Remove(sess.GetUsername(), sess.ID)
	}
	if !wasInGame {
		return
	}

	key := sess.GetRoomKey()
	if key == "" || !h.store.Contains(key, sess.ID) {
		found, ok := h.store.FindRoomOf(sess.ID)
		if !ok {
			return
		}
		key = found
	}

	if _, removed := h.store.Remove(key, sess.ID); removed {
		h.notifier.ToRoom(key, network.EventPlayerLeft, PlayerLeftPayload{
			PlayerID:  sess.ID,
			Timestamp: time.Now().UnixMilli(),
		})
		logger.Log.Infof("Session %s left room %s", sess.ID, key)
	}
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
