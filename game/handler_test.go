package game

import (
	"encoding/json"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/network"
	"github.com/wfunc/arena/session"
	"github.com/wfunc/arena/state"
)

func TestMain(m *testing.M) {
	logger.Init()
	os.Exit(m.Run())
}

// MockConnection is a test double for the network.Connection interface.
type MockConnection struct{}

func (m *MockConnection) Send(event string, data []byte) error  { return nil }
func (m *MockConnection) ReadEvent() (*network.Envelope, error) { return nil, nil }
func (m *MockConnection) Close() error                          { return nil }
func (m *MockConnection) RemoteAddr() net.Addr                  { return &net.TCPAddr{} }

// sentEvent records one notification observed by the MockNotifier.
type sentEvent struct {
	RoomKey   string
	SessionID string // set for ToSession
	ExceptID  string // set for ToRoomExcept
	Event     string
	Payload   interface{}
}

// MockNotifier captures notifications instead of touching a transport.
type MockNotifier struct {
	Sent []sentEvent
}

func (m *MockNotifier) ToRoom(roomKey, event string, payload interface{}) {
	m.Sent = append(m.Sent, sentEvent{RoomKey: roomKey, Event: event, Payload: payload})
}

func (m *MockNotifier) ToRoomExcept(roomKey, exceptID, event string, payload interface{}) {
	m.Sent = append(m.Sent, sentEvent{RoomKey: roomKey, ExceptID: exceptID, Event: event, Payload: payload})
}

func (m *MockNotifier) ToSession(sessionID, event string, payload interface{}) {
	m.Sent = append(m.Sent, sentEvent{SessionID: sessionID, Event: event, Payload: payload})
}

func (m *MockNotifier) byEvent(event string) []sentEvent {
	var out []sentEvent
	for _, s := range m.Sent {
		if s.Event == event {
			out = append(out, s)
		}
	}
	return out
}

func (m *MockNotifier) reset() {
	m.Sent = nil
}

func mustJSON(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return data
}

func newTestHandler(capacity int) (*Handler, *Store, *MockNotifier) {
	store := NewStore(capacity)
	notifier := &MockNotifier{}
	handler := NewHandler(store, notifier, session.NewManager(), session.NewRegistry(), Settings{})
	return handler, store, notifier
}

func joinSession(t *testing.T, h *Handler, id, roomID, region, username string) *session.Session {
	t.Helper()
	sess := session.NewSession(id, &MockConnection{})
	h.sessions.Add(sess)
	err := h.HandleJoin(sess, mustJSON(t, JoinGameRequest{
		RoomID: roomID, Region: region, Username: username,
	}))
	if err != nil {
		t.Fatalf("join for %s failed: %v", id, err)
	}
	return sess
}

func TestHandleJoin_SnapshotAndJoinedBroadcast(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	joinSession(t, handler, "a", "42", "us", "alice")
	notifier.reset()
	joinSession(t, handler, "b", "42", "us", "bob")

	key := RoomKey("us", "42")
	if store.PlayerCount(key) != 2 {
		t.Fatalf("Expected 2 players in %s, got %d", key, store.PlayerCount(key))
	}

	states := notifier.byEvent(network.EventGameState)
	if len(states) != 1 {
		t.Fatalf("Expected 1 gameState send, got %d", len(states))
	}
	if states[0].SessionID != "b" {
		t.Errorf("gameState must go to the new joiner, went to %s", states[0].SessionID)
	}
	snapshot := states[0].Payload.(GameStatePayload)
	if _, ok := snapshot.Players["a"]; !ok {
		t.Error("Snapshot must include the existing player")
	}
	if _, ok := snapshot.Players["b"]; ok {
		t.Error("Snapshot must exclude the recipient")
	}

	joined := notifier.byEvent(network.EventPlayerJoined)
	if len(joined) != 1 {
		t.Fatalf("Expected 1 playerJoined broadcast, got %d", len(joined))
	}
	if joined[0].ExceptID != "b" {
		t.Errorf("playerJoined must exclude the joiner, excluded %q", joined[0].ExceptID)
	}
}

func TestHandleJoin_DuplicateIsNoop(t *testing.T) {
	handler, store, _ := newTestHandler(0)

	sess := joinSession(t, handler, "a", "42", "us", "alice")
	if err := handler.HandleJoin(sess, mustJSON(t, JoinGameRequest{
		RoomID: "43", Region: "us", Username: "alice2",
	})); err != nil {
		t.Fatalf("Duplicate join must not error: %v", err)
	}

	if store.PlayerCount(RoomKey("us", "42")) != 1 {
		t.Errorf("Expected exactly one PlayerState in us:42")
	}
	if store.PlayerCount(RoomKey("us", "43")) != 0 {
		t.Errorf("Duplicate join must not create a second room membership")
	}
	if sess.GetRoomKey() != RoomKey("us", "42") {
		t.Errorf("Session room key must be unchanged, got %s", sess.GetRoomKey())
	}
}

func TestHandleJoin_GeneratedUsername(t *testing.T) {
	handler, store, _ := newTestHandler(0)

	joinSession(t, handler, "abcdefgh-rest", "42", "us", "")

	got, ok := store.GetPlayer(RoomKey("us", "42"), "abcdefgh-rest")
	if !ok {
		t.Fatal("Player should be in the room")
	}
	if got.Username == "" {
		t.Error("Server must generate a username when the client sends none")
	}
}

func TestHandleJoin_RoomFull(t *testing.T) {
	handler, store, notifier := newTestHandler(2)

	joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")
	notifier.reset()

	sess := session.NewSession("c", &MockConnection{})
	err := handler.HandleJoin(sess, mustJSON(t, JoinGameRequest{
		RoomID: "42", Region: "us", Username: "carol",
	}))
	if err != ErrRoomFull {
		t.Fatalf("Expected ErrRoomFull, got: %v", err)
	}

	full := notifier.byEvent(network.EventRoomFull)
	if len(full) != 1 {
		t.Fatalf("Expected 1 roomFull send, got %d", len(full))
	}
	payload := full[0].Payload.(RoomFullPayload)
	if payload.CurrentPlayers != 2 || payload.MaxPlayers != 2 {
		t.Errorf("Expected currentPlayers=2 maxPlayers=2, got %+v", payload)
	}

	if store.PlayerCount(RoomKey("us", "42")) != 2 {
		t.Errorf("Room must still hold exactly 2 players")
	}
	if !sess.Machine.Is(state.Terminated) {
		t.Errorf("Rejected session must be terminated, phase %v", sess.Machine.Current())
	}
}

func TestHandlePositionUpdate_BroadcastExceptSender(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")
	notifier.reset()

	handler.HandlePositionUpdate(sessA, mustJSON(t, map[string]interface{}{
		"head":       map[string]float64{"x": 10, "y": 20},
		"direction":  1.25,
		"speed":      2.0,
		"length":     42,
		"isBoosting": true,
	}))

	updates := notifier.byEvent(network.EventPlayerUpdate)
	if len(updates) != 1 {
		t.Fatalf("Expected 1 playerUpdate broadcast, got %d", len(updates))
	}
	if updates[0].ExceptID != "a" {
		t.Errorf("Sender must not receive its own update echoed back, excluded %q", updates[0].ExceptID)
	}
	payload := updates[0].Payload.(PositionBroadcast)
	if payload.ID != "a" || payload.Head.X != 10 || payload.Head.Y != 20 {
		t.Errorf("Unexpected broadcast payload: %+v", payload)
	}

	got, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	if got.Head.X != 10 || got.Head.Y != 20 || got.Length != 42 || !got.IsBoosting {
		t.Errorf("Store not updated from position event: %+v", got)
	}
}

func TestHandlePositionUpdate_DroppedWhenNotInGame(t *testing.T) {
	handler, _, notifier := newTestHandler(0)

	sess := session.NewSession("a", &MockConnection{})
	handler.HandlePositionUpdate(sess, mustJSON(t, map[string]interface{}{
		"head": map[string]float64{"x": 1, "y": 2},
	}))

	if len(notifier.Sent) != 0 {
		t.Errorf("Events from a Connected session must be dropped silently, got %d sends", len(notifier.Sent))
	}
}

func TestHandlePositionUpdate_InvalidHeadDropped(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	before, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	notifier.reset()

	handler.HandlePositionUpdate(sessA, []byte(`{"direction": 1.0}`))

	if len(notifier.byEvent(network.EventPlayerUpdate)) != 0 {
		t.Error("Update without a head must be dropped")
	}
	after, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	if after.Head != before.Head {
		t.Error("Dropped update must not mutate the player")
	}
}

func TestHandleStateUpdate_RelaysPartialPayload(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")
	notifier.reset()

	handler.HandleStateUpdate(sessA, mustJSON(t, map[string]interface{}{
		"segments": []map[string]float64{{"x": 1, "y": 1}, {"x": 2, "y": 2}},
	}))

	updates := notifier.byEvent(network.EventPlayerStateUpdate)
	if len(updates) != 1 {
		t.Fatalf("Expected 1 playerStateUpdate broadcast, got %d", len(updates))
	}
	payload := updates[0].Payload.(StateBroadcast)
	if payload.ID != "a" || len(payload.Segments) != 2 {
		t.Errorf("Unexpected state broadcast: %+v", payload)
	}

	got, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	if len(got.Segments) != 2 {
		t.Errorf("Segments not merged into the store, got %d", len(got.Segments))
	}
}

func TestHandleKill_EndToEnd(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")
	notifier.reset()

	handler.HandleKill(sessA, mustJSON(t, KillRequest{VictimID: "b"}))

	kills := notifier.byEvent(network.EventPlayerKilled)
	if len(kills) != 1 {
		t.Fatalf("Expected 1 playerKilled broadcast, got %d", len(kills))
	}
	result := kills[0].Payload.(KillBroadcast)
	if result.NewKillerMoney != 2.00 {
		t.Errorf("Expected newKillerMoney 2.00, got %v", result.NewKillerMoney)
	}
	if result.NewKillerKills != 1 {
		t.Errorf("Expected newKillerKills 1, got %d", result.NewKillerKills)
	}
	if result.MoneyGained != 1.00 {
		t.Errorf("Expected moneyGained 1.00, got %v", result.MoneyGained)
	}

	lefts := notifier.byEvent(network.EventPlayerLeft)
	if len(lefts) != 1 {
		t.Fatalf("Expected a playerLeft broadcast for the victim, got %d", len(lefts))
	}
	if lefts[0].Payload.(PlayerLeftPayload).PlayerID != "b" {
		t.Error("playerLeft must name the victim")
	}

	balances := notifier.byEvent(network.EventBalanceUpdate)
	if len(balances) != 1 {
		t.Fatalf("Expected 1 balanceUpdate, got %d", len(balances))
	}
	if balances[0].Payload.(BalanceUpdatePayload).Source != "kill" {
		t.Error("balanceUpdate source must be kill")
	}

	if store.Contains(RoomKey("us", "42"), "b") {
		t.Error("Victim must be absent from subsequent snapshots")
	}
	snapshot := store.Snapshot(RoomKey("us", "42"), "")
	if _, ok := snapshot["b"]; ok {
		t.Error("gameState snapshot must not include the victim")
	}
}

func TestHandleKill_VictimSessionTerminated(t *testing.T) {
	handler, _, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	sessB := joinSession(t, handler, "b", "42", "us", "bob")

	handler.HandleKill(sessA, mustJSON(t, KillRequest{VictimID: "b"}))

	if !sessB.Machine.Is(state.Terminated) {
		t.Errorf("Victim session must be Terminated after a kill, phase %v", sessB.Machine.Current())
	}

	// Events from the dead session are dropped.
	notifier.reset()
	handler.HandlePositionUpdate(sessB, mustJSON(t, map[string]interface{}{
		"head": map[string]float64{"x": 1, "y": 2},
	}))
	if len(notifier.Sent) != 0 {
		t.Errorf("Events from a terminated session must be dropped, got %d sends", len(notifier.Sent))
	}
}

func TestHandleKill_MissingVictimIsNoop(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	notifier.reset()

	handler.HandleKill(sessA, mustJSON(t, KillRequest{VictimID: "ghost"}))

	if len(notifier.Sent) != 0 {
		t.Errorf("Kill with a missing victim must be a silent no-op, got %d sends", len(notifier.Sent))
	}
	got, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	if got.Kills != 0 || got.Money != DefaultStartingMoney {
		t.Errorf("No-op kill must not touch the killer: %+v", got)
	}
}

func TestHandleRespawn_FullReset(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")

	// Accumulate some state first.
	handler.HandleKill(sessA, mustJSON(t, KillRequest{VictimID: "b"}))
	notifier.reset()

	handler.HandleRespawn(sessA)

	got, _ := store.GetPlayer(RoomKey("us", "42"), "a")
	if got.Money != 1.00 {
		t.Errorf("Expected money 1.00 after respawn, got %v", got.Money)
	}
	if got.Kills != 0 {
		t.Errorf("Expected kills 0 after respawn, got %d", got.Kills)
	}
	if got.Length != DefaultInitialLength {
		t.Errorf("Expected length %d after respawn, got %d", DefaultInitialLength, got.Length)
	}

	balances := notifier.byEvent(network.EventBalanceUpdate)
	if len(balances) != 1 {
		t.Fatalf("Expected 1 balanceUpdate, got %d", len(balances))
	}
	balance := balances[0].Payload.(BalanceUpdatePayload)
	if balance.Source != "respawn" || balance.NewBalance != 1.00 {
		t.Errorf("Unexpected balanceUpdate: %+v", balance)
	}
	// The whole room, including the respawning player, gets these.
	if balances[0].ExceptID != "" {
		t.Error("balanceUpdate must go to the whole room")
	}

	respawns := notifier.byEvent(network.EventPlayerRespawned)
	if len(respawns) != 1 {
		t.Fatalf("Expected 1 playerRespawned, got %d", len(respawns))
	}
}

func TestHandleRespawn_BotDropped(t *testing.T) {
	handler, _, notifier := newTestHandler(0)

	sess := joinSession(t, handler, "bot_7", "42", "us", "botty")
	notifier.reset()

	handler.HandleRespawn(sess)

	if len(notifier.Sent) != 0 {
		t.Errorf("Bot respawn must be dropped, got %d sends", len(notifier.Sent))
	}
}

func TestHandleDisconnect_RemovesAndBroadcasts(t *testing.T) {
	handler, store, notifier := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")
	notifier.reset()

	handler.HandleDisconnect(sessA)

	if store.Contains(RoomKey("us", "42"), "a") {
		t.Error("Disconnected player must be removed from its room")
	}
	lefts := notifier.byEvent(network.EventPlayerLeft)
	if len(lefts) != 1 {
		t.Fatalf("Expected 1 playerLeft broadcast, got %d", len(lefts))
	}
	if !sessA.Machine.Is(state.Terminated) {
		t.Errorf("Disconnected session must be Terminated, phase %v", sessA.Machine.Current())
	}
}

func TestHandleDisconnect_StaleRoomKeyFallback(t *testing.T) {
	handler, store, _ := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	joinSession(t, handler, "b", "42", "us", "bob")

	// Simulate bookkeeping gone out of sync.
	sessA.SetRoomKey("us:wrong")

	handler.HandleDisconnect(sessA)

	if store.Contains(RoomKey("us", "42"), "a") {
		t.Error("Fallback scan must locate and remove the player despite a stale room key")
	}
}

func TestHandleDisconnect_LastPlayerDeletesRoom(t *testing.T) {
	handler, store, _ := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	handler.HandleDisconnect(sessA)

	if store.RoomCount() != 0 {
		t.Errorf("Room must be deleted when its last player disconnects, got %d rooms", store.RoomCount())
	}
}

func TestMoneyNeverNegative(t *testing.T) {
	handler, store, _ := newTestHandler(0)

	sessA := joinSession(t, handler, "a", "42", "us", "alice")
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("v%d", i)
		joinSession(t, handler, id, "42", "us", "victim")
		handler.HandleKill(sessA, mustJSON(t, KillRequest{VictimID: id}))
		handler.HandleRespawn(sessA)
	}

	for _, p := range store.Players(RoomKey("us", "42")) {
		if p.Money < 0 {
			t.Errorf("Player %s has negative balance %v", p.ID, p.Money)
		}
	}
}
