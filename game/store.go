// game/store.go
package game

import (
	"errors"
	"fmt"
	"sync"
	"time"
)

var (
	// ErrRoomFull is returned when a join would push a room past capacity.
	ErrRoomFull = errors.New("room full")
	// ErrNotInRoom is returned when a mutation references a player that is
	// not present in the target room.
	ErrNotInRoom = errors.New("player not in room")
)

// RoomKey builds the composite key a room is addressed by.
func RoomKey(region, roomID string) string {
	return fmt.Sprintf("%s:%s", region, roomID)
}

// Room holds the players of one simulation namespace. It is a passive
// map; all locking lives in the Store that owns it.
type Room struct {
	Key     string
	Players map[string]*PlayerState // connection id -> state
}

// Store owns every room. Rooms are created lazily on join and deleted in
// the same operation that empties them, so an empty room is never
// observable. The capacity check and the insert happen under one lock,
// two racing joins cannot both slip into the last slot.
type Store struct {
	capacity int
	rooms    map[string]*Room
	mutex    sync.RWMutex
}

func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultRoomCapacity
	}
	return &Store{
		capacity: capacity,
		rooms:    make(map[string]*Room),
	}
}

func (s *Store) Capacity() int {
	return s.capacity
}

// Join inserts the player into the room, creating the room if needed.
// Returns the room's occupancy as observed under the lock: after the
// insert on success, at rejection time on ErrRoomFull. On ErrRoomFull
// nothing is mutated.
func (s *Store) Join(key string, player *PlayerState) (int, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	room, exists := s.rooms[key]
	if !exists {
		room = &Room{
			Key:     key,
			Players: make(map[string]*PlayerState),
		}
		s.rooms[key] = room
	}

	if len(room.Players) >= s.capacity {
		occupancy := len(room.Players)
		if !exists {
			delete(s.rooms, key)
		}
		return occupancy, ErrRoomFull
	}

	room.Players[player.ID] = player
	return len(room.Players), nil
}

// Remove removes and returns the player's state. When the removal empties
// the room, the room is deleted in the same critical section.
func (s *Store) Remove(key, connID string) (*PlayerState, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	return s.removeLocked(key, connID)
}

func (s *Store) removeLocked(key, connID string) (*PlayerState, bool) {
	room, exists := s.rooms[key]
	if !exists {
		return nil, false
	}
	player, exists := room.Players[connID]
	if !exists {
		return nil, false
	}
	delete(room.Players, connID)
	if len(room.Players) == 0 {
		delete(s.rooms, key)
	}
	return player, true
}

// FindRoomOf scans every room for the connection. Only used on disconnect
// cleanup when the session's cached room key is missing or stale.
func (s *Store) FindRoomOf(connID string) (string, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	for key, room := range s.rooms {
		if _, exists := room.Players[connID]; exists {
			return key, true
		}
	}
	return "", false
}

// Contains reports whether the connection is a member of the room.
func (s *Store) Contains(key, connID string) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[key]
	if !exists {
		return false
	}
	_, exists = room.Players[connID]
	return exists
}

// GetPlayer returns a value copy of the player's current state.
func (s *Store) GetPlayer(key, connID string) (PlayerState, bool) {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[key]
	if !exists {
		return PlayerState{}, false
	}
	player, exists := room.Players[connID]
	if !exists {
		return PlayerState{}, false
	}
	return player.clone(), true
}

// Snapshot returns value copies of every player in the room except the
// excluded connection (the recipient of a gameState event).
func (s *Store) Snapshot(key, excludeID string) map[string]PlayerState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	snapshot := make(map[string]PlayerState)
	room, exists := s.rooms[key]
	if !exists {
		return snapshot
	}
	for id, player := range room.Players {
		if id == excludeID {
			continue
		}
		snapshot[id] = player.clone()
	}
	return snapshot
}

// Players returns value copies of every player in the room.
func (s *Store) Players(key string) []PlayerState {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[key]
	if !exists {
		return nil
	}
	players := make([]PlayerState, 0, len(room.Players))
	for _, player := range room.Players {
		players = append(players, player.clone())
	}
	return players
}

// MemberIDs returns the connection ids present in the room.
func (s *Store) MemberIDs(key string) []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[key]
	if !exists {
		return nil
	}
	ids := make([]string, 0, len(room.Players))
	for id := range room.Players {
		ids = append(ids, id)
	}
	return ids
}

// Keys returns the keys of all live rooms.
func (s *Store) Keys() []string {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	keys := make([]string, 0, len(s.rooms))
	for key := range s.rooms {
		keys = append(keys, key)
	}
	return keys
}

func (s *Store) RoomCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.rooms)
}

func (s *Store) PlayerCount(key string) int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	room, exists := s.rooms[key]
	if !exists {
		return 0
	}
	return len(room.Players)
}

// ApplyPosition overwrites the hot-path movement fields and refreshes
// LastUpdate. Segments are untouched.
func (s *Store) ApplyPosition(key, connID string, update PositionUpdate, now time.Time) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player, exists := s.playerLocked(key, connID)
	if !exists {
		return false
	}
	player.Head = *update.Head
	player.Direction = update.Direction
	player.Speed = update.Speed
	player.Length = update.Length
	player.IsBoosting = update.IsBoosting
	player.LastUpdate = now
	return true
}

// ApplyState merges the non-nil fields of a partial update and refreshes
// LastUpdate.
func (s *Store) ApplyState(key, connID string, update StateUpdate, now time.Time) bool {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player, exists := s.playerLocked(key, connID)
	if !exists {
		return false
	}
	if update.Head != nil {
		player.Head = *update.Head
	}
	if update.Direction != nil {
		player.Direction = *update.Direction
	}
	if update.Speed != nil {
		player.Speed = *update.Speed
	}
	if update.Length != nil {
		player.Length = *update.Length
	}
	if update.Color != nil {
		player.Color = *update.Color
	}
	if update.Segments != nil {
		player.Segments = update.Segments
	}
	if update.IsBoosting != nil {
		player.IsBoosting = *update.IsBoosting
	}
	player.LastUpdate = now
	return true
}

// TransferKill settles a kill: the victim's whole balance moves to the
// killer and the victim leaves the room, all under one lock. Bots sit
// outside the economy: no money moves when either side is a bot, and a
// bot killer gains no kill count either; a real killer's counter still
// increments on a bot victim.
func (s *Store) TransferKill(key, killerID, victimID string) (KillBroadcast, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	killer, exists := s.playerLocked(key, killerID)
	if !exists {
		return KillBroadcast{}, fmt.Errorf("killer %s: %w", killerID, ErrNotInRoom)
	}
	victim, exists := s.playerLocked(key, victimID)
	if !exists {
		return KillBroadcast{}, fmt.Errorf("victim %s: %w", victimID, ErrNotInRoom)
	}

	var gained float64
	if killer.Kind == KindPlayer && victim.Kind == KindPlayer {
		gained = victim.Money
		killer.Money += gained
		victim.Money = 0
	}
	if killer.Kind == KindPlayer {
		killer.Kills++
	}

	s.removeLocked(key, victimID)

	return KillBroadcast{
		KillerID:       killer.ID,
		KillerUsername: killer.Username,
		VictimID:       victim.ID,
		VictimUsername: victim.Username,
		MoneyGained:    gained,
		NewKillerMoney: killer.Money,
		NewKillerKills: killer.Kills,
		Timestamp:      time.Now().UnixMilli(),
	}, nil
}

// ResetPlayer puts the player back to its initial constants at a fresh
// spawn point and returns a copy of the new state.
func (s *Store) ResetPlayer(key, connID string, settings Settings) (PlayerState, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player, exists := s.playerLocked(key, connID)
	if !exists {
		return PlayerState{}, false
	}
	player.reset(settings)
	return player.clone(), true
}

// AddMoney credits the player's balance and returns the new balance.
// Used by the top-up path after payment verification; the verify call is
// a suspension point, so the caller must tolerate the player having left
// in the meantime (ok == false).
func (s *Store) AddMoney(key, connID string, amount float64) (float64, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	player, exists := s.playerLocked(key, connID)
	if !exists || amount <= 0 {
		return 0, false
	}
	player.Money += amount
	return player.Money, true
}

// ReapedPlayer records one staleness eviction.
type ReapedPlayer struct {
	RoomKey string
	Player  PlayerState
}

// ReapStale evicts every player whose LastUpdate is older than the
// threshold and deletes rooms the sweep empties.
func (s *Store) ReapStale(threshold time.Duration, now time.Time) []ReapedPlayer {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	var reaped []ReapedPlayer
	for key, room := range s.rooms {
		for id, player := range room.Players {
			if now.Sub(player.LastUpdate) > threshold {
				reaped = append(reaped, ReapedPlayer{RoomKey: key, Player: player.clone()})
				delete(room.Players, id)
			}
		}
		if len(room.Players) == 0 {
			delete(s.rooms, key)
		}
	}
	return reaped
}

func (s *Store) playerLocked(key, connID string) (*PlayerState, bool) {
	room, exists := s.rooms[key]
	if !exists {
		return nil, false
	}
	player, exists := room.Players[connID]
	return player, exists
}
