// game/events.go
package game

// Inbound payloads. Each event name has exactly one schema; anything that
// fails to decode into it is dropped at the boundary.

type JoinGameRequest struct {
	RoomID   string `json:"roomId"`
	Region   string `json:"region"`
	Username string `json:"username"`
}

type PositionUpdate struct {
	Head       *Position `json:"head"`
	Direction  float64   `json:"direction"`
	Speed      float64   `json:"speed"`
	Length     int       `json:"length"`
	IsBoosting bool      `json:"isBoosting"`
}

// StateUpdate is a partial merge: nil fields leave the player untouched.
// Segments ride on this lower-frequency event, never on PositionUpdate.
type StateUpdate struct {
	Head       *Position  `json:"head,omitempty"`
	Direction  *float64   `json:"direction,omitempty"`
	Speed      *float64   `json:"speed,omitempty"`
	Length     *int       `json:"length,omitempty"`
	Color      *string    `json:"color,omitempty"`
	Segments   []Position `json:"segments,omitempty"`
	IsBoosting *bool      `json:"isBoosting,omitempty"`
}

type KillRequest struct {
	VictimID string `json:"victimId"`
}

// Outbound payloads.

type GameStatePayload struct {
	Players   map[string]PlayerState `json:"players"`
	Timestamp int64                  `json:"timestamp"`
}

type PlayerJoinedPayload struct {
	Player    PlayerState `json:"player"`
	Timestamp int64       `json:"timestamp"`
}

type PositionBroadcast struct {
	ID         string   `json:"id"`
	Head       Position `json:"head"`
	Direction  float64  `json:"direction"`
	Speed      float64  `json:"speed"`
	Length     int      `json:"length"`
	IsBoosting bool     `json:"isBoosting"`
}

type StateBroadcast struct {
	ID string `json:"id"`
	StateUpdate
}

type KillBroadcast struct {
	KillerID       string  `json:"killerId"`
	KillerUsername string  `json:"killerUsername"`
	VictimID       string  `json:"victimId"`
	VictimUsername string  `json:"victimUsername"`
	MoneyGained    float64 `json:"moneyGained"`
	NewKillerMoney float64 `json:"newKillerMoney"`
	NewKillerKills int     `json:"newKillerKills"`
	Timestamp      int64   `json:"timestamp"`
}

type BalanceUpdatePayload struct {
	PlayerID    string  `json:"playerId"`
	NewBalance  float64 `json:"newBalance"`
	MoneyGained float64 `json:"moneyGained"`
	Source      string  `json:"source"` // "kill" or "respawn"
	Timestamp   int64   `json:"timestamp"`
}

type RespawnPayload struct {
	PlayerID    string   `json:"playerId"`
	Username    string   `json:"username"`
	NewPosition Position `json:"newPosition"`
	NewBalance  float64  `json:"newBalance"`
	Timestamp   int64    `json:"timestamp"`
}

type PlayerLeftPayload struct {
	PlayerID  string `json:"playerId"`
	Timestamp int64  `json:"timestamp"`
}

type RoomFullPayload struct {
	Message        string `json:"message"`
	CurrentPlayers int    `json:"currentPlayers"`
	MaxPlayers     int    `json:"maxPlayers"`
}

type LeaderboardEntry struct {
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
	Kills    int     `json:"kills"`
	Length   int     `json:"length"`
}
