// game/player.go
package game

import (
	"math"
	"math/rand"
	"strings"
	"time"
)

// Kind separates real players from bots. Bots never take part in the
// money economy. The tag is derived once, at join time, from the "bot_"
// id prefix the bot runner uses.
type Kind int

const (
	KindPlayer Kind = iota
	KindBot
)

const botIDPrefix = "bot_"

// KindFromID classifies a connection id.
func KindFromID(id string) Kind {
	if strings.HasPrefix(id, botIDPrefix) {
		return KindBot
	}
	return KindPlayer
}

// Position is a point in the arena plane.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Valid reports whether both coordinates are finite numbers.
func (p Position) Valid() bool {
	return !math.IsNaN(p.X) && !math.IsInf(p.X, 0) &&
		!math.IsNaN(p.Y) && !math.IsInf(p.Y, 0)
}

// PlayerState is the authoritative record of one in-game entity.
type PlayerState struct {
	ID         string     `json:"id"`
	Username   string     `json:"username"`
	Kind       Kind       `json:"-"`
	Head       Position   `json:"head"`
	Direction  float64    `json:"direction"`
	Speed      float64    `json:"speed"`
	Length     int        `json:"length"`
	Color      string     `json:"color"`
	Segments   []Position `json:"segments,omitempty"`
	IsBoosting bool       `json:"isBoosting"`
	Money      float64    `json:"money"`
	Kills      int        `json:"kills"`
	LastUpdate time.Time  `json:"-"`
}

// Settings holds the tunable simulation constants. Zero values are
// replaced with the documented defaults so tests can use Settings{}.
type Settings struct {
	RoomCapacity  int
	ArenaSize     float64
	StartingMoney float64
	InitialLength int
}

const (
	DefaultRoomCapacity  = 80
	DefaultArenaSize     = 4000.0
	DefaultStartingMoney = 1.00
	DefaultInitialLength = 10
	DefaultInitialSpeed  = 1.0

	spawnRadiusFactor = 0.4
)

func (s Settings) withDefaults() Settings {
	if s.RoomCapacity <= 0 {
		s.RoomCapacity = DefaultRoomCapacity
	}
	if s.ArenaSize <= 0 {
		s.ArenaSize = DefaultArenaSize
	}
	if s.StartingMoney <= 0 {
		s.StartingMoney = DefaultStartingMoney
	}
	if s.InitialLength <= 0 {
		s.InitialLength = DefaultInitialLength
	}
	return s
}

// SpawnPoint samples a spawn position within a disk of radius
// 0.4*ArenaSize around the arena center. The radius itself is drawn
// uniformly, so spawns cluster toward the center; clients depend on this
// distribution, do not switch to area-uniform sampling.
func (s Settings) SpawnPoint() Position {
	center := s.ArenaSize / 2
	radius := rand.Float64() * spawnRadiusFactor * s.ArenaSize
	angle := rand.Float64() * 2 * math.Pi
	return Position{
		X: center + radius*math.Cos(angle),
		Y: center + radius*math.Sin(angle),
	}
}

// RandomDirection returns a uniformly random heading in radians.
func RandomDirection() float64 {
	return rand.Float64() * 2 * math.Pi
}

var colorPalette = []string{
	"#e6194b", "#3cb44b", "#ffe119", "#4363d8", "#f58231",
	"#911eb4", "#46f0f0", "#f032e6", "#bcf60c", "#fabebe",
}

func randomColor() string {
	return colorPalette[rand.Intn(len(colorPalette))]
}

// NewPlayerState builds the initial state for a freshly joined connection.
func NewPlayerState(id, username, color string, settings Settings) *PlayerState {
	settings = settings.withDefaults()
	return &PlayerState{
		ID:         id,
		Username:   username,
		Kind:       KindFromID(id),
		Head:       settings.SpawnPoint(),
		Direction:  RandomDirection(),
		Speed:      DefaultInitialSpeed,
		Length:     settings.InitialLength,
		Color:      color,
		Money:      settings.StartingMoney,
		LastUpdate: time.Now(),
	}
}

// reset puts a player back to its initial constants at a fresh spawn
// point. Any accumulated balance is discarded.
func (p *PlayerState) reset(settings Settings) {
	settings = settings.withDefaults()
	p.Head = settings.SpawnPoint()
	p.Direction = RandomDirection()
	p.Speed = DefaultInitialSpeed
	p.Length = settings.InitialLength
	p.Segments = nil
	p.IsBoosting = false
	p.Money = settings.StartingMoney
	p.Kills = 0
	p.LastUpdate = time.Now()
}

// clone returns a value copy safe to hand to broadcast marshalling.
func (p *PlayerState) clone() PlayerState {
	cp := *p
	if p.Segments != nil {
		cp.Segments = make([]Position, len(p.Segments))
		copy(cp.Segments, p.Segments)
	}
	return cp
}
