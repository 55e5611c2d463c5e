package network

// Event names shared by both directions: the client sends its own
// update/kill claims and the server relays them (with the sender id
// added) to the rest of the room.
const (
	EventJoinGame          = "joinGame"
	EventPlayerUpdate      = "playerUpdate"
	EventPlayerStateUpdate = "playerStateUpdate"
	EventPlayerKilled      = "playerKilled"
	EventPlayerRespawn     = "playerRespawn"
)

// Outbound-only event names (server -> room).
const (
	EventGameState         = "gameState"
	EventPlayerJoined      = "playerJoined"
	EventBalanceUpdate     = "balanceUpdate"
	EventPlayerRespawned   = "playerRespawned"
	EventPlayerLeft        = "playerLeft"
	EventRoomFull          = "roomFull"
	EventLeaderboardUpdate = "leaderboardUpdate"
)
