package game

// Notifier delivers outbound events. It is an interface here so the
// mutation path can be exercised in tests without a live transport, and
// to break the import cycle with the broadcast package.
type Notifier interface {
	ToRoom(roomKey, event string, payload interface{})
	ToRoomExcept(roomKey, exceptID, event string, payload interface{})
	ToSession(sessionID, event string, payload interface{})
}

// TransactionSink receives currency movements for out-of-band logging.
// Implementations must not block the caller; failures are theirs to log.
type TransactionSink interface {
	RecordKill(killerID, victimID string, amount float64)
	RecordRespawn(playerID string, discarded float64)
}
