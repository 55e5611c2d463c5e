// services/ledger.go
package services

import (
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/models"
	"github.com/wfunc/arena/persistence"
)

// Ledger writes currency movements to the persistence collaborator
// without blocking the protocol handler. Implements game.TransactionSink.
type Ledger struct {
	db persistence.Database
}

func NewLedger(db persistence.Database) *Ledger {
	return &Ledger{db: db}
}

func (l *Ledger) RecordKill(killerID, victimID string, amount float64) {
	go l.record(&models.Transaction{
		PlayerID:       killerID,
		CounterpartyID: victimID,
		Amount:         amount,
		Source:         "kill",
	})
}

func (l *Ledger) RecordRespawn(playerID string, discarded float64) {
	go l.record(&models.Transaction{
		PlayerID: playerID,
		Amount:   -discarded,
		Source:   "respawn",
	})
}

func (l *Ledger) record(tx *models.Transaction) {
	if err := l.db.RecordTransaction(tx); err != nil {
		logger.Log.Errorf("Failed to record %s transaction for %s: %v", tx.Source, tx.PlayerID, err)
	}
}
