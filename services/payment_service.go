// services/payment_service.go
package services

import (
	"context"
	"fmt"

	"github.com/wfunc/arena/game"
	"github.com/wfunc/arena/logger"
	"github.com/wfunc/arena/models"
	"github.com/wfunc/arena/persistence"
)

// PaymentVerifier checks whether a matching payment exists for the given
// amount across the candidate wallet addresses. The actual chain lookup
// is not this repository's business.
type PaymentVerifier interface {
	Verify(ctx context.Context, amount float64, candidateAddresses []string) (bool, error)
}

// PaymentService credits verified top-ups onto a live player's balance.
type PaymentService struct {
	verifier PaymentVerifier
	store    *game.Store
	db       persistence.Database
}

func NewPaymentService(verifier PaymentVerifier, store *game.Store, db persistence.Database) *PaymentService {
	return &PaymentService{
		verifier: verifier,
		store:    store,
		db:       db,
	}
}

// CreditTopUp verifies the payment and, if found, credits the player.
// The verify call suspends; the room may have changed by the time it
// resolves, so presence is re-checked only afterwards and a vanished
// player simply gets nothing credited.
func (s *PaymentService) CreditTopUp(ctx context.Context, roomKey, playerID string, amount float64, addresses []string) error {
	if amount <= 0 {
		return fmt.Errorf("top-up amount must be positive, got %v", amount)
	}

	found, err := s.verifier.Verify(ctx, amount, addresses)
	if err != nil {
		return fmt.Errorf("verify payment of %v: %w", amount, err)
	}
	if !found {
		return fmt.Errorf("no matching payment found for %v", amount)
	}

	newBalance, ok := s.store.AddMoney(roomKey, playerID, amount)
	if !ok {
		return fmt.Errorf("player %s no longer in room %s, payment not credited", playerID, roomKey)
	}
	logger.Log.Infof("Credited %v to player %s (balance %v)", amount, playerID, newBalance)

	if err := s.db.RecordTransaction(&models.Transaction{
		PlayerID: playerID,
		Amount:   amount,
		Source:   "topup",
	}); err != nil {
		// The credit already happened; losing the ledger row is degraded
		// bookkeeping, not a protocol failure.
		logger.Log.Errorf("Failed to record top-up transaction for %s: %v", playerID, err)
	}
	return nil
}
