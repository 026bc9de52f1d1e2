package cashsession

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// SessionRepository defines data access for cash sessions. Sessions are
// never deleted, only superseded by status.
type SessionRepository interface {
	Create(ctx context.Context, s *CashSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*CashSession, error)
	List(ctx context.Context, f SessionFilter) ([]*CashSession, error)
	Update(ctx context.Context, s *CashSession) error
}

// CollectionRepository is the append-only collection ledger. Append must
// refuse entries for sessions that are no longer open; implementations make
// the status check and the insert a single atomic unit.
type CollectionRepository interface {
	Append(ctx context.Context, c *CashCollection) error
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*CashCollection, error)
}

// DepositRepository is the append-only bank deposit ledger. Only a
// deposit's bank-side status ever changes after the fact.
type DepositRepository interface {
	Append(ctx context.Context, d *BankDeposit) error
	GetByID(ctx context.Context, id uuid.UUID) (*BankDeposit, error)
	ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*BankDeposit, error)
	ListByDateRange(ctx context.Context, from, to time.Time) ([]*BankDeposit, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status DepositStatus) error
}
