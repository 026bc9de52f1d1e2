package cashsession

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SessionStatus represents the lifecycle state of a cash session.
type SessionStatus string

const (
	StatusOpen     SessionStatus = "open"
	StatusClosed   SessionStatus = "closed"
	StatusApproved SessionStatus = "approved"
	StatusRejected SessionStatus = "rejected"
)

// validTransitions defines the allowed status state machine. Approved and
// rejected are terminal; nothing ever returns to open.
var validTransitions = map[SessionStatus][]SessionStatus{
	StatusOpen:     {StatusClosed},
	StatusClosed:   {StatusApproved, StatusRejected},
	StatusApproved: {},
	StatusRejected: {},
}

// CanTransition returns true if the session transition is valid.
func CanTransition(current, next SessionStatus) bool {
	allowed, ok := validTransitions[current]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == next {
			return true
		}
	}
	return false
}

// PaymentMethod represents how a collection was paid.
type PaymentMethod string

const (
	MethodCash        PaymentMethod = "cash"
	MethodMobileMoney PaymentMethod = "mobile_money"
)

// DepositStatus represents the bank-side state of a deposit.
type DepositStatus string

const (
	DepositPending   DepositStatus = "pending"
	DepositConfirmed DepositStatus = "confirmed"
	DepositRejected  DepositStatus = "rejected"
)

// CashSession is one agent's cash-handling period, from opening float to
// close and approval. The expected/actual/variance fields are nil while the
// session is open; CloseSession sets them once and they never change again,
// even after approval or rejection.
type CashSession struct {
	ID                 uuid.UUID        `json:"id"`
	AgentID            uuid.UUID        `json:"agent_id"`
	AgentName          string           `json:"agent_name"`
	SessionDate        time.Time        `json:"session_date"`
	OpeningFloat       decimal.Decimal  `json:"opening_float"`
	Status             SessionStatus    `json:"status"`
	ExpectedCash       *decimal.Decimal `json:"expected_cash,omitempty"`
	ActualCash         *decimal.Decimal `json:"actual_cash,omitempty"`
	Variance           *decimal.Decimal `json:"variance,omitempty"`
	VariancePercentage *decimal.Decimal `json:"variance_percentage,omitempty"`
	OpeningNotes       string           `json:"opening_notes,omitempty"`
	ClosingNotes       string           `json:"closing_notes,omitempty"`
	ApprovalNotes      string           `json:"approval_notes,omitempty"`
	ApprovedBy         *uuid.UUID       `json:"approved_by,omitempty"`
	OpenedAt           time.Time        `json:"opened_at"`
	ClosedAt           *time.Time       `json:"closed_at,omitempty"`
	ApprovedAt         *time.Time       `json:"approved_at,omitempty"`
	CreatedAt          time.Time        `json:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at"`
}

// CashCollection is one cash or mobile-money payment recorded against an
// order during an open session. Collections are append-only and immutable.
type CashCollection struct {
	ID            uuid.UUID       `json:"id"`
	SessionID     uuid.UUID       `json:"session_id"`
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CollectedAt   time.Time       `json:"collected_at"`
}

// BankDeposit is a bank-side deposit of session proceeds. Deposits never
// feed the variance calculation; they exist for downstream bank
// reconciliation only.
type BankDeposit struct {
	ID              uuid.UUID       `json:"id"`
	SessionID       uuid.UUID       `json:"session_id"`
	Amount          decimal.Decimal `json:"amount"`
	BankName        string          `json:"bank_name"`
	ReferenceNumber string          `json:"reference_number"`
	DepositDate     time.Time       `json:"deposit_date"`
	Status          DepositStatus   `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
}

// ── Request/Response DTOs ─────────────────────────────────────────────────────

// StartSessionRequest is the payload for opening a cash session.
type StartSessionRequest struct {
	AgentID      string          `json:"agent_id"`
	OpeningFloat decimal.Decimal `json:"opening_float"`
	Notes        string          `json:"notes,omitempty"`
}

// RecordCollectionRequest is the payload for appending a collection to an
// open session.
type RecordCollectionRequest struct {
	OrderID       string          `json:"order_id"`
	CustomerID    string          `json:"customer_id,omitempty"`
	CustomerName  string          `json:"customer_name,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"` // cash | mobile_money
}

// CloseSessionRequest is the payload for closing a session with the counted
// cash.
type CloseSessionRequest struct {
	ActualCash decimal.Decimal `json:"actual_cash"`
	Notes      string          `json:"notes,omitempty"`
}

// DecisionRequest is the payload for approving or rejecting a closed
// session's variance.
type DecisionRequest struct {
	ApprovedBy string `json:"approved_by,omitempty"` // fallback when no auth context
	Notes      string `json:"notes,omitempty"`
}

// RecordDepositRequest is the payload for attributing a bank deposit to a
// session.
type RecordDepositRequest struct {
	Amount          decimal.Decimal `json:"amount"`
	BankName        string          `json:"bank_name"`
	ReferenceNumber string          `json:"reference_number"`
	DepositDate     time.Time       `json:"deposit_date"`
}

// UpdateDepositStatusRequest is the payload for the bank-side confirmation
// step.
type UpdateDepositStatusRequest struct {
	Status string `json:"status"` // confirmed | rejected
}

// SessionFilter narrows ListSessions. Zero values mean "no constraint".
type SessionFilter struct {
	Status  SessionStatus
	AgentID string
	From    time.Time
	To      time.Time
}

// SessionDetail is a session plus the ledger totals the detail pages show.
type SessionDetail struct {
	*CashSession
	TotalCollected   decimal.Decimal `json:"total_collected"`
	CashCount        int             `json:"cash_count"`
	CashTotal        decimal.Decimal `json:"cash_total"`
	MobileMoneyCount int             `json:"mobile_money_count"`
	MobileMoneyTotal decimal.Decimal `json:"mobile_money_total"`
}
