package cashsession

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/chandab/vansales-backend/internal/money"
	"github.com/chandab/vansales-backend/internal/modules/user"
)

// Service defines cash-session business logic. Every mutation of a session
// or its ledgers goes through here; nothing mutates the entities directly.
type Service interface {
	StartSession(ctx context.Context, req StartSessionRequest) (*CashSession, error)
	GetSession(ctx context.Context, id string) (*SessionDetail, error)
	ListSessions(ctx context.Context, f SessionFilter) ([]*CashSession, error)

	RecordCollection(ctx context.Context, sessionID string, req RecordCollectionRequest) (*CashCollection, error)
	ListCollections(ctx context.Context, sessionID string) ([]*CashCollection, error)
	TotalCollected(ctx context.Context, sessionID string) (decimal.Decimal, error)
	CollectionsByMethod(ctx context.Context, sessionID string, method PaymentMethod) (int, decimal.Decimal, error)

	CloseSession(ctx context.Context, sessionID string, req CloseSessionRequest) (*CashSession, error)
	ApproveVariance(ctx context.Context, sessionID, approverID, notes string) (*CashSession, error)
	RejectVariance(ctx context.Context, sessionID, approverID, notes string) (*CashSession, error)

	RecordDeposit(ctx context.Context, sessionID string, req RecordDepositRequest) (*BankDeposit, error)
	ListDeposits(ctx context.Context, sessionID string) ([]*BankDeposit, error)
	ListDepositsInRange(ctx context.Context, from, to time.Time) ([]*BankDeposit, error)
	UpdateDepositStatus(ctx context.Context, depositID string, req UpdateDepositStatusRequest) (*BankDeposit, error)
}

type service struct {
	sessions    SessionRepository
	collections CollectionRepository
	deposits    DepositRepository
	users       user.Repository

	// locks serializes RecordCollection and CloseSession per session so the
	// close cannot read the ledger while an append is in flight. Entries are
	// one *sync.Mutex per session id.
	locks sync.Map
}

// NewService creates a new cash-session service.
func NewService(sessions SessionRepository, collections CollectionRepository, deposits DepositRepository, users user.Repository) Service {
	return &service{
		sessions:    sessions,
		collections: collections,
		deposits:    deposits,
		users:       users,
	}
}

func (s *service) sessionLock(id uuid.UUID) *sync.Mutex {
	mu, _ := s.locks.LoadOrStore(id, &sync.Mutex{})
	return mu.(*sync.Mutex)
}

func (s *service) StartSession(ctx context.Context, req StartSessionRequest) (*CashSession, error) {
	agentID, err := uuid.Parse(req.AgentID)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid agent_id", ErrNotFound)
	}
	if req.OpeningFloat.IsNegative() {
		return nil, fmt.Errorf("%w: opening_float must not be negative", ErrInvalidAmount)
	}

	agent, err := s.users.GetUserByID(ctx, agentID.String())
	if err != nil {
		return nil, fmt.Errorf("%w: agent %s", ErrNotFound, req.AgentID)
	}

	now := time.Now().UTC()
	session := &CashSession{
		ID:           uuid.New(),
		AgentID:      agentID,
		AgentName:    agent.FullName(),
		SessionDate:  now.Truncate(24 * time.Hour),
		OpeningFloat: req.OpeningFloat,
		Status:       StatusOpen,
		OpeningNotes: req.Notes,
		OpenedAt:     now,
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, err
	}
	return s.load(ctx, session.ID)
}

func (s *service) GetSession(ctx context.Context, id string) (*SessionDetail, error) {
	session, err := s.getSession(ctx, id)
	if err != nil {
		return nil, err
	}

	collections, err := s.collections.ListBySession(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{CashSession: session}
	for _, c := range collections {
		detail.TotalCollected = money.Add(detail.TotalCollected, c.Amount)
		switch c.PaymentMethod {
		case MethodCash:
			detail.CashCount++
			detail.CashTotal = money.Add(detail.CashTotal, c.Amount)
		case MethodMobileMoney:
			detail.MobileMoneyCount++
			detail.MobileMoneyTotal = money.Add(detail.MobileMoneyTotal, c.Amount)
		}
	}
	return detail, nil
}

func (s *service) ListSessions(ctx context.Context, f SessionFilter) ([]*CashSession, error) {
	return s.sessions.List(ctx, f)
}

func (s *service) RecordCollection(ctx context.Context, sessionID string, req RecordCollectionRequest) (*CashCollection, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: collection amount must be positive", ErrInvalidAmount)
	}
	method := PaymentMethod(strings.ToLower(req.PaymentMethod))
	if method != MethodCash && method != MethodMobileMoney {
		return nil, fmt.Errorf("invalid payment_method: %s", req.PaymentMethod)
	}
	if req.OrderID == "" {
		return nil, fmt.Errorf("order_id is required")
	}

	mu := s.sessionLock(session.ID)
	mu.Lock()
	defer mu.Unlock()

	// Re-read under the lock: a concurrent close may have flipped the
	// status since the first read.
	session, err = s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Status != StatusOpen {
		return nil, fmt.Errorf("%w: cannot record collection on %s session", ErrInvalidSessionState, session.Status)
	}

	collection := &CashCollection{
		ID:            uuid.New(),
		SessionID:     session.ID,
		OrderID:       req.OrderID,
		CustomerID:    req.CustomerID,
		CustomerName:  req.CustomerName,
		Amount:        req.Amount,
		PaymentMethod: method,
		CollectedAt:   time.Now().UTC(),
	}

	if err := s.collections.Append(ctx, collection); err != nil {
		return nil, err
	}
	return collection, nil
}

func (s *service) ListCollections(ctx context.Context, sessionID string) ([]*CashCollection, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.collections.ListBySession(ctx, session.ID)
}

// TotalCollected recomputes the session total from the ledger on every
// call. There is deliberately no cached running counter to fall out of sync
// with the append-only ledger.
func (s *service) TotalCollected(ctx context.Context, sessionID string) (decimal.Decimal, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.totalCollected(ctx, session.ID)
}

func (s *service) totalCollected(ctx context.Context, sessionID uuid.UUID) (decimal.Decimal, error) {
	collections, err := s.collections.ListBySession(ctx, sessionID)
	if err != nil {
		return decimal.Zero, err
	}
	total := decimal.Zero
	for _, c := range collections {
		total = money.Add(total, c.Amount)
	}
	return total, nil
}

func (s *service) CollectionsByMethod(ctx context.Context, sessionID string, method PaymentMethod) (int, decimal.Decimal, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	collections, err := s.collections.ListBySession(ctx, session.ID)
	if err != nil {
		return 0, decimal.Zero, err
	}
	count := 0
	total := decimal.Zero
	for _, c := range collections {
		if c.PaymentMethod == method {
			count++
			total = money.Add(total, c.Amount)
		}
	}
	return count, total, nil
}

func (s *service) CloseSession(ctx context.Context, sessionID string, req CloseSessionRequest) (*CashSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if req.ActualCash.IsNegative() {
		return nil, fmt.Errorf("%w: actual_cash must not be negative", ErrInvalidAmount)
	}

	mu := s.sessionLock(session.ID)
	mu.Lock()
	defer mu.Unlock()

	session, err = s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if !CanTransition(session.Status, StatusClosed) {
		return nil, fmt.Errorf("%w: cannot close %s session", ErrInvalidSessionState, session.Status)
	}

	totalCollected, err := s.totalCollected(ctx, session.ID)
	if err != nil {
		return nil, err
	}

	expected := money.Add(session.OpeningFloat, totalCollected)
	actual := req.ActualCash
	variance := money.Sub(actual, expected)
	// When expected is zero the percentage reports 0 even for a nonzero
	// variance amount; reporting relies on this.
	pct := money.PercentageOf(variance, expected)

	now := time.Now().UTC()
	session.Status = StatusClosed
	session.ExpectedCash = &expected
	session.ActualCash = &actual
	session.Variance = &variance
	session.VariancePercentage = &pct
	session.ClosingNotes = req.Notes
	session.ClosedAt = &now

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return s.load(ctx, session.ID)
}

func (s *service) ApproveVariance(ctx context.Context, sessionID, approverID, notes string) (*CashSession, error) {
	return s.decide(ctx, sessionID, approverID, notes, StatusApproved)
}

func (s *service) RejectVariance(ctx context.Context, sessionID, approverID, notes string) (*CashSession, error) {
	return s.decide(ctx, sessionID, approverID, notes, StatusRejected)
}

func (s *service) decide(ctx context.Context, sessionID, approverID, notes string, next SessionStatus) (*CashSession, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	approver, err := uuid.Parse(approverID)
	if err != nil {
		return nil, fmt.Errorf("invalid approver id: %s", approverID)
	}

	mu := s.sessionLock(session.ID)
	mu.Lock()
	defer mu.Unlock()

	session, err = s.sessions.GetByID(ctx, session.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	// A second decision on an already-decided session fails; one audit
	// trail per session.
	if !CanTransition(session.Status, next) {
		return nil, fmt.Errorf("%w: cannot move %s session to %s", ErrInvalidSessionState, session.Status, next)
	}

	now := time.Now().UTC()
	session.Status = next
	session.ApprovedBy = &approver
	session.ApprovalNotes = notes
	session.ApprovedAt = &now

	if err := s.sessions.Update(ctx, session); err != nil {
		return nil, err
	}
	return s.load(ctx, session.ID)
}

func (s *service) RecordDeposit(ctx context.Context, sessionID string, req RecordDepositRequest) (*BankDeposit, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, fmt.Errorf("%w: deposit amount must be positive", ErrInvalidAmount)
	}
	if req.BankName == "" || req.ReferenceNumber == "" {
		return nil, fmt.Errorf("bank_name and reference_number are required")
	}

	depositDate := req.DepositDate
	if depositDate.IsZero() {
		depositDate = time.Now().UTC()
	}

	deposit := &BankDeposit{
		ID:              uuid.New(),
		SessionID:       session.ID,
		Amount:          req.Amount,
		BankName:        req.BankName,
		ReferenceNumber: req.ReferenceNumber,
		DepositDate:     depositDate,
		Status:          DepositPending,
	}

	if err := s.deposits.Append(ctx, deposit); err != nil {
		return nil, err
	}
	return deposit, nil
}

func (s *service) ListDeposits(ctx context.Context, sessionID string) ([]*BankDeposit, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return s.deposits.ListBySession(ctx, session.ID)
}

func (s *service) ListDepositsInRange(ctx context.Context, from, to time.Time) ([]*BankDeposit, error) {
	return s.deposits.ListByDateRange(ctx, from, to)
}

func (s *service) UpdateDepositStatus(ctx context.Context, depositID string, req UpdateDepositStatusRequest) (*BankDeposit, error) {
	id, err := uuid.Parse(depositID)
	if err != nil {
		return nil, fmt.Errorf("%w: deposit %s", ErrNotFound, depositID)
	}
	deposit, err := s.deposits.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: deposit %s", ErrNotFound, depositID)
	}

	next := DepositStatus(strings.ToLower(req.Status))
	if next != DepositConfirmed && next != DepositRejected {
		return nil, fmt.Errorf("invalid deposit status: %s", req.Status)
	}
	if deposit.Status != DepositPending {
		return nil, fmt.Errorf("%w: deposit already %s", ErrInvalidSessionState, deposit.Status)
	}

	if err := s.deposits.UpdateStatus(ctx, id, next); err != nil {
		return nil, err
	}
	deposit.Status = next
	return deposit, nil
}

// ── helpers ───────────────────────────────────────────────────────────────────

func (s *service) getSession(ctx context.Context, id string) (*CashSession, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	session, err := s.sessions.GetByID(ctx, parsed)
	if err != nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, id)
	}
	return session, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*CashSession, error) {
	return s.sessions.GetByID(ctx, id)
}
