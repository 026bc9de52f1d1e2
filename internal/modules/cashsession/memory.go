package cashsession

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore implements the session, collection and deposit repositories
// in memory. It backs dev/demo mode (no DATABASE_URL) and the test suite.
// All access is guarded by one mutex; entities are copied on the way in and
// out so callers can never mutate stored state directly.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[uuid.UUID]*CashSession
	collections map[uuid.UUID][]*CashCollection
	deposits    map[uuid.UUID]*BankDeposit
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    map[uuid.UUID]*CashSession{},
		collections: map[uuid.UUID][]*CashCollection{},
		deposits:    map[uuid.UUID]*BankDeposit{},
	}
}

func cloneSession(s *CashSession) *CashSession {
	c := *s
	if s.ExpectedCash != nil {
		v := *s.ExpectedCash
		c.ExpectedCash = &v
	}
	if s.ActualCash != nil {
		v := *s.ActualCash
		c.ActualCash = &v
	}
	if s.Variance != nil {
		v := *s.Variance
		c.Variance = &v
	}
	if s.VariancePercentage != nil {
		v := *s.VariancePercentage
		c.VariancePercentage = &v
	}
	if s.ApprovedBy != nil {
		v := *s.ApprovedBy
		c.ApprovedBy = &v
	}
	if s.ClosedAt != nil {
		v := *s.ClosedAt
		c.ClosedAt = &v
	}
	if s.ApprovedAt != nil {
		v := *s.ApprovedAt
		c.ApprovedAt = &v
	}
	return &c
}

// ── SessionRepository ─────────────────────────────────────────────────────────

func (m *MemoryStore) Create(ctx context.Context, s *CashSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	now := time.Now().UTC()
	s.CreatedAt = now
	s.UpdatedAt = now
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

func (m *MemoryStore) GetByID(ctx context.Context, id uuid.UUID) (*CashSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return cloneSession(s), nil
}

func (m *MemoryStore) List(ctx context.Context, f SessionFilter) ([]*CashSession, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*CashSession
	for _, s := range m.sessions {
		if f.Status != "" && s.Status != f.Status {
			continue
		}
		if f.AgentID != "" && s.AgentID.String() != f.AgentID {
			continue
		}
		if !f.From.IsZero() && s.SessionDate.Before(f.From) {
			continue
		}
		if !f.To.IsZero() && s.SessionDate.After(f.To) {
			continue
		}
		out = append(out, cloneSession(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OpenedAt.After(out[j].OpenedAt) })
	return out, nil
}

func (m *MemoryStore) Update(ctx context.Context, s *CashSession) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[s.ID]; !ok {
		return fmt.Errorf("session %s: %w", s.ID, ErrNotFound)
	}
	s.UpdatedAt = time.Now().UTC()
	m.sessions[s.ID] = cloneSession(s)
	return nil
}

// ── CollectionRepository ──────────────────────────────────────────────────────

func (m *MemoryStore) Append(ctx context.Context, c *CashCollection) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[c.SessionID]
	if !ok {
		return fmt.Errorf("session %s: %w", c.SessionID, ErrNotFound)
	}
	// The status check and the append are one atomic unit under the store
	// mutex; a closed session never gains an entry.
	if session.Status != StatusOpen {
		return fmt.Errorf("%w: session is %s", ErrInvalidSessionState, session.Status)
	}
	copied := *c
	m.collections[c.SessionID] = append(m.collections[c.SessionID], &copied)
	return nil
}

func (m *MemoryStore) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*CashCollection, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	entries := m.collections[sessionID]
	out := make([]*CashCollection, 0, len(entries))
	for _, c := range entries {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

// ── DepositRepository ─────────────────────────────────────────────────────────

// DepositLedger adapts the store to the DepositRepository interface; the
// method set would otherwise collide with the collection ledger's.
type DepositLedger struct {
	store *MemoryStore
}

// Deposits returns the deposit-ledger view of the store.
func (m *MemoryStore) Deposits() *DepositLedger {
	return &DepositLedger{store: m}
}

func (l *DepositLedger) Append(ctx context.Context, d *BankDeposit) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	if _, ok := l.store.sessions[d.SessionID]; !ok {
		return fmt.Errorf("session %s: %w", d.SessionID, ErrNotFound)
	}
	copied := *d
	copied.CreatedAt = time.Now().UTC()
	l.store.deposits[d.ID] = &copied
	d.CreatedAt = copied.CreatedAt
	return nil
}

func (l *DepositLedger) GetByID(ctx context.Context, id uuid.UUID) (*BankDeposit, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	d, ok := l.store.deposits[id]
	if !ok {
		return nil, fmt.Errorf("deposit %s: %w", id, ErrNotFound)
	}
	copied := *d
	return &copied, nil
}

func (l *DepositLedger) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*BankDeposit, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	var out []*BankDeposit
	for _, d := range l.store.deposits {
		if d.SessionID == sessionID {
			copied := *d
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepositDate.Before(out[j].DepositDate) })
	return out, nil
}

func (l *DepositLedger) ListByDateRange(ctx context.Context, from, to time.Time) ([]*BankDeposit, error) {
	l.store.mu.RLock()
	defer l.store.mu.RUnlock()
	var out []*BankDeposit
	for _, d := range l.store.deposits {
		if !from.IsZero() && d.DepositDate.Before(from) {
			continue
		}
		if !to.IsZero() && d.DepositDate.After(to) {
			continue
		}
		copied := *d
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DepositDate.Before(out[j].DepositDate) })
	return out, nil
}

func (l *DepositLedger) UpdateStatus(ctx context.Context, id uuid.UUID, status DepositStatus) error {
	l.store.mu.Lock()
	defer l.store.mu.Unlock()
	d, ok := l.store.deposits[id]
	if !ok {
		return fmt.Errorf("deposit %s: %w", id, ErrNotFound)
	}
	d.Status = status
	return nil
}
