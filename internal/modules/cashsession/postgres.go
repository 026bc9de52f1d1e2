package cashsession

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ── Sessions ──────────────────────────────────────────────────────────────────

type sessionPostgresRepo struct{ db *sql.DB }

// NewSessionPostgresRepository creates the PostgreSQL session repository.
func NewSessionPostgresRepository(db *sql.DB) SessionRepository {
	return &sessionPostgresRepo{db: db}
}

const selectSessionSQL = `
	SELECT id, agent_id, agent_name, session_date, opening_float, status,
	       expected_cash, actual_cash, variance, variance_percentage,
	       opening_notes, closing_notes, approval_notes, approved_by,
	       opened_at, closed_at, approved_at, created_at, updated_at
	FROM cash_sessions`

type rowScanner interface{ Scan(dest ...interface{}) error }

func scanSession(row rowScanner) (*CashSession, error) {
	s := &CashSession{}
	var (
		expected, actual, variance, pct decimal.NullDecimal
		approvedBy                      uuid.NullUUID
		closedAt, approvedAt            sql.NullTime
	)
	err := row.Scan(
		&s.ID, &s.AgentID, &s.AgentName, &s.SessionDate, &s.OpeningFloat, &s.Status,
		&expected, &actual, &variance, &pct,
		&s.OpeningNotes, &s.ClosingNotes, &s.ApprovalNotes, &approvedBy,
		&s.OpenedAt, &closedAt, &approvedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if expected.Valid {
		s.ExpectedCash = &expected.Decimal
	}
	if actual.Valid {
		s.ActualCash = &actual.Decimal
	}
	if variance.Valid {
		s.Variance = &variance.Decimal
	}
	if pct.Valid {
		s.VariancePercentage = &pct.Decimal
	}
	if approvedBy.Valid {
		s.ApprovedBy = &approvedBy.UUID
	}
	if closedAt.Valid {
		s.ClosedAt = &closedAt.Time
	}
	if approvedAt.Valid {
		s.ApprovedAt = &approvedAt.Time
	}
	return s, nil
}

func (r *sessionPostgresRepo) Create(ctx context.Context, s *CashSession) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO cash_sessions
		  (id, agent_id, agent_name, session_date, opening_float, status,
		   opening_notes, opened_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		s.ID, s.AgentID, s.AgentName, s.SessionDate, s.OpeningFloat, s.Status,
		s.OpeningNotes, s.OpenedAt)
	return err
}

func (r *sessionPostgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*CashSession, error) {
	s, err := scanSession(r.db.QueryRowContext(ctx, selectSessionSQL+" WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("session %s: %w", id, ErrNotFound)
	}
	return s, err
}

func (r *sessionPostgresRepo) List(ctx context.Context, f SessionFilter) ([]*CashSession, error) {
	query := selectSessionSQL + " WHERE 1=1"
	var args []interface{}
	if f.Status != "" {
		args = append(args, f.Status)
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	if f.AgentID != "" {
		args = append(args, f.AgentID)
		query += fmt.Sprintf(" AND agent_id = $%d", len(args))
	}
	if !f.From.IsZero() {
		args = append(args, f.From)
		query += fmt.Sprintf(" AND session_date >= $%d", len(args))
	}
	if !f.To.IsZero() {
		args = append(args, f.To)
		query += fmt.Sprintf(" AND session_date <= $%d", len(args))
	}
	query += " ORDER BY opened_at DESC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*CashSession
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *sessionPostgresRepo) Update(ctx context.Context, s *CashSession) error {
	var (
		expected, actual, variance, pct decimal.NullDecimal
		approvedBy                      uuid.NullUUID
		closedAt, approvedAt            sql.NullTime
	)
	if s.ExpectedCash != nil {
		expected = decimal.NullDecimal{Decimal: *s.ExpectedCash, Valid: true}
	}
	if s.ActualCash != nil {
		actual = decimal.NullDecimal{Decimal: *s.ActualCash, Valid: true}
	}
	if s.Variance != nil {
		variance = decimal.NullDecimal{Decimal: *s.Variance, Valid: true}
	}
	if s.VariancePercentage != nil {
		pct = decimal.NullDecimal{Decimal: *s.VariancePercentage, Valid: true}
	}
	if s.ApprovedBy != nil {
		approvedBy = uuid.NullUUID{UUID: *s.ApprovedBy, Valid: true}
	}
	if s.ClosedAt != nil {
		closedAt = sql.NullTime{Time: *s.ClosedAt, Valid: true}
	}
	if s.ApprovedAt != nil {
		approvedAt = sql.NullTime{Time: *s.ApprovedAt, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		UPDATE cash_sessions
		SET status=$1, expected_cash=$2, actual_cash=$3, variance=$4,
		    variance_percentage=$5, closing_notes=$6, approval_notes=$7,
		    approved_by=$8, closed_at=$9, approved_at=$10, updated_at=$11
		WHERE id=$12`,
		s.Status, expected, actual, variance, pct,
		s.ClosingNotes, s.ApprovalNotes, approvedBy, closedAt, approvedAt,
		time.Now().UTC(), s.ID)
	return err
}

// ── Collections ───────────────────────────────────────────────────────────────

type collectionPostgresRepo struct{ db *sql.DB }

// NewCollectionPostgresRepository creates the PostgreSQL collection ledger.
func NewCollectionPostgresRepository(db *sql.DB) CollectionRepository {
	return &collectionPostgresRepo{db: db}
}

// Append inserts a ledger entry inside a transaction that locks the owning
// session row. The status check and the insert are one atomic unit, so a
// concurrent close can never race an append into a closed session.
func (r *collectionPostgresRepo) Append(ctx context.Context, c *CashCollection) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var status SessionStatus
	err = tx.QueryRowContext(ctx,
		`SELECT status FROM cash_sessions WHERE id = $1 FOR UPDATE`, c.SessionID).Scan(&status)
	if err == sql.ErrNoRows {
		return fmt.Errorf("session %s: %w", c.SessionID, ErrNotFound)
	}
	if err != nil {
		return err
	}
	if status != StatusOpen {
		return fmt.Errorf("%w: session is %s", ErrInvalidSessionState, status)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO cash_collections
		  (id, session_id, order_id, customer_id, customer_name, amount,
		   payment_method, collected_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		c.ID, c.SessionID, c.OrderID, c.CustomerID, c.CustomerName, c.Amount,
		c.PaymentMethod, c.CollectedAt)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (r *collectionPostgresRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*CashCollection, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, session_id, order_id, customer_id, customer_name, amount,
		       payment_method, collected_at
		FROM cash_collections
		WHERE session_id = $1
		ORDER BY collected_at`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var collections []*CashCollection
	for rows.Next() {
		c := &CashCollection{}
		if err := rows.Scan(
			&c.ID, &c.SessionID, &c.OrderID, &c.CustomerID, &c.CustomerName,
			&c.Amount, &c.PaymentMethod, &c.CollectedAt,
		); err != nil {
			return nil, err
		}
		collections = append(collections, c)
	}
	return collections, rows.Err()
}

// ── Deposits ──────────────────────────────────────────────────────────────────

type depositPostgresRepo struct{ db *sql.DB }

// NewDepositPostgresRepository creates the PostgreSQL deposit ledger.
func NewDepositPostgresRepository(db *sql.DB) DepositRepository {
	return &depositPostgresRepo{db: db}
}

const selectDepositSQL = `
	SELECT id, session_id, amount, bank_name, reference_number, deposit_date,
	       status, created_at
	FROM bank_deposits`

func scanDeposit(row rowScanner) (*BankDeposit, error) {
	d := &BankDeposit{}
	err := row.Scan(
		&d.ID, &d.SessionID, &d.Amount, &d.BankName, &d.ReferenceNumber,
		&d.DepositDate, &d.Status, &d.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return d, nil
}

func (r *depositPostgresRepo) Append(ctx context.Context, d *BankDeposit) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO bank_deposits
		  (id, session_id, amount, bank_name, reference_number, deposit_date, status)
		VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		d.ID, d.SessionID, d.Amount, d.BankName, d.ReferenceNumber,
		d.DepositDate, d.Status)
	return err
}

func (r *depositPostgresRepo) GetByID(ctx context.Context, id uuid.UUID) (*BankDeposit, error) {
	d, err := scanDeposit(r.db.QueryRowContext(ctx, selectDepositSQL+" WHERE id = $1", id))
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("deposit %s: %w", id, ErrNotFound)
	}
	return d, err
}

func (r *depositPostgresRepo) ListBySession(ctx context.Context, sessionID uuid.UUID) ([]*BankDeposit, error) {
	return r.list(ctx, selectDepositSQL+" WHERE session_id = $1 ORDER BY deposit_date", sessionID)
}

func (r *depositPostgresRepo) ListByDateRange(ctx context.Context, from, to time.Time) ([]*BankDeposit, error) {
	query := selectDepositSQL + " WHERE 1=1"
	var args []interface{}
	if !from.IsZero() {
		args = append(args, from)
		query += fmt.Sprintf(" AND deposit_date >= $%d", len(args))
	}
	if !to.IsZero() {
		args = append(args, to)
		query += fmt.Sprintf(" AND deposit_date <= $%d", len(args))
	}
	return r.list(ctx, query+" ORDER BY deposit_date", args...)
}

func (r *depositPostgresRepo) list(ctx context.Context, query string, args ...interface{}) ([]*BankDeposit, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var deposits []*BankDeposit
	for rows.Next() {
		d, err := scanDeposit(rows)
		if err != nil {
			return nil, err
		}
		deposits = append(deposits, d)
	}
	return deposits, rows.Err()
}

func (r *depositPostgresRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status DepositStatus) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE bank_deposits SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("deposit %s: %w", id, ErrNotFound)
	}
	return nil
}
