package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// CashLedger implements domain.CashLedger using SQLite.
type CashLedger struct {
	db *sql.DB
}

// Compile-time check: CashLedger implements domain.CashLedger.
var _ domain.CashLedger = (*CashLedger)(nil)

// NewCashLedger creates a cash ledger sharing the store's connection.
func NewCashLedger(s *Store) *CashLedger {
	return &CashLedger{db: s.db}
}

func (l *CashLedger) RecordMovement(ctx context.Context, m domain.CashMovement) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO cash_movements (id, kind, description, amount, occurred_at)
		 VALUES (?, ?, ?, ?, ?)`,
		m.ID, string(m.Kind), m.Description, m.Amount.String(), m.OccurredAt.Format(timeFormat),
	)
	if err != nil {
		return fmt.Errorf("inserting cash movement: %w", err)
	}
	return nil
}

// Movements returns the ledger in reverse chronological order.
func (l *CashLedger) Movements(ctx context.Context) ([]domain.CashMovement, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, kind, description, amount, occurred_at
		 FROM cash_movements ORDER BY occurred_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("listing cash movements: %w", err)
	}
	defer rows.Close()

	var movements []domain.CashMovement
	for rows.Next() {
		var m domain.CashMovement
		var kind, amount, occurredAt string

		if err := rows.Scan(&m.ID, &kind, &m.Description, &amount, &occurredAt); err != nil {
			return nil, fmt.Errorf("scanning cash movement: %w", err)
		}
		m.Kind = domain.MovementKind(kind)
		if m.OccurredAt, err = parseTime(occurredAt); err != nil {
			return nil, err
		}
		if m.Amount, err = parseDecimal(amount); err != nil {
			return nil, err
		}
		movements = append(movements, m)
	}

	return movements, rows.Err()
}
