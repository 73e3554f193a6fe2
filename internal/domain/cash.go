package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MovementKind classifies a cash movement.
type MovementKind string

const (
	MovementIncome  MovementKind = "income"
	MovementExpense MovementKind = "expense"
)

// CashMovement is one entry in the cash ledger. Check-outs produce income
// movements asynchronously via the job queue.
type CashMovement struct {
	ID          string
	Kind        MovementKind
	Description string
	Amount      decimal.Decimal
	OccurredAt  time.Time
}
