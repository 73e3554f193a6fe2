package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product is a consumable sold during stays. The billing engine only ever
// debits Stock; name, price and activation belong to the catalog.
type Product struct {
	ID        string
	Name      string
	Cost      decimal.Decimal
	UnitPrice decimal.Decimal
	Stock     int64
	Active    bool
}

// SupplyIntake is a supplier delivery that replenishes product stock.
type SupplyIntake struct {
	ID         string
	ReceivedAt time.Time
	TotalCost  decimal.Decimal
	Lines      []SupplyLine
}

// SupplyLine is one product position within a supply intake.
type SupplyLine struct {
	ID        string
	IntakeID  string
	ProductID string
	Quantity  int64
	UnitCost  decimal.Decimal
	Subtotal  decimal.Decimal
}
