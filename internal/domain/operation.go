package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OperationStatus represents the lifecycle state of a stay.
type OperationStatus string

const (
	OperationActive OperationStatus = "active"
	OperationClosed OperationStatus = "closed"
)

// Operation is a single room stay from check-in to check-out. It is owned
// exclusively by the billing engine while active and immutable once closed.
type Operation struct {
	ID           string
	RoomID       string
	CheckIn      time.Time
	CheckOut     *time.Time
	StayCost     decimal.Decimal
	ProductsCost decimal.Decimal
	TotalCost    decimal.Decimal
	Status       OperationStatus
}

// NewOperation creates an active operation with zeroed costs.
func NewOperation(id, roomID string, checkIn time.Time) Operation {
	return Operation{
		ID:           id,
		RoomID:       roomID,
		CheckIn:      checkIn,
		StayCost:     decimal.Zero,
		ProductsCost: decimal.Zero,
		TotalCost:    decimal.Zero,
		Status:       OperationActive,
	}
}

// ConsumptionLine is one recorded sale of a product during a stay.
// UnitPrice is snapshotted at consumption time, independent of later
// catalog price changes.
type ConsumptionLine struct {
	ID          string
	OperationID string
	ProductID   string
	// ProductName is denormalized from the catalog on reads for display.
	ProductName string
	UnitPrice   decimal.Decimal
	Quantity    int64
	Subtotal    decimal.Decimal
}

// BillableStay is an active operation joined to its room's rate card,
// everything check-out and mid-stay quoting need in one read.
type BillableStay struct {
	Operation     Operation
	RoomNumber    string
	BasePrice     decimal.Decimal
	HalfHourPrice *decimal.Decimal
	NightPrice    decimal.Decimal
}

// ActiveOperation is a list item for the active-operations view.
type ActiveOperation struct {
	Operation
	RoomNumber string
}

// Receipt is the result of a completed check-out.
type Receipt struct {
	OperationID    string
	ElapsedMinutes int64
	ExtraBlocks    int64
	StayCost       decimal.Decimal
	ProductsCost   decimal.Decimal
	TotalCost      decimal.Decimal
}

// RunningSummary is a read-only mid-stay quote. Producing one never
// transitions state.
type RunningSummary struct {
	OperationID    string
	RoomNumber     string
	CheckIn        time.Time
	ElapsedMinutes int64
	ExtraBlocks    int64
	StayCost       decimal.Decimal
	ProductsCost   decimal.Decimal
	TotalCost      decimal.Decimal
	Lines          []ConsumptionLine
}

// StayEvent represents a billing lifecycle event emitted to the async queue.
type StayEvent string

const (
	StayCheckedIn  StayEvent = "stay.checked_in"
	StayCheckedOut StayEvent = "stay.checked_out"
)
