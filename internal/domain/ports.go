package domain

import "context"

// BillingReader is the read side of the billing engine. Reads outside an
// atomic group may observe a slightly stale but always internally-consistent
// snapshot; partial writes are never visible.
type BillingReader interface {
	Room(ctx context.Context, id string) (Room, error)
	Operation(ctx context.Context, id string) (Operation, error)
	// ActiveStay returns the active operation joined to its room's rate
	// card. A closed or missing operation reports ErrOperationNotFound.
	ActiveStay(ctx context.Context, operationID string) (BillableStay, error)
	Product(ctx context.Context, id string) (Product, error)
	ConsumptionLines(ctx context.Context, operationID string) ([]ConsumptionLine, error)
	ActiveOperations(ctx context.Context) ([]ActiveOperation, error)
}

// BillingTx is the set of writes available inside an atomic group, plus the
// reads needed to validate preconditions against the transactional view.
type BillingTx interface {
	BillingReader

	InsertOperation(ctx context.Context, op Operation) error
	UpdateRoomStatus(ctx context.Context, roomID string, status RoomStatus) error
	InsertConsumption(ctx context.Context, line ConsumptionLine) error
	// DebitStock checks and decrements stock as a single atomic step
	// relative to the product row. It returns InsufficientStockError
	// without writing when stock is short, even if a stale read passed.
	DebitStock(ctx context.Context, productID string, quantity int64) error
	AddProductsCost(ctx context.Context, op Operation, line ConsumptionLine) error
	CloseOperation(ctx context.Context, op Operation) error
}

// BillingStore is the transactional persistence contract for the billing
// engine: reads plus the coordinator for multi-table mutations.
type BillingStore interface {
	BillingReader

	// RunAtomic executes fn against a transactional view of storage.
	// Either all of fn's writes commit or none do. Concurrent calls
	// sharing any key are serialized; disjoint keys proceed in parallel.
	// The error from fn is propagated unchanged after rollback.
	RunAtomic(ctx context.Context, keys []string, fn func(tx BillingTx) error) error
}

// RoomTypeRepository defines the persistence contract for rate cards.
type RoomTypeRepository interface {
	Create(ctx context.Context, rt RoomType) error
	Get(ctx context.Context, id string) (RoomType, error)
	List(ctx context.Context) ([]RoomType, error)
	Update(ctx context.Context, rt RoomType) error
}

// RoomRepository defines the persistence contract for rooms.
type RoomRepository interface {
	Create(ctx context.Context, room Room) error
	Get(ctx context.Context, id string) (Room, error)
	List(ctx context.Context) ([]Room, error)
	Update(ctx context.Context, room Room) error
}

// ProductRepository defines the persistence contract for the product catalog.
type ProductRepository interface {
	Create(ctx context.Context, p Product) error
	Get(ctx context.Context, id string) (Product, error)
	ListActive(ctx context.Context) ([]Product, error)
	Update(ctx context.Context, p Product) error
	Deactivate(ctx context.Context, id string) error
	// RecordIntake persists a supply delivery and increments stock for
	// every line atomically.
	RecordIntake(ctx context.Context, intake SupplyIntake) error
}

// CashLedger records cash movements produced by completed stays.
type CashLedger interface {
	RecordMovement(ctx context.Context, m CashMovement) error
}

// TransitionValidator checks room status transitions against the domain
// transition table.
type TransitionValidator interface {
	Apply(ctx context.Context, current RoomStatus, event Event) (RoomStatus, error)
}

// EventPublisher defines the contract for emitting stay events.
type EventPublisher interface {
	Publish(ctx context.Context, event StayEvent, op Operation) error
}
