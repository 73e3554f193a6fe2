package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// BillingService orchestrates the occupancy and billing lifecycle: check-in,
// product consumption, check-out, and read-only stay summaries.
type BillingService struct {
	store     domain.BillingStore
	validator domain.TransitionValidator
	publisher domain.EventPublisher
	now       func() time.Time
}

// NewBillingService creates a service with the given adapters.
func NewBillingService(store domain.BillingStore, validator domain.TransitionValidator, publisher domain.EventPublisher) *BillingService {
	return &BillingService{
		store:     store,
		validator: validator,
		publisher: publisher,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Mutations touching the same room or the same operation are serialized by
// scoping the atomic unit to these keys.
func roomKey(id string) string      { return "room:" + id }
func operationKey(id string) string { return "operation:" + id }

// CheckIn opens a stay on a free room and returns the new operation id.
// The operation insert and the room status change commit atomically.
func (s *BillingService) CheckIn(ctx context.Context, roomID string) (string, error) {
	var created domain.Operation

	err := s.store.RunAtomic(ctx, []string{roomKey(roomID)}, func(tx domain.BillingTx) error {
		room, err := tx.Room(ctx, roomID)
		if err != nil {
			return err
		}

		next, err := s.validator.Apply(ctx, room.Status, domain.EventCheckIn)
		if err != nil {
			var trErr *domain.TransitionError
			if errors.As(err, &trErr) {
				return &domain.RoomUnavailableError{Number: room.Number, Status: room.Status}
			}
			return err
		}

		id, err := domain.NewID()
		if err != nil {
			return fmt.Errorf("generating operation id: %w", err)
		}

		op := domain.NewOperation(id, roomID, s.now())
		if err := tx.InsertOperation(ctx, op); err != nil {
			return err
		}
		if err := tx.UpdateRoomStatus(ctx, roomID, next); err != nil {
			return err
		}

		created = op
		return nil
	})
	if err != nil {
		return "", err
	}

	if err := s.publisher.Publish(ctx, domain.StayCheckedIn, created); err != nil {
		return "", fmt.Errorf("publishing check-in event: %w", err)
	}

	return created.ID, nil
}

// AddConsumption records a product sale against an active operation. The
// line insert, the stock debit and the running products cost update commit
// atomically; if any precondition fails nothing is written.
func (s *BillingService) AddConsumption(ctx context.Context, operationID, productID string, quantity int64) error {
	if quantity <= 0 {
		return &domain.InvalidQuantityError{Quantity: quantity}
	}

	return s.store.RunAtomic(ctx, []string{operationKey(operationID)}, func(tx domain.BillingTx) error {
		op, err := tx.Operation(ctx, operationID)
		if err != nil {
			return err
		}
		if op.Status != domain.OperationActive {
			return &domain.OperationClosedError{ID: operationID}
		}

		product, err := tx.Product(ctx, productID)
		if err != nil {
			return err
		}
		if !product.Active {
			return domain.ErrProductNotFound
		}
		if product.Stock < quantity {
			return &domain.InsufficientStockError{
				Product:   product.Name,
				Requested: quantity,
				Available: product.Stock,
			}
		}

		// The stock check above can go stale under concurrent consumption
		// from other operations; DebitStock re-checks atomically.
		if err := tx.DebitStock(ctx, productID, quantity); err != nil {
			return err
		}

		id, err := domain.NewID()
		if err != nil {
			return fmt.Errorf("generating consumption id: %w", err)
		}

		line := domain.ConsumptionLine{
			ID:          id,
			OperationID: operationID,
			ProductID:   productID,
			ProductName: product.Name,
			UnitPrice:   product.UnitPrice,
			Quantity:    quantity,
			Subtotal:    product.UnitPrice.Mul(decimal.NewFromInt(quantity)),
		}
		if err := tx.InsertConsumption(ctx, line); err != nil {
			return err
		}

		return tx.AddProductsCost(ctx, op, line)
	})
}

// CheckOut closes an active stay: it evaluates the pricing formula at the
// current time, fixes the operation's costs, and frees the room. A second
// check-out on the same operation fails with ErrOperationNotFound and
// alters nothing.
func (s *BillingService) CheckOut(ctx context.Context, operationID string) (domain.Receipt, error) {
	// Resolve the room outside the lock so the atomic unit can be scoped
	// to both the operation and its room.
	stay, err := s.store.ActiveStay(ctx, operationID)
	if err != nil {
		return domain.Receipt{}, err
	}

	var receipt domain.Receipt
	var closed domain.Operation

	keys := []string{roomKey(stay.Operation.RoomID), operationKey(operationID)}
	err = s.store.RunAtomic(ctx, keys, func(tx domain.BillingTx) error {
		// Re-read under the lock; the stay may have closed in between.
		stay, err := tx.ActiveStay(ctx, operationID)
		if err != nil {
			return err
		}

		now := s.now()
		quote := domain.PriceStay(stay.Operation.CheckIn, now, stay.BasePrice, stay.HalfHourPrice)

		op := stay.Operation
		op.CheckOut = &now
		op.StayCost = quote.StayCost
		op.TotalCost = quote.StayCost.Add(op.ProductsCost)
		op.Status = domain.OperationClosed

		if err := tx.CloseOperation(ctx, op); err != nil {
			return err
		}

		next, err := s.validator.Apply(ctx, domain.RoomOccupied, domain.EventCheckOut)
		if err != nil {
			return err
		}
		if err := tx.UpdateRoomStatus(ctx, op.RoomID, next); err != nil {
			return err
		}

		receipt = domain.Receipt{
			OperationID:    op.ID,
			ElapsedMinutes: quote.ElapsedMinutes,
			ExtraBlocks:    quote.ExtraBlocks,
			StayCost:       op.StayCost,
			ProductsCost:   op.ProductsCost,
			TotalCost:      op.TotalCost,
		}
		closed = op
		return nil
	})
	if err != nil {
		return domain.Receipt{}, err
	}

	if err := s.publisher.Publish(ctx, domain.StayCheckedOut, closed); err != nil {
		return domain.Receipt{}, fmt.Errorf("publishing check-out event: %w", err)
	}

	return receipt, nil
}

// GetRunningSummary evaluates the pricing formula against the current time
// for an active stay without mutating anything, for mid-stay quoting.
func (s *BillingService) GetRunningSummary(ctx context.Context, operationID string) (domain.RunningSummary, error) {
	var stay domain.BillableStay
	var lines []domain.ConsumptionLine

	// The stay and its lines are read in one atomic unit so a concurrent
	// consumption cannot land between the two reads and skew the totals.
	err := s.store.RunAtomic(ctx, []string{operationKey(operationID)}, func(tx domain.BillingTx) error {
		var err error
		if stay, err = tx.ActiveStay(ctx, operationID); err != nil {
			return err
		}
		lines, err = tx.ConsumptionLines(ctx, operationID)
		return err
	})
	if err != nil {
		return domain.RunningSummary{}, err
	}

	quote := domain.PriceStay(stay.Operation.CheckIn, s.now(), stay.BasePrice, stay.HalfHourPrice)

	return domain.RunningSummary{
		OperationID:    stay.Operation.ID,
		RoomNumber:     stay.RoomNumber,
		CheckIn:        stay.Operation.CheckIn,
		ElapsedMinutes: quote.ElapsedMinutes,
		ExtraBlocks:    quote.ExtraBlocks,
		StayCost:       quote.StayCost,
		ProductsCost:   stay.Operation.ProductsCost,
		TotalCost:      quote.StayCost.Add(stay.Operation.ProductsCost),
		Lines:          lines,
	}, nil
}

// ListActiveOperations returns all currently open stays.
func (s *BillingService) ListActiveOperations(ctx context.Context) ([]domain.ActiveOperation, error) {
	return s.store.ActiveOperations(ctx)
}
