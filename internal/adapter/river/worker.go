package river

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/riverqueue/river"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// StayEventWorker processes stay event jobs from the River queue. Every
// event is logged; a check-out additionally records an income movement in
// the cash ledger for the operation total.
type StayEventWorker struct {
	river.WorkerDefaults[StayEventArgs]

	ledger domain.CashLedger
}

// NewStayEventWorker creates a worker writing to the given cash ledger.
func NewStayEventWorker(ledger domain.CashLedger) *StayEventWorker {
	return &StayEventWorker{ledger: ledger}
}

// Work processes a single stay event job.
func (w *StayEventWorker) Work(ctx context.Context, job *river.Job[StayEventArgs]) error {
	slog.InfoContext(ctx, "processing stay event",
		"event", job.Args.Event,
		"operation_id", job.Args.OperationID,
		"room_id", job.Args.RoomID,
		"total_cost", job.Args.TotalCost,
		"job_id", job.ID,
		"attempt", job.Attempt,
	)

	if domain.StayEvent(job.Args.Event) != domain.StayCheckedOut {
		return nil
	}

	amount, err := decimal.NewFromString(job.Args.TotalCost)
	if err != nil {
		return fmt.Errorf("parsing total cost %q: %w", job.Args.TotalCost, err)
	}

	id, err := domain.NewID()
	if err != nil {
		return fmt.Errorf("generating movement id: %w", err)
	}

	occurredAt := time.Now().UTC()
	if t, err := time.Parse(timeFormat, job.Args.CheckOut); err == nil {
		occurredAt = t
	}

	movement := domain.CashMovement{
		ID:          id,
		Kind:        domain.MovementIncome,
		Description: "stay " + job.Args.OperationID,
		Amount:      amount,
		OccurredAt:  occurredAt,
	}
	if err := w.ledger.RecordMovement(ctx, movement); err != nil {
		return fmt.Errorf("recording cash movement: %w", err)
	}
	return nil
}
