package river

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/riverqueue/river"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// Compile-time check: Publisher implements domain.EventPublisher.
var _ domain.EventPublisher = (*Publisher)(nil)

// StayEventArgs carries the data needed to process a stay event
// asynchronously. River serializes this as JSON into its job queue table.
// It includes a snapshot of the operation at publish time, so the worker
// never needs to query the operations table.
type StayEventArgs struct {
	Event        string `json:"event"`
	OperationID  string `json:"operation_id"`
	RoomID       string `json:"room_id"`
	CheckIn      string `json:"check_in"`
	CheckOut     string `json:"check_out,omitempty"`
	StayCost     string `json:"stay_cost"`
	ProductsCost string `json:"products_cost"`
	TotalCost    string `json:"total_cost"`
}

// Kind returns the unique job type identifier used by River's job routing.
func (StayEventArgs) Kind() string { return "stay.event" }

// Client is the River client type parameterized for SQLite (*sql.Tx).
type Client = river.Client[*sql.Tx]

// Publisher implements domain.EventPublisher by enqueuing River jobs.
type Publisher struct {
	client *Client
}

// NewPublisher creates a publisher backed by the given River client.
func NewPublisher(client *Client) *Publisher {
	return &Publisher{client: client}
}

const timeFormat = "2006-01-02T15:04:05Z"

// Publish enqueues a stay event as an async job in River.
func (p *Publisher) Publish(ctx context.Context, event domain.StayEvent, op domain.Operation) error {
	args := StayEventArgs{
		Event:        string(event),
		OperationID:  op.ID,
		RoomID:       op.RoomID,
		CheckIn:      op.CheckIn.Format(timeFormat),
		StayCost:     op.StayCost.String(),
		ProductsCost: op.ProductsCost.String(),
		TotalCost:    op.TotalCost.String(),
	}
	if op.CheckOut != nil {
		args.CheckOut = op.CheckOut.Format(timeFormat)
	}

	if _, err := p.client.Insert(ctx, args, nil); err != nil {
		return fmt.Errorf("enqueuing stay event job: %w", err)
	}
	return nil
}
