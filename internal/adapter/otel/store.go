package otel

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

const tracerName = "github.com/neomorfeo/aquamotel/internal/adapter/otel"

// TracingStore wraps a domain.BillingStore with OpenTelemetry tracing.
// Each method creates a span with semantic attributes and records errors.
// RunAtomic spans carry the lock keys so contention is visible in traces.
type TracingStore struct {
	next   domain.BillingStore
	tracer trace.Tracer
}

// Compile-time check: TracingStore implements domain.BillingStore.
var _ domain.BillingStore = (*TracingStore)(nil)

// NewTracingStore creates a tracing decorator around the given store.
func NewTracingStore(next domain.BillingStore) *TracingStore {
	return &TracingStore{
		next:   next,
		tracer: otel.Tracer(tracerName),
	}
}

func (s *TracingStore) RunAtomic(ctx context.Context, keys []string, fn func(tx domain.BillingTx) error) error {
	ctx, span := s.tracer.Start(ctx, "BillingStore.RunAtomic",
		trace.WithAttributes(attribute.String("atomic.keys", strings.Join(keys, ","))),
	)
	defer span.End()

	err := s.next.RunAtomic(ctx, keys, fn)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return err
}

func (s *TracingStore) Room(ctx context.Context, id string) (domain.Room, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.Room",
		trace.WithAttributes(attribute.String("room.id", id)),
	)
	defer span.End()

	room, err := s.next.Room(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return room, err
}

func (s *TracingStore) Operation(ctx context.Context, id string) (domain.Operation, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.Operation",
		trace.WithAttributes(attribute.String("operation.id", id)),
	)
	defer span.End()

	op, err := s.next.Operation(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return op, err
}

func (s *TracingStore) ActiveStay(ctx context.Context, operationID string) (domain.BillableStay, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.ActiveStay",
		trace.WithAttributes(attribute.String("operation.id", operationID)),
	)
	defer span.End()

	stay, err := s.next.ActiveStay(ctx, operationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return stay, err
}

func (s *TracingStore) Product(ctx context.Context, id string) (domain.Product, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.Product",
		trace.WithAttributes(attribute.String("product.id", id)),
	)
	defer span.End()

	p, err := s.next.Product(ctx, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return p, err
}

func (s *TracingStore) ConsumptionLines(ctx context.Context, operationID string) ([]domain.ConsumptionLine, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.ConsumptionLines",
		trace.WithAttributes(attribute.String("operation.id", operationID)),
	)
	defer span.End()

	lines, err := s.next.ConsumptionLines(ctx, operationID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(lines)))
	}
	return lines, err
}

func (s *TracingStore) ActiveOperations(ctx context.Context) ([]domain.ActiveOperation, error) {
	ctx, span := s.tracer.Start(ctx, "BillingStore.ActiveOperations")
	defer span.End()

	ops, err := s.next.ActiveOperations(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Int("result.count", len(ops)))
	}
	return ops, err
}
