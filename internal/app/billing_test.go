package app_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/app"
	"github.com/neomorfeo/aquamotel/internal/domain"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// fakeStore is an in-memory BillingStore. RunAtomic holds a single lock for
// the whole group, so concurrent groups are fully serialized.
type fakeStore struct {
	mu         sync.Mutex
	rooms      map[string]domain.Room
	roomTypes  map[string]domain.RoomType
	operations map[string]domain.Operation
	products   map[string]domain.Product
	lines      map[string][]domain.ConsumptionLine
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:      make(map[string]domain.Room),
		roomTypes:  make(map[string]domain.RoomType),
		operations: make(map[string]domain.Operation),
		products:   make(map[string]domain.Product),
		lines:      make(map[string][]domain.ConsumptionLine),
	}
}

func (s *fakeStore) room(id string) (domain.Room, error) {
	r, ok := s.rooms[id]
	if !ok {
		return domain.Room{}, domain.ErrRoomNotFound
	}
	return r, nil
}

func (s *fakeStore) operation(id string) (domain.Operation, error) {
	op, ok := s.operations[id]
	if !ok {
		return domain.Operation{}, domain.ErrOperationNotFound
	}
	return op, nil
}

func (s *fakeStore) activeStay(operationID string) (domain.BillableStay, error) {
	op, ok := s.operations[operationID]
	if !ok || op.Status != domain.OperationActive {
		return domain.BillableStay{}, domain.ErrOperationNotFound
	}
	room := s.rooms[op.RoomID]
	rt := s.roomTypes[room.RoomTypeID]
	return domain.BillableStay{
		Operation:     op,
		RoomNumber:    room.Number,
		BasePrice:     rt.BasePrice,
		HalfHourPrice: rt.HalfHourPrice,
		NightPrice:    rt.NightPrice,
	}, nil
}

func (s *fakeStore) product(id string) (domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, domain.ErrProductNotFound
	}
	return p, nil
}

func (s *fakeStore) Room(_ context.Context, id string) (domain.Room, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.room(id)
}

func (s *fakeStore) Operation(_ context.Context, id string) (domain.Operation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.operation(id)
}

func (s *fakeStore) ActiveStay(_ context.Context, operationID string) (domain.BillableStay, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeStay(operationID)
}

func (s *fakeStore) Product(_ context.Context, id string) (domain.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.product(id)
}

func (s *fakeStore) ConsumptionLines(_ context.Context, operationID string) ([]domain.ConsumptionLine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.ConsumptionLine(nil), s.lines[operationID]...), nil
}

func (s *fakeStore) ActiveOperations(_ context.Context) ([]domain.ActiveOperation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.ActiveOperation
	for _, op := range s.operations {
		if op.Status != domain.OperationActive {
			continue
		}
		out = append(out, domain.ActiveOperation{
			Operation:  op,
			RoomNumber: s.rooms[op.RoomID].Number,
		})
	}
	return out, nil
}

func (s *fakeStore) RunAtomic(_ context.Context, _ []string, fn func(tx domain.BillingTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&fakeTx{s: s})
}

// fakeTx operates on the store maps while RunAtomic holds the lock. Tests
// that need rollback-on-error semantics assert preconditions fail before any
// write happens, which matches how the services order their calls.
type fakeTx struct {
	s *fakeStore
}

func (t *fakeTx) Room(_ context.Context, id string) (domain.Room, error) {
	return t.s.room(id)
}

func (t *fakeTx) Operation(_ context.Context, id string) (domain.Operation, error) {
	return t.s.operation(id)
}

func (t *fakeTx) ActiveStay(_ context.Context, operationID string) (domain.BillableStay, error) {
	return t.s.activeStay(operationID)
}

func (t *fakeTx) Product(_ context.Context, id string) (domain.Product, error) {
	return t.s.product(id)
}

func (t *fakeTx) ConsumptionLines(_ context.Context, operationID string) ([]domain.ConsumptionLine, error) {
	return append([]domain.ConsumptionLine(nil), t.s.lines[operationID]...), nil
}

func (t *fakeTx) ActiveOperations(_ context.Context) ([]domain.ActiveOperation, error) {
	return nil, nil
}

func (t *fakeTx) InsertOperation(_ context.Context, op domain.Operation) error {
	for _, existing := range t.s.operations {
		if existing.RoomID == op.RoomID && existing.Status == domain.OperationActive {
			room := t.s.rooms[op.RoomID]
			return &domain.RoomUnavailableError{Number: room.Number, Status: room.Status}
		}
	}
	t.s.operations[op.ID] = op
	return nil
}

func (t *fakeTx) UpdateRoomStatus(_ context.Context, roomID string, status domain.RoomStatus) error {
	room, ok := t.s.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Status = status
	t.s.rooms[roomID] = room
	return nil
}

func (t *fakeTx) InsertConsumption(_ context.Context, line domain.ConsumptionLine) error {
	t.s.lines[line.OperationID] = append(t.s.lines[line.OperationID], line)
	return nil
}

func (t *fakeTx) DebitStock(_ context.Context, productID string, quantity int64) error {
	p, ok := t.s.products[productID]
	if !ok {
		return domain.ErrProductNotFound
	}
	if p.Stock < quantity {
		return &domain.InsufficientStockError{Product: p.Name, Requested: quantity, Available: p.Stock}
	}
	p.Stock -= quantity
	t.s.products[productID] = p
	return nil
}

func (t *fakeTx) AddProductsCost(_ context.Context, op domain.Operation, line domain.ConsumptionLine) error {
	stored := t.s.operations[op.ID]
	stored.ProductsCost = stored.ProductsCost.Add(line.Subtotal)
	t.s.operations[op.ID] = stored
	return nil
}

func (t *fakeTx) CloseOperation(_ context.Context, op domain.Operation) error {
	stored, ok := t.s.operations[op.ID]
	if !ok || stored.Status != domain.OperationActive {
		return domain.ErrOperationNotFound
	}
	t.s.operations[op.ID] = op
	return nil
}

// recordingPublisher collects published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []domain.StayEvent
	ops    []domain.Operation
}

func (p *recordingPublisher) Publish(_ context.Context, event domain.StayEvent, op domain.Operation) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	p.ops = append(p.ops, op)
	return nil
}

// tableValidator applies the domain transition table directly.
type tableValidator struct{}

func (tableValidator) Apply(_ context.Context, current domain.RoomStatus, event domain.Event) (domain.RoomStatus, error) {
	for _, tr := range domain.Transitions {
		if tr.Event == event && tr.Src == current {
			return tr.Dst, nil
		}
	}
	return "", &domain.TransitionError{Event: event, Current: current}
}

func seedRoom(s *fakeStore, roomID, number, basePrice, halfHourPrice string) {
	rtID := "rt-" + roomID
	rt := domain.RoomType{ID: rtID, Name: "standard", BasePrice: dec(basePrice), NightPrice: dec("100")}
	if halfHourPrice != "" {
		rt.HalfHourPrice = decPtr(halfHourPrice)
	}
	s.roomTypes[rtID] = rt
	s.rooms[roomID] = domain.Room{ID: roomID, Number: number, RoomTypeID: rtID, Status: domain.RoomFree}
}

func newBillingService(s *fakeStore) (*app.BillingService, *recordingPublisher) {
	pub := &recordingPublisher{}
	return app.NewBillingService(s, tableValidator{}, pub), pub
}

func TestCheckIn_OpensOperationAndOccupiesRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	svc, pub := newBillingService(store)

	opID, err := svc.CheckIn(context.Background(), "r1")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if opID == "" {
		t.Fatal("expected a non-empty operation id")
	}

	op := store.operations[opID]
	if op.Status != domain.OperationActive {
		t.Errorf("operation status = %q, want %q", op.Status, domain.OperationActive)
	}
	if store.rooms["r1"].Status != domain.RoomOccupied {
		t.Errorf("room status = %q, want %q", store.rooms["r1"].Status, domain.RoomOccupied)
	}
	if len(pub.events) != 1 || pub.events[0] != domain.StayCheckedIn {
		t.Errorf("published events = %v, want [%s]", pub.events, domain.StayCheckedIn)
	}
}

func TestCheckIn_OccupiedRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	svc, _ := newBillingService(store)

	if _, err := svc.CheckIn(context.Background(), "r1"); err != nil {
		t.Fatalf("first CheckIn: %v", err)
	}

	_, err := svc.CheckIn(context.Background(), "r1")
	var unavailErr *domain.RoomUnavailableError
	if !errors.As(err, &unavailErr) {
		t.Fatalf("expected RoomUnavailableError, got %v", err)
	}
	if unavailErr.Number != "101" {
		t.Errorf("number = %q, want %q", unavailErr.Number, "101")
	}
	if len(store.operations) != 1 {
		t.Errorf("got %d operations, want 1", len(store.operations))
	}
}

func TestCheckIn_RoomNotFound(t *testing.T) {
	store := newFakeStore()
	svc, _ := newBillingService(store)

	_, err := svc.CheckIn(context.Background(), "missing")
	if !errors.Is(err, domain.ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got %v", err)
	}
}

func TestCheckIn_CleaningRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	room := store.rooms["r1"]
	room.Status = domain.RoomCleaning
	store.rooms["r1"] = room
	svc, _ := newBillingService(store)

	_, err := svc.CheckIn(context.Background(), "r1")
	var unavailErr *domain.RoomUnavailableError
	if !errors.As(err, &unavailErr) {
		t.Fatalf("expected RoomUnavailableError, got %v", err)
	}
	if unavailErr.Status != domain.RoomCleaning {
		t.Errorf("status = %q, want %q", unavailErr.Status, domain.RoomCleaning)
	}
}

func TestCheckIn_ConcurrentSameRoom(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	svc, _ := newBillingService(store)

	const attempts = 8
	errs := make(chan error, attempts)
	var wg sync.WaitGroup
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.CheckIn(context.Background(), "r1")
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var succeeded, unavailable int
	for err := range errs {
		switch {
		case err == nil:
			succeeded++
		default:
			var unavailErr *domain.RoomUnavailableError
			if !errors.As(err, &unavailErr) {
				t.Errorf("unexpected error: %v", err)
				continue
			}
			unavailable++
		}
	}
	if succeeded != 1 {
		t.Errorf("got %d successful check-ins, want exactly 1", succeeded)
	}
	if unavailable != attempts-1 {
		t.Errorf("got %d unavailable errors, want %d", unavailable, attempts-1)
	}
	if len(store.operations) != 1 {
		t.Errorf("got %d operations, want 1", len(store.operations))
	}
}

func seedProduct(s *fakeStore, id, name, unitPrice string, stock int64) {
	s.products[id] = domain.Product{
		ID: id, Name: name, Cost: dec("1"), UnitPrice: dec(unitPrice), Stock: stock, Active: true,
	}
}

func TestAddConsumption_RecordsLineAndDebitsStock(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	seedProduct(store, "p1", "soda", "2.50", 10)
	svc, _ := newBillingService(store)

	opID, err := svc.CheckIn(context.Background(), "r1")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	if err := svc.AddConsumption(context.Background(), opID, "p1", 3); err != nil {
		t.Fatalf("AddConsumption: %v", err)
	}

	if got := store.products["p1"].Stock; got != 7 {
		t.Errorf("stock = %d, want 7", got)
	}
	lines := store.lines[opID]
	if len(lines) != 1 {
		t.Fatalf("got %d lines, want 1", len(lines))
	}
	if !lines[0].Subtotal.Equal(dec("7.50")) {
		t.Errorf("subtotal = %s, want 7.50", lines[0].Subtotal)
	}
	if !lines[0].UnitPrice.Equal(dec("2.50")) {
		t.Errorf("unit price = %s, want 2.50", lines[0].UnitPrice)
	}
	if !store.operations[opID].ProductsCost.Equal(dec("7.50")) {
		t.Errorf("products cost = %s, want 7.50", store.operations[opID].ProductsCost)
	}
}

func TestAddConsumption_ProductsCostAccumulates(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	seedProduct(store, "p1", "soda", "2.50", 10)
	seedProduct(store, "p2", "snack", "4", 10)
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	if err := svc.AddConsumption(context.Background(), opID, "p1", 2); err != nil {
		t.Fatalf("first consumption: %v", err)
	}
	if err := svc.AddConsumption(context.Background(), opID, "p2", 1); err != nil {
		t.Fatalf("second consumption: %v", err)
	}

	// Sum of line subtotals must match the running products cost.
	var sum decimal.Decimal
	for _, l := range store.lines[opID] {
		sum = sum.Add(l.Subtotal)
	}
	if !store.operations[opID].ProductsCost.Equal(sum) {
		t.Errorf("products cost %s != sum of subtotals %s", store.operations[opID].ProductsCost, sum)
	}
	if !sum.Equal(dec("9")) {
		t.Errorf("sum = %s, want 9", sum)
	}
}

func TestAddConsumption_InvalidQuantity(t *testing.T) {
	store := newFakeStore()
	svc, _ := newBillingService(store)

	for _, qty := range []int64{0, -1} {
		err := svc.AddConsumption(context.Background(), "op1", "p1", qty)
		var qtyErr *domain.InvalidQuantityError
		if !errors.As(err, &qtyErr) {
			t.Fatalf("quantity %d: expected InvalidQuantityError, got %v", qty, err)
		}
	}
}

func TestAddConsumption_ClosedOperation(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	seedProduct(store, "p1", "soda", "2.50", 10)
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	if _, err := svc.CheckOut(context.Background(), opID); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	err := svc.AddConsumption(context.Background(), opID, "p1", 1)
	var closedErr *domain.OperationClosedError
	if !errors.As(err, &closedErr) {
		t.Fatalf("expected OperationClosedError, got %v", err)
	}
	if got := store.products["p1"].Stock; got != 10 {
		t.Errorf("stock = %d, want 10 (untouched)", got)
	}
}

func TestAddConsumption_InactiveProduct(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	seedProduct(store, "p1", "soda", "2.50", 10)
	p := store.products["p1"]
	p.Active = false
	store.products["p1"] = p
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	err := svc.AddConsumption(context.Background(), opID, "p1", 1)
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestAddConsumption_InsufficientStock(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "50", "5")
	seedProduct(store, "p1", "soda", "2.50", 2)
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	err := svc.AddConsumption(context.Background(), opID, "p1", 5)
	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected InsufficientStockError, got %v", err)
	}
	if stockErr.Requested != 5 || stockErr.Available != 2 {
		t.Errorf("requested/available = %d/%d, want 5/2", stockErr.Requested, stockErr.Available)
	}
	if got := store.products["p1"].Stock; got != 2 {
		t.Errorf("stock = %d, want 2 (untouched)", got)
	}
	if len(store.lines[opID]) != 0 {
		t.Errorf("got %d lines, want 0", len(store.lines[opID]))
	}
}

func TestCheckOut_WithinBaseWindow(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	seedProduct(store, "p1", "soda", "10", 5)
	svc, pub := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")

	// Backdate the check-in 40 minutes so the stay falls inside the base
	// window regardless of test wall time.
	op := store.operations[opID]
	op.CheckIn = op.CheckIn.Add(-40 * time.Minute)
	store.operations[opID] = op

	if err := svc.AddConsumption(context.Background(), opID, "p1", 2); err != nil {
		t.Fatalf("AddConsumption: %v", err)
	}

	receipt, err := svc.CheckOut(context.Background(), opID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	if receipt.ElapsedMinutes != 40 {
		t.Errorf("elapsed = %d, want 40", receipt.ElapsedMinutes)
	}
	if receipt.ExtraBlocks != 0 {
		t.Errorf("extra blocks = %d, want 0", receipt.ExtraBlocks)
	}
	if !receipt.StayCost.Equal(dec("30")) {
		t.Errorf("stay cost = %s, want 30", receipt.StayCost)
	}
	if !receipt.ProductsCost.Equal(dec("20")) {
		t.Errorf("products cost = %s, want 20", receipt.ProductsCost)
	}
	if !receipt.TotalCost.Equal(dec("50")) {
		t.Errorf("total = %s, want 50", receipt.TotalCost)
	}

	closed := store.operations[opID]
	if closed.Status != domain.OperationClosed {
		t.Errorf("operation status = %q, want %q", closed.Status, domain.OperationClosed)
	}
	if closed.CheckOut == nil {
		t.Error("check-out timestamp not set")
	}
	if store.rooms["r1"].Status != domain.RoomFree {
		t.Errorf("room status = %q, want %q", store.rooms["r1"].Status, domain.RoomFree)
	}
	if len(pub.events) != 2 || pub.events[1] != domain.StayCheckedOut {
		t.Errorf("published events = %v, want check-in then check-out", pub.events)
	}
}

func TestCheckOut_ExtraBlocks(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	op := store.operations[opID]
	op.CheckIn = op.CheckIn.Add(-125 * time.Minute)
	store.operations[opID] = op

	receipt, err := svc.CheckOut(context.Background(), opID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	// 125 minutes = 5 blocks of 30, 2 beyond the included 3.
	if receipt.ExtraBlocks != 2 {
		t.Errorf("extra blocks = %d, want 2", receipt.ExtraBlocks)
	}
	if !receipt.StayCost.Equal(dec("46")) {
		t.Errorf("stay cost = %s, want 46", receipt.StayCost)
	}
}

func TestCheckOut_FlatRate(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "80", "")
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	op := store.operations[opID]
	op.CheckIn = op.CheckIn.Add(-5 * time.Hour)
	store.operations[opID] = op

	receipt, err := svc.CheckOut(context.Background(), opID)
	if err != nil {
		t.Fatalf("CheckOut: %v", err)
	}
	if !receipt.StayCost.Equal(dec("80")) {
		t.Errorf("stay cost = %s, want flat 80", receipt.StayCost)
	}
}

func TestCheckOut_Twice(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	if _, err := svc.CheckOut(context.Background(), opID); err != nil {
		t.Fatalf("first CheckOut: %v", err)
	}

	_, err := svc.CheckOut(context.Background(), opID)
	if !errors.Is(err, domain.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
	// The room stays free; the second attempt must not have re-transitioned it.
	if store.rooms["r1"].Status != domain.RoomFree {
		t.Errorf("room status = %q, want %q", store.rooms["r1"].Status, domain.RoomFree)
	}
}

func TestCheckOut_UnknownOperation(t *testing.T) {
	store := newFakeStore()
	svc, _ := newBillingService(store)

	_, err := svc.CheckOut(context.Background(), "missing")
	if !errors.Is(err, domain.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestGetRunningSummary_DoesNotMutate(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	seedProduct(store, "p1", "soda", "2.50", 10)
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	op := store.operations[opID]
	op.CheckIn = op.CheckIn.Add(-40 * time.Minute)
	store.operations[opID] = op

	if err := svc.AddConsumption(context.Background(), opID, "p1", 2); err != nil {
		t.Fatalf("AddConsumption: %v", err)
	}

	summary, err := svc.GetRunningSummary(context.Background(), opID)
	if err != nil {
		t.Fatalf("GetRunningSummary: %v", err)
	}

	if summary.RoomNumber != "101" {
		t.Errorf("room number = %q, want %q", summary.RoomNumber, "101")
	}
	if summary.ElapsedMinutes != 40 {
		t.Errorf("elapsed = %d, want 40", summary.ElapsedMinutes)
	}
	if !summary.StayCost.Equal(dec("30")) {
		t.Errorf("stay cost = %s, want 30", summary.StayCost)
	}
	if !summary.TotalCost.Equal(dec("35")) {
		t.Errorf("total = %s, want 35", summary.TotalCost)
	}
	if len(summary.Lines) != 1 {
		t.Errorf("got %d lines, want 1", len(summary.Lines))
	}

	// Still active, costs untouched.
	after := store.operations[opID]
	if after.Status != domain.OperationActive {
		t.Errorf("operation status = %q, want %q", after.Status, domain.OperationActive)
	}
	if !after.StayCost.IsZero() {
		t.Errorf("stay cost persisted = %s, want 0", after.StayCost)
	}
}

func TestGetRunningSummary_ConsistentUnderConcurrentConsumption(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	seedProduct(store, "p1", "soda", "2.50", 1000)
	svc, _ := newBillingService(store)

	opID, err := svc.CheckIn(context.Background(), "r1")
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			if err := svc.AddConsumption(context.Background(), opID, "p1", 1); err != nil {
				t.Errorf("AddConsumption: %v", err)
				return
			}
		}
	}()

	// Every snapshot must list exactly the lines its products cost covers,
	// no matter where the concurrent writer is.
	for i := 0; i < 50; i++ {
		summary, err := svc.GetRunningSummary(context.Background(), opID)
		if err != nil {
			t.Fatalf("GetRunningSummary: %v", err)
		}
		var sum decimal.Decimal
		for _, l := range summary.Lines {
			sum = sum.Add(l.Subtotal)
		}
		if !summary.ProductsCost.Equal(sum) {
			t.Fatalf("products cost %s != sum of listed subtotals %s", summary.ProductsCost, sum)
		}
	}
	wg.Wait()
}

func TestGetRunningSummary_ClosedOperation(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	svc, _ := newBillingService(store)

	opID, _ := svc.CheckIn(context.Background(), "r1")
	if _, err := svc.CheckOut(context.Background(), opID); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	_, err := svc.GetRunningSummary(context.Background(), opID)
	if !errors.Is(err, domain.ErrOperationNotFound) {
		t.Fatalf("expected ErrOperationNotFound, got %v", err)
	}
}

func TestListActiveOperations(t *testing.T) {
	store := newFakeStore()
	seedRoom(store, "r1", "101", "30", "8")
	seedRoom(store, "r2", "102", "30", "8")
	svc, _ := newBillingService(store)

	op1, _ := svc.CheckIn(context.Background(), "r1")
	op2, _ := svc.CheckIn(context.Background(), "r2")
	if _, err := svc.CheckOut(context.Background(), op1); err != nil {
		t.Fatalf("CheckOut: %v", err)
	}

	ops, err := svc.ListActiveOperations(context.Background())
	if err != nil {
		t.Fatalf("ListActiveOperations: %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d active operations, want 1", len(ops))
	}
	if ops[0].ID != op2 {
		t.Errorf("active operation = %q, want %q", ops[0].ID, op2)
	}
}
