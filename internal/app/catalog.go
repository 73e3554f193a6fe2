package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// CatalogService manages the rate cards, rooms and products the billing
// engine bills against. It never touches operations or consumption lines.
type CatalogService struct {
	roomTypes domain.RoomTypeRepository
	rooms     domain.RoomRepository
	products  domain.ProductRepository
	store     domain.BillingStore
	validator domain.TransitionValidator
	now       func() time.Time
}

// NewCatalogService creates a service with the given adapters. The billing
// store is used only to serialize room status transitions against in-flight
// check-ins and check-outs.
func NewCatalogService(
	roomTypes domain.RoomTypeRepository,
	rooms domain.RoomRepository,
	products domain.ProductRepository,
	store domain.BillingStore,
	validator domain.TransitionValidator,
) *CatalogService {
	return &CatalogService{
		roomTypes: roomTypes,
		rooms:     rooms,
		products:  products,
		store:     store,
		validator: validator,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// --- Room types ---

// CreateRoomType registers a new rate card.
func (s *CatalogService) CreateRoomType(ctx context.Context, name string, basePrice decimal.Decimal, halfHourPrice *decimal.Decimal, nightPrice decimal.Decimal) (domain.RoomType, error) {
	id, err := domain.NewID()
	if err != nil {
		return domain.RoomType{}, fmt.Errorf("generating room type id: %w", err)
	}

	rt := domain.RoomType{
		ID:            id,
		Name:          name,
		BasePrice:     basePrice,
		HalfHourPrice: halfHourPrice,
		NightPrice:    nightPrice,
	}
	if err := s.roomTypes.Create(ctx, rt); err != nil {
		return domain.RoomType{}, fmt.Errorf("creating room type: %w", err)
	}
	return rt, nil
}

// GetRoomType returns a rate card by id.
func (s *CatalogService) GetRoomType(ctx context.Context, id string) (domain.RoomType, error) {
	return s.roomTypes.Get(ctx, id)
}

// ListRoomTypes returns all rate cards.
func (s *CatalogService) ListRoomTypes(ctx context.Context) ([]domain.RoomType, error) {
	return s.roomTypes.List(ctx)
}

// RoomTypePatch holds the optional fields of a rate card update.
type RoomTypePatch struct {
	Name          *string
	BasePrice     *decimal.Decimal
	HalfHourPrice *decimal.Decimal
	NightPrice    *decimal.Decimal
}

// UpdateRoomType applies a partial update to a rate card.
func (s *CatalogService) UpdateRoomType(ctx context.Context, id string, patch RoomTypePatch) (domain.RoomType, error) {
	rt, err := s.roomTypes.Get(ctx, id)
	if err != nil {
		return domain.RoomType{}, err
	}

	if patch.Name != nil {
		rt.Name = *patch.Name
	}
	if patch.BasePrice != nil {
		rt.BasePrice = *patch.BasePrice
	}
	if patch.HalfHourPrice != nil {
		rt.HalfHourPrice = patch.HalfHourPrice
	}
	if patch.NightPrice != nil {
		rt.NightPrice = *patch.NightPrice
	}

	if err := s.roomTypes.Update(ctx, rt); err != nil {
		return domain.RoomType{}, fmt.Errorf("updating room type: %w", err)
	}
	return rt, nil
}

// --- Rooms ---

// CreateRoom registers a room against an existing rate card. A duplicate
// room number surfaces as RoomNumberConflictError.
func (s *CatalogService) CreateRoom(ctx context.Context, number, roomTypeID string) (domain.Room, error) {
	rt, err := s.roomTypes.Get(ctx, roomTypeID)
	if err != nil {
		return domain.Room{}, err
	}

	id, err := domain.NewID()
	if err != nil {
		return domain.Room{}, fmt.Errorf("generating room id: %w", err)
	}

	room := domain.NewRoom(id, number, roomTypeID)
	if err := s.rooms.Create(ctx, room); err != nil {
		return domain.Room{}, err
	}
	room.TypeName = rt.Name
	return room, nil
}

// GetRoom returns a room by id.
func (s *CatalogService) GetRoom(ctx context.Context, id string) (domain.Room, error) {
	return s.rooms.Get(ctx, id)
}

// ListRooms returns all rooms with their rate card names.
func (s *CatalogService) ListRooms(ctx context.Context) ([]domain.Room, error) {
	return s.rooms.List(ctx)
}

// RoomPatch holds the optional fields of a room update. Status is not
// patchable; use TransitionRoom.
type RoomPatch struct {
	Number     *string
	RoomTypeID *string
}

// UpdateRoom applies a partial update to a room's number or rate card.
func (s *CatalogService) UpdateRoom(ctx context.Context, id string, patch RoomPatch) (domain.Room, error) {
	room, err := s.rooms.Get(ctx, id)
	if err != nil {
		return domain.Room{}, err
	}

	if patch.Number != nil {
		room.Number = *patch.Number
	}
	if patch.RoomTypeID != nil {
		if _, err := s.roomTypes.Get(ctx, *patch.RoomTypeID); err != nil {
			return domain.Room{}, err
		}
		room.RoomTypeID = *patch.RoomTypeID
	}

	if err := s.rooms.Update(ctx, room); err != nil {
		return domain.Room{}, err
	}
	return s.rooms.Get(ctx, id)
}

// TransitionRoom applies a housekeeping event (cleaning, closing, reopening)
// to a room. Check-in and check-out are reserved for the billing engine and
// are rejected here. The transition runs inside the room's atomic scope so
// it cannot interleave with an in-flight check-in or check-out.
func (s *CatalogService) TransitionRoom(ctx context.Context, id string, event domain.Event) (domain.Room, error) {
	if event == domain.EventCheckIn || event == domain.EventCheckOut {
		room, err := s.rooms.Get(ctx, id)
		if err != nil {
			return domain.Room{}, err
		}
		return domain.Room{}, &domain.TransitionError{Event: event, Current: room.Status}
	}

	var updated domain.Room
	err := s.store.RunAtomic(ctx, []string{roomKey(id)}, func(tx domain.BillingTx) error {
		room, err := tx.Room(ctx, id)
		if err != nil {
			return err
		}

		next, err := s.validator.Apply(ctx, room.Status, event)
		if err != nil {
			return err
		}

		if err := tx.UpdateRoomStatus(ctx, id, next); err != nil {
			return err
		}

		room.Status = next
		updated = room
		return nil
	})
	if err != nil {
		return domain.Room{}, err
	}
	return updated, nil
}

// --- Products ---

// CreateProduct registers a new consumable.
func (s *CatalogService) CreateProduct(ctx context.Context, name string, cost, unitPrice decimal.Decimal, stock int64) (domain.Product, error) {
	if stock < 0 {
		return domain.Product{}, &domain.InvalidQuantityError{Quantity: stock}
	}

	id, err := domain.NewID()
	if err != nil {
		return domain.Product{}, fmt.Errorf("generating product id: %w", err)
	}

	p := domain.Product{
		ID:        id,
		Name:      name,
		Cost:      cost,
		UnitPrice: unitPrice,
		Stock:     stock,
		Active:    true,
	}
	if err := s.products.Create(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("creating product: %w", err)
	}
	return p, nil
}

// GetProduct returns a product by id, active or not.
func (s *CatalogService) GetProduct(ctx context.Context, id string) (domain.Product, error) {
	return s.products.Get(ctx, id)
}

// ListProducts returns all active products.
func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	return s.products.ListActive(ctx)
}

// ProductPatch holds the optional fields of a product update.
type ProductPatch struct {
	Name      *string
	Cost      *decimal.Decimal
	UnitPrice *decimal.Decimal
	Stock     *int64
}

// UpdateProduct applies a partial update to a product.
func (s *CatalogService) UpdateProduct(ctx context.Context, id string, patch ProductPatch) (domain.Product, error) {
	p, err := s.products.Get(ctx, id)
	if err != nil {
		return domain.Product{}, err
	}

	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Cost != nil {
		p.Cost = *patch.Cost
	}
	if patch.UnitPrice != nil {
		p.UnitPrice = *patch.UnitPrice
	}
	if patch.Stock != nil {
		if *patch.Stock < 0 {
			return domain.Product{}, &domain.InvalidQuantityError{Quantity: *patch.Stock}
		}
		p.Stock = *patch.Stock
	}

	if err := s.products.Update(ctx, p); err != nil {
		return domain.Product{}, fmt.Errorf("updating product: %w", err)
	}
	return p, nil
}

// DeactivateProduct soft-deletes a product. Historical consumption lines
// keep referencing it.
func (s *CatalogService) DeactivateProduct(ctx context.Context, id string) error {
	if _, err := s.products.Get(ctx, id); err != nil {
		return err
	}
	return s.products.Deactivate(ctx, id)
}

// --- Supply intake ---

// SupplyLineInput is one requested position of a supplier delivery.
type SupplyLineInput struct {
	ProductID string
	Quantity  int64
	UnitCost  decimal.Decimal
}

// RecordSupplyIntake registers a supplier delivery and replenishes stock.
// All lines commit atomically; a bad line rejects the whole intake.
func (s *CatalogService) RecordSupplyIntake(ctx context.Context, lines []SupplyLineInput) (domain.SupplyIntake, error) {
	if len(lines) == 0 {
		return domain.SupplyIntake{}, &domain.InvalidQuantityError{Quantity: 0}
	}

	intakeID, err := domain.NewID()
	if err != nil {
		return domain.SupplyIntake{}, fmt.Errorf("generating intake id: %w", err)
	}

	intake := domain.SupplyIntake{
		ID:         intakeID,
		ReceivedAt: s.now(),
		TotalCost:  decimal.Zero,
	}

	for _, in := range lines {
		if in.Quantity <= 0 {
			return domain.SupplyIntake{}, &domain.InvalidQuantityError{Quantity: in.Quantity}
		}
		if _, err := s.products.Get(ctx, in.ProductID); err != nil {
			return domain.SupplyIntake{}, err
		}

		lineID, err := domain.NewID()
		if err != nil {
			return domain.SupplyIntake{}, fmt.Errorf("generating intake line id: %w", err)
		}

		subtotal := in.UnitCost.Mul(decimal.NewFromInt(in.Quantity))
		intake.Lines = append(intake.Lines, domain.SupplyLine{
			ID:        lineID,
			IntakeID:  intakeID,
			ProductID: in.ProductID,
			Quantity:  in.Quantity,
			UnitCost:  in.UnitCost,
			Subtotal:  subtotal,
		})
		intake.TotalCost = intake.TotalCost.Add(subtotal)
	}

	if err := s.products.RecordIntake(ctx, intake); err != nil {
		return domain.SupplyIntake{}, err
	}
	return intake, nil
}
