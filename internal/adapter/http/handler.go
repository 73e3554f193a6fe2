package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/app"
	"github.com/neomorfeo/aquamotel/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

// --- Response shapes ---

// RoomTypeResponse is the API representation of a rate card.
type RoomTypeResponse struct {
	ID            string `json:"id" doc:"Unique identifier"`
	Name          string `json:"name" doc:"Display name"`
	BasePrice     string `json:"base_price" doc:"Price of the first 90 minutes"`
	HalfHourPrice string `json:"half_hour_price,omitempty" doc:"Surcharge per extra 30-minute block; empty means flat pricing"`
	NightPrice    string `json:"night_price" doc:"Overnight rate"`
}

func toRoomTypeResponse(rt domain.RoomType) RoomTypeResponse {
	resp := RoomTypeResponse{
		ID:         rt.ID,
		Name:       rt.Name,
		BasePrice:  rt.BasePrice.String(),
		NightPrice: rt.NightPrice.String(),
	}
	if rt.HalfHourPrice != nil {
		resp.HalfHourPrice = rt.HalfHourPrice.String()
	}
	return resp
}

// RoomResponse is the API representation of a room.
type RoomResponse struct {
	ID         string `json:"id" doc:"Unique identifier"`
	Number     string `json:"number" doc:"Room number"`
	RoomTypeID string `json:"room_type_id" doc:"Rate card identifier"`
	TypeName   string `json:"type_name,omitempty" doc:"Rate card display name"`
	Status     string `json:"status" doc:"Availability state"`
}

func toRoomResponse(r domain.Room) RoomResponse {
	return RoomResponse{
		ID:         r.ID,
		Number:     r.Number,
		RoomTypeID: r.RoomTypeID,
		TypeName:   r.TypeName,
		Status:     string(r.Status),
	}
}

// ProductResponse is the API representation of a consumable.
type ProductResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	Name      string `json:"name" doc:"Display name"`
	Cost      string `json:"cost" doc:"Acquisition cost per unit"`
	UnitPrice string `json:"unit_price" doc:"Sale price per unit"`
	Stock     int64  `json:"stock" doc:"Units on hand"`
	Active    bool   `json:"active" doc:"Whether the product can be sold"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:        p.ID,
		Name:      p.Name,
		Cost:      p.Cost.String(),
		UnitPrice: p.UnitPrice.String(),
		Stock:     p.Stock,
		Active:    p.Active,
	}
}

// ConsumptionLineResponse is one recorded sale within a stay.
type ConsumptionLineResponse struct {
	ID          string `json:"id" doc:"Unique identifier"`
	ProductID   string `json:"product_id" doc:"Product identifier"`
	ProductName string `json:"product_name" doc:"Product name at read time"`
	UnitPrice   string `json:"unit_price" doc:"Price snapshotted at sale time"`
	Quantity    int64  `json:"quantity" doc:"Units sold"`
	Subtotal    string `json:"subtotal" doc:"unit_price * quantity"`
}

func toConsumptionLineResponse(l domain.ConsumptionLine) ConsumptionLineResponse {
	return ConsumptionLineResponse{
		ID:          l.ID,
		ProductID:   l.ProductID,
		ProductName: l.ProductName,
		UnitPrice:   l.UnitPrice.String(),
		Quantity:    l.Quantity,
		Subtotal:    l.Subtotal.String(),
	}
}

// ReceiptResponse is the final bill produced by a check-out.
type ReceiptResponse struct {
	OperationID    string `json:"operation_id" doc:"Closed operation identifier"`
	ElapsedMinutes int64  `json:"elapsed_minutes" doc:"Whole minutes between check-in and check-out"`
	ExtraBlocks    int64  `json:"extra_blocks" doc:"Billable 30-minute blocks beyond the base period"`
	StayCost       string `json:"stay_cost" doc:"Time-based charge"`
	ProductsCost   string `json:"products_cost" doc:"Sum of consumption subtotals"`
	TotalCost      string `json:"total_cost" doc:"stay_cost + products_cost"`
}

// ActiveOperationResponse is a list item for currently open stays.
type ActiveOperationResponse struct {
	ID           string `json:"id" doc:"Operation identifier"`
	RoomID       string `json:"room_id" doc:"Room identifier"`
	RoomNumber   string `json:"room_number" doc:"Room number"`
	CheckIn      string `json:"check_in" doc:"Check-in timestamp (ISO 8601)"`
	ProductsCost string `json:"products_cost" doc:"Consumptions accrued so far"`
}

// SummaryResponse is a read-only quote of what an active stay would cost
// if checked out now.
type SummaryResponse struct {
	OperationID    string                    `json:"operation_id" doc:"Operation identifier"`
	RoomNumber     string                    `json:"room_number" doc:"Room number"`
	CheckIn        string                    `json:"check_in" doc:"Check-in timestamp (ISO 8601)"`
	ElapsedMinutes int64                     `json:"elapsed_minutes" doc:"Whole minutes elapsed so far"`
	ExtraBlocks    int64                     `json:"extra_blocks" doc:"Billable 30-minute blocks beyond the base period"`
	StayCost       string                    `json:"stay_cost" doc:"Time-based charge as of now"`
	ProductsCost   string                    `json:"products_cost" doc:"Sum of consumption subtotals"`
	TotalCost      string                    `json:"total_cost" doc:"stay_cost + products_cost"`
	Lines          []ConsumptionLineResponse `json:"lines" doc:"Recorded consumptions"`
}

// SupplyIntakeResponse is the API representation of a recorded delivery.
type SupplyIntakeResponse struct {
	ID         string               `json:"id" doc:"Unique identifier"`
	ReceivedAt string               `json:"received_at" doc:"Reception timestamp (ISO 8601)"`
	TotalCost  string               `json:"total_cost" doc:"Sum of line subtotals"`
	Lines      []SupplyLineResponse `json:"lines" doc:"Delivered positions"`
}

// SupplyLineResponse is one delivered position of a supply intake.
type SupplyLineResponse struct {
	ID        string `json:"id" doc:"Unique identifier"`
	ProductID string `json:"product_id" doc:"Product identifier"`
	Quantity  int64  `json:"quantity" doc:"Units received"`
	UnitCost  string `json:"unit_cost" doc:"Cost per unit"`
	Subtotal  string `json:"subtotal" doc:"unit_cost * quantity"`
}

func toSupplyIntakeResponse(in domain.SupplyIntake) SupplyIntakeResponse {
	resp := SupplyIntakeResponse{
		ID:         in.ID,
		ReceivedAt: in.ReceivedAt.Format(timeFormat),
		TotalCost:  in.TotalCost.String(),
		Lines:      make([]SupplyLineResponse, len(in.Lines)),
	}
	for i, l := range in.Lines {
		resp.Lines[i] = SupplyLineResponse{
			ID:        l.ID,
			ProductID: l.ProductID,
			Quantity:  l.Quantity,
			UnitCost:  l.UnitCost.String(),
			Subtotal:  l.Subtotal.String(),
		}
	}
	return resp
}

// --- Room type inputs ---

type CreateRoomTypeInput struct {
	Body struct {
		Name          string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		BasePrice     string `json:"base_price" doc:"Price of the first 90 minutes (decimal string)"`
		HalfHourPrice string `json:"half_hour_price,omitempty" doc:"Surcharge per extra 30-minute block; omit for flat pricing"`
		NightPrice    string `json:"night_price,omitempty" doc:"Overnight rate (decimal string)"`
	}
}

type RoomTypeOutput struct {
	Body RoomTypeResponse
}

type GetRoomTypeInput struct {
	ID string `path:"id" doc:"Room type ID"`
}

type ListRoomTypesOutput struct {
	Body []RoomTypeResponse
}

type UpdateRoomTypeInput struct {
	ID   string `path:"id" doc:"Room type ID"`
	Body struct {
		Name          *string `json:"name,omitempty" doc:"Display name"`
		BasePrice     *string `json:"base_price,omitempty" doc:"Price of the first 90 minutes (decimal string)"`
		HalfHourPrice *string `json:"half_hour_price,omitempty" doc:"Surcharge per extra 30-minute block"`
		NightPrice    *string `json:"night_price,omitempty" doc:"Overnight rate (decimal string)"`
	}
}

// --- Room inputs ---

type CreateRoomInput struct {
	Body struct {
		Number     string `json:"number" minLength:"1" maxLength:"20" doc:"Room number"`
		RoomTypeID string `json:"room_type_id" minLength:"1" doc:"Rate card identifier"`
	}
}

type RoomOutput struct {
	Body RoomResponse
}

type GetRoomInput struct {
	ID string `path:"id" doc:"Room ID"`
}

type ListRoomsOutput struct {
	Body []RoomResponse
}

type UpdateRoomInput struct {
	ID   string `path:"id" doc:"Room ID"`
	Body struct {
		Number     *string `json:"number,omitempty" doc:"Room number"`
		RoomTypeID *string `json:"room_type_id,omitempty" doc:"Rate card identifier"`
		Status     *string `json:"status,omitempty" enum:"free,cleaning,closed" doc:"Requested availability state; occupied is reserved for check-in"`
	}
}

// --- Product inputs ---

type CreateProductInput struct {
	Body struct {
		Name      string `json:"name" minLength:"1" maxLength:"255" doc:"Display name"`
		Cost      string `json:"cost,omitempty" doc:"Acquisition cost per unit (decimal string)"`
		UnitPrice string `json:"unit_price" doc:"Sale price per unit (decimal string)"`
		Stock     int64  `json:"stock,omitempty" minimum:"0" doc:"Initial units on hand"`
	}
}

type ProductOutput struct {
	Body ProductResponse
}

type GetProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

type ListProductsOutput struct {
	Body []ProductResponse
}

type UpdateProductInput struct {
	ID   string `path:"id" doc:"Product ID"`
	Body struct {
		Name      *string `json:"name,omitempty" doc:"Display name"`
		Cost      *string `json:"cost,omitempty" doc:"Acquisition cost per unit (decimal string)"`
		UnitPrice *string `json:"unit_price,omitempty" doc:"Sale price per unit (decimal string)"`
		Stock     *int64  `json:"stock,omitempty" minimum:"0" doc:"Units on hand"`
	}
}

type DeactivateProductInput struct {
	ID string `path:"id" doc:"Product ID"`
}

// --- Supply intake inputs ---

type RecordSupplyIntakeInput struct {
	Body struct {
		Lines []struct {
			ProductID string `json:"product_id" minLength:"1" doc:"Product identifier"`
			Quantity  int64  `json:"quantity" minimum:"1" doc:"Units received"`
			UnitCost  string `json:"unit_cost" doc:"Cost per unit (decimal string)"`
		} `json:"lines" minItems:"1" doc:"Delivered positions"`
	}
}

type SupplyIntakeOutput struct {
	Body SupplyIntakeResponse
}

// --- Operation inputs ---

type CheckInInput struct {
	Body struct {
		RoomID string `json:"room_id" minLength:"1" doc:"Room to occupy"`
	}
}

type CheckInOutput struct {
	Body struct {
		OperationID string `json:"operation_id" doc:"Identifier of the opened stay"`
	}
}

type AddConsumptionInput struct {
	ID   string `path:"id" doc:"Operation ID"`
	Body struct {
		ProductID string `json:"product_id" minLength:"1" doc:"Product sold"`
		Quantity  int64  `json:"quantity" doc:"Units sold; must be positive"`
	}
}

type CheckOutInput struct {
	ID string `path:"id" doc:"Operation ID"`
}

type CheckOutOutput struct {
	Body ReceiptResponse
}

type ListActiveOperationsOutput struct {
	Body []ActiveOperationResponse
}

type GetSummaryInput struct {
	ID string `path:"id" doc:"Operation ID"`
}

type GetSummaryOutput struct {
	Body SummaryResponse
}

// Register adds all API routes to the Huma API.
func Register(api huma.API, billing *app.BillingService, catalog *app.CatalogService) {
	registerRoomTypes(api, catalog)
	registerRooms(api, catalog)
	registerProducts(api, catalog)
	registerOperations(api, billing)
}

func registerRoomTypes(api huma.API, catalog *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-room-type",
		Method:      http.MethodPost,
		Path:        "/api/v1/room-types",
		Summary:     "Create a rate card",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateRoomTypeInput) (*RoomTypeOutput, error) {
		base, err := parsePrice("base_price", input.Body.BasePrice)
		if err != nil {
			return nil, err
		}
		night := decimal.Zero
		if input.Body.NightPrice != "" {
			if night, err = parsePrice("night_price", input.Body.NightPrice); err != nil {
				return nil, err
			}
		}
		var halfHour *decimal.Decimal
		if input.Body.HalfHourPrice != "" {
			hh, err := parsePrice("half_hour_price", input.Body.HalfHourPrice)
			if err != nil {
				return nil, err
			}
			halfHour = &hh
		}

		rt, err := catalog.CreateRoomType(ctx, input.Body.Name, base, halfHour, night)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomTypeOutput{Body: toRoomTypeResponse(rt)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-room-types",
		Method:      http.MethodGet,
		Path:        "/api/v1/room-types",
		Summary:     "List rate cards",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListRoomTypesOutput, error) {
		types, err := catalog.ListRoomTypes(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]RoomTypeResponse, len(types))
		for i, rt := range types {
			resp[i] = toRoomTypeResponse(rt)
		}
		return &ListRoomTypesOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room-type",
		Method:      http.MethodGet,
		Path:        "/api/v1/room-types/{id}",
		Summary:     "Get a rate card by ID",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *GetRoomTypeInput) (*RoomTypeOutput, error) {
		rt, err := catalog.GetRoomType(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomTypeOutput{Body: toRoomTypeResponse(rt)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-room-type",
		Method:      http.MethodPatch,
		Path:        "/api/v1/room-types/{id}",
		Summary:     "Update a rate card",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *UpdateRoomTypeInput) (*RoomTypeOutput, error) {
		patch := app.RoomTypePatch{Name: input.Body.Name}
		if input.Body.BasePrice != nil {
			base, err := parsePrice("base_price", *input.Body.BasePrice)
			if err != nil {
				return nil, err
			}
			patch.BasePrice = &base
		}
		if input.Body.HalfHourPrice != nil {
			hh, err := parsePrice("half_hour_price", *input.Body.HalfHourPrice)
			if err != nil {
				return nil, err
			}
			patch.HalfHourPrice = &hh
		}
		if input.Body.NightPrice != nil {
			night, err := parsePrice("night_price", *input.Body.NightPrice)
			if err != nil {
				return nil, err
			}
			patch.NightPrice = &night
		}

		rt, err := catalog.UpdateRoomType(ctx, input.ID, patch)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomTypeOutput{Body: toRoomTypeResponse(rt)}, nil
	})
}

func registerRooms(api huma.API, catalog *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-room",
		Method:      http.MethodPost,
		Path:        "/api/v1/rooms",
		Summary:     "Create a room",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateRoomInput) (*RoomOutput, error) {
		room, err := catalog.CreateRoom(ctx, input.Body.Number, input.Body.RoomTypeID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-rooms",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms",
		Summary:     "List rooms",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListRoomsOutput, error) {
		rooms, err := catalog.ListRooms(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]RoomResponse, len(rooms))
		for i, r := range rooms {
			resp[i] = toRoomResponse(r)
		}
		return &ListRoomsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-room",
		Method:      http.MethodGet,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Get a room by ID",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *GetRoomInput) (*RoomOutput, error) {
		room, err := catalog.GetRoom(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-room",
		Method:      http.MethodPatch,
		Path:        "/api/v1/rooms/{id}",
		Summary:     "Update a room's number, rate card or availability",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *UpdateRoomInput) (*RoomOutput, error) {
		room, err := catalog.UpdateRoom(ctx, input.ID, app.RoomPatch{
			Number:     input.Body.Number,
			RoomTypeID: input.Body.RoomTypeID,
		})
		if err != nil {
			return nil, toHumaError(err)
		}

		if input.Body.Status != nil {
			target := domain.RoomStatus(*input.Body.Status)
			if room.Status != target {
				event, ok := domain.ExternalStatusEvent(room.Status, target)
				if !ok {
					return nil, huma.Error422UnprocessableEntity(
						"status " + string(target) + " is not reachable from " + string(room.Status))
				}
				if room, err = catalog.TransitionRoom(ctx, input.ID, event); err != nil {
					return nil, toHumaError(err)
				}
			}
		}
		return &RoomOutput{Body: toRoomResponse(room)}, nil
	})
}

func registerProducts(api huma.API, catalog *app.CatalogService) {
	huma.Register(api, huma.Operation{
		OperationID: "create-product",
		Method:      http.MethodPost,
		Path:        "/api/v1/products",
		Summary:     "Create a product",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *CreateProductInput) (*ProductOutput, error) {
		cost := decimal.Zero
		var err error
		if input.Body.Cost != "" {
			if cost, err = parsePrice("cost", input.Body.Cost); err != nil {
				return nil, err
			}
		}
		unitPrice, err := parsePrice("unit_price", input.Body.UnitPrice)
		if err != nil {
			return nil, err
		}

		p, err := catalog.CreateProduct(ctx, input.Body.Name, cost, unitPrice, input.Body.Stock)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: toProductResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-products",
		Method:      http.MethodGet,
		Path:        "/api/v1/products",
		Summary:     "List active products",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, _ *struct{}) (*ListProductsOutput, error) {
		products, err := catalog.ListProducts(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ProductResponse, len(products))
		for i, p := range products {
			resp[i] = toProductResponse(p)
		}
		return &ListProductsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-product",
		Method:      http.MethodGet,
		Path:        "/api/v1/products/{id}",
		Summary:     "Get a product by ID",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *GetProductInput) (*ProductOutput, error) {
		p, err := catalog.GetProduct(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: toProductResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-product",
		Method:      http.MethodPatch,
		Path:        "/api/v1/products/{id}",
		Summary:     "Update a product",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *UpdateProductInput) (*ProductOutput, error) {
		patch := app.ProductPatch{Name: input.Body.Name, Stock: input.Body.Stock}
		if input.Body.Cost != nil {
			cost, err := parsePrice("cost", *input.Body.Cost)
			if err != nil {
				return nil, err
			}
			patch.Cost = &cost
		}
		if input.Body.UnitPrice != nil {
			unitPrice, err := parsePrice("unit_price", *input.Body.UnitPrice)
			if err != nil {
				return nil, err
			}
			patch.UnitPrice = &unitPrice
		}

		p, err := catalog.UpdateProduct(ctx, input.ID, patch)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ProductOutput{Body: toProductResponse(p)}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "deactivate-product",
		Method:        http.MethodDelete,
		Path:          "/api/v1/products/{id}",
		Summary:       "Deactivate a product",
		Tags:          []string{"Catalog"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *DeactivateProductInput) (*struct{}, error) {
		if err := catalog.DeactivateProduct(ctx, input.ID); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "record-supply-intake",
		Method:      http.MethodPost,
		Path:        "/api/v1/supply-intakes",
		Summary:     "Record a supplier delivery",
		Tags:        []string{"Catalog"},
	}, func(ctx context.Context, input *RecordSupplyIntakeInput) (*SupplyIntakeOutput, error) {
		lines := make([]app.SupplyLineInput, len(input.Body.Lines))
		for i, l := range input.Body.Lines {
			unitCost, err := parsePrice("unit_cost", l.UnitCost)
			if err != nil {
				return nil, err
			}
			lines[i] = app.SupplyLineInput{
				ProductID: l.ProductID,
				Quantity:  l.Quantity,
				UnitCost:  unitCost,
			}
		}

		intake, err := catalog.RecordSupplyIntake(ctx, lines)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &SupplyIntakeOutput{Body: toSupplyIntakeResponse(intake)}, nil
	})
}

func registerOperations(api huma.API, billing *app.BillingService) {
	huma.Register(api, huma.Operation{
		OperationID:   "check-in",
		Method:        http.MethodPost,
		Path:          "/api/v1/operations/check-in",
		Summary:       "Open a stay on a free room",
		Tags:          []string{"Operations"},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, input *CheckInInput) (*CheckInOutput, error) {
		id, err := billing.CheckIn(ctx, input.Body.RoomID)
		if err != nil {
			return nil, toHumaError(err)
		}
		out := &CheckInOutput{}
		out.Body.OperationID = id
		return out, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-consumption",
		Method:        http.MethodPost,
		Path:          "/api/v1/operations/{id}/consumptions",
		Summary:       "Record a product sale against an active stay",
		Tags:          []string{"Operations"},
		DefaultStatus: http.StatusNoContent,
	}, func(ctx context.Context, input *AddConsumptionInput) (*struct{}, error) {
		if err := billing.AddConsumption(ctx, input.ID, input.Body.ProductID, input.Body.Quantity); err != nil {
			return nil, toHumaError(err)
		}
		return nil, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "check-out",
		Method:      http.MethodPost,
		Path:        "/api/v1/operations/{id}/check-out",
		Summary:     "Close a stay and produce the final bill",
		Tags:        []string{"Operations"},
	}, func(ctx context.Context, input *CheckOutInput) (*CheckOutOutput, error) {
		receipt, err := billing.CheckOut(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &CheckOutOutput{Body: ReceiptResponse{
			OperationID:    receipt.OperationID,
			ElapsedMinutes: receipt.ElapsedMinutes,
			ExtraBlocks:    receipt.ExtraBlocks,
			StayCost:       receipt.StayCost.String(),
			ProductsCost:   receipt.ProductsCost.String(),
			TotalCost:      receipt.TotalCost.String(),
		}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "list-active-operations",
		Method:      http.MethodGet,
		Path:        "/api/v1/operations/active",
		Summary:     "List currently open stays",
		Tags:        []string{"Operations"},
	}, func(ctx context.Context, _ *struct{}) (*ListActiveOperationsOutput, error) {
		ops, err := billing.ListActiveOperations(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		resp := make([]ActiveOperationResponse, len(ops))
		for i, op := range ops {
			resp[i] = ActiveOperationResponse{
				ID:           op.ID,
				RoomID:       op.RoomID,
				RoomNumber:   op.RoomNumber,
				CheckIn:      op.CheckIn.Format(timeFormat),
				ProductsCost: op.ProductsCost.String(),
			}
		}
		return &ListActiveOperationsOutput{Body: resp}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-operation-summary",
		Method:      http.MethodGet,
		Path:        "/api/v1/operations/{id}/summary",
		Summary:     "Quote an active stay as if checked out now",
		Tags:        []string{"Operations"},
	}, func(ctx context.Context, input *GetSummaryInput) (*GetSummaryOutput, error) {
		summary, err := billing.GetRunningSummary(ctx, input.ID)
		if err != nil {
			return nil, toHumaError(err)
		}
		lines := make([]ConsumptionLineResponse, len(summary.Lines))
		for i, l := range summary.Lines {
			lines[i] = toConsumptionLineResponse(l)
		}
		return &GetSummaryOutput{Body: SummaryResponse{
			OperationID:    summary.OperationID,
			RoomNumber:     summary.RoomNumber,
			CheckIn:        summary.CheckIn.Format(timeFormat),
			ElapsedMinutes: summary.ElapsedMinutes,
			ExtraBlocks:    summary.ExtraBlocks,
			StayCost:       summary.StayCost.String(),
			ProductsCost:   summary.ProductsCost.String(),
			TotalCost:      summary.TotalCost.String(),
			Lines:          lines,
		}}, nil
	})
}

// parsePrice parses a decimal string from a request body, rejecting
// malformed and negative values before they reach the services.
func parsePrice(field, value string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return decimal.Decimal{}, huma.Error422UnprocessableEntity(field + " is not a valid decimal")
	}
	if d.IsNegative() {
		return decimal.Decimal{}, huma.Error422UnprocessableEntity(field + " must not be negative")
	}
	return d, nil
}

// toHumaError translates domain errors to Huma HTTP errors.
func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrRoomNotFound),
		errors.Is(err, domain.ErrRoomTypeNotFound),
		errors.Is(err, domain.ErrOperationNotFound),
		errors.Is(err, domain.ErrProductNotFound):
		return huma.Error404NotFound(err.Error())
	}

	var conflictErr *domain.RoomNumberConflictError
	if errors.As(err, &conflictErr) {
		return huma.Error409Conflict(conflictErr.Error())
	}

	var unavailErr *domain.RoomUnavailableError
	if errors.As(err, &unavailErr) {
		return huma.Error409Conflict(unavailErr.Error())
	}

	var closedErr *domain.OperationClosedError
	if errors.As(err, &closedErr) {
		return huma.Error422UnprocessableEntity(closedErr.Error())
	}

	var stockErr *domain.InsufficientStockError
	if errors.As(err, &stockErr) {
		return huma.Error422UnprocessableEntity(stockErr.Error())
	}

	var qtyErr *domain.InvalidQuantityError
	if errors.As(err, &qtyErr) {
		return huma.Error422UnprocessableEntity(qtyErr.Error())
	}

	var trErr *domain.TransitionError
	if errors.As(err, &trErr) {
		return huma.Error422UnprocessableEntity(trErr.Error())
	}

	return huma.Error500InternalServerError("internal server error")
}
