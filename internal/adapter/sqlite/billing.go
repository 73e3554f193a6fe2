package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// reads implements domain.BillingReader over either a *sql.DB or a *sql.Tx.
type reads struct {
	q querier
}

func (r reads) Room(ctx context.Context, id string) (domain.Room, error) {
	return getRoom(ctx, r.q,
		`SELECT r.id, r.number, r.room_type_id, rt.name, r.status
		 FROM rooms r
		 INNER JOIN room_types rt ON r.room_type_id = rt.id
		 WHERE r.id = ?`, id)
}

func (r reads) Operation(ctx context.Context, id string) (domain.Operation, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT id, room_id, check_in, check_out, stay_cost, products_cost, total_cost, status
		 FROM operations WHERE id = ?`, id)

	op, err := scanOperation(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Operation{}, domain.ErrOperationNotFound
		}
		return domain.Operation{}, fmt.Errorf("scanning operation: %w", err)
	}
	return op, nil
}

func (r reads) ActiveStay(ctx context.Context, operationID string) (domain.BillableStay, error) {
	row := r.q.QueryRowContext(ctx,
		`SELECT o.id, o.room_id, o.check_in, o.check_out,
		        o.stay_cost, o.products_cost, o.total_cost, o.status,
		        rm.number, rt.base_price, rt.half_hour_price, rt.night_price
		 FROM operations o
		 INNER JOIN rooms rm ON o.room_id = rm.id
		 INNER JOIN room_types rt ON rm.room_type_id = rt.id
		 WHERE o.id = ? AND o.status = ?`,
		operationID, string(domain.OperationActive))

	var (
		stay                              domain.BillableStay
		checkIn                           string
		checkOut, halfHour                sql.NullString
		stayCost, productsCost, totalCost string
		status                            string
		basePrice, nightPrice             string
	)

	err := row.Scan(
		&stay.Operation.ID, &stay.Operation.RoomID, &checkIn, &checkOut,
		&stayCost, &productsCost, &totalCost, &status,
		&stay.RoomNumber, &basePrice, &halfHour, &nightPrice,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.BillableStay{}, domain.ErrOperationNotFound
		}
		return domain.BillableStay{}, fmt.Errorf("scanning stay: %w", err)
	}

	if stay.Operation.CheckIn, err = parseTime(checkIn); err != nil {
		return domain.BillableStay{}, err
	}
	if checkOut.Valid {
		t, err := parseTime(checkOut.String)
		if err != nil {
			return domain.BillableStay{}, err
		}
		stay.Operation.CheckOut = &t
	}
	stay.Operation.Status = domain.OperationStatus(status)

	if stay.Operation.StayCost, err = parseDecimal(stayCost); err != nil {
		return domain.BillableStay{}, err
	}
	if stay.Operation.ProductsCost, err = parseDecimal(productsCost); err != nil {
		return domain.BillableStay{}, err
	}
	if stay.Operation.TotalCost, err = parseDecimal(totalCost); err != nil {
		return domain.BillableStay{}, err
	}
	if stay.BasePrice, err = parseDecimal(basePrice); err != nil {
		return domain.BillableStay{}, err
	}
	if halfHour.Valid {
		d, err := parseDecimal(halfHour.String)
		if err != nil {
			return domain.BillableStay{}, err
		}
		stay.HalfHourPrice = &d
	}
	if stay.NightPrice, err = parseDecimal(nightPrice); err != nil {
		return domain.BillableStay{}, err
	}

	return stay, nil
}

func (r reads) Product(ctx context.Context, id string) (domain.Product, error) {
	return getProduct(ctx, r.q, id)
}

func (r reads) ConsumptionLines(ctx context.Context, operationID string) ([]domain.ConsumptionLine, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT c.id, c.operation_id, c.product_id, p.name, c.unit_price, c.quantity, c.subtotal
		 FROM consumption_lines c
		 INNER JOIN products p ON c.product_id = p.id
		 WHERE c.operation_id = ?
		 ORDER BY c.rowid ASC`, operationID)
	if err != nil {
		return nil, fmt.Errorf("listing consumption lines: %w", err)
	}
	defer rows.Close()

	var lines []domain.ConsumptionLine
	for rows.Next() {
		var l domain.ConsumptionLine
		var unitPrice, subtotal string

		if err := rows.Scan(&l.ID, &l.OperationID, &l.ProductID, &l.ProductName, &unitPrice, &l.Quantity, &subtotal); err != nil {
			return nil, fmt.Errorf("scanning consumption line: %w", err)
		}
		if l.UnitPrice, err = parseDecimal(unitPrice); err != nil {
			return nil, err
		}
		if l.Subtotal, err = parseDecimal(subtotal); err != nil {
			return nil, err
		}
		lines = append(lines, l)
	}

	return lines, rows.Err()
}

func (r reads) ActiveOperations(ctx context.Context) ([]domain.ActiveOperation, error) {
	rows, err := r.q.QueryContext(ctx,
		`SELECT o.id, o.room_id, o.check_in, o.check_out,
		        o.stay_cost, o.products_cost, o.total_cost, o.status, rm.number
		 FROM operations o
		 INNER JOIN rooms rm ON o.room_id = rm.id
		 WHERE o.status = ?
		 ORDER BY o.check_in ASC`, string(domain.OperationActive))
	if err != nil {
		return nil, fmt.Errorf("listing active operations: %w", err)
	}
	defer rows.Close()

	var ops []domain.ActiveOperation
	for rows.Next() {
		var ao domain.ActiveOperation

		op, err := scanOperation(func(dest ...any) error {
			return rows.Scan(append(dest, &ao.RoomNumber)...)
		})
		if err != nil {
			return nil, fmt.Errorf("scanning active operation: %w", err)
		}
		ao.Operation = op
		ops = append(ops, ao)
	}

	return ops, rows.Err()
}

// scanOperation scans the eight operation columns through the given scan
// function. Callers append their own extra destinations.
func scanOperation(scan func(dest ...any) error) (domain.Operation, error) {
	var (
		op                                domain.Operation
		checkIn, status                   string
		checkOut                          sql.NullString
		stayCost, productsCost, totalCost string
	)

	err := scan(&op.ID, &op.RoomID, &checkIn, &checkOut, &stayCost, &productsCost, &totalCost, &status)
	if err != nil {
		return domain.Operation{}, err
	}

	if op.CheckIn, err = parseTime(checkIn); err != nil {
		return domain.Operation{}, err
	}
	if checkOut.Valid {
		t, err := parseTime(checkOut.String)
		if err != nil {
			return domain.Operation{}, err
		}
		op.CheckOut = &t
	}
	op.Status = domain.OperationStatus(status)

	if op.StayCost, err = parseDecimal(stayCost); err != nil {
		return domain.Operation{}, err
	}
	if op.ProductsCost, err = parseDecimal(productsCost); err != nil {
		return domain.Operation{}, err
	}
	if op.TotalCost, err = parseDecimal(totalCost); err != nil {
		return domain.Operation{}, err
	}

	return op, nil
}

// --- Atomic-group writes ---

func (v *txView) InsertOperation(ctx context.Context, op domain.Operation) error {
	var checkOut any
	if op.CheckOut != nil {
		checkOut = op.CheckOut.Format(timeFormat)
	}

	_, err := v.tx.ExecContext(ctx,
		`INSERT INTO operations (id, room_id, check_in, check_out, stay_cost, products_cost, total_cost, status)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		op.ID, op.RoomID, op.CheckIn.Format(timeFormat), checkOut,
		op.StayCost.String(), op.ProductsCost.String(), op.TotalCost.String(),
		string(op.Status),
	)
	if err != nil {
		// The partial unique index on (room_id) WHERE status='active'
		// backstops the one-active-operation-per-room invariant.
		if isUniqueViolation(err) {
			number := op.RoomID
			if room, roomErr := v.Room(ctx, op.RoomID); roomErr == nil {
				number = room.Number
			}
			return &domain.RoomUnavailableError{Number: number, Status: domain.RoomOccupied}
		}
		return fmt.Errorf("inserting operation: %w", err)
	}
	return nil
}

func (v *txView) UpdateRoomStatus(ctx context.Context, roomID string, status domain.RoomStatus) error {
	result, err := v.tx.ExecContext(ctx,
		`UPDATE rooms SET status = ? WHERE id = ?`, string(status), roomID)
	if err != nil {
		return fmt.Errorf("updating room status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func (v *txView) InsertConsumption(ctx context.Context, line domain.ConsumptionLine) error {
	_, err := v.tx.ExecContext(ctx,
		`INSERT INTO consumption_lines (id, operation_id, product_id, unit_price, quantity, subtotal)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		line.ID, line.OperationID, line.ProductID,
		line.UnitPrice.String(), line.Quantity, line.Subtotal.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting consumption line: %w", err)
	}
	return nil
}

// DebitStock performs the check-and-decrement as one conditional statement,
// so two concurrent consumptions of the same product from different
// operations cannot both pass a stale sufficiency check.
func (v *txView) DebitStock(ctx context.Context, productID string, quantity int64) error {
	result, err := v.tx.ExecContext(ctx,
		`UPDATE products SET stock = stock - ? WHERE id = ? AND stock >= ?`,
		quantity, productID, quantity)
	if err != nil {
		return fmt.Errorf("debiting stock: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		p, err := getProduct(ctx, v.tx, productID)
		if err != nil {
			return err
		}
		return &domain.InsufficientStockError{
			Product:   p.Name,
			Requested: quantity,
			Available: p.Stock,
		}
	}
	return nil
}

func (v *txView) AddProductsCost(ctx context.Context, op domain.Operation, line domain.ConsumptionLine) error {
	// Costs are stored as decimal text; the addition happens here, not in
	// SQL, to avoid the engine's float coercion. The per-operation lock
	// keeps op.ProductsCost current.
	newCost := op.ProductsCost.Add(line.Subtotal)

	result, err := v.tx.ExecContext(ctx,
		`UPDATE operations SET products_cost = ? WHERE id = ?`,
		newCost.String(), op.ID)
	if err != nil {
		return fmt.Errorf("updating products cost: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}

func (v *txView) CloseOperation(ctx context.Context, op domain.Operation) error {
	if op.CheckOut == nil {
		return fmt.Errorf("closing operation %s: missing check-out time", op.ID)
	}

	result, err := v.tx.ExecContext(ctx,
		`UPDATE operations
		 SET check_out = ?, stay_cost = ?, products_cost = ?, total_cost = ?, status = ?
		 WHERE id = ? AND status = ?`,
		op.CheckOut.Format(timeFormat),
		op.StayCost.String(), op.ProductsCost.String(), op.TotalCost.String(),
		string(domain.OperationClosed),
		op.ID, string(domain.OperationActive),
	)
	if err != nil {
		return fmt.Errorf("closing operation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrOperationNotFound
	}
	return nil
}
