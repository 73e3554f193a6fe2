package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// RoomTypeRepository implements domain.RoomTypeRepository using SQLite.
type RoomTypeRepository struct {
	db *sql.DB
}

// Compile-time check: RoomTypeRepository implements domain.RoomTypeRepository.
var _ domain.RoomTypeRepository = (*RoomTypeRepository)(nil)

// NewRoomTypeRepository creates a rate card repository sharing the store's
// connection.
func NewRoomTypeRepository(s *Store) *RoomTypeRepository {
	return &RoomTypeRepository{db: s.db}
}

func (r *RoomTypeRepository) Create(ctx context.Context, rt domain.RoomType) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO room_types (id, name, base_price, half_hour_price, night_price)
		 VALUES (?, ?, ?, ?, ?)`,
		rt.ID, rt.Name, rt.BasePrice.String(), nullDecimal(rt.HalfHourPrice), rt.NightPrice.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting room type: %w", err)
	}
	return nil
}

func (r *RoomTypeRepository) Get(ctx context.Context, id string) (domain.RoomType, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, name, base_price, half_hour_price, night_price
		 FROM room_types WHERE id = ?`, id)

	rt, err := scanRoomType(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.RoomType{}, domain.ErrRoomTypeNotFound
		}
		return domain.RoomType{}, fmt.Errorf("scanning room type: %w", err)
	}
	return rt, nil
}

func (r *RoomTypeRepository) List(ctx context.Context) ([]domain.RoomType, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, base_price, half_hour_price, night_price
		 FROM room_types ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing room types: %w", err)
	}
	defer rows.Close()

	var types []domain.RoomType
	for rows.Next() {
		rt, err := scanRoomType(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning room type row: %w", err)
		}
		types = append(types, rt)
	}

	return types, rows.Err()
}

func (r *RoomTypeRepository) Update(ctx context.Context, rt domain.RoomType) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE room_types SET name = ?, base_price = ?, half_hour_price = ?, night_price = ?
		 WHERE id = ?`,
		rt.Name, rt.BasePrice.String(), nullDecimal(rt.HalfHourPrice), rt.NightPrice.String(), rt.ID,
	)
	if err != nil {
		return fmt.Errorf("updating room type: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrRoomTypeNotFound
	}
	return nil
}

func scanRoomType(scan func(dest ...any) error) (domain.RoomType, error) {
	var rt domain.RoomType
	var base, night string
	var halfHour sql.NullString

	if err := scan(&rt.ID, &rt.Name, &base, &halfHour, &night); err != nil {
		return domain.RoomType{}, err
	}

	var err error
	if rt.BasePrice, err = parseDecimal(base); err != nil {
		return domain.RoomType{}, err
	}
	if halfHour.Valid {
		d, err := parseDecimal(halfHour.String)
		if err != nil {
			return domain.RoomType{}, err
		}
		rt.HalfHourPrice = &d
	}
	if rt.NightPrice, err = parseDecimal(night); err != nil {
		return domain.RoomType{}, err
	}

	return rt, nil
}

func nullDecimal(d *decimal.Decimal) any {
	if d == nil {
		return nil
	}
	return d.String()
}
