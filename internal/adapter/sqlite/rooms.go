package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// RoomRepository implements domain.RoomRepository using SQLite.
type RoomRepository struct {
	db *sql.DB
}

// Compile-time check: RoomRepository implements domain.RoomRepository.
var _ domain.RoomRepository = (*RoomRepository)(nil)

// NewRoomRepository creates a room repository sharing the store's connection.
func NewRoomRepository(s *Store) *RoomRepository {
	return &RoomRepository{db: s.db}
}

const selectRoom = `
	SELECT r.id, r.number, r.room_type_id, rt.name, r.status
	FROM rooms r
	INNER JOIN room_types rt ON r.room_type_id = rt.id`

func (r *RoomRepository) Create(ctx context.Context, room domain.Room) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO rooms (id, number, room_type_id, status)
		 VALUES (?, ?, ?, ?)`,
		room.ID, room.Number, room.RoomTypeID, string(room.Status),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.RoomNumberConflictError{Number: room.Number}
		}
		return fmt.Errorf("inserting room: %w", err)
	}
	return nil
}

func (r *RoomRepository) Get(ctx context.Context, id string) (domain.Room, error) {
	return getRoom(ctx, r.db, selectRoom+` WHERE r.id = ?`, id)
}

func (r *RoomRepository) List(ctx context.Context) ([]domain.Room, error) {
	rows, err := r.db.QueryContext(ctx, selectRoom+` ORDER BY r.number ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing rooms: %w", err)
	}
	defer rows.Close()

	var rooms []domain.Room
	for rows.Next() {
		var room domain.Room
		var status string

		if err := rows.Scan(&room.ID, &room.Number, &room.RoomTypeID, &room.TypeName, &status); err != nil {
			return nil, fmt.Errorf("scanning room row: %w", err)
		}
		room.Status = domain.RoomStatus(status)
		rooms = append(rooms, room)
	}

	return rooms, rows.Err()
}

func (r *RoomRepository) Update(ctx context.Context, room domain.Room) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE rooms SET number = ?, room_type_id = ?, status = ? WHERE id = ?`,
		room.Number, room.RoomTypeID, string(room.Status), room.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return &domain.RoomNumberConflictError{Number: room.Number}
		}
		return fmt.Errorf("updating room: %w", err)
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

// getRoom scans a single room (with its rate card name) from a query that
// selects the selectRoom columns.
func getRoom(ctx context.Context, q querier, query string, args ...any) (domain.Room, error) {
	row := q.QueryRowContext(ctx, query, args...)

	var room domain.Room
	var status string

	err := row.Scan(&room.ID, &room.Number, &room.RoomTypeID, &room.TypeName, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Room{}, domain.ErrRoomNotFound
		}
		return domain.Room{}, fmt.Errorf("scanning room: %w", err)
	}

	room.Status = domain.RoomStatus(status)
	return room, nil
}
