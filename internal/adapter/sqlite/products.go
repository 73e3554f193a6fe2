package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/neomorfeo/aquamotel/internal/domain"
)

// ProductRepository implements domain.ProductRepository using SQLite.
type ProductRepository struct {
	db *sql.DB
}

// Compile-time check: ProductRepository implements domain.ProductRepository.
var _ domain.ProductRepository = (*ProductRepository)(nil)

// NewProductRepository creates a product repository sharing the store's
// connection.
func NewProductRepository(s *Store) *ProductRepository {
	return &ProductRepository{db: s.db}
}

func (r *ProductRepository) Create(ctx context.Context, p domain.Product) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO products (id, name, cost, unit_price, stock, active)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Cost.String(), p.UnitPrice.String(), p.Stock, boolToInt(p.Active),
	)
	if err != nil {
		return fmt.Errorf("inserting product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Get(ctx context.Context, id string) (domain.Product, error) {
	return getProduct(ctx, r.db, id)
}

func (r *ProductRepository) ListActive(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, cost, unit_price, stock, active
		 FROM products WHERE active = 1 ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (r *ProductRepository) Update(ctx context.Context, p domain.Product) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET name = ?, cost = ?, unit_price = ?, stock = ? WHERE id = ?`,
		p.Name, p.Cost.String(), p.UnitPrice.String(), p.Stock, p.ID,
	)
	if err != nil {
		return fmt.Errorf("updating product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// Deactivate soft-deletes a product so historical consumption lines keep
// their reference.
func (r *ProductRepository) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE products SET active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivating product: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rows == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

// RecordIntake persists the intake header and lines and increments stock,
// all in one transaction.
func (r *ProductRepository) RecordIntake(ctx context.Context, intake domain.SupplyIntake) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return &domain.StorageError{Op: "beginning intake transaction", Err: err}
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO supply_intakes (id, received_at, total_cost) VALUES (?, ?, ?)`,
		intake.ID, intake.ReceivedAt.Format(timeFormat), intake.TotalCost.String(),
	)
	if err != nil {
		return fmt.Errorf("inserting supply intake: %w", err)
	}

	for _, line := range intake.Lines {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO supply_intake_lines (id, intake_id, product_id, quantity, unit_cost, subtotal)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			line.ID, line.IntakeID, line.ProductID, line.Quantity,
			line.UnitCost.String(), line.Subtotal.String(),
		)
		if err != nil {
			// product_id is the only constraint that can fail here; the
			// intake header was inserted in this same transaction.
			if isForeignKeyViolation(err) {
				return domain.ErrProductNotFound
			}
			return fmt.Errorf("inserting supply intake line: %w", err)
		}

		result, err := tx.ExecContext(ctx,
			`UPDATE products SET stock = stock + ? WHERE id = ?`,
			line.Quantity, line.ProductID)
		if err != nil {
			return fmt.Errorf("replenishing stock: %w", err)
		}
		rows, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("checking rows affected: %w", err)
		}
		if rows == 0 {
			return domain.ErrProductNotFound
		}
	}

	if err := tx.Commit(); err != nil {
		return &domain.StorageError{Op: "committing intake transaction", Err: err}
	}
	return nil
}

// getProduct reads a product by id from either a *sql.DB or a *sql.Tx.
func getProduct(ctx context.Context, q querier, id string) (domain.Product, error) {
	row := q.QueryRowContext(ctx,
		`SELECT id, name, cost, unit_price, stock, active
		 FROM products WHERE id = ?`, id)

	p, err := scanProduct(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scanning product: %w", err)
	}
	return p, nil
}

func scanProduct(scan func(dest ...any) error) (domain.Product, error) {
	var p domain.Product
	var cost, unitPrice string
	var active int64

	if err := scan(&p.ID, &p.Name, &cost, &unitPrice, &p.Stock, &active); err != nil {
		return domain.Product{}, err
	}
	p.Active = active != 0

	var err error
	if p.Cost, err = parseDecimal(cost); err != nil {
		return domain.Product{}, err
	}
	if p.UnitPrice, err = parseDecimal(unitPrice); err != nil {
		return domain.Product{}, err
	}

	return p, nil
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
