package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizza-backend/internal/models"
)

type movementRepo struct {
	db *pgxpool.Pool
}

func NewMovementRepository(db *pgxpool.Pool) MovementRepository {
	return &movementRepo{db: db}
}

func (r *movementRepo) Create(ctx context.Context, m *models.StockMovement) error {
	if m == nil {
		return fmt.Errorf("%w: movement cannot be nil", ErrInvalidInput)
	}
	if m.ItemID <= 0 {
		return fmt.Errorf("%w: item ID must be positive", ErrInvalidInput)
	}
	if m.Change == 0 {
		return fmt.Errorf("%w: change quantity cannot be 0", ErrInvalidInput)
	}

	validTypes := map[string]bool{
		models.MovementOrder:      true,
		models.MovementRestock:    true,
		models.MovementAdjustment: true,
	}
	if !validTypes[m.MovementType] {
		return fmt.Errorf("%w: invalid movement type '%s'", ErrInvalidInput, m.MovementType)
	}

	var orderID interface{}
	if m.OrderID > 0 {
		orderID = m.OrderID
	}

	sql := `INSERT INTO stock_movements (
		item_id,
		order_id,
		movement_type,
		change_quant,
		created_at
	) VALUES ($1, $2, $3, $4, $5)
	RETURNING movement_id
	`

	m.CreatedAt = time.Now()

	err := r.db.QueryRow(ctx, sql,
		m.ItemID,
		orderID,
		m.MovementType,
		m.Change,
		m.CreatedAt,
	).Scan(&m.MovementID)
	if err != nil {
		return fmt.Errorf("failed to create stock movement: %w", err)
	}

	return nil
}

func (r *movementRepo) scanMovements(rows pgx.Rows) ([]models.StockMovement, error) {
	defer rows.Close()

	var movements []models.StockMovement

	for rows.Next() {
		var m models.StockMovement
		var orderID pgtype.Int4

		err := rows.Scan(&m.MovementID,
			&m.ItemID,
			&orderID,
			&m.MovementType,
			&m.Change,
			&m.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan stock movements: %w", err)
		}

		if orderID.Valid {
			m.OrderID = int(orderID.Int32)
		}
		movements = append(movements, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return movements, nil
}

func (r *movementRepo) GetByItemID(ctx context.Context, itemID int) ([]models.StockMovement, error) {
	if itemID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT
		movement_id,
		item_id,
		order_id,
		movement_type,
		change_quant,
		created_at
	FROM stock_movements
	WHERE item_id = $1
	ORDER BY movement_id`

	rows, err := r.db.Query(ctx, sql, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements by item ID %d: %w", itemID, err)
	}

	return r.scanMovements(rows)
}

func (r *movementRepo) GetByOrderID(ctx context.Context, orderID int) ([]models.StockMovement, error) {
	if orderID <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT
		movement_id,
		item_id,
		order_id,
		movement_type,
		change_quant,
		created_at
	FROM stock_movements
	WHERE order_id = $1
	ORDER BY movement_id`

	rows, err := r.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get movements by order ID %d: %w", orderID, err)
	}

	return r.scanMovements(rows)
}
