package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizza-backend/internal/models"
)

type inventoryRepo struct {
	db *pgxpool.Pool
}

func NewInventoryRepository(db *pgxpool.Pool) InventoryRepository {
	return &inventoryRepo{db: db}
}

func validCategory(category string) bool {
	for _, c := range models.Categories {
		if c == category {
			return true
		}
	}
	return false
}

func (r *inventoryRepo) Create(ctx context.Context, item *models.InventoryItem) error {
	if item.Name == "" {
		return fmt.Errorf("%w: item name required", ErrInvalidInput)
	}
	if !validCategory(item.Category) {
		return fmt.Errorf("%w: invalid category '%s'", ErrInvalidInput, item.Category)
	}
	if item.Price <= 0 {
		return fmt.Errorf("%w: item price should be positive", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: item quantity cannot be negative", ErrInvalidInput)
	}
	if item.Threshold <= 0 {
		item.Threshold = models.DefaultThreshold
	}

	sql := `
		INSERT INTO inventory (
			category,
			name,
			quantity,
			price,
			threshold,
			last_restocked,
			created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7)
	RETURNING item_id
	`

	now := time.Now()
	item.LastRestocked = now
	item.CreatedAt = now

	err := r.db.QueryRow(ctx, sql,
		item.Category,
		item.Name,
		item.Quantity,
		item.Price,
		item.Threshold,
		item.LastRestocked,
		item.CreatedAt,
	).Scan(&item.ItemID)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return fmt.Errorf("%w: %s '%s' already exists", ErrDuplicate, item.Category, item.Name)
		}
		return fmt.Errorf("failed to create inventory item: %w", err)
	}

	return nil
}

func (r *inventoryRepo) GetByID(ctx context.Context, id int) (*models.InventoryItem, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `
		SELECT
			item_id,
			category,
			name,
			quantity,
			price,
			threshold,
			last_restocked,
			created_at
		FROM inventory WHERE item_id = $1
		`

	var item models.InventoryItem

	err := r.db.QueryRow(ctx, sql, id).Scan(
		&item.ItemID,
		&item.Category,
		&item.Name,
		&item.Quantity,
		&item.Price,
		&item.Threshold,
		&item.LastRestocked,
		&item.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get inventory item %d: %w", id, err)
	}

	return &item, nil
}

func (r *inventoryRepo) scanItems(rows pgx.Rows) ([]models.InventoryItem, error) {
	defer rows.Close()

	var items []models.InventoryItem

	for rows.Next() {
		var item models.InventoryItem

		err := rows.Scan(&item.ItemID,
			&item.Category,
			&item.Name,
			&item.Quantity,
			&item.Price,
			&item.Threshold,
			&item.LastRestocked,
			&item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan inventory items: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return items, nil
}

func (r *inventoryRepo) GetAll(ctx context.Context) ([]models.InventoryItem, error) {
	sql := `
	SELECT
		item_id,
		category,
		name,
		quantity,
		price,
		threshold,
		last_restocked,
		created_at
	FROM inventory
	ORDER BY category, name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all inventory items: %w", err)
	}

	return r.scanItems(rows)
}

func (r *inventoryRepo) GetAvailable(ctx context.Context) ([]models.InventoryItem, error) {
	sql := `
	SELECT
		item_id,
		category,
		name,
		quantity,
		price,
		threshold,
		last_restocked,
		created_at
	FROM inventory
	WHERE quantity > 0
	ORDER BY category, name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get available inventory: %w", err)
	}

	return r.scanItems(rows)
}

func (r *inventoryRepo) GetLowStock(ctx context.Context) ([]models.InventoryItem, error) {
	sql := `
	SELECT
		item_id,
		category,
		name,
		quantity,
		price,
		threshold,
		last_restocked,
		created_at
	FROM inventory
	WHERE quantity <= threshold
	ORDER BY category, name`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get low stock items: %w", err)
	}

	return r.scanItems(rows)
}

func (r *inventoryRepo) Update(ctx context.Context, item *models.InventoryItem) error {
	if item.ItemID <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}
	if item.Price <= 0 {
		return fmt.Errorf("%w: item price should be positive", ErrInvalidInput)
	}
	if item.Quantity < 0 {
		return fmt.Errorf("%w: item quantity cannot be negative", ErrInvalidInput)
	}
	if item.Threshold <= 0 {
		return fmt.Errorf("%w: threshold must be positive", ErrInvalidInput)
	}

	sql := `
		UPDATE inventory SET
			quantity = $1,
			price = $2,
			threshold = $3,
			last_restocked = $4
		WHERE item_id = $5
	`

	result, err := r.db.Exec(ctx, sql,
		item.Quantity,
		item.Price,
		item.Threshold,
		item.LastRestocked,
		item.ItemID,
	)
	if err != nil {
		return fmt.Errorf("failed to update inventory item %d: %w", item.ItemID, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}

func (r *inventoryRepo) Delete(ctx context.Context, id int) error {
	if id <= 0 {
		return fmt.Errorf("%w: ID must be positive", ErrInvalidInput)
	}

	sql := `DELETE FROM inventory WHERE item_id = $1`

	result, err := r.db.Exec(ctx, sql, id)
	if err != nil {
		return fmt.Errorf("failed to delete inventory item %d: %w", id, err)
	}

	if result.RowsAffected() == 0 {
		return ErrNotFound
	}

	return nil
}
