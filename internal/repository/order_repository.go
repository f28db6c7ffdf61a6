package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"pizza-backend/internal/models"
)

type orderRepo struct {
	db *pgxpool.Pool
}

func NewOrderRepository(db *pgxpool.Pool) OrderRepository {
	return &orderRepo{db: db}
}

// generateOrderNumber builds the human-readable identifier shown to the
// customer. The count suffix keeps numbers readable; the unique index on
// order_number is what actually guards against collisions.
func generateOrderNumber(now time.Time, count int) string {
	return fmt.Sprintf("ORD%d%d", now.UnixMilli(), count+1)
}

func (r *orderRepo) Create(ctx context.Context, order *models.Order) error {
	if order == nil {
		return fmt.Errorf("%w: order cannot be nil", ErrInvalidInput)
	}
	if order.UserID <= 0 {
		return fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}
	if order.Pizza.Base == "" || order.Pizza.Sauce == "" || order.Pizza.Cheese == "" {
		return fmt.Errorf("%w: base, sauce and cheese are required", ErrInvalidInput)
	}

	ingredients := order.Pizza.Ingredients()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID int
	err = tx.QueryRow(ctx, `SELECT user_id FROM users WHERE user_id = $1`, order.UserID).Scan(&userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to get user by id: %w", err)
	}

	// Price comes from the current catalog; whatever the client sent is
	// ignored.
	sqlItem := `
		SELECT
			item_id,
			price
		FROM inventory
		WHERE category = $1 AND name = $2
	`

	itemIDs := make([]int, 0, len(ingredients))
	var total float64

	for _, ing := range ingredients {
		var itemID int
		var price float64

		err := tx.QueryRow(ctx, sqlItem, ing.Category, ing.Name).Scan(&itemID, &price)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return fmt.Errorf("%w: %s '%s' is not on the menu", ErrInvalidInput, ing.Category, ing.Name)
			}
			return fmt.Errorf("failed to get ingredient %s/%s: %w", ing.Category, ing.Name, err)
		}

		itemIDs = append(itemIDs, itemID)
		total += price
	}
	order.TotalPrice = total

	var count int
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM orders`).Scan(&count); err != nil {
		return fmt.Errorf("failed to count orders: %w", err)
	}

	now := time.Now()
	order.OrderNumber = generateOrderNumber(now, count)
	order.Status = models.StatusReceived
	order.CreatedAt = now
	if order.PaymentStatus == "" {
		order.PaymentStatus = models.PaymentCompleted
	}

	insert := `INSERT INTO orders (
		order_number,
		user_id,
		base,
		sauce,
		cheese,
		total_price,
		status,
		payment_id,
		payment_status,
		created_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	RETURNING order_id
	`

	err = tx.QueryRow(ctx, insert,
		order.OrderNumber,
		order.UserID,
		order.Pizza.Base,
		order.Pizza.Sauce,
		order.Pizza.Cheese,
		order.TotalPrice,
		order.Status,
		order.PaymentID,
		order.PaymentStatus,
		order.CreatedAt,
	).Scan(&order.OrderID)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	insertToppingSQL := `INSERT INTO order_toppings (order_id, category, name)
		VALUES ($1, $2, $3)
	`
	for _, v := range order.Pizza.Veggies {
		if _, err := tx.Exec(ctx, insertToppingSQL, order.OrderID, models.CategoryVeggie, v); err != nil {
			return fmt.Errorf("failed to create topping: %w", err)
		}
	}
	for _, m := range order.Pizza.Meat {
		if _, err := tx.Exec(ctx, insertToppingSQL, order.OrderID, models.CategoryMeat, m); err != nil {
			return fmt.Errorf("failed to create topping: %w", err)
		}
	}

	insertHistorySQL := `INSERT INTO order_status_history (order_id, status, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertHistorySQL, order.OrderID, models.StatusReceived, now); err != nil {
		return fmt.Errorf("failed to create status history entry: %w", err)
	}
	order.StatusHistory = []models.StatusEntry{{Status: models.StatusReceived, Timestamp: now}}

	// One conditional decrement per selected ingredient. The quantity guard
	// keeps stock from going below zero; if any ingredient ran out the whole
	// transaction rolls back and the order is not placed.
	decrement := `UPDATE inventory
		SET quantity = quantity - 1
		WHERE item_id = $1 AND quantity >= 1
	`

	insertMovementSQL := `INSERT INTO stock_movements (
		item_id,
		order_id,
		movement_type,
		change_quant,
		created_at
	) VALUES ($1, $2, $3, $4, $5)
	`

	for i, itemID := range itemIDs {
		result, err := tx.Exec(ctx, decrement, itemID)
		if err != nil {
			return fmt.Errorf("failed to update inventory item %d: %w", itemID, err)
		}

		if result.RowsAffected() == 0 {
			ing := ingredients[i]
			return fmt.Errorf("%w: %s '%s' is out of stock", ErrNotEnough, ing.Category, ing.Name)
		}

		_, err = tx.Exec(ctx, insertMovementSQL, itemID, order.OrderID, models.MovementOrder, -1, now)
		if err != nil {
			return fmt.Errorf("failed to create stock movement: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

func (r *orderRepo) GetByID(ctx context.Context, id int) (*models.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT
		o.order_id,
		o.order_number,
		o.user_id,
		u.name,
		u.email,
		o.base,
		o.sauce,
		o.cheese,
		o.total_price,
		o.status,
		o.payment_id,
		o.payment_status,
		o.created_at,
		t.category,
		t.name
	FROM orders o
	JOIN users u ON o.user_id = u.user_id
	LEFT JOIN order_toppings t ON o.order_id = t.order_id
	WHERE o.order_id = $1
	ORDER BY t.topping_id
	`

	rows, err := r.db.Query(ctx, sql, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get order with toppings %d: %w", id, err)
	}

	defer rows.Close()

	var order *models.Order
	var orderFound bool

	for rows.Next() {
		var currentOrder models.Order
		var toppingCategory pgtype.Text
		var toppingName pgtype.Text

		err := rows.Scan(&currentOrder.OrderID,
			&currentOrder.OrderNumber,
			&currentOrder.UserID,
			&currentOrder.UserName,
			&currentOrder.UserEmail,
			&currentOrder.Pizza.Base,
			&currentOrder.Pizza.Sauce,
			&currentOrder.Pizza.Cheese,
			&currentOrder.TotalPrice,
			&currentOrder.Status,
			&currentOrder.PaymentID,
			&currentOrder.PaymentStatus,
			&currentOrder.CreatedAt,
			&toppingCategory,
			&toppingName,
		)
		if err != nil {
			return nil, fmt.Errorf("scan order/topping: %w", err)
		}
		if !orderFound {
			order = &currentOrder
			orderFound = true
		}
		if toppingCategory.Valid {
			switch toppingCategory.String {
			case models.CategoryVeggie:
				order.Pizza.Veggies = append(order.Pizza.Veggies, toppingName.String)
			case models.CategoryMeat:
				order.Pizza.Meat = append(order.Pizza.Meat, toppingName.String)
			}
		}
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows iteration: %w", err)
	}

	if !orderFound {
		return nil, ErrNotFound
	}

	history, err := r.getStatusHistory(ctx, order.OrderID)
	if err != nil {
		return nil, err
	}
	order.StatusHistory = history

	return order, nil
}

func (r *orderRepo) getStatusHistory(ctx context.Context, orderID int) ([]models.StatusEntry, error) {
	sql := `SELECT
		status,
		created_at
	FROM order_status_history
	WHERE order_id = $1
	ORDER BY entry_id`

	rows, err := r.db.Query(ctx, sql, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to get status history %d: %w", orderID, err)
	}

	defer rows.Close()

	var history []models.StatusEntry

	for rows.Next() {
		var entry models.StatusEntry

		if err := rows.Scan(&entry.Status, &entry.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan status history: %w", err)
		}
		history = append(history, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return history, nil
}

func (r *orderRepo) scanOrders(rows pgx.Rows) ([]models.Order, error) {
	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var o models.Order

		err := rows.Scan(&o.OrderID,
			&o.OrderNumber,
			&o.UserID,
			&o.UserName,
			&o.UserEmail,
			&o.Pizza.Base,
			&o.Pizza.Sauce,
			&o.Pizza.Cheese,
			&o.TotalPrice,
			&o.Status,
			&o.PaymentID,
			&o.PaymentStatus,
			&o.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan orders: %w", err)
		}
		orders = append(orders, o)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return orders, nil
}

// attachToppings loads toppings for a batch of orders in one query.
func (r *orderRepo) attachToppings(ctx context.Context, orders []models.Order) error {
	if len(orders) == 0 {
		return nil
	}

	orderIDs := make([]int, 0, len(orders))
	byID := make(map[int]*models.Order, len(orders))
	for i := range orders {
		orderIDs = append(orderIDs, orders[i].OrderID)
		byID[orders[i].OrderID] = &orders[i]
	}

	sql := `SELECT
		order_id,
		category,
		name
	FROM order_toppings
	WHERE order_id = ANY($1::int[])
	ORDER BY topping_id`

	rows, err := r.db.Query(ctx, sql, orderIDs)
	if err != nil {
		return fmt.Errorf("failed to get order toppings: %w", err)
	}

	defer rows.Close()

	for rows.Next() {
		var orderID int
		var category, name string

		if err := rows.Scan(&orderID, &category, &name); err != nil {
			return fmt.Errorf("failed to scan order toppings: %w", err)
		}

		o, exist := byID[orderID]
		if !exist {
			continue
		}
		switch category {
		case models.CategoryVeggie:
			o.Pizza.Veggies = append(o.Pizza.Veggies, name)
		case models.CategoryMeat:
			o.Pizza.Meat = append(o.Pizza.Meat, name)
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to complete row iteration: %w", err)
	}

	return nil
}

func (r *orderRepo) GetAll(ctx context.Context) ([]models.Order, error) {
	sql := `SELECT
		o.order_id,
		o.order_number,
		o.user_id,
		u.name,
		u.email,
		o.base,
		o.sauce,
		o.cheese,
		o.total_price,
		o.status,
		o.payment_id,
		o.payment_status,
		o.created_at
	FROM orders o
	JOIN users u ON o.user_id = u.user_id
	ORDER BY o.created_at DESC`

	rows, err := r.db.Query(ctx, sql)
	if err != nil {
		return nil, fmt.Errorf("failed to get all orders: %w", err)
	}

	orders, err := r.scanOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachToppings(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepo) GetByUserID(ctx context.Context, userID int) ([]models.Order, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: user ID must be positive", ErrInvalidInput)
	}

	sql := `SELECT
		o.order_id,
		o.order_number,
		o.user_id,
		u.name,
		u.email,
		o.base,
		o.sauce,
		o.cheese,
		o.total_price,
		o.status,
		o.payment_id,
		o.payment_status,
		o.created_at
	FROM orders o
	JOIN users u ON o.user_id = u.user_id
	WHERE o.user_id = $1
	ORDER BY o.created_at DESC`

	rows, err := r.db.Query(ctx, sql, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders by user ID %d: %w", userID, err)
	}

	orders, err := r.scanOrders(rows)
	if err != nil {
		return nil, err
	}

	if err := r.attachToppings(ctx, orders); err != nil {
		return nil, err
	}

	return orders, nil
}

func (r *orderRepo) UpdateStatus(ctx context.Context, id int, status string) (*models.Order, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: order ID must be positive", ErrInvalidInput)
	}
	if !models.ValidStatus(status) {
		return nil, fmt.Errorf("%w: invalid status '%s'", ErrInvalidInput, status)
	}

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var current string

	err = tx.QueryRow(ctx, `SELECT status FROM orders WHERE order_id = $1 FOR UPDATE`, id).Scan(&current)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get order %d: %w", id, err)
	}

	if !models.CanTransition(current, status) {
		return nil, fmt.Errorf("%w: cannot move from '%s' to '%s'", ErrInvalidInput, current, status)
	}

	now := time.Now()

	if _, err := tx.Exec(ctx, `UPDATE orders SET status = $1 WHERE order_id = $2`, status, id); err != nil {
		return nil, fmt.Errorf("failed to update status of order %d: %w", id, err)
	}

	insertHistorySQL := `INSERT INTO order_status_history (order_id, status, created_at)
		VALUES ($1, $2, $3)
	`
	if _, err := tx.Exec(ctx, insertHistorySQL, id, status, now); err != nil {
		return nil, fmt.Errorf("failed to create status history entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}

	return r.GetByID(ctx, id)
}
