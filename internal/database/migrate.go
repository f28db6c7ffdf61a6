package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

// migration versions must stay append-only; applied versions are recorded in
// schema_migrations and never re-run.
var migrations = []struct {
	version string
	sql     string
}{
	{
		version: "001_create_users",
		sql: `CREATE TABLE IF NOT EXISTS users (
			user_id SERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT NOT NULL UNIQUE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user' CHECK (role IN ('user', 'admin')),
			is_verified BOOLEAN NOT NULL DEFAULT FALSE,
			verification_token_hash TEXT,
			verification_token_expire TIMESTAMPTZ,
			reset_token_hash TEXT,
			reset_token_expire TIMESTAMPTZ,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		version: "002_create_inventory",
		sql: `CREATE TABLE IF NOT EXISTS inventory (
			item_id SERIAL PRIMARY KEY,
			category TEXT NOT NULL CHECK (category IN ('base', 'sauce', 'cheese', 'veggie', 'meat')),
			name TEXT NOT NULL,
			quantity INTEGER NOT NULL DEFAULT 100 CHECK (quantity >= 0),
			price DOUBLE PRECISION NOT NULL,
			threshold INTEGER NOT NULL DEFAULT 20,
			last_restocked TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (category, name)
		)`,
	},
	{
		version: "003_create_orders",
		sql: `CREATE TABLE IF NOT EXISTS orders (
			order_id SERIAL PRIMARY KEY,
			order_number TEXT NOT NULL UNIQUE,
			user_id INTEGER NOT NULL REFERENCES users(user_id),
			base TEXT NOT NULL,
			sauce TEXT NOT NULL,
			cheese TEXT NOT NULL,
			total_price DOUBLE PRECISION NOT NULL,
			status TEXT NOT NULL DEFAULT 'Order Received',
			payment_id TEXT NOT NULL,
			payment_status TEXT NOT NULL DEFAULT 'pending' CHECK (payment_status IN ('pending', 'completed', 'failed')),
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		version: "004_create_order_toppings",
		sql: `CREATE TABLE IF NOT EXISTS order_toppings (
			topping_id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
			category TEXT NOT NULL CHECK (category IN ('veggie', 'meat')),
			name TEXT NOT NULL
		)`,
	},
	{
		version: "005_create_order_status_history",
		sql: `CREATE TABLE IF NOT EXISTS order_status_history (
			entry_id SERIAL PRIMARY KEY,
			order_id INTEGER NOT NULL REFERENCES orders(order_id) ON DELETE CASCADE,
			status TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		version: "006_create_stock_movements",
		sql: `CREATE TABLE IF NOT EXISTS stock_movements (
			movement_id SERIAL PRIMARY KEY,
			item_id INTEGER NOT NULL REFERENCES inventory(item_id) ON DELETE CASCADE,
			order_id INTEGER REFERENCES orders(order_id),
			movement_type TEXT NOT NULL CHECK (movement_type IN ('order', 'restock', 'adjustment')),
			change_quant INTEGER NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	},
	{
		version: "007_index_orders_user",
		sql:     `CREATE INDEX IF NOT EXISTS idx_orders_user_id ON orders(user_id)`,
	},
}

func Migrate(pool *pgxpool.Pool) error {
	ctx := context.Background()

	_, err := pool.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version VARCHAR(255) PRIMARY KEY,
			applied_at TIMESTAMPTZ DEFAULT NOW()
		)
	`)
	if err != nil {
		return fmt.Errorf("failed to create schema_migrations: %w", err)
	}

	query := "SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)"

	for _, migration := range migrations {
		var exists bool

		err := pool.QueryRow(ctx, query, migration.version).Scan(&exists)
		if err != nil {
			return fmt.Errorf("failed to check migration %s: %w", migration.version, err)
		}

		if exists {
			continue
		}

		if _, err := pool.Exec(ctx, migration.sql); err != nil {
			return fmt.Errorf("failed to apply migration %s: %w", migration.version, err)
		}

		insertQuery := "INSERT INTO schema_migrations (version) VALUES ($1)"
		if _, err := pool.Exec(ctx, insertQuery, migration.version); err != nil {
			return fmt.Errorf("failed to record migration %s: %w", migration.version, err)
		}
	}

	return nil
}
