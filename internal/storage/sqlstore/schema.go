package sqlstore

// schema holds statements valid on both SQLite and PostgreSQL.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL DEFAULT '',
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		refresh_token_hash TEXT NOT NULL,
		expires_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sessions_expires_at ON sessions (expires_at)`,
	`CREATE TABLE IF NOT EXISTS restaurants (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cuisine TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL DEFAULT '',
		description TEXT NOT NULL DEFAULT '',
		staff_id TEXT NOT NULL,
		owner_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_restaurants_staff_id ON restaurants (staff_id)`,
	`CREATE TABLE IF NOT EXISTS reservations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		restaurant_id TEXT NOT NULL,
		reserved_at TIMESTAMP NOT NULL,
		party_size INTEGER NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		status TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_user_id ON reservations (user_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_restaurant_id ON reservations (restaurant_id)`,
	`CREATE INDEX IF NOT EXISTS idx_reservations_status_reserved_at ON reservations (status, reserved_at)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		restaurant_id TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL,
		UNIQUE (customer_id, restaurant_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_reviews_restaurant_id ON reviews (restaurant_id)`,
	`CREATE TABLE IF NOT EXISTS rewards (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		cost_points BIGINT NOT NULL,
		active BOOLEAN NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reward_ledger (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		points BIGINT NOT NULL,
		reason TEXT NOT NULL,
		reference TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`DROP INDEX IF EXISTS idx_reward_ledger_user_reference`,
	`CREATE UNIQUE INDEX IF NOT EXISTS uq_reward_ledger_user_reference ON reward_ledger (user_id, reference)`,
}
