// solforum/database/migrations.go
package database

// migration represents a single database schema migration.
type migration struct {
	Version uint
	Query   string
}

// allMigrations holds all schema changes in order.
var allMigrations = []migration{
	{
		Version: 1,
		Query: `
-- Add ban state to users
ALTER TABLE users ADD COLUMN is_banned BOOLEAN DEFAULT 0;
ALTER TABLE users ADD COLUMN ban_reason TEXT DEFAULT '';

CREATE INDEX IF NOT EXISTS idx_users_banned ON users(is_banned);
		`,
	},
	// Future migrations will be added here, e.g.:
	// {
	// 	Version: 2,
	// 	Query: `ALTER TABLE threads ADD COLUMN poll_id INTEGER;`,
	// },
}
