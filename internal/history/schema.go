package history

import "database/sql"

// initSchema ensures the history table exists. Statements are idempotent so
// reopening an existing database is safe.
func initSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS history (
            date TIMESTAMP NOT NULL,
            feed TEXT NOT NULL,
            url TEXT NOT NULL,
            title TEXT NOT NULL
        )`,
		`CREATE INDEX IF NOT EXISTS idx_history_feed_title ON history(feed, title)`,
		`CREATE INDEX IF NOT EXISTS idx_history_date ON history(date)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}
