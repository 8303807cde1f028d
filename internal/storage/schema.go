// ABOUTME: SQL dialects and schema for the document table.
// ABOUTME: SQLite (modernc.org/sqlite) and Postgres (pgx stdlib) share one layout.
package storage

// Dialect holds the driver name and statements for one SQL engine.
type Dialect struct {
	Name       string
	DriverName string
	Schema     string

	getQuery    string
	upsertQuery string
	deleteQuery string
	listQuery   string
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name:       "sqlite",
	DriverName: "sqlite",
	Schema: `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		data BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);
	`,
	getQuery: `SELECT data FROM documents WHERE path = ?`,
	upsertQuery: `
		INSERT INTO documents (path, data, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at
	`,
	deleteQuery: `DELETE FROM documents WHERE path = ?`,
	listQuery:   `SELECT path, data FROM documents WHERE path LIKE ? ESCAPE '\' ORDER BY path`,
}

// Postgres is the dialect for github.com/jackc/pgx/v5/stdlib.
var Postgres = Dialect{
	Name:       "postgres",
	DriverName: "pgx",
	Schema: `
	CREATE TABLE IF NOT EXISTS documents (
		path TEXT PRIMARY KEY,
		data BYTEA NOT NULL,
		updated_at TEXT NOT NULL
	);
	`,
	getQuery: `SELECT data FROM documents WHERE path = $1`,
	upsertQuery: `
		INSERT INTO documents (path, data, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (path) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at
	`,
	deleteQuery: `DELETE FROM documents WHERE path = $1`,
	listQuery:   `SELECT path, data FROM documents WHERE path LIKE $1 ESCAPE '\' ORDER BY path`,
}

// initSchema creates the document table if it does not exist.
func (s *SQLStore) initSchema() error {
	_, err := s.db.Exec(s.dialect.Schema)
	return err
}
