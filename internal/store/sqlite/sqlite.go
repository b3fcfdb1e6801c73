package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/groupcast-server/internal/store"
)

// Table names come from configuration; restrict them to plain identifiers
// since they are interpolated into statements.
var tableNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLiteStore implements store.MembershipStore on a local SQLite file.
type SQLiteStore struct {
	db    *sql.DB
	table string
}

// New opens (creating if needed) the membership table in the database at
// dbPath. The table identifier is supplied externally and validated here.
func New(dbPath, table string) (*SQLiteStore, error) {
	if !tableNameRe.MatchString(table) {
		return nil, fmt.Errorf("invalid membership table name %q", table)
	}

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	schema := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			group_id      TEXT NOT NULL,
			connection_id TEXT NOT NULL,
			PRIMARY KEY (group_id, connection_id)
		)
	`, table)
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create membership table: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db, table: table}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Ping verifies the database file is still reachable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Join upserts the (group, connection) pair. A pre-existing pair is
// overwritten silently.
func (s *SQLiteStore) Join(ctx context.Context, group, connection string) error {
	query := fmt.Sprintf(`INSERT OR REPLACE INTO %s (group_id, connection_id) VALUES (?, ?)`, s.table)
	if _, err := s.db.ExecContext(ctx, query, group, connection); err != nil {
		return fmt.Errorf("insert membership: %w", err)
	}
	return nil
}

// Remove deletes the pair; deleting an absent pair is a no-op.
func (s *SQLiteStore) Remove(ctx context.Context, group, connection string) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE group_id = ? AND connection_id = ?`, s.table)
	if _, err := s.db.ExecContext(ctx, query, group, connection); err != nil {
		return fmt.Errorf("delete membership: %w", err)
	}
	return nil
}

// MembersOf returns every connection recorded under group.
func (s *SQLiteStore) MembersOf(ctx context.Context, group string) ([]string, error) {
	query := fmt.Sprintf(`SELECT connection_id FROM %s WHERE group_id = ?`, s.table)
	rows, err := s.db.QueryContext(ctx, query, group)
	if err != nil {
		return nil, fmt.Errorf("query members: %w", err)
	}
	defer rows.Close()

	members := make([]string, 0)
	for rows.Next() {
		var conn string
		if err := rows.Scan(&conn); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, conn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return members, nil
}

// FindGroupFor locates the connection's membership record. The table is
// keyed by group for cheap fanout reads, so this is a scan over all rows;
// it only runs on disconnect, where the volume stays small.
func (s *SQLiteStore) FindGroupFor(ctx context.Context, connection string) (*store.Membership, error) {
	query := fmt.Sprintf(`SELECT group_id, connection_id FROM %s WHERE connection_id = ? LIMIT 1`, s.table)
	var m store.Membership
	err := s.db.QueryRowContext(ctx, query, connection).Scan(&m.Group, &m.Connection)
	if err == sql.ErrNoRows {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan for connection: %w", err)
	}
	return &m, nil
}
