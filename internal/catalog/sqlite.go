package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

var _ Catalog = (*SQLiteCatalog)(nil)

// SQLiteCatalog is a Catalog kept in a local SQLite database.
type SQLiteCatalog struct {
	db *sql.DB
}

// NewSQLite opens (or creates) the catalog database at dbPath and runs
// migrations.
func NewSQLite(dbPath string) (*SQLiteCatalog, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One connection keeps in-memory databases shared across calls.
	db.SetMaxOpenConns(1)

	c := &SQLiteCatalog{db: db}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return c, nil
}

func (c *SQLiteCatalog) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS tables (
			database        TEXT NOT NULL,
			name            TEXT NOT NULL,
			location        TEXT NOT NULL,
			partition_keys  TEXT NOT NULL DEFAULT '',
			PRIMARY KEY (database, name)
		)`,
		`CREATE TABLE IF NOT EXISTS partitions (
			database     TEXT NOT NULL,
			table_name   TEXT NOT NULL,
			vals         TEXT NOT NULL,
			location     TEXT NOT NULL,
			updated_at   TEXT NOT NULL DEFAULT (datetime('now')),
			PRIMARY KEY (database, table_name, vals)
		)`,
	}
	for _, s := range stmts {
		if _, err := c.db.Exec(s); err != nil {
			return err
		}
	}
	return nil
}

func (c *SQLiteCatalog) GetTable(ctx context.Context, database, name string) (Table, error) {
	var location, keys string
	err := c.db.QueryRowContext(ctx,
		`SELECT location, partition_keys FROM tables WHERE database = ? AND name = ?`,
		database, name,
	).Scan(&location, &keys)
	if errors.Is(err, sql.ErrNoRows) {
		return Table{}, ErrTableNotFound
	}
	if err != nil {
		return Table{}, fmt.Errorf("get table %s.%s: %w", database, name, err)
	}

	t := Table{Database: database, Name: name, Location: location}
	if keys != "" {
		t.PartitionKeys = strings.Split(keys, ",")
	}
	return t, nil
}

func (c *SQLiteCatalog) EnsureTable(ctx context.Context, table Table) error {
	_, err := c.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO tables (database, name, location, partition_keys) VALUES (?, ?, ?, ?)`,
		table.Database, table.Name, table.Location, strings.Join(table.PartitionKeys, ","),
	)
	if err != nil {
		return fmt.Errorf("ensure table %s.%s: %w", table.Database, table.Name, err)
	}
	return nil
}

// UpsertPartitions registers partitions in a single transaction.
func (c *SQLiteCatalog) UpsertPartitions(ctx context.Context, database, table string, parts []Partition) (UpsertResult, error) {
	var res UpsertResult
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return res, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	for _, p := range parts {
		vals := strings.Join(p.Values, "/")
		upd, err := tx.ExecContext(ctx,
			`UPDATE partitions SET location = ?, updated_at = datetime('now')
			 WHERE database = ? AND table_name = ? AND vals = ?`,
			p.Location, database, table, vals,
		)
		if err != nil {
			return res, fmt.Errorf("update partition %s: %w", vals, err)
		}
		if n, _ := upd.RowsAffected(); n > 0 {
			res.Updated++
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO partitions (database, table_name, vals, location) VALUES (?, ?, ?, ?)`,
			database, table, vals, p.Location,
		); err != nil {
			return res, fmt.Errorf("insert partition %s: %w", vals, err)
		}
		res.Created++
	}

	if err := tx.Commit(); err != nil {
		return UpsertResult{}, fmt.Errorf("commit: %w", err)
	}
	return res, nil
}

// Partitions lists the registered partitions of a table ordered by values.
func (c *SQLiteCatalog) Partitions(ctx context.Context, database, table string) ([]Partition, error) {
	rows, err := c.db.QueryContext(ctx,
		`SELECT vals, location FROM partitions WHERE database = ? AND table_name = ? ORDER BY vals`,
		database, table,
	)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}
	defer rows.Close()

	var out []Partition
	for rows.Next() {
		var vals, location string
		if err := rows.Scan(&vals, &location); err != nil {
			return nil, err
		}
		out = append(out, Partition{Values: strings.Split(vals, "/"), Location: location})
	}
	return out, rows.Err()
}

// Close closes the underlying database connection.
func (c *SQLiteCatalog) Close() error {
	return c.db.Close()
}
