// Package catalog registers refined datasets and their partitions in a table
// catalog: AWS Glue in production, SQLite for offline runs.
package catalog

import (
	"context"
	"errors"
	"fmt"
)

// ErrTableNotFound is returned by GetTable for an unknown table.
var ErrTableNotFound = errors.New("catalog: table not found")

// Table describes a catalog table backed by files under Location.
type Table struct {
	Database      string
	Name          string
	Location      string
	PartitionKeys []string
}

// Partition is one partition of a table; Values follow the table's
// partition keys.
type Partition struct {
	Values   []string
	Location string
}

// UpsertResult counts what UpsertPartitions did.
type UpsertResult struct {
	Created int
	Updated int
}

// Catalog is the table catalog used by the batch refiner.
type Catalog interface {
	// GetTable returns ErrTableNotFound when the table does not exist.
	GetTable(ctx context.Context, database, name string) (Table, error)
	// EnsureTable creates the table if it is missing. An existing table is
	// left unchanged.
	EnsureTable(ctx context.Context, table Table) error
	// UpsertPartitions registers partitions, updating the location of any
	// that already exist.
	UpsertPartitions(ctx context.Context, database, table string, parts []Partition) (UpsertResult, error)
	Close() error
}

// Options selects and configures a catalog backend.
type Options struct {
	Backend    string
	SQLitePath string
	Region     string
	Endpoint   string
}

// Open returns the catalog backend named by opts.Backend.
func Open(ctx context.Context, opts Options) (Catalog, error) {
	switch opts.Backend {
	case "glue", "":
		client, err := NewGlueClient(ctx, opts.Region, opts.Endpoint)
		if err != nil {
			return nil, err
		}
		return NewGlue(client), nil
	case "sqlite":
		return NewSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown catalog backend %q", opts.Backend)
	}
}

// RefinedTable is the table definition of refined quotes stored at location.
func RefinedTable(database, name, location string) Table {
	return Table{
		Database:      database,
		Name:          name,
		Location:      location,
		PartitionKeys: []string{"dt", "ticker"},
	}
}
