package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/stacklok/country-registry/internal/db"
	"github.com/stacklok/country-registry/internal/service"
)

const (
	selectCountriesSQL = `SELECT id, name, alpha2_code, alpha3_code, visited FROM countries ORDER BY position`
	truncateSQL        = `TRUNCATE countries`
	insertCountrySQL   = `INSERT INTO countries (position, id, name, alpha2_code, alpha3_code, visited)
VALUES ($1, $2, $3, $4, $5, $6)`
)

type countryRow struct {
	ID         int    `db:"id"`
	Name       string `db:"name"`
	Alpha2Code string `db:"alpha2_code"`
	Alpha3Code string `db:"alpha3_code"`
	Visited    bool   `db:"visited"`
}

// databasePersister mirrors the registry to the countries table.
// An empty table counts as no snapshot since a seeded registry never shrinks.
type databasePersister struct {
	conn   *db.Connection
	source string
}

// NewDatabasePersister creates a persister on top of an established connection.
// The schema is expected to be migrated already.
func NewDatabasePersister(conn *db.Connection) (Persister, error) {
	if conn == nil || conn.Pool == nil {
		return nil, fmt.Errorf("database connection is required")
	}

	cfg := conn.Pool.Config().ConnConfig
	return &databasePersister{
		conn:   conn,
		source: fmt.Sprintf("database:%s:%d/%s", cfg.Host, cfg.Port, cfg.Database),
	}, nil
}

func (d *databasePersister) Load(ctx context.Context) ([]service.Country, error) {
	rows, err := d.conn.Pool.Query(ctx, selectCountriesSQL)
	if err != nil {
		return nil, fmt.Errorf("failed to query countries: %w", err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToStructByName[countryRow])
	if err != nil {
		return nil, fmt.Errorf("failed to read countries: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoSnapshot
	}

	countries := make([]service.Country, 0, len(records))
	for _, r := range records {
		countries = append(countries, service.Country{
			ID:         r.ID,
			Name:       r.Name,
			Alpha2Code: r.Alpha2Code,
			Alpha3Code: r.Alpha3Code,
			Visited:    r.Visited,
		})
	}
	return countries, nil
}

func (d *databasePersister) Save(ctx context.Context, countries []service.Country) error {
	return pgx.BeginFunc(ctx, d.conn.Pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, truncateSQL); err != nil {
			return fmt.Errorf("failed to clear countries: %w", err)
		}

		batch := &pgx.Batch{}
		for i, c := range countries {
			batch.Queue(insertCountrySQL, i, c.ID, c.Name, c.Alpha2Code, c.Alpha3Code, c.Visited)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("failed to insert countries: %w", err)
		}
		return nil
	})
}

func (d *databasePersister) Ping(ctx context.Context) error {
	return d.conn.Pool.Ping(ctx)
}

func (d *databasePersister) Source() string {
	return d.source
}

func (d *databasePersister) Close() error {
	d.conn.Close()
	return nil
}
