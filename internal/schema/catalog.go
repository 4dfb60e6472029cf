package schema

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

const catalogQuery = `SELECT TABLE_NAME AS table_name, COLUMN_NAME AS column_name, COLUMN_TYPE AS column_type
FROM INFORMATION_SCHEMA.COLUMNS
WHERE TABLE_SCHEMA = COALESCE(NULLIF(?, ''), DATABASE())
ORDER BY TABLE_NAME, ORDINAL_POSITION`

type catalogRow struct {
	Table  string `db:"table_name"`
	Column string `db:"column_name"`
	Type   string `db:"column_type"`
}

// Catalog reads the live schema from INFORMATION_SCHEMA.
type Catalog struct {
	db       *sqlx.DB
	database string
}

// NewCatalog reads tables of database, or of the connection's default
// database when database is empty.
func NewCatalog(db *sqlx.DB, database string) *Catalog {
	return &Catalog{db: db, database: database}
}

// Describe queries the catalog. Connection errors are returned unchanged in
// the chain; an empty schema is returned as-is.
func (c *Catalog) Describe(ctx context.Context) (Description, error) {
	start := time.Now()

	var rows []catalogRow
	if err := c.db.SelectContext(ctx, &rows, catalogQuery, c.database); err != nil {
		return Description{}, fmt.Errorf("read information_schema: %w", err)
	}

	var d Description
	for _, r := range rows {
		n := len(d.Tables)
		if n == 0 || d.Tables[n-1].Name != r.Table {
			d.Tables = append(d.Tables, Table{Name: r.Table})
			n++
		}
		d.Tables[n-1].Columns = append(d.Tables[n-1].Columns, Column{Name: r.Column, Type: r.Type})
	}

	if d.Empty() {
		log.Warn().Str("database", c.database).Msg("schema catalog returned no tables")
	}
	log.Debug().
		Int("tables", len(d.Tables)).
		Int("columns", len(rows)).
		Dur("fetch_ms", time.Since(start)).
		Msg("schema catalog read")
	return d, nil
}
