package export

import (
	"context"
	"strings"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/database/mssql"
	"github.com/koustreak/sqlsheet/internal/database/mysql"
	"github.com/koustreak/sqlsheet/internal/database/postgres"
	"github.com/koustreak/sqlsheet/internal/errs"
)

// OpenDB connects to the database cfg names and returns it as a
// database.DB. The caller owns the returned handle.
func OpenDB(ctx context.Context, cfg *database.Config) (database.DB, error) {
	switch cfg.Driver {
	case database.DriverSQLServer, "":
		return mssql.New(ctx, cfg)
	case database.DriverPostgres:
		return postgres.New(ctx, cfg)
	case database.DriverMySQL:
		return mysql.New(ctx, cfg)
	default:
		return nil, errs.Newf(errs.ErrKindInvalidInput, "unsupported database driver %q", cfg.Driver)
	}
}

// TableSpec selects what a table export reads.
type TableSpec struct {
	Name    string
	Columns []string // empty means every column
	OrderBy []string // column names; a leading '-' sorts descending
	Limit   int      // <= 0 means no limit
}

// TableQuery builds the query that exports a table.
func TableQuery(d database.Dialect, spec TableSpec) (string, error) {
	b := database.Select(spec.Name, d)
	if len(spec.Columns) > 0 {
		b.Columns(spec.Columns...)
	}
	for _, col := range spec.OrderBy {
		dir := database.Asc
		if rest, ok := strings.CutPrefix(col, "-"); ok {
			col, dir = rest, database.Desc
		}
		if col == "" {
			return "", errs.New(errs.ErrKindInvalidInput, "empty order-by column")
		}
		b.OrderBy(col, dir)
	}
	if spec.Limit > 0 {
		b.Limit(spec.Limit)
	}
	return b.Build()
}
