// Package mysql is the MySQL implementation of database.DB.
package mysql

import (
	"context"
	"database/sql"
	"net"
	"strconv"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
)

const defaultPort = 3306

// typeMap maps go-sql-driver/mysql DatabaseTypeName values onto the TDS type
// tags the engine classifies. Signed TINYINT does not fit an unsigned byte,
// so it travels as a 16-bit value and takes the integer fallback path.
var typeMap = database.TypeMap{
	"TINYINT":            {Tag: resultset.TypeIntN, Wire: resultset.WireI16},
	"UNSIGNED TINYINT":   {Tag: resultset.TypeIntN, Wire: resultset.WireU8},
	"SMALLINT":           {Tag: resultset.TypeIntN, Wire: resultset.WireI16},
	"UNSIGNED SMALLINT":  {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	"MEDIUMINT":          {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	"UNSIGNED MEDIUMINT": {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	"INT":                {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	"UNSIGNED INT":       {Tag: resultset.TypeIntN, Wire: resultset.WireI64},
	"BIGINT":             {Tag: resultset.TypeIntN, Wire: resultset.WireI64},
	"UNSIGNED BIGINT":    {Tag: resultset.TypeIntN, Wire: resultset.WireI64},
	"YEAR":               {Tag: resultset.TypeIntN, Wire: resultset.WireI16},

	"BIT": {Tag: resultset.TypeBitN, Wire: resultset.WireBit},

	"DECIMAL": {Tag: resultset.TypeDecimalN, Wire: resultset.WireNumeric},

	"VARCHAR":    {Tag: resultset.TypeBigVarChar, Wire: resultset.WireString},
	"CHAR":       {Tag: resultset.TypeBigChar, Wire: resultset.WireString},
	"TEXT":       {Tag: resultset.TypeText, Wire: resultset.WireString},
	"TINYTEXT":   {Tag: resultset.TypeText, Wire: resultset.WireString},
	"MEDIUMTEXT": {Tag: resultset.TypeText, Wire: resultset.WireString},
	"LONGTEXT":   {Tag: resultset.TypeText, Wire: resultset.WireString},
	"JSON":       {Tag: resultset.TypeText, Wire: resultset.WireString},

	"DATETIME":  {Tag: resultset.TypeDatetimeN, Wire: resultset.WireDateTime},
	"TIMESTAMP": {Tag: resultset.TypeDatetimeN, Wire: resultset.WireDateTime},
	"DATE":      {Tag: resultset.TypeDateN, Wire: resultset.WireDateTime},
	"TIME":      {Tag: resultset.TypeTimeN, Wire: resultset.WireString},

	"FLOAT":  {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},
	"DOUBLE": {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},

	"BINARY":    {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
	"VARBINARY": {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
	"BLOB":      {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
}

// Driver is a MySQL implementation of database.DB backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens a MySQL connection pool using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildDSN(cfg)
	}

	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	db.SetMaxOpenConns(int(cfg.MaxConns))
	db.SetMaxIdleConns(int(cfg.MinConns))
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	d := &Driver{db: db, queryTimeout: cfg.QueryTimeout}

	pingCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	if err := d.Ping(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}

	return d, nil
}

// buildDSN constructs the MySQL DSN. Multi-statement batches are enabled so
// a query file may hold several statements.
func buildDSN(cfg *database.Config) string {
	c := gomysql.NewConfig()
	c.User = cfg.User
	c.Passwd = cfg.Password
	c.Net = "tcp"
	c.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.PortOr(defaultPort)))
	c.DBName = cfg.Database
	c.ParseTime = true
	c.MultiStatements = true
	c.Timeout = cfg.ConnectTimeout
	return c.FormatDSN()
}

// --- database.DB implementation ---

func (d *Driver) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

func (d *Driver) Close() {
	_ = d.db.Close()
}

func (d *Driver) Dialect() database.Dialect { return database.DialectMySQL }

func (d *Driver) QueryResults(ctx context.Context, query string, args ...any) ([]*resultset.ResultSet, error) {
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	results, err := database.Collect(rows, typeMap)
	if err != nil {
		return nil, mapError(err, "read results")
	}
	return results, nil
}
