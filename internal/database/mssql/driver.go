// Package mssql is the SQL Server implementation of database.DB. It is the
// primary result provider: its type map reproduces the TDS column types the
// transcription engine classifies.
package mssql

import (
	"context"
	"database/sql"
	"net/url"
	"strconv"
	"time"

	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"

	_ "github.com/microsoft/go-mssqldb" // register "sqlserver" driver
)

// DefaultPort is the SQL Server listener port used when none is configured.
const DefaultPort = 1433

// typeMap maps go-mssqldb DatabaseTypeName values to their type tag and the
// wire width the value arrives in. The driver does not expose whether a
// column was declared nullable, so the integer family always reports IntN.
var typeMap = database.TypeMap{
	"TINYINT":  {Tag: resultset.TypeIntN, Wire: resultset.WireU8},
	"SMALLINT": {Tag: resultset.TypeIntN, Wire: resultset.WireI16},
	"INT":      {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	"BIGINT":   {Tag: resultset.TypeIntN, Wire: resultset.WireI64},

	"BIT": {Tag: resultset.TypeBitN, Wire: resultset.WireBit},

	"DECIMAL":    {Tag: resultset.TypeDecimalN, Wire: resultset.WireNumeric},
	"NUMERIC":    {Tag: resultset.TypeNumericN, Wire: resultset.WireNumeric},
	"MONEY":      {Tag: resultset.TypeMoneyN, Wire: resultset.WireNumeric},
	"SMALLMONEY": {Tag: resultset.TypeMoneyN, Wire: resultset.WireNumeric},

	"VARCHAR":  {Tag: resultset.TypeBigVarChar, Wire: resultset.WireString},
	"NVARCHAR": {Tag: resultset.TypeNVarChar, Wire: resultset.WireString},
	"CHAR":     {Tag: resultset.TypeBigChar, Wire: resultset.WireString},
	"NCHAR":    {Tag: resultset.TypeNChar, Wire: resultset.WireString},
	"TEXT":     {Tag: resultset.TypeText, Wire: resultset.WireString},
	"NTEXT":    {Tag: resultset.TypeNText, Wire: resultset.WireString},
	"XML":      {Tag: resultset.TypeXML, Wire: resultset.WireString},

	"DATETIME":       {Tag: resultset.TypeDatetimeN, Wire: resultset.WireDateTime},
	"SMALLDATETIME":  {Tag: resultset.TypeDatetimeN, Wire: resultset.WireDateTime},
	"DATETIME2":      {Tag: resultset.TypeDatetime2, Wire: resultset.WireDateTime},
	"DATE":           {Tag: resultset.TypeDateN, Wire: resultset.WireDateTime},
	"TIME":           {Tag: resultset.TypeTimeN, Wire: resultset.WireDateTime},
	"DATETIMEOFFSET": {Tag: resultset.TypeDateTimeOffsetN, Wire: resultset.WireDateTime},

	"FLOAT": {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},
	"REAL":  {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},

	"UNIQUEIDENTIFIER": {Tag: resultset.TypeGUID, Wire: resultset.WireBinary},
	"VARBINARY":        {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
	"BINARY":           {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
	"IMAGE":            {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
}

// Driver is a SQL Server implementation of database.DB backed by database/sql.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	db           *sql.DB
	queryTimeout time.Duration
}

// New opens a SQL Server connection pool using the provided Config and
// returns a Driver. It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildDSN(cfg)
	}

	db, err := sql.Open("sqlserver", dsn)
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

// buildDSN renders the connection fields as a sqlserver:// URL.
func buildDSN(cfg *database.Config) string {
	q := url.Values{}
	if cfg.Database != "" {
		q.Set("database", cfg.Database)
	}
	if cfg.TrustServerCertificate {
		q.Set("TrustServerCertificate", "true")
	}
	if cfg.ConnectTimeout > 0 {
		q.Set("dial timeout", strconv.Itoa(int(cfg.ConnectTimeout.Seconds())))
	}

	u := &url.URL{
		Scheme:   "sqlserver",
		Host:     cfg.Host + ":" + strconv.Itoa(cfg.PortOr(DefaultPort)),
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
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

func (d *Driver) Dialect() database.Dialect { return database.DialectSQLServer }

// QueryResults runs query as a batch and drains every result it produces.
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
