// Package postgres is the PostgreSQL implementation of database.DB.
package postgres

import (
	"context"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
)

const defaultPort = 5432

// oidMap maps PostgreSQL type OIDs onto TDS type tags. text is unbounded
// like varchar(max), which TDS also reports as BigVarChar.
var oidMap = map[uint32]database.Mapping{
	pgtype.Int2OID: {Tag: resultset.TypeIntN, Wire: resultset.WireI16},
	pgtype.Int4OID: {Tag: resultset.TypeIntN, Wire: resultset.WireI32},
	pgtype.Int8OID: {Tag: resultset.TypeIntN, Wire: resultset.WireI64},

	pgtype.BoolOID: {Tag: resultset.TypeBitN, Wire: resultset.WireBit},

	pgtype.NumericOID: {Tag: resultset.TypeNumericN, Wire: resultset.WireNumeric},

	pgtype.VarcharOID: {Tag: resultset.TypeBigVarChar, Wire: resultset.WireString},
	pgtype.TextOID:    {Tag: resultset.TypeBigVarChar, Wire: resultset.WireString},
	pgtype.NameOID:    {Tag: resultset.TypeBigVarChar, Wire: resultset.WireString},
	pgtype.BPCharOID:  {Tag: resultset.TypeBigChar, Wire: resultset.WireString},
	pgtype.JSONOID:    {Tag: resultset.TypeText, Wire: resultset.WireString},
	pgtype.JSONBOID:   {Tag: resultset.TypeText, Wire: resultset.WireString},

	pgtype.TimestampOID:   {Tag: resultset.TypeDatetime2, Wire: resultset.WireDateTime},
	pgtype.TimestamptzOID: {Tag: resultset.TypeDateTimeOffsetN, Wire: resultset.WireDateTime},
	pgtype.DateOID:        {Tag: resultset.TypeDateN, Wire: resultset.WireDateTime},
	pgtype.TimeOID:        {Tag: resultset.TypeTimeN, Wire: resultset.WireUnknown},

	pgtype.Float4OID: {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},
	pgtype.Float8OID: {Tag: resultset.TypeFloatN, Wire: resultset.WireFloat},

	pgtype.UUIDOID:  {Tag: resultset.TypeGUID, Wire: resultset.WireBinary},
	pgtype.ByteaOID: {Tag: resultset.TypeBigVarBin, Wire: resultset.WireBinary},
}

// Driver is a PostgreSQL implementation of database.DB backed by pgxpool.
// It is safe for concurrent use by multiple goroutines.
type Driver struct {
	pool         *pgxpool.Pool
	queryTimeout time.Duration
}

// New connects to PostgreSQL using the provided Config and returns a Driver.
// It calls Ping to validate the connection before returning.
func New(ctx context.Context, cfg *database.Config) (*Driver, error) {
	dsn := cfg.DSN
	if dsn == "" {
		dsn = buildDSN(cfg)
	}

	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindConnectionFailed, "invalid DSN", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime
	poolCfg.MaxConnIdleTime = cfg.MaxConnIdleTime
	poolCfg.ConnConfig.ConnectTimeout = cfg.ConnectTimeout

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, mapError(err, "failed to create connection pool")
	}

	d := &Driver{pool: pool, queryTimeout: cfg.QueryTimeout}

	if err := d.Ping(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return d, nil
}

// buildDSN constructs a postgres:// URL. A trusted server certificate means
// TLS is used when offered but never verified.
func buildDSN(cfg *database.Config) string {
	sslMode := "verify-full"
	if cfg.TrustServerCertificate {
		sslMode = "prefer"
	}

	q := url.Values{}
	q.Set("sslmode", sslMode)

	u := &url.URL{
		Scheme:   "postgres",
		Host:     net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.PortOr(defaultPort))),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	if cfg.User != "" {
		u.User = url.UserPassword(cfg.User, cfg.Password)
	}
	return u.String()
}

// --- database.DB implementation ---

// Ping verifies the database is reachable by acquiring and releasing a connection.
func (d *Driver) Ping(ctx context.Context) error {
	if err := d.pool.Ping(ctx); err != nil {
		return mapError(err, "ping failed")
	}
	return nil
}

// Close drains the connection pool. Call when the application shuts down.
func (d *Driver) Close() {
	d.pool.Close()
}

func (d *Driver) Dialect() database.Dialect { return database.DialectPostgres }

// QueryResults runs a single statement. The extended protocol pgx uses does
// not allow batches, so the result slice always has one entry.
func (d *Driver) QueryResults(ctx context.Context, query string, args ...any) ([]*resultset.ResultSet, error) {
	if d.queryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.queryTimeout)
		defer cancel()
	}

	rows, err := d.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, mapError(err, "query failed")
	}
	rs, err := collect(rows)
	if err != nil {
		return nil, mapError(err, "read results")
	}
	return []*resultset.ResultSet{rs}, nil
}

// --- result conversion ---

func lookup(oid uint32) database.Mapping {
	if m, ok := oidMap[oid]; ok {
		return m
	}
	return database.Mapping{Tag: resultset.TypeOther, Wire: resultset.WireUnknown}
}

// typeName returns the registered name of oid, or its number.
func typeName(tm *pgtype.Map, oid uint32) string {
	if t, ok := tm.TypeForOID(oid); ok {
		return t.Name
	}
	return fmt.Sprintf("oid:%d", oid)
}

func collect(rows pgx.Rows) (*resultset.ResultSet, error) {
	defer rows.Close()

	tm := rows.Conn().TypeMap()
	fields := rows.FieldDescriptions()
	columns := make([]resultset.Column, len(fields))
	mappings := make([]database.Mapping, len(fields))
	for i, f := range fields {
		mappings[i] = lookup(f.DataTypeOID)
		columns[i] = resultset.Column{
			Name:         f.Name,
			Type:         mappings[i].Tag,
			DatabaseType: typeName(tm, f.DataTypeOID),
		}
	}

	rs := resultset.New(columns)
	for rows.Next() {
		raw, err := rows.Values()
		if err != nil {
			return nil, err
		}
		values := make([]resultset.Value, len(raw))
		for i, v := range raw {
			values[i] = convert(mappings[i].Wire, v)
		}
		if err := rs.Append(values...); err != nil {
			return nil, err
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return rs, nil
}

// convert unwraps pgx-specific representations before the shared conversion.
func convert(w resultset.Wire, v any) resultset.Value {
	switch x := v.(type) {
	case pgtype.Numeric:
		if !x.Valid {
			return resultset.Null(w)
		}
		text, err := x.Value()
		if err != nil {
			return resultset.Raw(w, x)
		}
		// NaN and infinities come back as text the decoder rejects.
		return database.Convert(w, text)
	case [16]byte:
		return database.Convert(w, x[:])
	}
	return database.Convert(w, v)
}
