package mysql

import (
	"context"
	"errors"
	"testing"
	"time"

	gomysql "github.com/go-sql-driver/mysql"
	"github.com/koustreak/sqlsheet/internal/database"
	"github.com/koustreak/sqlsheet/internal/decode"
	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/koustreak/sqlsheet/internal/resultset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDSN(t *testing.T) {
	cfg := database.DefaultConfig(database.DriverMySQL)
	cfg.Host = "db"
	cfg.User = "report"
	cfg.Password = "s3cr@t"
	cfg.Database = "shop"
	cfg.ConnectTimeout = 5 * time.Second

	parsed, err := gomysql.ParseDSN(buildDSN(cfg))
	require.NoError(t, err)

	assert.Equal(t, "report", parsed.User)
	assert.Equal(t, "s3cr@t", parsed.Passwd)
	assert.Equal(t, "db:3306", parsed.Addr)
	assert.Equal(t, "shop", parsed.DBName)
	assert.True(t, parsed.ParseTime)
	assert.True(t, parsed.MultiStatements)
	assert.Equal(t, 5*time.Second, parsed.Timeout)
}

func TestTypeMap(t *testing.T) {
	tests := []struct {
		dbType string
		wire   resultset.Wire
		want   decode.Strategy
	}{
		{"UNSIGNED TINYINT", resultset.WireU8, decode.StrategyInteger},
		{"TINYINT", resultset.WireI16, decode.StrategyInteger},
		{"UNSIGNED INT", resultset.WireI64, decode.StrategyInteger},
		{"BIT", resultset.WireBit, decode.StrategyBoolean},
		{"DECIMAL", resultset.WireNumeric, decode.StrategyDecimal},
		{"VARCHAR", resultset.WireString, decode.StrategyText},
		{"DATETIME", resultset.WireDateTime, decode.StrategyTimestamp},
		{"CHAR", resultset.WireString, decode.StrategyUnknown},
		{"DOUBLE", resultset.WireFloat, decode.StrategyUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.dbType, func(t *testing.T) {
			m := typeMap.Lookup(tt.dbType)
			assert.Equal(t, tt.wire, m.Wire)
			assert.Equal(t, tt.want, decode.Classify(m.Tag))
		})
	}
}

func TestMapError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		kind errs.ErrKind
	}{
		{"canceled", context.Canceled, errs.ErrKindTimeout},
		{"access denied", &gomysql.MySQLError{Number: 1045, Message: "Access denied"}, errs.ErrKindConnectionFailed},
		{"table access", &gomysql.MySQLError{Number: 1142, Message: "SELECT command denied"}, errs.ErrKindPermissionDenied},
		{"no such table", &gomysql.MySQLError{Number: 1146, Message: "Table 'x' doesn't exist"}, errs.ErrKindNotFound},
		{"syntax", &gomysql.MySQLError{Number: 1064, Message: "syntax"}, errs.ErrKindQueryFailed},
		{"network", errors.New("connection refused"), errs.ErrKindConnectionFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := mapError(tt.err, "query failed")
			require.NotNil(t, got)
			assert.Equal(t, tt.kind, got.Kind)
			assert.ErrorIs(t, got, tt.err)
		})
	}
}
