package database

import (
	"testing"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDialect_Placeholder(t *testing.T) {
	assert.Equal(t, "@p2", DialectSQLServer.Placeholder(2))
	assert.Equal(t, "$1", DialectPostgres.Placeholder(1))
	assert.Equal(t, "?", DialectMySQL.Placeholder(3))
}

func TestSelectBuilder(t *testing.T) {
	tests := []struct {
		name    string
		builder *SelectBuilder
		want    string
	}{
		{
			name:    "sqlserver star",
			builder: Select("dbo.orders", DialectSQLServer),
			want:    "SELECT * FROM [dbo].[orders]",
		},
		{
			name: "sqlserver top and order",
			builder: Select("orders", DialectSQLServer).
				Columns("id", "placed]at").
				OrderBy("id", Desc).
				Limit(10),
			want: "SELECT TOP (10) [id], [placed]]at] FROM [orders] ORDER BY [id] DESC",
		},
		{
			name: "postgres limit",
			builder: Select("public.users", DialectPostgres).
				Columns("name").
				OrderBy("name", Asc).
				Limit(5),
			want: `SELECT "name" FROM "public"."users" ORDER BY "name" ASC LIMIT 5`,
		},
		{
			name:    "mysql quoting",
			builder: Select("we`ird", DialectMySQL).Limit(0),
			want:    "SELECT * FROM `we``ird` LIMIT 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.builder.Build()
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSelectBuilder_Invalid(t *testing.T) {
	_, err := Select(" ", DialectPostgres).Build()
	assert.True(t, errs.IsInvalidInput(err))

	_, err = Select("t", DialectPostgres).Limit(-1).Build()
	assert.True(t, errs.IsInvalidInput(err))
}

func TestParseDriver(t *testing.T) {
	d, err := ParseDriver("")
	require.NoError(t, err)
	assert.Equal(t, DriverSQLServer, d)

	d, err = ParseDriver("mysql")
	require.NoError(t, err)
	assert.Equal(t, DialectMySQL, (&Config{Driver: d}).Dialect())

	_, err = ParseDriver("oracle")
	assert.True(t, errs.IsInvalidInput(err))
}
