package resultset

import (
	"testing"

	"github.com/koustreak/sqlsheet/internal/errs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultSet_AppendSharesColumns(t *testing.T) {
	rs := New([]Column{
		{Name: "ID", Type: TypeIntN},
		{Name: "Active", Type: TypeBitN},
	})

	require.NoError(t, rs.Append(U8(1), Bit(true)))
	require.NoError(t, rs.Append(Null(WireU8), Bit(false)))

	assert.Equal(t, 2, rs.Len())
	for _, row := range rs.Rows() {
		assert.Equal(t, rs.Columns(), row.Columns())
		assert.Equal(t, len(rs.Columns()), row.Len())
	}
	assert.True(t, rs.Rows()[1].At(0).IsNull())
	assert.Equal(t, WireU8, rs.Rows()[1].At(0).Wire)
}

func TestResultSet_AppendRejectsWidthMismatch(t *testing.T) {
	rs := New([]Column{{Name: "ID", Type: TypeIntN}})

	err := rs.Append(U8(1), U8(2))
	require.Error(t, err)
	assert.True(t, errs.IsInvalidInput(err))
	assert.Equal(t, 0, rs.Len())
}

func TestResultSet_ColumnsAreCopied(t *testing.T) {
	cols := []Column{{Name: "A", Type: TypeNVarChar}}
	rs := New(cols)
	cols[0].Name = "changed"

	assert.Equal(t, "A", rs.Columns()[0].Name)
}

func TestTypeTag_String(t *testing.T) {
	assert.Equal(t, "IntN", TypeIntN.String())
	assert.Equal(t, "Datetime2", TypeDatetime2.String())
	assert.Equal(t, "TypeTag(999)", TypeTag(999).String())
}
