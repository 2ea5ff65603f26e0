package database

import (
	"database/sql"

	"github.com/koustreak/sqlsheet/internal/resultset"
)

// Mapping is how one native column type lands in a result: the declared
// type tag of the column and the wire width of its values.
type Mapping struct {
	Tag  resultset.TypeTag
	Wire resultset.Wire
}

// TypeMap maps a driver's DatabaseTypeName to a Mapping.
type TypeMap map[string]Mapping

// Lookup returns the mapping for name, or an Other/unknown mapping.
func (m TypeMap) Lookup(name string) Mapping {
	if mp, ok := m[name]; ok {
		return mp
	}
	return Mapping{Tag: resultset.TypeOther, Wire: resultset.WireUnknown}
}

// Collect drains rows, including any further result sets, into memory.
// Results without columns (row counts of DML statements) are dropped.
// Collect always closes rows. Errors are returned unmapped so each driver
// can translate them.
func Collect(rows *sql.Rows, types TypeMap) ([]*resultset.ResultSet, error) {
	defer rows.Close()

	var results []*resultset.ResultSet
	for {
		rs, err := collectOne(rows, types)
		if err != nil {
			return nil, err
		}
		if rs != nil {
			results = append(results, rs)
		}
		if !rows.NextResultSet() {
			break
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func collectOne(rows *sql.Rows, types TypeMap) (*resultset.ResultSet, error) {
	colTypes, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}
	if len(colTypes) == 0 {
		// Advance past any rows so NextResultSet sees a clean cursor.
		for rows.Next() {
		}
		return nil, rows.Err()
	}

	columns := make([]resultset.Column, len(colTypes))
	mappings := make([]Mapping, len(colTypes))
	for i, ct := range colTypes {
		mappings[i] = types.Lookup(ct.DatabaseTypeName())
		columns[i] = resultset.Column{
			Name:         ct.Name(),
			Type:         mappings[i].Tag,
			DatabaseType: ct.DatabaseTypeName(),
		}
	}

	rs := resultset.New(columns)
	for rows.Next() {
		// Scan targets are *any so the driver can hand over its native type.
		dest := make([]any, len(columns))
		destPtrs := make([]any, len(columns))
		for i := range dest {
			destPtrs[i] = &dest[i]
		}
		if err := rows.Scan(destPtrs...); err != nil {
			return nil, err
		}

		values := make([]resultset.Value, len(columns))
		for i, raw := range dest {
			values[i] = Convert(mappings[i].Wire, raw)
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
