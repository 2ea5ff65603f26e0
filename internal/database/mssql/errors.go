package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/koustreak/sqlsheet/internal/errs"
	gomssql "github.com/microsoft/go-mssqldb"
)

// mapError translates go-mssqldb errors into *errs.Error.
func mapError(err error, msg string) *errs.Error {
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return errs.Wrap(errs.ErrKindTimeout, msg, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		return errs.Wrap(errs.ErrKindNotFound, msg, err)
	}

	var msErr gomssql.Error
	if errors.As(err, &msErr) {
		return errs.Wrap(
			classifyServerError(msErr.Number),
			fmt.Sprintf("%s: %s", msg, msErr.Message),
			err,
		)
	}

	return errs.Wrap(errs.ErrKindConnectionFailed, msg, err)
}

// classifyServerError maps SQL Server error numbers to ErrKind.
func classifyServerError(number int32) errs.ErrKind {
	switch number {
	case 18456, 4060, 18452:
		// login failed, cannot open database, untrusted domain
		return errs.ErrKindConnectionFailed
	case 229, 230, 262, 297, 300:
		return errs.ErrKindPermissionDenied
	case 208, 207:
		// invalid object name, invalid column name
		return errs.ErrKindNotFound
	case -2:
		return errs.ErrKindTimeout
	default:
		return errs.ErrKindQueryFailed
	}
}
