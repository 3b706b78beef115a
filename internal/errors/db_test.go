package errors

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapDBError_PassThrough(t *testing.T) {
	assert.NoError(t, MapDBError(nil))

	plain := errors.New("not a database error")
	assert.Same(t, plain, MapDBError(plain))
}

func TestMapDBError_Codes(t *testing.T) {
	tests := []struct {
		name  string
		err   error
		code  ErrorCode
		field string
	}{
		{"deadline", fmt.Errorf("apply: %w", context.DeadlineExceeded), ErrCodeTimeout, ""},
		{"canceled", context.Canceled, ErrCodeCanceled, ""},
		{"pgx no rows", pgx.ErrNoRows, ErrCodeNotFound, ""},
		{"sql no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), ErrCodeNotFound, ""},
		{
			"unique with column",
			&pgconn.PgError{Code: pgerrcode.UniqueViolation, ColumnName: "cif"},
			ErrCodeConflict, "cif",
		},
		{
			"unique from detail",
			&pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (account_number)=(0001) already exists."},
			ErrCodeConflict, "account_number",
		},
		{
			"unique multi-column",
			&pgconn.PgError{Code: pgerrcode.UniqueViolation, Detail: "Key (account_id, balance_date)=(x, 2024-03-01) already exists."},
			ErrCodeConflict, "",
		},
		{"not null", &pgconn.PgError{Code: pgerrcode.NotNullViolation, ColumnName: "balance"}, ErrCodeValidation, "balance"},
		{"check", &pgconn.PgError{Code: pgerrcode.CheckViolation}, ErrCodeValidation, ""},
		{"numeric range", &pgconn.PgError{Code: pgerrcode.NumericValueOutOfRange}, ErrCodeValidation, ""},
		{"bad uuid", &pgconn.PgError{Code: pgerrcode.InvalidTextRepresentation}, ErrCodeValidation, ""},
		{"serialization", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, ErrCodeUnavailable, ""},
		{"deadlock", &pgconn.PgError{Code: pgerrcode.DeadlockDetected}, ErrCodeUnavailable, ""},
		{"other", &pgconn.PgError{Code: pgerrcode.DiskFull}, ErrCodeInternal, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.err)

			var appErr *AppError
			require.ErrorAs(t, mapped, &appErr)
			assert.Equal(t, tt.code, appErr.Code)
			assert.Equal(t, tt.field, appErr.Field)
			assert.NotEmpty(t, appErr.Message)
			assert.ErrorIs(t, mapped, tt.err, "cause is preserved")
		})
	}
}

func TestMapDBError_ForeignKeyMessages(t *testing.T) {
	tests := []struct {
		name string
		err  *pgconn.PgError
		want string
	}{
		{
			"missing parent",
			&pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (staff_id)=(7b0c...) is not present in table "staff".`,
			},
			"The referenced staff member does not exist.",
		},
		{
			"parent in use",
			&pgconn.PgError{
				Code:   pgerrcode.ForeignKeyViolation,
				Detail: `Key (id)=(42) is still referenced from table "account_daily_balances".`,
			},
			"This record is still used by a daily balance.",
		},
		{
			"table metadata only",
			&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "customers"},
			"The referenced customer does not exist.",
		},
		{
			"unknown table",
			&pgconn.PgError{Code: pgerrcode.ForeignKeyViolation, TableName: "branches"},
			"The referenced record does not exist or is still in use.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mapped := MapDBError(tt.err)

			var appErr *AppError
			require.ErrorAs(t, mapped, &appErr)
			assert.Equal(t, ErrCodeForeignKey, appErr.Code)
			assert.Equal(t, tt.want, appErr.Message)
		})
	}
}
