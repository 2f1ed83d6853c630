package repository

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes the store reports for conflicts that are safe to retry.
const (
	codeSerializationFailure = "40001"
	codeDeadlockDetected     = "40P01"
	codeUniqueViolation      = "23505"
)

// EsErrorReintentable reports whether a transaction failure is the store's
// "lost a race, try again" signal rather than a real fault: serialization
// failures and deadlocks under REPEATABLE READ, plus a unique violation on the
// sale-number index (two transactions allocated the same correlative).
func EsErrorReintentable(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	switch pgErr.Code {
	case codeSerializationFailure, codeDeadlockDetected:
		return true
	case codeUniqueViolation:
		return strings.Contains(pgErr.ConstraintName, "numero_venta")
	}
	return false
}
