package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

const uniqueViolationCode = "23505"

// sqliteConstraintColumns maps each unique index name to the column form the
// sqlite test driver reports. SQLite errors read
// "UNIQUE constraint failed: carts.token" and never mention the index, so a
// constraint-scoped check needs the translation to work under both drivers.
var sqliteConstraintColumns = map[string]string{
	"idx_carts_token_active":      "carts.token",
	"idx_cart_items_cart_product": "cart_items.cart_id",
	"idx_wishlist_token_product":  "wishlist_items.token",
}

// IsUniqueViolation reports whether the provided error is a unique
// constraint violation. When constraintName is given, the violation must
// reference that constraint (or, for drivers that only name columns, the
// columns backing it).
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code != uniqueViolationCode {
			return false
		}
		if constraintName == "" {
			return true
		}
		return pgErr.ConstraintName == constraintName
	}

	msg := err.Error()
	if constraintName != "" {
		if strings.Contains(msg, constraintName) {
			return true
		}
		columns, ok := sqliteConstraintColumns[constraintName]
		return ok && strings.Contains(msg, "UNIQUE constraint failed") &&
			strings.Contains(msg, columns)
	}
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}
