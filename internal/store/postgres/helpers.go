package postgres

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"jobmate/board-service/internal/domain"
	"jobmate/board-service/internal/store"
)

// isNoRows returns true when err indicates no rows were found.
func isNoRows(err error) bool {
	return errors.Is(err, pgx.ErrNoRows)
}

// isDuplicateKey checks if a PostgreSQL error is a unique_violation (23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23505"
	}
	return false
}

// isForeignKey checks for a foreign_key_violation (23503).
func isForeignKey(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "23503"
	}
	return false
}

// mapWriteErr turns constraint violations into store sentinels.
func mapWriteErr(op string, err error) error {
	switch {
	case isDuplicateKey(err):
		return fmt.Errorf("%s: %w", op, store.ErrDuplicate)
	case isForeignKey(err):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	case isNoRows(err):
		return fmt.Errorf("%s: %w", op, store.ErrNotFound)
	}
	return fmt.Errorf("%s: %w", op, err)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// likePattern builds an ILIKE substring pattern with wildcards escaped.
func likePattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

var orderColumns = map[domain.OrderField]string{
	domain.OrderAppliedAt:   "a.applied_at",
	domain.OrderCompanyName: "LOWER(o.name)",
	domain.OrderStatus:      "a.status",
	domain.OrderJobTitle:    "LOWER(j.title)",
}
