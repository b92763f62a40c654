// Package dberr maps gorm/pgx failures onto apperr codes at the repository
// boundary.
package dberr

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/vinnu2910/edutainverse/internal/domain/apperr"
	"gorm.io/gorm"
)

// Map wraps err with the apperr code that matches its cause. Errors that
// already carry a code pass through unchanged.
func Map(op string, err error) error {
	if err == nil {
		return nil
	}
	var coded *apperr.Error
	if errors.As(err, &coded) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return apperr.Wrap(apperr.CodeNotFound, op, err)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return apperr.Wrap(apperr.CodeConflict, op, err)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return apperr.Wrap(apperr.CodePrecondition, op, err)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return apperr.Wrap(apperr.CodePersistence, op, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch strings.TrimSpace(pgErr.Code) {
		case "23505":
			return apperr.Wrap(apperr.CodeConflict, op, err) // unique_violation
		case "23503":
			return apperr.Wrap(apperr.CodePrecondition, op, err) // foreign_key_violation
		case "23514", "22P02":
			return apperr.Wrap(apperr.CodeValidation, op, err) // check_violation, invalid_text_representation
		case "40001", "40P01", "55P03":
			return apperr.Wrap(apperr.CodePersistence, op, err) // serialization/deadlock/lock_not_available
		}
	}

	msg := strings.ToLower(strings.TrimSpace(err.Error()))
	switch {
	case strings.Contains(msg, "duplicate key"), strings.Contains(msg, "unique constraint failed"):
		return apperr.Wrap(apperr.CodeConflict, op, err)
	default:
		return apperr.Wrap(apperr.CodePersistence, op, err)
	}
}

// IsRetryable reports whether err is a transient storage failure worth
// retrying with the same input.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "40001", "40P01", "55P03":
			return true
		}
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "deadlock") || strings.Contains(msg, "database is locked")
}
