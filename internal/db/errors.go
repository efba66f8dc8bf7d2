package db

import (
	"context"
	"errors"

	"backend-snapgraph/internal/apperr"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
	codeInvalidText         = "22P02"
	codeNumericOutOfRange   = "22003"
)

// Classify maps a pgx error onto the apperr taxonomy. Errors that are already
// classified and context cancellations are returned unchanged; anything the
// store could not answer becomes ErrUnavailable.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return apperr.ErrNotFound.WithInternal(err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return apperr.ErrConflict.WithInternal(err)
		case codeForeignKeyViolation:
			return apperr.ErrNotFound.WithMessage("referenced entity not found").WithInternal(err)
		case codeInvalidText, codeNumericOutOfRange:
			return apperr.ErrValidation.WithInternal(err)
		}
	}
	return apperr.ErrUnavailable.WithInternal(err)
}

// IsForeignKeyViolation reports whether err is a 23503 from Postgres.
func IsForeignKeyViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == codeForeignKeyViolation
}
