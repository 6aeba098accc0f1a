// internal/repository/errors.go
package repository

import (
	"context"
	"database/sql/driver"
	"errors"
	"net"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/javajoker/campus-market/internal/apperr"
)

const (
	pgInsufficientPrivilege = "42501"
	pgUniqueViolation       = "23505"
	pgCheckViolation        = "23514"
)

// translate maps driver errors onto the application error kinds.
func translate(err error, what string) error {
	if err == nil {
		return nil
	}

	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}

	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.NotFound(what + " not found")
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgInsufficientPrivilege:
			return apperr.Wrap(apperr.KindAuthorization, "the listing policy rejected this change", err)
		case pgUniqueViolation:
			return apperr.Wrap(apperr.KindConflict, what+" already exists", err)
		case pgCheckViolation:
			return apperr.Wrap(apperr.KindValidation, "invalid "+what, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) ||
		errors.Is(err, context.DeadlineExceeded) || pgconn.Timeout(err) {
		return apperr.Network("the database is unreachable, try again", err)
	}

	return apperr.Wrap(apperr.KindInternal, "database error", err)
}
