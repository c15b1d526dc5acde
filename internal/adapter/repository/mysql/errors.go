package mysql

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"microloan-backend/internal/domain/errs"
	"microloan-backend/internal/domain/query"

	driver "github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// ER_KEY_DOES_NOT_EXITS: the index named by a hint or order plan is absent.
const mysqlErrKeyDoesNotExist = 1176

// translate maps driver and gorm errors onto the domain taxonomy.
func translate(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", op, errs.ErrNotFound)
	case errors.Is(err, errs.ErrValidation):
		return err
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: %w", op, errs.ErrDuplicate)
	case isMissingIndex(err):
		return fmt.Errorf("%s: %w", op, query.ErrMissingIndex)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	return errs.Unavailable(op, err)
}

func isMissingIndex(err error) bool {
	var me *driver.MySQLError
	if errors.As(err, &me) {
		return me.Number == mysqlErrKeyDoesNotExist
	}
	// sqlite: "no such index: ..." for INDEXED BY clauses
	return strings.Contains(err.Error(), "no such index")
}
