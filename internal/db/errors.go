/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"gorm.io/gorm"
)

const (
	pqUniqueViolation = "23505"
	pqCheckViolation  = "23514"
	mysqlDuplicateKey = 1062
)

// IsUniqueViolation reports whether err is a unique or primary key violation
// from any supported backend.
func IsUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pqUniqueViolation
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Number == mysqlDuplicateKey
	}

	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			liteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	return false
}

// IsOverlapViolation reports whether err was raised by the postgres session
// overlap trigger installed by Migrate.
func IsOverlapViolation(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == pqCheckViolation && strings.Contains(pqErr.Message, overlapMessage)
}

func errorKind(err error) string {
	switch {
	case IsUniqueViolation(err):
		return "unique_violation"
	case IsOverlapViolation(err):
		return "overlap_violation"
	default:
		return "query_error"
	}
}
