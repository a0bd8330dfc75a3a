package database

import (
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrUnknownTable = errors.New("unknown table")
	ErrConstraint   = errors.New("rejected by the database")
)

// MySQL errors meaning the account may not perform the statement.
var accessDenied = map[uint16]bool{
	1044: true, // ER_DBACCESS_DENIED_ERROR
	1045: true, // ER_ACCESS_DENIED_ERROR
	1142: true, // ER_TABLEACCESS_DENIED_ERROR
	1143: true, // ER_COLUMNACCESS_DENIED_ERROR
}

// MySQL errors caused by the values written, not by the server.
var badValue = map[uint16]bool{
	1048: true, // ER_BAD_NULL_ERROR
	1062: true, // ER_DUP_ENTRY
	1292: true, // ER_TRUNCATED_WRONG_VALUE
	1366: true, // ER_TRUNCATED_WRONG_VALUE_FOR_FIELD
	1406: true, // ER_DATA_TOO_LONG
	1452: true, // ER_NO_REFERENCED_ROW_2
}

func classify(err error) error {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) {
		return err
	}
	switch {
	case accessDenied[mysqlErr.Number]:
		return fmt.Errorf("%w: %v", ErrUnauthorized, mysqlErr.Message)
	case badValue[mysqlErr.Number]:
		return fmt.Errorf("%w: %v", ErrConstraint, mysqlErr.Message)
	}
	return err
}
