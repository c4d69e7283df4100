package repository

import (
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/pkg/errors"
)

const erDupEntry = 1062

// duplicateKey returns the index name of a duplicate-entry error, or "".
func duplicateKey(err error) string {
	var mysqlErr *mysql.MySQLError
	if !errors.As(err, &mysqlErr) || mysqlErr.Number != erDupEntry {
		return ""
	}
	msg := mysqlErr.Message
	idx := strings.LastIndex(msg, "for key '")
	if idx < 0 {
		return "unknown"
	}
	key := strings.TrimSuffix(msg[idx+len("for key '"):], "'")
	// MySQL 8 prefixes the table name.
	if dot := strings.LastIndex(key, "."); dot >= 0 {
		key = key[dot+1:]
	}
	return key
}
