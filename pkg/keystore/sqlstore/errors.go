package sqlstore

import (
	"database/sql/driver"
	"errors"
	"net"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"

	"github.com/systmms/keyring/pkg/credential"
)

// MySQL server error numbers.
const (
	mysqlDBAccessDenied     = 1044
	mysqlAccessDenied       = 1045
	mysqlTableAccessDenied  = 1142
	mysqlColumnAccessDenied = 1143
	mysqlDataTooLong        = 1406
	mysqlPacketTooLarge     = 1153
)

// classify converts driver errors to credential errors
func classify(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		// invalid_authorization_specification
		case pqErr.Code.Class() == "28":
			return credential.NoStorageAccess(err)
		case pqErr.Code == "42501": // insufficient_privilege
			return credential.NoStorageAccess(err)
		case pqErr.Code == "22001": // string_data_right_truncation
			return &credential.InvalidError{Attribute: "secret", Reason: pqErr.Message}
		}
		return credential.PlatformFailure(err)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		switch myErr.Number {
		case mysqlDBAccessDenied, mysqlAccessDenied, mysqlTableAccessDenied, mysqlColumnAccessDenied:
			return credential.NoStorageAccess(err)
		case mysqlDataTooLong, mysqlPacketTooLarge:
			return &credential.InvalidError{Attribute: "secret", Reason: myErr.Message}
		}
		return credential.PlatformFailure(err)
	}

	var netErr *net.OpError
	if errors.As(err, &netErr) || errors.Is(err, driver.ErrBadConn) {
		return credential.NoStorageAccess(err)
	}
	return credential.PlatformFailure(err)
}
