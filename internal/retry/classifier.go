package retry

import (
	"database/sql/driver"
	"errors"
	"net"
	"strings"
	"syscall"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE codes outside the always-transient classes 08, 53 and 57.
// See: https://www.postgresql.org/docs/current/errcodes-appendix.html
const (
	pgCodeSerializationFailure = "40001"
	pgCodeDeadlockDetected     = "40P01"
	pgCodeLockNotAvailable     = "55P03"
)

// MySQL server error numbers worth another attempt.
// See: https://dev.mysql.com/doc/mysql-errors/8.0/en/server-error-reference.html
const (
	mysqlTooManyConnections = 1040 // ER_CON_COUNT_ERROR
	mysqlServerShutdown     = 1053 // ER_SERVER_SHUTDOWN
	mysqlLockWaitTimeout    = 1205 // ER_LOCK_WAIT_TIMEOUT
	mysqlLockDeadlock       = 1213 // ER_LOCK_DEADLOCK
	mysqlUserLimitReached   = 1226 // ER_USER_LIMIT_REACHED
)

// transientPatterns catch driver errors that arrive without a typed cause.
var transientPatterns = []string{
	"connection refused",
	"connection reset",
	"connection timeout",
	"connection failure",
	"network is unreachable",
	"i/o timeout",
	"broken pipe",
	"too many connections",
	"server closed the connection",
	"unexpected eof",
	"invalid connection",
	"bad connection",
}

// TransientErrorClassifier implements mokka.ErrorClassifier for the
// PostgreSQL and MySQL drivers as well as plain network failures.
type TransientErrorClassifier struct{}

// NewTransientErrorClassifier creates a new classifier.
func NewTransientErrorClassifier() *TransientErrorClassifier {
	return &TransientErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *TransientErrorClassifier) IsTransient(err error) bool {
	if err == nil {
		return false
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return isTransientPgCode(pgErr.Code)
	}

	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return isTransientMySQLNumber(myErr.Number)
	}

	if errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, driver.ErrBadConn) {
		return true
	}

	if isNetworkError(err) {
		return true
	}

	msg := strings.ToLower(err.Error())
	for _, pattern := range transientPatterns {
		if strings.Contains(msg, pattern) {
			return true
		}
	}
	return false
}

func isTransientPgCode(code string) bool {
	// Class 08 connection exception, 53 insufficient resources, 57 operator intervention
	if strings.HasPrefix(code, "08") || strings.HasPrefix(code, "53") || strings.HasPrefix(code, "57") {
		return true
	}
	switch code {
	case pgCodeSerializationFailure, pgCodeDeadlockDetected, pgCodeLockNotAvailable:
		return true
	}
	return false
}

func isTransientMySQLNumber(n uint16) bool {
	switch n {
	case mysqlTooManyConnections, mysqlServerShutdown, mysqlLockWaitTimeout, mysqlLockDeadlock, mysqlUserLimitReached:
		return true
	}
	return false
}

func isNetworkError(err error) bool {
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return dnsErr.IsTemporary || dnsErr.IsTimeout
	}

	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if opErr.Timeout() {
			return true
		}
		switch {
		case errors.Is(opErr.Err, syscall.ECONNREFUSED),
			errors.Is(opErr.Err, syscall.ECONNRESET),
			errors.Is(opErr.Err, syscall.ENETUNREACH),
			errors.Is(opErr.Err, syscall.EHOSTUNREACH):
			return true
		}
	}
	return false
}
