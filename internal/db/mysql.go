package db

import (
	"context"
	"database/sql"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/ilcsoft/mokkadump/pkg/mokka"
)

// mysqlConfig converts cfg to a go-sql-driver configuration.
//
// Column values are left as raw bytes (no parseTime), so DATETIME and
// DECIMAL columns arrive as text that the store parses into exact decimals.
func mysqlConfig(cfg *mokka.ConnectionConfig) *mysql.Config {
	mc := mysql.NewConfig()
	mc.User = cfg.Username
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
	mc.DBName = cfg.Database
	mc.Timeout = cfg.ConnectTimeout
	mc.TLSConfig = mysqlTLS(cfg.SSLMode)
	return mc
}

// mysqlTLS maps libpq-style sslmode values onto go-sql-driver tls values.
// go-sql-driver values (true, false, skip-verify, preferred or a registered
// config name) pass through.
func mysqlTLS(sslmode string) string {
	switch strings.ToLower(sslmode) {
	case "", "disable":
		return ""
	case "allow", "prefer":
		return "preferred"
	case "require":
		return "skip-verify"
	case "verify-ca", "verify-full":
		return "true"
	}
	return sslmode
}

// openMySQL opens a database handle for cfg and verifies it with a ping.
// tweak, when non-nil, is applied to the driver config.
func openMySQL(ctx context.Context, cfg *mokka.ConnectionConfig, tweak func(*mysql.Config)) (*sql.DB, error) {
	mc := mysqlConfig(cfg)
	if tweak != nil {
		tweak(mc)
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("failed to build MySQL connector: %w", err)
	}

	db := sql.OpenDB(connector)
	db.SetMaxOpenConns(DefaultMaxConns)
	db.SetConnMaxIdleTime(DefaultMaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, wrapConnectionError(err, cfg)
	}
	return db, nil
}
