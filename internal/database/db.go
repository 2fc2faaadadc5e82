package database

import (
	"context"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Credentials are shared by the directory server and every tenant server.
type Credentials struct {
	User string
	Pass string
}

// dsnConfig builds the driver config for host:port/name.  ClientFoundRows
// makes UPDATE report matched rows, so writing a value equal to the stored
// one still counts as a match.
func dsnConfig(cred Credentials, host string, port int, name string) *mysql.Config {
	cfg := mysql.NewConfig()
	cfg.User = cred.User
	cfg.Passwd = cred.Pass
	cfg.Net = "tcp"
	cfg.Addr = fmt.Sprintf("%s:%d", host, port)
	cfg.DBName = name
	// parseTime=true -> DATETIME -> time.Time | loc=UTC keeps times consistent
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	cfg.Params = map[string]string{"charset": "utf8mb4"}
	cfg.Timeout = 5 * time.Second
	cfg.ClientFoundRows = true
	return cfg
}

// Open connects to MySQL at host:port/name and verifies the connection.
func Open(ctx context.Context, cred Credentials, host string, port int, name string) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", dsnConfig(cred, host, port, name).FormatDSN())
	if err != nil {
		return nil, err
	}

	// Pool settings
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	// Ping with timeout
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
