package config

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
)

var (
	DB   *sql.DB
	dbMu sync.Mutex
)

// ConnectDB initializes the shared DB connection for the configured driver (idempotent).
func ConnectDB(env Env) (*sql.DB, error) {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		return DB, nil
	}

	driver, dsn, err := driverDSN(env)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: open %s: %w", env.DBDriver, err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(10 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("connect db: ping %s: %w", env.DBDriver, err)
	}

	DB = db
	return DB, nil
}

// driverDSN maps DB_DRIVER to a database/sql driver name and normalizes the DSN.
func driverDSN(env Env) (string, string, error) {
	switch env.DBDriver {
	case "mysql":
		cfg, err := mysql.ParseDSN(env.DBDSN)
		if err != nil {
			return "", "", fmt.Errorf("connect db: parse mysql dsn: %w", err)
		}
		cfg.ParseTime = true
		cfg.ClientFoundRows = true
		if env.Location != nil {
			cfg.Loc = env.Location
		}
		if cfg.Params == nil {
			cfg.Params = map[string]string{}
		}
		if _, ok := cfg.Params["charset"]; !ok {
			cfg.Params["charset"] = "utf8mb4"
		}
		cfg.Timeout = 5 * time.Second
		cfg.ReadTimeout = 30 * time.Second
		cfg.WriteTimeout = 30 * time.Second
		return "mysql", cfg.FormatDSN(), nil
	case "postgres":
		return "pgx", env.DBDSN, nil
	default:
		return "", "", fmt.Errorf("connect db: driver %q has no SQL connection", env.DBDriver)
	}
}

func CloseDB() {
	dbMu.Lock()
	defer dbMu.Unlock()

	if DB != nil {
		_ = DB.Close()
		DB = nil
	}
}
