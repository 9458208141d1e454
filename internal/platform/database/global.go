package database

import (
	"database/sql"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"rentr/internal/platform/config"
)

// GlobalDB wraps the shared database holding organizations, users, plans and
// billing events. Tenant-scoped rental data lives in per-org files, see
// TenantDBPool.
type GlobalDB struct {
	DB *sql.DB
}

func NewGlobalDB(cfg config.GlobalDBConfig) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", cfg.Path)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return db, nil
}

func NewGlobalDBWrapper(db *sql.DB) *GlobalDB {
	return &GlobalDB{DB: db}
}
