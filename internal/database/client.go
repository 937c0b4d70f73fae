package database

import (
	"database/sql"

	"github.com/giftlab/giftserve/internal/config"
	_ "github.com/jackc/pgx/v5/stdlib"
)

func Init(cfg *config.DbConfig) (*sql.DB, error) {
	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	return db, nil
}
