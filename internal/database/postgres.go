package database

import (
	"database/sql"
)

type PgEdupaneRepository struct {
	conn *sql.DB
}

func NewPgEdupaneRepository(dsn string) (*PgEdupaneRepository, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		return nil, err
	}

	return &PgEdupaneRepository{conn: db}, nil
}

func (db *PgEdupaneRepository) Ping() error {
	return db.conn.Ping()
}

func (db *PgEdupaneRepository) Close() error {
	if db.conn != nil {
		return db.conn.Close()
	}
	return nil
}
