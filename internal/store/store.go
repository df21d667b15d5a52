package store

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/redis/go-redis/v9"
)

var (
	Db  *sql.DB
	Rdb *redis.Client
	Ctx = context.Background()
)

// Open connects the sqlite database and the redis client. Call once from
// main before anything touches Db or Rdb.
func Open(dbPath, redisAddr string) error {
	var err error
	Db, err = sql.Open("sqlite3", dbPath)
	if err != nil {
		return err
	}

	Rdb = redis.NewClient(&redis.Options{
		Addr: redisAddr,
	})
	return nil
}

func CreateTable(db *sql.DB) (sql.Result, error) {
	sqlstmt := `CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		ref_kind TEXT,
		ref_name TEXT,
		repo TEXT,
		head_sha TEXT,
		status TEXT,
		jobs TEXT,
		created_at TEXT
);`
	return db.Exec(sqlstmt)
}
