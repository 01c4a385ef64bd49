package database

import (
	"database/sql"
	"fmt"
	"time"

	"notebook/config"
	"notebook/pkg/logger"

	_ "github.com/lib/pq"
)

const (
	connectAttempts = 5
	retryDelay      = 2 * time.Second
)

// Connect opens the journal database and pings it, retrying a few times for
// transient DNS or network failures.
func Connect(cfg config.DBConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.ConnString())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return db, ping(db, connectAttempts, retryDelay)
}

func ping(db *sql.DB, attempts int, delay time.Duration) error {
	var err error
	for i := 0; i < attempts; i++ {
		if err = db.Ping(); err == nil {
			logger.Sugar.Info("Successfully connected to the database")
			return nil
		}
		logger.Sugar.Infof("Database connection failed, retrying in %s... (%v)", delay, err)
		time.Sleep(delay)
	}
	db.Close()
	return fmt.Errorf("could not connect to database after %d attempts: %w", attempts, err)
}
