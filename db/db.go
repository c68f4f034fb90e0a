package db

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectMongo dials uri and pings the primary.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	log.Println("Connected to MongoDB")
	return client, nil
}

// ConnectPostgres opens dsn, retrying while the server comes up.
func ConnectPostgres(dsn string, attempts int) (*gorm.DB, error) {
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for i := 0; i < attempts; i++ {
		log.Printf("Postgres connection attempt %d...", i+1)
		gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
			Logger: logger.Default.LogMode(logger.Warn),
		})
		if err == nil {
			log.Println("Connected to Postgres")
			return gdb, nil
		}
		lastErr = err
		log.Printf("Postgres connection attempt %d failed: %v", i+1, err)
		if i < attempts-1 {
			time.Sleep(2 * time.Second)
		}
	}
	return nil, fmt.Errorf("connect postgres: %w", lastErr)
}

// OpenSQLite opens the database file at path (":memory:" for tests).
func OpenSQLite(path string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One connection keeps :memory: databases alive and serialises writers.
	sqlDB.SetMaxOpenConns(1)
	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite %q: %w", path, err)
	}
	return sqlDB, nil
}
