package store

import (
	"context"
	"fmt"

	"reelops/config"
	"reelops/db"
)

// Open selects the operation store named by cfg.OperationStore. Nothing else
// in the program needs to know which one is active.
func Open(ctx context.Context, cfg *config.Config) (OperationStore, error) {
	switch cfg.OperationStore {
	case "csv":
		return NewCSVStore(cfg.CSVPath), nil
	case "", "sqlite":
		sqlDB, err := db.OpenSQLite(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		s, err := NewSQLiteStore(sqlDB)
		if err != nil {
			sqlDB.Close()
			return nil, err
		}
		return s, nil
	case "postgres":
		if cfg.PostgresDSN == "" {
			return nil, fmt.Errorf("POSTGRES_DSN is required for the postgres store")
		}
		gdb, err := db.ConnectPostgres(cfg.PostgresDSN, 10)
		if err != nil {
			return nil, err
		}
		return NewGormStore(gdb)
	case "mongo":
		client, err := db.ConnectMongo(ctx, cfg.MongoURI)
		if err != nil {
			return nil, err
		}
		s, err := NewMongoStore(ctx, client, cfg.MongoDatabase, cfg.MongoCollection)
		if err != nil {
			_ = client.Disconnect(context.Background())
			return nil, err
		}
		return s, nil
	}
	return nil, fmt.Errorf("unknown operation store %q", cfg.OperationStore)
}
