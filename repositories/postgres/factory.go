package postgres

import (
	"context"
	"database/sql"

	"github.com/blazzica/marketplace-api/config"
	"github.com/blazzica/marketplace-api/repositories"
	"github.com/blazzica/marketplace-api/repositories/tables"
	"go.uber.org/zap"
)

// RepositoryFactory creates the repositories for the direct SQL backend
type RepositoryFactory struct {
	db     *DB
	logger *zap.Logger
}

// NewRepositoryFactory opens the pool and optionally creates the schema
func NewRepositoryFactory(ctx context.Context, cfg config.DatabaseConfig, logger *zap.Logger) (*RepositoryFactory, error) {
	db, err := NewDB(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.InitSchema {
		if err := db.InitSchema(ctx); err != nil {
			db.Close()
			return nil, err
		}
	}

	return &RepositoryFactory{db: db, logger: logger}, nil
}

// Store returns the table store backing every repository
func (f *RepositoryFactory) Store() *TableStore {
	return NewTableStore(f.db)
}

// NewRepositories creates all repository instances
func (f *RepositoryFactory) NewRepositories() *repositories.Repositories {
	return tables.New(f.Store(), NewTransactionManager(f.db, f.logger))
}

// Stats reports pool usage
func (f *RepositoryFactory) Stats() sql.DBStats {
	return f.db.Stats()
}

// Close closes the underlying pool
func (f *RepositoryFactory) Close() error {
	return f.db.Close()
}
