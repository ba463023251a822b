package identity

import (
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

// RepositoryConfig contains configuration for creating an identity repository
type RepositoryConfig struct {
	// DB is required for PostgreSQL repositories
	DB DBTX
	// DataDir is required for file-based repositories
	DataDir string
	// Mongo is required for MongoDB repositories
	Mongo *mongo.Database
}

// NewRepository creates a new identity repository based on the persistence type
func NewRepository(persistenceType string, config RepositoryConfig) (Repository, error) {
	switch persistenceType {
	case "memory", "inmem":
		return NewInMemoryRepository(), nil
	case "postgres", "postgresql":
		if config.DB == nil {
			return nil, fmt.Errorf("db required for postgres repository")
		}
		return NewPostgresRepository(config.DB), nil
	case "file":
		if config.DataDir == "" {
			return nil, fmt.Errorf("dataDir required for file repository")
		}
		return NewFileRepository(config.DataDir)
	case "mongo", "mongodb":
		if config.Mongo == nil {
			return nil, fmt.Errorf("mongo database required for mongo repository")
		}
		return NewMongoRepository(config.Mongo), nil
	default:
		return nil, fmt.Errorf("unsupported persistence type: %s (supported: memory, file, postgres, mongo)", persistenceType)
	}
}
