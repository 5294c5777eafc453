package store

import (
	"context"
	"fmt"

	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/config"
	"github.com/rohitN04/Bank-Statement-Analysis-RAG/internal/models"
)

// VectorSize is fixed by the embedding model (text-embedding-3-small). The
// postgres backend rejects vectors of any other length up front, since the
// column type pins the dimensionality.
const VectorSize = 1536

// Store is the persistence/search backend for page records. Search must
// apply the owner filter inside the backend, before ranking, so one user's
// query can never observe another user's records.
type Store interface {
	Insert(ctx context.Context, rec *models.PageRecord) (string, error)
	Exists(ctx context.Context, ownerID, contentHash string) (bool, error)
	Search(ctx context.Context, queryVec []float32, threshold float64, limit int, ownerID string) ([]models.MatchedRecord, error)
	Close() error
}

// Open connects the backend selected by config.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Store.Backend {
	case "chromem":
		return NewChromem(cfg.Store.Path, cfg.Store.Collection)
	case "postgres":
		return NewPostgres(&cfg.Database)
	default:
		return nil, fmt.Errorf("store: unknown backend %q", cfg.Store.Backend)
	}
}

// Error is the typed failure for backend operations.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("store: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }
