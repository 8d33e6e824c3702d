package storage

import (
	"context"

	"github.com/poiesic/dishpipe/core"
)

// UpsertResult reports what a bulk upsert actually did.
type UpsertResult struct {
	Inserted int
	Updated  int
}

// DishRepository provides operations for managing persisted dishes.
// Implementations must be thread-safe and support concurrent access.
type DishRepository interface {
	// Insert adds a single dish. Ids are unique across the store:
	// inserting an id that already exists returns ErrDuplicateKey and
	// leaves the stored document untouched.
	Insert(ctx context.Context, dish *core.Dish) error

	// BulkUpsert adds or replaces dishes matched on id. Used for seed
	// loads; the streaming pipeline uses Insert so duplicates are
	// rejected rather than overwritten.
	BulkUpsert(ctx context.Context, dishes []*core.Dish) (UpsertResult, error)

	// Get retrieves a dish by id. Returns ErrNotFound if absent.
	Get(ctx context.Context, id string) (*core.Dish, error)

	// FindByNameAndCountry looks up a dish by its exact stored name and
	// country via the (name, country) index. Returns ErrNotFound when no
	// dish matches.
	FindByNameAndCountry(ctx context.Context, name, country string) (*core.Dish, error)

	// NamesByCountry returns the names of every dish stored for a
	// country. This is a projection read off the country index; it never
	// loads full documents.
	NamesByCountry(ctx context.Context, country string) ([]string, error)

	// All returns every stored dish. Intended for offline maintenance
	// (duplicate report, cleanup sweep), not the ingestion hot path.
	All(ctx context.Context) ([]*core.Dish, error)

	// DeleteByIDs removes dishes by id, returning how many documents
	// were actually deleted. Missing ids are not an error.
	DeleteByIDs(ctx context.Context, ids ...string) (int, error)

	// Count returns the number of stored dishes.
	Count(ctx context.Context) (int, error)

	// Close closes the repository and releases resources.
	Close() error
}
