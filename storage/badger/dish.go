package badger

import (
	"bytes"
	"context"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/dishpipe/core"
	"github.com/poiesic/dishpipe/storage"
)

// DishRepository implements storage.DishRepository for BadgerDB.
//
// Each dish is stored as a primary JSON document plus two index entries:
// an exact-match (name, country) key used by the duplicate detector's
// exact stage, and a country key whose value is the dish name, giving the
// fuzzy stage a names-only projection without loading full documents.
type DishRepository struct {
	backend *Backend
}

var _ storage.DishRepository = (*DishRepository)(nil)

// NewDishRepository creates a new DishRepository.
func NewDishRepository(backend *Backend) (*DishRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &DishRepository{backend: backend}, nil
}

// Close releases repository resources.
func (r *DishRepository) Close() error {
	return nil
}

// Insert adds a single dish, rejecting duplicate ids.
func (r *DishRepository) Insert(ctx context.Context, dish *core.Dish) error {
	value, err := storage.MarshalDish(dish)
	if err != nil {
		return err
	}

	return r.backend.WithTx(func(tx *badger.Txn) error {
		key := makeDishKey(dish.Id)
		if _, err := tx.Get(key); err == nil {
			return storage.ErrDuplicateKey
		} else if err != badger.ErrKeyNotFound {
			return err
		}

		if err := writeDish(tx, dish, key, value); err != nil {
			return err
		}
		return tx.Commit()
	}, true)
}

// BulkUpsert adds or replaces dishes matched on id. Each dish commits in
// its own transaction; an upsert is a single-document atomic operation.
func (r *DishRepository) BulkUpsert(ctx context.Context, dishes []*core.Dish) (storage.UpsertResult, error) {
	var result storage.UpsertResult

	for _, dish := range dishes {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		value, err := storage.MarshalDish(dish)
		if err != nil {
			return result, err
		}

		err = r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeDishKey(dish.Id)
			old, err := readDish(tx, key)
			if err != nil {
				return err
			}

			if old != nil {
				// Replace: drop stale index entries if name or country moved.
				if old.Name != dish.Name || old.Country != dish.Country {
					if err := deleteDishIndexes(tx, old); err != nil {
						return err
					}
				}
				result.Updated++
			} else {
				result.Inserted++
			}

			if err := writeDish(tx, dish, key, value); err != nil {
				return err
			}
			return tx.Commit()
		}, true)
		if err != nil {
			return result, err
		}
	}

	return result, nil
}

// Get retrieves a dish by id.
func (r *DishRepository) Get(ctx context.Context, id string) (*core.Dish, error) {
	var result *core.Dish
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readDish(tx, makeDishKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// FindByNameAndCountry looks up a dish through the (name, country) index.
func (r *DishRepository) FindByNameAndCountry(ctx context.Context, name, country string) (*core.Dish, error) {
	var result *core.Dish
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeNameCountryKey(name, country))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return storage.ErrNotFound
			}
			return err
		}

		var id string
		if err := item.Value(func(val []byte) error {
			id = string(val)
			return nil
		}); err != nil {
			return err
		}

		result, err = readDish(tx, makeDishKey(id))
		if err != nil {
			return err
		}
		if result == nil {
			// Index entry with no primary document; treat as absent.
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// NamesByCountry returns the stored names for one country, read off the
// country index values.
func (r *DishRepository) NamesByCountry(ctx context.Context, country string) ([]string, error) {
	var names []string
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := makePartialCountryKey(country)
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if err := iter.Item().Value(func(val []byte) error {
				names = append(names, string(val))
				return nil
			}); err != nil {
				return err
			}
		}
		return nil
	}, false)
	return names, err
}

// All returns every stored dish. Offline use only.
func (r *DishRepository) All(ctx context.Context) ([]*core.Dish, error) {
	var results []*core.Dish
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(dishRecordPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			if !bytes.HasPrefix(iter.Item().Key(), prefix) {
				continue
			}
			var dish *core.Dish
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				dish, err = storage.UnmarshalDish(val)
				return err
			}); err != nil {
				return err
			}
			if dish != nil {
				results = append(results, dish)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteByIDs removes dishes by id along with their index entries.
func (r *DishRepository) DeleteByIDs(ctx context.Context, ids ...string) (int, error) {
	deleted := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return deleted, err
		}

		err := r.backend.WithTx(func(tx *badger.Txn) error {
			key := makeDishKey(id)
			dish, err := readDish(tx, key)
			if err != nil {
				return err
			}
			if dish == nil {
				return nil
			}

			if err := deleteDishIndexes(tx, dish); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
			deleted++
			return tx.Commit()
		}, true)
		if err != nil {
			return deleted, err
		}
	}
	return deleted, nil
}

// Count returns the number of stored dishes.
func (r *DishRepository) Count(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(dishRecordPrefix + ":")
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		opts.PrefetchValues = false
		iter := tx.NewIterator(opts)
		defer iter.Close()

		for iter.Rewind(); iter.Valid(); iter.Next() {
			count++
		}
		return nil
	}, false)
	return count, err
}

// Helper functions

// readDish reads a dish from the transaction, returning nil when absent.
func readDish(tx *badger.Txn, key []byte) (*core.Dish, error) {
	item, err := tx.Get(key)
	if err != nil {
		if err == badger.ErrKeyNotFound {
			return nil, nil
		}
		return nil, err
	}

	var dish *core.Dish
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		dish, unmarshalErr = storage.UnmarshalDish(val)
		return unmarshalErr
	})
	return dish, err
}

// writeDish stores the primary document and both index entries.
func writeDish(tx *badger.Txn, dish *core.Dish, key, value []byte) error {
	if err := tx.Set(key, value); err != nil {
		return err
	}
	if err := tx.Set(makeNameCountryKey(dish.Name, dish.Country), []byte(dish.Id)); err != nil {
		return err
	}
	return tx.Set(makeCountryKey(dish.Country, dish.Id), []byte(dish.Name))
}

// deleteDishIndexes removes the index entries for a stored dish.
func deleteDishIndexes(tx *badger.Txn, dish *core.Dish) error {
	if err := tx.Delete(makeNameCountryKey(dish.Name, dish.Country)); err != nil {
		return err
	}
	return tx.Delete(makeCountryKey(dish.Country, dish.Id))
}
