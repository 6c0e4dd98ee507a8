package badger

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"slices"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/storage"
)

// ConditionRepository implements storage.ConditionRepository for BadgerDB.
// Ranking scans the whole corpus in process; the corpus is expected to stay
// small (hundreds to low thousands of entries).
type ConditionRepository struct {
	backend *Backend
	logger  *slog.Logger
}

var _ storage.ConditionRepository = (*ConditionRepository)(nil)

// NewConditionRepository creates a new ConditionRepository.
func NewConditionRepository(backend *Backend) (*ConditionRepository, error) {
	if backend == nil {
		return nil, storage.ErrStorageClosed
	}
	return &ConditionRepository{
		backend: backend,
		logger:  backend.logger.With("repository", "conditions"),
	}, nil
}

// Close releases resources. ConditionRepository has no resources to release;
// the backend is closed by its owner.
func (r *ConditionRepository) Close() error {
	return nil
}

// AddConditions inserts or replaces conditions.
func (r *ConditionRepository) AddConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, condition := range conditions {
			if err := core.ValidateCondition(condition); err != nil {
				return err
			}

			// Use content-based ID if not set
			if condition.Id == 0 {
				condition.Id = core.IDFromContent(condition.Tuple())
			}

			// Set timestamps
			condition.InsertedAt = time.Now().UTC()
			condition.UpdatedAt = condition.InsertedAt

			// Store primary record
			key := makeConditionKey(condition.Id)
			if err := tx.Set(key, storage.MarshalCondition(condition)); err != nil {
				return err
			}

			// Store source index
			sourceKey := makeConditionSourceKey(condition.Label, condition.SourceID)
			if err := tx.Set(sourceKey, storage.MarshalID(condition.Id)); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)

	return conditions, err
}

// UpdateConditions updates existing conditions.
func (r *ConditionRepository) UpdateConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, condition := range conditions {
			key := makeConditionKey(condition.Id)

			// Read old condition to detect changes
			old, err := readCondition(tx, key)
			if err != nil {
				return err
			}
			if old == nil {
				return storage.ErrNotFound
			}

			// Update timestamp
			condition.InsertedAt = old.InsertedAt
			condition.UpdatedAt = time.Now().UTC()

			// Store updated record
			if err := tx.Set(key, storage.MarshalCondition(condition)); err != nil {
				return err
			}

			// Update source index if label or source changed
			if old.Label != condition.Label || old.SourceID != condition.SourceID {
				if err := tx.Delete(makeConditionSourceKey(old.Label, old.SourceID)); err != nil {
					return err
				}
				newSourceKey := makeConditionSourceKey(condition.Label, condition.SourceID)
				if err := tx.Set(newSourceKey, storage.MarshalID(condition.Id)); err != nil {
					return err
				}
			}
		}
		return tx.Commit()
	}, true)

	return conditions, err
}

// DeleteConditions removes conditions by their IDs.
func (r *ConditionRepository) DeleteConditions(ctx context.Context, ids ...core.ID) error {
	return r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			key := makeConditionKey(id)

			// Read condition to get metadata for index cleanup
			condition, err := readCondition(tx, key)
			if err != nil {
				return err
			}
			if condition == nil {
				return storage.ErrNotFound
			}

			if err := tx.Delete(makeConditionSourceKey(condition.Label, condition.SourceID)); err != nil {
				return err
			}
			if err := tx.Delete(key); err != nil {
				return err
			}
		}
		return tx.Commit()
	}, true)
}

// DeleteAllConditions empties the corpus.
func (r *ConditionRepository) DeleteAllConditions(ctx context.Context) error {
	if err := r.backend.DeletePrefix(conditionKeyPrefix()); err != nil {
		return err
	}
	return r.backend.DeletePrefix(conditionSourceKeyPrefix())
}

// GetCondition retrieves a single condition by ID.
func (r *ConditionRepository) GetCondition(ctx context.Context, id core.ID) (*core.Condition, error) {
	var result *core.Condition
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = readCondition(tx, makeConditionKey(id))
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

// GetConditions retrieves multiple conditions by their IDs, in request order.
func (r *ConditionRepository) GetConditions(ctx context.Context, ids ...core.ID) ([]*core.Condition, error) {
	var result []*core.Condition
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		for _, id := range ids {
			condition, err := readCondition(tx, makeConditionKey(id))
			if err != nil {
				return err
			}
			if condition != nil {
				result = append(result, condition)
			}
		}
		return nil
	}, false)
	return result, err
}

// FindConditionBySource finds a condition by its label and source identifier.
func (r *ConditionRepository) FindConditionBySource(ctx context.Context, label, sourceID string) (*core.Condition, error) {
	var result *core.Condition
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		item, err := tx.Get(makeConditionSourceKey(label, sourceID))
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return storage.ErrNotFound
			}
			return err
		}

		var id core.ID
		err = item.Value(func(val []byte) error {
			id, err = storage.UnmarshalID(val)
			return err
		})
		if err != nil {
			return err
		}

		result, err = readCondition(tx, makeConditionKey(id))
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

// GetAllConditions retrieves every condition in the corpus.
func (r *ConditionRepository) GetAllConditions(ctx context.Context) ([]*core.Condition, error) {
	var results []*core.Condition
	err := r.backend.Scan(ctx, conditionKeyPrefix(), func(_, value []byte) error {
		condition, err := storage.UnmarshalCondition(value)
		if err != nil {
			return err
		}
		results = append(results, condition)
		return nil
	})
	return results, err
}

// CountConditions returns the number of conditions in the corpus.
func (r *ConditionRepository) CountConditions(ctx context.Context) (int, error) {
	count := 0
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = conditionKeyPrefix()
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

// RankSemantic ranks conditions by cosine similarity to vector.
// Conditions without an embedding are skipped.
func (r *ConditionRepository) RankSemantic(ctx context.Context, vector []float32, limit int) ([]core.RankedID, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var results []core.RankedID
	err := r.backend.Scan(ctx, conditionKeyPrefix(), func(_, value []byte) error {
		condition, err := storage.UnmarshalCondition(value)
		if err != nil {
			return err
		}

		// Skip conditions without embeddings
		if len(condition.Vector) == 0 {
			return nil
		}
		if len(condition.Vector) != len(vector) {
			r.logger.Warn("skipping condition with mismatched embedding dimension",
				"id", condition.Id, "want", len(vector), "got", len(condition.Vector))
			return nil
		}

		results = append(results, core.RankedID{
			Id:    condition.Id,
			Score: cosineSimilarity(vector, condition.Vector),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	sortRanked(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// RankLexical ranks conditions by keyword relevance to query.
func (r *ConditionRepository) RankLexical(ctx context.Context, query string, limit int) ([]core.RankedID, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}

	var docs []lexicalDocument
	err := r.backend.Scan(ctx, conditionKeyPrefix(), func(_, value []byte) error {
		condition, err := storage.UnmarshalCondition(value)
		if err != nil {
			return err
		}
		docs = append(docs, newLexicalDocument(condition))
		return nil
	})
	if err != nil {
		return nil, err
	}

	results := scoreDocuments(docs, query)
	sortRanked(results)
	if len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

// Helper methods

// sortRanked orders by score descending, then ID ascending.
func sortRanked(results []core.RankedID) {
	slices.SortFunc(results, func(a, b core.RankedID) int {
		if a.Score > b.Score {
			return -1
		}
		if a.Score < b.Score {
			return 1
		}
		if a.Id < b.Id {
			return -1
		}
		if a.Id > b.Id {
			return 1
		}
		return 0
	})
}

// cosineSimilarity calculates the cosine of the angle between two vectors.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// readCondition reads a condition from the transaction.
func readCondition(tx *badger.Txn, key []byte) (*core.Condition, error) {
	item, err := tx.Get(key)
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var condition *core.Condition
	err = item.Value(func(val []byte) error {
		var err error
		condition, err = storage.UnmarshalCondition(val)
		return err
	})
	return condition, err
}
