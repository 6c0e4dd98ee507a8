package atlas

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/poiesic/driftlens/core"
	"github.com/poiesic/driftlens/storage"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	DefaultDatabase    = "medical_research"
	DefaultCollection  = "medical_conditions"
	DefaultVectorIndex = "vector_index"
	DefaultTextIndex   = "text_index"

	fieldID        = "_id"
	fieldLabel     = "condition"
	fieldTitle     = "title"
	fieldSource    = "source_id"
	fieldSnippet   = "snippet"
	fieldEmbedding = "embedding"
)

// Config describes where the corpus lives on an Atlas cluster.
type Config struct {
	URI         string
	Database    string
	Collection  string
	VectorIndex string
	// TextIndex names the Atlas Search index. Empty disables lexical ranking.
	TextIndex string
}

// DefaultConfig returns a Config pointing at uri with default names.
func DefaultConfig(uri string) Config {
	return Config{
		URI:         uri,
		Database:    DefaultDatabase,
		Collection:  DefaultCollection,
		VectorIndex: DefaultVectorIndex,
		TextIndex:   DefaultTextIndex,
	}
}

// Option configures a ConditionRepository.
type Option func(*ConditionRepository) error

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *ConditionRepository) error {
		if logger == nil {
			logger = slog.Default()
		}
		r.logger = logger
		return nil
	}
}

// ConditionRepository implements storage.ConditionRepository on MongoDB Atlas.
// Ranking is delegated to Atlas Vector Search and Atlas Search.
type ConditionRepository struct {
	client      *mongo.Client
	collection  *mongo.Collection
	vectorIndex string
	textIndex   string
	logger      *slog.Logger
}

var _ storage.ConditionRepository = (*ConditionRepository)(nil)

type conditionDocument struct {
	ID         string    `bson:"_id"`
	Label      string    `bson:"condition"`
	Title      string    `bson:"title"`
	SourceID   string    `bson:"source_id"`
	Snippet    string    `bson:"snippet"`
	Embedding  []float32 `bson:"embedding,omitempty"`
	InsertedAt time.Time `bson:"inserted_at"`
	UpdatedAt  time.Time `bson:"updated_at"`
}

type rankedDocument struct {
	ID    string  `bson:"_id"`
	Score float64 `bson:"score"`
}

// Open connects to the cluster described by cfg. The returned repository
// owns the client and disconnects it on Close.
func Open(ctx context.Context, cfg Config, opts ...Option) (*ConditionRepository, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("%w: atlas URI is required", storage.ErrInvalidQuery)
	}
	if cfg.Database == "" {
		cfg.Database = DefaultDatabase
	}
	if cfg.Collection == "" {
		cfg.Collection = DefaultCollection
	}
	if cfg.VectorIndex == "" {
		cfg.VectorIndex = DefaultVectorIndex
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to atlas: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to reach atlas: %w", err)
	}

	repo, err := NewConditionRepository(client.Database(cfg.Database).Collection(cfg.Collection), cfg.VectorIndex, cfg.TextIndex, opts...)
	if err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	repo.client = client
	return repo, nil
}

// NewConditionRepository wraps an existing collection. The caller keeps
// ownership of the client.
func NewConditionRepository(collection *mongo.Collection, vectorIndex, textIndex string, opts ...Option) (*ConditionRepository, error) {
	if collection == nil {
		return nil, storage.ErrStorageClosed
	}
	r := &ConditionRepository{
		collection:  collection,
		vectorIndex: vectorIndex,
		textIndex:   textIndex,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, err
		}
	}
	r.logger = r.logger.With("component", "atlas", "collection", collection.Name())
	return r, nil
}

// EnsureIndexes creates the unique (condition, source_id) index. Search
// indexes are managed through Atlas and are not created here.
func (r *ConditionRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: fieldLabel, Value: 1},
			{Key: fieldSource, Value: 1},
		},
		Options: options.Index().
			SetName("unique_condition_source").
			SetUnique(true),
	})
	return err
}

// Close disconnects the client when the repository owns it.
func (r *ConditionRepository) Close() error {
	if r.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return r.client.Disconnect(ctx)
}

// AddConditions inserts or replaces conditions.
func (r *ConditionRepository) AddConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	if len(conditions) == 0 {
		return conditions, nil
	}

	models := make([]mongo.WriteModel, 0, len(conditions))
	now := time.Now().UTC().Truncate(time.Millisecond)
	for _, condition := range conditions {
		if err := core.ValidateCondition(condition); err != nil {
			return nil, err
		}
		if condition.Id == 0 {
			condition.Id = core.IDFromContent(condition.Tuple())
		}
		condition.InsertedAt = now
		condition.UpdatedAt = now

		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{fieldID: condition.Id.String()}).
			SetReplacement(toDocument(condition)).
			SetUpsert(true))
	}

	if _, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(true)); err != nil {
		return nil, fmt.Errorf("failed to write conditions: %w", err)
	}
	return conditions, nil
}

// UpdateConditions updates existing conditions.
func (r *ConditionRepository) UpdateConditions(ctx context.Context, conditions ...*core.Condition) ([]*core.Condition, error) {
	for _, condition := range conditions {
		old, err := r.GetCondition(ctx, condition.Id)
		if err != nil {
			return nil, err
		}
		condition.InsertedAt = old.InsertedAt
		condition.UpdatedAt = time.Now().UTC().Truncate(time.Millisecond)

		res, err := r.collection.ReplaceOne(ctx, bson.M{fieldID: condition.Id.String()}, toDocument(condition))
		if err != nil {
			return nil, fmt.Errorf("failed to update condition %s: %w", condition.Id, err)
		}
		if res.MatchedCount == 0 {
			return nil, storage.ErrNotFound
		}
	}
	return conditions, nil
}

// DeleteConditions removes conditions by their IDs.
func (r *ConditionRepository) DeleteConditions(ctx context.Context, ids ...core.ID) error {
	for _, id := range ids {
		res, err := r.collection.DeleteOne(ctx, bson.M{fieldID: id.String()})
		if err != nil {
			return fmt.Errorf("failed to delete condition %s: %w", id, err)
		}
		if res.DeletedCount == 0 {
			return storage.ErrNotFound
		}
	}
	return nil
}

// DeleteAllConditions empties the collection.
func (r *ConditionRepository) DeleteAllConditions(ctx context.Context) error {
	res, err := r.collection.DeleteMany(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	r.logger.Info("cleared collection", "deleted", res.DeletedCount)
	return nil
}

// GetCondition retrieves a single condition by ID.
func (r *ConditionRepository) GetCondition(ctx context.Context, id core.ID) (*core.Condition, error) {
	var doc conditionDocument
	err := r.collection.FindOne(ctx, bson.M{fieldID: id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, storage.ErrNotFound
		}
		return nil, err
	}
	return fromDocument(&doc)
}

// GetConditions retrieves multiple conditions by their IDs, in request order.
func (r *ConditionRepository) GetConditions(ctx context.Context, ids ...core.ID) ([]*core.Condition, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	found, err := r.find(ctx, bson.M{fieldID: bson.M{"$in": keys}})
	if err != nil {
		return nil, err
	}
	byID := make(map[core.ID]*core.Condition, len(found))
	for _, c := range found {
		byID[c.Id] = c
	}

	result := make([]*core.Condition, 0, len(found))
	for _, id := range ids {
		if c, ok := byID[id]; ok {
			result = append(result, c)
		}
	}
	return result, nil
}

// GetAllConditions retrieves every condition in the collection.
func (r *ConditionRepository) GetAllConditions(ctx context.Context) ([]*core.Condition, error) {
	return r.find(ctx, bson.M{})
}

// CountConditions returns the number of documents in the collection.
func (r *ConditionRepository) CountConditions(ctx context.Context) (int, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{})
	return int(n), err
}

// RankSemantic ranks conditions with Atlas Vector Search.
func (r *ConditionRepository) RankSemantic(ctx context.Context, vector []float32, limit int) ([]core.RankedID, error) {
	if len(vector) == 0 || limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	return r.aggregateRanked(ctx, vectorSearchPipeline(r.vectorIndex, vector, limit))
}

// RankLexical ranks conditions with Atlas Search. Any failure is reported as
// storage.ErrLexicalUnavailable so callers can degrade to semantic ranking.
func (r *ConditionRepository) RankLexical(ctx context.Context, query string, limit int) ([]core.RankedID, error) {
	if limit <= 0 {
		return nil, storage.ErrInvalidQuery
	}
	if r.textIndex == "" {
		return nil, storage.ErrLexicalUnavailable
	}
	ranked, err := r.aggregateRanked(ctx, textSearchPipeline(r.textIndex, query, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrLexicalUnavailable, err)
	}
	return ranked, nil
}

func (r *ConditionRepository) aggregateRanked(ctx context.Context, pipeline mongo.Pipeline) ([]core.RankedID, error) {
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var docs []rankedDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	results := make([]core.RankedID, 0, len(docs))
	for _, doc := range docs {
		id, err := core.ParseID(doc.ID)
		if err != nil {
			r.logger.Warn("skipping document with foreign id", "id", doc.ID)
			continue
		}
		results = append(results, core.RankedID{Id: id, Score: doc.Score})
	}
	return results, nil
}

func (r *ConditionRepository) find(ctx context.Context, filter any) ([]*core.Condition, error) {
	cursor, err := r.collection.Find(ctx, filter)
	if err != nil {
		return nil, err
	}
	var docs []conditionDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	results := make([]*core.Condition, 0, len(docs))
	for i := range docs {
		c, err := fromDocument(&docs[i])
		if err != nil {
			r.logger.Warn("skipping undecodable document", "id", docs[i].ID, "err", err)
			continue
		}
		results = append(results, c)
	}
	return results, nil
}

func toDocument(c *core.Condition) *conditionDocument {
	return &conditionDocument{
		ID:         c.Id.String(),
		Label:      c.Label,
		Title:      c.Title,
		SourceID:   c.SourceID,
		Snippet:    c.Snippet,
		Embedding:  c.Vector,
		InsertedAt: c.InsertedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromDocument(doc *conditionDocument) (*core.Condition, error) {
	id, err := core.ParseID(doc.ID)
	if err != nil {
		return nil, err
	}
	return &core.Condition{
		Id:         id,
		Label:      doc.Label,
		Title:      doc.Title,
		SourceID:   doc.SourceID,
		Snippet:    doc.Snippet,
		Vector:     doc.Embedding,
		InsertedAt: doc.InsertedAt.UTC(),
		UpdatedAt:  doc.UpdatedAt.UTC(),
	}, nil
}
