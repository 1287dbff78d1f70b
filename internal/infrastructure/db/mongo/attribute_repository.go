package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lof/customer-profile/internal/core/domain"
)

const (
	collectionAttributes = "eav_attributes"
	collectionSetupLocks = "setup_locks"

	setupLockID = "schema"

	// setupLockTTL is how long a lock may be held before another run can take
	// it over. It covers a crashed run that never reached EndSetup.
	setupLockTTL = 15 * time.Minute
)

// AttributeRepository stores attribute definitions per entity type.
type AttributeRepository struct {
	col       *mongo.Collection
	customers *mongo.Collection
}

func NewAttributeRepository(db *mongo.Database) *AttributeRepository {
	return &AttributeRepository{
		col:       db.Collection(collectionAttributes),
		customers: db.Collection(collectionCustomers),
	}
}

func (r *AttributeRepository) List(ctx context.Context, entityType string) ([]domain.AttributeMetadata, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.Find().SetSort(bson.D{{Key: "sort_order", Value: 1}, {Key: "attribute_code", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"entity_type": entityType}, opts)
	if err != nil {
		return nil, fmt.Errorf("list attributes: %w", err)
	}
	defer cur.Close(ctx)

	var attrs []domain.AttributeMetadata
	if err := cur.All(ctx, &attrs); err != nil {
		return nil, fmt.Errorf("decode attributes: %w", err)
	}
	return attrs, nil
}

// Add upserts by entity type and code.
func (r *AttributeRepository) Add(ctx context.Context, attr domain.AttributeMetadata) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.ReplaceOne(ctx, attributeFilter(attr.EntityType, attr.Code), attr, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("add attribute %s/%s: %w", attr.EntityType, attr.Code, err)
	}
	return nil
}

// Remove deletes the definition and, for customer attributes, pulls the
// stored values from every customer document.
func (r *AttributeRepository) Remove(ctx context.Context, entityType, code string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteOne(ctx, attributeFilter(entityType, code)); err != nil {
		return fmt.Errorf("remove attribute %s/%s: %w", entityType, code, err)
	}
	if entityType != domain.EntityTypeCustomer {
		return nil
	}

	filter, update := pullAttributeValues(code)
	if _, err := r.customers.UpdateMany(ctx, filter, update); err != nil {
		return fmt.Errorf("remove attribute values %s: %w", code, err)
	}
	return nil
}

// attributeFilter matches exactly one attribute definition.
func attributeFilter(entityType, code string) bson.M {
	return bson.M{"entity_type": entityType, "attribute_code": code}
}

// pullAttributeValues selects the customers holding a value for code and
// removes only that entry from their custom_attributes.
func pullAttributeValues(code string) (filter, update bson.M) {
	filter = bson.M{"custom_attributes.code": code}
	update = bson.M{"$pull": bson.M{"custom_attributes": bson.M{"code": code}}}
	return filter, update
}

func (r *AttributeRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "entity_type", Value: 1}, {Key: "attribute_code", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("attribute indexes: %w", err)
	}
	return nil
}

// SchemaSetup serialises install and uninstall runs with a lock document.
type SchemaSetup struct {
	col *mongo.Collection
}

func NewSchemaSetup(db *mongo.Database) *SchemaSetup {
	return &SchemaSetup{col: db.Collection(collectionSetupLocks)}
}

func (s *SchemaSetup) StartSetup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	now := time.Now().UTC()
	_, err := s.col.InsertOne(ctx, bson.M{"_id": setupLockID, "started_at": now})
	if err == nil {
		return nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return fmt.Errorf("start setup: %w", err)
	}

	// Take over a lock left behind by a run that did not finish.
	res, err := s.col.UpdateOne(ctx, staleLockFilter(now), bson.M{"$set": bson.M{"started_at": now}})
	if err != nil {
		return fmt.Errorf("start setup: reclaim stale lock: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrSetupInProgress
	}
	return nil
}

// staleLockFilter matches the setup lock once it is older than setupLockTTL.
func staleLockFilter(now time.Time) bson.M {
	return bson.M{
		"_id":        setupLockID,
		"started_at": bson.M{"$lt": now.Add(-setupLockTTL)},
	}
}

func (s *SchemaSetup) EndSetup(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := s.col.DeleteOne(ctx, bson.M{"_id": setupLockID}); err != nil {
		return fmt.Errorf("end setup: %w", err)
	}
	return nil
}
