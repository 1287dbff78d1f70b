package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lof/customer-profile/internal/core/domain"
)

const collectionCustomers = "customers"

type CustomerRepository struct {
	col *mongo.Collection
}

func NewCustomerRepository(db *mongo.Database) *CustomerRepository {
	return &CustomerRepository{col: db.Collection(collectionCustomers)}
}

// customerDoc stores profile_picture inside custom_attributes, so removing
// the attribute definition can pull its values from every customer.
type customerDoc struct {
	ID               primitive.ObjectID       `bson:"_id,omitempty"`
	Email            string                   `bson:"email"`
	Firstname        string                   `bson:"firstname"`
	Lastname         string                   `bson:"lastname"`
	Suffix           string                   `bson:"suffix,omitempty"`
	PasswordHash     string                   `bson:"password_hash"`
	CustomAttributes []domain.CustomAttribute `bson:"custom_attributes"`
	Addresses        []domain.Address         `bson:"addresses"`
	CreatedAt        int64                    `bson:"created_at"`
	UpdatedAt        int64                    `bson:"updated_at"`
}

func toCustomerDoc(c *domain.Customer) customerDoc {
	return customerDoc{
		Email:            c.Email,
		Firstname:        c.Firstname,
		Lastname:         c.Lastname,
		Suffix:           c.Suffix,
		PasswordHash:     c.PasswordHash,
		CustomAttributes: c.AllCustomAttributes(),
		Addresses:        c.Addresses,
		CreatedAt:        c.CreatedAt.Unix(),
		UpdatedAt:        c.UpdatedAt.Unix(),
	}
}

func (d customerDoc) toDomain() *domain.Customer {
	c := &domain.Customer{
		ID:           d.ID.Hex(),
		Email:        d.Email,
		Firstname:    d.Firstname,
		Lastname:     d.Lastname,
		Suffix:       d.Suffix,
		PasswordHash: d.PasswordHash,
		Addresses:    d.Addresses,
		CreatedAt:    unixToTime(d.CreatedAt),
		UpdatedAt:    unixToTime(d.UpdatedAt),
	}
	for _, attr := range d.CustomAttributes {
		if attr.Code == domain.AttributeProfilePicture {
			c.ProfilePicture = attr.Value
			continue
		}
		c.CustomAttributes = append(c.CustomAttributes, attr)
	}
	return c
}

func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*domain.Customer, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrCustomerNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *CustomerRepository) FindByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *CustomerRepository) findOne(ctx context.Context, filter bson.M) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc customerDoc
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrCustomerNotFound
		}
		return nil, fmt.Errorf("find customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Create(ctx context.Context, customer *domain.Customer) (*domain.Customer, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toCustomerDoc(customer)
	doc.ID = primitive.NewObjectID()
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, domain.ErrCustomerExists
		}
		return nil, fmt.Errorf("insert customer: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *CustomerRepository) Save(ctx context.Context, customer *domain.Customer) error {
	oid, err := primitive.ObjectIDFromHex(customer.ID)
	if err != nil {
		return domain.ErrCustomerNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := toCustomerDoc(customer)
	doc.ID = oid
	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": oid}, doc)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrCustomerExists
		}
		return fmt.Errorf("save customer: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrCustomerNotFound
	}
	return nil
}

// EnsureIndexes creates the unique email index.
func (r *CustomerRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "custom_attributes.code", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("customer indexes: %w", err)
	}
	return nil
}

func unixToTime(ts int64) time.Time {
	if ts == 0 {
		return time.Time{}
	}
	return time.Unix(ts, 0).UTC()
}
