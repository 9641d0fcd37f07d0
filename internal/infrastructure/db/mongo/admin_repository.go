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

	"github.com/askly/accounts-api/internal/core/domain"
)

const (
	collectionAdmins = "admins"

	idxAdminsUsername = "idx_admins_username"
)

type permissionsDocument struct {
	SuperAdmin  bool `bson:"super_admin"`
	ManageUsers bool `bson:"manage_users"`
}

type adminDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Username    string              `bson:"username"`
	Email       string              `bson:"email,omitempty"`
	Password    string              `bson:"password"`
	Permissions permissionsDocument `bson:"permissions"`
	CreatedAt   time.Time           `bson:"created_at"`
}

// AdminRepository implements ports.AdminRepository on MongoDB.
type AdminRepository struct {
	col *mongo.Collection
}

func NewAdminRepository(db *mongo.Database) *AdminRepository {
	return &AdminRepository{col: db.Collection(collectionAdmins)}
}

func (r *AdminRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// EnsureIndexes creates the unique username index on the admins collection.
func (r *AdminRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := r.col.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetName(idxAdminsUsername),
	})
	return err
}

func (r *AdminRepository) FindByID(ctx context.Context, id string) (*domain.Admin, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrAdminNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AdminRepository) FindByUsername(ctx context.Context, username string) (*domain.Admin, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *AdminRepository) findOne(ctx context.Context, filter bson.M) (*domain.Admin, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc adminDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrAdminNotFound
		}
		return nil, fmt.Errorf("find admin: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AdminRepository) Create(ctx context.Context, admin *domain.Admin) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	flags := admin.PermissionFlags()
	doc := adminDocument{
		ID:       primitive.NewObjectID(),
		Username: admin.Username,
		Email:    admin.Email,
		Password: admin.PasswordHash,
		Permissions: permissionsDocument{
			SuperAdmin:  flags.SuperAdmin,
			ManageUsers: flags.ManageUsers,
		},
		CreatedAt: admin.CreatedAt,
	}

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUsernameInUse
		}
		return fmt.Errorf("insert admin: %w", err)
	}

	admin.ID = doc.ID.Hex()
	return nil
}

func (d *adminDocument) toDomain() *domain.Admin {
	return &domain.Admin{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Email:        d.Email,
		PasswordHash: d.Password,
		Permissions:  domain.PermissionsFromFlags(d.Permissions.SuperAdmin, d.Permissions.ManageUsers),
		CreatedAt:    d.CreatedAt.UTC(),
	}
}
