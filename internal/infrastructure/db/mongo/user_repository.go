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
	collectionUsers = "users"

	idxUsersUsername = "idx_users_username"
	idxUsersEmail    = "idx_users_email"
)

type banStatusDocument struct {
	IsBanned bool       `bson:"is_banned"`
	BannedBy *string    `bson:"banned_by"`
	BanDate  *time.Time `bson:"ban_date"`
}

type settingsDocument struct {
	IsAskable  bool `bson:"is_askable"`
	IsViewable bool `bson:"is_viewable"`
}

type userDocument struct {
	ID                     primitive.ObjectID `bson:"_id,omitempty"`
	Username               string             `bson:"username"`
	Email                  string             `bson:"email"`
	Password               string             `bson:"password"`
	ProfileImgURL          string             `bson:"profile_img_url,omitempty"`
	BanStatus              banStatusDocument  `bson:"ban_status"`
	Settings               settingsDocument   `bson:"settings"`
	IsEmailConfirmed       bool               `bson:"is_email_confirmed"`
	EmailConfirmationToken string             `bson:"email_confirmation_token"`
	VerificationWindowed   bool               `bson:"email_verify_windowed"`
	CreatedAt              time.Time          `bson:"created_at"`
	UpdatedAt              time.Time          `bson:"updated_at"`
}

// UserRepository implements ports.UserRepository on MongoDB.
type UserRepository struct {
	col *mongo.Collection
}

func NewUserRepository(db *mongo.Database) *UserRepository {
	return &UserRepository{col: db.Collection(collectionUsers)}
}

// ValidID reports whether id is a hex ObjectID.
func (r *UserRepository) ValidID(id string) bool {
	return primitive.IsValidObjectID(id)
}

// EnsureIndexes creates the unique indexes that enforce username and email uniqueness.
func (r *UserRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(idxUsersUsername),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(idxUsersEmail),
		},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (r *UserRepository) List(ctx context.Context) ([]*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find users: %w", err)
	}

	var docs []userDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}

	users := make([]*domain.User, 0, len(docs))
	for i := range docs {
		users = append(users, docs[i].toDomain())
	}
	return users, nil
}

func (r *UserRepository) FindByID(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *UserRepository) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return doc.toDomain(), nil
}

// Create inserts a new user. Uniqueness is enforced by the store's indexes, so
// concurrent registrations cannot both succeed.
func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := userFromDomain(user)
	doc.ID = primitive.NewObjectID()

	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if dup := translateDuplicateKey(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert user: %w", err)
	}

	user.ID = doc.ID.Hex()
	return nil
}

func (r *UserRepository) Update(ctx context.Context, id string, update domain.UserUpdate) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc userDocument
	err = r.col.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": setFields(update)}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		if dup := translateDuplicateKey(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("update user: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *UserRepository) ConfirmEmail(ctx context.Context, id, token string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrVerificationMismatch
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	filter := bson.M{
		"_id":                      oid,
		"is_email_confirmed":       false,
		"email_confirmation_token": token,
	}
	update := bson.M{"$set": bson.M{
		"is_email_confirmed":       true,
		"email_confirmation_token": "",
		"updated_at":               time.Now().UTC(),
	}}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("confirm email: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrVerificationMismatch
	}
	return nil
}

func (r *UserRepository) Delete(ctx context.Context, id string) (*domain.User, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrUserNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDocument
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	return doc.toDomain(), nil
}

// setFields converts a partial update into a $set document.
func setFields(u domain.UserUpdate) bson.M {
	set := bson.M{"updated_at": time.Now().UTC()}
	if u.Username != nil {
		set["username"] = *u.Username
	}
	if u.Email != nil {
		set["email"] = *u.Email
	}
	if u.PasswordHash != nil {
		set["password"] = *u.PasswordHash
	}
	if u.ProfileImgURL != nil {
		set["profile_img_url"] = *u.ProfileImgURL
	}
	if u.IsAskable != nil {
		set["settings.is_askable"] = *u.IsAskable
	}
	if u.IsViewable != nil {
		set["settings.is_viewable"] = *u.IsViewable
	}
	if u.BanStatus != nil {
		set["ban_status"] = banStatusFromDomain(*u.BanStatus)
	}
	if u.IsEmailConfirmed != nil {
		set["is_email_confirmed"] = *u.IsEmailConfirmed
	}
	if u.EmailConfirmationToken != nil {
		set["email_confirmation_token"] = *u.EmailConfirmationToken
	}
	if u.VerificationWindowed != nil {
		set["email_verify_windowed"] = *u.VerificationWindowed
	}
	return set
}

func banStatusFromDomain(b domain.BanStatus) banStatusDocument {
	doc := banStatusDocument{IsBanned: b.IsBanned, BanDate: b.BanDate}
	if b.BannedBy != "" {
		by := b.BannedBy
		doc.BannedBy = &by
	}
	return doc
}

func userFromDomain(u *domain.User) userDocument {
	return userDocument{
		Username:               u.Username,
		Email:                  u.Email,
		Password:               u.PasswordHash,
		ProfileImgURL:          u.ProfileImgURL,
		BanStatus:              banStatusFromDomain(u.BanStatus),
		Settings:               settingsDocument{IsAskable: u.Settings.IsAskable, IsViewable: u.Settings.IsViewable},
		IsEmailConfirmed:       u.IsEmailConfirmed,
		EmailConfirmationToken: u.EmailConfirmationToken,
		VerificationWindowed:   u.VerificationWindowed,
		CreatedAt:              u.CreatedAt,
		UpdatedAt:              u.UpdatedAt,
	}
}

func (d *userDocument) toDomain() *domain.User {
	u := &domain.User{
		ID:            d.ID.Hex(),
		Username:      d.Username,
		Email:         d.Email,
		PasswordHash:  d.Password,
		ProfileImgURL: d.ProfileImgURL,
		BanStatus: domain.BanStatus{
			IsBanned: d.BanStatus.IsBanned,
			BanDate:  d.BanStatus.BanDate,
		},
		Settings: domain.Settings{
			IsAskable:  d.Settings.IsAskable,
			IsViewable: d.Settings.IsViewable,
		},
		IsEmailConfirmed:       d.IsEmailConfirmed,
		EmailConfirmationToken: d.EmailConfirmationToken,
		VerificationWindowed:   d.VerificationWindowed,
		CreatedAt:              d.CreatedAt.UTC(),
		UpdatedAt:              d.UpdatedAt.UTC(),
	}
	if d.BanStatus.BannedBy != nil {
		u.BanStatus.BannedBy = *d.BanStatus.BannedBy
	}
	return u
}
