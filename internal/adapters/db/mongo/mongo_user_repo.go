package mongo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	customErrors "github.com/learnora/learnora-server/internal/domain/auth/errors"
	"github.com/learnora/learnora-server/internal/domain/auth/model"
)

// noPassword projects the password hash out; credential paths opt back in.
var noPassword = bson.M{"password": 0}

type MongoUserRepo struct {
	users *mongo.Collection
}

func NewMongoUserRepo(db *mongo.Database) *MongoUserRepo {
	return &MongoUserRepo{users: db.Collection("users")}
}

// EnsureIndexes creates the unique email index duplicate detection relies on.
func (m *MongoUserRepo) EnsureIndexes(ctx context.Context) error {
	_, err := m.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

type userDoc struct {
	ID           string       `bson:"_id"`
	Name         string       `bson:"name"`
	Email        string       `bson:"email"`
	PasswordHash string       `bson:"password,omitempty"`
	Role         string       `bson:"role"`
	Avatar       model.Avatar `bson:"avatar,omitempty"`
	Courses      []string     `bson:"courses,omitempty"`
	CreatedAt    time.Time    `bson:"created_at"`
	UpdatedAt    time.Time    `bson:"updated_at"`
}

func toDoc(u model.User) userDoc {
	return userDoc{
		ID:           u.ID.String(),
		Name:         u.Name,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
		Role:         string(u.Role),
		Avatar:       u.Avatar,
		Courses:      u.Courses,
		CreatedAt:    u.CreatedAt,
		UpdatedAt:    u.UpdatedAt,
	}
}

func (d userDoc) toModel() (model.User, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return model.User{}, customErrors.WrapInternal(err, "malformed user id")
	}
	return model.User{
		ID:           id,
		Name:         d.Name,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		Role:         model.Role(d.Role),
		Avatar:       d.Avatar,
		Courses:      d.Courses,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}, nil
}

func (m *MongoUserRepo) CreateUser(ctx context.Context, user model.User) (uuid.UUID, error) {
	if _, err := m.users.InsertOne(ctx, toDoc(user)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return uuid.Nil, customErrors.ErrAlreadyExists
		}
		return uuid.Nil, customErrors.WrapInternal(err, "CreateUser")
	}
	return user.ID, nil
}

func (m *MongoUserRepo) GetUserByEmail(ctx context.Context, email string) (model.User, error) {
	return m.findOne(ctx, bson.M{"email": email}, nil)
}

func (m *MongoUserRepo) GetUserByID(ctx context.Context, id uuid.UUID) (model.User, error) {
	return m.findOne(ctx, bson.M{"_id": id.String()}, noPassword)
}

func (m *MongoUserRepo) GetUserByIDWithPassword(ctx context.Context, id uuid.UUID) (model.User, error) {
	return m.findOne(ctx, bson.M{"_id": id.String()}, nil)
}

func (m *MongoUserRepo) findOne(ctx context.Context, filter bson.M, projection bson.M) (model.User, error) {
	opts := options.FindOne()
	if projection != nil {
		opts.SetProjection(projection)
	}

	var doc userDoc
	err := m.users.FindOne(ctx, filter, opts).Decode(&doc)
	switch {
	case err == mongo.ErrNoDocuments:
		return model.User{}, customErrors.ErrNotFound
	case err != nil:
		return model.User{}, customErrors.WrapInternal(err, "FindOne")
	}
	return doc.toModel()
}

func (m *MongoUserRepo) UpdateUser(ctx context.Context, user model.User) error {
	set := bson.M{
		"name":       user.Name,
		"email":      user.Email,
		"role":       string(user.Role),
		"avatar":     user.Avatar,
		"courses":    user.Courses,
		"updated_at": user.UpdatedAt,
	}
	// Callers holding a projected record must not blank the hash.
	if user.PasswordHash != "" {
		set["password"] = user.PasswordHash
	}

	res, err := m.users.UpdateOne(ctx, bson.M{"_id": user.ID.String()}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return customErrors.ErrAlreadyExists
		}
		return customErrors.WrapInternal(err, "UpdateUser")
	}
	if res.MatchedCount == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (m *MongoUserRepo) DeleteUser(ctx context.Context, id uuid.UUID) error {
	res, err := m.users.DeleteOne(ctx, bson.M{"_id": id.String()})
	if err != nil {
		return customErrors.WrapInternal(err, "DeleteUser")
	}
	if res.DeletedCount == 0 {
		return customErrors.ErrNotFound
	}
	return nil
}

func (m *MongoUserRepo) ListUsers(ctx context.Context) ([]model.User, error) {
	opts := options.Find().
		SetProjection(noPassword).
		SetSort(bson.D{{Key: "created_at", Value: -1}})

	cur, err := m.users.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, customErrors.WrapInternal(err, "ListUsers")
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, customErrors.WrapInternal(err, "ListUsers")
	}

	users := make([]model.User, 0, len(docs))
	for _, d := range docs {
		u, err := d.toModel()
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, nil
}
