package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/auth"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// UsersCollection is the collection holding user accounts
const UsersCollection = "users"

// UsersRepo implements auth.UsersRepo and blog.AuthorDirectory for MongoDB
type UsersRepo struct {
	collection *mongo.Collection
}

// NewUsersRepo creates the repository and ensures the unique email index
func NewUsersRepo(parentCtx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection(UsersCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("email_unique"),
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.L().Error("failed to create index", "collection", UsersCollection, "error", err)
		return nil, fmt.Errorf("failed to create users email index: %w", err)
	}

	return &UsersRepo{collection: collection}, nil
}

func translateUserErr(err error) error {
	switch {
	case errors.Is(err, mongo.ErrNoDocuments):
		return auth.ErrUserNotFound
	case mongo.IsDuplicateKeyError(err):
		return auth.ErrDuplicate
	}
	return err
}

// Create creates a new user in the database
func (r *UsersRepo) Create(ctx context.Context, user *auth.User) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.InsertOne(ctx, user)
	return translateUserErr(err)
}

// FindByEmail finds a user by exact email match
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user auth.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateUserErr(err)
	}
	return &user, nil
}

// FindByID finds a user by id
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user auth.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&user); err != nil {
		return nil, translateUserErr(err)
	}
	return &user, nil
}

// Update overwrites the fields set in patch and bumps updated_at
func (r *UsersRepo) Update(ctx context.Context, id bson.ObjectID, patch auth.UserPatch) (*auth.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Email != nil {
		set["email"] = *patch.Email
	}
	if patch.PasswordHash != nil {
		set["password"] = *patch.PasswordHash
	}
	if patch.Age != nil {
		set["age"] = *patch.Age
	}
	if patch.Name != nil {
		set["name"] = *patch.Name
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var user auth.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&user)
	if err != nil {
		return nil, translateUserErr(err)
	}
	return &user, nil
}

// FindNames maps each existing id to the user's name. Unknown ids are absent.
func (r *UsersRepo) FindNames(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]string, error) {
	names := make(map[bson.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	ctx, cancel := repoCtx(ctx)
	defer cancel()

	seen := make(map[bson.ObjectID]struct{}, len(ids))
	unique := make([]bson.ObjectID, 0, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}

	opts := options.Find().SetProjection(bson.M{"name": 1})
	cur, err := r.collection.Find(ctx, bson.M{"_id": bson.M{"$in": unique}}, opts)
	if err != nil {
		return nil, err
	}
	defer func() { _ = cur.Close(ctx) }()

	for cur.Next(ctx) {
		var row struct {
			ID   bson.ObjectID `bson:"_id"`
			Name string        `bson:"name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		names[row.ID] = row.Name
	}
	return names, cur.Err()
}
