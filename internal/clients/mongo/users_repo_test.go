package mongo

import (
	"context"
	"os"
	"testing"
	"time"

	"blog-pulse/internal/services/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// setupTestDB connects to MONGO_TEST_URI (or a local default) and returns a
// throwaway database. The test is skipped when no server answers.
func setupTestDB(t *testing.T) *mongo.Database {
	t.Helper()
	if testing.Short() {
		t.Skip("Skipping MongoDB integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		uri = "mongodb://localhost:27017/?serverSelectionTimeoutMS=1000"
	}

	cli, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		t.Skip("MongoDB not available for testing:", err)
	}
	if err := cli.Ping(ctx, nil); err != nil {
		_ = cli.Disconnect(ctx)
		t.Skip("MongoDB ping failed:", err)
	}

	database := cli.Database("test_blogpulse_" + bson.NewObjectID().Hex())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = database.Drop(ctx)
		_ = cli.Disconnect(ctx)
	})
	return database
}

func newTestUser(email string) *auth.User {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &auth.User{
		ID:           bson.NewObjectID(),
		Email:        email,
		PasswordHash: "hashedpassword",
		Age:          30,
		Name:         "Test User",
		Role:         auth.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestUsersRepo_CreateAndFind(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewUsersRepo(ctx, database)
	require.NoError(t, err)

	user := newTestUser("test@example.com")
	require.NoError(t, repo.Create(ctx, user))

	dup := newTestUser("test@example.com")
	assert.ErrorIs(t, repo.Create(ctx, dup), auth.ErrDuplicate)

	found, err := repo.FindByEmail(ctx, user.Email)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)
	assert.Equal(t, user.PasswordHash, found.PasswordHash)
	assert.Equal(t, auth.RoleUser, found.Role)

	byID, err := repo.FindByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, user.Email, byID.Email)

	_, err = repo.FindByEmail(ctx, "TEST@example.com")
	assert.ErrorIs(t, err, auth.ErrUserNotFound, "email lookup is exact")

	_, err = repo.FindByID(ctx, bson.NewObjectID())
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_Update(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewUsersRepo(ctx, database)
	require.NoError(t, err)

	a := newTestUser("a@example.com")
	b := newTestUser("b@example.com")
	require.NoError(t, repo.Create(ctx, a))
	require.NoError(t, repo.Create(ctx, b))

	name := "Renamed"
	age := 41
	updated, err := repo.Update(ctx, a.ID, auth.UserPatch{Name: &name, Age: &age})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, 41, updated.Age)
	assert.Equal(t, "a@example.com", updated.Email)
	assert.True(t, updated.UpdatedAt.After(a.UpdatedAt) || updated.UpdatedAt.Equal(a.UpdatedAt))

	taken := "b@example.com"
	_, err = repo.Update(ctx, a.ID, auth.UserPatch{Email: &taken})
	assert.ErrorIs(t, err, auth.ErrDuplicate)

	_, err = repo.Update(ctx, bson.NewObjectID(), auth.UserPatch{Name: &name})
	assert.ErrorIs(t, err, auth.ErrUserNotFound)
}

func TestUsersRepo_FindNames(t *testing.T) {
	database := setupTestDB(t)
	ctx := context.Background()

	repo, err := NewUsersRepo(ctx, database)
	require.NoError(t, err)

	a := newTestUser("a@example.com")
	a.Name = "Alice"
	require.NoError(t, repo.Create(ctx, a))

	ghost := bson.NewObjectID()
	names, err := repo.FindNames(ctx, []bson.ObjectID{a.ID, a.ID, ghost})
	require.NoError(t, err)
	assert.Equal(t, map[bson.ObjectID]string{a.ID: "Alice"}, names)

	empty, err := repo.FindNames(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
