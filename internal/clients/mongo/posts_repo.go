package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/blog"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// PostsCollection is the collection holding blog posts and their comments
const PostsCollection = "blog_posts"

// PostsRepo implements the blog.Repository interface for MongoDB
type PostsRepo struct {
	collection *mongo.Collection
}

// translateNotFound maps the driver ErrNoDocuments to blog.ErrPostNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return blog.ErrPostNotFound
	}
	return err
}

// NewPostsRepo creates a new posts repository
func NewPostsRepo(parentCtx context.Context, db *mongo.Database) (*PostsRepo, error) {
	collection := db.Collection(PostsCollection)

	indexModel := mongo.IndexModel{
		Keys:    bson.D{{Key: "author", Value: 1}, {Key: "_id", Value: -1}},
		Options: options.Index().SetName("author_id_desc"),
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	if _, err := collection.Indexes().CreateOne(ctx, indexModel); err != nil {
		logger.L().Error("failed to create index", "collection", PostsCollection, "error", err)
		return nil, fmt.Errorf("failed to create blog_posts index: %w", err)
	}

	return &PostsRepo{collection: collection}, nil
}

// Create inserts a new post
func (r *PostsRepo) Create(ctx context.Context, p *blog.BlogPost) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if p.Comments == nil {
		// $push needs an array, never null
		p.Comments = []blog.Comment{}
	}

	_, err := r.collection.InsertOne(ctx, p)
	return err
}

// FindByID loads a post with its comments
func (r *PostsRepo) FindByID(ctx context.Context, id bson.ObjectID) (*blog.BlogPost, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var post blog.BlogPost
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&post); err != nil {
		return nil, translateNotFound(err)
	}
	return &post, nil
}

// Update overwrites the fields set in patch and bumps updated_at
func (r *PostsRepo) Update(ctx context.Context, id bson.ObjectID, patch blog.PostPatch) (*blog.BlogPost, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Content != nil {
		set["content"] = *patch.Content
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var post blog.BlogPost
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&post); err != nil {
		return nil, translateNotFound(err)
	}
	return &post, nil
}

// Delete removes a post together with its embedded comments
func (r *PostsRepo) Delete(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}

// AddComment appends c to the post's comments in a single update
func (r *PostsRepo) AddComment(ctx context.Context, postID bson.ObjectID, c blog.Comment) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": postID}, bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return blog.ErrPostNotFound
	}
	return nil
}
