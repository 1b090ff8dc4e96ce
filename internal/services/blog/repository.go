package blog

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Repository defines the interface for blog post persistence
type Repository interface {
	Create(ctx context.Context, p *BlogPost) error
	FindByID(ctx context.Context, id bson.ObjectID) (*BlogPost, error)
	Update(ctx context.Context, id bson.ObjectID, patch PostPatch) (*BlogPost, error)
	Delete(ctx context.Context, id bson.ObjectID) error
	// AddComment appends c atomically; ErrPostNotFound when the post is gone.
	AddComment(ctx context.Context, postID bson.ObjectID, c Comment) error
}

// AuthorDirectory resolves user ids to display names
type AuthorDirectory interface {
	FindNames(ctx context.Context, ids []bson.ObjectID) (map[bson.ObjectID]string, error)
}

// Bus defines the interface for event broadcasting
type Bus interface {
	Broadcast(ctx context.Context, ev PostEvent)
}
