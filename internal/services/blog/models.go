package blog

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Comment is a remark on a post. Comments live inside their post document.
type Comment struct {
	ID        bson.ObjectID `bson:"_id" json:"id" example:"683cdb8aa96ad71e8e075bd3"`
	Text      string        `bson:"text" json:"text" example:"Great read!"`
	Author    bson.ObjectID `bson:"author" json:"author" example:"683cdb8aa96ad71e8e075bd0"`
	BlogPost  bson.ObjectID `bson:"blog_post" json:"blog_post" example:"683cdb8aa96ad71e8e075bd1"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
}

// BlogPost represents an article together with its comments
type BlogPost struct {
	ID        bson.ObjectID `bson:"_id,omitempty" json:"id" example:"683cdb8aa96ad71e8e075bd1"`
	Title     string        `bson:"title" json:"title" example:"Hello, world"`
	Content   string        `bson:"content" json:"content" example:"My first post."`
	Author    bson.ObjectID `bson:"author" json:"author" example:"683cdb8aa96ad71e8e075bd0"`
	CreatedAt time.Time     `bson:"created_at" json:"created_at" example:"2025-06-01T23:00:26.005703677Z"`
	UpdatedAt time.Time     `bson:"updated_at" json:"updated_at" example:"2025-06-01T23:00:26.005703677Z"`
	Comments  []Comment     `bson:"comments" json:"comments"`
}

// Comment returns the comment with the given id, if the post has it
func (p *BlogPost) Comment(id bson.ObjectID) (*Comment, bool) {
	for i := range p.Comments {
		if p.Comments[i].ID == id {
			return &p.Comments[i], true
		}
	}
	return nil, false
}

// PostPatch represents the fields that can be overwritten on a post
type PostPatch struct {
	Title   *string
	Content *string
}

// AuthorRef is the public face of a user inside a read view
type AuthorRef struct {
	ID   bson.ObjectID `json:"id" example:"683cdb8aa96ad71e8e075bd0"`
	Name string        `json:"name" example:"Ada Lovelace"`
}

// CommentView is a comment with its author resolved
type CommentView struct {
	ID        bson.ObjectID `json:"id"`
	Text      string        `json:"text"`
	Author    *AuthorRef    `json:"author"`
	BlogPost  bson.ObjectID `json:"blog_post"`
	CreatedAt time.Time     `json:"created_at"`
}

// PostView is a post with author and comment authors resolved to names.
// Author is nil when the referenced user no longer exists.
type PostView struct {
	ID        bson.ObjectID `json:"id"`
	Title     string        `json:"title"`
	Content   string        `json:"content"`
	Author    *AuthorRef    `json:"author"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
	Comments  []CommentView `json:"comments"`
}

// EventType names a post activity
type EventType string

// Post activity kinds
const (
	EventCreated   EventType = "created"
	EventUpdated   EventType = "updated"
	EventDeleted   EventType = "deleted"
	EventCommented EventType = "commented"
)

// PostEvent represents something that happened to a post
type PostEvent struct {
	Type    EventType     `json:"type"`
	PostID  bson.ObjectID `json:"post_id"`
	Post    *BlogPost     `json:"post,omitempty"`
	Comment *Comment      `json:"comment,omitempty"`
}
