package blog

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"blog-pulse/internal/config"
	"blog-pulse/internal/utils/sanitize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Service handles blog post and comment business logic
type Service struct {
	repo    Repository
	authors AuthorDirectory
	bus     Bus
	config  config.Config
	log     *slog.Logger
}

// NewService creates a new blog service
func NewService(repo Repository, authors AuthorDirectory, bus Bus, cfg config.Config, log *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		authors: authors,
		bus:     bus,
		config:  cfg,
		log:     log,
	}
}

// CreatePostRequest represents a post creation request. The author is
// always the caller; an author field in the body is ignored.
type CreatePostRequest struct {
	Title   string `json:"title" form:"title" validate:"required" example:"Hello, world"`
	Content string `json:"content" form:"content" validate:"required" example:"My first post."`
}

// UpdatePostRequest represents a post update request
type UpdatePostRequest struct {
	Title   *string `json:"title,omitempty" form:"title" validate:"omitempty,min=1" example:"Hello again"`
	Content *string `json:"content,omitempty" form:"content" validate:"omitempty,min=1" example:"Edited."`
}

// CommentRequest represents a new comment
type CommentRequest struct {
	Text string `json:"text" form:"text" validate:"required" example:"Great read!"`
}

// Create stores a new post written by authorID
func (s *Service) Create(ctx context.Context, authorID bson.ObjectID, req CreatePostRequest) (*BlogPost, error) {
	title := sanitize.Line(req.Title)
	content := sanitize.Clean(req.Content)
	if title == "" || content == "" {
		return nil, ErrBlankField
	}

	now := time.Now().UTC()
	post := &BlogPost{
		ID:        bson.NewObjectID(),
		Title:     title,
		Content:   content,
		Author:    authorID,
		CreatedAt: now,
		UpdatedAt: now,
		Comments:  []Comment{},
	}

	if err := s.repo.Create(ctx, post); err != nil {
		s.log.Error(ErrCreatePost.Error(), "error", err, "user_id", authorID.Hex())
		return nil, ErrCreatePost
	}

	s.bus.Broadcast(ctx, PostEvent{Type: EventCreated, PostID: post.ID, Post: post})

	return post, nil
}

// Get returns the read view of a post with authors resolved
func (s *Service) Get(ctx context.Context, id bson.ObjectID) (*PostView, error) {
	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		s.log.Error(ErrReadPost.Error(), "error", err, "post_id", id.Hex())
		return nil, ErrReadPost
	}

	ids := []bson.ObjectID{post.Author}
	for _, c := range post.Comments {
		ids = append(ids, c.Author)
	}

	names, err := s.authors.FindNames(ctx, ids)
	if err != nil {
		s.log.Error("failed to resolve authors", "error", err, "post_id", id.Hex())
		return nil, ErrReadPost
	}

	return buildView(post, names), nil
}

// Update overwrites the supplied fields of a post
func (s *Service) Update(ctx context.Context, callerID, id bson.ObjectID, req UpdatePostRequest) (*BlogPost, error) {
	var patch PostPatch
	if req.Title != nil {
		title := sanitize.Line(*req.Title)
		if title == "" {
			return nil, ErrBlankField
		}
		patch.Title = &title
	}
	if req.Content != nil {
		content := sanitize.Clean(*req.Content)
		if content == "" {
			return nil, ErrBlankField
		}
		patch.Content = &content
	}

	if err := s.checkAuthor(ctx, callerID, id); err != nil {
		return nil, err
	}

	post, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			s.log.Info("post not found for update", "user_id", callerID.Hex(), "post_id", id.Hex())
			return nil, ErrPostNotFound
		}
		s.log.Error(ErrUpdatePost.Error(), "error", err, "user_id", callerID.Hex(), "post_id", id.Hex())
		return nil, ErrUpdatePost
	}

	s.bus.Broadcast(ctx, PostEvent{Type: EventUpdated, PostID: post.ID, Post: post})

	return post, nil
}

// Delete removes a post and its comments
func (s *Service) Delete(ctx context.Context, callerID, id bson.ObjectID) error {
	if err := s.checkAuthor(ctx, callerID, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			s.log.Info("post not found for delete", "user_id", callerID.Hex(), "post_id", id.Hex())
			return ErrPostNotFound
		}
		s.log.Error(ErrDeletePost.Error(), "error", err, "user_id", callerID.Hex(), "post_id", id.Hex())
		return ErrDeletePost
	}

	s.bus.Broadcast(ctx, PostEvent{Type: EventDeleted, PostID: id})

	return nil
}

// AddComment appends a comment by authorID to the post
func (s *Service) AddComment(ctx context.Context, authorID, postID bson.ObjectID, req CommentRequest) (*Comment, error) {
	text := sanitize.Clean(req.Text)
	if text == "" {
		return nil, ErrBlankField
	}

	c := Comment{
		ID:        bson.NewObjectID(),
		Text:      text,
		Author:    authorID,
		BlogPost:  postID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.AddComment(ctx, postID, c); err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return nil, ErrPostNotFound
		}
		s.log.Error(ErrAddComment.Error(), "error", err, "user_id", authorID.Hex(), "post_id", postID.Hex())
		return nil, ErrAddComment
	}

	s.bus.Broadcast(ctx, PostEvent{Type: EventCommented, PostID: postID, Comment: &c})

	return &c, nil
}

// checkAuthor is a no-op unless ownership enforcement is configured
func (s *Service) checkAuthor(ctx context.Context, callerID, id bson.ObjectID) error {
	if !s.config.EnforceOwnership {
		return nil
	}

	post, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrPostNotFound) {
			return ErrPostNotFound
		}
		s.log.Error(ErrReadPost.Error(), "error", err, "post_id", id.Hex())
		return ErrReadPost
	}
	if post.Author != callerID {
		return ErrNotPostAuthor
	}
	return nil
}

func buildView(p *BlogPost, names map[bson.ObjectID]string) *PostView {
	ref := func(id bson.ObjectID) *AuthorRef {
		name, ok := names[id]
		if !ok {
			return nil
		}
		return &AuthorRef{ID: id, Name: name}
	}

	view := &PostView{
		ID:        p.ID,
		Title:     p.Title,
		Content:   p.Content,
		Author:    ref(p.Author),
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
		Comments:  make([]CommentView, 0, len(p.Comments)),
	}
	for _, c := range p.Comments {
		view.Comments = append(view.Comments, CommentView{
			ID:        c.ID,
			Text:      c.Text,
			Author:    ref(c.Author),
			BlogPost:  c.BlogPost,
			CreatedAt: c.CreatedAt,
		})
	}
	return view
}
