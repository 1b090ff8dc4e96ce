package blog

import (
	"context"
	"errors"

	"blog-pulse/cmd/server/handlers/handlerutil"
	"blog-pulse/cmd/server/handlers/httperr"
	"blog-pulse/internal/logger"
	"blog-pulse/internal/services/blog"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/v2/bson"
)

const msgPostNotFound = "Blog post not found"

// Service defines the interface for blog service
type Service interface {
	Create(ctx context.Context, authorID bson.ObjectID, req blog.CreatePostRequest) (*blog.BlogPost, error)
	Get(ctx context.Context, id bson.ObjectID) (*blog.PostView, error)
	Update(ctx context.Context, callerID, id bson.ObjectID, req blog.UpdatePostRequest) (*blog.BlogPost, error)
	Delete(ctx context.Context, callerID, id bson.ObjectID) error
	AddComment(ctx context.Context, authorID, postID bson.ObjectID, req blog.CommentRequest) (*blog.Comment, error)
}

// PostResponse pairs a message with a post
type PostResponse struct {
	Message string         `json:"message" example:"New blog post created"`
	Post    *blog.BlogPost `json:"post"`
}

// CommentResponse pairs a message with a comment
type CommentResponse struct {
	Message string        `json:"message" example:"New comment added"`
	Comment *blog.Comment `json:"comment"`
}

// MessageResponse carries a bare message
type MessageResponse struct {
	Message string `json:"message" example:"Blog post deleted"`
}

// Handlers contains the blog HTTP handlers
type Handlers struct {
	service   Service
	validator *validator.Validate
}

// NewHandlers creates new blog handlers
func NewHandlers(service Service, validator *validator.Validate) *Handlers {
	return &Handlers{
		service:   service,
		validator: validator,
	}
}

// Create handles post creation
// @Summary Create a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param request body blog.CreatePostRequest true "Create post request"
// @Success 200 {object} PostResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Router /create-blog [post]
func (h *Handlers) Create(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	var req blog.CreatePostRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Create"); err != nil {
		return err
	}

	post, err := h.service.Create(c.Context(), userID, req)
	if err != nil {
		return serviceError(err, "Create", userID, nil)
	}

	return c.JSON(PostResponse{Message: "New blog post created", Post: post})
}

// Get returns a post with its author and comment authors resolved
// @Summary Read a blog post
// @Tags blog
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} blog.PostView
// @Failure 404 {object} httperr.E
// @Router /blog/{id} [get]
func (h *Handlers) Get(c *fiber.Ctx) error {
	postID, err := handlerutil.ExtractObjectID(c, "Get", msgPostNotFound)
	if err != nil {
		return err
	}

	view, err := h.service.Get(c.Context(), postID)
	if err != nil {
		return serviceError(err, "Get", bson.NilObjectID, &postID)
	}

	return c.JSON(view)
}

// Update handles post updates
// @Summary Update a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body blog.UpdatePostRequest true "Fields to overwrite"
// @Success 200 {object} PostResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /blog/{id} [put]
func (h *Handlers) Update(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	postID, err := handlerutil.ExtractObjectID(c, "Update", msgPostNotFound)
	if err != nil {
		return err
	}

	var req blog.UpdatePostRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Update"); err != nil {
		return err
	}

	post, err := h.service.Update(c.Context(), userID, postID, req)
	if err != nil {
		return serviceError(err, "Update", userID, &postID)
	}

	return c.JSON(PostResponse{Message: "Blog post updated", Post: post})
}

// Delete handles post deletion
// @Summary Delete a blog post
// @Tags blog
// @Produce json
// @Param id path string true "Post ID"
// @Success 200 {object} MessageResponse
// @Failure 401 {object} httperr.E
// @Failure 403 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /blog/{id} [delete]
func (h *Handlers) Delete(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	postID, err := handlerutil.ExtractObjectID(c, "Delete", msgPostNotFound)
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.Context(), userID, postID); err != nil {
		return serviceError(err, "Delete", userID, &postID)
	}

	return c.JSON(MessageResponse{Message: "Blog post deleted"})
}

// Comment appends a comment to a post
// @Summary Comment on a blog post
// @Tags blog
// @Accept json
// @Produce json
// @Param id path string true "Post ID"
// @Param request body blog.CommentRequest true "Comment"
// @Success 200 {object} CommentResponse
// @Failure 400 {object} httperr.E
// @Failure 401 {object} httperr.E
// @Failure 404 {object} httperr.E
// @Router /blog/{id}/comment [post]
func (h *Handlers) Comment(c *fiber.Ctx) error {
	userID, err := handlerutil.GetUserID(c)
	if err != nil {
		return err
	}

	postID, err := handlerutil.ExtractObjectID(c, "Comment", msgPostNotFound)
	if err != nil {
		return err
	}

	var req blog.CommentRequest
	if err := handlerutil.ParseAndValidateBody(c, &req, h.validator, "Comment"); err != nil {
		return err
	}

	comment, err := h.service.AddComment(c.Context(), userID, postID, req)
	if err != nil {
		return serviceError(err, "Comment", userID, &postID)
	}

	return c.JSON(CommentResponse{Message: "New comment added", Comment: comment})
}

// serviceError maps blog service errors to HTTP responses
func serviceError(err error, handlerName string, userID bson.ObjectID, postID *bson.ObjectID) error {
	logFields := []any{"handler", handlerName, "userID", userID.Hex(), "error", err}
	if postID != nil {
		logFields = append(logFields, "postID", postID.Hex())
	}

	switch {
	case errors.Is(err, blog.ErrPostNotFound):
		logger.L().Info("resource not found", logFields...)
		return httperr.Fail(httperr.NotFound(msgPostNotFound))
	case errors.Is(err, blog.ErrNotPostAuthor):
		logger.L().Info("caller is not the post author", logFields...)
		return httperr.Fail(httperr.Forbidden(err.Error()))
	case errors.Is(err, blog.ErrBlankField):
		return httperr.InvalidInput(err)
	}

	logger.L().Error("service operation failed", logFields...)
	return httperr.Fail(httperr.ErrInternal)
}
