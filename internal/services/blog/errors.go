package blog

import "errors"

// ErrPostNotFound - post not found in DB
var ErrPostNotFound = errors.New("blog post not found")

// ErrNotPostAuthor is returned when ownership checks are on and the caller did not write the post.
var ErrNotPostAuthor = errors.New("only the author can modify this post")

// ErrBlankField is returned when a required text field is empty once markup is stripped.
var ErrBlankField = errors.New("field is empty after removing markup")

// ErrCreatePost is returned when post creation fails.
var ErrCreatePost = errors.New("failed to create blog post")

// ErrReadPost is returned when loading a post or its authors fails.
var ErrReadPost = errors.New("failed to read blog post")

// ErrUpdatePost is returned when post update fails.
var ErrUpdatePost = errors.New("failed to update blog post")

// ErrDeletePost is returned when post deletion fails.
var ErrDeletePost = errors.New("failed to delete blog post")

// ErrAddComment is returned when appending a comment fails.
var ErrAddComment = errors.New("failed to add comment")
