package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	httperrors "github.com/dropDatabas3/pressgate/internal/http/errors"
	mw "github.com/dropDatabas3/pressgate/internal/http/middlewares"
	"github.com/dropDatabas3/pressgate/internal/observability/logger"
	"github.com/dropDatabas3/pressgate/internal/store/core"
)

// PostsController maneja el CRUD de posts del blog.
// La lectura es pública; las mutaciones pasan por RequirePermission en el router.
type PostsController struct {
	repo core.Repository
}

func NewPostsController(repo core.Repository) *PostsController {
	return &PostsController{repo: repo}
}

type postRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

// List maneja GET /v1/posts
func (c *PostsController) List(w http.ResponseWriter, r *http.Request) {
	posts, err := c.repo.ListPosts(r.Context())
	if err != nil {
		logger.From(r.Context()).Error("list posts failed", logger.Err(err))
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	if posts == nil {
		posts = []core.Post{}
	}
	writeJSON(w, http.StatusOK, posts)
}

// Get maneja GET /v1/posts/{id}
func (c *PostsController) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	post, err := c.repo.GetPost(r.Context(), id)
	if err != nil {
		httperrors.WriteError(w, mapPostError(err))
		return
	}
	writeJSON(w, http.StatusOK, post)
}

// Create maneja POST /v1/posts (permiso post.create)
func (c *PostsController) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostsController.Create"))

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("title es obligatorio"))
		return
	}

	sub := mw.GetSubject(ctx)
	if sub == nil || sub.User == nil {
		httperrors.WriteError(w, httperrors.ErrUnauthorized)
		return
	}

	post, err := c.repo.CreatePost(ctx, req.Title, req.Content, sub.User.ID)
	if err != nil {
		log.Error("create post failed", logger.Err(err))
		httperrors.WriteError(w, mapStoreError(err))
		return
	}
	log.Info("post created", logger.PostID(post.ID), logger.UserID(sub.User.ID))

	writeJSON(w, http.StatusCreated, post)
}

// Update maneja PUT /v1/posts/{id} (permiso post.edit).
// Campos vacíos conservan el valor previo.
func (c *PostsController) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostsController.Update"))

	id := chi.URLParam(r, "id")

	var req postRequest
	if err := decodeJSON(w, r, &req); err != nil {
		httperrors.WriteError(w, err)
		return
	}

	post, err := c.repo.UpdatePost(ctx, id, req.Title, req.Content)
	if err != nil {
		httperrors.WriteError(w, mapPostError(err))
		return
	}
	log.Info("post updated", logger.PostID(post.ID))

	writeJSON(w, http.StatusOK, post)
}

// Delete maneja DELETE /v1/posts/{id} (permiso post.delete)
func (c *PostsController) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("PostsController.Delete"))

	id := chi.URLParam(r, "id")
	if err := c.repo.DeletePost(ctx, id); err != nil {
		httperrors.WriteError(w, mapPostError(err))
		return
	}
	log.Info("post deleted", logger.PostID(id))

	w.WriteHeader(http.StatusNoContent)
}

func mapPostError(err error) *httperrors.AppError {
	appErr := mapStoreError(err)
	if appErr == httperrors.ErrNotFound {
		return httperrors.ErrPostNotFound
	}
	return appErr
}
