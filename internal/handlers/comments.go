package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/access"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// CommentHandler implements comment endpoints for videos.
type CommentHandler struct {
	Comments CommentStore
	Videos   VideoStore
	Verifier TokenVerifier
	NowFunc  func() time.Time
}

type commentRequest struct {
	Content string `json:"content"`
}

// List handles GET /api/v1/videos/{videoId}/comments with pagination.
func (h CommentHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := viewerID(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
		return
	}

	videoID := r.PathValue("videoId")
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	exists, err := h.Videos.Exists(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	result, err := h.Comments.ListForVideo(ctx, videoID, viewer, parsePage(r))
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, result, "comments")
}

// Add handles POST /api/v1/videos/{videoId}/comments.
func (h CommentHandler) Add(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := r.PathValue("videoId")
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	exists, err := h.Videos.Exists(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "video not found")
		return
	}

	now := h.now()
	comment := models.Comment{
		ID:        uuid.NewString(),
		VideoID:   videoID,
		OwnerID:   ownerID,
		Content:   req.Content,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.Comments.Create(ctx, comment); err != nil {
		logger.Error("failed to create comment", "error", err, "videoId", videoID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to add comment")
		return
	}

	respondData(ctx, w, http.StatusCreated, comment, "comment added")
}

// Update handles PATCH /api/v1/comments/{commentId}. Only the author may
// update.
func (h CommentHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	commentID := r.PathValue("commentId")
	if !validID(commentID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid comment id")
		return
	}

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid comment payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Content = strings.TrimSpace(req.Content)
	if req.Content == "" {
		respondError(ctx, w, http.StatusBadRequest, "content is required")
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}
	if err := access.RequireOwner(requester, comment.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	updated, err := h.Comments.UpdateContent(ctx, commentID, req.Content)
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "comment updated")
}

// Delete handles DELETE /api/v1/comments/{commentId}. The comment's like
// edges are removed with it.
func (h CommentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	commentID := r.PathValue("commentId")
	if !validID(commentID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid comment id")
		return
	}

	comment, err := h.Comments.FindByID(ctx, commentID)
	if err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}
	if err := access.RequireOwner(requester, comment.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	if err := h.Comments.Delete(ctx, commentID); err != nil {
		respondStoreError(ctx, w, err, "comment not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "comment deleted")
}

func (h CommentHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
