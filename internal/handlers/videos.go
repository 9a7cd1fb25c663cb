package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/vidtube/backend/internal/access"
	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
	"github.com/vidtube/backend/internal/repositories"
)

// VideoHandler implements video publishing, listing, and lifecycle endpoints.
type VideoHandler struct {
	Videos   VideoStore
	Media    MediaStore
	Views    ViewCounter
	Verifier TokenVerifier
	NowFunc  func() time.Time
}

type updateVideoRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Publish handles POST /api/v1/videos. The body is multipart form data with
// title, description, and duration fields plus videoFile and thumbnail
// uploads. New videos start unpublished.
func (h VideoHandler) Publish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
		logger.Warn("invalid publish payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
		return
	}

	title := strings.TrimSpace(r.FormValue("title"))
	description := strings.TrimSpace(r.FormValue("description"))
	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	duration, err := strconv.ParseFloat(r.FormValue("duration"), 64)
	if err != nil || duration < 0 {
		respondError(ctx, w, http.StatusBadRequest, "duration must be a non-negative number of seconds")
		return
	}

	videoFile := formFile(r, "videoFile")
	thumbnail := formFile(r, "thumbnail")
	if videoFile == nil || thumbnail == nil {
		respondError(ctx, w, http.StatusBadRequest, "videoFile and thumbnail are required")
		return
	}

	videoURL, err := saveUpload(ctx, h.Media, videoFile, "videos")
	if err != nil {
		logger.Error("video upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store video")
		return
	}

	thumbnailURL, err := saveUpload(ctx, h.Media, thumbnail, "thumbnails")
	if err != nil {
		logger.Error("thumbnail upload failed", "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
		return
	}

	now := h.now()
	video := models.Video{
		ID:           uuid.NewString(),
		OwnerID:      ownerID,
		Title:        title,
		Description:  description,
		VideoURL:     videoURL,
		ThumbnailURL: thumbnailURL,
		Duration:     duration,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := h.Videos.Create(ctx, video); err != nil {
		logger.Error("failed to create video", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create video")
		return
	}

	respondData(ctx, w, http.StatusCreated, video, "video uploaded")
}

// List handles GET /api/v1/videos with optional query, ownerId, page, and
// limit parameters. Unpublished videos appear only for their owner.
func (h VideoHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := viewerID(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
		return
	}

	filter := repositories.VideoFilter{
		Query:    strings.TrimSpace(r.URL.Query().Get("query")),
		OwnerID:  strings.TrimSpace(r.URL.Query().Get("ownerId")),
		ViewerID: viewer,
	}
	if filter.OwnerID != "" && !validID(filter.OwnerID) {
		respondError(ctx, w, http.StatusBadRequest, "ownerId must be a valid id")
		return
	}

	result, err := h.Videos.List(ctx, filter, parsePage(r))
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found")
		return
	}

	respondData(ctx, w, http.StatusOK, result, "videos")
}

// Get handles GET /api/v1/videos/{videoId}. A successful read increments the
// video's pending view count, and signed-in viewers have the watch recorded
// in their history.
func (h VideoHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

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

	video, err := h.Videos.FindEnrichedByID(ctx, videoID, viewer)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	// Views and history are best effort: a counter hiccup must not fail the
	// read path.
	if h.Views != nil {
		if err := h.Views.Increment(ctx, videoID); err != nil {
			logger.Error("failed to count view", "videoId", videoID, "error", err)
		}
	}
	if viewer != "" {
		if err := h.Videos.RecordWatch(ctx, viewer, videoID); err != nil {
			logger.Error("failed to record watch", "videoId", videoID, "userId", viewer, "error", err)
		}
	}

	respondData(ctx, w, http.StatusOK, video, "video")
}

// Update handles PATCH /api/v1/videos/{videoId}. The body is JSON with title
// and description, or multipart form data when a new thumbnail accompanies
// the change. Only the owner may update.
func (h VideoHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := r.PathValue("videoId")
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if err := access.RequireOwner(requester, video.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	var title, description, thumbnailURL string
	if strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/") {
		if err := r.ParseMultipartForm(maxUploadMemory); err != nil {
			logger.Warn("invalid update payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "expected multipart form data")
			return
		}
		title = strings.TrimSpace(r.FormValue("title"))
		description = strings.TrimSpace(r.FormValue("description"))
		if fh := formFile(r, "thumbnail"); fh != nil {
			thumbnailURL, err = saveUpload(ctx, h.Media, fh, "thumbnails")
			if err != nil {
				logger.Error("thumbnail upload failed", "error", err)
				respondError(ctx, w, http.StatusInternalServerError, "failed to store thumbnail")
				return
			}
		}
	} else {
		var req updateVideoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Warn("invalid update payload", "error", err)
			respondError(ctx, w, http.StatusBadRequest, "invalid request body")
			return
		}
		title = strings.TrimSpace(req.Title)
		description = strings.TrimSpace(req.Description)
	}

	if title == "" {
		respondError(ctx, w, http.StatusBadRequest, "title is required")
		return
	}

	updated, err := h.Videos.UpdateDetails(ctx, videoID, title, description, thumbnailURL)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "video updated")
}

// TogglePublish handles PATCH /api/v1/videos/{videoId}/publish. Only the
// owner may flip the publish state.
func (h VideoHandler) TogglePublish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := r.PathValue("videoId")
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if err := access.RequireOwner(requester, video.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	updated, err := h.Videos.TogglePublish(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "publish state toggled")
}

// Delete handles DELETE /api/v1/videos/{videoId}. Deleting a video removes
// its comments, its like edges and those of its comments, its playlist
// memberships, and its watch history entries.
func (h VideoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videoID := r.PathValue("videoId")
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return
	}

	video, err := h.Videos.FindByID(ctx, videoID)
	if err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}
	if err := access.RequireOwner(requester, video.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	if err := h.Videos.Delete(ctx, videoID); err != nil {
		respondStoreError(ctx, w, err, "video not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video deleted")
}

func (h VideoHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
