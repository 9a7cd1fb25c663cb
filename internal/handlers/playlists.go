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

// PlaylistHandler implements playlist endpoints.
type PlaylistHandler struct {
	Playlists PlaylistStore
	Videos    VideoStore
	Verifier  TokenVerifier
	NowFunc   func() time.Time
}

type playlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Create handles POST /api/v1/playlists.
func (h PlaylistHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	ownerID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	now := h.now()
	playlist := models.Playlist{
		ID:          uuid.NewString(),
		OwnerID:     ownerID,
		Name:        req.Name,
		Description: strings.TrimSpace(req.Description),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := h.Playlists.Create(ctx, playlist); err != nil {
		logger.Error("failed to create playlist", "error", err, "ownerId", ownerID)
		respondError(ctx, w, http.StatusInternalServerError, "failed to create playlist")
		return
	}

	respondData(ctx, w, http.StatusCreated, playlist, "playlist created")
}

// ListForUser handles GET /api/v1/users/{userId}/playlists.
func (h PlaylistHandler) ListForUser(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID := r.PathValue("userId")
	if !validID(userID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid user id")
		return
	}

	playlists, err := h.Playlists.ListForUser(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "user not found")
		return
	}

	respondData(ctx, w, http.StatusOK, playlists, "playlists")
}

// Get handles GET /api/v1/playlists/{playlistId}, returning the playlist with
// its published videos enriched for the viewer.
func (h PlaylistHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := viewerID(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
		return
	}

	playlistID := r.PathValue("playlistId")
	if !validID(playlistID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	detail, err := h.Playlists.Detail(ctx, playlistID, viewer)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, detail, "playlist")
}

// Update handles PATCH /api/v1/playlists/{playlistId}. Only the owner may
// update.
func (h PlaylistHandler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	playlistID := r.PathValue("playlistId")
	if !validID(playlistID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	var req playlistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.Warn("invalid playlist payload", "error", err)
		respondError(ctx, w, http.StatusBadRequest, "invalid request body")
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		respondError(ctx, w, http.StatusBadRequest, "name is required")
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}
	if err := access.RequireOwner(requester, playlist.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	updated, err := h.Playlists.UpdateDetails(ctx, playlistID, req.Name, strings.TrimSpace(req.Description))
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, updated, "playlist updated")
}

// Delete handles DELETE /api/v1/playlists/{playlistId}. Only the owner may
// delete.
func (h PlaylistHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	playlistID := r.PathValue("playlistId")
	if !validID(playlistID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid playlist id")
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}
	if err := access.RequireOwner(requester, playlist.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	if err := h.Playlists.Delete(ctx, playlistID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "playlist deleted")
}

// AddVideo handles POST /api/v1/playlists/{playlistId}/videos/{videoId}.
// Membership has set semantics: adding a video twice succeeds without
// duplicating it.
func (h PlaylistHandler) AddVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, playlistID, videoID, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}
	if err := access.RequireOwner(requester, playlist.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
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

	if err := h.Playlists.AddVideo(ctx, playlistID, videoID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video added to playlist")
}

// RemoveVideo handles DELETE /api/v1/playlists/{playlistId}/videos/{videoId}.
func (h PlaylistHandler) RemoveVideo(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	requester, playlistID, videoID, ok := h.memberRequest(w, r)
	if !ok {
		return
	}

	playlist, err := h.Playlists.FindByID(ctx, playlistID)
	if err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}
	if err := access.RequireOwner(requester, playlist.OwnerID); err != nil {
		respondStoreError(ctx, w, err, "playlist not found")
		return
	}

	if err := h.Playlists.RemoveVideo(ctx, playlistID, videoID); err != nil {
		respondStoreError(ctx, w, err, "video is not in the playlist")
		return
	}

	respondData(ctx, w, http.StatusOK, nil, "video removed from playlist")
}

// memberRequest authenticates the caller and validates both path ids shared
// by the membership endpoints.
func (h PlaylistHandler) memberRequest(w http.ResponseWriter, r *http.Request) (requester, playlistID, videoID string, ok bool) {
	ctx := r.Context()

	requester, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return "", "", "", false
	}

	playlistID = r.PathValue("playlistId")
	videoID = r.PathValue("videoId")
	if !validID(playlistID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid playlist id")
		return "", "", "", false
	}
	if !validID(videoID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid video id")
		return "", "", "", false
	}

	return requester, playlistID, videoID, true
}

func (h PlaylistHandler) now() time.Time {
	if h.NowFunc != nil {
		return h.NowFunc()
	}
	return time.Now().UTC()
}
