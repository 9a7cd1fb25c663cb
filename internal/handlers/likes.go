package handlers

import (
	"context"
	"net/http"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// LikeHandler implements like toggles for videos, comments, and tweets.
type LikeHandler struct {
	Relations RelationStore
	Videos    VideoStore
	Comments  CommentStore
	Tweets    TweetStore
	Verifier  TokenVerifier
}

// toggleResponse reports the state after a like toggle.
type toggleResponse struct {
	IsLiked   bool  `json:"isLiked"`
	LikeCount int64 `json:"likeCount"`
}

// ToggleVideo handles POST /api/v1/likes/videos/{videoId}.
func (h LikeHandler) ToggleVideo(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.KindVideo, r.PathValue("videoId"), h.Videos.Exists, "video")
}

// ToggleComment handles POST /api/v1/likes/comments/{commentId}.
func (h LikeHandler) ToggleComment(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.KindComment, r.PathValue("commentId"), h.Comments.Exists, "comment")
}

// ToggleTweet handles POST /api/v1/likes/tweets/{tweetId}.
func (h LikeHandler) ToggleTweet(w http.ResponseWriter, r *http.Request) {
	h.toggle(w, r, models.KindTweet, r.PathValue("tweetId"), h.Tweets.Exists, "tweet")
}

// toggle flips the caller's like edge on the target after confirming it
// exists, then reports the resulting state and count.
func (h LikeHandler) toggle(w http.ResponseWriter, r *http.Request, kind models.RelationKind, targetID string, exists func(context.Context, string) (bool, error), label string) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actorID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	if !validID(targetID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid "+label+" id")
		return
	}

	found, err := exists(ctx, targetID)
	if err != nil {
		respondStoreError(ctx, w, err, label+" not found")
		return
	}
	if !found {
		respondError(ctx, w, http.StatusNotFound, label+" not found")
		return
	}

	active, err := h.Relations.Toggle(ctx, actorID, kind, targetID)
	if err != nil {
		logger.Error("failed to toggle like", "kind", kind, "targetId", targetID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle like")
		return
	}

	count, err := h.Relations.CountEdges(ctx, kind, targetID)
	if err != nil {
		logger.Error("failed to count likes", "kind", kind, "targetId", targetID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to count likes")
		return
	}

	respondData(ctx, w, http.StatusOK, toggleResponse{IsLiked: active, LikeCount: count}, "like toggled")
}

// LikedVideos handles GET /api/v1/likes/videos, listing the caller's liked
// videos by like recency.
func (h LikeHandler) LikedVideos(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	videos, err := h.Relations.ListLikedVideos(ctx, actorID)
	if err != nil {
		respondStoreError(ctx, w, err, "videos not found")
		return
	}

	respondData(ctx, w, http.StatusOK, videos, "liked videos")
}
