package handlers

import (
	"net/http"
	"strings"
)

// ChannelHandler implements public channel profiles and the owner dashboard.
type ChannelHandler struct {
	Users    UserStore
	Verifier TokenVerifier
}

// Profile handles GET /api/v1/channels/{username}. Anonymous viewers receive
// isSubscribed=false.
func (h ChannelHandler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	viewer, err := viewerID(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "invalid access token")
		return
	}

	username := strings.TrimSpace(strings.ToLower(r.PathValue("username")))
	if username == "" {
		respondError(ctx, w, http.StatusBadRequest, "username is required")
		return
	}

	profile, err := h.Users.ChannelProfile(ctx, username, viewer)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, profile, "channel profile")
}

// Stats handles GET /api/v1/dashboard/stats for the authenticated channel
// owner.
func (h ChannelHandler) Stats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	userID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	stats, err := h.Users.ChannelStats(ctx, userID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, stats, "channel stats")
}
