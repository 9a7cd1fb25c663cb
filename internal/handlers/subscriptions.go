package handlers

import (
	"net/http"

	"github.com/vidtube/backend/internal/logging"
	"github.com/vidtube/backend/internal/models"
)

// SubscriptionHandler implements channel subscription endpoints.
type SubscriptionHandler struct {
	Relations RelationStore
	Users     UserStore
	Verifier  TokenVerifier
}

// subscriptionResponse reports the state after a subscription toggle.
type subscriptionResponse struct {
	IsSubscribed    bool  `json:"isSubscribed"`
	SubscriberCount int64 `json:"subscriberCount"`
}

// Toggle handles POST /api/v1/subscriptions/channels/{channelId}. Subscribing
// to one's own channel is rejected.
func (h SubscriptionHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	actorID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	channelID := r.PathValue("channelId")
	if !validID(channelID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid channel id")
		return
	}
	if channelID == actorID {
		respondError(ctx, w, http.StatusBadRequest, "cannot subscribe to your own channel")
		return
	}

	exists, err := h.Users.Exists(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "channel not found")
		return
	}

	active, err := h.Relations.Toggle(ctx, actorID, models.KindChannel, channelID)
	if err != nil {
		logger.Error("failed to toggle subscription", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to toggle subscription")
		return
	}

	count, err := h.Relations.CountEdges(ctx, models.KindChannel, channelID)
	if err != nil {
		logger.Error("failed to count subscribers", "channelId", channelID, "error", err)
		respondError(ctx, w, http.StatusInternalServerError, "failed to count subscribers")
		return
	}

	respondData(ctx, w, http.StatusOK, subscriptionResponse{IsSubscribed: active, SubscriberCount: count}, "subscription toggled")
}

// Subscribers handles GET /api/v1/subscriptions/channels/{channelId}/subscribers.
func (h SubscriptionHandler) Subscribers(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	channelID := r.PathValue("channelId")
	if !validID(channelID) {
		respondError(ctx, w, http.StatusBadRequest, "invalid channel id")
		return
	}

	exists, err := h.Users.Exists(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}
	if !exists {
		respondError(ctx, w, http.StatusNotFound, "channel not found")
		return
	}

	subscribers, err := h.Relations.ListSubscribers(ctx, channelID)
	if err != nil {
		respondStoreError(ctx, w, err, "channel not found")
		return
	}

	respondData(ctx, w, http.StatusOK, subscribers, "subscribers")
}

// Subscribed handles GET /api/v1/subscriptions/me, listing the channels the
// caller subscribes to.
func (h SubscriptionHandler) Subscribed(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	actorID, err := requireViewer(r, h.Verifier)
	if err != nil {
		respondError(ctx, w, http.StatusUnauthorized, "authentication required")
		return
	}

	channels, err := h.Relations.ListSubscribedChannels(ctx, actorID)
	if err != nil {
		respondStoreError(ctx, w, err, "channels not found")
		return
	}

	respondData(ctx, w, http.StatusOK, channels, "subscribed channels")
}
