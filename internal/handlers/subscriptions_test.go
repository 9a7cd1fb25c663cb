package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func newSubscriptionHandler() (SubscriptionHandler, *memRelationStore) {
	relations := newMemRelationStore()
	relations.profiles[userAlice] = models.PublicProfile{ID: userAlice, Username: "alice"}
	relations.profiles[userBob] = models.PublicProfile{ID: userBob, Username: "bob"}

	users := newMemUserStore(
		models.User{ID: userAlice, Username: "alice", Email: "alice@example.com"},
		models.User{ID: userBob, Username: "bob", Email: "bob@example.com"},
	)

	return SubscriptionHandler{Relations: relations, Users: users, Verifier: testVerifier()}, relations
}

func toggleSubscription(t *testing.T, handler SubscriptionHandler, channelID, token string) (*httptest.ResponseRecorder, subscriptionResponse) {
	t.Helper()

	req := authedRequest(http.MethodPost, "/api/v1/subscriptions/channels/"+channelID, nil, token)
	req.SetPathValue("channelId", channelID)
	rec := httptest.NewRecorder()

	handler.Toggle(rec, req)

	var envelope struct {
		Data subscriptionResponse `json:"data"`
	}
	if rec.Code == http.StatusOK {
		if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
			t.Fatalf("decode response: %v", err)
		}
	}
	return rec, envelope.Data
}

func TestSubscriptionHandlerToggleCycle(t *testing.T) {
	handler, _ := newSubscriptionHandler()

	rec, resp := toggleSubscription(t, handler, userBob, "token-alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if !resp.IsSubscribed || resp.SubscriberCount != 1 {
		t.Fatalf("expected subscribed with count 1, got %+v", resp)
	}

	rec, resp = toggleSubscription(t, handler, userBob, "token-alice")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d", http.StatusOK, rec.Code)
	}
	if resp.IsSubscribed || resp.SubscriberCount != 0 {
		t.Fatalf("expected unsubscribed with count 0, got %+v", resp)
	}
}

func TestSubscriptionHandlerRejectsSelfSubscribe(t *testing.T) {
	handler, relations := newSubscriptionHandler()

	rec, _ := toggleSubscription(t, handler, userAlice, "token-alice")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status %d got %d: %s", http.StatusBadRequest, rec.Code, rec.Body.String())
	}
	if len(relations.edges) != 0 {
		t.Fatalf("expected no edges after rejected toggle, got %d", len(relations.edges))
	}
}

func TestSubscriptionHandlerToggleMissingChannel(t *testing.T) {
	handler, _ := newSubscriptionHandler()

	rec, _ := toggleSubscription(t, handler, missingID, "token-alice")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status %d got %d: %s", http.StatusNotFound, rec.Code, rec.Body.String())
	}
}

func TestSubscriptionHandlerListings(t *testing.T) {
	handler, _ := newSubscriptionHandler()

	if rec, _ := toggleSubscription(t, handler, userBob, "token-alice"); rec.Code != http.StatusOK {
		t.Fatalf("subscribe failed with status %d", rec.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/subscriptions/channels/"+userBob+"/subscribers", nil)
	req.SetPathValue("channelId", userBob)
	rec := httptest.NewRecorder()
	handler.Subscribers(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var subscribers struct {
		Data []models.PublicProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&subscribers); err != nil {
		t.Fatalf("decode subscribers: %v", err)
	}
	if len(subscribers.Data) != 1 || subscribers.Data[0].ID != userAlice {
		t.Fatalf("expected alice as sole subscriber, got %+v", subscribers.Data)
	}

	req = authedRequest(http.MethodGet, "/api/v1/subscriptions/me", nil, "token-alice")
	rec = httptest.NewRecorder()
	handler.Subscribed(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	var channels struct {
		Data []models.PublicProfile `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&channels); err != nil {
		t.Fatalf("decode channels: %v", err)
	}
	if len(channels.Data) != 1 || channels.Data[0].ID != userBob {
		t.Fatalf("expected bob as sole subscription, got %+v", channels.Data)
	}
}
