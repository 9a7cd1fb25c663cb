package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

const testSecret = "test-signing-secret"

func TestTokenManagerIssueAndVerify(t *testing.T) {
	store := NewMemorySessionStore()
	manager := NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour, store)

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	if tokens.AccessToken == "" || tokens.RefreshToken == "" {
		t.Fatalf("expected both tokens to be set, got %+v", tokens)
	}

	userID, err := manager.Verify(tokens.AccessToken)
	if err != nil {
		t.Fatalf("verify access token: %v", err)
	}
	if userID != "user-1" {
		t.Fatalf("expected subject user-1, got %q", userID)
	}

	if _, err := store.Find(context.Background(), tokens.RefreshToken); err != nil {
		t.Fatalf("expected refresh session to be persisted: %v", err)
	}
}

func TestTokenManagerVerifyRejectsTampering(t *testing.T) {
	manager := NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour, NewMemorySessionStore())
	other := NewTokenManager("a-different-secret", 15*time.Minute, 24*time.Hour, NewMemorySessionStore())

	tokens, err := other.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrAccessTokenInvalid) {
		t.Fatalf("expected ErrAccessTokenInvalid for foreign signature, got %v", err)
	}

	if _, err := manager.Verify("not-a-jwt"); !errors.Is(err, ErrAccessTokenInvalid) {
		t.Fatalf("expected ErrAccessTokenInvalid for garbage token, got %v", err)
	}
}

func TestTokenManagerVerifyExpired(t *testing.T) {
	manager := NewTokenManager(testSecret, time.Minute, 24*time.Hour, NewMemorySessionStore())
	manager.now = func() time.Time { return time.Now().UTC().Add(-time.Hour) }

	tokens, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	if _, err := manager.Verify(tokens.AccessToken); !errors.Is(err, ErrAccessTokenExpired) {
		t.Fatalf("expected ErrAccessTokenExpired, got %v", err)
	}
}

func TestTokenManagerRefreshRotates(t *testing.T) {
	store := NewMemorySessionStore()
	manager := NewTokenManager(testSecret, 15*time.Minute, 24*time.Hour, store)

	initial, err := manager.Issue(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("issue tokens: %v", err)
	}

	rotated, err := manager.Refresh(context.Background(), initial.RefreshToken)
	if err != nil {
		t.Fatalf("refresh tokens: %v", err)
	}

	if rotated.RefreshToken == initial.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	if _, err := store.Find(context.Background(), initial.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected old refresh token to be revoked, got %v", err)
	}

	if _, err := manager.Refresh(context.Background(), initial.RefreshToken); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected replayed refresh token to fail, got %v", err)
	}
}

func TestTokenManagerRefreshExpired(t *testing.T) {
	store := NewMemorySessionStore()
	manager := NewTokenManager(testSecret, 15*time.Minute, time.Hour, store)

	if err := store.Save(context.Background(), Session{
		RefreshToken: "stale",
		UserID:       "user-1",
		ExpiresAt:    time.Now().UTC().Add(-time.Minute),
	}); err != nil {
		t.Fatalf("seed session: %v", err)
	}

	if _, err := manager.Refresh(context.Background(), "stale"); !errors.Is(err, ErrRefreshTokenExpired) {
		t.Fatalf("expected ErrRefreshTokenExpired, got %v", err)
	}

	if _, err := store.Find(context.Background(), "stale"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected expired session to be deleted, got %v", err)
	}
}
