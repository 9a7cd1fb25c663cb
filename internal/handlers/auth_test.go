package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/vidtube/backend/internal/models"
)

func registerForm(t *testing.T, fields map[string]string, files []string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for key, value := range fields {
		if err := writer.WriteField(key, value); err != nil {
			t.Fatalf("write field %s: %v", key, err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file, file+".png")
		if err != nil {
			t.Fatalf("create file %s: %v", file, err)
		}
		if _, err := part.Write([]byte("fake image bytes")); err != nil {
			t.Fatalf("write file %s: %v", file, err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

func TestAuthHandlerRegister(t *testing.T) {
	users := newMemUserStore()
	sessions := &fakeSessionManager{}
	media := &fakeMediaStore{}
	handler := AuthHandler{Users: users, Sessions: sessions, Media: media}

	body, contentType := registerForm(t, map[string]string{
		"username": "Alice",
		"email":    "Alice@Example.com",
		"fullName": "Alice Example",
		"password": "correcthorse",
	}, []string{"avatar", "coverImage"})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	handler.Register(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected status %d got %d: %s", http.StatusCreated, rec.Code, rec.Body.String())
	}

	var envelope struct {
		Data authResponse `json:"data"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&envelope); err != nil {
		t.Fatalf("decode response: %v", err)
	}

	account := envelope.Data.User
	if account.Username != "alice" || account.Email != "alice@example.com" {
		t.Fatalf("expected lowercased identity, got %q / %q", account.Username, account.Email)
	}
	if account.AvatarURL == "" || account.CoverImageURL == "" {
		t.Fatalf("expected uploaded media URLs, got %+v", account)
	}
	if len(media.saved) != 2 {
		t.Fatalf("expected two uploads, got %v", media.saved)
	}
	if len(sessions.issued) != 1 {
		t.Fatalf("expected a session for the new user, got %v", sessions.issued)
	}

	stored, err := users.FindByID(nil, account.ID)
	if err != nil {
		t.Fatalf("expected user stored: %v", err)
	}
	if stored.PasswordHash == "correcthorse" {
		t.Fatalf("expected password to be hashed")
	}
}

func TestAuthHandlerRegisterFailures(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	existing := models.User{
		ID:           userAlice,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hashed),
	}

	valid := map[string]string{
		"username": "newuser",
		"email":    "new@example.com",
		"fullName": "New User",
		"password": "correcthorse",
	}

	cases := []struct {
		name     string
		fields   map[string]string
		files    []string
		expected int
	}{
		{name: "missing avatar", fields: valid, files: nil, expected: http.StatusBadRequest},
		{name: "short password", fields: map[string]string{"username": "x", "email": "x@example.com", "fullName": "X", "password": "short"}, files: []string{"avatar"}, expected: http.StatusBadRequest},
		{name: "bad email", fields: map[string]string{"username": "x", "email": "not-an-email", "fullName": "X", "password": "correcthorse"}, files: []string{"avatar"}, expected: http.StatusBadRequest},
		{name: "duplicate username", fields: map[string]string{"username": "alice", "email": "other@example.com", "fullName": "A", "password": "correcthorse"}, files: []string{"avatar"}, expected: http.StatusConflict},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthHandler{Users: newMemUserStore(existing), Sessions: &fakeSessionManager{}, Media: &fakeMediaStore{}}

			body, contentType := registerForm(t, tc.fields, tc.files)
			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/register", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			handler.Register(rec, req)

			if rec.Code != tc.expected {
				t.Fatalf("expected status %d got %d: %s", tc.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthHandlerLogin(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correcthorse"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := newMemUserStore(models.User{
		ID:           userAlice,
		Username:     "alice",
		Email:        "alice@example.com",
		PasswordHash: string(hashed),
	})

	cases := []struct {
		name     string
		body     string
		expected int
	}{
		{name: "by username", body: `{"username":"alice","password":"correcthorse"}`, expected: http.StatusOK},
		{name: "by email", body: `{"email":"Alice@Example.com","password":"correcthorse"}`, expected: http.StatusOK},
		{name: "wrong password", body: `{"username":"alice","password":"wrong"}`, expected: http.StatusUnauthorized},
		{name: "unknown user", body: `{"username":"nobody","password":"correcthorse"}`, expected: http.StatusUnauthorized},
		{name: "missing credentials", body: `{}`, expected: http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			handler := AuthHandler{Users: users, Sessions: &fakeSessionManager{}}

			req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(tc.body))
			rec := httptest.NewRecorder()

			handler.Login(rec, req)

			if rec.Code != tc.expected {
				t.Fatalf("expected status %d got %d: %s", tc.expected, rec.Code, rec.Body.String())
			}
		})
	}
}

func TestAuthHandlerLoginRateLimited(t *testing.T) {
	users := newMemUserStore()
	handler := AuthHandler{Users: users, Sessions: &fakeSessionManager{}, Limiter: denyAllLimiter{}}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/login", strings.NewReader(`{"username":"alice","password":"x"}`))
	rec := httptest.NewRecorder()

	handler.Login(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected status %d got %d", http.StatusTooManyRequests, rec.Code)
	}
}

type denyAllLimiter struct{}

func (denyAllLimiter) Allow(string) bool { return false }

func TestAuthHandlerChangePassword(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("oldpassword"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	users := newMemUserStore(models.User{ID: userAlice, Username: "alice", PasswordHash: string(hashed)})
	handler := AuthHandler{Users: users, Sessions: &fakeSessionManager{}, Verifier: testVerifier()}

	req := authedRequest(http.MethodPost, "/api/v1/auth/change-password",
		strings.NewReader(`{"oldPassword":"wrong","newPassword":"newpassword"}`), "token-alice")
	rec := httptest.NewRecorder()
	handler.ChangePassword(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected status %d got %d: %s", http.StatusUnauthorized, rec.Code, rec.Body.String())
	}

	req = authedRequest(http.MethodPost, "/api/v1/auth/change-password",
		strings.NewReader(`{"oldPassword":"oldpassword","newPassword":"newpassword"}`), "token-alice")
	rec = httptest.NewRecorder()
	handler.ChangePassword(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}

	updated := users.users[userAlice]
	if bcrypt.CompareHashAndPassword([]byte(updated.PasswordHash), []byte("newpassword")) != nil {
		t.Fatalf("expected stored hash to match the new password")
	}
}

func TestAuthHandlerLogoutRevokesToken(t *testing.T) {
	sessions := &fakeSessionManager{}
	handler := AuthHandler{Users: newMemUserStore(), Sessions: sessions}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/auth/logout", strings.NewReader(`{"refreshToken":"refresh-abc"}`))
	rec := httptest.NewRecorder()

	handler.Logout(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d got %d: %s", http.StatusOK, rec.Code, rec.Body.String())
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "refresh-abc" {
		t.Fatalf("expected refresh token revoked, got %v", sessions.revoked)
	}
}
