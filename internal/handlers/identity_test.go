package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/vidtube/backend/internal/models"
)

func TestViewerID(t *testing.T) {
	verifier := testVerifier()

	cases := []struct {
		name     string
		header   string
		expected string
		wantErr  bool
	}{
		{name: "no header", header: "", expected: ""},
		{name: "valid token", header: "Bearer token-alice", expected: userAlice},
		{name: "invalid token", header: "Bearer token-forged", wantErr: true},
		{name: "wrong scheme", header: "Basic dXNlcjpwYXNz", expected: ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}

			id, err := viewerID(req, verifier)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if id != tc.expected {
				t.Fatalf("expected %q got %q", tc.expected, id)
			}
		})
	}
}

func TestRequireViewerRejectsAnonymous(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if _, err := requireViewer(req, testVerifier()); err == nil {
		t.Fatalf("expected error for anonymous request")
	}
}

func TestValidID(t *testing.T) {
	if !validID(userAlice) {
		t.Fatalf("expected %s to be valid", userAlice)
	}
	for _, bad := range []string{"", "123", "not-a-uuid", "11111111-1111-4111-8111"} {
		if validID(bad) {
			t.Fatalf("expected %q to be invalid", bad)
		}
	}
}

func TestParsePage(t *testing.T) {
	cases := []struct {
		name     string
		query    string
		expected models.Page
	}{
		{name: "defaults", query: "", expected: models.Page{Number: 1, Limit: 10}},
		{name: "explicit", query: "?page=3&limit=25", expected: models.Page{Number: 3, Limit: 25}},
		{name: "zero page", query: "?page=0&limit=5", expected: models.Page{Number: 1, Limit: 5}},
		{name: "negative limit", query: "?page=2&limit=-1", expected: models.Page{Number: 2, Limit: 10}},
		{name: "garbage", query: "?page=abc&limit=xyz", expected: models.Page{Number: 1, Limit: 10}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/"+tc.query, nil)
			if got := parsePage(req); got != tc.expected {
				t.Fatalf("expected %+v got %+v", tc.expected, got)
			}
		})
	}
}
